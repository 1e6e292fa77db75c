package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/storefront/internal/models"
)

func TestCalculateRatesSortedByCost(t *testing.T) {
	db := newTestDB(t)
	svc := NewShippingRateService(db)

	createTestMethod(t, db, func(m *models.ShippingMethod) {
		m.Name = "Express"
		m.BaseCost = 20
		m.CostPerKg = 3
		m.IsExpress = true
	})
	createTestMethod(t, db, func(m *models.ShippingMethod) {
		m.Name = "Standard"
		m.BaseCost = 5
		m.CostPerKg = 1.5
	})

	quotes, err := svc.CalculateRates(context.Background(), "US", 2, 50)
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.Equal(t, "Standard", quotes[0].Name)
	assert.InDelta(t, 8.0, quotes[0].Cost, 0.001)
	assert.Equal(t, "Express", quotes[1].Name)
	assert.InDelta(t, 26.0, quotes[1].Cost, 0.001)
}

func TestCalculateRatesFreeShippingThreshold(t *testing.T) {
	db := newTestDB(t)
	svc := NewShippingRateService(db)

	createTestMethod(t, db, func(m *models.ShippingMethod) {
		m.FreeShippingThreshold = floatPtr(100)
	})

	quotes, err := svc.CalculateRates(context.Background(), "US", 2, 150)
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Zero(t, quotes[0].Cost)
}

func TestCalculateRatesOmitsUnavailableMethods(t *testing.T) {
	db := newTestDB(t)
	svc := NewShippingRateService(db)

	createTestMethod(t, db, func(m *models.ShippingMethod) {
		m.Name = "Domestic"
		m.RestrictedCountries = []string{"KP", "IR"}
	})
	createTestMethod(t, db, func(m *models.ShippingMethod) {
		m.Name = "Light parcels"
		m.MaxWeight = floatPtr(1)
	})

	quotes, err := svc.CalculateRates(context.Background(), "KP", 2, 50)
	require.NoError(t, err)
	assert.Empty(t, quotes)

	quotes, err = svc.CalculateRates(context.Background(), "US", 2, 50)
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, "Domestic", quotes[0].Name)
}

func TestCalculateRatesAppliesZoneOverrides(t *testing.T) {
	db := newTestDB(t)
	svc := NewShippingRateService(db)

	method := createTestMethod(t, db, func(m *models.ShippingMethod) {
		m.BaseCost = 5
		m.CostPerKg = 1.5
	})

	zone := models.ShippingZone{
		Name:      "Europe",
		Countries: []string{"DE", "FR", "NL"},
	}
	require.NoError(t, db.Create(&zone).Error)
	zoneMethod := models.ShippingZoneMethod{
		ZoneID:            zone.ID,
		MethodID:          method.ID,
		BaseCostOverride:  floatPtr(12),
		CostPerKgOverride: floatPtr(2),
	}
	require.NoError(t, db.Create(&zoneMethod).Error)

	quotes, err := svc.CalculateRates(context.Background(), "DE", 2, 50)
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.InDelta(t, 16.0, quotes[0].Cost, 0.001)

	// Outside the zone the method defaults apply.
	quotes, err = svc.CalculateRates(context.Background(), "US", 2, 50)
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.InDelta(t, 8.0, quotes[0].Cost, 0.001)
}

func TestCalculateRatesZoneWithoutMethodsIsEmpty(t *testing.T) {
	db := newTestDB(t)
	svc := NewShippingRateService(db)

	createTestMethod(t, db, nil)

	zone := models.ShippingZone{
		Name:      "Remote",
		Countries: []string{"AQ"},
	}
	require.NoError(t, db.Create(&zone).Error)

	// A zone claims the destination, so the global methods do not apply.
	quotes, err := svc.CalculateRates(context.Background(), "AQ", 2, 50)
	require.NoError(t, err)
	assert.Empty(t, quotes)
}
