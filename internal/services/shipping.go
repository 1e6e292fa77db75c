package services

import (
	"context"
	"sort"

	"gorm.io/gorm"

	"github.com/example/storefront/internal/models"
)

// ShippingRateService quotes shipping costs for a destination.
type ShippingRateService struct {
	db *gorm.DB
}

// NewShippingRateService constructs ShippingRateService.
func NewShippingRateService(db *gorm.DB) *ShippingRateService {
	return &ShippingRateService{db: db}
}

// RateQuote is one available method with its computed cost.
type RateQuote struct {
	MethodID         string  `json:"id"`
	Name             string  `json:"name"`
	Description      string  `json:"description"`
	Carrier          string  `json:"carrier"`
	Cost             float64 `json:"cost"`
	DeliveryEstimate string  `json:"delivery_estimate"`
	IsExpress        bool    `json:"is_express"`
}

// CalculateRates returns the available methods for the destination sorted
// by cost. When a shipping zone covers the destination its per-zone
// overrides apply; otherwise the method defaults are used. Unavailable
// methods (restricted country, weight over limit) are omitted.
func (s *ShippingRateService) CalculateRates(ctx context.Context, destinationCountry string, weight, orderTotal float64) ([]RateQuote, error) {
	zone, err := s.findZone(ctx, destinationCountry)
	if err != nil {
		return nil, err
	}

	var quotes []RateQuote

	if zone != nil {
		var zoneMethods []models.ShippingZoneMethod
		err := s.db.WithContext(ctx).
			Preload("Method").
			Where("zone_id = ? AND is_active = ?", zone.ID, true).
			Find(&zoneMethods).Error
		if err != nil {
			return nil, err
		}

		for i := range zoneMethods {
			zm := &zoneMethods[i]
			if zm.Method == nil || !zm.Method.IsActive {
				continue
			}
			if cost, ok := zm.CalculateCost(weight, orderTotal); ok {
				quotes = append(quotes, quoteFor(zm.Method, cost))
			}
		}
	} else {
		var methods []models.ShippingMethod
		err := s.db.WithContext(ctx).
			Where("is_active = ?", true).
			Find(&methods).Error
		if err != nil {
			return nil, err
		}

		for i := range methods {
			method := &methods[i]
			if cost, ok := method.CalculateCost(weight, orderTotal, destinationCountry); ok {
				quotes = append(quotes, quoteFor(method, cost))
			}
		}
	}

	sort.Slice(quotes, func(i, j int) bool {
		return quotes[i].Cost < quotes[j].Cost
	})

	return quotes, nil
}

func (s *ShippingRateService) findZone(ctx context.Context, country string) (*models.ShippingZone, error) {
	var zones []models.ShippingZone
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Find(&zones).Error
	if err != nil {
		return nil, err
	}

	for i := range zones {
		if zones[i].ContainsCountry(country) {
			return &zones[i], nil
		}
	}
	return nil, nil
}

func quoteFor(method *models.ShippingMethod, cost float64) RateQuote {
	return RateQuote{
		MethodID:         method.ID.String(),
		Name:             method.Name,
		Description:      method.Description,
		Carrier:          method.Carrier,
		Cost:             round2(cost),
		DeliveryEstimate: method.DeliveryEstimate(),
		IsExpress:        method.IsExpress,
	}
}
