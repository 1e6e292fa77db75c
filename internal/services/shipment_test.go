package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/models"
)

func createTestMethod(t *testing.T, db *gorm.DB, mutate func(*models.ShippingMethod)) *models.ShippingMethod {
	t.Helper()

	method := models.ShippingMethod{
		Name:            "Standard",
		Carrier:         "TestPost",
		BaseCost:        5,
		CostPerKg:       1.5,
		MinDeliveryDays: 3,
		MaxDeliveryDays: 7,
	}
	if mutate != nil {
		mutate(&method)
	}
	require.NoError(t, db.Create(&method).Error)
	return &method
}

func createTestShipment(t *testing.T, db *gorm.DB) (*ShipmentService, *models.Shipment, *models.Order) {
	t.Helper()

	user := createTestUser(t, db)
	product := createTestProduct(t, db, 50, 10)
	order := placeTestOrder(t, db, user, product, 1, "")
	method := createTestMethod(t, db, nil)

	svc := NewShipmentService(db)
	shipment, err := svc.CreateShipment(context.Background(), CreateShipmentInput{
		OrderID:  order.ID,
		MethodID: method.ID,
		Weight:   2,
	})
	require.NoError(t, err)
	return svc, shipment, order
}

func TestCreateShipmentSeedsTrackingAndOrder(t *testing.T) {
	db := newTestDB(t)
	_, shipment, order := createTestShipment(t, db)

	assert.Equal(t, models.ShipmentStatusPending, shipment.Status)
	assert.Len(t, shipment.TrackingNumber, 12)
	assert.Equal(t, order.ShippingAddress["city"], shipment.DeliveryAddress["city"])

	var events []models.ShipmentTracking
	require.NoError(t, db.Where("shipment_id = ?", shipment.ID).Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, models.ShipmentStatusPending, events[0].Status)

	var reloaded models.Order
	require.NoError(t, db.First(&reloaded, "id = ?", order.ID).Error)
	assert.Equal(t, models.OrderStatusProcessing, reloaded.Status)
	assert.Equal(t, shipment.TrackingNumber, reloaded.TrackingNumber)
}

func TestUpdateTrackingStampsTimestampsOnce(t *testing.T) {
	db := newTestDB(t)
	svc, shipment, order := createTestShipment(t, db)
	ctx := context.Background()

	first, err := svc.UpdateTracking(ctx, shipment.ID, models.ShipmentStatusPickedUp, "Depot A", "")
	require.NoError(t, err)
	require.NotNil(t, first.ShippedAt)
	shippedAt := *first.ShippedAt

	// A repeated carrier scan must not move the original timestamp but
	// still lands in the event log.
	second, err := svc.UpdateTracking(ctx, shipment.ID, models.ShipmentStatusPickedUp, "Depot B", "")
	require.NoError(t, err)
	require.NotNil(t, second.ShippedAt)
	assert.True(t, second.ShippedAt.Equal(shippedAt))

	var events int64
	require.NoError(t, db.Model(&models.ShipmentTracking{}).
		Where("shipment_id = ?", shipment.ID).Count(&events).Error)
	assert.EqualValues(t, 3, events)

	var reloaded models.Order
	require.NoError(t, db.First(&reloaded, "id = ?", order.ID).Error)
	assert.Equal(t, models.OrderStatusShipped, reloaded.Status)
	require.NotNil(t, reloaded.ShippedAt)
	assert.True(t, reloaded.ShippedAt.Equal(shippedAt))

	// The repeated scan keeps the event log growing but mirrors onto the
	// order only once, so exactly one shipped history row exists.
	var shippedRows int64
	require.NoError(t, db.Model(&models.OrderStatusHistory{}).
		Where("order_id = ? AND status = ?", order.ID, models.OrderStatusShipped).
		Count(&shippedRows).Error)
	assert.EqualValues(t, 1, shippedRows)
}

func TestUpdateTrackingDeliveredMirrorsOrder(t *testing.T) {
	db := newTestDB(t)
	svc, shipment, order := createTestShipment(t, db)
	ctx := context.Background()

	_, err := svc.UpdateTracking(ctx, shipment.ID, models.ShipmentStatusPickedUp, "", "")
	require.NoError(t, err)
	_, err = svc.UpdateTracking(ctx, shipment.ID, models.ShipmentStatusInTransit, "", "")
	require.NoError(t, err)
	delivered, err := svc.UpdateTracking(ctx, shipment.ID, models.ShipmentStatusDelivered, "Front door", "")
	require.NoError(t, err)
	require.NotNil(t, delivered.DeliveredAt)

	var reloaded models.Order
	require.NoError(t, db.First(&reloaded, "id = ?", order.ID).Error)
	assert.Equal(t, models.OrderStatusDelivered, reloaded.Status)
	assert.NotNil(t, reloaded.DeliveredAt)
}

func TestUpdateTrackingRejectsUnknownStatus(t *testing.T) {
	db := newTestDB(t)
	svc, shipment, _ := createTestShipment(t, db)

	_, err := svc.UpdateTracking(context.Background(), shipment.ID, "teleported", "", "")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestCancelShipmentOnlyBeforeTransit(t *testing.T) {
	db := newTestDB(t)
	svc, shipment, _ := createTestShipment(t, db)
	ctx := context.Background()

	_, err := svc.UpdateTracking(ctx, shipment.ID, models.ShipmentStatusInTransit, "", "")
	require.NoError(t, err)

	_, err = svc.CancelShipment(ctx, shipment.ID, "admin")
	require.Error(t, err)
	class, ok := ClassOf(err)
	require.True(t, ok)
	assert.Equal(t, ClassState, class)
}

func TestCancelShipmentWhilePending(t *testing.T) {
	db := newTestDB(t)
	svc, shipment, _ := createTestShipment(t, db)

	cancelled, err := svc.CancelShipment(context.Background(), shipment.ID, "admin")
	require.NoError(t, err)
	assert.Equal(t, models.ShipmentStatusCancelled, cancelled.Status)
}

func TestGenerateLabelOncePerShipment(t *testing.T) {
	db := newTestDB(t)
	svc, shipment, _ := createTestShipment(t, db)
	ctx := context.Background()

	label, err := svc.GenerateLabel(ctx, shipment.ID)
	require.NoError(t, err)
	assert.Equal(t, "pdf", label.LabelFormat)
	assert.Contains(t, label.LabelURL, shipment.TrackingNumber)
	assert.Equal(t, "label_"+shipment.TrackingNumber, label.CarrierLabelID)

	_, err = svc.GenerateLabel(ctx, shipment.ID)
	require.Error(t, err)
	class, ok := ClassOf(err)
	require.True(t, ok)
	assert.Equal(t, ClassConflict, class)
}

func TestTrackReturnsEventsNewestFirst(t *testing.T) {
	db := newTestDB(t)
	svc, shipment, _ := createTestShipment(t, db)
	ctx := context.Background()

	_, err := svc.UpdateTracking(ctx, shipment.ID, models.ShipmentStatusPickedUp, "Depot", "")
	require.NoError(t, err)

	tracked, err := svc.Track(ctx, shipment.TrackingNumber)
	require.NoError(t, err)
	require.Len(t, tracked.TrackingEvents, 2)
	assert.Equal(t, models.ShipmentStatusPickedUp, tracked.TrackingEvents[0].Status)

	_, err = svc.Track(ctx, "UNKNOWN0000")
	assert.ErrorIs(t, err, ErrShipmentNotFound)
}
