package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/utils"
)

// ShipmentService drives fulfillment after payment. Shipment status moves
// independently of the order, but picked_up and delivered transitions are
// mirrored back onto the order.
type ShipmentService struct {
	db *gorm.DB
}

// NewShipmentService constructs ShipmentService.
func NewShipmentService(db *gorm.DB) *ShipmentService {
	return &ShipmentService{db: db}
}

// CreateShipmentInput carries the admin create-shipment request.
type CreateShipmentInput struct {
	OrderID           uuid.UUID
	MethodID          uuid.UUID
	Weight            float64
	Dimensions        models.JSONMap
	SignatureRequired bool
	InsuranceValue    float64
	Notes             string
}

// CreateShipment attaches a shipment to an order, copies the order's
// shipping address snapshot, seeds the tracking log and moves the order to
// processing.
func (s *ShipmentService) CreateShipment(ctx context.Context, input CreateShipmentInput) (*models.Shipment, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", input.OrderID, true).
		First(&order).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	var method models.ShippingMethod
	err = s.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", input.MethodID, true).
		First(&method).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NewNotFoundError("shipping method not found")
		}
		return nil, err
	}

	trackingNumber, err := s.generateTrackingNumber(ctx)
	if err != nil {
		return nil, err
	}

	var shipment models.Shipment
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		shipment = models.Shipment{
			OrderID:           order.ID,
			MethodID:          method.ID,
			TrackingNumber:    trackingNumber,
			Status:            models.ShipmentStatusPending,
			Weight:            input.Weight,
			Dimensions:        input.Dimensions,
			DeliveryAddress:   order.ShippingAddress,
			SignatureRequired: input.SignatureRequired,
			InsuranceValue:    input.InsuranceValue,
			Notes:             input.Notes,
		}
		if err := tx.Create(&shipment).Error; err != nil {
			return err
		}

		event := models.ShipmentTracking{
			ShipmentID:  shipment.ID,
			Status:      models.ShipmentStatusPending,
			Description: "Shipment created",
			EventTime:   time.Now(),
		}
		if err := tx.Create(&event).Error; err != nil {
			return err
		}

		order.Status = models.OrderStatusProcessing
		order.TrackingNumber = shipment.TrackingNumber
		return tx.Model(&order).Updates(map[string]any{
			"status":          order.Status,
			"tracking_number": order.TrackingNumber,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	return &shipment, nil
}

// UpdateTracking records a carrier status update. shipped_at is stamped on
// the first transition into picked_up and delivered_at on the first
// transition into delivered; a repeated status never overwrites either. A
// tracking event is always appended, and picked_up/delivered are mirrored
// onto the order with their timestamps. Everything commits atomically.
func (s *ShipmentService) UpdateTracking(ctx context.Context, shipmentID uuid.UUID, status, location, description string) (*models.Shipment, error) {
	if !isValidShipmentStatus(status) {
		return nil, ErrInvalidStatus
	}

	shipment, err := s.findShipment(ctx, shipmentID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if description == "" {
		description = fmt.Sprintf("Shipment status updated to %s", status)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{"status": status}
		shipment.Status = status

		if status == models.ShipmentStatusPickedUp && shipment.ShippedAt == nil {
			shipment.ShippedAt = &now
			updates["shipped_at"] = &now
		}
		if status == models.ShipmentStatusDelivered && shipment.DeliveredAt == nil {
			shipment.DeliveredAt = &now
			updates["delivered_at"] = &now
		}

		if err := tx.Model(shipment).Updates(updates).Error; err != nil {
			return err
		}

		event := models.ShipmentTracking{
			ShipmentID:  shipment.ID,
			Status:      status,
			Location:    location,
			Description: description,
			EventTime:   now,
		}
		if err := tx.Create(&event).Error; err != nil {
			return err
		}

		switch status {
		case models.ShipmentStatusPickedUp:
			return s.mirrorOrderStatus(tx, shipment.OrderID, models.OrderStatusShipped, "shipped_at", now)
		case models.ShipmentStatusDelivered:
			return s.mirrorOrderStatus(tx, shipment.OrderID, models.OrderStatusDelivered, "delivered_at", now)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return shipment, nil
}

// mirrorOrderStatus reflects a shipment transition onto the order. The
// timestamp column is only stamped once, and a repeated carrier scan that
// leaves the order status unchanged writes no history row.
func (s *ShipmentService) mirrorOrderStatus(tx *gorm.DB, orderID uuid.UUID, status, timeColumn string, now time.Time) error {
	var order models.Order
	if err := tx.First(&order, "id = ?", orderID).Error; err != nil {
		return err
	}

	if order.Status == status {
		return nil
	}

	updates := map[string]any{"status": status}
	switch timeColumn {
	case "shipped_at":
		if order.ShippedAt == nil {
			updates[timeColumn] = &now
		}
	case "delivered_at":
		if order.DeliveredAt == nil {
			updates[timeColumn] = &now
		}
	}

	if err := tx.Model(&order).Updates(updates).Error; err != nil {
		return err
	}

	history := models.OrderStatusHistory{
		OrderID: orderID,
		Status:  status,
		Notes:   "Mirrored from shipment tracking",
	}
	return tx.Create(&history).Error
}

// GenerateLabel creates the carrier label for a shipment. The gateway call
// is mocked; the label URL and carrier id are derived from the tracking
// number. A shipment carries at most one label.
func (s *ShipmentService) GenerateLabel(ctx context.Context, shipmentID uuid.UUID) (*models.ShippingLabel, error) {
	shipment, err := s.findShipment(ctx, shipmentID)
	if err != nil {
		return nil, err
	}

	var count int64
	err = s.db.WithContext(ctx).Model(&models.ShippingLabel{}).
		Where("shipment_id = ?", shipment.ID).
		Count(&count).Error
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, NewConflictError("label already exists for this shipment")
	}

	label := models.ShippingLabel{
		ShipmentID:     shipment.ID,
		LabelFormat:    "pdf",
		LabelURL:       fmt.Sprintf("https://example.com/labels/%s.pdf", shipment.TrackingNumber),
		CarrierLabelID: fmt.Sprintf("label_%s", shipment.TrackingNumber),
		InsuranceCost:  shipment.InsuranceValue,
	}
	if err := s.db.WithContext(ctx).Create(&label).Error; err != nil {
		return nil, err
	}
	return &label, nil
}

// CancelShipment cancels a shipment still in pending or picked_up and
// appends a tracking event.
func (s *ShipmentService) CancelShipment(ctx context.Context, shipmentID uuid.UUID, cancelledBy string) (*models.Shipment, error) {
	shipment, err := s.findShipment(ctx, shipmentID)
	if err != nil {
		return nil, err
	}

	if !shipment.CanBeCancelled() {
		return nil, NewStateError("shipment cannot be cancelled")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		shipment.Status = models.ShipmentStatusCancelled
		if err := tx.Model(shipment).UpdateColumn("status", shipment.Status).Error; err != nil {
			return err
		}

		event := models.ShipmentTracking{
			ShipmentID:  shipment.ID,
			Status:      models.ShipmentStatusCancelled,
			Description: fmt.Sprintf("Shipment cancelled by %s", cancelledBy),
			EventTime:   time.Now(),
		}
		return tx.Create(&event).Error
	})
	if err != nil {
		return nil, err
	}

	return shipment, nil
}

// Track returns a shipment with its event log by tracking number.
func (s *ShipmentService) Track(ctx context.Context, trackingNumber string) (*models.Shipment, error) {
	var shipment models.Shipment
	err := s.db.WithContext(ctx).
		Preload("TrackingEvents", func(db *gorm.DB) *gorm.DB {
			return db.Order("event_time desc")
		}).
		Preload("Method").
		Where("tracking_number = ? AND is_active = ?", trackingNumber, true).
		First(&shipment).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrShipmentNotFound
		}
		return nil, err
	}
	return &shipment, nil
}

func (s *ShipmentService) findShipment(ctx context.Context, shipmentID uuid.UUID) (*models.Shipment, error) {
	var shipment models.Shipment
	err := s.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", shipmentID, true).
		First(&shipment).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrShipmentNotFound
		}
		return nil, err
	}
	return &shipment, nil
}

func (s *ShipmentService) generateTrackingNumber(ctx context.Context) (string, error) {
	for {
		number, err := utils.RandomCode(12)
		if err != nil {
			return "", err
		}

		var count int64
		err = s.db.WithContext(ctx).Model(&models.Shipment{}).
			Where("tracking_number = ?", number).
			Count(&count).Error
		if err != nil {
			return "", err
		}
		if count == 0 {
			return number, nil
		}
	}
}

func isValidShipmentStatus(status string) bool {
	for _, s := range models.ShipmentStatuses {
		if s == status {
			return true
		}
	}
	return false
}
