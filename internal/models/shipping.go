package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Shipment statuses.
const (
	ShipmentStatusPending        = "pending"
	ShipmentStatusPickedUp       = "picked_up"
	ShipmentStatusInTransit      = "in_transit"
	ShipmentStatusOutForDelivery = "out_for_delivery"
	ShipmentStatusDelivered      = "delivered"
	ShipmentStatusFailedDelivery = "failed_delivery"
	ShipmentStatusReturned       = "returned"
	ShipmentStatusCancelled      = "cancelled"
)

// ShipmentStatuses lists every recognized shipment status.
var ShipmentStatuses = []string{
	ShipmentStatusPending,
	ShipmentStatusPickedUp,
	ShipmentStatusInTransit,
	ShipmentStatusOutForDelivery,
	ShipmentStatusDelivered,
	ShipmentStatusFailedDelivery,
	ShipmentStatusReturned,
	ShipmentStatusCancelled,
}

// ShippingMethod is a carrier offering with weight-based pricing.
type ShippingMethod struct {
	BaseModel
	Name        string `json:"name"`
	Description string `json:"description"`
	Carrier     string `json:"carrier"`

	BaseCost              float64  `json:"base_cost"`
	CostPerKg             float64  `json:"cost_per_kg"`
	FreeShippingThreshold *float64 `json:"free_shipping_threshold"`

	MinDeliveryDays int `json:"min_delivery_days"`
	MaxDeliveryDays int `json:"max_delivery_days"`

	IsExpress       bool `json:"is_express"`
	IsInternational bool `json:"is_international"`

	MaxWeight           *float64       `json:"max_weight"`
	RestrictedCountries pq.StringArray `gorm:"type:text[]" json:"restricted_countries"`
}

// CalculateCost returns the shipping cost for the given weight, order total
// and destination. ok is false when the method is unavailable: restricted
// destination or weight over the limit.
func (m *ShippingMethod) CalculateCost(weight, orderTotal float64, destinationCountry string) (cost float64, ok bool) {
	for _, country := range m.RestrictedCountries {
		if country == destinationCountry {
			return 0, false
		}
	}

	if m.MaxWeight != nil && weight > *m.MaxWeight {
		return 0, false
	}

	if m.FreeShippingThreshold != nil && orderTotal >= *m.FreeShippingThreshold {
		return 0, true
	}

	return m.BaseCost + weight*m.CostPerKg, true
}

// DeliveryEstimate renders the delivery window as text.
func (m *ShippingMethod) DeliveryEstimate() string {
	if m.MinDeliveryDays == m.MaxDeliveryDays {
		return fmt.Sprintf("%d days", m.MinDeliveryDays)
	}
	return fmt.Sprintf("%d-%d days", m.MinDeliveryDays, m.MaxDeliveryDays)
}

// ShippingZone groups destination countries that share method pricing.
type ShippingZone struct {
	BaseModel
	Name      string               `json:"name"`
	Countries pq.StringArray       `gorm:"type:text[]" json:"countries"`
	Methods   []ShippingZoneMethod `gorm:"foreignKey:ZoneID" json:"methods,omitempty"`
}

// ContainsCountry reports whether the country code falls in this zone.
func (z *ShippingZone) ContainsCountry(code string) bool {
	for _, c := range z.Countries {
		if c == code {
			return true
		}
	}
	return false
}

// ShippingZoneMethod attaches a method to a zone with optional per-zone
// pricing overrides. Overrides win field by field over the method defaults.
type ShippingZoneMethod struct {
	BaseModel
	ZoneID   uuid.UUID       `gorm:"type:uuid;index;uniqueIndex:idx_zone_method" json:"zone_id"`
	MethodID uuid.UUID       `gorm:"type:uuid;uniqueIndex:idx_zone_method" json:"method_id"`
	Method   *ShippingMethod `json:"method,omitempty"`

	BaseCostOverride              *float64 `json:"base_cost_override"`
	CostPerKgOverride             *float64 `json:"cost_per_kg_override"`
	FreeShippingThresholdOverride *float64 `json:"free_shipping_threshold_override"`
}

// CalculateCost applies the zone overrides on top of the method pricing.
// Method must be preloaded.
func (zm *ShippingZoneMethod) CalculateCost(weight, orderTotal float64) (cost float64, ok bool) {
	if zm.Method == nil {
		return 0, false
	}

	baseCost := zm.Method.BaseCost
	if zm.BaseCostOverride != nil {
		baseCost = *zm.BaseCostOverride
	}

	costPerKg := zm.Method.CostPerKg
	if zm.CostPerKgOverride != nil {
		costPerKg = *zm.CostPerKgOverride
	}

	freeThreshold := zm.Method.FreeShippingThreshold
	if zm.FreeShippingThresholdOverride != nil {
		freeThreshold = zm.FreeShippingThresholdOverride
	}

	if zm.Method.MaxWeight != nil && weight > *zm.Method.MaxWeight {
		return 0, false
	}

	if freeThreshold != nil && orderTotal >= *freeThreshold {
		return 0, true
	}

	return baseCost + weight*costPerKg, true
}

// Shipment is the fulfillment record attached one-to-one to an order. Its
// status moves independently of the order, but key transitions are mirrored
// back (picked_up -> shipped, delivered -> delivered).
type Shipment struct {
	BaseModel
	OrderID  uuid.UUID       `gorm:"type:uuid;uniqueIndex" json:"order_id"`
	Order    *Order          `json:"order,omitempty"`
	MethodID uuid.UUID       `gorm:"type:uuid" json:"method_id"`
	Method   *ShippingMethod `json:"method,omitempty"`

	TrackingNumber     string `gorm:"uniqueIndex" json:"tracking_number"`
	CarrierTrackingURL string `json:"carrier_tracking_url"`
	Status             string `gorm:"default:pending" json:"status"`

	Weight     float64 `json:"weight"`
	Dimensions JSONMap `json:"dimensions"`

	DeliveryAddress JSONMap `json:"delivery_address"`

	ShippedAt         *time.Time `json:"shipped_at"`
	EstimatedDelivery *time.Time `json:"estimated_delivery"`
	DeliveredAt       *time.Time `json:"delivered_at"`

	Notes             string  `json:"notes"`
	SignatureRequired bool    `json:"signature_required"`
	InsuranceValue    float64 `json:"insurance_value"`

	TrackingEvents []ShipmentTracking `json:"tracking_events,omitempty"`
	Label          *ShippingLabel     `json:"label,omitempty"`
}

// IsDelivered reports whether the shipment reached its destination.
func (s *Shipment) IsDelivered() bool {
	return s.Status == ShipmentStatusDelivered
}

// IsInTransit reports whether the shipment is moving.
func (s *Shipment) IsInTransit() bool {
	switch s.Status {
	case ShipmentStatusPickedUp, ShipmentStatusInTransit, ShipmentStatusOutForDelivery:
		return true
	}
	return false
}

// CanBeCancelled reports whether cancellation is still allowed.
func (s *Shipment) CanBeCancelled() bool {
	return s.Status == ShipmentStatusPending || s.Status == ShipmentStatusPickedUp
}

// ShippingLabel is the printable carrier label, one per shipment.
type ShippingLabel struct {
	BaseModel
	ShipmentID uuid.UUID `gorm:"type:uuid;uniqueIndex" json:"shipment_id"`

	LabelFormat    string `gorm:"default:pdf" json:"label_format"`
	LabelURL       string `json:"label_url"`
	CarrierLabelID string `json:"carrier_label_id"`

	PostageCost   *float64 `json:"postage_cost"`
	InsuranceCost float64  `json:"insurance_cost"`

	IsPrinted bool       `json:"is_printed"`
	PrintedAt *time.Time `json:"printed_at"`
}

// ShipmentTracking is an append-only event log ordered by event time.
type ShipmentTracking struct {
	BaseModel
	ShipmentID  uuid.UUID `gorm:"type:uuid;index" json:"shipment_id"`
	Status      string    `json:"status"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	EventTime   time.Time `json:"event_time"`
	CarrierData JSONMap   `json:"carrier_data"`
}
