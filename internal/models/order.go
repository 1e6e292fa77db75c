package models

import (
	"time"

	"github.com/google/uuid"
)

// Order statuses.
const (
	OrderStatusPending    = "pending"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
	OrderStatusRefunded   = "refunded"
)

// Order payment statuses.
const (
	OrderPaymentPending           = "pending"
	OrderPaymentPaid              = "paid"
	OrderPaymentFailed            = "failed"
	OrderPaymentRefunded          = "refunded"
	OrderPaymentPartiallyRefunded = "partially_refunded"
)

// Order is the immutable-once-placed record of a completed checkout. The
// orchestrator always recomputes the totals; they are never trusted from
// client input.
type Order struct {
	BaseModel
	UserID      uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	User        *User     `json:"user,omitempty"`
	OrderNumber string    `gorm:"uniqueIndex" json:"order_number"`

	Subtotal       float64 `json:"subtotal"`
	TaxAmount      float64 `json:"tax_amount"`
	ShippingAmount float64 `json:"shipping_amount"`
	DiscountAmount float64 `json:"discount_amount"`
	TotalAmount    float64 `json:"total_amount"`

	Status        string `gorm:"default:pending" json:"status"`
	PaymentStatus string `gorm:"default:pending" json:"payment_status"`

	BillingAddress  JSONMap `json:"billing_address"`
	ShippingAddress JSONMap `json:"shipping_address"`

	Notes          string `json:"notes"`
	TrackingNumber string `json:"tracking_number"`

	ConfirmedAt *time.Time `json:"confirmed_at"`
	ShippedAt   *time.Time `json:"shipped_at"`
	DeliveredAt *time.Time `json:"delivered_at"`

	Items         []OrderItem          `json:"items,omitempty"`
	StatusHistory []OrderStatusHistory `json:"status_history,omitempty"`
}

// CanBeCancelled reports whether the customer may still cancel.
func (o *Order) CanBeCancelled() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusConfirmed
}

// IsPaid reports whether payment has completed.
func (o *Order) IsPaid() bool {
	return o.PaymentStatus == OrderPaymentPaid
}

// TotalItems sums item quantities. Items must be preloaded.
func (o *Order) TotalItems() int {
	total := 0
	for _, item := range o.Items {
		total += item.Quantity
	}
	return total
}

// OrderItem is an immutable snapshot of a cart line at order time. Product
// name, SKU and unit price must not change even if the catalog record is
// later edited or deleted.
type OrderItem struct {
	BaseModel
	OrderID   uuid.UUID  `gorm:"type:uuid;index" json:"order_id"`
	ProductID uuid.UUID  `gorm:"type:uuid" json:"product_id"`
	VariantID *uuid.UUID `gorm:"type:uuid" json:"variant_id"`

	ProductName       string  `json:"product_name"`
	ProductSKU        string  `json:"product_sku"`
	UnitPrice         float64 `json:"unit_price"`
	Quantity          int     `json:"quantity"`
	VariantAttributes JSONMap `json:"variant_attributes"`
}

// TotalPrice is unit price times quantity.
func (i *OrderItem) TotalPrice() float64 {
	return i.UnitPrice * float64(i.Quantity)
}

// OrderStatusHistory is an append-only audit log of status transitions.
type OrderStatusHistory struct {
	BaseModel
	OrderID   uuid.UUID  `gorm:"type:uuid;index" json:"order_id"`
	Status    string     `json:"status"`
	Notes     string     `json:"notes"`
	ChangedBy *uuid.UUID `gorm:"type:uuid" json:"changed_by"`
}

// Coupon discount types.
const (
	DiscountTypePercentage = "percentage"
	DiscountTypeFixed      = "fixed"
)

// Coupon is a named discount rule with a validity window and usage caps.
// UsedCount only moves through guarded updates so it never exceeds
// UsageLimit under concurrent redemption.
type Coupon struct {
	BaseModel
	Code        string `gorm:"uniqueIndex" json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`

	DiscountType  string  `json:"discount_type"`
	DiscountValue float64 `json:"discount_value"`

	UsageLimit        *int `json:"usage_limit"`
	UsedCount         int  `json:"used_count"`
	UsageLimitPerUser *int `json:"usage_limit_per_user"`

	ValidFrom  time.Time `json:"valid_from"`
	ValidUntil time.Time `json:"valid_until"`

	MinimumAmount   *float64 `json:"minimum_amount"`
	MaximumDiscount *float64 `json:"maximum_discount"`
}

// IsValid reports whether the coupon is redeemable right now: active,
// inside its validity window and not exhausted.
func (c *Coupon) IsValid(now time.Time) bool {
	if !c.IsActive {
		return false
	}
	if now.Before(c.ValidFrom) || now.After(c.ValidUntil) {
		return false
	}
	if c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit {
		return false
	}
	return true
}

// CouponUsage records one redemption; per-user limits are enforced by
// counting rows for (coupon, user).
type CouponUsage struct {
	BaseModel
	CouponID       uuid.UUID `gorm:"type:uuid;index" json:"coupon_id"`
	UserID         uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	OrderID        uuid.UUID `gorm:"type:uuid" json:"order_id"`
	DiscountAmount float64   `json:"discount_amount"`
}
