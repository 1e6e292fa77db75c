package models

import (
	"time"

	"github.com/google/uuid"
)

// Payment methods.
const (
	PaymentMethodCreditCard     = "credit_card"
	PaymentMethodDebitCard      = "debit_card"
	PaymentMethodCashOnDelivery = "cash_on_delivery"
)

// Payment statuses.
const (
	PaymentStatusPending           = "pending"
	PaymentStatusProcessing        = "processing"
	PaymentStatusCompleted         = "completed"
	PaymentStatusFailed            = "failed"
	PaymentStatusCancelled         = "cancelled"
	PaymentStatusRefunded          = "refunded"
	PaymentStatusPartiallyRefunded = "partially_refunded"
)

// Payment is one charge attempt against an order. An order may have several
// attempts; the amount is fixed at creation from the server-computed order
// total. RefundAmount accumulates across partial refunds and only moves
// through guarded updates so it never exceeds Amount.
type Payment struct {
	BaseModel
	OrderID uuid.UUID `gorm:"type:uuid;index" json:"order_id"`
	Order   *Order    `json:"order,omitempty"`
	UserID  uuid.UUID `gorm:"type:uuid;index" json:"user_id"`

	PaymentMethod string  `json:"payment_method"`
	Amount        float64 `json:"amount"`
	Currency      string  `gorm:"default:USD" json:"currency"`
	Status        string  `gorm:"default:pending" json:"status"`

	TransactionID   string  `json:"transaction_id"`
	GatewayResponse JSONMap `json:"gateway_response"`

	Notes       string     `json:"notes"`
	ProcessedAt *time.Time `json:"processed_at"`

	RefundAmount float64 `json:"refund_amount"`
	RefundReason string  `json:"refund_reason"`

	Refunds []PaymentRefund `json:"refunds,omitempty"`
}

// IsSuccessful reports whether the charge completed.
func (p *Payment) IsSuccessful() bool {
	return p.Status == PaymentStatusCompleted
}

// CanBeRefunded reports whether more of the payment may be refunded.
func (p *Payment) CanBeRefunded() bool {
	return p.Status == PaymentStatusCompleted || p.Status == PaymentStatusPartiallyRefunded
}

// RemainingRefundAmount is the amount still refundable.
func (p *Payment) RemainingRefundAmount() float64 {
	return p.Amount - p.RefundAmount
}

// Refund statuses.
const (
	RefundStatusPending   = "pending"
	RefundStatusCompleted = "completed"
	RefundStatusFailed    = "failed"
)

// PaymentRefund is one refund against a payment.
type PaymentRefund struct {
	BaseModel
	PaymentID uuid.UUID `gorm:"type:uuid;index" json:"payment_id"`
	Amount    float64   `json:"amount"`
	Reason    string    `json:"reason"`
	Status    string    `gorm:"default:pending" json:"status"`

	RefundTransactionID string  `json:"refund_transaction_id"`
	GatewayResponse     JSONMap `json:"gateway_response"`

	ProcessedAt *time.Time `json:"processed_at"`
	ProcessedBy *uuid.UUID `gorm:"type:uuid" json:"processed_by"`
}

// PaymentWebhook stores raw gateway webhook events. Payloads are accepted
// and persisted as-is; signature verification is an external concern.
type PaymentWebhook struct {
	BaseModel
	Gateway   string  `json:"gateway"`
	EventType string  `json:"event_type"`
	EventID   string  `gorm:"index" json:"event_id"`
	Payload   JSONMap `json:"payload"`
	Headers   JSONMap `json:"headers"`

	Processed    bool       `json:"processed"`
	ProcessedAt  *time.Time `json:"processed_at"`
	ErrorMessage string     `json:"error_message"`
}
