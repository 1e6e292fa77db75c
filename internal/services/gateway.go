package services

import (
	"fmt"
	"math/rand"

	"github.com/example/storefront/internal/models"
)

// CardDetails carries the card fields of a charge request. Against the mock
// gateway they are only checked for presence.
type CardDetails struct {
	CardNumber  string `json:"card_number"`
	ExpiryMonth int    `json:"expiry_month"`
	ExpiryYear  int    `json:"expiry_year"`
	CVV         string `json:"cvv"`
	HolderName  string `json:"holder_name"`
}

// ChargeResult is the gateway's answer to a charge attempt. Declined is a
// normal business outcome; transport or provider failures surface as errors.
type ChargeResult struct {
	Approved      bool
	TransactionID string
}

// RefundResult is the gateway's answer to a refund attempt.
type RefundResult struct {
	Approved      bool
	TransactionID string
}

// Gateway is the external payment provider seam. The production build would
// plug a real PSP client in here; tests and the default wiring use the
// probabilistic mock.
type Gateway interface {
	Charge(payment *models.Payment, card CardDetails) (*ChargeResult, error)
	Refund(refund *models.PaymentRefund) (*RefundResult, error)
}

// MockGateway simulates a payment provider with configurable success
// rates. It never talks to the network.
type MockGateway struct {
	ChargeSuccessRate float64
	RefundSuccessRate float64
}

// NewMockGateway constructs a MockGateway with the given success rates.
func NewMockGateway(chargeRate, refundRate float64) *MockGateway {
	return &MockGateway{ChargeSuccessRate: chargeRate, RefundSuccessRate: refundRate}
}

// Charge approves with ChargeSuccessRate probability.
func (g *MockGateway) Charge(payment *models.Payment, card CardDetails) (*ChargeResult, error) {
	if rand.Float64() >= g.ChargeSuccessRate {
		return &ChargeResult{Approved: false}, nil
	}
	return &ChargeResult{
		Approved:      true,
		TransactionID: fmt.Sprintf("txn_%s", payment.ID),
	}, nil
}

// Refund approves with RefundSuccessRate probability.
func (g *MockGateway) Refund(refund *models.PaymentRefund) (*RefundResult, error) {
	if rand.Float64() >= g.RefundSuccessRate {
		return &RefundResult{Approved: false}, nil
	}
	return &RefundResult{
		Approved:      true,
		TransactionID: fmt.Sprintf("refund_%s", refund.ID),
	}, nil
}
