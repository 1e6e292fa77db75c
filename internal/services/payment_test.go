package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/storefront/internal/models"
)

// stubGateway gives tests full control over gateway outcomes.
type stubGateway struct {
	approveCharge bool
	approveRefund bool
	chargeErr     error
	refundErr     error
}

func (g *stubGateway) Charge(payment *models.Payment, card CardDetails) (*ChargeResult, error) {
	if g.chargeErr != nil {
		return nil, g.chargeErr
	}
	return &ChargeResult{Approved: g.approveCharge, TransactionID: "txn_test"}, nil
}

func (g *stubGateway) Refund(refund *models.PaymentRefund) (*RefundResult, error) {
	if g.refundErr != nil {
		return nil, g.refundErr
	}
	return &RefundResult{Approved: g.approveRefund, TransactionID: "refund_test"}, nil
}

func TestProcessPaymentCardApproved(t *testing.T) {
	db := newTestDB(t)
	svc := NewPaymentService(db, &stubGateway{approveCharge: true})
	user := createTestUser(t, db)
	product := createTestProduct(t, db, 100, 10)

	order := placeTestOrder(t, db, user, product, 1, "")

	payment, err := svc.ProcessPayment(context.Background(), user.ID, order.ID, models.PaymentMethodCreditCard, CardDetails{})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, payment.Status)
	assert.Equal(t, "txn_test", payment.TransactionID)
	assert.InDelta(t, order.TotalAmount, payment.Amount, 0.001)
	require.NotNil(t, payment.ProcessedAt)

	var reloaded models.Order
	require.NoError(t, db.First(&reloaded, "id = ?", order.ID).Error)
	assert.Equal(t, models.OrderPaymentPaid, reloaded.PaymentStatus)
	assert.Equal(t, models.OrderStatusConfirmed, reloaded.Status)
	assert.NotNil(t, reloaded.ConfirmedAt)
}

func TestProcessPaymentCardDeclined(t *testing.T) {
	db := newTestDB(t)
	svc := NewPaymentService(db, &stubGateway{approveCharge: false})
	user := createTestUser(t, db)
	product := createTestProduct(t, db, 100, 10)

	order := placeTestOrder(t, db, user, product, 1, "")

	_, err := svc.ProcessPayment(context.Background(), user.ID, order.ID, models.PaymentMethodCreditCard, CardDetails{})
	require.Error(t, err)
	class, ok := ClassOf(err)
	require.True(t, ok)
	assert.Equal(t, ClassValidation, class)

	var payment models.Payment
	require.NoError(t, db.First(&payment, "order_id = ?", order.ID).Error)
	assert.Equal(t, models.PaymentStatusFailed, payment.Status)

	var reloaded models.Order
	require.NoError(t, db.First(&reloaded, "id = ?", order.ID).Error)
	assert.Equal(t, models.OrderPaymentPending, reloaded.PaymentStatus)
}

func TestProcessPaymentGatewayFault(t *testing.T) {
	db := newTestDB(t)
	svc := NewPaymentService(db, &stubGateway{chargeErr: errors.New("connection reset")})
	user := createTestUser(t, db)
	product := createTestProduct(t, db, 100, 10)

	order := placeTestOrder(t, db, user, product, 1, "")

	_, err := svc.ProcessPayment(context.Background(), user.ID, order.ID, models.PaymentMethodCreditCard, CardDetails{})
	require.Error(t, err)
	class, ok := ClassOf(err)
	require.True(t, ok)
	assert.Equal(t, ClassGateway, class)
}

func TestProcessPaymentCashOnDelivery(t *testing.T) {
	db := newTestDB(t)
	svc := NewPaymentService(db, &stubGateway{})
	user := createTestUser(t, db)
	product := createTestProduct(t, db, 100, 10)

	order := placeTestOrder(t, db, user, product, 1, "")

	payment, err := svc.ProcessPayment(context.Background(), user.ID, order.ID, models.PaymentMethodCashOnDelivery, CardDetails{})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, payment.Status)

	var reloaded models.Order
	require.NoError(t, db.First(&reloaded, "id = ?", order.ID).Error)
	assert.Equal(t, models.OrderPaymentPending, reloaded.PaymentStatus)
	assert.Equal(t, models.OrderStatusPending, reloaded.Status)
}

func TestProcessPaymentAlreadyPaid(t *testing.T) {
	db := newTestDB(t)
	svc := NewPaymentService(db, &stubGateway{approveCharge: true})
	user := createTestUser(t, db)
	product := createTestProduct(t, db, 100, 10)
	ctx := context.Background()

	order := placeTestOrder(t, db, user, product, 1, "")
	_, err := svc.ProcessPayment(ctx, user.ID, order.ID, models.PaymentMethodCreditCard, CardDetails{})
	require.NoError(t, err)

	_, err = svc.ProcessPayment(ctx, user.ID, order.ID, models.PaymentMethodCreditCard, CardDetails{})
	assert.ErrorIs(t, err, ErrOrderAlreadyPaid)
}

func TestProcessRefundPartialThenFull(t *testing.T) {
	db := newTestDB(t)
	svc := NewPaymentService(db, &stubGateway{approveCharge: true, approveRefund: true})
	user := createTestUser(t, db)
	admin := createTestUser(t, db)
	product := createTestProduct(t, db, 100, 10)
	ctx := context.Background()

	order := placeTestOrder(t, db, user, product, 1, "")
	payment, err := svc.ProcessPayment(ctx, user.ID, order.ID, models.PaymentMethodCreditCard, CardDetails{})
	require.NoError(t, err)

	refund, err := svc.ProcessRefund(ctx, admin.ID, payment.ID, 60, "damaged item")
	require.NoError(t, err)
	assert.Equal(t, models.RefundStatusCompleted, refund.Status)

	var reloaded models.Payment
	require.NoError(t, db.First(&reloaded, "id = ?", payment.ID).Error)
	assert.Equal(t, models.PaymentStatusPartiallyRefunded, reloaded.Status)
	assert.InDelta(t, 60.0, reloaded.RefundAmount, 0.001)

	_, err = svc.ProcessRefund(ctx, admin.ID, payment.ID, reloaded.RemainingRefundAmount()+10, "late request")
	assert.ErrorIs(t, err, ErrRefundExceedsAmount)

	_, err = svc.ProcessRefund(ctx, admin.ID, payment.ID, reloaded.RemainingRefundAmount(), "rest of it")
	require.NoError(t, err)

	require.NoError(t, db.First(&reloaded, "id = ?", payment.ID).Error)
	assert.Equal(t, models.PaymentStatusRefunded, reloaded.Status)
	assert.InDelta(t, reloaded.Amount, reloaded.RefundAmount, 0.001)
}

func TestProcessRefundInvalidState(t *testing.T) {
	db := newTestDB(t)
	svc := NewPaymentService(db, &stubGateway{approveCharge: false, approveRefund: true})
	user := createTestUser(t, db)
	admin := createTestUser(t, db)
	product := createTestProduct(t, db, 100, 10)
	ctx := context.Background()

	order := placeTestOrder(t, db, user, product, 1, "")
	_, err := svc.ProcessPayment(ctx, user.ID, order.ID, models.PaymentMethodCreditCard, CardDetails{})
	require.Error(t, err)

	var payment models.Payment
	require.NoError(t, db.First(&payment, "order_id = ?", order.ID).Error)

	_, err = svc.ProcessRefund(ctx, admin.ID, payment.ID, 10, "never charged")
	assert.ErrorIs(t, err, ErrInvalidRefundState)
}

func TestProcessRefundReleasesReservationOnGatewayFailure(t *testing.T) {
	db := newTestDB(t)
	gateway := &stubGateway{approveCharge: true, approveRefund: false}
	svc := NewPaymentService(db, gateway)
	user := createTestUser(t, db)
	admin := createTestUser(t, db)
	product := createTestProduct(t, db, 100, 10)
	ctx := context.Background()

	order := placeTestOrder(t, db, user, product, 1, "")
	payment, err := svc.ProcessPayment(ctx, user.ID, order.ID, models.PaymentMethodCreditCard, CardDetails{})
	require.NoError(t, err)

	_, err = svc.ProcessRefund(ctx, admin.ID, payment.ID, 50, "declined downstream")
	require.Error(t, err)

	var reloaded models.Payment
	require.NoError(t, db.First(&reloaded, "id = ?", payment.ID).Error)
	assert.Equal(t, models.PaymentStatusCompleted, reloaded.Status)
	assert.Zero(t, reloaded.RefundAmount)

	var refund models.PaymentRefund
	require.NoError(t, db.First(&refund, "payment_id = ?", payment.ID).Error)
	assert.Equal(t, models.RefundStatusFailed, refund.Status)

	// The full amount is refundable again once the gateway recovers.
	gateway.approveRefund = true
	completed, err := svc.ProcessRefund(ctx, admin.ID, payment.ID, reloaded.Amount, "retry")
	require.NoError(t, err)
	assert.Equal(t, models.RefundStatusCompleted, completed.Status)
}

func TestProcessRefundRejectsNonPositiveAmount(t *testing.T) {
	db := newTestDB(t)
	svc := NewPaymentService(db, &stubGateway{approveCharge: true, approveRefund: true})
	admin := createTestUser(t, db)

	_, err := svc.ProcessRefund(context.Background(), admin.ID, uuid.New(), 0, "noop")
	require.Error(t, err)
	class, ok := ClassOf(err)
	require.True(t, ok)
	assert.Equal(t, ClassValidation, class)
}

func TestStoreWebhook(t *testing.T) {
	db := newTestDB(t)
	svc := NewPaymentService(db, &stubGateway{})

	webhook, err := svc.StoreWebhook(context.Background(), "mock", "charge.succeeded", "evt_1",
		models.JSONMap{"amount": 100.0}, models.JSONMap{"X-Signature": "abc"})
	require.NoError(t, err)
	assert.False(t, webhook.Processed)

	var stored models.PaymentWebhook
	require.NoError(t, db.First(&stored, "event_id = ?", "evt_1").Error)
	assert.Equal(t, "mock", stored.Gateway)
	assert.Equal(t, "charge.succeeded", stored.EventType)
}
