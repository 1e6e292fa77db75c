package services

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/models"
)

// PaymentService drives the payment lifecycle:
// pending -> processing -> {completed, failed, cancelled}, and
// completed -> {refunded, partially_refunded} through refunds.
type PaymentService struct {
	db      *gorm.DB
	gateway Gateway
}

// NewPaymentService constructs PaymentService.
func NewPaymentService(db *gorm.DB, gateway Gateway) *PaymentService {
	return &PaymentService{db: db, gateway: gateway}
}

// ProcessPayment creates and processes a charge attempt for an order. The
// amount is always the server-computed order total, never client input.
// Declined cards are an expected outcome and come back as a 400-class
// error; gateway faults are 500-class.
func (s *PaymentService) ProcessPayment(ctx context.Context, userID, orderID uuid.UUID, method string, card CardDetails) (*models.Payment, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ? AND is_active = ?", orderID, userID, true).
		First(&order).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	if order.IsPaid() {
		return nil, ErrOrderAlreadyPaid
	}

	payment := models.Payment{
		OrderID:       order.ID,
		UserID:        userID,
		PaymentMethod: method,
		Amount:        order.TotalAmount,
		Status:        models.PaymentStatusProcessing,
	}
	if err := s.db.WithContext(ctx).Create(&payment).Error; err != nil {
		return nil, err
	}

	switch method {
	case models.PaymentMethodCashOnDelivery:
		// COD stays pending until delivery; the order is not confirmed.
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			payment.Status = models.PaymentStatusPending
			if err := tx.Model(&payment).UpdateColumn("status", payment.Status).Error; err != nil {
				return err
			}
			order.PaymentStatus = models.OrderPaymentPending
			return tx.Model(&order).UpdateColumn("payment_status", order.PaymentStatus).Error
		})
		if err != nil {
			return nil, err
		}
		return &payment, nil

	case models.PaymentMethodCreditCard, models.PaymentMethodDebitCard:
		result, err := s.gateway.Charge(&payment, card)
		if err != nil {
			log.Printf("[Payment] gateway charge error for payment %s: %v", payment.ID, err)
			s.markPaymentFailed(ctx, &payment)
			return nil, NewGatewayError("payment processing error")
		}

		if !result.Approved {
			s.markPaymentFailed(ctx, &payment)
			return nil, NewValidationError("payment processing failed")
		}

		now := time.Now()
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			payment.Status = models.PaymentStatusCompleted
			payment.TransactionID = result.TransactionID
			payment.ProcessedAt = &now
			err := tx.Model(&payment).Updates(map[string]any{
				"status":         payment.Status,
				"transaction_id": payment.TransactionID,
				"processed_at":   payment.ProcessedAt,
			}).Error
			if err != nil {
				return err
			}

			order.PaymentStatus = models.OrderPaymentPaid
			order.Status = models.OrderStatusConfirmed
			order.ConfirmedAt = &now
			err = tx.Model(&order).Updates(map[string]any{
				"payment_status": order.PaymentStatus,
				"status":         order.Status,
				"confirmed_at":   order.ConfirmedAt,
			}).Error
			if err != nil {
				return err
			}

			history := models.OrderStatusHistory{
				OrderID:   order.ID,
				Status:    models.OrderStatusConfirmed,
				Notes:     "Payment completed",
				ChangedBy: &userID,
			}
			return tx.Create(&history).Error
		})
		if err != nil {
			return nil, err
		}
		return &payment, nil

	default:
		return nil, NewValidationError("payment method not supported")
	}
}

func (s *PaymentService) markPaymentFailed(ctx context.Context, payment *models.Payment) {
	payment.Status = models.PaymentStatusFailed
	if err := s.db.WithContext(ctx).Model(payment).
		UpdateColumn("status", payment.Status).Error; err != nil {
		log.Printf("[Payment] failed to mark payment %s failed: %v", payment.ID, err)
	}
}

// ProcessRefund refunds part or all of a completed payment in two phases:
// the amount is first reserved on the payment row with a guarded update, so
// concurrent refunds can never overshoot the payment amount, and the
// reservation is released again if the gateway declines or errors.
func (s *PaymentService) ProcessRefund(ctx context.Context, adminID, paymentID uuid.UUID, amount float64, reason string) (*models.PaymentRefund, error) {
	if amount <= 0 {
		return nil, NewValidationError("refund amount must be positive")
	}

	var payment models.Payment
	err := s.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", paymentID, true).
		First(&payment).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}

	if !payment.CanBeRefunded() {
		return nil, ErrInvalidRefundState
	}
	if amount > payment.RemainingRefundAmount() {
		return nil, ErrRefundExceedsAmount
	}

	var refund models.PaymentRefund
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Reserve: the guard re-checks state and remaining amount at update
		// time, closing the race against concurrent refunds.
		result := tx.Model(&models.Payment{}).
			Where("id = ? AND status IN ? AND refund_amount + ? <= amount",
				payment.ID,
				[]string{models.PaymentStatusCompleted, models.PaymentStatusPartiallyRefunded},
				amount).
			UpdateColumn("refund_amount", gorm.Expr("refund_amount + ?", amount))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrRefundExceedsAmount
		}

		if err := tx.First(&payment, "id = ?", payment.ID).Error; err != nil {
			return err
		}
		if err := tx.Model(&payment).
			UpdateColumn("status", refundStatusFor(&payment)).Error; err != nil {
			return err
		}

		refund = models.PaymentRefund{
			PaymentID:   payment.ID,
			Amount:      amount,
			Reason:      reason,
			Status:      models.RefundStatusPending,
			ProcessedBy: &adminID,
		}
		return tx.Create(&refund).Error
	})
	if err != nil {
		return nil, err
	}

	result, gerr := s.gateway.Refund(&refund)
	if gerr != nil || !result.Approved {
		if rerr := s.releaseRefund(ctx, &payment, &refund); rerr != nil {
			log.Printf("[Payment] failed to release refund %s: %v", refund.ID, rerr)
			return nil, rerr
		}
		if gerr != nil {
			log.Printf("[Payment] gateway refund error for refund %s: %v", refund.ID, gerr)
			return nil, NewGatewayError("refund processing error")
		}
		return nil, NewValidationError("refund processing failed")
	}

	now := time.Now()
	refund.Status = models.RefundStatusCompleted
	refund.RefundTransactionID = result.TransactionID
	refund.ProcessedAt = &now
	err = s.db.WithContext(ctx).Model(&refund).Updates(map[string]any{
		"status":                refund.Status,
		"refund_transaction_id": refund.RefundTransactionID,
		"processed_at":          refund.ProcessedAt,
	}).Error
	if err != nil {
		return nil, err
	}

	return &refund, nil
}

// releaseRefund undoes a reservation after a gateway failure: the amount is
// subtracted back, payment status recomputed, and the refund marked failed.
func (s *PaymentService) releaseRefund(ctx context.Context, payment *models.Payment, refund *models.PaymentRefund) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Payment{}).
			Where("id = ?", payment.ID).
			UpdateColumn("refund_amount", gorm.Expr("refund_amount - ?", refund.Amount))
		if result.Error != nil {
			return result.Error
		}

		if err := tx.First(payment, "id = ?", payment.ID).Error; err != nil {
			return err
		}
		if err := tx.Model(payment).
			UpdateColumn("status", refundStatusFor(payment)).Error; err != nil {
			return err
		}

		refund.Status = models.RefundStatusFailed
		return tx.Model(refund).UpdateColumn("status", refund.Status).Error
	})
}

// refundStatusFor derives payment status from its refund bookkeeping.
func refundStatusFor(payment *models.Payment) string {
	switch {
	case payment.RefundAmount >= payment.Amount:
		return models.PaymentStatusRefunded
	case payment.RefundAmount > 0:
		return models.PaymentStatusPartiallyRefunded
	default:
		return models.PaymentStatusCompleted
	}
}

// StoreWebhook persists a raw gateway webhook event. Payloads are accepted
// regardless of validity; signature verification is out of scope here.
func (s *PaymentService) StoreWebhook(ctx context.Context, gateway, eventType, eventID string, payload, headers models.JSONMap) (*models.PaymentWebhook, error) {
	webhook := models.PaymentWebhook{
		Gateway:   gateway,
		EventType: eventType,
		EventID:   eventID,
		Payload:   payload,
		Headers:   headers,
	}
	if err := s.db.WithContext(ctx).Create(&webhook).Error; err != nil {
		return nil, err
	}
	return &webhook, nil
}
