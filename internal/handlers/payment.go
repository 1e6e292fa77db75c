package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/middleware"
	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/services"
	"github.com/example/storefront/internal/utils"
)

// PaymentHandler serves payment, refund and webhook endpoints.
type PaymentHandler struct {
	db       *gorm.DB
	payments *services.PaymentService
}

// NewPaymentHandler constructs PaymentHandler.
func NewPaymentHandler(db *gorm.DB, payments *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{db: db, payments: payments}
}

// ListPayments returns the caller's payment attempts, newest first.
func (h *PaymentHandler) ListPayments(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Payment{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var payments []models.Payment
	err := query.Limit(pg.Limit).Offset(pg.Offset).
		Order("created_at desc").
		Preload("Refunds").
		Find(&payments).Error
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    payments,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// GetPayment returns one of the caller's payments.
func (h *PaymentHandler) GetPayment(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	paymentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var payment models.Payment
	err = h.db.Where("id = ? AND user_id = ?", paymentID, userID).
		Preload("Refunds").
		First(&payment).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "payment not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": payment})
}

type processPaymentRequest struct {
	OrderID       uuid.UUID            `json:"order_id"`
	PaymentMethod string               `json:"payment_method"`
	Card          services.CardDetails `json:"card"`
}

// ProcessPayment charges an order. Cash on delivery stays pending; card
// methods go through the gateway.
func (h *PaymentHandler) ProcessPayment(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req processPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.OrderID == uuid.Nil {
		return fiber.NewError(fiber.StatusBadRequest, "order_id is required")
	}

	switch req.PaymentMethod {
	case models.PaymentMethodCreditCard, models.PaymentMethodDebitCard, models.PaymentMethodCashOnDelivery:
	default:
		return fiber.NewError(fiber.StatusBadRequest, "unsupported payment method")
	}

	payment, err := h.payments.ProcessPayment(c.Context(), userID, req.OrderID, req.PaymentMethod, req.Card)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": payment})
}

type refundRequest struct {
	Amount float64 `json:"amount"`
	Reason string  `json:"reason"`
}

// RefundPayment refunds part or all of a completed payment. Admin only.
func (h *PaymentHandler) RefundPayment(c *fiber.Ctx) error {
	adminID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	paymentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req refundRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	refund, err := h.payments.ProcessRefund(c.Context(), adminID, paymentID, req.Amount, req.Reason)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": refund})
}

// ReceiveWebhook stores a raw gateway webhook for later processing and
// acknowledges receipt. No signature verification is performed here.
func (h *PaymentHandler) ReceiveWebhook(c *fiber.Ctx) error {
	gateway := c.Params("gateway")

	var payload models.JSONMap
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}

	eventType, _ := payload["event_type"].(string)
	eventID, _ := payload["event_id"].(string)

	headers := models.JSONMap{}
	c.Request().Header.VisitAll(func(key, value []byte) {
		headers[string(key)] = string(value)
	})

	if _, err := h.payments.StoreWebhook(c.Context(), gateway, eventType, eventID, payload, headers); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"received": true})
}
