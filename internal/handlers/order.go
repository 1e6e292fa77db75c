package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/middleware"
	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/services"
	"github.com/example/storefront/internal/utils"
)

// OrderHandler serves checkout, order history and coupon endpoints.
type OrderHandler struct {
	db       *gorm.DB
	checkout *services.CheckoutService
	coupons  *services.CouponService
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(db *gorm.DB, checkout *services.CheckoutService, coupons *services.CouponService) *OrderHandler {
	return &OrderHandler{db: db, checkout: checkout, coupons: coupons}
}

// ListOrders returns the caller's orders, newest first.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Order{}).Where("user_id = ?", userID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var orders []models.Order
	err := query.Limit(pg.Limit).Offset(pg.Offset).
		Order("created_at desc").
		Preload("Items").
		Find(&orders).Error
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    orders,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// GetOrder returns one of the caller's orders with items and history.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var order models.Order
	err = h.db.Where("id = ? AND user_id = ?", orderID, userID).
		Preload("Items").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB { return db.Order("created_at asc") }).
		First(&order).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}

type createOrderRequest struct {
	BillingAddressID  uuid.UUID `json:"billing_address_id"`
	ShippingAddressID uuid.UUID `json:"shipping_address_id"`
	CouponCode        string    `json:"coupon_code"`
	Notes             string    `json:"notes"`
}

// CreateOrder places an order from the caller's cart.
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req createOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.BillingAddressID == uuid.Nil || req.ShippingAddressID == uuid.Nil {
		return fiber.NewError(fiber.StatusBadRequest, "billing and shipping addresses are required")
	}

	order, err := h.checkout.CreateOrder(c.Context(), userID, services.CreateOrderInput{
		BillingAddressID:  req.BillingAddressID,
		ShippingAddressID: req.ShippingAddressID,
		CouponCode:        req.CouponCode,
		Notes:             req.Notes,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": order})
}

// CancelOrder cancels one of the caller's orders while it is still
// cancellable.
func (h *OrderHandler) CancelOrder(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	order, err := h.checkout.CancelOrder(c.Context(), userID, orderID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}

// ListCoupons returns currently redeemable coupons.
func (h *OrderHandler) ListCoupons(c *fiber.Ctx) error {
	coupons, err := h.coupons.ListValid(c.Context())
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": coupons})
}

type validateCouponRequest struct {
	Code   string  `json:"code"`
	Amount float64 `json:"amount"`
}

// ValidateCoupon checks a code for the caller and quotes the discount
// against the supplied amount without redeeming anything.
func (h *OrderHandler) ValidateCoupon(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req validateCouponRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Code == "" {
		return fiber.NewError(fiber.StatusBadRequest, "code is required")
	}

	coupon, err := h.coupons.ResolveForUser(c.Context(), req.Code, userID)
	if err != nil {
		return err
	}

	discount := h.coupons.CalculateDiscount(coupon, req.Amount)

	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{
		"coupon":   coupon,
		"discount": discount,
	}})
}

type couponRequest struct {
	Code              string    `json:"code"`
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	DiscountType      string    `json:"discount_type"`
	DiscountValue     float64   `json:"discount_value"`
	UsageLimit        *int      `json:"usage_limit"`
	UsageLimitPerUser *int      `json:"usage_limit_per_user"`
	ValidFrom         time.Time `json:"valid_from"`
	ValidUntil        time.Time `json:"valid_until"`
	MinimumAmount     *float64  `json:"minimum_amount"`
	MaximumDiscount   *float64  `json:"maximum_discount"`
}

// CreateCoupon creates a coupon. Admin only.
func (h *OrderHandler) CreateCoupon(c *fiber.Ctx) error {
	var req couponRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Code == "" {
		return fiber.NewError(fiber.StatusBadRequest, "code is required")
	}
	if req.DiscountType != models.DiscountTypePercentage && req.DiscountType != models.DiscountTypeFixed {
		return fiber.NewError(fiber.StatusBadRequest, "discount_type must be percentage or fixed")
	}
	if req.DiscountValue <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "discount_value must be positive")
	}
	if !req.ValidUntil.After(req.ValidFrom) {
		return fiber.NewError(fiber.StatusBadRequest, "valid_until must be after valid_from")
	}

	coupon := models.Coupon{
		Code:              req.Code,
		Name:              req.Name,
		Description:       req.Description,
		DiscountType:      req.DiscountType,
		DiscountValue:     req.DiscountValue,
		UsageLimit:        req.UsageLimit,
		UsageLimitPerUser: req.UsageLimitPerUser,
		ValidFrom:         req.ValidFrom,
		ValidUntil:        req.ValidUntil,
		MinimumAmount:     req.MinimumAmount,
		MaximumDiscount:   req.MaximumDiscount,
	}
	if err := h.db.Create(&coupon).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": coupon})
}

// DeactivateCoupon disables a coupon. Admin only.
func (h *OrderHandler) DeactivateCoupon(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	result := h.db.Model(&models.Coupon{}).
		Where("id = ? AND is_active = ?", id, true).
		UpdateColumn("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "coupon not found")
	}

	return c.SendStatus(fiber.StatusNoContent)
}
