package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/middleware"
	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/services"
	"github.com/example/storefront/internal/utils"
)

// ShippingHandler serves shipping method, rate and shipment endpoints.
type ShippingHandler struct {
	db        *gorm.DB
	rates     *services.ShippingRateService
	shipments *services.ShipmentService
}

// NewShippingHandler constructs ShippingHandler.
func NewShippingHandler(db *gorm.DB, rates *services.ShippingRateService, shipments *services.ShipmentService) *ShippingHandler {
	return &ShippingHandler{db: db, rates: rates, shipments: shipments}
}

// ListMethods returns all active shipping methods.
func (h *ShippingHandler) ListMethods(c *fiber.Ctx) error {
	var methods []models.ShippingMethod
	if err := h.db.Where("is_active = ?", true).Order("base_cost asc").Find(&methods).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": methods})
}

type calculateRatesRequest struct {
	Country    string  `json:"country"`
	Weight     float64 `json:"weight"`
	OrderTotal float64 `json:"order_total"`
}

// CalculateRates quotes every available shipping method for a destination,
// weight and order total, cheapest first.
func (h *ShippingHandler) CalculateRates(c *fiber.Ctx) error {
	var req calculateRatesRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Country == "" {
		return fiber.NewError(fiber.StatusBadRequest, "country is required")
	}
	if req.Weight < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "weight must not be negative")
	}

	quotes, err := h.rates.CalculateRates(c.Context(), req.Country, req.Weight, req.OrderTotal)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": quotes})
}

type createShipmentRequest struct {
	OrderID           uuid.UUID      `json:"order_id"`
	MethodID          uuid.UUID      `json:"method_id"`
	Weight            float64        `json:"weight"`
	Dimensions        models.JSONMap `json:"dimensions"`
	SignatureRequired bool           `json:"signature_required"`
	InsuranceValue    float64        `json:"insurance_value"`
	Notes             string         `json:"notes"`
}

// CreateShipment attaches a shipment to an order. Admin only.
func (h *ShippingHandler) CreateShipment(c *fiber.Ctx) error {
	var req createShipmentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.OrderID == uuid.Nil || req.MethodID == uuid.Nil {
		return fiber.NewError(fiber.StatusBadRequest, "order_id and method_id are required")
	}

	shipment, err := h.shipments.CreateShipment(c.Context(), services.CreateShipmentInput{
		OrderID:           req.OrderID,
		MethodID:          req.MethodID,
		Weight:            req.Weight,
		Dimensions:        req.Dimensions,
		SignatureRequired: req.SignatureRequired,
		InsuranceValue:    req.InsuranceValue,
		Notes:             req.Notes,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": shipment})
}

// ListShipments returns shipments, optionally filtered by status. Admin only.
func (h *ShippingHandler) ListShipments(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Shipment{})
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var shipments []models.Shipment
	err := query.Limit(pg.Limit).Offset(pg.Offset).
		Order("created_at desc").
		Preload("Method").
		Find(&shipments).Error
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    shipments,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

type updateTrackingRequest struct {
	Status      string `json:"status"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

// UpdateTracking appends a tracking event to a shipment. Admin only.
func (h *ShippingHandler) UpdateTracking(c *fiber.Ctx) error {
	shipmentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req updateTrackingRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Status == "" {
		return fiber.NewError(fiber.StatusBadRequest, "status is required")
	}

	shipment, err := h.shipments.UpdateTracking(c.Context(), shipmentID, req.Status, req.Location, req.Description)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": shipment})
}

// CancelShipment cancels a shipment that has not progressed past pickup.
// Admin only.
func (h *ShippingHandler) CancelShipment(c *fiber.Ctx) error {
	shipmentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.BodyParser(&req)

	shipment, err := h.shipments.CancelShipment(c.Context(), shipmentID, req.Reason)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": shipment})
}

// GenerateLabel creates the carrier label for a shipment. Admin only.
func (h *ShippingHandler) GenerateLabel(c *fiber.Ctx) error {
	shipmentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	label, err := h.shipments.GenerateLabel(c.Context(), shipmentID)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": label})
}

// TrackShipment returns a shipment and its event log by tracking number.
// Public endpoint.
func (h *ShippingHandler) TrackShipment(c *fiber.Ctx) error {
	trackingNumber := c.Params("trackingNumber")
	if trackingNumber == "" {
		return fiber.NewError(fiber.StatusBadRequest, "tracking number is required")
	}

	shipment, err := h.shipments.Track(c.Context(), trackingNumber)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": shipment})
}

type shippingMethodRequest struct {
	Name                  string   `json:"name"`
	Description           string   `json:"description"`
	Carrier               string   `json:"carrier"`
	BaseCost              float64  `json:"base_cost"`
	CostPerKg             float64  `json:"cost_per_kg"`
	FreeShippingThreshold *float64 `json:"free_shipping_threshold"`
	MinDeliveryDays       int      `json:"min_delivery_days"`
	MaxDeliveryDays       int      `json:"max_delivery_days"`
	IsExpress             bool     `json:"is_express"`
	IsInternational       bool     `json:"is_international"`
	MaxWeight             *float64 `json:"max_weight"`
	RestrictedCountries   []string `json:"restricted_countries"`
}

// CreateMethod creates a shipping method. Admin only.
func (h *ShippingHandler) CreateMethod(c *fiber.Ctx) error {
	var req shippingMethodRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name is required")
	}
	if req.BaseCost < 0 || req.CostPerKg < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "costs must not be negative")
	}

	method := models.ShippingMethod{
		Name:                  req.Name,
		Description:           req.Description,
		Carrier:               req.Carrier,
		BaseCost:              req.BaseCost,
		CostPerKg:             req.CostPerKg,
		FreeShippingThreshold: req.FreeShippingThreshold,
		MinDeliveryDays:       req.MinDeliveryDays,
		MaxDeliveryDays:       req.MaxDeliveryDays,
		IsExpress:             req.IsExpress,
		IsInternational:       req.IsInternational,
		MaxWeight:             req.MaxWeight,
		RestrictedCountries:   req.RestrictedCountries,
	}
	if err := h.db.Create(&method).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": method})
}

// EstimateForOrder quotes rates for one of the caller's orders using its
// stored shipping address country. The weight defaults to the summed item
// weight; a weight query parameter overrides it.
func (h *ShippingHandler) EstimateForOrder(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var order models.Order
	if err := h.db.Preload("Items").First(&order, "id = ? AND user_id = ?", orderID, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return err
	}

	country, _ := order.ShippingAddress["country"].(string)

	weight := 0.0
	if raw := c.Query("weight"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			weight = v
		}
	} else {
		err := h.db.Model(&models.OrderItem{}).
			Select("COALESCE(SUM(products.weight * order_items.quantity), 0)").
			Joins("JOIN products ON products.id = order_items.product_id").
			Where("order_items.order_id = ?", order.ID).
			Scan(&weight).Error
		if err != nil {
			return err
		}
	}

	quotes, err := h.rates.CalculateRates(c.Context(), country, weight, order.Subtotal)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": quotes})
}
