package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/middleware"
	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/utils"
)

// ProductHandler serves the product catalog and seller product management.
type ProductHandler struct {
	db *gorm.DB
}

// NewProductHandler constructs ProductHandler.
func NewProductHandler(db *gorm.DB) *ProductHandler {
	return &ProductHandler{db: db}
}

// ListProducts returns paginated active products with optional filters.
func (h *ProductHandler) ListProducts(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)

	query := h.db.Model(&models.Product{}).
		Where("is_active = ? AND status = ?", true, models.ProductStatusActive)

	if category := c.Query("category_id"); category != "" {
		categoryID, err := uuid.Parse(category)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid category_id")
		}
		query = query.Where("category_id = ?", categoryID)
	}
	if brand := c.Query("brand_id"); brand != "" {
		brandID, err := uuid.Parse(brand)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid brand_id")
		}
		query = query.Where("brand_id = ?", brandID)
	}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}
	if minPrice := c.Query("min_price"); minPrice != "" {
		if v, err := strconv.ParseFloat(minPrice, 64); err == nil {
			query = query.Where("price >= ?", v)
		}
	}
	if maxPrice := c.Query("max_price"); maxPrice != "" {
		if v, err := strconv.ParseFloat(maxPrice, 64); err == nil {
			query = query.Where("price <= ?", v)
		}
	}
	if c.QueryBool("featured") {
		query = query.Where("is_featured = ?", true)
	}

	switch c.Query("sort") {
	case "price_asc":
		query = query.Order("price asc")
	case "price_desc":
		query = query.Order("price desc")
	case "rating":
		query = query.Order("average_rating desc")
	default:
		query = query.Order("created_at desc")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var products []models.Product
	err := query.Limit(pg.Limit).Offset(pg.Offset).
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order asc") }).
		Preload("Category").
		Preload("Brand").
		Find(&products).Error
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    products,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// GetProduct returns a single product by id or slug with variants.
func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	param := c.Params("id")

	query := h.db.Where("is_active = ?", true)
	if id, err := uuid.Parse(param); err == nil {
		query = query.Where("id = ?", id)
	} else {
		query = query.Where("slug = ?", param)
	}

	var product models.Product
	err := query.
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order asc") }).
		Preload("Category").
		Preload("Brand").
		Preload("Variants").
		Preload("Variants.Attributes").
		Preload("Variants.Attributes.Attribute").
		First(&product).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": product})
}

type productRequest struct {
	CategoryID       uuid.UUID  `json:"category_id"`
	BrandID          *uuid.UUID `json:"brand_id"`
	Name             string     `json:"name"`
	Slug             string     `json:"slug"`
	Description      string     `json:"description"`
	ShortDescription string     `json:"short_description"`
	Price            float64    `json:"price"`
	ComparePrice     float64    `json:"compare_price"`
	CostPrice        float64    `json:"cost_price"`
	SKU              string     `json:"sku"`
	StockQuantity    *int       `json:"stock_quantity"`
	TrackInventory   *bool      `json:"track_inventory"`
	Weight           float64    `json:"weight"`
	Status           string     `json:"status"`
	IsFeatured       bool       `json:"is_featured"`
	IsDigital        bool       `json:"is_digital"`
	RequiresShipping *bool      `json:"requires_shipping"`
}

// CreateProduct creates a product owned by the authenticated seller.
func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req productRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" || req.Slug == "" || req.SKU == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name, slug and sku are required")
	}
	if req.Price < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "price must not be negative")
	}
	if req.CategoryID == uuid.Nil {
		return fiber.NewError(fiber.StatusBadRequest, "category_id is required")
	}

	var category models.Category
	err := h.db.Where("id = ? AND is_active = ?", req.CategoryID, true).First(&category).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusBadRequest, "category not found")
		}
		return err
	}

	status := req.Status
	if status == "" {
		status = models.ProductStatusDraft
	}

	product := models.Product{
		SellerID:         userID,
		CategoryID:       req.CategoryID,
		BrandID:          req.BrandID,
		Name:             req.Name,
		Slug:             req.Slug,
		Description:      req.Description,
		ShortDescription: req.ShortDescription,
		Price:            req.Price,
		ComparePrice:     req.ComparePrice,
		CostPrice:        req.CostPrice,
		SKU:              req.SKU,
		TrackInventory:   true,
		Weight:           req.Weight,
		Status:           status,
		IsFeatured:       req.IsFeatured,
		IsDigital:        req.IsDigital,
		RequiresShipping: true,
	}
	if req.StockQuantity != nil {
		product.StockQuantity = *req.StockQuantity
	}
	if req.TrackInventory != nil {
		product.TrackInventory = *req.TrackInventory
	}
	if req.RequiresShipping != nil {
		product.RequiresShipping = *req.RequiresShipping
	}

	if err := h.db.Create(&product).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": product})
}

// UpdateProduct updates a product. Sellers may only update their own
// products; admins may update any.
func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	product, err := h.findManagedProduct(c)
	if err != nil {
		return err
	}

	var req productRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	updates := map[string]interface{}{"is_featured": req.IsFeatured}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Slug != "" {
		updates["slug"] = req.Slug
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if req.ShortDescription != "" {
		updates["short_description"] = req.ShortDescription
	}
	if req.Price > 0 {
		updates["price"] = req.Price
	}
	if req.ComparePrice > 0 {
		updates["compare_price"] = req.ComparePrice
	}
	if req.SKU != "" {
		updates["sku"] = req.SKU
	}
	if req.StockQuantity != nil {
		updates["stock_quantity"] = *req.StockQuantity
	}
	if req.TrackInventory != nil {
		updates["track_inventory"] = *req.TrackInventory
	}
	if req.Weight > 0 {
		updates["weight"] = req.Weight
	}
	if req.Status != "" {
		updates["status"] = req.Status
	}
	if req.CategoryID != uuid.Nil {
		updates["category_id"] = req.CategoryID
	}
	if req.BrandID != nil {
		updates["brand_id"] = req.BrandID
	}

	if err := h.db.Model(product).Updates(updates).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": product})
}

// DeleteProduct soft-deletes a product. Sellers may only delete their own.
func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	product, err := h.findManagedProduct(c)
	if err != nil {
		return err
	}

	if err := h.db.Model(product).UpdateColumn("is_active", false).Error; err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

type variantRequest struct {
	SKU           string      `json:"sku"`
	Price         float64     `json:"price"`
	ComparePrice  float64     `json:"compare_price"`
	StockQuantity int         `json:"stock_quantity"`
	Weight        float64     `json:"weight"`
	AttributeIDs  []uuid.UUID `json:"attribute_value_ids"`
}

// CreateVariant adds a variant to a product owned by the seller.
func (h *ProductHandler) CreateVariant(c *fiber.Ctx) error {
	product, err := h.findManagedProduct(c)
	if err != nil {
		return err
	}

	var req variantRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.SKU == "" {
		return fiber.NewError(fiber.StatusBadRequest, "sku is required")
	}

	variant := models.ProductVariant{
		ProductID:     product.ID,
		SKU:           req.SKU,
		Price:         req.Price,
		ComparePrice:  req.ComparePrice,
		StockQuantity: req.StockQuantity,
		Weight:        req.Weight,
	}

	if len(req.AttributeIDs) > 0 {
		var values []models.ProductAttributeValue
		if err := h.db.Where("id IN ?", req.AttributeIDs).Find(&values).Error; err != nil {
			return err
		}
		if len(values) != len(req.AttributeIDs) {
			return fiber.NewError(fiber.StatusBadRequest, "unknown attribute value")
		}
		variant.Attributes = values
	}

	if err := h.db.Create(&variant).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": variant})
}

// DeleteVariant soft-deletes a variant of a product owned by the seller.
func (h *ProductHandler) DeleteVariant(c *fiber.Ctx) error {
	product, err := h.findManagedProduct(c)
	if err != nil {
		return err
	}

	variantID, err := uuid.Parse(c.Params("variantId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid variant id")
	}

	result := h.db.Model(&models.ProductVariant{}).
		Where("id = ? AND product_id = ? AND is_active = ?", variantID, product.ID, true).
		UpdateColumn("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "variant not found")
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// findManagedProduct loads the product from the path and enforces that the
// caller is its seller or an admin.
func (h *ProductHandler) findManagedProduct(c *fiber.Ctx) (*models.Product, error) {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var product models.Product
	if err := h.db.Where("id = ? AND is_active = ?", id, true).First(&product).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return nil, err
	}

	role := middleware.GetCurrentUserRole(c)
	if product.SellerID != userID && role != models.RoleAdmin {
		return nil, fiber.NewError(fiber.StatusForbidden, "not your product")
	}

	return &product, nil
}
