package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/models"
)

// CatalogHandler serves categories and brands.
type CatalogHandler struct {
	db *gorm.DB
}

// NewCatalogHandler constructs CatalogHandler.
func NewCatalogHandler(db *gorm.DB) *CatalogHandler {
	return &CatalogHandler{db: db}
}

// ListCategories returns all active categories.
func (h *CatalogHandler) ListCategories(c *fiber.Ctx) error {
	query := h.db.Where("is_active = ?", true)
	if parent := c.Query("parent_id"); parent != "" {
		parentID, err := uuid.Parse(parent)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid parent_id")
		}
		query = query.Where("parent_id = ?", parentID)
	}
	if c.QueryBool("featured") {
		query = query.Where("is_featured = ?", true)
	}

	var categories []models.Category
	if err := query.Order("name asc").Find(&categories).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": categories})
}

// GetCategory returns one category by id or slug.
func (h *CatalogHandler) GetCategory(c *fiber.Ctx) error {
	param := c.Params("id")

	query := h.db.Where("is_active = ?", true)
	if id, err := uuid.Parse(param); err == nil {
		query = query.Where("id = ?", id)
	} else {
		query = query.Where("slug = ?", param)
	}

	var category models.Category
	if err := query.First(&category).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "category not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": category})
}

type categoryRequest struct {
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Description string     `json:"description"`
	Image       string     `json:"image"`
	ParentID    *uuid.UUID `json:"parent_id"`
	IsFeatured  bool       `json:"is_featured"`
}

// CreateCategory creates a category. Admin only.
func (h *CatalogHandler) CreateCategory(c *fiber.Ctx) error {
	var req categoryRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" || req.Slug == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name and slug are required")
	}

	category := models.Category{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Image:       req.Image,
		ParentID:    req.ParentID,
		IsFeatured:  req.IsFeatured,
	}
	if err := h.db.Create(&category).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": category})
}

// UpdateCategory updates a category. Admin only.
func (h *CatalogHandler) UpdateCategory(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var category models.Category
	if err := h.db.Where("id = ? AND is_active = ?", id, true).First(&category).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "category not found")
		}
		return err
	}

	var req categoryRequest
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
	if req.Image != "" {
		updates["image"] = req.Image
	}
	if req.ParentID != nil {
		updates["parent_id"] = req.ParentID
	}
	if err := h.db.Model(&category).Updates(updates).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": category})
}

// DeleteCategory soft-deletes a category. Admin only.
func (h *CatalogHandler) DeleteCategory(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	result := h.db.Model(&models.Category{}).
		Where("id = ? AND is_active = ?", id, true).
		UpdateColumn("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "category not found")
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ListBrands returns all active brands.
func (h *CatalogHandler) ListBrands(c *fiber.Ctx) error {
	var brands []models.Brand
	if err := h.db.Where("is_active = ?", true).Order("name asc").Find(&brands).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": brands})
}

type brandRequest struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Logo        string `json:"logo"`
	Website     string `json:"website"`
}

// CreateBrand creates a brand. Admin only.
func (h *CatalogHandler) CreateBrand(c *fiber.Ctx) error {
	var req brandRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" || req.Slug == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name and slug are required")
	}

	brand := models.Brand{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Logo:        req.Logo,
		Website:     req.Website,
	}
	if err := h.db.Create(&brand).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": brand})
}

// UpdateBrand updates a brand. Admin only.
func (h *CatalogHandler) UpdateBrand(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var brand models.Brand
	if err := h.db.Where("id = ? AND is_active = ?", id, true).First(&brand).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "brand not found")
		}
		return err
	}

	var req brandRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Slug != "" {
		updates["slug"] = req.Slug
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if req.Logo != "" {
		updates["logo"] = req.Logo
	}
	if req.Website != "" {
		updates["website"] = req.Website
	}
	if len(updates) > 0 {
		if err := h.db.Model(&brand).Updates(updates).Error; err != nil {
			return err
		}
	}

	return c.JSON(fiber.Map{"success": true, "data": brand})
}

// DeleteBrand soft-deletes a brand. Admin only.
func (h *CatalogHandler) DeleteBrand(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	result := h.db.Model(&models.Brand{}).
		Where("id = ? AND is_active = ?", id, true).
		UpdateColumn("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "brand not found")
	}

	return c.SendStatus(fiber.StatusNoContent)
}
