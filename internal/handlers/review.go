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

// ReviewHandler serves product review endpoints.
type ReviewHandler struct {
	db      *gorm.DB
	reviews *services.ReviewService
}

// NewReviewHandler constructs ReviewHandler.
func NewReviewHandler(db *gorm.DB, reviews *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{db: db, reviews: reviews}
}

// ListProductReviews returns paginated approved reviews for a product.
func (h *ReviewHandler) ListProductReviews(c *fiber.Ctx) error {
	productID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Review{}).
		Where("product_id = ? AND is_approved = ? AND is_active = ?", productID, true, true)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var reviews []models.Review
	err = query.Limit(pg.Limit).Offset(pg.Offset).
		Order("created_at desc").
		Preload("User").
		Find(&reviews).Error
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    reviews,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

type createReviewRequest struct {
	Rating  int    `json:"rating"`
	Title   string `json:"title"`
	Comment string `json:"comment"`
}

// CreateReview stores the caller's review for a product.
func (h *ReviewHandler) CreateReview(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	productID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req createReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	review, err := h.reviews.Create(c.Context(), userID, productID, req.Rating, req.Title, req.Comment)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": review})
}

// DeleteReview removes the caller's review.
func (h *ReviewHandler) DeleteReview(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	reviewID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	if err := h.reviews.Delete(c.Context(), userID, reviewID); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}
