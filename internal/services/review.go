package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/models"
)

// ReviewService manages product reviews. Rating aggregates on the product
// are maintained by an explicit recalculation invoked from the review
// lifecycle, keeping the Review -> Product dependency one-directional.
type ReviewService struct {
	db *gorm.DB
}

// NewReviewService constructs ReviewService.
func NewReviewService(db *gorm.DB) *ReviewService {
	return &ReviewService{db: db}
}

// Create stores a review and refreshes the product's rating aggregate. One
// review per (product, user).
func (s *ReviewService) Create(ctx context.Context, userID, productID uuid.UUID, rating int, title, comment string) (*models.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, NewValidationError("rating must be between 1 and 5")
	}

	var product models.Product
	err := s.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", productID, true).
		First(&product).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NewNotFoundError("product not found")
		}
		return nil, err
	}

	var existing models.Review
	err = s.db.WithContext(ctx).
		Where("product_id = ? AND user_id = ?", productID, userID).
		First(&existing).Error
	if err == nil {
		return nil, NewConflictError("product already reviewed")
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	verified, err := s.hasPurchased(ctx, userID, productID)
	if err != nil {
		return nil, err
	}

	review := models.Review{
		ProductID:          productID,
		UserID:             userID,
		Rating:             rating,
		Title:              title,
		Comment:            comment,
		IsVerifiedPurchase: verified,
		IsApproved:         true,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&review).Error; err != nil {
			return err
		}
		return s.RecalculateProductRating(tx, productID)
	})
	if err != nil {
		return nil, err
	}

	return &review, nil
}

// Delete removes a user's review and refreshes the product aggregate.
func (s *ReviewService) Delete(ctx context.Context, userID, reviewID uuid.UUID) error {
	var review models.Review
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", reviewID, userID).
		First(&review).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return NewNotFoundError("review not found")
		}
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&review).Error; err != nil {
			return err
		}
		return s.RecalculateProductRating(tx, review.ProductID)
	})
}

// RecalculateProductRating recomputes average_rating and review_count from
// approved reviews.
func (s *ReviewService) RecalculateProductRating(tx *gorm.DB, productID uuid.UUID) error {
	var agg struct {
		Avg   float64
		Count int64
	}
	err := tx.Model(&models.Review{}).
		Select("COALESCE(AVG(rating), 0) as avg, COUNT(*) as count").
		Where("product_id = ? AND is_approved = ? AND is_active = ?", productID, true, true).
		Scan(&agg).Error
	if err != nil {
		return err
	}

	return tx.Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(map[string]any{
			"average_rating": agg.Avg,
			"review_count":   agg.Count,
		}).Error
}

func (s *ReviewService) hasPurchased(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.user_id = ? AND order_items.product_id = ?", userID, productID).
		Count(&count).Error
	return count > 0, err
}
