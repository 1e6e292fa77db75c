package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/models"
)

// CouponService is the discount calculator plus usage-limit bookkeeping.
type CouponService struct {
	db *gorm.DB
}

// NewCouponService constructs CouponService.
func NewCouponService(db *gorm.DB) *CouponService {
	return &CouponService{db: db}
}

// CalculateDiscount returns the discount a coupon yields against the given
// basis amount. Zero when the coupon is not valid or the minimum is not met.
// The result is never negative and never exceeds the basis amount, so a
// fixed-value coupon cannot drive an order total negative.
func (s *CouponService) CalculateDiscount(coupon *models.Coupon, amount float64) float64 {
	if !coupon.IsValid(time.Now()) {
		return 0
	}

	if coupon.MinimumAmount != nil && amount < *coupon.MinimumAmount {
		return 0
	}

	var discount float64
	if coupon.DiscountType == models.DiscountTypePercentage {
		discount = amount * (coupon.DiscountValue / 100)
	} else {
		discount = coupon.DiscountValue
	}

	if coupon.MaximumDiscount != nil && discount > *coupon.MaximumDiscount {
		discount = *coupon.MaximumDiscount
	}

	if discount > amount {
		discount = amount
	}
	if discount < 0 {
		discount = 0
	}

	return round2(discount)
}

// CanBeUsedByUser reports whether the user is under their per-user cap.
func (s *CouponService) CanBeUsedByUser(ctx context.Context, coupon *models.Coupon, userID uuid.UUID) (bool, error) {
	if !coupon.IsValid(time.Now()) {
		return false, nil
	}

	if coupon.UsageLimitPerUser == nil {
		return true, nil
	}

	var used int64
	if err := s.db.WithContext(ctx).Model(&models.CouponUsage{}).
		Where("coupon_id = ? AND user_id = ?", coupon.ID, userID).
		Count(&used).Error; err != nil {
		return false, err
	}

	return used < int64(*coupon.UsageLimitPerUser), nil
}

// ResolveForUser looks a coupon up by code and checks it is redeemable by
// the user. Each failure cause maps to a distinct error: not found, not
// valid, usage exceeded.
func (s *CouponService) ResolveForUser(ctx context.Context, code string, userID uuid.UUID) (*models.Coupon, error) {
	var coupon models.Coupon
	err := s.db.WithContext(ctx).
		Where("code = ? AND is_active = ?", code, true).
		First(&coupon).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrCouponNotFound
		}
		return nil, err
	}

	if !coupon.IsValid(time.Now()) {
		return nil, ErrCouponNotValid
	}

	ok, err := s.CanBeUsedByUser(ctx, &coupon, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCouponUsageExceeded
	}

	return &coupon, nil
}

// Redeem records a coupon usage for an order and increments the coupon's
// used_count with a guarded single-statement update, so two concurrent
// checkouts can never push used_count past usage_limit. The per-user cap
// is re-counted here as well; the pre-transaction check alone would let
// two checkouts by the same user both pass. Must run inside the checkout
// transaction; any exceeded limit rolls the whole checkout back.
func (s *CouponService) Redeem(tx *gorm.DB, coupon *models.Coupon, userID, orderID uuid.UUID, discount float64) error {
	if coupon.UsageLimitPerUser != nil {
		var used int64
		err := tx.Model(&models.CouponUsage{}).
			Where("coupon_id = ? AND user_id = ?", coupon.ID, userID).
			Count(&used).Error
		if err != nil {
			return err
		}
		if used >= int64(*coupon.UsageLimitPerUser) {
			return ErrCouponUsageExceeded
		}
	}

	result := tx.Model(&models.Coupon{}).
		Where("id = ? AND (usage_limit IS NULL OR used_count < usage_limit)", coupon.ID).
		UpdateColumn("used_count", gorm.Expr("used_count + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCouponUsageExceeded
	}

	usage := models.CouponUsage{
		CouponID:       coupon.ID,
		UserID:         userID,
		OrderID:        orderID,
		DiscountAmount: discount,
	}
	return tx.Create(&usage).Error
}

// ListValid returns currently redeemable coupons for the public listing.
func (s *CouponService) ListValid(ctx context.Context) ([]models.Coupon, error) {
	now := time.Now()
	var coupons []models.Coupon
	err := s.db.WithContext(ctx).
		Where("is_active = ? AND valid_from <= ? AND valid_until >= ?", true, now, now).
		Where("usage_limit IS NULL OR used_count < usage_limit").
		Order("valid_until asc").
		Find(&coupons).Error
	return coupons, err
}
