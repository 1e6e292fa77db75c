package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/storefront/internal/models"
)

func TestCreateReviewUpdatesProductAggregate(t *testing.T) {
	db := newTestDB(t)
	svc := NewReviewService(db)
	product := createTestProduct(t, db, 50, 10)
	ctx := context.Background()

	_, err := svc.Create(ctx, createTestUser(t, db).ID, product.ID, 5, "Great", "")
	require.NoError(t, err)
	_, err = svc.Create(ctx, createTestUser(t, db).ID, product.ID, 2, "Meh", "")
	require.NoError(t, err)

	var reloaded models.Product
	require.NoError(t, db.First(&reloaded, "id = ?", product.ID).Error)
	assert.InDelta(t, 3.5, reloaded.AverageRating, 0.001)
	assert.Equal(t, 2, reloaded.ReviewCount)
}

func TestCreateReviewRejectsBadRating(t *testing.T) {
	db := newTestDB(t)
	svc := NewReviewService(db)
	user := createTestUser(t, db)
	product := createTestProduct(t, db, 50, 10)
	ctx := context.Background()

	for _, rating := range []int{0, 6, -1} {
		_, err := svc.Create(ctx, user.ID, product.ID, rating, "", "")
		require.Error(t, err)
		class, ok := ClassOf(err)
		require.True(t, ok)
		assert.Equal(t, ClassValidation, class)
	}
}

func TestCreateReviewOncePerProduct(t *testing.T) {
	db := newTestDB(t)
	svc := NewReviewService(db)
	user := createTestUser(t, db)
	product := createTestProduct(t, db, 50, 10)
	ctx := context.Background()

	_, err := svc.Create(ctx, user.ID, product.ID, 4, "", "")
	require.NoError(t, err)

	_, err = svc.Create(ctx, user.ID, product.ID, 5, "", "")
	require.Error(t, err)
	class, ok := ClassOf(err)
	require.True(t, ok)
	assert.Equal(t, ClassConflict, class)
}

func TestReviewVerifiedPurchaseFlag(t *testing.T) {
	db := newTestDB(t)
	svc := NewReviewService(db)
	buyer := createTestUser(t, db)
	browser := createTestUser(t, db)
	product := createTestProduct(t, db, 50, 10)
	ctx := context.Background()

	placeTestOrder(t, db, buyer, product, 1, "")

	bought, err := svc.Create(ctx, buyer.ID, product.ID, 5, "", "")
	require.NoError(t, err)
	assert.True(t, bought.IsVerifiedPurchase)

	casual, err := svc.Create(ctx, browser.ID, product.ID, 3, "", "")
	require.NoError(t, err)
	assert.False(t, casual.IsVerifiedPurchase)
}

func TestDeleteReviewRecalculatesAggregate(t *testing.T) {
	db := newTestDB(t)
	svc := NewReviewService(db)
	user := createTestUser(t, db)
	product := createTestProduct(t, db, 50, 10)
	ctx := context.Background()

	review, err := svc.Create(ctx, user.ID, product.ID, 1, "", "")
	require.NoError(t, err)
	_, err = svc.Create(ctx, createTestUser(t, db).ID, product.ID, 5, "", "")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, user.ID, review.ID))

	var reloaded models.Product
	require.NoError(t, db.First(&reloaded, "id = ?", product.ID).Error)
	assert.InDelta(t, 5.0, reloaded.AverageRating, 0.001)
	assert.Equal(t, 1, reloaded.ReviewCount)
}
