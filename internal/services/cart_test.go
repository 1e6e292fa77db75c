package services

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/storefront/internal/models"
)

func TestAddItemSumsQuantitiesIntoOneRow(t *testing.T) {
	db := newTestDB(t)
	svc := NewCartService(db)
	user := createTestUser(t, db)
	product := createTestProduct(t, db, 25, 10)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, user.ID, product.ID, uuid.Nil, 2)
	require.NoError(t, err)

	item, err := svc.AddItem(ctx, user.ID, product.ID, uuid.Nil, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, item.Quantity)

	var rows int64
	require.NoError(t, db.Model(&models.CartItem{}).
		Where("product_id = ?", product.ID).Count(&rows).Error)
	assert.EqualValues(t, 1, rows)
}

func TestAddItemConcurrentSamePairStaysOneRow(t *testing.T) {
	db := newTestDB(t)
	svc := NewCartService(db)
	user := createTestUser(t, db)
	product := createTestProduct(t, db, 25, 50)
	ctx := context.Background()

	const callers = 6

	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.AddItem(ctx, user.ID, product.ID, uuid.Nil, 1)
		}(i)
	}
	wg.Wait()

	// The unique (cart, product, variant) index plus the transactional
	// read-then-write keeps concurrent adds on one line. Every call that
	// committed contributed its quantity to that single row.
	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		}
	}
	require.Positive(t, succeeded)

	var items []models.CartItem
	require.NoError(t, db.Where("product_id = ?", product.ID).Find(&items).Error)
	require.Len(t, items, 1)
	assert.Equal(t, succeeded, items[0].Quantity)
}

func TestAddItemRejectsInsufficientStock(t *testing.T) {
	db := newTestDB(t)
	svc := NewCartService(db)
	user := createTestUser(t, db)
	product := createTestProduct(t, db, 25, 3)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, user.ID, product.ID, uuid.Nil, 2)
	require.NoError(t, err)

	// The sum, not the increment, is checked against stock.
	_, err = svc.AddItem(ctx, user.ID, product.ID, uuid.Nil, 2)
	assert.ErrorIs(t, err, ErrInsufficientStock)
}

func TestAddItemIgnoresStockWhenNotTracked(t *testing.T) {
	db := newTestDB(t)
	svc := NewCartService(db)
	user := createTestUser(t, db)
	product := createTestProduct(t, db, 25, 0)
	require.NoError(t, db.Model(product).UpdateColumn("track_inventory", false).Error)

	_, err := svc.AddItem(context.Background(), user.ID, product.ID, uuid.Nil, 100)
	require.NoError(t, err)
}

func TestAddItemRejectsDraftProduct(t *testing.T) {
	db := newTestDB(t)
	svc := NewCartService(db)
	user := createTestUser(t, db)
	product := createTestProduct(t, db, 25, 10)
	require.NoError(t, db.Model(product).UpdateColumn("status", models.ProductStatusDraft).Error)

	_, err := svc.AddItem(context.Background(), user.ID, product.ID, uuid.Nil, 1)
	require.Error(t, err)
	class, ok := ClassOf(err)
	require.True(t, ok)
	assert.Equal(t, ClassNotFound, class)
}

func TestUpdateItemQuantityZeroDeletesLine(t *testing.T) {
	db := newTestDB(t)
	svc := NewCartService(db)
	user := createTestUser(t, db)
	product := createTestProduct(t, db, 25, 10)
	ctx := context.Background()

	item, err := svc.AddItem(ctx, user.ID, product.ID, uuid.Nil, 2)
	require.NoError(t, err)

	updated, err := svc.UpdateItemQuantity(ctx, user.ID, item.ID, 0)
	require.NoError(t, err)
	assert.Nil(t, updated)

	var rows int64
	require.NoError(t, db.Model(&models.CartItem{}).
		Where("id = ?", item.ID).Count(&rows).Error)
	assert.Zero(t, rows)
}

func TestUpdateItemQuantityOwnershipEnforced(t *testing.T) {
	db := newTestDB(t)
	svc := NewCartService(db)
	owner := createTestUser(t, db)
	intruder := createTestUser(t, db)
	product := createTestProduct(t, db, 25, 10)
	ctx := context.Background()

	item, err := svc.AddItem(ctx, owner.ID, product.ID, uuid.Nil, 2)
	require.NoError(t, err)

	_, err = svc.UpdateItemQuantity(ctx, intruder.ID, item.ID, 5)
	require.Error(t, err)
	class, ok := ClassOf(err)
	require.True(t, ok)
	assert.Equal(t, ClassNotFound, class)
}

func TestClearKeepsCartRow(t *testing.T) {
	db := newTestDB(t)
	svc := NewCartService(db)
	user := createTestUser(t, db)
	product := createTestProduct(t, db, 25, 10)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, user.ID, product.ID, uuid.Nil, 2)
	require.NoError(t, err)
	require.NoError(t, svc.Clear(ctx, user.ID))

	cart, err := svc.GetOrCreate(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())

	var carts int64
	require.NoError(t, db.Model(&models.Cart{}).
		Where("user_id = ?", user.ID).Count(&carts).Error)
	assert.EqualValues(t, 1, carts)
}

func TestVariantPriceUsedForCartLine(t *testing.T) {
	db := newTestDB(t)
	svc := NewCartService(db)
	user := createTestUser(t, db)
	product := createTestProduct(t, db, 25, 10)

	variant := models.ProductVariant{
		ProductID:     product.ID,
		SKU:           "VAR-" + uuid.NewString()[:8],
		Price:         30,
		StockQuantity: 5,
	}
	require.NoError(t, db.Create(&variant).Error)

	item, err := svc.AddItem(context.Background(), user.ID, product.ID, variant.ID, 2)
	require.NoError(t, err)
	assert.InDelta(t, 30.0, item.UnitPrice(), 0.001)
	assert.InDelta(t, 60.0, item.TotalPrice(), 0.001)
}

func TestWishlistAddDuplicateConflicts(t *testing.T) {
	db := newTestDB(t)
	svc := NewWishlistService(db)
	user := createTestUser(t, db)
	product := createTestProduct(t, db, 25, 10)
	ctx := context.Background()

	_, err := svc.Add(ctx, user.ID, product.ID, uuid.Nil)
	require.NoError(t, err)

	_, err = svc.Add(ctx, user.ID, product.ID, uuid.Nil)
	require.Error(t, err)
	class, ok := ClassOf(err)
	require.True(t, ok)
	assert.Equal(t, ClassConflict, class)
}

func TestWishlistMoveToCart(t *testing.T) {
	db := newTestDB(t)
	carts := NewCartService(db)
	wishlist := NewWishlistService(db)
	user := createTestUser(t, db)
	product := createTestProduct(t, db, 25, 10)
	ctx := context.Background()

	item, err := wishlist.Add(ctx, user.ID, product.ID, uuid.Nil)
	require.NoError(t, err)

	cartItem, err := wishlist.MoveToCart(ctx, carts, user.ID, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, cartItem.Quantity)
	assert.Equal(t, product.ID, cartItem.ProductID)

	remaining, err := wishlist.List(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}
