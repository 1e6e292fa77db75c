package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/storefront/internal/database"
	"github.com/example/storefront/internal/models"
)

// newTestDB opens an in-memory database with the full schema. The
// connection pool is capped at one so every query sees the same memory
// database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(conn))
	return conn
}

func createTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	user := models.User{
		Email:     fmt.Sprintf("user-%s@example.com", uuid.NewString()[:8]),
		FirstName: "Test",
		LastName:  "User",
		Role:      models.RoleCustomer,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func createTestCategory(t *testing.T, db *gorm.DB) *models.Category {
	t.Helper()

	suffix := uuid.NewString()[:8]
	category := models.Category{
		Name: "Category " + suffix,
		Slug: "category-" + suffix,
	}
	require.NoError(t, db.Create(&category).Error)
	return &category
}

func createTestProduct(t *testing.T, db *gorm.DB, price float64, stock int) *models.Product {
	t.Helper()

	suffix := uuid.NewString()[:8]
	product := models.Product{
		SellerID:       uuid.New(),
		CategoryID:     createTestCategory(t, db).ID,
		Name:           "Product " + suffix,
		Slug:           "product-" + suffix,
		Price:          price,
		SKU:            "SKU-" + suffix,
		StockQuantity:  stock,
		TrackInventory: true,
		Status:         models.ProductStatusActive,
		Weight:         1,
	}
	require.NoError(t, db.Create(&product).Error)
	return &product
}

func createTestAddress(t *testing.T, db *gorm.DB, userID uuid.UUID) *models.Address {
	t.Helper()

	address := models.Address{
		UserID:       userID,
		AddressType:  models.AddressTypeBoth,
		FirstName:    "Test",
		LastName:     "User",
		AddressLine1: "1 Main St",
		City:         "Springfield",
		State:        "IL",
		PostalCode:   "62701",
		Country:      "US",
	}
	require.NoError(t, db.Create(&address).Error)
	return &address
}

func createTestCoupon(t *testing.T, db *gorm.DB, mutate func(*models.Coupon)) *models.Coupon {
	t.Helper()

	now := time.Now()
	coupon := models.Coupon{
		Code:          "SAVE-" + uuid.NewString()[:8],
		Name:          "Test coupon",
		DiscountType:  models.DiscountTypePercentage,
		DiscountValue: 10,
		ValidFrom:     now.Add(-time.Hour),
		ValidUntil:    now.Add(time.Hour),
	}
	if mutate != nil {
		mutate(&coupon)
	}
	require.NoError(t, db.Create(&coupon).Error)
	return &coupon
}

// placeTestOrder seeds a cart with the product at the given quantity and
// runs checkout for the user.
func placeTestOrder(t *testing.T, db *gorm.DB, user *models.User, product *models.Product, quantity int, couponCode string) *models.Order {
	t.Helper()

	carts := NewCartService(db)
	checkout := NewCheckoutService(db, NewCouponService(db), 0)

	_, err := carts.AddItem(context.Background(), user.ID, product.ID, uuid.Nil, quantity)
	require.NoError(t, err)

	address := createTestAddress(t, db, user.ID)
	order, err := checkout.CreateOrder(context.Background(), user.ID, CreateOrderInput{
		BillingAddressID:  address.ID,
		ShippingAddressID: address.ID,
		CouponCode:        couponCode,
	})
	require.NoError(t, err)
	return order
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
