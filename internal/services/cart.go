package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/models"
)

// CartService manages the per-user cart aggregate.
type CartService struct {
	db *gorm.DB
}

// NewCartService constructs CartService.
func NewCartService(db *gorm.DB) *CartService {
	return &CartService{db: db}
}

// GetOrCreate returns the user's cart with items and live catalog records
// preloaded, creating the cart row on first use.
func (s *CartService) GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := s.db.WithContext(ctx).
		Where(models.Cart{UserID: userID}).
		FirstOrCreate(&cart).Error
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).
		Preload("Product").
		Preload("Variant").
		Preload("Variant.Attributes").
		Preload("Variant.Attributes.Attribute").
		Where("cart_id = ? AND is_active = ?", cart.ID, true).
		Order("created_at asc").
		Find(&cart.Items).Error
	if err != nil {
		return nil, err
	}

	return &cart, nil
}

// AddItem adds a product (or variant) line to the cart, summing quantities
// into the existing row for the same product+variant pair. The get-or-create
// runs inside a transaction and the table carries a composite unique index,
// so concurrent adds collapse into one row rather than two.
func (s *CartService) AddItem(ctx context.Context, userID, productID, variantID uuid.UUID, quantity int) (*models.CartItem, error) {
	if quantity < 1 {
		return nil, NewValidationError("quantity must be at least 1")
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
	if !product.IsPurchasable() {
		return nil, NewNotFoundError("product not found")
	}

	var variant *models.ProductVariant
	if variantID != uuid.Nil {
		var v models.ProductVariant
		err := s.db.WithContext(ctx).
			Where("id = ? AND product_id = ? AND is_active = ?", variantID, productID, true).
			First(&v).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, NewNotFoundError("variant not found")
			}
			return nil, err
		}
		variant = &v
	}

	cart, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	var item models.CartItem
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("cart_id = ? AND product_id = ? AND variant_id = ?",
			cart.ID, productID, variantID).
			First(&item).Error
		if err != nil && err != gorm.ErrRecordNotFound {
			return err
		}

		newQuantity := quantity
		if err == nil {
			newQuantity += item.Quantity
		}

		if stockErr := checkStock(&product, variant, newQuantity); stockErr != nil {
			return stockErr
		}

		if err == gorm.ErrRecordNotFound {
			item = models.CartItem{
				CartID:    cart.ID,
				ProductID: productID,
				VariantID: variantID,
				Quantity:  quantity,
			}
			return tx.Create(&item).Error
		}

		item.Quantity = newQuantity
		return tx.Model(&item).UpdateColumn("quantity", newQuantity).Error
	})
	if err != nil {
		return nil, err
	}

	item.Product = &product
	item.Variant = variant
	return &item, nil
}

// UpdateItemQuantity sets a line's quantity; zero deletes the line.
func (s *CartService) UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*models.CartItem, error) {
	if quantity < 0 {
		return nil, NewValidationError("quantity must not be negative")
	}

	item, err := s.findOwnedItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	if quantity == 0 {
		if err := s.db.WithContext(ctx).Delete(item).Error; err != nil {
			return nil, err
		}
		return nil, nil
	}

	if err := checkStock(item.Product, item.Variant, quantity); err != nil {
		return nil, err
	}

	item.Quantity = quantity
	if err := s.db.WithContext(ctx).Model(item).UpdateColumn("quantity", quantity).Error; err != nil {
		return nil, err
	}

	return item, nil
}

// RemoveItem deletes a line from the user's cart.
func (s *CartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error {
	item, err := s.findOwnedItem(ctx, userID, itemID)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(item).Error
}

// Clear deletes all lines, keeping the cart row.
func (s *CartService) Clear(ctx context.Context, userID uuid.UUID) error {
	var cart models.Cart
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&cart).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		return err
	}
	return s.db.WithContext(ctx).Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error
}

func (s *CartService) findOwnedItem(ctx context.Context, userID, itemID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := s.db.WithContext(ctx).
		Preload("Product").
		Preload("Variant").
		Joins("JOIN carts ON carts.id = cart_items.cart_id").
		Where("cart_items.id = ? AND carts.user_id = ? AND cart_items.is_active = ?", itemID, userID, true).
		First(&item).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NewNotFoundError("cart item not found")
		}
		return nil, err
	}
	return &item, nil
}

// checkStock validates requested quantity against live inventory. Variant
// stock wins when a variant is selected; untracked products always pass.
func checkStock(product *models.Product, variant *models.ProductVariant, quantity int) error {
	if variant != nil {
		if variant.StockQuantity < quantity {
			return ErrInsufficientStock
		}
		return nil
	}
	if product != nil && product.TrackInventory && product.StockQuantity < quantity {
		return ErrInsufficientStock
	}
	return nil
}

// WishlistService manages saved products.
type WishlistService struct {
	db *gorm.DB
}

// NewWishlistService constructs WishlistService.
func NewWishlistService(db *gorm.DB) *WishlistService {
	return &WishlistService{db: db}
}

// List returns the user's wishlist, newest first.
func (s *WishlistService) List(ctx context.Context, userID uuid.UUID) ([]models.WishlistItem, error) {
	var items []models.WishlistItem
	err := s.db.WithContext(ctx).
		Preload("Product").
		Preload("Variant").
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("created_at desc").
		Find(&items).Error
	return items, err
}

// Add saves a product to the wishlist; duplicates conflict.
func (s *WishlistService) Add(ctx context.Context, userID, productID, variantID uuid.UUID) (*models.WishlistItem, error) {
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

	var existing models.WishlistItem
	err = s.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ? AND variant_id = ? AND is_active = ?",
			userID, productID, variantID, true).
		First(&existing).Error
	if err == nil {
		return nil, NewConflictError("item already in wishlist")
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	item := models.WishlistItem{
		UserID:    userID,
		ProductID: productID,
		VariantID: variantID,
	}
	if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, err
	}

	item.Product = &product
	return &item, nil
}

// Remove deletes a wishlist item owned by the user.
func (s *WishlistService) Remove(ctx context.Context, userID, itemID uuid.UUID) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", itemID, userID).
		Delete(&models.WishlistItem{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return NewNotFoundError("wishlist item not found")
	}
	return nil
}

// MoveToCart adds the wishlist item to the cart and removes it from the
// wishlist when the add succeeds.
func (s *WishlistService) MoveToCart(ctx context.Context, carts *CartService, userID, itemID uuid.UUID) (*models.CartItem, error) {
	var item models.WishlistItem
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ? AND is_active = ?", itemID, userID, true).
		First(&item).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NewNotFoundError("wishlist item not found")
		}
		return nil, err
	}

	cartItem, err := carts.AddItem(ctx, userID, item.ProductID, item.VariantID, 1)
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Delete(&item).Error; err != nil {
		return nil, err
	}

	return cartItem, nil
}
