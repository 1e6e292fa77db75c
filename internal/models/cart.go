package models

import "github.com/google/uuid"

// Cart is the per-user pre-order line item collection. Deleting the last
// item leaves the cart row in place.
type Cart struct {
	BaseModel
	UserID uuid.UUID  `gorm:"type:uuid;uniqueIndex" json:"user_id"`
	Items  []CartItem `json:"items,omitempty"`
}

// TotalItems sums item quantities. Items must be preloaded.
func (c *Cart) TotalItems() int {
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}

// IsEmpty reports whether the cart has no items. Items must be preloaded.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// CartItem is one product (or variant) line in a cart. It carries no price
// snapshot; unit price is always read from the live catalog record.
// VariantID is uuid.Nil for products without a variant so the composite
// unique index holds across concurrent inserts.
type CartItem struct {
	BaseModel
	CartID    uuid.UUID       `gorm:"type:uuid;index;uniqueIndex:idx_cart_product_variant" json:"cart_id"`
	ProductID uuid.UUID       `gorm:"type:uuid;uniqueIndex:idx_cart_product_variant" json:"product_id"`
	Product   *Product        `json:"product,omitempty"`
	VariantID uuid.UUID       `gorm:"type:uuid;uniqueIndex:idx_cart_product_variant" json:"variant_id"`
	Variant   *ProductVariant `json:"variant,omitempty"`
	Quantity  int             `json:"quantity"`
}

// HasVariant reports whether the line references a concrete variant.
func (i *CartItem) HasVariant() bool {
	return i.VariantID != uuid.Nil
}

// UnitPrice returns the live price: variant price when the variant carries
// one, product price otherwise. Product (and Variant when set) must be
// preloaded.
func (i *CartItem) UnitPrice() float64 {
	if i.Variant != nil && i.Variant.Price > 0 {
		return i.Variant.Price
	}
	if i.Product != nil {
		return i.Product.Price
	}
	return 0
}

// TotalPrice is unit price times quantity.
func (i *CartItem) TotalPrice() float64 {
	return i.UnitPrice() * float64(i.Quantity)
}

// WishlistItem is a saved product, unique per (user, product, variant).
type WishlistItem struct {
	BaseModel
	UserID    uuid.UUID       `gorm:"type:uuid;index;uniqueIndex:idx_user_product_variant" json:"user_id"`
	ProductID uuid.UUID       `gorm:"type:uuid;uniqueIndex:idx_user_product_variant" json:"product_id"`
	Product   *Product        `json:"product,omitempty"`
	VariantID uuid.UUID       `gorm:"type:uuid;uniqueIndex:idx_user_product_variant" json:"variant_id"`
	Variant   *ProductVariant `json:"variant,omitempty"`
}
