package models

import "github.com/google/uuid"

// Product statuses.
const (
	ProductStatusDraft      = "draft"
	ProductStatusActive     = "active"
	ProductStatusInactive   = "inactive"
	ProductStatusOutOfStock = "out_of_stock"
)

type Category struct {
	BaseModel
	Name        string     `gorm:"uniqueIndex" json:"name"`
	Slug        string     `gorm:"uniqueIndex" json:"slug"`
	Description string     `json:"description"`
	Image       string     `json:"image"`
	ParentID    *uuid.UUID `gorm:"type:uuid" json:"parent_id"`
	Parent      *Category  `json:"parent,omitempty"`
	IsFeatured  bool       `json:"is_featured"`
	Products    []Product  `json:"products,omitempty"`
}

type Brand struct {
	BaseModel
	Name        string    `gorm:"uniqueIndex" json:"name"`
	Slug        string    `gorm:"uniqueIndex" json:"slug"`
	Description string    `json:"description"`
	Logo        string    `json:"logo"`
	Website     string    `json:"website"`
	Products    []Product `json:"products,omitempty"`
}

type Product struct {
	BaseModel
	SellerID   uuid.UUID  `gorm:"type:uuid;index" json:"seller_id"`
	CategoryID uuid.UUID  `gorm:"type:uuid;index" json:"category_id"`
	Category   *Category  `json:"category,omitempty"`
	BrandID    *uuid.UUID `gorm:"type:uuid" json:"brand_id"`
	Brand      *Brand     `json:"brand,omitempty"`

	Name             string `json:"name"`
	Slug             string `gorm:"uniqueIndex" json:"slug"`
	Description      string `json:"description"`
	ShortDescription string `json:"short_description"`

	Price        float64 `json:"price"`
	ComparePrice float64 `json:"compare_price"`
	CostPrice    float64 `json:"cost_price"`

	SKU               string `gorm:"uniqueIndex" json:"sku"`
	StockQuantity     int    `json:"stock_quantity"`
	LowStockThreshold int    `gorm:"default:10" json:"low_stock_threshold"`
	TrackInventory    bool   `gorm:"default:true" json:"track_inventory"`

	Weight float64 `json:"weight"`
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	Status           string `gorm:"default:draft" json:"status"`
	IsFeatured       bool   `json:"is_featured"`
	IsDigital        bool   `json:"is_digital"`
	RequiresShipping bool   `gorm:"default:true" json:"requires_shipping"`

	AverageRating float64 `json:"average_rating"`
	ReviewCount   int     `json:"review_count"`

	Images   []ProductImage   `json:"images,omitempty"`
	Variants []ProductVariant `json:"variants,omitempty"`
	Reviews  []Review         `json:"reviews,omitempty"`
}

// IsInStock reports whether the product can be added to a cart.
func (p *Product) IsInStock() bool {
	if !p.TrackInventory {
		return true
	}
	return p.StockQuantity > 0
}

// IsPurchasable reports whether the product is live in the catalog.
func (p *Product) IsPurchasable() bool {
	return p.IsActive && p.Status == ProductStatusActive
}

type ProductImage struct {
	BaseModel
	ProductID uuid.UUID `gorm:"type:uuid;index" json:"product_id"`
	URL       string    `json:"url"`
	AltText   string    `json:"alt_text"`
	IsPrimary bool      `json:"is_primary"`
	SortOrder int       `json:"sort_order"`
}

// ProductAttribute names a variant axis, e.g. Color or Size.
type ProductAttribute struct {
	BaseModel
	Name string `gorm:"uniqueIndex" json:"name"`
	Slug string `gorm:"uniqueIndex" json:"slug"`
}

// ProductAttributeValue is one value on an axis, e.g. Red or Large.
type ProductAttributeValue struct {
	BaseModel
	AttributeID uuid.UUID         `gorm:"type:uuid;index;uniqueIndex:idx_attribute_value" json:"attribute_id"`
	Attribute   *ProductAttribute `json:"attribute,omitempty"`
	Value       string            `gorm:"uniqueIndex:idx_attribute_value" json:"value"`
}

// ProductVariant is a sellable combination of attribute values. A zero Price
// means the variant inherits the product price.
type ProductVariant struct {
	BaseModel
	ProductID     uuid.UUID               `gorm:"type:uuid;index" json:"product_id"`
	Product       *Product                `json:"product,omitempty"`
	SKU           string                  `gorm:"uniqueIndex" json:"sku"`
	Price         float64                 `json:"price"`
	ComparePrice  float64                 `json:"compare_price"`
	StockQuantity int                     `json:"stock_quantity"`
	Weight        float64                 `json:"weight"`
	Attributes    []ProductAttributeValue `gorm:"many2many:product_variant_attributes;" json:"attributes,omitempty"`
}

// EffectivePrice returns the variant price, falling back to the product
// price when the variant does not carry one.
func (v *ProductVariant) EffectivePrice(product *Product) float64 {
	if v.Price > 0 {
		return v.Price
	}
	return product.Price
}

// AttributeMap flattens the variant's attribute values into name -> value.
// Attribute relations must be preloaded.
func (v *ProductVariant) AttributeMap() JSONMap {
	if len(v.Attributes) == 0 {
		return nil
	}

	attrs := JSONMap{}
	for _, av := range v.Attributes {
		if av.Attribute != nil {
			attrs[av.Attribute.Name] = av.Value
		}
	}
	return attrs
}

// Review is a customer product review. One per (product, user).
type Review struct {
	BaseModel
	ProductID          uuid.UUID `gorm:"type:uuid;index;uniqueIndex:idx_product_user_review" json:"product_id"`
	UserID             uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_product_user_review" json:"user_id"`
	User               *User     `json:"user,omitempty"`
	Rating             int       `json:"rating"`
	Title              string    `json:"title"`
	Comment            string    `json:"comment"`
	IsVerifiedPurchase bool      `json:"is_verified_purchase"`
	IsApproved         bool      `gorm:"default:true" json:"is_approved"`
}
