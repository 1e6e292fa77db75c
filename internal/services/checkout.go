package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/utils"
)

// DefaultTaxRate is the flat tax applied to the order subtotal.
const DefaultTaxRate = 0.10

// CheckoutService converts a cart into an order inside a single
// transaction: address snapshots, item snapshots, totals, optional coupon
// redemption, stock decrement and cart clearing all commit or roll back
// together.
type CheckoutService struct {
	db      *gorm.DB
	coupons *CouponService
	taxRate float64
}

// NewCheckoutService constructs CheckoutService. A zero taxRate falls back
// to DefaultTaxRate.
func NewCheckoutService(db *gorm.DB, coupons *CouponService, taxRate float64) *CheckoutService {
	if taxRate == 0 {
		taxRate = DefaultTaxRate
	}
	return &CheckoutService{db: db, coupons: coupons, taxRate: taxRate}
}

// CreateOrderInput carries the checkout request.
type CreateOrderInput struct {
	BillingAddressID  uuid.UUID
	ShippingAddressID uuid.UUID
	CouponCode        string
	Notes             string
}

// CreateOrder places an order from the user's cart.
//
// Preconditions are checked before the transaction opens: the cart must be
// non-empty, both addresses must belong to the user and be active, and a
// supplied coupon must resolve (not found, not valid and usage-exceeded are
// distinct errors). The cart is emptied only when every prior step
// succeeded.
func (s *CheckoutService) CreateOrder(ctx context.Context, userID uuid.UUID, input CreateOrderInput) (*models.Order, error) {
	var cart models.Cart
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&cart).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrCartNotFound
		}
		return nil, err
	}

	var items []models.CartItem
	err = s.db.WithContext(ctx).
		Preload("Product").
		Preload("Variant").
		Preload("Variant.Attributes").
		Preload("Variant.Attributes.Attribute").
		Where("cart_id = ? AND is_active = ?", cart.ID, true).
		Order("created_at asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	billing, err := s.findOwnedAddress(ctx, userID, input.BillingAddressID)
	if err != nil {
		return nil, err
	}
	shipping, err := s.findOwnedAddress(ctx, userID, input.ShippingAddressID)
	if err != nil {
		return nil, err
	}

	var coupon *models.Coupon
	if input.CouponCode != "" {
		coupon, err = s.coupons.ResolveForUser(ctx, input.CouponCode, userID)
		if err != nil {
			return nil, err
		}
	}

	orderNumber, err := s.generateOrderNumber(ctx)
	if err != nil {
		return nil, err
	}

	var order models.Order
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Totals start at zero so the order has a stable ID for child rows
		// before anything is computed.
		order = models.Order{
			UserID:          userID,
			OrderNumber:     orderNumber,
			Status:          models.OrderStatusPending,
			PaymentStatus:   models.OrderPaymentPending,
			BillingAddress:  billing.Snapshot(),
			ShippingAddress: shipping.Snapshot(),
			Notes:           input.Notes,
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		for i := range items {
			item := &items[i]
			if err := s.reserveStock(tx, item); err != nil {
				return err
			}

			orderItem, err := snapshotCartItem(order.ID, item)
			if err != nil {
				return err
			}
			if err := tx.Create(orderItem).Error; err != nil {
				return err
			}
			order.Items = append(order.Items, *orderItem)
		}

		if err := s.recalculateTotals(tx, &order); err != nil {
			return err
		}

		if coupon != nil {
			// Discount basis is the subtotal, not the taxed total.
			discount := s.coupons.CalculateDiscount(coupon, order.Subtotal)
			if discount > 0 {
				order.DiscountAmount = discount
				order.TotalAmount = round2(order.TotalAmount - discount)
				err := tx.Model(&order).Updates(map[string]any{
					"discount_amount": order.DiscountAmount,
					"total_amount":    order.TotalAmount,
				}).Error
				if err != nil {
					return err
				}

				if err := s.coupons.Redeem(tx, coupon, userID, order.ID, discount); err != nil {
					return err
				}
			}
		}

		history := models.OrderStatusHistory{
			OrderID:   order.ID,
			Status:    models.OrderStatusPending,
			Notes:     "Order created",
			ChangedBy: &userID,
		}
		if err := tx.Create(&history).Error; err != nil {
			return err
		}
		order.StatusHistory = append(order.StatusHistory, history)

		return tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error
	})
	if err != nil {
		return nil, err
	}

	return &order, nil
}

// recalculateTotals recomputes subtotal, tax and total from the order's
// items and persists them. total = subtotal + tax + shipping - discount
// holds after every call.
func (s *CheckoutService) recalculateTotals(tx *gorm.DB, order *models.Order) error {
	var subtotal float64
	for i := range order.Items {
		subtotal += order.Items[i].TotalPrice()
	}

	order.Subtotal = round2(subtotal)
	order.TaxAmount = round2(order.Subtotal * s.taxRate)
	order.TotalAmount = round2(order.Subtotal + order.TaxAmount + order.ShippingAmount - order.DiscountAmount)

	return tx.Model(order).Updates(map[string]any{
		"subtotal":     order.Subtotal,
		"tax_amount":   order.TaxAmount,
		"total_amount": order.TotalAmount,
	}).Error
}

// reserveStock re-validates availability inside the checkout transaction
// and decrements inventory with a guarded update, closing the window
// between cart-add and checkout where stock could be consumed elsewhere.
func (s *CheckoutService) reserveStock(tx *gorm.DB, item *models.CartItem) error {
	if item.HasVariant() {
		result := tx.Model(&models.ProductVariant{}).
			Where("id = ? AND stock_quantity >= ?", item.VariantID, item.Quantity).
			UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", item.Quantity))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrInsufficientStock
		}
		return nil
	}

	if item.Product == nil || !item.Product.TrackInventory {
		return nil
	}

	result := tx.Model(&models.Product{}).
		Where("id = ? AND stock_quantity >= ?", item.ProductID, item.Quantity).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", item.Quantity))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrInsufficientStock
	}
	return nil
}

// snapshotCartItem freezes a cart line into an immutable order item:
// product name, SKU (variant SKU when present), effective unit price and
// flattened variant attributes are copied so later catalog edits cannot
// alter the placed order.
func snapshotCartItem(orderID uuid.UUID, item *models.CartItem) (*models.OrderItem, error) {
	if item.Product == nil {
		return nil, NewNotFoundError("product not found")
	}

	orderItem := &models.OrderItem{
		OrderID:     orderID,
		ProductID:   item.ProductID,
		ProductName: item.Product.Name,
		ProductSKU:  item.Product.SKU,
		UnitPrice:   item.Product.Price,
		Quantity:    item.Quantity,
	}

	if item.Variant != nil {
		variantID := item.Variant.ID
		orderItem.VariantID = &variantID
		orderItem.ProductSKU = item.Variant.SKU
		orderItem.UnitPrice = item.Variant.EffectivePrice(item.Product)
		orderItem.VariantAttributes = item.Variant.AttributeMap()
	}

	return orderItem, nil
}

func (s *CheckoutService) findOwnedAddress(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error) {
	if addressID == uuid.Nil {
		return nil, ErrInvalidAddress
	}

	var address models.Address
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ? AND is_active = ?", addressID, userID, true).
		First(&address).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrInvalidAddress
		}
		return nil, err
	}
	return &address, nil
}

func (s *CheckoutService) generateOrderNumber(ctx context.Context) (string, error) {
	for {
		number, err := utils.RandomCode(10)
		if err != nil {
			return "", err
		}

		var count int64
		err = s.db.WithContext(ctx).Model(&models.Order{}).
			Where("order_number = ?", number).
			Count(&count).Error
		if err != nil {
			return "", err
		}
		if count == 0 {
			return number, nil
		}
	}
}

// CancelOrder cancels a pending or confirmed order on behalf of its owner
// and appends the transition to the status history.
func (s *CheckoutService) CancelOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ? AND is_active = ?", orderID, userID, true).
		First(&order).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	if !order.CanBeCancelled() {
		return nil, NewStateError("order cannot be cancelled")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order.Status = models.OrderStatusCancelled
		if err := tx.Model(&order).UpdateColumn("status", order.Status).Error; err != nil {
			return err
		}

		history := models.OrderStatusHistory{
			OrderID:   order.ID,
			Status:    models.OrderStatusCancelled,
			Notes:     "Cancelled by customer",
			ChangedBy: &userID,
		}
		return tx.Create(&history).Error
	})
	if err != nil {
		return nil, err
	}

	return &order, nil
}
