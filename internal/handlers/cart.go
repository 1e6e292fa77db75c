package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/storefront/internal/middleware"
	"github.com/example/storefront/internal/services"
)

// CartHandler serves cart and wishlist endpoints.
type CartHandler struct {
	carts    *services.CartService
	wishlist *services.WishlistService
}

// NewCartHandler constructs CartHandler.
func NewCartHandler(carts *services.CartService, wishlist *services.WishlistService) *CartHandler {
	return &CartHandler{carts: carts, wishlist: wishlist}
}

// GetCart returns the caller's cart, creating it on first access.
func (h *CartHandler) GetCart(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	cart, err := h.carts.GetOrCreate(c.Context(), userID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": cart})
}

type addCartItemRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	VariantID uuid.UUID `json:"variant_id"`
	Quantity  int       `json:"quantity"`
}

// AddItem adds a product (optionally a variant) to the cart. Adding an
// item already in the cart sums the quantities.
func (h *CartHandler) AddItem(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req addCartItemRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.ProductID == uuid.Nil {
		return fiber.NewError(fiber.StatusBadRequest, "product_id is required")
	}
	if req.Quantity <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "quantity must be positive")
	}

	item, err := h.carts.AddItem(c.Context(), userID, req.ProductID, req.VariantID, req.Quantity)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": item})
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// UpdateItem changes an item's quantity. Zero removes the item.
func (h *CartHandler) UpdateItem(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	itemID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req updateCartItemRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Quantity < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "quantity must not be negative")
	}

	item, err := h.carts.UpdateItemQuantity(c.Context(), userID, itemID, req.Quantity)
	if err != nil {
		return err
	}
	if item == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}

	return c.JSON(fiber.Map{"success": true, "data": item})
}

// RemoveItem deletes an item from the cart.
func (h *CartHandler) RemoveItem(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	itemID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	if err := h.carts.RemoveItem(c.Context(), userID, itemID); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ClearCart removes every item but keeps the cart row.
func (h *CartHandler) ClearCart(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	if err := h.carts.Clear(c.Context(), userID); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ListWishlist returns the caller's wishlist.
func (h *CartHandler) ListWishlist(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	items, err := h.wishlist.List(c.Context(), userID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": items})
}

type addWishlistItemRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	VariantID uuid.UUID `json:"variant_id"`
}

// AddWishlistItem saves a product to the wishlist.
func (h *CartHandler) AddWishlistItem(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req addWishlistItemRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.ProductID == uuid.Nil {
		return fiber.NewError(fiber.StatusBadRequest, "product_id is required")
	}

	item, err := h.wishlist.Add(c.Context(), userID, req.ProductID, req.VariantID)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": item})
}

// RemoveWishlistItem deletes a wishlist entry.
func (h *CartHandler) RemoveWishlistItem(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	itemID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	if err := h.wishlist.Remove(c.Context(), userID, itemID); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// MoveWishlistItemToCart moves a wishlist entry into the cart with
// quantity one.
func (h *CartHandler) MoveWishlistItemToCart(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	itemID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	cartItem, err := h.wishlist.MoveToCart(c.Context(), h.carts, userID, itemID)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": cartItem})
}
