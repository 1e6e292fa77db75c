package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/config"
	"github.com/example/storefront/internal/handlers"
	"github.com/example/storefront/internal/middleware"
	"github.com/example/storefront/internal/services"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	couponService := services.NewCouponService(db)
	cartService := services.NewCartService(db)
	wishlistService := services.NewWishlistService(db)
	checkoutService := services.NewCheckoutService(db, couponService, cfg.TaxRate)
	gateway := services.NewMockGateway(cfg.GatewaySuccessRate, cfg.RefundSuccessRate)
	paymentService := services.NewPaymentService(db, gateway)
	shipmentService := services.NewShipmentService(db)
	rateService := services.NewShippingRateService(db)
	reviewService := services.NewReviewService(db)

	authHandler := handlers.NewAuthHandler(db, cfg)
	addressHandler := handlers.NewAddressHandler(db)
	catalogHandler := handlers.NewCatalogHandler(db)
	productHandler := handlers.NewProductHandler(db)
	reviewHandler := handlers.NewReviewHandler(db, reviewService)
	cartHandler := handlers.NewCartHandler(cartService, wishlistService)
	orderHandler := handlers.NewOrderHandler(db, checkoutService, couponService)
	paymentHandler := handlers.NewPaymentHandler(db, paymentService)
	shippingHandler := handlers.NewShippingHandler(db, rateService, shipmentService)

	authRequired := middleware.AuthMiddleware(cfg)
	sellerOnly := middleware.RequireCapability(middleware.CapWrite)
	adminOnly := middleware.RequireCapability(middleware.CapAdmin)

	api := app.Group("/api/v1")

	// Auth and profile
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/profile", authRequired, authHandler.GetProfile)
	auth.Put("/profile", authRequired, authHandler.UpdateProfile)

	// Addresses
	addresses := api.Group("/addresses", authRequired)
	addresses.Get("/", addressHandler.ListAddresses)
	addresses.Post("/", addressHandler.CreateAddress)
	addresses.Put("/:id", addressHandler.UpdateAddress)
	addresses.Delete("/:id", addressHandler.DeleteAddress)

	// Catalog
	categories := api.Group("/categories")
	categories.Get("/", catalogHandler.ListCategories)
	categories.Get("/:id", catalogHandler.GetCategory)
	categories.Post("/", authRequired, adminOnly, catalogHandler.CreateCategory)
	categories.Put("/:id", authRequired, adminOnly, catalogHandler.UpdateCategory)
	categories.Delete("/:id", authRequired, adminOnly, catalogHandler.DeleteCategory)

	brands := api.Group("/brands")
	brands.Get("/", catalogHandler.ListBrands)
	brands.Post("/", authRequired, adminOnly, catalogHandler.CreateBrand)
	brands.Put("/:id", authRequired, adminOnly, catalogHandler.UpdateBrand)
	brands.Delete("/:id", authRequired, adminOnly, catalogHandler.DeleteBrand)

	// Products
	products := api.Group("/products")
	products.Get("/", productHandler.ListProducts)
	products.Get("/:id", productHandler.GetProduct)
	products.Post("/", authRequired, sellerOnly, productHandler.CreateProduct)
	products.Put("/:id", authRequired, sellerOnly, productHandler.UpdateProduct)
	products.Delete("/:id", authRequired, sellerOnly, productHandler.DeleteProduct)
	products.Post("/:id/variants", authRequired, sellerOnly, productHandler.CreateVariant)
	products.Delete("/:id/variants/:variantId", authRequired, sellerOnly, productHandler.DeleteVariant)

	// Reviews
	products.Get("/:id/reviews", reviewHandler.ListProductReviews)
	products.Post("/:id/reviews", authRequired, reviewHandler.CreateReview)
	api.Delete("/reviews/:id", authRequired, reviewHandler.DeleteReview)

	// Cart
	cart := api.Group("/cart", authRequired)
	cart.Get("/", cartHandler.GetCart)
	cart.Post("/items", cartHandler.AddItem)
	cart.Put("/items/:id", cartHandler.UpdateItem)
	cart.Delete("/items/:id", cartHandler.RemoveItem)
	cart.Delete("/", cartHandler.ClearCart)

	// Wishlist
	wishlist := api.Group("/wishlist", authRequired)
	wishlist.Get("/", cartHandler.ListWishlist)
	wishlist.Post("/items", cartHandler.AddWishlistItem)
	wishlist.Delete("/items/:id", cartHandler.RemoveWishlistItem)
	wishlist.Post("/items/:id/move-to-cart", cartHandler.MoveWishlistItemToCart)

	// Orders
	orders := api.Group("/orders", authRequired)
	orders.Get("/", orderHandler.ListOrders)
	orders.Post("/", orderHandler.CreateOrder)
	orders.Get("/:id", orderHandler.GetOrder)
	orders.Post("/:id/cancel", orderHandler.CancelOrder)
	orders.Get("/:id/shipping-rates", shippingHandler.EstimateForOrder)

	// Coupons
	coupons := api.Group("/coupons")
	coupons.Get("/", orderHandler.ListCoupons)
	coupons.Post("/validate", authRequired, orderHandler.ValidateCoupon)
	coupons.Post("/", authRequired, adminOnly, orderHandler.CreateCoupon)
	coupons.Delete("/:id", authRequired, adminOnly, orderHandler.DeactivateCoupon)

	// Payments
	payments := api.Group("/payments")
	payments.Post("/webhooks/:gateway", paymentHandler.ReceiveWebhook)
	payments.Get("/", authRequired, paymentHandler.ListPayments)
	payments.Get("/:id", authRequired, paymentHandler.GetPayment)
	payments.Post("/", authRequired, paymentHandler.ProcessPayment)
	payments.Post("/:id/refund", authRequired, adminOnly, paymentHandler.RefundPayment)

	// Shipping
	shipping := api.Group("/shipping")
	shipping.Get("/methods", shippingHandler.ListMethods)
	shipping.Post("/methods", authRequired, adminOnly, shippingHandler.CreateMethod)
	shipping.Post("/calculate", shippingHandler.CalculateRates)
	shipping.Get("/track/:trackingNumber", shippingHandler.TrackShipment)

	shipments := api.Group("/shipments", authRequired, adminOnly)
	shipments.Get("/", shippingHandler.ListShipments)
	shipments.Post("/", shippingHandler.CreateShipment)
	shipments.Post("/:id/tracking", shippingHandler.UpdateTracking)
	shipments.Post("/:id/label", shippingHandler.GenerateLabel)
	shipments.Post("/:id/cancel", shippingHandler.CancelShipment)
}
