package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/wayra/internal/config"
	"github.com/example/wayra/internal/handlers"
	"github.com/example/wayra/internal/middleware"
	"github.com/example/wayra/internal/services"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	notifier := services.NewNotificationService(cfg.TelegramBotToken, cfg.TelegramAdminChat)
	orderService := services.NewOrderService(db, notifier)
	paymentService := services.NewPaymentService(db, orderService, notifier)
	checkoutService := services.NewCheckoutService(db, cfg, orderService, notifier)
	izipayService := services.NewIzipayService(cfg)

	authHandler := handlers.NewAuthHandler(db, cfg)
	passwordResetHandler := handlers.NewPasswordResetHandler(db, cfg)
	profileHandler := handlers.NewProfileHandler(db)
	catalogHandler := handlers.NewCatalogHandler(db)
	productHandler := handlers.NewProductHandler(db)
	checkoutHandler := handlers.NewCheckoutHandler(db, cfg, checkoutService)
	orderHandler := handlers.NewOrderHandler(db, orderService, paymentService)
	izipayHandler := handlers.NewIzipayHandler(db, izipayService, paymentService)
	paymentMethodHandler := handlers.NewPaymentMethodHandler(db)
	couponHandler := handlers.NewCouponHandler(db)
	adminHandler := handlers.NewAdminHandler(db)

	api := app.Group("/api")

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/forgot-password", passwordResetHandler.ForgotPassword)
	auth.Post("/reset-password", passwordResetHandler.ResetPassword)

	// Public catalog
	api.Get("/categories", catalogHandler.ListCategories)
	api.Get("/brands", catalogHandler.ListBrands)
	api.Get("/products", productHandler.ListProducts)
	api.Get("/products/:id", productHandler.GetProduct)

	// Checkout: guests allowed, user linked when a token is present
	checkout := api.Group("/checkout", middleware.OptionalAuthMiddleware(cfg))
	checkout.Get("/payment-methods", checkoutHandler.ListPaymentMethods)
	checkout.Post("/validate-method", checkoutHandler.ValidateMethod)
	checkout.Post("/preview", checkoutHandler.Preview)
	checkout.Post("/submit", checkoutHandler.Submit)

	// Gateway callbacks: signed payloads, no session
	izipay := api.Group("/izipay")
	izipay.Post("/form-token", izipayHandler.CreateFormToken)
	izipay.Post("/return", izipayHandler.Return)
	izipay.Post("/ipn", izipayHandler.IPN)

	// Authenticated user routes
	protected := api.Group("", middleware.AuthMiddleware(cfg))

	protected.Get("/profile", profileHandler.GetProfile)
	protected.Put("/profile", profileHandler.UpdateProfile)
	protected.Get("/profile/addresses", profileHandler.ListAddresses)
	protected.Post("/profile/addresses", profileHandler.CreateAddress)
	protected.Put("/profile/addresses/:id", profileHandler.UpdateAddress)
	protected.Delete("/profile/addresses/:id", profileHandler.DeleteAddress)
	protected.Get("/profile/favorites", profileHandler.ListFavorites)
	protected.Post("/profile/favorites", profileHandler.AddFavorite)
	protected.Delete("/profile/favorites/:productId", profileHandler.RemoveFavorite)

	protected.Get("/orders", orderHandler.ListMyOrders)
	protected.Get("/orders/:id", orderHandler.GetMyOrder)
	protected.Post("/orders/:id/cancel", orderHandler.CancelMyOrder)

	// Back-office routes
	admin := api.Group("/admin", middleware.AuthMiddleware(cfg), middleware.AdminMiddleware(db))

	admin.Get("/dashboard", adminHandler.DashboardStats)
	admin.Get("/users", adminHandler.ListUsers)
	admin.Get("/customers", adminHandler.ListCustomers)

	admin.Get("/orders", orderHandler.ListOrders)
	admin.Get("/orders/:id", orderHandler.GetOrder)
	admin.Put("/orders/:id/status", orderHandler.UpdateStatus)
	admin.Post("/orders/:id/items", orderHandler.AddItem)
	admin.Put("/orders/:id/items/:itemId", orderHandler.UpdateItem)
	admin.Delete("/orders/:id/items/:itemId", orderHandler.RemoveItem)
	admin.Delete("/orders/:id", orderHandler.DeleteOrder)
	admin.Post("/payments/:paymentId/paid", orderHandler.MarkPaymentPaid)
	admin.Post("/payments/:paymentId/failed", orderHandler.MarkPaymentFailed)

	admin.Post("/categories", catalogHandler.CreateCategory)
	admin.Put("/categories/:id", catalogHandler.UpdateCategory)
	admin.Delete("/categories/:id", catalogHandler.DeleteCategory)
	admin.Post("/brands", catalogHandler.CreateBrand)
	admin.Delete("/brands/:id", catalogHandler.DeleteBrand)

	admin.Post("/products", productHandler.CreateProduct)
	admin.Put("/products/:id", productHandler.UpdateProduct)
	admin.Delete("/products/:id", productHandler.DeleteProduct)
	admin.Post("/products/:id/variants", productHandler.CreateVariant)
	admin.Put("/products/:id/variants/:variantId", productHandler.UpdateVariant)

	admin.Get("/payment-methods", paymentMethodHandler.ListMethods)
	admin.Post("/payment-methods", paymentMethodHandler.CreateMethod)
	admin.Put("/payment-methods/:id", paymentMethodHandler.UpdateMethod)
	admin.Delete("/payment-methods/:id", paymentMethodHandler.DeleteMethod)

	admin.Get("/coupons", couponHandler.ListCoupons)
	admin.Post("/coupons", couponHandler.CreateCoupon)
	admin.Put("/coupons/:id", couponHandler.UpdateCoupon)
	admin.Delete("/coupons/:id", couponHandler.DeleteCoupon)
}
