package http

import (
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/peermarket/backend/internal/config"
	"github.com/peermarket/backend/internal/http/handlers"
	"github.com/peermarket/backend/internal/middleware"
)

func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	orderHandler *handlers.OrderHandler,
	webhookHandler *handlers.WebhookHandler,
	balanceHandler *handlers.BalanceHandler,
	notificationHandler *handlers.NotificationHandler,
	userHandler *handlers.UserHandler,
	adminHandler *handlers.AdminHandler,
	wsHub *handlers.WSHub,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")

	// Payment provider callbacks (public, signature-verified)
	api.Post("/webhooks/stripe", webhookHandler.StripeWebhook)
	api.Post("/webhooks/crypto", webhookHandler.CryptoWebhook)

	api.Use(middleware.RateLimitMiddleware(rdb, 100, time.Minute, middleware.KeyByIP))

	// Protected endpoints
	protected := api.Group("", middleware.AuthMiddleware(cfg, log))

	// Checkout gets its own per-user limit on top of the global one.
	checkoutLimit := middleware.RateLimitMiddleware(rdb, cfg.CheckoutRateLimit, cfg.CheckoutRateWindow, middleware.KeyByUser)

	// User
	protected.Get("/me", userHandler.GetMe)

	// Orders
	protected.Post("/orders", checkoutLimit, orderHandler.CreateOrder)
	protected.Get("/orders", orderHandler.ListOrders)
	protected.Get("/orders/:id", orderHandler.GetOrder)
	protected.Get("/orders/:id/actions", orderHandler.GetAllowedActions)
	protected.Post("/orders/:id/ship", orderHandler.ShipOrder)
	protected.Post("/orders/:id/confirm-delivery", orderHandler.ConfirmDelivery)
	protected.Post("/orders/:id/dispute", orderHandler.OpenDispute)
	protected.Post("/orders/:id/cancel", orderHandler.CancelOrder)

	// Seller balance and payouts
	protected.Get("/balance", balanceHandler.GetBalance)
	protected.Post("/payouts", balanceHandler.RequestPayout)
	protected.Get("/payouts", balanceHandler.ListPayouts)

	// Notifications
	protected.Get("/notifications", notificationHandler.ListNotifications)
	protected.Post("/notifications/:id/read", notificationHandler.MarkRead)

	// Admin
	admin := protected.Group("/admin", middleware.AdminMiddleware())
	admin.Post("/orders/:id/resolve", orderHandler.ResolveDispute)
	admin.Post("/orders/:id/cancel", orderHandler.CancelOrder)
	admin.Get("/orders/:id/audit", adminHandler.GetOrderAudit)
	admin.Post("/payouts/:id/status", balanceHandler.UpdatePayoutStatus)

	// WebSocket
	app.Use("/ws", handlers.WSUpgradeMiddleware())
	app.Get("/ws", websocket.New(wsHub.HandleWS))
}
