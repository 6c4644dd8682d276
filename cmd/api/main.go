package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/peermarket/backend/internal/config"
	"github.com/peermarket/backend/internal/db"
	"github.com/peermarket/backend/internal/events"
	apphttp "github.com/peermarket/backend/internal/http"
	"github.com/peermarket/backend/internal/http/handlers"
	"github.com/peermarket/backend/internal/repositories"
	"github.com/peermarket/backend/internal/services"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	// Run migrations
	if err := db.RunMigrations(ctx, pool, "migrations", log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Redis
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Repositories
	userRepo := repositories.NewUserRepo(pool)
	orderRepo := repositories.NewOrderRepo(pool)
	listingRepo := repositories.NewListingRepo(pool)
	balanceRepo := repositories.NewBalanceRepo(pool)
	payoutRepo := repositories.NewPayoutRepo(pool)
	notificationRepo := repositories.NewNotificationRepo(pool)
	auditRepo := repositories.NewAuditRepo(pool)

	// Events
	publisher := events.NewRedisPublisher(rdb, log)
	subscriber := events.NewRedisSubscriber(rdb, log)

	// Services
	mailer := services.NewMailerClient(cfg.MailerInternalURL, log)
	orderService := services.NewOrderService(orderRepo, listingRepo, balanceRepo, notificationRepo, auditRepo, mailer, publisher, cfg, log)
	balanceService := services.NewBalanceService(balanceRepo, payoutRepo, auditRepo, cfg, log)

	// Handlers
	orderHandler := handlers.NewOrderHandler(orderService, log)
	webhookHandler := handlers.NewWebhookHandler(orderService, cfg, log)
	balanceHandler := handlers.NewBalanceHandler(balanceService, log)
	notificationHandler := handlers.NewNotificationHandler(notificationRepo, log)
	userHandler := handlers.NewUserHandler(userRepo, log)
	adminHandler := handlers.NewAdminHandler(auditRepo, log)
	wsHub := handlers.NewWSHub(cfg, subscriber, log)

	// Start WS hub
	wsHub.Start(ctx)

	// Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	apphttp.SetupRouter(app, cfg, log, rdb, orderHandler, webhookHandler, balanceHandler, notificationHandler, userHandler, adminHandler, wsHub)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting API server", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
