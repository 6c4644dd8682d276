package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/peermarket/backend/internal/config"
	"github.com/peermarket/backend/internal/db"
	"github.com/peermarket/backend/internal/events"
	"github.com/peermarket/backend/internal/repositories"
	"github.com/peermarket/backend/internal/services"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Repos
	orderRepo := repositories.NewOrderRepo(pool)
	listingRepo := repositories.NewListingRepo(pool)
	balanceRepo := repositories.NewBalanceRepo(pool)
	notificationRepo := repositories.NewNotificationRepo(pool)
	auditRepo := repositories.NewAuditRepo(pool)

	// Services
	publisher := events.NewRedisPublisher(rdb, log)
	mailer := services.NewMailerClient(cfg.MailerInternalURL, log)
	orderService := services.NewOrderService(orderRepo, listingRepo, balanceRepo, notificationRepo, auditRepo, mailer, publisher, cfg, log)

	log.Info("worker started")

	expiryTicker := time.NewTicker(1 * time.Minute)
	reminderTicker := time.NewTicker(24 * time.Hour)
	defer expiryTicker.Stop()
	defer reminderTicker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-expiryTicker.C:
			runPaymentTimeouts(ctx, orderRepo, orderService, cfg, log)
		case <-reminderTicker.C:
			runDeliveryReminders(ctx, orderRepo, orderService, cfg, log)
		case <-sigCh:
			log.Info("shutting down worker")
			cancel()
			return
		case <-ctx.Done():
			return
		}
	}
}

// runPaymentTimeouts cancels orders whose payment window expired. The cancel
// goes through the same conditional update as every other transition, so a
// webhook landing mid-sweep wins or loses cleanly.
func runPaymentTimeouts(ctx context.Context, orderRepo *repositories.OrderRepo, orderService *services.OrderService, cfg *config.Config, log *zap.Logger) {
	orders, err := orderRepo.ListExpiredPending(ctx, cfg.PaymentTimeoutSeconds, 100)
	if err != nil {
		log.Error("failed to list expired pending orders", zap.Error(err))
		return
	}

	for _, order := range orders {
		log.Info("cancelling expired order",
			zap.String("order_id", order.ID.String()),
			zap.Time("created_at", order.CreatedAt),
		)
		o := order
		if err := orderService.CancelExpired(ctx, &o); err != nil {
			log.Error("failed to cancel expired order", zap.String("order_id", order.ID.String()), zap.Error(err))
		}
	}
}

// runDeliveryReminders nudges buyers of long-shipped orders to confirm
// receipt. One nudge per daily sweep; confirming is buyer-only so the
// worker never moves these orders itself.
func runDeliveryReminders(ctx context.Context, orderRepo *repositories.OrderRepo, orderService *services.OrderService, cfg *config.Config, log *zap.Logger) {
	orders, err := orderRepo.ListStaleShipped(ctx, cfg.DeliveryReminderSeconds, 500)
	if err != nil {
		log.Error("failed to list stale shipped orders", zap.Error(err))
		return
	}

	for _, order := range orders {
		o := order
		orderService.RemindDeliveryConfirmation(ctx, &o)
	}
	if len(orders) > 0 {
		log.Info("delivery reminders sent", zap.Int("count", len(orders)))
	}
}
