package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/peermarket/backend/internal/config"
	"github.com/peermarket/backend/internal/http/dto"
	"github.com/peermarket/backend/internal/payments"
	"github.com/peermarket/backend/internal/services"
)

// WebhookHandler terminates the two payment-provider callbacks. Both rails
// follow the same shape: authenticate the event (fail closed), normalize it,
// hand it to the settlement service whose conditional update makes
// redelivery safe. Responses are 200 even for duplicates so providers stop
// retrying.
type WebhookHandler struct {
	orderService *services.OrderService
	cfg          *config.Config
	log          *zap.Logger
}

func NewWebhookHandler(orderService *services.OrderService, cfg *config.Config, log *zap.Logger) *WebhookHandler {
	return &WebhookHandler{orderService: orderService, cfg: cfg, log: log}
}

func (h *WebhookHandler) StripeWebhook(c *fiber.Ctx) error {
	event, err := payments.ParseStripeEvent(c.Body(), c.Get("Stripe-Signature"), h.cfg.StripeWebhookSecret)
	if err != nil {
		h.log.Warn("rejected stripe webhook", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid webhook"})
	}
	return h.apply(c, event, "stripe")
}

func (h *WebhookHandler) CryptoWebhook(c *fiber.Ctx) error {
	event, err := payments.ParseCryptoEvent(c.Body(), c.Get("X-Signature"), h.cfg.CryptoIPNSecret)
	if err != nil {
		h.log.Warn("rejected crypto webhook", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid webhook"})
	}
	return h.apply(c, event, "crypto")
}

func (h *WebhookHandler) apply(c *fiber.Ctx, event *payments.ProviderEvent, rail string) error {
	if event.Kind == payments.EventIgnored {
		return c.JSON(dto.SuccessResponse{OK: true})
	}

	orderID, err := uuid.Parse(event.OrderID)
	if err != nil {
		h.log.Warn("webhook references malformed order id",
			zap.String("rail", rail), zap.String("order_id", event.OrderID))
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid order reference"})
	}

	if err := h.orderService.ApplyProviderEvent(c.Context(), orderID, event.Kind == payments.EventPaid); err != nil {
		h.log.Error("failed to apply provider event",
			zap.String("rail", rail), zap.String("order_id", orderID.String()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	return c.JSON(dto.SuccessResponse{OK: true})
}
