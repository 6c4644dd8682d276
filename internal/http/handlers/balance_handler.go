package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/peermarket/backend/internal/http/dto"
	"github.com/peermarket/backend/internal/middleware"
	"github.com/peermarket/backend/internal/services"
)

type BalanceHandler struct {
	balanceService *services.BalanceService
	log            *zap.Logger
}

func NewBalanceHandler(balanceService *services.BalanceService, log *zap.Logger) *BalanceHandler {
	return &BalanceHandler{balanceService: balanceService, log: log}
}

func (h *BalanceHandler) GetBalance(c *fiber.Ctx) error {
	balance, err := h.balanceService.GetBalance(c.Context(), middleware.GetUserID(c))
	if err != nil {
		h.log.Error("get balance failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: balance})
}

func (h *BalanceHandler) RequestPayout(c *fiber.Ctx) error {
	var req dto.RequestPayoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}

	payout, err := h.balanceService.RequestPayout(c.Context(), middleware.GetUserID(c), req.AmountCents, req.Destination)
	if err != nil {
		return respondErr(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: payout})
}

func (h *BalanceHandler) ListPayouts(c *fiber.Ctx) error {
	limit, offset := 20, 0
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			offset = n
		}
	}

	payouts, err := h.balanceService.ListPayouts(c.Context(), middleware.GetUserID(c), limit, offset)
	if err != nil {
		h.log.Error("list payouts failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: payouts})
}

// UpdatePayoutStatus is the admin back-office endpoint for settling or
// rejecting payout requests.
func (h *BalanceHandler) UpdatePayoutStatus(c *fiber.Ctx) error {
	payoutID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid payout id"})
	}

	var req dto.UpdatePayoutStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}

	if err := h.balanceService.UpdatePayoutStatus(c.Context(), middleware.GetUserID(c), payoutID, req.Status); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}
