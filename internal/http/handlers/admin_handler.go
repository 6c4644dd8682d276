package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/peermarket/backend/internal/http/dto"
	"github.com/peermarket/backend/internal/repositories"
)

type AdminHandler struct {
	audit *repositories.AuditRepo
	log   *zap.Logger
}

func NewAdminHandler(audit *repositories.AuditRepo, log *zap.Logger) *AdminHandler {
	return &AdminHandler{audit: audit, log: log}
}

// GetOrderAudit returns the audit trail for an order, newest first. Used
// when reviewing disputes.
func (h *AdminHandler) GetOrderAudit(c *fiber.Ctx) error {
	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid order id"})
	}

	limit, offset := 50, 0
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

	entries, err := h.audit.GetByEntity(c.Context(), "order", orderID, limit, offset)
	if err != nil {
		h.log.Error("get order audit failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: entries})
}
