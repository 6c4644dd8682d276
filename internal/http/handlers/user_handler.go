package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/peermarket/backend/internal/http/dto"
	"github.com/peermarket/backend/internal/middleware"
	"github.com/peermarket/backend/internal/repositories"
)

type UserHandler struct {
	users *repositories.UserRepo
	log   *zap.Logger
}

func NewUserHandler(users *repositories.UserRepo, log *zap.Logger) *UserHandler {
	return &UserHandler{users: users, log: log}
}

func (h *UserHandler) GetMe(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	user, err := h.users.GetByID(c.Context(), userID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "user not found"})
		}
		h.log.Error("get user failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	if err := h.users.TouchLastActive(c.Context(), userID); err != nil {
		h.log.Warn("failed to touch last active", zap.Error(err))
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: user})
}
