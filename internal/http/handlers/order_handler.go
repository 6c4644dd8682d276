package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/peermarket/backend/internal/apperr"
	"github.com/peermarket/backend/internal/http/dto"
	"github.com/peermarket/backend/internal/middleware"
	"github.com/peermarket/backend/internal/models"
	"github.com/peermarket/backend/internal/repositories"
	"github.com/peermarket/backend/internal/services"
)

type OrderHandler struct {
	orderService *services.OrderService
	log          *zap.Logger
}

func NewOrderHandler(orderService *services.OrderService, log *zap.Logger) *OrderHandler {
	return &OrderHandler{orderService: orderService, log: log}
}

func respondErr(c *fiber.Ctx, err error) error {
	reqID, _ := c.Locals(middleware.CtxRequestID).(string)
	return c.Status(apperr.HTTPStatus(err)).JSON(dto.ErrorResponse{Error: err.Error(), RequestID: reqID})
}

func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	var req dto.CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}

	listingID, err := uuid.Parse(req.ListingID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid listing_id"})
	}
	if req.ShippingAddress.Recipient == "" || req.ShippingAddress.Line1 == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "shipping address is required"})
	}

	buyerID := middleware.GetUserID(c)
	order, err := h.orderService.CreateOrder(c.Context(), buyerID, services.CheckoutInput{
		ListingID:     listingID,
		PaymentMethod: req.PaymentMethod,
		OfferCents:    req.OfferCents,
		Address: models.ShippingAddress{
			Recipient:  req.ShippingAddress.Recipient,
			Line1:      req.ShippingAddress.Line1,
			Line2:      req.ShippingAddress.Line2,
			City:       req.ShippingAddress.City,
			PostalCode: req.ShippingAddress.PostalCode,
			Country:    req.ShippingAddress.Country,
		},
	})
	if err != nil {
		return respondErr(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: order})
}

func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid order id"})
	}

	order, err := h.orderService.GetOrder(c.Context(), id, middleware.GetUserID(c), middleware.IsAdmin(c))
	if err != nil {
		return respondErr(c, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: order})
}

func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	filter := repositories.OrderFilter{
		Limit:  20,
		Offset: 0,
	}

	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}
	if v := c.Query("status"); v != "" {
		filter.Status = &v
	}

	switch c.Query("role") {
	case "seller":
		filter.SellerID = &userID
	default:
		filter.BuyerID = &userID
	}

	orders, err := h.orderService.ListOrders(c.Context(), filter)
	if err != nil {
		h.log.Error("list orders failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: orders})
}

func (h *OrderHandler) GetAllowedActions(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid order id"})
	}

	status, allowed, err := h.orderService.AllowedActions(c.Context(), id, middleware.GetUserID(c), middleware.IsAdmin(c))
	if err != nil {
		return respondErr(c, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.AllowedActionsResponse{Status: status, Allowed: allowed}})
}

func (h *OrderHandler) ShipOrder(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid order id"})
	}

	var req dto.ShipOrderRequest
	_ = c.BodyParser(&req)

	err = h.orderService.Ship(c.Context(), id, middleware.GetUserID(c), middleware.IsAdmin(c), services.TrackingInfo{
		Number:  req.TrackingNumber,
		Carrier: req.Carrier,
	})
	if err != nil {
		return respondErr(c, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true})
}

func (h *OrderHandler) ConfirmDelivery(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid order id"})
	}

	if err := h.orderService.ConfirmDelivery(c.Context(), id, middleware.GetUserID(c), middleware.IsAdmin(c)); err != nil {
		return respondErr(c, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true})
}

func (h *OrderHandler) OpenDispute(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid order id"})
	}

	if err := h.orderService.OpenDispute(c.Context(), id, middleware.GetUserID(c), middleware.IsAdmin(c)); err != nil {
		return respondErr(c, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true})
}

func (h *OrderHandler) CancelOrder(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid order id"})
	}

	if err := h.orderService.Cancel(c.Context(), id, middleware.GetUserID(c), middleware.IsAdmin(c)); err != nil {
		return respondErr(c, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true})
}

func (h *OrderHandler) ResolveDispute(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid order id"})
	}

	var req dto.ResolveDisputeRequest
	if err := c.BodyParser(&req); err != nil || req.Outcome == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "outcome is required (refunded, delivered)"})
	}

	if err := h.orderService.ResolveDispute(c.Context(), id, middleware.GetUserID(c), req.Outcome); err != nil {
		return respondErr(c, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true})
}
