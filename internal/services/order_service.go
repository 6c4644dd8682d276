package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/peermarket/backend/internal/apperr"
	"github.com/peermarket/backend/internal/config"
	"github.com/peermarket/backend/internal/events"
	"github.com/peermarket/backend/internal/models"
	"github.com/peermarket/backend/internal/repositories"
)

// Stores are narrow views over the repositories so the settlement logic can
// be exercised against in-memory fakes.

type OrderStore interface {
	CreateWithShipping(ctx context.Context, o *models.Order, addr *models.ShippingAddress) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetDetail(ctx context.Context, id uuid.UUID) (*models.OrderDetail, error)
	UpdateStatusIf(ctx context.Context, id uuid.UUID, from, to string) (bool, error)
	SetTracking(ctx context.Context, id uuid.UUID, trackingNumber, carrier string) error
	List(ctx context.Context, f repositories.OrderFilter) ([]models.OrderDetail, error)
}

type ListingStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	MarkSold(ctx context.Context, id uuid.UUID) (bool, error)
	Reactivate(ctx context.Context, id uuid.UUID) error
}

type BalanceStore interface {
	Credit(ctx context.Context, sellerID uuid.UUID, amountCents int64) error
	Release(ctx context.Context, sellerID uuid.UUID, amountCents int64) (bool, error)
	ReversePending(ctx context.Context, sellerID uuid.UUID, amountCents int64) (bool, error)
}

type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
}

type AuditStore interface {
	Log(ctx context.Context, entry models.AuditLog) error
}

type Mailer interface {
	SendPaymentReceived(ctx context.Context, to, listingTitle string, payoutCents int64) error
	SendOrderShipped(ctx context.Context, to, listingTitle, trackingNumber, carrier string) error
	SendFundsReleased(ctx context.Context, to, listingTitle string, amountCents int64) error
}

type OrderService struct {
	orders        OrderStore
	listings      ListingStore
	balances      BalanceStore
	notifications NotificationStore
	audit         AuditStore
	mailer        Mailer
	publisher     events.Publisher
	cfg           *config.Config
	log           *zap.Logger
}

func NewOrderService(
	orders OrderStore,
	listings ListingStore,
	balances BalanceStore,
	notifications NotificationStore,
	audit AuditStore,
	mailer Mailer,
	publisher events.Publisher,
	cfg *config.Config,
	log *zap.Logger,
) *OrderService {
	return &OrderService{
		orders:        orders,
		listings:      listings,
		balances:      balances,
		notifications: notifications,
		audit:         audit,
		mailer:        mailer,
		publisher:     publisher,
		cfg:           cfg,
		log:           log,
	}
}

// ValidateListingForPurchase is the guard before any order is created.
func (s *OrderService) ValidateListingForPurchase(ctx context.Context, listingID, buyerID uuid.UUID) (*models.Listing, error) {
	listing, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, apperr.NotFound("listing not found")
		}
		return nil, err
	}
	if listing.Status != models.ListingStatusActive {
		return nil, apperr.BadRequest("listing is not available for purchase")
	}
	if listing.SellerID == buyerID {
		return nil, apperr.BadRequest("you cannot purchase your own listing")
	}
	return listing, nil
}

type CheckoutInput struct {
	ListingID     uuid.UUID
	PaymentMethod string
	Address       models.ShippingAddress
	// OfferCents overrides the listing price for orders created from an
	// accepted in-message offer. Zero means direct checkout at list price.
	OfferCents int64
}

// CreateOrder is the sole construction path for orders. Direct checkout and
// accepted offers both run the shared fee split so the payout math never
// diverges between the two.
func (s *OrderService) CreateOrder(ctx context.Context, buyerID uuid.UUID, in CheckoutInput) (*models.Order, error) {
	if in.PaymentMethod != models.PaymentMethodStripe && in.PaymentMethod != models.PaymentMethodCrypto {
		return nil, apperr.BadRequest("unsupported payment method %q", in.PaymentMethod)
	}

	listing, err := s.ValidateListingForPurchase(ctx, in.ListingID, buyerID)
	if err != nil {
		return nil, err
	}

	total := listing.PriceCents
	if in.OfferCents > 0 {
		total = in.OfferCents
	}
	if total <= 0 {
		return nil, apperr.BadRequest("order total must be positive")
	}
	feeCents, payoutCents := models.SplitFee(total, s.cfg.PlatformFeeBPS)

	// Take the listing before writing the order so two racing checkouts
	// cannot both buy it. The loser of the race sees zero rows changed.
	taken, err := s.listings.MarkSold(ctx, in.ListingID)
	if err != nil {
		return nil, err
	}
	if !taken {
		return nil, apperr.BadRequest("listing is not available for purchase")
	}

	order := &models.Order{
		ListingID:         listing.ID,
		BuyerID:           buyerID,
		SellerID:          listing.SellerID,
		Status:            models.OrderStatusPending,
		TotalCents:        total,
		PlatformFeeBPS:    s.cfg.PlatformFeeBPS,
		PlatformFeeCents:  feeCents,
		SellerPayoutCents: payoutCents,
		PaymentMethod:     in.PaymentMethod,
	}
	addr := in.Address
	addr.UserID = buyerID

	if err := s.orders.CreateWithShipping(ctx, order, &addr); err != nil {
		_ = s.listings.Reactivate(ctx, in.ListingID)
		return nil, err
	}

	_ = s.audit.Log(ctx, models.AuditLog{
		ActorUserID: &buyerID,
		ActorType:   "user",
		Action:      "order_created",
		EntityType:  "order",
		EntityID:    &order.ID,
		Meta: map[string]any{
			"listing_id":     listing.ID.String(),
			"total_cents":    total,
			"payment_method": in.PaymentMethod,
		},
	})

	return order, nil
}

// transition performs the legality check for the actor's role, then the
// conditional status write. A false from the conditional write means the
// order moved underneath us and the caller must not run side effects.
func (s *OrderService) transition(ctx context.Context, order *models.Order, to string, role models.Role, actorID *uuid.UUID) error {
	if err := models.AssertTransition(order.Status, to, role); err != nil {
		return err
	}

	changed, err := s.orders.UpdateStatusIf(ctx, order.ID, order.Status, to)
	if err != nil {
		return err
	}
	if !changed {
		return apperr.BadRequest("order is no longer %s, refresh and retry", order.Status)
	}

	oldStatus := order.Status
	order.Status = to

	_ = s.audit.Log(ctx, models.AuditLog{
		ActorUserID: actorID,
		ActorType:   actorTypeFor(role),
		Action:      fmt.Sprintf("order_status_%s_to_%s", oldStatus, to),
		EntityType:  "order",
		EntityID:    &order.ID,
		Meta:        map[string]any{"old_status": oldStatus, "new_status": to},
	})

	_ = s.publisher.Publish(ctx, events.StreamOrders, events.Event{
		Type: events.EventOrderStatusChanged,
		Payload: map[string]any{
			"order_id":   order.ID.String(),
			"buyer_id":   order.BuyerID.String(),
			"seller_id":  order.SellerID.String(),
			"old_status": oldStatus,
			"new_status": to,
		},
	})

	return nil
}

func actorTypeFor(role models.Role) string {
	switch role {
	case models.RoleSystem:
		return "system"
	case models.RoleAdmin:
		return "admin"
	default:
		return "user"
	}
}

// effectiveRole picks the role to assert with: the participant role when the
// table allows it, the admin role when the caller is an admin and the table
// allows that. Falls back to the participant role so AssertTransition
// produces the right error kind.
func effectiveRole(order *models.Order, actor models.Actor, to string) models.Role {
	if models.CanTransition(order.Status, to, actor.Role) {
		return actor.Role
	}
	if actor.Admin && models.CanTransition(order.Status, to, models.RoleAdmin) {
		return models.RoleAdmin
	}
	return actor.Role
}

func (s *OrderService) loadForActor(ctx context.Context, orderID, actorID uuid.UUID, admin bool) (*models.Order, models.Actor, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, models.Actor{}, apperr.NotFound("order not found")
		}
		return nil, models.Actor{}, err
	}
	actor := models.ResolveActor(actorID, order, admin)
	return order, actor, nil
}

type TrackingInfo struct {
	Number  string
	Carrier string
}

// Ship moves a paid order to shipped. Seller only.
func (s *OrderService) Ship(ctx context.Context, orderID, actorID uuid.UUID, admin bool, tracking TrackingInfo) error {
	order, actor, err := s.loadForActor(ctx, orderID, actorID, admin)
	if err != nil {
		return err
	}

	role := effectiveRole(order, actor, models.OrderStatusShipped)
	if err := s.transition(ctx, order, models.OrderStatusShipped, role, &actorID); err != nil {
		return err
	}

	if tracking.Number != "" {
		if err := s.orders.SetTracking(ctx, orderID, tracking.Number, tracking.Carrier); err != nil {
			s.log.Error("failed to store tracking info", zap.String("order_id", orderID.String()), zap.Error(err))
		}
	}

	return s.HandleOrderShipped(ctx, orderID, &tracking)
}

// ConfirmDelivery moves a shipped order to delivered and releases the
// seller's funds. Buyer only.
func (s *OrderService) ConfirmDelivery(ctx context.Context, orderID, actorID uuid.UUID, admin bool) error {
	order, actor, err := s.loadForActor(ctx, orderID, actorID, admin)
	if err != nil {
		return err
	}

	role := effectiveRole(order, actor, models.OrderStatusDelivered)
	if err := s.transition(ctx, order, models.OrderStatusDelivered, role, &actorID); err != nil {
		return err
	}

	return s.HandleDeliveryConfirmed(ctx, orderID)
}

// OpenDispute moves a paid or shipped order to disputed. Buyer only.
func (s *OrderService) OpenDispute(ctx context.Context, orderID, actorID uuid.UUID, admin bool) error {
	order, actor, err := s.loadForActor(ctx, orderID, actorID, admin)
	if err != nil {
		return err
	}

	role := effectiveRole(order, actor, models.OrderStatusDisputed)
	if err := s.transition(ctx, order, models.OrderStatusDisputed, role, &actorID); err != nil {
		return err
	}

	s.notify(ctx, order.SellerID, models.NotificationDisputeOpened,
		"Dispute opened", "The buyer opened a dispute on one of your orders.", order.ID)
	return nil
}

// Cancel cancels an order. Buyers and sellers may cancel before payment;
// admins may cancel a paid order, which returns the held funds.
func (s *OrderService) Cancel(ctx context.Context, orderID, actorID uuid.UUID, admin bool) error {
	order, actor, err := s.loadForActor(ctx, orderID, actorID, admin)
	if err != nil {
		return err
	}

	wasPaid := order.Status == models.OrderStatusPaid

	role := effectiveRole(order, actor, models.OrderStatusCancelled)
	if err := s.transition(ctx, order, models.OrderStatusCancelled, role, &actorID); err != nil {
		return err
	}

	if wasPaid {
		// The payment webhook credited the seller's pending balance; an
		// admin cancellation takes that credit back.
		reversed, err := s.balances.ReversePending(ctx, order.SellerID, order.CreditAmount())
		if err != nil {
			s.log.Error("failed to reverse pending credit", zap.String("order_id", orderID.String()), zap.Error(err))
		} else if !reversed {
			s.log.Warn("pending credit already consumed, not reversed", zap.String("order_id", orderID.String()))
		}
	} else {
		_ = s.listings.Reactivate(ctx, order.ListingID)
	}

	s.notify(ctx, order.BuyerID, models.NotificationOrderCancelled,
		"Order cancelled", "Your order was cancelled.", order.ID)
	s.notify(ctx, order.SellerID, models.NotificationOrderCancelled,
		"Order cancelled", "An order for your listing was cancelled.", order.ID)
	return nil
}

// ResolveDispute closes a disputed order as refunded (buyer wins) or
// delivered (seller wins, funds released). Admin only.
func (s *OrderService) ResolveDispute(ctx context.Context, orderID, adminID uuid.UUID, outcome string) error {
	if outcome != models.OrderStatusRefunded && outcome != models.OrderStatusDelivered {
		return apperr.BadRequest("dispute outcome must be %s or %s", models.OrderStatusRefunded, models.OrderStatusDelivered)
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return apperr.NotFound("order not found")
		}
		return err
	}

	if err := s.transition(ctx, order, outcome, models.RoleAdmin, &adminID); err != nil {
		return err
	}

	if outcome == models.OrderStatusDelivered {
		return s.HandleDeliveryConfirmed(ctx, orderID)
	}

	reversed, err := s.balances.ReversePending(ctx, order.SellerID, order.CreditAmount())
	if err != nil {
		s.log.Error("failed to reverse pending credit", zap.String("order_id", orderID.String()), zap.Error(err))
	} else if !reversed {
		s.log.Warn("pending credit already consumed, not reversed", zap.String("order_id", orderID.String()))
	}

	s.notify(ctx, order.BuyerID, models.NotificationDisputeResolved,
		"Dispute resolved", "Your dispute was resolved in your favor. A refund is on its way.", order.ID)
	s.notify(ctx, order.SellerID, models.NotificationDisputeResolved,
		"Dispute resolved", "A dispute on your order was resolved in the buyer's favor.", order.ID)
	return nil
}

// CancelExpired cancels a pending order whose payment deadline passed.
// Worker only; acts as the system role.
func (s *OrderService) CancelExpired(ctx context.Context, order *models.Order) error {
	if err := s.transition(ctx, order, models.OrderStatusCancelled, models.RoleSystem, nil); err != nil {
		return err
	}
	_ = s.listings.Reactivate(ctx, order.ListingID)
	s.notify(ctx, order.BuyerID, models.NotificationOrderCancelled,
		"Order expired", "Your order was cancelled because payment was not received in time.", order.ID)
	return nil
}

// RemindDeliveryConfirmation nudges the buyer of a shipped order to confirm
// receipt. The transition table gives the system role no path to delivered,
// so the worker can only remind; the confirmation stays with the buyer.
func (s *OrderService) RemindDeliveryConfirmation(ctx context.Context, order *models.Order) {
	s.notify(ctx, order.BuyerID, models.NotificationDeliveryReminder,
		"Confirm delivery", "Your order was shipped a while ago. Confirm delivery once it arrives so the seller gets paid.", order.ID)
}

// ApplyProviderEvent is the webhook entry point. The conditional status
// update is the idempotency guard: providers redeliver events, and only the
// delivery that actually flips the row runs settlement effects. Everything
// here is a logged no-op when the order is missing or already past pending.
func (s *OrderService) ApplyProviderEvent(ctx context.Context, orderID uuid.UUID, paid bool) error {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if repositories.IsNotFound(err) {
			s.log.Warn("provider event for unknown order", zap.String("order_id", orderID.String()))
			return nil
		}
		return err
	}

	target := models.OrderStatusCancelled
	if paid {
		target = models.OrderStatusPaid
	}
	if !models.CanTransition(order.Status, target, models.RoleSystem) {
		s.log.Info("provider event ignored, order already settled",
			zap.String("order_id", orderID.String()),
			zap.String("status", order.Status),
			zap.String("target", target))
		return nil
	}

	changed, err := s.orders.UpdateStatusIf(ctx, orderID, models.OrderStatusPending, target)
	if err != nil {
		return err
	}
	if !changed {
		// Lost the race against a concurrent delivery of the same event.
		s.log.Info("provider event already applied", zap.String("order_id", orderID.String()))
		return nil
	}

	_ = s.audit.Log(ctx, models.AuditLog{
		ActorType:  "system",
		Action:     fmt.Sprintf("order_status_%s_to_%s", models.OrderStatusPending, target),
		EntityType: "order",
		EntityID:   &orderID,
		Meta:       map[string]any{"old_status": models.OrderStatusPending, "new_status": target, "source": "webhook"},
	})
	_ = s.publisher.Publish(ctx, events.StreamOrders, events.Event{
		Type: events.EventOrderStatusChanged,
		Payload: map[string]any{
			"order_id":   orderID.String(),
			"buyer_id":   order.BuyerID.String(),
			"seller_id":  order.SellerID.String(),
			"old_status": models.OrderStatusPending,
			"new_status": target,
		},
	})

	if paid {
		return s.HandlePaymentConfirmed(ctx, orderID)
	}

	_ = s.listings.Reactivate(ctx, order.ListingID)
	s.notify(ctx, order.BuyerID, models.NotificationOrderCancelled,
		"Payment not completed", "Your order was cancelled because the payment failed or expired.", order.ID)
	return nil
}

// --- settlement handlers ---
//
// All three degrade to a logged no-op when the order cannot be loaded:
// they run after webhook deliveries and transitions where the row may have
// been processed already. The balance write is the durable part; email,
// notification and pubsub dispatch are fire-and-forget.

// HandlePaymentConfirmed credits the seller's pending balance and tells
// both parties. Invoked only after the caller's conditional update reported
// a row change, so a redelivered webhook cannot double-credit.
func (s *OrderService) HandlePaymentConfirmed(ctx context.Context, orderID uuid.UUID) error {
	d, err := s.orders.GetDetail(ctx, orderID)
	if err != nil {
		if repositories.IsNotFound(err) {
			s.log.Warn("payment confirmed for unknown order", zap.String("order_id", orderID.String()))
			return nil
		}
		return err
	}

	amount := d.CreditAmount()
	if err := s.balances.Credit(ctx, d.SellerID, amount); err != nil {
		return fmt.Errorf("credit seller balance: %w", err)
	}

	if d.SellerEmail != nil {
		_ = s.mailer.SendPaymentReceived(ctx, *d.SellerEmail, d.ListingTitle, amount)
	}
	s.notify(ctx, d.SellerID, models.NotificationPaymentReceived,
		"Payment received", fmt.Sprintf("Payment received for %q. Ship it to release your funds.", d.ListingTitle), d.ID)
	s.notify(ctx, d.BuyerID, models.NotificationPaymentReceived,
		"Payment confirmed", fmt.Sprintf("Your payment for %q was confirmed.", d.ListingTitle), d.ID)
	return nil
}

// HandleOrderShipped notifies the buyer. Balances are untouched.
func (s *OrderService) HandleOrderShipped(ctx context.Context, orderID uuid.UUID, tracking *TrackingInfo) error {
	d, err := s.orders.GetDetail(ctx, orderID)
	if err != nil {
		if repositories.IsNotFound(err) {
			s.log.Warn("shipment recorded for unknown order", zap.String("order_id", orderID.String()))
			return nil
		}
		return err
	}

	var number, carrier string
	if tracking != nil {
		number, carrier = tracking.Number, tracking.Carrier
	}
	if d.BuyerEmail != nil {
		_ = s.mailer.SendOrderShipped(ctx, *d.BuyerEmail, d.ListingTitle, number, carrier)
	}

	body := fmt.Sprintf("%q has been shipped.", d.ListingTitle)
	if number != "" {
		body = fmt.Sprintf("%q has been shipped. Tracking: %s (%s).", d.ListingTitle, number, carrier)
	}
	s.notify(ctx, d.BuyerID, models.NotificationOrderShipped, "Order shipped", body, d.ID)
	return nil
}

// HandleDeliveryConfirmed releases the seller's pending funds to available.
func (s *OrderService) HandleDeliveryConfirmed(ctx context.Context, orderID uuid.UUID) error {
	d, err := s.orders.GetDetail(ctx, orderID)
	if err != nil {
		if repositories.IsNotFound(err) {
			s.log.Warn("delivery confirmed for unknown order", zap.String("order_id", orderID.String()))
			return nil
		}
		return err
	}

	amount := d.CreditAmount()
	released, err := s.balances.Release(ctx, d.SellerID, amount)
	if err != nil {
		return fmt.Errorf("release seller funds: %w", err)
	}
	if !released {
		s.log.Warn("pending funds insufficient for release",
			zap.String("order_id", orderID.String()),
			zap.Int64("amount_cents", amount))
		return nil
	}

	if d.SellerEmail != nil {
		_ = s.mailer.SendFundsReleased(ctx, *d.SellerEmail, d.ListingTitle, amount)
	}
	s.notify(ctx, d.SellerID, models.NotificationFundsReleased,
		"Funds released", fmt.Sprintf("Funds for %q are now available for payout.", d.ListingTitle), d.ID)
	return nil
}

// notify writes an in-app notification and pushes it over pubsub. Both are
// advisory; failures are logged by the collaborators and never surfaced.
func (s *OrderService) notify(ctx context.Context, userID uuid.UUID, typ, title, body string, orderID uuid.UUID) {
	n := &models.Notification{
		UserID:  userID,
		Type:    typ,
		Title:   title,
		Body:    body,
		OrderID: &orderID,
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		s.log.Warn("failed to create notification", zap.String("type", typ), zap.Error(err))
	}
	_ = s.publisher.Publish(ctx, events.StreamOrders, events.Event{
		Type: events.EventNotification,
		Payload: map[string]any{
			"user_id":  userID.String(),
			"type":     typ,
			"title":    title,
			"body":     body,
			"order_id": orderID.String(),
		},
	})
}

// --- queries ---

// GetOrder returns the order detail; only participants and admins may view.
func (s *OrderService) GetOrder(ctx context.Context, orderID, actorID uuid.UUID, admin bool) (*models.OrderDetail, error) {
	d, err := s.orders.GetDetail(ctx, orderID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, apperr.NotFound("order not found")
		}
		return nil, err
	}
	actor := models.ResolveActor(actorID, &d.Order, admin)
	if actor.Role == models.RoleNone && !actor.Admin {
		return nil, apperr.Forbidden("you are not a participant in this order")
	}
	return d, nil
}

func (s *OrderService) ListOrders(ctx context.Context, f repositories.OrderFilter) ([]models.OrderDetail, error) {
	return s.orders.List(ctx, f)
}

// AllowedActions lists the next statuses the actor may request, for the UI.
// The current status comes back alongside so clients can render both from
// one call.
func (s *OrderService) AllowedActions(ctx context.Context, orderID, actorID uuid.UUID, admin bool) (string, []string, error) {
	order, actor, err := s.loadForActor(ctx, orderID, actorID, admin)
	if err != nil {
		return "", nil, err
	}
	role := actor.Role
	if actor.Admin {
		role = models.RoleAdmin
	}
	return order.Status, models.AllowedTransitions(order.Status, role), nil
}
