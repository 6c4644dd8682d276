package models

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/peermarket/backend/internal/apperr"
)

// Order statuses
const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusDisputed  = "disputed"
	OrderStatusRefunded  = "refunded"
	OrderStatusCancelled = "cancelled"
)

// Payment methods
const (
	PaymentMethodStripe = "stripe"
	PaymentMethodCrypto = "crypto"
)

// Role is the relationship of the actor performing a transition to the
// order. RoleSystem is reserved for verified payment-provider callbacks and
// the worker; it is never resolved from a user request.
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
	RoleSystem Role = "system"
	RoleNone   Role = ""
)

// OrderTransitions is the single source of truth for which status
// transitions exist and which roles may perform them. Any new transition is
// one entry here, not an if-statement somewhere else.
var OrderTransitions = map[string]map[string][]Role{
	OrderStatusPending: {
		OrderStatusPaid:      {RoleSystem},
		OrderStatusCancelled: {RoleBuyer, RoleSeller, RoleSystem},
	},
	OrderStatusPaid: {
		OrderStatusShipped:   {RoleSeller},
		OrderStatusDisputed:  {RoleBuyer},
		OrderStatusCancelled: {RoleAdmin},
	},
	OrderStatusShipped: {
		OrderStatusDelivered: {RoleBuyer},
		OrderStatusDisputed:  {RoleBuyer},
	},
	OrderStatusDisputed: {
		OrderStatusRefunded:  {RoleAdmin},
		OrderStatusDelivered: {RoleAdmin},
	},
	OrderStatusDelivered: {},
	OrderStatusRefunded:  {},
	OrderStatusCancelled: {},
}

// CanTransition reports whether role may move an order from one status to
// another. Unknown statuses are never legal.
func CanTransition(from, to string, role Role) bool {
	targets, ok := OrderTransitions[from]
	if !ok {
		return false
	}
	roles, ok := targets[to]
	if !ok {
		return false
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// AssertTransition is CanTransition with a reason. An undefined transition
// (no role could perform it) is a bad request; a defined transition gated on
// a different role is forbidden. The distinction drives the user-facing
// message: "cannot ship again" vs "only the seller can ship".
func AssertTransition(from, to string, role Role) error {
	targets, ok := OrderTransitions[from]
	if !ok {
		return apperr.BadRequest("unknown order status %q", from)
	}
	roles, ok := targets[to]
	if !ok {
		return apperr.BadRequest("order cannot move from %s to %s", from, to)
	}
	for _, r := range roles {
		if r == role {
			return nil
		}
	}
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return apperr.Forbidden("only %s can move an order from %s to %s", strings.Join(names, " or "), from, to)
}

// AllowedTransitions lists the statuses reachable from the given one. When
// role is RoleNone the filter is off and every reachable status is returned.
// UI action menus are driven from this, never from a local status switch.
func AllowedTransitions(from string, role Role) []string {
	targets, ok := OrderTransitions[from]
	if !ok {
		return nil
	}
	var out []string
	for to, roles := range targets {
		if role == RoleNone {
			out = append(out, to)
			continue
		}
		for _, r := range roles {
			if r == role {
				out = append(out, to)
				break
			}
		}
	}
	sort.Strings(out)
	return out
}

// Actor is the caller's relationship to an order, resolved once per request.
// Role is RoleNone when the caller is not a participant; Admin comes from
// the auth layer, not from the order row.
type Actor struct {
	UserID uuid.UUID
	Role   Role
	Admin  bool
}

// ResolveActor determines how userID relates to the order.
func ResolveActor(userID uuid.UUID, o *Order, admin bool) Actor {
	a := Actor{UserID: userID, Admin: admin}
	switch userID {
	case o.BuyerID:
		a.Role = RoleBuyer
	case o.SellerID:
		a.Role = RoleSeller
	}
	return a
}

// SplitFee divides totalCents into the platform fee and the seller payout.
// The fee is rounded half-up on the integer minor-unit amount and the two
// parts always sum exactly to totalCents.
func SplitFee(totalCents int64, feeBPS int) (feeCents, payoutCents int64) {
	feeCents = (totalCents*int64(feeBPS) + 5000) / 10000
	payoutCents = totalCents - feeCents
	return feeCents, payoutCents
}

type Order struct {
	ID                uuid.UUID  `json:"id"`
	ListingID         uuid.UUID  `json:"listing_id"`
	BuyerID           uuid.UUID  `json:"buyer_id"`
	SellerID          uuid.UUID  `json:"seller_id"`
	Status            string     `json:"status"`
	TotalCents        int64      `json:"total_cents"`
	PlatformFeeBPS    int        `json:"platform_fee_bps"`
	PlatformFeeCents  int64      `json:"platform_fee_cents"`
	SellerPayoutCents int64      `json:"seller_payout_cents"`
	PaymentMethod     string     `json:"payment_method"`
	ShippingAddressID *uuid.UUID `json:"shipping_address_id,omitempty"`
	TrackingNumber    *string    `json:"tracking_number,omitempty"`
	ShippingCarrier   *string    `json:"shipping_carrier,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// CreditAmount is the amount credited to the seller's balance when payment
// is confirmed. Orders written before the fee split was recorded have a zero
// payout and fall back to the gross total.
func (o *Order) CreditAmount() int64 {
	if o.SellerPayoutCents > 0 {
		return o.SellerPayoutCents
	}
	return o.TotalCents
}

// OrderDetail embeds Order and adds listing and participant context needed
// by settlement side effects, avoiding N+1 lookups.
type OrderDetail struct {
	Order
	ListingTitle string  `json:"listing_title"`
	BuyerEmail   *string `json:"buyer_email,omitempty"`
	SellerEmail  *string `json:"seller_email,omitempty"`
}

type ShippingAddress struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	Recipient  string    `json:"recipient"`
	Line1      string    `json:"line1"`
	Line2      *string   `json:"line2,omitempty"`
	City       string    `json:"city"`
	PostalCode string    `json:"postal_code"`
	Country    string    `json:"country"`
	CreatedAt  time.Time `json:"created_at"`
}
