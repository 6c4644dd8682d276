package models

import (
	"time"

	"github.com/google/uuid"
)

// SellerBalance is the per-seller running ledger, created lazily on the
// first credit. Pending holds funds until delivery is confirmed; available
// is withdrawable; total_earned is lifetime gross payout and only grows.
type SellerBalance struct {
	SellerID         uuid.UUID `json:"seller_id"`
	PendingCents     int64     `json:"pending_cents"`
	AvailableCents   int64     `json:"available_cents"`
	TotalEarnedCents int64     `json:"total_earned_cents"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Payout request statuses
const (
	PayoutStatusPending    = "pending"
	PayoutStatusProcessing = "processing"
	PayoutStatusPaid       = "paid"
	PayoutStatusRejected   = "rejected"
)

type PayoutRequest struct {
	ID          uuid.UUID `json:"id"`
	SellerID    uuid.UUID `json:"seller_id"`
	AmountCents int64     `json:"amount_cents"`
	Destination string    `json:"destination"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
