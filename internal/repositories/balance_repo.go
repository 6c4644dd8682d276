package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/peermarket/backend/internal/models"
)

type BalanceRepo struct {
	pool *pgxpool.Pool
}

func NewBalanceRepo(pool *pgxpool.Pool) *BalanceRepo {
	return &BalanceRepo{pool: pool}
}

// Credit adds to pending and total_earned, creating the ledger row lazily
// on first credit. The increment happens in SQL so concurrent credits for
// the same seller compose without lost updates.
func (r *BalanceRepo) Credit(ctx context.Context, sellerID uuid.UUID, amountCents int64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO seller_balances (seller_id, pending_cents, available_cents, total_earned_cents)
		VALUES ($1, $2, 0, $2)
		ON CONFLICT (seller_id) DO UPDATE SET
			pending_cents = seller_balances.pending_cents + EXCLUDED.pending_cents,
			total_earned_cents = seller_balances.total_earned_cents + EXCLUDED.total_earned_cents,
			updated_at = now()
	`, sellerID, amountCents)
	return err
}

// Release moves amountCents from pending to available. Conditional on
// sufficient pending funds so a stray double release cannot drive pending
// negative.
func (r *BalanceRepo) Release(ctx context.Context, sellerID uuid.UUID, amountCents int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE seller_balances SET
			pending_cents = pending_cents - $2,
			available_cents = available_cents + $2,
			updated_at = now()
		WHERE seller_id = $1 AND pending_cents >= $2
	`, sellerID, amountCents)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ReversePending removes a previously credited amount from pending without
// touching available, for admin refunds of paid orders. total_earned is
// left as-is: it is a lifetime gross counter and never decreases.
func (r *BalanceRepo) ReversePending(ctx context.Context, sellerID uuid.UUID, amountCents int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE seller_balances SET
			pending_cents = pending_cents - $2,
			updated_at = now()
		WHERE seller_id = $1 AND pending_cents >= $2
	`, sellerID, amountCents)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Get returns the seller's ledger row, or a zero-valued balance when the
// seller has never been credited.
func (r *BalanceRepo) Get(ctx context.Context, sellerID uuid.UUID) (*models.SellerBalance, error) {
	var b models.SellerBalance
	err := r.pool.QueryRow(ctx, `
		SELECT seller_id, pending_cents, available_cents, total_earned_cents, updated_at
		FROM seller_balances WHERE seller_id = $1
	`, sellerID).Scan(&b.SellerID, &b.PendingCents, &b.AvailableCents, &b.TotalEarnedCents, &b.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return &models.SellerBalance{SellerID: sellerID}, nil
		}
		return nil, err
	}
	return &b, nil
}
