package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/peermarket/backend/internal/models"
)

// ErrInsufficientBalance is returned when a payout request exceeds the
// seller's available funds.
var ErrInsufficientBalance = errors.New("insufficient available balance")

type PayoutRepo struct {
	pool *pgxpool.Pool
}

func NewPayoutRepo(pool *pgxpool.Pool) *PayoutRepo {
	return &PayoutRepo{pool: pool}
}

// CreateRequest decrements the seller's available balance and inserts the
// payout request in one transaction. The decrement is conditional on
// sufficient funds; a zero-row update means the balance cannot cover the
// amount and the whole transaction rolls back.
func (r *PayoutRepo) CreateRequest(ctx context.Context, p *models.PayoutRequest) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE seller_balances SET
			available_cents = available_cents - $2,
			updated_at = now()
		WHERE seller_id = $1 AND available_cents >= $2
	`, p.SellerID, p.AmountCents)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInsufficientBalance
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO payout_requests (seller_id, amount_cents, destination, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, p.SellerID, p.AmountCents, p.Destination, p.Status).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *PayoutRepo) ListBySeller(ctx context.Context, sellerID uuid.UUID, limit, offset int) ([]models.PayoutRequest, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, seller_id, amount_cents, destination, status, created_at, updated_at
		FROM payout_requests WHERE seller_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, sellerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payouts []models.PayoutRequest
	for rows.Next() {
		var p models.PayoutRequest
		if err := rows.Scan(&p.ID, &p.SellerID, &p.AmountCents, &p.Destination, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		payouts = append(payouts, p)
	}
	return payouts, rows.Err()
}

// UpdateStatus advances a payout request to processing or paid. Admin
// tooling only; rejections go through Reject so the reservation is returned.
func (r *PayoutRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE payout_requests SET status = $1, updated_at = now() WHERE id = $2
	`, status, id)
	return err
}

// Reject marks an open payout request rejected and returns the reserved
// amount to the seller's available balance in the same transaction. Already
// settled requests are left untouched and reported as false.
func (r *PayoutRepo) Reject(ctx context.Context, id uuid.UUID) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	var sellerID uuid.UUID
	var amountCents int64
	err = tx.QueryRow(ctx, `
		UPDATE payout_requests SET status = 'rejected', updated_at = now()
		WHERE id = $1 AND status IN ('pending', 'processing')
		RETURNING seller_id, amount_cents
	`, id).Scan(&sellerID, &amountCents)
	if err != nil {
		if isNoRows(err) {
			return false, nil
		}
		return false, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE seller_balances SET
			available_cents = available_cents + $2,
			updated_at = now()
		WHERE seller_id = $1
	`, sellerID, amountCents)
	if err != nil {
		return false, err
	}

	return true, tx.Commit(ctx)
}
