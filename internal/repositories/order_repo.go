package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/peermarket/backend/internal/models"
)

type OrderRepo struct {
	pool *pgxpool.Pool
}

func NewOrderRepo(pool *pgxpool.Pool) *OrderRepo {
	return &OrderRepo{pool: pool}
}

// CreateWithShipping inserts the shipping address and the order row in one
// transaction. The order starts in pending before any payment capture.
func (r *OrderRepo) CreateWithShipping(ctx context.Context, o *models.Order, addr *models.ShippingAddress) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO shipping_addresses (user_id, recipient, line1, line2, city, postal_code, country)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, addr.UserID, addr.Recipient, addr.Line1, addr.Line2, addr.City, addr.PostalCode, addr.Country,
	).Scan(&addr.ID, &addr.CreatedAt)
	if err != nil {
		return err
	}

	o.ShippingAddressID = &addr.ID
	err = tx.QueryRow(ctx, `
		INSERT INTO orders (listing_id, buyer_id, seller_id, status, total_cents,
		                    platform_fee_bps, platform_fee_cents, seller_payout_cents,
		                    payment_method, shipping_address_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`, o.ListingID, o.BuyerID, o.SellerID, o.Status, o.TotalCents,
		o.PlatformFeeBPS, o.PlatformFeeCents, o.SellerPayoutCents,
		o.PaymentMethod, o.ShippingAddressID,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *OrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var o models.Order
	err := r.pool.QueryRow(ctx, `
		SELECT id, listing_id, buyer_id, seller_id, status, total_cents,
		       platform_fee_bps, platform_fee_cents, seller_payout_cents,
		       payment_method, shipping_address_id, tracking_number, shipping_carrier,
		       created_at, updated_at
		FROM orders WHERE id = $1
	`, id).Scan(&o.ID, &o.ListingID, &o.BuyerID, &o.SellerID, &o.Status, &o.TotalCents,
		&o.PlatformFeeBPS, &o.PlatformFeeCents, &o.SellerPayoutCents,
		&o.PaymentMethod, &o.ShippingAddressID, &o.TrackingNumber, &o.ShippingCarrier,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// GetDetail joins the listing title and participant emails needed by
// settlement side effects.
func (r *OrderRepo) GetDetail(ctx context.Context, id uuid.UUID) (*models.OrderDetail, error) {
	var d models.OrderDetail
	err := r.pool.QueryRow(ctx, `
		SELECT o.id, o.listing_id, o.buyer_id, o.seller_id, o.status, o.total_cents,
		       o.platform_fee_bps, o.platform_fee_cents, o.seller_payout_cents,
		       o.payment_method, o.shipping_address_id, o.tracking_number, o.shipping_carrier,
		       o.created_at, o.updated_at,
		       l.title, b.email, s.email
		FROM orders o
		JOIN listings l ON l.id = o.listing_id
		JOIN users b ON b.id = o.buyer_id
		JOIN users s ON s.id = o.seller_id
		WHERE o.id = $1
	`, id).Scan(&d.ID, &d.ListingID, &d.BuyerID, &d.SellerID, &d.Status, &d.TotalCents,
		&d.PlatformFeeBPS, &d.PlatformFeeCents, &d.SellerPayoutCents,
		&d.PaymentMethod, &d.ShippingAddressID, &d.TrackingNumber, &d.ShippingCarrier,
		&d.CreatedAt, &d.UpdatedAt,
		&d.ListingTitle, &d.BuyerEmail, &d.SellerEmail)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// UpdateStatusIf performs the conditional transition write: the status is
// set only if the row is still in the expected prior status. The returned
// bool is the idempotency signal: duplicate webhook deliveries and racing
// requests observe false and must skip side effects.
func (r *OrderRepo) UpdateStatusIf(ctx context.Context, id uuid.UUID, from, to string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE orders SET status = $1, updated_at = now()
		WHERE id = $2 AND status = $3
	`, to, id, from)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *OrderRepo) SetTracking(ctx context.Context, id uuid.UUID, trackingNumber, carrier string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE orders SET tracking_number = $1, shipping_carrier = $2, updated_at = now()
		WHERE id = $3
	`, trackingNumber, carrier, id)
	return err
}

type OrderFilter struct {
	BuyerID  *uuid.UUID
	SellerID *uuid.UUID
	Status   *string
	Limit    int
	Offset   int
}

func (r *OrderRepo) List(ctx context.Context, f OrderFilter) ([]models.OrderDetail, error) {
	query := `
		SELECT o.id, o.listing_id, o.buyer_id, o.seller_id, o.status, o.total_cents,
		       o.platform_fee_bps, o.platform_fee_cents, o.seller_payout_cents,
		       o.payment_method, o.shipping_address_id, o.tracking_number, o.shipping_carrier,
		       o.created_at, o.updated_at,
		       l.title, b.email, s.email
		FROM orders o
		JOIN listings l ON l.id = o.listing_id
		JOIN users b ON b.id = o.buyer_id
		JOIN users s ON s.id = o.seller_id
	`
	args := []any{}
	argIdx := 1
	where := []string{}

	if f.BuyerID != nil {
		where = append(where, fmt.Sprintf("o.buyer_id = $%d", argIdx))
		args = append(args, *f.BuyerID)
		argIdx++
	}
	if f.SellerID != nil {
		where = append(where, fmt.Sprintf("o.seller_id = $%d", argIdx))
		args = append(args, *f.SellerID)
		argIdx++
	}
	if f.Status != nil {
		where = append(where, fmt.Sprintf("o.status = $%d", argIdx))
		args = append(args, *f.Status)
		argIdx++
	}

	if len(where) > 0 {
		query += " WHERE "
		for i, w := range where {
			if i > 0 {
				query += " AND "
			}
			query += w
		}
	}

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query += fmt.Sprintf(" ORDER BY o.created_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []models.OrderDetail
	for rows.Next() {
		var d models.OrderDetail
		if err := rows.Scan(&d.ID, &d.ListingID, &d.BuyerID, &d.SellerID, &d.Status, &d.TotalCents,
			&d.PlatformFeeBPS, &d.PlatformFeeCents, &d.SellerPayoutCents,
			&d.PaymentMethod, &d.ShippingAddressID, &d.TrackingNumber, &d.ShippingCarrier,
			&d.CreatedAt, &d.UpdatedAt,
			&d.ListingTitle, &d.BuyerEmail, &d.SellerEmail); err != nil {
			return nil, err
		}
		orders = append(orders, d)
	}
	return orders, rows.Err()
}

// ListStaleShipped returns shipped orders untouched for longer than
// ageSeconds, for the worker's confirm-delivery reminder.
func (r *OrderRepo) ListStaleShipped(ctx context.Context, ageSeconds int, limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, listing_id, buyer_id, seller_id, status, total_cents,
		       platform_fee_bps, platform_fee_cents, seller_payout_cents,
		       payment_method, shipping_address_id, tracking_number, shipping_carrier,
		       created_at, updated_at
		FROM orders
		WHERE status = 'shipped' AND updated_at < now() - make_interval(secs => $1)
		ORDER BY updated_at ASC LIMIT $2
	`, ageSeconds, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var o models.Order
		if err := rows.Scan(&o.ID, &o.ListingID, &o.BuyerID, &o.SellerID, &o.Status, &o.TotalCents,
			&o.PlatformFeeBPS, &o.PlatformFeeCents, &o.SellerPayoutCents,
			&o.PaymentMethod, &o.ShippingAddressID, &o.TrackingNumber, &o.ShippingCarrier,
			&o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// ListExpiredPending returns orders stuck in pending longer than
// timeoutSeconds, for the worker's payment-deadline sweep.
func (r *OrderRepo) ListExpiredPending(ctx context.Context, timeoutSeconds int, limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, listing_id, buyer_id, seller_id, status, total_cents,
		       platform_fee_bps, platform_fee_cents, seller_payout_cents,
		       payment_method, shipping_address_id, tracking_number, shipping_carrier,
		       created_at, updated_at
		FROM orders
		WHERE status = 'pending' AND created_at < now() - make_interval(secs => $1)
		ORDER BY created_at ASC LIMIT $2
	`, timeoutSeconds, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var o models.Order
		if err := rows.Scan(&o.ID, &o.ListingID, &o.BuyerID, &o.SellerID, &o.Status, &o.TotalCents,
			&o.PlatformFeeBPS, &o.PlatformFeeCents, &o.SellerPayoutCents,
			&o.PaymentMethod, &o.ShippingAddressID, &o.TrackingNumber, &o.ShippingCarrier,
			&o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}
