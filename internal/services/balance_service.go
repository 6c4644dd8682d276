package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/peermarket/backend/internal/apperr"
	"github.com/peermarket/backend/internal/config"
	"github.com/peermarket/backend/internal/models"
	"github.com/peermarket/backend/internal/repositories"
)

type BalanceService struct {
	balances *repositories.BalanceRepo
	payouts  *repositories.PayoutRepo
	audit    AuditStore
	cfg      *config.Config
	log      *zap.Logger
}

func NewBalanceService(
	balances *repositories.BalanceRepo,
	payouts *repositories.PayoutRepo,
	audit AuditStore,
	cfg *config.Config,
	log *zap.Logger,
) *BalanceService {
	return &BalanceService{
		balances: balances,
		payouts:  payouts,
		audit:    audit,
		cfg:      cfg,
		log:      log,
	}
}

func (s *BalanceService) GetBalance(ctx context.Context, sellerID uuid.UUID) (*models.SellerBalance, error) {
	return s.balances.Get(ctx, sellerID)
}

// RequestPayout reserves the amount out of the seller's available balance
// and records the request. The decrement and the insert are one transaction
// inside the repository.
func (s *BalanceService) RequestPayout(ctx context.Context, sellerID uuid.UUID, amountCents int64, destination string) (*models.PayoutRequest, error) {
	if amountCents < s.cfg.MinPayoutCents {
		return nil, apperr.BadRequest("minimum payout is %d cents", s.cfg.MinPayoutCents)
	}
	if strings.TrimSpace(destination) == "" {
		return nil, apperr.BadRequest("payout destination is required")
	}

	p := &models.PayoutRequest{
		SellerID:    sellerID,
		AmountCents: amountCents,
		Destination: destination,
		Status:      models.PayoutStatusPending,
	}
	if err := s.payouts.CreateRequest(ctx, p); err != nil {
		if errors.Is(err, repositories.ErrInsufficientBalance) {
			return nil, apperr.BadRequest("insufficient available balance")
		}
		return nil, err
	}

	_ = s.audit.Log(ctx, models.AuditLog{
		ActorUserID: &sellerID,
		ActorType:   "user",
		Action:      "payout_requested",
		EntityType:  "payout_request",
		EntityID:    &p.ID,
		Meta:        map[string]any{"amount_cents": amountCents},
	})

	return p, nil
}

func (s *BalanceService) ListPayouts(ctx context.Context, sellerID uuid.UUID, limit, offset int) ([]models.PayoutRequest, error) {
	return s.payouts.ListBySeller(ctx, sellerID, limit, offset)
}

// UpdatePayoutStatus marks a payout request as processing, paid or rejected.
// Admin only; the actual money movement happens in the payment back office.
// Rejection returns the reserved amount to the seller's available balance.
func (s *BalanceService) UpdatePayoutStatus(ctx context.Context, adminID, payoutID uuid.UUID, status string) error {
	switch status {
	case models.PayoutStatusProcessing, models.PayoutStatusPaid:
		if err := s.payouts.UpdateStatus(ctx, payoutID, status); err != nil {
			return err
		}
	case models.PayoutStatusRejected:
		rejected, err := s.payouts.Reject(ctx, payoutID)
		if err != nil {
			return err
		}
		if !rejected {
			return apperr.BadRequest("payout request is already settled")
		}
	default:
		return apperr.BadRequest("unknown payout status %q", status)
	}

	_ = s.audit.Log(ctx, models.AuditLog{
		ActorUserID: &adminID,
		ActorType:   "admin",
		Action:      "payout_status_" + status,
		EntityType:  "payout_request",
		EntityID:    &payoutID,
	})
	return nil
}
