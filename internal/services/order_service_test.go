package services

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/peermarket/backend/internal/apperr"
	"github.com/peermarket/backend/internal/config"
	"github.com/peermarket/backend/internal/events"
	"github.com/peermarket/backend/internal/models"
	"github.com/peermarket/backend/internal/repositories"
)

// --- in-memory fakes ---

type fakeOrderStore struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*models.Order
	titles map[uuid.UUID]string
	emails map[uuid.UUID]string
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{
		orders: make(map[uuid.UUID]*models.Order),
		titles: make(map[uuid.UUID]string),
		emails: make(map[uuid.UUID]string),
	}
}

func (f *fakeOrderStore) CreateWithShipping(ctx context.Context, o *models.Order, addr *models.ShippingAddress) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o.ID = uuid.New()
	addr.ID = uuid.New()
	o.ShippingAddressID = &addr.ID
	cp := *o
	f.orders[o.ID] = &cp
	return nil
}

func (f *fakeOrderStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrderStore) GetDetail(ctx context.Context, id uuid.UUID) (*models.OrderDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	d := &models.OrderDetail{Order: *o, ListingTitle: f.titles[o.ListingID]}
	if e, ok := f.emails[o.BuyerID]; ok {
		d.BuyerEmail = &e
	}
	if e, ok := f.emails[o.SellerID]; ok {
		d.SellerEmail = &e
	}
	return d, nil
}

func (f *fakeOrderStore) UpdateStatusIf(ctx context.Context, id uuid.UUID, from, to string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	return true, nil
}

func (f *fakeOrderStore) SetTracking(ctx context.Context, id uuid.UUID, trackingNumber, carrier string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o, ok := f.orders[id]; ok {
		o.TrackingNumber = &trackingNumber
		o.ShippingCarrier = &carrier
	}
	return nil
}

func (f *fakeOrderStore) List(ctx context.Context, filter repositories.OrderFilter) ([]models.OrderDetail, error) {
	return nil, nil
}

func (f *fakeOrderStore) status(id uuid.UUID) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.orders[id].Status
}

type fakeListingStore struct {
	mu       sync.Mutex
	listings map[uuid.UUID]*models.Listing
}

func newFakeListingStore() *fakeListingStore {
	return &fakeListingStore{listings: make(map[uuid.UUID]*models.Listing)}
}

func (f *fakeListingStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.listings[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *l
	return &cp, nil
}

func (f *fakeListingStore) MarkSold(ctx context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.listings[id]
	if !ok || l.Status != models.ListingStatusActive {
		return false, nil
	}
	l.Status = models.ListingStatusSold
	return true, nil
}

func (f *fakeListingStore) Reactivate(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if l, ok := f.listings[id]; ok && l.Status == models.ListingStatusSold {
		l.Status = models.ListingStatusActive
	}
	return nil
}

func (f *fakeListingStore) status(id uuid.UUID) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listings[id].Status
}

type fakeBalanceStore struct {
	mu        sync.Mutex
	pending   map[uuid.UUID]int64
	available map[uuid.UUID]int64
	earned    map[uuid.UUID]int64
	credits   int
}

func newFakeBalanceStore() *fakeBalanceStore {
	return &fakeBalanceStore{
		pending:   make(map[uuid.UUID]int64),
		available: make(map[uuid.UUID]int64),
		earned:    make(map[uuid.UUID]int64),
	}
}

func (f *fakeBalanceStore) Credit(ctx context.Context, sellerID uuid.UUID, amountCents int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending[sellerID] += amountCents
	f.earned[sellerID] += amountCents
	f.credits++
	return nil
}

func (f *fakeBalanceStore) Release(ctx context.Context, sellerID uuid.UUID, amountCents int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pending[sellerID] < amountCents {
		return false, nil
	}
	f.pending[sellerID] -= amountCents
	f.available[sellerID] += amountCents
	return true, nil
}

func (f *fakeBalanceStore) ReversePending(ctx context.Context, sellerID uuid.UUID, amountCents int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pending[sellerID] < amountCents {
		return false, nil
	}
	f.pending[sellerID] -= amountCents
	return true, nil
}

type fakeNotificationStore struct {
	mu      sync.Mutex
	created []models.Notification
}

func (f *fakeNotificationStore) Create(ctx context.Context, n *models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n.ID = uuid.New()
	f.created = append(f.created, *n)
	return nil
}

type fakeAuditStore struct {
	mu      sync.Mutex
	entries []models.AuditLog
}

func (f *fakeAuditStore) Log(ctx context.Context, entry models.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	return nil
}

type mailerCall struct {
	template string
	to       string
	title    string
	tracking string
	carrier  string
	amount   int64
}

type fakeMailer struct {
	mu    sync.Mutex
	calls []mailerCall
}

func (f *fakeMailer) SendPaymentReceived(ctx context.Context, to, listingTitle string, payoutCents int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, mailerCall{template: "payment_received", to: to, title: listingTitle, amount: payoutCents})
	return nil
}

func (f *fakeMailer) SendOrderShipped(ctx context.Context, to, listingTitle, trackingNumber, carrier string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, mailerCall{template: "order_shipped", to: to, title: listingTitle, tracking: trackingNumber, carrier: carrier})
	return nil
}

func (f *fakeMailer) SendFundsReleased(ctx context.Context, to, listingTitle string, amountCents int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, mailerCall{template: "funds_released", to: to, title: listingTitle, amount: amountCents})
	return nil
}

type fakePublisher struct {
	mu        sync.Mutex
	published []events.Event
}

func (f *fakePublisher) Publish(ctx context.Context, stream string, event events.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, event)
	return nil
}

// --- fixture ---

type fixture struct {
	svc      *OrderService
	orders   *fakeOrderStore
	listings *fakeListingStore
	balances *fakeBalanceStore
	notifs   *fakeNotificationStore
	audit    *fakeAuditStore
	mailer   *fakeMailer
	pub      *fakePublisher
}

func newFixture() *fixture {
	f := &fixture{
		orders:   newFakeOrderStore(),
		listings: newFakeListingStore(),
		balances: newFakeBalanceStore(),
		notifs:   &fakeNotificationStore{},
		audit:    &fakeAuditStore{},
		mailer:   &fakeMailer{},
		pub:      &fakePublisher{},
	}
	cfg := &config.Config{PlatformFeeBPS: 1000, MinPayoutCents: 1000}
	f.svc = NewOrderService(f.orders, f.listings, f.balances, f.notifs, f.audit, f.mailer, f.pub, cfg, zap.NewNop())
	return f
}

func (f *fixture) seedListing(sellerID uuid.UUID, priceCents int64) uuid.UUID {
	id := uuid.New()
	f.listings.listings[id] = &models.Listing{
		ID:         id,
		SellerID:   sellerID,
		Title:      "Vintage camera",
		PriceCents: priceCents,
		Status:     models.ListingStatusActive,
	}
	f.orders.titles[id] = "Vintage camera"
	return id
}

func (f *fixture) seedOrder(buyerID, sellerID uuid.UUID, status string, totalCents int64) *models.Order {
	listingID := f.seedListing(sellerID, totalCents)
	f.listings.listings[listingID].Status = models.ListingStatusSold
	fee, payout := models.SplitFee(totalCents, 1000)
	o := &models.Order{
		ID:                uuid.New(),
		ListingID:         listingID,
		BuyerID:           buyerID,
		SellerID:          sellerID,
		Status:            status,
		TotalCents:        totalCents,
		PlatformFeeBPS:    1000,
		PlatformFeeCents:  fee,
		SellerPayoutCents: payout,
		PaymentMethod:     models.PaymentMethodStripe,
	}
	f.orders.orders[o.ID] = o
	return o
}

// --- checkout ---

func TestCreateOrder(t *testing.T) {
	f := newFixture()
	buyer, seller := uuid.New(), uuid.New()
	listingID := f.seedListing(seller, 10000)

	order, err := f.svc.CreateOrder(context.Background(), buyer, CheckoutInput{
		ListingID:     listingID,
		PaymentMethod: models.PaymentMethodStripe,
		Address:       models.ShippingAddress{Recipient: "A. Buyer", Line1: "1 Main St", City: "Springfield", PostalCode: "12345", Country: "US"},
	})
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, int64(10000), order.TotalCents)
	assert.Equal(t, int64(1000), order.PlatformFeeCents)
	assert.Equal(t, int64(9000), order.SellerPayoutCents)
	assert.Equal(t, order.TotalCents, order.PlatformFeeCents+order.SellerPayoutCents)
	assert.Equal(t, models.ListingStatusSold, f.listings.status(listingID))
	require.NotNil(t, order.ShippingAddressID)
}

func TestCreateOrderOfferPriceOverride(t *testing.T) {
	f := newFixture()
	buyer, seller := uuid.New(), uuid.New()
	listingID := f.seedListing(seller, 10000)

	order, err := f.svc.CreateOrder(context.Background(), buyer, CheckoutInput{
		ListingID:     listingID,
		PaymentMethod: models.PaymentMethodCrypto,
		OfferCents:    8500,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(8500), order.TotalCents)
	fee, payout := models.SplitFee(8500, 1000)
	assert.Equal(t, fee, order.PlatformFeeCents)
	assert.Equal(t, payout, order.SellerPayoutCents)
}

func TestCreateOrderRejections(t *testing.T) {
	f := newFixture()
	buyer, seller := uuid.New(), uuid.New()
	listingID := f.seedListing(seller, 10000)

	t.Run("unknown payment method", func(t *testing.T) {
		_, err := f.svc.CreateOrder(context.Background(), buyer, CheckoutInput{ListingID: listingID, PaymentMethod: "paypal"})
		assert.True(t, apperr.IsKind(err, apperr.KindBadRequest))
	})

	t.Run("missing listing", func(t *testing.T) {
		_, err := f.svc.CreateOrder(context.Background(), buyer, CheckoutInput{ListingID: uuid.New(), PaymentMethod: models.PaymentMethodStripe})
		assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	})

	t.Run("self purchase", func(t *testing.T) {
		_, err := f.svc.CreateOrder(context.Background(), seller, CheckoutInput{ListingID: listingID, PaymentMethod: models.PaymentMethodStripe})
		assert.True(t, apperr.IsKind(err, apperr.KindBadRequest))
	})

	t.Run("listing already sold", func(t *testing.T) {
		f.listings.listings[listingID].Status = models.ListingStatusSold
		_, err := f.svc.CreateOrder(context.Background(), buyer, CheckoutInput{ListingID: listingID, PaymentMethod: models.PaymentMethodStripe})
		assert.True(t, apperr.IsKind(err, apperr.KindBadRequest))
	})
}

// --- webhook settlement ---

func TestApplyProviderEventPaidCreditsOnce(t *testing.T) {
	f := newFixture()
	buyer, seller := uuid.New(), uuid.New()
	f.orders.emails[seller] = "seller@example.com"
	order := f.seedOrder(buyer, seller, models.OrderStatusPending, 10000)

	require.NoError(t, f.svc.ApplyProviderEvent(context.Background(), order.ID, true))

	assert.Equal(t, models.OrderStatusPaid, f.orders.status(order.ID))
	assert.Equal(t, order.SellerPayoutCents, f.balances.pending[seller])
	assert.Equal(t, 1, f.balances.credits)

	// Redelivery of the same event must be a no-op.
	require.NoError(t, f.svc.ApplyProviderEvent(context.Background(), order.ID, true))

	assert.Equal(t, models.OrderStatusPaid, f.orders.status(order.ID))
	assert.Equal(t, order.SellerPayoutCents, f.balances.pending[seller])
	assert.Equal(t, 1, f.balances.credits, "redelivered webhook must not credit twice")
}

func TestApplyProviderEventFailureReactivatesListing(t *testing.T) {
	f := newFixture()
	buyer, seller := uuid.New(), uuid.New()
	order := f.seedOrder(buyer, seller, models.OrderStatusPending, 10000)

	require.NoError(t, f.svc.ApplyProviderEvent(context.Background(), order.ID, false))

	assert.Equal(t, models.OrderStatusCancelled, f.orders.status(order.ID))
	assert.Equal(t, models.ListingStatusActive, f.listings.status(order.ListingID))
	assert.Equal(t, 0, f.balances.credits)
}

func TestApplyProviderEventUnknownOrder(t *testing.T) {
	f := newFixture()
	assert.NoError(t, f.svc.ApplyProviderEvent(context.Background(), uuid.New(), true))
}

func TestApplyProviderEventAfterSettlement(t *testing.T) {
	f := newFixture()
	buyer, seller := uuid.New(), uuid.New()
	order := f.seedOrder(buyer, seller, models.OrderStatusShipped, 10000)

	// A very late "paid" redelivery must not touch a shipped order.
	require.NoError(t, f.svc.ApplyProviderEvent(context.Background(), order.ID, true))

	assert.Equal(t, models.OrderStatusShipped, f.orders.status(order.ID))
	assert.Equal(t, 0, f.balances.credits)
}

// --- ship ---

func TestShip(t *testing.T) {
	f := newFixture()
	buyer, seller := uuid.New(), uuid.New()
	f.orders.emails[buyer] = "buyer@example.com"
	order := f.seedOrder(buyer, seller, models.OrderStatusPaid, 10000)

	err := f.svc.Ship(context.Background(), order.ID, seller, false, TrackingInfo{Number: "TRACK123", Carrier: "UPS"})
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusShipped, f.orders.status(order.ID))
	require.Len(t, f.mailer.calls, 1)
	call := f.mailer.calls[0]
	assert.Equal(t, "order_shipped", call.template)
	assert.Equal(t, "buyer@example.com", call.to)
	assert.Equal(t, "Vintage camera", call.title)
	assert.Equal(t, "TRACK123", call.tracking)
	assert.Equal(t, "UPS", call.carrier)
}

func TestShipFromPendingIsBadRequest(t *testing.T) {
	f := newFixture()
	buyer, seller := uuid.New(), uuid.New()
	order := f.seedOrder(buyer, seller, models.OrderStatusPending, 10000)

	err := f.svc.Ship(context.Background(), order.ID, seller, false, TrackingInfo{})
	assert.True(t, apperr.IsKind(err, apperr.KindBadRequest))

	assert.Equal(t, models.OrderStatusPending, f.orders.status(order.ID))
	assert.Empty(t, f.mailer.calls)
	assert.Empty(t, f.notifs.created)
}

func TestShipByBuyerIsForbidden(t *testing.T) {
	f := newFixture()
	buyer, seller := uuid.New(), uuid.New()
	order := f.seedOrder(buyer, seller, models.OrderStatusPaid, 10000)

	err := f.svc.Ship(context.Background(), order.ID, buyer, false, TrackingInfo{})
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
	assert.Equal(t, models.OrderStatusPaid, f.orders.status(order.ID))
}

// --- delivery and funds release ---

func TestConfirmDeliveryReleasesFunds(t *testing.T) {
	f := newFixture()
	buyer, seller := uuid.New(), uuid.New()
	f.orders.emails[seller] = "seller@example.com"
	order := f.seedOrder(buyer, seller, models.OrderStatusPending, 10000)

	require.NoError(t, f.svc.ApplyProviderEvent(context.Background(), order.ID, true))
	require.NoError(t, f.svc.Ship(context.Background(), order.ID, seller, false, TrackingInfo{Number: "N1", Carrier: "DHL"}))
	require.NoError(t, f.svc.ConfirmDelivery(context.Background(), order.ID, buyer, false))

	assert.Equal(t, models.OrderStatusDelivered, f.orders.status(order.ID))
	assert.Equal(t, int64(0), f.balances.pending[seller])
	assert.Equal(t, order.SellerPayoutCents, f.balances.available[seller])
	assert.Equal(t, order.SellerPayoutCents, f.balances.earned[seller])
}

func TestConfirmDeliveryBySellerIsForbidden(t *testing.T) {
	f := newFixture()
	buyer, seller := uuid.New(), uuid.New()
	order := f.seedOrder(buyer, seller, models.OrderStatusShipped, 10000)

	err := f.svc.ConfirmDelivery(context.Background(), order.ID, seller, false)
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
}

// --- cancel ---

func TestCancelPendingReactivatesListing(t *testing.T) {
	f := newFixture()
	buyer, seller := uuid.New(), uuid.New()
	order := f.seedOrder(buyer, seller, models.OrderStatusPending, 10000)

	require.NoError(t, f.svc.Cancel(context.Background(), order.ID, buyer, false))

	assert.Equal(t, models.OrderStatusCancelled, f.orders.status(order.ID))
	assert.Equal(t, models.ListingStatusActive, f.listings.status(order.ListingID))
}

func TestCancelPaidByParticipantIsForbidden(t *testing.T) {
	f := newFixture()
	buyer, seller := uuid.New(), uuid.New()
	order := f.seedOrder(buyer, seller, models.OrderStatusPaid, 10000)

	err := f.svc.Cancel(context.Background(), order.ID, buyer, false)
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
	assert.Equal(t, models.OrderStatusPaid, f.orders.status(order.ID))
}

func TestAdminCancelPaidReversesPendingCredit(t *testing.T) {
	f := newFixture()
	buyer, seller, admin := uuid.New(), uuid.New(), uuid.New()
	order := f.seedOrder(buyer, seller, models.OrderStatusPending, 10000)

	require.NoError(t, f.svc.ApplyProviderEvent(context.Background(), order.ID, true))
	require.Equal(t, order.SellerPayoutCents, f.balances.pending[seller])

	require.NoError(t, f.svc.Cancel(context.Background(), order.ID, admin, true))

	assert.Equal(t, models.OrderStatusCancelled, f.orders.status(order.ID))
	assert.Equal(t, int64(0), f.balances.pending[seller])
	assert.Equal(t, int64(0), f.balances.available[seller])
}

func TestCancelExpired(t *testing.T) {
	f := newFixture()
	buyer, seller := uuid.New(), uuid.New()
	order := f.seedOrder(buyer, seller, models.OrderStatusPending, 10000)

	require.NoError(t, f.svc.CancelExpired(context.Background(), order))

	assert.Equal(t, models.OrderStatusCancelled, f.orders.status(order.ID))
	assert.Equal(t, models.ListingStatusActive, f.listings.status(order.ListingID))
}

// --- disputes ---

func TestOpenDisputeNotifiesSeller(t *testing.T) {
	f := newFixture()
	buyer, seller := uuid.New(), uuid.New()
	order := f.seedOrder(buyer, seller, models.OrderStatusShipped, 10000)

	require.NoError(t, f.svc.OpenDispute(context.Background(), order.ID, buyer, false))

	assert.Equal(t, models.OrderStatusDisputed, f.orders.status(order.ID))
	require.NotEmpty(t, f.notifs.created)
	assert.Equal(t, models.NotificationDisputeOpened, f.notifs.created[0].Type)
	assert.Equal(t, seller, f.notifs.created[0].UserID)
}

func TestResolveDisputeRefund(t *testing.T) {
	f := newFixture()
	buyer, seller, admin := uuid.New(), uuid.New(), uuid.New()
	order := f.seedOrder(buyer, seller, models.OrderStatusPending, 10000)

	require.NoError(t, f.svc.ApplyProviderEvent(context.Background(), order.ID, true))
	require.NoError(t, f.svc.OpenDispute(context.Background(), order.ID, buyer, false))
	require.NoError(t, f.svc.ResolveDispute(context.Background(), order.ID, admin, models.OrderStatusRefunded))

	assert.Equal(t, models.OrderStatusRefunded, f.orders.status(order.ID))
	assert.Equal(t, int64(0), f.balances.pending[seller])
	assert.Equal(t, int64(0), f.balances.available[seller])
}

func TestResolveDisputeSellerWins(t *testing.T) {
	f := newFixture()
	buyer, seller, admin := uuid.New(), uuid.New(), uuid.New()
	order := f.seedOrder(buyer, seller, models.OrderStatusPending, 10000)

	require.NoError(t, f.svc.ApplyProviderEvent(context.Background(), order.ID, true))
	require.NoError(t, f.svc.Ship(context.Background(), order.ID, seller, false, TrackingInfo{}))
	require.NoError(t, f.svc.OpenDispute(context.Background(), order.ID, buyer, false))
	require.NoError(t, f.svc.ResolveDispute(context.Background(), order.ID, admin, models.OrderStatusDelivered))

	assert.Equal(t, models.OrderStatusDelivered, f.orders.status(order.ID))
	assert.Equal(t, int64(0), f.balances.pending[seller])
	assert.Equal(t, order.SellerPayoutCents, f.balances.available[seller])
}

func TestResolveDisputeInvalidOutcome(t *testing.T) {
	f := newFixture()
	buyer, seller, admin := uuid.New(), uuid.New(), uuid.New()
	order := f.seedOrder(buyer, seller, models.OrderStatusDisputed, 10000)

	err := f.svc.ResolveDispute(context.Background(), order.ID, admin, models.OrderStatusCancelled)
	assert.True(t, apperr.IsKind(err, apperr.KindBadRequest))
	assert.Equal(t, models.OrderStatusDisputed, f.orders.status(order.ID))
}

// --- queries ---

func TestGetOrderParticipantGate(t *testing.T) {
	f := newFixture()
	buyer, seller, stranger, admin := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	order := f.seedOrder(buyer, seller, models.OrderStatusPaid, 10000)

	_, err := f.svc.GetOrder(context.Background(), order.ID, buyer, false)
	assert.NoError(t, err)

	_, err = f.svc.GetOrder(context.Background(), order.ID, stranger, false)
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))

	_, err = f.svc.GetOrder(context.Background(), order.ID, admin, true)
	assert.NoError(t, err)

	_, err = f.svc.GetOrder(context.Background(), uuid.New(), buyer, false)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestAllowedActions(t *testing.T) {
	f := newFixture()
	buyer, seller := uuid.New(), uuid.New()
	order := f.seedOrder(buyer, seller, models.OrderStatusPaid, 10000)

	status, actions, err := f.svc.AllowedActions(context.Background(), order.ID, seller, false)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, status)
	assert.Equal(t, []string{models.OrderStatusShipped}, actions)

	_, actions, err = f.svc.AllowedActions(context.Background(), order.ID, buyer, false)
	require.NoError(t, err)
	assert.Equal(t, []string{models.OrderStatusDisputed}, actions)
}
