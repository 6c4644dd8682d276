package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// MailerClient talks to the internal mailer service over HTTP. Delivery is
// best-effort: callers on the settlement path ignore the returned error and
// the client logs failures itself.
type MailerClient struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

func NewMailerClient(baseURL string, log *zap.Logger) *MailerClient {
	return &MailerClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

func (c *MailerClient) SendPaymentReceived(ctx context.Context, to, listingTitle string, payoutCents int64) error {
	return c.send(ctx, "payment_received", map[string]any{
		"to":            to,
		"listing_title": listingTitle,
		"payout_cents":  payoutCents,
	})
}

func (c *MailerClient) SendOrderShipped(ctx context.Context, to, listingTitle, trackingNumber, carrier string) error {
	return c.send(ctx, "order_shipped", map[string]any{
		"to":              to,
		"listing_title":   listingTitle,
		"tracking_number": trackingNumber,
		"carrier":         carrier,
	})
}

func (c *MailerClient) SendFundsReleased(ctx context.Context, to, listingTitle string, amountCents int64) error {
	return c.send(ctx, "funds_released", map[string]any{
		"to":            to,
		"listing_title": listingTitle,
		"amount_cents":  amountCents,
	})
}

func (c *MailerClient) send(ctx context.Context, template string, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/internal/emails/%s", c.baseURL, template)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(body)))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("mailer unavailable", zap.String("template", template), zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		c.log.Warn("mailer rejected email", zap.String("template", template), zap.Int("status", resp.StatusCode))
		return fmt.Errorf("mailer returned %d", resp.StatusCode)
	}
	return nil
}
