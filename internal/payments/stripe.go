package payments

import (
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
)

// ParseStripeEvent verifies the Stripe-Signature header against the
// endpoint secret and maps the event onto a ProviderEvent. Verification
// failures fail closed; the caller touches no state.
//
// The order id travels in the checkout session's client_reference_id, set
// when the session is created.
func ParseStripeEvent(payload []byte, sigHeader, secret string) (*ProviderEvent, error) {
	event, err := webhook.ConstructEvent(payload, sigHeader, secret)
	if err != nil {
		return nil, fmt.Errorf("stripe signature verification failed: %w", err)
	}

	switch event.Type {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
		return sessionEvent(event, EventPaid)
	case "checkout.session.expired", "checkout.session.async_payment_failed":
		return sessionEvent(event, EventCancelled)
	default:
		return &ProviderEvent{Kind: EventIgnored}, nil
	}
}

func sessionEvent(event stripe.Event, kind EventKind) (*ProviderEvent, error) {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, fmt.Errorf("malformed checkout session payload: %w", err)
	}
	if session.ClientReferenceID == "" {
		return nil, fmt.Errorf("checkout session %s has no client_reference_id", session.ID)
	}
	return &ProviderEvent{OrderID: session.ClientReferenceID, Kind: kind}, nil
}
