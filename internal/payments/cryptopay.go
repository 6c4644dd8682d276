package payments

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// The crypto rail delivers IPN callbacks signed with HMAC-SHA512 over the
// canonical (recursively sorted-key) JSON body. The provider documents that
// "finished" callbacks may be redelivered; the conditional status update at
// the webhook handler makes redelivery a no-op.

type cryptoCallback struct {
	OrderID       string `json:"order_id"`
	PaymentStatus string `json:"payment_status"`
	PaymentID     any    `json:"payment_id"`
}

// CanonicalJSON re-encodes a JSON document with object keys sorted at every
// depth, matching the provider's signing canonicalization.
func CanonicalJSON(body []byte) ([]byte, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	// encoding/json marshals map keys in sorted order at every level.
	return json.Marshal(doc)
}

// VerifyCryptoSignature checks the hex HMAC-SHA512 signature of the
// canonicalized body. Fails closed on any mismatch.
func VerifyCryptoSignature(body []byte, signature, secret string) error {
	if signature == "" {
		return fmt.Errorf("missing signature")
	}
	canonical, err := CanonicalJSON(body)
	if err != nil {
		return err
	}

	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(canonical)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return fmt.Errorf("crypto signature mismatch")
	}
	return nil
}

// SignCryptoBody produces the signature the provider would send, for tests
// and local callback replays.
func SignCryptoBody(body []byte, secret string) (string, error) {
	canonical, err := CanonicalJSON(body)
	if err != nil {
		return "", err
	}
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(canonical)
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// ParseCryptoEvent verifies the signature and maps the provider status onto
// a ProviderEvent.
func ParseCryptoEvent(body []byte, signature, secret string) (*ProviderEvent, error) {
	if err := VerifyCryptoSignature(body, signature, secret); err != nil {
		return nil, err
	}

	var cb cryptoCallback
	if err := json.Unmarshal(body, &cb); err != nil {
		return nil, fmt.Errorf("malformed callback body: %w", err)
	}
	if cb.OrderID == "" {
		return nil, fmt.Errorf("callback has no order_id")
	}

	return &ProviderEvent{OrderID: cb.OrderID, Kind: mapCryptoStatus(cb.PaymentStatus)}, nil
}

func mapCryptoStatus(status string) EventKind {
	switch status {
	case "finished", "confirmed":
		return EventPaid
	case "failed", "expired", "refunded":
		return EventCancelled
	default:
		// waiting / confirming / sending / partially_paid
		return EventIgnored
	}
}
