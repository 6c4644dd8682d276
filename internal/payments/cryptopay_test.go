package payments

import (
	"testing"
)

const testSecret = "ipn-test-secret"

func TestParseCryptoEvent_ValidSignature(t *testing.T) {
	body := []byte(`{"order_id":"a1b2c3","payment_status":"finished","payment_id":42}`)

	sig, err := SignCryptoBody(body, testSecret)
	if err != nil {
		t.Fatal(err)
	}

	event, err := ParseCryptoEvent(body, sig, testSecret)
	if err != nil {
		t.Fatalf("expected valid event, got error: %v", err)
	}
	if event.OrderID != "a1b2c3" {
		t.Errorf("order id = %q", event.OrderID)
	}
	if event.Kind != EventPaid {
		t.Errorf("kind = %v, want EventPaid", event.Kind)
	}
}

func TestParseCryptoEvent_KeyOrderIndependent(t *testing.T) {
	// The provider signs the sorted-key canonical form, so a signature
	// computed over one key ordering must verify a reordered body.
	ordered := []byte(`{"order_id":"x","outcome":{"amount":"1.5","currency":"btc"},"payment_status":"finished"}`)
	shuffled := []byte(`{"payment_status":"finished","outcome":{"currency":"btc","amount":"1.5"},"order_id":"x"}`)

	sig, err := SignCryptoBody(ordered, testSecret)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := ParseCryptoEvent(shuffled, sig, testSecret); err != nil {
		t.Fatalf("reordered body should verify: %v", err)
	}
}

func TestParseCryptoEvent_TamperedBody(t *testing.T) {
	body := []byte(`{"order_id":"a1b2c3","payment_status":"finished"}`)
	sig, _ := SignCryptoBody(body, testSecret)

	tampered := []byte(`{"order_id":"a1b2c3","payment_status":"refunded"}`)
	if _, err := ParseCryptoEvent(tampered, sig, testSecret); err == nil {
		t.Fatal("expected signature mismatch for tampered body")
	}
}

func TestParseCryptoEvent_MissingSignature(t *testing.T) {
	body := []byte(`{"order_id":"a1b2c3","payment_status":"finished"}`)
	if _, err := ParseCryptoEvent(body, "", testSecret); err == nil {
		t.Fatal("expected error for missing signature")
	}
}

func TestParseCryptoEvent_WrongSecret(t *testing.T) {
	body := []byte(`{"order_id":"a1b2c3","payment_status":"finished"}`)
	sig, _ := SignCryptoBody(body, "other-secret")
	if _, err := ParseCryptoEvent(body, sig, testSecret); err == nil {
		t.Fatal("expected error for signature from wrong secret")
	}
}

func TestMapCryptoStatus(t *testing.T) {
	tests := []struct {
		status string
		kind   EventKind
	}{
		{"finished", EventPaid},
		{"confirmed", EventPaid},
		{"failed", EventCancelled},
		{"expired", EventCancelled},
		{"refunded", EventCancelled},
		{"waiting", EventIgnored},
		{"confirming", EventIgnored},
		{"partially_paid", EventIgnored},
		{"", EventIgnored},
	}

	for _, tt := range tests {
		if got := mapCryptoStatus(tt.status); got != tt.kind {
			t.Errorf("mapCryptoStatus(%q) = %v, want %v", tt.status, got, tt.kind)
		}
	}
}
