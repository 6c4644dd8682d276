package payments

// EventKind is the normalized outcome of a provider callback. Both rails
// collapse their provider-specific status strings onto these three values;
// everything else about the provider stays behind its own verifier.
type EventKind int

const (
	// EventIgnored is an authentic event that maps to no order transition
	// (intermediate provider states, unrelated event types).
	EventIgnored EventKind = iota
	EventPaid
	EventCancelled
)

// ProviderEvent is a verified, normalized payment event ready for the
// conditional status update at the webhook boundary.
type ProviderEvent struct {
	OrderID string
	Kind    EventKind
}
