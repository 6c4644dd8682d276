package events

import "context"

// Streams
const (
	StreamOrders = "events:order"
)

// Event types
const (
	EventOrderStatusChanged = "order_status_changed"
	EventNotification       = "notification"
)

type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, stream string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, stream string, handler func(Event)) error
}
