package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification types
const (
	NotificationPaymentReceived  = "payment_received"
	NotificationOrderShipped     = "order_shipped"
	NotificationDeliveryReminder = "delivery_reminder"
	NotificationFundsReleased    = "funds_released"
	NotificationOrderCancelled   = "order_cancelled"
	NotificationDisputeOpened    = "dispute_opened"
	NotificationDisputeResolved  = "dispute_resolved"
)

type Notification struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	OrderID   *uuid.UUID `json:"order_id,omitempty"`
	Read      bool       `json:"read"`
	CreatedAt time.Time  `json:"created_at"`
}
