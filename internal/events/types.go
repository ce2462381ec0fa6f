package events

import (
	"time"

	"github.com/google/uuid"
)

// Kafka topics.
const (
	TopicNotificationEvents = "notification.events"
	TopicPaymentEvents      = "payment.events"
)

// Event types.
const (
	NotificationCreated        = "notification.created"
	PaymentSettlementSucceeded = "payment.settlement.succeeded"
	PaymentSettlementFailed    = "payment.settlement.failed"
)

// NotificationEvent is the payload published for every notification trigger.
// Delivery transport (push, email) is someone else's problem; this is only the
// triggering contract.
type NotificationEvent struct {
	UserID           uuid.UUID  `json:"userId"`
	Role             string     `json:"role"`
	Type             string     `json:"type"`
	RelatedBookingID *uuid.UUID `json:"relatedBookingId,omitempty"`
	Title            string     `json:"title"`
	Message          string     `json:"message"`
	OccurredAt       time.Time  `json:"occurredAt"`
}

// PaymentSettlementEvent arrives on payment.events when an asynchronous
// (PENDING) payment settles.
type PaymentSettlementEvent struct {
	PaymentID     uuid.UUID `json:"paymentId"`
	BookingID     uuid.UUID `json:"bookingId"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	TransactionID string    `json:"transactionId"`
	OccurredAt    time.Time `json:"occurredAt"`
}
