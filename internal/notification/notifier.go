// Package notification defines the triggering contract for user
// notifications. Delivery transport is an external collaborator consuming the
// notification.events topic.
package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BengkelGo/service-marketplace/internal/events"
)

// Notification types emitted by the engines.
const (
	TypeBookingConfirmed = "booking_confirmed"
	TypeNewJobRequest    = "new_job_request"
	TypeNewQuote         = "new_quote"
	TypeQuoteWithdrawn   = "quote_withdrawn"
	TypeQuoteRejected    = "quote_rejected"
	TypeQuoteAccepted    = "quote_accepted"
	TypeQuoteApproved    = "quote_approved"
	TypePaymentSuccess   = "payment_success"
	TypePaymentReceived  = "payment_received"
	TypeRepairStarted    = "repair_started"
	TypePickupReady      = "pickup_ready"
	TypeEscrowReleased   = "escrow_released"
	TypeBookingCancelled = "booking_cancelled"
	TypeRefundApproved   = "refund_approved"
	TypeRefundRejected   = "refund_rejected"
	TypeNewReview        = "new_review"
)

// Recipient roles.
const (
	RoleCustomer = "customer"
	RoleOwner    = "owner"
)

// Notification is one event to be delivered to one user.
type Notification struct {
	UserID           uuid.UUID
	Role             string
	Type             string
	RelatedBookingID *uuid.UUID
	Title            string
	Message          string
}

// Notifier publishes notifications fire-and-forget: the engine call that
// triggered the notification never fails because delivery did.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// KafkaNotifier publishes notifications as CloudEvents on
// notification.events.
type KafkaNotifier struct {
	producer *events.Producer
	source   string
	logger   *zap.Logger
}

// NewKafkaNotifier creates a KafkaNotifier publishing on behalf of source.
func NewKafkaNotifier(producer *events.Producer, source string, logger *zap.Logger) *KafkaNotifier {
	return &KafkaNotifier{producer: producer, source: source, logger: logger}
}

// Notify publishes the notification, logging and continuing on failure.
func (n *KafkaNotifier) Notify(ctx context.Context, notif Notification) {
	evt := events.NotificationEvent{
		UserID:           notif.UserID,
		Role:             notif.Role,
		Type:             notif.Type,
		RelatedBookingID: notif.RelatedBookingID,
		Title:            notif.Title,
		Message:          notif.Message,
		OccurredAt:       time.Now().UTC(),
	}

	ce, err := events.NewCloudEvent(n.source, events.NotificationCreated, evt)
	if err != nil {
		n.logger.Error("failed to create notification event",
			zap.String("type", notif.Type),
			zap.Error(err),
		)
		return
	}

	if err := n.producer.PublishEvent(ctx, events.TopicNotificationEvents, notif.UserID.String(), ce); err != nil {
		n.logger.Error("failed to publish notification",
			zap.String("type", notif.Type),
			zap.String("user_id", notif.UserID.String()),
			zap.Error(err),
		)
	}
}
