//go:build integration

package main_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BengkelGo/service-marketplace/internal/events"
	"github.com/BengkelGo/service-marketplace/internal/repository"
)

// TestPaymentSettlement_MarksBookingPaid verifies that when a
// PaymentSettlementEvent is published to payment.events, the settlement
// consumer picks it up, moves the quoted booking to "paid", accepts its
// pending quote, and publishes the payment notifications.
func TestPaymentSettlement_MarksBookingPaid(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupMarketplaceStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CloseProducer()
	defer func() { _ = stack.Consumer.Close() }()

	// Seed a workshop and a booking awaiting settlement.
	workshopID := uuid.New()
	ownerID := uuid.New()
	customerID := uuid.New()
	bookingID := uuid.New()
	quoteID := uuid.New()
	seedWorkshop(t, infra.DB, workshopID, ownerID)
	seedQuotedBooking(t, infra.DB, bookingID, quoteID, customerID, workshopID)

	// Start the consumer.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = stack.Consumer.Start(ctx) }()
	time.Sleep(3 * time.Second) // Wait for consumer group join.

	// Publish the settlement.
	evt := events.PaymentSettlementEvent{
		PaymentID:     uuid.New(),
		BookingID:     bookingID,
		Amount:        84.80,
		Currency:      "MYR",
		TransactionID: "TXN-INT-0001",
		OccurredAt:    time.Now().UTC(),
	}
	publishTestEvent(t, infra.KafkaBrokers, events.TopicPaymentEvents,
		"service-payment", events.PaymentSettlementSucceeded, bookingID.String(), evt)

	// Assert: booking transitions to "paid" with a capture timestamp.
	model := waitForBookingStatus(t, infra.DB, bookingID, "paid", 15*time.Second)
	assert.NotNil(t, model.PaidAt, "paid_at should be set")
	require.NotNil(t, model.TotalAmount)
	assert.Equal(t, 84.80, *model.TotalAmount)

	// Assert: the pending quote was accepted as a side effect.
	var quote repository.QuoteModel
	require.NoError(t, infra.DB.Where("id = ?", quoteID).First(&quote).Error)
	assert.Equal(t, "accepted", quote.Status)

	// Assert: a payment notification lands on notification.events.
	ce := consumeOneEvent(t, infra.KafkaBrokers, events.TopicNotificationEvents,
		events.NotificationCreated, 15*time.Second)

	var notif events.NotificationEvent
	require.NoError(t, ce.ParseData(&notif))
	require.NotNil(t, notif.RelatedBookingID)
	assert.Equal(t, bookingID, *notif.RelatedBookingID)
	assert.Contains(t, []string{"payment_success", "payment_received"}, notif.Type)
}
