package events

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// PaymentSettler is the slice of the booking service the consumer needs: mark
// a booking paid once its pending payment settles.
type PaymentSettler interface {
	SettlePayment(ctx context.Context, bookingID uuid.UUID) error
}

// PaymentEventConsumer listens to payment settlement events and marks the
// corresponding bookings paid. This is the asynchronous half of the payment
// gating: a gateway PENDING outcome settles later through this path.
type PaymentEventConsumer struct {
	consumer *Consumer
	settler  PaymentSettler
	logger   *zap.Logger
}

// NewPaymentEventConsumer creates a new PaymentEventConsumer.
func NewPaymentEventConsumer(brokers []string, groupID string, settler PaymentSettler, logger *zap.Logger) *PaymentEventConsumer {
	return &PaymentEventConsumer{
		consumer: NewConsumer(brokers, groupID, TopicPaymentEvents, logger),
		settler:  settler,
		logger:   logger,
	}
}

// Start begins consuming payment events. This blocks until the context is cancelled.
func (c *PaymentEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *PaymentEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *PaymentEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	var ce CloudEvent
	if err := json.Unmarshal(msg.Value, &ce); err != nil {
		c.logger.Error("failed to parse cloud event from payment topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch ce.Type {
	case PaymentSettlementSucceeded:
		return c.handleSettlementSucceeded(ctx, ce)
	default:
		c.logger.Debug("ignoring unhandled payment event type",
			zap.String("type", ce.Type),
		)
		return nil
	}
}

func (c *PaymentEventConsumer) handleSettlementSucceeded(ctx context.Context, ce CloudEvent) error {
	var evt PaymentSettlementEvent
	if err := ce.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse payment settlement event data", zap.Error(err))
		return nil // Don't retry malformed data
	}

	c.logger.Info("processing payment settlement",
		zap.String("booking_id", evt.BookingID.String()),
		zap.String("transaction_id", evt.TransactionID),
	)

	if err := c.settler.SettlePayment(ctx, evt.BookingID); err != nil {
		c.logger.Error("failed to mark booking paid after settlement",
			zap.String("booking_id", evt.BookingID.String()),
			zap.Error(err),
		)
		return err
	}

	c.logger.Info("booking marked paid after settlement",
		zap.String("booking_id", evt.BookingID.String()),
	)
	return nil
}
