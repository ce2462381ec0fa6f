package booking

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BengkelGo/service-marketplace/internal/domain"
)

func newTestBooking(t *testing.T) *Booking {
	t.Helper()
	bk, err := NewBooking(
		uuid.New(), uuid.New(),
		"Honda Civic", "WXY 1234", "repair",
		[]string{"Engine Diagnostic"},
		"2026-09-15", "10:00 AM",
	)
	require.NoError(t, err)
	return bk
}

func TestNewBooking_StartsPending(t *testing.T) {
	bk := newTestBooking(t)
	assert.Equal(t, StatusPending, bk.Status())
	assert.Equal(t, int64(1), bk.Version())
	assert.NotEqual(t, uuid.Nil, bk.ID())
}

func TestNewBooking_Validation(t *testing.T) {
	_, err := NewBooking(uuid.Nil, uuid.New(), "Car", "ABC", "repair", nil, "2026-09-15", "10:00 AM")
	assert.True(t, domain.KindOf(err) == domain.KindValidation)

	_, err = NewBooking(uuid.New(), uuid.New(), "", "ABC", "repair", nil, "2026-09-15", "10:00 AM")
	assert.True(t, domain.KindOf(err) == domain.KindValidation)

	_, err = NewBooking(uuid.New(), uuid.New(), "Car", "ABC", "repair", nil, "", "")
	assert.True(t, domain.KindOf(err) == domain.KindValidation)
}

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusPending, StatusAccepted, true},
		{StatusPending, StatusQuoted, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusPaid, false},
		{StatusAccepted, StatusRepairing, true},
		{StatusAccepted, StatusCancelled, true},
		{StatusAccepted, StatusReady, false},
		{StatusQuoted, StatusAccepted, true},
		{StatusQuoted, StatusPaid, true},
		{StatusQuoted, StatusPending, true},
		{StatusQuoted, StatusCancelled, true},
		{StatusQuoted, StatusRepairing, false},
		{StatusPaid, StatusRepairing, true},
		{StatusPaid, StatusCancelled, false},
		{StatusRepairing, StatusReady, true},
		{StatusRepairing, StatusCancelled, false},
		{StatusReady, StatusCompleted, true},
		{StatusCompleted, StatusCancelled, false},
		{StatusRejected, StatusPending, false},
		{StatusCancelled, StatusPending, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestStatus_Terminal(t *testing.T) {
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusRejected.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, StatusPaid.IsTerminal())
}

func TestStatus_PaymentCaptured(t *testing.T) {
	assert.True(t, StatusPaid.PaymentCaptured())
	assert.True(t, StatusRepairing.PaymentCaptured())
	assert.True(t, StatusReady.PaymentCaptured())
	assert.False(t, StatusQuoted.PaymentCaptured())
	assert.False(t, StatusCompleted.PaymentCaptured())
}

func TestBooking_QuoteCycle(t *testing.T) {
	bk := newTestBooking(t)
	quoteID := uuid.New()

	require.NoError(t, bk.AttachQuote(quoteID, 84.80))
	assert.Equal(t, StatusQuoted, bk.Status())
	require.NotNil(t, bk.TotalAmount())
	assert.Equal(t, 84.80, *bk.TotalAmount())
	require.NotNil(t, bk.QuoteID())
	assert.Equal(t, quoteID, *bk.QuoteID())

	require.NoError(t, bk.ClearQuote())
	assert.Equal(t, StatusPending, bk.Status())
	assert.Nil(t, bk.TotalAmount())
	assert.Nil(t, bk.QuoteID())
}

func TestBooking_PayThenComplete(t *testing.T) {
	bk := newTestBooking(t)
	require.NoError(t, bk.AttachQuote(uuid.New(), 120.0))
	require.NoError(t, bk.MarkPaid())
	assert.Equal(t, StatusPaid, bk.Status())
	assert.NotNil(t, bk.PaidAt())

	require.NoError(t, bk.StartRepair())
	require.NoError(t, bk.MarkReady())
	require.NoError(t, bk.Complete())
	assert.Equal(t, StatusCompleted, bk.Status())
	assert.NotNil(t, bk.CompletedAt())
}

func TestBooking_MarkPaidFromPending_Fails(t *testing.T) {
	bk := newTestBooking(t)
	err := bk.MarkPaid()
	assert.Equal(t, domain.KindInvalidTransition, domain.KindOf(err))
	assert.Equal(t, StatusPending, bk.Status())
}

func TestBooking_CancelFromQuoted_DropsQuote(t *testing.T) {
	bk := newTestBooking(t)
	require.NoError(t, bk.AttachQuote(uuid.New(), 84.80))

	require.NoError(t, bk.Cancel("changed plans"))
	assert.Equal(t, StatusCancelled, bk.Status())
	assert.Nil(t, bk.QuoteID())
	assert.Nil(t, bk.TotalAmount())
}

func TestBooking_CancelAfterCapture_Fails(t *testing.T) {
	bk := newTestBooking(t)
	require.NoError(t, bk.AttachQuote(uuid.New(), 100))
	require.NoError(t, bk.MarkPaid())

	err := bk.Cancel("changed my mind")
	assert.Equal(t, domain.KindInvalidTransition, domain.KindOf(err))
	assert.Equal(t, StatusPaid, bk.Status())
}

func TestBooking_ForceCancel_BypassesTable(t *testing.T) {
	bk := newTestBooking(t)
	require.NoError(t, bk.AttachQuote(uuid.New(), 100))
	require.NoError(t, bk.MarkPaid())
	require.NoError(t, bk.StartRepair())

	bk.ForceCancel("refund approved")
	assert.Equal(t, StatusCancelled, bk.Status())
	assert.NotNil(t, bk.CancelledAt())
	assert.Equal(t, "refund approved", bk.CancelNote())

	// Idempotent on an already cancelled booking.
	cancelledAt := bk.CancelledAt()
	bk.ForceCancel("again")
	assert.Equal(t, cancelledAt, bk.CancelledAt())
	assert.Equal(t, "refund approved", bk.CancelNote())
}

func TestBooking_Reject(t *testing.T) {
	bk := newTestBooking(t)
	require.NoError(t, bk.Reject("fully booked"))
	assert.Equal(t, StatusRejected, bk.Status())
	assert.Equal(t, "fully booked", bk.CancelNote())
}
