package application

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BengkelGo/service-marketplace/internal/domain"
	"github.com/BengkelGo/service-marketplace/internal/domain/booking"
	"github.com/BengkelGo/service-marketplace/internal/domain/quote"
	"github.com/BengkelGo/service-marketplace/internal/domain/refund"
	"github.com/BengkelGo/service-marketplace/internal/domain/workshop"
	"github.com/BengkelGo/service-marketplace/internal/notification"
	"github.com/BengkelGo/service-marketplace/internal/payment"
)

type bookingFixture struct {
	service   *BookingService
	bookings  *memBookings
	quotes    *memQuotes
	refunds   *memRefunds
	workshops *memWorkshops
	gateway   *payment.SimulatedGateway
	notifier  *recordingNotifier

	ownerID    uuid.UUID
	customerID uuid.UUID
	workshop   *workshop.Workshop
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()
	f := &bookingFixture{
		bookings:   newMemBookings(),
		quotes:     newMemQuotes(),
		refunds:    newMemRefunds(),
		gateway:    payment.NewSimulatedGateway(),
		notifier:   &recordingNotifier{},
		ownerID:    uuid.New(),
		customerID: uuid.New(),
	}
	f.workshop = testWorkshop(t, f.ownerID)
	f.workshops = newMemWorkshops(f.workshop)
	f.service = NewBookingService(f.bookings, f.quotes, f.refunds, f.workshops, f.gateway, f.notifier, zap.NewNop())
	return f
}

func (f *bookingFixture) seed(t *testing.T, bk *booking.Booking) {
	t.Helper()
	require.NoError(t, f.bookings.Save(context.Background(), bk))
}

func TestCreateBooking_NotifiesBothParties(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	dto, err := f.service.CreateBooking(ctx, f.customerID, CreateBookingRequest{
		WorkshopID:  f.workshop.ID(),
		VehicleName: "Honda Civic",
		ServiceType: "repair",
		Date:        "2026-09-01",
		Time:        "10:00",
	})
	require.NoError(t, err)
	assert.Equal(t, string(booking.StatusPending), dto.Status)
	assert.Equal(t, string(booking.StatusPending), dto.DisplayStatus)

	require.Equal(t, []string{notification.TypeBookingConfirmed, notification.TypeNewJobRequest}, f.notifier.types())
	assert.Equal(t, f.customerID, f.notifier.sent[0].UserID)
	assert.Equal(t, f.ownerID, f.notifier.sent[1].UserID)
}

func TestCreateBooking_UnknownWorkshop(t *testing.T) {
	f := newBookingFixture(t)

	_, err := f.service.CreateBooking(context.Background(), f.customerID, CreateBookingRequest{
		WorkshopID:  uuid.New(),
		VehicleName: "Honda Civic",
		ServiceType: "repair",
		Date:        "2026-09-01",
		Time:        "10:00",
	})
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
	assert.Empty(t, f.notifier.sent)
}

func TestAcceptBooking_OwnerOnly(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	bk := testBooking(t, f.customerID, f.workshop.ID())
	f.seed(t, bk)

	_, err := f.service.AcceptBooking(ctx, uuid.New(), bk.ID())
	require.Error(t, err)
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))

	dto, err := f.service.AcceptBooking(ctx, f.ownerID, bk.ID())
	require.NoError(t, err)
	assert.Equal(t, string(booking.StatusAccepted), dto.Status)
}

func TestPayBooking_SuccessMarksPaidAndAcceptsQuote(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	bk, q := quotedBooking(t, f.customerID, f.workshop.ID())
	f.seed(t, bk)
	require.NoError(t, f.quotes.Save(ctx, q))

	dto, err := f.service.PayBooking(ctx, f.customerID, bk.ID(), payment.MethodDetails{Method: "fpx"})
	require.NoError(t, err)
	assert.Equal(t, string(booking.StatusPaid), dto.Status)
	assert.NotNil(t, dto.PaidAt)

	stored, err := f.quotes.FindByID(ctx, q.ID())
	require.NoError(t, err)
	assert.Equal(t, quote.StatusAccepted, stored.Status())

	assert.Equal(t, []string{notification.TypePaymentSuccess, notification.TypePaymentReceived}, f.notifier.types())
}

func TestPayBooking_FailedLeavesBookingQuoted(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	bk, _ := quotedBooking(t, f.customerID, f.workshop.ID())
	f.seed(t, bk)
	f.gateway.Outcome = payment.StatusFailed

	_, err := f.service.PayBooking(ctx, f.customerID, bk.ID(), payment.MethodDetails{Method: "fpx"})
	require.Error(t, err)
	assert.Equal(t, domain.KindUpstream, domain.KindOf(err))

	stored, err := f.bookings.FindByID(ctx, bk.ID())
	require.NoError(t, err)
	assert.Equal(t, booking.StatusQuoted, stored.Status())
	assert.Empty(t, f.notifier.sent)
}

func TestPayBooking_PendingSettlesAsynchronously(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	bk, _ := quotedBooking(t, f.customerID, f.workshop.ID())
	f.seed(t, bk)
	f.gateway.Outcome = payment.StatusPending

	dto, err := f.service.PayBooking(ctx, f.customerID, bk.ID(), payment.MethodDetails{Method: "fpx"})
	require.NoError(t, err)
	assert.Equal(t, string(booking.StatusQuoted), dto.Status)
	assert.Empty(t, f.notifier.sent)

	require.NoError(t, f.service.SettlePayment(ctx, bk.ID()))
	stored, err := f.bookings.FindByID(ctx, bk.ID())
	require.NoError(t, err)
	assert.Equal(t, booking.StatusPaid, stored.Status())
	assert.Equal(t, []string{notification.TypePaymentSuccess, notification.TypePaymentReceived}, f.notifier.types())
}

func TestPayBooking_GatewayUnavailable(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	bk, _ := quotedBooking(t, f.customerID, f.workshop.ID())
	f.seed(t, bk)

	service := NewBookingService(f.bookings, f.quotes, f.refunds, f.workshops,
		errGateway{err: context.DeadlineExceeded}, f.notifier, zap.NewNop())

	_, err := service.PayBooking(ctx, f.customerID, bk.ID(), payment.MethodDetails{Method: "fpx"})
	require.Error(t, err)
	assert.Equal(t, domain.KindUpstream, domain.KindOf(err))
}

func TestPayBooking_WrongCustomer(t *testing.T) {
	f := newBookingFixture(t)
	bk, _ := quotedBooking(t, f.customerID, f.workshop.ID())
	f.seed(t, bk)

	_, err := f.service.PayBooking(context.Background(), uuid.New(), bk.ID(), payment.MethodDetails{Method: "fpx"})
	require.Error(t, err)
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))
}

func TestPayBooking_RequiresQuotedStatus(t *testing.T) {
	f := newBookingFixture(t)
	bk := testBooking(t, f.customerID, f.workshop.ID())
	f.seed(t, bk)

	_, err := f.service.PayBooking(context.Background(), f.customerID, bk.ID(), payment.MethodDetails{Method: "fpx"})
	require.Error(t, err)
	assert.Equal(t, domain.KindInvalidTransition, domain.KindOf(err))
}

func TestConfirmPickup_CompletesAndReleasesFunds(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	bk := paidBooking(t, f.customerID, f.workshop.ID())
	require.NoError(t, bk.StartRepair())
	require.NoError(t, bk.MarkReady())
	f.seed(t, bk)

	dto, err := f.service.ConfirmPickup(ctx, f.customerID, bk.ID())
	require.NoError(t, err)
	assert.Equal(t, string(booking.StatusCompleted), dto.Status)
	assert.NotNil(t, dto.CompletedAt)

	released := f.notifier.byType(notification.TypeEscrowReleased)
	require.NotNil(t, released)
	assert.Equal(t, f.ownerID, released.UserID)
}

func TestCancelBooking_BlockedAfterCapture(t *testing.T) {
	f := newBookingFixture(t)
	bk := paidBooking(t, f.customerID, f.workshop.ID())
	f.seed(t, bk)

	_, err := f.service.CancelBooking(context.Background(), f.customerID, bk.ID(), "changed plans")
	require.Error(t, err)
	assert.Equal(t, domain.KindInvalidTransition, domain.KindOf(err))
}

func TestCancelBooking_BeforeCaptureNotifiesOwner(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	bk := testBooking(t, f.customerID, f.workshop.ID())
	f.seed(t, bk)

	dto, err := f.service.CancelBooking(ctx, f.customerID, bk.ID(), "changed plans")
	require.NoError(t, err)
	assert.Equal(t, string(booking.StatusCancelled), dto.Status)
	assert.Equal(t, "changed plans", dto.CancelNote)

	cancelled := f.notifier.byType(notification.TypeBookingCancelled)
	require.NotNil(t, cancelled)
	assert.Equal(t, f.ownerID, cancelled.UserID)
}

func TestCancelBooking_FromQuoted_RejectsPendingQuote(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	bk, q := quotedBooking(t, f.customerID, f.workshop.ID())
	f.seed(t, bk)
	require.NoError(t, f.quotes.Save(ctx, q))

	dto, err := f.service.CancelBooking(ctx, f.customerID, bk.ID(), "found a cheaper shop")
	require.NoError(t, err)
	assert.Equal(t, string(booking.StatusCancelled), dto.Status)
	assert.Nil(t, dto.QuoteID)
	assert.Nil(t, dto.TotalAmount)

	stored, err := f.quotes.FindByID(ctx, q.ID())
	require.NoError(t, err)
	assert.Equal(t, quote.StatusRejected, stored.Status())

	_, err = f.quotes.FindActiveByBookingID(ctx, bk.ID())
	assert.True(t, domain.IsNotFound(err))
}

func TestForceCancelForRefund_BypassesTransitionTable(t *testing.T) {
	cases := []struct {
		name    string
		advance func(t *testing.T, bk *booking.Booking)
	}{
		{"paid", func(t *testing.T, bk *booking.Booking) {}},
		{"repairing", func(t *testing.T, bk *booking.Booking) {
			require.NoError(t, bk.StartRepair())
		}},
		{"ready", func(t *testing.T, bk *booking.Booking) {
			require.NoError(t, bk.StartRepair())
			require.NoError(t, bk.MarkReady())
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newBookingFixture(t)
			ctx := context.Background()
			bk := paidBooking(t, f.customerID, f.workshop.ID())
			tc.advance(t, bk)
			f.seed(t, bk)

			require.NoError(t, f.service.ForceCancelForRefund(ctx, bk.ID()))

			stored, err := f.bookings.FindByID(ctx, bk.ID())
			require.NoError(t, err)
			assert.Equal(t, booking.StatusCancelled, stored.Status())
			assert.Equal(t, "refund approved", stored.CancelNote())
		})
	}
}

func TestGetCustomerBookings_ViewFilters(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	active := testBooking(t, f.customerID, f.workshop.ID())
	done := completedBooking(t, f.customerID, f.workshop.ID())
	refunded := paidBooking(t, f.customerID, f.workshop.ID())
	f.seed(t, active)
	f.seed(t, done)
	f.seed(t, refunded)

	rc, err := refund.NewRefundCase(refunded.ID(), f.workshop.ID(), f.customerID, 84.80, "poor workmanship", "", "")
	require.NoError(t, err)
	require.NoError(t, rc.Resolve(refund.StatusApproved, "agreed"))
	require.NoError(t, f.refunds.Save(ctx, rc))

	page, err := f.service.GetCustomerBookings(ctx, f.customerID, "active", 1, 20)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, active.ID(), page.Items[0].ID)

	page, err = f.service.GetCustomerBookings(ctx, f.customerID, "history", 1, 20)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)

	var refundedDTO *BookingDTO
	for i := range page.Items {
		if page.Items[i].ID == refunded.ID() {
			refundedDTO = &page.Items[i]
		}
	}
	require.NotNil(t, refundedDTO)
	assert.Equal(t, DisplayStatusRefunded, refundedDTO.DisplayStatus)
	assert.Equal(t, string(booking.StatusPaid), refundedDTO.Status)

	page, err = f.service.GetCustomerBookings(ctx, f.customerID, "", 1, 20)
	require.NoError(t, err)
	assert.Len(t, page.Items, 3)
}

func TestGetWorkshopBookings_OwnerOnly(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	f.seed(t, testBooking(t, f.customerID, f.workshop.ID()))

	_, err := f.service.GetWorkshopBookings(ctx, uuid.New(), f.workshop.ID(), "", 1, 20)
	require.Error(t, err)
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))

	page, err := f.service.GetWorkshopBookings(ctx, f.ownerID, f.workshop.ID(), "", 1, 20)
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
}

func TestGetBookingStats(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	f.seed(t, testBooking(t, f.customerID, f.workshop.ID()))
	f.seed(t, testBooking(t, f.customerID, f.workshop.ID()))
	f.seed(t, completedBooking(t, f.customerID, f.workshop.ID()))

	stats, err := f.service.GetBookingStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalBookings)
	assert.Equal(t, int64(2), stats.ByStatus[string(booking.StatusPending)])
	assert.Equal(t, int64(1), stats.ByStatus[string(booking.StatusCompleted)])
}
