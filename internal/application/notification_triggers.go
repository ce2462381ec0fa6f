package application

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/BengkelGo/service-marketplace/internal/domain/booking"
	"github.com/BengkelGo/service-marketplace/internal/notification"
)

// TransitionNotifications maps a booking status transition to the
// notifications it triggers. The mapping is pure and deterministic: the same
// transition always produces the same events, fired synchronously by the
// engine call that caused it.
func TransitionNotifications(prev, next booking.Status, b *booking.Booking, ownerID uuid.UUID) []notification.Notification {
	bookingID := b.ID()
	var out []notification.Notification

	toCustomer := func(typ, title, message string) {
		out = append(out, notification.Notification{
			UserID:           b.CustomerID(),
			Role:             notification.RoleCustomer,
			Type:             typ,
			RelatedBookingID: &bookingID,
			Title:            title,
			Message:          message,
		})
	}
	toOwner := func(typ, title, message string) {
		out = append(out, notification.Notification{
			UserID:           ownerID,
			Role:             notification.RoleOwner,
			Type:             typ,
			RelatedBookingID: &bookingID,
			Title:            title,
			Message:          message,
		})
	}

	switch next {
	case booking.StatusPaid:
		toCustomer(notification.TypePaymentSuccess,
			"Payment Successful",
			fmt.Sprintf("Your payment of %s for %s has been received and is held until pickup.", formatAmount(b.TotalAmount()), b.VehicleName()))
		toOwner(notification.TypePaymentReceived,
			"Payment Received",
			fmt.Sprintf("Payment of %s received for %s. You can start the repair.", formatAmount(b.TotalAmount()), b.VehicleName()))

	case booking.StatusAccepted:
		if prev == booking.StatusQuoted {
			toCustomer(notification.TypeQuoteAccepted,
				"Quote Accepted",
				fmt.Sprintf("You accepted the quote of %s for %s.", formatAmount(b.TotalAmount()), b.VehicleName()))
			toOwner(notification.TypeQuoteApproved,
				"Quote Approved",
				fmt.Sprintf("The customer approved your quote of %s for %s.", formatAmount(b.TotalAmount()), b.VehicleName()))
		}

	case booking.StatusRepairing:
		toCustomer(notification.TypeRepairStarted,
			"Repair Started",
			fmt.Sprintf("The workshop has started working on %s.", b.VehicleName()))

	case booking.StatusReady:
		toCustomer(notification.TypePickupReady,
			"Vehicle Ready for Pickup",
			fmt.Sprintf("%s is ready. Confirm pickup to release the payment.", b.VehicleName()))

	case booking.StatusCompleted:
		toOwner(notification.TypeEscrowReleased,
			"Funds Released",
			fmt.Sprintf("The customer confirmed pickup of %s. %s has been released to you.", b.VehicleName(), formatAmount(b.TotalAmount())))

	case booking.StatusCancelled:
		// Cancellations out of paid/repairing/ready only happen through an
		// approved refund; the refund engine sends its own notifications.
		if prev == booking.StatusPending || prev == booking.StatusAccepted || prev == booking.StatusQuoted {
			toOwner(notification.TypeBookingCancelled,
				"Booking Cancelled",
				fmt.Sprintf("The customer cancelled the booking for %s.", b.VehicleName()))
		}
	}

	return out
}

func formatAmount(amount *float64) string {
	if amount == nil {
		return "RM 0.00"
	}
	return fmt.Sprintf("RM %.2f", *amount)
}
