package application

import (
	"github.com/BengkelGo/service-marketplace/internal/domain/booking"
	"github.com/BengkelGo/service-marketplace/internal/domain/refund"
)

// DisplayStatusRefunded is the view-only status shown in place of the stored
// booking status once a refund case is approved.
const DisplayStatusRefunded = "refunded"

// DeriveDisplayStatus computes the status booking lists show. An approved
// refund overrides the stored status with "refunded"; a completed refund shows
// "completed". Everything else shows the stored status unchanged.
func DeriveDisplayStatus(status booking.Status, rc *refund.RefundCase) string {
	if rc != nil {
		switch rc.Status() {
		case refund.StatusApproved:
			return DisplayStatusRefunded
		case refund.StatusCompleted:
			return string(booking.StatusCompleted)
		}
	}
	return string(status)
}

// IsActiveBooking decides list membership: a booking with an approved or
// completed refund never appears in active lists, nor does one in a terminal
// status.
func IsActiveBooking(status booking.Status, rc *refund.RefundCase) bool {
	if rc != nil {
		switch rc.Status() {
		case refund.StatusApproved, refund.StatusCompleted:
			return false
		}
	}
	return !status.IsTerminal()
}
