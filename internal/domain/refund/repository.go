package refund

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the persistence contract for refund cases.
type Repository interface {
	// FindByID retrieves a refund case by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*RefundCase, error)

	// FindByBookingID retrieves the most recent refund case for a booking.
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*RefundCase, error)

	// FindByWorkshopID retrieves refund cases against a workshop with pagination.
	FindByWorkshopID(ctx context.Context, workshopID uuid.UUID, page, limit int) ([]*RefundCase, int64, error)

	// Save persists a new refund case.
	Save(ctx context.Context, rc *RefundCase) error

	// Update persists changes to an existing refund case with optimistic locking.
	Update(ctx context.Context, rc *RefundCase) error
}
