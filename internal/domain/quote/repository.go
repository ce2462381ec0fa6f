package quote

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the persistence contract for quotes.
type Repository interface {
	// FindByID retrieves a quote by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Quote, error)

	// FindActiveByBookingID retrieves the pending quote for a booking, if any.
	FindActiveByBookingID(ctx context.Context, bookingID uuid.UUID) (*Quote, error)

	// FindByBookingID retrieves the most recent quote for a booking regardless
	// of status.
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*Quote, error)

	// Save persists a new quote.
	Save(ctx context.Context, quote *Quote) error

	// Update persists changes to an existing quote with optimistic locking.
	Update(ctx context.Context, quote *Quote) error

	// Delete removes a withdrawn quote entirely.
	Delete(ctx context.Context, id uuid.UUID) error
}
