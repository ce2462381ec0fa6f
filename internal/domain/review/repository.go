package review

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the persistence contract for reviews.
type Repository interface {
	// FindByID retrieves a review by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Review, error)

	// FindByBookingID retrieves the review for a booking, if one exists.
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*Review, error)

	// FindByWorkshopID retrieves reviews for a workshop with pagination.
	FindByWorkshopID(ctx context.Context, workshopID uuid.UUID, page, limit int) ([]*Review, int64, error)

	// Save persists a new review.
	Save(ctx context.Context, review *Review) error

	// Update persists changes to an existing review with optimistic locking.
	Update(ctx context.Context, review *Review) error
}
