package workshop

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the persistence contract for workshops.
type Repository interface {
	// FindByID retrieves a workshop by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Workshop, error)

	// FindByOwnerID retrieves the workshops registered by an owner account.
	FindByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]*Workshop, error)

	// ListAll retrieves workshops with pagination.
	ListAll(ctx context.Context, page, limit int) ([]*Workshop, int64, error)

	// Save persists a new workshop.
	Save(ctx context.Context, workshop *Workshop) error

	// Update persists changes to an existing workshop with optimistic locking.
	Update(ctx context.Context, workshop *Workshop) error
}
