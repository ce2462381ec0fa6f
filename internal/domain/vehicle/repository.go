package vehicle

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the persistence contract for vehicles.
type Repository interface {
	// FindByID retrieves a vehicle by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Vehicle, error)

	// FindByCustomerID retrieves all vehicles belonging to a customer.
	FindByCustomerID(ctx context.Context, customerID uuid.UUID) ([]*Vehicle, error)

	// CountByCustomerID returns how many vehicles a customer has registered.
	CountByCustomerID(ctx context.Context, customerID uuid.UUID) (int64, error)

	// Save persists a new vehicle.
	Save(ctx context.Context, vehicle *Vehicle) error

	// Update persists changes to an existing vehicle with optimistic locking.
	Update(ctx context.Context, vehicle *Vehicle) error

	// Delete removes a vehicle profile.
	Delete(ctx context.Context, id uuid.UUID) error

	// SetPrimary atomically makes the given vehicle the customer's primary one,
	// clearing the flag on every other vehicle of the same customer in the same
	// transaction. There are never two primaries.
	SetPrimary(ctx context.Context, customerID, vehicleID uuid.UUID) error
}
