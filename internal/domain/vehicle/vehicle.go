package vehicle

import (
	"time"

	"github.com/google/uuid"

	"github.com/BengkelGo/service-marketplace/internal/domain"
)

// Vehicle is a customer-owned vehicle profile. At most one vehicle per
// customer carries the primary flag; the swap is done atomically by the
// repository.
type Vehicle struct {
	id         uuid.UUID
	customerID uuid.UUID
	name       string
	plate      string
	model      string
	year       int
	isPrimary  bool

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewVehicle creates a vehicle profile for the given customer.
func NewVehicle(customerID uuid.UUID, name, plate, model string, year int, isPrimary bool) (*Vehicle, error) {
	if customerID == uuid.Nil {
		return nil, domain.NewValidationError("customer ID is required")
	}
	if name == "" {
		return nil, domain.NewValidationError("vehicle name is required")
	}
	if plate == "" {
		return nil, domain.NewValidationError("vehicle plate is required")
	}

	now := time.Now().UTC()
	return &Vehicle{
		id:         uuid.New(),
		customerID: customerID,
		name:       name,
		plate:      plate,
		model:      model,
		year:       year,
		isPrimary:  isPrimary,
		version:    1,
		createdAt:  now,
		updatedAt:  now,
	}, nil
}

// Reconstruct rebuilds a Vehicle from persistence data (no validation).
func Reconstruct(
	id, customerID uuid.UUID,
	name, plate, model string,
	year int,
	isPrimary bool,
	version int64,
	createdAt, updatedAt time.Time,
) *Vehicle {
	return &Vehicle{
		id:         id,
		customerID: customerID,
		name:       name,
		plate:      plate,
		model:      model,
		year:       year,
		isPrimary:  isPrimary,
		version:    version,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
	}
}

// --- Getters ---

func (v *Vehicle) ID() uuid.UUID         { return v.id }
func (v *Vehicle) CustomerID() uuid.UUID { return v.customerID }
func (v *Vehicle) Name() string          { return v.name }
func (v *Vehicle) Plate() string         { return v.plate }
func (v *Vehicle) Model() string         { return v.model }
func (v *Vehicle) Year() int             { return v.year }
func (v *Vehicle) IsPrimary() bool       { return v.isPrimary }
func (v *Vehicle) Version() int64        { return v.version }
func (v *Vehicle) CreatedAt() time.Time  { return v.createdAt }
func (v *Vehicle) UpdatedAt() time.Time  { return v.updatedAt }

// --- Behavior ---

// IsOwnedBy checks if the vehicle belongs to the given customer.
func (v *Vehicle) IsOwnedBy(customerID uuid.UUID) bool {
	return v.customerID == customerID
}

// Update applies partial updates to the vehicle profile.
func (v *Vehicle) Update(name, plate, model string, year int) {
	if name != "" {
		v.name = name
	}
	if plate != "" {
		v.plate = plate
	}
	if model != "" {
		v.model = model
	}
	if year > 0 {
		v.year = year
	}
	v.version++
	v.updatedAt = time.Now().UTC()
}
