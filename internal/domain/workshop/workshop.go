package workshop

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/BengkelGo/service-marketplace/internal/domain"
)

// Workshop is a service provider profile. ownerID is mandatory: owner
// resolution is always by foreign key, never by name matching. The rating
// aggregate is maintained incrementally as reviews arrive.
type Workshop struct {
	id          uuid.UUID
	ownerID     uuid.UUID
	name        string
	address     string
	phone       string
	services    []string
	rating      float64
	reviewCount int64

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewWorkshop creates a workshop profile with no reviews yet.
func NewWorkshop(ownerID uuid.UUID, name, address, phone string, services []string) (*Workshop, error) {
	if ownerID == uuid.Nil {
		return nil, domain.NewValidationError("owner ID is required")
	}
	if name == "" {
		return nil, domain.NewValidationError("workshop name is required")
	}
	if address == "" {
		return nil, domain.NewValidationError("workshop address is required")
	}

	now := time.Now().UTC()
	return &Workshop{
		id:        uuid.New(),
		ownerID:   ownerID,
		name:      name,
		address:   address,
		phone:     phone,
		services:  services,
		version:   1,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// Reconstruct rebuilds a Workshop from persistence data (no validation).
func Reconstruct(
	id, ownerID uuid.UUID,
	name, address, phone string,
	services []string,
	rating float64,
	reviewCount int64,
	version int64,
	createdAt, updatedAt time.Time,
) *Workshop {
	return &Workshop{
		id:          id,
		ownerID:     ownerID,
		name:        name,
		address:     address,
		phone:       phone,
		services:    services,
		rating:      rating,
		reviewCount: reviewCount,
		version:     version,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

// --- Getters ---

func (w *Workshop) ID() uuid.UUID        { return w.id }
func (w *Workshop) OwnerID() uuid.UUID   { return w.ownerID }
func (w *Workshop) Name() string         { return w.name }
func (w *Workshop) Address() string      { return w.address }
func (w *Workshop) Phone() string        { return w.phone }
func (w *Workshop) Services() []string   { return w.services }
func (w *Workshop) Rating() float64      { return w.rating }
func (w *Workshop) ReviewCount() int64   { return w.reviewCount }
func (w *Workshop) Version() int64       { return w.version }
func (w *Workshop) CreatedAt() time.Time { return w.createdAt }
func (w *Workshop) UpdatedAt() time.Time { return w.updatedAt }

// IsOwnedBy checks if the workshop belongs to the given owner account.
func (w *Workshop) IsOwnedBy(ownerID uuid.UUID) bool {
	return w.ownerID == ownerID
}

// --- Behavior ---

// ApplyRating folds one new review rating into the aggregate without scanning
// the full review set: newAvg = (oldAvg*oldCount + rating) / (oldCount+1),
// rounded to one decimal.
func (w *Workshop) ApplyRating(rating int) {
	sum := w.rating*float64(w.reviewCount) + float64(rating)
	w.reviewCount++
	w.rating = math.Round(sum/float64(w.reviewCount)*10) / 10
	w.version++
	w.updatedAt = time.Now().UTC()
}

// UpdateProfile applies partial updates to the workshop profile.
func (w *Workshop) UpdateProfile(name, address, phone string, services []string) {
	if name != "" {
		w.name = name
	}
	if address != "" {
		w.address = address
	}
	if phone != "" {
		w.phone = phone
	}
	if services != nil {
		w.services = services
	}
	w.version++
	w.updatedAt = time.Now().UTC()
}
