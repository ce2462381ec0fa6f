package review

import (
	"time"

	"github.com/google/uuid"

	"github.com/BengkelGo/service-marketplace/internal/domain"
)

// Review is a customer's feedback on a completed booking. At most one review
// exists per booking; the owner may reply at most once.
type Review struct {
	id                 uuid.UUID
	bookingID          uuid.UUID
	workshopID         uuid.UUID
	customerID         uuid.UUID
	rating             int
	pricingRating      int
	attitudeRating     int
	professionalRating int
	comment            string
	reply              string
	repliedAt          *time.Time

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewReview creates a review with all four rating dimensions validated to 1-5.
func NewReview(bookingID, workshopID, customerID uuid.UUID, rating, pricingRating, attitudeRating, professionalRating int, comment string) (*Review, error) {
	if bookingID == uuid.Nil {
		return nil, domain.NewValidationError("booking ID is required")
	}
	if workshopID == uuid.Nil {
		return nil, domain.NewValidationError("workshop ID is required")
	}
	if customerID == uuid.Nil {
		return nil, domain.NewValidationError("customer ID is required")
	}
	for _, r := range []int{rating, pricingRating, attitudeRating, professionalRating} {
		if r < 1 || r > 5 {
			return nil, domain.NewValidationError("ratings must be between 1 and 5")
		}
	}

	now := time.Now().UTC()
	return &Review{
		id:                 uuid.New(),
		bookingID:          bookingID,
		workshopID:         workshopID,
		customerID:         customerID,
		rating:             rating,
		pricingRating:      pricingRating,
		attitudeRating:     attitudeRating,
		professionalRating: professionalRating,
		comment:            comment,
		version:            1,
		createdAt:          now,
		updatedAt:          now,
	}, nil
}

// Reconstruct rebuilds a Review from persistence data (no validation).
func Reconstruct(
	id, bookingID, workshopID, customerID uuid.UUID,
	rating, pricingRating, attitudeRating, professionalRating int,
	comment, reply string,
	repliedAt *time.Time,
	version int64,
	createdAt, updatedAt time.Time,
) *Review {
	return &Review{
		id:                 id,
		bookingID:          bookingID,
		workshopID:         workshopID,
		customerID:         customerID,
		rating:             rating,
		pricingRating:      pricingRating,
		attitudeRating:     attitudeRating,
		professionalRating: professionalRating,
		comment:            comment,
		reply:              reply,
		repliedAt:          repliedAt,
		version:            version,
		createdAt:          createdAt,
		updatedAt:          updatedAt,
	}
}

// --- Getters ---

func (r *Review) ID() uuid.UUID           { return r.id }
func (r *Review) BookingID() uuid.UUID    { return r.bookingID }
func (r *Review) WorkshopID() uuid.UUID   { return r.workshopID }
func (r *Review) CustomerID() uuid.UUID   { return r.customerID }
func (r *Review) Rating() int             { return r.rating }
func (r *Review) PricingRating() int      { return r.pricingRating }
func (r *Review) AttitudeRating() int     { return r.attitudeRating }
func (r *Review) ProfessionalRating() int { return r.professionalRating }
func (r *Review) Comment() string         { return r.comment }
func (r *Review) Reply() string           { return r.reply }
func (r *Review) RepliedAt() *time.Time   { return r.repliedAt }
func (r *Review) Version() int64          { return r.version }
func (r *Review) CreatedAt() time.Time    { return r.createdAt }
func (r *Review) UpdatedAt() time.Time    { return r.updatedAt }

// --- Behavior ---

// AddReply records the owner's reply. A second reply is a conflict.
func (r *Review) AddReply(text string) error {
	if text == "" {
		return domain.NewValidationError("reply text is required")
	}
	if r.repliedAt != nil {
		return domain.NewConflictError("review already has a reply")
	}
	now := time.Now().UTC()
	r.reply = text
	r.repliedAt = &now
	r.updatedAt = now
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (r *Review) IncrementVersion() {
	r.version++
	r.updatedAt = time.Now().UTC()
}
