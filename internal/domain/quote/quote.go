package quote

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/BengkelGo/service-marketplace/internal/domain"
)

// SSTRate is the Malaysian sales and service tax applied to the parts+labor
// subtotal of every quote.
const SSTRate = 0.06

// Status represents the lifecycle state of a quote.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// LineItem is a single priced part or service on a quote.
type LineItem struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// Quote is a priced proposal from a workshop for a specific booking. A booking
// has at most one active (pending) quote at a time. Rejected quotes are kept
// as an audit record; withdrawn quotes are deleted outright.
type Quote struct {
	id         uuid.UUID
	bookingID  uuid.UUID
	workshopID uuid.UUID
	items      []LineItem
	labor      float64
	tax        float64
	total      float64
	diagnosis  string
	note       string
	status     Status

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewQuote creates a pending quote, deriving tax and total from the items and
// labor. Tax is SSTRate of the parts+labor subtotal, rounded to cents.
func NewQuote(bookingID, workshopID uuid.UUID, items []LineItem, labor float64, diagnosis, note string) (*Quote, error) {
	if bookingID == uuid.Nil {
		return nil, domain.NewValidationError("booking ID is required")
	}
	if workshopID == uuid.Nil {
		return nil, domain.NewValidationError("workshop ID is required")
	}
	if len(items) == 0 && labor <= 0 {
		return nil, domain.NewValidationError("quote requires at least one item or a labor charge")
	}
	if labor < 0 {
		return nil, domain.NewValidationError("labor cannot be negative")
	}
	for _, it := range items {
		if it.Name == "" {
			return nil, domain.NewValidationError("quote item name is required")
		}
		if it.Price < 0 {
			return nil, domain.NewValidationError("quote item price cannot be negative")
		}
	}

	subtotal := labor
	for _, it := range items {
		subtotal += it.Price
	}
	tax := RoundToCents(subtotal * SSTRate)
	total := RoundToCents(subtotal + tax)

	now := time.Now().UTC()
	return &Quote{
		id:         uuid.New(),
		bookingID:  bookingID,
		workshopID: workshopID,
		items:      items,
		labor:      labor,
		tax:        tax,
		total:      total,
		diagnosis:  diagnosis,
		note:       note,
		status:     StatusPending,
		version:    1,
		createdAt:  now,
		updatedAt:  now,
	}, nil
}

// Reconstruct rebuilds a Quote from persistence data (no validation).
func Reconstruct(
	id, bookingID, workshopID uuid.UUID,
	items []LineItem,
	labor, tax, total float64,
	diagnosis, note string,
	status Status,
	version int64,
	createdAt, updatedAt time.Time,
) *Quote {
	return &Quote{
		id:         id,
		bookingID:  bookingID,
		workshopID: workshopID,
		items:      items,
		labor:      labor,
		tax:        tax,
		total:      total,
		diagnosis:  diagnosis,
		note:       note,
		status:     status,
		version:    version,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
	}
}

// --- Getters ---

func (q *Quote) ID() uuid.UUID         { return q.id }
func (q *Quote) BookingID() uuid.UUID  { return q.bookingID }
func (q *Quote) WorkshopID() uuid.UUID { return q.workshopID }
func (q *Quote) Items() []LineItem     { return q.items }
func (q *Quote) Labor() float64        { return q.labor }
func (q *Quote) Tax() float64          { return q.tax }
func (q *Quote) Total() float64        { return q.total }
func (q *Quote) Diagnosis() string     { return q.diagnosis }
func (q *Quote) Note() string          { return q.note }
func (q *Quote) Status() Status        { return q.status }
func (q *Quote) Version() int64        { return q.version }
func (q *Quote) CreatedAt() time.Time  { return q.createdAt }
func (q *Quote) UpdatedAt() time.Time  { return q.updatedAt }

// IsPending returns true while the quote awaits the customer's decision.
func (q *Quote) IsPending() bool { return q.status == StatusPending }

// --- Behavior ---

// Accept marks the quote accepted. Acceptance also happens implicitly when the
// booking advances to paid or beyond.
func (q *Quote) Accept() error {
	if q.status != StatusPending {
		return domain.NewConflictError("quote is not pending")
	}
	q.status = StatusAccepted
	q.touch()
	return nil
}

// Reject marks the quote rejected. The record is retained for audit.
func (q *Quote) Reject() error {
	if q.status != StatusPending {
		return domain.NewConflictError("quote is not pending")
	}
	q.status = StatusRejected
	q.touch()
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (q *Quote) IncrementVersion() {
	q.version++
	q.touch()
}

func (q *Quote) touch() {
	q.updatedAt = time.Now().UTC()
}

// RoundToCents rounds a monetary amount to two decimal places.
func RoundToCents(amount float64) float64 {
	return math.Round(amount*100) / 100
}
