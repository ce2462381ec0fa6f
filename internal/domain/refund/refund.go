package refund

import (
	"time"

	"github.com/google/uuid"

	"github.com/BengkelGo/service-marketplace/internal/domain"
)

// Author roles for case comments.
const (
	AuthorUser  = "user"
	AuthorOwner = "owner"
)

// TimelineEntry is one append-only step in a refund case's history.
type TimelineEntry struct {
	Status      Status    `json:"status"`
	Label       string    `json:"label"`
	Timestamp   time.Time `json:"timestamp"`
	Description string    `json:"description,omitempty"`
}

// Comment is a free-form message attached to a case by either party.
type Comment struct {
	ID         uuid.UUID `json:"id"`
	AuthorRole string    `json:"authorRole"`
	Text       string    `json:"text"`
	Timestamp  time.Time `json:"timestamp"`
}

// RefundCase is a dispute opened by a customer against a paid booking. The
// timeline and comments are append-only; entries are never reordered or
// truncated.
type RefundCase struct {
	id          uuid.UUID
	bookingID   uuid.UUID
	workshopID  uuid.UUID
	customerID  uuid.UUID
	amount      float64
	reason      string
	description string
	evidence    string
	status      Status
	timeline    []TimelineEntry
	comments    []Comment

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewRefundCase opens a case with status=requested and a single timeline entry.
// The linked booking is not touched at creation time.
func NewRefundCase(bookingID, workshopID, customerID uuid.UUID, amount float64, reason, description, evidence string) (*RefundCase, error) {
	if bookingID == uuid.Nil {
		return nil, domain.NewValidationError("booking ID is required")
	}
	if workshopID == uuid.Nil {
		return nil, domain.NewValidationError("workshop ID is required")
	}
	if customerID == uuid.Nil {
		return nil, domain.NewValidationError("customer ID is required")
	}
	if amount <= 0 {
		return nil, domain.NewValidationError("refund amount must be positive")
	}
	if reason == "" {
		return nil, domain.NewValidationError("refund reason is required")
	}

	now := time.Now().UTC()
	return &RefundCase{
		id:          uuid.New(),
		bookingID:   bookingID,
		workshopID:  workshopID,
		customerID:  customerID,
		amount:      amount,
		reason:      reason,
		description: description,
		evidence:    evidence,
		status:      StatusRequested,
		timeline: []TimelineEntry{{
			Status:    StatusRequested,
			Label:     "Refund Requested",
			Timestamp: now,
		}},
		version:   1,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// Reconstruct rebuilds a RefundCase from persistence data (no validation).
func Reconstruct(
	id, bookingID, workshopID, customerID uuid.UUID,
	amount float64,
	reason, description, evidence string,
	status Status,
	timeline []TimelineEntry,
	comments []Comment,
	version int64,
	createdAt, updatedAt time.Time,
) *RefundCase {
	return &RefundCase{
		id:          id,
		bookingID:   bookingID,
		workshopID:  workshopID,
		customerID:  customerID,
		amount:      amount,
		reason:      reason,
		description: description,
		evidence:    evidence,
		status:      status,
		timeline:    timeline,
		comments:    comments,
		version:     version,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

// --- Getters ---

func (r *RefundCase) ID() uuid.UUID             { return r.id }
func (r *RefundCase) BookingID() uuid.UUID      { return r.bookingID }
func (r *RefundCase) WorkshopID() uuid.UUID     { return r.workshopID }
func (r *RefundCase) CustomerID() uuid.UUID     { return r.customerID }
func (r *RefundCase) Amount() float64           { return r.amount }
func (r *RefundCase) Reason() string            { return r.reason }
func (r *RefundCase) Description() string       { return r.description }
func (r *RefundCase) Evidence() string          { return r.evidence }
func (r *RefundCase) Status() Status            { return r.status }
func (r *RefundCase) Timeline() []TimelineEntry { return r.timeline }
func (r *RefundCase) Comments() []Comment       { return r.comments }
func (r *RefundCase) Version() int64            { return r.version }
func (r *RefundCase) CreatedAt() time.Time      { return r.createdAt }
func (r *RefundCase) UpdatedAt() time.Time      { return r.updatedAt }

// --- Behavior ---

// Resolve records the shop's final decision. It appends exactly two timeline
// entries, in order: the shop's response, then the resolution. Resolution must
// be approved or rejected; resolving an already-resolved case is a conflict.
func (r *RefundCase) Resolve(resolution Status, shopMessage string) error {
	if resolution != StatusApproved && resolution != StatusRejected {
		return domain.NewValidationError("resolution must be approved or rejected")
	}
	if r.status.IsResolved() {
		return domain.NewConflictError("refund case is already resolved")
	}

	now := time.Now().UTC()
	r.timeline = append(r.timeline, TimelineEntry{
		Status:      StatusShopResponded,
		Label:       "Shop Responded",
		Timestamp:   now,
		Description: shopMessage,
	})
	r.timeline = append(r.timeline, TimelineEntry{
		Status:      resolution,
		Label:       resolutionLabel(resolution),
		Timestamp:   now,
		Description: resolutionDescription(resolution),
	})
	r.status = resolution
	r.updatedAt = now
	return nil
}

// AddComment appends a comment. Comments never affect status or timeline and
// remain open after resolution so the parties can keep talking.
func (r *RefundCase) AddComment(authorRole, text string) (*Comment, error) {
	if authorRole != AuthorUser && authorRole != AuthorOwner {
		return nil, domain.NewValidationError("comment author role must be user or owner")
	}
	if text == "" {
		return nil, domain.NewValidationError("comment text is required")
	}
	now := time.Now().UTC()
	c := Comment{
		ID:         uuid.New(),
		AuthorRole: authorRole,
		Text:       text,
		Timestamp:  now,
	}
	r.comments = append(r.comments, c)
	r.updatedAt = now
	return &c, nil
}

// IncrementVersion bumps the version for optimistic locking.
func (r *RefundCase) IncrementVersion() {
	r.version++
	r.updatedAt = time.Now().UTC()
}

func resolutionLabel(resolution Status) string {
	if resolution == StatusApproved {
		return "Refund Approved"
	}
	return "Refund Rejected"
}

func resolutionDescription(resolution Status) string {
	if resolution == StatusApproved {
		return "The refund has been approved and the payment will be returned to the customer."
	}
	return "The refund request was rejected by the workshop."
}
