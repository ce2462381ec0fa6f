package booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/BengkelGo/service-marketplace/internal/domain"
)

// Booking is the aggregate root for a customer's service request against a
// workshop. Status changes go through the transition table in
// booking_status.go; the only exception is ForceCancel, used when an approved
// refund voids the job.
type Booking struct {
	id           uuid.UUID
	customerID   uuid.UUID
	workshopID   uuid.UUID
	vehicleName  string
	vehiclePlate string
	serviceType  string
	services     []string
	date         string
	timeSlot     string
	status       Status

	totalAmount *float64
	quoteID     *uuid.UUID

	cancelNote  string
	cancelledAt *time.Time
	paidAt      *time.Time
	completedAt *time.Time

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewBooking creates a new Booking aggregate with status=pending. The id is
// always assigned here; caller-supplied ids are never trusted.
func NewBooking(
	customerID uuid.UUID,
	workshopID uuid.UUID,
	vehicleName, vehiclePlate, serviceType string,
	services []string,
	date, timeSlot string,
) (*Booking, error) {
	if customerID == uuid.Nil {
		return nil, domain.NewValidationError("customer ID is required")
	}
	if workshopID == uuid.Nil {
		return nil, domain.NewValidationError("workshop ID is required")
	}
	if vehicleName == "" {
		return nil, domain.NewValidationError("vehicle name is required")
	}
	if serviceType == "" {
		return nil, domain.NewValidationError("service type is required")
	}
	if date == "" || timeSlot == "" {
		return nil, domain.NewValidationError("date and time are required")
	}

	now := time.Now().UTC()
	return &Booking{
		id:           uuid.New(),
		customerID:   customerID,
		workshopID:   workshopID,
		vehicleName:  vehicleName,
		vehiclePlate: vehiclePlate,
		serviceType:  serviceType,
		services:     services,
		date:         date,
		timeSlot:     timeSlot,
		status:       StatusPending,
		version:      1,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// Reconstruct rebuilds a Booking from persistence data (no validation).
func Reconstruct(
	id, customerID, workshopID uuid.UUID,
	vehicleName, vehiclePlate, serviceType string,
	services []string,
	date, timeSlot string,
	status Status,
	totalAmount *float64,
	quoteID *uuid.UUID,
	cancelNote string,
	cancelledAt, paidAt, completedAt *time.Time,
	version int64,
	createdAt, updatedAt time.Time,
) *Booking {
	return &Booking{
		id:           id,
		customerID:   customerID,
		workshopID:   workshopID,
		vehicleName:  vehicleName,
		vehiclePlate: vehiclePlate,
		serviceType:  serviceType,
		services:     services,
		date:         date,
		timeSlot:     timeSlot,
		status:       status,
		totalAmount:  totalAmount,
		quoteID:      quoteID,
		cancelNote:   cancelNote,
		cancelledAt:  cancelledAt,
		paidAt:       paidAt,
		completedAt:  completedAt,
		version:      version,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// CustomerID returns the requesting customer's user ID.
func (b *Booking) CustomerID() uuid.UUID { return b.customerID }

// WorkshopID returns the workshop the booking is placed against.
func (b *Booking) WorkshopID() uuid.UUID { return b.workshopID }

// VehicleName returns the vehicle description given at creation.
func (b *Booking) VehicleName() string { return b.vehicleName }

// VehiclePlate returns the vehicle plate, if provided.
func (b *Booking) VehiclePlate() string { return b.vehiclePlate }

// ServiceType returns the requested service category.
func (b *Booking) ServiceType() string { return b.serviceType }

// Services returns the requested service items in request order.
func (b *Booking) Services() []string { return b.services }

// Date returns the requested service date.
func (b *Booking) Date() string { return b.date }

// TimeSlot returns the requested service time.
func (b *Booking) TimeSlot() string { return b.timeSlot }

// Status returns the current booking status.
func (b *Booking) Status() Status { return b.status }

// TotalAmount returns the quoted amount, or nil while no quote is attached.
func (b *Booking) TotalAmount() *float64 { return b.totalAmount }

// QuoteID returns the active quote's ID, or nil.
func (b *Booking) QuoteID() *uuid.UUID { return b.quoteID }

// CancelNote returns the cancellation reason.
func (b *Booking) CancelNote() string { return b.cancelNote }

// CancelledAt returns the cancellation time.
func (b *Booking) CancelledAt() *time.Time { return b.cancelledAt }

// PaidAt returns the time payment was captured.
func (b *Booking) PaidAt() *time.Time { return b.paidAt }

// CompletedAt returns the time the customer confirmed pickup.
func (b *Booking) CompletedAt() *time.Time { return b.completedAt }

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// --- Behavior ---

// AttachQuote transitions pending->quoted as the side effect of quote creation,
// recording the quote reference and total.
func (b *Booking) AttachQuote(quoteID uuid.UUID, total float64) error {
	if !b.status.CanTransitionTo(StatusQuoted) {
		return domain.NewInvalidTransitionError(string(b.status), string(StatusQuoted))
	}
	b.status = StatusQuoted
	b.quoteID = &quoteID
	b.totalAmount = &total
	b.touch()
	return nil
}

// ClearQuote transitions quoted->pending when the active quote is withdrawn or
// rejected, clearing the quote reference and total.
func (b *Booking) ClearQuote() error {
	if !b.status.CanTransitionTo(StatusPending) {
		return domain.NewInvalidTransitionError(string(b.status), string(StatusPending))
	}
	b.status = StatusPending
	b.quoteID = nil
	b.totalAmount = nil
	b.touch()
	return nil
}

// Accept transitions pending->accepted (owner direct-accept without a quote)
// or quoted->accepted (customer accepts the quote).
func (b *Booking) Accept() error {
	if !b.status.CanTransitionTo(StatusAccepted) {
		return domain.NewInvalidTransitionError(string(b.status), string(StatusAccepted))
	}
	b.status = StatusAccepted
	b.touch()
	return nil
}

// Reject transitions pending->rejected when the owner declines the request.
func (b *Booking) Reject(reason string) error {
	if !b.status.CanTransitionTo(StatusRejected) {
		return domain.NewInvalidTransitionError(string(b.status), string(StatusRejected))
	}
	b.status = StatusRejected
	b.cancelNote = reason
	b.touch()
	return nil
}

// MarkPaid transitions quoted->paid after a successful payment capture.
func (b *Booking) MarkPaid() error {
	if !b.status.CanTransitionTo(StatusPaid) {
		return domain.NewInvalidTransitionError(string(b.status), string(StatusPaid))
	}
	now := time.Now().UTC()
	b.status = StatusPaid
	b.paidAt = &now
	b.updatedAt = now
	return nil
}

// StartRepair transitions accepted|paid->repairing.
func (b *Booking) StartRepair() error {
	if !b.status.CanTransitionTo(StatusRepairing) {
		return domain.NewInvalidTransitionError(string(b.status), string(StatusRepairing))
	}
	b.status = StatusRepairing
	b.touch()
	return nil
}

// MarkReady transitions repairing->ready.
func (b *Booking) MarkReady() error {
	if !b.status.CanTransitionTo(StatusReady) {
		return domain.NewInvalidTransitionError(string(b.status), string(StatusReady))
	}
	b.status = StatusReady
	b.touch()
	return nil
}

// Complete transitions ready->completed when the customer confirms pickup,
// releasing the held payment to the workshop.
func (b *Booking) Complete() error {
	if !b.status.CanTransitionTo(StatusCompleted) {
		return domain.NewInvalidTransitionError(string(b.status), string(StatusCompleted))
	}
	now := time.Now().UTC()
	b.status = StatusCompleted
	b.completedAt = &now
	b.updatedAt = now
	return nil
}

// Cancel transitions the booking to cancelled if the customer may still back
// out (pending, accepted or quoted). Cancelling from quoted drops the quote
// reference and total: a cancelled booking carries no active quote.
func (b *Booking) Cancel(reason string) error {
	if !b.status.CanBeCancelled() {
		return domain.NewInvalidTransitionError(string(b.status), string(StatusCancelled))
	}
	if b.status == StatusQuoted {
		b.quoteID = nil
		b.totalAmount = nil
	}
	b.cancel(reason)
	return nil
}

// ForceCancel voids the booking when a refund case is approved. It bypasses
// the transition table: an approved refund overrides whatever state the job
// was in. Cancelling an already-cancelled booking is a no-op.
func (b *Booking) ForceCancel(reason string) {
	if b.status == StatusCancelled {
		return
	}
	b.cancel(reason)
}

func (b *Booking) cancel(reason string) {
	now := time.Now().UTC()
	b.status = StatusCancelled
	b.cancelNote = reason
	b.cancelledAt = &now
	b.updatedAt = now
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
	b.updatedAt = time.Now().UTC()
}

func (b *Booking) touch() {
	b.updatedAt = time.Now().UTC()
}
