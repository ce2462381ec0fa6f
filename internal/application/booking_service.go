package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BengkelGo/service-marketplace/internal/domain"
	"github.com/BengkelGo/service-marketplace/internal/domain/booking"
	"github.com/BengkelGo/service-marketplace/internal/domain/quote"
	"github.com/BengkelGo/service-marketplace/internal/domain/refund"
	"github.com/BengkelGo/service-marketplace/internal/domain/workshop"
	"github.com/BengkelGo/service-marketplace/internal/notification"
	"github.com/BengkelGo/service-marketplace/internal/payment"
)

// CreateBookingRequest holds the data needed to create a new booking.
type CreateBookingRequest struct {
	WorkshopID   uuid.UUID `json:"workshopId" binding:"required"`
	VehicleName  string    `json:"vehicleName" binding:"required"`
	VehiclePlate string    `json:"vehiclePlate"`
	ServiceType  string    `json:"serviceType" binding:"required"`
	Services     []string  `json:"services"`
	Date         string    `json:"date" binding:"required"`
	Time         string    `json:"time" binding:"required"`
}

// BookingDTO is the response representation of a booking. DisplayStatus is the
// view status: it diverges from Status when an approved refund overrides it.
type BookingDTO struct {
	ID            uuid.UUID  `json:"id"`
	CustomerID    uuid.UUID  `json:"customerId"`
	WorkshopID    uuid.UUID  `json:"workshopId"`
	VehicleName   string     `json:"vehicleName"`
	VehiclePlate  string     `json:"vehiclePlate,omitempty"`
	ServiceType   string     `json:"serviceType"`
	Services      []string   `json:"services"`
	Date          string     `json:"date"`
	Time          string     `json:"time"`
	Status        string     `json:"status"`
	DisplayStatus string     `json:"displayStatus"`
	TotalAmount   *float64   `json:"totalAmount,omitempty"`
	QuoteID       *uuid.UUID `json:"quoteId,omitempty"`
	CancelNote    string     `json:"cancelNote,omitempty"`
	CancelledAt   *time.Time `json:"cancelledAt,omitempty"`
	PaidAt        *time.Time `json:"paidAt,omitempty"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
	Version       int64      `json:"version"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// BookingService is the application service owning the booking lifecycle.
type BookingService struct {
	bookings  booking.Repository
	quotes    quote.Repository
	refunds   refund.Repository
	workshops workshop.Repository
	gateway   payment.Gateway
	notifier  notification.Notifier
	logger    *zap.Logger
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	bookings booking.Repository,
	quotes quote.Repository,
	refunds refund.Repository,
	workshops workshop.Repository,
	gateway payment.Gateway,
	notifier notification.Notifier,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		bookings:  bookings,
		quotes:    quotes,
		refunds:   refunds,
		workshops: workshops,
		gateway:   gateway,
		notifier:  notifier,
		logger:    logger,
	}
}

// CreateBooking creates a new pending booking for the given customer and
// notifies both parties.
func (s *BookingService) CreateBooking(ctx context.Context, customerID uuid.UUID, req CreateBookingRequest) (*BookingDTO, error) {
	ws, err := s.workshops.FindByID(ctx, req.WorkshopID)
	if err != nil {
		return nil, err
	}

	bk, err := booking.NewBooking(
		customerID,
		ws.ID(),
		req.VehicleName,
		req.VehiclePlate,
		req.ServiceType,
		req.Services,
		req.Date,
		req.Time,
	)
	if err != nil {
		return nil, err
	}

	if err := s.bookings.Save(ctx, bk); err != nil {
		return nil, fmt.Errorf("failed to save booking: %w", err)
	}

	bookingID := bk.ID()
	s.notifier.Notify(ctx, notification.Notification{
		UserID:           customerID,
		Role:             notification.RoleCustomer,
		Type:             notification.TypeBookingConfirmed,
		RelatedBookingID: &bookingID,
		Title:            "Booking Confirmed",
		Message:          fmt.Sprintf("Your booking at %s for %s has been placed.", ws.Name(), bk.VehicleName()),
	})
	s.notifier.Notify(ctx, notification.Notification{
		UserID:           ws.OwnerID(),
		Role:             notification.RoleOwner,
		Type:             notification.TypeNewJobRequest,
		RelatedBookingID: &bookingID,
		Title:            "New Job Request",
		Message:          fmt.Sprintf("New %s request for %s on %s %s.", bk.ServiceType(), bk.VehicleName(), bk.Date(), bk.TimeSlot()),
	})

	result := s.toDTO(bk, nil)
	return &result, nil
}

// AcceptBooking is the owner's direct-accept path for a pending booking
// without a quote.
func (s *BookingService) AcceptBooking(ctx context.Context, ownerID, bookingID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireOwner(ctx, bk.WorkshopID(), ownerID); err != nil {
		return nil, err
	}

	prev := bk.Status()
	if err := bk.Accept(); err != nil {
		return nil, err
	}
	if err := s.commit(ctx, bk); err != nil {
		return nil, err
	}
	s.notifyTransition(ctx, prev, bk)

	result := s.toDTO(bk, nil)
	return &result, nil
}

// RejectBooking lets the owner decline a pending request.
func (s *BookingService) RejectBooking(ctx context.Context, ownerID, bookingID uuid.UUID, reason string) (*BookingDTO, error) {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireOwner(ctx, bk.WorkshopID(), ownerID); err != nil {
		return nil, err
	}

	if err := bk.Reject(reason); err != nil {
		return nil, err
	}
	if err := s.commit(ctx, bk); err != nil {
		return nil, err
	}

	result := s.toDTO(bk, nil)
	return &result, nil
}

// PayBooking charges the quoted amount through the payment gateway. On
// SUCCESS the booking moves to paid immediately; on PENDING it stays quoted
// until settlement arrives on the payment events topic; FAILED surfaces as an
// upstream error with no state change.
func (s *BookingService) PayBooking(ctx context.Context, customerID, bookingID uuid.UUID, method payment.MethodDetails) (*BookingDTO, error) {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if bk.CustomerID() != customerID {
		return nil, domain.NewForbiddenError("booking does not belong to this customer")
	}
	if bk.Status() != booking.StatusQuoted {
		return nil, domain.NewInvalidTransitionError(string(bk.Status()), string(booking.StatusPaid))
	}
	if bk.TotalAmount() == nil {
		return nil, domain.NewValidationError("booking has no quoted amount to pay")
	}

	res, err := s.gateway.ProcessPayment(ctx, bk.ID(), *bk.TotalAmount(), method)
	if err != nil {
		return nil, domain.NewUpstreamError("payment gateway unavailable", err)
	}

	switch res.Status {
	case payment.StatusFailed:
		return nil, domain.NewUpstreamError(fmt.Sprintf("payment failed: %s", res.Error), nil)
	case payment.StatusPending:
		s.logger.Info("payment pending settlement",
			zap.String("booking_id", bk.ID().String()),
			zap.String("transaction_id", res.TransactionID),
		)
		result := s.toDTO(bk, nil)
		return &result, nil
	}

	return s.markPaid(ctx, bk)
}

// SettlePayment marks a booking paid after an asynchronous settlement event.
func (s *BookingService) SettlePayment(ctx context.Context, bookingID uuid.UUID) error {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return err
	}
	_, err = s.markPaid(ctx, bk)
	return err
}

func (s *BookingService) markPaid(ctx context.Context, bk *booking.Booking) (*BookingDTO, error) {
	prev := bk.Status()
	if err := bk.MarkPaid(); err != nil {
		return nil, err
	}
	if err := s.commit(ctx, bk); err != nil {
		return nil, err
	}
	s.acceptActiveQuote(ctx, bk.ID())
	s.notifyTransition(ctx, prev, bk)

	result := s.toDTO(bk, nil)
	return &result, nil
}

// StartRepair moves an accepted or paid booking into repairing.
func (s *BookingService) StartRepair(ctx context.Context, ownerID, bookingID uuid.UUID) (*BookingDTO, error) {
	return s.ownerTransition(ctx, ownerID, bookingID, (*booking.Booking).StartRepair)
}

// MarkReady moves a repairing booking into ready.
func (s *BookingService) MarkReady(ctx context.Context, ownerID, bookingID uuid.UUID) (*BookingDTO, error) {
	return s.ownerTransition(ctx, ownerID, bookingID, (*booking.Booking).MarkReady)
}

func (s *BookingService) ownerTransition(ctx context.Context, ownerID, bookingID uuid.UUID, transition func(*booking.Booking) error) (*BookingDTO, error) {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireOwner(ctx, bk.WorkshopID(), ownerID); err != nil {
		return nil, err
	}

	prev := bk.Status()
	if err := transition(bk); err != nil {
		return nil, err
	}
	if err := s.commit(ctx, bk); err != nil {
		return nil, err
	}
	s.acceptActiveQuote(ctx, bk.ID())
	s.notifyTransition(ctx, prev, bk)

	result := s.toDTO(bk, nil)
	return &result, nil
}

// ConfirmPickup completes the booking when the customer collects the vehicle,
// releasing the held payment to the workshop.
func (s *BookingService) ConfirmPickup(ctx context.Context, customerID, bookingID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if bk.CustomerID() != customerID {
		return nil, domain.NewForbiddenError("booking does not belong to this customer")
	}

	prev := bk.Status()
	if err := bk.Complete(); err != nil {
		return nil, err
	}
	if err := s.commit(ctx, bk); err != nil {
		return nil, err
	}
	s.acceptActiveQuote(ctx, bk.ID())
	s.notifyTransition(ctx, prev, bk)

	result := s.toDTO(bk, nil)
	return &result, nil
}

// CancelBooking lets the customer back out while no payment is captured.
func (s *BookingService) CancelBooking(ctx context.Context, customerID, bookingID uuid.UUID, reason string) (*BookingDTO, error) {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if bk.CustomerID() != customerID {
		return nil, domain.NewForbiddenError("booking does not belong to this customer")
	}

	prev := bk.Status()
	if err := bk.Cancel(reason); err != nil {
		return nil, err
	}
	if err := s.commit(ctx, bk); err != nil {
		return nil, err
	}
	if prev == booking.StatusQuoted {
		s.rejectActiveQuote(ctx, bk.ID())
	}
	s.notifyTransition(ctx, prev, bk)

	result := s.toDTO(bk, nil)
	return &result, nil
}

// ForceCancelForRefund voids a booking after its refund case was approved.
// The transition table does not apply here.
func (s *BookingService) ForceCancelForRefund(ctx context.Context, bookingID uuid.UUID) error {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return err
	}
	bk.ForceCancel("refund approved")
	return s.commit(ctx, bk)
}

// GetBooking retrieves a single booking with its derived display status.
func (s *BookingService) GetBooking(ctx context.Context, bookingID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	result := s.toDTO(bk, s.refundFor(ctx, bk.ID()))
	return &result, nil
}

// GetCustomerBookings retrieves a customer's bookings. view filters to
// "active" or "history"; anything else returns all.
func (s *BookingService) GetCustomerBookings(ctx context.Context, customerID uuid.UUID, view string, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	bookings, total, err := s.bookings.FindByCustomerID(ctx, customerID, page, limit)
	if err != nil {
		return nil, err
	}
	return s.toPage(ctx, bookings, total, view, page, limit), nil
}

// GetWorkshopBookings retrieves a workshop's bookings for its owner.
func (s *BookingService) GetWorkshopBookings(ctx context.Context, ownerID, workshopID uuid.UUID, view string, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	if _, err := s.requireOwner(ctx, workshopID, ownerID); err != nil {
		return nil, err
	}
	bookings, total, err := s.bookings.FindByWorkshopID(ctx, workshopID, page, limit)
	if err != nil {
		return nil, err
	}
	return s.toPage(ctx, bookings, total, view, page, limit), nil
}

// --- Admin methods ---

// BookingStatsDTO holds booking statistics for the admin dashboard.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"totalBookings"`
	ByStatus      map[string]int64 `json:"byStatus"`
}

// ListAllBookings returns a paginated list of all bookings (admin).
func (s *BookingService) ListAllBookings(ctx context.Context, page, limit int) ([]BookingDTO, int64, error) {
	bookings, total, err := s.bookings.ListAll(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = s.toDTO(bk, s.refundFor(ctx, bk.ID()))
	}
	return dtos, total, nil
}

// GetBookingStats returns aggregate booking statistics (admin).
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, err := s.bookings.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}

	var total int64
	for _, c := range counts {
		total += c
	}
	return &BookingStatsDTO{TotalBookings: total, ByStatus: counts}, nil
}

// --- Helpers ---

func (s *BookingService) commit(ctx context.Context, bk *booking.Booking) error {
	bk.IncrementVersion()
	return s.bookings.Update(ctx, bk)
}

// requireOwner resolves the workshop and checks it belongs to ownerID.
func (s *BookingService) requireOwner(ctx context.Context, workshopID, ownerID uuid.UUID) (*workshop.Workshop, error) {
	ws, err := s.workshops.FindByID(ctx, workshopID)
	if err != nil {
		return nil, err
	}
	if !ws.IsOwnedBy(ownerID) {
		return nil, domain.NewForbiddenError("workshop does not belong to this owner")
	}
	return ws, nil
}

// acceptActiveQuote forces any still-pending quote to accepted once the
// booking has advanced past the quoted stage. Best-effort: a missing quote is
// fine, a failed update is logged.
func (s *BookingService) acceptActiveQuote(ctx context.Context, bookingID uuid.UUID) {
	s.settleActiveQuote(ctx, bookingID, (*quote.Quote).Accept, "accepted")
}

// rejectActiveQuote voids any still-pending quote when its booking is
// cancelled before payment, so no active quote outlives a dead booking.
func (s *BookingService) rejectActiveQuote(ctx context.Context, bookingID uuid.UUID) {
	s.settleActiveQuote(ctx, bookingID, (*quote.Quote).Reject, "rejected")
}

func (s *BookingService) settleActiveQuote(ctx context.Context, bookingID uuid.UUID, settle func(*quote.Quote) error, outcome string) {
	q, err := s.quotes.FindActiveByBookingID(ctx, bookingID)
	if err != nil {
		if !domain.IsNotFound(err) {
			s.logger.Error("failed to load active quote",
				zap.String("booking_id", bookingID.String()),
				zap.Error(err),
			)
		}
		return
	}
	if err := settle(q); err != nil {
		return
	}
	q.IncrementVersion()
	if err := s.quotes.Update(ctx, q); err != nil {
		s.logger.Error("failed to mark quote "+outcome,
			zap.String("quote_id", q.ID().String()),
			zap.Error(err),
		)
	}
}

func (s *BookingService) notifyTransition(ctx context.Context, prev booking.Status, bk *booking.Booking) {
	ws, err := s.workshops.FindByID(ctx, bk.WorkshopID())
	if err != nil {
		s.logger.Error("failed to resolve workshop owner for notifications",
			zap.String("workshop_id", bk.WorkshopID().String()),
			zap.Error(err),
		)
		return
	}
	for _, n := range TransitionNotifications(prev, bk.Status(), bk, ws.OwnerID()) {
		s.notifier.Notify(ctx, n)
	}
}

// refundFor loads the booking's refund case for display derivation; absence
// is the common case and not an error.
func (s *BookingService) refundFor(ctx context.Context, bookingID uuid.UUID) *refund.RefundCase {
	rc, err := s.refunds.FindByBookingID(ctx, bookingID)
	if err != nil {
		if !domain.IsNotFound(err) {
			s.logger.Error("failed to load refund case",
				zap.String("booking_id", bookingID.String()),
				zap.Error(err),
			)
		}
		return nil
	}
	return rc
}

func (s *BookingService) toPage(ctx context.Context, bookings []*booking.Booking, total int64, view string, page, limit int) *domain.PaginatedResult[BookingDTO] {
	dtos := make([]BookingDTO, 0, len(bookings))
	for _, bk := range bookings {
		rc := s.refundFor(ctx, bk.ID())
		switch view {
		case "active":
			if !IsActiveBooking(bk.Status(), rc) {
				continue
			}
		case "history":
			if IsActiveBooking(bk.Status(), rc) {
				continue
			}
		}
		dtos = append(dtos, s.toDTO(bk, rc))
	}
	return domain.NewPaginatedResult(dtos, total, page, limit)
}

func (s *BookingService) toDTO(bk *booking.Booking, rc *refund.RefundCase) BookingDTO {
	return BookingDTO{
		ID:            bk.ID(),
		CustomerID:    bk.CustomerID(),
		WorkshopID:    bk.WorkshopID(),
		VehicleName:   bk.VehicleName(),
		VehiclePlate:  bk.VehiclePlate(),
		ServiceType:   bk.ServiceType(),
		Services:      bk.Services(),
		Date:          bk.Date(),
		Time:          bk.TimeSlot(),
		Status:        string(bk.Status()),
		DisplayStatus: DeriveDisplayStatus(bk.Status(), rc),
		TotalAmount:   bk.TotalAmount(),
		QuoteID:       bk.QuoteID(),
		CancelNote:    bk.CancelNote(),
		CancelledAt:   bk.CancelledAt(),
		PaidAt:        bk.PaidAt(),
		CompletedAt:   bk.CompletedAt(),
		Version:       bk.Version(),
		CreatedAt:     bk.CreatedAt(),
		UpdatedAt:     bk.UpdatedAt(),
	}
}
