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
	"github.com/BengkelGo/service-marketplace/internal/domain/workshop"
	"github.com/BengkelGo/service-marketplace/internal/notification"
)

// CreateQuoteRequest holds the data needed to quote a pending booking.
type CreateQuoteRequest struct {
	Items     []quote.LineItem `json:"items"`
	Labor     float64          `json:"labor"`
	Diagnosis string           `json:"diagnosis"`
	Note      string           `json:"note"`
}

// QuoteDTO is the response representation of a quote.
type QuoteDTO struct {
	ID         uuid.UUID        `json:"id"`
	BookingID  uuid.UUID        `json:"bookingId"`
	WorkshopID uuid.UUID        `json:"workshopId"`
	Items      []quote.LineItem `json:"items"`
	Labor      float64          `json:"labor"`
	Tax        float64          `json:"tax"`
	Total      float64          `json:"total"`
	Diagnosis  string           `json:"diagnosis,omitempty"`
	Note       string           `json:"note,omitempty"`
	Status     string           `json:"status"`
	Version    int64            `json:"version"`
	CreatedAt  time.Time        `json:"createdAt"`
	UpdatedAt  time.Time        `json:"updatedAt"`
}

// QuoteService owns quote negotiation: create, withdraw, reject, accept.
type QuoteService struct {
	quotes    quote.Repository
	bookings  booking.Repository
	workshops workshop.Repository
	notifier  notification.Notifier
	logger    *zap.Logger
}

// NewQuoteService creates a new QuoteService.
func NewQuoteService(
	quotes quote.Repository,
	bookings booking.Repository,
	workshops workshop.Repository,
	notifier notification.Notifier,
	logger *zap.Logger,
) *QuoteService {
	return &QuoteService{
		quotes:    quotes,
		bookings:  bookings,
		workshops: workshops,
		notifier:  notifier,
		logger:    logger,
	}
}

// CreateQuote prices a pending booking: the quote is created pending and the
// booking moves to quoted with the quote reference and total attached. A
// booking may not carry two active quotes.
func (s *QuoteService) CreateQuote(ctx context.Context, ownerID, bookingID uuid.UUID, req CreateQuoteRequest) (*QuoteDTO, error) {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	ws, err := s.requireOwner(ctx, bk.WorkshopID(), ownerID)
	if err != nil {
		return nil, err
	}

	if _, err := s.quotes.FindActiveByBookingID(ctx, bookingID); err == nil {
		return nil, domain.NewConflictError("booking already has an active quote")
	} else if !domain.IsNotFound(err) {
		return nil, err
	}

	q, err := quote.NewQuote(bk.ID(), ws.ID(), req.Items, req.Labor, req.Diagnosis, req.Note)
	if err != nil {
		return nil, err
	}
	if err := bk.AttachQuote(q.ID(), q.Total()); err != nil {
		return nil, err
	}

	if err := s.quotes.Save(ctx, q); err != nil {
		return nil, fmt.Errorf("failed to save quote: %w", err)
	}
	bk.IncrementVersion()
	if err := s.bookings.Update(ctx, bk); err != nil {
		// The quote row is orphaned if this cleanup fails; it is no longer
		// referenced by the booking either way.
		if delErr := s.quotes.Delete(ctx, q.ID()); delErr != nil {
			s.logger.Error("failed to clean up quote after booking update failure",
				zap.String("quote_id", q.ID().String()),
				zap.Error(delErr),
			)
		}
		return nil, err
	}

	s.notifier.Notify(ctx, notification.Notification{
		UserID:           bk.CustomerID(),
		Role:             notification.RoleCustomer,
		Type:             notification.TypeNewQuote,
		RelatedBookingID: &bookingID,
		Title:            "New Quote Received",
		Message:          fmt.Sprintf("%s quoted RM %.2f for %s.", ws.Name(), q.Total(), bk.VehicleName()),
	})

	result := toQuoteDTO(q)
	return &result, nil
}

// WithdrawQuote deletes the owner's pending quote and returns the booking to
// pending. Withdrawn quotes leave no audit record.
func (s *QuoteService) WithdrawQuote(ctx context.Context, ownerID, quoteID uuid.UUID) error {
	q, err := s.quotes.FindByID(ctx, quoteID)
	if err != nil {
		return err
	}
	if _, err := s.requireOwner(ctx, q.WorkshopID(), ownerID); err != nil {
		return err
	}
	if !q.IsPending() {
		return domain.NewConflictError("only a pending quote can be withdrawn")
	}

	bk, err := s.bookings.FindByID(ctx, q.BookingID())
	if err != nil {
		return err
	}
	if err := bk.ClearQuote(); err != nil {
		return err
	}
	bk.IncrementVersion()
	if err := s.bookings.Update(ctx, bk); err != nil {
		return err
	}
	if err := s.quotes.Delete(ctx, q.ID()); err != nil {
		return fmt.Errorf("failed to delete withdrawn quote: %w", err)
	}

	bookingID := bk.ID()
	s.notifier.Notify(ctx, notification.Notification{
		UserID:           bk.CustomerID(),
		Role:             notification.RoleCustomer,
		Type:             notification.TypeQuoteWithdrawn,
		RelatedBookingID: &bookingID,
		Title:            "Quote Withdrawn",
		Message:          fmt.Sprintf("The workshop withdrew its quote for %s.", bk.VehicleName()),
	})
	return nil
}

// RejectQuote records the customer's rejection. The quote is retained with
// status rejected as an audit record and the booking returns to pending.
func (s *QuoteService) RejectQuote(ctx context.Context, customerID, quoteID uuid.UUID) error {
	q, err := s.quotes.FindByID(ctx, quoteID)
	if err != nil {
		return err
	}
	bk, err := s.bookings.FindByID(ctx, q.BookingID())
	if err != nil {
		return err
	}
	if bk.CustomerID() != customerID {
		return domain.NewForbiddenError("booking does not belong to this customer")
	}

	if err := q.Reject(); err != nil {
		return err
	}
	if err := bk.ClearQuote(); err != nil {
		return err
	}

	q.IncrementVersion()
	if err := s.quotes.Update(ctx, q); err != nil {
		return err
	}
	bk.IncrementVersion()
	if err := s.bookings.Update(ctx, bk); err != nil {
		return err
	}

	ws, err := s.workshops.FindByID(ctx, bk.WorkshopID())
	if err != nil {
		s.logger.Error("failed to resolve workshop owner for quote rejection",
			zap.String("workshop_id", bk.WorkshopID().String()),
			zap.Error(err),
		)
		return nil
	}
	bookingID := bk.ID()
	s.notifier.Notify(ctx, notification.Notification{
		UserID:           ws.OwnerID(),
		Role:             notification.RoleOwner,
		Type:             notification.TypeQuoteRejected,
		RelatedBookingID: &bookingID,
		Title:            "Quote Rejected",
		Message:          fmt.Sprintf("The customer rejected your quote of RM %.2f for %s.", q.Total(), bk.VehicleName()),
	})
	return nil
}

// AcceptQuote records the customer's acceptance without immediate payment:
// the booking moves quoted->accepted and the quote to accepted.
func (s *QuoteService) AcceptQuote(ctx context.Context, customerID, quoteID uuid.UUID) (*QuoteDTO, error) {
	q, err := s.quotes.FindByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	bk, err := s.bookings.FindByID(ctx, q.BookingID())
	if err != nil {
		return nil, err
	}
	if bk.CustomerID() != customerID {
		return nil, domain.NewForbiddenError("booking does not belong to this customer")
	}

	prev := bk.Status()
	if err := bk.Accept(); err != nil {
		return nil, err
	}
	if err := q.Accept(); err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.bookings.Update(ctx, bk); err != nil {
		return nil, err
	}
	q.IncrementVersion()
	if err := s.quotes.Update(ctx, q); err != nil {
		return nil, err
	}

	ws, err := s.workshops.FindByID(ctx, bk.WorkshopID())
	if err == nil {
		for _, n := range TransitionNotifications(prev, bk.Status(), bk, ws.OwnerID()) {
			s.notifier.Notify(ctx, n)
		}
	} else {
		s.logger.Error("failed to resolve workshop owner for quote acceptance",
			zap.String("workshop_id", bk.WorkshopID().String()),
			zap.Error(err),
		)
	}

	result := toQuoteDTO(q)
	return &result, nil
}

// GetQuote retrieves a quote by id. Rejected quotes remain retrievable.
func (s *QuoteService) GetQuote(ctx context.Context, quoteID uuid.UUID) (*QuoteDTO, error) {
	q, err := s.quotes.FindByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	result := toQuoteDTO(q)
	return &result, nil
}

// GetBookingQuote retrieves the most recent quote for a booking.
func (s *QuoteService) GetBookingQuote(ctx context.Context, bookingID uuid.UUID) (*QuoteDTO, error) {
	q, err := s.quotes.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	result := toQuoteDTO(q)
	return &result, nil
}

func (s *QuoteService) requireOwner(ctx context.Context, workshopID, ownerID uuid.UUID) (*workshop.Workshop, error) {
	ws, err := s.workshops.FindByID(ctx, workshopID)
	if err != nil {
		return nil, err
	}
	if !ws.IsOwnedBy(ownerID) {
		return nil, domain.NewForbiddenError("workshop does not belong to this owner")
	}
	return ws, nil
}

func toQuoteDTO(q *quote.Quote) QuoteDTO {
	return QuoteDTO{
		ID:         q.ID(),
		BookingID:  q.BookingID(),
		WorkshopID: q.WorkshopID(),
		Items:      q.Items(),
		Labor:      q.Labor(),
		Tax:        q.Tax(),
		Total:      q.Total(),
		Diagnosis:  q.Diagnosis(),
		Note:       q.Note(),
		Status:     string(q.Status()),
		Version:    q.Version(),
		CreatedAt:  q.CreatedAt(),
		UpdatedAt:  q.UpdatedAt(),
	}
}
