package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BengkelGo/service-marketplace/internal/domain"
	"github.com/BengkelGo/service-marketplace/internal/domain/booking"
	"github.com/BengkelGo/service-marketplace/internal/domain/refund"
	"github.com/BengkelGo/service-marketplace/internal/domain/workshop"
	"github.com/BengkelGo/service-marketplace/internal/notification"
)

// CreateRefundRequest holds the data needed to open a refund case. Amount is
// optional; when omitted the full captured booking amount is claimed.
type CreateRefundRequest struct {
	Amount      *float64 `json:"amount"`
	Reason      string   `json:"reason" binding:"required"`
	Description string   `json:"description"`
	Evidence    string   `json:"evidence"`
}

// ResolveRefundRequest carries the shop's final decision on a case.
type ResolveRefundRequest struct {
	Resolution  string `json:"resolution" binding:"required"`
	ShopMessage string `json:"shopMessage"`
}

// RefundDTO is the response representation of a refund case.
type RefundDTO struct {
	ID          uuid.UUID              `json:"id"`
	BookingID   uuid.UUID              `json:"bookingId"`
	WorkshopID  uuid.UUID              `json:"workshopId"`
	CustomerID  uuid.UUID              `json:"customerId"`
	Amount      float64                `json:"amount"`
	Reason      string                 `json:"reason"`
	Description string                 `json:"description,omitempty"`
	Evidence    string                 `json:"evidence,omitempty"`
	Status      string                 `json:"status"`
	Timeline    []refund.TimelineEntry `json:"timeline"`
	Comments    []refund.Comment       `json:"comments"`
	Version     int64                  `json:"version"`
	CreatedAt   time.Time              `json:"createdAt"`
	UpdatedAt   time.Time              `json:"updatedAt"`
}

// BookingCanceller force-cancels a booking as part of an approved refund.
type BookingCanceller interface {
	ForceCancelForRefund(ctx context.Context, bookingID uuid.UUID) error
}

// RefundService owns the dispute lifecycle: open, resolve, comment.
type RefundService struct {
	refunds   refund.Repository
	bookings  booking.Repository
	workshops workshop.Repository
	canceller BookingCanceller
	notifier  notification.Notifier
	logger    *zap.Logger
}

// NewRefundService creates a new RefundService.
func NewRefundService(
	refunds refund.Repository,
	bookings booking.Repository,
	workshops workshop.Repository,
	canceller BookingCanceller,
	notifier notification.Notifier,
	logger *zap.Logger,
) *RefundService {
	return &RefundService{
		refunds:   refunds,
		bookings:  bookings,
		workshops: workshops,
		canceller: canceller,
		notifier:  notifier,
		logger:    logger,
	}
}

// CreateRefundCase opens a dispute against a booking whose payment has been
// captured. A booking can carry at most one unresolved case at a time; a new
// case may be opened once a previous one is resolved.
func (s *RefundService) CreateRefundCase(ctx context.Context, customerID, bookingID uuid.UUID, req CreateRefundRequest) (*RefundDTO, error) {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if bk.CustomerID() != customerID {
		return nil, domain.NewForbiddenError("booking does not belong to this customer")
	}
	if !bk.Status().PaymentCaptured() {
		return nil, domain.NewValidationError("refunds can only be requested for paid bookings")
	}
	if bk.TotalAmount() == nil {
		return nil, domain.NewValidationError("booking has no captured amount")
	}
	amount := *bk.TotalAmount()
	if req.Amount != nil {
		if *req.Amount <= 0 || *req.Amount > *bk.TotalAmount() {
			return nil, domain.NewValidationError("refund amount must be positive and no more than the captured amount")
		}
		amount = *req.Amount
	}

	if existing, err := s.refunds.FindByBookingID(ctx, bookingID); err == nil {
		if !existing.Status().IsResolved() {
			return nil, domain.NewConflictError("booking already has an open refund case")
		}
	} else if !domain.IsNotFound(err) {
		return nil, err
	}

	rc, err := refund.NewRefundCase(bk.ID(), bk.WorkshopID(), customerID, amount, req.Reason, req.Description, req.Evidence)
	if err != nil {
		return nil, err
	}
	if err := s.refunds.Save(ctx, rc); err != nil {
		return nil, fmt.Errorf("failed to save refund case: %w", err)
	}

	s.logger.Info("refund case opened",
		zap.String("refund_id", rc.ID().String()),
		zap.String("booking_id", bookingID.String()),
		zap.Float64("amount", rc.Amount()),
	)

	result := toRefundDTO(rc)
	return &result, nil
}

// ResolveRefund records the workshop's decision. Approval force-cancels the
// booking regardless of its current status; rejection leaves the booking
// untouched. Either way the customer is notified of the outcome.
func (s *RefundService) ResolveRefund(ctx context.Context, ownerID, refundID uuid.UUID, req ResolveRefundRequest) (*RefundDTO, error) {
	rc, err := s.refunds.FindByID(ctx, refundID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireOwner(ctx, rc.WorkshopID(), ownerID); err != nil {
		return nil, err
	}

	resolution := refund.Status(req.Resolution)
	if err := rc.Resolve(resolution, req.ShopMessage); err != nil {
		return nil, err
	}
	rc.IncrementVersion()
	if err := s.refunds.Update(ctx, rc); err != nil {
		return nil, err
	}

	if resolution == refund.StatusApproved {
		if err := s.canceller.ForceCancelForRefund(ctx, rc.BookingID()); err != nil {
			// The case is already resolved; the booking stays in its prior
			// status until the cancellation is retried out of band.
			s.logger.Error("failed to cancel booking for approved refund",
				zap.String("refund_id", rc.ID().String()),
				zap.String("booking_id", rc.BookingID().String()),
				zap.Error(err),
			)
		}
	}

	s.notifyResolution(ctx, rc, resolution)

	result := toRefundDTO(rc)
	return &result, nil
}

// AddComment appends a message from either party to the case thread.
func (s *RefundService) AddComment(ctx context.Context, userID uuid.UUID, refundID uuid.UUID, authorRole, text string) (*RefundDTO, error) {
	rc, err := s.refunds.FindByID(ctx, refundID)
	if err != nil {
		return nil, err
	}

	switch authorRole {
	case refund.AuthorUser:
		if rc.CustomerID() != userID {
			return nil, domain.NewForbiddenError("refund case does not belong to this customer")
		}
	case refund.AuthorOwner:
		if _, err := s.requireOwner(ctx, rc.WorkshopID(), userID); err != nil {
			return nil, err
		}
	default:
		return nil, domain.NewValidationError("comment author role must be user or owner")
	}

	if _, err := rc.AddComment(authorRole, text); err != nil {
		return nil, err
	}
	rc.IncrementVersion()
	if err := s.refunds.Update(ctx, rc); err != nil {
		return nil, err
	}

	result := toRefundDTO(rc)
	return &result, nil
}

// GetRefundCase retrieves a case by id.
func (s *RefundService) GetRefundCase(ctx context.Context, refundID uuid.UUID) (*RefundDTO, error) {
	rc, err := s.refunds.FindByID(ctx, refundID)
	if err != nil {
		return nil, err
	}
	result := toRefundDTO(rc)
	return &result, nil
}

// GetBookingRefund retrieves the most recent case for a booking.
func (s *RefundService) GetBookingRefund(ctx context.Context, bookingID uuid.UUID) (*RefundDTO, error) {
	rc, err := s.refunds.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	result := toRefundDTO(rc)
	return &result, nil
}

// ListWorkshopRefunds lists the cases filed against a workshop, newest first.
func (s *RefundService) ListWorkshopRefunds(ctx context.Context, ownerID, workshopID uuid.UUID, page, limit int) (*domain.PaginatedResult[RefundDTO], error) {
	if _, err := s.requireOwner(ctx, workshopID, ownerID); err != nil {
		return nil, err
	}
	cases, total, err := s.refunds.FindByWorkshopID(ctx, workshopID, page, limit)
	if err != nil {
		return nil, err
	}
	dtos := make([]RefundDTO, 0, len(cases))
	for _, rc := range cases {
		dtos = append(dtos, toRefundDTO(rc))
	}
	return domain.NewPaginatedResult(dtos, total, page, limit), nil
}

func (s *RefundService) notifyResolution(ctx context.Context, rc *refund.RefundCase, resolution refund.Status) {
	bookingID := rc.BookingID()
	n := notification.Notification{
		UserID:           rc.CustomerID(),
		Role:             notification.RoleCustomer,
		RelatedBookingID: &bookingID,
	}
	if resolution == refund.StatusApproved {
		n.Type = notification.TypeRefundApproved
		n.Title = "Refund Approved"
		n.Message = fmt.Sprintf("Your refund of RM %.2f has been approved.", rc.Amount())
	} else {
		n.Type = notification.TypeRefundRejected
		n.Title = "Refund Rejected"
		n.Message = "Your refund request was rejected by the workshop."
	}
	s.notifier.Notify(ctx, n)
}

func (s *RefundService) requireOwner(ctx context.Context, workshopID, ownerID uuid.UUID) (*workshop.Workshop, error) {
	ws, err := s.workshops.FindByID(ctx, workshopID)
	if err != nil {
		return nil, err
	}
	if !ws.IsOwnedBy(ownerID) {
		return nil, domain.NewForbiddenError("workshop does not belong to this owner")
	}
	return ws, nil
}

func toRefundDTO(rc *refund.RefundCase) RefundDTO {
	return RefundDTO{
		ID:          rc.ID(),
		BookingID:   rc.BookingID(),
		WorkshopID:  rc.WorkshopID(),
		CustomerID:  rc.CustomerID(),
		Amount:      rc.Amount(),
		Reason:      rc.Reason(),
		Description: rc.Description(),
		Evidence:    rc.Evidence(),
		Status:      string(rc.Status()),
		Timeline:    rc.Timeline(),
		Comments:    rc.Comments(),
		Version:     rc.Version(),
		CreatedAt:   rc.CreatedAt(),
		UpdatedAt:   rc.UpdatedAt(),
	}
}
