package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BengkelGo/service-marketplace/internal/domain"
	"github.com/BengkelGo/service-marketplace/internal/domain/booking"
	"github.com/BengkelGo/service-marketplace/internal/domain/review"
	"github.com/BengkelGo/service-marketplace/internal/domain/workshop"
	"github.com/BengkelGo/service-marketplace/internal/notification"
)

// CreateReviewRequest holds the four rating dimensions and optional comment.
type CreateReviewRequest struct {
	Rating             int    `json:"rating" binding:"required"`
	PricingRating      int    `json:"pricingRating" binding:"required"`
	AttitudeRating     int    `json:"attitudeRating" binding:"required"`
	ProfessionalRating int    `json:"professionalRating" binding:"required"`
	Comment            string `json:"comment"`
}

// ReviewDTO is the response representation of a review.
type ReviewDTO struct {
	ID                 uuid.UUID  `json:"id"`
	BookingID          uuid.UUID  `json:"bookingId"`
	WorkshopID         uuid.UUID  `json:"workshopId"`
	CustomerID         uuid.UUID  `json:"customerId"`
	Rating             int        `json:"rating"`
	PricingRating      int        `json:"pricingRating"`
	AttitudeRating     int        `json:"attitudeRating"`
	ProfessionalRating int        `json:"professionalRating"`
	Comment            string     `json:"comment,omitempty"`
	Reply              string     `json:"reply,omitempty"`
	RepliedAt          *time.Time `json:"repliedAt,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// ReviewService owns review creation, owner replies, and the workshop rating
// aggregate that reviews feed.
type ReviewService struct {
	reviews   review.Repository
	bookings  booking.Repository
	workshops workshop.Repository
	cache     WorkshopCache
	notifier  notification.Notifier
	logger    *zap.Logger
}

// NewReviewService creates a new ReviewService.
func NewReviewService(
	reviews review.Repository,
	bookings booking.Repository,
	workshops workshop.Repository,
	cache WorkshopCache,
	notifier notification.Notifier,
	logger *zap.Logger,
) *ReviewService {
	return &ReviewService{
		reviews:   reviews,
		bookings:  bookings,
		workshops: workshops,
		cache:     cache,
		notifier:  notifier,
		logger:    logger,
	}
}

// CreateReview records the customer's feedback on a completed booking and
// folds the overall rating into the workshop aggregate. One review per
// booking.
func (s *ReviewService) CreateReview(ctx context.Context, customerID, bookingID uuid.UUID, req CreateReviewRequest) (*ReviewDTO, error) {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if bk.CustomerID() != customerID {
		return nil, domain.NewForbiddenError("booking does not belong to this customer")
	}
	if bk.Status() != booking.StatusCompleted {
		return nil, domain.NewValidationError("only completed bookings can be reviewed")
	}
	if _, err := s.reviews.FindByBookingID(ctx, bookingID); err == nil {
		return nil, domain.NewConflictError("booking already has a review")
	} else if !domain.IsNotFound(err) {
		return nil, err
	}

	rv, err := review.NewReview(bk.ID(), bk.WorkshopID(), customerID,
		req.Rating, req.PricingRating, req.AttitudeRating, req.ProfessionalRating, req.Comment)
	if err != nil {
		return nil, err
	}
	if err := s.reviews.Save(ctx, rv); err != nil {
		return nil, fmt.Errorf("failed to save review: %w", err)
	}

	ws, err := s.workshops.FindByID(ctx, bk.WorkshopID())
	if err != nil {
		return nil, err
	}
	ws.ApplyRating(rv.Rating())
	if err := s.workshops.Update(ctx, ws); err != nil {
		return nil, err
	}
	if err := s.cache.Delete(ctx, workshopCacheKey(ws.ID())); err != nil {
		s.logger.Warn("workshop cache invalidation failed",
			zap.String("workshop_id", ws.ID().String()),
			zap.Error(err),
		)
	}

	s.notifier.Notify(ctx, notification.Notification{
		UserID:           ws.OwnerID(),
		Role:             notification.RoleOwner,
		Type:             notification.TypeNewReview,
		RelatedBookingID: &bookingID,
		Title:            "New Review",
		Message:          fmt.Sprintf("You received a %d-star review for %s.", rv.Rating(), bk.VehicleName()),
	})

	result := toReviewDTO(rv)
	return &result, nil
}

// ReplyReview records the owner's one-time reply to a review.
func (s *ReviewService) ReplyReview(ctx context.Context, ownerID, reviewID uuid.UUID, text string) (*ReviewDTO, error) {
	rv, err := s.reviews.FindByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	ws, err := s.workshops.FindByID(ctx, rv.WorkshopID())
	if err != nil {
		return nil, err
	}
	if !ws.IsOwnedBy(ownerID) {
		return nil, domain.NewForbiddenError("workshop does not belong to this owner")
	}

	if err := rv.AddReply(text); err != nil {
		return nil, err
	}
	rv.IncrementVersion()
	if err := s.reviews.Update(ctx, rv); err != nil {
		return nil, err
	}

	result := toReviewDTO(rv)
	return &result, nil
}

// GetBookingReview retrieves the review for a booking, if any.
func (s *ReviewService) GetBookingReview(ctx context.Context, bookingID uuid.UUID) (*ReviewDTO, error) {
	rv, err := s.reviews.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	result := toReviewDTO(rv)
	return &result, nil
}

// ListWorkshopReviews lists a workshop's reviews, newest first.
func (s *ReviewService) ListWorkshopReviews(ctx context.Context, workshopID uuid.UUID, page, limit int) (*domain.PaginatedResult[ReviewDTO], error) {
	reviews, total, err := s.reviews.FindByWorkshopID(ctx, workshopID, page, limit)
	if err != nil {
		return nil, err
	}
	dtos := make([]ReviewDTO, 0, len(reviews))
	for _, rv := range reviews {
		dtos = append(dtos, toReviewDTO(rv))
	}
	return domain.NewPaginatedResult(dtos, total, page, limit), nil
}

func toReviewDTO(rv *review.Review) ReviewDTO {
	return ReviewDTO{
		ID:                 rv.ID(),
		BookingID:          rv.BookingID(),
		WorkshopID:         rv.WorkshopID(),
		CustomerID:         rv.CustomerID(),
		Rating:             rv.Rating(),
		PricingRating:      rv.PricingRating(),
		AttitudeRating:     rv.AttitudeRating(),
		ProfessionalRating: rv.ProfessionalRating(),
		Comment:            rv.Comment(),
		Reply:              rv.Reply(),
		RepliedAt:          rv.RepliedAt(),
		CreatedAt:          rv.CreatedAt(),
		UpdatedAt:          rv.UpdatedAt(),
	}
}
