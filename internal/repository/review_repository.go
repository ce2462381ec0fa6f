package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/BengkelGo/service-marketplace/internal/domain"
	reviewDomain "github.com/BengkelGo/service-marketplace/internal/domain/review"
)

// ReviewModel is the GORM model for the reviews table.
type ReviewModel struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey"`
	BookingID          uuid.UUID  `gorm:"type:uuid;uniqueIndex;not null"`
	WorkshopID         uuid.UUID  `gorm:"type:uuid;index;not null"`
	CustomerID         uuid.UUID  `gorm:"type:uuid;index;not null"`
	Rating             int        `gorm:"not null"`
	PricingRating      int        `gorm:"not null"`
	AttitudeRating     int        `gorm:"not null"`
	ProfessionalRating int        `gorm:"not null"`
	Comment            string     `gorm:"size:2000"`
	Reply              string     `gorm:"size:2000"`
	RepliedAt          *time.Time `gorm:""`
	Version            int64      `gorm:"not null;default:1"`
	CreatedAt          time.Time  `gorm:"not null"`
	UpdatedAt          time.Time  `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (ReviewModel) TableName() string {
	return "reviews"
}

// GormReviewRepository is the GORM-based implementation of review.Repository.
type GormReviewRepository struct {
	db *gorm.DB
}

// NewGormReviewRepository creates a new GormReviewRepository.
func NewGormReviewRepository(db *gorm.DB) *GormReviewRepository {
	return &GormReviewRepository{db: db}
}

// FindByID retrieves a review by its unique identifier.
func (r *GormReviewRepository) FindByID(ctx context.Context, id uuid.UUID) (*reviewDomain.Review, error) {
	var model ReviewModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Review", id.String())
		}
		return nil, fmt.Errorf("failed to find review by ID: %w", err)
	}
	return toDomainReview(&model), nil
}

// FindByBookingID retrieves the review for a booking, if one exists.
func (r *GormReviewRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*reviewDomain.Review, error) {
	var model ReviewModel
	if err := r.db.WithContext(ctx).Where("booking_id = ?", bookingID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Review", bookingID.String())
		}
		return nil, fmt.Errorf("failed to find review by booking: %w", err)
	}
	return toDomainReview(&model), nil
}

// FindByWorkshopID retrieves reviews for a workshop with pagination.
func (r *GormReviewRepository) FindByWorkshopID(ctx context.Context, workshopID uuid.UUID, page, limit int) ([]*reviewDomain.Review, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&ReviewModel{}).Where("workshop_id = ?", workshopID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count reviews: %w", err)
	}

	var models []ReviewModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Where("workshop_id = ?", workshopID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find reviews: %w", err)
	}

	reviews := make([]*reviewDomain.Review, len(models))
	for i, m := range models {
		reviews[i] = toDomainReview(&m)
	}
	return reviews, total, nil
}

// Save persists a new review.
func (r *GormReviewRepository) Save(ctx context.Context, rv *reviewDomain.Review) error {
	if err := r.db.WithContext(ctx).Create(toReviewModel(rv)).Error; err != nil {
		return fmt.Errorf("failed to save review: %w", err)
	}
	return nil
}

// Update persists changes to an existing review with optimistic locking.
func (r *GormReviewRepository) Update(ctx context.Context, rv *reviewDomain.Review) error {
	model := toReviewModel(rv)

	expectedVersion := rv.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&ReviewModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"reply":      model.Reply,
			"replied_at": model.RepliedAt,
			"version":    model.Version,
			"updated_at": model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update review: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("review was modified by another transaction")
	}
	return nil
}

// --- Conversion Helpers ---

func toReviewModel(rv *reviewDomain.Review) *ReviewModel {
	return &ReviewModel{
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
		Version:            rv.Version(),
		CreatedAt:          rv.CreatedAt(),
		UpdatedAt:          rv.UpdatedAt(),
	}
}

func toDomainReview(m *ReviewModel) *reviewDomain.Review {
	return reviewDomain.Reconstruct(
		m.ID, m.BookingID, m.WorkshopID, m.CustomerID,
		m.Rating, m.PricingRating, m.AttitudeRating, m.ProfessionalRating,
		m.Comment, m.Reply,
		m.RepliedAt,
		m.Version,
		m.CreatedAt, m.UpdatedAt,
	)
}
