package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/BengkelGo/service-marketplace/internal/domain"
	refundDomain "github.com/BengkelGo/service-marketplace/internal/domain/refund"
)

// RefundModel is the GORM model for the refund_cases table.
type RefundModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	BookingID   uuid.UUID       `gorm:"type:uuid;index;not null"`
	WorkshopID  uuid.UUID       `gorm:"type:uuid;index;not null"`
	CustomerID  uuid.UUID       `gorm:"type:uuid;index;not null"`
	Amount      float64         `gorm:"not null"`
	Reason      string          `gorm:"not null;size:200"`
	Description string          `gorm:"size:2000"`
	Evidence    string          `gorm:"size:1000"`
	Status      string          `gorm:"not null;size:30;index"`
	Timeline    json.RawMessage `gorm:"type:jsonb;not null"`
	Comments    json.RawMessage `gorm:"type:jsonb"`
	Version     int64           `gorm:"not null;default:1"`
	CreatedAt   time.Time       `gorm:"not null"`
	UpdatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (RefundModel) TableName() string {
	return "refund_cases"
}

// GormRefundRepository is the GORM-based implementation of refund.Repository.
type GormRefundRepository struct {
	db *gorm.DB
}

// NewGormRefundRepository creates a new GormRefundRepository.
func NewGormRefundRepository(db *gorm.DB) *GormRefundRepository {
	return &GormRefundRepository{db: db}
}

// FindByID retrieves a refund case by its unique identifier.
func (r *GormRefundRepository) FindByID(ctx context.Context, id uuid.UUID) (*refundDomain.RefundCase, error) {
	var model RefundModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("RefundCase", id.String())
		}
		return nil, fmt.Errorf("failed to find refund case by ID: %w", err)
	}
	return toDomainRefund(&model)
}

// FindByBookingID retrieves the most recent refund case for a booking.
func (r *GormRefundRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*refundDomain.RefundCase, error) {
	var model RefundModel
	if err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("RefundCase", bookingID.String())
		}
		return nil, fmt.Errorf("failed to find refund case by booking: %w", err)
	}
	return toDomainRefund(&model)
}

// FindByWorkshopID retrieves refund cases against a workshop with pagination.
func (r *GormRefundRepository) FindByWorkshopID(ctx context.Context, workshopID uuid.UUID, page, limit int) ([]*refundDomain.RefundCase, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&RefundModel{}).Where("workshop_id = ?", workshopID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count refund cases: %w", err)
	}

	var models []RefundModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Where("workshop_id = ?", workshopID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find refund cases: %w", err)
	}

	cases := make([]*refundDomain.RefundCase, len(models))
	for i, m := range models {
		rc, err := toDomainRefund(&m)
		if err != nil {
			return nil, 0, err
		}
		cases[i] = rc
	}
	return cases, total, nil
}

// Save persists a new refund case.
func (r *GormRefundRepository) Save(ctx context.Context, rc *refundDomain.RefundCase) error {
	model, err := toRefundModel(rc)
	if err != nil {
		return fmt.Errorf("failed to convert refund case to model: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save refund case: %w", err)
	}
	return nil
}

// Update persists changes to an existing refund case with optimistic locking.
func (r *GormRefundRepository) Update(ctx context.Context, rc *refundDomain.RefundCase) error {
	model, err := toRefundModel(rc)
	if err != nil {
		return fmt.Errorf("failed to convert refund case to model: %w", err)
	}

	expectedVersion := rc.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&RefundModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":     model.Status,
			"timeline":   model.Timeline,
			"comments":   model.Comments,
			"version":    model.Version,
			"updated_at": model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update refund case: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("refund case was modified by another transaction")
	}
	return nil
}

// --- Conversion Helpers ---

func toRefundModel(rc *refundDomain.RefundCase) (*RefundModel, error) {
	timelineJSON, err := json.Marshal(rc.Timeline())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal timeline: %w", err)
	}
	commentsJSON, err := json.Marshal(rc.Comments())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal comments: %w", err)
	}

	return &RefundModel{
		ID:          rc.ID(),
		BookingID:   rc.BookingID(),
		WorkshopID:  rc.WorkshopID(),
		CustomerID:  rc.CustomerID(),
		Amount:      rc.Amount(),
		Reason:      rc.Reason(),
		Description: rc.Description(),
		Evidence:    rc.Evidence(),
		Status:      string(rc.Status()),
		Timeline:    timelineJSON,
		Comments:    commentsJSON,
		Version:     rc.Version(),
		CreatedAt:   rc.CreatedAt(),
		UpdatedAt:   rc.UpdatedAt(),
	}, nil
}

func toDomainRefund(m *RefundModel) (*refundDomain.RefundCase, error) {
	var timeline []refundDomain.TimelineEntry
	if len(m.Timeline) > 0 {
		if err := json.Unmarshal(m.Timeline, &timeline); err != nil {
			return nil, fmt.Errorf("failed to unmarshal timeline: %w", err)
		}
	}
	var comments []refundDomain.Comment
	if len(m.Comments) > 0 {
		if err := json.Unmarshal(m.Comments, &comments); err != nil {
			return nil, fmt.Errorf("failed to unmarshal comments: %w", err)
		}
	}

	return refundDomain.Reconstruct(
		m.ID, m.BookingID, m.WorkshopID, m.CustomerID,
		m.Amount,
		m.Reason, m.Description, m.Evidence,
		refundDomain.Status(m.Status),
		timeline, comments,
		m.Version,
		m.CreatedAt, m.UpdatedAt,
	), nil
}
