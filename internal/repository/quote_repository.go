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
	quoteDomain "github.com/BengkelGo/service-marketplace/internal/domain/quote"
)

// QuoteModel is the GORM model for the quotes table.
type QuoteModel struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey"`
	BookingID  uuid.UUID       `gorm:"type:uuid;index;not null"`
	WorkshopID uuid.UUID       `gorm:"type:uuid;index;not null"`
	Items      json.RawMessage `gorm:"type:jsonb;not null"`
	Labor      float64         `gorm:"not null"`
	Tax        float64         `gorm:"not null"`
	Total      float64         `gorm:"not null"`
	Diagnosis  string          `gorm:"size:1000"`
	Note       string          `gorm:"size:1000"`
	Status     string          `gorm:"not null;size:20;index"`
	Version    int64           `gorm:"not null;default:1"`
	CreatedAt  time.Time       `gorm:"not null"`
	UpdatedAt  time.Time       `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (QuoteModel) TableName() string {
	return "quotes"
}

// GormQuoteRepository is the GORM-based implementation of quote.Repository.
type GormQuoteRepository struct {
	db *gorm.DB
}

// NewGormQuoteRepository creates a new GormQuoteRepository.
func NewGormQuoteRepository(db *gorm.DB) *GormQuoteRepository {
	return &GormQuoteRepository{db: db}
}

// FindByID retrieves a quote by its unique identifier.
func (r *GormQuoteRepository) FindByID(ctx context.Context, id uuid.UUID) (*quoteDomain.Quote, error) {
	var model QuoteModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Quote", id.String())
		}
		return nil, fmt.Errorf("failed to find quote by ID: %w", err)
	}
	return toDomainQuote(&model)
}

// FindActiveByBookingID retrieves the pending quote for a booking, if any.
func (r *GormQuoteRepository) FindActiveByBookingID(ctx context.Context, bookingID uuid.UUID) (*quoteDomain.Quote, error) {
	var model QuoteModel
	if err := r.db.WithContext(ctx).
		Where("booking_id = ? AND status = ?", bookingID, string(quoteDomain.StatusPending)).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Quote", bookingID.String())
		}
		return nil, fmt.Errorf("failed to find active quote: %w", err)
	}
	return toDomainQuote(&model)
}

// FindByBookingID retrieves the most recent quote for a booking.
func (r *GormQuoteRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*quoteDomain.Quote, error) {
	var model QuoteModel
	if err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Quote", bookingID.String())
		}
		return nil, fmt.Errorf("failed to find quote by booking: %w", err)
	}
	return toDomainQuote(&model)
}

// Save persists a new quote.
func (r *GormQuoteRepository) Save(ctx context.Context, q *quoteDomain.Quote) error {
	model, err := toQuoteModel(q)
	if err != nil {
		return fmt.Errorf("failed to convert quote to model: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save quote: %w", err)
	}
	return nil
}

// Update persists changes to an existing quote with optimistic locking.
func (r *GormQuoteRepository) Update(ctx context.Context, q *quoteDomain.Quote) error {
	model, err := toQuoteModel(q)
	if err != nil {
		return fmt.Errorf("failed to convert quote to model: %w", err)
	}

	expectedVersion := q.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&QuoteModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":     model.Status,
			"version":    model.Version,
			"updated_at": model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update quote: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("quote was modified by another transaction")
	}
	return nil
}

// Delete removes a quote. Used for withdrawals, which keep no audit record.
func (r *GormQuoteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&QuoteModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete quote: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Quote", id.String())
	}
	return nil
}

// --- Conversion Helpers ---

func toQuoteModel(q *quoteDomain.Quote) (*QuoteModel, error) {
	itemsJSON, err := json.Marshal(q.Items())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal quote items: %w", err)
	}

	return &QuoteModel{
		ID:         q.ID(),
		BookingID:  q.BookingID(),
		WorkshopID: q.WorkshopID(),
		Items:      itemsJSON,
		Labor:      q.Labor(),
		Tax:        q.Tax(),
		Total:      q.Total(),
		Diagnosis:  q.Diagnosis(),
		Note:       q.Note(),
		Status:     string(q.Status()),
		Version:    q.Version(),
		CreatedAt:  q.CreatedAt(),
		UpdatedAt:  q.UpdatedAt(),
	}, nil
}

func toDomainQuote(m *QuoteModel) (*quoteDomain.Quote, error) {
	var items []quoteDomain.LineItem
	if len(m.Items) > 0 {
		if err := json.Unmarshal(m.Items, &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal quote items: %w", err)
		}
	}

	return quoteDomain.Reconstruct(
		m.ID, m.BookingID, m.WorkshopID,
		items,
		m.Labor, m.Tax, m.Total,
		m.Diagnosis, m.Note,
		quoteDomain.Status(m.Status),
		m.Version,
		m.CreatedAt, m.UpdatedAt,
	), nil
}
