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
	bookingDomain "github.com/BengkelGo/service-marketplace/internal/domain/booking"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	CustomerID   uuid.UUID       `gorm:"type:uuid;index;not null"`
	WorkshopID   uuid.UUID       `gorm:"type:uuid;index;not null"`
	VehicleName  string          `gorm:"not null;size:100"`
	VehiclePlate string          `gorm:"not null;size:20"`
	ServiceType  string          `gorm:"not null;size:50"`
	Services     json.RawMessage `gorm:"type:jsonb;not null"`
	Date         string          `gorm:"not null;size:10"`
	TimeSlot     string          `gorm:"not null;size:20"`
	Status       string          `gorm:"not null;size:30;index"`
	TotalAmount  *float64        `gorm:""`
	QuoteID      *uuid.UUID      `gorm:"type:uuid"`
	CancelNote   string          `gorm:"size:500"`
	CancelledAt  *time.Time      `gorm:""`
	PaidAt       *time.Time      `gorm:""`
	CompletedAt  *time.Time      `gorm:""`
	Version      int64           `gorm:"not null;default:1"`
	CreatedAt    time.Time       `gorm:"not null"`
	UpdatedAt    time.Time       `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of booking.Repository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", id.String())
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByCustomerID retrieves bookings placed by a customer with pagination.
func (r *GormBookingRepository) FindByCustomerID(ctx context.Context, customerID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.findWhere(ctx, "customer_id = ?", customerID, page, limit)
}

// FindByWorkshopID retrieves bookings placed against a workshop with pagination.
func (r *GormBookingRepository) FindByWorkshopID(ctx context.Context, workshopID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.findWhere(ctx, "workshop_id = ?", workshopID, page, limit)
}

func (r *GormBookingRepository) findWhere(ctx context.Context, query string, arg interface{}, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).Where(query, arg).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Where(query, arg).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find bookings: %w", err)
	}

	return toDomainBookings(models, total)
}

// ListAll retrieves all bookings with pagination (admin).
func (r *GormBookingRepository) ListAll(ctx context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	return toDomainBookings(models, total)
}

// CountByStatus returns booking counts grouped by status (admin).
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// Save persists a new booking.
func (r *GormBookingRepository) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	model, err := toBookingModel(bk)
	if err != nil {
		return fmt.Errorf("failed to convert booking to model: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save booking: %w", err)
	}
	return nil
}

// Update persists changes to an existing booking with optimistic locking.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	model, err := toBookingModel(bk)
	if err != nil {
		return fmt.Errorf("failed to convert booking to model: %w", err)
	}

	// Only update if the version matches (current version - 1 since
	// IncrementVersion was called before Update).
	expectedVersion := bk.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":       model.Status,
			"services":     model.Services,
			"total_amount": model.TotalAmount,
			"quote_id":     model.QuoteID,
			"cancel_note":  model.CancelNote,
			"cancelled_at": model.CancelledAt,
			"paid_at":      model.PaidAt,
			"completed_at": model.CompletedAt,
			"version":      model.Version,
			"updated_at":   model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update booking: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("booking was modified by another transaction")
	}
	return nil
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) (*BookingModel, error) {
	servicesJSON, err := json.Marshal(bk.Services())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal services: %w", err)
	}

	return &BookingModel{
		ID:           bk.ID(),
		CustomerID:   bk.CustomerID(),
		WorkshopID:   bk.WorkshopID(),
		VehicleName:  bk.VehicleName(),
		VehiclePlate: bk.VehiclePlate(),
		ServiceType:  bk.ServiceType(),
		Services:     servicesJSON,
		Date:         bk.Date(),
		TimeSlot:     bk.TimeSlot(),
		Status:       string(bk.Status()),
		TotalAmount:  bk.TotalAmount(),
		QuoteID:      bk.QuoteID(),
		CancelNote:   bk.CancelNote(),
		CancelledAt:  bk.CancelledAt(),
		PaidAt:       bk.PaidAt(),
		CompletedAt:  bk.CompletedAt(),
		Version:      bk.Version(),
		CreatedAt:    bk.CreatedAt(),
		UpdatedAt:    bk.UpdatedAt(),
	}, nil
}

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	var services []string
	if len(m.Services) > 0 {
		if err := json.Unmarshal(m.Services, &services); err != nil {
			return nil, fmt.Errorf("failed to unmarshal services: %w", err)
		}
	}

	return bookingDomain.Reconstruct(
		m.ID, m.CustomerID, m.WorkshopID,
		m.VehicleName, m.VehiclePlate, m.ServiceType,
		services,
		m.Date, m.TimeSlot,
		bookingDomain.Status(m.Status),
		m.TotalAmount, m.QuoteID,
		m.CancelNote,
		m.CancelledAt, m.PaidAt, m.CompletedAt,
		m.Version,
		m.CreatedAt, m.UpdatedAt,
	), nil
}

func toDomainBookings(models []BookingModel, total int64) ([]*bookingDomain.Booking, int64, error) {
	bookings := make([]*bookingDomain.Booking, len(models))
	for i, m := range models {
		bk, err := toDomainBooking(&m)
		if err != nil {
			return nil, 0, err
		}
		bookings[i] = bk
	}
	return bookings, total, nil
}
