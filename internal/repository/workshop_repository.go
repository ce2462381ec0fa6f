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
	workshopDomain "github.com/BengkelGo/service-marketplace/internal/domain/workshop"
)

// WorkshopModel is the GORM model for the workshops table.
type WorkshopModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OwnerID     uuid.UUID       `gorm:"type:uuid;index;not null"`
	Name        string          `gorm:"not null;size:150"`
	Address     string          `gorm:"not null;size:300"`
	Phone       string          `gorm:"size:30"`
	Services    json.RawMessage `gorm:"type:jsonb"`
	Rating      float64         `gorm:"not null;default:0"`
	ReviewCount int64           `gorm:"not null;default:0"`
	Version     int64           `gorm:"not null;default:1"`
	CreatedAt   time.Time       `gorm:"not null"`
	UpdatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (WorkshopModel) TableName() string {
	return "workshops"
}

// GormWorkshopRepository is the GORM-based implementation of workshop.Repository.
type GormWorkshopRepository struct {
	db *gorm.DB
}

// NewGormWorkshopRepository creates a new GormWorkshopRepository.
func NewGormWorkshopRepository(db *gorm.DB) *GormWorkshopRepository {
	return &GormWorkshopRepository{db: db}
}

// FindByID retrieves a workshop by its unique identifier.
func (r *GormWorkshopRepository) FindByID(ctx context.Context, id uuid.UUID) (*workshopDomain.Workshop, error) {
	var model WorkshopModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Workshop", id.String())
		}
		return nil, fmt.Errorf("failed to find workshop by ID: %w", err)
	}
	return toDomainWorkshop(&model)
}

// FindByOwnerID retrieves the workshops registered by an owner account.
func (r *GormWorkshopRepository) FindByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]*workshopDomain.Workshop, error) {
	var models []WorkshopModel
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find workshops by owner: %w", err)
	}

	workshops := make([]*workshopDomain.Workshop, len(models))
	for i, m := range models {
		ws, err := toDomainWorkshop(&m)
		if err != nil {
			return nil, err
		}
		workshops[i] = ws
	}
	return workshops, nil
}

// ListAll retrieves workshops with pagination.
func (r *GormWorkshopRepository) ListAll(ctx context.Context, page, limit int) ([]*workshopDomain.Workshop, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&WorkshopModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count workshops: %w", err)
	}

	var models []WorkshopModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Order("rating DESC, created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list workshops: %w", err)
	}

	workshops := make([]*workshopDomain.Workshop, len(models))
	for i, m := range models {
		ws, err := toDomainWorkshop(&m)
		if err != nil {
			return nil, 0, err
		}
		workshops[i] = ws
	}
	return workshops, total, nil
}

// Save persists a new workshop.
func (r *GormWorkshopRepository) Save(ctx context.Context, ws *workshopDomain.Workshop) error {
	model, err := toWorkshopModel(ws)
	if err != nil {
		return fmt.Errorf("failed to convert workshop to model: %w", err)
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save workshop: %w", err)
	}
	return nil
}

// Update persists changes to an existing workshop with optimistic locking.
func (r *GormWorkshopRepository) Update(ctx context.Context, ws *workshopDomain.Workshop) error {
	model, err := toWorkshopModel(ws)
	if err != nil {
		return fmt.Errorf("failed to convert workshop to model: %w", err)
	}

	expectedVersion := ws.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&WorkshopModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"name":         model.Name,
			"address":      model.Address,
			"phone":        model.Phone,
			"services":     model.Services,
			"rating":       model.Rating,
			"review_count": model.ReviewCount,
			"version":      model.Version,
			"updated_at":   model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update workshop: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("workshop was modified by another transaction")
	}
	return nil
}

// --- Conversion Helpers ---

func toWorkshopModel(ws *workshopDomain.Workshop) (*WorkshopModel, error) {
	servicesJSON, err := json.Marshal(ws.Services())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal services: %w", err)
	}

	return &WorkshopModel{
		ID:          ws.ID(),
		OwnerID:     ws.OwnerID(),
		Name:        ws.Name(),
		Address:     ws.Address(),
		Phone:       ws.Phone(),
		Services:    servicesJSON,
		Rating:      ws.Rating(),
		ReviewCount: ws.ReviewCount(),
		Version:     ws.Version(),
		CreatedAt:   ws.CreatedAt(),
		UpdatedAt:   ws.UpdatedAt(),
	}, nil
}

func toDomainWorkshop(m *WorkshopModel) (*workshopDomain.Workshop, error) {
	var services []string
	if len(m.Services) > 0 {
		if err := json.Unmarshal(m.Services, &services); err != nil {
			return nil, fmt.Errorf("failed to unmarshal services: %w", err)
		}
	}

	return workshopDomain.Reconstruct(
		m.ID, m.OwnerID,
		m.Name, m.Address, m.Phone,
		services,
		m.Rating,
		m.ReviewCount,
		m.Version,
		m.CreatedAt, m.UpdatedAt,
	), nil
}
