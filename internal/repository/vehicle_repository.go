package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/BengkelGo/service-marketplace/internal/domain"
	vehicleDomain "github.com/BengkelGo/service-marketplace/internal/domain/vehicle"
)

// VehicleModel is the GORM model for the vehicles table.
type VehicleModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	CustomerID uuid.UUID `gorm:"type:uuid;index;not null"`
	Name       string    `gorm:"not null;size:100"`
	Plate      string    `gorm:"not null;size:20"`
	Model      string    `gorm:"size:100"`
	Year       int       `gorm:""`
	IsPrimary  bool      `gorm:"not null;default:false"`
	Version    int64     `gorm:"not null;default:1"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (VehicleModel) TableName() string {
	return "vehicles"
}

// GormVehicleRepository is the GORM-based implementation of vehicle.Repository.
type GormVehicleRepository struct {
	db *gorm.DB
}

// NewGormVehicleRepository creates a new GormVehicleRepository.
func NewGormVehicleRepository(db *gorm.DB) *GormVehicleRepository {
	return &GormVehicleRepository{db: db}
}

// FindByID retrieves a vehicle by its unique identifier.
func (r *GormVehicleRepository) FindByID(ctx context.Context, id uuid.UUID) (*vehicleDomain.Vehicle, error) {
	var model VehicleModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Vehicle", id.String())
		}
		return nil, fmt.Errorf("failed to find vehicle by ID: %w", err)
	}
	return toDomainVehicle(&model), nil
}

// FindByCustomerID retrieves all vehicles belonging to a customer, primary
// first, then newest first.
func (r *GormVehicleRepository) FindByCustomerID(ctx context.Context, customerID uuid.UUID) ([]*vehicleDomain.Vehicle, error) {
	var models []VehicleModel
	if err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("is_primary DESC, created_at DESC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find vehicles: %w", err)
	}

	vehicles := make([]*vehicleDomain.Vehicle, len(models))
	for i, m := range models {
		vehicles[i] = toDomainVehicle(&m)
	}
	return vehicles, nil
}

// CountByCustomerID returns how many vehicles a customer has registered.
func (r *GormVehicleRepository) CountByCustomerID(ctx context.Context, customerID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&VehicleModel{}).Where("customer_id = ?", customerID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count vehicles: %w", err)
	}
	return count, nil
}

// Save persists a new vehicle.
func (r *GormVehicleRepository) Save(ctx context.Context, v *vehicleDomain.Vehicle) error {
	if err := r.db.WithContext(ctx).Create(toVehicleModel(v)).Error; err != nil {
		return fmt.Errorf("failed to save vehicle: %w", err)
	}
	return nil
}

// Update persists changes to an existing vehicle with optimistic locking.
func (r *GormVehicleRepository) Update(ctx context.Context, v *vehicleDomain.Vehicle) error {
	model := toVehicleModel(v)

	expectedVersion := v.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&VehicleModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"name":       model.Name,
			"plate":      model.Plate,
			"model":      model.Model,
			"year":       model.Year,
			"version":    model.Version,
			"updated_at": model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update vehicle: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("vehicle was modified by another transaction")
	}
	return nil
}

// Delete removes a vehicle profile.
func (r *GormVehicleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&VehicleModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete vehicle: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Vehicle", id.String())
	}
	return nil
}

// SetPrimary atomically makes the given vehicle the customer's primary one.
// The previous primary is demoted in the same transaction, so at no point do
// two primaries exist.
func (r *GormVehicleRepository) SetPrimary(ctx context.Context, customerID, vehicleID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()

		if err := tx.Model(&VehicleModel{}).
			Where("customer_id = ? AND is_primary = true AND id <> ?", customerID, vehicleID).
			Updates(map[string]interface{}{"is_primary": false, "updated_at": now}).Error; err != nil {
			return fmt.Errorf("failed to demote previous primary: %w", err)
		}

		result := tx.Model(&VehicleModel{}).
			Where("id = ? AND customer_id = ?", vehicleID, customerID).
			Updates(map[string]interface{}{"is_primary": true, "updated_at": now})
		if result.Error != nil {
			return fmt.Errorf("failed to promote vehicle: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return domain.NewNotFoundError("Vehicle", vehicleID.String())
		}
		return nil
	})
}

// --- Conversion Helpers ---

func toVehicleModel(v *vehicleDomain.Vehicle) *VehicleModel {
	return &VehicleModel{
		ID:         v.ID(),
		CustomerID: v.CustomerID(),
		Name:       v.Name(),
		Plate:      v.Plate(),
		Model:      v.Model(),
		Year:       v.Year(),
		IsPrimary:  v.IsPrimary(),
		Version:    v.Version(),
		CreatedAt:  v.CreatedAt(),
		UpdatedAt:  v.UpdatedAt(),
	}
}

func toDomainVehicle(m *VehicleModel) *vehicleDomain.Vehicle {
	return vehicleDomain.Reconstruct(
		m.ID, m.CustomerID,
		m.Name, m.Plate, m.Model,
		m.Year,
		m.IsPrimary,
		m.Version,
		m.CreatedAt, m.UpdatedAt,
	)
}
