package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BengkelGo/service-marketplace/internal/domain"
	"github.com/BengkelGo/service-marketplace/internal/domain/vehicle"
)

// AddVehicleRequest holds the data needed to register a vehicle.
type AddVehicleRequest struct {
	Name      string `json:"name" binding:"required"`
	Plate     string `json:"plate" binding:"required"`
	Model     string `json:"model"`
	Year      int    `json:"year"`
	IsPrimary bool   `json:"isPrimary"`
}

// UpdateVehicleRequest carries partial profile updates.
type UpdateVehicleRequest struct {
	Name  string `json:"name"`
	Plate string `json:"plate"`
	Model string `json:"model"`
	Year  int    `json:"year"`
}

// VehicleDTO is the response representation of a vehicle.
type VehicleDTO struct {
	ID         uuid.UUID `json:"id"`
	CustomerID uuid.UUID `json:"customerId"`
	Name       string    `json:"name"`
	Plate      string    `json:"plate"`
	Model      string    `json:"model,omitempty"`
	Year       int       `json:"year,omitempty"`
	IsPrimary  bool      `json:"isPrimary"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// VehicleService owns the customer's vehicle garage.
type VehicleService struct {
	vehicles vehicle.Repository
	logger   *zap.Logger
}

// NewVehicleService creates a new VehicleService.
func NewVehicleService(vehicles vehicle.Repository, logger *zap.Logger) *VehicleService {
	return &VehicleService{vehicles: vehicles, logger: logger}
}

// AddVehicle registers a vehicle. The customer's first vehicle becomes primary
// regardless of the flag in the request; a later vehicle added as primary
// demotes the current one atomically.
func (s *VehicleService) AddVehicle(ctx context.Context, customerID uuid.UUID, req AddVehicleRequest) (*VehicleDTO, error) {
	count, err := s.vehicles.CountByCustomerID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	isPrimary := req.IsPrimary || count == 0

	v, err := vehicle.NewVehicle(customerID, req.Name, req.Plate, req.Model, req.Year, isPrimary)
	if err != nil {
		return nil, err
	}
	if err := s.vehicles.Save(ctx, v); err != nil {
		return nil, fmt.Errorf("failed to save vehicle: %w", err)
	}
	if isPrimary && count > 0 {
		if err := s.vehicles.SetPrimary(ctx, customerID, v.ID()); err != nil {
			return nil, err
		}
	}

	result := toVehicleDTO(v)
	return &result, nil
}

// UpdateVehicle applies partial profile changes to an owned vehicle.
func (s *VehicleService) UpdateVehicle(ctx context.Context, customerID, vehicleID uuid.UUID, req UpdateVehicleRequest) (*VehicleDTO, error) {
	v, err := s.requireVehicle(ctx, customerID, vehicleID)
	if err != nil {
		return nil, err
	}
	v.Update(req.Name, req.Plate, req.Model, req.Year)
	if err := s.vehicles.Update(ctx, v); err != nil {
		return nil, err
	}
	result := toVehicleDTO(v)
	return &result, nil
}

// RemoveVehicle deletes an owned vehicle profile. Removing the primary vehicle
// leaves the customer with no primary until they pick a new one.
func (s *VehicleService) RemoveVehicle(ctx context.Context, customerID, vehicleID uuid.UUID) error {
	if _, err := s.requireVehicle(ctx, customerID, vehicleID); err != nil {
		return err
	}
	return s.vehicles.Delete(ctx, vehicleID)
}

// SetPrimaryVehicle makes the given vehicle the customer's primary one. The
// repository clears the previous primary in the same transaction.
func (s *VehicleService) SetPrimaryVehicle(ctx context.Context, customerID, vehicleID uuid.UUID) error {
	if _, err := s.requireVehicle(ctx, customerID, vehicleID); err != nil {
		return err
	}
	return s.vehicles.SetPrimary(ctx, customerID, vehicleID)
}

// ListVehicles lists the customer's vehicles, primary first.
func (s *VehicleService) ListVehicles(ctx context.Context, customerID uuid.UUID) ([]VehicleDTO, error) {
	vehicles, err := s.vehicles.FindByCustomerID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	dtos := make([]VehicleDTO, 0, len(vehicles))
	for _, v := range vehicles {
		dtos = append(dtos, toVehicleDTO(v))
	}
	return dtos, nil
}

func (s *VehicleService) requireVehicle(ctx context.Context, customerID, vehicleID uuid.UUID) (*vehicle.Vehicle, error) {
	v, err := s.vehicles.FindByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	if !v.IsOwnedBy(customerID) {
		return nil, domain.NewForbiddenError("vehicle does not belong to this customer")
	}
	return v, nil
}

func toVehicleDTO(v *vehicle.Vehicle) VehicleDTO {
	return VehicleDTO{
		ID:         v.ID(),
		CustomerID: v.CustomerID(),
		Name:       v.Name(),
		Plate:      v.Plate(),
		Model:      v.Model(),
		Year:       v.Year(),
		IsPrimary:  v.IsPrimary(),
		CreatedAt:  v.CreatedAt(),
		UpdatedAt:  v.UpdatedAt(),
	}
}
