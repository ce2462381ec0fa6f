package application

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BengkelGo/service-marketplace/internal/domain"
)

func newVehicleService(vehicles *memVehicles) *VehicleService {
	return NewVehicleService(vehicles, zap.NewNop())
}

func TestAddVehicle_FirstBecomesPrimary(t *testing.T) {
	vehicles := newMemVehicles()
	service := newVehicleService(vehicles)
	customerID := uuid.New()

	dto, err := service.AddVehicle(context.Background(), customerID, AddVehicleRequest{
		Name:  "Honda Civic",
		Plate: "WXY 1234",
	})
	require.NoError(t, err)
	assert.True(t, dto.IsPrimary, "first vehicle is always primary")
}

func TestAddVehicle_NewPrimaryDemotesExisting(t *testing.T) {
	vehicles := newMemVehicles()
	service := newVehicleService(vehicles)
	ctx := context.Background()
	customerID := uuid.New()

	first, err := service.AddVehicle(ctx, customerID, AddVehicleRequest{Name: "Honda Civic", Plate: "WXY 1234"})
	require.NoError(t, err)

	second, err := service.AddVehicle(ctx, customerID, AddVehicleRequest{
		Name:      "Proton Saga",
		Plate:     "VBA 5678",
		IsPrimary: true,
	})
	require.NoError(t, err)
	assert.True(t, second.IsPrimary)

	stored, err := vehicles.FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsPrimary(), "previous primary is demoted")
}

func TestAddVehicle_SecondNonPrimaryStaysSecondary(t *testing.T) {
	vehicles := newMemVehicles()
	service := newVehicleService(vehicles)
	ctx := context.Background()
	customerID := uuid.New()

	_, err := service.AddVehicle(ctx, customerID, AddVehicleRequest{Name: "Honda Civic", Plate: "WXY 1234"})
	require.NoError(t, err)

	second, err := service.AddVehicle(ctx, customerID, AddVehicleRequest{Name: "Proton Saga", Plate: "VBA 5678"})
	require.NoError(t, err)
	assert.False(t, second.IsPrimary)
}

func TestSetPrimaryVehicle_SwapsFlag(t *testing.T) {
	vehicles := newMemVehicles()
	service := newVehicleService(vehicles)
	ctx := context.Background()
	customerID := uuid.New()

	first, err := service.AddVehicle(ctx, customerID, AddVehicleRequest{Name: "Honda Civic", Plate: "WXY 1234"})
	require.NoError(t, err)
	second, err := service.AddVehicle(ctx, customerID, AddVehicleRequest{Name: "Proton Saga", Plate: "VBA 5678"})
	require.NoError(t, err)

	require.NoError(t, service.SetPrimaryVehicle(ctx, customerID, second.ID))

	list, err := service.ListVehicles(ctx, customerID)
	require.NoError(t, err)
	primaries := 0
	for _, v := range list {
		if v.IsPrimary {
			primaries++
			assert.Equal(t, second.ID, v.ID)
		}
	}
	assert.Equal(t, 1, primaries, "exactly one primary per customer")

	demoted, err := vehicles.FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, demoted.IsPrimary())
}

func TestSetPrimaryVehicle_NotOwned(t *testing.T) {
	vehicles := newMemVehicles()
	service := newVehicleService(vehicles)
	ctx := context.Background()

	dto, err := service.AddVehicle(ctx, uuid.New(), AddVehicleRequest{Name: "Honda Civic", Plate: "WXY 1234"})
	require.NoError(t, err)

	err = service.SetPrimaryVehicle(ctx, uuid.New(), dto.ID)
	require.Error(t, err)
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))
}

func TestUpdateVehicle_OwnedOnly(t *testing.T) {
	vehicles := newMemVehicles()
	service := newVehicleService(vehicles)
	ctx := context.Background()
	customerID := uuid.New()

	dto, err := service.AddVehicle(ctx, customerID, AddVehicleRequest{Name: "Honda Civic", Plate: "WXY 1234"})
	require.NoError(t, err)

	_, err = service.UpdateVehicle(ctx, uuid.New(), dto.ID, UpdateVehicleRequest{Name: "Stolen"})
	require.Error(t, err)
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))

	updated, err := service.UpdateVehicle(ctx, customerID, dto.ID, UpdateVehicleRequest{Name: "Honda Civic FC", Year: 2019})
	require.NoError(t, err)
	assert.Equal(t, "Honda Civic FC", updated.Name)
	assert.Equal(t, 2019, updated.Year)
}

func TestRemoveVehicle(t *testing.T) {
	vehicles := newMemVehicles()
	service := newVehicleService(vehicles)
	ctx := context.Background()
	customerID := uuid.New()

	dto, err := service.AddVehicle(ctx, customerID, AddVehicleRequest{Name: "Honda Civic", Plate: "WXY 1234"})
	require.NoError(t, err)

	require.NoError(t, service.RemoveVehicle(ctx, customerID, dto.ID))

	list, err := service.ListVehicles(ctx, customerID)
	require.NoError(t, err)
	assert.Empty(t, list)

	err = service.RemoveVehicle(ctx, customerID, dto.ID)
	assert.True(t, domain.IsNotFound(err))
}
