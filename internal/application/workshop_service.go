package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BengkelGo/service-marketplace/internal/cache"
	"github.com/BengkelGo/service-marketplace/internal/domain"
	"github.com/BengkelGo/service-marketplace/internal/domain/workshop"
)

// WorkshopCache is the subset of the cache client the workshop read path uses.
type WorkshopCache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// CreateWorkshopRequest holds the data needed to register a workshop.
type CreateWorkshopRequest struct {
	Name     string   `json:"name" binding:"required"`
	Address  string   `json:"address" binding:"required"`
	Phone    string   `json:"phone"`
	Services []string `json:"services"`
}

// UpdateWorkshopRequest carries partial profile updates.
type UpdateWorkshopRequest struct {
	Name     string   `json:"name"`
	Address  string   `json:"address"`
	Phone    string   `json:"phone"`
	Services []string `json:"services"`
}

// WorkshopDTO is the response representation of a workshop.
type WorkshopDTO struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"ownerId"`
	Name        string    `json:"name"`
	Address     string    `json:"address"`
	Phone       string    `json:"phone,omitempty"`
	Services    []string  `json:"services"`
	Rating      float64   `json:"rating"`
	ReviewCount int64     `json:"reviewCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// WorkshopService owns workshop registration and the cached read path.
type WorkshopService struct {
	workshops workshop.Repository
	cache     WorkshopCache
	logger    *zap.Logger
}

// NewWorkshopService creates a new WorkshopService.
func NewWorkshopService(workshops workshop.Repository, cache WorkshopCache, logger *zap.Logger) *WorkshopService {
	return &WorkshopService{workshops: workshops, cache: cache, logger: logger}
}

// CreateWorkshop registers a workshop under the authenticated owner account.
func (s *WorkshopService) CreateWorkshop(ctx context.Context, ownerID uuid.UUID, req CreateWorkshopRequest) (*WorkshopDTO, error) {
	ws, err := workshop.NewWorkshop(ownerID, req.Name, req.Address, req.Phone, req.Services)
	if err != nil {
		return nil, err
	}
	if err := s.workshops.Save(ctx, ws); err != nil {
		return nil, fmt.Errorf("failed to save workshop: %w", err)
	}
	result := toWorkshopDTO(ws)
	return &result, nil
}

// UpdateWorkshop applies profile changes and drops the cached copy.
func (s *WorkshopService) UpdateWorkshop(ctx context.Context, ownerID, workshopID uuid.UUID, req UpdateWorkshopRequest) (*WorkshopDTO, error) {
	ws, err := s.workshops.FindByID(ctx, workshopID)
	if err != nil {
		return nil, err
	}
	if !ws.IsOwnedBy(ownerID) {
		return nil, domain.NewForbiddenError("workshop does not belong to this owner")
	}

	ws.UpdateProfile(req.Name, req.Address, req.Phone, req.Services)
	if err := s.workshops.Update(ctx, ws); err != nil {
		return nil, err
	}
	s.invalidate(ctx, workshopID)

	result := toWorkshopDTO(ws)
	return &result, nil
}

// GetWorkshop reads through the cache: a miss loads from the database and
// backfills the cache. Cache failures degrade to a database read.
func (s *WorkshopService) GetWorkshop(ctx context.Context, workshopID uuid.UUID) (*WorkshopDTO, error) {
	key := workshopCacheKey(workshopID)

	var cached WorkshopDTO
	err := s.cache.Get(ctx, key, &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		s.logger.Warn("workshop cache read failed", zap.String("key", key), zap.Error(err))
	}

	ws, err := s.workshops.FindByID(ctx, workshopID)
	if err != nil {
		return nil, err
	}
	result := toWorkshopDTO(ws)
	if err := s.cache.Set(ctx, key, result, cache.WorkshopTTL); err != nil {
		s.logger.Warn("workshop cache write failed", zap.String("key", key), zap.Error(err))
	}
	return &result, nil
}

// GetOwnerWorkshops lists the workshops registered by an owner account.
func (s *WorkshopService) GetOwnerWorkshops(ctx context.Context, ownerID uuid.UUID) ([]WorkshopDTO, error) {
	workshops, err := s.workshops.FindByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	dtos := make([]WorkshopDTO, 0, len(workshops))
	for _, ws := range workshops {
		dtos = append(dtos, toWorkshopDTO(ws))
	}
	return dtos, nil
}

// ListWorkshops retrieves the workshop directory with pagination.
func (s *WorkshopService) ListWorkshops(ctx context.Context, page, limit int) (*domain.PaginatedResult[WorkshopDTO], error) {
	workshops, total, err := s.workshops.ListAll(ctx, page, limit)
	if err != nil {
		return nil, err
	}
	dtos := make([]WorkshopDTO, 0, len(workshops))
	for _, ws := range workshops {
		dtos = append(dtos, toWorkshopDTO(ws))
	}
	return domain.NewPaginatedResult(dtos, total, page, limit), nil
}

// InvalidateWorkshop drops the cached copy after an out-of-band change, such
// as a rating update from a new review.
func (s *WorkshopService) InvalidateWorkshop(ctx context.Context, workshopID uuid.UUID) {
	s.invalidate(ctx, workshopID)
}

func (s *WorkshopService) invalidate(ctx context.Context, workshopID uuid.UUID) {
	key := workshopCacheKey(workshopID)
	if err := s.cache.Delete(ctx, key); err != nil {
		s.logger.Warn("workshop cache invalidation failed", zap.String("key", key), zap.Error(err))
	}
}

func workshopCacheKey(workshopID uuid.UUID) string {
	return "workshop:" + workshopID.String()
}

func toWorkshopDTO(ws *workshop.Workshop) WorkshopDTO {
	return WorkshopDTO{
		ID:          ws.ID(),
		OwnerID:     ws.OwnerID(),
		Name:        ws.Name(),
		Address:     ws.Address(),
		Phone:       ws.Phone(),
		Services:    ws.Services(),
		Rating:      ws.Rating(),
		ReviewCount: ws.ReviewCount(),
		CreatedAt:   ws.CreatedAt(),
		UpdatedAt:   ws.UpdatedAt(),
	}
}
