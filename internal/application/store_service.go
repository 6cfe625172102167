package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AgendaLivre/service-scheduling/internal/cache"
	"github.com/AgendaLivre/service-scheduling/internal/domain/schedule"
	storeDomain "github.com/AgendaLivre/service-scheduling/internal/domain/store"
	"github.com/AgendaLivre/service-scheduling/internal/events"
	"github.com/AgendaLivre/service-scheduling/pkg/domain"
	"github.com/AgendaLivre/service-scheduling/pkg/kafka"
)

// CreateStoreRequest holds data to register a store.
type CreateStoreRequest struct {
	Name         string                `json:"name" binding:"required"`
	Timezone     string                `json:"timezone"`
	WorkingHours schedule.WorkingHours `json:"working_hours" binding:"required"`
	StepMinutes  int                   `json:"step_minutes"`
}

// UpdateWorkingHoursRequest replaces a store's weekly schedule.
type UpdateWorkingHoursRequest struct {
	WorkingHours schedule.WorkingHours `json:"working_hours" binding:"required"`
}

// CreateServiceRequest adds a catalog service to a store.
type CreateServiceRequest struct {
	Name            string `json:"name" binding:"required"`
	DurationMinutes int    `json:"duration_minutes" binding:"required,gt=0"`
	PriceCents      int64  `json:"price_cents"`
}

// StoreDTO is the API representation of a store.
type StoreDTO struct {
	ID           uuid.UUID             `json:"id"`
	Name         string                `json:"name"`
	Timezone     string                `json:"timezone"`
	WorkingHours schedule.WorkingHours `json:"working_hours"`
	StepMinutes  int                   `json:"step_minutes"`
	CreatedAt    time.Time             `json:"created_at"`
}

// ServiceDTO is the API representation of a catalog service.
type ServiceDTO struct {
	ID              uuid.UUID `json:"id"`
	StoreID         uuid.UUID `json:"store_id"`
	Name            string    `json:"name"`
	DurationMinutes int       `json:"duration_minutes"`
	PriceCents      int64     `json:"price_cents"`
	Active          bool      `json:"active"`
}

// StoreService handles store-settings use cases: registration, working
// hours and the service catalog.
type StoreService struct {
	repo     storeDomain.Repository
	cache    *cache.StoreCache
	producer EventPublisher
	logger   *zap.Logger
}

// NewStoreService creates a new StoreService.
func NewStoreService(repo storeDomain.Repository, storeCache *cache.StoreCache, producer EventPublisher, logger *zap.Logger) *StoreService {
	return &StoreService{repo: repo, cache: storeCache, producer: producer, logger: logger}
}

// CreateStore registers a new store.
func (s *StoreService) CreateStore(ctx context.Context, req CreateStoreRequest) (*StoreDTO, error) {
	st, err := storeDomain.NewStore(req.Name, req.Timezone, req.WorkingHours, req.StepMinutes)
	if err != nil {
		return nil, domain.NewValidationError(err.Error())
	}
	if err := st.UpdateWorkingHours(req.WorkingHours); err != nil {
		return nil, domain.NewValidationError(err.Error())
	}
	if err := s.repo.Save(ctx, st); err != nil {
		return nil, err
	}

	s.logger.Info("store created", zap.String("store_id", st.ID().String()))
	dto := toStoreDTO(st)
	return &dto, nil
}

// GetStore retrieves a store by ID.
func (s *StoreService) GetStore(ctx context.Context, id uuid.UUID) (*StoreDTO, error) {
	st, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := toStoreDTO(st)
	return &dto, nil
}

// UpdateWorkingHours replaces a store's schedule, drops the cached copy and
// publishes a StoreUpdated event so other replicas drop theirs too.
func (s *StoreService) UpdateWorkingHours(ctx context.Context, storeID uuid.UUID, req UpdateWorkingHoursRequest) (*StoreDTO, error) {
	st, err := s.repo.FindByID(ctx, storeID)
	if err != nil {
		return nil, err
	}

	if err := st.UpdateWorkingHours(req.WorkingHours); err != nil {
		return nil, domain.NewValidationError(err.Error())
	}

	if err := s.repo.Update(ctx, st); err != nil {
		return nil, err
	}
	s.cache.Invalidate(storeID)

	event := events.StoreUpdatedEvent{
		StoreID:      storeID,
		WorkingHours: req.WorkingHours,
		OccurredAt:   time.Now().UTC(),
	}
	if ce, err := kafka.NewCloudEvent("service-scheduling", events.StoreUpdated, event); err != nil {
		s.logger.Error("failed to create store updated event", zap.Error(err))
	} else if err := s.producer.PublishEvent(ctx, events.TopicStoreEvents, ce); err != nil {
		s.logger.Error("failed to publish store updated event", zap.Error(err))
	}

	s.logger.Info("working hours updated", zap.String("store_id", storeID.String()))
	dto := toStoreDTO(st)
	return &dto, nil
}

// CreateService adds a catalog service to a store.
func (s *StoreService) CreateService(ctx context.Context, storeID uuid.UUID, req CreateServiceRequest) (*ServiceDTO, error) {
	if _, err := s.repo.FindByID(ctx, storeID); err != nil {
		return nil, err
	}

	svc := storeDomain.Service{
		ID:              uuid.New(),
		StoreID:         storeID,
		Name:            req.Name,
		DurationMinutes: req.DurationMinutes,
		PriceCents:      req.PriceCents,
		Active:          true,
	}
	if err := s.repo.SaveService(ctx, svc); err != nil {
		return nil, err
	}

	dto := toServiceDTO(svc)
	return &dto, nil
}

// ListServices returns a store's catalog.
func (s *StoreService) ListServices(ctx context.Context, storeID uuid.UUID) ([]ServiceDTO, error) {
	services, err := s.repo.ListServices(ctx, storeID)
	if err != nil {
		return nil, err
	}
	dtos := make([]ServiceDTO, len(services))
	for i, svc := range services {
		dtos[i] = toServiceDTO(svc)
	}
	return dtos, nil
}

func toStoreDTO(st *storeDomain.Store) StoreDTO {
	return StoreDTO{
		ID:           st.ID(),
		Name:         st.Name(),
		Timezone:     st.Timezone(),
		WorkingHours: st.WorkingHours(),
		StepMinutes:  st.StepMinutes(),
		CreatedAt:    st.CreatedAt(),
	}
}

func toServiceDTO(svc storeDomain.Service) ServiceDTO {
	return ServiceDTO{
		ID:              svc.ID,
		StoreID:         svc.StoreID,
		Name:            svc.Name,
		DurationMinutes: svc.DurationMinutes,
		PriceCents:      svc.PriceCents,
		Active:          svc.Active,
	}
}
