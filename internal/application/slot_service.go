package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AgendaLivre/service-scheduling/internal/cache"
	"github.com/AgendaLivre/service-scheduling/internal/domain/appointment"
	"github.com/AgendaLivre/service-scheduling/internal/domain/schedule"
	storeDomain "github.com/AgendaLivre/service-scheduling/internal/domain/store"
	"github.com/AgendaLivre/service-scheduling/internal/scheduling"
	"github.com/AgendaLivre/service-scheduling/pkg/domain"
)

// SlotService produces the bookable slot list shown to clients. The list is
// advisory: the booking service re-validates at commit time.
type SlotService struct {
	storeRepo storeDomain.Repository
	apptRepo  appointment.Repository
	cache     *cache.StoreCache
	logger    *zap.Logger
}

// NewSlotService creates a new SlotService.
func NewSlotService(
	storeRepo storeDomain.Repository,
	apptRepo appointment.Repository,
	storeCache *cache.StoreCache,
	logger *zap.Logger,
) *SlotService {
	return &SlotService{
		storeRepo: storeRepo,
		apptRepo:  apptRepo,
		cache:     storeCache,
		logger:    logger,
	}
}

// GenerateSlots enumerates candidate start times for a store, service and
// date, each flagged available or not. Recomputed on every call; existing
// appointments are always read fresh.
func (s *SlotService) GenerateSlots(ctx context.Context, storeID, serviceID uuid.UUID, date time.Time) ([]scheduling.Slot, error) {
	st, err := s.loadStore(ctx, storeID)
	if err != nil {
		return nil, err
	}

	svc, err := s.storeRepo.FindService(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if svc.StoreID != storeID {
		return nil, domain.NewNotFoundError("Service", serviceID.String())
	}
	if !svc.Active {
		return nil, domain.NewValidationError("service is not active")
	}

	open, err := schedule.OpenInterval(st.WorkingHours(), date)
	if err != nil {
		// Working-hours data is broken; the store must be reconfigured.
		s.logger.Error("store has invalid working hours",
			zap.String("store_id", storeID.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("store configuration: %w", err)
	}
	if open == nil {
		return nil, nil
	}

	active, err := s.apptRepo.FindActiveForDay(ctx, storeID, date)
	if err != nil {
		return nil, err
	}
	busy := make([]schedule.Interval, len(active))
	for i, a := range active {
		busy[i] = a.Interval()
	}

	return scheduling.Generate(open, svc.DurationMinutes, st.StepMinutes(), busy), nil
}

// loadStore reads a store through the settings cache.
func (s *SlotService) loadStore(ctx context.Context, storeID uuid.UUID) (*storeDomain.Store, error) {
	if st, ok := s.cache.Get(storeID); ok {
		return st, nil
	}
	st, err := s.storeRepo.FindByID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	s.cache.Set(st)
	return st, nil
}
