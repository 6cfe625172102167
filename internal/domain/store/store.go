package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/AgendaLivre/service-scheduling/internal/domain/schedule"
)

// Store is the aggregate root for a bookable store: its weekly working hours
// and slot-grid configuration. The catalog of services hangs off it.
type Store struct {
	id           uuid.UUID
	name         string
	timezone     string
	workingHours schedule.WorkingHours
	// stepMinutes overrides the slot grid; zero means step by the service
	// duration.
	stepMinutes int
	createdAt   time.Time
	updatedAt   time.Time
}

// NewStore creates a store with its weekly schedule.
func NewStore(name, timezone string, wh schedule.WorkingHours, stepMinutes int) (*Store, error) {
	if name == "" {
		return nil, fmt.Errorf("store name is required")
	}
	if stepMinutes < 0 {
		return nil, fmt.Errorf("step minutes cannot be negative")
	}
	if timezone == "" {
		timezone = "UTC"
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		return nil, fmt.Errorf("invalid timezone %q", timezone)
	}

	now := time.Now().UTC()
	return &Store{
		id:           uuid.New(),
		name:         name,
		timezone:     timezone,
		workingHours: wh,
		stepMinutes:  stepMinutes,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// Reconstruct rebuilds a Store from persistence.
func Reconstruct(id uuid.UUID, name, timezone string, wh schedule.WorkingHours, stepMinutes int, createdAt, updatedAt time.Time) *Store {
	return &Store{
		id: id, name: name, timezone: timezone,
		workingHours: wh, stepMinutes: stepMinutes,
		createdAt: createdAt, updatedAt: updatedAt,
	}
}

// UpdateWorkingHours replaces the weekly schedule after validating that every
// active day parses and has start before end.
func (s *Store) UpdateWorkingHours(wh schedule.WorkingHours) error {
	for weekday, day := range wh {
		if !day.Active {
			continue
		}
		start, err := schedule.ParseTime(day.Start)
		if err != nil {
			return fmt.Errorf("%s: %w", weekday, err)
		}
		end, err := schedule.ParseTime(day.End)
		if err != nil {
			return fmt.Errorf("%s: %w", weekday, err)
		}
		if start >= end {
			return fmt.Errorf("%s: start must be before end", weekday)
		}
	}
	s.workingHours = wh
	s.updatedAt = time.Now().UTC()
	return nil
}

// Getters.
func (s *Store) ID() uuid.UUID                        { return s.id }
func (s *Store) Name() string                         { return s.name }
func (s *Store) Timezone() string                     { return s.timezone }
func (s *Store) WorkingHours() schedule.WorkingHours  { return s.workingHours }
func (s *Store) StepMinutes() int                     { return s.stepMinutes }
func (s *Store) CreatedAt() time.Time                 { return s.createdAt }
func (s *Store) UpdatedAt() time.Time                 { return s.updatedAt }

// Service is a bookable catalog entry. Immutable for the duration of a
// booking computation.
type Service struct {
	ID              uuid.UUID
	StoreID         uuid.UUID
	Name            string
	DurationMinutes int
	PriceCents      int64
	Active          bool
}

// Validate checks the catalog invariants.
func (s Service) Validate() error {
	if s.DurationMinutes <= 0 {
		return fmt.Errorf("service duration must be positive")
	}
	if s.PriceCents < 0 {
		return fmt.Errorf("service price cannot be negative")
	}
	return nil
}
