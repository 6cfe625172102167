package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/AgendaLivre/service-scheduling/pkg/domain"
)

// ErrSlotTaken is returned when the requested interval conflicts with an
// existing active appointment. The message is the user-facing rejection.
var ErrSlotTaken = &domain.DomainError{
	Err:     domain.ErrConflict,
	Message: "Horário não disponível",
}

// Repository defines persistence operations for appointments.
type Repository interface {
	// CreateIfFree inserts the appointment only if its interval does not
	// overlap any active appointment for the same store and date. The check
	// and insert run in one serializable transaction, backed by a database
	// exclusion constraint; either guard failing yields ErrSlotTaken.
	CreateIfFree(ctx context.Context, a *Appointment) error

	FindByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// FindActiveForDay returns pending and confirmed appointments for a
	// store on a calendar date, ordered by start time.
	FindActiveForDay(ctx context.Context, storeID uuid.UUID, date time.Time) ([]*Appointment, error)

	// Update persists a status change using optimistic locking on version.
	Update(ctx context.Context, a *Appointment) error

	ListByStore(ctx context.Context, storeID uuid.UUID, page, limit int) ([]*Appointment, int64, error)
	ListByClient(ctx context.Context, clientID uuid.UUID, page, limit int) ([]*Appointment, int64, error)

	// CountByStatus returns appointment counts per status and the summed
	// revenue (price minus discount) of completed appointments.
	CountByStatus(ctx context.Context, storeID uuid.UUID) (map[string]int64, int64, error)
}
