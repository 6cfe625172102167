package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	apptDomain "github.com/AgendaLivre/service-scheduling/internal/domain/appointment"
	"github.com/AgendaLivre/service-scheduling/internal/domain/schedule"
	"github.com/AgendaLivre/service-scheduling/pkg/domain"
)

// Postgres error codes that mean another booking won the slot.
const (
	pgExclusionViolation   = "23P01"
	pgSerializationFailure = "40001"
	pgUniqueViolation      = "23505"
)

// AppointmentModel is the GORM model for the appointments table. The
// migration adds an EXCLUDE constraint over (store_id, date, minute range)
// for active statuses; GORM tags cannot express it.
type AppointmentModel struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	StoreID       uuid.UUID  `gorm:"type:uuid;not null;index:idx_appointments_store_date"`
	ServiceID     uuid.UUID  `gorm:"type:uuid;not null"`
	ClientID      uuid.UUID  `gorm:"type:uuid;not null;index"`
	ClientName    string     `gorm:"type:varchar(120);not null"`
	Date          time.Time  `gorm:"type:date;not null;index:idx_appointments_store_date"`
	StartMinute   int        `gorm:"not null"`
	EndMinute     int        `gorm:"not null"`
	Status        string     `gorm:"type:varchar(20);not null;default:'pending'"`
	PriceCents    int64      `gorm:"not null"`
	DiscountCents int64      `gorm:"not null;default:0"`
	CouponID      *uuid.UUID `gorm:"type:uuid"`
	CancelledAt   *time.Time `gorm:"type:timestamptz"`
	CancelReason  string     `gorm:"type:text"`
	Version       int64      `gorm:"not null;default:1"`
	CreatedAt     time.Time  `gorm:"type:timestamptz;not null"`
	UpdatedAt     time.Time  `gorm:"type:timestamptz;not null"`
}

// TableName sets the table name.
func (AppointmentModel) TableName() string { return "appointments" }

var activeStatusStrings = []string{
	string(apptDomain.StatusPending),
	string(apptDomain.StatusConfirmed),
}

// AppointmentRepositoryImpl is the GORM-based implementation of the
// appointment repository.
type AppointmentRepositoryImpl struct {
	db *gorm.DB
}

// NewAppointmentRepository creates a new appointment repository.
func NewAppointmentRepository(db *gorm.DB) *AppointmentRepositoryImpl {
	return &AppointmentRepositoryImpl{db: db}
}

// CreateIfFree re-checks the overlap inside a serializable transaction and
// inserts. The database exclusion constraint is the last line of defense;
// both a failed check and a constraint violation map to ErrSlotTaken, so
// racing requests see exactly one success.
func (r *AppointmentRepositoryImpl) CreateIfFree(ctx context.Context, a *apptDomain.Appointment) error {
	model := toAppointmentModel(a)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&AppointmentModel{}).
			Where("store_id = ? AND date = ?", model.StoreID, model.Date).
			Where("status IN ?", activeStatusStrings).
			Where("start_minute < ? AND ? < end_minute", model.EndMinute, model.StartMinute).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apptDomain.ErrSlotTaken
		}
		return tx.Create(&model).Error
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})

	if err != nil {
		if isSlotConflict(err) {
			return apptDomain.ErrSlotTaken
		}
		return err
	}
	return nil
}

// isSlotConflict reports whether the error is a lost race on the slot.
func isSlotConflict(err error) bool {
	if errors.Is(err, apptDomain.ErrSlotTaken) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgExclusionViolation, pgSerializationFailure, pgUniqueViolation:
			return true
		}
	}
	return false
}

// FindByID retrieves an appointment by its ID.
func (r *AppointmentRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*apptDomain.Appointment, error) {
	var model AppointmentModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Appointment", id.String())
		}
		return nil, err
	}
	return toAppointmentDomain(&model), nil
}

// FindActiveForDay returns pending and confirmed appointments for a store on
// a calendar date, ordered by start time.
func (r *AppointmentRepositoryImpl) FindActiveForDay(ctx context.Context, storeID uuid.UUID, date time.Time) ([]*apptDomain.Appointment, error) {
	var models []AppointmentModel
	if err := r.db.WithContext(ctx).
		Where("store_id = ? AND date = ?", storeID, apptDomain.NormalizeDate(date)).
		Where("status IN ?", activeStatusStrings).
		Order("start_minute ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}

	appts := make([]*apptDomain.Appointment, len(models))
	for i := range models {
		appts[i] = toAppointmentDomain(&models[i])
	}
	return appts, nil
}

// Update persists a status change with optimistic locking.
func (r *AppointmentRepositoryImpl) Update(ctx context.Context, a *apptDomain.Appointment) error {
	model := toAppointmentModel(a)
	previousVersion := a.Version() - 1

	result := r.db.WithContext(ctx).
		Model(&AppointmentModel{}).
		Where("id = ? AND version = ?", model.ID, previousVersion).
		Select("Status", "CancelledAt", "CancelReason", "Version", "UpdatedAt").
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("appointment was modified by another transaction")
	}
	return nil
}

// ListByStore retrieves a store's appointments with pagination.
func (r *AppointmentRepositoryImpl) ListByStore(ctx context.Context, storeID uuid.UUID, page, limit int) ([]*apptDomain.Appointment, int64, error) {
	return r.list(ctx, "store_id = ?", storeID, page, limit)
}

// ListByClient retrieves a client's appointments with pagination.
func (r *AppointmentRepositoryImpl) ListByClient(ctx context.Context, clientID uuid.UUID, page, limit int) ([]*apptDomain.Appointment, int64, error) {
	return r.list(ctx, "client_id = ?", clientID, page, limit)
}

func (r *AppointmentRepositoryImpl) list(ctx context.Context, cond string, arg uuid.UUID, page, limit int) ([]*apptDomain.Appointment, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&AppointmentModel{}).Where(cond, arg).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var models []AppointmentModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Where(cond, arg).
		Order("date DESC, start_minute DESC").
		Offset(offset).Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, err
	}

	appts := make([]*apptDomain.Appointment, len(models))
	for i := range models {
		appts[i] = toAppointmentDomain(&models[i])
	}
	return appts, total, nil
}

// CountByStatus returns appointment counts per status and completed revenue.
func (r *AppointmentRepositoryImpl) CountByStatus(ctx context.Context, storeID uuid.UUID) (map[string]int64, int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&AppointmentModel{}).
		Select("status, count(*) as count").
		Where("store_id = ?", storeID).
		Group("status").
		Find(&results).Error; err != nil {
		return nil, 0, err
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}

	var revenue int64
	if err := r.db.WithContext(ctx).Model(&AppointmentModel{}).
		Where("store_id = ? AND status = ?", storeID, string(apptDomain.StatusCompleted)).
		Select("COALESCE(SUM(price_cents - discount_cents), 0)").
		Scan(&revenue).Error; err != nil {
		return nil, 0, err
	}

	return counts, revenue, nil
}

func toAppointmentModel(a *apptDomain.Appointment) AppointmentModel {
	return AppointmentModel{
		ID:            a.ID(),
		StoreID:       a.StoreID(),
		ServiceID:     a.ServiceID(),
		ClientID:      a.ClientID(),
		ClientName:    a.ClientName(),
		Date:          a.Date(),
		StartMinute:   int(a.StartMinute()),
		EndMinute:     int(a.EndMinute()),
		Status:        string(a.Status()),
		PriceCents:    a.PriceCents(),
		DiscountCents: a.DiscountCents(),
		CouponID:      a.CouponID(),
		CancelledAt:   a.CancelledAt(),
		CancelReason:  a.CancelReason(),
		Version:       a.Version(),
		CreatedAt:     a.CreatedAt(),
		UpdatedAt:     a.UpdatedAt(),
	}
}

func toAppointmentDomain(m *AppointmentModel) *apptDomain.Appointment {
	return apptDomain.Reconstruct(
		m.ID, m.StoreID, m.ServiceID, m.ClientID,
		m.ClientName, m.Date,
		schedule.MinuteOfDay(m.StartMinute), schedule.MinuteOfDay(m.EndMinute),
		apptDomain.Status(m.Status),
		m.PriceCents, m.DiscountCents, m.CouponID,
		m.CancelledAt, m.CancelReason,
		m.Version, m.CreatedAt, m.UpdatedAt,
	)
}
