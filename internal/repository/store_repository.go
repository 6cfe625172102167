package repository

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/AgendaLivre/service-scheduling/internal/domain/schedule"
	storeDomain "github.com/AgendaLivre/service-scheduling/internal/domain/store"
	"github.com/AgendaLivre/service-scheduling/pkg/domain"
)

// WorkingHoursJSON stores the weekly schedule as a JSONB column.
type WorkingHoursJSON schedule.WorkingHours

// Value implements driver.Valuer.
func (w WorkingHoursJSON) Value() (driver.Value, error) {
	return json.Marshal(w)
}

// Scan implements sql.Scanner.
func (w *WorkingHoursJSON) Scan(value interface{}) error {
	if value == nil {
		*w = WorkingHoursJSON{}
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		if s, ok := value.(string); ok {
			b = []byte(s)
		} else {
			return fmt.Errorf("cannot scan %T into WorkingHoursJSON", value)
		}
	}
	return json.Unmarshal(b, w)
}

// StoreModel is the GORM model for the stores table.
type StoreModel struct {
	ID           uuid.UUID        `gorm:"type:uuid;primaryKey"`
	Name         string           `gorm:"type:varchar(120);not null"`
	Timezone     string           `gorm:"type:varchar(64);not null;default:'UTC'"`
	WorkingHours WorkingHoursJSON `gorm:"type:jsonb;not null;default:'{}'"`
	StepMinutes  int              `gorm:"not null;default:0"`
	CreatedAt    time.Time        `gorm:"type:timestamptz;not null"`
	UpdatedAt    time.Time        `gorm:"type:timestamptz;not null"`
}

// TableName sets the table name.
func (StoreModel) TableName() string { return "stores" }

// ServiceModel is the GORM model for the services table.
type ServiceModel struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	StoreID         uuid.UUID `gorm:"type:uuid;not null;index"`
	Name            string    `gorm:"type:varchar(120);not null"`
	DurationMinutes int       `gorm:"not null"`
	PriceCents      int64     `gorm:"not null"`
	Active          bool      `gorm:"not null;default:true"`
	CreatedAt       time.Time `gorm:"type:timestamptz;not null"`
	UpdatedAt       time.Time `gorm:"type:timestamptz;not null"`
}

// TableName sets the table name.
func (ServiceModel) TableName() string { return "services" }

// GormStoreRepository implements the store repository using GORM.
type GormStoreRepository struct {
	db *gorm.DB
}

// NewGormStoreRepository creates a new GormStoreRepository.
func NewGormStoreRepository(db *gorm.DB) *GormStoreRepository {
	return &GormStoreRepository{db: db}
}

// Save persists a new store.
func (r *GormStoreRepository) Save(ctx context.Context, s *storeDomain.Store) error {
	model := toStoreModel(s)
	return r.db.WithContext(ctx).Create(&model).Error
}

// Update updates a store's settings.
func (r *GormStoreRepository) Update(ctx context.Context, s *storeDomain.Store) error {
	model := toStoreModel(s)
	return r.db.WithContext(ctx).Save(&model).Error
}

// FindByID returns a store by ID.
func (r *GormStoreRepository) FindByID(ctx context.Context, id uuid.UUID) (*storeDomain.Store, error) {
	var model StoreModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Store", id.String())
		}
		return nil, err
	}
	return toStoreDomain(&model), nil
}

// SaveService persists a catalog service.
func (r *GormStoreRepository) SaveService(ctx context.Context, svc storeDomain.Service) error {
	if err := svc.Validate(); err != nil {
		return domain.NewValidationError(err.Error())
	}
	now := time.Now().UTC()
	model := ServiceModel{
		ID:              svc.ID,
		StoreID:         svc.StoreID,
		Name:            svc.Name,
		DurationMinutes: svc.DurationMinutes,
		PriceCents:      svc.PriceCents,
		Active:          svc.Active,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	return r.db.WithContext(ctx).Create(&model).Error
}

// FindService returns a catalog service by ID.
func (r *GormStoreRepository) FindService(ctx context.Context, id uuid.UUID) (storeDomain.Service, error) {
	var model ServiceModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return storeDomain.Service{}, domain.NewNotFoundError("Service", id.String())
		}
		return storeDomain.Service{}, err
	}
	return toServiceDomain(&model), nil
}

// ListServices returns a store's catalog.
func (r *GormStoreRepository) ListServices(ctx context.Context, storeID uuid.UUID) ([]storeDomain.Service, error) {
	var models []ServiceModel
	if err := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Order("name ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}

	services := make([]storeDomain.Service, len(models))
	for i := range models {
		services[i] = toServiceDomain(&models[i])
	}
	return services, nil
}

func toStoreModel(s *storeDomain.Store) StoreModel {
	return StoreModel{
		ID:           s.ID(),
		Name:         s.Name(),
		Timezone:     s.Timezone(),
		WorkingHours: WorkingHoursJSON(s.WorkingHours()),
		StepMinutes:  s.StepMinutes(),
		CreatedAt:    s.CreatedAt(),
		UpdatedAt:    s.UpdatedAt(),
	}
}

func toStoreDomain(m *StoreModel) *storeDomain.Store {
	return storeDomain.Reconstruct(
		m.ID, m.Name, m.Timezone,
		schedule.WorkingHours(m.WorkingHours),
		m.StepMinutes,
		m.CreatedAt, m.UpdatedAt,
	)
}

func toServiceDomain(m *ServiceModel) storeDomain.Service {
	return storeDomain.Service{
		ID:              m.ID,
		StoreID:         m.StoreID,
		Name:            m.Name,
		DurationMinutes: m.DurationMinutes,
		PriceCents:      m.PriceCents,
		Active:          m.Active,
	}
}
