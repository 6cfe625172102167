package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	couponDomain "github.com/AgendaLivre/service-scheduling/internal/domain/coupon"
	"github.com/AgendaLivre/service-scheduling/pkg/domain"
)

// CouponModel is the GORM model for the coupons table.
type CouponModel struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey"`
	StoreID          uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_coupons_store_code"`
	Code             string     `gorm:"type:varchar(50);not null;uniqueIndex:idx_coupons_store_code"`
	DiscountType     string     `gorm:"type:varchar(20);not null"`
	Value            int64      `gorm:"not null"`
	MinAmountCents   int64      `gorm:"default:0"`
	MaxDiscountCents int64      `gorm:"default:0"`
	UsageLimit       int        `gorm:"default:0"`
	UsageCount       int        `gorm:"default:0"`
	PerUserLimit     int        `gorm:"default:0"`
	Active           bool       `gorm:"not null;default:true"`
	StartsAt         time.Time  `gorm:"type:timestamptz;not null"`
	EndsAt           *time.Time `gorm:"type:timestamptz"`
	CreatedAt        time.Time  `gorm:"type:timestamptz;not null"`
	UpdatedAt        time.Time  `gorm:"type:timestamptz;not null"`
}

// TableName sets the table name.
func (CouponModel) TableName() string { return "coupons" }

// CouponUsageModel is the GORM model for the coupon_usages table.
type CouponUsageModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	CouponID      uuid.UUID `gorm:"type:uuid;not null;index:idx_coupon_usages_coupon_client"`
	ClientID      uuid.UUID `gorm:"type:uuid;not null;index:idx_coupon_usages_coupon_client"`
	AppointmentID uuid.UUID `gorm:"type:uuid;not null"`
	DiscountCents int64     `gorm:"not null"`
	UsedAt        time.Time `gorm:"type:timestamptz;not null"`
}

// TableName sets the table name.
func (CouponUsageModel) TableName() string { return "coupon_usages" }

// GormCouponRepository implements the coupon repository using GORM.
type GormCouponRepository struct {
	db *gorm.DB
}

// NewGormCouponRepository creates a new GormCouponRepository.
func NewGormCouponRepository(db *gorm.DB) *GormCouponRepository {
	return &GormCouponRepository{db: db}
}

// Save persists a new coupon.
func (r *GormCouponRepository) Save(ctx context.Context, c *couponDomain.Coupon) error {
	model := toCouponModel(c)
	return r.db.WithContext(ctx).Create(&model).Error
}

// Update updates a coupon.
func (r *GormCouponRepository) Update(ctx context.Context, c *couponDomain.Coupon) error {
	model := toCouponModel(c)
	return r.db.WithContext(ctx).Save(&model).Error
}

// FindByCode returns a store's coupon by its code.
func (r *GormCouponRepository) FindByCode(ctx context.Context, storeID uuid.UUID, code string) (*couponDomain.Coupon, error) {
	var model CouponModel
	if err := r.db.WithContext(ctx).
		Where("store_id = ? AND code = ?", storeID, code).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Coupon", code)
		}
		return nil, err
	}
	return toCouponDomain(&model), nil
}

// FindByID returns a coupon by ID.
func (r *GormCouponRepository) FindByID(ctx context.Context, id uuid.UUID) (*couponDomain.Coupon, error) {
	var model CouponModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Coupon", id.String())
		}
		return nil, err
	}
	return toCouponDomain(&model), nil
}

// FindActive returns all currently redeemable coupons for a store.
func (r *GormCouponRepository) FindActive(ctx context.Context, storeID uuid.UUID) ([]*couponDomain.Coupon, error) {
	var models []CouponModel
	now := time.Now().UTC()
	if err := r.db.WithContext(ctx).
		Where("store_id = ? AND active = true", storeID).
		Where("starts_at <= ?", now).
		Where("ends_at IS NULL OR ends_at >= ?", now).
		Where("usage_limit = 0 OR usage_count < usage_limit").
		Find(&models).Error; err != nil {
		return nil, err
	}

	coupons := make([]*couponDomain.Coupon, len(models))
	for i := range models {
		coupons[i] = toCouponDomain(&models[i])
	}
	return coupons, nil
}

// IncrementUsage atomically bumps usage_count while the limit allows it.
// The WHERE clause is the compare half of the compare-and-increment; two
// concurrent redemptions at the limit cannot both pass it.
func (r *GormCouponRepository) IncrementUsage(ctx context.Context, couponID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&CouponModel{}).
		Where("id = ?", couponID).
		Where("usage_limit = 0 OR usage_count < usage_limit").
		Updates(map[string]interface{}{
			"usage_count": gorm.Expr("usage_count + 1"),
			"updated_at":  time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// DecrementUsage reverses an increment during saga compensation.
func (r *GormCouponRepository) DecrementUsage(ctx context.Context, couponID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&CouponModel{}).
		Where("id = ? AND usage_count > 0", couponID).
		Updates(map[string]interface{}{
			"usage_count": gorm.Expr("usage_count - 1"),
			"updated_at":  time.Now().UTC(),
		}).Error
}

// SaveUsage persists a redemption record.
func (r *GormCouponRepository) SaveUsage(ctx context.Context, usage *couponDomain.Usage) error {
	model := CouponUsageModel{
		ID:            usage.ID,
		CouponID:      usage.CouponID,
		ClientID:      usage.ClientID,
		AppointmentID: usage.AppointmentID,
		DiscountCents: usage.DiscountCents,
		UsedAt:        usage.UsedAt,
	}
	return r.db.WithContext(ctx).Create(&model).Error
}

// CountUsagesForUser returns how many times a client redeemed a coupon.
func (r *GormCouponRepository) CountUsagesForUser(ctx context.Context, couponID, clientID uuid.UUID) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&CouponUsageModel{}).
		Where("coupon_id = ? AND client_id = ?", couponID, clientID).
		Count(&count).Error
	return int(count), err
}

// DeleteUsage removes a redemption record during saga compensation.
func (r *GormCouponRepository) DeleteUsage(ctx context.Context, usageID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&CouponUsageModel{}, "id = ?", usageID).Error
}

func toCouponModel(c *couponDomain.Coupon) CouponModel {
	return CouponModel{
		ID:               c.ID(),
		StoreID:          c.StoreID(),
		Code:             c.Code(),
		DiscountType:     string(c.DiscountType()),
		Value:            c.Value(),
		MinAmountCents:   c.MinAmountCents(),
		MaxDiscountCents: c.MaxDiscountCents(),
		UsageLimit:       c.UsageLimit(),
		UsageCount:       c.UsageCount(),
		PerUserLimit:     c.PerUserLimit(),
		Active:           c.Active(),
		StartsAt:         c.StartsAt(),
		EndsAt:           c.EndsAt(),
		CreatedAt:        c.CreatedAt(),
		UpdatedAt:        c.UpdatedAt(),
	}
}

func toCouponDomain(m *CouponModel) *couponDomain.Coupon {
	return couponDomain.Reconstruct(
		m.ID, m.StoreID, m.Code,
		couponDomain.DiscountType(m.DiscountType),
		m.Value, m.MinAmountCents, m.MaxDiscountCents,
		m.UsageLimit, m.UsageCount, m.PerUserLimit,
		m.Active, m.StartsAt, m.EndsAt,
		m.CreatedAt, m.UpdatedAt,
	)
}
