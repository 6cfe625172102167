package coupon

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines persistence operations for coupons.
type Repository interface {
	Save(ctx context.Context, c *Coupon) error
	Update(ctx context.Context, c *Coupon) error
	FindByCode(ctx context.Context, storeID uuid.UUID, code string) (*Coupon, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Coupon, error)
	FindActive(ctx context.Context, storeID uuid.UUID) ([]*Coupon, error)

	// IncrementUsage atomically increments usage_count, refusing when the
	// usage limit is already reached. Returns false in that case. This is
	// the storage-level compare-and-increment guarding the redemption race.
	IncrementUsage(ctx context.Context, couponID uuid.UUID) (bool, error)

	// DecrementUsage compensates a failed redemption.
	DecrementUsage(ctx context.Context, couponID uuid.UUID) error

	SaveUsage(ctx context.Context, usage *Usage) error
	CountUsagesForUser(ctx context.Context, couponID, clientID uuid.UUID) (int, error)
	DeleteUsage(ctx context.Context, usageID uuid.UUID) error
}

// Usage records one coupon redemption by one client.
type Usage struct {
	ID            uuid.UUID
	CouponID      uuid.UUID
	ClientID      uuid.UUID
	AppointmentID uuid.UUID
	DiscountCents int64
	UsedAt        time.Time
}
