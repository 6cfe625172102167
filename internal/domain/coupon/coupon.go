package coupon

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DiscountType represents the kind of discount a coupon grants.
type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
)

// Validation failures, in check order. All are user-facing and retryable by
// fixing the input or booking without the coupon.
var (
	ErrInvalidCoupon   = errors.New("cupom inválido")
	ErrCouponExpired   = errors.New("cupom expirado")
	ErrCouponExhausted = errors.New("cupom esgotado")
	ErrCouponUserLimit = errors.New("limite de uso por cliente atingido")
	ErrCouponMinAmount = errors.New("valor mínimo não atingido")
)

// Coupon is the aggregate root for discount coupons. Limits with value zero
// are unset: usageLimit 0 means unlimited redemptions, maxDiscountCents 0
// means no clamp, perUserLimit 0 means no per-client cap.
type Coupon struct {
	id               uuid.UUID
	storeID          uuid.UUID
	code             string
	discountType     DiscountType
	value            int64 // percentage (1-100) or fixed amount in cents
	minAmountCents   int64
	maxDiscountCents int64
	usageLimit       int
	usageCount       int
	perUserLimit     int
	active           bool
	startsAt         time.Time
	endsAt           *time.Time
	createdAt        time.Time
	updatedAt        time.Time
}

// NewCoupon creates a new coupon for a store.
func NewCoupon(
	storeID uuid.UUID,
	code string,
	discountType DiscountType,
	value, minAmountCents, maxDiscountCents int64,
	usageLimit, perUserLimit int,
	startsAt time.Time,
	endsAt *time.Time,
) (*Coupon, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, fmt.Errorf("coupon code is required")
	}
	if discountType != DiscountTypePercentage && discountType != DiscountTypeFixed {
		return nil, fmt.Errorf("invalid discount type: %s", discountType)
	}
	if value <= 0 {
		return nil, fmt.Errorf("discount value must be positive")
	}
	if discountType == DiscountTypePercentage && value > 100 {
		return nil, fmt.Errorf("percentage discount cannot exceed 100")
	}
	if endsAt != nil && endsAt.Before(startsAt) {
		return nil, fmt.Errorf("ends_at must be after starts_at")
	}

	now := time.Now().UTC()
	return &Coupon{
		id:               uuid.New(),
		storeID:          storeID,
		code:             code,
		discountType:     discountType,
		value:            value,
		minAmountCents:   minAmountCents,
		maxDiscountCents: maxDiscountCents,
		usageLimit:       usageLimit,
		usageCount:       0,
		perUserLimit:     perUserLimit,
		active:           true,
		startsAt:         startsAt,
		endsAt:           endsAt,
		createdAt:        now,
		updatedAt:        now,
	}, nil
}

// Reconstruct rebuilds a Coupon from persistence.
func Reconstruct(
	id, storeID uuid.UUID,
	code string,
	discountType DiscountType,
	value, minAmountCents, maxDiscountCents int64,
	usageLimit, usageCount, perUserLimit int,
	active bool,
	startsAt time.Time,
	endsAt *time.Time,
	createdAt, updatedAt time.Time,
) *Coupon {
	return &Coupon{
		id: id, storeID: storeID, code: code,
		discountType: discountType, value: value,
		minAmountCents: minAmountCents, maxDiscountCents: maxDiscountCents,
		usageLimit: usageLimit, usageCount: usageCount, perUserLimit: perUserLimit,
		active: active, startsAt: startsAt, endsAt: endsAt,
		createdAt: createdAt, updatedAt: updatedAt,
	}
}

// Validate runs the redemption checks in order, short-circuiting on the
// first failure. priorUserRedemptions is how many times the requesting
// client has already redeemed this coupon.
func (c *Coupon) Validate(storeID uuid.UUID, priceCents int64, priorUserRedemptions int, now time.Time) error {
	if !c.active || c.storeID != storeID {
		return ErrInvalidCoupon
	}
	if now.Before(c.startsAt) || (c.endsAt != nil && now.After(*c.endsAt)) {
		return ErrCouponExpired
	}
	if c.usageLimit > 0 && c.usageCount >= c.usageLimit {
		return ErrCouponExhausted
	}
	if c.perUserLimit > 0 && priorUserRedemptions >= c.perUserLimit {
		return ErrCouponUserLimit
	}
	if c.minAmountCents > 0 && priceCents < c.minAmountCents {
		return ErrCouponMinAmount
	}
	return nil
}

// Discount computes the discount in cents for a given price. The result
// never exceeds the price, so the total is never negative.
func (c *Coupon) Discount(priceCents int64) int64 {
	var discount int64
	switch c.discountType {
	case DiscountTypePercentage:
		discount = priceCents * c.value / 100
		if c.maxDiscountCents > 0 && discount > c.maxDiscountCents {
			discount = c.maxDiscountCents
		}
	case DiscountTypeFixed:
		discount = c.value
	}

	if discount > priceCents {
		discount = priceCents
	}
	return discount
}

// Deactivate disables the coupon.
func (c *Coupon) Deactivate() {
	c.active = false
	c.updatedAt = time.Now().UTC()
}

// Getters.
func (c *Coupon) ID() uuid.UUID              { return c.id }
func (c *Coupon) StoreID() uuid.UUID         { return c.storeID }
func (c *Coupon) Code() string               { return c.code }
func (c *Coupon) DiscountType() DiscountType { return c.discountType }
func (c *Coupon) Value() int64               { return c.value }
func (c *Coupon) MinAmountCents() int64      { return c.minAmountCents }
func (c *Coupon) MaxDiscountCents() int64    { return c.maxDiscountCents }
func (c *Coupon) UsageLimit() int            { return c.usageLimit }
func (c *Coupon) UsageCount() int            { return c.usageCount }
func (c *Coupon) PerUserLimit() int          { return c.perUserLimit }
func (c *Coupon) Active() bool               { return c.active }
func (c *Coupon) StartsAt() time.Time        { return c.startsAt }
func (c *Coupon) EndsAt() *time.Time         { return c.endsAt }
func (c *Coupon) CreatedAt() time.Time       { return c.createdAt }
func (c *Coupon) UpdatedAt() time.Time       { return c.updatedAt }
