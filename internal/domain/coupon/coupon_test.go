package coupon

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCoupon(t *testing.T, storeID uuid.UUID, discountType DiscountType, value int64, opts func(*Coupon)) *Coupon {
	t.Helper()
	c, err := NewCoupon(storeID, "SAVE10", discountType, value, 0, 0, 0, 0, time.Now().UTC().Add(-time.Hour), nil)
	require.NoError(t, err)
	if opts != nil {
		opts(c)
	}
	return c
}

func TestNewCouponValidation(t *testing.T) {
	storeID := uuid.New()
	start := time.Now().UTC()

	_, err := NewCoupon(storeID, "", DiscountTypePercentage, 10, 0, 0, 0, 0, start, nil)
	assert.Error(t, err)

	_, err = NewCoupon(storeID, "X", "bogus", 10, 0, 0, 0, 0, start, nil)
	assert.Error(t, err)

	_, err = NewCoupon(storeID, "X", DiscountTypePercentage, 150, 0, 0, 0, 0, start, nil)
	assert.Error(t, err)

	past := start.Add(-time.Hour)
	_, err = NewCoupon(storeID, "X", DiscountTypeFixed, 100, 0, 0, 0, 0, start, &past)
	assert.Error(t, err)

	c, err := NewCoupon(storeID, "  save10 ", DiscountTypePercentage, 10, 0, 0, 0, 0, start, nil)
	require.NoError(t, err)
	assert.Equal(t, "SAVE10", c.Code())
	assert.True(t, c.Active())
}

func TestValidateOrder(t *testing.T) {
	storeID := uuid.New()
	now := time.Now().UTC()

	t.Run("wrong store", func(t *testing.T) {
		c := newTestCoupon(t, storeID, DiscountTypePercentage, 10, nil)
		err := c.Validate(uuid.New(), 10000, 0, now)
		assert.ErrorIs(t, err, ErrInvalidCoupon)
	})

	t.Run("inactive", func(t *testing.T) {
		c := newTestCoupon(t, storeID, DiscountTypePercentage, 10, func(c *Coupon) { c.Deactivate() })
		err := c.Validate(storeID, 10000, 0, now)
		assert.ErrorIs(t, err, ErrInvalidCoupon)
	})

	t.Run("not started yet", func(t *testing.T) {
		c, err := NewCoupon(storeID, "LATER", DiscountTypePercentage, 10, 0, 0, 0, 0, now.Add(time.Hour), nil)
		require.NoError(t, err)
		assert.ErrorIs(t, c.Validate(storeID, 10000, 0, now), ErrCouponExpired)
	})

	t.Run("past end date", func(t *testing.T) {
		end := now.Add(-time.Minute)
		c := Reconstruct(uuid.New(), storeID, "OLD", DiscountTypePercentage, 10, 0, 0, 0, 0, 0, true, now.Add(-time.Hour), &end, now, now)
		assert.ErrorIs(t, c.Validate(storeID, 10000, 0, now), ErrCouponExpired)
	})

	t.Run("exhausted", func(t *testing.T) {
		c := Reconstruct(uuid.New(), storeID, "FULL", DiscountTypePercentage, 10, 0, 0, 5, 5, 0, true, now.Add(-time.Hour), nil, now, now)
		assert.ErrorIs(t, c.Validate(storeID, 10000, 0, now), ErrCouponExhausted)
	})

	t.Run("per-user limit", func(t *testing.T) {
		c := Reconstruct(uuid.New(), storeID, "ONCE", DiscountTypePercentage, 10, 0, 0, 0, 0, 1, true, now.Add(-time.Hour), nil, now, now)
		assert.ErrorIs(t, c.Validate(storeID, 10000, 1, now), ErrCouponUserLimit)
		assert.NoError(t, c.Validate(storeID, 10000, 0, now))
	})

	t.Run("below minimum amount", func(t *testing.T) {
		c, err := NewCoupon(storeID, "SAVE10", DiscountTypePercentage, 10, 5000, 0, 0, 0, now.Add(-time.Hour), nil)
		require.NoError(t, err)
		assert.ErrorIs(t, c.Validate(storeID, 4000, 0, now), ErrCouponMinAmount)
		assert.NoError(t, c.Validate(storeID, 5000, 0, now))
	})
}

func TestDiscountPercentageClamp(t *testing.T) {
	storeID := uuid.New()
	c, err := NewCoupon(storeID, "HALF", DiscountTypePercentage, 50, 0, 2000, 0, 0, time.Now().UTC().Add(-time.Hour), nil)
	require.NoError(t, err)

	// 50% of 10000 is 5000, clamped to the 2000 max discount.
	assert.Equal(t, int64(2000), c.Discount(10000))
	// Below the clamp, the plain percentage applies.
	assert.Equal(t, int64(1000), c.Discount(2000))
}

func TestDiscountFixedNeverNegativeTotal(t *testing.T) {
	storeID := uuid.New()
	c, err := NewCoupon(storeID, "MEGA", DiscountTypeFixed, 100000, 0, 0, 0, 0, time.Now().UTC().Add(-time.Hour), nil)
	require.NoError(t, err)

	// Fixed discount larger than the price is clamped to the price.
	assert.Equal(t, int64(5000), c.Discount(5000))
}

func TestDiscountUnlimitedWhenLimitsUnset(t *testing.T) {
	storeID := uuid.New()
	now := time.Now().UTC()
	c := Reconstruct(uuid.New(), storeID, "FREE", DiscountTypePercentage, 10, 0, 0, 0, 999999, 0, true, now.Add(-time.Hour), nil, now, now)
	assert.NoError(t, c.Validate(storeID, 100, 999, now))
}
