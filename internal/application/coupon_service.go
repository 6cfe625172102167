package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	couponDomain "github.com/AgendaLivre/service-scheduling/internal/domain/coupon"
	"github.com/AgendaLivre/service-scheduling/pkg/domain"
)

// CreateCouponRequest holds data to create a coupon.
type CreateCouponRequest struct {
	StoreID          uuid.UUID `json:"store_id" binding:"required"`
	Code             string    `json:"code" binding:"required"`
	DiscountType     string    `json:"discount_type" binding:"required"`
	Value            int64     `json:"value" binding:"required"`
	MinAmountCents   int64     `json:"min_amount_cents"`
	MaxDiscountCents int64     `json:"max_discount_cents"`
	UsageLimit       int       `json:"usage_limit"`
	PerUserLimit     int       `json:"per_user_limit"`
	StartsAt         string    `json:"starts_at" binding:"required"`
	EndsAt           string    `json:"ends_at"`
}

// ValidateCouponRequest holds data to pre-validate a coupon for a price.
type ValidateCouponRequest struct {
	StoreID    uuid.UUID `json:"store_id" binding:"required"`
	Code       string    `json:"code" binding:"required"`
	PriceCents int64     `json:"price_cents" binding:"required"`
}

// CouponDTO is the API representation of a coupon.
type CouponDTO struct {
	ID               uuid.UUID  `json:"id"`
	StoreID          uuid.UUID  `json:"store_id"`
	Code             string     `json:"code"`
	DiscountType     string     `json:"discount_type"`
	Value            int64      `json:"value"`
	MinAmountCents   int64      `json:"min_amount_cents"`
	MaxDiscountCents int64      `json:"max_discount_cents"`
	UsageLimit       int        `json:"usage_limit"`
	UsageCount       int        `json:"usage_count"`
	PerUserLimit     int        `json:"per_user_limit"`
	Active           bool       `json:"active"`
	StartsAt         time.Time  `json:"starts_at"`
	EndsAt           *time.Time `json:"ends_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// CouponValidationDTO is the result of pre-validating a coupon.
type CouponValidationDTO struct {
	Valid         bool   `json:"valid"`
	Code          string `json:"code"`
	DiscountCents int64  `json:"discount_cents"`
	Message       string `json:"message,omitempty"`
}

// CouponService handles coupon management use cases. Redemption bookkeeping
// lives in the saga package; this service only creates and pre-validates.
type CouponService struct {
	repo   couponDomain.Repository
	logger *zap.Logger
}

// NewCouponService creates a new CouponService.
func NewCouponService(repo couponDomain.Repository, logger *zap.Logger) *CouponService {
	return &CouponService{repo: repo, logger: logger}
}

// CreateCoupon creates a new coupon (admin or store owner).
func (s *CouponService) CreateCoupon(ctx context.Context, req CreateCouponRequest) (*CouponDTO, error) {
	startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		return nil, domain.NewValidationError("invalid starts_at format (use RFC3339)")
	}
	var endsAt *time.Time
	if req.EndsAt != "" {
		t, err := time.Parse(time.RFC3339, req.EndsAt)
		if err != nil {
			return nil, domain.NewValidationError("invalid ends_at format (use RFC3339)")
		}
		endsAt = &t
	}

	c, err := couponDomain.NewCoupon(
		req.StoreID,
		req.Code,
		couponDomain.DiscountType(req.DiscountType),
		req.Value,
		req.MinAmountCents,
		req.MaxDiscountCents,
		req.UsageLimit,
		req.PerUserLimit,
		startsAt,
		endsAt,
	)
	if err != nil {
		return nil, domain.NewValidationError(err.Error())
	}

	if err := s.repo.Save(ctx, c); err != nil {
		return nil, err
	}

	s.logger.Info("coupon created",
		zap.String("code", c.Code()),
		zap.String("store_id", c.StoreID().String()),
	)
	return toCouponDTO(c), nil
}

// ValidateCoupon checks whether a coupon would apply to a given price and
// returns the discount it would grant. Advisory only; the booking flow
// re-validates at commit time.
func (s *CouponService) ValidateCoupon(ctx context.Context, clientID uuid.UUID, req ValidateCouponRequest) (*CouponValidationDTO, error) {
	c, err := s.repo.FindByCode(ctx, req.StoreID, req.Code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &CouponValidationDTO{Valid: false, Code: req.Code, Message: couponDomain.ErrInvalidCoupon.Error()}, nil
		}
		return nil, err
	}

	prior, err := s.repo.CountUsagesForUser(ctx, c.ID(), clientID)
	if err != nil {
		return nil, err
	}

	if err := c.Validate(req.StoreID, req.PriceCents, prior, time.Now().UTC()); err != nil {
		return &CouponValidationDTO{Valid: false, Code: req.Code, Message: err.Error()}, nil
	}

	return &CouponValidationDTO{
		Valid:         true,
		Code:          c.Code(),
		DiscountCents: c.Discount(req.PriceCents),
	}, nil
}

// GetActiveCoupons returns a store's currently redeemable coupons.
func (s *CouponService) GetActiveCoupons(ctx context.Context, storeID uuid.UUID) ([]*CouponDTO, error) {
	coupons, err := s.repo.FindActive(ctx, storeID)
	if err != nil {
		return nil, err
	}

	dtos := make([]*CouponDTO, len(coupons))
	for i, c := range coupons {
		dtos[i] = toCouponDTO(c)
	}
	return dtos, nil
}

// DeactivateCoupon disables a coupon.
func (s *CouponService) DeactivateCoupon(ctx context.Context, id uuid.UUID) (*CouponDTO, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Deactivate()
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return toCouponDTO(c), nil
}

func toCouponDTO(c *couponDomain.Coupon) *CouponDTO {
	return &CouponDTO{
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
	}
}
