package saga

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AgendaLivre/service-scheduling/internal/domain/coupon"
	"github.com/AgendaLivre/service-scheduling/internal/events"
	"github.com/AgendaLivre/service-scheduling/pkg/kafka"
)

// Step is a single saga step with an execute and a compensate action.
type Step struct {
	Name       string
	Execute    func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// Saga runs a sequence of steps, compensating executed steps in reverse
// order when one fails.
type Saga struct {
	name   string
	steps  []Step
	logger *zap.Logger
}

// New creates a saga orchestrator.
func New(name string, logger *zap.Logger) *Saga {
	return &Saga{name: name, logger: logger}
}

// AddStep appends a step to the saga.
func (s *Saga) AddStep(step Step) {
	s.steps = append(s.steps, step)
}

// Execute runs all steps in order. On failure it compensates the already
// executed steps in reverse order and returns the original error.
func (s *Saga) Execute(ctx context.Context) error {
	executed := make([]Step, 0, len(s.steps))

	for _, step := range s.steps {
		s.logger.Debug("executing saga step",
			zap.String("saga", s.name),
			zap.String("step", step.Name),
		)

		if err := step.Execute(ctx); err != nil {
			s.logger.Error("saga step failed, compensating",
				zap.String("saga", s.name),
				zap.String("step", step.Name),
				zap.Error(err),
			)

			for i := len(executed) - 1; i >= 0; i-- {
				if executed[i].Compensate == nil {
					continue
				}
				if compErr := executed[i].Compensate(ctx); compErr != nil {
					s.logger.Error("saga compensation failed",
						zap.String("saga", s.name),
						zap.String("step", executed[i].Name),
						zap.Error(compErr),
					)
				}
			}

			return fmt.Errorf("saga %q failed at step %q: %w", s.name, step.Name, err)
		}

		executed = append(executed, step)
	}

	return nil
}

// EventPublisher publishes CloudEvents to a topic. Satisfied by the Kafka
// producer.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event kafka.CloudEvent) error
}

// CouponRedemptionService records a coupon redemption after a booking has
// been committed: the atomic usage increment and the per-redemption usage
// record move together or not at all. The booking itself is never rolled
// back by a redemption failure; callers surface it as a warning.
type CouponRedemptionService struct {
	repo     coupon.Repository
	producer EventPublisher
	logger   *zap.Logger
}

// NewCouponRedemptionService creates a CouponRedemptionService.
func NewCouponRedemptionService(repo coupon.Repository, producer EventPublisher, logger *zap.Logger) *CouponRedemptionService {
	return &CouponRedemptionService{repo: repo, producer: producer, logger: logger}
}

// Redeem increments the coupon's usage counter and records the usage. The
// increment is a storage-level compare-and-increment; a coupon that hit its
// limit between validation and commit fails here with ErrCouponExhausted.
func (s *CouponRedemptionService) Redeem(
	ctx context.Context,
	c *coupon.Coupon,
	appointmentID, clientID uuid.UUID,
	discountCents int64,
) error {
	usage := &coupon.Usage{
		ID:            uuid.New(),
		CouponID:      c.ID(),
		ClientID:      clientID,
		AppointmentID: appointmentID,
		DiscountCents: discountCents,
		UsedAt:        time.Now().UTC(),
	}

	redemption := New("coupon_redemption", s.logger)

	redemption.AddStep(Step{
		Name: "increment_usage",
		Execute: func(ctx context.Context) error {
			ok, err := s.repo.IncrementUsage(ctx, c.ID())
			if err != nil {
				return err
			}
			if !ok {
				return coupon.ErrCouponExhausted
			}
			return nil
		},
		Compensate: func(ctx context.Context) error {
			return s.repo.DecrementUsage(ctx, c.ID())
		},
	})

	redemption.AddStep(Step{
		Name: "record_usage",
		Execute: func(ctx context.Context) error {
			return s.repo.SaveUsage(ctx, usage)
		},
		Compensate: func(ctx context.Context) error {
			return s.repo.DeleteUsage(ctx, usage.ID)
		},
	})

	if err := redemption.Execute(ctx); err != nil {
		return err
	}

	// Publishing is best-effort: the redemption is already durable.
	event := events.CouponRedeemedEvent{
		CouponID:      c.ID(),
		Code:          c.Code(),
		AppointmentID: appointmentID,
		ClientID:      clientID,
		DiscountCents: discountCents,
		OccurredAt:    time.Now().UTC(),
	}
	ce, err := kafka.NewCloudEvent("service-scheduling", events.CouponRedeemed, event)
	if err != nil {
		s.logger.Error("failed to create coupon redeemed event", zap.Error(err))
		return nil
	}
	if err := s.producer.PublishEvent(ctx, events.TopicSchedulingEvents, ce); err != nil {
		s.logger.Error("failed to publish coupon redeemed event", zap.Error(err))
	}
	return nil
}
