package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AgendaLivre/service-scheduling/internal/adapter"
	"github.com/AgendaLivre/service-scheduling/internal/cache"
	apptDomain "github.com/AgendaLivre/service-scheduling/internal/domain/appointment"
	couponDomain "github.com/AgendaLivre/service-scheduling/internal/domain/coupon"
	"github.com/AgendaLivre/service-scheduling/internal/domain/schedule"
	storeDomain "github.com/AgendaLivre/service-scheduling/internal/domain/store"
	"github.com/AgendaLivre/service-scheduling/internal/events"
	"github.com/AgendaLivre/service-scheduling/internal/saga"
	"github.com/AgendaLivre/service-scheduling/internal/scheduling"
	"github.com/AgendaLivre/service-scheduling/pkg/domain"
	"github.com/AgendaLivre/service-scheduling/pkg/kafka"
)

// EventPublisher publishes CloudEvents to a topic. Satisfied by the Kafka
// producer.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event kafka.CloudEvent) error
}

// Booking result statuses. Post-commit bookkeeping failures degrade the
// result to committed_with_warnings instead of failing the booking.
const (
	BookingCommitted             = "committed"
	BookingCommittedWithWarnings = "committed_with_warnings"
)

// BookingRequest is the DTO for creating a booking.
type BookingRequest struct {
	StoreID    uuid.UUID `json:"store_id" binding:"required"`
	ServiceID  uuid.UUID `json:"service_id" binding:"required"`
	Date       string    `json:"date" binding:"required"`
	StartTime  string    `json:"start_time" binding:"required"`
	ClientName string    `json:"client_name"`
	CouponCode string    `json:"coupon_code"`
}

// BookingResultDTO is the API response for a committed booking.
type BookingResultDTO struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	Status        string    `json:"status"`
	Date          string    `json:"date"`
	StartTime     string    `json:"start_time"`
	EndTime       string    `json:"end_time"`
	PriceCents    int64     `json:"price_cents"`
	DiscountCents int64     `json:"discount_cents"`
	TotalCents    int64     `json:"total_cents"`
	AppliedCoupon string    `json:"applied_coupon,omitempty"`
	Warnings      []string  `json:"warnings,omitempty"`
}

// AppointmentDTO is the API representation of an appointment.
type AppointmentDTO struct {
	ID            uuid.UUID  `json:"id"`
	StoreID       uuid.UUID  `json:"store_id"`
	ServiceID     uuid.UUID  `json:"service_id"`
	ClientID      uuid.UUID  `json:"client_id"`
	ClientName    string     `json:"client_name"`
	Date          string     `json:"date"`
	StartTime     string     `json:"start_time"`
	EndTime       string     `json:"end_time"`
	Status        string     `json:"status"`
	PriceCents    int64      `json:"price_cents"`
	DiscountCents int64      `json:"discount_cents"`
	CancelledAt   *time.Time `json:"cancelled_at,omitempty"`
	CancelReason  string     `json:"cancel_reason,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// BookingService is the commit-time authority: it re-validates availability
// against fresh data, applies coupon rules and persists the appointment.
type BookingService struct {
	storeRepo  storeDomain.Repository
	apptRepo   apptDomain.Repository
	couponRepo couponDomain.Repository
	redemption *saga.CouponRedemptionService
	producer   EventPublisher
	notifier   adapter.Notifier
	cache      *cache.StoreCache
	logger     *zap.Logger
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	storeRepo storeDomain.Repository,
	apptRepo apptDomain.Repository,
	couponRepo couponDomain.Repository,
	redemption *saga.CouponRedemptionService,
	producer EventPublisher,
	notifier adapter.Notifier,
	storeCache *cache.StoreCache,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		storeRepo:  storeRepo,
		apptRepo:   apptRepo,
		couponRepo: couponRepo,
		redemption: redemption,
		producer:   producer,
		notifier:   notifier,
		cache:      storeCache,
		logger:     logger,
	}
}

// ValidateAndBook validates a booking request against fresh data and commits
// it. Validation failures (bad slot, bad coupon) abort the booking; failures
// after the appointment is persisted are reported as warnings.
func (s *BookingService) ValidateAndBook(ctx context.Context, clientID uuid.UUID, clientName string, req BookingRequest) (*BookingResultDTO, error) {
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, domain.NewValidationError("invalid date format (use YYYY-MM-DD)")
	}
	start, err := schedule.ParseTime(req.StartTime)
	if err != nil {
		return nil, domain.NewValidationError("invalid start_time format (use HH:MM)")
	}

	st, err := s.loadStore(ctx, req.StoreID)
	if err != nil {
		return nil, err
	}

	svc, err := s.storeRepo.FindService(ctx, req.ServiceID)
	if err != nil {
		return nil, err
	}
	if svc.StoreID != req.StoreID || !svc.Active {
		return nil, domain.NewValidationError("service is not available at this store")
	}

	// Appointments are keyed to a single calendar date; a booking that
	// crosses midnight has no representation and is rejected.
	end := start.Add(svc.DurationMinutes)
	if end > schedule.EndOfDay {
		return nil, domain.NewValidationError("appointment cannot cross midnight")
	}

	open, err := schedule.OpenInterval(st.WorkingHours(), date)
	if err != nil {
		return nil, fmt.Errorf("store configuration: %w", err)
	}
	if open == nil || start < open.Start || end > open.End {
		return nil, apptDomain.ErrSlotTaken
	}

	// Fresh overlap re-check: the slot list the client saw may be stale.
	active, err := s.apptRepo.FindActiveForDay(ctx, req.StoreID, date)
	if err != nil {
		return nil, err
	}
	busy := make([]schedule.Interval, len(active))
	for i, a := range active {
		busy[i] = a.Interval()
	}
	if scheduling.HasConflict(schedule.Interval{Start: start, End: end}, busy) {
		return nil, apptDomain.ErrSlotTaken
	}

	// Coupon validation happens before persistence; any failure here aborts
	// the booking.
	var appliedCoupon *couponDomain.Coupon
	var discountCents int64
	if req.CouponCode != "" {
		appliedCoupon, discountCents, err = s.validateCoupon(ctx, st.ID(), clientID, req.CouponCode, svc.PriceCents)
		if err != nil {
			return nil, err
		}
	}

	var couponID *uuid.UUID
	if appliedCoupon != nil {
		id := appliedCoupon.ID()
		couponID = &id
	}

	appt := apptDomain.NewAppointment(
		req.StoreID, req.ServiceID, clientID, clientName,
		date, start, end,
		svc.PriceCents, discountCents, couponID,
	)

	// The repository re-checks the overlap inside a serializable
	// transaction, with the exclusion constraint as backstop. Exactly one
	// of two racing requests for the same slot gets past this line.
	if err := s.apptRepo.CreateIfFree(ctx, appt); err != nil {
		return nil, err
	}

	warnings := s.runPostCommit(ctx, appt, appliedCoupon, clientName)

	result := &BookingResultDTO{
		AppointmentID: appt.ID(),
		Status:        BookingCommitted,
		Date:          req.Date,
		StartTime:     start.String(),
		EndTime:       end.String(),
		PriceCents:    svc.PriceCents,
		DiscountCents: discountCents,
		TotalCents:    svc.PriceCents - discountCents,
		Warnings:      warnings,
	}
	if appliedCoupon != nil {
		result.AppliedCoupon = appliedCoupon.Code()
	}
	if len(warnings) > 0 {
		result.Status = BookingCommittedWithWarnings
	}

	s.logger.Info("booking committed",
		zap.String("appointment_id", appt.ID().String()),
		zap.String("store_id", req.StoreID.String()),
		zap.String("date", req.Date),
		zap.String("start_time", start.String()),
		zap.Int("warnings", len(warnings)),
	)
	return result, nil
}

// validateCoupon runs the ordered coupon checks and computes the discount.
func (s *BookingService) validateCoupon(ctx context.Context, storeID, clientID uuid.UUID, code string, priceCents int64) (*couponDomain.Coupon, int64, error) {
	c, err := s.couponRepo.FindByCode(ctx, storeID, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, 0, domain.WrapValidation(couponDomain.ErrInvalidCoupon)
		}
		return nil, 0, err
	}

	prior, err := s.couponRepo.CountUsagesForUser(ctx, c.ID(), clientID)
	if err != nil {
		return nil, 0, err
	}

	if err := c.Validate(storeID, priceCents, prior, time.Now().UTC()); err != nil {
		return nil, 0, domain.WrapValidation(err)
	}

	return c, c.Discount(priceCents), nil
}

// runPostCommit performs best-effort side effects after the appointment is
// durable: coupon bookkeeping, event publishing and notification. Each
// failure becomes a warning; none unwinds the booking.
func (s *BookingService) runPostCommit(ctx context.Context, appt *apptDomain.Appointment, c *couponDomain.Coupon, clientName string) []string {
	var warnings []string

	if c != nil {
		if err := s.redemption.Redeem(ctx, c, appt.ID(), appt.ClientID(), appt.DiscountCents()); err != nil {
			s.logger.Error("coupon bookkeeping failed after commit",
				zap.String("appointment_id", appt.ID().String()),
				zap.String("coupon", c.Code()),
				zap.Error(err),
			)
			warnings = append(warnings, fmt.Sprintf("coupon bookkeeping failed: %v", err))
		}
	}

	event := events.AppointmentBookedEvent{
		AppointmentID: appt.ID(),
		StoreID:       appt.StoreID(),
		ServiceID:     appt.ServiceID(),
		ClientID:      appt.ClientID(),
		ClientName:    clientName,
		Date:          appt.Date().Format("2006-01-02"),
		StartTime:     appt.StartMinute().String(),
		EndTime:       appt.EndMinute().String(),
		TotalCents:    appt.PriceCents() - appt.DiscountCents(),
		DiscountCents: appt.DiscountCents(),
		OccurredAt:    time.Now().UTC(),
	}
	if c != nil {
		event.CouponCode = c.Code()
	}

	if ce, err := kafka.NewCloudEvent("service-scheduling", events.AppointmentBooked, event); err != nil {
		warnings = append(warnings, fmt.Sprintf("event publish failed: %v", err))
	} else if err := s.producer.PublishEvent(ctx, events.TopicSchedulingEvents, ce); err != nil {
		s.logger.Error("failed to publish booked event", zap.Error(err))
		warnings = append(warnings, fmt.Sprintf("event publish failed: %v", err))
	}

	if err := s.notifier.SendBookingConfirmation(ctx, event); err != nil {
		s.logger.Error("booking confirmation failed", zap.Error(err))
		warnings = append(warnings, fmt.Sprintf("notification failed: %v", err))
	}

	return warnings
}

// GetAppointment retrieves an appointment by ID.
func (s *BookingService) GetAppointment(ctx context.Context, id uuid.UUID) (*AppointmentDTO, error) {
	appt, err := s.apptRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := toAppointmentDTO(appt)
	return &dto, nil
}

// ListClientBookings returns a client's bookings, newest first.
func (s *BookingService) ListClientBookings(ctx context.Context, clientID uuid.UUID, page, limit int) ([]AppointmentDTO, int64, error) {
	appts, total, err := s.apptRepo.ListByClient(ctx, clientID, page, limit)
	if err != nil {
		return nil, 0, err
	}
	return toAppointmentDTOs(appts), total, nil
}

// ListStoreAppointments returns a store's appointments, newest first.
func (s *BookingService) ListStoreAppointments(ctx context.Context, storeID uuid.UUID, page, limit int) ([]AppointmentDTO, int64, error) {
	appts, total, err := s.apptRepo.ListByStore(ctx, storeID, page, limit)
	if err != nil {
		return nil, 0, err
	}
	return toAppointmentDTOs(appts), total, nil
}

// UpdateStatus applies a status transition (confirm, cancel, complete,
// no_show) and publishes a status-changed event.
func (s *BookingService) UpdateStatus(ctx context.Context, id uuid.UUID, action, reason string) (*AppointmentDTO, error) {
	appt, err := s.apptRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	oldStatus := appt.Status()
	switch action {
	case "confirm":
		err = appt.Confirm()
	case "cancel":
		err = appt.Cancel(reason)
	case "complete":
		err = appt.Complete()
	case "no_show":
		err = appt.MarkNoShow()
	default:
		return nil, domain.NewValidationError(fmt.Sprintf("unknown action %q", action))
	}
	if err != nil {
		return nil, domain.NewConflictError(err.Error())
	}

	appt.IncrementVersion()
	if err := s.apptRepo.Update(ctx, appt); err != nil {
		return nil, err
	}

	s.publishStatusChanged(ctx, appt, string(oldStatus), reason)

	dto := toAppointmentDTO(appt)
	return &dto, nil
}

// BookingStatsDTO holds appointment statistics for the admin dashboard.
type BookingStatsDTO struct {
	ByStatus          map[string]int64 `json:"by_status"`
	TotalRevenueCents int64            `json:"total_revenue_cents"`
}

// GetStats returns per-status counts and completed revenue for a store.
func (s *BookingService) GetStats(ctx context.Context, storeID uuid.UUID) (*BookingStatsDTO, error) {
	counts, revenue, err := s.apptRepo.CountByStatus(ctx, storeID)
	if err != nil {
		return nil, err
	}
	return &BookingStatsDTO{ByStatus: counts, TotalRevenueCents: revenue}, nil
}

func (s *BookingService) publishStatusChanged(ctx context.Context, appt *apptDomain.Appointment, oldStatus, reason string) {
	event := events.AppointmentStatusChangedEvent{
		AppointmentID: appt.ID(),
		StoreID:       appt.StoreID(),
		OldStatus:     oldStatus,
		NewStatus:     string(appt.Status()),
		Reason:        reason,
		OccurredAt:    time.Now().UTC(),
	}
	ce, err := kafka.NewCloudEvent("service-scheduling", events.AppointmentStatusChanged, event)
	if err != nil {
		s.logger.Error("failed to create status changed event", zap.Error(err))
		return
	}
	if err := s.producer.PublishEvent(ctx, events.TopicSchedulingEvents, ce); err != nil {
		s.logger.Error("failed to publish status changed event", zap.Error(err))
	}
}

func (s *BookingService) loadStore(ctx context.Context, storeID uuid.UUID) (*storeDomain.Store, error) {
	if st, ok := s.cache.Get(storeID); ok {
		return st, nil
	}
	st, err := s.storeRepo.FindByID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	s.cache.Set(st)
	return st, nil
}

func toAppointmentDTO(a *apptDomain.Appointment) AppointmentDTO {
	return AppointmentDTO{
		ID:            a.ID(),
		StoreID:       a.StoreID(),
		ServiceID:     a.ServiceID(),
		ClientID:      a.ClientID(),
		ClientName:    a.ClientName(),
		Date:          a.Date().Format("2006-01-02"),
		StartTime:     a.StartMinute().String(),
		EndTime:       a.EndMinute().String(),
		Status:        string(a.Status()),
		PriceCents:    a.PriceCents(),
		DiscountCents: a.DiscountCents(),
		CancelledAt:   a.CancelledAt(),
		CancelReason:  a.CancelReason(),
		CreatedAt:     a.CreatedAt(),
	}
}

func toAppointmentDTOs(appts []*apptDomain.Appointment) []AppointmentDTO {
	dtos := make([]AppointmentDTO, len(appts))
	for i, a := range appts {
		dtos[i] = toAppointmentDTO(a)
	}
	return dtos
}

