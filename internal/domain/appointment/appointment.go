package appointment

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/AgendaLivre/service-scheduling/internal/domain/schedule"
)

// Status represents the lifecycle state of an appointment.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
	StatusNoShow    Status = "no_show"
)

// ActiveStatuses are the statuses that block a time slot. Cancelled,
// completed and no-show appointments free the slot.
var ActiveStatuses = []Status{StatusPending, StatusConfirmed}

// IsActive reports whether the status counts against availability.
func (s Status) IsActive() bool {
	return s == StatusPending || s == StatusConfirmed
}

// Appointment is the aggregate root for a booked time slot.
type Appointment struct {
	id            uuid.UUID
	storeID       uuid.UUID
	serviceID     uuid.UUID
	clientID      uuid.UUID
	clientName    string
	date          time.Time
	startMinute   schedule.MinuteOfDay
	endMinute     schedule.MinuteOfDay
	status        Status
	priceCents    int64
	discountCents int64
	couponID      *uuid.UUID
	cancelledAt   *time.Time
	cancelReason  string
	version       int64
	createdAt     time.Time
	updatedAt     time.Time
}

// NewAppointment creates a pending appointment for a validated booking.
// The date is normalized to midnight UTC; start/end are local wall-clock
// minutes within that date.
func NewAppointment(
	storeID, serviceID, clientID uuid.UUID,
	clientName string,
	date time.Time,
	start, end schedule.MinuteOfDay,
	priceCents, discountCents int64,
	couponID *uuid.UUID,
) *Appointment {
	now := time.Now().UTC()
	return &Appointment{
		id:            uuid.New(),
		storeID:       storeID,
		serviceID:     serviceID,
		clientID:      clientID,
		clientName:    clientName,
		date:          NormalizeDate(date),
		startMinute:   start,
		endMinute:     end,
		status:        StatusPending,
		priceCents:    priceCents,
		discountCents: discountCents,
		couponID:      couponID,
		version:       1,
		createdAt:     now,
		updatedAt:     now,
	}
}

// Reconstruct rebuilds an Appointment from persistence.
func Reconstruct(
	id, storeID, serviceID, clientID uuid.UUID,
	clientName string,
	date time.Time,
	start, end schedule.MinuteOfDay,
	status Status,
	priceCents, discountCents int64,
	couponID *uuid.UUID,
	cancelledAt *time.Time,
	cancelReason string,
	version int64,
	createdAt, updatedAt time.Time,
) *Appointment {
	return &Appointment{
		id: id, storeID: storeID, serviceID: serviceID, clientID: clientID,
		clientName: clientName, date: date,
		startMinute: start, endMinute: end, status: status,
		priceCents: priceCents, discountCents: discountCents, couponID: couponID,
		cancelledAt: cancelledAt, cancelReason: cancelReason,
		version: version, createdAt: createdAt, updatedAt: updatedAt,
	}
}

// NormalizeDate truncates a timestamp to its calendar date at midnight UTC.
func NormalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Interval returns the appointment's [start,end) interval.
func (a *Appointment) Interval() schedule.Interval {
	return schedule.Interval{Start: a.startMinute, End: a.endMinute}
}

// Confirm transitions a pending appointment to confirmed.
func (a *Appointment) Confirm() error {
	if a.status != StatusPending {
		return fmt.Errorf("cannot confirm appointment in status %s", a.status)
	}
	a.status = StatusConfirmed
	a.touch()
	return nil
}

// Cancel transitions an active appointment to cancelled, freeing the slot.
func (a *Appointment) Cancel(reason string) error {
	if !a.status.IsActive() {
		return fmt.Errorf("cannot cancel appointment in status %s", a.status)
	}
	now := time.Now().UTC()
	a.status = StatusCancelled
	a.cancelledAt = &now
	a.cancelReason = reason
	a.touch()
	return nil
}

// Complete transitions a confirmed appointment to completed.
func (a *Appointment) Complete() error {
	if a.status != StatusConfirmed {
		return fmt.Errorf("cannot complete appointment in status %s", a.status)
	}
	a.status = StatusCompleted
	a.touch()
	return nil
}

// MarkNoShow transitions a confirmed appointment to no_show.
func (a *Appointment) MarkNoShow() error {
	if a.status != StatusConfirmed {
		return fmt.Errorf("cannot mark no-show for appointment in status %s", a.status)
	}
	a.status = StatusNoShow
	a.touch()
	return nil
}

// IncrementVersion bumps the optimistic-locking version before an update.
func (a *Appointment) IncrementVersion() {
	a.version++
}

func (a *Appointment) touch() {
	a.updatedAt = time.Now().UTC()
}

// Getters.
func (a *Appointment) ID() uuid.UUID                      { return a.id }
func (a *Appointment) StoreID() uuid.UUID                 { return a.storeID }
func (a *Appointment) ServiceID() uuid.UUID               { return a.serviceID }
func (a *Appointment) ClientID() uuid.UUID                { return a.clientID }
func (a *Appointment) ClientName() string                 { return a.clientName }
func (a *Appointment) Date() time.Time                    { return a.date }
func (a *Appointment) StartMinute() schedule.MinuteOfDay  { return a.startMinute }
func (a *Appointment) EndMinute() schedule.MinuteOfDay    { return a.endMinute }
func (a *Appointment) Status() Status                     { return a.status }
func (a *Appointment) PriceCents() int64                  { return a.priceCents }
func (a *Appointment) DiscountCents() int64               { return a.discountCents }
func (a *Appointment) CouponID() *uuid.UUID               { return a.couponID }
func (a *Appointment) CancelledAt() *time.Time            { return a.cancelledAt }
func (a *Appointment) CancelReason() string               { return a.cancelReason }
func (a *Appointment) Version() int64                     { return a.version }
func (a *Appointment) CreatedAt() time.Time               { return a.createdAt }
func (a *Appointment) UpdatedAt() time.Time               { return a.updatedAt }
