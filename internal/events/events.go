package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/AgendaLivre/service-scheduling/internal/domain/schedule"
)

// Kafka topics.
const (
	// TopicSchedulingEvents carries events published by this service.
	TopicSchedulingEvents = "scheduling.events"
	// TopicStoreEvents carries store-settings events published by the store
	// management service.
	TopicStoreEvents = "store.events"
)

// Event types.
const (
	AppointmentBooked        = "scheduling.appointment.booked"
	AppointmentStatusChanged = "scheduling.appointment.status_changed"
	CouponRedeemed           = "scheduling.coupon.redeemed"
	StoreUpdated             = "store.updated"
)

// AppointmentBookedEvent is published after a booking is committed. The
// notification service fans it out to the client and the store.
type AppointmentBookedEvent struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	StoreID       uuid.UUID `json:"store_id"`
	ServiceID     uuid.UUID `json:"service_id"`
	ClientID      uuid.UUID `json:"client_id"`
	ClientName    string    `json:"client_name"`
	Date          string    `json:"date"`
	StartTime     string    `json:"start_time"`
	EndTime       string    `json:"end_time"`
	TotalCents    int64     `json:"total_cents"`
	DiscountCents int64     `json:"discount_cents"`
	CouponCode    string    `json:"coupon_code,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// AppointmentStatusChangedEvent is published on status transitions.
type AppointmentStatusChangedEvent struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	StoreID       uuid.UUID `json:"store_id"`
	OldStatus     string    `json:"old_status"`
	NewStatus     string    `json:"new_status"`
	Reason        string    `json:"reason,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// CouponRedeemedEvent is published after a successful redemption.
type CouponRedeemedEvent struct {
	CouponID      uuid.UUID `json:"coupon_id"`
	Code          string    `json:"code"`
	AppointmentID uuid.UUID `json:"appointment_id"`
	ClientID      uuid.UUID `json:"client_id"`
	DiscountCents int64     `json:"discount_cents"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// StoreUpdatedEvent arrives when a store changes its settings; the cached
// schedule for that store must be dropped.
type StoreUpdatedEvent struct {
	StoreID      uuid.UUID             `json:"store_id"`
	WorkingHours schedule.WorkingHours `json:"working_hours,omitempty"`
	OccurredAt   time.Time             `json:"occurred_at"`
}
