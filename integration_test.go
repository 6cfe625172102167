//go:build integration

package main_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AgendaLivre/service-scheduling/internal/application"
	"github.com/AgendaLivre/service-scheduling/internal/domain/coupon"
	schedulingEvents "github.com/AgendaLivre/service-scheduling/internal/events"
	"github.com/AgendaLivre/service-scheduling/internal/repository"
	"github.com/AgendaLivre/service-scheduling/internal/scheduling"
	"github.com/AgendaLivre/service-scheduling/pkg/domain"
)

// bookingDate returns a date far enough in the future to be a clean slate.
func bookingDate() string {
	return time.Now().UTC().AddDate(0, 1, 0).Format("2006-01-02")
}

// TestConcurrentBooking_ExactlyOneWins fires several concurrent bookings for
// the same slot and verifies exactly one commits; the rest are rejected with
// a conflict.
func TestConcurrentBooking_ExactlyOneWins(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupSchedulingStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()

	storeID := seedStore(t, infra.DB)
	serviceID := seedService(t, infra.DB, storeID, 30, 10000)
	date := bookingDate()

	const attempts = 8
	var wg sync.WaitGroup
	results := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, results[n] = stack.Booking.ValidateAndBook(context.Background(), uuid.New(), "Cliente", application.BookingRequest{
				StoreID:   storeID,
				ServiceID: serviceID,
				Date:      date,
				StartTime: "10:00",
			})
		}(i)
	}
	wg.Wait()

	var wins, conflicts int
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, domain.ErrConflict):
			conflicts++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins, "exactly one booking should commit")
	assert.Equal(t, attempts-1, conflicts)

	var count int64
	infra.DB.Model(&repository.AppointmentModel{}).
		Where("store_id = ? AND start_minute = ?", storeID, 600).
		Count(&count)
	assert.Equal(t, int64(1), count, "exactly one row should exist for the slot")
}

// TestBooking_WithCoupon_PublishesEventAndRecordsUsage books with a coupon and
// verifies the discount, the usage bookkeeping and the booked event.
func TestBooking_WithCoupon_PublishesEventAndRecordsUsage(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupSchedulingStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()

	storeID := seedStore(t, infra.DB)
	serviceID := seedService(t, infra.DB, storeID, 45, 20000)
	couponID := seedCoupon(t, infra.DB, storeID, "BEMVINDO10", 10, 0)
	clientID := uuid.New()

	result, err := stack.Booking.ValidateAndBook(context.Background(), clientID, "Maria", application.BookingRequest{
		StoreID:    storeID,
		ServiceID:  serviceID,
		Date:       bookingDate(),
		StartTime:  "14:00",
		CouponCode: "BEMVINDO10",
	})
	require.NoError(t, err)
	assert.Equal(t, application.BookingCommitted, result.Status)
	assert.Equal(t, int64(2000), result.DiscountCents)
	assert.Equal(t, int64(18000), result.TotalCents)
	assert.Equal(t, "BEMVINDO10", result.AppliedCoupon)

	// Usage bookkeeping.
	var couponModel repository.CouponModel
	require.NoError(t, infra.DB.First(&couponModel, "id = ?", couponID).Error)
	assert.Equal(t, 1, couponModel.UsageCount)

	var usageCount int64
	infra.DB.Model(&repository.CouponUsageModel{}).
		Where("coupon_id = ? AND client_id = ?", couponID, clientID).
		Count(&usageCount)
	assert.Equal(t, int64(1), usageCount)

	// Booked event on scheduling.events.
	ce := consumeOneEvent(t, infra.KafkaBrokers, schedulingEvents.TopicSchedulingEvents,
		schedulingEvents.AppointmentBooked, 15*time.Second)

	var booked schedulingEvents.AppointmentBookedEvent
	require.NoError(t, ce.ParseData(&booked))
	assert.Equal(t, result.AppointmentID, booked.AppointmentID)
	assert.Equal(t, storeID, booked.StoreID)
	assert.Equal(t, "14:00", booked.StartTime)
	assert.Equal(t, int64(18000), booked.TotalCents)
	assert.Equal(t, "BEMVINDO10", booked.CouponCode)
}

// TestCouponUsageLimit_SecondBookingRejected exhausts a single-use coupon and
// verifies the next booking with it is rejected before commit.
func TestCouponUsageLimit_SecondBookingRejected(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupSchedulingStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()

	storeID := seedStore(t, infra.DB)
	serviceID := seedService(t, infra.DB, storeID, 30, 10000)
	seedCoupon(t, infra.DB, storeID, "UNICO", 50, 1)
	date := bookingDate()

	_, err := stack.Booking.ValidateAndBook(context.Background(), uuid.New(), "Ana", application.BookingRequest{
		StoreID:    storeID,
		ServiceID:  serviceID,
		Date:       date,
		StartTime:  "09:00",
		CouponCode: "UNICO",
	})
	require.NoError(t, err)

	_, err = stack.Booking.ValidateAndBook(context.Background(), uuid.New(), "Bruno", application.BookingRequest{
		StoreID:    storeID,
		ServiceID:  serviceID,
		Date:       date,
		StartTime:  "11:00",
		CouponCode: "UNICO",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, coupon.ErrCouponExhausted)
	assert.ErrorIs(t, err, domain.ErrValidation)

	// The slot itself was not consumed by the failed booking.
	var count int64
	infra.DB.Model(&repository.AppointmentModel{}).
		Where("store_id = ? AND start_minute = ?", storeID, 660).
		Count(&count)
	assert.Equal(t, int64(0), count)
}

// TestSlotListing_ReflectsBookings verifies a committed booking shows up as
// an occupied slot.
func TestSlotListing_ReflectsBookings(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupSchedulingStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()

	storeID := seedStore(t, infra.DB)
	serviceID := seedService(t, infra.DB, storeID, 30, 10000)
	dateStr := bookingDate()
	date, err := time.Parse("2006-01-02", dateStr)
	require.NoError(t, err)

	_, err = stack.Booking.ValidateAndBook(context.Background(), uuid.New(), "Carla", application.BookingRequest{
		StoreID:   storeID,
		ServiceID: serviceID,
		Date:      dateStr,
		StartTime: "10:00",
	})
	require.NoError(t, err)

	slots, err := stack.Slots.GenerateSlots(context.Background(), storeID, serviceID, date)
	require.NoError(t, err)
	require.NotEmpty(t, slots)

	byTime := make(map[string]scheduling.Slot, len(slots))
	for _, s := range slots {
		byTime[s.Label] = s
	}

	occupied, ok := byTime["10:00"]
	require.True(t, ok, "10:00 slot should be listed")
	assert.False(t, occupied.Available)
	assert.Equal(t, scheduling.ReasonSlotTaken, occupied.Reason)

	free, ok := byTime["10:30"]
	require.True(t, ok, "10:30 slot should be listed")
	assert.True(t, free.Available, "adjacent slot must stay free")
}

// TestStoreUpdatedEvent_InvalidatesCache publishes a store settings event and
// verifies the consumer drops the cached store.
func TestStoreUpdatedEvent_InvalidatesCache(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupSchedulingStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()
	defer func() { _ = stack.Consumer.Close() }()

	storeID := seedStore(t, infra.DB)
	serviceID := seedService(t, infra.DB, storeID, 30, 10000)
	dateStr := bookingDate()
	date, _ := time.Parse("2006-01-02", dateStr)

	// Prime the cache.
	_, err := stack.Slots.GenerateSlots(context.Background(), storeID, serviceID, date)
	require.NoError(t, err)
	_, cached := stack.Cache.Get(storeID)
	require.True(t, cached, "store should be cached after a slot listing")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = stack.Consumer.Start(ctx) }()
	time.Sleep(3 * time.Second) // Wait for consumer group join.

	evt := schedulingEvents.StoreUpdatedEvent{
		StoreID:      storeID,
		WorkingHours: weekdayHours("08:00", "12:00"),
		OccurredAt:   time.Now().UTC(),
	}
	publishTestEvent(t, infra.KafkaBrokers, schedulingEvents.TopicStoreEvents,
		"service-store", schedulingEvents.StoreUpdated, evt)

	require.Eventually(t, func() bool {
		_, ok := stack.Cache.Get(storeID)
		return !ok
	}, 15*time.Second, 200*time.Millisecond, "cache entry should be invalidated")
}
