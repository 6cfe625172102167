package appointment

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AgendaLivre/service-scheduling/internal/domain/schedule"
)

func newTestAppointment(t *testing.T) *Appointment {
	t.Helper()
	date, err := time.Parse("2006-01-02", "2026-09-07")
	require.NoError(t, err)
	return NewAppointment(
		uuid.New(), uuid.New(), uuid.New(), "Maria",
		date, 600, 630,
		10000, 0, nil,
	)
}

func TestNewAppointment_StartsPending(t *testing.T) {
	a := newTestAppointment(t)

	assert.Equal(t, StatusPending, a.Status())
	assert.Equal(t, int64(1), a.Version())
	assert.Equal(t, schedule.Interval{Start: 600, End: 630}, a.Interval())
}

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(a *Appointment)
		action  func(a *Appointment) error
		wantErr bool
		want    Status
	}{
		{
			name:   "pending can be confirmed",
			action: func(a *Appointment) error { return a.Confirm() },
			want:   StatusConfirmed,
		},
		{
			name:    "pending cannot be completed",
			action:  func(a *Appointment) error { return a.Complete() },
			wantErr: true,
		},
		{
			name:    "pending cannot be marked no-show",
			action:  func(a *Appointment) error { return a.MarkNoShow() },
			wantErr: true,
		},
		{
			name:    "confirmed can be completed",
			prepare: func(a *Appointment) { _ = a.Confirm() },
			action:  func(a *Appointment) error { return a.Complete() },
			want:    StatusCompleted,
		},
		{
			name:    "confirmed can be marked no-show",
			prepare: func(a *Appointment) { _ = a.Confirm() },
			action:  func(a *Appointment) error { return a.MarkNoShow() },
			want:    StatusNoShow,
		},
		{
			name:    "confirmed cannot be confirmed again",
			prepare: func(a *Appointment) { _ = a.Confirm() },
			action:  func(a *Appointment) error { return a.Confirm() },
			wantErr: true,
		},
		{
			name:   "pending can be cancelled",
			action: func(a *Appointment) error { return a.Cancel("mudei de planos") },
			want:   StatusCancelled,
		},
		{
			name:    "confirmed can be cancelled",
			prepare: func(a *Appointment) { _ = a.Confirm() },
			action:  func(a *Appointment) error { return a.Cancel("") },
			want:    StatusCancelled,
		},
		{
			name:    "cancelled cannot be cancelled again",
			prepare: func(a *Appointment) { _ = a.Cancel("") },
			action:  func(a *Appointment) error { return a.Cancel("") },
			wantErr: true,
		},
		{
			name:    "completed cannot be cancelled",
			prepare: func(a *Appointment) { _ = a.Confirm(); _ = a.Complete() },
			action:  func(a *Appointment) error { return a.Cancel("") },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAppointment(t)
			if tt.prepare != nil {
				tt.prepare(a)
			}

			err := tt.action(a)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, a.Status())
		})
	}
}

func TestCancel_RecordsReasonAndTime(t *testing.T) {
	a := newTestAppointment(t)

	require.NoError(t, a.Cancel("cliente desistiu"))

	assert.Equal(t, "cliente desistiu", a.CancelReason())
	require.NotNil(t, a.CancelledAt())
	assert.WithinDuration(t, time.Now().UTC(), *a.CancelledAt(), time.Minute)
}

func TestStatusIsActive(t *testing.T) {
	assert.True(t, StatusPending.IsActive())
	assert.True(t, StatusConfirmed.IsActive())
	assert.False(t, StatusCancelled.IsActive())
	assert.False(t, StatusCompleted.IsActive())
	assert.False(t, StatusNoShow.IsActive())
}

func TestNormalizeDate(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)

	in := time.Date(2026, 9, 7, 15, 42, 9, 123, loc)
	got := NormalizeDate(in)

	assert.Equal(t, time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC), got)
}
