package adapter

import (
	"context"

	"go.uber.org/zap"

	"github.com/AgendaLivre/service-scheduling/internal/events"
)

// Notifier is the Anti-Corruption Layer interface for the external
// notification channel (WhatsApp/email). Delivery is best-effort and runs
// after the booking is committed; failures never unwind the booking.
type Notifier interface {
	SendBookingConfirmation(ctx context.Context, event events.AppointmentBookedEvent) error
}

// LogNotifier is a development/testing implementation that only logs.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a notifier that logs instead of delivering.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// SendBookingConfirmation logs the confirmation that would be delivered.
func (n *LogNotifier) SendBookingConfirmation(ctx context.Context, event events.AppointmentBookedEvent) error {
	n.logger.Info("[MOCK NOTIFIER] booking confirmation",
		zap.String("appointment_id", event.AppointmentID.String()),
		zap.String("client", event.ClientName),
		zap.String("date", event.Date),
		zap.String("start_time", event.StartTime),
	)
	return nil
}
