package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/slotwise/booking-engine/internal/models"
	"github.com/slotwise/booking-engine/pkg/rabbitmq"
)

// Notification kinds beyond the reminder schedule; reminder kinds reuse
// models.ReminderKind strings.
const (
	KindCancellation = "cancellation"
	KindCompleted    = "completed"
	KindNoShow       = "no_show"
)

// Dispatcher hands a notification request to the external delivery system.
// Rendering and transport (email, ICS attachments) happen downstream.
type Dispatcher interface {
	Send(ctx context.Context, kind string, booking *models.Booking, meetingType *models.MeetingType) error
}

type message struct {
	Kind            string    `json:"kind"`
	BookingID       uint      `json:"booking_id"`
	HostID          uint      `json:"host_id"`
	GuestName       string    `json:"guest_name"`
	GuestEmail      string    `json:"guest_email"`
	MeetingTypeName string    `json:"meeting_type_name"`
	ScheduledAt     time.Time `json:"scheduled_at"`
	DurationMinutes int       `json:"duration_minutes"`
}

// AMQPDispatcher publishes notification requests to the notifications topic
// exchange for the external mailer to consume.
type AMQPDispatcher struct {
	publisher *rabbitmq.Publisher
}

func NewAMQPDispatcher(publisher *rabbitmq.Publisher) *AMQPDispatcher {
	return &AMQPDispatcher{publisher: publisher}
}

func (d *AMQPDispatcher) Send(ctx context.Context, kind string, booking *models.Booking, meetingType *models.MeetingType) error {
	msg := message{
		Kind:            kind,
		BookingID:       booking.ID,
		HostID:          booking.HostID,
		GuestName:       booking.GuestName,
		GuestEmail:      booking.GuestEmail,
		ScheduledAt:     booking.ScheduledAt,
		DurationMinutes: booking.DurationMinutes,
	}
	if meetingType != nil {
		msg.MeetingTypeName = meetingType.Name
	}

	if err := d.publisher.Publish("notification."+kind, msg); err != nil {
		return fmt.Errorf("dispatch %s notification: %w", kind, err)
	}
	return nil
}
