package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/slotwise/booking-engine/internal/models"
	"github.com/slotwise/booking-engine/internal/notification"
	"github.com/slotwise/booking-engine/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrReminderNotFound   = errors.New("reminder job not found")
	ErrNotificationFailed = errors.New("notification dispatch failed")
)

// RoutingKeyReminder is the delayed-queue routing key for reminder jobs.
const RoutingKeyReminder = "job.reminder"

// FollowUpLag is how long after a meeting ends the follow-up fires.
const FollowUpLag = 2 * time.Hour

// DelayedQueue hands a job to the external delayed-execution queue.
// *rabbitmq.Publisher satisfies it.
type DelayedQueue interface {
	PublishDelayed(routingKey string, payload any, delay time.Duration) error
}

// ReminderPayload is the delayed-queue message body for reminder jobs.
type ReminderPayload struct {
	JobID     uint   `json:"job_id"`
	BookingID uint   `json:"booking_id"`
	Kind      string `json:"kind"`
}

type ReminderService interface {
	ScheduleReminders(ctx context.Context, booking *models.Booking) error
	RescheduleReminders(ctx context.Context, booking *models.Booking) error
	CancelReminders(ctx context.Context, bookingID uint) error
	DeleteForBooking(ctx context.Context, tx *gorm.DB, bookingID uint) error
	DeliverReminder(ctx context.Context, jobID uint) error
}

type reminderService struct {
	jobs       repository.ReminderRepository
	bookings   repository.BookingRepository
	queue      DelayedQueue
	dispatcher notification.Dispatcher
	clock      Clock
}

func NewReminderService(
	jobs repository.ReminderRepository,
	bookings repository.BookingRepository,
	queue DelayedQueue,
	dispatcher notification.Dispatcher,
	clock Clock,
) ReminderService {
	if clock == nil {
		clock = SystemClock
	}
	return &reminderService{
		jobs:       jobs,
		bookings:   bookings,
		queue:      queue,
		dispatcher: dispatcher,
		clock:      clock,
	}
}

// ScheduleReminders persists one job per kind and hands each to the delayed
// queue. Every kind goes through the same queue path; confirmation just has a
// zero delay. The 24h/1h kinds are omitted when already in the past.
func (s *reminderService) ScheduleReminders(ctx context.Context, booking *models.Booking) error {
	now := s.clock()
	start := booking.ScheduledAt
	end := booking.EndsAt()

	plan := []struct {
		kind   models.ReminderKind
		fireAt time.Time
	}{
		{models.KindConfirmation, now},
		{models.KindBefore24h, start.Add(-24 * time.Hour)},
		{models.KindBefore1h, start.Add(-time.Hour)},
		{models.KindFollowUp, end.Add(FollowUpLag)},
	}

	var firstErr error
	for _, p := range plan {
		if (p.kind == models.KindBefore24h || p.kind == models.KindBefore1h) && !p.fireAt.After(now) {
			continue
		}

		job := &models.ReminderJob{
			BookingID: booking.ID,
			Kind:      p.kind,
			FireAt:    p.fireAt.UTC(),
			Status:    models.ReminderPending,
		}
		if err := s.jobs.Create(ctx, job); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("persist %s job: %w", p.kind, err)
			}
			continue
		}

		payload := ReminderPayload{JobID: job.ID, BookingID: booking.ID, Kind: string(p.kind)}
		if err := s.queue.PublishDelayed(RoutingKeyReminder, payload, p.fireAt.Sub(now)); err != nil {
			// The row stays pending; an operator can re-enqueue it.
			log.Printf("[ReminderService] job %d (%s) persisted but enqueue failed: %v", job.ID, p.kind, err)
			if firstErr == nil {
				firstErr = fmt.Errorf("enqueue %s job: %w", p.kind, err)
			}
		}
	}
	return firstErr
}

// RescheduleReminders supersedes the booking's pending jobs and schedules a
// fresh set against the new time.
func (s *reminderService) RescheduleReminders(ctx context.Context, booking *models.Booking) error {
	if err := s.CancelReminders(ctx, booking.ID); err != nil {
		return err
	}
	return s.ScheduleReminders(ctx, booking)
}

func (s *reminderService) CancelReminders(ctx context.Context, bookingID uint) error {
	return s.jobs.CancelPending(ctx, bookingID)
}

func (s *reminderService) DeleteForBooking(ctx context.Context, tx *gorm.DB, bookingID uint) error {
	return s.jobs.DeleteByBooking(ctx, tx, bookingID)
}

// DeliverReminder is the fire-time handler. It is idempotent: redeliveries
// and superseded jobs are skipped on the stored status.
func (s *reminderService) DeliverReminder(ctx context.Context, jobID uint) error {
	job, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReminderNotFound
		}
		return fmt.Errorf("load reminder job: %w", err)
	}

	if job.Status != models.ReminderPending {
		log.Printf("[ReminderService] job %d is %s, skipping", job.ID, job.Status)
		return nil
	}

	booking, err := s.bookings.FindByID(ctx, job.BookingID)
	if err != nil {
		return fmt.Errorf("load booking %d: %w", job.BookingID, err)
	}

	// The queue cannot cancel, so a job may fire for a booking that was
	// cancelled after a missed soft-cancel. Flip it here instead of sending.
	if booking.Status == models.StatusCancelled {
		return s.jobs.UpdateStatus(ctx, job.ID, models.ReminderCancelled, "")
	}

	// Claim pending -> sent before dispatching. The AMQP consumer and the
	// HTTP fire path can race on the same job; only the claim winner sends.
	claimed, err := s.jobs.ClaimPending(ctx, job.ID)
	if err != nil {
		return fmt.Errorf("claim job %d: %w", job.ID, err)
	}
	if !claimed {
		log.Printf("[ReminderService] job %d already claimed, skipping", job.ID)
		return nil
	}

	if err := s.dispatcher.Send(ctx, string(job.Kind), booking, booking.MeetingType); err != nil {
		if uerr := s.jobs.UpdateStatus(ctx, job.ID, models.ReminderFailed, err.Error()); uerr != nil {
			return fmt.Errorf("mark job %d failed: %w", job.ID, uerr)
		}
		return fmt.Errorf("%w: job %d: %v", ErrNotificationFailed, job.ID, err)
	}

	return nil
}
