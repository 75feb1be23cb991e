package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/slotwise/booking-engine/internal/models"
	"github.com/slotwise/booking-engine/internal/notification"
	"github.com/slotwise/booking-engine/internal/repository"
	"github.com/slotwise/booking-engine/internal/timeslot"
	"gorm.io/gorm"
)

var (
	ErrBookingNotFound  = errors.New("booking not found")
	ErrBookingNotActive = errors.New("booking is not pending or confirmed")
	ErrBookingCompleted = errors.New("completed bookings cannot be removed")
	ErrSlotUnavailable  = errors.New("slot is not available")
	ErrRescheduleLimit  = errors.New("reschedule limit reached")
	ErrInvalidGuest     = errors.New("guest name and a valid email are required")
	ErrInvalidStatus    = errors.New("unknown booking status")
)

// DefaultMaxReschedules caps guest-initiated reschedules per booking.
const DefaultMaxReschedules = 3

type CreateBookingInput struct {
	MeetingTypeID uint
	ScheduledAt   time.Time
	GuestName     string
	GuestEmail    string
}

type BookingService interface {
	CreateBooking(ctx context.Context, in CreateBookingInput) (*models.Booking, error)
	GetByToken(ctx context.Context, token string) (*models.Booking, error)
	RescheduleBooking(ctx context.Context, token string, newStart time.Time) (*models.Booking, error)
	CancelBooking(ctx context.Context, token, reason string) (*models.Booking, error)
	ConfirmBooking(ctx context.Context, token string) (*models.Booking, error)
	UpdateStatus(ctx context.Context, hostID, bookingID uint, status models.BookingStatus, notes string) (*models.Booking, error)
	DeleteBooking(ctx context.Context, hostID, bookingID uint) error
}

type bookingService struct {
	bookings     repository.BookingRepository
	meetingTypes repository.MeetingTypeRepository
	hosts        repository.HostRepository
	availability AvailabilityService
	reminders    ReminderService
	dispatcher   notification.Dispatcher
	clock        Clock
}

func NewBookingService(
	bookings repository.BookingRepository,
	meetingTypes repository.MeetingTypeRepository,
	hosts repository.HostRepository,
	availability AvailabilityService,
	reminders ReminderService,
	dispatcher notification.Dispatcher,
	clock Clock,
) BookingService {
	if clock == nil {
		clock = SystemClock
	}
	return &bookingService{
		bookings:     bookings,
		meetingTypes: meetingTypes,
		hosts:        hosts,
		availability: availability,
		reminders:    reminders,
		dispatcher:   dispatcher,
		clock:        clock,
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, in CreateBookingInput) (*models.Booking, error) {
	if err := validateGuest(in.GuestName, in.GuestEmail); err != nil {
		return nil, err
	}

	mt, err := s.meetingTypes.FindByID(ctx, in.MeetingTypeID)
	if err != nil {
		return nil, ErrMeetingTypeNotFound
	}
	if !mt.IsActive {
		return nil, ErrMeetingTypeInactive
	}

	status := models.StatusConfirmed
	if mt.RequiresPayment {
		// The payment collaborator performs pending -> confirmed later.
		status = models.StatusPending
	}

	var booking *models.Booking

	err = s.bookings.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. Lock the host row to serialize concurrent bookings per host
		host, err := s.hosts.FindByIDForUpdate(ctx, tx, mt.HostID)
		if err != nil {
			return ErrHostNotFound
		}

		// 2. The slot must still be offered by the resolver (template,
		//    override, notice window)
		offered, err := s.availability.SlotOffered(ctx, tx, host, mt, in.ScheduledAt)
		if err != nil {
			return err
		}
		if !offered {
			return ErrSlotUnavailable
		}

		// 3. No buffered overlap with committed bookings
		proposed := timeslot.Interval{
			Start: in.ScheduledAt,
			End:   in.ScheduledAt.Add(time.Duration(mt.DurationMinutes) * time.Minute),
		}
		if _, conflict, err := s.checkConflict(ctx, tx, host, proposed, 0); err != nil {
			return err
		} else if conflict {
			return ErrSlotUnavailable
		}

		// 4. Insert
		booking = &models.Booking{
			HostID:          host.ID,
			MeetingTypeID:   mt.ID,
			Token:           uuid.NewString(),
			GuestName:       in.GuestName,
			GuestEmail:      in.GuestEmail,
			ScheduledAt:     in.ScheduledAt.UTC(),
			DurationMinutes: mt.DurationMinutes,
			Status:          status,
			MaxReschedules:  DefaultMaxReschedules,
		}
		if err := s.bookings.Create(ctx, tx, booking); err != nil {
			// The partial unique index on (host_id, scheduled_at) backstops
			// the check above under concurrent inserts.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrSlotUnavailable
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	booking.MeetingType = mt

	// Side effects must not undo a committed booking: log and keep going.
	if err := s.reminders.ScheduleReminders(ctx, booking); err != nil {
		log.Printf("[BookingService] booking %d created but reminder scheduling degraded: %v", booking.ID, err)
	}

	return booking, nil
}

func (s *bookingService) GetByToken(ctx context.Context, token string) (*models.Booking, error) {
	booking, err := s.bookings.FindByToken(ctx, token)
	if err != nil {
		return nil, ErrBookingNotFound
	}
	return booking, nil
}

func (s *bookingService) RescheduleBooking(ctx context.Context, token string, newStart time.Time) (*models.Booking, error) {
	found, err := s.bookings.FindByToken(ctx, token)
	if err != nil {
		return nil, ErrBookingNotFound
	}

	var booking *models.Booking

	err = s.bookings.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		host, err := s.hosts.FindByIDForUpdate(ctx, tx, found.HostID)
		if err != nil {
			return ErrHostNotFound
		}

		// Re-read under the lock: the status and cap checks must see the
		// latest committed state, not what the token lookup returned.
		booking, err = s.bookings.FindByIDForUpdate(ctx, tx, found.ID)
		if err != nil {
			return ErrBookingNotFound
		}
		if !booking.Status.Active() {
			return ErrBookingNotActive
		}
		// The cap applies regardless of slot availability.
		if booking.RescheduleCount >= booking.MaxReschedules {
			return ErrRescheduleLimit
		}

		proposed := timeslot.Interval{
			Start: newStart,
			End:   newStart.Add(time.Duration(booking.DurationMinutes) * time.Minute),
		}
		if _, conflict, err := s.checkConflict(ctx, tx, host, proposed, booking.ID); err != nil {
			return err
		} else if conflict {
			return ErrSlotUnavailable
		}

		booking.ScheduledAt = newStart.UTC()
		booking.RescheduleCount++
		if err := s.bookings.Save(ctx, tx, booking); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrSlotUnavailable
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	booking.MeetingType = found.MeetingType

	if err := s.reminders.RescheduleReminders(ctx, booking); err != nil {
		log.Printf("[BookingService] booking %d rescheduled but reminder refresh degraded: %v", booking.ID, err)
	}

	return booking, nil
}

func (s *bookingService) CancelBooking(ctx context.Context, token, reason string) (*models.Booking, error) {
	booking, err := s.bookings.FindByToken(ctx, token)
	if err != nil {
		return nil, ErrBookingNotFound
	}

	// Idempotent: a second cancel returns the already-cancelled booking.
	if booking.Status == models.StatusCancelled {
		return booking, nil
	}
	if !booking.Status.Active() {
		return nil, ErrBookingNotActive
	}

	booking.Status = models.StatusCancelled
	booking.CancelReason = reason
	if err := s.bookings.Save(ctx, s.bookings.GetDB(), booking); err != nil {
		return nil, err
	}

	s.afterDeactivation(ctx, booking, notification.KindCancellation)
	return booking, nil
}

func (s *bookingService) ConfirmBooking(ctx context.Context, token string) (*models.Booking, error) {
	booking, err := s.bookings.FindByToken(ctx, token)
	if err != nil {
		return nil, ErrBookingNotFound
	}

	switch booking.Status {
	case models.StatusConfirmed:
		return booking, nil
	case models.StatusPending:
		booking.Status = models.StatusConfirmed
		if err := s.bookings.Save(ctx, s.bookings.GetDB(), booking); err != nil {
			return nil, err
		}
		return booking, nil
	default:
		return nil, ErrBookingNotActive
	}
}

func (s *bookingService) UpdateStatus(ctx context.Context, hostID, bookingID uint, status models.BookingStatus, notes string) (*models.Booking, error) {
	switch status {
	case models.StatusPending, models.StatusConfirmed, models.StatusCancelled, models.StatusCompleted, models.StatusNoShow:
	default:
		return nil, ErrInvalidStatus
	}

	var booking *models.Booking
	var wasActive bool

	err := s.bookings.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		host, err := s.hosts.FindByIDForUpdate(ctx, tx, hostID)
		if err != nil {
			return ErrBookingNotFound
		}

		booking, err = s.bookings.FindByIDForUpdate(ctx, tx, bookingID)
		if err != nil || booking.HostID != hostID {
			return ErrBookingNotFound
		}
		wasActive = booking.Status.Active()

		// Re-activating a settled booking re-occupies its slot, so it must
		// pass the same conflict gate as a fresh insert.
		if status.Active() && !wasActive {
			occupied := timeslot.Interval{Start: booking.ScheduledAt, End: booking.EndsAt()}
			if _, conflict, err := s.checkConflict(ctx, tx, host, occupied, booking.ID); err != nil {
				return err
			} else if conflict {
				return ErrSlotUnavailable
			}
		}

		booking.Status = status
		booking.Notes = notes
		if status == models.StatusCancelled {
			booking.CancelReason = notes
		}
		if err := s.bookings.Save(ctx, tx, booking); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrSlotUnavailable
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Only the first transition out of pending/confirmed fires a one-shot
	// notification.
	if wasActive && !status.Active() {
		kind := map[models.BookingStatus]string{
			models.StatusCancelled: notification.KindCancellation,
			models.StatusCompleted: notification.KindCompleted,
			models.StatusNoShow:    notification.KindNoShow,
		}[status]
		s.afterDeactivation(ctx, booking, kind)
	}

	return booking, nil
}

func (s *bookingService) DeleteBooking(ctx context.Context, hostID, bookingID uint) error {
	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil || booking.HostID != hostID {
		return ErrBookingNotFound
	}
	if booking.Status == models.StatusCompleted {
		return ErrBookingCompleted
	}

	// A deletion of a still-active booking is a cancellation from the
	// guest's point of view.
	if booking.Status != models.StatusCancelled {
		if err := s.dispatcher.Send(ctx, notification.KindCancellation, booking, booking.MeetingType); err != nil {
			log.Printf("[BookingService] cancellation notification for deleted booking %d degraded: %v", booking.ID, err)
		}
	}

	return s.bookings.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.reminders.DeleteForBooking(ctx, tx, booking.ID); err != nil {
			return err
		}
		return s.bookings.Delete(ctx, tx, booking.ID)
	})
}

// checkConflict applies the buffered-overlap test against the host's active
// bookings, optionally excluding the booking being moved.
func (s *bookingService) checkConflict(ctx context.Context, tx *gorm.DB, host *models.Host, proposed timeslot.Interval, excludeID uint) (conflictingID uint, conflict bool, err error) {
	buffer := time.Duration(host.BufferMinutes) * time.Minute
	existing, err := s.bookings.FindActiveInRange(ctx, tx, host.ID, proposed.Start.Add(-buffer), proposed.End.Add(buffer))
	if err != nil {
		return 0, false, fmt.Errorf("conflict query: %w", err)
	}
	for _, b := range existing {
		if b.ID == excludeID {
			continue
		}
		occupied := timeslot.Interval{Start: b.ScheduledAt, End: b.EndsAt()}
		if proposed.Overlaps(occupied.Buffered(buffer)) {
			return b.ID, true, nil
		}
	}
	return 0, false, nil
}

// afterDeactivation cancels pending reminders and fires the one-shot
// notification; failures are logged, the status change stands.
func (s *bookingService) afterDeactivation(ctx context.Context, booking *models.Booking, kind string) {
	if err := s.reminders.CancelReminders(ctx, booking.ID); err != nil {
		log.Printf("[BookingService] reminder cancellation for booking %d degraded: %v", booking.ID, err)
	}
	if kind == "" {
		return
	}
	if err := s.dispatcher.Send(ctx, kind, booking, booking.MeetingType); err != nil {
		log.Printf("[BookingService] %s notification for booking %d degraded: %v", kind, booking.ID, err)
	}
}

func validateGuest(name, email string) error {
	if name == "" {
		return ErrInvalidGuest
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return ErrInvalidGuest
	}
	return nil
}
