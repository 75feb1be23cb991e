package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/slotwise/booking-engine/internal/models"
	"github.com/slotwise/booking-engine/internal/repository"
	"github.com/slotwise/booking-engine/internal/timeslot"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrHostNotFound        = errors.New("host not found")
	ErrMeetingTypeNotFound = errors.New("meeting type not found")
	ErrMeetingTypeInactive = errors.New("meeting type is not active")
	ErrInvalidTemplate     = errors.New("availability slots must be valid HH:MM ranges without overlap")
	ErrBadTimezone         = errors.New("unknown timezone")
)

// DayAvailability is the resolved bookable-slot list for one host-day.
type DayAvailability struct {
	Date     string
	Timezone string
	Slots    []timeslot.Interval
}

type AvailabilityService interface {
	GetAvailability(ctx context.Context, meetingTypeID uint, date string) (*DayAvailability, error)
	SlotOffered(ctx context.Context, tx *gorm.DB, host *models.Host, mt *models.MeetingType, start time.Time) (bool, error)
	SetWeeklyTemplate(ctx context.Context, hostID uint, rules []models.AvailabilityRule) error
	SetDateOverride(ctx context.Context, hostID uint, override *models.DateOverride) error
}

type availabilityService struct {
	hosts        repository.HostRepository
	meetingTypes repository.MeetingTypeRepository
	availability repository.AvailabilityRepository
	bookings     repository.BookingRepository
	clock        Clock
}

func NewAvailabilityService(
	hosts repository.HostRepository,
	meetingTypes repository.MeetingTypeRepository,
	availability repository.AvailabilityRepository,
	bookings repository.BookingRepository,
	clock Clock,
) AvailabilityService {
	if clock == nil {
		clock = SystemClock
	}
	return &availabilityService{
		hosts:        hosts,
		meetingTypes: meetingTypes,
		availability: availability,
		bookings:     bookings,
		clock:        clock,
	}
}

func (s *availabilityService) GetAvailability(ctx context.Context, meetingTypeID uint, date string) (*DayAvailability, error) {
	mt, err := s.meetingTypes.FindByID(ctx, meetingTypeID)
	if err != nil {
		return nil, ErrMeetingTypeNotFound
	}
	if !mt.IsActive {
		return nil, ErrMeetingTypeInactive
	}

	host, err := s.hosts.FindByID(ctx, mt.HostID)
	if err != nil {
		return nil, ErrHostNotFound
	}

	loc, err := time.LoadLocation(host.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBadTimezone, host.Timezone)
	}

	day, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, err)
	}

	out := &DayAvailability{Date: date, Timezone: host.Timezone}

	// Dates beyond the advance window are simply not offered.
	if host.MaxAdvanceDays > 0 {
		horizon := s.clock().AddDate(0, 0, host.MaxAdvanceDays)
		if day.After(horizon) {
			return out, nil
		}
	}

	slots, err := s.resolveDay(ctx, s.bookings.GetDB(), host, mt, day, loc)
	if err != nil {
		return nil, err
	}
	out.Slots = slots
	return out, nil
}

// SlotOffered reports whether start is currently one of the resolver's
// offered slots for the meeting type. Run inside the booking transaction so
// the busy-interval read is consistent with the write that follows.
func (s *availabilityService) SlotOffered(ctx context.Context, tx *gorm.DB, host *models.Host, mt *models.MeetingType, start time.Time) (bool, error) {
	loc, err := time.LoadLocation(host.Timezone)
	if err != nil {
		return false, fmt.Errorf("%w: %s", ErrBadTimezone, host.Timezone)
	}

	day := start.In(loc)
	slots, err := s.resolveDay(ctx, tx, host, mt, day, loc)
	if err != nil {
		return false, err
	}
	for _, slot := range slots {
		if slot.Start.Equal(start) {
			return true, nil
		}
	}
	return false, nil
}

func (s *availabilityService) resolveDay(ctx context.Context, tx *gorm.DB, host *models.Host, mt *models.MeetingType, day time.Time, loc *time.Location) ([]timeslot.Interval, error) {
	year, month, dom := day.Date()

	windows, err := s.windowsForDate(ctx, host.ID, year, month, dom, loc, day.Weekday())
	if err != nil {
		return nil, err
	}
	if len(windows) == 0 {
		return nil, nil
	}

	buffer := time.Duration(host.BufferMinutes) * time.Minute
	dayStart := time.Date(year, month, dom, 0, 0, 0, 0, loc).UTC()
	dayEnd := dayStart.Add(24 * time.Hour)

	busyBookings, err := s.bookings.FindActiveInRange(ctx, tx, host.ID, dayStart.Add(-buffer), dayEnd.Add(buffer))
	if err != nil {
		return nil, fmt.Errorf("load active bookings: %w", err)
	}
	busy := make([]timeslot.Interval, len(busyBookings))
	for i, b := range busyBookings {
		busy[i] = timeslot.Interval{Start: b.ScheduledAt.UTC(), End: b.EndsAt().UTC()}
	}

	return timeslot.ResolveDay(timeslot.DayRequest{
		Year:          year,
		Month:         month,
		Day:           dom,
		Location:      loc,
		Duration:      time.Duration(mt.DurationMinutes) * time.Minute,
		Windows:       windows,
		Busy:          busy,
		Buffer:        buffer,
		EarliestStart: s.clock().Add(time.Duration(host.MinNoticeHours) * time.Hour),
	}), nil
}

// windowsForDate picks the source intervals for the date: an override fully
// replaces the weekly template entry when present.
func (s *availabilityService) windowsForDate(ctx context.Context, hostID uint, year int, month time.Month, dom int, loc *time.Location, weekday time.Weekday) ([]timeslot.WallClockRange, error) {
	date := datatypes.Date(time.Date(year, month, dom, 0, 0, 0, 0, time.UTC))
	override, err := s.availability.OverrideForDate(ctx, hostID, date)
	if err != nil {
		return nil, fmt.Errorf("load override: %w", err)
	}
	if override != nil {
		if !override.Available {
			return nil, nil
		}
		return parseWindows(override.Slots)
	}

	rule, err := s.availability.RuleForWeekday(ctx, hostID, int(weekday))
	if err != nil {
		return nil, fmt.Errorf("load weekly rule: %w", err)
	}
	if rule == nil || !rule.Enabled {
		return nil, nil
	}
	return parseWindows(rule.Slots)
}

func parseWindows(slots []models.SlotWindow) ([]timeslot.WallClockRange, error) {
	windows := make([]timeslot.WallClockRange, 0, len(slots))
	for _, sw := range slots {
		w, err := timeslot.ParseWallClockRange(sw.Start, sw.End)
		if err != nil {
			return nil, fmt.Errorf("%w: %s-%s", ErrInvalidTemplate, sw.Start, sw.End)
		}
		windows = append(windows, w)
	}
	return windows, nil
}

func (s *availabilityService) SetWeeklyTemplate(ctx context.Context, hostID uint, rules []models.AvailabilityRule) error {
	if _, err := s.hosts.FindByID(ctx, hostID); err != nil {
		return ErrHostNotFound
	}

	for i := range rules {
		rule := &rules[i]
		if rule.Weekday < 0 || rule.Weekday > 6 {
			return fmt.Errorf("%w: weekday %d out of range", ErrInvalidTemplate, rule.Weekday)
		}
		rule.HostID = hostID
		if err := validateWindows(rule.Slots); err != nil {
			return err
		}
	}

	return s.availability.ReplaceRules(ctx, hostID, rules)
}

func (s *availabilityService) SetDateOverride(ctx context.Context, hostID uint, override *models.DateOverride) error {
	if _, err := s.hosts.FindByID(ctx, hostID); err != nil {
		return ErrHostNotFound
	}

	override.HostID = hostID
	if override.Available {
		if err := validateWindows(override.Slots); err != nil {
			return err
		}
	}

	return s.availability.UpsertOverride(ctx, override)
}

func validateWindows(slots []models.SlotWindow) error {
	windows, err := parseWindows(slots)
	if err != nil {
		return err
	}
	if timeslot.OverlapsAny(windows) {
		return ErrInvalidTemplate
	}
	return nil
}
