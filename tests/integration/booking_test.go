//go:build integration

package integration

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/slotwise/booking-engine/internal/models"
	"github.com/slotwise/booking-engine/internal/repository"
	"github.com/slotwise/booking-engine/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

// All tests run against a frozen Monday morning so the offered slots are
// deterministic: template 09:00-17:00, 2h minimum notice puts the first
// bookable slot at 10:00.
var frozenNow = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

func frozenClock() time.Time { return frozenNow }

func slotAt(hour, min int) time.Time {
	return time.Date(2026, 3, 2, hour, min, 0, 0, time.UTC)
}

type noopQueue struct{}

func (noopQueue) PublishDelayed(routingKey string, payload any, delay time.Duration) error {
	return nil
}

type noopDispatcher struct{}

func (noopDispatcher) Send(ctx context.Context, kind string, booking *models.Booking, meetingType *models.MeetingType) error {
	return nil
}

func createTestHost(t *testing.T, bufferMinutes int) *models.Host {
	t.Helper()
	host := &models.Host{
		Name:           "Dana Host",
		Email:          "dana@example.com",
		Timezone:       "UTC",
		BufferMinutes:  bufferMinutes,
		MaxAdvanceDays: 60,
		MinNoticeHours: 2,
	}
	require.NoError(t, testDB.Create(host).Error)

	rule := &models.AvailabilityRule{
		HostID:  host.ID,
		Weekday: int(time.Monday),
		Enabled: true,
		Slots: datatypes.JSONSlice[models.SlotWindow]{
			{Start: "09:00", End: "17:00"},
		},
	}
	require.NoError(t, testDB.Create(rule).Error)
	return host
}

func createTestMeetingType(t *testing.T, hostID uint, requiresPayment bool) *models.MeetingType {
	t.Helper()
	mt := &models.MeetingType{
		HostID:          hostID,
		Name:            "Intro Call",
		DurationMinutes: 30,
		RequiresPayment: requiresPayment,
		IsActive:        true,
	}
	require.NoError(t, testDB.Create(mt).Error)
	return mt
}

func newServices() (service.BookingService, service.AvailabilityService) {
	hostRepo := repository.NewHostRepository(testDB)
	mtRepo := repository.NewMeetingTypeRepository(testDB)
	availRepo := repository.NewAvailabilityRepository(testDB)
	bookingRepo := repository.NewBookingRepository(testDB)
	reminderRepo := repository.NewReminderRepository(testDB)

	availability := service.NewAvailabilityService(hostRepo, mtRepo, availRepo, bookingRepo, frozenClock)
	reminders := service.NewReminderService(reminderRepo, bookingRepo, noopQueue{}, noopDispatcher{}, frozenClock)
	bookings := service.NewBookingService(bookingRepo, mtRepo, hostRepo, availability, reminders, noopDispatcher{}, frozenClock)
	return bookings, availability
}

func bookingInput(mtID uint, start time.Time, email string) service.CreateBookingInput {
	return service.CreateBookingInput{
		MeetingTypeID: mtID,
		ScheduledAt:   start,
		GuestName:     "Guest",
		GuestEmail:    email,
	}
}

// Test: 10 guests race for the same 10:00 slot -> exactly one wins.
func TestConcurrentBookingSameSlot(t *testing.T) {
	cleanTables()
	host := createTestHost(t, 15)
	mt := createTestMeetingType(t, host.ID, false)
	svc, _ := newServices()

	attempts := 10
	var wg sync.WaitGroup
	var mu sync.Mutex
	successCount := 0
	var lastErr error

	wg.Add(attempts)
	for i := 0; i < attempts; i++ {
		go func(idx int) {
			defer wg.Done()
			in := bookingInput(mt.ID, slotAt(10, 0), fmt.Sprintf("guest-%02d@example.com", idx))
			_, err := svc.CreateBooking(t.Context(), in)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successCount++
			} else {
				lastErr = err
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, successCount, "exactly one concurrent booking should win the slot")
	assert.ErrorIs(t, lastErr, service.ErrSlotUnavailable)

	var active int64
	testDB.Model(&models.Booking{}).
		Where("host_id = ? AND status IN ?", host.ID, []string{"pending", "confirmed"}).
		Count(&active)
	assert.Equal(t, int64(1), active, "DB should hold exactly 1 active booking")
}

// Test: concurrent bookings at different starts whose buffered intervals
// overlap -> at most one per cluster survives the host lock.
func TestConcurrentOverlappingStarts(t *testing.T) {
	cleanTables()
	host := createTestHost(t, 15)
	mt := createTestMeetingType(t, host.ID, false)
	svc, _ := newServices()

	starts := []time.Time{slotAt(10, 0), slotAt(10, 15), slotAt(10, 30)}
	var wg sync.WaitGroup
	var mu sync.Mutex
	successCount := 0

	wg.Add(len(starts))
	for i, start := range starts {
		go func(idx int, at time.Time) {
			defer wg.Done()
			in := bookingInput(mt.ID, at, fmt.Sprintf("overlap-%02d@example.com", idx))
			if _, err := svc.CreateBooking(t.Context(), in); err == nil {
				mu.Lock()
				successCount++
				mu.Unlock()
			}
		}(i, start)
	}
	wg.Wait()

	// 10:00 and 10:30 conflict through the 15m buffer, so whichever start
	// lands first excludes both others.
	assert.Equal(t, 1, successCount)
}

// Test: a confirmed 10:00-10:30 booking with a 15m buffer blocks 10:30 and
// 09:45 but leaves 10:45 open.
func TestBufferBlocksAdjacentSlots(t *testing.T) {
	cleanTables()
	host := createTestHost(t, 15)
	mt := createTestMeetingType(t, host.ID, false)
	svc, _ := newServices()

	_, err := svc.CreateBooking(t.Context(), bookingInput(mt.ID, slotAt(10, 0), "first@example.com"))
	require.NoError(t, err)

	_, err = svc.CreateBooking(t.Context(), bookingInput(mt.ID, slotAt(10, 30), "after@example.com"))
	assert.ErrorIs(t, err, service.ErrSlotUnavailable, "10:30 sits inside the trailing buffer")

	_, err = svc.CreateBooking(t.Context(), bookingInput(mt.ID, slotAt(10, 45), "clear@example.com"))
	assert.NoError(t, err, "10:45 is past the buffered interval")
}

// Test: reschedules beyond the per-booking cap are refused.
func TestRescheduleCap(t *testing.T) {
	cleanTables()
	host := createTestHost(t, 0)
	mt := createTestMeetingType(t, host.ID, false)
	svc, _ := newServices()

	booking, err := svc.CreateBooking(t.Context(), bookingInput(mt.ID, slotAt(10, 0), "cap@example.com"))
	require.NoError(t, err)

	for i, target := range []time.Time{slotAt(11, 0), slotAt(12, 0), slotAt(13, 0)} {
		booking, err = svc.RescheduleBooking(t.Context(), booking.Token, target)
		require.NoError(t, err, "reschedule %d should succeed", i+1)
		assert.Equal(t, target, booking.ScheduledAt.UTC())
	}
	assert.Equal(t, 3, booking.RescheduleCount)

	_, err = svc.RescheduleBooking(t.Context(), booking.Token, slotAt(14, 0))
	assert.ErrorIs(t, err, service.ErrRescheduleLimit, "14:00 is open but the cap is spent")
}

// Test: two concurrent reschedules with one cap slot left -> exactly one
// lands, and the stored count reflects it.
func TestConcurrentRescheduleCap(t *testing.T) {
	cleanTables()
	host := createTestHost(t, 0)
	mt := createTestMeetingType(t, host.ID, false)
	svc, _ := newServices()

	booking, err := svc.CreateBooking(t.Context(), bookingInput(mt.ID, slotAt(10, 0), "racer@example.com"))
	require.NoError(t, err)

	// Spend all but the last reschedule.
	require.NoError(t, testDB.Model(&models.Booking{}).
		Where("id = ?", booking.ID).
		Update("reschedule_count", booking.MaxReschedules-1).Error)

	var wg sync.WaitGroup
	var mu sync.Mutex
	successCount := 0

	wg.Add(2)
	for i, target := range []time.Time{slotAt(12, 0), slotAt(14, 0)} {
		go func(idx int, at time.Time) {
			defer wg.Done()
			if _, err := svc.RescheduleBooking(t.Context(), booking.Token, at); err == nil {
				mu.Lock()
				successCount++
				mu.Unlock()
			}
		}(i, target)
	}
	wg.Wait()

	assert.Equal(t, 1, successCount, "only one reschedule may spend the last cap slot")

	var stored models.Booking
	require.NoError(t, testDB.First(&stored, booking.ID).Error)
	assert.Equal(t, stored.MaxReschedules, stored.RescheduleCount, "no increment may be lost")
}

// Test: a host cannot flip a cancelled booking back to confirmed once another
// guest holds an overlapping slot.
func TestReactivateIntoOccupiedSlot(t *testing.T) {
	cleanTables()
	host := createTestHost(t, 15)
	mt := createTestMeetingType(t, host.ID, false)
	svc, _ := newServices()

	original, err := svc.CreateBooking(t.Context(), bookingInput(mt.ID, slotAt(10, 0), "first@example.com"))
	require.NoError(t, err)

	_, err = svc.UpdateStatus(t.Context(), host.ID, original.ID, models.StatusCancelled, "host conflict")
	require.NoError(t, err)

	// A different start: the unique index cannot catch this overlap, only
	// the conflict check can.
	_, err = svc.CreateBooking(t.Context(), bookingInput(mt.ID, slotAt(10, 15), "second@example.com"))
	require.NoError(t, err, "cancelled slot should be rebookable")

	_, err = svc.UpdateStatus(t.Context(), host.ID, original.ID, models.StatusConfirmed, "")
	assert.ErrorIs(t, err, service.ErrSlotUnavailable, "re-activation must pass the conflict gate")

	var active int64
	testDB.Model(&models.Booking{}).
		Where("host_id = ? AND status IN ?", host.ID, []string{"pending", "confirmed"}).
		Count(&active)
	assert.Equal(t, int64(1), active)
}

// Test: cancelling twice is a no-op and frees the slot for a new guest.
func TestCancelIdempotentAndFreesSlot(t *testing.T) {
	cleanTables()
	host := createTestHost(t, 15)
	mt := createTestMeetingType(t, host.ID, false)
	svc, _ := newServices()

	booking, err := svc.CreateBooking(t.Context(), bookingInput(mt.ID, slotAt(10, 0), "cancel@example.com"))
	require.NoError(t, err)

	cancelled, err := svc.CancelBooking(t.Context(), booking.Token, "conflict came up")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)

	again, err := svc.CancelBooking(t.Context(), booking.Token, "")
	require.NoError(t, err, "second cancel must not error")
	assert.Equal(t, models.StatusCancelled, again.Status)

	_, err = svc.CreateBooking(t.Context(), bookingInput(mt.ID, slotAt(10, 0), "next@example.com"))
	assert.NoError(t, err, "cancelled booking no longer occupies the slot")

	var pending int64
	testDB.Model(&models.ReminderJob{}).
		Where("booking_id = ? AND status = ?", booking.ID, "pending").
		Count(&pending)
	assert.Equal(t, int64(0), pending, "cancel should leave no pending reminder jobs")
}

// Test: a blanked date override removes every slot the template offered.
func TestDateOverrideBlanksDay(t *testing.T) {
	cleanTables()
	host := createTestHost(t, 0)
	mt := createTestMeetingType(t, host.ID, false)
	svc, availability := newServices()

	day, err := availability.GetAvailability(t.Context(), mt.ID, "2026-03-02")
	require.NoError(t, err)
	require.NotEmpty(t, day.Slots)

	err = availability.SetDateOverride(t.Context(), host.ID, &models.DateOverride{
		HostID:    host.ID,
		Date:      datatypes.Date(slotAt(0, 0)),
		Available: false,
	})
	require.NoError(t, err)

	day, err = availability.GetAvailability(t.Context(), mt.ID, "2026-03-02")
	require.NoError(t, err)
	assert.Empty(t, day.Slots, "blanked date should offer nothing")

	_, err = svc.CreateBooking(t.Context(), bookingInput(mt.ID, slotAt(10, 0), "blanked@example.com"))
	assert.ErrorIs(t, err, service.ErrSlotUnavailable)
}

// Test: paid meeting types start pending and confirm on payment callback;
// free ones confirm immediately.
func TestPaymentGate(t *testing.T) {
	cleanTables()
	host := createTestHost(t, 0)
	free := createTestMeetingType(t, host.ID, false)
	paid := createTestMeetingType(t, host.ID, true)
	svc, _ := newServices()

	freeBooking, err := svc.CreateBooking(t.Context(), bookingInput(free.ID, slotAt(10, 0), "free@example.com"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, freeBooking.Status)

	paidBooking, err := svc.CreateBooking(t.Context(), bookingInput(paid.ID, slotAt(11, 0), "paid@example.com"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, paidBooking.Status)

	confirmed, err := svc.ConfirmBooking(t.Context(), paidBooking.Token)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, confirmed.Status)
}

// Test: reminder jobs are persisted at create time, minus kinds whose fire
// time already passed. At 08:00 for a 10:00 meeting the 24h kind is in the
// past, so confirmation, 1h and follow_up remain.
func TestRemindersPersistedOnCreate(t *testing.T) {
	cleanTables()
	host := createTestHost(t, 0)
	mt := createTestMeetingType(t, host.ID, false)
	svc, _ := newServices()

	booking, err := svc.CreateBooking(t.Context(), bookingInput(mt.ID, slotAt(10, 0), "jobs@example.com"))
	require.NoError(t, err)

	var jobs []models.ReminderJob
	require.NoError(t, testDB.Where("booking_id = ?", booking.ID).Find(&jobs).Error)
	require.Len(t, jobs, 3)

	kinds := make(map[models.ReminderKind]time.Time, len(jobs))
	for _, j := range jobs {
		kinds[j.Kind] = j.FireAt.UTC()
	}
	assert.Contains(t, kinds, models.KindConfirmation)
	assert.Equal(t, slotAt(9, 0), kinds[models.KindBefore1h])
	assert.Equal(t, slotAt(12, 30), kinds[models.KindFollowUp])
	assert.NotContains(t, kinds, models.KindBefore24h)
}
