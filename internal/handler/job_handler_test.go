package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/slotwise/booking-engine/internal/dto"
	"github.com/slotwise/booking-engine/internal/models"
	"github.com/slotwise/booking-engine/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type mockReminderService struct {
	deliverFn func(ctx context.Context, jobID uint) error
}

func (m *mockReminderService) ScheduleReminders(ctx context.Context, b *models.Booking) error {
	return nil
}
func (m *mockReminderService) RescheduleReminders(ctx context.Context, b *models.Booking) error {
	return nil
}
func (m *mockReminderService) CancelReminders(ctx context.Context, bookingID uint) error { return nil }
func (m *mockReminderService) DeleteForBooking(ctx context.Context, tx *gorm.DB, bookingID uint) error {
	return nil
}
func (m *mockReminderService) DeliverReminder(ctx context.Context, jobID uint) error {
	return m.deliverFn(ctx, jobID)
}

type mockVerificationService struct {
	runFn func(ctx context.Context, hostID uint) error
}

func (m *mockVerificationService) StartVerification(ctx context.Context, hostID uint, domain string) (*models.Host, error) {
	return nil, nil
}
func (m *mockVerificationService) RunVerificationAttempt(ctx context.Context, hostID uint) error {
	return m.runFn(ctx, hostID)
}

func fireJob(t *testing.T, h *JobHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	h.RegisterRoutes(e)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs/fire", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestFireJob_Reminder(t *testing.T) {
	reminders := &mockReminderService{deliverFn: func(ctx context.Context, jobID uint) error {
		assert.Equal(t, uint(5), jobID)
		return nil
	}}
	h := NewJobHandler(reminders, &mockVerificationService{})

	rec := fireJob(t, h, `{"job_id":5,"job_type":"reminder"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.FireJobResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
}

func TestFireJob_DispatchFailureIsTerminal(t *testing.T) {
	reminders := &mockReminderService{deliverFn: func(ctx context.Context, jobID uint) error {
		return service.ErrNotificationFailed
	}}
	h := NewJobHandler(reminders, &mockVerificationService{})

	rec := fireJob(t, h, `{"job_id":5,"job_type":"reminder"}`)
	require.Equal(t, http.StatusOK, rec.Code, "the queue must not retry a recorded failure")

	var resp dto.FireJobResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
}

func TestFireJob_Verification(t *testing.T) {
	verification := &mockVerificationService{runFn: func(ctx context.Context, hostID uint) error {
		assert.Equal(t, uint(3), hostID)
		return nil
	}}
	h := NewJobHandler(&mockReminderService{}, verification)

	rec := fireJob(t, h, `{"job_id":3,"job_type":"verification"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestFireJob_UnknownType(t *testing.T) {
	h := NewJobHandler(&mockReminderService{}, &mockVerificationService{})

	rec := fireJob(t, h, `{"job_id":1,"job_type":"cron"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
