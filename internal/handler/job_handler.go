package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/slotwise/booking-engine/internal/dto"
	"github.com/slotwise/booking-engine/internal/service"
)

// JobHandler is the HTTP fire path for queues that call back over HTTP
// instead of AMQP. It dispatches to the same idempotent handlers as the
// consumer, so redundant fires from either path are harmless.
type JobHandler struct {
	reminders    service.ReminderService
	verification service.VerificationService
}

func NewJobHandler(reminders service.ReminderService, verification service.VerificationService) *JobHandler {
	return &JobHandler{reminders: reminders, verification: verification}
}

func (h *JobHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/api/v1/jobs/fire", h.FireJob)
}

func (h *JobHandler) FireJob(c echo.Context) error {
	var req dto.FireJobRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	var err error
	switch req.JobType {
	case "reminder":
		err = h.reminders.DeliverReminder(c.Request().Context(), req.JobID)
	case "verification":
		err = h.verification.RunVerificationAttempt(c.Request().Context(), req.JobID)
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "job_type must be reminder or verification")
	}

	if err != nil {
		switch {
		case errors.Is(err, service.ErrReminderNotFound), errors.Is(err, service.ErrHostNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrNotificationFailed):
			// Failure is recorded on the job row; the queue should not retry.
			return c.JSON(http.StatusOK, dto.FireJobResponse{Success: false})
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusOK, dto.FireJobResponse{Success: true})
}
