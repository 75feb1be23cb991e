package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/slotwise/booking-engine/internal/dto"
	"github.com/slotwise/booking-engine/internal/service"
)

// BookingHandler serves the guest-facing surface: slot discovery and
// token-based self-service on bookings.
type BookingHandler struct {
	bookings     service.BookingService
	availability service.AvailabilityService
}

func NewBookingHandler(bookings service.BookingService, availability service.AvailabilityService) *BookingHandler {
	return &BookingHandler{bookings: bookings, availability: availability}
}

func (h *BookingHandler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api/v1")
	api.GET("/availability", h.GetAvailability)
	api.POST("/bookings", h.CreateBooking)
	api.GET("/bookings", h.GetBooking)
	api.PUT("/bookings", h.RescheduleBooking)
	api.DELETE("/bookings", h.CancelBooking)
	api.POST("/bookings/confirm", h.ConfirmBooking)
}

func (h *BookingHandler) GetAvailability(c echo.Context) error {
	meetingTypeID, err := strconv.ParseUint(c.QueryParam("meeting_type_id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid meeting_type_id")
	}
	date := c.QueryParam("date")
	if date == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "date is required (YYYY-MM-DD)")
	}

	day, err := h.availability.GetAvailability(c.Request().Context(), uint(meetingTypeID), date)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMeetingTypeNotFound), errors.Is(err, service.ErrHostNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrMeetingTypeInactive):
			return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
		default:
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}

	// Slots are rendered in the requested timezone, defaulting to the host's.
	tz := c.QueryParam("timezone")
	if tz == "" {
		tz = day.Timezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown timezone")
	}

	return c.JSON(http.StatusOK, dto.ToAvailabilityResponse(day.Date, tz, day.Slots, loc))
}

func (h *BookingHandler) CreateBooking(c echo.Context) error {
	var req dto.CreateBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.MeetingTypeID == 0 || req.ScheduledAt.IsZero() {
		return echo.NewHTTPError(http.StatusBadRequest, "meeting_type_id and scheduled_at are required")
	}

	booking, err := h.bookings.CreateBooking(c.Request().Context(), service.CreateBookingInput{
		MeetingTypeID: req.MeetingTypeID,
		ScheduledAt:   req.ScheduledAt,
		GuestName:     req.GuestName,
		GuestEmail:    req.GuestEmail,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidGuest):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrMeetingTypeNotFound), errors.Is(err, service.ErrHostNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrMeetingTypeInactive):
			return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, service.ErrSlotUnavailable):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusCreated, dto.ToBookingResponse(booking))
}

func (h *BookingHandler) GetBooking(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "token is required")
	}

	booking, err := h.bookings.GetByToken(c.Request().Context(), token)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "booking not found")
	}

	return c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}

func (h *BookingHandler) RescheduleBooking(c echo.Context) error {
	var req dto.RescheduleBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Token == "" || req.ScheduledAt.IsZero() {
		return echo.NewHTTPError(http.StatusBadRequest, "token and scheduled_at are required")
	}

	booking, err := h.bookings.RescheduleBooking(c.Request().Context(), req.Token, req.ScheduledAt)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBookingNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrRescheduleLimit):
			return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, service.ErrSlotUnavailable), errors.Is(err, service.ErrBookingNotActive):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}

func (h *BookingHandler) CancelBooking(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "token is required")
	}

	booking, err := h.bookings.CancelBooking(c.Request().Context(), token, c.QueryParam("reason"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBookingNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrBookingNotActive):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}

func (h *BookingHandler) ConfirmBooking(c echo.Context) error {
	var req dto.ConfirmBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Token == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "token is required")
	}

	booking, err := h.bookings.ConfirmBooking(c.Request().Context(), req.Token)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBookingNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrBookingNotActive):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}
