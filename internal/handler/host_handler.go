package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/slotwise/booking-engine/internal/dto"
	"github.com/slotwise/booking-engine/internal/models"
	"github.com/slotwise/booking-engine/internal/service"
	"gorm.io/datatypes"
)

// HostHandler serves the host-facing surface: availability management,
// meeting types, booking status changes and domain verification. Host
// identity is the explicit :id path segment; authentication happens upstream.
type HostHandler struct {
	availability service.AvailabilityService
	meetingTypes service.MeetingTypeService
	bookings     service.BookingService
	verification service.VerificationService
}

func NewHostHandler(
	availability service.AvailabilityService,
	meetingTypes service.MeetingTypeService,
	bookings service.BookingService,
	verification service.VerificationService,
) *HostHandler {
	return &HostHandler{
		availability: availability,
		meetingTypes: meetingTypes,
		bookings:     bookings,
		verification: verification,
	}
}

func (h *HostHandler) RegisterRoutes(e *echo.Echo) {
	hosts := e.Group("/api/v1/hosts")
	hosts.PUT("/:id/availability", h.SetWeeklyTemplate)
	hosts.PUT("/:id/overrides", h.SetDateOverride)
	hosts.POST("/:id/meeting-types", h.CreateMeetingType)
	hosts.GET("/:id/meeting-types", h.ListMeetingTypes)
	hosts.PUT("/:id/meeting-types/:typeID", h.UpdateMeetingType)
	hosts.PUT("/:id/bookings/:bookingID/status", h.UpdateBookingStatus)
	hosts.DELETE("/:id/bookings/:bookingID", h.DeleteBooking)
	hosts.POST("/:id/verify-domain", h.VerifyDomain)
}

func hostID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid host id")
	}
	return uint(id), nil
}

func (h *HostHandler) SetWeeklyTemplate(c echo.Context) error {
	id, err := hostID(c)
	if err != nil {
		return err
	}

	var req dto.WeeklyTemplateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	rules := make([]models.AvailabilityRule, len(req.Rules))
	for i, r := range req.Rules {
		rules[i] = models.AvailabilityRule{
			Weekday: r.Weekday,
			Enabled: r.Enabled,
			Slots:   toSlotWindows(r.Slots),
		}
	}

	if err := h.availability.SetWeeklyTemplate(c.Request().Context(), id, rules); err != nil {
		switch {
		case errors.Is(err, service.ErrHostNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrInvalidTemplate):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *HostHandler) SetDateOverride(c echo.Context) error {
	id, err := hostID(c)
	if err != nil {
		return err
	}

	var req dto.DateOverrideRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	day, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
	}

	override := &models.DateOverride{
		Date:      datatypes.Date(day),
		Available: req.Available,
		Slots:     toSlotWindows(req.Slots),
	}
	if err := h.availability.SetDateOverride(c.Request().Context(), id, override); err != nil {
		switch {
		case errors.Is(err, service.ErrHostNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrInvalidTemplate):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *HostHandler) CreateMeetingType(c echo.Context) error {
	id, err := hostID(c)
	if err != nil {
		return err
	}

	var req dto.MeetingTypeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	mt := &models.MeetingType{
		Name:            req.Name,
		DurationMinutes: req.DurationMinutes,
		Price:           req.Price,
		RequiresPayment: req.RequiresPayment,
		IsActive:        req.IsActive,
	}
	if err := h.meetingTypes.CreateMeetingType(c.Request().Context(), id, mt); err != nil {
		switch {
		case errors.Is(err, service.ErrHostNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrInvalidMeetingType):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusCreated, dto.ToMeetingTypeResponse(mt))
}

func (h *HostHandler) ListMeetingTypes(c echo.Context) error {
	id, err := hostID(c)
	if err != nil {
		return err
	}

	types, err := h.meetingTypes.ListMeetingTypes(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	resp := make([]dto.MeetingTypeResponse, len(types))
	for i := range types {
		resp[i] = dto.ToMeetingTypeResponse(&types[i])
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *HostHandler) UpdateMeetingType(c echo.Context) error {
	id, err := hostID(c)
	if err != nil {
		return err
	}
	typeID, err := strconv.ParseUint(c.Param("typeID"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid meeting type id")
	}

	var req dto.MeetingTypeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	mt, err := h.meetingTypes.UpdateMeetingType(c.Request().Context(), id, uint(typeID), &models.MeetingType{
		Name:            req.Name,
		DurationMinutes: req.DurationMinutes,
		Price:           req.Price,
		RequiresPayment: req.RequiresPayment,
		IsActive:        req.IsActive,
	})
	if err != nil {
		if errors.Is(err, service.ErrMeetingTypeNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, dto.ToMeetingTypeResponse(mt))
}

func (h *HostHandler) UpdateBookingStatus(c echo.Context) error {
	id, err := hostID(c)
	if err != nil {
		return err
	}
	bookingID, err := strconv.ParseUint(c.Param("bookingID"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid booking id")
	}

	var req dto.UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	booking, err := h.bookings.UpdateStatus(c.Request().Context(), id, uint(bookingID), models.BookingStatus(req.Status), req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBookingNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrInvalidStatus):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrSlotUnavailable):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}

func (h *HostHandler) DeleteBooking(c echo.Context) error {
	id, err := hostID(c)
	if err != nil {
		return err
	}
	bookingID, err := strconv.ParseUint(c.Param("bookingID"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid booking id")
	}

	if err := h.bookings.DeleteBooking(c.Request().Context(), id, uint(bookingID)); err != nil {
		switch {
		case errors.Is(err, service.ErrBookingNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrBookingCompleted):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *HostHandler) VerifyDomain(c echo.Context) error {
	id, err := hostID(c)
	if err != nil {
		return err
	}

	var req dto.VerifyDomainRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	host, err := h.verification.StartVerification(c.Request().Context(), id, req.Domain)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrHostNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrInvalidDomain):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusAccepted, dto.VerificationResponse{
		HostID:   host.ID,
		Domain:   host.Domain,
		Status:   host.DomainStatus,
		Attempts: host.DomainAttempts,
	})
}

func toSlotWindows(in []dto.SlotWindowRequest) []models.SlotWindow {
	out := make([]models.SlotWindow, len(in))
	for i, s := range in {
		out[i] = models.SlotWindow{Start: s.Start, End: s.End}
	}
	return out
}
