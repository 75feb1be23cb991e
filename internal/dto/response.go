package dto

import (
	"time"

	"github.com/slotwise/booking-engine/internal/models"
	"github.com/slotwise/booking-engine/internal/timeslot"
)

type BookingResponse struct {
	ID              uint                 `json:"id"`
	Token           string               `json:"token"`
	HostID          uint                 `json:"host_id"`
	MeetingTypeID   uint                 `json:"meeting_type_id"`
	MeetingTypeName string               `json:"meeting_type_name,omitempty"`
	GuestName       string               `json:"guest_name"`
	GuestEmail      string               `json:"guest_email"`
	ScheduledAt     time.Time            `json:"scheduled_at"`
	DurationMinutes int                  `json:"duration_minutes"`
	Status          models.BookingStatus `json:"status"`
	RescheduleCount int                  `json:"reschedule_count"`
	MaxReschedules  int                  `json:"max_reschedules"`
	CancelReason    string               `json:"cancel_reason,omitempty"`
	Notes           string               `json:"notes,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
}

type SlotResponse struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type AvailabilityResponse struct {
	Date           string         `json:"date"`
	Timezone       string         `json:"timezone"`
	AvailableSlots []SlotResponse `json:"available_slots"`
}

type MeetingTypeResponse struct {
	ID              uint    `json:"id"`
	HostID          uint    `json:"host_id"`
	Name            string  `json:"name"`
	DurationMinutes int     `json:"duration_minutes"`
	Price           float64 `json:"price"`
	RequiresPayment bool    `json:"requires_payment"`
	IsActive        bool    `json:"is_active"`
}

type VerificationResponse struct {
	HostID   uint                `json:"host_id"`
	Domain   string              `json:"domain"`
	Status   models.DomainStatus `json:"status"`
	Attempts int                 `json:"attempts"`
}

type FireJobResponse struct {
	Success bool `json:"success"`
}

type ErrorResponse struct {
	Message string `json:"message"`
}

func ToBookingResponse(b *models.Booking) BookingResponse {
	resp := BookingResponse{
		ID:              b.ID,
		Token:           b.Token,
		HostID:          b.HostID,
		MeetingTypeID:   b.MeetingTypeID,
		GuestName:       b.GuestName,
		GuestEmail:      b.GuestEmail,
		ScheduledAt:     b.ScheduledAt,
		DurationMinutes: b.DurationMinutes,
		Status:          b.Status,
		RescheduleCount: b.RescheduleCount,
		MaxReschedules:  b.MaxReschedules,
		CancelReason:    b.CancelReason,
		Notes:           b.Notes,
		CreatedAt:       b.CreatedAt,
	}
	if b.MeetingType != nil {
		resp.MeetingTypeName = b.MeetingType.Name
	}
	return resp
}

func ToAvailabilityResponse(date, timezone string, slots []timeslot.Interval, loc *time.Location) AvailabilityResponse {
	out := AvailabilityResponse{
		Date:           date,
		Timezone:       timezone,
		AvailableSlots: make([]SlotResponse, len(slots)),
	}
	for i, s := range slots {
		out.AvailableSlots[i] = SlotResponse{Start: s.Start.In(loc), End: s.End.In(loc)}
	}
	return out
}

func ToMeetingTypeResponse(mt *models.MeetingType) MeetingTypeResponse {
	return MeetingTypeResponse{
		ID:              mt.ID,
		HostID:          mt.HostID,
		Name:            mt.Name,
		DurationMinutes: mt.DurationMinutes,
		Price:           mt.Price,
		RequiresPayment: mt.RequiresPayment,
		IsActive:        mt.IsActive,
	}
}
