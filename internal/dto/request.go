package dto

import "time"

type CreateBookingRequest struct {
	MeetingTypeID uint      `json:"meeting_type_id"`
	ScheduledAt   time.Time `json:"scheduled_at"`
	GuestName     string    `json:"guest_name"`
	GuestEmail    string    `json:"guest_email"`
}

type RescheduleBookingRequest struct {
	Token       string    `json:"token"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Reason      string    `json:"reason,omitempty"`
}

type ConfirmBookingRequest struct {
	Token string `json:"token"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes,omitempty"`
}

type SlotWindowRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type WeekdayRuleRequest struct {
	Weekday int                 `json:"weekday"`
	Enabled bool                `json:"enabled"`
	Slots   []SlotWindowRequest `json:"slots"`
}

type WeeklyTemplateRequest struct {
	Rules []WeekdayRuleRequest `json:"rules"`
}

type DateOverrideRequest struct {
	Date      string              `json:"date"` // YYYY-MM-DD
	Available bool                `json:"available"`
	Slots     []SlotWindowRequest `json:"slots,omitempty"`
}

type MeetingTypeRequest struct {
	Name            string  `json:"name"`
	DurationMinutes int     `json:"duration_minutes"`
	Price           float64 `json:"price"`
	RequiresPayment bool    `json:"requires_payment"`
	IsActive        bool    `json:"is_active"`
}

type VerifyDomainRequest struct {
	Domain string `json:"domain"`
}

// FireJobRequest lets an external HTTP-callback queue fire a due job. JobID is
// the reminder job id for "reminder" jobs and the host id for "verification".
type FireJobRequest struct {
	JobID   uint   `json:"job_id"`
	JobType string `json:"job_type"`
}
