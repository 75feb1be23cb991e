package models

import "time"

type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
	StatusCompleted BookingStatus = "completed"
	StatusNoShow    BookingStatus = "no_show"
)

// Active reports whether the status occupies the host's calendar.
func (s BookingStatus) Active() bool {
	return s == StatusPending || s == StatusConfirmed
}

type Booking struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	HostID        uint   `gorm:"not null;index" json:"host_id"`
	MeetingTypeID uint   `gorm:"not null" json:"meeting_type_id"`
	Token         string `gorm:"type:varchar(36);uniqueIndex;not null" json:"-"`

	GuestName  string `gorm:"not null" json:"guest_name"`
	GuestEmail string `gorm:"not null" json:"guest_email"`

	ScheduledAt     time.Time     `gorm:"not null;index" json:"scheduled_at"`
	DurationMinutes int           `gorm:"not null" json:"duration_minutes"`
	Status          BookingStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`

	RescheduleCount int    `gorm:"not null;default:0" json:"reschedule_count"`
	MaxReschedules  int    `gorm:"not null;default:3" json:"max_reschedules"`
	CancelReason    string `json:"cancel_reason,omitempty"`
	Notes           string `json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	MeetingType *MeetingType `gorm:"foreignKey:MeetingTypeID" json:"meeting_type,omitempty"`
}

// EndsAt is the exclusive end of the booking's occupied interval.
func (b *Booking) EndsAt() time.Time {
	return b.ScheduledAt.Add(time.Duration(b.DurationMinutes) * time.Minute)
}
