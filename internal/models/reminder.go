package models

import "time"

type ReminderKind string

const (
	KindConfirmation ReminderKind = "confirmation"
	KindBefore24h    ReminderKind = "24h"
	KindBefore1h     ReminderKind = "1h"
	KindFollowUp     ReminderKind = "follow_up"
)

type ReminderStatus string

const (
	ReminderPending   ReminderStatus = "pending"
	ReminderSent      ReminderStatus = "sent"
	ReminderFailed    ReminderStatus = "failed"
	ReminderCancelled ReminderStatus = "cancelled"
)

// ReminderJob is a persisted future notification. The delayed queue has no
// cancel primitive, so cancellation is a status flip and delivery re-checks
// status at fire time.
type ReminderJob struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	BookingID uint           `gorm:"not null;index" json:"booking_id"`
	Kind      ReminderKind   `gorm:"type:varchar(20);not null" json:"kind"`
	FireAt    time.Time      `gorm:"not null" json:"fire_at"`
	Status    ReminderStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	LastError string         `json:"last_error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Booking *Booking `gorm:"foreignKey:BookingID" json:"-"`
}
