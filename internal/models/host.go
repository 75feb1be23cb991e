package models

import "time"

type DomainStatus string

const (
	DomainUnverified DomainStatus = "unverified"
	DomainVerifying  DomainStatus = "verifying"
	DomainVerified   DomainStatus = "verified"
	DomainFailed     DomainStatus = "failed"
)

// Host owns a weekly availability template and the policy knobs that shape
// which slots are offered to guests.
type Host struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Name  string `gorm:"not null" json:"name"`
	Email string `gorm:"not null" json:"email"`

	// Availability policy
	Timezone       string `gorm:"type:varchar(64);not null;default:'UTC'" json:"timezone"`
	BufferMinutes  int    `gorm:"not null;default:0" json:"buffer_minutes"`
	MaxAdvanceDays int    `gorm:"not null;default:60" json:"max_advance_days"`
	MinNoticeHours int    `gorm:"not null;default:0" json:"min_notice_hours"`

	// Custom-domain verification state, advanced one attempt at a time by the
	// verification job.
	Domain         string       `json:"domain,omitempty"`
	DomainStatus   DomainStatus `gorm:"type:varchar(20);not null;default:'unverified'" json:"domain_status"`
	DomainAttempts int          `gorm:"not null;default:0" json:"domain_attempts"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
