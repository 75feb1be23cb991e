package models

import (
	"time"

	"gorm.io/datatypes"
)

// SlotWindow is a wall-clock interval ("09:00"–"17:00") in the host's
// timezone. Stored as JSONB on rules and overrides.
type SlotWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// AvailabilityRule is one weekday of the host's weekly template.
// Weekday follows time.Weekday numbering (0 = Sunday).
type AvailabilityRule struct {
	ID      uint                             `gorm:"primaryKey" json:"id"`
	HostID  uint                             `gorm:"not null;index:idx_rule_host_weekday,unique" json:"host_id"`
	Weekday int                              `gorm:"not null;index:idx_rule_host_weekday,unique" json:"weekday"`
	Enabled bool                             `gorm:"not null;default:false" json:"enabled"`
	Slots   datatypes.JSONSlice[SlotWindow] `gorm:"type:jsonb" json:"slots"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DateOverride fully replaces the weekly template for one date.
// available=false blanks the date regardless of slots.
type DateOverride struct {
	ID        uint                            `gorm:"primaryKey" json:"id"`
	HostID    uint                            `gorm:"not null;index:idx_override_host_date,unique" json:"host_id"`
	Date      datatypes.Date                  `gorm:"type:date;not null;index:idx_override_host_date,unique" json:"date"`
	Available bool                            `gorm:"not null" json:"available"`
	Slots     datatypes.JSONSlice[SlotWindow] `gorm:"type:jsonb" json:"slots"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
