package models

import "time"

type MeetingType struct {
	ID              uint    `gorm:"primaryKey" json:"id"`
	HostID          uint    `gorm:"not null;index" json:"host_id"`
	Name            string  `gorm:"not null" json:"name"`
	DurationMinutes int     `gorm:"not null" json:"duration_minutes"`
	Price           float64 `gorm:"not null;default:0" json:"price"`
	RequiresPayment bool    `gorm:"not null;default:false" json:"requires_payment"`
	IsActive        bool    `gorm:"not null;default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Host *Host `gorm:"foreignKey:HostID" json:"-"`
}
