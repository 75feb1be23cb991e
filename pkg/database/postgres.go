package database

import (
	"log"

	"github.com/slotwise/booking-engine/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewPostgresDB(dsn string) *gorm.DB {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Host{},
		&models.MeetingType{},
		&models.AvailabilityRule{},
		&models.DateOverride{},
		&models.Booking{},
		&models.ReminderJob{},
	); err != nil {
		log.Fatalf("failed to auto-migrate: %v", err)
	}

	// Partial unique index: two active bookings can never share a start for
	// the same host, even if concurrent requests both pass the conflict check
	db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_booking_host_slot
		ON bookings (host_id, scheduled_at)
		WHERE status IN ('pending', 'confirmed')
	`)

	// At most one pending job per kind per booking; superseded jobs are
	// cancelled, not deleted
	db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_reminder_booking_kind
		ON reminder_jobs (booking_id, kind)
		WHERE status = 'pending'
	`)

	return db
}
