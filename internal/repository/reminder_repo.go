package repository

import (
	"context"

	"github.com/slotwise/booking-engine/internal/models"
	"gorm.io/gorm"
)

type ReminderRepository interface {
	Create(ctx context.Context, job *models.ReminderJob) error
	FindByID(ctx context.Context, id uint) (*models.ReminderJob, error)
	FindByBooking(ctx context.Context, bookingID uint) ([]models.ReminderJob, error)
	UpdateStatus(ctx context.Context, id uint, status models.ReminderStatus, lastError string) error
	ClaimPending(ctx context.Context, id uint) (bool, error)
	CancelPending(ctx context.Context, bookingID uint) error
	DeleteByBooking(ctx context.Context, tx *gorm.DB, bookingID uint) error
}

type reminderRepository struct {
	db *gorm.DB
}

func NewReminderRepository(db *gorm.DB) ReminderRepository {
	return &reminderRepository{db: db}
}

func (r *reminderRepository) Create(ctx context.Context, job *models.ReminderJob) error {
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *reminderRepository) FindByID(ctx context.Context, id uint) (*models.ReminderJob, error) {
	var job models.ReminderJob
	if err := r.db.WithContext(ctx).First(&job, id).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *reminderRepository) FindByBooking(ctx context.Context, bookingID uint) ([]models.ReminderJob, error) {
	var jobs []models.ReminderJob
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("fire_at ASC").
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *reminderRepository) UpdateStatus(ctx context.Context, id uint, status models.ReminderStatus, lastError string) error {
	updates := map[string]any{"status": status}
	if lastError != "" {
		updates["last_error"] = lastError
	}
	return r.db.WithContext(ctx).
		Model(&models.ReminderJob{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// ClaimPending flips the job pending -> sent and reports whether this caller
// won the flip. Concurrent fires for the same job race on the WHERE clause,
// so at most one claim succeeds.
func (r *reminderRepository) ClaimPending(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ReminderJob{}).
		Where("id = ? AND status = ?", id, models.ReminderPending).
		Update("status", models.ReminderSent)
	return res.RowsAffected > 0, res.Error
}

// CancelPending soft-cancels every pending job for the booking. Rows are kept;
// the delivery handler skips non-pending jobs at fire time.
func (r *reminderRepository) CancelPending(ctx context.Context, bookingID uint) error {
	return r.db.WithContext(ctx).
		Model(&models.ReminderJob{}).
		Where("booking_id = ? AND status = ?", bookingID, models.ReminderPending).
		Update("status", models.ReminderCancelled).Error
}

func (r *reminderRepository) DeleteByBooking(ctx context.Context, tx *gorm.DB, bookingID uint) error {
	return tx.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Delete(&models.ReminderJob{}).Error
}
