package repository

import (
	"context"
	"time"

	"github.com/slotwise/booking-engine/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BookingRepository interface {
	Create(ctx context.Context, tx *gorm.DB, booking *models.Booking) error
	FindByID(ctx context.Context, id uint) (*models.Booking, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Booking, error)
	FindByToken(ctx context.Context, token string) (*models.Booking, error)
	FindActiveInRange(ctx context.Context, tx *gorm.DB, hostID uint, from, to time.Time) ([]models.Booking, error)
	Save(ctx context.Context, tx *gorm.DB, booking *models.Booking) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	GetDB() *gorm.DB
}

type bookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepository{db: db}
}

func (r *bookingRepository) GetDB() *gorm.DB {
	return r.db
}

func (r *bookingRepository) Create(ctx context.Context, tx *gorm.DB, booking *models.Booking) error {
	return tx.WithContext(ctx).Create(booking).Error
}

func (r *bookingRepository) FindByID(ctx context.Context, id uint) (*models.Booking, error) {
	var booking models.Booking
	if err := r.db.WithContext(ctx).Preload("MeetingType").First(&booking, id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

// FindByIDForUpdate re-reads the booking under a row lock so status and
// counter checks see the latest committed state within the transaction.
func (r *bookingRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Booking, error) {
	var booking models.Booking
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&booking, id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) FindByToken(ctx context.Context, token string) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).
		Preload("MeetingType").
		Where("token = ?", token).
		First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// FindActiveInRange returns pending/confirmed bookings whose occupied interval
// intersects [from, to). Callers pad the window by the host's buffer before
// running the overlap test.
func (r *bookingRepository) FindActiveInRange(ctx context.Context, tx *gorm.DB, hostID uint, from, to time.Time) ([]models.Booking, error) {
	var bookings []models.Booking
	err := tx.WithContext(ctx).
		Where("host_id = ? AND status IN ?", hostID, []models.BookingStatus{models.StatusPending, models.StatusConfirmed}).
		Where("scheduled_at < ? AND scheduled_at + (duration_minutes * interval '1 minute') > ?", to, from).
		Order("scheduled_at ASC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *bookingRepository) Save(ctx context.Context, tx *gorm.DB, booking *models.Booking) error {
	return tx.WithContext(ctx).Save(booking).Error
}

func (r *bookingRepository) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	return tx.WithContext(ctx).Delete(&models.Booking{}, id).Error
}
