package repository

import (
	"context"

	"github.com/slotwise/booking-engine/internal/models"
	"gorm.io/gorm"
)

type MeetingTypeRepository interface {
	Create(ctx context.Context, mt *models.MeetingType) error
	FindByID(ctx context.Context, id uint) (*models.MeetingType, error)
	FindByHost(ctx context.Context, hostID uint) ([]models.MeetingType, error)
	Save(ctx context.Context, mt *models.MeetingType) error
}

type meetingTypeRepository struct {
	db *gorm.DB
}

func NewMeetingTypeRepository(db *gorm.DB) MeetingTypeRepository {
	return &meetingTypeRepository{db: db}
}

func (r *meetingTypeRepository) Create(ctx context.Context, mt *models.MeetingType) error {
	return r.db.WithContext(ctx).Create(mt).Error
}

func (r *meetingTypeRepository) FindByID(ctx context.Context, id uint) (*models.MeetingType, error) {
	var mt models.MeetingType
	if err := r.db.WithContext(ctx).First(&mt, id).Error; err != nil {
		return nil, err
	}
	return &mt, nil
}

func (r *meetingTypeRepository) FindByHost(ctx context.Context, hostID uint) ([]models.MeetingType, error) {
	var types []models.MeetingType
	if err := r.db.WithContext(ctx).Where("host_id = ?", hostID).Order("id ASC").Find(&types).Error; err != nil {
		return nil, err
	}
	return types, nil
}

func (r *meetingTypeRepository) Save(ctx context.Context, mt *models.MeetingType) error {
	return r.db.WithContext(ctx).Save(mt).Error
}
