package repository

import (
	"context"

	"github.com/slotwise/booking-engine/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type HostRepository interface {
	Create(ctx context.Context, host *models.Host) error
	FindByID(ctx context.Context, id uint) (*models.Host, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Host, error)
	Save(ctx context.Context, host *models.Host) error
}

type hostRepository struct {
	db *gorm.DB
}

func NewHostRepository(db *gorm.DB) HostRepository {
	return &hostRepository{db: db}
}

func (r *hostRepository) Create(ctx context.Context, host *models.Host) error {
	return r.db.WithContext(ctx).Create(host).Error
}

func (r *hostRepository) FindByID(ctx context.Context, id uint) (*models.Host, error) {
	var host models.Host
	if err := r.db.WithContext(ctx).First(&host, id).Error; err != nil {
		return nil, err
	}
	return &host, nil
}

// FindByIDForUpdate acquires a row-level lock on the host within the given
// transaction, serializing concurrent booking writes for that host.
func (r *hostRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Host, error) {
	var host models.Host
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&host, id).Error; err != nil {
		return nil, err
	}
	return &host, nil
}

func (r *hostRepository) Save(ctx context.Context, host *models.Host) error {
	return r.db.WithContext(ctx).Save(host).Error
}
