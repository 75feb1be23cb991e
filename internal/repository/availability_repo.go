package repository

import (
	"context"
	"errors"

	"github.com/slotwise/booking-engine/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AvailabilityRepository interface {
	ReplaceRules(ctx context.Context, hostID uint, rules []models.AvailabilityRule) error
	RulesForHost(ctx context.Context, hostID uint) ([]models.AvailabilityRule, error)
	RuleForWeekday(ctx context.Context, hostID uint, weekday int) (*models.AvailabilityRule, error)
	UpsertOverride(ctx context.Context, override *models.DateOverride) error
	OverrideForDate(ctx context.Context, hostID uint, date datatypes.Date) (*models.DateOverride, error)
}

type availabilityRepository struct {
	db *gorm.DB
}

func NewAvailabilityRepository(db *gorm.DB) AvailabilityRepository {
	return &availabilityRepository{db: db}
}

// ReplaceRules swaps the host's whole weekly template in one transaction.
func (r *availabilityRepository) ReplaceRules(ctx context.Context, hostID uint, rules []models.AvailabilityRule) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("host_id = ?", hostID).Delete(&models.AvailabilityRule{}).Error; err != nil {
			return err
		}
		if len(rules) == 0 {
			return nil
		}
		return tx.Create(&rules).Error
	})
}

func (r *availabilityRepository) RulesForHost(ctx context.Context, hostID uint) ([]models.AvailabilityRule, error) {
	var rules []models.AvailabilityRule
	if err := r.db.WithContext(ctx).Where("host_id = ?", hostID).Order("weekday ASC").Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

// RuleForWeekday returns nil (no error) when the host has no entry for the day.
func (r *availabilityRepository) RuleForWeekday(ctx context.Context, hostID uint, weekday int) (*models.AvailabilityRule, error) {
	var rule models.AvailabilityRule
	err := r.db.WithContext(ctx).
		Where("host_id = ? AND weekday = ?", hostID, weekday).
		First(&rule).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

// UpsertOverride is last-write-wins on (host_id, date).
func (r *availabilityRepository) UpsertOverride(ctx context.Context, override *models.DateOverride) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "host_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"available", "slots", "updated_at"}),
	}).Create(override).Error
}

// OverrideForDate returns nil (no error) when the date has no override.
func (r *availabilityRepository) OverrideForDate(ctx context.Context, hostID uint, date datatypes.Date) (*models.DateOverride, error) {
	var override models.DateOverride
	err := r.db.WithContext(ctx).
		Where("host_id = ? AND date = ?", hostID, date).
		First(&override).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &override, nil
}
