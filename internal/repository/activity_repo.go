package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"promotion/internal/model"
	"promotion/pkg/utils"
)

// ActivityRepository activity repository interface
type ActivityRepository interface {
	// Create activity
	Create(ctx context.Context, activity *model.Activity) error

	// Get activity by ID
	GetByID(ctx context.Context, id uint64) (*model.Activity, error)

	// Update activity
	Update(ctx context.Context, activity *model.Activity) error

	// List valid activities whose window contains now
	ListActive(ctx context.Context, now time.Time) ([]*model.Activity, error)

	// Find valid, currently-active activities scoped to any of the given products.
	// Product scoping lives in a json column, so the window/validity filter runs
	// in SQL and the product filter runs here.
	FindActiveByProducts(ctx context.Context, productIDs []uint64, now time.Time) ([]*model.Activity, error)

	// Find exclusive activities whose window overlaps [start, end), optionally
	// excluding one activity id (used when validating an edit)
	FindExclusiveOverlapping(ctx context.Context, start, end time.Time, excludeID uint64) ([]*model.Activity, error)
}

// activityRepository activity repository implementation
type activityRepository struct {
	db *gorm.DB
}

// NewActivityRepository creates an activity repository
func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

// Create creates an activity
func (r *activityRepository) Create(ctx context.Context, activity *model.Activity) error {
	return r.db.WithContext(ctx).Create(activity).Error
}

// GetByID gets an activity by ID
func (r *activityRepository) GetByID(ctx context.Context, id uint64) (*model.Activity, error) {
	var activity model.Activity
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&activity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrActivityNotFound
		}
		return nil, err
	}
	return &activity, nil
}

// Update updates an activity
func (r *activityRepository) Update(ctx context.Context, activity *model.Activity) error {
	return r.db.WithContext(ctx).Save(activity).Error
}

// ListActive lists valid activities whose window contains now
func (r *activityRepository) ListActive(ctx context.Context, now time.Time) ([]*model.Activity, error) {
	var activities []*model.Activity

	err := r.db.WithContext(ctx).
		Where("valid = ?", true).
		Where("start_time <= ?", now).
		Where("end_time > ?", now).
		Order("priority DESC, created_at ASC").
		Find(&activities).Error

	return activities, err
}

// FindActiveByProducts finds active activities scoped to any of the given products
func (r *activityRepository) FindActiveByProducts(ctx context.Context, productIDs []uint64, now time.Time) ([]*model.Activity, error) {
	activities, err := r.ListActive(ctx, now)
	if err != nil {
		return nil, err
	}

	matched := make([]*model.Activity, 0, len(activities))
	for _, activity := range activities {
		for _, productID := range productIDs {
			if activity.AppliesTo(productID) {
				matched = append(matched, activity)
				break
			}
		}
	}
	return matched, nil
}

// FindExclusiveOverlapping finds exclusive activities overlapping the window
func (r *activityRepository) FindExclusiveOverlapping(ctx context.Context, start, end time.Time, excludeID uint64) ([]*model.Activity, error) {
	var activities []*model.Activity

	db := r.db.WithContext(ctx).
		Where("valid = ?", true).
		Where("exclusive = ?", true).
		Where("start_time < ?", end).
		Where("end_time > ?", start)

	if excludeID > 0 {
		db = db.Where("id <> ?", excludeID)
	}

	err := db.Order("priority DESC, created_at ASC").Find(&activities).Error
	return activities, err
}
