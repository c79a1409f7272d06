package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"promotion/internal/model"
	"promotion/pkg/utils"
)

// UsageRepository daily per-user usage ledger interface
type UsageRepository interface {
	// Increment the user's daily usage of one activity, creating the row on first use
	IncrementUsage(ctx context.Context, userID, activityID uint64, discountAmount float64, day time.Time) error

	// Get the user's daily usage count of one activity, 0 when absent
	DailyCount(ctx context.Context, userID, activityID uint64, day time.Time) (int, error)

	// Get the user's total discount amount used across all activities for the day
	DailyDiscountTotal(ctx context.Context, userID uint64, day time.Time) (float64, error)
}

// usageRepository usage ledger implementation
type usageRepository struct {
	db *gorm.DB
}

// NewUsageRepository creates a usage repository
func NewUsageRepository(db *gorm.DB) UsageRepository {
	return &usageRepository{db: db}
}

// IncrementUsage upserts the daily aggregate row
func (r *usageRepository) IncrementUsage(ctx context.Context, userID, activityID uint64, discountAmount float64, day time.Time) error {
	usage := &model.UserActivityUsage{
		UserID:         userID,
		ActivityID:     activityID,
		UsageDate:      utils.FormatDate(day),
		UseCount:       1,
		DiscountAmount: discountAmount,
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "activity_id"}, {Name: "usage_date"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"use_count":       gorm.Expr("use_count + 1"),
				"discount_amount": gorm.Expr("discount_amount + ?", discountAmount),
			}),
		}).
		Create(usage).Error
}

// DailyCount gets the user's daily usage count of one activity
func (r *usageRepository) DailyCount(ctx context.Context, userID, activityID uint64, day time.Time) (int, error) {
	var usage model.UserActivityUsage
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND activity_id = ? AND usage_date = ?", userID, activityID, utils.FormatDate(day)).
		First(&usage).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return usage.UseCount, nil
}

// DailyDiscountTotal gets the user's total discount amount for the day
func (r *usageRepository) DailyDiscountTotal(ctx context.Context, userID uint64, day time.Time) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).
		Model(&model.UserActivityUsage{}).
		Where("user_id = ? AND usage_date = ?", userID, utils.FormatDate(day)).
		Select("COALESCE(SUM(discount_amount), 0)").
		Scan(&total).Error
	return total, err
}
