package repository

import (
	"context"

	"gorm.io/gorm"

	"promotion/internal/model"
)

// DiscountRuleRepository discount rule repository interface
type DiscountRuleRepository interface {
	// Create discount rule
	Create(ctx context.Context, rule *model.DiscountRule) error

	// Find valid rules of one activity
	FindByActivity(ctx context.Context, activityID uint64) ([]*model.DiscountRule, error)

	// Find valid rules of multiple activities, keyed by activity id
	FindByActivities(ctx context.Context, activityIDs []uint64) (map[uint64][]*model.DiscountRule, error)
}

// discountRuleRepository discount rule repository implementation
type discountRuleRepository struct {
	db *gorm.DB
}

// NewDiscountRuleRepository creates a discount rule repository
func NewDiscountRuleRepository(db *gorm.DB) DiscountRuleRepository {
	return &discountRuleRepository{db: db}
}

// Create creates a discount rule
func (r *discountRuleRepository) Create(ctx context.Context, rule *model.DiscountRule) error {
	return r.db.WithContext(ctx).Create(rule).Error
}

// FindByActivity finds valid rules of one activity
func (r *discountRuleRepository) FindByActivity(ctx context.Context, activityID uint64) ([]*model.DiscountRule, error) {
	var rules []*model.DiscountRule

	err := r.db.WithContext(ctx).
		Where("activity_id = ?", activityID).
		Where("valid = ?", true).
		Order("id ASC").
		Find(&rules).Error

	return rules, err
}

// FindByActivities finds valid rules of multiple activities
func (r *discountRuleRepository) FindByActivities(ctx context.Context, activityIDs []uint64) (map[uint64][]*model.DiscountRule, error) {
	if len(activityIDs) == 0 {
		return map[uint64][]*model.DiscountRule{}, nil
	}

	var rules []*model.DiscountRule
	err := r.db.WithContext(ctx).
		Where("activity_id IN ?", activityIDs).
		Where("valid = ?", true).
		Order("id ASC").
		Find(&rules).Error
	if err != nil {
		return nil, err
	}

	grouped := make(map[uint64][]*model.DiscountRule, len(activityIDs))
	for _, rule := range rules {
		grouped[rule.ActivityID] = append(grouped[rule.ActivityID], rule)
	}
	return grouped, nil
}
