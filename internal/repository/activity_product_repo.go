package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"promotion/internal/model"
	"promotion/pkg/utils"
)

// ActivityProductRepository activity product repository interface
type ActivityProductRepository interface {
	// Create activity product binding
	Create(ctx context.Context, product *model.ActivityProduct) error

	// Get binding by activity and product id
	GetByActivityAndProduct(ctx context.Context, activityID, productID uint64) (*model.ActivityProduct, error)

	// Find valid bindings of currently-active activities for the given products
	FindActiveByProducts(ctx context.Context, productIDs []uint64, now time.Time) ([]*model.ActivityProduct, error)

	// Find all valid bindings of one activity
	FindByActivity(ctx context.Context, activityID uint64) ([]*model.ActivityProduct, error)

	// List every bound product id, used to warm the product prefilter
	ListProductIDs(ctx context.Context) ([]uint64, error)
}

// activityProductRepository activity product repository implementation
type activityProductRepository struct {
	db *gorm.DB
}

// NewActivityProductRepository creates an activity product repository
func NewActivityProductRepository(db *gorm.DB) ActivityProductRepository {
	return &activityProductRepository{db: db}
}

// Create creates a binding
func (r *activityProductRepository) Create(ctx context.Context, product *model.ActivityProduct) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// GetByActivityAndProduct gets a binding by activity and product id
func (r *activityProductRepository) GetByActivityAndProduct(ctx context.Context, activityID, productID uint64) (*model.ActivityProduct, error) {
	var product model.ActivityProduct
	err := r.db.WithContext(ctx).
		Where("activity_id = ? AND product_id = ?", activityID, productID).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrProductNotFound
		}
		return nil, err
	}
	return &product, nil
}

// FindActiveByProducts finds valid bindings whose activity is currently active
func (r *activityProductRepository) FindActiveByProducts(ctx context.Context, productIDs []uint64, now time.Time) ([]*model.ActivityProduct, error) {
	var products []*model.ActivityProduct

	err := r.db.WithContext(ctx).
		Joins("JOIN promotion_activities ON promotion_activities.id = promotion_activity_products.activity_id").
		Where("promotion_activity_products.product_id IN ?", productIDs).
		Where("promotion_activity_products.valid = ?", true).
		Where("promotion_activities.valid = ?", true).
		Where("promotion_activities.start_time <= ?", now).
		Where("promotion_activities.end_time > ?", now).
		Preload("Activity").
		Find(&products).Error

	return products, err
}

// FindByActivity finds all valid bindings of one activity
func (r *activityProductRepository) FindByActivity(ctx context.Context, activityID uint64) ([]*model.ActivityProduct, error) {
	var products []*model.ActivityProduct

	err := r.db.WithContext(ctx).
		Where("activity_id = ?", activityID).
		Where("valid = ?", true).
		Find(&products).Error

	return products, err
}

// ListProductIDs lists every bound product id
func (r *activityProductRepository) ListProductIDs(ctx context.Context) ([]uint64, error) {
	var ids []uint64

	err := r.db.WithContext(ctx).
		Model(&model.ActivityProduct{}).
		Where("valid = ?", true).
		Distinct("product_id").
		Pluck("product_id", &ids).Error

	return ids, err
}
