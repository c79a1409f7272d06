package promotion

import (
	"context"
	"time"

	"promotion/internal/model"
	"promotion/internal/repository"
	"promotion/pkg/utils"
)

// ConflictResolver detects activity conflicts and ranks activities by
// priority for a product
type ConflictResolver struct {
	activityRepo repository.ActivityRepository
	cfg          Config
}

// NewConflictResolver creates a conflict resolver
func NewConflictResolver(activityRepo repository.ActivityRepository, cfg Config) *ConflictResolver {
	return &ConflictResolver{
		activityRepo: activityRepo,
		cfg:          cfg,
	}
}

// HasConflict check if two activities conflict: overlapping time windows,
// intersecting product scopes, and either exclusivity or an incompatible
// kind pair
func (r *ConflictResolver) HasConflict(a, b *model.Activity) bool {
	if a == nil || b == nil {
		return false
	}
	if !utils.WindowsOverlap(a.StartTime, a.EndTime, b.StartTime, b.EndTime) {
		return false
	}
	if !productScopesIntersect(a, b) {
		return false
	}
	if a.Exclusive || b.Exclusive {
		return true
	}
	return r.cfg.KindsIncompatible(a.Kind, b.Kind)
}

// Conflicts finds exclusive activities that would conflict with a campaign
// over the given products and window. excludeID skips one activity, used when
// validating an edit to that activity.
func (r *ConflictResolver) Conflicts(ctx context.Context, productIDs []uint64, start, end time.Time, excludeID uint64) ([]*model.Activity, error) {
	candidates, err := r.activityRepo.FindExclusiveOverlapping(ctx, start, end, excludeID)
	if err != nil {
		return nil, err
	}

	conflicting := make([]*model.Activity, 0, len(candidates))
	for _, candidate := range candidates {
		for _, productID := range productIDs {
			if candidate.AppliesTo(productID) {
				conflicting = append(conflicting, candidate)
				break
			}
		}
	}
	return conflicting, nil
}

// HighestPriority selects the currently-active activity scoped to the product
// with the highest priority; earliest-created wins ties. Returns nil when no
// activity applies.
func (r *ConflictResolver) HighestPriority(ctx context.Context, productID uint64, now time.Time) (*model.Activity, error) {
	activities, err := r.activityRepo.FindActiveByProducts(ctx, []uint64{productID}, now)
	if err != nil {
		return nil, err
	}

	var best *model.Activity
	for _, activity := range activities {
		if !activity.AppliesTo(productID) {
			continue
		}
		if best == nil || higherPriority(activity, best) {
			best = activity
		}
	}
	return best, nil
}

// higherPriority check if a outranks b: priority desc, then createTime asc
func higherPriority(a, b *model.Activity) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

// productScopesIntersect check product set overlap; an empty set scopes all
// products and intersects everything
func productScopesIntersect(a, b *model.Activity) bool {
	if len(a.ProductIDs) == 0 || len(b.ProductIDs) == 0 {
		return true
	}
	return a.ProductIDs.Intersects(b.ProductIDs)
}
