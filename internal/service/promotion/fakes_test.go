package promotion

import (
	"context"
	"time"

	"promotion/internal/model"
)

// fixedClock pins window evaluations to a known instant
type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

// fakeUsage canned per-user usage aggregates
type fakeUsage struct {
	counts  map[uint64]int
	amounts map[uint64]float64
	err     error
}

func (f *fakeUsage) DailyUsageCount(ctx context.Context, userID, activityID uint64, day time.Time) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.counts[activityID], nil
}

func (f *fakeUsage) DailyDiscountUsed(ctx context.Context, userID uint64, day time.Time) (float64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.amounts[userID], nil
}

// fakeActivityRepo canned activity listings
type fakeActivityRepo struct {
	activities []*model.Activity
	exclusive  []*model.Activity
	err        error
}

func (f *fakeActivityRepo) Create(ctx context.Context, activity *model.Activity) error {
	return f.err
}

func (f *fakeActivityRepo) GetByID(ctx context.Context, id uint64) (*model.Activity, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, activity := range f.activities {
		if activity.ID == id {
			return activity, nil
		}
	}
	return nil, nil
}

func (f *fakeActivityRepo) Update(ctx context.Context, activity *model.Activity) error {
	return f.err
}

func (f *fakeActivityRepo) ListActive(ctx context.Context, now time.Time) ([]*model.Activity, error) {
	if f.err != nil {
		return nil, f.err
	}
	active := make([]*model.Activity, 0, len(f.activities))
	for _, activity := range f.activities {
		if activity.IsActiveAt(now) {
			active = append(active, activity)
		}
	}
	return active, nil
}

func (f *fakeActivityRepo) FindActiveByProducts(ctx context.Context, productIDs []uint64, now time.Time) ([]*model.Activity, error) {
	active, err := f.ListActive(ctx, now)
	if err != nil {
		return nil, err
	}
	matched := make([]*model.Activity, 0, len(active))
	for _, activity := range active {
		for _, productID := range productIDs {
			if activity.AppliesTo(productID) {
				matched = append(matched, activity)
				break
			}
		}
	}
	return matched, nil
}

func (f *fakeActivityRepo) FindExclusiveOverlapping(ctx context.Context, start, end time.Time, excludeID uint64) ([]*model.Activity, error) {
	if f.err != nil {
		return nil, f.err
	}
	matched := make([]*model.Activity, 0, len(f.exclusive))
	for _, activity := range f.exclusive {
		if activity.ID == excludeID {
			continue
		}
		if activity.StartTime.Before(end) && activity.EndTime.After(start) {
			matched = append(matched, activity)
		}
	}
	return matched, nil
}

// fakeProductRepo canned activity product bindings
type fakeProductRepo struct {
	products []*model.ActivityProduct
	err      error
}

func (f *fakeProductRepo) Create(ctx context.Context, product *model.ActivityProduct) error {
	return f.err
}

func (f *fakeProductRepo) GetByActivityAndProduct(ctx context.Context, activityID, productID uint64) (*model.ActivityProduct, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, product := range f.products {
		if product.ActivityID == activityID && product.ProductID == productID {
			return product, nil
		}
	}
	return nil, nil
}

func (f *fakeProductRepo) FindActiveByProducts(ctx context.Context, productIDs []uint64, now time.Time) ([]*model.ActivityProduct, error) {
	if f.err != nil {
		return nil, f.err
	}
	matched := make([]*model.ActivityProduct, 0, len(f.products))
	for _, product := range f.products {
		for _, productID := range productIDs {
			if product.ProductID == productID {
				matched = append(matched, product)
				break
			}
		}
	}
	return matched, nil
}

func (f *fakeProductRepo) FindByActivity(ctx context.Context, activityID uint64) ([]*model.ActivityProduct, error) {
	if f.err != nil {
		return nil, f.err
	}
	matched := make([]*model.ActivityProduct, 0, len(f.products))
	for _, product := range f.products {
		if product.ActivityID == activityID {
			matched = append(matched, product)
		}
	}
	return matched, nil
}

func (f *fakeProductRepo) ListProductIDs(ctx context.Context) ([]uint64, error) {
	if f.err != nil {
		return nil, f.err
	}
	seen := make(map[uint64]struct{})
	ids := make([]uint64, 0, len(f.products))
	for _, product := range f.products {
		if _, ok := seen[product.ProductID]; ok {
			continue
		}
		seen[product.ProductID] = struct{}{}
		ids = append(ids, product.ProductID)
	}
	return ids, nil
}

// fakeRuleRepo canned discount rules keyed by activity id
type fakeRuleRepo struct {
	rules map[uint64][]*model.DiscountRule
	err   error
}

func (f *fakeRuleRepo) Create(ctx context.Context, rule *model.DiscountRule) error {
	return f.err
}

func (f *fakeRuleRepo) FindByActivity(ctx context.Context, activityID uint64) ([]*model.DiscountRule, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.rules[activityID], nil
}

func (f *fakeRuleRepo) FindByActivities(ctx context.Context, activityIDs []uint64) (map[uint64][]*model.DiscountRule, error) {
	if f.err != nil {
		return nil, f.err
	}
	grouped := make(map[uint64][]*model.DiscountRule, len(activityIDs))
	for _, id := range activityIDs {
		if rules, ok := f.rules[id]; ok {
			grouped[id] = rules
		}
	}
	return grouped, nil
}

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

// newTestActivity active window around testNow
func newTestActivity(id uint64, priority int, exclusive bool) *model.Activity {
	return &model.Activity{
		ID:         id,
		Name:       "activity",
		Kind:       model.KindDiscount,
		StartTime:  testNow.Add(-time.Hour),
		EndTime:    testNow.Add(time.Hour),
		Priority:   priority,
		Exclusive:  exclusive,
		Valid:      true,
		CreatedAt:  testNow.Add(-24 * time.Hour),
		ProductIDs: nil,
	}
}
