package promotion

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"promotion/internal/cache"
	"promotion/internal/model"
)

func newTestEngine(productRepo *fakeProductRepo, ruleRepo *fakeRuleRepo, cfg Config, filter *cache.ProductFilter) DiscountService {
	resolver := NewConflictResolver(&fakeActivityRepo{}, cfg)
	selector := NewStackingSelector(cfg, resolver)
	calculator := NewRuleCalculator()
	enforcer := NewLimitEnforcer(cfg, nil, fixedClock{now: testNow})
	return NewDiscountEngine(productRepo, ruleRepo, selector, calculator, enforcer, filter, fixedClock{now: testNow})
}

func bindProduct(activity *model.Activity, productID uint64, price float64, stock int) *model.ActivityProduct {
	return &model.ActivityProduct{
		ActivityID:    activity.ID,
		ProductID:     productID,
		ActivityPrice: price,
		Stock:         stock,
		Valid:         true,
		Activity:      activity,
	}
}

func TestDiscountEngine_SimpleDiscount(t *testing.T) {
	activity := newTestActivity(1, 10, false)
	productRepo := &fakeProductRepo{products: []*model.ActivityProduct{
		bindProduct(activity, 100, 80, 50),
	}}
	engine := newTestEngine(productRepo, &fakeRuleRepo{}, DefaultConfig(), nil)

	order := &model.Order{
		UserID: 42,
		Lines:  []model.OrderLine{{ProductID: 100, Quantity: 2, UnitPrice: 100}},
	}

	result := engine.Calculate(context.Background(), order)

	assert.True(t, result.Success)
	assert.Equal(t, 200.0, result.OriginalTotalAmount)
	assert.Equal(t, 40.0, result.DiscountTotalAmount)
	assert.Equal(t, 160.0, result.FinalTotalAmount)
	if assert.Len(t, result.Lines, 1) {
		assert.Equal(t, 40.0, result.Lines[0].DiscountAmount)
		assert.Equal(t, 160.0, result.Lines[0].FinalAmount)
	}
	if assert.Len(t, result.AppliedActivities, 1) {
		assert.Equal(t, uint64(1), result.AppliedActivities[0].ActivityID)
	}
	if assert.Len(t, result.Details, 1) {
		assert.Equal(t, model.TypeReduction, result.Details[0].Type)
		assert.Equal(t, 40.0, result.Details[0].Amount)
	}
}

func TestDiscountEngine_RuleDiscount(t *testing.T) {
	activity := newTestActivity(1, 10, false)
	productRepo := &fakeProductRepo{products: []*model.ActivityProduct{
		bindProduct(activity, 100, 0, 50),
	}}
	ruleRepo := &fakeRuleRepo{rules: map[uint64][]*model.DiscountRule{
		1: {{ActivityID: 1, Type: model.TypePercentage, Value: 10, Valid: true}},
	}}
	engine := newTestEngine(productRepo, ruleRepo, DefaultConfig(), nil)

	order := &model.Order{
		UserID: 42,
		Lines:  []model.OrderLine{{ProductID: 100, Quantity: 3, UnitPrice: 50}},
	}

	result := engine.Calculate(context.Background(), order)

	assert.True(t, result.Success)
	assert.Equal(t, 15.0, result.DiscountTotalAmount)
	assert.Equal(t, 135.0, result.FinalTotalAmount)
}

func TestDiscountEngine_NoActivities(t *testing.T) {
	engine := newTestEngine(&fakeProductRepo{}, &fakeRuleRepo{}, DefaultConfig(), nil)

	order := &model.Order{
		UserID: 42,
		Lines:  []model.OrderLine{{ProductID: 100, Quantity: 2, UnitPrice: 100}},
	}

	result := engine.Calculate(context.Background(), order)

	assert.True(t, result.Success)
	assert.Equal(t, 200.0, result.OriginalTotalAmount)
	assert.Equal(t, 0.0, result.DiscountTotalAmount)
	assert.Equal(t, 200.0, result.FinalTotalAmount)
	assert.Empty(t, result.AppliedActivities)
}

func TestDiscountEngine_InvalidOrder(t *testing.T) {
	engine := newTestEngine(&fakeProductRepo{}, &fakeRuleRepo{}, DefaultConfig(), nil)

	result := engine.Calculate(context.Background(), nil)
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Message)

	result = engine.Calculate(context.Background(), &model.Order{UserID: 42})
	assert.False(t, result.Success)
}

func TestDiscountEngine_StockLimitClamps(t *testing.T) {
	activity := newTestActivity(1, 10, false)
	productRepo := &fakeProductRepo{products: []*model.ActivityProduct{
		bindProduct(activity, 100, 80, 2), // only 2 left
	}}
	engine := newTestEngine(productRepo, &fakeRuleRepo{}, DefaultConfig(), nil)

	order := &model.Order{
		UserID: 42,
		Lines:  []model.OrderLine{{ProductID: 100, Quantity: 5, UnitPrice: 100}},
	}

	result := engine.Calculate(context.Background(), order)

	// raw 20*5=100 rescales to 2 units
	assert.True(t, result.Success)
	assert.Equal(t, 40.0, result.DiscountTotalAmount)
	if assert.Len(t, result.Details, 1) {
		reasons := result.Details[0].Metadata["limit_reasons"].([]LimitReason)
		if assert.Len(t, reasons, 1) {
			assert.Equal(t, ReasonStockLimit, reasons[0].Type)
		}
	}
}

func TestDiscountEngine_SoldOutSkippedWithoutError(t *testing.T) {
	activity := newTestActivity(1, 10, false)
	binding := bindProduct(activity, 100, 80, 10)
	binding.Sold = 10
	productRepo := &fakeProductRepo{products: []*model.ActivityProduct{binding}}
	engine := newTestEngine(productRepo, &fakeRuleRepo{}, DefaultConfig(), nil)

	order := &model.Order{
		UserID: 42,
		Lines:  []model.OrderLine{{ProductID: 100, Quantity: 1, UnitPrice: 100}},
	}

	result := engine.Calculate(context.Background(), order)

	assert.True(t, result.Success)
	assert.Equal(t, 0.0, result.DiscountTotalAmount)
	assert.Equal(t, 100.0, result.FinalTotalAmount)
	assert.Empty(t, result.AppliedActivities)
}

func TestDiscountEngine_OrderLevelAdjustment(t *testing.T) {
	// Each line alone stays within the daily amount cap, but the aggregate
	// exceeds it; the order-level pass shrinks the total and records a
	// synthesized adjustment detail
	a := newTestActivity(1, 10, false)
	a.ProductIDs = model.Uint64Set{100}
	b := newTestActivity(2, 9, false)
	b.ProductIDs = model.Uint64Set{200}

	productRepo := &fakeProductRepo{products: []*model.ActivityProduct{
		bindProduct(a, 100, 2000, 50),
		bindProduct(b, 200, 2000, 50),
	}}
	engine := newTestEngine(productRepo, &fakeRuleRepo{}, DefaultConfig(), nil)

	order := &model.Order{
		UserID: 42,
		Lines: []model.OrderLine{
			{ProductID: 100, Quantity: 1, UnitPrice: 10000},
			{ProductID: 200, Quantity: 1, UnitPrice: 10000},
		},
	}

	result := engine.Calculate(context.Background(), order)

	assert.True(t, result.Success)
	assert.Equal(t, 20000.0, result.OriginalTotalAmount)
	// 8000 per line passes the 80% rate cap, 16000 combined clamps to the
	// 10000 daily amount cap
	assert.Equal(t, 10000.0, result.DiscountTotalAmount)
	assert.Equal(t, 10000.0, result.FinalTotalAmount)

	var adjustment *model.DiscountDetail
	for i := range result.Details {
		if result.Details[i].ActivityID == 0 {
			adjustment = &result.Details[i]
		}
	}
	if assert.NotNil(t, adjustment) {
		assert.Equal(t, -6000.0, adjustment.Amount)
		assert.Equal(t, model.TypeUnknown, adjustment.Type)
	}
}

func TestDiscountEngine_RateCapAtOrderLevel(t *testing.T) {
	cfg := DefaultConfig()

	activity := newTestActivity(1, 10, false)
	productRepo := &fakeProductRepo{products: []*model.ActivityProduct{
		bindProduct(activity, 100, 10, 50), // 90% off per unit
	}}
	engine := newTestEngine(productRepo, &fakeRuleRepo{}, cfg, nil)

	order := &model.Order{
		UserID: 42,
		Lines:  []model.OrderLine{{ProductID: 100, Quantity: 10, UnitPrice: 100}},
	}

	result := engine.Calculate(context.Background(), order)

	// raw 900 of 1000 clamps to the 80% ceiling at line level already
	assert.True(t, result.Success)
	assert.Equal(t, 800.0, result.DiscountTotalAmount)
	assert.Equal(t, 200.0, result.FinalTotalAmount)
}

func TestDiscountEngine_ExclusiveAppliesAlone(t *testing.T) {
	exclusive := newTestActivity(1, 150, false)
	normal := newTestActivity(2, 50, false)

	productRepo := &fakeProductRepo{products: []*model.ActivityProduct{
		bindProduct(exclusive, 100, 90, 50),
		bindProduct(normal, 100, 80, 50),
	}}
	engine := newTestEngine(productRepo, &fakeRuleRepo{}, DefaultConfig(), nil)

	order := &model.Order{
		UserID: 42,
		Lines:  []model.OrderLine{{ProductID: 100, Quantity: 1, UnitPrice: 100}},
	}

	result := engine.Calculate(context.Background(), order)

	assert.True(t, result.Success)
	assert.Equal(t, 10.0, result.DiscountTotalAmount)
	if assert.Len(t, result.AppliedActivities, 1) {
		assert.Equal(t, uint64(1), result.AppliedActivities[0].ActivityID)
	}
}

func TestDiscountEngine_InactiveActivitySkipped(t *testing.T) {
	expired := newTestActivity(1, 10, false)
	expired.EndTime = testNow.Add(-time.Minute)

	productRepo := &fakeProductRepo{products: []*model.ActivityProduct{
		bindProduct(expired, 100, 80, 50),
	}}
	engine := newTestEngine(productRepo, &fakeRuleRepo{}, DefaultConfig(), nil)

	order := &model.Order{
		UserID: 42,
		Lines:  []model.OrderLine{{ProductID: 100, Quantity: 1, UnitPrice: 100}},
	}

	result := engine.Calculate(context.Background(), order)

	assert.True(t, result.Success)
	assert.Equal(t, 0.0, result.DiscountTotalAmount)
}

func TestDiscountEngine_ExhaustedQuotaSkipped(t *testing.T) {
	capped := newTestActivity(1, 10, false)
	capped.TotalQuantity = 100
	capped.Sold = 100

	productRepo := &fakeProductRepo{products: []*model.ActivityProduct{
		bindProduct(capped, 100, 80, 50),
	}}
	engine := newTestEngine(productRepo, &fakeRuleRepo{}, DefaultConfig(), nil)

	order := &model.Order{
		UserID: 42,
		Lines:  []model.OrderLine{{ProductID: 100, Quantity: 1, UnitPrice: 100}},
	}

	result := engine.Calculate(context.Background(), order)

	assert.True(t, result.Success)
	assert.Equal(t, 0.0, result.DiscountTotalAmount)
}

func TestDiscountEngine_BloomFilterShortCircuits(t *testing.T) {
	activity := newTestActivity(1, 10, false)
	productRepo := &fakeProductRepo{products: []*model.ActivityProduct{
		bindProduct(activity, 100, 80, 50),
	}}

	// Filter warmed with a different product; lookup never reaches the repo
	filter := cache.NewProductFilter(100, 0.01)
	filter.Add(999)

	engine := newTestEngine(productRepo, &fakeRuleRepo{}, DefaultConfig(), filter)

	order := &model.Order{
		UserID: 42,
		Lines:  []model.OrderLine{{ProductID: 100, Quantity: 1, UnitPrice: 100}},
	}

	result := engine.Calculate(context.Background(), order)

	assert.True(t, result.Success)
	assert.Equal(t, 0.0, result.DiscountTotalAmount)
	assert.Equal(t, 100.0, result.FinalTotalAmount)
}

func TestDiscountEngine_RecoversFromPanic(t *testing.T) {
	poisoned := &panickingProductRepo{}
	resolver := NewConflictResolver(&fakeActivityRepo{}, DefaultConfig())
	selector := NewStackingSelector(DefaultConfig(), resolver)
	enforcer := NewLimitEnforcer(DefaultConfig(), nil, fixedClock{now: testNow})
	engine := NewDiscountEngine(poisoned, &fakeRuleRepo{}, selector, NewRuleCalculator(), enforcer, nil, fixedClock{now: testNow})

	order := &model.Order{
		UserID: 42,
		Lines:  []model.OrderLine{{ProductID: 100, Quantity: 1, UnitPrice: 100}},
	}

	result := engine.Calculate(context.Background(), order)

	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "discount calculation failed")
}

// panickingProductRepo triggers the engine's recovery path
type panickingProductRepo struct {
	fakeProductRepo
}

func (p *panickingProductRepo) FindActiveByProducts(ctx context.Context, productIDs []uint64, now time.Time) ([]*model.ActivityProduct, error) {
	panic("storage corrupted")
}
