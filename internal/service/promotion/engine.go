package promotion

import (
	"context"
	"fmt"
	"time"

	"promotion/internal/cache"
	"promotion/internal/model"
	"promotion/internal/monitor"
	"promotion/internal/repository"
	"promotion/pkg/log"
	"promotion/pkg/utils"
)

// DiscountService discount engine interface
type DiscountService interface {
	// Calculate prices an order against all applicable activities. It never
	// returns an error: every internal failure degrades to a failure result
	// so pricing problems cannot break checkout.
	Calculate(ctx context.Context, order *model.Order) *model.DiscountResult
}

// discountEngine orchestrates selection, calculation and limit enforcement
type discountEngine struct {
	productRepo repository.ActivityProductRepository
	ruleRepo    repository.DiscountRuleRepository
	selector    *StackingSelector
	calculator  *RuleCalculator
	enforcer    *LimitEnforcer
	filter      *cache.ProductFilter
	clock       Clock
}

// NewDiscountEngine creates a discount engine. The product filter is optional.
func NewDiscountEngine(
	productRepo repository.ActivityProductRepository,
	ruleRepo repository.DiscountRuleRepository,
	selector *StackingSelector,
	calculator *RuleCalculator,
	enforcer *LimitEnforcer,
	filter *cache.ProductFilter,
	clock Clock,
) DiscountService {
	if clock == nil {
		clock = SystemClock()
	}
	return &discountEngine{
		productRepo: productRepo,
		ruleRepo:    ruleRepo,
		selector:    selector,
		calculator:  calculator,
		enforcer:    enforcer,
		filter:      filter,
		clock:       clock,
	}
}

// Calculate prices the order
func (e *discountEngine) Calculate(ctx context.Context, order *model.Order) (result *model.DiscountResult) {
	defer func() {
		if recovered := recover(); recovered != nil {
			log.WithFields(map[string]interface{}{
				"panic": recovered,
			}).Error("Discount calculation panicked")
			monitor.RecordCalculation("panic")
			result = failureResult(fmt.Sprintf("discount calculation failed: %v", recovered))
		}
	}()

	if order == nil || len(order.Lines) == 0 {
		monitor.RecordCalculation("invalid")
		return failureResult(utils.ErrInvalidParam.Message)
	}

	now := e.clock.Now()
	productIDs := e.filterProducts(order.ProductIDs())
	if len(productIDs) == 0 {
		monitor.RecordCalculation("no_activity")
		return zeroDiscountResult(order)
	}

	products, err := e.productRepo.FindActiveByProducts(ctx, productIDs, now)
	if err != nil {
		log.WithError(err).Error("Failed to load activity products")
		monitor.RecordCalculation("failure")
		return failureResult(utils.GetErrorMessage(err))
	}

	activities, productIndex := indexProducts(products, now)
	if len(activities) == 0 {
		monitor.RecordCalculation("no_activity")
		return zeroDiscountResult(order)
	}

	applicable := e.selector.Select(activities, order)
	if len(applicable) == 0 {
		monitor.RecordCalculation("no_activity")
		return zeroDiscountResult(order)
	}

	rules, err := e.loadRules(ctx, applicable)
	if err != nil {
		log.WithError(err).Error("Failed to load discount rules")
		monitor.RecordCalculation("failure")
		return failureResult(utils.GetErrorMessage(err))
	}

	result = e.applyToOrder(ctx, order, applicable, productIndex, rules)
	monitor.RecordCalculation("success")
	monitor.ObserveDiscountAmount(result.DiscountTotalAmount)
	return result
}

// applyToOrder runs calculator + enforcer per line and activity, then the
// order-level limit pass
func (e *discountEngine) applyToOrder(
	ctx context.Context,
	order *model.Order,
	applicable []*model.Activity,
	productIndex map[uint64][]*model.ActivityProduct,
	rules map[uint64][]*model.DiscountRule,
) *model.DiscountResult {
	applicableSet := make(map[uint64]*model.Activity, len(applicable))
	for _, activity := range applicable {
		applicableSet[activity.ID] = activity
	}

	result := &model.DiscountResult{Success: true}
	applied := make(map[uint64]bool)

	for i := range order.Lines {
		line := &order.Lines[i]
		original := line.Total()
		var lineDiscount float64

		for _, product := range productIndex[line.ProductID] {
			activity, ok := applicableSet[product.ActivityID]
			if !ok || !activity.AppliesTo(line.ProductID) {
				continue
			}

			calc := e.calculator.Calculate(activity, product, rules[activity.ID], line)
			if calc.Amount <= 0 {
				continue
			}

			validation := e.enforcer.ValidateLine(ctx, activity, product, line, calc.Amount, order.UserID)
			if validation.Adjusted <= 0 {
				// Limited away entirely, skip without error
				continue
			}

			lineDiscount += validation.Adjusted
			applied[activity.ID] = true
			result.Details = append(result.Details, model.DiscountDetail{
				ActivityID: activity.ID,
				ProductID:  line.ProductID,
				Type:       calc.Type,
				Value:      calc.Value,
				Amount:     validation.Adjusted,
				Reason:     fmt.Sprintf("activity %q applied", activity.Name),
				Metadata:   detailMetadata(calc.Amount, validation),
			})
		}

		final := original - lineDiscount
		if final < 0 {
			final = 0
		}
		result.Lines = append(result.Lines, model.LineResult{
			ProductID:      line.ProductID,
			SkuID:          line.SkuID,
			Quantity:       line.Quantity,
			OriginalAmount: original,
			DiscountAmount: lineDiscount,
			FinalAmount:    final,
		})
		result.OriginalTotalAmount += original
		result.DiscountTotalAmount += lineDiscount
	}

	// Order-level pass is the last word on the total
	orderValidation := e.enforcer.ValidateOrder(ctx, result.OriginalTotalAmount, result.DiscountTotalAmount, order.UserID)
	if orderValidation.Adjusted < result.DiscountTotalAmount {
		delta := result.DiscountTotalAmount - orderValidation.Adjusted
		result.Details = append(result.Details, model.DiscountDetail{
			Type:   model.TypeUnknown,
			Amount: -delta,
			Reason: "order-level limit adjustment",
			Metadata: map[string]interface{}{
				"limit_reasons": orderValidation.Reasons,
			},
		})
		result.DiscountTotalAmount = orderValidation.Adjusted
	}
	result.FinalTotalAmount = result.OriginalTotalAmount - result.DiscountTotalAmount

	for _, activity := range applicable {
		if !applied[activity.ID] {
			continue
		}
		result.AppliedActivities = append(result.AppliedActivities, model.AppliedActivity{
			ActivityID: activity.ID,
			Name:       activity.Name,
			Kind:       activity.Kind,
			Priority:   activity.Priority,
		})
	}
	return result
}

// filterProducts drops products the bloom prefilter knows have no bindings
func (e *discountEngine) filterProducts(productIDs []uint64) []uint64 {
	if e.filter == nil {
		return productIDs
	}
	filtered := productIDs[:0]
	for _, id := range productIDs {
		if e.filter.MayHaveActivity(id) {
			filtered = append(filtered, id)
		}
	}
	return filtered
}

// loadRules loads valid rules of the applicable activities
func (e *discountEngine) loadRules(ctx context.Context, applicable []*model.Activity) (map[uint64][]*model.DiscountRule, error) {
	ids := make([]uint64, 0, len(applicable))
	for _, activity := range applicable {
		ids = append(ids, activity.ID)
	}
	return e.ruleRepo.FindByActivities(ctx, ids)
}

// indexProducts derives the distinct set of valid, currently-active
// activities and indexes bindings by product id
func indexProducts(products []*model.ActivityProduct, now time.Time) ([]*model.Activity, map[uint64][]*model.ActivityProduct) {
	seen := make(map[uint64]bool)
	activities := make([]*model.Activity, 0, len(products))
	index := make(map[uint64][]*model.ActivityProduct, len(products))

	for _, product := range products {
		activity := product.Activity
		if !product.Valid || activity == nil || !activity.IsActiveAt(now) || !activity.HasQuota() {
			continue
		}
		index[product.ProductID] = append(index[product.ProductID], product)
		if !seen[activity.ID] {
			seen[activity.ID] = true
			activities = append(activities, activity)
		}
	}
	return activities, index
}

func failureResult(message string) *model.DiscountResult {
	return &model.DiscountResult{
		Success: false,
		Message: message,
	}
}

// zeroDiscountResult mirrors the order's totals with no discount
func zeroDiscountResult(order *model.Order) *model.DiscountResult {
	result := &model.DiscountResult{Success: true}
	for i := range order.Lines {
		line := &order.Lines[i]
		original := line.Total()
		result.Lines = append(result.Lines, model.LineResult{
			ProductID:      line.ProductID,
			SkuID:          line.SkuID,
			Quantity:       line.Quantity,
			OriginalAmount: original,
			DiscountAmount: 0,
			FinalAmount:    original,
		})
		result.OriginalTotalAmount += original
	}
	result.FinalTotalAmount = result.OriginalTotalAmount
	return result
}

func detailMetadata(raw float64, validation *Validation) map[string]interface{} {
	metadata := map[string]interface{}{
		"raw_discount": raw,
	}
	if len(validation.Reasons) > 0 {
		metadata["limit_reasons"] = validation.Reasons
	}
	return metadata
}
