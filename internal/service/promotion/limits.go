package promotion

import (
	"context"

	"promotion/internal/model"
	"promotion/internal/monitor"
	"promotion/pkg/log"
)

// Limit reason types, appended in chain order
const (
	ReasonPerUserQuantity = "per_user_quantity_limit"
	ReasonDailyUsage      = "daily_usage_limit"
	ReasonSoldOut         = "sold_out"
	ReasonStockLimit      = "stock_limit"
	ReasonDiscountRate    = "discount_rate_limit"
	ReasonDailyAmount     = "daily_amount_limit"
)

// LimitReason one structured clamp record
type LimitReason struct {
	Type      string  `json:"type"`
	Limit     float64 `json:"limit"`
	Requested float64 `json:"requested"`
	Allowed   float64 `json:"allowed"`
}

// Validation adjusted discount plus the clamp reasons, in order
type Validation struct {
	Adjusted float64       `json:"adjusted"`
	Valid    bool          `json:"valid"`
	Reasons  []LimitReason `json:"reasons,omitempty"`
}

// LimitEnforcer clamps a raw discount through the ordered limit chain:
// per-user quantity, remaining stock, discount-rate cap, daily amount cap.
// Each stage may shrink or zero the discount, never grow it. Clamping is an
// expected adjustment, not an error.
type LimitEnforcer struct {
	cfg   Config
	usage UsageProvider
	clock Clock
}

// NewLimitEnforcer creates a limit enforcer. A nil usage provider defaults to
// zero usage.
func NewLimitEnforcer(cfg Config, usage UsageProvider, clock Clock) *LimitEnforcer {
	if usage == nil {
		usage = NewZeroUsageProvider()
	}
	if clock == nil {
		clock = SystemClock()
	}
	return &LimitEnforcer{
		cfg:   cfg,
		usage: usage,
		clock: clock,
	}
}

// ValidateLine runs the full chain against one line-level discount
func (e *LimitEnforcer) ValidateLine(ctx context.Context, activity *model.Activity, product *model.ActivityProduct, line *model.OrderLine, rawDiscount float64, userID uint64) *Validation {
	v := &Validation{Adjusted: rawDiscount}
	if rawDiscount <= 0 {
		v.Adjusted = 0
		return v
	}

	e.applyPerUserLimit(ctx, v, activity, product, line, userID)
	e.applyStockLimit(v, product, line)
	e.applyRateLimit(v, line.Total())
	e.applyDailyAmountLimit(ctx, v, userID)

	if v.Adjusted < 0 {
		v.Adjusted = 0
	}
	v.Valid = v.Adjusted > 0
	return v
}

// ValidateOrder re-applies the rate and daily caps to the aggregated discount,
// the last word on the order total
func (e *LimitEnforcer) ValidateOrder(ctx context.Context, orderTotalAmount, totalDiscount float64, userID uint64) *Validation {
	v := &Validation{Adjusted: totalDiscount}
	if totalDiscount <= 0 {
		v.Adjusted = 0
		return v
	}

	e.applyRateLimit(v, orderTotalAmount)
	e.applyDailyAmountLimit(ctx, v, userID)

	if v.Adjusted < 0 {
		v.Adjusted = 0
	}
	v.Valid = v.Adjusted > 0
	return v
}

// applyPerUserLimit proportionally rescales past the per-user quantity cap
// and zeroes once the daily per-activity usage cap is reached
func (e *LimitEnforcer) applyPerUserLimit(ctx context.Context, v *Validation, activity *model.Activity, product *model.ActivityProduct, line *model.OrderLine, userID uint64) {
	if product.LimitPerUser > 0 && line.Quantity > product.LimitPerUser {
		allowed := v.Adjusted / float64(line.Quantity) * float64(product.LimitPerUser)
		e.record(v, LimitReason{
			Type:      ReasonPerUserQuantity,
			Limit:     float64(product.LimitPerUser),
			Requested: float64(line.Quantity),
			Allowed:   allowed,
		})
		v.Adjusted = allowed
	}

	if userID == 0 {
		return
	}
	count, err := e.usage.DailyUsageCount(ctx, userID, activity.ID, e.clock.Now())
	if err != nil {
		// Degrade to zero usage rather than failing the calculation
		log.WithFields(map[string]interface{}{
			"user_id":     userID,
			"activity_id": activity.ID,
			"error":       err.Error(),
		}).Warn("Daily usage lookup failed, assuming zero")
		return
	}
	if count >= e.cfg.MaxDailyUsage {
		e.record(v, LimitReason{
			Type:      ReasonDailyUsage,
			Limit:     float64(e.cfg.MaxDailyUsage),
			Requested: float64(count),
			Allowed:   0,
		})
		v.Adjusted = 0
	}
}

// applyStockLimit zeroes on sold-out, otherwise rescales to remaining stock
func (e *LimitEnforcer) applyStockLimit(v *Validation, product *model.ActivityProduct, line *model.OrderLine) {
	remaining := product.RemainingStock()
	if line.Quantity <= remaining {
		return
	}

	if remaining <= 0 {
		e.record(v, LimitReason{
			Type:      ReasonSoldOut,
			Limit:     0,
			Requested: float64(line.Quantity),
			Allowed:   0,
		})
		v.Adjusted = 0
		return
	}

	allowed := v.Adjusted / float64(line.Quantity) * float64(remaining)
	e.record(v, LimitReason{
		Type:      ReasonStockLimit,
		Limit:     float64(remaining),
		Requested: float64(line.Quantity),
		Allowed:   allowed,
	})
	v.Adjusted = allowed
}

// applyRateLimit clamps the discount rate to the configured ceiling
func (e *LimitEnforcer) applyRateLimit(v *Validation, baseAmount float64) {
	if baseAmount <= 0 || v.Adjusted <= 0 {
		return
	}
	rate := v.Adjusted / baseAmount * 100
	if rate <= e.cfg.DiscountRateCeiling {
		return
	}

	allowed := baseAmount * e.cfg.DiscountRateCeiling / 100
	e.record(v, LimitReason{
		Type:      ReasonDiscountRate,
		Limit:     e.cfg.DiscountRateCeiling,
		Requested: rate,
		Allowed:   allowed,
	})
	v.Adjusted = allowed
}

// applyDailyAmountLimit clamps to the user's remaining daily discount quota
func (e *LimitEnforcer) applyDailyAmountLimit(ctx context.Context, v *Validation, userID uint64) {
	if userID == 0 || v.Adjusted <= 0 {
		return
	}

	used, err := e.usage.DailyDiscountUsed(ctx, userID, e.clock.Now())
	if err != nil {
		log.WithFields(map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		}).Warn("Daily discount amount lookup failed, assuming zero")
		return
	}
	if used+v.Adjusted <= e.cfg.DailyAmountCap {
		return
	}

	allowed := e.cfg.DailyAmountCap - used
	if allowed < 0 {
		allowed = 0
	}
	e.record(v, LimitReason{
		Type:      ReasonDailyAmount,
		Limit:     e.cfg.DailyAmountCap,
		Requested: used + v.Adjusted,
		Allowed:   allowed,
	})
	v.Adjusted = allowed
}

func (e *LimitEnforcer) record(v *Validation, reason LimitReason) {
	v.Reasons = append(v.Reasons, reason)
	monitor.RecordLimitClamp(reason.Type)
}
