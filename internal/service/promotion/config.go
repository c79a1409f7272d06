package promotion

import (
	"promotion/internal/model"
)

// KindPair an unordered pair of activity kinds
type KindPair struct {
	A model.ActivityKind
	B model.ActivityKind
}

// Config engine tunables, injected instead of compiled-in so deployments can
// tune per tenant and tests stay deterministic
type Config struct {
	// Stacking
	MaxStackable         int     // maximum activities stackable on one order
	ExclusivePriority    int     // priority at/above which an activity behaves as exclusive
	ProjectedRateCeiling float64 // projected combined discount ceiling, percent of order total

	// Limit chain
	MaxDailyUsage       int     // per-user daily uses of one activity
	DiscountRateCeiling float64 // per-line and order-level discount rate cap, percent
	DailyAmountCap      float64 // per-user daily discount amount cap

	// Kind pairs that conflict even without the exclusive flag; empty by
	// default, same-kind activities never conflict by kind alone
	IncompatibleKinds []KindPair
}

// DefaultConfig returns the stock tuning
func DefaultConfig() Config {
	return Config{
		MaxStackable:         5,
		ExclusivePriority:    100,
		ProjectedRateCeiling: 95,
		MaxDailyUsage:        10,
		DiscountRateCeiling:  80,
		DailyAmountCap:       10000,
	}
}

// KindsIncompatible check the incompatible-pair table, order-insensitive
func (c *Config) KindsIncompatible(a, b model.ActivityKind) bool {
	for _, pair := range c.IncompatibleKinds {
		if (pair.A == a && pair.B == b) || (pair.A == b && pair.B == a) {
			return true
		}
	}
	return false
}

// projectedRate coarse per-kind discount estimate, percent of order total
func projectedRate(kind model.ActivityKind) float64 {
	switch kind {
	case model.KindDiscount:
		return 10
	case model.KindSeckill:
		return 20
	case model.KindLimitedQuantity:
		return 15
	default:
		return 10
	}
}
