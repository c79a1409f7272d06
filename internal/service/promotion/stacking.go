package promotion

import (
	"sort"

	"promotion/internal/model"
	"promotion/pkg/log"
)

// maxOptimizeCombinations caps the advisory subset search
const maxOptimizeCombinations = 32

// StackingSelector selects the subset of applicable activities that may
// legally apply together on one order
type StackingSelector struct {
	cfg      Config
	resolver *ConflictResolver
}

// NewStackingSelector creates a stacking selector
func NewStackingSelector(cfg Config, resolver *ConflictResolver) *StackingSelector {
	return &StackingSelector{
		cfg:      cfg,
		resolver: resolver,
	}
}

// Select walks the candidates by (priority desc, start time asc). An
// exclusive activity, or one at/above the exclusive priority threshold, is
// selected alone and short-circuits everything else. Other activities are
// admitted only while compatible with every prior selection and while the
// projected combined discount stays within the order total and the projected
// rate ceiling.
func (s *StackingSelector) Select(activities []*model.Activity, order *model.Order) []*model.Activity {
	if len(activities) == 0 || order == nil {
		return nil
	}

	sorted := sortForStacking(activities)
	orderTotal := order.TotalAmount()
	ceiling := orderTotal * s.cfg.ProjectedRateCeiling / 100

	selected := make([]*model.Activity, 0, s.cfg.MaxStackable)
	var projected float64

	for _, candidate := range sorted {
		if len(selected) >= s.cfg.MaxStackable {
			break
		}

		// Exclusivity short-circuit
		if candidate.Exclusive || candidate.Priority >= s.cfg.ExclusivePriority {
			log.WithFields(map[string]interface{}{
				"activity_id": candidate.ID,
				"priority":    candidate.Priority,
				"exclusive":   candidate.Exclusive,
			}).Debug("Exclusive activity selected alone")
			return []*model.Activity{candidate}
		}

		if !s.compatibleWithAll(candidate, selected) {
			continue
		}

		estimate := orderTotal * projectedRate(candidate.Kind) / 100
		if projected+estimate > orderTotal || projected+estimate > ceiling {
			continue
		}

		selected = append(selected, candidate)
		projected += estimate
	}
	return selected
}

// Optimize explores activity subsets to maximize the projected discount
// without exceeding the order total. Advisory re-ranking only; enumeration is
// capped, so large candidate sets are searched partially.
func (s *StackingSelector) Optimize(activities []*model.Activity, order *model.Order) []*model.Activity {
	if len(activities) == 0 || order == nil {
		return nil
	}

	sorted := sortForStacking(activities)
	n := len(sorted)
	if n > s.cfg.MaxStackable {
		n = s.cfg.MaxStackable
	}

	orderTotal := order.TotalAmount()
	combinations := 1 << n
	if combinations > maxOptimizeCombinations {
		combinations = maxOptimizeCombinations
	}

	var best []*model.Activity
	var bestProjected float64

	for mask := 1; mask < combinations; mask++ {
		subset := make([]*model.Activity, 0, n)
		var projected float64
		for i := 0; i < n; i++ {
			if mask&(1<<i) == 0 {
				continue
			}
			subset = append(subset, sorted[i])
			projected += orderTotal * projectedRate(sorted[i].Kind) / 100
		}

		if projected > orderTotal || projected <= bestProjected {
			continue
		}
		if !s.subsetCompatible(subset) {
			continue
		}

		best = subset
		bestProjected = projected
	}
	return best
}

// compatibleWithAll check admission against every already-selected activity
func (s *StackingSelector) compatibleWithAll(candidate *model.Activity, selected []*model.Activity) bool {
	for _, existing := range selected {
		if existing.Exclusive || candidate.Exclusive {
			return false
		}
		if s.cfg.KindsIncompatible(candidate.Kind, existing.Kind) {
			return false
		}
		if s.resolver.HasConflict(candidate, existing) {
			return false
		}
	}
	return true
}

// subsetCompatible all-pairs check for the optimizer
func (s *StackingSelector) subsetCompatible(subset []*model.Activity) bool {
	for i := 0; i < len(subset); i++ {
		if subset[i].Exclusive {
			return len(subset) == 1
		}
		for j := i + 1; j < len(subset); j++ {
			if s.cfg.KindsIncompatible(subset[i].Kind, subset[j].Kind) {
				return false
			}
			if s.resolver.HasConflict(subset[i], subset[j]) {
				return false
			}
		}
	}
	return true
}

// sortForStacking priority desc, then start time asc
func sortForStacking(activities []*model.Activity) []*model.Activity {
	sorted := make([]*model.Activity, len(activities))
	copy(sorted, activities)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Priority != sorted[j].Priority {
			return sorted[i].Priority > sorted[j].Priority
		}
		return sorted[i].StartTime.Before(sorted[j].StartTime)
	})
	return sorted
}
