package promotion

import (
	"promotion/internal/model"
)

// Calculation one activity's raw discount for one order line, before limits.
// Type and Value describe the dominant contribution for detail records.
type Calculation struct {
	Amount float64
	Type   model.DiscountType
	Value  float64
}

// RuleCalculator computes the raw discount of one activity for one order line
type RuleCalculator struct{}

// NewRuleCalculator creates a rule calculator
func NewRuleCalculator() *RuleCalculator {
	return &RuleCalculator{}
}

// Calculate computes the raw discount. An activity without rules falls back
// to the simple price-difference discount; otherwise every qualified rule
// contributes per its type formula, capped by the rule's max discount.
func (c *RuleCalculator) Calculate(activity *model.Activity, product *model.ActivityProduct, rules []*model.DiscountRule, line *model.OrderLine) Calculation {
	if line == nil || line.Quantity <= 0 {
		return Calculation{}
	}

	if len(rules) == 0 {
		return simpleDiscount(product, line)
	}

	result := Calculation{Type: model.TypeUnknown}
	var dominant float64
	for _, rule := range rules {
		amount := c.applyRule(rule, line)
		if amount <= 0 {
			continue
		}
		result.Amount += amount
		if amount > dominant {
			dominant = amount
			result.Type = rule.Type
			result.Value = rule.Value
		}
	}
	return result
}

// applyRule computes one rule's contribution, gated by the rule's amount and
// quantity thresholds
func (c *RuleCalculator) applyRule(rule *model.DiscountRule, line *model.OrderLine) float64 {
	lineTotal := line.Total()
	if !rule.IsAmountQualified(lineTotal) || !rule.IsQuantityQualified(line.Quantity) {
		return 0
	}

	var amount float64
	switch rule.Type {
	case model.TypeReduction:
		amount = rule.Value

	case model.TypePercentage:
		if rule.Value >= 100 {
			amount = lineTotal
		} else {
			amount = lineTotal * rule.Value / 100
		}

	case model.TypeBuyGive:
		gift := rule.GiftQuantity
		if gift > line.Quantity {
			gift = line.Quantity
		}
		amount = line.UnitPrice * float64(gift)

	case model.TypeBuyNGetM:
		if rule.RequiredQuantity <= 0 {
			return 0
		}
		eligibleSets := line.Quantity / rule.RequiredQuantity
		amount = line.UnitPrice * float64(eligibleSets) * float64(rule.GiftQuantity)

	case model.TypeTiered:
		amount = tieredDiscount(rule, line.Quantity, lineTotal)

	case model.TypeAddOn:
		amount = addOnDiscount(rule, line)

	default:
		// Unknown type, forward-compatible
		return 0
	}

	return rule.CapDiscount(amount)
}

// simpleDiscount price-difference fallback for activities with no rules
func simpleDiscount(product *model.ActivityProduct, line *model.OrderLine) Calculation {
	if product == nil {
		return Calculation{}
	}
	perUnit := line.UnitPrice - product.ActivityPrice
	if perUnit < 0 {
		perUnit = 0
	}
	return Calculation{
		Amount: perUnit * float64(line.Quantity),
		Type:   model.TypeReduction,
		Value:  perUnit,
	}
}

// tieredDiscount the highest tier whose MinQuantity <= quantity wins
func tieredDiscount(rule *model.DiscountRule, quantity int, lineTotal float64) float64 {
	if rule.Config == nil || len(rule.Config.Tiers) == 0 {
		return 0
	}

	var matched *model.Tier
	for i := range rule.Config.Tiers {
		tier := &rule.Config.Tiers[i]
		if tier.MinQuantity > quantity {
			continue
		}
		if matched == nil || tier.MinQuantity >= matched.MinQuantity {
			matched = tier
		}
	}
	if matched == nil {
		return 0
	}
	return lineTotal * matched.Percent / 100
}

// addOnDiscount only applies when the line's product is in the add-on list
func addOnDiscount(rule *model.DiscountRule, line *model.OrderLine) float64 {
	if rule.Config == nil {
		return 0
	}

	listed := false
	for _, id := range rule.Config.AddOnProductIDs {
		if id == line.ProductID {
			listed = true
			break
		}
	}
	if !listed {
		return 0
	}

	perUnit := line.UnitPrice - rule.Config.AddOnPrice
	if perUnit < 0 {
		perUnit = 0
	}
	return perUnit * float64(line.Quantity)
}
