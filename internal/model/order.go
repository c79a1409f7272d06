package model

// OrderLine one line of the order being priced, input only
type OrderLine struct {
	ProductID uint64  `json:"product_id" binding:"required"`
	SkuID     uint64  `json:"sku_id"`
	Quantity  int     `json:"quantity" binding:"required,min=1"`
	UnitPrice float64 `json:"unit_price" binding:"required"`
}

// Total get the line total amount
func (l *OrderLine) Total() float64 {
	return l.UnitPrice * float64(l.Quantity)
}

// Order discount calculation input, not persisted
type Order struct {
	UserID uint64      `json:"user_id"`
	Lines  []OrderLine `json:"lines" binding:"required"`
}

// TotalAmount get the original order total across all lines
func (o *Order) TotalAmount() float64 {
	var total float64
	for i := range o.Lines {
		total += o.Lines[i].Total()
	}
	return total
}

// ProductIDs get the distinct product ids across all lines
func (o *Order) ProductIDs() []uint64 {
	seen := make(map[uint64]struct{}, len(o.Lines))
	ids := make([]uint64, 0, len(o.Lines))
	for i := range o.Lines {
		id := o.Lines[i].ProductID
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// LineResult per-line amounts after discounting
type LineResult struct {
	ProductID      uint64  `json:"product_id"`
	SkuID          uint64  `json:"sku_id,omitempty"`
	Quantity       int     `json:"quantity"`
	OriginalAmount float64 `json:"original_amount"`
	DiscountAmount float64 `json:"discount_amount"`
	FinalAmount    float64 `json:"final_amount"`
}

// AppliedActivity summary of one activity applied to the order
type AppliedActivity struct {
	ActivityID uint64       `json:"activity_id"`
	Name       string       `json:"name"`
	Kind       ActivityKind `json:"kind"`
	Priority   int          `json:"priority"`
}

// DiscountDetail one structured discount record
type DiscountDetail struct {
	ActivityID uint64                 `json:"activity_id"`
	ProductID  uint64                 `json:"product_id,omitempty"`
	Type       DiscountType           `json:"type"`
	Value      float64                `json:"value"`
	Amount     float64                `json:"amount"`
	Reason     string                 `json:"reason"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// DiscountResult discount calculation output, not persisted
type DiscountResult struct {
	Success             bool              `json:"success"`
	Message             string            `json:"message,omitempty"`
	OriginalTotalAmount float64           `json:"original_total_amount"`
	DiscountTotalAmount float64           `json:"discount_total_amount"`
	FinalTotalAmount    float64           `json:"final_total_amount"`
	Lines               []LineResult      `json:"lines,omitempty"`
	AppliedActivities   []AppliedActivity `json:"applied_activities,omitempty"`
	Details             []DiscountDetail  `json:"details,omitempty"`
}
