package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// DiscountType discount rule type, closed set
type DiscountType int8

// Discount type const
const (
	TypeUnknown    DiscountType = 0 // 未知类型，前向兼容
	TypeReduction  DiscountType = 1 // 满减
	TypePercentage DiscountType = 2 // 折扣
	TypeBuyGive    DiscountType = 3 // 买赠
	TypeBuyNGetM   DiscountType = 4 // 买N送M
	TypeTiered     DiscountType = 5 // 阶梯折扣
	TypeAddOn      DiscountType = 6 // 加价购
)

// String returns the type label used in discount details
func (t DiscountType) String() string {
	switch t {
	case TypeReduction:
		return "reduction"
	case TypePercentage:
		return "percentage"
	case TypeBuyGive:
		return "buy_give"
	case TypeBuyNGetM:
		return "buy_n_get_m"
	case TypeTiered:
		return "tiered"
	case TypeAddOn:
		return "add_on"
	default:
		return "unknown"
	}
}

// Tier one step of a tiered discount schedule
type Tier struct {
	MinQuantity int     `json:"min_quantity"`
	Percent     float64 `json:"percent"`
}

// RuleConfig typed per-type rule configuration, stored as a json column
type RuleConfig struct {
	// Tiered discount schedule, ascending by MinQuantity
	Tiers []Tier `json:"tiers,omitempty"`

	// Add-on purchase settings
	AddOnPrice      float64  `json:"add_on_price,omitempty"`
	AddOnProductIDs []uint64 `json:"add_on_product_ids,omitempty"`
}

// Value implement driver.Valuer interface
func (c *RuleConfig) Value() (driver.Value, error) {
	if c == nil {
		return nil, nil
	}
	return json.Marshal(c)
}

// Scan implement sql.Scanner interface
func (c *RuleConfig) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into RuleConfig", value)
	}

	return json.Unmarshal(bytes, c)
}

// DiscountRule model: one discount rule attached to an activity
type DiscountRule struct {
	ID                uint64       `gorm:"primaryKey;autoIncrement;comment:规则ID" json:"id"`
	ActivityID        uint64       `gorm:"type:bigint unsigned;not null;index;comment:活动ID" json:"activity_id"`
	Type              DiscountType `gorm:"type:tinyint;not null;comment:折扣类型" json:"type"`
	Value             float64      `gorm:"type:decimal(10,2);not null;comment:折扣数值" json:"value"`
	MinAmount         float64      `gorm:"type:decimal(10,2);not null;default:0;comment:最低金额门槛，0为不限" json:"min_amount"`
	MaxDiscountAmount float64      `gorm:"type:decimal(10,2);not null;default:0;comment:最大优惠金额，0为不限" json:"max_discount_amount"`
	RequiredQuantity  int          `gorm:"type:int;not null;default:0;comment:要求购买数量，0为不限" json:"required_quantity"`
	GiftQuantity      int          `gorm:"type:int;not null;default:0;comment:赠送数量" json:"gift_quantity"`
	Config            *RuleConfig  `gorm:"type:json;comment:类型化规则配置" json:"config,omitempty"`
	Valid             bool         `gorm:"not null;default:true;index;comment:是否有效" json:"valid"`

	CreatedAt time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP;comment:创建时间" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP;comment:更新时间" json:"updated_at"`
}

// TableName set name
func (DiscountRule) TableName() string {
	return "promotion_discount_rules"
}

// IsAmountQualified check the line total against the rule's min-amount threshold
func (r *DiscountRule) IsAmountQualified(lineTotal float64) bool {
	if r.MinAmount <= 0 {
		return true
	}
	return lineTotal >= r.MinAmount
}

// IsQuantityQualified check the line quantity against the rule's required-quantity threshold
func (r *DiscountRule) IsQuantityQualified(quantity int) bool {
	if r.RequiredQuantity <= 0 {
		return true
	}
	return quantity >= r.RequiredQuantity
}

// CapDiscount apply the rule's max-discount cap and floor at 0
func (r *DiscountRule) CapDiscount(amount float64) float64 {
	if amount < 0 {
		return 0
	}
	if r.MaxDiscountAmount > 0 && amount > r.MaxDiscountAmount {
		return r.MaxDiscountAmount
	}
	return amount
}
