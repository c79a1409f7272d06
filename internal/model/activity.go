package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ActivityKind promotion activity kind
type ActivityKind int8

// Activity kind const
const (
	KindDiscount        ActivityKind = 1 // 折扣活动
	KindSeckill         ActivityKind = 2 // 秒杀活动
	KindLimitedQuantity ActivityKind = 3 // 限量购活动
)

// String returns the kind label used in logs and metrics
func (k ActivityKind) String() string {
	switch k {
	case KindDiscount:
		return "discount"
	case KindSeckill:
		return "seckill"
	case KindLimitedQuantity:
		return "limited_quantity"
	default:
		return "unknown"
	}
}

// Uint64Set custom json array type for product id sets
type Uint64Set []uint64

// Value implement driver.Valuer interface
func (s Uint64Set) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

// Scan implement sql.Scanner interface
func (s *Uint64Set) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into Uint64Set", value)
	}

	return json.Unmarshal(bytes, s)
}

// Contains check if the set contains id
func (s Uint64Set) Contains(id uint64) bool {
	for _, v := range s {
		if v == id {
			return true
		}
	}
	return false
}

// Intersects check if two sets share at least one id
func (s Uint64Set) Intersects(other Uint64Set) bool {
	for _, v := range s {
		if other.Contains(v) {
			return true
		}
	}
	return false
}

// Activity model: a time-boxed promotional campaign
type Activity struct {
	ID            uint64       `gorm:"primaryKey;autoIncrement;comment:活动ID" json:"id"`
	Name          string       `gorm:"type:varchar(200);not null;comment:活动名称" json:"name"`
	Kind          ActivityKind `gorm:"type:tinyint;not null;default:1;index;comment:活动类型" json:"kind"`
	StartTime     time.Time    `gorm:"type:timestamp;not null;index;comment:开始时间" json:"start_time"`
	EndTime       time.Time    `gorm:"type:timestamp;not null;index;comment:结束时间" json:"end_time"`
	Priority      int          `gorm:"type:int;not null;default:0;index;comment:优先级" json:"priority"`
	Exclusive     bool         `gorm:"not null;default:false;comment:是否互斥" json:"exclusive"`
	ProductIDs    Uint64Set    `gorm:"type:json;comment:适用商品ID集合，空为全部商品" json:"product_ids,omitempty"`
	TotalQuantity int          `gorm:"type:int;not null;default:0;comment:活动总量上限，0为不限" json:"total_quantity"`
	Sold          int          `gorm:"type:int;not null;default:0;comment:已售数量" json:"sold"`
	Valid         bool         `gorm:"not null;default:true;index;comment:是否有效" json:"valid"`

	CreatedAt time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP;comment:创建时间" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP;comment:更新时间" json:"updated_at"`

	Products []*ActivityProduct `gorm:"foreignKey:ActivityID" json:"products,omitempty"`
	Rules    []*DiscountRule    `gorm:"foreignKey:ActivityID" json:"rules,omitempty"`
}

// TableName set name
func (Activity) TableName() string {
	return "promotion_activities"
}

// IsActiveAt check if the activity is valid and now is within [start, end)
func (a *Activity) IsActiveAt(now time.Time) bool {
	return a.Valid && !now.Before(a.StartTime) && now.Before(a.EndTime)
}

// AppliesTo check if the activity scopes the product; empty set means all products
func (a *Activity) AppliesTo(productID uint64) bool {
	if len(a.ProductIDs) == 0 {
		return true
	}
	return a.ProductIDs.Contains(productID)
}

// HasQuota check if the activity-level quantity cap still has room
func (a *Activity) HasQuota() bool {
	if a.TotalQuantity <= 0 {
		return true
	}
	return a.Sold < a.TotalQuantity
}

// RemainingQuota get remaining activity-level quantity, -1 when uncapped
func (a *Activity) RemainingQuota() int {
	if a.TotalQuantity <= 0 {
		return -1
	}
	remaining := a.TotalQuantity - a.Sold
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ActivityProduct model: price/stock/limit binding of one product within one activity
type ActivityProduct struct {
	ID            uint64  `gorm:"primaryKey;autoIncrement;comment:记录ID" json:"id"`
	ActivityID    uint64  `gorm:"type:bigint unsigned;not null;uniqueIndex:uk_activity_product;comment:活动ID" json:"activity_id"`
	ProductID     uint64  `gorm:"type:bigint unsigned;not null;uniqueIndex:uk_activity_product;index;comment:商品ID" json:"product_id"`
	ActivityPrice float64 `gorm:"type:decimal(10,2);not null;comment:活动价格" json:"activity_price"`
	LimitPerUser  int     `gorm:"type:int;not null;default:0;comment:每人限购数量，0为不限" json:"limit_per_user"`
	Stock         int     `gorm:"type:int;not null;comment:活动库存" json:"stock"`
	Sold          int     `gorm:"type:int;not null;default:0;comment:已售数量" json:"sold"`
	Valid         bool    `gorm:"not null;default:true;index;comment:是否有效" json:"valid"`

	CreatedAt time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP;comment:创建时间" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP;comment:更新时间" json:"updated_at"`

	Activity *Activity `gorm:"foreignKey:ActivityID" json:"activity,omitempty"`
}

// TableName set name
func (ActivityProduct) TableName() string {
	return "promotion_activity_products"
}

// RemainingStock get remaining stock, floored at 0
func (p *ActivityProduct) RemainingStock() int {
	remaining := p.Stock - p.Sold
	if remaining < 0 {
		return 0
	}
	return remaining
}

// StockUtilization get sold/stock percentage
func (p *ActivityProduct) StockUtilization() float64 {
	if p.Stock == 0 {
		return 0
	}
	return float64(p.Sold) / float64(p.Stock) * 100
}

// IsSoldOut check if remaining stock is exhausted
func (p *ActivityProduct) IsSoldOut() bool {
	return p.Stock-p.Sold <= 0
}
