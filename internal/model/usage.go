package model

import (
	"time"
)

// UserActivityUsage daily per-user usage aggregate of one activity.
// Written by the caller after order placement, read by the limit chain.
type UserActivityUsage struct {
	ID             uint64  `gorm:"primaryKey;autoIncrement;comment:记录ID" json:"id"`
	UserID         uint64  `gorm:"type:bigint unsigned;not null;uniqueIndex:uk_user_activity_date;comment:用户ID" json:"user_id"`
	ActivityID     uint64  `gorm:"type:bigint unsigned;not null;uniqueIndex:uk_user_activity_date;comment:活动ID" json:"activity_id"`
	UsageDate      string  `gorm:"type:varchar(10);not null;uniqueIndex:uk_user_activity_date;index;comment:日期 yyyy-mm-dd" json:"usage_date"`
	UseCount       int     `gorm:"type:int;not null;default:0;comment:当日使用次数" json:"use_count"`
	DiscountAmount float64 `gorm:"type:decimal(10,2);not null;default:0;comment:当日累计优惠金额" json:"discount_amount"`

	CreatedAt time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP;comment:创建时间" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP;comment:更新时间" json:"updated_at"`
}

// TableName set name
func (UserActivityUsage) TableName() string {
	return "promotion_user_activity_usages"
}
