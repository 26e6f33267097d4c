package models

import (
	"gorm.io/datatypes"
)

// SubscriptionPlan 订阅套餐
type SubscriptionPlan struct {
	BaseModel
	Name                string         `json:"name" gorm:"not null;size:100"`
	Slug                string         `json:"slug" gorm:"unique;not null;size:50"`
	MaxEvents           int            `json:"max_events" gorm:"not null"`
	MaxVisitorsPerEvent int            `json:"max_visitors_per_event" gorm:"not null"`
	MaxAdminUsers       int            `json:"max_admin_users" gorm:"not null"`
	Features            datatypes.JSON `json:"features"`
}

// TableName 表名
func (p *SubscriptionPlan) TableName() string {
	return "subscription_plans"
}

// TenantSubscription 租户订阅记录
// 同一租户允许多条历史记录，查询时取最新的active记录
type TenantSubscription struct {
	BaseModel
	TenantID uint   `json:"tenant_id" gorm:"not null;index"`
	PlanID   uint   `json:"plan_id" gorm:"not null;index"`
	Status   string `json:"status" gorm:"default:'active';size:20;index"`

	Plan *SubscriptionPlan `json:"plan,omitempty" gorm:"foreignKey:PlanID"`
}

// TableName 表名
func (s *TenantSubscription) TableName() string {
	return "tenant_subscriptions"
}

// 订阅状态常量
const (
	SubscriptionStatusActive   = "active"
	SubscriptionStatusPastDue  = "past_due"
	SubscriptionStatusCanceled = "canceled"
)

// 限额类型常量
const (
	LimitKindEvents           = "events"
	LimitKindAdminUsers       = "admin_users"
	LimitKindVisitorsPerEvent = "visitors_per_event"
)
