package models

import (
	"time"
)

// Visitor 参会者模型
// 同一租户同一活动内邮箱唯一，注册码在租户内唯一
// 状态只允许 registered -> checked_in 单向流转
type Visitor struct {
	BaseModel
	PublicID         string     `json:"public_id" gorm:"unique;not null;size:36;index"` // UUID，印在胸牌载荷中
	TenantID         uint       `json:"tenant_id" gorm:"not null;uniqueIndex:idx_visitors_tenant_event_email,priority:1;uniqueIndex:idx_visitors_tenant_code,priority:1"`
	EventID          uint       `json:"event_id" gorm:"not null;uniqueIndex:idx_visitors_tenant_event_email,priority:2;index"`
	CategoryID       uint       `json:"category_id" gorm:"not null;index"`
	RegistrationCode string     `json:"registration_code" gorm:"not null;size:20;uniqueIndex:idx_visitors_tenant_code,priority:2"`
	Name             string     `json:"name" gorm:"not null;size:200"`
	Email            string     `json:"email" gorm:"not null;size:100;uniqueIndex:idx_visitors_tenant_event_email,priority:3"`
	Phone            string     `json:"phone" gorm:"size:30"`
	Company          *string    `json:"company" gorm:"size:200"`
	Position         *string    `json:"position" gorm:"size:100"`
	SpecialNeeds     *string    `json:"special_needs" gorm:"type:text"`
	QRCodeData       string     `json:"-" gorm:"type:text"` // 加密后的胸牌载荷
	QRCodeURL        string     `json:"qr_code_url" gorm:"size:255"`
	Status           string     `json:"status" gorm:"default:'registered';size:20;index"`
	RegisteredAt     time.Time  `json:"registered_at"`
	CheckedInAt      *time.Time `json:"checked_in_at"`

	Category *GuestCategory `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
}

// TableName 表名
func (v *Visitor) TableName() string {
	return "visitors"
}

// 参会者状态常量
const (
	VisitorStatusRegistered = "registered"
	VisitorStatusCheckedIn  = "checked_in"
)
