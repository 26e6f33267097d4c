package models

import (
	"time"
)

// RegistrationCounter 注册码计数器，按（租户，类别代码）单调递增
// 只允许原子自增读取，注册失败也不回退，编号可有空洞但绝不重复
type RegistrationCounter struct {
	ID           uint      `json:"id" gorm:"primarykey"`
	TenantID     uint      `json:"tenant_id" gorm:"not null;uniqueIndex:idx_registration_counters_tenant_code,priority:1"`
	CategoryCode string    `json:"category_code" gorm:"not null;size:10;uniqueIndex:idx_registration_counters_tenant_code,priority:2"`
	Value        int64     `json:"value" gorm:"not null;default:0"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName 表名
func (r *RegistrationCounter) TableName() string {
	return "registration_counters"
}
