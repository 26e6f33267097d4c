package models

import (
	"time"

	"gorm.io/datatypes"
)

// CheckIn 签到记录，与参会者一对一
// visitor_id上的唯一索引兜底并发重复扫码，记录创建后不可变更
type CheckIn struct {
	BaseModel
	TenantID    uint           `json:"tenant_id" gorm:"not null;index"`
	VisitorID   uint           `json:"visitor_id" gorm:"not null;uniqueIndex"`
	EventID     uint           `json:"event_id" gorm:"not null;index"`
	CheckinTime time.Time      `json:"checkin_time" gorm:"not null;index"`
	Location    string         `json:"location" gorm:"default:'Main Entrance';size:100"`
	GateNumber  *string        `json:"gate_number" gorm:"size:20"`
	CheckedInBy uint           `json:"checked_in_by" gorm:"not null"` // 操作员用户ID
	Notes       *string        `json:"notes" gorm:"type:text"`
	DeviceInfo  datatypes.JSON `json:"device_info"`

	Visitor *Visitor `json:"visitor,omitempty" gorm:"foreignKey:VisitorID"`
}

// TableName 表名
func (c *CheckIn) TableName() string {
	return "checkins"
}
