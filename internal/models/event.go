package models

import (
	"time"
)

// Event 活动模型
type Event struct {
	BaseModel
	TenantID    uint       `json:"tenant_id" gorm:"not null;uniqueIndex:idx_events_tenant_slug"`
	Name        string     `json:"name" gorm:"not null;size:200"`
	Slug        string     `json:"slug" gorm:"not null;size:100;uniqueIndex:idx_events_tenant_slug"`
	Description string     `json:"description" gorm:"type:text"`
	Location    string     `json:"location" gorm:"size:255"`
	EventDate   *time.Time `json:"event_date"`
	StartTime   string     `json:"start_time" gorm:"size:10"`
	EndTime     string     `json:"end_time" gorm:"size:10"`
	Status      string     `json:"status" gorm:"default:'draft';size:20;index"`
}

// TableName 表名
func (e *Event) TableName() string {
	return "events"
}

// 活动状态常量
const (
	EventStatusDraft     = "draft"
	EventStatusPublished = "published"
	EventStatusActive    = "active"
	EventStatusFinished  = "finished"
)
