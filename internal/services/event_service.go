package services

import (
	"eventhouse/internal/models"

	"gorm.io/gorm"
)

type EventService struct {
	db *gorm.DB
}

// EventStats 单场活动报名/签到统计
type EventStats struct {
	TotalVisitors  int64            `json:"total_visitors"`
	RegisteredOnly int64            `json:"registered_count"`
	CheckedIn      int64            `json:"checked_in_count"`
	ByCategory     map[string]int64 `json:"by_category"`
}

func NewEventService(db *gorm.DB) *EventService {
	return &EventService{db: db}
}

// GetByID 获取租户的活动
func (s *EventService) GetByID(tenantID, id uint) (*models.Event, error) {
	var event models.Event
	err := s.db.Where("tenant_id = ? AND id = ?", tenantID, id).First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// GetPublished 列出租户已发布/进行中的活动
func (s *EventService) GetPublished(tenantID uint) ([]*models.Event, error) {
	var events []*models.Event
	err := s.db.Where("tenant_id = ? AND status IN ?", tenantID,
		[]string{models.EventStatusPublished, models.EventStatusActive}).
		Order("event_date ASC").
		Find(&events).Error
	return events, err
}

// GetWithPage 分页列出租户活动
func (s *EventService) GetWithPage(tenantID uint, page, pageSize int) ([]*models.Event, int64, error) {
	var events []*models.Event
	var total int64

	query := s.db.Model(&models.Event{}).Where("tenant_id = ?", tenantID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&events).Error
	if err != nil {
		return nil, 0, err
	}

	return events, total, nil
}

// Create 创建活动（调用方需先通过订阅限额检查）
func (s *EventService) Create(event *models.Event) error {
	return s.db.Create(event).Error
}

// Update 更新活动
func (s *EventService) Update(tenantID, id uint, updates map[string]interface{}) (*models.Event, error) {
	event, err := s.GetByID(tenantID, id)
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(event).Updates(updates).Error; err != nil {
		return nil, err
	}
	return event, nil
}

// GetStats 活动统计：总报名数、已签到数、各类别分布
func (s *EventService) GetStats(tenantID, eventID uint) (*EventStats, error) {
	stats := &EventStats{ByCategory: map[string]int64{}}

	base := s.db.Model(&models.Visitor{}).Where("tenant_id = ? AND event_id = ?", tenantID, eventID)

	if err := base.Session(&gorm.Session{}).Count(&stats.TotalVisitors).Error; err != nil {
		return nil, err
	}
	if err := base.Session(&gorm.Session{}).
		Where("status = ?", models.VisitorStatusRegistered).
		Count(&stats.RegisteredOnly).Error; err != nil {
		return nil, err
	}
	if err := base.Session(&gorm.Session{}).
		Where("status = ?", models.VisitorStatusCheckedIn).
		Count(&stats.CheckedIn).Error; err != nil {
		return nil, err
	}

	// 各类别人数
	type categoryCount struct {
		Code  string
		Count int64
	}
	var rows []categoryCount
	err := s.db.Model(&models.Visitor{}).
		Select("guest_categories.code AS code, COUNT(visitors.id) AS count").
		Joins("LEFT JOIN guest_categories ON guest_categories.id = visitors.category_id").
		Where("visitors.tenant_id = ? AND visitors.event_id = ?", tenantID, eventID).
		Group("guest_categories.code").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		stats.ByCategory[row.Code] = row.Count
	}

	return stats, nil
}
