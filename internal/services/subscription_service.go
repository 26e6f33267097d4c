package services

import (
	"eventhouse/internal/models"
	"errors"

	"gorm.io/gorm"
)

type SubscriptionService struct {
	db *gorm.DB
}

func NewSubscriptionService(db *gorm.DB) *SubscriptionService {
	return &SubscriptionService{db: db}
}

// CurrentActive 获取租户当前生效的订阅（同租户多条记录时取最新的active）
// 无生效订阅时返回nil而非错误，由调用方决定402语义
func (s *SubscriptionService) CurrentActive(tenantID uint) (*models.TenantSubscription, error) {
	var sub models.TenantSubscription
	err := s.db.Where("tenant_id = ? AND status = ?", tenantID, models.SubscriptionStatusActive).
		Order("created_at DESC").
		Preload("Plan").
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

// ListPlans 列出全部订阅套餐
func (s *SubscriptionService) ListPlans() ([]*models.SubscriptionPlan, error) {
	var plans []*models.SubscriptionPlan
	err := s.db.Order("max_events ASC").Find(&plans).Error
	return plans, err
}

// Subscribe 为租户开通订阅（同时将旧订阅置为canceled，保证同一时刻只有一条active）
func (s *SubscriptionService) Subscribe(tenantID, planID uint) (*models.TenantSubscription, error) {
	var sub *models.TenantSubscription
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.TenantSubscription{}).
			Where("tenant_id = ? AND status = ?", tenantID, models.SubscriptionStatusActive).
			Update("status", models.SubscriptionStatusCanceled).Error; err != nil {
			return err
		}

		sub = &models.TenantSubscription{
			TenantID: tenantID,
			PlanID:   planID,
			Status:   models.SubscriptionStatusActive,
		}
		return tx.Create(sub).Error
	})
	if err != nil {
		return nil, err
	}
	return sub, s.db.Preload("Plan").First(sub, sub.ID).Error
}

// ========== 用量统计（限额检查必须实时读取，不做缓存） ==========

// CountEvents 租户当前活动数
func (s *SubscriptionService) CountEvents(tenantID uint) (int64, error) {
	var count int64
	err := s.db.Model(&models.Event{}).Where("tenant_id = ?", tenantID).Count(&count).Error
	return count, err
}

// CountAdminUsers 租户当前管理用户数
func (s *SubscriptionService) CountAdminUsers(tenantID uint) (int64, error) {
	var count int64
	err := s.db.Model(&models.User{}).Where("tenant_id = ?", tenantID).Count(&count).Error
	return count, err
}

// CountVisitorsForEvent 单场活动当前报名人数
func (s *SubscriptionService) CountVisitorsForEvent(tenantID, eventID uint) (int64, error) {
	var count int64
	err := s.db.Model(&models.Visitor{}).
		Where("tenant_id = ? AND event_id = ?", tenantID, eventID).
		Count(&count).Error
	return count, err
}
