package services

import (
	"encoding/json"
	"errors"
	"time"

	"eventhouse/internal/models"
	apperrors "eventhouse/pkg/errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CheckInService 签到台账：每位参会者至多签到一次，记录不可变更
type CheckInService struct {
	db *gorm.DB
}

// CheckInDetails 签到现场信息
type CheckInDetails struct {
	Location   string            `json:"location"`
	GateNumber string            `json:"gate_number"`
	Notes      string            `json:"notes"`
	DeviceInfo map[string]string `json:"device_info"`
}

func NewCheckInService(db *gorm.DB) *CheckInService {
	return &CheckInService{db: db}
}

// CheckIn 执行签到，状态机只有 registered -> checked_in 一条单向转移
// 前置检查依次失败即整体失败：参会者必须存在；不得已有签到记录。
// 重复扫码的毫秒级竞态由 checkins.visitor_id 唯一索引兜底，
// 记录插入与状态翻转在同一事务内原子完成
func (s *CheckInService) CheckIn(tenantID, visitorID, operatorID uint, details *CheckInDetails) (*models.CheckIn, error) {
	// 参会者必须属于该租户
	var visitor models.Visitor
	err := s.db.Where("tenant_id = ? AND id = ?", tenantID, visitorID).First(&visitor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("参会者不存在")
		}
		return nil, err
	}

	if details == nil {
		details = &CheckInDetails{}
	}
	location := details.Location
	if location == "" {
		location = "Main Entrance"
	}

	now := time.Now()
	record := &models.CheckIn{
		TenantID:    tenantID,
		VisitorID:   visitor.ID,
		EventID:     visitor.EventID,
		CheckinTime: now,
		Location:    location,
		CheckedInBy: operatorID,
	}
	if details.GateNumber != "" {
		record.GateNumber = &details.GateNumber
	}
	if details.Notes != "" {
		record.Notes = &details.Notes
	}
	if len(details.DeviceInfo) > 0 {
		if raw, err := json.Marshal(details.DeviceInfo); err == nil {
			record.DeviceInfo = datatypes.JSON(raw)
		}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(record).Error; err != nil {
			return err
		}
		return tx.Model(&models.Visitor{}).
			Where("tenant_id = ? AND id = ?", tenantID, visitor.ID).
			Updates(map[string]interface{}{
				"status":        models.VisitorStatusCheckedIn,
				"checked_in_at": now,
			}).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.NewConflict("该参会者已完成签到")
		}
		return nil, err
	}

	record.Visitor = &visitor
	return record, nil
}

// RecentCheckIns 最近签到记录，按签到时间降序，用于现场实时看板
func (s *CheckInService) RecentCheckIns(tenantID, eventID uint, limit int) ([]*models.CheckIn, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	var records []*models.CheckIn
	err := s.db.Where("tenant_id = ? AND event_id = ?", tenantID, eventID).
		Preload("Visitor").
		Preload("Visitor.Category").
		Order("checkin_time DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

// CheckInsAfter 指定记录ID之后的新签到，实时推送用
func (s *CheckInService) CheckInsAfter(tenantID, eventID, afterID uint, limit int) ([]*models.CheckIn, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var records []*models.CheckIn
	err := s.db.Where("tenant_id = ? AND event_id = ? AND id > ?", tenantID, eventID, afterID).
		Preload("Visitor").
		Preload("Visitor.Category").
		Order("id ASC").
		Limit(limit).
		Find(&records).Error
	return records, err
}
