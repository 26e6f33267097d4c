package services

import (
	"errors"
	"fmt"
	"time"

	"eventhouse/internal/models"
	"eventhouse/pkg/badge"
	apperrors "eventhouse/pkg/errors"
	"eventhouse/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RegistrationService 报名服务：注册码发放、参会者创建、胸牌生成
type RegistrationService struct {
	db              *gorm.DB
	codec           *badge.Codec
	renderer        *badge.Renderer
	categoryService *CategoryService
	eventService    *EventService
	subscription    *SubscriptionService
}

// RegisterRequest 报名参数
type RegisterRequest struct {
	Name         string `json:"name" binding:"required"`
	Email        string `json:"email" binding:"required,email"`
	Phone        string `json:"phone" binding:"required"`
	CategoryCode string `json:"category_code" binding:"required"`
	EventID      uint   `json:"event_id" binding:"required"`
	Company      string `json:"company"`
	Position     string `json:"position"`
	SpecialNeeds string `json:"special_needs"`
	QRSize       int    `json:"-"`
	QRDarkColor  string `json:"-"`
	QRLightColor string `json:"-"`
}

func NewRegistrationService(db *gorm.DB, codec *badge.Codec, renderer *badge.Renderer) *RegistrationService {
	return &RegistrationService{
		db:              db,
		codec:           codec,
		renderer:        renderer,
		categoryService: NewCategoryService(db),
		eventService:    NewEventService(db),
		subscription:    NewSubscriptionService(db),
	}
}

// FormatRegistrationCode 注册码格式：类别代码 + 编号（3位零填充，超过999自动加宽）
func FormatRegistrationCode(categoryCode string, n int64) string {
	return fmt.Sprintf("%s%03d", categoryCode, n)
}

// AllocateCode 为（租户，类别）对原子发放下一个注册码
// 计数器在数据库侧串行自增，并发报名绝不会拿到相同编号；
// 后续报名事务失败时编号视为已消耗，允许空洞但绝不重复
func (s *RegistrationService) AllocateCode(tenantID uint, categoryCode string) (string, error) {
	var next int64
	err := s.db.Raw(`
		INSERT INTO registration_counters (tenant_id, category_code, value, created_at, updated_at)
		VALUES (?, ?, 1, NOW(), NOW())
		ON CONFLICT (tenant_id, category_code)
		DO UPDATE SET value = registration_counters.value + 1, updated_at = NOW()
		RETURNING value`,
		tenantID, categoryCode).Scan(&next).Error
	if err != nil {
		return "", err
	}
	return FormatRegistrationCode(categoryCode, next), nil
}

// Register 报名主流程
// 限额与重复邮箱在调用时刻实时检查；两个并发请求同时通过限额检查属于
// 可接受的有界超额，不视为正确性问题
func (s *RegistrationService) Register(tenantID uint, sub *models.TenantSubscription, req *RegisterRequest) (*models.Visitor, error) {
	// 1. 类别必须存在且激活
	category, err := s.categoryService.FindByCode(tenantID, req.CategoryCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("来宾类别不存在")
		}
		return nil, err
	}

	// 2. 活动必须存在
	event, err := s.eventService.GetByID(tenantID, req.EventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("活动不存在")
		}
		return nil, err
	}

	// 3. 单场活动人数限额（实时读取用量）
	if sub != nil && sub.Plan != nil {
		usage, err := s.subscription.CountVisitorsForEvent(tenantID, event.ID)
		if err != nil {
			return nil, err
		}
		limit := int64(sub.Plan.MaxVisitorsPerEvent)
		if usage >= limit {
			return nil, apperrors.NewLimitExceeded(
				fmt.Sprintf("该活动报名人数已达套餐上限（%d/%d）", usage, limit))
		}
	}

	// 4. 邮箱在（租户，活动）内唯一，先查一次给出友好提示，
	//    真正的并发兜底靠数据库唯一索引
	var dup int64
	if err := s.db.Model(&models.Visitor{}).
		Where("tenant_id = ? AND event_id = ? AND email = ?", tenantID, event.ID, req.Email).
		Count(&dup).Error; err != nil {
		return nil, err
	}
	if dup > 0 {
		return nil, apperrors.NewConflict("该邮箱已在本活动报名")
	}

	// 5. 发放注册码（计数器独立于后续插入，失败也不回退）
	registrationCode, err := s.AllocateCode(tenantID, category.Code)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	visitor := &models.Visitor{
		PublicID:         uuid.New().String(),
		TenantID:         tenantID,
		EventID:          event.ID,
		CategoryID:       category.ID,
		RegistrationCode: registrationCode,
		Name:             req.Name,
		Email:            req.Email,
		Phone:            req.Phone,
		Status:           models.VisitorStatusRegistered,
		RegisteredAt:     now,
	}
	if req.Company != "" {
		visitor.Company = &req.Company
	}
	if req.Position != "" {
		visitor.Position = &req.Position
	}
	if req.SpecialNeeds != "" {
		visitor.SpecialNeeds = &req.SpecialNeeds
	}

	// 6. 生成加密胸牌载荷
	payload := &badge.Payload{
		VisitorID:        visitor.PublicID,
		RegistrationCode: registrationCode,
		Name:             visitor.Name,
		Email:            visitor.Email,
		Category:         category.Name,
		EventID:          event.ID,
	}
	encrypted, err := s.codec.Encode(payload)
	if err != nil {
		return nil, fmt.Errorf("生成胸牌载荷失败: %v", err)
	}
	visitor.QRCodeData = encrypted

	// 7. 渲染二维码图片（失败不阻断报名，图片可事后补生成）
	qrURL, err := s.renderer.Render(tenantID, encrypted, registrationCode, badge.RenderOptions{
		Size:       req.QRSize,
		DarkColor:  req.QRDarkColor,
		LightColor: req.QRLightColor,
	})
	if err != nil {
		logger.GetLogger().Errorf("渲染二维码失败 code=%s: %v", registrationCode, err)
	} else {
		visitor.QRCodeURL = qrURL
	}

	// 8. 落库，唯一索引兜底并发重复
	if err := s.db.Create(visitor).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.NewConflict("该邮箱已在本活动报名")
		}
		return nil, err
	}

	visitor.Category = category
	return visitor, nil
}

// FindByRegistrationCode 按注册码查找参会者
func (s *RegistrationService) FindByRegistrationCode(tenantID uint, code string) (*models.Visitor, error) {
	var visitor models.Visitor
	err := s.db.Where("tenant_id = ? AND registration_code = ?", tenantID, code).
		Preload("Category").
		First(&visitor).Error
	if err != nil {
		return nil, err
	}
	return &visitor, nil
}

// FindByPublicID 按公开UUID查找参会者（胸牌载荷中携带）
func (s *RegistrationService) FindByPublicID(tenantID uint, publicID string) (*models.Visitor, error) {
	var visitor models.Visitor
	err := s.db.Where("tenant_id = ? AND public_id = ?", tenantID, publicID).
		Preload("Category").
		First(&visitor).Error
	if err != nil {
		return nil, err
	}
	return &visitor, nil
}

// GetVisitorsWithPage 分页列出活动参会者，支持状态过滤与关键词搜索
func (s *RegistrationService) GetVisitorsWithPage(tenantID, eventID uint, status, keyword string, page, pageSize int) ([]*models.Visitor, int64, error) {
	var visitors []*models.Visitor
	var total int64

	query := s.db.Model(&models.Visitor{}).
		Where("tenant_id = ? AND event_id = ?", tenantID, eventID)

	if status != "" {
		query = query.Where("status = ?", status)
	}
	if keyword != "" {
		searchPattern := fmt.Sprintf("%%%s%%", keyword)
		query = query.Where("name ILIKE ? OR email ILIKE ? OR registration_code ILIKE ?",
			searchPattern, searchPattern, searchPattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Preload("Category").
		Order("registered_at DESC").
		Offset(offset).Limit(pageSize).
		Find(&visitors).Error
	if err != nil {
		return nil, 0, err
	}

	return visitors, total, nil
}

// PublicStats 对外公开的报名统计：总数与各类别人数
func (s *RegistrationService) PublicStats(tenantID, eventID uint) (map[string]interface{}, error) {
	stats, err := s.eventService.GetStats(tenantID, eventID)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"total_registered": stats.TotalVisitors,
		"checked_in":       stats.CheckedIn,
		"by_category":      stats.ByCategory,
	}, nil
}
