package services

import (
	"eventhouse/internal/models"
	"fmt"

	"gorm.io/gorm"
)

type CategoryService struct {
	db *gorm.DB
}

func NewCategoryService(db *gorm.DB) *CategoryService {
	return &CategoryService{db: db}
}

// FindActive 按优先级列出租户的激活类别
func (s *CategoryService) FindActive(tenantID uint) ([]*models.GuestCategory, error) {
	var categories []*models.GuestCategory
	err := s.db.Where("tenant_id = ? AND is_active = ?", tenantID, true).
		Order("priority ASC").
		Find(&categories).Error
	return categories, err
}

// FindByCode 按类别代码查找（租户内唯一）
func (s *CategoryService) FindByCode(tenantID uint, code string) (*models.GuestCategory, error) {
	var category models.GuestCategory
	err := s.db.Where("tenant_id = ? AND code = ? AND is_active = ?", tenantID, code, true).
		First(&category).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// FindByID 按ID查找
func (s *CategoryService) FindByID(tenantID, id uint) (*models.GuestCategory, error) {
	var category models.GuestCategory
	err := s.db.Where("tenant_id = ? AND id = ?", tenantID, id).First(&category).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// Create 创建来宾类别，代码在租户内唯一
func (s *CategoryService) Create(category *models.GuestCategory) error {
	if err := s.validateCode(category.Code); err != nil {
		return err
	}

	var count int64
	s.db.Model(&models.GuestCategory{}).
		Where("tenant_id = ? AND code = ?", category.TenantID, category.Code).
		Count(&count)
	if count > 0 {
		return gorm.ErrDuplicatedKey
	}

	return s.db.Create(category).Error
}

// Update 更新类别显示属性，代码创建后不允许变更（已发行的注册码以它为前缀）
func (s *CategoryService) Update(tenantID, id uint, name, color, icon string, priority int) (*models.GuestCategory, error) {
	category, err := s.FindByID(tenantID, id)
	if err != nil {
		return nil, err
	}

	category.Name = name
	category.Color = color
	category.Icon = icon
	category.Priority = priority

	err = s.db.Save(category).Error
	return category, err
}

// Deactivate 停用类别
func (s *CategoryService) Deactivate(tenantID, id uint) error {
	result := s.db.Model(&models.GuestCategory{}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// validateCode 类别代码：2-10位大写字母或数字
func (s *CategoryService) validateCode(code string) error {
	if len(code) < 2 || len(code) > 10 {
		return fmt.Errorf("类别代码长度必须在2-10个字符之间")
	}
	for _, r := range code {
		if !((r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return fmt.Errorf("类别代码只能包含大写字母和数字")
		}
	}
	return nil
}
