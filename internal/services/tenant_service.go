package services

import (
	"eventhouse/internal/models"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

type TenantService struct {
	db *gorm.DB
}

func NewTenantService(db *gorm.DB) *TenantService {
	return &TenantService{db: db}
}

// GetActiveByID 根据ID获取激活租户
func (s *TenantService) GetActiveByID(id uint) (*models.Tenant, error) {
	var tenant models.Tenant
	err := s.db.Where("id = ? AND is_active = ?", id, true).First(&tenant).Error
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

// GetActiveBySlug 根据slug获取激活租户
func (s *TenantService) GetActiveBySlug(slug string) (*models.Tenant, error) {
	var tenant models.Tenant
	err := s.db.Where("slug = ? AND is_active = ?", slug, true).First(&tenant).Error
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

// GetActiveBySubdomain 根据子域名获取激活租户
func (s *TenantService) GetActiveBySubdomain(subdomain string) (*models.Tenant, error) {
	var tenant models.Tenant
	err := s.db.Where("subdomain = ? AND is_active = ?", subdomain, true).First(&tenant).Error
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

// GetActiveByCustomDomain 根据自定义域名获取激活租户
func (s *TenantService) GetActiveByCustomDomain(domain string) (*models.Tenant, error) {
	var tenant models.Tenant
	err := s.db.Where("custom_domain = ? AND is_active = ?", domain, true).First(&tenant).Error
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

// Create 创建租户
func (s *TenantService) Create(name, slug, subdomain string) (*models.Tenant, error) {
	if err := s.ValidateCreateParams(name, slug, subdomain); err != nil {
		return nil, err
	}

	// 检查slug和子域名是否被激活租户占用
	var count int64
	s.db.Model(&models.Tenant{}).
		Where("(slug = ? OR subdomain = ?) AND is_active = ?", slug, subdomain, true).
		Count(&count)
	if count > 0 {
		return nil, gorm.ErrDuplicatedKey
	}

	tenant := &models.Tenant{
		Name:      name,
		Slug:      slug,
		Subdomain: subdomain,
		IsActive:  true,
	}

	err := s.db.Create(tenant).Error
	return tenant, err
}

// Deactivate 停用租户（流失时停用，不做物理删除）
func (s *TenantService) Deactivate(id uint) (*models.Tenant, error) {
	var tenant models.Tenant
	err := s.db.First(&tenant, id).Error
	if err != nil {
		return nil, err
	}

	tenant.IsActive = false
	err = s.db.Save(&tenant).Error
	return &tenant, err
}

// Activate 激活租户
func (s *TenantService) Activate(id uint) (*models.Tenant, error) {
	var tenant models.Tenant
	err := s.db.First(&tenant, id).Error
	if err != nil {
		return nil, err
	}

	tenant.IsActive = true
	err = s.db.Save(&tenant).Error
	return &tenant, err
}

// ========== 验证相关方法 ==========

// ValidateSlug slug只允许小写字母、数字和连字符
func (s *TenantService) ValidateSlug(slug string) bool {
	if len(slug) < 2 || len(slug) > 50 {
		return false
	}
	for _, r := range slug {
		if !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-') {
			return false
		}
	}
	return !strings.HasPrefix(slug, "-") && !strings.HasSuffix(slug, "-")
}

// ValidateCreateParams 校验创建参数
func (s *TenantService) ValidateCreateParams(name, slug, subdomain string) error {
	if len(name) < 2 || len(name) > 100 {
		return fmt.Errorf("租户名称长度必须在2-100个字符之间")
	}
	if !s.ValidateSlug(slug) {
		return fmt.Errorf("租户slug格式无效，只能包含小写字母、数字和连字符")
	}
	if !s.ValidateSlug(subdomain) {
		return fmt.Errorf("子域名格式无效，只能包含小写字母、数字和连字符")
	}
	return nil
}
