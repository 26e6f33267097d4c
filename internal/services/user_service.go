package services

import (
	"eventhouse/internal/models"
	"time"

	"gorm.io/gorm"
)

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// GetByID 根据ID获取用户
func (s *UserService) GetByID(id uint) (*models.User, error) {
	var user models.User
	err := s.db.First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByUsername 获取租户内的用户（用户名在租户内唯一）
func (s *UserService) GetByUsername(tenantID uint, username string) (*models.User, error) {
	var user models.User
	err := s.db.Where("tenant_id = ? AND username = ?", tenantID, username).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create 创建用户（调用方需先通过管理用户数限额检查）
func (s *UserService) Create(user *models.User, password string) error {
	if err := user.SetPassword(password); err != nil {
		return err
	}

	var count int64
	s.db.Model(&models.User{}).
		Where("tenant_id = ? AND username = ?", user.TenantID, user.Username).
		Count(&count)
	if count > 0 {
		return gorm.ErrDuplicatedKey
	}

	return s.db.Create(user).Error
}

// ListByTenant 列出租户内的全部用户
func (s *UserService) ListByTenant(tenantID uint) ([]*models.User, error) {
	var users []*models.User
	err := s.db.Where("tenant_id = ?", tenantID).Order("created_at ASC").Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// Deactivate 停用用户
func (s *UserService) Deactivate(tenantID, id uint) error {
	result := s.db.Model(&models.User{}).
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

// Authenticate 验证登录凭证
func (s *UserService) Authenticate(tenantID uint, username, password string) (*models.User, error) {
	user, err := s.GetByUsername(tenantID, username)
	if err != nil {
		return nil, err
	}

	if !user.IsActive {
		return nil, gorm.ErrRecordNotFound
	}

	if !user.CheckPassword(password) {
		return nil, gorm.ErrRecordNotFound
	}

	// 记录最近登录时间，失败不影响登录
	now := time.Now()
	s.db.Model(user).Update("last_login_at", now)
	user.LastLoginAt = &now

	return user, nil
}

// IsActive 检查用户是否激活
func (s *UserService) IsActive(user *models.User) bool {
	return user.IsActive
}
