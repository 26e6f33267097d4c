package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User 租户管理员/入口操作员
type User struct {
	BaseModel
	TenantID     uint       `json:"tenant_id" gorm:"not null;uniqueIndex:idx_users_tenant_username,priority:1"`
	Username     string     `json:"username" gorm:"not null;size:50;uniqueIndex:idx_users_tenant_username,priority:2"`
	Email        string     `json:"email" gorm:"not null;size:100;index"`
	PasswordHash string     `json:"-" gorm:"not null;size:255"`
	Name         string     `json:"name" gorm:"not null;size:100"`
	Role         string     `json:"role" gorm:"default:'staff';size:20"`
	IsActive     bool       `json:"is_active" gorm:"default:true"`
	LastLoginAt  *time.Time `json:"last_login_at"`
}

// TableName 表名
func (u *User) TableName() string {
	return "users"
}

// 用户角色常量
const (
	UserRoleOrganizer = "organizer" // 主办方管理员
	UserRoleStaff     = "staff"     // 入口签到操作员
)

// SetPassword 设置密码 - 数据操作方法
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

// CheckPassword 验证密码 - 数据操作方法
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}
