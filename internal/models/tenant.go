package models

// Tenant 租户模型 - 贫血模型，只包含数据结构
// 平台入驻时创建，流失时停用，从不物理删除
type Tenant struct {
	BaseModel
	Name         string  `json:"name" gorm:"not null;size:100"`
	Slug         string  `json:"slug" gorm:"unique;not null;size:50;index"`
	Subdomain    string  `json:"subdomain" gorm:"unique;not null;size:63;index"`
	CustomDomain *string `json:"custom_domain" gorm:"size:255;index"`
	IsActive     bool    `json:"is_active" gorm:"default:true"`
}

// TableName 表名
func (t *Tenant) TableName() string {
	return "tenants"
}
