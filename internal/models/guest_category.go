package models

// GuestCategory 来宾类别（VIP、赞助商、讲师、普通参会者等）
// 类别代码作为注册码前缀使用
type GuestCategory struct {
	BaseModel
	TenantID uint   `json:"tenant_id" gorm:"not null;uniqueIndex:idx_guest_categories_tenant_code"`
	Code     string `json:"code" gorm:"not null;size:10;uniqueIndex:idx_guest_categories_tenant_code"`
	Name     string `json:"name" gorm:"not null;size:100"`
	Color    string `json:"color" gorm:"size:10"`
	Icon     string `json:"icon" gorm:"size:50"`
	Priority int    `json:"priority" gorm:"default:0"`
	IsActive bool   `json:"is_active" gorm:"default:true"`
}

// TableName 表名
func (g *GuestCategory) TableName() string {
	return "guest_categories"
}
