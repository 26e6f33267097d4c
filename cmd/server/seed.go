package main

import (
	"fmt"

	"eventhouse/internal/database"
	"eventhouse/internal/models"
	"eventhouse/pkg/logger"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// seedData 初始化种子数据
func seedData() error {
	appLogger := logger.GetLogger()
	appLogger.Info("Starting seed data initialization...")

	db := database.GetDB()

	// 1. 创建订阅套餐
	if err := createSubscriptionPlans(db); err != nil {
		return fmt.Errorf("创建订阅套餐失败: %v", err)
	}

	// 2. 创建演示租户及订阅
	if err := createDemoTenant(db); err != nil {
		return fmt.Errorf("创建演示租户失败: %v", err)
	}

	appLogger.Info("Seed data initialization completed successfully")
	return nil
}

// createSubscriptionPlans 创建默认订阅套餐
func createSubscriptionPlans(db *gorm.DB) error {
	var count int64
	db.Model(&models.SubscriptionPlan{}).Count(&count)
	if count > 0 {
		logger.GetLogger().Info("订阅套餐已存在，跳过创建")
		return nil
	}

	plans := []models.SubscriptionPlan{
		{
			Name:                "免费版",
			Slug:                "free",
			MaxEvents:           1,
			MaxVisitorsPerEvent: 100,
			MaxAdminUsers:       2,
			Features:            datatypes.JSON([]byte(`{"email_notifications": false, "live_feed": false}`)),
		},
		{
			Name:                "专业版",
			Slug:                "pro",
			MaxEvents:           10,
			MaxVisitorsPerEvent: 2000,
			MaxAdminUsers:       10,
			Features:            datatypes.JSON([]byte(`{"email_notifications": true, "live_feed": true}`)),
		},
		{
			Name:                "企业版",
			Slug:                "enterprise",
			MaxEvents:           100,
			MaxVisitorsPerEvent: 50000,
			MaxAdminUsers:       100,
			Features:            datatypes.JSON([]byte(`{"email_notifications": true, "live_feed": true, "custom_domain": true}`)),
		},
	}

	if err := db.Create(&plans).Error; err != nil {
		return err
	}

	logger.GetLogger().Info("订阅套餐创建成功")
	return nil
}

// createDemoTenant 创建演示租户、订阅、管理员与默认嘉宾类别
func createDemoTenant(db *gorm.DB) error {
	var count int64
	db.Model(&models.Tenant{}).Where("slug = ?", "demo").Count(&count)
	if count > 0 {
		logger.GetLogger().Info("演示租户已存在，跳过创建")
		return nil
	}

	tenant := &models.Tenant{
		Name:      "演示主办方",
		Slug:      "demo",
		Subdomain: "demo",
		IsActive:  true,
	}
	if err := db.Create(tenant).Error; err != nil {
		return err
	}

	// 开通专业版订阅
	var plan models.SubscriptionPlan
	if err := db.Where("slug = ?", "pro").First(&plan).Error; err != nil {
		return err
	}
	subscription := &models.TenantSubscription{
		TenantID: tenant.ID,
		PlanID:   plan.ID,
		Status:   models.SubscriptionStatusActive,
	}
	if err := db.Create(subscription).Error; err != nil {
		return err
	}

	// 默认管理员
	admin := &models.User{
		TenantID: tenant.ID,
		Username: "admin",
		Email:    "admin@demo.local",
		Name:     "演示管理员",
		Role:     models.UserRoleOrganizer,
		IsActive: true,
	}
	if err := admin.SetPassword("Admin@123"); err != nil {
		return err
	}
	if err := db.Create(admin).Error; err != nil {
		return err
	}

	// 默认嘉宾类别
	categories := []models.GuestCategory{
		{TenantID: tenant.ID, Code: "VIP", Name: "贵宾", Color: "#FFD700", Icon: "crown", Priority: 1, IsActive: true},
		{TenantID: tenant.ID, Code: "SPR", Name: "赞助商", Color: "#FF6B35", Icon: "handshake", Priority: 2, IsActive: true},
		{TenantID: tenant.ID, Code: "SPK", Name: "演讲嘉宾", Color: "#4ECDC4", Icon: "microphone", Priority: 3, IsActive: true},
		{TenantID: tenant.ID, Code: "PTC", Name: "普通参会者", Color: "#45B7D1", Icon: "user", Priority: 4, IsActive: true},
	}
	if err := db.Create(&categories).Error; err != nil {
		return err
	}

	logger.GetLogger().Info("演示租户创建成功")
	return nil
}
