package router

import (
	"time"

	"eventhouse/internal/database"
	"eventhouse/internal/handlers"
	"eventhouse/internal/middleware"
	"eventhouse/internal/models"
	"eventhouse/internal/services"
	"eventhouse/pkg/badge"
	"eventhouse/pkg/config"
	"eventhouse/pkg/logger"
	"eventhouse/pkg/response"

	"github.com/gin-gonic/gin"
)

// SetupRouter 设置路由
func SetupRouter(notification *services.NotificationService) *gin.Engine {
	router := gin.New()

	// 中间件
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.SetupCORS())

	// 注册路由
	registerRoutes(router, notification)
	return router
}

// 注册所有路由
func registerRoutes(router *gin.Engine, notification *services.NotificationService) {
	cfg := config.GetConfig()
	db := database.GetDB()

	codec := badge.NewCodec(cfg.Badge.EncryptionKey)
	renderer, err := badge.NewRenderer(cfg.Badge.AssetDir)
	if err != nil {
		logger.GetLogger().Fatalf("初始化二维码输出目录失败: %v", err)
	}

	tenantService := services.NewTenantService(db)
	subscriptionService := services.NewSubscriptionService(db)
	categoryService := services.NewCategoryService(db)
	eventService := services.NewEventService(db)
	userService := services.NewUserService(db)
	registrationService := services.NewRegistrationService(db, codec, renderer)
	checkInService := services.NewCheckInService(db)

	tenantMW := middleware.NewTenantMiddleware(tenantService, router, gin.Mode())
	subscriptionMW := middleware.NewSubscriptionMiddleware(subscriptionService, subscriptionService)
	auth := middleware.NewAuthMiddleware(userService)

	// 租户解析对所有请求生效，必须在业务路由之前
	router.Use(tenantMW.Resolve())

	// 二维码图片静态目录
	router.Static("/assets/qr-codes", cfg.Badge.AssetDir)

	// API路由组
	api := router.Group("/api/v1")
	{
		// 健康检查接口
		api.GET("/health", healthCheck)
		api.GET("/ping", ping)

		// 平台级公开接口（免租户上下文）
		tenantHandler := handlers.NewTenantHandler(tenantService, subscriptionService, userService)
		api.GET("/plans", tenantHandler.ListPlans)
		api.POST("/signup", tenantHandler.Signup)

		// JWT认证路由
		authHandler := handlers.NewAuthHandler(userService)
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.RefreshToken)
			authGroup.GET("/me", auth.RequireLogin(), authHandler.Me)
		}

		// 参会者公开接口（要求订阅生效）
		registrationHandler := handlers.NewRegistrationHandler(
			registrationService, categoryService, eventService, notification, renderer)
		public := api.Group("")
		public.Use(subscriptionMW.RequireActiveSubscription())
		{
			public.POST("/register", registrationHandler.Register)
			public.GET("/qr/:code", registrationHandler.DownloadQR)
			public.GET("/event-info", registrationHandler.EventInfo)
			public.GET("/stats", registrationHandler.PublicStats)
		}

		// 签到接口（签到员及以上）
		checkInHandler := handlers.NewCheckInHandler(checkInService, registrationService, codec, userService)
		checkins := api.Group("")
		checkins.Use(subscriptionMW.RequireActiveSubscription())
		{
			checkins.POST("/checkin", auth.RequireLogin(), checkInHandler.CheckIn)
			checkins.GET("/checkins/recent", auth.RequireLogin(), checkInHandler.Recent)
			// WebSocket通过查询参数携带token自行鉴权
			checkins.GET("/checkins/live", checkInHandler.Live)
		}

		// 参会者查询（登录后）
		visitorHandler := handlers.NewVisitorHandler(registrationService)
		visitors := api.Group("/visitors")
		visitors.Use(subscriptionMW.RequireActiveSubscription(), auth.RequireLogin())
		{
			visitors.GET("", visitorHandler.GetAll)
			visitors.GET("/:code", visitorHandler.GetByCode)
		}

		// 当前订阅状态
		api.GET("/subscription", auth.RequireLogin(), tenantHandler.CurrentSubscription)

		// 活动管理（仅主办方管理员）
		eventHandler := handlers.NewEventHandler(eventService)
		events := api.Group("/events")
		events.Use(subscriptionMW.RequireActiveSubscription(), auth.RequireLogin(), auth.RequireOrganizer())
		{
			events.POST("", subscriptionMW.CheckLimit(models.LimitKindEvents), eventHandler.Create)
			events.GET("", eventHandler.GetAll)
			events.GET("/:id", eventHandler.GetByID)
			events.PUT("/:id", eventHandler.Update)
			events.GET("/:id/stats", eventHandler.GetStats)
		}

		// 嘉宾类别管理（仅主办方管理员）
		categoryHandler := handlers.NewCategoryHandler(categoryService)
		categories := api.Group("/categories")
		categories.Use(subscriptionMW.RequireActiveSubscription(), auth.RequireLogin(), auth.RequireOrganizer())
		{
			categories.GET("", categoryHandler.GetAll)
			categories.POST("", categoryHandler.Create)
			categories.PUT("/:id", categoryHandler.Update)
			categories.DELETE("/:id", categoryHandler.Deactivate)
		}

		// 管理用户维护（仅主办方管理员）
		userHandler := handlers.NewUserHandler(userService)
		users := api.Group("/users")
		users.Use(subscriptionMW.RequireActiveSubscription(), auth.RequireLogin(), auth.RequireOrganizer())
		{
			users.GET("", userHandler.GetAll)
			users.POST("", subscriptionMW.CheckLimit(models.LimitKindAdminUsers), userHandler.Create)
			users.DELETE("/:id", userHandler.Deactivate)
		}
	}
}

// 健康检查处理函数
func healthCheck(c *gin.Context) {
	data := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now(),
		"service":   "EventHouse",
		"version":   "1.0.0",
	}
	response.Success(c, data)
}

// Ping处理函数
func ping(c *gin.Context) {
	response.SuccessWithMessage(c, "pong", nil)
}
