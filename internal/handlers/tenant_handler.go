package handlers

import (
	"errors"
	"strings"

	"eventhouse/internal/middleware"
	"eventhouse/internal/models"
	"eventhouse/internal/services"
	"eventhouse/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SignupRequest 租户入驻请求
type SignupRequest struct {
	TenantName string `json:"tenant_name" binding:"required"`
	Slug       string `json:"slug" binding:"required"`
	Subdomain  string `json:"subdomain" binding:"required"`
	PlanSlug   string `json:"plan_slug" binding:"required"`
	AdminName  string `json:"admin_name" binding:"required"`
	AdminEmail string `json:"admin_email" binding:"required,email"`
	Username   string `json:"username" binding:"required"`
	Password   string `json:"password" binding:"required,min=8"`
}

// TenantHandler 租户入驻与套餐查询
type TenantHandler struct {
	tenantService       *services.TenantService
	subscriptionService *services.SubscriptionService
	userService         *services.UserService
}

func NewTenantHandler(
	tenantService *services.TenantService,
	subscriptionService *services.SubscriptionService,
	userService *services.UserService,
) *TenantHandler {
	return &TenantHandler{
		tenantService:       tenantService,
		subscriptionService: subscriptionService,
		userService:         userService,
	}
}

// ListPlans 公开的套餐列表
func (h *TenantHandler) ListPlans(c *gin.Context) {
	plans, err := h.subscriptionService.ListPlans()
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}

	response.Success(c, plans)
}

// Signup 租户入驻：创建租户、开通订阅、创建主办方管理员
func (h *TenantHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	// 套餐必须存在
	plans, err := h.subscriptionService.ListPlans()
	if err != nil {
		response.ServerError(c, "入驻失败")
		return
	}
	var plan *models.SubscriptionPlan
	for _, p := range plans {
		if p.Slug == req.PlanSlug {
			plan = p
			break
		}
	}
	if plan == nil {
		response.NotFound(c, "套餐不存在")
		return
	}

	tenant, err := h.tenantService.Create(req.TenantName, req.Slug, req.Subdomain)
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			response.Conflict(c, "slug或子域名已被占用")
			return
		}
		errMsg := err.Error()
		if strings.Contains(errMsg, "租户") || strings.Contains(errMsg, "子域名") {
			response.BadRequest(c, errMsg)
			return
		}
		response.ServerError(c, "入驻失败")
		return
	}

	if _, err := h.subscriptionService.Subscribe(tenant.ID, plan.ID); err != nil {
		response.ServerError(c, "开通订阅失败")
		return
	}

	admin := &models.User{
		TenantID: tenant.ID,
		Username: req.Username,
		Email:    req.AdminEmail,
		Name:     req.AdminName,
		Role:     models.UserRoleOrganizer,
		IsActive: true,
	}
	if err := h.userService.Create(admin, req.Password); err != nil {
		response.ServerError(c, "创建管理员失败")
		return
	}

	response.Created(c, "入驻成功", gin.H{
		"tenant": tenant,
		"plan":   plan.Slug,
	})
}

// CurrentSubscription 当前租户订阅状态
func (h *TenantHandler) CurrentSubscription(c *gin.Context) {
	tenant := middleware.GetTenant(c)
	if tenant == nil {
		response.BadRequest(c, "该操作需要有效的租户上下文")
		return
	}

	sub, err := h.subscriptionService.CurrentActive(tenant.ID)
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}
	if sub == nil {
		response.NotFound(c, "无生效订阅")
		return
	}

	response.Success(c, sub)
}
