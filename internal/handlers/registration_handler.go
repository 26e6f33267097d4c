package handlers

import (
	"errors"
	"os"
	"strconv"

	"eventhouse/internal/middleware"
	"eventhouse/internal/services"
	"eventhouse/pkg/badge"
	"eventhouse/pkg/config"
	apperrors "eventhouse/pkg/errors"
	"eventhouse/pkg/queue"
	"eventhouse/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// RegistrationHandler 报名与胸牌下载
type RegistrationHandler struct {
	service         *services.RegistrationService
	categoryService *services.CategoryService
	eventService    *services.EventService
	notification    *services.NotificationService
	renderer        *badge.Renderer
}

func NewRegistrationHandler(
	service *services.RegistrationService,
	categoryService *services.CategoryService,
	eventService *services.EventService,
	notification *services.NotificationService,
	renderer *badge.Renderer,
) *RegistrationHandler {
	return &RegistrationHandler{
		service:         service,
		categoryService: categoryService,
		eventService:    eventService,
		notification:    notification,
		renderer:        renderer,
	}
}

// Register 参会者报名
func (h *RegistrationHandler) Register(c *gin.Context) {
	tenant := middleware.GetTenant(c)
	if tenant == nil {
		response.BadRequest(c, "该操作需要有效的租户上下文")
		return
	}

	var req services.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorMsg := "报名数据不完整或格式不正确"
		if validationErr, ok := err.(validator.ValidationErrors); ok && len(validationErr) > 0 {
			switch validationErr[0].Field() {
			case "Name":
				errorMsg = "姓名不能为空"
			case "Email":
				errorMsg = "邮箱格式不正确"
			case "Phone":
				errorMsg = "电话不能为空"
			case "CategoryCode":
				errorMsg = "必须选择参会类别"
			case "EventID":
				errorMsg = "必须指定活动"
			}
		}
		response.BadRequest(c, errorMsg)
		return
	}

	// 二维码渲染参数取平台配置
	cfg := config.GetConfig()
	req.QRSize = cfg.Badge.QRSize
	req.QRDarkColor = cfg.Badge.QRDarkColor
	req.QRLightColor = cfg.Badge.QRLightColor

	sub := middleware.GetSubscription(c)

	visitor, err := h.service.Register(tenant.ID, sub, &req)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			response.AppError(c, appErr)
			return
		}
		response.ServerError(c, "报名失败，请稍后重试")
		return
	}

	categoryName := ""
	if visitor.Category != nil {
		categoryName = visitor.Category.Name
	}

	response.Created(c, "报名成功", gin.H{
		"registration_code": visitor.RegistrationCode,
		"name":              visitor.Name,
		"email":             visitor.Email,
		"category":          categoryName,
		"qr_code_url":       visitor.QRCodeURL,
		"status":            visitor.Status,
	})

	// 响应已提交，确认邮件走旁路队列，失败不影响报名
	h.notification.EnqueueConfirmation(&queue.NotificationMessage{
		VisitorID:        visitor.PublicID,
		TenantID:         visitor.TenantID,
		EventID:          visitor.EventID,
		Email:            visitor.Email,
		Name:             visitor.Name,
		RegistrationCode: visitor.RegistrationCode,
		Category:         categoryName,
		QRCodeURL:        visitor.QRCodeURL,
	})
}

// DownloadQR 按注册码下载二维码图片
func (h *RegistrationHandler) DownloadQR(c *gin.Context) {
	tenant := middleware.GetTenant(c)
	if tenant == nil {
		response.BadRequest(c, "该操作需要有效的租户上下文")
		return
	}

	code := c.Param("code")
	_, err := h.service.FindByRegistrationCode(tenant.ID, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "注册码不存在")
			return
		}
		response.ServerError(c, "查询失败")
		return
	}

	filePath := h.renderer.FilePath(tenant.ID, code)
	if _, err := os.Stat(filePath); err != nil {
		response.NotFound(c, "二维码文件不存在")
		return
	}

	c.File(filePath)
}

// EventInfo 公开的活动信息与报名类别
func (h *RegistrationHandler) EventInfo(c *gin.Context) {
	tenant := middleware.GetTenant(c)
	if tenant == nil {
		response.BadRequest(c, "该操作需要有效的租户上下文")
		return
	}

	events, err := h.eventService.GetPublished(tenant.ID)
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}

	categories, err := h.categoryService.FindActive(tenant.ID)
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}

	response.Success(c, gin.H{
		"events":     events,
		"categories": categories,
	})
}

// PublicStats 公开报名统计
func (h *RegistrationHandler) PublicStats(c *gin.Context) {
	tenant := middleware.GetTenant(c)
	if tenant == nil {
		response.BadRequest(c, "该操作需要有效的租户上下文")
		return
	}

	eventID, err := strconv.ParseUint(c.Query("event_id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "event_id格式错误")
		return
	}

	stats, err := h.service.PublicStats(tenant.ID, uint(eventID))
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}

	response.Success(c, stats)
}
