package handlers

import (
	"errors"
	"strconv"

	"eventhouse/internal/middleware"
	"eventhouse/internal/services"
	"eventhouse/pkg/pagination"
	"eventhouse/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// VisitorHandler 参会者查询（管理端）
type VisitorHandler struct {
	service *services.RegistrationService
}

func NewVisitorHandler(service *services.RegistrationService) *VisitorHandler {
	return &VisitorHandler{service: service}
}

// GetAll 分页列出活动参会者，支持状态过滤与关键词搜索
func (h *VisitorHandler) GetAll(c *gin.Context) {
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

	pageParams := pagination.ParsePageParams(c)
	status := c.Query("status")
	keyword := c.Query("keyword")

	visitors, total, err := h.service.GetVisitorsWithPage(
		tenant.ID, uint(eventID), status, keyword, pageParams.Page, pageParams.PageSize)
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}

	pageInfo := pagination.NewPageInfo(pageParams.Page, pageParams.PageSize, total)
	response.SuccessWithPage(c, visitors, pageInfo)
}

// GetByCode 按注册码查询参会者
func (h *VisitorHandler) GetByCode(c *gin.Context) {
	tenant := middleware.GetTenant(c)
	if tenant == nil {
		response.BadRequest(c, "该操作需要有效的租户上下文")
		return
	}

	visitor, err := h.service.FindByRegistrationCode(tenant.ID, c.Param("code"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "注册码不存在")
			return
		}
		response.ServerError(c, "查询失败")
		return
	}

	response.Success(c, visitor)
}
