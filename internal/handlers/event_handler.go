package handlers

import (
	"errors"
	"strconv"
	"time"

	"eventhouse/internal/middleware"
	"eventhouse/internal/models"
	"eventhouse/internal/services"
	"eventhouse/pkg/pagination"
	"eventhouse/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CreateEventRequest 创建活动请求
type CreateEventRequest struct {
	Name        string `json:"name" binding:"required"`
	Slug        string `json:"slug" binding:"required"`
	Description string `json:"description"`
	Location    string `json:"location"`
	EventDate   string `json:"event_date"` // YYYY-MM-DD
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
}

// UpdateEventRequest 更新活动请求
type UpdateEventRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Status      string `json:"status"`
}

// EventHandler 活动管理
type EventHandler struct {
	service *services.EventService
}

func NewEventHandler(service *services.EventService) *EventHandler {
	return &EventHandler{service: service}
}

// Create 创建活动（路由上已挂订阅限额检查）
func (h *EventHandler) Create(c *gin.Context) {
	tenant := middleware.GetTenant(c)
	if tenant == nil {
		response.BadRequest(c, "该操作需要有效的租户上下文")
		return
	}

	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	event := &models.Event{
		TenantID:    tenant.ID,
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Location:    req.Location,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Status:      models.EventStatusDraft,
	}

	if req.EventDate != "" {
		date, err := time.Parse("2006-01-02", req.EventDate)
		if err != nil {
			response.BadRequest(c, "活动日期格式错误，应为YYYY-MM-DD")
			return
		}
		event.EventDate = &date
	}

	if err := h.service.Create(event); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			response.Conflict(c, "活动slug已存在")
			return
		}
		response.ServerError(c, "创建失败")
		return
	}

	response.Created(c, "活动创建成功", event)
}

// GetAll 分页列出活动
func (h *EventHandler) GetAll(c *gin.Context) {
	tenant := middleware.GetTenant(c)
	if tenant == nil {
		response.BadRequest(c, "该操作需要有效的租户上下文")
		return
	}

	pageParams := pagination.ParsePageParams(c)

	events, total, err := h.service.GetWithPage(tenant.ID, pageParams.Page, pageParams.PageSize)
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}

	pageInfo := pagination.NewPageInfo(pageParams.Page, pageParams.PageSize, total)
	response.SuccessWithPage(c, events, pageInfo)
}

// GetByID 获取活动
func (h *EventHandler) GetByID(c *gin.Context) {
	tenant := middleware.GetTenant(c)
	if tenant == nil {
		response.BadRequest(c, "该操作需要有效的租户上下文")
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	event, err := h.service.GetByID(tenant.ID, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "活动不存在")
			return
		}
		response.ServerError(c, "查询失败")
		return
	}

	response.Success(c, event)
}

// Update 更新活动
func (h *EventHandler) Update(c *gin.Context) {
	tenant := middleware.GetTenant(c)
	if tenant == nil {
		response.BadRequest(c, "该操作需要有效的租户上下文")
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	var req UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if req.Location != "" {
		updates["location"] = req.Location
	}
	if req.Status != "" {
		switch req.Status {
		case models.EventStatusDraft, models.EventStatusPublished,
			models.EventStatusActive, models.EventStatusFinished:
			updates["status"] = req.Status
		default:
			response.BadRequest(c, "活动状态无效")
			return
		}
	}

	event, err := h.service.Update(tenant.ID, uint(id), updates)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "活动不存在")
			return
		}
		response.ServerError(c, "更新失败")
		return
	}

	response.Success(c, event)
}

// GetStats 活动报名/签到统计
func (h *EventHandler) GetStats(c *gin.Context) {
	tenant := middleware.GetTenant(c)
	if tenant == nil {
		response.BadRequest(c, "该操作需要有效的租户上下文")
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	stats, err := h.service.GetStats(tenant.ID, uint(id))
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}

	response.Success(c, stats)
}
