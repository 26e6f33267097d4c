package handlers

import (
	"errors"
	"strconv"
	"strings"

	"eventhouse/internal/middleware"
	"eventhouse/internal/models"
	"eventhouse/internal/services"
	"eventhouse/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CreateCategoryRequest 创建来宾类别请求
type CreateCategoryRequest struct {
	Code     string `json:"code" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Color    string `json:"color"`
	Icon     string `json:"icon"`
	Priority int    `json:"priority"`
}

// UpdateCategoryRequest 更新来宾类别请求
type UpdateCategoryRequest struct {
	Name     string `json:"name" binding:"required"`
	Color    string `json:"color"`
	Icon     string `json:"icon"`
	Priority int    `json:"priority"`
}

// CategoryHandler 来宾类别管理
type CategoryHandler struct {
	service *services.CategoryService
}

func NewCategoryHandler(service *services.CategoryService) *CategoryHandler {
	return &CategoryHandler{service: service}
}

// GetAll 列出激活类别
func (h *CategoryHandler) GetAll(c *gin.Context) {
	tenant := middleware.GetTenant(c)
	if tenant == nil {
		response.BadRequest(c, "该操作需要有效的租户上下文")
		return
	}

	categories, err := h.service.FindActive(tenant.ID)
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}

	response.Success(c, categories)
}

// Create 创建类别
func (h *CategoryHandler) Create(c *gin.Context) {
	tenant := middleware.GetTenant(c)
	if tenant == nil {
		response.BadRequest(c, "该操作需要有效的租户上下文")
		return
	}

	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	category := &models.GuestCategory{
		TenantID: tenant.ID,
		Code:     strings.ToUpper(req.Code),
		Name:     req.Name,
		Color:    req.Color,
		Icon:     req.Icon,
		Priority: req.Priority,
		IsActive: true,
	}

	if err := h.service.Create(category); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			response.Conflict(c, "类别代码已存在")
			return
		}
		if strings.Contains(err.Error(), "类别代码") {
			response.BadRequest(c, err.Error())
			return
		}
		response.ServerError(c, "创建失败")
		return
	}

	response.Created(c, "类别创建成功", category)
}

// Update 更新类别（代码不可变更）
func (h *CategoryHandler) Update(c *gin.Context) {
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

	var req UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	category, err := h.service.Update(tenant.ID, uint(id), req.Name, req.Color, req.Icon, req.Priority)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "类别不存在")
			return
		}
		response.ServerError(c, "更新失败")
		return
	}

	response.Success(c, category)
}

// Deactivate 停用类别
func (h *CategoryHandler) Deactivate(c *gin.Context) {
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

	if err := h.service.Deactivate(tenant.ID, uint(id)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "类别不存在")
			return
		}
		response.ServerError(c, "停用失败")
		return
	}

	response.SuccessWithMessage(c, "类别已停用", nil)
}
