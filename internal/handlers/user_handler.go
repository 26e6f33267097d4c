package handlers

import (
	"errors"
	"strconv"

	"eventhouse/internal/middleware"
	"eventhouse/internal/models"
	"eventhouse/internal/services"
	"eventhouse/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CreateUserRequest 创建管理用户请求
type CreateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Role     string `json:"role" binding:"required,oneof=organizer staff"`
}

// UserHandler 管理用户维护，仅主办方管理员可用
type UserHandler struct {
	service *services.UserService
}

func NewUserHandler(service *services.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// GetAll 列出租户内的管理用户
func (h *UserHandler) GetAll(c *gin.Context) {
	tenant := middleware.GetTenant(c)
	if tenant == nil {
		response.BadRequest(c, "该操作需要有效的租户上下文")
		return
	}

	users, err := h.service.ListByTenant(tenant.ID)
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}

	response.Success(c, users)
}

// Create 创建管理用户（签到员或管理员）
func (h *UserHandler) Create(c *gin.Context) {
	tenant := middleware.GetTenant(c)
	if tenant == nil {
		response.BadRequest(c, "该操作需要有效的租户上下文")
		return
	}

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	user := &models.User{
		TenantID: tenant.ID,
		Username: req.Username,
		Email:    req.Email,
		Name:     req.Name,
		Role:     req.Role,
		IsActive: true,
	}
	if err := h.service.Create(user, req.Password); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			response.Conflict(c, "用户名已存在")
			return
		}
		response.ServerError(c, "创建失败")
		return
	}

	response.Created(c, "创建成功", user)
}

// Deactivate 停用管理用户
func (h *UserHandler) Deactivate(c *gin.Context) {
	tenant := middleware.GetTenant(c)
	if tenant == nil {
		response.BadRequest(c, "该操作需要有效的租户上下文")
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "无效的用户ID")
		return
	}

	current := middleware.GetCurrentUser(c)
	if current != nil && current.ID == uint(id) {
		response.BadRequest(c, "不能停用当前登录用户")
		return
	}

	if err := h.service.Deactivate(tenant.ID, uint(id)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "用户不存在")
			return
		}
		response.ServerError(c, "停用失败")
		return
	}

	response.SuccessWithMessage(c, "已停用", nil)
}
