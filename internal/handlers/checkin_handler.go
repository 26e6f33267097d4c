package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"eventhouse/internal/middleware"
	"eventhouse/internal/services"
	"eventhouse/pkg/badge"
	"eventhouse/pkg/config"
	apperrors "eventhouse/pkg/errors"
	"eventhouse/pkg/jwt"
	"eventhouse/pkg/logger"
	"eventhouse/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"
)

// CheckInRequest 签到请求：二维码载荷与注册码二选一
type CheckInRequest struct {
	QRData           string            `json:"qr_data"`
	RegistrationCode string            `json:"registration_code"`
	Location         string            `json:"location"`
	GateNumber       string            `json:"gate_number"`
	Notes            string            `json:"notes"`
	DeviceInfo       map[string]string `json:"device_info"`
}

// CheckInHandler 入口签到
type CheckInHandler struct {
	service      *services.CheckInService
	registration *services.RegistrationService
	codec        *badge.Codec
	upgrader     websocket.Upgrader
	jwtManager   *jwt.JWTManager
	userService  *services.UserService
}

func NewCheckInHandler(
	service *services.CheckInService,
	registration *services.RegistrationService,
	codec *badge.Codec,
	userService *services.UserService,
) *CheckInHandler {
	cfg := config.GetConfig()
	allowedOrigins := cfg.CORS.AllowOrigins

	return &CheckInHandler{
		service:      service,
		registration: registration,
		codec:        codec,
		jwtManager:   jwt.GetJWTManager(),
		userService:  userService,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, allowed := range allowedOrigins {
					if allowed == "*" || allowed == origin {
						return true
					}
				}
				logger.GetLogger().Warnf("WebSocket连接被拒绝，非法Origin: %s", origin)
				return false
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024 * 4,
		},
	}
}

// CheckIn 扫码签到
func (h *CheckInHandler) CheckIn(c *gin.Context) {
	tenant := middleware.GetTenant(c)
	if tenant == nil {
		response.BadRequest(c, "该操作需要有效的租户上下文")
		return
	}

	operator := middleware.GetCurrentUser(c)
	if operator == nil {
		response.Unauthorized(c, "请先登录")
		return
	}

	var req CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	visitorID, err := h.resolveVisitor(tenant.ID, &req)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			response.AppError(c, appErr)
			return
		}
		response.ServerError(c, "签到失败")
		return
	}

	record, err := h.service.CheckIn(tenant.ID, visitorID, operator.ID, &services.CheckInDetails{
		Location:   req.Location,
		GateNumber: req.GateNumber,
		Notes:      req.Notes,
		DeviceInfo: req.DeviceInfo,
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			response.AppError(c, appErr)
			return
		}
		logger.GetLogger().Errorf("签到写入失败 tenant=%d visitor=%d: %v", tenant.ID, visitorID, err)
		response.ServerError(c, "签到失败")
		return
	}

	response.SuccessWithMessage(c, "签到成功", record)
}

// resolveVisitor 从二维码载荷或注册码定位参会者
func (h *CheckInHandler) resolveVisitor(tenantID uint, req *CheckInRequest) (uint, error) {
	if req.QRData != "" {
		payload, err := h.codec.Decode(req.QRData)
		if err != nil {
			if errors.Is(err, badge.ErrIntegrity) {
				return 0, apperrors.NewIntegrity("胸牌校验失败，疑似被篡改或损坏")
			}
			return 0, apperrors.NewValidation("胸牌载荷无法解析")
		}

		visitor, err := h.registration.FindByPublicID(tenantID, payload.VisitorID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, apperrors.NewNotFound("参会者不存在")
			}
			return 0, err
		}

		// 载荷中的注册码必须与库中记录一致
		if visitor.RegistrationCode != payload.RegistrationCode {
			return 0, apperrors.NewIntegrity("胸牌信息与报名记录不符")
		}

		return visitor.ID, nil
	}

	if req.RegistrationCode != "" {
		visitor, err := h.registration.FindByRegistrationCode(tenantID, req.RegistrationCode)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, apperrors.NewNotFound("注册码不存在")
			}
			return 0, err
		}
		return visitor.ID, nil
	}

	return 0, apperrors.NewValidation("请提供二维码载荷或注册码")
}

// Recent 最近签到记录
func (h *CheckInHandler) Recent(c *gin.Context) {
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

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	records, err := h.service.RecentCheckIns(tenant.ID, uint(eventID), limit)
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}

	response.Success(c, records)
}

// Live 签到实时推送（WebSocket）
// WebSocket不支持自定义header，令牌从查询参数获取
func (h *CheckInHandler) Live(c *gin.Context) {
	tenant := middleware.GetTenant(c)
	if tenant == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "该操作需要有效的租户上下文"})
		return
	}

	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "缺少token"})
		return
	}

	claims, err := h.jwtManager.VerifyToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token无效或已过期"})
		return
	}
	if claims.TenantID != tenant.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "无权访问该租户"})
		return
	}

	eventID, err := strconv.ParseUint(c.Query("event_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "event_id格式错误"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.GetLogger().Errorf("WebSocket升级失败: %v", err)
		return
	}
	defer conn.Close()

	// 先推送一页最近记录，之后按记录ID增量推送
	var lastID uint
	if recent, err := h.service.RecentCheckIns(tenant.ID, uint(eventID), 10); err == nil {
		if err := conn.WriteJSON(gin.H{"type": "snapshot", "records": recent}); err != nil {
			return
		}
		for _, record := range recent {
			if record.ID > lastID {
				lastID = record.ID
			}
		}
	}

	// 消费客户端消息以感知连接关闭
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			records, err := h.service.CheckInsAfter(tenant.ID, uint(eventID), lastID, 50)
			if err != nil {
				logger.GetLogger().Errorf("实时签到查询失败: %v", err)
				continue
			}
			if len(records) == 0 {
				continue
			}
			if err := conn.WriteJSON(gin.H{"type": "checkins", "records": records}); err != nil {
				return
			}
			lastID = records[len(records)-1].ID
		}
	}
}
