package middleware

import (
	"fmt"

	"eventhouse/internal/models"
	"eventhouse/pkg/logger"
	"eventhouse/pkg/response"

	"github.com/gin-gonic/gin"
)

// SubscriptionSource 订阅查询能力，由SubscriptionService实现
type SubscriptionSource interface {
	CurrentActive(tenantID uint) (*models.TenantSubscription, error)
}

// UsageCounters 用量统计能力，由SubscriptionService实现
type UsageCounters interface {
	CountEvents(tenantID uint) (int64, error)
	CountAdminUsers(tenantID uint) (int64, error)
}

// SubscriptionMiddleware 订阅门禁
type SubscriptionMiddleware struct {
	subs  SubscriptionSource
	usage UsageCounters
}

func NewSubscriptionMiddleware(subs SubscriptionSource, usage UsageCounters) *SubscriptionMiddleware {
	return &SubscriptionMiddleware{subs: subs, usage: usage}
}

// RequireActiveSubscription 要求租户有生效订阅
// 无租户上下文时直接放行，由租户解析层自行把关
func (m *SubscriptionMiddleware) RequireActiveSubscription() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant := GetTenant(c)
		if tenant == nil {
			c.Next()
			return
		}

		sub, err := m.subs.CurrentActive(tenant.ID)
		if err != nil {
			logger.GetLogger().Errorf("查询租户订阅失败 tenant=%d: %v", tenant.ID, err)
			response.StorageError(c, "订阅状态暂时无法确认")
			c.Abort()
			return
		}

		if sub == nil || sub.Status != models.SubscriptionStatusActive {
			response.PaymentRequired(c, "订阅未生效，请更新账单信息")
			c.Abort()
			return
		}

		c.Set("subscription", sub)
		c.Next()
	}
}

// CheckLimit 检查指定类型的套餐限额
// 用量在每次请求时实时读取，不跨请求缓存；两个并发请求同时通过检查
// 属于可接受的有界超额。无租户或无订阅上下文时放行。
func (m *SubscriptionMiddleware) CheckLimit(limitKind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant := GetTenant(c)
		sub := GetSubscription(c)
		if tenant == nil || sub == nil || sub.Plan == nil {
			c.Next()
			return
		}

		var currentUsage int64
		var limit int64
		var err error

		switch limitKind {
		case models.LimitKindEvents:
			currentUsage, err = m.usage.CountEvents(tenant.ID)
			limit = int64(sub.Plan.MaxEvents)
		case models.LimitKindAdminUsers:
			currentUsage, err = m.usage.CountAdminUsers(tenant.ID)
			limit = int64(sub.Plan.MaxAdminUsers)
		default:
			// visitors_per_event 需要活动ID，在报名服务内检查
			c.Next()
			return
		}

		if err != nil {
			logger.GetLogger().Errorf("限额用量统计失败 tenant=%d kind=%s: %v", tenant.ID, limitKind, err)
			response.StorageError(c, "限额检查暂时不可用")
			c.Abort()
			return
		}

		if currentUsage >= limit {
			response.LimitExceeded(c,
				fmt.Sprintf("已达到套餐的%s上限（%d），请升级订阅", limitKind, limit),
				gin.H{
					"limit_kind":    limitKind,
					"current_usage": currentUsage,
					"limit":         limit,
				})
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetSubscription 从上下文取出已附加的订阅
func GetSubscription(c *gin.Context) *models.TenantSubscription {
	value, exists := c.Get("subscription")
	if !exists {
		return nil
	}
	sub, ok := value.(*models.TenantSubscription)
	if !ok {
		return nil
	}
	return sub
}
