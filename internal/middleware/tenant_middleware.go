package middleware

import (
	"context"
	"errors"
	"net"
	"strconv"
	"strings"

	"eventhouse/internal/models"
	"eventhouse/pkg/logger"
	"eventhouse/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// TenantDirectory 租户目录查询能力，由TenantService实现
type TenantDirectory interface {
	GetActiveByID(id uint) (*models.Tenant, error)
	GetActiveBySlug(slug string) (*models.Tenant, error)
	GetActiveBySubdomain(subdomain string) (*models.Tenant, error)
	GetActiveByCustomDomain(domain string) (*models.Tenant, error)
}

// TenantMiddleware 租户解析中间件
// 解析优先级：X-Tenant-ID头 > 子域名 > 自定义域名 > /t/<slug>路径前缀
type TenantMiddleware struct {
	dir    TenantDirectory
	engine *gin.Engine
	mode   string // gin运行模式，非release时回显租户响应头
}

// 路径前缀剥离重入路由时，gin会清空c.Keys，
// 已解析的租户通过请求context跨越重入传递
type tenantCtxKey struct{}

// 无需租户上下文的API端点
var publicEndpoints = []string{
	"/api/v1/health",
	"/api/v1/ping",
	"/api/v1/docs",
	"/api/v1/plans",
	"/api/v1/signup",
}

func NewTenantMiddleware(dir TenantDirectory, engine *gin.Engine, mode string) *TenantMiddleware {
	return &TenantMiddleware{dir: dir, engine: engine, mode: mode}
}

// Resolve 租户解析入口
// 目录查询的存储故障只记录日志并按匿名放行，目录故障不升级为请求失败
func (m *TenantMiddleware) Resolve() gin.HandlerFunc {
	return func(c *gin.Context) {
		// /t/<slug>前缀剥离后重入路由时不再重复解析
		if tenant, ok := c.Request.Context().Value(tenantCtxKey{}).(*models.Tenant); ok {
			c.Set("tenant", tenant)
			c.Set("tenant_id", tenant.ID)
			c.Next()
			return
		}

		tenant, storageFailed := m.resolve(c)

		// 路径前缀命中时请求已由重入路由处理完毕
		if c.IsAborted() {
			return
		}

		if tenant != nil {
			c.Set("tenant", tenant)
			c.Set("tenant_id", tenant.ID)

			// 非生产环境回显租户信息，方便调试
			if m.mode != gin.ReleaseMode {
				c.Header("X-Tenant-ID", formatUint(tenant.ID))
				c.Header("X-Tenant-Slug", tenant.Slug)
			}

			logger.GetLogger().Debugf("Tenant resolved: id=%d slug=%s host=%s path=%s",
				tenant.ID, tenant.Slug, c.Request.Host, c.Request.URL.Path)
		}

		// 目录故障时跳过强制校验，降级为匿名路由
		if storageFailed {
			c.Next()
			return
		}

		// API命名空间内非公开端点必须有租户上下文
		path := c.Request.URL.Path
		if tenant == nil && strings.HasPrefix(path, "/api/") && !strings.HasPrefix(path, "/api/public/") {
			isPublic := false
			for _, endpoint := range publicEndpoints {
				if strings.HasPrefix(path, endpoint) {
					isPublic = true
					break
				}
			}
			if !isPublic {
				response.BadRequest(c, "无法识别租户，请通过子域名、自定义域名或X-Tenant-ID头指定")
				c.Abort()
				return
			}
		}

		c.Next()
	}
}

// resolve 依优先级逐一尝试，前一步命中则不再继续
// 返回值second为true表示目录查询出现存储故障
func (m *TenantMiddleware) resolve(c *gin.Context) (*models.Tenant, bool) {
	log := logger.GetLogger()

	// 方式1：显式租户头（API客户端）
	if header := c.GetHeader("X-Tenant-ID"); header != "" {
		if id := parseUint(header); id > 0 {
			tenant, err := m.dir.GetActiveByID(id)
			if err == nil {
				return tenant, false
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				log.Errorf("租户目录查询失败(header): %v", err)
				return nil, true
			}
		}
	}

	hostname := hostWithoutPort(c.Request.Host)

	// 方式2：子域名（如 demo.eventhouse.com）
	if hostname != "" {
		parts := strings.Split(hostname, ".")
		if len(parts) >= 3 {
			tenant, err := m.dir.GetActiveBySubdomain(parts[0])
			if err == nil {
				return tenant, false
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				log.Errorf("租户目录查询失败(subdomain): %v", err)
				return nil, true
			}
		}
	}

	// 方式3：自定义域名（如 events.company.com），本地域名跳过
	if hostname != "" && !strings.Contains(hostname, "localhost") && hostname != "127.0.0.1" {
		tenant, err := m.dir.GetActiveByCustomDomain(hostname)
		if err == nil {
			return tenant, false
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Errorf("租户目录查询失败(custom domain): %v", err)
			return nil, true
		}
	}

	// 方式4：路径中的租户slug（开发环境），命中后剥离前缀重入路由
	path := c.Request.URL.Path
	if strings.HasPrefix(path, "/t/") {
		parts := strings.SplitN(path, "/", 4)
		if len(parts) >= 3 && parts[2] != "" {
			slug := parts[2]
			tenant, err := m.dir.GetActiveBySlug(slug)
			if err == nil {
				stripped := strings.TrimPrefix(path, "/t/"+slug)
				if stripped == "" {
					stripped = "/"
				}
				c.Request.URL.Path = stripped
				ctx := context.WithValue(c.Request.Context(), tenantCtxKey{}, tenant)
				c.Request = c.Request.WithContext(ctx)
				if m.engine != nil {
					m.engine.HandleContext(c)
					c.Abort()
					return tenant, false
				}
				return tenant, false
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				log.Errorf("租户目录查询失败(path slug): %v", err)
				return nil, true
			}
		}
	}

	return nil, false
}

// RequireTenant 必须有租户上下文的路由使用
func RequireTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get("tenant"); !exists {
			response.BadRequest(c, "该操作需要有效的租户上下文")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetTenant 从上下文取出已解析的租户
func GetTenant(c *gin.Context) *models.Tenant {
	value, exists := c.Get("tenant")
	if !exists {
		return nil
	}
	tenant, ok := value.(*models.Tenant)
	if !ok {
		return nil
	}
	return tenant
}

// hostWithoutPort 去掉Host中的端口，IPv6字面量同时去掉方括号
func hostWithoutPort(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	// 无端口时SplitHostPort报错，原样返回（IPv6仅剥掉括号）
	return strings.Trim(host, "[]")
}

func parseUint(s string) uint {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0
	}
	return uint(n)
}

func formatUint(n uint) string {
	return strconv.FormatUint(uint64(n), 10)
}
