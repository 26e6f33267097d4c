package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"eventhouse/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSubscriptions struct {
	sub *models.TenantSubscription
	err error
}

func (s *stubSubscriptions) CurrentActive(tenantID uint) (*models.TenantSubscription, error) {
	return s.sub, s.err
}

type stubUsage struct {
	events     int64
	adminUsers int64
	err        error
}

func (s *stubUsage) CountEvents(tenantID uint) (int64, error) {
	return s.events, s.err
}

func (s *stubUsage) CountAdminUsers(tenantID uint) (int64, error) {
	return s.adminUsers, s.err
}

func activeSubscription(maxEvents, maxAdminUsers int) *models.TenantSubscription {
	return &models.TenantSubscription{
		TenantID: 1,
		Status:   models.SubscriptionStatusActive,
		Plan: &models.SubscriptionPlan{
			Name:          "专业版",
			Slug:          "pro",
			MaxEvents:     maxEvents,
			MaxAdminUsers: maxAdminUsers,
		},
	}
}

// newGateTestRouter 租户上下文直接注入，只测订阅门禁本身
func newGateTestRouter(subs SubscriptionSource, usage UsageCounters, limitKind string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		tenant := &models.Tenant{Slug: "demo", IsActive: true}
		tenant.ID = 1
		c.Set("tenant", tenant)
	})

	mw := NewSubscriptionMiddleware(subs, usage)
	handlers := []gin.HandlerFunc{mw.RequireActiveSubscription()}
	if limitKind != "" {
		handlers = append(handlers, mw.CheckLimit(limitKind))
	}
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.POST("/api/v1/resource", handlers...)
	return r
}

func postResource(r *gin.Engine) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/resource", nil)
	r.ServeHTTP(w, req)
	return w
}

func TestGatePassesWithActiveSubscription(t *testing.T) {
	subs := &stubSubscriptions{sub: activeSubscription(10, 10)}
	r := newGateTestRouter(subs, &stubUsage{}, "")

	w := postResource(r)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGateRejectsMissingSubscription(t *testing.T) {
	subs := &stubSubscriptions{sub: nil}
	r := newGateTestRouter(subs, &stubUsage{}, "")

	w := postResource(r)
	assert.Equal(t, http.StatusPaymentRequired, w.Code)
}

func TestGateRejectsPastDueSubscription(t *testing.T) {
	sub := activeSubscription(10, 10)
	sub.Status = models.SubscriptionStatusPastDue
	r := newGateTestRouter(&stubSubscriptions{sub: sub}, &stubUsage{}, "")

	w := postResource(r)
	assert.Equal(t, http.StatusPaymentRequired, w.Code)
}

func TestGateStorageFailure(t *testing.T) {
	subs := &stubSubscriptions{err: errors.New("connection refused")}
	r := newGateTestRouter(subs, &stubUsage{}, "")

	w := postResource(r)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCheckLimitAllowsUnderLimit(t *testing.T) {
	subs := &stubSubscriptions{sub: activeSubscription(10, 10)}
	usage := &stubUsage{events: 9}
	r := newGateTestRouter(subs, usage, models.LimitKindEvents)

	w := postResource(r)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCheckLimitRejectsAtLimit(t *testing.T) {
	subs := &stubSubscriptions{sub: activeSubscription(10, 10)}
	usage := &stubUsage{events: 10}
	r := newGateTestRouter(subs, usage, models.LimitKindEvents)

	w := postResource(r)
	require.Equal(t, http.StatusTooManyRequests, w.Code)

	var body struct {
		Data struct {
			LimitKind    string `json:"limit_kind"`
			CurrentUsage int64  `json:"current_usage"`
			Limit        int64  `json:"limit"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, models.LimitKindEvents, body.Data.LimitKind)
	assert.Equal(t, int64(10), body.Data.CurrentUsage)
	assert.Equal(t, int64(10), body.Data.Limit)
}

func TestCheckLimitAdminUsers(t *testing.T) {
	subs := &stubSubscriptions{sub: activeSubscription(10, 2)}
	usage := &stubUsage{adminUsers: 2}
	r := newGateTestRouter(subs, usage, models.LimitKindAdminUsers)

	w := postResource(r)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestCheckLimitVisitorsDeferredToService(t *testing.T) {
	// 每场活动参会人数限额依赖活动ID，由报名服务在写入时检查
	subs := &stubSubscriptions{sub: activeSubscription(10, 10)}
	r := newGateTestRouter(subs, &stubUsage{}, models.LimitKindVisitorsPerEvent)

	w := postResource(r)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCheckLimitUsageCountFailure(t *testing.T) {
	subs := &stubSubscriptions{sub: activeSubscription(10, 10)}
	usage := &stubUsage{err: errors.New("connection refused")}
	r := newGateTestRouter(subs, usage, models.LimitKindEvents)

	w := postResource(r)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
