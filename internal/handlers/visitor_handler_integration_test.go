//go:build integration

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"eventhouse/internal/models"
	"eventhouse/internal/services"
	"eventhouse/pkg/badge"
	"eventhouse/pkg/testutil/containers"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newVisitorLookupRouter(t *testing.T, db *gorm.DB, tenant *models.Tenant) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	renderer, err := badge.NewRenderer(t.TempDir())
	require.NoError(t, err)
	svc := services.NewRegistrationService(db, badge.NewCodec("eventhouse-badge-encryption-key3"), renderer)
	handler := NewVisitorHandler(svc)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("tenant", tenant)
		c.Set("tenant_id", tenant.ID)
	})
	r.GET("/api/v1/visitors/:code", handler.GetByCode)
	return r
}

// 按注册码查询：未知码404，存在200，存储故障不得伪装成404
func TestVisitorGetByCodeStatuses(t *testing.T) {
	db := containers.NewPostgresDB(t)

	tenant := &models.Tenant{Name: "acme", Slug: "acme", Subdomain: "acme", IsActive: true}
	require.NoError(t, db.Create(tenant).Error)
	event := &models.Event{
		TenantID: tenant.ID,
		Name:     "年度大会",
		Slug:     "annual-conf",
		Status:   models.EventStatusPublished,
	}
	require.NoError(t, db.Create(event).Error)
	category := &models.GuestCategory{
		TenantID: tenant.ID, Code: "VIP", Name: "贵宾", Color: "#FFD700", Priority: 1, IsActive: true,
	}
	require.NoError(t, db.Create(category).Error)
	visitor := &models.Visitor{
		PublicID:         uuid.New().String(),
		TenantID:         tenant.ID,
		EventID:          event.ID,
		CategoryID:       category.ID,
		RegistrationCode: "VIP001",
		Name:             "张伟",
		Email:            "zhangwei@example.com",
		Phone:            "13800000001",
		Status:           models.VisitorStatusRegistered,
	}
	require.NoError(t, db.Create(visitor).Error)

	router := newVisitorLookupRouter(t, db, tenant)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/visitors/NOPE999", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/visitors/VIP001", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "VIP001")

	// 关闭连接池模拟存储故障，此时必须是500而不是404
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/visitors/VIP001", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
