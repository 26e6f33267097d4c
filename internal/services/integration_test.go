//go:build integration

package services

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"eventhouse/internal/models"
	"eventhouse/pkg/badge"
	apperrors "eventhouse/pkg/errors"
	"eventhouse/pkg/testutil/containers"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestRegistrationService(t *testing.T, db *gorm.DB) *RegistrationService {
	t.Helper()
	renderer, err := badge.NewRenderer(t.TempDir())
	require.NoError(t, err)
	return NewRegistrationService(db, badge.NewCodec("eventhouse-badge-encryption-key3"), renderer)
}

func seedTenantEvent(t *testing.T, db *gorm.DB, slug string) (*models.Tenant, *models.Event) {
	t.Helper()

	tenant := &models.Tenant{Name: slug, Slug: slug, Subdomain: slug, IsActive: true}
	require.NoError(t, db.Create(tenant).Error)

	event := &models.Event{
		TenantID: tenant.ID,
		Name:     "年度大会",
		Slug:     "annual-conf",
		Status:   models.EventStatusPublished,
	}
	require.NoError(t, db.Create(event).Error)

	category := &models.GuestCategory{
		TenantID: tenant.ID,
		Code:     "VIP",
		Name:     "贵宾",
		Color:    "#FFD700",
		Priority: 1,
		IsActive: true,
	}
	require.NoError(t, db.Create(category).Error)

	return tenant, event
}

// 并发发码：同一（租户，类别）下所有编号必须互不相同且连续覆盖
func TestAllocateCodeConcurrent(t *testing.T) {
	db := containers.NewPostgresDB(t)
	svc := newTestRegistrationService(t, db)
	tenant, _ := seedTenantEvent(t, db, "acme")

	const n = 20
	codes := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			code, err := svc.AllocateCode(tenant.ID, "VIP")
			assert.NoError(t, err)
			codes <- code
		}()
	}
	wg.Wait()
	close(codes)

	seen := make(map[string]bool, n)
	for code := range codes {
		assert.False(t, seen[code], "duplicate code %s", code)
		seen[code] = true
	}
	require.Len(t, seen, n)
	for i := 1; i <= n; i++ {
		assert.Contains(t, seen, FormatRegistrationCode("VIP", int64(i)))
	}
}

// 计数器按（租户，类别）隔离，互不影响
func TestAllocateCodeIsolated(t *testing.T) {
	db := containers.NewPostgresDB(t)
	svc := newTestRegistrationService(t, db)
	tenantA, _ := seedTenantEvent(t, db, "acme")
	tenantB, _ := seedTenantEvent(t, db, "globex")

	code, err := svc.AllocateCode(tenantA.ID, "VIP")
	require.NoError(t, err)
	assert.Equal(t, "VIP001", code)

	code, err = svc.AllocateCode(tenantA.ID, "SPK")
	require.NoError(t, err)
	assert.Equal(t, "SPK001", code)

	// 另一租户的同名类别从001重新开始
	code, err = svc.AllocateCode(tenantB.ID, "VIP")
	require.NoError(t, err)
	assert.Equal(t, "VIP001", code)

	code, err = svc.AllocateCode(tenantA.ID, "VIP")
	require.NoError(t, err)
	assert.Equal(t, "VIP002", code)
}

// 完整报名流：顺序发码，重复邮箱409
func TestRegisterSequenceAndDuplicateEmail(t *testing.T) {
	db := containers.NewPostgresDB(t)
	svc := newTestRegistrationService(t, db)
	tenant, event := seedTenantEvent(t, db, "acme")

	first, err := svc.Register(tenant.ID, nil, &RegisterRequest{
		Name: "张伟", Email: "zhangwei@example.com", Phone: "13800000001",
		CategoryCode: "VIP", EventID: event.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "VIP001", first.RegistrationCode)
	assert.NotEmpty(t, first.QRCodeData)

	second, err := svc.Register(tenant.ID, nil, &RegisterRequest{
		Name: "李娜", Email: "lina@example.com", Phone: "13800000002",
		CategoryCode: "VIP", EventID: event.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "VIP002", second.RegistrationCode)

	_, err = svc.Register(tenant.ID, nil, &RegisterRequest{
		Name: "张伟", Email: "zhangwei@example.com", Phone: "13800000001",
		CategoryCode: "VIP", EventID: event.ID,
	})
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.CodeConflict, appErr.Code)
}

// 唯一索引兜底：绕过预检直接写入重复邮箱，TranslateError须给出ErrDuplicatedKey
func TestVisitorEmailUniqueIndexTranslated(t *testing.T) {
	db := containers.NewPostgresDB(t)
	tenant, event := seedTenantEvent(t, db, "acme")

	mkVisitor := func(email, code string) *models.Visitor {
		return &models.Visitor{
			PublicID:         uuid.New().String(),
			TenantID:         tenant.ID,
			EventID:          event.ID,
			CategoryID:       1,
			RegistrationCode: code,
			Name:             "张伟",
			Email:            email,
			Phone:            "13800000001",
			Status:           models.VisitorStatusRegistered,
		}
	}

	require.NoError(t, db.Create(mkVisitor("zhangwei@example.com", "VIP001")).Error)

	err := db.Create(mkVisitor("zhangwei@example.com", "VIP002")).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	// 注册码在租户内同样受唯一索引保护
	err = db.Create(mkVisitor("other@example.com", "VIP001")).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

// 双扫竞态：并发签到同一参会者，恰好一次成功、一次409
func TestCheckInDoubleScan(t *testing.T) {
	db := containers.NewPostgresDB(t)
	regSvc := newTestRegistrationService(t, db)
	checkinSvc := NewCheckInService(db)
	tenant, event := seedTenantEvent(t, db, "acme")

	visitor, err := regSvc.Register(tenant.ID, nil, &RegisterRequest{
		Name: "张伟", Email: "zhangwei@example.com", Phone: "13800000001",
		CategoryCode: "VIP", EventID: event.ID,
	})
	require.NoError(t, err)

	results := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := checkinSvc.CheckIn(tenant.ID, visitor.ID, 1, nil)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, conflicts int
	for err := range results {
		if err == nil {
			successes++
			continue
		}
		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr, "unexpected error: %v", err)
		require.Equal(t, apperrors.CodeConflict, appErr.Code)
		conflicts++
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, conflicts)

	// 台账恰好一条记录，状态完成单向转移
	var count int64
	require.NoError(t, db.Model(&models.CheckIn{}).
		Where("visitor_id = ?", visitor.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var after models.Visitor
	require.NoError(t, db.First(&after, visitor.ID).Error)
	assert.Equal(t, models.VisitorStatusCheckedIn, after.Status)
	assert.NotNil(t, after.CheckedInAt)
}

// 顺序重扫同样409，且不产生第二条台账记录
func TestCheckInRepeatedScan(t *testing.T) {
	db := containers.NewPostgresDB(t)
	regSvc := newTestRegistrationService(t, db)
	checkinSvc := NewCheckInService(db)
	tenant, event := seedTenantEvent(t, db, "acme")

	visitor, err := regSvc.Register(tenant.ID, nil, &RegisterRequest{
		Name: "李娜", Email: "lina@example.com", Phone: "13800000002",
		CategoryCode: "VIP", EventID: event.ID,
	})
	require.NoError(t, err)

	record, err := checkinSvc.CheckIn(tenant.ID, visitor.ID, 1, &CheckInDetails{
		Location: "东门", GateNumber: "G3",
	})
	require.NoError(t, err)
	assert.Equal(t, "东门", record.Location)

	_, err = checkinSvc.CheckIn(tenant.ID, visitor.ID, 1, nil)
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr), fmt.Sprintf("unexpected error: %v", err))
	assert.Equal(t, apperrors.CodeConflict, appErr.Code)
}
