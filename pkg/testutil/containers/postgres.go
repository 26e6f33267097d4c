//go:build integration

package containers

import (
	"context"
	"testing"

	"eventhouse/internal/models"

	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewPostgresDB 启动一次性postgres容器并完成建表
// 计数器自增与唯一索引语义只在真实数据库上成立，相关行为必须在这里验证
func NewPostgresDB(t *testing.T) *gorm.DB {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("eventhouse_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		_ = container.Terminate(ctx)
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect postgres: %v", err)
	}

	err = db.AutoMigrate(
		&models.Tenant{},
		&models.SubscriptionPlan{},
		&models.TenantSubscription{},
		&models.User{},
		&models.Event{},
		&models.GuestCategory{},
		&models.Visitor{},
		&models.RegistrationCounter{},
		&models.CheckIn{},
	)
	if err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	return db
}
