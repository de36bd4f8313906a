package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"jobboard/internal/core/cache"
	"jobboard/internal/core/config"
	"jobboard/internal/core/database"
	"jobboard/internal/core/logger"
	"jobboard/internal/domain"
	"jobboard/internal/identity"
)

// 种子程序：建表 + 权限/角色种子 + 初始 admin 账号。
// 幂等，可重复跑；-grant-admin 给已有账号补发 admin 角色
func main() {
	var (
		adminEmail    = flag.String("admin-email", os.Getenv("ADMIN_EMAIL"), "initial admin account email")
		adminPassword = flag.String("admin-password", os.Getenv("ADMIN_PASSWORD"), "initial admin account password")
		grantAdmin    = flag.String("grant-admin", "", "grant the admin role to an existing user by email")
	)
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	log, cleanup := logger.New(cfg.Log.Level, cfg.Log.JSON)
	defer cleanup()

	db := mustOpenDB(cfg, log)
	if err := db.AutoMigrate(domain.Models()...); err != nil {
		log.Fatal("automigrate failed", zap.Error(err))
	}

	store := identity.NewStore(db, cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if *grantAdmin != "" {
		if err := store.GrantAdmin(ctx, *grantAdmin); err != nil {
			log.Fatal("grant admin failed", zap.String("email", *grantAdmin), zap.Error(err))
		}
		log.Info("admin role granted", zap.String("email", *grantAdmin))
		return
	}

	if err := store.Bootstrap(ctx, log, *adminEmail, *adminPassword); err != nil {
		log.Fatal("bootstrap failed", zap.Error(err))
	}
	log.Info("bootstrap done")
}

func mustOpenDB(cfg *config.Config, l *zap.Logger) *gorm.DB {
	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
	})
	if err != nil {
		l.Fatal("db open", zap.Error(err))
	}
	return db
}
