package db

import (
	"context"
	"fmt"

	"github.com/avast/retry-go/v5"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/diewo77/go-policy/internal/config"
)

// Open returns the gorm dialector for the configured driver.
func Open(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "postgres":
		return postgres.Open(cfg.PostgresDSN()), nil
	case "sqlite":
		return sqlite.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Connect opens the database, retrying while it comes up (postgres in
// docker-compose usually starts after the app).
func Connect(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	if log == nil {
		log = zap.NewNop()
	}
	dialector, err := Open(cfg)
	if err != nil {
		return nil, err
	}
	attempts := cfg.Attempts
	if attempts == 0 {
		attempts = 1
	}

	var (
		conn    *gorm.DB
		attempt uint
	)
	err = retry.New(
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.DelayType(retry.BackOffDelay),
	).Do(func() error {
		attempt++
		db, err := ping(ctx, dialector)
		if err != nil {
			log.Warn("database connection failed",
				zap.Uint("attempt", attempt),
				zap.Uint("attempts", attempts),
				zap.Error(err))
			return err
		}
		conn = db
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Driver, err)
	}
	return conn, nil
}

func ping(ctx context.Context, dialector gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Discard, TranslateError: true})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}
