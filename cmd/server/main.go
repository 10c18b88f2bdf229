package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/diewo77/go-policy/internal/config"
	"github.com/diewo77/go-policy/internal/db"
	"github.com/diewo77/go-policy/internal/telemetry"
)

var (
	migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")
	seedOnlyFlag    = flag.Bool("seed-only", false, "Run DB seed and exit")
)

func main() {
	flag.Parse()

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := telemetry.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbConn, err := db.Connect(ctx, cfg.Database, logger.Named("db"))
	if err != nil {
		return err
	}

	// Handle migrate-only and seed-only flags
	if *migrateOnlyFlag {
		if err := db.Migrate(dbConn); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		logger.Info("migrations completed")
		return nil
	}
	if *seedOnlyFlag {
		if err := db.Seed(dbConn, cfg.App.AdminEmail, cfg.App.AdminPassword); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		logger.Info("seeding completed")
		return nil
	}

	if cfg.App.Migrations {
		if err := db.Migrate(dbConn); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		logger.Info("migrations completed")
	}
	if cfg.App.Seed {
		if err := db.Seed(dbConn, cfg.App.AdminEmail, cfg.App.AdminPassword); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}

	app, err := NewApp(cfg, dbConn, logger)
	if err != nil {
		return err
	}
	defer app.Close()
	if err := app.Start(ctx); err != nil {
		// Invalidations then stay local; profiles still expire on TTL.
		logger.Warn("cache bus disabled", zap.Error(err))
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      app.Handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Server.Port), zap.Bool("dev", cfg.App.Dev))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped gracefully")
	return nil
}
