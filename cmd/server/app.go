package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/diewo77/go-policy/auth"
	"github.com/diewo77/go-policy/gate"
	"github.com/diewo77/go-policy/internal/api"
	"github.com/diewo77/go-policy/internal/audit"
	"github.com/diewo77/go-policy/internal/cache"
	"github.com/diewo77/go-policy/internal/config"
	"github.com/diewo77/go-policy/internal/policy"
)

// App holds the wired application.
type App struct {
	Handler http.Handler
	bus     *cache.Bus
	rdb     *redis.Client
}

// NewApp wires the gate, its observers and the HTTP API around dbConn.
func NewApp(cfg *config.Config, dbConn *gorm.DB, logger *zap.Logger) (*App, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	recorder := audit.NewRecorder(dbConn, logger)
	ag := policy.Setup(dbConn, cfg.Cache,
		gate.WithLogger(logger),
		gate.WithMetrics(gate.NewMetrics(reg)),
		gate.WithObserver(recorder.Observe),
	)

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	bus := cache.NewBus(rdb, cfg.Redis.Channel, ag.CacheResolver, logger)

	authenticator := auth.New(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	authenticator.SetUserVerifier(api.UserExists(dbConn))

	handler := api.NewRouter(api.Deps{
		DB:      dbConn,
		Auth:    authenticator,
		Gate:    ag,
		Cache:   bus,
		Audit:   recorder,
		Metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		Logger:  logger,
	})
	return &App{Handler: handler, bus: bus, rdb: rdb}, nil
}

// Start runs background workers until ctx is done.
func (a *App) Start(ctx context.Context) error {
	if a.rdb == nil {
		return nil
	}
	if err := a.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	go a.bus.Listen(ctx)
	return nil
}

// Close releases the redis connection.
func (a *App) Close() error {
	if a.rdb == nil {
		return nil
	}
	return a.rdb.Close()
}
