package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/diewo77/go-policy/internal/config"
	"github.com/diewo77/go-policy/internal/db"
)

func TestApp_E2E(t *testing.T) {
	cfg := &config.Config{
		Database: config.DatabaseConfig{Driver: "sqlite", DSN: "file:e2e_" + t.Name() + "?mode=memory&cache=shared", Attempts: 1},
		Auth:     config.AuthConfig{Secret: "test", Issuer: "go-policy", TokenTTL: time.Hour},
		Cache:    config.CacheConfig{ProfileTTL: time.Minute},
	}
	ctx := context.Background()
	conn, err := db.Connect(ctx, cfg.Database, nil)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))
	require.NoError(t, db.Seed(conn, "admin@example.com", "pw"))

	app, err := NewApp(cfg, conn, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, app.Start(ctx), "no redis configured")
	defer app.Close()

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		app.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	assert.Equal(t, http.StatusOK, get("/healthz").Code)
	assert.Equal(t, http.StatusUnauthorized, get("/api/products").Code)

	metrics := get("/metrics")
	require.Equal(t, http.StatusOK, metrics.Code)
	assert.Contains(t, metrics.Body.String(), "go_goroutines")
}
