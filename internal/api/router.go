package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/diewo77/go-policy/auth"
	"github.com/diewo77/go-policy/httpx"
	"github.com/diewo77/go-policy/internal/models"
	"github.com/diewo77/go-policy/internal/policy"
	"github.com/diewo77/go-policy/internal/telemetry"
)

// Deps are the collaborators of the router. Metrics and Audit are optional.
type Deps struct {
	DB      *gorm.DB
	Auth    *auth.Authenticator
	Gate    *policy.AuthGate
	Cache   Invalidator
	Audit   AuditLog
	Metrics http.Handler
	Logger  *zap.Logger
}

// NewRouter wires every route of the API.
func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(telemetry.AccessLog(d.Logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", health(d.DB))
	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics)
	}

	sessions := NewSessionHandler(d.DB, d.Auth, d.Gate, d.Logger)
	admin := NewAdminHandler(d.DB, d.Cache, d.Audit, d.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(d.Auth.Middleware)

		r.Post("/login", sessions.Login)
		r.Post("/logout", sessions.Logout)

		r.Group(func(r chi.Router) {
			r.Use(d.Auth.RequireAuth)

			r.Get("/me", sessions.Me)
			r.Get("/me/abilities", sessions.Abilities)

			r.Route("/products", NewResource[models.Product](d.DB, d.Gate, ProductConfig, d.Logger).Routes)
			r.Route("/clients", NewResource[models.Client](d.DB, d.Gate, ClientConfig, d.Logger).Routes)

			r.Route("/admin", func(r chi.Router) {
				r.Use(d.Gate.RequireAdmin())
				admin.Routes(r)
			})
		})
	})

	return r
}

func health(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(r.Context())
		}
		if err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
