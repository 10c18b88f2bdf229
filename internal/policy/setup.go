package policy

import (
	"gorm.io/gorm"

	"github.com/diewo77/go-policy/gate"
	"github.com/diewo77/go-policy/internal/config"
	"github.com/diewo77/go-policy/internal/models"
)

// Setup creates the application gate and registers the policy of every
// served model. Admins bypass ownership; everybody else only sees and edits
// their own products and clients.
//
// Example usage in your router setup:
//
//	ag := policy.Setup(db, cfg.Cache, gate.WithLogger(logger))
//	r.With(ag.RequirePermission("product", gate.ActionList)).Get("/products", list)
//	r.With(ag.RequireAdmin()).Post("/admin/cache/flush", flush)
func Setup(db *gorm.DB, cfg config.CacheConfig, opts ...gate.Option) *AuthGate {
	ag := NewAuthGate(db, cfg.ProfileTTL, cfg.ProfileSize, opts...)
	ag.RegisterOwned(&models.Product{})
	ag.RegisterOwned(&models.Client{})
	return ag
}
