package policy

import (
	"context"
	"net/http"
	"time"

	"github.com/diewo77/go-policy/auth"
	"github.com/diewo77/go-policy/gate"
	"github.com/diewo77/go-policy/httpx"
	"gorm.io/gorm"
)

// AuthGate holds the configured Gate with a cached profile resolver.
// Use this as a central authorization point in your application.
type AuthGate struct {
	Gate          *gate.Gate[uint]
	CacheResolver *gate.CachedResolver[uint]
}

// NewAuthGate creates a fully configured authorization gate.
//   - db: GORM database connection for profile lookups
//   - cacheTTL: how long to cache user profiles (e.g., 5*time.Minute)
//   - cacheSize: cached profiles kept at most (0 uses gate.DefaultCacheSize)
func NewAuthGate(db *gorm.DB, cacheTTL time.Duration, cacheSize int, opts ...gate.Option) *AuthGate {
	// Wrap the DB resolver with caching to avoid DB queries on every request
	cachedResolver := gate.NewCachedResolverSize[uint](NewDBProfileResolver(db), cacheTTL, cacheSize)

	g := gate.New(gate.NewRegistry[uint](), opts...).UseProfiles(cachedResolver)

	return &AuthGate{
		Gate:          g,
		CacheResolver: cachedResolver,
	}
}

// RegisterPolicy adds a policy for a resource type.
// Example: authGate.RegisterPolicy("product", policy.NewOwnershipPolicy())
func (ag *AuthGate) RegisterPolicy(resourceType string, p gate.Policy[uint]) {
	ag.Gate.Registry().Register(resourceType, p)
}

// RegisterOwned registers an ownership policy with admin bypass for the
// model's resource type.
func (ag *AuthGate) RegisterOwned(model any) {
	ag.Gate.Registry().RegisterFor(model, NewAdminBypassPolicy(NewOwnershipPolicy(), ag.IsAdmin))
}

// Authorize checks if the current user can perform an action on a resource.
// Returns nil if authorized, a gate.ErrUnauthorized match otherwise.
func (ag *AuthGate) Authorize(ctx context.Context, action gate.Action, resource any, excludeMissing bool) error {
	userID, _ := auth.UserIDFromContext(ctx)
	return ag.Gate.Authorize(ctx, userID, action, resource, excludeMissing)
}

// Can is a convenience method that returns bool instead of error.
func (ag *AuthGate) Can(ctx context.Context, action gate.Action, resource any) bool {
	return ag.Authorize(ctx, action, resource, false) == nil
}

// CanProfile checks only profile permissions (no ownership check).
// Useful for UI to show/hide buttons before a specific resource is loaded.
func (ag *AuthGate) CanProfile(ctx context.Context, action gate.Action, resourceType string) bool {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return false
	}
	return ag.Gate.CanProfile(ctx, userID, action, resourceType)
}

// IsAdmin reports whether the user's profile holds the "*:*" permission.
func (ag *AuthGate) IsAdmin(ctx context.Context, userID uint) bool {
	if userID == 0 {
		return false
	}
	profile, err := ag.CacheResolver.Resolve(ctx, userID)
	return err == nil && profile != nil && profile.HasPermission(gate.PermissionSuperAdmin)
}

// Qualifier returns the query qualifier bound to model.
func (ag *AuthGate) Qualifier(model any) *gate.Qualifier[uint] {
	return ag.Gate.Qualifier(model)
}

// Abilities returns, for each registered resource type, the actions the
// current user's profile allows.
func (ag *AuthGate) Abilities(ctx context.Context) map[string][]gate.Action {
	out := make(map[string][]gate.Action)
	for _, resourceType := range ag.Gate.Registry().Types() {
		allowed := []gate.Action{}
		for _, action := range gate.CRUD() {
			if ag.CanProfile(ctx, action, resourceType) {
				allowed = append(allowed, action)
			}
		}
		out[resourceType] = allowed
	}
	return out
}

// InvalidateUser clears the cache for a specific user.
// Call this when a user's profile is changed.
func (ag *AuthGate) InvalidateUser(userID uint) {
	ag.CacheResolver.Invalidate(userID)
}

// InvalidateAll clears the entire profile cache.
// Call this when profile permissions are modified.
func (ag *AuthGate) InvalidateAll() {
	ag.CacheResolver.InvalidateAll()
}

// RequirePermission returns middleware that checks profile permission.
// Blocks access if user doesn't have the required permission.
func (ag *AuthGate) RequirePermission(resourceType string, action gate.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !ag.CanProfile(r.Context(), action, resourceType) {
				httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin returns middleware that only allows users with admin profile.
// Uses the "*:*" superadmin permission check.
func (ag *AuthGate) RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := auth.UserIDFromContext(r.Context())
			if !ok {
				httpx.JSONError(w, http.StatusUnauthorized, "unauthenticated", nil)
				return
			}
			if !ag.IsAdmin(r.Context(), userID) {
				httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
