package policy

import (
	"context"
	"errors"

	"github.com/diewo77/go-policy/gate"
	"github.com/diewo77/go-policy/internal/models"
	"gorm.io/gorm"
)

// DBProfileResolver fetches user profiles from the database.
// It implements the gate.ProfileResolver interface for uint user IDs.
type DBProfileResolver struct {
	DB *gorm.DB
}

// NewDBProfileResolver creates a new database-backed profile resolver.
func NewDBProfileResolver(db *gorm.DB) *DBProfileResolver {
	return &DBProfileResolver{DB: db}
}

// Resolve looks up the user's profile from the database, preloading permissions.
// Returns nil if user has no profile assigned or user not found.
func (r *DBProfileResolver) Resolve(ctx context.Context, userID uint) (gate.Profile, error) {
	var user models.User
	err := r.DB.WithContext(ctx).Preload("Profile.Permissions").First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if user.Profile == nil {
		return nil, nil // User has no profile assigned
	}
	return newDBProfile(user.Profile), nil
}

// dbProfile is a read-only snapshot of a models.Profile. The permission
// codes are converted once so cached profiles match without allocating.
type dbProfile struct {
	id    uint
	name  string
	perms []gate.Permission
}

func newDBProfile(p *models.Profile) *dbProfile {
	return &dbProfile{id: p.ID, name: p.Name, perms: p.Grants()}
}

func (a *dbProfile) ID() uint     { return a.id }
func (a *dbProfile) Name() string { return a.name }

// HasPermission checks if the profile has the requested permission.
// Supports wildcards: "*:*" (superadmin) and "resource:*" (all actions on resource).
func (a *dbProfile) HasPermission(perm gate.Permission) bool {
	return gate.Grants(a.perms, perm)
}

// Permissions returns a copy of the profile permissions.
func (a *dbProfile) Permissions() []gate.Permission {
	return append([]gate.Permission(nil), a.perms...)
}
