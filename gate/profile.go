package gate

import (
	"context"
	"slices"
	"sync"
)

// Profile is a named set of permissions assigned to principals.
type Profile interface {
	ID() uint
	Name() string
	HasPermission(permission Permission) bool
	Permissions() []Permission
}

// ProfileResolver returns the profile of a principal. A nil profile with a
// nil error means the principal has none.
type ProfileResolver[U any] interface {
	Resolve(ctx context.Context, user U) (Profile, error)
}

// ProfileResolverFunc adapts a function to ProfileResolver.
type ProfileResolverFunc[U any] func(ctx context.Context, user U) (Profile, error)

// Resolve implements ProfileResolver.
func (f ProfileResolverFunc[U]) Resolve(ctx context.Context, user U) (Profile, error) {
	return f(ctx, user)
}

// Grants reports whether any of perms covers requested.
func Grants(perms []Permission, requested Permission) bool {
	return slices.ContainsFunc(perms, func(p Permission) bool { return p.Matches(requested) })
}

// StaticProfile is an in-memory Profile, for tests and fixed configuration.
type StaticProfile struct {
	id    uint
	name  string
	perms []Permission
}

// NewStaticProfile creates a profile holding the given permissions.
func NewStaticProfile(id uint, name string, permissions ...Permission) *StaticProfile {
	perms := slices.Clone(permissions)
	slices.Sort(perms)
	return &StaticProfile{id: id, name: name, perms: slices.Compact(perms)}
}

func (p *StaticProfile) ID() uint     { return p.id }
func (p *StaticProfile) Name() string { return p.name }

// Permissions returns a sorted copy of the granted permissions.
func (p *StaticProfile) Permissions() []Permission { return slices.Clone(p.perms) }

// HasPermission honours wildcard grants.
func (p *StaticProfile) HasPermission(requested Permission) bool {
	return Grants(p.perms, requested)
}

// StaticResolver maps principals to profiles in memory.
type StaticResolver[U comparable] struct {
	mu       sync.RWMutex
	profiles map[U]Profile
}

// NewStaticResolver creates an empty resolver.
func NewStaticResolver[U comparable]() *StaticResolver[U] {
	return &StaticResolver[U]{profiles: make(map[U]Profile)}
}

// Set assigns profile to user.
func (r *StaticResolver[U]) Set(user U, profile Profile) {
	r.mu.Lock()
	r.profiles[user] = profile
	r.mu.Unlock()
}

// Resolve returns the profile for user, or nil when none is assigned.
func (r *StaticResolver[U]) Resolve(_ context.Context, user U) (Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.profiles[user], nil
}
