package policy

import (
	"context"

	"github.com/diewo77/go-policy/gate"
	"gorm.io/gorm"
)

// AdminCheck reports whether a user is an administrator.
type AdminCheck func(ctx context.Context, userID uint) bool

// AdminBypassPolicy wraps another policy and always allows access for admins.
// Admins also skip the inner policy's query and payload qualification, so
// they see and edit every row.
type AdminBypassPolicy struct {
	inner   gate.Policy[uint]
	isAdmin AdminCheck
}

// NewAdminBypassPolicy creates a policy that bypasses ownership for admins.
func NewAdminBypassPolicy(inner gate.Policy[uint], isAdmin AdminCheck) *AdminBypassPolicy {
	return &AdminBypassPolicy{inner: inner, isAdmin: isAdmin}
}

// Handler wraps the inner handler for ability. Abilities the inner policy
// does not handle stay unhandled.
func (p *AdminBypassPolicy) Handler(ability gate.Action) (gate.Handler[uint], bool) {
	h, ok := p.inner.Handler(ability)
	if !ok {
		return nil, false
	}
	return func(ctx context.Context, userID uint, resource any) (bool, error) {
		if p.isAdmin(ctx, userID) {
			return true, nil
		}
		return h(ctx, userID, resource)
	}, true
}

func (p *AdminBypassPolicy) QualifyCollectionQuery(ctx context.Context, userID uint, tx *gorm.DB) *gorm.DB {
	if q, ok := p.inner.(gate.CollectionQualifier[uint]); ok && !p.isAdmin(ctx, userID) {
		return q.QualifyCollectionQuery(ctx, userID, tx)
	}
	return tx
}

func (p *AdminBypassPolicy) QualifyItemQuery(ctx context.Context, userID uint, tx *gorm.DB) *gorm.DB {
	if q, ok := p.inner.(gate.ItemQualifier[uint]); ok && !p.isAdmin(ctx, userID) {
		return q.QualifyItemQuery(ctx, userID, tx)
	}
	return tx
}

// QualifyStoreData always runs the inner hook: rows created by an admin are
// owned by the admin.
func (p *AdminBypassPolicy) QualifyStoreData(ctx context.Context, userID uint, data gate.Payload) gate.Payload {
	if q, ok := p.inner.(gate.StoreQualifier[uint]); ok {
		return q.QualifyStoreData(ctx, userID, data)
	}
	return data
}

func (p *AdminBypassPolicy) QualifyUpdateData(ctx context.Context, userID uint, data gate.Payload) gate.Payload {
	if q, ok := p.inner.(gate.UpdateQualifier[uint]); ok && !p.isAdmin(ctx, userID) {
		return q.QualifyUpdateData(ctx, userID, data)
	}
	return data
}
