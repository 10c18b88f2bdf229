package policy

import (
	"context"
	"maps"

	"github.com/diewo77/go-policy/gate"
	"gorm.io/gorm"
)

// OwnerColumn is the column holding the owner id on owned tables.
const OwnerColumn = "user_id"

// Ownable is an interface for resources that have an owner.
// Implement this on your models to enable ownership-based authorization.
type Ownable interface {
	GetUserID() uint
}

// OwnershipPolicy lets a user act only on the rows they own. It narrows
// list and item queries to the user's rows, stamps the owner on created
// rows and refuses to let an update move a row to another owner.
type OwnershipPolicy struct {
	gate.Abilities[uint]
	column string
}

// NewOwnershipPolicy creates a new ownership policy.
func NewOwnershipPolicy() *OwnershipPolicy {
	p := &OwnershipPolicy{column: OwnerColumn}
	p.Abilities = gate.Abilities[uint]{
		gate.ActionList:   p.owns,
		gate.ActionView:   p.owns,
		gate.ActionCreate: p.owns,
		gate.ActionUpdate: p.owns,
		gate.ActionDelete: p.owns,
	}
	return p
}

// owns allows type-level checks (list/create), where no row exists yet and
// profile permissions already control access. For a loaded row the user
// must be its owner; rows that are not Ownable are denied.
func (p *OwnershipPolicy) owns(_ context.Context, userID uint, resource any) (bool, error) {
	if gate.IsType(resource) {
		return true, nil
	}
	ownable, ok := resource.(Ownable)
	if !ok {
		return false, nil
	}
	return ownable.GetUserID() == userID, nil
}

// QualifyCollectionQuery restricts listings to the user's rows.
func (p *OwnershipPolicy) QualifyCollectionQuery(_ context.Context, userID uint, tx *gorm.DB) *gorm.DB {
	return tx.Where(p.column+" = ?", userID)
}

// QualifyItemQuery restricts single-row lookups to the user's rows, so a
// foreign id reads as not found.
func (p *OwnershipPolicy) QualifyItemQuery(_ context.Context, userID uint, tx *gorm.DB) *gorm.DB {
	return tx.Where(p.column+" = ?", userID)
}

// QualifyStoreData forces the owner of a new row to the acting user.
func (p *OwnershipPolicy) QualifyStoreData(_ context.Context, userID uint, data gate.Payload) gate.Payload {
	out := maps.Clone(data)
	if out == nil {
		out = gate.Payload{}
	}
	out[p.column] = userID
	return out
}

// QualifyUpdateData drops the owner and primary key from an update.
func (p *OwnershipPolicy) QualifyUpdateData(_ context.Context, _ uint, data gate.Payload) gate.Payload {
	out := maps.Clone(data)
	delete(out, p.column)
	delete(out, "id")
	return out
}
