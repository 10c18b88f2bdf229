package gate

import (
	"context"

	"gorm.io/gorm"
)

// Qualifier applies a policy's optional qualification hooks for one model.
// Every method is the identity when the model has no policy or the policy
// lacks the hook.
type Qualifier[U any] struct {
	registry     *Registry[U]
	resourceType string
}

// NewQualifier binds a qualifier to model, which may be an instance, a
// typed nil pointer or a Type. The policy itself is looked up on each call.
func NewQualifier[U any](registry *Registry[U], model any) *Qualifier[U] {
	return &Qualifier[U]{registry: registry, resourceType: TypeOf(model)}
}

// ResourceType is the registry key the qualifier resolves.
func (q *Qualifier[U]) ResourceType() string { return q.resourceType }

// QualifyCollectionQuery lets the policy narrow the query listing resources,
// e.g. to rows the user owns.
func (q *Qualifier[U]) QualifyCollectionQuery(ctx context.Context, user U, tx *gorm.DB) *gorm.DB {
	if e := q.registry.lookup(q.resourceType); e != nil && e.collection != nil {
		if out := e.collection.QualifyCollectionQuery(ctx, user, tx); out != nil {
			return out
		}
	}
	return tx
}

// QualifyItemQuery lets the policy narrow the query fetching one resource.
func (q *Qualifier[U]) QualifyItemQuery(ctx context.Context, user U, tx *gorm.DB) *gorm.DB {
	if e := q.registry.lookup(q.resourceType); e != nil && e.item != nil {
		if out := e.item.QualifyItemQuery(ctx, user, tx); out != nil {
			return out
		}
	}
	return tx
}

// QualifyStoreData passes data through the policy's store hook.
func (q *Qualifier[U]) QualifyStoreData(ctx context.Context, user U, data Payload) Payload {
	if e := q.registry.lookup(q.resourceType); e != nil && e.store != nil {
		return e.store.QualifyStoreData(ctx, user, data)
	}
	return data
}

// QualifyUpdateData passes data through the policy's update hook.
func (q *Qualifier[U]) QualifyUpdateData(ctx context.Context, user U, data Payload) Payload {
	if e := q.registry.lookup(q.resourceType); e != nil && e.update != nil {
		return e.update.QualifyUpdateData(ctx, user, data)
	}
	return data
}
