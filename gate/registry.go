package gate

import (
	"slices"
	"sync"
)

// Registry maps resource types to their policy. Lookups are read-only and
// safe for concurrent use; a type without a registration has no policy.
type Registry[U any] struct {
	mu      sync.RWMutex
	entries map[string]*entry[U]
}

// entry is a policy with its optional capabilities resolved up front.
type entry[U any] struct {
	name       string
	policy     Policy[U]
	collection CollectionQualifier[U]
	item       ItemQualifier[U]
	store      StoreQualifier[U]
	update     UpdateQualifier[U]
}

// NewRegistry creates an empty Registry.
func NewRegistry[U any]() *Registry[U] {
	return &Registry[U]{entries: make(map[string]*entry[U])}
}

// Register adds the policy for resourceType (e.g. "invoice"), replacing any
// previous one. Registering a nil policy removes the registration.
func (r *Registry[U]) Register(resourceType string, p Policy[U]) {
	if p == nil {
		r.mu.Lock()
		delete(r.entries, resourceType)
		r.mu.Unlock()
		return
	}
	e := &entry[U]{name: resourceType, policy: p}
	e.collection, _ = p.(CollectionQualifier[U])
	e.item, _ = p.(ItemQualifier[U])
	e.store, _ = p.(StoreQualifier[U])
	e.update, _ = p.(UpdateQualifier[U])

	r.mu.Lock()
	r.entries[resourceType] = e
	r.mu.Unlock()
}

// RegisterFor registers p under the type name of model, as computed by TypeOf.
func (r *Registry[U]) RegisterFor(model any, p Policy[U]) {
	r.Register(TypeOf(model), p)
}

// Resolve returns the policy for resource, which may be a Type, a model
// instance or a collection of them.
func (r *Registry[U]) Resolve(resource any) (Policy[U], bool) {
	e := r.lookup(TypeOf(resource))
	if e == nil {
		return nil, false
	}
	return e.policy, true
}

// Types returns the registered resource type names in sorted order.
func (r *Registry[U]) Types() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	r.mu.RUnlock()
	slices.Sort(names)
	return names
}

func (r *Registry[U]) lookup(resourceType string) *entry[U] {
	if resourceType == "" {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries[resourceType]
}
