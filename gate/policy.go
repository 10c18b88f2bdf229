package gate

import (
	"context"

	"gorm.io/gorm"
)

// Handler decides whether user may exercise an ability on resource.
// For list and create checks resource is usually a Type descriptor.
// A non-nil error means no decision could be made.
type Handler[U any] func(ctx context.Context, user U, resource any) (bool, error)

// Policy holds the authorization rules for one resource type.
// U is the principal type (e.g. uint for a user ID, *Claims for a token).
//
// A policy may additionally implement any of CollectionQualifier,
// ItemQualifier, StoreQualifier and UpdateQualifier; the registry detects
// them once when the policy is registered.
type Policy[U any] interface {
	// Handler returns the check for ability, or false when the policy
	// has none. A missing handler is not an error.
	Handler(ability Action) (Handler[U], bool)
}

// Abilities is the stock Policy: a set of named ability handlers.
// Embed it in a struct to add qualification hooks next to the checks.
type Abilities[U any] map[Action]Handler[U]

// Handler implements Policy.
func (a Abilities[U]) Handler(ability Action) (Handler[U], bool) {
	h, ok := a[ability]
	return h, ok && h != nil
}

// Allow returns a handler that ignores its inputs and grants the ability.
func Allow[U any]() Handler[U] {
	return func(context.Context, U, any) (bool, error) { return true, nil }
}

// Deny returns a handler that always refuses the ability.
func Deny[U any]() Handler[U] {
	return func(context.Context, U, any) (bool, error) { return false, nil }
}

// Payload is the request body a policy may reshape before persistence.
type Payload map[string]any

// CollectionQualifier narrows or extends the query used to list resources.
// Returning nil leaves tx unchanged.
type CollectionQualifier[U any] interface {
	QualifyCollectionQuery(ctx context.Context, user U, tx *gorm.DB) *gorm.DB
}

// ItemQualifier narrows the query used to fetch a single resource.
type ItemQualifier[U any] interface {
	QualifyItemQuery(ctx context.Context, user U, tx *gorm.DB) *gorm.DB
}

// StoreQualifier rewrites payload data before a resource is created.
type StoreQualifier[U any] interface {
	QualifyStoreData(ctx context.Context, user U, data Payload) Payload
}

// UpdateQualifier rewrites payload data before a resource is updated.
type UpdateQualifier[U any] interface {
	QualifyUpdateData(ctx context.Context, user U, data Payload) Payload
}
