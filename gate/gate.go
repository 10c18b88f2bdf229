// Package gate provides Laravel-style policy authorization for API resource
// controllers. A Registry maps resource types to policies; the Gate resolves
// the policy for a resource and runs the ability check; a Qualifier lets
// policies narrow queries and reshape payloads for the acting principal.
//
// The package is generic over the principal type:
//   - Gate[uint] for user ID based auth
//   - Gate[*Claims] for token claims based auth
//
// Default permit: a resource whose type has no registered policy is
// allowed. So is an ability the policy has no handler for, when the caller
// asks to exclude missing handlers. Register a policy for every type that
// must be protected.
package gate

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Observer receives every decision the gate takes, e.g. for an audit trail.
// err is non-nil when the check faulted.
type Observer func(ctx context.Context, d Decision, err error)

// Option configures a Gate.
type Option func(*options)

type options struct {
	logger    *zap.Logger
	metrics   *Metrics
	guests    bool
	observers []Observer
}

// WithLogger logs decisions at debug and faults at warn.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics reports decisions to m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithGuests passes zero-value principals to policy handlers instead of
// denying them outright.
func WithGuests() Option {
	return func(o *options) { o.guests = true }
}

// WithObserver adds an observer.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observers = append(o.observers, obs)
		}
	}
}

// Gate is the authorization engine.
// U is the principal type; its zero value means "no principal".
type Gate[U comparable] struct {
	registry *Registry[U]
	profiles ProfileResolver[U]
	opts     options
}

// New creates a Gate over registry.
func New[U comparable](registry *Registry[U], opts ...Option) *Gate[U] {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	o.logger = o.logger.Named("gate")
	return &Gate[U]{registry: registry, opts: o}
}

// UseProfiles makes every check that reaches a policy handler also require
// the principal's profile to grant resource_type:ability.
func (g *Gate[U]) UseProfiles(resolver ProfileResolver[U]) *Gate[U] {
	g.profiles = resolver
	return g
}

// Registry returns the registry the gate resolves policies from.
func (g *Gate[U]) Registry() *Registry[U] { return g.registry }

// Qualifier returns a Qualifier bound to model's resource type.
func (g *Gate[U]) Qualifier(model any) *Qualifier[U] {
	return NewQualifier(g.registry, model)
}

// Check reports whether user may exercise ability on resource.
//
// resource may be a Type, a model instance or a slice of them; a slice is
// checked through its first element. When no policy is registered for the
// resource type the answer is true. When the policy has no handler for
// ability the answer is excludeMissing.
func (g *Gate[U]) Check(ctx context.Context, user U, ability Action, resource any, excludeMissing bool) (bool, error) {
	d, err := g.Inspect(ctx, user, ability, resource, excludeMissing)
	return d.Allowed, err
}

// Authorize is Check reporting a deny as an *UnauthorizedError.
func (g *Gate[U]) Authorize(ctx context.Context, user U, ability Action, resource any, excludeMissing bool) error {
	d, err := g.Inspect(ctx, user, ability, resource, excludeMissing)
	if err != nil {
		return err
	}
	if !d.Allowed {
		return &UnauthorizedError{Decision: d}
	}
	return nil
}

// Can is a convenience wrapper returning true only if Authorize succeeds.
func (g *Gate[U]) Can(ctx context.Context, user U, ability Action, resource any) bool {
	return g.Authorize(ctx, user, ability, resource, false) == nil
}

// Inspect is Check returning the full Decision.
func (g *Gate[U]) Inspect(ctx context.Context, user U, ability Action, resource any, excludeMissing bool) (Decision, error) {
	start := time.Now()
	target := representative(resource)
	d := Decision{Ability: ability, ResourceType: TypeOf(target), Resource: target}

	d, err := g.decide(ctx, user, d, excludeMissing)

	g.opts.metrics.observe(d, err, time.Since(start))
	g.log(user, d, err)
	for _, obs := range g.opts.observers {
		obs(ctx, d, err)
	}
	return d, err
}

func (g *Gate[U]) decide(ctx context.Context, user U, d Decision, excludeMissing bool) (Decision, error) {
	if d.ResourceType == "" {
		return d.with(true, ReasonNoResource), nil
	}
	e := g.registry.lookup(d.ResourceType)
	if e == nil {
		return d.with(true, ReasonNoPolicy), nil
	}
	h, ok := e.policy.Handler(d.Ability)
	if !ok {
		return d.with(excludeMissing, ReasonMissingHandler), nil
	}

	var zero U
	if user == zero && !g.opts.guests {
		return d.with(false, ReasonGuest), nil
	}

	if g.profiles != nil {
		granted, err := g.profileGrants(ctx, user, d.ResourceType, d.Ability)
		if err != nil {
			return d, g.fault(d, err)
		}
		if !granted {
			return d.with(false, ReasonProfile), nil
		}
	}

	allowed, err := invoke(ctx, h, user, d.Resource)
	if err != nil {
		return d, g.fault(d, err)
	}
	return d.with(allowed, ReasonPolicy), nil
}

// CanProfile checks only the profile permission, without running any
// policy. Useful to show or hide UI before a resource is loaded. Without a
// profile resolver every non-zero principal passes.
func (g *Gate[U]) CanProfile(ctx context.Context, user U, ability Action, resourceType string) bool {
	var zero U
	if user == zero {
		return false
	}
	if g.profiles == nil {
		return true
	}
	granted, err := g.profileGrants(ctx, user, resourceType, ability)
	return err == nil && granted
}

// Profile returns the principal's profile, or nil without a resolver.
func (g *Gate[U]) Profile(ctx context.Context, user U) (Profile, error) {
	if g.profiles == nil {
		return nil, nil
	}
	return g.profiles.Resolve(ctx, user)
}

func (g *Gate[U]) profileGrants(ctx context.Context, user U, resourceType string, ability Action) (bool, error) {
	profile, err := g.profiles.Resolve(ctx, user)
	if err != nil {
		return false, fmt.Errorf("resolve profile: %w", err)
	}
	if profile == nil {
		return false, nil
	}
	return profile.HasPermission(NewPermission(resourceType, ability)), nil
}

func (g *Gate[U]) fault(d Decision, err error) error {
	return &AuthorizationFault{Ability: d.Ability, ResourceType: d.ResourceType, Resource: d.Resource, Err: err}
}

func (g *Gate[U]) log(user U, d Decision, err error) {
	fields := []zap.Field{
		zap.Any("principal", user),
		zap.String("ability", string(d.Ability)),
		zap.String("resource_type", d.ResourceType),
	}
	if err != nil {
		g.opts.logger.Warn("authorization fault", append(fields, zap.Error(err))...)
		return
	}
	fields = append(fields, zap.String("reason", string(d.Reason)), zap.Bool("allowed", d.Allowed))
	if d.Defaulted() {
		g.opts.logger.Debug("nothing configured for resource, permitting", fields...)
		return
	}
	g.opts.logger.Debug("authorization decision", fields...)
}

// invoke runs h, turning a panic into an error.
func invoke[U any](ctx context.Context, h Handler[U], user U, resource any) (allowed bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			allowed, err = false, fmt.Errorf("policy handler panicked: %v", r)
		}
	}()
	return h(ctx, user, resource)
}
