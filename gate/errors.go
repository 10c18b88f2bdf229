package gate

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by Gate.Authorize and Gate.Check.
var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrAuthorizationFault = errors.New("authorization fault")
)

// UnauthorizedError reports a deny decision. It matches ErrUnauthorized.
type UnauthorizedError struct {
	Decision Decision
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("unauthorized: %s on %s (%s)", e.Decision.Ability, e.Decision.ResourceType, e.Decision.Reason)
}

func (e *UnauthorizedError) Is(target error) bool { return target == ErrUnauthorized }

// AuthorizationFault is returned when a policy handler, or the profile
// resolver consulted for it, fails. The check produced no decision.
type AuthorizationFault struct {
	Ability      Action
	ResourceType string
	Resource     any
	Err          error
}

func (e *AuthorizationFault) Error() string {
	return fmt.Sprintf("authorization fault: %s on %s: %v", e.Ability, e.ResourceType, e.Err)
}

func (e *AuthorizationFault) Unwrap() error { return e.Err }

func (e *AuthorizationFault) Is(target error) bool { return target == ErrAuthorizationFault }
