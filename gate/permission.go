package gate

import (
	"fmt"
	"strings"
)

// Permission grants an action on a resource type, written "resource:action"
// (e.g. "product:create"). Either side may be the wildcard "*".
type Permission string

// Wildcards for broad grants.
const (
	WildcardAll                     = "*"
	PermissionSuperAdmin Permission = "*:*"
)

// NewPermission builds the permission for action on resourceType.
func NewPermission(resourceType string, action Action) Permission {
	return Permission(resourceType + ":" + string(action))
}

// ParsePermission validates a "resource:action" code.
func ParsePermission(code string) (Permission, error) {
	res, act, ok := strings.Cut(strings.TrimSpace(code), ":")
	if !ok || res == "" || act == "" {
		return "", fmt.Errorf("invalid permission %q: want resource:action", code)
	}
	return NewPermission(res, Action(act)), nil
}

// Parse splits a permission into resource type and action. Malformed
// permissions yield empty strings.
func (p Permission) Parse() (resourceType string, action Action) {
	res, act, ok := strings.Cut(string(p), ":")
	if !ok {
		return "", ""
	}
	return res, Action(act)
}

// Matches reports whether this (granted) permission covers requested.
// "*:*" covers everything, "product:*" every product action and
// "*:view" the view action on every resource type.
func (p Permission) Matches(requested Permission) bool {
	if p == PermissionSuperAdmin || p == requested {
		return true
	}
	res, act := p.Parse()
	reqRes, reqAct := requested.Parse()
	if res == "" || reqRes == "" {
		return false
	}
	return (res == WildcardAll || res == reqRes) && (string(act) == WildcardAll || act == reqAct)
}
