package gate

// Reason records which rule produced a Decision.
type Reason string

const (
	// ReasonNoResource: nothing to resolve a policy from (nil or empty collection).
	ReasonNoResource Reason = "no_resource"
	// ReasonNoPolicy: the resource type has no registered policy.
	ReasonNoPolicy Reason = "no_policy"
	// ReasonMissingHandler: the policy has no handler for the ability.
	ReasonMissingHandler Reason = "missing_handler"
	// ReasonGuest: a zero principal on a gate that does not admit guests.
	ReasonGuest Reason = "guest"
	// ReasonProfile: the principal's profile lacks resource:ability.
	ReasonProfile Reason = "profile"
	// ReasonPolicy: the policy handler decided.
	ReasonPolicy Reason = "policy"
)

// Decision is the outcome of one authorization check, kept for auditing.
type Decision struct {
	Allowed      bool
	Ability      Action
	ResourceType string
	Resource     any
	Reason       Reason
}

// Defaulted reports whether the decision was reached without running a
// policy handler because nothing was configured for the resource.
func (d Decision) Defaulted() bool {
	return d.Allowed && (d.Reason == ReasonNoResource || d.Reason == ReasonNoPolicy || d.Reason == ReasonMissingHandler)
}

// Outcome is "allow" or "deny".
func (d Decision) Outcome() string {
	if d.Allowed {
		return "allow"
	}
	return "deny"
}

func (d Decision) with(allowed bool, reason Reason) Decision {
	d.Allowed = allowed
	d.Reason = reason
	return d
}
