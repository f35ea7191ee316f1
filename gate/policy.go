package gate

import "context"

// Effect is the outcome of a policy decision.
type Effect int

const (
	Allow Effect = iota
	Deny
	// Challenge denies the action and asks the caller to authenticate.
	Challenge
)

// Decision is what a Policy or Requirement returns.
type Decision struct {
	Effect Effect
	Reason string
}

// Allowed returns an Allow decision.
func Allowed() Decision { return Decision{Effect: Allow} }

// Denied returns a Deny decision with a reason.
func Denied(reason string) Decision { return Decision{Effect: Deny, Reason: reason} }

// Challenged returns a Challenge decision with a reason.
func Challenged(reason string) Decision { return Decision{Effect: Challenge, Reason: reason} }

// Err converts the decision into the error Authorize returns; nil for Allow.
func (d Decision) Err() error {
	switch d.Effect {
	case Allow:
		return nil
	case Challenge:
		return Unauthenticated(d.Reason)
	default:
		return Forbidden(d.Reason)
	}
}

// Policy defines authorization rules for a resource type.
// U is the subject type (e.g., uint for userID, an identity struct, JWT claims).
type Policy[U any] interface {
	// Decide returns the decision for user performing action on resource.
	// For list/create, resource may carry only the parent context.
	Decide(ctx context.Context, user U, action Action, resource any) Decision
}

// PolicyFunc adapts a plain function to the Policy interface.
type PolicyFunc[U any] func(ctx context.Context, user U, action Action, resource any) Decision

// Decide calls f.
func (f PolicyFunc[U]) Decide(ctx context.Context, user U, action Action, resource any) Decision {
	return f(ctx, user, action, resource)
}

// Requirement is a coarse, resource independent check (authenticated,
// has a role) evaluated before the resource policy.
type Requirement[U any] func(ctx context.Context, user U) Decision
