// Package gate provides a Laravel-inspired Gate/Policy authorization system.
// The Gate is a central registry of policies; each Policy defines authorization
// rules for a specific resource type. Coarse requirements can be attached to
// permission patterns ("store:create", "product:*") and run before the policy,
// so a caller missing a role gets a generic answer and only qualified callers
// reach the resource specific rules. This package has no dependencies on
// domain models.
//
// The package uses generics to allow any subject type:
//   - Gate[uint] for simple user ID based auth
//   - Gate[Identity] for a resolved identity struct
//   - Gate[*Claims] for JWT claims based auth
package gate

import "context"

type requirement[U any] struct {
	pattern Permission
	check   Requirement[U]
}

// Gate is the central authorization checkpoint.
// Register policies by resource type name, then call Authorize or Can.
type Gate[U any] struct {
	policies     map[string]Policy[U]
	requirements []requirement[U]
}

// NewGate creates an empty Gate ready to register policies.
func NewGate[U any]() *Gate[U] {
	return &Gate[U]{policies: make(map[string]Policy[U])}
}

// Register adds a policy for a given resource type (e.g., "order").
// Overwrites any existing policy for that type.
func (g *Gate[U]) Register(resourceType string, p Policy[U]) {
	g.policies[resourceType] = p
}

// Require attaches a requirement to every permission matched by pattern.
// Requirements run in registration order.
func (g *Gate[U]) Require(pattern Permission, check Requirement[U]) {
	g.requirements = append(g.requirements, requirement[U]{pattern: pattern, check: check})
}

// Authorize checks authorization and returns an error if denied.
// Returns ErrNoPolicyDefined if resourceType has no registered policy,
// otherwise a *Denial for the first failing requirement or the policy decision.
func (g *Gate[U]) Authorize(ctx context.Context, user U, action Action, resourceType string, resource any) error {
	p, ok := g.policies[resourceType]
	if !ok {
		return ErrNoPolicyDefined
	}
	perm := NewPermission(resourceType, action)
	for _, req := range g.requirements {
		if !req.pattern.Matches(perm) {
			continue
		}
		if err := req.check(ctx, user).Err(); err != nil {
			return err
		}
	}
	return p.Decide(ctx, user, action, resource).Err()
}

// Can is a convenience wrapper returning bool instead of error.
// Returns true only if Authorize returns nil.
func (g *Gate[U]) Can(ctx context.Context, user U, action Action, resourceType string, resource any) bool {
	return g.Authorize(ctx, user, action, resourceType, resource) == nil
}
