// Package identity resolves bearer tokens into principals through the
// external identity provider. The provider owns the user records; nexusd only
// mirrors them read-only into the request, and writes exactly one field (the
// subscription plan) during license activation.
package identity

import (
	"context"
	"errors"
)

// Plan is the subscription tier gating paid functionality.
type Plan string

const (
	PlanFree Plan = "free"
	PlanPro  Plan = "pro"
)

// ParsePlan maps provider metadata to a Plan. Anything unknown or absent is
// free — the default must stay fail-closed, never pro.
func ParsePlan(raw string) Plan {
	if raw == string(PlanPro) {
		return PlanPro
	}
	return PlanFree
}

// Principal is the authenticated identity behind a request.
type Principal struct {
	ID          string
	Email       string
	DisplayName string
	Plan        Plan
}

// ErrUnauthenticated is returned when a token does not resolve to a user:
// empty, expired, revoked, or unknown to the provider.
var ErrUnauthenticated = errors.New("identity: token did not resolve to a user")

// Resolver exchanges a bearer token for a verified principal and mutates the
// provider-side plan. Implementations use a privileged service credential,
// never the end user's, so verification does not depend on session state.
type Resolver interface {
	Resolve(ctx context.Context, token string) (*Principal, error)
	SetPlan(ctx context.Context, principalID string, plan Plan) error
}
