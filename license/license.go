// Package license upgrades a principal's plan when the submitted code matches
// the server-held secret. One global code for all customers — per-purchase
// keys, revocation, and usage auditing are out of scope; the append-only
// ledger exists for audit trails only and is never consulted for
// authorization.
package license

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nexustrade/nexusd/identity"
)

// ErrInvalidKey is returned when the submitted code does not match the
// server secret after normalization.
var ErrInvalidKey = errors.New("license: invalid key")

// ErrNotConfigured is returned when the server has no license secret. Fatal
// misconfiguration, not user-actionable.
var ErrNotConfigured = errors.New("license: LICENSE_KEY not configured")

// Activator performs the idempotent plan upgrade.
type Activator struct {
	secret   string
	resolver identity.Resolver
	ledger   *Ledger // optional
}

// NewActivator builds an activator. secret may be empty; Activate then fails
// with ErrNotConfigured so the misconfiguration is visible per request.
func NewActivator(secret string, resolver identity.Resolver, ledger *Ledger) *Activator {
	return &Activator{secret: secret, resolver: resolver, ledger: ledger}
}

// Configured reports whether a license secret is present. Handlers check it
// before doing any auth work so a misconfigured server answers 500, not 401.
func (a *Activator) Configured() bool {
	return strings.TrimSpace(a.secret) != ""
}

// normalize trims surrounding whitespace and upper-cases the code. Customers
// paste keys from receipts; case and padding must not matter.
func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Activate checks the submitted code and flips the principal's plan to pro.
// Idempotent: activating an already-pro principal is a no-op success with no
// provider write. Exactly one plan mutation happens per first successful
// call; nothing else is touched.
func (a *Activator) Activate(ctx context.Context, p *identity.Principal, submitted string) error {
	if strings.TrimSpace(a.secret) == "" {
		return ErrNotConfigured
	}
	if normalize(submitted) != normalize(a.secret) {
		return ErrInvalidKey
	}

	alreadyPro := p.Plan == identity.PlanPro
	if !alreadyPro {
		if err := a.resolver.SetPlan(ctx, p.ID, identity.PlanPro); err != nil {
			return fmt.Errorf("license: plan upgrade: %w", err)
		}
		p.Plan = identity.PlanPro
	}

	if a.ledger != nil {
		a.ledger.Record(ctx, p.ID, p.Email, alreadyPro)
	}
	return nil
}
