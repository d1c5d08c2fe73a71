package auth

import (
	"net/http"

	"github.com/wolfeidau/multicloud/internal/models"
)

// Operation is the per-route metadata that decides which gates run.
type Operation struct {
	// Public skips every gate.
	Public bool
	// TenantExempt skips tenant resolution, for account and organization management.
	TenantExempt bool
	// MinRoles is the set of acceptable roles; empty allows any member.
	MinRoles []models.Role
}

// Chain composes the Gate, TenantResolver and role check in a fixed order.
type Chain struct {
	gate     *Gate
	tenant   *TenantResolver
	recorder Recorder
}

// NewChain creates a new Chain.
func NewChain(gate *Gate, tenant *TenantResolver, opts ...Option) *Chain {
	o := newOptions(opts)
	return &Chain{gate: gate, tenant: tenant, recorder: o.recorder}
}

// Wrap returns h guarded as op requires:
// access gate, then tenant resolver and tenant context check, then role check.
func (c *Chain) Wrap(op Operation, h http.Handler) http.Handler {
	if op.Public {
		return h
	}

	if len(op.MinRoles) > 0 {
		h = RequireRole(c.recorder, op.MinRoles...)(h)
	}

	if !op.TenantExempt {
		h = RequireTenantContext(h)
		h = c.tenant.Middleware(h)
	}

	return c.gate.Middleware(h)
}
