package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/multicloud/internal/apierr"
	"github.com/wolfeidau/multicloud/internal/store"
)

// OrganizationHeader selects the tenant of a request.
const OrganizationHeader = "x-organization-id"

const (
	MsgMissingOrganization  = "missing organization context"
	MsgInvalidOrganization  = "invalid organization id format"
	MsgNoOrganizationAccess = "no access to this organization"
)

// TenantResolver resolves the caller's membership in the organization named by
// the x-organization-id header.
type TenantResolver struct {
	memberships   store.MembershipStore
	organizations store.OrganizationStore
	opts          options
}

// NewTenantResolver creates a new TenantResolver.
func NewTenantResolver(memberships store.MembershipStore, organizations store.OrganizationStore, opts ...Option) *TenantResolver {
	return &TenantResolver{
		memberships:   memberships,
		organizations: organizations,
		opts:          newOptions(opts),
	}
}

// Resolve returns ctx with the organization and membership attached.
// An unknown organization and a missing membership produce the same error.
func (t *TenantResolver) Resolve(ctx context.Context, r *http.Request) (context.Context, error) {
	claims := ClaimsFromContext(ctx)
	if claims == nil {
		return nil, apierr.Unauthorized(MsgMissingToken)
	}

	values := r.Header.Values(OrganizationHeader)
	if len(values) == 0 || values[0] == "" {
		return nil, t.deny(ctx, "missing_organization", MsgMissingOrganization)
	}
	if len(values) > 1 {
		return nil, t.deny(ctx, "invalid_organization", MsgInvalidOrganization)
	}

	orgID, err := parseOrganizationID(values[0])
	if err != nil {
		return nil, t.deny(ctx, "invalid_organization", MsgInvalidOrganization)
	}

	membership, err := t.memberships.Get(ctx, claims.Subject, orgID)
	if errors.Is(err, store.ErrMembershipNotFound) {
		return nil, t.deny(ctx, "not_member", MsgNoOrganizationAccess)
	}
	if err != nil {
		return nil, apierr.Internal(err)
	}

	org, err := t.organizations.Get(ctx, orgID)
	if errors.Is(err, store.ErrOrganizationNotFound) {
		return nil, t.deny(ctx, "organization_missing", MsgNoOrganizationAccess)
	}
	if err != nil {
		return nil, apierr.Internal(err)
	}

	return WithTenant(ctx, org, membership), nil
}

// Middleware resolves the tenant or rejects the request with 403.
func (t *TenantResolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, err := t.Resolve(r.Context(), r)
		if err != nil {
			apierr.Write(w, r, err)
			return
		}

		zerolog.Ctx(ctx).UpdateContext(func(c zerolog.Context) zerolog.Context {
			return c.Str("organization_id", OrganizationFromContext(ctx).ID.String())
		})

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (t *TenantResolver) deny(ctx context.Context, reason, message string) error {
	t.opts.recorder.Denied(ctx, "tenant", reason)
	zerolog.Ctx(ctx).Info().Str("reason", reason).Msg("Tenant access denied")
	return apierr.Forbidden(message)
}

// RequireTenantContext rejects authenticated requests that reach a tenant scoped
// handler without a resolved organization and membership.
func RequireTenantContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := CheckTenantContext(r.Context()); err != nil {
			apierr.Write(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CheckTenantContext returns a Forbidden error unless both organization and
// membership are attached to ctx.
func CheckTenantContext(ctx context.Context) error {
	if OrganizationFromContext(ctx) == nil || MembershipFromContext(ctx) == nil {
		return apierr.Forbidden(MsgMissingOrganization)
	}
	return nil
}

// parseOrganizationID accepts only the canonical 36 character UUID form.
func parseOrganizationID(s string) (uuid.UUID, error) {
	if len(s) != 36 {
		return uuid.Nil, errors.New("organization id must be 36 characters")
	}
	return uuid.Parse(s)
}
