package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/wolfeidau/multicloud/internal/models"
)

// Claims are the verified identity attached to an authenticated request.
type Claims struct {
	Subject   uuid.UUID // account ID
	Email     string
	SessionID uuid.UUID
}

type contextKey int

const (
	claimsContextKey contextKey = iota
	organizationContextKey
	membershipContextKey
)

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// ClaimsFromContext extracts the authenticated claims from the request context.
// Returns nil if the request was not authenticated.
func ClaimsFromContext(ctx context.Context) *Claims {
	claims, _ := ctx.Value(claimsContextKey).(*Claims)
	return claims
}

// WithTenant returns a copy of ctx carrying the resolved organization and membership.
func WithTenant(ctx context.Context, org *models.Organization, membership *models.Membership) context.Context {
	ctx = context.WithValue(ctx, organizationContextKey, org)
	return context.WithValue(ctx, membershipContextKey, membership)
}

// OrganizationFromContext returns the organization resolved for the request, or nil.
func OrganizationFromContext(ctx context.Context) *models.Organization {
	org, _ := ctx.Value(organizationContextKey).(*models.Organization)
	return org
}

// MembershipFromContext returns the caller's membership in the resolved organization, or nil.
func MembershipFromContext(ctx context.Context) *models.Membership {
	membership, _ := ctx.Value(membershipContextKey).(*models.Membership)
	return membership
}
