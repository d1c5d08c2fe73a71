package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/wolfeidau/multicloud/internal/models"
)

// Sentinel errors for membership store operations
var (
	ErrMembershipNotFound = errors.New("membership not found")
	ErrMembershipExists   = errors.New("membership already exists")
)

// MembershipStore defines the interface for organization membership storage.
type MembershipStore interface {
	// Create adds an account to an organization.
	// Returns ErrMembershipExists if the account is already a member.
	Create(ctx context.Context, membership *models.Membership) error

	// Get retrieves the membership of an account in an organization.
	// Returns ErrMembershipNotFound if the account is not a member.
	Get(ctx context.Context, accountID, orgID uuid.UUID) (*models.Membership, error)

	// ListByAccount returns every membership held by an account.
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*models.Membership, error)

	// Delete removes an account from an organization.
	// Returns ErrMembershipNotFound if the account is not a member.
	Delete(ctx context.Context, accountID, orgID uuid.UUID) error
}
