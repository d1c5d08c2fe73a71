package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/wolfeidau/multicloud/internal/models"
)

// Sentinel errors for organization store operations
var (
	ErrOrganizationNotFound  = errors.New("organization not found")
	ErrOrganizationNameTaken = errors.New("organization name already in use")
	ErrCNPJTaken             = errors.New("cnpj already in use")
)

// OrganizationStore defines the interface for organization storage operations.
// Organizations represent tenants in the system.
type OrganizationStore interface {
	// Create creates a new organization.
	// Returns ErrOrganizationNameTaken or ErrCNPJTaken on uniqueness violations.
	Create(ctx context.Context, org *models.Organization) error

	// Get retrieves an organization by ID.
	// Returns ErrOrganizationNotFound if the organization doesn't exist.
	Get(ctx context.Context, orgID uuid.UUID) (*models.Organization, error)

	// Update updates an existing organization.
	// Returns ErrOrganizationNotFound if the organization doesn't exist.
	Update(ctx context.Context, org *models.Organization) error

	// Delete deletes an organization by ID.
	// Memberships and cloud accounts are cascade-deleted.
	// Returns ErrOrganizationNotFound if the organization doesn't exist.
	Delete(ctx context.Context, orgID uuid.UUID) error
}
