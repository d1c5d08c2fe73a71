package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/wolfeidau/multicloud/internal/models"
)

// Sentinel errors for cloud account store operations
var (
	ErrCloudAccountNotFound   = errors.New("cloud account not found")
	ErrCloudAccountAliasTaken = errors.New("cloud account alias already in use")
)

// CloudAccountStore defines the interface for cloud account storage.
// Every read is scoped by organization, and only GetWithCredentials returns the encrypted blob.
type CloudAccountStore interface {
	// Create stores a new cloud account including its encrypted credentials.
	// Returns ErrCloudAccountAliasTaken if the alias is already used in the organization.
	Create(ctx context.Context, account *models.CloudAccount) error

	// ListByOrganization returns the organization's cloud accounts without credentials.
	ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]*models.CloudAccount, error)

	// Get retrieves a cloud account without credentials.
	// Returns ErrCloudAccountNotFound if it doesn't exist in the organization.
	Get(ctx context.Context, orgID, accountID uuid.UUID) (*models.CloudAccount, error)

	// GetWithCredentials retrieves a cloud account including the encrypted credentials.
	// Returns ErrCloudAccountNotFound if it doesn't exist in the organization.
	GetWithCredentials(ctx context.Context, orgID, accountID uuid.UUID) (*models.CloudAccount, error)
}
