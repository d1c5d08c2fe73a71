package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/wolfeidau/multicloud/internal/models"
)

// Sentinel errors for account store operations
var (
	ErrAccountNotFound = errors.New("account not found")
	ErrEmailTaken      = errors.New("email already in use")
	ErrCPFTaken        = errors.New("cpf already in use")
)

// AccountStore defines the interface for account storage operations.
// Emails are stored normalized, so lookups by email are exact matches.
type AccountStore interface {
	// Create creates a new account.
	// Returns ErrEmailTaken or ErrCPFTaken if the email or tax id is already registered.
	Create(ctx context.Context, account *models.Account) error

	// Get retrieves an account by ID.
	// Returns ErrAccountNotFound if the account doesn't exist.
	Get(ctx context.Context, accountID uuid.UUID) (*models.Account, error)

	// GetByEmail retrieves an account by its normalized email.
	// Returns ErrAccountNotFound if no account uses the email.
	GetByEmail(ctx context.Context, email string) (*models.Account, error)

	// GetByCPF retrieves an account by tax id.
	// Returns ErrAccountNotFound if no account uses the tax id.
	GetByCPF(ctx context.Context, cpf string) (*models.Account, error)

	// List returns all accounts ordered by creation time.
	List(ctx context.Context) ([]*models.Account, error)

	// Update updates name, email, cpf and active flag of an existing account.
	// Returns ErrAccountNotFound, ErrEmailTaken or ErrCPFTaken.
	Update(ctx context.Context, account *models.Account) error

	// Delete deletes an account by ID.
	// Sessions and memberships of the account are cascade-deleted.
	// Returns ErrAccountNotFound if the account doesn't exist.
	Delete(ctx context.Context, accountID uuid.UUID) error
}
