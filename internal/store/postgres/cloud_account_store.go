package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/multicloud/internal/models"
	"github.com/wolfeidau/multicloud/internal/store"
)

// cloudAccountColumns is the default projection; credentials_encrypted is deliberately absent.
const cloudAccountColumns = `id, organization_id, provider, alias, is_active, created_at, updated_at`

// CloudAccountStore implements store.CloudAccountStore using PostgreSQL.
type CloudAccountStore struct {
	pool *pgxpool.Pool
}

// NewCloudAccountStore creates a new PostgreSQL-backed cloud account store.
func NewCloudAccountStore(pool *pgxpool.Pool) *CloudAccountStore {
	return &CloudAccountStore{
		pool: pool,
	}
}

// Create stores a new cloud account including its encrypted credentials.
func (s *CloudAccountStore) Create(ctx context.Context, account *models.CloudAccount) error {
	query := `
		INSERT INTO cloud_accounts (
			id, organization_id, provider, alias, credentials_encrypted,
			is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.pool.Exec(ctx, query,
		account.ID,
		account.OrganizationID,
		string(account.Provider),
		account.Alias,
		account.CredentialsEncrypted,
		account.IsActive,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create cloud account: %w", mapPostgresError(err))
	}

	log.Debug().
		Str("cloud_account_id", account.ID.String()).
		Str("org_id", account.OrganizationID.String()).
		Str("provider", string(account.Provider)).
		Msg("Created cloud account")

	return nil
}

// ListByOrganization returns the organization's cloud accounts without credentials.
func (s *CloudAccountStore) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]*models.CloudAccount, error) {
	query := `
		SELECT ` + cloudAccountColumns + `
		FROM cloud_accounts
		WHERE organization_id = $1
		ORDER BY created_at
	`

	rows, err := s.pool.Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cloud accounts: %w", err)
	}
	defer rows.Close()

	accounts := []*models.CloudAccount{}
	for rows.Next() {
		account, err := scanCloudAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cloud accounts: %w", err)
	}

	return accounts, nil
}

// Get retrieves a cloud account without credentials.
func (s *CloudAccountStore) Get(ctx context.Context, orgID, accountID uuid.UUID) (*models.CloudAccount, error) {
	query := `
		SELECT ` + cloudAccountColumns + `
		FROM cloud_accounts
		WHERE organization_id = $1 AND id = $2
	`

	return scanCloudAccount(s.pool.QueryRow(ctx, query, orgID, accountID))
}

// GetWithCredentials retrieves a cloud account including the encrypted credentials.
func (s *CloudAccountStore) GetWithCredentials(ctx context.Context, orgID, accountID uuid.UUID) (*models.CloudAccount, error) {
	query := `
		SELECT ` + cloudAccountColumns + `, credentials_encrypted
		FROM cloud_accounts
		WHERE organization_id = $1 AND id = $2
	`

	var account models.CloudAccount
	var provider string

	err := s.pool.QueryRow(ctx, query, orgID, accountID).Scan(
		&account.ID,
		&account.OrganizationID,
		&provider,
		&account.Alias,
		&account.IsActive,
		&account.CreatedAt,
		&account.UpdatedAt,
		&account.CredentialsEncrypted,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrCloudAccountNotFound
		}
		return nil, fmt.Errorf("failed to get cloud account: %w", err)
	}

	account.Provider = models.CloudProvider(provider)
	return &account, nil
}

func scanCloudAccount(row pgx.Row) (*models.CloudAccount, error) {
	var account models.CloudAccount
	var provider string

	err := row.Scan(
		&account.ID,
		&account.OrganizationID,
		&provider,
		&account.Alias,
		&account.IsActive,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrCloudAccountNotFound
		}
		return nil, fmt.Errorf("failed to scan cloud account: %w", err)
	}

	account.Provider = models.CloudProvider(provider)
	return &account, nil
}
