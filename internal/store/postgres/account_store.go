package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/multicloud/internal/models"
	"github.com/wolfeidau/multicloud/internal/store"
)

const accountColumns = `id, name, email, cpf, password_hash, is_active, created_at, updated_at`

// AccountStore implements store.AccountStore using PostgreSQL.
type AccountStore struct {
	pool *pgxpool.Pool
}

// NewAccountStore creates a new PostgreSQL-backed account store.
// It shares the connection pool with other stores.
func NewAccountStore(pool *pgxpool.Pool) *AccountStore {
	return &AccountStore{
		pool: pool,
	}
}

// Create creates a new account in the database.
// Uniqueness of email and cpf is enforced by constraints, so concurrent registrations
// with the same email see exactly one success.
func (s *AccountStore) Create(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO users (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.pool.Exec(ctx, query,
		account.ID,
		account.Name,
		account.Email,
		account.CPF,
		account.PasswordHash,
		account.IsActive,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", mapPostgresError(err))
	}

	log.Debug().
		Str("account_id", account.ID.String()).
		Msg("Created account")

	return nil
}

// Get retrieves an account by ID.
func (s *AccountStore) Get(ctx context.Context, accountID uuid.UUID) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM users WHERE id = $1`
	return scanAccount(s.pool.QueryRow(ctx, query, accountID))
}

// GetByEmail retrieves an account by normalized email.
func (s *AccountStore) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM users WHERE email = $1`
	return scanAccount(s.pool.QueryRow(ctx, query, email))
}

// GetByCPF retrieves an account by tax id.
func (s *AccountStore) GetByCPF(ctx context.Context, cpf string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM users WHERE cpf = $1`
	return scanAccount(s.pool.QueryRow(ctx, query, cpf))
}

// List returns all accounts ordered by creation time.
func (s *AccountStore) List(ctx context.Context) ([]*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM users ORDER BY created_at`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}

	return accounts, nil
}

// Update updates the profile fields of an existing account.
func (s *AccountStore) Update(ctx context.Context, account *models.Account) error {
	query := `
		UPDATE users
		SET name = $2, email = $3, cpf = $4, is_active = $5, updated_at = $6
		WHERE id = $1
	`

	account.UpdatedAt = time.Now()

	result, err := s.pool.Exec(ctx, query,
		account.ID,
		account.Name,
		account.Email,
		account.CPF,
		account.IsActive,
		account.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", mapPostgresError(err))
	}

	if result.RowsAffected() == 0 {
		return store.ErrAccountNotFound
	}

	return nil
}

// Delete deletes an account; sessions and memberships cascade.
func (s *AccountStore) Delete(ctx context.Context, accountID uuid.UUID) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, accountID)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", mapPostgresError(err))
	}

	if result.RowsAffected() == 0 {
		return store.ErrAccountNotFound
	}

	log.Info().
		Str("account_id", accountID.String()).
		Msg("Deleted account")

	return nil
}

func scanAccount(row pgx.Row) (*models.Account, error) {
	var account models.Account

	err := row.Scan(
		&account.ID,
		&account.Name,
		&account.Email,
		&account.CPF,
		&account.PasswordHash,
		&account.IsActive,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}

	return &account, nil
}
