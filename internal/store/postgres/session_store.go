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

const sessionColumns = `
	id, user_id, refresh_token_hash,
	created_at, updated_at, expires_at,
	user_agent, host(ip_address)
`

// SessionStore implements store.SessionStore using PostgreSQL.
type SessionStore struct {
	pool *pgxpool.Pool
}

// NewSessionStore creates a new PostgreSQL-backed session store.
func NewSessionStore(pool *pgxpool.Pool) *SessionStore {
	return &SessionStore{
		pool: pool,
	}
}

// Create creates a new session in the database.
func (s *SessionStore) Create(ctx context.Context, session *models.Session) error {
	query := `
		INSERT INTO users_sessions (
			id, user_id, refresh_token_hash,
			created_at, updated_at, expires_at,
			user_agent, ip_address
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8::inet
		)
	`

	// Convert empty IP address to nil for proper INET handling
	var ipAddress any
	if session.IPAddress != "" {
		ipAddress = session.IPAddress
	}

	_, err := s.pool.Exec(ctx, query,
		session.SessionID,
		session.AccountID,
		session.RefreshTokenHash,
		session.CreatedAt,
		session.UpdatedAt,
		session.ExpiresAt,
		session.UserAgent,
		ipAddress,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", mapPostgresError(err))
	}

	log.Debug().
		Str("session_id", session.SessionID.String()).
		Str("account_id", session.AccountID.String()).
		Msg("Created session")

	return nil
}

// Get retrieves a session by ID.
func (s *SessionStore) Get(ctx context.Context, sessionID uuid.UUID) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM users_sessions WHERE id = $1`
	return s.scanOne(s.pool.QueryRow(ctx, query, sessionID))
}

// GetByTokenHash retrieves a session by refresh token digest.
func (s *SessionStore) GetByTokenHash(ctx context.Context, tokenHash string) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM users_sessions WHERE refresh_token_hash = $1`
	return s.scanOne(s.pool.QueryRow(ctx, query, tokenHash))
}

// Delete deletes a session by ID.
// RowsAffected decides which of two concurrent refresh rotations wins.
func (s *SessionStore) Delete(ctx context.Context, sessionID uuid.UUID) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM users_sessions WHERE id = $1`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	if result.RowsAffected() == 0 {
		return store.ErrSessionNotFound
	}

	log.Debug().
		Str("session_id", sessionID.String()).
		Msg("Deleted session")

	return nil
}

// DeleteForAccount deletes a session scoped to its owning account (logout).
func (s *SessionStore) DeleteForAccount(ctx context.Context, sessionID, accountID uuid.UUID) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM users_sessions WHERE id = $1 AND user_id = $2`, sessionID, accountID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	if result.RowsAffected() == 0 {
		return store.ErrSessionNotFound
	}

	log.Debug().
		Str("session_id", sessionID.String()).
		Str("account_id", accountID.String()).
		Msg("Deleted session for account")

	return nil
}

// DeleteExpired deletes all expired sessions (cleanup job).
func (s *SessionStore) DeleteExpired(ctx context.Context) (int, error) {
	result, err := s.pool.Exec(ctx, `DELETE FROM users_sessions WHERE expires_at < $1`, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	count := int(result.RowsAffected())

	if count > 0 {
		log.Info().
			Int("count", count).
			Msg("Deleted expired sessions")
	}

	return count, nil
}

func (s *SessionStore) scanOne(row pgx.Row) (*models.Session, error) {
	var session models.Session
	var ipAddress *string

	err := row.Scan(
		&session.SessionID,
		&session.AccountID,
		&session.RefreshTokenHash,
		&session.CreatedAt,
		&session.UpdatedAt,
		&session.ExpiresAt,
		&session.UserAgent,
		&ipAddress,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if ipAddress != nil {
		session.IPAddress = *ipAddress
	}

	return &session, nil
}
