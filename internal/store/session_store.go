package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/wolfeidau/multicloud/internal/models"
)

// Sentinel errors for session store operations
var (
	ErrSessionNotFound = errors.New("session not found")
)

// SessionStore defines the interface for session storage operations.
// Reads return the stored row as-is, expiry is evaluated by the caller so that it can
// delete the row before rejecting it.
type SessionStore interface {
	// Create creates a new session.
	Create(ctx context.Context, session *models.Session) error

	// Get retrieves a session by ID.
	// Returns ErrSessionNotFound if the session doesn't exist.
	Get(ctx context.Context, sessionID uuid.UUID) (*models.Session, error)

	// GetByTokenHash retrieves a session by the digest of its refresh token.
	// Returns ErrSessionNotFound if no session matches.
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.Session, error)

	// Delete deletes a session by ID.
	// Returns ErrSessionNotFound if no row was deleted, which is how concurrent
	// refresh rotations detect that they lost the race.
	Delete(ctx context.Context, sessionID uuid.UUID) error

	// DeleteForAccount deletes a session only if it belongs to the given account.
	// Returns ErrSessionNotFound if no row was deleted.
	DeleteForAccount(ctx context.Context, sessionID, accountID uuid.UUID) error

	// DeleteExpired deletes all expired sessions and returns how many were removed.
	DeleteExpired(ctx context.Context) (int, error)
}
