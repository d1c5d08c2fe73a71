package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wolfeidau/multicloud/internal/models"
	"github.com/wolfeidau/multicloud/internal/store"
)

// SessionStore implements store.SessionStore using in-memory storage.
// This implementation is for testing only - data is lost on restart.
type SessionStore struct {
	mu sync.RWMutex

	sessions    map[uuid.UUID]*models.Session // session_id -> Session
	byTokenHash map[string]uuid.UUID          // refresh_token_hash -> session_id
}

// NewSessionStore creates a new in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions:    make(map[uuid.UUID]*models.Session),
		byTokenHash: make(map[string]uuid.UUID),
	}
}

// Create creates a new session in memory.
func (s *SessionStore) Create(ctx context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byTokenHash[session.RefreshTokenHash]; exists {
		return store.ErrConflict
	}

	// Clone to avoid external modifications
	clone := *session
	s.sessions[session.SessionID] = &clone
	s.byTokenHash[session.RefreshTokenHash] = session.SessionID

	return nil
}

// Get retrieves a session by ID.
func (s *SessionStore) Get(ctx context.Context, sessionID uuid.UUID) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, exists := s.sessions[sessionID]
	if !exists {
		return nil, store.ErrSessionNotFound
	}

	clone := *session
	return &clone, nil
}

// GetByTokenHash retrieves a session by refresh token digest.
func (s *SessionStore) GetByTokenHash(ctx context.Context, tokenHash string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessionID, exists := s.byTokenHash[tokenHash]
	if !exists {
		return nil, store.ErrSessionNotFound
	}

	clone := *s.sessions[sessionID]
	return &clone, nil
}

// Delete deletes a session by ID.
func (s *SessionStore) Delete(ctx context.Context, sessionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessions[sessionID]
	if !exists {
		return store.ErrSessionNotFound
	}

	s.remove(session)
	return nil
}

// DeleteForAccount deletes a session only when it belongs to accountID.
func (s *SessionStore) DeleteForAccount(ctx context.Context, sessionID, accountID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessions[sessionID]
	if !exists || session.AccountID != accountID {
		return store.ErrSessionNotFound
	}

	s.remove(session)
	return nil
}

// DeleteExpired deletes all expired sessions (cleanup job).
func (s *SessionStore) DeleteExpired(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	count := 0

	for _, session := range s.sessions {
		if session.IsExpiredAt(now) {
			s.remove(session)
			count++
		}
	}

	return count, nil
}

// deleteByAccount removes every session owned by an account, mirroring the FK cascade.
func (s *SessionStore) deleteByAccount(accountID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, session := range s.sessions {
		if session.AccountID == accountID {
			s.remove(session)
		}
	}
}

// remove must be called with the write lock held.
func (s *SessionStore) remove(session *models.Session) {
	delete(s.byTokenHash, session.RefreshTokenHash)
	delete(s.sessions, session.SessionID)
}
