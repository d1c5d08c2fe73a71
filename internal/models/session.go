package models

import (
	"time"

	"github.com/google/uuid"
)

// Session represents one outstanding refresh credential.
// Only the sha256 digest of the refresh token is kept; the plaintext is returned to the caller once.
type Session struct {
	SessionID        uuid.UUID // UUIDv7, carried in the access token as sessionId
	AccountID        uuid.UUID
	RefreshTokenHash string // hex encoded sha256 of the refresh token

	CreatedAt time.Time
	UpdatedAt time.Time
	ExpiresAt time.Time

	// Optional audit metadata
	UserAgent string
	IPAddress string
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return s.IsExpiredAt(time.Now())
}

// IsExpiredAt returns true if the session is expired at the given instant.
func (s *Session) IsExpiredAt(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
