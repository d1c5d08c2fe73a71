package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/wolfeidau/multicloud/internal/apierr"
	"github.com/wolfeidau/multicloud/internal/store"
)

const (
	MsgMissingToken   = "missing token"
	MsgInvalidToken   = "invalid or expired token"
	MsgSessionRevoked = "session revoked"
	MsgSessionExpired = "session expired"
)

// Gate authenticates bearer tokens and confirms the backing session is still live.
type Gate struct {
	tokens   *TokenCodec
	sessions store.SessionStore
	accounts store.AccountStore
	opts     options
}

// NewGate creates a new Gate.
func NewGate(tokens *TokenCodec, sessions store.SessionStore, accounts store.AccountStore, opts ...Option) *Gate {
	return &Gate{
		tokens:   tokens,
		sessions: sessions,
		accounts: accounts,
		opts:     newOptions(opts),
	}
}

// Authenticate runs extract, verify and confirm against r and returns the verified claims.
// Session state is only mutated when an expired session is found.
func (g *Gate) Authenticate(r *http.Request) (*Claims, error) {
	ctx := r.Context()

	tokenString := extractBearerToken(r)
	if tokenString == "" {
		return nil, g.deny(r, "missing_token", MsgMissingToken)
	}

	claims, err := g.tokens.Verify(tokenString)
	if err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Msg("Access token rejected")
		return nil, g.deny(r, "invalid_token", MsgInvalidToken)
	}

	session, err := g.sessions.Get(ctx, claims.SessionID)
	if errors.Is(err, store.ErrSessionNotFound) {
		return nil, g.deny(r, "session_revoked", MsgSessionRevoked)
	}
	if err != nil {
		return nil, apierr.Internal(err)
	}

	// a token naming another account's session is treated as revoked
	if session.AccountID != claims.Subject {
		return nil, g.deny(r, "session_mismatch", MsgSessionRevoked)
	}

	if session.IsExpiredAt(g.opts.now()) {
		if err := g.sessions.Delete(ctx, session.SessionID); err != nil && !errors.Is(err, store.ErrSessionNotFound) {
			return nil, apierr.Internal(err)
		}
		return nil, g.deny(r, "session_expired", MsgSessionExpired)
	}

	account, err := g.accounts.Get(ctx, claims.Subject)
	if errors.Is(err, store.ErrAccountNotFound) {
		return nil, g.deny(r, "account_missing", MsgSessionRevoked)
	}
	if err != nil {
		return nil, apierr.Internal(err)
	}
	if !account.IsActive {
		return nil, g.deny(r, "account_inactive", MsgAccountInactive)
	}

	return claims, nil
}

// Middleware rejects unauthenticated requests and attaches the claims to the context.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := g.Authenticate(r)
		if err != nil {
			apierr.Write(w, r, err)
			return
		}

		ctx := WithClaims(r.Context(), claims)
		zerolog.Ctx(ctx).UpdateContext(func(c zerolog.Context) zerolog.Context {
			return c.Str("account_id", claims.Subject.String())
		})

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (g *Gate) deny(r *http.Request, reason, message string) error {
	g.opts.recorder.Denied(r.Context(), "access", reason)
	zerolog.Ctx(r.Context()).Info().Str("reason", reason).Str("path", r.URL.Path).Msg("Access denied")
	return apierr.Unauthorized(message)
}

// extractBearerToken extracts the token from the Authorization header.
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return parts[1]
}
