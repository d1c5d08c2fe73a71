package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/netip"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/multicloud/internal/apierr"
	"github.com/wolfeidau/multicloud/internal/models"
	"github.com/wolfeidau/multicloud/internal/password"
	"github.com/wolfeidau/multicloud/internal/store"
	"github.com/wolfeidau/multicloud/internal/validation"
)

const (
	MsgInvalidCredentials  = "Invalid email or password"
	MsgAccountInactive     = "This account is inactive"
	MsgInvalidRefreshToken = "Invalid or expired refresh token"

	refreshTokenBytes = 32
)

// TokenPair is returned by login and refresh. Both values are shown to the caller once.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// SessionMeta is optional audit metadata stored with a new session.
type SessionMeta struct {
	UserAgent string
	IPAddress string
}

// RegisterInput is the payload of a registration.
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	CPF      string `json:"cpf"`
	Password string `json:"password"`
}

// Issuer registers accounts and issues, rotates and revokes sessions.
type Issuer struct {
	accounts store.AccountStore
	sessions store.SessionStore
	hasher   *password.Hasher
	tokens   *TokenCodec
	opts     options

	dummyOnce sync.Once
	dummyHash string
}

// NewIssuer creates a new Issuer.
func NewIssuer(accounts store.AccountStore, sessions store.SessionStore, hasher *password.Hasher, tokens *TokenCodec, opts ...Option) *Issuer {
	return &Issuer{
		accounts: accounts,
		sessions: sessions,
		hasher:   hasher,
		tokens:   tokens,
		opts:     newOptions(opts),
	}
}

// Register validates input, rejects duplicate emails and tax ids, and stores a new
// active account with a bcrypt hashed password.
func (i *Issuer) Register(ctx context.Context, in RegisterInput) (*models.PublicAccount, error) {
	in.Email = models.NormalizeEmail(in.Email)

	var v validation.Messages
	v.Length("name", in.Name, 2, 255)
	v.Email(in.Email)
	v.CPF(in.CPF)
	v.Add(password.Validate(in.Password)...)
	if err := v.Err(); err != nil {
		return nil, err
	}

	if _, err := i.accounts.GetByEmail(ctx, in.Email); err == nil {
		return nil, apierr.Conflict(apierr.MsgEmailInUse)
	} else if !errors.Is(err, store.ErrAccountNotFound) {
		return nil, apierr.Internal(err)
	}

	if _, err := i.accounts.GetByCPF(ctx, in.CPF); err == nil {
		return nil, apierr.Conflict(apierr.MsgCPFInUse)
	} else if !errors.Is(err, store.ErrAccountNotFound) {
		return nil, apierr.Internal(err)
	}

	hash, err := i.hasher.Hash(in.Password)
	if err != nil {
		return nil, apierr.Internal(err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, apierr.Internal(fmt.Errorf("failed to generate account id: %w", err))
	}

	now := i.opts.now()
	account := &models.Account{
		ID:           id,
		Name:         in.Name,
		Email:        in.Email,
		CPF:          in.CPF,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// uniqueness is enforced again by the store for concurrent registrations
	if err := i.accounts.Create(ctx, account); err != nil {
		return nil, apierr.From(err)
	}

	zerolog.Ctx(ctx).Info().Str("account_id", id.String()).Msg("Account registered")

	return account.Public(), nil
}

// Login verifies credentials and starts a new session.
// A missing account and a wrong password are indistinguishable to the caller.
func (i *Issuer) Login(ctx context.Context, email, plain string, meta SessionMeta) (*TokenPair, error) {
	logger := zerolog.Ctx(ctx)
	email = models.NormalizeEmail(email)

	account, err := i.accounts.GetByEmail(ctx, email)
	if errors.Is(err, store.ErrAccountNotFound) {
		// burn a comparable amount of time so response latency does not reveal the miss
		_ = i.hasher.Verify(i.dummy(), plain)
		i.opts.recorder.LoginFailed(ctx, "unknown_account")
		logger.Info().Msg("Login failed: unknown account")
		return nil, apierr.Unauthorized(MsgInvalidCredentials)
	}
	if err != nil {
		return nil, apierr.Internal(err)
	}

	if err := i.hasher.Verify(account.PasswordHash, plain); err != nil {
		if !errors.Is(err, password.ErrMismatch) {
			return nil, apierr.Internal(err)
		}
		i.opts.recorder.LoginFailed(ctx, "bad_password")
		logger.Info().Str("account_id", account.ID.String()).Msg("Login failed: bad password")
		return nil, apierr.Unauthorized(MsgInvalidCredentials)
	}

	if !account.IsActive {
		i.opts.recorder.LoginFailed(ctx, "inactive")
		return nil, apierr.Unauthorized(MsgAccountInactive)
	}

	pair, err := i.issueTokens(ctx, account, meta)
	if err != nil {
		return nil, err
	}

	i.opts.recorder.LoginSucceeded(ctx)
	logger.Info().Str("account_id", account.ID.String()).Msg("Login succeeded")

	return pair, nil
}

// Refresh exchanges a refresh token for a new pair and invalidates the old one.
// Of several concurrent refreshes with the same token at most one succeeds.
func (i *Issuer) Refresh(ctx context.Context, refreshToken string, meta SessionMeta) (*TokenPair, error) {
	logger := zerolog.Ctx(ctx)

	if refreshToken == "" {
		return nil, apierr.Unauthorized(MsgInvalidRefreshToken)
	}

	session, err := i.sessions.GetByTokenHash(ctx, HashRefreshToken(refreshToken))
	if errors.Is(err, store.ErrSessionNotFound) {
		return nil, apierr.Unauthorized(MsgInvalidRefreshToken)
	}
	if err != nil {
		return nil, apierr.Internal(err)
	}

	if session.IsExpiredAt(i.opts.now()) {
		i.discard(ctx, session)
		return nil, apierr.Unauthorized(MsgInvalidRefreshToken)
	}

	account, err := i.accounts.Get(ctx, session.AccountID)
	if errors.Is(err, store.ErrAccountNotFound) {
		i.discard(ctx, session)
		return nil, apierr.Unauthorized(MsgInvalidRefreshToken)
	}
	if err != nil {
		return nil, apierr.Internal(err)
	}

	if !account.IsActive {
		i.discard(ctx, session)
		return nil, apierr.Unauthorized(MsgAccountInactive)
	}

	// the delete is the rotation point, only the caller that removed the row may continue
	if err := i.sessions.Delete(ctx, session.SessionID); err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			i.opts.recorder.RefreshReplayed(ctx)
			logger.Warn().Str("session_id", session.SessionID.String()).
				Str("account_id", account.ID.String()).Msg("Refresh token replayed")
			return nil, apierr.Unauthorized(MsgInvalidRefreshToken)
		}
		return nil, apierr.Internal(err)
	}

	pair, err := i.issueTokens(ctx, account, meta)
	if err != nil {
		return nil, err
	}

	i.opts.recorder.RefreshRotated(ctx)
	logger.Debug().Str("old_session_id", session.SessionID.String()).Msg("Refresh token rotated")

	return pair, nil
}

// Logout deletes the session if it belongs to accountID. Logging out twice is not an error.
func (i *Issuer) Logout(ctx context.Context, sessionID, accountID uuid.UUID) error {
	err := i.sessions.DeleteForAccount(ctx, sessionID, accountID)
	if err != nil && !errors.Is(err, store.ErrSessionNotFound) {
		return apierr.Internal(err)
	}

	zerolog.Ctx(ctx).Info().Str("session_id", sessionID.String()).Msg("Session logged out")
	return nil
}

// Me returns the public projection of the account.
func (i *Issuer) Me(ctx context.Context, accountID uuid.UUID) (*models.PublicAccount, error) {
	account, err := i.accounts.Get(ctx, accountID)
	if errors.Is(err, store.ErrAccountNotFound) {
		return nil, apierr.NotFound(apierr.MsgUserNotFound)
	}
	if err != nil {
		return nil, apierr.Internal(err)
	}
	return account.Public(), nil
}

func (i *Issuer) issueTokens(ctx context.Context, account *models.Account, meta SessionMeta) (*TokenPair, error) {
	raw := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return nil, apierr.Internal(fmt.Errorf("failed to generate refresh token: %w", err))
	}
	refreshToken := hex.EncodeToString(raw)

	sessionID, err := uuid.NewV7()
	if err != nil {
		return nil, apierr.Internal(fmt.Errorf("failed to generate session id: %w", err))
	}

	now := i.opts.now()
	session := &models.Session{
		SessionID:        sessionID,
		AccountID:        account.ID,
		RefreshTokenHash: HashRefreshToken(refreshToken),
		CreatedAt:        now,
		UpdatedAt:        now,
		ExpiresAt:        now.Add(i.opts.refreshTTL),
		UserAgent:        meta.UserAgent,
		IPAddress:        sessionIP(ctx, meta.IPAddress),
	}
	if err := i.sessions.Create(ctx, session); err != nil {
		return nil, apierr.Internal(err)
	}

	accessToken, err := i.tokens.Sign(&Claims{Subject: account.ID, Email: account.Email, SessionID: sessionID})
	if err != nil {
		return nil, apierr.Internal(err)
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// sessionIP drops audit addresses the session column cannot hold.
func sessionIP(ctx context.Context, ip string) string {
	if ip == "" {
		return ""
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Str("ip_address", ip).Msg("Dropping invalid session IP address")
		return ""
	}
	return addr.String()
}

func (i *Issuer) discard(ctx context.Context, session *models.Session) {
	if err := i.sessions.Delete(ctx, session.SessionID); err != nil && !errors.Is(err, store.ErrSessionNotFound) {
		zerolog.Ctx(ctx).Error().Err(err).Str("session_id", session.SessionID.String()).Msg("Failed to delete session")
	}
}

func (i *Issuer) dummy() string {
	i.dummyOnce.Do(func() {
		i.dummyHash, _ = i.hasher.Hash("dummy-password-for-timing")
	})
	return i.dummyHash
}

// HashRefreshToken returns the hex sha256 digest stored in place of a refresh token.
func HashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
