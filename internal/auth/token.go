package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// DefaultAccessTTL is the lifetime of an access token.
	DefaultAccessTTL = 15 * time.Minute
	// DefaultRefreshTTL is the lifetime of a refresh token and its session.
	DefaultRefreshTTL = 7 * 24 * time.Hour
	// MinSecretLength is the shortest accepted HMAC signing secret in bytes.
	MinSecretLength = 32
)

// ErrInvalidToken wraps every access token verification failure.
var ErrInvalidToken = errors.New("invalid or expired token")

// TokenConfig is the immutable access token configuration.
type TokenConfig struct {
	Secret   []byte
	Issuer   string // optional, validated when set
	Audience string // optional, validated when set
	TTL      time.Duration
	Now      func() time.Time // optional, defaults to time.Now
}

// TokenCodec signs and verifies HS256 access tokens.
type TokenCodec struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

type accessClaims struct {
	Email     string `json:"email"`
	SessionID string `json:"sessionId"`
	jwt.RegisteredClaims
}

// NewTokenCodec validates cfg and returns a codec.
func NewTokenCodec(cfg TokenConfig) (*TokenCodec, error) {
	if len(cfg.Secret) < MinSecretLength {
		return nil, fmt.Errorf("JWT secret must be at least %d bytes", MinSecretLength)
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultAccessTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)

	return &TokenCodec{
		secret:   secret,
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		ttl:      cfg.TTL,
		now:      cfg.Now,
	}, nil
}

// Sign issues an access token for claims.
func (c *TokenCodec) Sign(claims *Claims) (string, error) {
	now := c.now()
	ac := &accessClaims{
		Email:     claims.Email,
		SessionID: claims.SessionID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.Subject.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
			Issuer:    c.issuer,
		},
	}
	if c.audience != "" {
		ac.Audience = jwt.ClaimStrings{c.audience}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, ac)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature, expiry and configured issuer/audience, and
// requires both the subject and session id claims.
func (c *TokenCodec) Verify(tokenString string) (*Claims, error) {
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	}
	if c.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(c.issuer))
	}
	if c.audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(c.audience))
	}

	ac := &accessClaims{}
	token, err := jwt.ParseWithClaims(tokenString, ac, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	}, parserOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	subject, err := uuid.Parse(ac.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid sub claim", ErrInvalidToken)
	}
	sessionID, err := uuid.Parse(ac.SessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid sessionId claim", ErrInvalidToken)
	}

	return &Claims{Subject: subject, Email: ac.Email, SessionID: sessionID}, nil
}
