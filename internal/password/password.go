// Package password hashes and verifies account secrets with bcrypt and
// enforces the complexity rules applied at registration.
package password

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used when none is configured.
const DefaultCost = 12

// MaxLength is the largest secret bcrypt will accept.
const MaxLength = 72

var ErrMismatch = errors.New("password does not match")

// Hasher hashes secrets at a fixed bcrypt cost.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher for cost, which must be within bcrypt's bounds.
func NewHasher(cost int) (*Hasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, cost)
	}
	return &Hasher{cost: cost}, nil
}

// Hash returns a salted bcrypt hash of plain.
func (h *Hasher) Hash(plain string) (string, error) {
	if plain == "" {
		return "", errors.New("password is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether plain matches hash. A mismatch returns ErrMismatch,
// a malformed hash returns a wrapped bcrypt error.
func (h *Hasher) Verify(hash, plain string) error {
	if hash == "" {
		return errors.New("password hash is empty")
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrMismatch
	}
	if err != nil {
		return fmt.Errorf("failed to verify password: %w", err)
	}
	return nil
}

const specialCharacters = "!@#$%^&*()_+-=[]{};':\"\\|,.<>/?"

// Validate returns one message per complexity rule plain fails, or nil.
func Validate(plain string) []string {
	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range plain {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(specialCharacters, r):
			hasSpecial = true
		}
	}

	var messages []string
	if len(plain) < 8 {
		messages = append(messages, "Password must be at least 8 characters")
	}
	if len(plain) > MaxLength {
		messages = append(messages, fmt.Sprintf("Password must be at most %d bytes", MaxLength))
	}
	if !hasUpper {
		messages = append(messages, "Password must contain at least one uppercase letter")
	}
	if !hasLower {
		messages = append(messages, "Password must contain at least one lowercase letter")
	}
	if !hasDigit {
		messages = append(messages, "Password must contain at least one number")
	}
	if !hasSpecial {
		messages = append(messages, "Password must contain at least one special character (!@#$%^&* etc)")
	}
	return messages
}
