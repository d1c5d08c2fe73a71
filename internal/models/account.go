package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Account represents a registered user identity.
// The password hash never leaves the service layer; callers receive PublicAccount.
type Account struct {
	ID           uuid.UUID // UUIDv7
	Name         string
	Email        string // always stored lowercased
	CPF          string // Brazilian national tax id, 11 digits
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicAccount is the sanitized projection of an Account.
type PublicAccount struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	Name     string    `json:"name"`
	CPF      string    `json:"cpf"`
	IsActive bool      `json:"isActive"`
}

// Public returns the sanitized projection of the account.
func (a *Account) Public() *PublicAccount {
	return &PublicAccount{
		ID:       a.ID,
		Email:    a.Email,
		Name:     a.Name,
		CPF:      a.CPF,
		IsActive: a.IsActive,
	}
}

// NormalizeEmail lowercases and trims an email address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
