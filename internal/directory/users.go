// Package directory manages accounts, organizations and memberships on behalf
// of an authenticated caller.
package directory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/multicloud/internal/apierr"
	"github.com/wolfeidau/multicloud/internal/models"
	"github.com/wolfeidau/multicloud/internal/store"
	"github.com/wolfeidau/multicloud/internal/validation"
)

const MsgNotYourAccount = "You can only modify your own account"

// Deleted is the response body of a successful delete.
type Deleted struct {
	ID      uuid.UUID `json:"id"`
	Deleted bool      `json:"deleted"`
}

// UpdateUserInput is a partial account update; nil fields are left unchanged.
type UpdateUserInput struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	CPF      *string `json:"cpf"`
	IsActive *bool   `json:"isActive"`
}

// Users exposes account management.
type Users struct {
	accounts store.AccountStore
	now      func() time.Time
}

// NewUsers creates a new Users service.
func NewUsers(accounts store.AccountStore, now func() time.Time) *Users {
	if now == nil {
		now = time.Now
	}
	return &Users{accounts: accounts, now: now}
}

// List returns every account, sanitized.
func (u *Users) List(ctx context.Context) ([]*models.PublicAccount, error) {
	accounts, err := u.accounts.List(ctx)
	if err != nil {
		return nil, apierr.Internal(err)
	}

	out := make([]*models.PublicAccount, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, a.Public())
	}
	return out, nil
}

// Get returns one account, sanitized.
func (u *Users) Get(ctx context.Context, id uuid.UUID) (*models.PublicAccount, error) {
	account, err := u.accounts.Get(ctx, id)
	if err != nil {
		return nil, apierr.From(err)
	}
	return account.Public(), nil
}

// Update applies in to the caller's own account.
func (u *Users) Update(ctx context.Context, callerID, id uuid.UUID, in UpdateUserInput) (*models.PublicAccount, error) {
	if callerID != id {
		return nil, apierr.Forbidden(MsgNotYourAccount)
	}

	var v validation.Messages
	if in.Name != nil {
		v.Length("name", *in.Name, 2, 255)
	}
	if in.Email != nil {
		email := models.NormalizeEmail(*in.Email)
		in.Email = &email
		v.Email(email)
	}
	if in.CPF != nil {
		v.CPF(*in.CPF)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	account, err := u.accounts.Get(ctx, id)
	if err != nil {
		return nil, apierr.From(err)
	}

	if in.Email != nil && *in.Email != account.Email {
		if err := u.checkFree(ctx, u.accounts.GetByEmail, *in.Email, id, apierr.MsgEmailInUse); err != nil {
			return nil, err
		}
		account.Email = *in.Email
	}
	if in.CPF != nil && *in.CPF != account.CPF {
		if err := u.checkFree(ctx, u.accounts.GetByCPF, *in.CPF, id, apierr.MsgCPFInUse); err != nil {
			return nil, err
		}
		account.CPF = *in.CPF
	}
	if in.Name != nil {
		account.Name = *in.Name
	}
	if in.IsActive != nil {
		account.IsActive = *in.IsActive
	}
	account.UpdatedAt = u.now()

	if err := u.accounts.Update(ctx, account); err != nil {
		return nil, apierr.From(err)
	}

	zerolog.Ctx(ctx).Info().Str("account_id", id.String()).Msg("Account updated")

	return account.Public(), nil
}

// Delete removes the caller's own account along with its sessions and memberships.
func (u *Users) Delete(ctx context.Context, callerID, id uuid.UUID) (*Deleted, error) {
	if callerID != id {
		return nil, apierr.Forbidden(MsgNotYourAccount)
	}

	if err := u.accounts.Delete(ctx, id); err != nil {
		return nil, apierr.From(err)
	}

	zerolog.Ctx(ctx).Info().Str("account_id", id.String()).Msg("Account deleted")

	return &Deleted{ID: id, Deleted: true}, nil
}

func (u *Users) checkFree(ctx context.Context, lookup func(context.Context, string) (*models.Account, error), value string, self uuid.UUID, msg string) error {
	existing, err := lookup(ctx, value)
	switch {
	case errors.Is(err, store.ErrAccountNotFound):
		return nil
	case err != nil:
		return apierr.Internal(err)
	case existing.ID != self:
		return apierr.Conflict(msg)
	}
	return nil
}
