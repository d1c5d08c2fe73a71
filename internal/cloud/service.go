// Package cloud manages the cloud accounts of a tenant and their sealed credentials.
package cloud

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/multicloud/internal/apierr"
	"github.com/wolfeidau/multicloud/internal/auth"
	"github.com/wolfeidau/multicloud/internal/models"
	"github.com/wolfeidau/multicloud/internal/secrets"
	"github.com/wolfeidau/multicloud/internal/store"
	"github.com/wolfeidau/multicloud/internal/validation"
)

const (
	MsgInvalidProvider     = "provider must be one of aws, azure, gcp"
	MsgCredentialsRequired = "credentials is required"
)

// FailureRecorder counts credentials that could not be opened.
type FailureRecorder interface {
	EnvelopeFailed(ctx context.Context)
}

type nopRecorder struct{}

func (nopRecorder) EnvelopeFailed(context.Context) {}

// CreateInput is the payload of a cloud account creation.
type CreateInput struct {
	Provider    string         `json:"provider"`
	Alias       string         `json:"alias"`
	Credentials map[string]any `json:"credentials"`
}

// Credentials is a cloud account with its decrypted credential payload.
type Credentials struct {
	ID          uuid.UUID            `json:"id"`
	Provider    models.CloudProvider `json:"provider"`
	Alias       string               `json:"alias"`
	Credentials map[string]any       `json:"credentials"`
}

// Service creates, lists and opens cloud accounts of one organization at a time.
type Service struct {
	accounts store.CloudAccountStore
	envelope *secrets.Envelope
	recorder FailureRecorder
	now      func() time.Time
}

// NewService creates a new Service. A nil recorder discards failures.
func NewService(accounts store.CloudAccountStore, envelope *secrets.Envelope, recorder FailureRecorder) *Service {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Service{
		accounts: accounts,
		envelope: envelope,
		recorder: recorder,
		now:      time.Now,
	}
}

// Create seals the credentials and stores a new cloud account in orgID.
// The returned account never carries the sealed credentials.
func (s *Service) Create(ctx context.Context, orgID uuid.UUID, in CreateInput) (*models.CloudAccount, error) {
	in.Alias = strings.TrimSpace(in.Alias)
	provider := models.CloudProvider(in.Provider)

	var v validation.Messages
	if !provider.Valid() {
		v.Add(MsgInvalidProvider)
	}
	v.Length("alias", in.Alias, 1, 100)
	if len(in.Credentials) == 0 {
		v.Add(MsgCredentialsRequired)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	sealed, err := s.envelope.Encrypt(in.Credentials)
	if err != nil {
		return nil, apierr.Internal(err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, apierr.Internal(fmt.Errorf("failed to generate cloud account id: %w", err))
	}

	now := s.now()
	account := &models.CloudAccount{
		ID:                   id,
		OrganizationID:       orgID,
		Provider:             provider,
		Alias:                in.Alias,
		CredentialsEncrypted: sealed,
		IsActive:             true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, apierr.From(err)
	}

	zerolog.Ctx(ctx).Info().
		Str("cloud_account_id", account.ID.String()).
		Str("provider", string(provider)).
		Msg("Cloud account created")

	account.CredentialsEncrypted = ""
	return account, nil
}

// List returns the cloud accounts of orgID without credentials.
func (s *Service) List(ctx context.Context, orgID uuid.UUID) ([]*models.CloudAccount, error) {
	accounts, err := s.accounts.ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	return accounts, nil
}

// Credentials opens the sealed credentials of one cloud account in orgID.
// Accounts of other organizations are reported as not found.
func (s *Service) Credentials(ctx context.Context, orgID, id uuid.UUID) (*Credentials, error) {
	account, err := s.accounts.GetWithCredentials(ctx, orgID, id)
	if err != nil {
		return nil, apierr.From(err)
	}

	var payload map[string]any
	if err := s.envelope.Decrypt(account.CredentialsEncrypted, &payload); err != nil {
		if errors.Is(err, secrets.ErrDecrypt) {
			s.recorder.EnvelopeFailed(ctx)
			zerolog.Ctx(ctx).Warn().Err(err).Str("cloud_account_id", id.String()).Msg("Sealed credentials rejected")
			return nil, &apierr.Error{Kind: apierr.KindValidation, Messages: []string{secrets.ErrDecrypt.Error()}, Err: err}
		}
		return nil, apierr.Internal(err)
	}

	return &Credentials{
		ID:          account.ID,
		Provider:    account.Provider,
		Alias:       account.Alias,
		Credentials: payload,
	}, nil
}

// RoleNotice is returned by the role-gated diagnostic endpoints.
type RoleNotice struct {
	Message        string      `json:"message"`
	OrganizationID uuid.UUID   `json:"organizationId"`
	YourRole       models.Role `json:"yourRole"`
}

// Notice describes the tenant context of an already authorized request.
func Notice(ctx context.Context, message string) (*RoleNotice, error) {
	if err := auth.CheckTenantContext(ctx); err != nil {
		return nil, err
	}
	membership := auth.MembershipFromContext(ctx)
	return &RoleNotice{
		Message:        message,
		OrganizationID: auth.OrganizationFromContext(ctx).ID,
		YourRole:       membership.Role,
	}, nil
}

// TenantContext is the diagnostic view of who is calling in which organization.
type TenantContext struct {
	User struct {
		ID uuid.UUID `json:"id"`
	} `json:"user"`
	Organization struct {
		ID   uuid.UUID `json:"id"`
		Name string    `json:"name"`
	} `json:"organization"`
	Membership struct {
		ID       uuid.UUID   `json:"id"`
		Role     models.Role `json:"role"`
		JoinedAt time.Time   `json:"joinedAt"`
	} `json:"membership"`
}

// Describe returns the caller, organization and membership attached to ctx.
func Describe(ctx context.Context) (*TenantContext, error) {
	if err := auth.CheckTenantContext(ctx); err != nil {
		return nil, err
	}
	claims := auth.ClaimsFromContext(ctx)
	if claims == nil {
		return nil, apierr.Unauthorized(auth.MsgMissingToken)
	}
	org := auth.OrganizationFromContext(ctx)
	membership := auth.MembershipFromContext(ctx)

	var out TenantContext
	out.User.ID = claims.Subject
	out.Organization.ID = org.ID
	out.Organization.Name = org.Name
	out.Membership.ID = membership.ID
	out.Membership.Role = membership.Role
	out.Membership.JoinedAt = membership.JoinedAt
	return &out, nil
}
