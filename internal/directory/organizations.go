package directory

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
	"github.com/wolfeidau/multicloud/internal/store"
	"github.com/wolfeidau/multicloud/internal/validation"
)

const (
	MsgGrantOwner  = "Only an owner can grant the OWNER role"
	MsgRemoveOwner = "Only an owner can remove another owner"
	MsgInvalidRole = "role must be one of OWNER, ADMIN, MEMBER, VIEWER"
)

// CreateOrganizationInput is the payload of an organization creation.
type CreateOrganizationInput struct {
	Name string `json:"name"`
	CNPJ string `json:"cnpj"`
}

// UpdateOrganizationInput is a partial organization update; nil fields are left unchanged.
type UpdateOrganizationInput struct {
	Name *string `json:"name"`
	CNPJ *string `json:"cnpj"`
}

// AddMemberInput adds an existing account to an organization.
type AddMemberInput struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

// Organizations exposes tenant and membership management. Every call is made
// on behalf of callerID and checked against the caller's own membership.
type Organizations struct {
	organizations store.OrganizationStore
	memberships   store.MembershipStore
	accounts      store.AccountStore
	now           func() time.Time
}

// NewOrganizations creates a new Organizations service.
func NewOrganizations(organizations store.OrganizationStore, memberships store.MembershipStore, accounts store.AccountStore, now func() time.Time) *Organizations {
	if now == nil {
		now = time.Now
	}
	return &Organizations{
		organizations: organizations,
		memberships:   memberships,
		accounts:      accounts,
		now:           now,
	}
}

// Create stores a new organization and makes the caller its OWNER.
func (o *Organizations) Create(ctx context.Context, callerID uuid.UUID, in CreateOrganizationInput) (*models.Organization, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.CNPJ = strings.TrimSpace(in.CNPJ)

	var v validation.Messages
	v.Length("name", in.Name, 2, 100)
	if in.CNPJ != "" {
		v.Length("cnpj", in.CNPJ, 11, 20)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	orgID, err := uuid.NewV7()
	if err != nil {
		return nil, apierr.Internal(fmt.Errorf("failed to generate organization id: %w", err))
	}
	ownerID, err := uuid.NewV7()
	if err != nil {
		return nil, apierr.Internal(fmt.Errorf("failed to generate membership id: %w", err))
	}

	now := o.now()
	org := &models.Organization{
		ID:        orgID,
		Name:      in.Name,
		CNPJ:      in.CNPJ,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := o.organizations.Create(ctx, org); err != nil {
		return nil, apierr.From(err)
	}

	owner := &models.Membership{
		ID:             ownerID,
		AccountID:      callerID,
		OrganizationID: org.ID,
		Role:           models.RoleOwner,
		JoinedAt:       now,
	}
	if err := o.memberships.Create(ctx, owner); err != nil {
		// an organization nobody can reach is useless
		if delErr := o.organizations.Delete(ctx, org.ID); delErr != nil {
			zerolog.Ctx(ctx).Error().Err(delErr).Str("organization_id", org.ID.String()).Msg("Failed to remove orphaned organization")
		}
		return nil, apierr.From(err)
	}

	zerolog.Ctx(ctx).Info().
		Str("organization_id", org.ID.String()).
		Str("account_id", callerID.String()).
		Msg("Organization created")

	return org, nil
}

// List returns the organizations the caller belongs to.
func (o *Organizations) List(ctx context.Context, callerID uuid.UUID) ([]*models.Organization, error) {
	memberships, err := o.memberships.ListByAccount(ctx, callerID)
	if err != nil {
		return nil, apierr.Internal(err)
	}

	orgs := make([]*models.Organization, 0, len(memberships))
	for _, m := range memberships {
		org, err := o.organizations.Get(ctx, m.OrganizationID)
		if errors.Is(err, store.ErrOrganizationNotFound) {
			// deleted between the two reads
			continue
		}
		if err != nil {
			return nil, apierr.Internal(err)
		}
		orgs = append(orgs, org)
	}
	return orgs, nil
}

// Get returns an organization the caller belongs to.
// Non-members get the same not found error as for a missing organization.
func (o *Organizations) Get(ctx context.Context, callerID, orgID uuid.UUID) (*models.Organization, error) {
	if _, err := o.membership(ctx, callerID, orgID); err != nil {
		return nil, err
	}

	org, err := o.organizations.Get(ctx, orgID)
	if err != nil {
		return nil, apierr.From(err)
	}
	return org, nil
}

// Update changes name or tax id. Requires ADMIN or above.
func (o *Organizations) Update(ctx context.Context, callerID, orgID uuid.UUID, in UpdateOrganizationInput) (*models.Organization, error) {
	if err := o.authorize(ctx, callerID, orgID, models.RoleAdmin); err != nil {
		return nil, err
	}

	var v validation.Messages
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		in.Name = &name
		v.Length("name", name, 2, 100)
	}
	if in.CNPJ != nil {
		cnpj := strings.TrimSpace(*in.CNPJ)
		in.CNPJ = &cnpj
		if cnpj != "" {
			v.Length("cnpj", cnpj, 11, 20)
		}
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	org, err := o.organizations.Get(ctx, orgID)
	if err != nil {
		return nil, apierr.From(err)
	}
	if in.Name != nil {
		org.Name = *in.Name
	}
	if in.CNPJ != nil {
		org.CNPJ = *in.CNPJ
	}
	org.UpdatedAt = o.now()

	if err := o.organizations.Update(ctx, org); err != nil {
		return nil, apierr.From(err)
	}

	zerolog.Ctx(ctx).Info().Str("organization_id", orgID.String()).Msg("Organization updated")

	return org, nil
}

// Delete removes the organization with its memberships and cloud accounts. Requires OWNER.
func (o *Organizations) Delete(ctx context.Context, callerID, orgID uuid.UUID) (*Deleted, error) {
	if err := o.authorize(ctx, callerID, orgID, models.RoleOwner); err != nil {
		return nil, err
	}

	if err := o.organizations.Delete(ctx, orgID); err != nil {
		return nil, apierr.From(err)
	}

	zerolog.Ctx(ctx).Info().Str("organization_id", orgID.String()).Msg("Organization deleted")

	return &Deleted{ID: orgID, Deleted: true}, nil
}

// AddMember grants an existing account a role in the organization. Requires ADMIN or
// above, and only an OWNER may grant OWNER.
func (o *Organizations) AddMember(ctx context.Context, callerID, orgID uuid.UUID, in AddMemberInput) (*models.Membership, error) {
	caller, err := o.membership(ctx, callerID, orgID)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(caller, models.RoleAdmin); err != nil {
		return nil, err
	}

	var v validation.Messages
	v.UUID("userId", in.UserID)
	role, roleErr := models.ParseRole(in.Role)
	if roleErr != nil {
		v.Add(MsgInvalidRole)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	if role == models.RoleOwner && caller.Role != models.RoleOwner {
		return nil, apierr.Forbidden(MsgGrantOwner)
	}

	accountID, err := uuid.Parse(in.UserID)
	if err != nil {
		return nil, apierr.Validation(err.Error())
	}
	if _, err := o.accounts.Get(ctx, accountID); err != nil {
		return nil, apierr.From(err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, apierr.Internal(fmt.Errorf("failed to generate membership id: %w", err))
	}
	membership := &models.Membership{
		ID:             id,
		AccountID:      accountID,
		OrganizationID: orgID,
		Role:           role,
		JoinedAt:       o.now(),
	}
	if err := o.memberships.Create(ctx, membership); err != nil {
		return nil, apierr.From(err)
	}

	zerolog.Ctx(ctx).Info().
		Str("organization_id", orgID.String()).
		Str("member_id", accountID.String()).
		Str("role", string(role)).
		Msg("Member added")

	return membership, nil
}

// RemoveMember removes an account from the organization. Requires ADMIN or above,
// and only an OWNER may remove another OWNER.
func (o *Organizations) RemoveMember(ctx context.Context, callerID, orgID, accountID uuid.UUID) (*Deleted, error) {
	caller, err := o.membership(ctx, callerID, orgID)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(caller, models.RoleAdmin); err != nil {
		return nil, err
	}

	target, err := o.memberships.Get(ctx, accountID, orgID)
	if errors.Is(err, store.ErrMembershipNotFound) {
		return nil, apierr.NotFound("Member not found")
	}
	if err != nil {
		return nil, apierr.Internal(err)
	}

	if target.Role == models.RoleOwner && caller.Role != models.RoleOwner {
		return nil, apierr.Forbidden(MsgRemoveOwner)
	}

	if err := o.memberships.Delete(ctx, accountID, orgID); err != nil {
		if errors.Is(err, store.ErrMembershipNotFound) {
			return nil, apierr.NotFound("Member not found")
		}
		return nil, apierr.Internal(err)
	}

	zerolog.Ctx(ctx).Info().
		Str("organization_id", orgID.String()).
		Str("member_id", accountID.String()).
		Msg("Member removed")

	return &Deleted{ID: accountID, Deleted: true}, nil
}

// membership returns the caller's membership, or not found when there is none.
func (o *Organizations) membership(ctx context.Context, callerID, orgID uuid.UUID) (*models.Membership, error) {
	m, err := o.memberships.Get(ctx, callerID, orgID)
	if errors.Is(err, store.ErrMembershipNotFound) {
		return nil, apierr.NotFound(apierr.MsgOrganizationNotFound)
	}
	if err != nil {
		return nil, apierr.Internal(fmt.Errorf("failed to load membership: %w", err))
	}
	return m, nil
}

func (o *Organizations) authorize(ctx context.Context, callerID, orgID uuid.UUID, minRoles ...models.Role) error {
	m, err := o.membership(ctx, callerID, orgID)
	if err != nil {
		return err
	}
	return auth.Authorize(m, minRoles...)
}
