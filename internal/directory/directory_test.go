package directory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/multicloud/internal/apierr"
	"github.com/wolfeidau/multicloud/internal/models"
	"github.com/wolfeidau/multicloud/internal/store"
	"github.com/wolfeidau/multicloud/internal/store/memory"
)

func newAccount(t *testing.T, stores *memory.Stores, email, cpf string) *models.Account {
	t.Helper()
	now := time.Now()
	account := &models.Account{
		ID:           uuid.Must(uuid.NewV7()),
		Name:         "Test User",
		Email:        email,
		CPF:          cpf,
		PasswordHash: "hash",
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, stores.Accounts.Create(context.Background(), account))
	return account
}

func requireAPIError(t *testing.T, err error, kind apierr.Kind, messages ...string) {
	t.Helper()
	var apiErr *apierr.Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, kind, apiErr.Kind)
	if len(messages) > 0 {
		require.Equal(t, messages, apiErr.Messages)
	}
}

func ptr[T any](v T) *T {
	return &v
}

func TestUsersGet(t *testing.T) {
	stores := memory.NewStores()
	users := NewUsers(stores.Accounts, nil)
	alice := newAccount(t, stores, "alice@example.com", "11144477735")

	got, err := users.Get(context.Background(), alice.ID)
	require.NoError(t, err)
	require.Equal(t, alice.Email, got.Email)

	_, err = users.Get(context.Background(), uuid.New())
	requireAPIError(t, err, apierr.KindNotFound, apierr.MsgUserNotFound)
}

func TestUsersList(t *testing.T) {
	stores := memory.NewStores()
	users := NewUsers(stores.Accounts, nil)
	newAccount(t, stores, "alice@example.com", "11144477735")
	newAccount(t, stores, "bob@example.com", "52998224725")

	list, err := users.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
}

func TestUsersUpdate(t *testing.T) {
	ctx := context.Background()
	stores := memory.NewStores()
	users := NewUsers(stores.Accounts, nil)
	alice := newAccount(t, stores, "alice@example.com", "11144477735")
	bob := newAccount(t, stores, "bob@example.com", "52998224725")

	t.Run("other account", func(t *testing.T) {
		_, err := users.Update(ctx, bob.ID, alice.ID, UpdateUserInput{Name: ptr("Mallory")})
		requireAPIError(t, err, apierr.KindForbidden, MsgNotYourAccount)
	})

	t.Run("normalizes email", func(t *testing.T) {
		got, err := users.Update(ctx, alice.ID, alice.ID, UpdateUserInput{Email: ptr("  Alice.New@Example.com ")})
		require.NoError(t, err)
		require.Equal(t, "alice.new@example.com", got.Email)

		stored, err := stores.Accounts.GetByEmail(ctx, "alice.new@example.com")
		require.NoError(t, err)
		require.Equal(t, alice.ID, stored.ID)
	})

	t.Run("email taken", func(t *testing.T) {
		_, err := users.Update(ctx, alice.ID, alice.ID, UpdateUserInput{Email: ptr("BOB@example.com")})
		requireAPIError(t, err, apierr.KindConflict, apierr.MsgEmailInUse)
	})

	t.Run("cpf taken", func(t *testing.T) {
		_, err := users.Update(ctx, alice.ID, alice.ID, UpdateUserInput{CPF: ptr("52998224725")})
		requireAPIError(t, err, apierr.KindConflict, apierr.MsgCPFInUse)
	})

	t.Run("own values are not conflicts", func(t *testing.T) {
		_, err := users.Update(ctx, bob.ID, bob.ID, UpdateUserInput{Email: ptr("bob@example.com"), CPF: ptr("52998224725")})
		require.NoError(t, err)
	})

	t.Run("validation lists every failure", func(t *testing.T) {
		_, err := users.Update(ctx, alice.ID, alice.ID, UpdateUserInput{Name: ptr("A"), Email: ptr("nope"), CPF: ptr("123")})
		requireAPIError(t, err, apierr.KindValidation,
			"name must be at least 2 characters",
			"Invalid email format",
			"CPF must contain exactly 11 digits",
		)
	})

	t.Run("deactivate", func(t *testing.T) {
		got, err := users.Update(ctx, bob.ID, bob.ID, UpdateUserInput{IsActive: ptr(false)})
		require.NoError(t, err)
		require.False(t, got.IsActive)
	})
}

func TestUsersDelete(t *testing.T) {
	ctx := context.Background()
	stores := memory.NewStores()
	users := NewUsers(stores.Accounts, nil)
	alice := newAccount(t, stores, "alice@example.com", "11144477735")
	bob := newAccount(t, stores, "bob@example.com", "52998224725")

	_, err := users.Delete(ctx, bob.ID, alice.ID)
	requireAPIError(t, err, apierr.KindForbidden, MsgNotYourAccount)

	res, err := users.Delete(ctx, alice.ID, alice.ID)
	require.NoError(t, err)
	require.Equal(t, &Deleted{ID: alice.ID, Deleted: true}, res)

	_, err = stores.Accounts.Get(ctx, alice.ID)
	require.ErrorIs(t, err, store.ErrAccountNotFound)

	_, err = users.Delete(ctx, alice.ID, alice.ID)
	requireAPIError(t, err, apierr.KindNotFound, apierr.MsgUserNotFound)
}

type orgFixture struct {
	stores *memory.Stores
	orgs   *Organizations
	owner  *models.Account
	admin  *models.Account
	member *models.Account
	other  *models.Account
	org    *models.Organization
}

func newOrgFixture(t *testing.T) *orgFixture {
	t.Helper()
	ctx := context.Background()
	stores := memory.NewStores()
	f := &orgFixture{
		stores: stores,
		orgs:   NewOrganizations(stores.Organizations, stores.Memberships, stores.Accounts, nil),
		owner:  newAccount(t, stores, "owner@example.com", "11144477735"),
		admin:  newAccount(t, stores, "admin@example.com", "52998224725"),
		member: newAccount(t, stores, "member@example.com", "12345678909"),
		other:  newAccount(t, stores, "other@example.com", "98765432100"),
	}

	org, err := f.orgs.Create(ctx, f.owner.ID, CreateOrganizationInput{Name: "Acme"})
	require.NoError(t, err)
	f.org = org

	_, err = f.orgs.AddMember(ctx, f.owner.ID, org.ID, AddMemberInput{UserID: f.admin.ID.String(), Role: "ADMIN"})
	require.NoError(t, err)
	_, err = f.orgs.AddMember(ctx, f.owner.ID, org.ID, AddMemberInput{UserID: f.member.ID.String(), Role: "MEMBER"})
	require.NoError(t, err)

	return f
}

func TestOrganizationsCreate(t *testing.T) {
	ctx := context.Background()
	f := newOrgFixture(t)

	m, err := f.stores.Memberships.Get(ctx, f.owner.ID, f.org.ID)
	require.NoError(t, err)
	require.Equal(t, models.RoleOwner, m.Role)

	t.Run("duplicate name", func(t *testing.T) {
		_, err := f.orgs.Create(ctx, f.other.ID, CreateOrganizationInput{Name: "Acme"})
		requireAPIError(t, err, apierr.KindConflict, "This organization name is already in use")
	})

	t.Run("validation", func(t *testing.T) {
		_, err := f.orgs.Create(ctx, f.other.ID, CreateOrganizationInput{Name: "A", CNPJ: "123"})
		requireAPIError(t, err, apierr.KindValidation,
			"name must be at least 2 characters",
			"cnpj must be at least 11 characters",
		)
	})

	t.Run("duplicate cnpj", func(t *testing.T) {
		_, err := f.orgs.Create(ctx, f.other.ID, CreateOrganizationInput{Name: "First", CNPJ: "11222333000181"})
		require.NoError(t, err)
		_, err = f.orgs.Create(ctx, f.other.ID, CreateOrganizationInput{Name: "Second", CNPJ: "11222333000181"})
		requireAPIError(t, err, apierr.KindConflict, apierr.MsgCNPJInUse)
	})
}

func TestOrganizationsListAndGet(t *testing.T) {
	ctx := context.Background()
	f := newOrgFixture(t)

	_, err := f.orgs.Create(ctx, f.other.ID, CreateOrganizationInput{Name: "Globex"})
	require.NoError(t, err)

	list, err := f.orgs.List(ctx, f.member.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, f.org.ID, list[0].ID)

	got, err := f.orgs.Get(ctx, f.member.ID, f.org.ID)
	require.NoError(t, err)
	require.Equal(t, "Acme", got.Name)

	// non-members cannot tell the organization exists
	_, err = f.orgs.Get(ctx, f.other.ID, f.org.ID)
	requireAPIError(t, err, apierr.KindNotFound, apierr.MsgOrganizationNotFound)

	_, err = f.orgs.Get(ctx, f.other.ID, uuid.New())
	requireAPIError(t, err, apierr.KindNotFound, apierr.MsgOrganizationNotFound)
}

func TestOrganizationsUpdate(t *testing.T) {
	ctx := context.Background()
	f := newOrgFixture(t)

	_, err := f.orgs.Update(ctx, f.member.ID, f.org.ID, UpdateOrganizationInput{Name: ptr("Renamed")})
	requireAPIError(t, err, apierr.KindForbidden, "insufficient permissions: requires ADMIN, your role is MEMBER")

	got, err := f.orgs.Update(ctx, f.admin.ID, f.org.ID, UpdateOrganizationInput{Name: ptr("Renamed"), CNPJ: ptr("11222333000181")})
	require.NoError(t, err)
	require.Equal(t, "Renamed", got.Name)
	require.Equal(t, "11222333000181", got.CNPJ)

	_, err = f.orgs.Update(ctx, f.other.ID, f.org.ID, UpdateOrganizationInput{Name: ptr("Stolen")})
	requireAPIError(t, err, apierr.KindNotFound, apierr.MsgOrganizationNotFound)
}

func TestOrganizationsDelete(t *testing.T) {
	ctx := context.Background()
	f := newOrgFixture(t)

	_, err := f.orgs.Delete(ctx, f.admin.ID, f.org.ID)
	requireAPIError(t, err, apierr.KindForbidden, "insufficient permissions: requires OWNER, your role is ADMIN")

	res, err := f.orgs.Delete(ctx, f.owner.ID, f.org.ID)
	require.NoError(t, err)
	require.True(t, res.Deleted)

	_, err = f.stores.Memberships.Get(ctx, f.member.ID, f.org.ID)
	require.ErrorIs(t, err, store.ErrMembershipNotFound)
}

func TestOrganizationsAddMember(t *testing.T) {
	ctx := context.Background()
	f := newOrgFixture(t)

	tests := []struct {
		name    string
		caller  uuid.UUID
		input   AddMemberInput
		kind    apierr.Kind
		message string
	}{
		{
			name:    "member cannot add",
			caller:  f.member.ID,
			input:   AddMemberInput{UserID: f.other.ID.String(), Role: "VIEWER"},
			kind:    apierr.KindForbidden,
			message: "insufficient permissions: requires ADMIN, your role is MEMBER",
		},
		{
			name:    "admin cannot grant owner",
			caller:  f.admin.ID,
			input:   AddMemberInput{UserID: f.other.ID.String(), Role: "OWNER"},
			kind:    apierr.KindForbidden,
			message: MsgGrantOwner,
		},
		{
			name:    "unknown role",
			caller:  f.admin.ID,
			input:   AddMemberInput{UserID: f.other.ID.String(), Role: "ROOT"},
			kind:    apierr.KindValidation,
			message: MsgInvalidRole,
		},
		{
			name:    "invalid user id",
			caller:  f.admin.ID,
			input:   AddMemberInput{UserID: "abc", Role: "VIEWER"},
			kind:    apierr.KindValidation,
			message: "userId must be a valid UUID",
		},
		{
			name:    "unknown account",
			caller:  f.admin.ID,
			input:   AddMemberInput{UserID: uuid.NewString(), Role: "VIEWER"},
			kind:    apierr.KindNotFound,
			message: apierr.MsgUserNotFound,
		},
		{
			name:    "already a member",
			caller:  f.admin.ID,
			input:   AddMemberInput{UserID: f.member.ID.String(), Role: "VIEWER"},
			kind:    apierr.KindConflict,
			message: "User is already a member of this organization",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.orgs.AddMember(ctx, tt.caller, f.org.ID, tt.input)
			requireAPIError(t, err, tt.kind, tt.message)
		})
	}

	t.Run("owner grants owner", func(t *testing.T) {
		m, err := f.orgs.AddMember(ctx, f.owner.ID, f.org.ID, AddMemberInput{UserID: f.other.ID.String(), Role: "OWNER"})
		require.NoError(t, err)
		require.Equal(t, models.RoleOwner, m.Role)
		require.Equal(t, f.other.ID, m.AccountID)
	})
}

func TestOrganizationsRemoveMember(t *testing.T) {
	ctx := context.Background()
	f := newOrgFixture(t)

	_, err := f.orgs.RemoveMember(ctx, f.member.ID, f.org.ID, f.admin.ID)
	requireAPIError(t, err, apierr.KindForbidden)

	_, err = f.orgs.RemoveMember(ctx, f.admin.ID, f.org.ID, f.owner.ID)
	requireAPIError(t, err, apierr.KindForbidden, MsgRemoveOwner)

	_, err = f.orgs.RemoveMember(ctx, f.admin.ID, f.org.ID, f.other.ID)
	requireAPIError(t, err, apierr.KindNotFound, "Member not found")

	res, err := f.orgs.RemoveMember(ctx, f.admin.ID, f.org.ID, f.member.ID)
	require.NoError(t, err)
	require.Equal(t, f.member.ID, res.ID)

	_, err = f.stores.Memberships.Get(ctx, f.member.ID, f.org.ID)
	require.ErrorIs(t, err, store.ErrMembershipNotFound)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("entropy unavailable")
}

// failRandom makes uuid generation fail until the test ends.
func failRandom(t *testing.T) {
	t.Helper()
	uuid.SetRand(failingReader{})
	t.Cleanup(func() { uuid.SetRand(nil) })
}

func TestOrganizationsIDGenerationFailure(t *testing.T) {
	ctx := context.Background()

	t.Run("create", func(t *testing.T) {
		f := newOrgFixture(t)
		failRandom(t)

		_, err := f.orgs.Create(ctx, f.other.ID, CreateOrganizationInput{Name: "Globex"})
		requireAPIError(t, err, apierr.KindInternal)

		orgs, err := f.orgs.List(ctx, f.other.ID)
		require.NoError(t, err)
		require.Empty(t, orgs)
	})

	t.Run("add member", func(t *testing.T) {
		f := newOrgFixture(t)
		failRandom(t)

		_, err := f.orgs.AddMember(ctx, f.owner.ID, f.org.ID, AddMemberInput{UserID: f.other.ID.String(), Role: "VIEWER"})
		requireAPIError(t, err, apierr.KindInternal)

		_, err = f.stores.Memberships.Get(ctx, f.other.ID, f.org.ID)
		require.ErrorIs(t, err, store.ErrMembershipNotFound)
	})
}
