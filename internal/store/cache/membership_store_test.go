package cache

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/multicloud/internal/models"
	"github.com/wolfeidau/multicloud/internal/store"
	"github.com/wolfeidau/multicloud/internal/store/memory"
)

// countingStore counts lookups that reach the wrapped store.
type countingStore struct {
	store.MembershipStore
	gets atomic.Int32
}

func (c *countingStore) Get(ctx context.Context, accountID, orgID uuid.UUID) (*models.Membership, error) {
	c.gets.Add(1)
	return c.MembershipStore.Get(ctx, accountID, orgID)
}

func setup(t *testing.T) (*MembershipStore, *countingStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	backing := &countingStore{MembershipStore: memory.NewMembershipStore()}
	return NewMembershipStore(backing, client, time.Minute), backing, mr
}

func newMembership(role models.Role) *models.Membership {
	return &models.Membership{
		ID:             uuid.Must(uuid.NewV7()),
		AccountID:      uuid.Must(uuid.NewV7()),
		OrganizationID: uuid.Must(uuid.NewV7()),
		Role:           role,
		JoinedAt:       time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestMembershipStoreGet(t *testing.T) {
	ctx := context.Background()

	t.Run("second lookup is served from redis", func(t *testing.T) {
		s, backing, mr := setup(t)
		m := newMembership(models.RoleAdmin)
		require.NoError(t, s.Create(ctx, m))

		got, err := s.Get(ctx, m.AccountID, m.OrganizationID)
		require.NoError(t, err)
		require.Equal(t, m.Role, got.Role)
		require.True(t, mr.Exists(membershipKey(m.AccountID, m.OrganizationID)))

		got, err = s.Get(ctx, m.AccountID, m.OrganizationID)
		require.NoError(t, err)
		require.Equal(t, m.ID, got.ID)
		require.Equal(t, int32(1), backing.gets.Load())
	})

	t.Run("misses are not cached", func(t *testing.T) {
		s, backing, mr := setup(t)
		m := newMembership(models.RoleViewer)

		_, err := s.Get(ctx, m.AccountID, m.OrganizationID)
		require.ErrorIs(t, err, store.ErrMembershipNotFound)
		require.False(t, mr.Exists(membershipKey(m.AccountID, m.OrganizationID)))

		require.NoError(t, s.Create(ctx, m))
		_, err = s.Get(ctx, m.AccountID, m.OrganizationID)
		require.NoError(t, err)
		require.Equal(t, int32(2), backing.gets.Load())
	})

	t.Run("entries expire", func(t *testing.T) {
		s, backing, mr := setup(t)
		m := newMembership(models.RoleMember)
		require.NoError(t, s.Create(ctx, m))

		_, err := s.Get(ctx, m.AccountID, m.OrganizationID)
		require.NoError(t, err)

		mr.FastForward(2 * time.Minute)

		_, err = s.Get(ctx, m.AccountID, m.OrganizationID)
		require.NoError(t, err)
		require.Equal(t, int32(2), backing.gets.Load())
	})

	t.Run("redis outage falls back to the store", func(t *testing.T) {
		s, backing, mr := setup(t)
		m := newMembership(models.RoleOwner)
		require.NoError(t, s.Create(ctx, m))
		mr.Close()

		got, err := s.Get(ctx, m.AccountID, m.OrganizationID)
		require.NoError(t, err)
		require.Equal(t, models.RoleOwner, got.Role)
		require.Equal(t, int32(1), backing.gets.Load())
	})
}

func TestMembershipStoreDeleteInvalidates(t *testing.T) {
	ctx := context.Background()
	s, _, mr := setup(t)
	m := newMembership(models.RoleAdmin)
	require.NoError(t, s.Create(ctx, m))

	_, err := s.Get(ctx, m.AccountID, m.OrganizationID)
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, m.AccountID, m.OrganizationID))
	require.False(t, mr.Exists(membershipKey(m.AccountID, m.OrganizationID)))

	_, err = s.Get(ctx, m.AccountID, m.OrganizationID)
	require.ErrorIs(t, err, store.ErrMembershipNotFound)
}

func TestMembershipStoreCreateInvalidatesStaleEntry(t *testing.T) {
	ctx := context.Background()
	s, _, mr := setup(t)
	m := newMembership(models.RoleViewer)

	// stale entry left behind by a membership removed elsewhere
	require.NoError(t, mr.Set(membershipKey(m.AccountID, m.OrganizationID), `{"role":"OWNER"}`))

	require.NoError(t, s.Create(ctx, m))

	got, err := s.Get(ctx, m.AccountID, m.OrganizationID)
	require.NoError(t, err)
	require.Equal(t, models.RoleViewer, got.Role)
}

func TestPing(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	require.NoError(t, Ping(context.Background(), client))
	mr.Close()
	require.Error(t, Ping(context.Background(), client))
}
