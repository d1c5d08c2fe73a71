//go:build integration

package postgres

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/wolfeidau/multicloud/internal/models"
	"github.com/wolfeidau/multicloud/internal/store"
)

func setupPostgresContainer(t *testing.T, ctx context.Context) (*pgxpool.Pool, func()) {
	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	pool, err := NewPool(ctx, &PoolConfig{
		ConnString: fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port()),
		MaxConns:   10,
		MinConns:   1,
	})
	require.NoError(t, err)

	require.NoError(t, RunMigrations(ctx, pool))

	// Running twice must be a no-op
	require.NoError(t, RunMigrations(ctx, pool))

	cleanup := func() {
		pool.Close()
		_ = container.Terminate(ctx)
	}

	return pool, cleanup
}

func TestIntegration_Stores(t *testing.T) {
	ctx := context.Background()
	pool, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	accounts := NewAccountStore(pool)
	sessions := NewSessionStore(pool)
	orgs := NewOrganizationStore(pool)
	memberships := NewMembershipStore(pool)
	cloudAccounts := NewCloudAccountStore(pool)

	now := time.Now().UTC().Truncate(time.Microsecond)
	account := &models.Account{
		ID:           uuid.Must(uuid.NewV7()),
		Name:         "Integration User",
		Email:        "a@x.com",
		CPF:          "11144477735",
		PasswordHash: "hash",
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	t.Run("account uniqueness", func(t *testing.T) {
		require.NoError(t, accounts.Create(ctx, account))

		dup := *account
		dup.ID = uuid.Must(uuid.NewV7())
		require.ErrorIs(t, accounts.Create(ctx, &dup), store.ErrEmailTaken)

		dup.Email = "b@x.com"
		require.ErrorIs(t, accounts.Create(ctx, &dup), store.ErrCPFTaken)

		got, err := accounts.GetByEmail(ctx, "a@x.com")
		require.NoError(t, err)
		require.Equal(t, account.ID, got.ID)
	})

	t.Run("concurrent registration with same email", func(t *testing.T) {
		var wg sync.WaitGroup
		var successes atomic.Int32
		cpfs := []string{"52998224725", "39053344705"}
		errs := make(chan error, len(cpfs))

		for _, cpf := range cpfs {
			wg.Add(1)
			go func(cpf string) {
				defer wg.Done()
				err := accounts.Create(ctx, &models.Account{
					ID:           uuid.Must(uuid.NewV7()),
					Name:         "Racer",
					Email:        "race@x.com",
					CPF:          cpf,
					PasswordHash: "hash",
					IsActive:     true,
					CreatedAt:    now,
					UpdatedAt:    now,
				})
				if err == nil {
					successes.Add(1)
					return
				}
				errs <- err
			}(cpf)
		}

		wg.Wait()
		close(errs)
		require.Equal(t, int32(1), successes.Load())
		for err := range errs {
			require.ErrorIs(t, err, store.ErrEmailTaken)
		}
	})

	t.Run("session rotation delete wins once", func(t *testing.T) {
		session := &models.Session{
			SessionID:        uuid.Must(uuid.NewV7()),
			AccountID:        account.ID,
			RefreshTokenHash: "0000000000000000000000000000000000000000000000000000000000000001",
			CreatedAt:        now,
			UpdatedAt:        now,
			ExpiresAt:        now.Add(time.Hour),
			IPAddress:        "10.0.0.1",
		}
		require.NoError(t, sessions.Create(ctx, session))

		got, err := sessions.GetByTokenHash(ctx, session.RefreshTokenHash)
		require.NoError(t, err)
		require.Equal(t, "10.0.0.1", got.IPAddress)

		require.NoError(t, sessions.Delete(ctx, session.SessionID))
		require.ErrorIs(t, sessions.Delete(ctx, session.SessionID), store.ErrSessionNotFound)
	})

	t.Run("memberships and cascade", func(t *testing.T) {
		org := &models.Organization{ID: uuid.Must(uuid.NewV7()), Name: "ACME", CNPJ: "12345678000190", CreatedAt: now, UpdatedAt: now}
		require.NoError(t, orgs.Create(ctx, org))

		other := &models.Organization{ID: uuid.Must(uuid.NewV7()), Name: "ACME", CreatedAt: now, UpdatedAt: now}
		require.ErrorIs(t, orgs.Create(ctx, other), store.ErrOrganizationNameTaken)

		membership := &models.Membership{
			ID:             uuid.Must(uuid.NewV7()),
			AccountID:      account.ID,
			OrganizationID: org.ID,
			Role:           models.RoleOwner,
			JoinedAt:       now,
		}
		require.NoError(t, memberships.Create(ctx, membership))
		require.ErrorIs(t, memberships.Create(ctx, membership), store.ErrMembershipExists)

		dangling := &models.Membership{
			ID:             uuid.Must(uuid.NewV7()),
			AccountID:      uuid.Must(uuid.NewV7()),
			OrganizationID: org.ID,
			Role:           models.RoleViewer,
			JoinedAt:       now,
		}
		require.ErrorIs(t, memberships.Create(ctx, dangling), store.ErrInvalidReference)

		cloud := &models.CloudAccount{
			ID:                   uuid.Must(uuid.NewV7()),
			OrganizationID:       org.ID,
			Provider:             models.CloudProviderAWS,
			Alias:                "production",
			CredentialsEncrypted: "sealed",
			IsActive:             true,
			CreatedAt:            now,
			UpdatedAt:            now,
		}
		require.NoError(t, cloudAccounts.Create(ctx, cloud))

		list, err := cloudAccounts.ListByOrganization(ctx, org.ID)
		require.NoError(t, err)
		require.Len(t, list, 1)
		require.Empty(t, list[0].CredentialsEncrypted)

		withCreds, err := cloudAccounts.GetWithCredentials(ctx, org.ID, cloud.ID)
		require.NoError(t, err)
		require.Equal(t, "sealed", withCreds.CredentialsEncrypted)

		require.NoError(t, orgs.Delete(ctx, org.ID))

		_, err = memberships.Get(ctx, account.ID, org.ID)
		require.ErrorIs(t, err, store.ErrMembershipNotFound)

		_, err = cloudAccounts.Get(ctx, org.ID, cloud.ID)
		require.ErrorIs(t, err, store.ErrCloudAccountNotFound)
	})
}
