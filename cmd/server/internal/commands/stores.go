package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/multicloud/internal/store"
	"github.com/wolfeidau/multicloud/internal/store/cache"
	memorystore "github.com/wolfeidau/multicloud/internal/store/memory"
	postgresstore "github.com/wolfeidau/multicloud/internal/store/postgres"
)

// backends is one set of stores sharing a connection.
type backends struct {
	accounts      store.AccountStore
	sessions      store.SessionStore
	organizations store.OrganizationStore
	memberships   store.MembershipStore
	cloudAccounts store.CloudAccountStore

	health func(ctx context.Context) error
	close  func()
}

func memoryBackends() *backends {
	stores := memorystore.NewStores()
	return &backends{
		accounts:      stores.Accounts,
		sessions:      stores.Sessions,
		organizations: stores.Organizations,
		memberships:   stores.Memberships,
		cloudAccounts: stores.CloudAccounts,
		health:        func(context.Context) error { return nil },
		close:         func() {},
	}
}

func postgresBackends(ctx context.Context, flags *PostgresFlags, autoMigrate bool) (*backends, error) {
	pool, err := flags.pool(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	if autoMigrate {
		if err := postgresstore.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	return &backends{
		accounts:      postgresstore.NewAccountStore(pool),
		sessions:      postgresstore.NewSessionStore(pool),
		organizations: postgresstore.NewOrganizationStore(pool),
		memberships:   postgresstore.NewMembershipStore(pool),
		cloudAccounts: postgresstore.NewCloudAccountStore(pool),
		health:        pool.Ping,
		close:         pool.Close,
	}, nil
}

// withMembershipCache puts a redis read-through cache in front of the membership store.
func (b *backends) withMembershipCache(ctx context.Context, addr string, ttl time.Duration) error {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := cache.Ping(ctx, client); err != nil {
		_ = client.Close()
		return err
	}

	b.memberships = cache.NewMembershipStore(b.memberships, client, ttl)

	next := b.close
	b.close = func() {
		if err := client.Close(); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("Failed to close redis client")
		}
		next()
	}

	zerolog.Ctx(ctx).Info().Str("addr", addr).Dur("ttl", ttl).Msg("Membership cache enabled")
	return nil
}
