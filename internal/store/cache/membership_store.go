// Package cache provides redis backed read-through decorators for the stores
// consulted on every tenant scoped request.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/multicloud/internal/models"
	"github.com/wolfeidau/multicloud/internal/store"
)

const (
	membershipKeyPrefix = "membership"

	// DefaultTTL bounds how long a role change made outside this process stays invisible.
	DefaultTTL = 30 * time.Second
)

// MembershipStore caches membership lookups in redis.
// Only found memberships are cached. Writes through this store invalidate the
// cached entry, and redis failures fall back to the wrapped store.
type MembershipStore struct {
	next   store.MembershipStore
	client redis.UniversalClient
	ttl    time.Duration
}

// NewMembershipStore wraps next with a redis cache.
func NewMembershipStore(next store.MembershipStore, client redis.UniversalClient, ttl time.Duration) *MembershipStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MembershipStore{next: next, client: client, ttl: ttl}
}

func membershipKey(accountID, orgID uuid.UUID) string {
	return membershipKeyPrefix + ":" + accountID.String() + ":" + orgID.String()
}

// Create adds the membership and drops any cached entry for the pair.
func (s *MembershipStore) Create(ctx context.Context, membership *models.Membership) error {
	if err := s.next.Create(ctx, membership); err != nil {
		return err
	}
	s.invalidate(ctx, membership.AccountID, membership.OrganizationID)
	return nil
}

// Get returns the cached membership or loads and caches it from the wrapped store.
func (s *MembershipStore) Get(ctx context.Context, accountID, orgID uuid.UUID) (*models.Membership, error) {
	logger := zerolog.Ctx(ctx)
	key := membershipKey(accountID, orgID)

	data, err := s.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var m models.Membership
		if err := json.Unmarshal(data, &m); err == nil {
			return &m, nil
		}
		logger.Warn().Str("key", key).Msg("Discarding undecodable cached membership")
	case errors.Is(err, redis.Nil):
	default:
		logger.Warn().Err(err).Str("key", key).Msg("Membership cache unavailable")
	}

	m, err := s.next.Get(ctx, accountID, orgID)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(m); err == nil {
		if err := s.client.Set(ctx, key, encoded, s.ttl).Err(); err != nil {
			logger.Warn().Err(err).Str("key", key).Msg("Failed to cache membership")
		}
	}

	return m, nil
}

// ListByAccount is not cached.
func (s *MembershipStore) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*models.Membership, error) {
	return s.next.ListByAccount(ctx, accountID)
}

// Delete removes the membership and its cached entry.
func (s *MembershipStore) Delete(ctx context.Context, accountID, orgID uuid.UUID) error {
	err := s.next.Delete(ctx, accountID, orgID)
	s.invalidate(ctx, accountID, orgID)
	return err
}

func (s *MembershipStore) invalidate(ctx context.Context, accountID, orgID uuid.UUID) {
	key := membershipKey(accountID, orgID)
	if err := s.client.Del(ctx, key).Err(); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("Failed to invalidate cached membership")
	}
}

// Ping checks redis connectivity.
func Ping(ctx context.Context, client redis.UniversalClient) error {
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}
	return nil
}
