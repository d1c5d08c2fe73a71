package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/wolfeidau/multicloud/internal/models"
	"github.com/wolfeidau/multicloud/internal/store"
)

type membershipKey struct {
	accountID uuid.UUID
	orgID     uuid.UUID
}

// MembershipStore implements store.MembershipStore using in-memory storage.
// This implementation is for testing only - data is lost on restart.
type MembershipStore struct {
	mu sync.RWMutex

	memberships map[membershipKey]*models.Membership
}

// NewMembershipStore creates a new in-memory membership store.
func NewMembershipStore() *MembershipStore {
	return &MembershipStore{
		memberships: make(map[membershipKey]*models.Membership),
	}
}

// Create adds an account to an organization.
func (s *MembershipStore) Create(ctx context.Context, membership *models.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := membershipKey{accountID: membership.AccountID, orgID: membership.OrganizationID}
	if _, exists := s.memberships[key]; exists {
		return store.ErrMembershipExists
	}
	if !membership.Role.Valid() {
		return store.ErrConstraint
	}

	clone := *membership
	s.memberships[key] = &clone

	return nil
}

// Get retrieves the membership of an account in an organization.
func (s *MembershipStore) Get(ctx context.Context, accountID, orgID uuid.UUID) (*models.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	membership, exists := s.memberships[membershipKey{accountID: accountID, orgID: orgID}]
	if !exists {
		return nil, store.ErrMembershipNotFound
	}

	clone := *membership
	return &clone, nil
}

// ListByAccount returns every membership held by an account, oldest first.
func (s *MembershipStore) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*models.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.Membership
	for key, membership := range s.memberships {
		if key.accountID == accountID {
			clone := *membership
			result = append(result, &clone)
		}
	}

	slices.SortFunc(result, func(a, b *models.Membership) int {
		return a.JoinedAt.Compare(b.JoinedAt)
	})

	return result, nil
}

// Delete removes an account from an organization.
func (s *MembershipStore) Delete(ctx context.Context, accountID, orgID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := membershipKey{accountID: accountID, orgID: orgID}
	if _, exists := s.memberships[key]; !exists {
		return store.ErrMembershipNotFound
	}

	delete(s.memberships, key)
	return nil
}

func (s *MembershipStore) deleteByAccount(accountID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key := range s.memberships {
		if key.accountID == accountID {
			delete(s.memberships, key)
		}
	}
}

func (s *MembershipStore) deleteByOrganization(orgID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key := range s.memberships {
		if key.orgID == orgID {
			delete(s.memberships, key)
		}
	}
}
