package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wolfeidau/multicloud/internal/models"
	"github.com/wolfeidau/multicloud/internal/store"
)

// OrganizationStore implements store.OrganizationStore using in-memory storage.
// This implementation is for testing only - data is lost on restart.
type OrganizationStore struct {
	mu sync.RWMutex

	organizations map[uuid.UUID]*models.Organization // org_id -> Organization

	// cascade targets, optional
	memberships   *MembershipStore
	cloudAccounts *CloudAccountStore
}

// NewOrganizationStore creates a new in-memory organization store.
// Deleting an organization removes its memberships and cloud accounts from the given stores.
func NewOrganizationStore(memberships *MembershipStore, cloudAccounts *CloudAccountStore) *OrganizationStore {
	return &OrganizationStore{
		organizations: make(map[uuid.UUID]*models.Organization),
		memberships:   memberships,
		cloudAccounts: cloudAccounts,
	}
}

// Create creates a new organization in memory.
func (s *OrganizationStore) Create(ctx context.Context, org *models.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkUnique(org); err != nil {
		return err
	}

	// Clone to avoid external modifications
	clone := *org
	s.organizations[org.ID] = &clone

	return nil
}

// Get retrieves an organization by ID.
func (s *OrganizationStore) Get(ctx context.Context, orgID uuid.UUID) (*models.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	org, exists := s.organizations[orgID]
	if !exists {
		return nil, store.ErrOrganizationNotFound
	}

	clone := *org
	return &clone, nil
}

// Update updates an existing organization.
func (s *OrganizationStore) Update(ctx context.Context, org *models.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.organizations[org.ID]
	if !exists {
		return store.ErrOrganizationNotFound
	}

	if err := s.checkUnique(org); err != nil {
		return err
	}

	org.UpdatedAt = time.Now()
	clone := *org
	clone.CreatedAt = existing.CreatedAt
	s.organizations[org.ID] = &clone

	return nil
}

// Delete deletes an organization and cascades to memberships and cloud accounts.
func (s *OrganizationStore) Delete(ctx context.Context, orgID uuid.UUID) error {
	s.mu.Lock()
	if _, exists := s.organizations[orgID]; !exists {
		s.mu.Unlock()
		return store.ErrOrganizationNotFound
	}
	delete(s.organizations, orgID)
	s.mu.Unlock()

	if s.memberships != nil {
		s.memberships.deleteByOrganization(orgID)
	}
	if s.cloudAccounts != nil {
		s.cloudAccounts.deleteByOrganization(orgID)
	}

	return nil
}

// checkUnique must be called with the write lock held.
func (s *OrganizationStore) checkUnique(org *models.Organization) error {
	for id, existing := range s.organizations {
		if id == org.ID {
			continue
		}
		if existing.Name == org.Name {
			return store.ErrOrganizationNameTaken
		}
		if org.CNPJ != "" && existing.CNPJ == org.CNPJ {
			return store.ErrCNPJTaken
		}
	}
	return nil
}
