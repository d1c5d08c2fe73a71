package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/wolfeidau/multicloud/internal/models"
	"github.com/wolfeidau/multicloud/internal/store"
)

// CloudAccountStore implements store.CloudAccountStore using in-memory storage.
// This implementation is for testing only - data is lost on restart.
type CloudAccountStore struct {
	mu sync.RWMutex

	accounts map[uuid.UUID]*models.CloudAccount // cloud_account_id -> CloudAccount
}

// NewCloudAccountStore creates a new in-memory cloud account store.
func NewCloudAccountStore() *CloudAccountStore {
	return &CloudAccountStore{
		accounts: make(map[uuid.UUID]*models.CloudAccount),
	}
}

// Create stores a new cloud account.
func (s *CloudAccountStore) Create(ctx context.Context, account *models.CloudAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !account.Provider.Valid() {
		return store.ErrConstraint
	}

	for _, existing := range s.accounts {
		if existing.OrganizationID == account.OrganizationID && existing.Alias == account.Alias {
			return store.ErrCloudAccountAliasTaken
		}
	}

	clone := *account
	s.accounts[account.ID] = &clone

	return nil
}

// ListByOrganization returns the organization's cloud accounts without credentials.
func (s *CloudAccountStore) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]*models.CloudAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []*models.CloudAccount{}
	for _, account := range s.accounts {
		if account.OrganizationID == orgID {
			result = append(result, withoutCredentials(account))
		}
	}

	slices.SortFunc(result, func(a, b *models.CloudAccount) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	return result, nil
}

// Get retrieves a cloud account without credentials.
func (s *CloudAccountStore) Get(ctx context.Context, orgID, accountID uuid.UUID) (*models.CloudAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, exists := s.accounts[accountID]
	if !exists || account.OrganizationID != orgID {
		return nil, store.ErrCloudAccountNotFound
	}

	return withoutCredentials(account), nil
}

// GetWithCredentials retrieves a cloud account including the encrypted credentials.
func (s *CloudAccountStore) GetWithCredentials(ctx context.Context, orgID, accountID uuid.UUID) (*models.CloudAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, exists := s.accounts[accountID]
	if !exists || account.OrganizationID != orgID {
		return nil, store.ErrCloudAccountNotFound
	}

	clone := *account
	return &clone, nil
}

func (s *CloudAccountStore) deleteByOrganization(orgID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, account := range s.accounts {
		if account.OrganizationID == orgID {
			delete(s.accounts, id)
		}
	}
}

func withoutCredentials(account *models.CloudAccount) *models.CloudAccount {
	clone := *account
	clone.CredentialsEncrypted = ""
	return &clone
}
