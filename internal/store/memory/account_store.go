package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wolfeidau/multicloud/internal/models"
	"github.com/wolfeidau/multicloud/internal/store"
)

// AccountStore implements store.AccountStore using in-memory storage.
// This implementation is for testing only - data is lost on restart.
type AccountStore struct {
	mu sync.RWMutex

	accounts map[uuid.UUID]*models.Account // account_id -> Account
	byEmail  map[string]uuid.UUID          // email -> account_id
	byCPF    map[string]uuid.UUID          // cpf -> account_id

	// cascade targets, optional
	sessions    *SessionStore
	memberships *MembershipStore
}

// NewAccountStore creates a new in-memory account store.
// When sessions or memberships are provided, deleting an account removes its
// dependent rows the same way the database foreign keys do.
func NewAccountStore(sessions *SessionStore, memberships *MembershipStore) *AccountStore {
	return &AccountStore{
		accounts:    make(map[uuid.UUID]*models.Account),
		byEmail:     make(map[string]uuid.UUID),
		byCPF:       make(map[string]uuid.UUID),
		sessions:    sessions,
		memberships: memberships,
	}
}

// Create creates a new account in memory.
func (s *AccountStore) Create(ctx context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[account.Email]; exists {
		return store.ErrEmailTaken
	}
	if _, exists := s.byCPF[account.CPF]; exists {
		return store.ErrCPFTaken
	}

	clone := *account
	s.accounts[account.ID] = &clone
	s.byEmail[account.Email] = account.ID
	s.byCPF[account.CPF] = account.ID

	return nil
}

// Get retrieves an account by ID.
func (s *AccountStore) Get(ctx context.Context, accountID uuid.UUID) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lookup(accountID, true)
}

// GetByEmail retrieves an account by normalized email.
func (s *AccountStore) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accountID, exists := s.byEmail[email]
	return s.lookup(accountID, exists)
}

// GetByCPF retrieves an account by tax id.
func (s *AccountStore) GetByCPF(ctx context.Context, cpf string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accountID, exists := s.byCPF[cpf]
	return s.lookup(accountID, exists)
}

// List returns all accounts ordered by creation time.
func (s *AccountStore) List(ctx context.Context) ([]*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*models.Account, 0, len(s.accounts))
	for _, account := range s.accounts {
		clone := *account
		result = append(result, &clone)
	}

	slices.SortFunc(result, func(a, b *models.Account) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	return result, nil
}

// Update updates an existing account, keeping the email and cpf indexes unique.
func (s *AccountStore) Update(ctx context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.accounts[account.ID]
	if !exists {
		return store.ErrAccountNotFound
	}

	if id, taken := s.byEmail[account.Email]; taken && id != account.ID {
		return store.ErrEmailTaken
	}
	if id, taken := s.byCPF[account.CPF]; taken && id != account.ID {
		return store.ErrCPFTaken
	}

	delete(s.byEmail, existing.Email)
	delete(s.byCPF, existing.CPF)

	account.UpdatedAt = time.Now()
	clone := *account
	clone.PasswordHash = existing.PasswordHash
	clone.CreatedAt = existing.CreatedAt
	s.accounts[account.ID] = &clone
	s.byEmail[account.Email] = account.ID
	s.byCPF[account.CPF] = account.ID

	return nil
}

// Delete deletes an account and cascades to its sessions and memberships.
func (s *AccountStore) Delete(ctx context.Context, accountID uuid.UUID) error {
	s.mu.Lock()
	account, exists := s.accounts[accountID]
	if !exists {
		s.mu.Unlock()
		return store.ErrAccountNotFound
	}

	delete(s.byEmail, account.Email)
	delete(s.byCPF, account.CPF)
	delete(s.accounts, accountID)
	s.mu.Unlock()

	if s.sessions != nil {
		s.sessions.deleteByAccount(accountID)
	}
	if s.memberships != nil {
		s.memberships.deleteByAccount(accountID)
	}

	return nil
}

// lookup must be called with the read lock held.
func (s *AccountStore) lookup(accountID uuid.UUID, exists bool) (*models.Account, error) {
	if !exists {
		return nil, store.ErrAccountNotFound
	}

	account, exists := s.accounts[accountID]
	if !exists {
		return nil, store.ErrAccountNotFound
	}

	clone := *account
	return &clone, nil
}
