package account

import (
	"context"
	"sync"
)

// MemoryRepository is an in-process Repository for tests and for wiring
// dependent packages without a database.
type MemoryRepository struct {
	accounts map[string]*Account
	byEmail  map[string]*Account
	mu       sync.RWMutex
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		accounts: make(map[string]*Account),
		byEmail:  make(map[string]*Account),
	}
}

func (r *MemoryRepository) Create(_ context.Context, account *Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[account.Email]; exists {
		return ErrEmailTaken
	}

	// Clone to prevent external modifications
	stored := *account
	r.accounts[stored.ID] = &stored
	r.byEmail[stored.Email] = &stored
	return nil
}

func (r *MemoryRepository) FindByEmail(_ context.Context, email string) (*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, exists := r.byEmail[email]
	if !exists {
		return nil, ErrAccountNotFound
	}
	copied := *account
	return &copied, nil
}

func (r *MemoryRepository) FindByID(_ context.Context, id string) (*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, exists := r.accounts[id]
	if !exists {
		return nil, ErrAccountNotFound
	}
	copied := *account
	return &copied, nil
}

func (r *MemoryRepository) UpdatePasswordHash(_ context.Context, id, digest string) (*Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, exists := r.accounts[id]
	if !exists {
		return nil, ErrAccountNotFound
	}
	account.PasswordHash = digest
	copied := *account
	return &copied, nil
}
