package memory

import (
	"fmt"
	"sync"

	"github.com/Layr-Labs/merkle-tree-go/pkg/persistence"
	"github.com/ethereum/go-ethereum/common"
)

// MemoryPersistence is an in-memory implementation of IAccountPersistence.
// This implementation is intended for TESTING ONLY.
//
// All data is stored in memory and will be lost when the process exits.
// Thread-safe using sync.RWMutex for concurrent access.
// Deep copies data to prevent external mutation.
type MemoryPersistence struct {
	mu sync.RWMutex

	// Account storage: address -> TreeAccount
	accounts map[common.Address]*persistence.TreeAccount

	// Closed flag
	closed bool
}

// NewMemoryPersistence creates a new in-memory persistence layer.
// Prints a loud warning since this should only be used for testing.
func NewMemoryPersistence() *MemoryPersistence {
	fmt.Println("⚠️  WARNING: Using in-memory persistence - ALL DATA WILL BE LOST ON RESTART")
	fmt.Println("⚠️  This should ONLY be used for testing. Set MERKLE_PERSISTENCE_TYPE=badger for production")

	return &MemoryPersistence{
		accounts: make(map[common.Address]*persistence.TreeAccount),
	}
}

// CreateAccount allocates a new account.
func (m *MemoryPersistence) CreateAccount(account *persistence.TreeAccount) error {
	if account == nil {
		return fmt.Errorf("cannot create nil TreeAccount")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return persistence.ErrClosed
	}

	if _, exists := m.accounts[account.Address]; exists {
		return fmt.Errorf("%w: %s", persistence.ErrAccountExists, account.Address.Hex())
	}

	m.accounts[account.Address] = account.Copy()
	return nil
}

// SaveAccount persists an account.
func (m *MemoryPersistence) SaveAccount(account *persistence.TreeAccount) error {
	if account == nil {
		return fmt.Errorf("cannot save nil TreeAccount")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return persistence.ErrClosed
	}

	m.accounts[account.Address] = account.Copy()
	return nil
}

// LoadAccount retrieves an account by address.
func (m *MemoryPersistence) LoadAccount(address common.Address) (*persistence.TreeAccount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, persistence.ErrClosed
	}

	account, exists := m.accounts[address]
	if !exists {
		return nil, nil // Not found is not an error
	}

	return account.Copy(), nil
}

// ListAccounts returns all accounts sorted by address.
func (m *MemoryPersistence) ListAccounts() ([]*persistence.TreeAccount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, persistence.ErrClosed
	}

	result := make([]*persistence.TreeAccount, 0, len(m.accounts))
	for _, account := range m.accounts {
		result = append(result, account.Copy())
	}
	persistence.SortAccounts(result)

	return result, nil
}

// DeleteAccount removes an account.
func (m *MemoryPersistence) DeleteAccount(address common.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return persistence.ErrClosed
	}

	delete(m.accounts, address)
	return nil
}

// Close shuts down the persistence layer.
func (m *MemoryPersistence) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	return nil
}

// HealthCheck verifies the persistence layer is operational.
func (m *MemoryPersistence) HealthCheck() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return persistence.ErrClosed
	}

	return nil
}
