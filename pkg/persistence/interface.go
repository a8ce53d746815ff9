package persistence

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrAccountExists is returned by CreateAccount when the address is already allocated.
	ErrAccountExists = errors.New("account already exists")

	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("persistence layer is closed")
)

// IAccountPersistence is the storage collaborator holding tree accounts.
// All implementations must be thread-safe as the program serves concurrent requests.
//
// The interface supports:
// - Account allocation (create once, fail if already allocated)
// - Account data updates and lookups by address
// - Lifecycle management (close, health check)
type IAccountPersistence interface {
	// Account Management

	// CreateAccount allocates a new account at account.Address.
	// Returns ErrAccountExists (wrapped) if the address is already allocated.
	CreateAccount(account *TreeAccount) error

	// SaveAccount overwrites the data of an existing or new account.
	SaveAccount(account *TreeAccount) error

	// LoadAccount retrieves an account by address.
	// Returns nil if the account doesn't exist, error only on storage failure.
	LoadAccount(address common.Address) (*TreeAccount, error)

	// ListAccounts returns all accounts sorted by address.
	// Returns empty slice if no accounts exist, error only on storage failure.
	ListAccounts() ([]*TreeAccount, error)

	// DeleteAccount removes an account.
	// Idempotent - returns nil if the account doesn't exist.
	DeleteAccount(address common.Address) error

	// Lifecycle Management

	// Close cleanly shuts down the persistence layer.
	// Idempotent - safe to call multiple times.
	// After Close(), all other operations should return errors.
	Close() error

	// HealthCheck verifies the persistence layer is operational.
	// Returns nil if healthy, error describing the problem if not.
	HealthCheck() error
}
