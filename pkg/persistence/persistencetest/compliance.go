// Package persistencetest holds a behavior suite shared by every
// IAccountPersistence implementation.
package persistencetest

import (
	"bytes"
	"crypto/rand"
	"errors"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Layr-Labs/merkle-tree-go/pkg/persistence"
)

// Factory opens a fresh, empty persistence layer for one subtest.
type Factory func(t *testing.T) persistence.IAccountPersistence

// RandomAddress returns a random address so suites can share a backend.
func RandomAddress() common.Address {
	var a common.Address
	_, _ = rand.Read(a[:])
	return a
}

// NewAccount builds a populated account at a random address.
func NewAccount(dataLen int) *persistence.TreeAccount {
	data := make([]byte, dataLen)
	_, _ = rand.Read(data)
	return &persistence.TreeAccount{
		Address:   RandomAddress(),
		Payer:     RandomAddress(),
		Hasher:    "sha256",
		Data:      data,
		CreatedAt: 1700000000,
		UpdatedAt: 1700000000,
	}
}

// TestPersistenceCompliance runs the shared behavior suite against f.
func TestPersistenceCompliance(t *testing.T, f Factory) {
	t.Run("create and load", func(t *testing.T) {
		p := f(t)
		defer func() { _ = p.Close() }()

		account := NewAccount(481)
		require.NoError(t, p.CreateAccount(account))

		loaded, err := p.LoadAccount(account.Address)
		require.NoError(t, err)
		require.NotNil(t, loaded)
		assert.Equal(t, account.Address, loaded.Address)
		assert.Equal(t, account.Payer, loaded.Payer)
		assert.Equal(t, account.Hasher, loaded.Hasher)
		assert.Equal(t, []byte(account.Data), []byte(loaded.Data))
		assert.Equal(t, account.CreatedAt, loaded.CreatedAt)
	})

	t.Run("create twice fails", func(t *testing.T) {
		p := f(t)
		defer func() { _ = p.Close() }()

		account := NewAccount(16)
		require.NoError(t, p.CreateAccount(account))

		err := p.CreateAccount(account)
		require.Error(t, err)
		assert.True(t, errors.Is(err, persistence.ErrAccountExists), "got %v", err)
	})

	t.Run("nil account", func(t *testing.T) {
		p := f(t)
		defer func() { _ = p.Close() }()

		require.Error(t, p.CreateAccount(nil))
		require.Error(t, p.SaveAccount(nil))
	})

	t.Run("load not found", func(t *testing.T) {
		p := f(t)
		defer func() { _ = p.Close() }()

		loaded, err := p.LoadAccount(RandomAddress())
		require.NoError(t, err)
		assert.Nil(t, loaded)
	})

	t.Run("save overwrites", func(t *testing.T) {
		p := f(t)
		defer func() { _ = p.Close() }()

		account := NewAccount(8)
		require.NoError(t, p.CreateAccount(account))

		updated := account.Copy()
		updated.Data = []byte{9, 9, 9}
		updated.UpdatedAt = account.UpdatedAt + 10
		require.NoError(t, p.SaveAccount(updated))

		loaded, err := p.LoadAccount(account.Address)
		require.NoError(t, err)
		assert.Equal(t, []byte{9, 9, 9}, []byte(loaded.Data))
		assert.Equal(t, updated.UpdatedAt, loaded.UpdatedAt)
	})

	t.Run("loaded copy is detached", func(t *testing.T) {
		p := f(t)
		defer func() { _ = p.Close() }()

		account := NewAccount(4)
		require.NoError(t, p.CreateAccount(account))
		want := account.Data[0]

		account.Data[0] ^= 0xFF
		loaded, err := p.LoadAccount(account.Address)
		require.NoError(t, err)
		assert.Equal(t, want, loaded.Data[0])

		loaded.Data[0] ^= 0xFF
		again, err := p.LoadAccount(account.Address)
		require.NoError(t, err)
		assert.Equal(t, want, again.Data[0])
	})

	t.Run("list sorted", func(t *testing.T) {
		p := f(t)
		defer func() { _ = p.Close() }()

		created := map[common.Address]bool{}
		for i := 0; i < 5; i++ {
			account := NewAccount(8)
			require.NoError(t, p.CreateAccount(account))
			created[account.Address] = true
		}

		accounts, err := p.ListAccounts()
		require.NoError(t, err)
		require.Len(t, accounts, 5)
		for i, a := range accounts {
			assert.True(t, created[a.Address])
			if i > 0 {
				assert.Negative(t, bytes.Compare(accounts[i-1].Address.Bytes(), a.Address.Bytes()))
			}
		}
	})

	t.Run("list empty", func(t *testing.T) {
		p := f(t)
		defer func() { _ = p.Close() }()

		accounts, err := p.ListAccounts()
		require.NoError(t, err)
		assert.Empty(t, accounts)
	})

	t.Run("delete", func(t *testing.T) {
		p := f(t)
		defer func() { _ = p.Close() }()

		account := NewAccount(8)
		require.NoError(t, p.CreateAccount(account))
		require.NoError(t, p.DeleteAccount(account.Address))

		loaded, err := p.LoadAccount(account.Address)
		require.NoError(t, err)
		assert.Nil(t, loaded)

		// idempotent
		require.NoError(t, p.DeleteAccount(account.Address))

		// the address can be allocated again
		require.NoError(t, p.CreateAccount(account))
	})

	t.Run("close", func(t *testing.T) {
		p := f(t)
		require.NoError(t, p.HealthCheck())
		require.NoError(t, p.Close())
		require.NoError(t, p.Close(), "close must be idempotent")

		require.Error(t, p.HealthCheck())
		require.Error(t, p.SaveAccount(NewAccount(1)))
		_, err := p.LoadAccount(RandomAddress())
		require.Error(t, err)
		_, err = p.ListAccounts()
		require.Error(t, err)
	})

	t.Run("thread safety", func(t *testing.T) {
		p := f(t)
		defer func() { _ = p.Close() }()

		var wg sync.WaitGroup
		numGoroutines := 8
		numOperations := 20

		for i := 0; i < numGoroutines; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < numOperations; j++ {
					account := NewAccount(32)
					assert.NoError(t, p.CreateAccount(account))
					_, err := p.LoadAccount(account.Address)
					assert.NoError(t, err)
				}
			}()
		}

		for i := 0; i < numGoroutines; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < numOperations; j++ {
					_, err := p.ListAccounts()
					assert.NoError(t, err)
				}
			}()
		}

		wg.Wait()

		accounts, err := p.ListAccounts()
		require.NoError(t, err)
		assert.Len(t, accounts, numGoroutines*numOperations)
	})
}
