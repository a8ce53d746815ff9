package persistence

import (
	"bytes"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// TreeAccount is a storage region allocated for one merkle tree.
type TreeAccount struct {
	// Address is the derived address of the account and its storage key.
	Address common.Address `json:"address"`

	// Payer is the address the account was derived from.
	Payer common.Address `json:"payer"`

	// Hasher is the id of the hash function the tree was built with.
	// Accounts written before it was recorded leave it empty.
	Hasher string `json:"hasher,omitempty"`

	// Data is the raw account bytes, opaque to the storage layer.
	Data hexutil.Bytes `json:"data"`

	// CreatedAt and UpdatedAt are Unix timestamps.
	CreatedAt int64 `json:"createdAt"`
	UpdatedAt int64 `json:"updatedAt"`
}

// Copy returns a deep copy of the account.
func (a *TreeAccount) Copy() *TreeAccount {
	if a == nil {
		return nil
	}
	c := *a
	c.Data = append(hexutil.Bytes(nil), a.Data...)
	return &c
}

// SortAccounts sorts accounts by address in ascending byte order.
func SortAccounts(accounts []*TreeAccount) {
	sort.Slice(accounts, func(i, j int) bool {
		return bytes.Compare(accounts[i].Address.Bytes(), accounts[j].Address.Bytes()) < 0
	})
}
