package program

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	pkgerrors "github.com/pkg/errors"

	"github.com/Layr-Labs/merkle-tree-go/pkg/merkle"
	"github.com/Layr-Labs/merkle-tree-go/pkg/persistence"
)

// TreeState is a read-only snapshot of a tree account
type TreeState struct {
	Address       common.Address `json:"address"`
	Payer         common.Address `json:"payer"`
	Hasher        string         `json:"hasher,omitempty"`
	Root          common.Hash    `json:"root"`
	NextLeafIndex int            `json:"nextLeafIndex"`
	Nodes         []common.Hash  `json:"nodes"`
	CreatedAt     int64          `json:"createdAt"`
	UpdatedAt     int64          `json:"updatedAt"`
}

func newTreeState(account *persistence.TreeAccount, mt *merkle.MerkleTree) *TreeState {
	nodes := mt.Nodes()
	hashes := make([]common.Hash, len(nodes))
	for i, n := range nodes {
		hashes[i] = common.Hash(n)
	}
	return &TreeState{
		Address:       account.Address,
		Payer:         account.Payer,
		Hasher:        account.Hasher,
		Root:          common.Hash(mt.Root()),
		NextLeafIndex: mt.NextLeafIndex(),
		Nodes:         hashes,
		CreatedAt:     account.CreatedAt,
		UpdatedAt:     account.UpdatedAt,
	}
}

// GetTree returns the current state of a tree account
func (p *Processor) GetTree(ctx context.Context, tree common.Address) (*TreeState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	account, mt, err := p.load(tree)
	if err != nil {
		return nil, err
	}
	return newTreeState(account, mt), nil
}

// GetProof returns the authentication path of populated leaf slot index
// together with the root it authenticates against.
func (p *Processor) GetProof(ctx context.Context, tree common.Address, index int) (*merkle.MerkleProof, common.Hash, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.Hash{}, err
	}
	_, mt, err := p.load(tree)
	if err != nil {
		return nil, common.Hash{}, err
	}
	proof, err := mt.GenerateProof(index)
	if err != nil {
		return nil, common.Hash{}, err
	}
	return proof, common.Hash(mt.Root()), nil
}

// ListTrees returns every stored tree sorted by address. Accounts that fail
// to decode or were built with another hasher are skipped and logged.
func (p *Processor) ListTrees(ctx context.Context) ([]*TreeState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	accounts, err := p.store.ListAccounts()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to list tree accounts")
	}

	trees := make([]*TreeState, 0, len(accounts))
	for _, account := range accounts {
		mt, err := p.decode(account)
		if err != nil {
			p.logger.Sugar().Warnw("Skipping unusable tree account", "tree", account.Address.Hex(), "error", err)
			continue
		}
		trees = append(trees, newTreeState(account, mt))
	}
	return trees, nil
}

// HealthCheck reports whether the backing persistence layer is usable
func (p *Processor) HealthCheck() error {
	return p.store.HealthCheck()
}
