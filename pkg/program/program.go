// Package program applies merkle tree instructions to tree accounts held by a
// persistence layer.
//
// Initialize allocates the account at the address derived for the payer,
// InsertLeaf appends a leaf to an existing tree, and ComputeRoot and VerifyRoot
// fold proofs without reading any account. Every instruction is validated in
// full before an account is written, so a failed instruction leaves storage untouched.
package program

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Layr-Labs/merkle-tree-go/pkg/address"
	"github.com/Layr-Labs/merkle-tree-go/pkg/instruction"
	"github.com/Layr-Labs/merkle-tree-go/pkg/merkle"
	"github.com/Layr-Labs/merkle-tree-go/pkg/persistence"
)

// Config holds the processor settings
type Config struct {
	ProgramID common.Address
	Hasher    merkle.Hasher
}

// Processor executes instructions against tree accounts
type Processor struct {
	programID common.Address
	hasher    merkle.Hasher
	store     persistence.IAccountPersistence
	logger    *zap.Logger
	locks     *addressLocks
	now       func() time.Time
}

// Result describes the outcome of a successful instruction
type Result struct {
	Instruction string         `json:"instruction"`
	Tree        common.Address `json:"tree,omitempty"`

	// Root and NextLeafIndex are the tree state after Initialize or InsertLeaf
	Root          *common.Hash `json:"root,omitempty"`
	NextLeafIndex *int         `json:"nextLeafIndex,omitempty"`

	// ComputedRoot is the folded proof digest of ComputeRoot and VerifyRoot
	ComputedRoot *common.Hash `json:"computedRoot,omitempty"`

	// Logs are the diagnostic lines emitted while processing
	Logs []string `json:"logs"`
}

// NewProcessor creates a processor. A nil hasher selects SHA256.
func NewProcessor(cfg *Config, store persistence.IAccountPersistence, logger *zap.Logger) (*Processor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("persistence is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	h := cfg.Hasher
	if h == nil {
		h = merkle.SHA256()
	}

	return &Processor{
		programID: cfg.ProgramID,
		hasher:    h,
		store:     store,
		logger:    logger,
		locks:     newAddressLocks(),
		now:       time.Now,
	}, nil
}

// ProgramID returns the program id mixed into derived tree addresses
func (p *Processor) ProgramID() common.Address {
	return p.programID
}

// Hasher returns the hasher used for every tree
func (p *Processor) Hasher() merkle.Hasher {
	return p.hasher
}

// TreeAddress returns the tree account address owned by payer
func (p *Processor) TreeAddress(payer common.Address) common.Address {
	return address.DeriveTreeAddress(p.programID, payer)
}

// Process decodes and executes one instruction. payer and tree are the
// accounts the instruction operates on; ComputeRoot and VerifyRoot ignore them.
func (p *Processor) Process(ctx context.Context, payer, tree common.Address, data []byte) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tag, payload, err := instruction.Split(data)
	if err != nil {
		p.logger.Sugar().Warnw("Rejected instruction", "error", err)
		return nil, err
	}

	switch tag {
	case instruction.TagInitialize:
		return p.initialize(ctx, payer, tree)
	case instruction.TagInsertLeaf:
		return p.insertLeaf(ctx, tree, payload)
	case instruction.TagComputeRoot:
		return p.computeRoot(payload)
	case instruction.TagVerifyRoot:
		return p.verifyRoot(payload)
	default:
		return nil, fmt.Errorf("%w: unknown tag %d", instruction.ErrInvalidInstruction, tag)
	}
}

func (p *Processor) initialize(ctx context.Context, payer, tree common.Address) (*Result, error) {
	expected := p.TreeAddress(payer)
	if expected != tree {
		p.logger.Sugar().Warnw("Invalid tree address provided",
			"payer", payer.Hex(),
			"tree", tree.Hex(),
			"expected", expected.Hex(),
		)
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrInvalidAddress, expected.Hex(), tree.Hex())
	}

	unlock, err := p.locks.lock(ctx, tree)
	if err != nil {
		return nil, err
	}
	defer unlock()

	mt := merkle.NewMerkleTree(p.hasher)
	now := p.now().Unix()
	account := &persistence.TreeAccount{
		Address:   tree,
		Payer:     payer,
		Hasher:    p.hasher.ID(),
		Data:      mt.Encode(),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := p.store.CreateAccount(account); err != nil {
		if errors.Is(err, persistence.ErrAccountExists) {
			p.logger.Sugar().Warnw("Tree account already initialized", "tree", tree.Hex())
			return nil, fmt.Errorf("%w: %s", ErrAccountAlreadyInitialized, tree.Hex())
		}
		return nil, pkgerrors.Wrapf(err, "failed to create tree account %s", tree.Hex())
	}

	p.logger.Sugar().Infow("Merkle tree account initialized", "tree", tree.Hex(), "payer", payer.Hex())

	return stateResult(instruction.TagInitialize, tree, mt, "Merkle tree account initialized"), nil
}

func (p *Processor) insertLeaf(ctx context.Context, tree common.Address, payload []byte) (*Result, error) {
	leaf, err := instruction.ParseInsertLeaf(payload)
	if err != nil {
		p.logger.Sugar().Warnw("Invalid leaf length", "tree", tree.Hex(), "length", len(payload))
		return nil, err
	}

	unlock, err := p.locks.lock(ctx, tree)
	if err != nil {
		return nil, err
	}
	defer unlock()

	account, mt, err := p.load(tree)
	if err != nil {
		return nil, err
	}

	if err := mt.InsertLeaf(leaf); err != nil {
		p.logger.Sugar().Warnw("Tree is full", "tree", tree.Hex(), "capacity", merkle.LeafCapacity)
		return nil, err
	}

	account.Data = mt.Encode()
	account.UpdatedAt = p.now().Unix()
	if err := p.store.SaveAccount(account); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to save tree account %s", tree.Hex())
	}

	root := mt.Root()
	line := fmt.Sprintf("Leaf inserted. Root: %s", hexutil.Encode(root[:]))
	p.logger.Sugar().Infow("Leaf inserted",
		"tree", tree.Hex(),
		"leaf_index", mt.NextLeafIndex()-1,
		"root", hexutil.Encode(root[:]),
	)

	return stateResult(instruction.TagInsertLeaf, tree, mt, line), nil
}

func (p *Processor) computeRoot(payload []byte) (*Result, error) {
	req, err := instruction.ParseComputeRoot(payload)
	if err != nil {
		p.logger.Sugar().Warnw("Invalid proof payload", "length", len(payload), "error", err)
		return nil, err
	}

	computed := common.Hash(merkle.ComputeRoot(p.hasher, req.Leaf[:], req.Siblings))
	line := fmt.Sprintf("Computed root: %s", computed.Hex())
	p.logger.Sugar().Debugw("Computed proof root", "siblings", len(req.Siblings), "root", computed.Hex())

	return &Result{
		Instruction:  instruction.TagComputeRoot.String(),
		ComputedRoot: &computed,
		Logs:         []string{line},
	}, nil
}

func (p *Processor) verifyRoot(payload []byte) (*Result, error) {
	req, err := instruction.ParseVerifyRoot(payload)
	if err != nil {
		p.logger.Sugar().Warnw("Invalid verify payload", "length", len(payload), "error", err)
		return nil, err
	}

	if err := merkle.Verify(p.hasher, req.Leaf[:], int(req.LeafIndex), req.Siblings, req.Root); err != nil {
		p.logger.Sugar().Infow("Proof rejected",
			"leaf_index", req.LeafIndex,
			"siblings", len(req.Siblings),
			"expected_root", hexutil.Encode(req.Root[:]),
		)
		return nil, err
	}

	root := common.Hash(req.Root)
	line := fmt.Sprintf("Proof verified. Root: %s", root.Hex())
	p.logger.Sugar().Debugw("Proof verified", "leaf_index", req.LeafIndex, "root", root.Hex())

	return &Result{
		Instruction:  instruction.TagVerifyRoot.String(),
		ComputedRoot: &root,
		Logs:         []string{line},
	}, nil
}

// load reads and decodes a tree account. The caller must hold the address lock
// when it intends to write the account back.
func (p *Processor) load(tree common.Address) (*persistence.TreeAccount, *merkle.MerkleTree, error) {
	account, err := p.store.LoadAccount(tree)
	if err != nil {
		return nil, nil, pkgerrors.Wrapf(err, "failed to load tree account %s", tree.Hex())
	}
	if account == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrAccountNotInitialized, tree.Hex())
	}

	mt, err := p.decode(account)
	if err != nil {
		p.logger.Sugar().Errorw("Unusable tree account", "tree", tree.Hex(), "hasher", account.Hasher, "error", err)
		return nil, nil, err
	}
	return account, mt, nil
}

// decode checks the account was built with the processor's hasher and parses its data
func (p *Processor) decode(account *persistence.TreeAccount) (*merkle.MerkleTree, error) {
	if account.Hasher != "" && account.Hasher != p.hasher.ID() {
		return nil, fmt.Errorf("%w: account %s uses %s, processor uses %s",
			ErrHasherMismatch, account.Address.Hex(), account.Hasher, p.hasher.ID())
	}
	mt, err := merkle.DecodeMerkleTree(p.hasher, account.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode tree account %s: %w", account.Address.Hex(), err)
	}
	return mt, nil
}

func stateResult(tag instruction.Tag, tree common.Address, mt *merkle.MerkleTree, line string) *Result {
	root := common.Hash(mt.Root())
	next := mt.NextLeafIndex()
	return &Result{
		Instruction:   tag.String(),
		Tree:          tree,
		Root:          &root,
		NextLeafIndex: &next,
		Logs:          []string{line},
	}
}
