package address

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// TreeSeed is the fixed seed prefix used to derive tree account addresses.
var TreeSeed = []byte("tree")

// DeriveTreeAddress computes the deterministic address of the tree account
// owned by programID for payer:
//
//	keccak256("tree" || payer || programID)[12:]
//
// Each payer owns exactly one tree per program.
func DeriveTreeAddress(programID, payer common.Address) common.Address {
	hash := crypto.Keccak256(TreeSeed, payer.Bytes(), programID.Bytes())
	return common.BytesToAddress(hash[12:])
}

// ParseAddress validates and parses a hex encoded address.
func ParseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address format: %q", s)
	}
	return common.HexToAddress(s), nil
}
