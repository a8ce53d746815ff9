package types

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// InstructionRequest is the body of POST /v1/instructions.
// Payer and Tree may be omitted for instructions that read no account.
type InstructionRequest struct {
	Payer *common.Address `json:"payer,omitempty"`
	Tree  *common.Address `json:"tree,omitempty"`
	Data  hexutil.Bytes   `json:"data"`
}

// ProofResponse is the authentication path of one populated leaf slot
type ProofResponse struct {
	Tree      common.Address `json:"tree"`
	LeafIndex int            `json:"leafIndex"`
	// LeafHash is the digest stored in the leaf slot
	LeafHash common.Hash   `json:"leafHash"`
	Siblings []common.Hash `json:"siblings"`
	Root     common.Hash   `json:"root"`
}

// SiblingBytes converts the siblings into the form taken by the merkle package
func (p *ProofResponse) SiblingBytes() [][32]byte {
	out := make([][32]byte, len(p.Siblings))
	for i, s := range p.Siblings {
		out[i] = s
	}
	return out
}

// AddressResponse is the tree address derived for a payer
type AddressResponse struct {
	Payer     common.Address `json:"payer"`
	Tree      common.Address `json:"tree"`
	ProgramID common.Address `json:"programId"`
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status string `json:"status"`
	Hasher string `json:"hasher"`
	Error  string `json:"error,omitempty"`
}

// ErrorResponse is the body of every non 2xx response
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}
