// Package instruction parses and builds the binary instruction payloads
// accepted by the merkle tree program.
//
// Every instruction is a one byte tag followed by a tag specific payload:
//
//	Tag 0 Initialize     no payload
//	Tag 1 InsertLeaf     leaf[32]
//	Tag 2 ComputeRoot    leaf[32] || n[1] || sibling[32]*n
//	Tag 3 VerifyRoot     leaf[32] || n[1] || sibling[32]*n || root[32] || index[1]
package instruction

import (
	"errors"
	"fmt"

	"github.com/Layr-Labs/merkle-tree-go/pkg/merkle"
)

// Tag identifies an instruction.
type Tag uint8

const (
	TagInitialize  Tag = 0
	TagInsertLeaf  Tag = 1
	TagComputeRoot Tag = 2
	TagVerifyRoot  Tag = 3
)

func (t Tag) String() string {
	switch t {
	case TagInitialize:
		return "initialize"
	case TagInsertLeaf:
		return "insert_leaf"
	case TagComputeRoot:
		return "compute_root"
	case TagVerifyRoot:
		return "verify_root"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

const (
	leafSize       = merkle.NodeSize
	proofHeader    = leafSize + 1
	verifyTrailer  = merkle.NodeSize + 1
	maxProofLength = 255
)

var (
	// ErrInvalidInstruction is returned for empty instruction data or an unknown tag.
	ErrInvalidInstruction = errors.New("invalid instruction")

	// ErrInvalidInstructionDataLength is returned when a proof payload is too short to hold its header.
	ErrInvalidInstructionDataLength = errors.New("invalid instruction data length")

	// ErrProofCountMismatch is returned when a proof payload length disagrees with its declared count.
	ErrProofCountMismatch = merkle.ErrProofCountMismatch
)

// Split separates the tag byte from the payload.
func Split(data []byte) (Tag, []byte, error) {
	if len(data) == 0 {
		return 0, nil, fmt.Errorf("%w: empty instruction data", ErrInvalidInstruction)
	}
	tag := Tag(data[0])
	if tag > TagVerifyRoot {
		return 0, nil, fmt.Errorf("%w: unknown tag %d", ErrInvalidInstruction, data[0])
	}
	return tag, data[1:], nil
}

// ParseInsertLeaf validates an insert leaf payload.
func ParseInsertLeaf(payload []byte) ([32]byte, error) {
	var leaf [32]byte
	if len(payload) != leafSize {
		return leaf, fmt.Errorf("%w: got %d bytes, expected %d", merkle.ErrInvalidLeafLength, len(payload), leafSize)
	}
	copy(leaf[:], payload)
	return leaf, nil
}

// ProofRequest is a leaf and its ordered siblings, leaf-adjacent first.
type ProofRequest struct {
	Leaf     [32]byte
	Siblings [][32]byte
}

// VerifyRequest is a ProofRequest checked against an expected root for a leaf slot.
type VerifyRequest struct {
	ProofRequest
	Root      [32]byte
	LeafIndex uint8
}

// parseProof reads the leaf, count and siblings and returns the bytes that follow them.
func parseProof(payload []byte) (*ProofRequest, []byte, error) {
	if len(payload) < proofHeader {
		return nil, nil, fmt.Errorf("%w: got %d bytes, need at least %d", ErrInvalidInstructionDataLength, len(payload), proofHeader)
	}
	count := int(payload[leafSize])
	end := proofHeader + count*merkle.NodeSize
	if len(payload) < end {
		return nil, nil, fmt.Errorf("%w: %d siblings need %d bytes, got %d", ErrProofCountMismatch, count, end, len(payload))
	}

	req := &ProofRequest{Siblings: make([][32]byte, count)}
	copy(req.Leaf[:], payload[:leafSize])
	for i := range req.Siblings {
		off := proofHeader + i*merkle.NodeSize
		copy(req.Siblings[i][:], payload[off:off+merkle.NodeSize])
	}
	return req, payload[end:], nil
}

// ParseComputeRoot parses a proof payload. The payload must be exactly 33+32n bytes long.
func ParseComputeRoot(payload []byte) (*ProofRequest, error) {
	req, rest, err := parseProof(payload)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes after %d siblings", ErrProofCountMismatch, len(rest), len(req.Siblings))
	}
	return req, nil
}

// ParseVerifyRoot parses a proof payload followed by the expected root and leaf index.
func ParseVerifyRoot(payload []byte) (*VerifyRequest, error) {
	req, rest, err := parseProof(payload)
	if err != nil {
		return nil, err
	}
	if len(rest) != verifyTrailer {
		return nil, fmt.Errorf("%w: expected %d bytes of root and index after %d siblings, got %d",
			ErrProofCountMismatch, verifyTrailer, len(req.Siblings), len(rest))
	}

	vr := &VerifyRequest{ProofRequest: *req, LeafIndex: rest[merkle.NodeSize]}
	copy(vr.Root[:], rest[:merkle.NodeSize])
	return vr, nil
}

// EncodeInitialize builds a tag 0 instruction.
func EncodeInitialize() []byte {
	return []byte{byte(TagInitialize)}
}

// EncodeInsertLeaf builds a tag 1 instruction.
func EncodeInsertLeaf(leaf [32]byte) []byte {
	out := make([]byte, 0, 1+leafSize)
	out = append(out, byte(TagInsertLeaf))
	return append(out, leaf[:]...)
}

func appendProof(out []byte, leaf [32]byte, siblings [][32]byte) ([]byte, error) {
	if len(siblings) > maxProofLength {
		return nil, fmt.Errorf("%w: %d siblings exceed the maximum of %d", ErrProofCountMismatch, len(siblings), maxProofLength)
	}
	out = append(out, leaf[:]...)
	out = append(out, byte(len(siblings)))
	for _, s := range siblings {
		out = append(out, s[:]...)
	}
	return out, nil
}

// EncodeComputeRoot builds a tag 2 instruction.
func EncodeComputeRoot(leaf [32]byte, siblings [][32]byte) ([]byte, error) {
	out := make([]byte, 0, 1+proofHeader+len(siblings)*merkle.NodeSize)
	out = append(out, byte(TagComputeRoot))
	return appendProof(out, leaf, siblings)
}

// EncodeVerifyRoot builds a tag 3 instruction.
func EncodeVerifyRoot(leaf [32]byte, leafIndex uint8, siblings [][32]byte, root [32]byte) ([]byte, error) {
	out := make([]byte, 0, 1+proofHeader+len(siblings)*merkle.NodeSize+verifyTrailer)
	out = append(out, byte(TagVerifyRoot))
	out, err := appendProof(out, leaf, siblings)
	if err != nil {
		return nil, err
	}
	out = append(out, root[:]...)
	return append(out, leafIndex), nil
}
