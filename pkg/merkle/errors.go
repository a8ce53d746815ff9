package merkle

import "errors"

var (
	// ErrInvalidLeafLength is returned when a leaf payload is not exactly 32 bytes.
	ErrInvalidLeafLength = errors.New("invalid leaf length")

	// ErrTreeOverflow is returned when inserting into a tree whose leaf slots are all used.
	ErrTreeOverflow = errors.New("tree is full")

	// ErrProofCountMismatch is returned when a proof's sibling count does not fit the tree shape.
	ErrProofCountMismatch = errors.New("proof count does not match")

	// ErrRootMismatch is returned when a proof does not reproduce the expected root.
	ErrRootMismatch = errors.New("computed root does not match expected root")

	// ErrInvalidAccountDataLength is returned when decoding a buffer that is not TreeSizeBytes long.
	ErrInvalidAccountDataLength = errors.New("invalid tree account data length")

	// ErrCorruptLeafCounter is returned when a decoded leaf counter exceeds LeafCapacity.
	ErrCorruptLeafCounter = errors.New("leaf counter exceeds tree capacity")

	// ErrLeafIndexOutOfRange is returned when requesting a proof for an unpopulated leaf.
	ErrLeafIndexOutOfRange = errors.New("leaf index out of range")
)
