package merkle

const (
	// MaxDepth is the height of the tree above the leaf level.
	MaxDepth = 3

	// LeafCapacity is the number of leaf slots (2^MaxDepth).
	LeafCapacity = 1 << MaxDepth

	// TreeSize is the number of nodes in the complete tree (2^(MaxDepth+1) - 1).
	TreeSize = (1 << (MaxDepth + 1)) - 1

	// FirstLeafIndex is the node index of leaf slot 0.
	FirstLeafIndex = LeafCapacity - 1

	// NodeSize is the size of a single digest in bytes.
	NodeSize = 32

	// TreeSizeBytes is the size of the persisted tree: all nodes followed by
	// a one byte leaf counter.
	TreeSizeBytes = TreeSize*NodeSize + 1
)

// MerkleTree is a fixed-depth binary merkle tree stored as a flat array.
//
// Index 0 is the root. For internal index i the children are at 2i+1 and
// 2i+2, and the leaves occupy the last LeafCapacity indices. Leaf slots that
// have not been written yet hold the zero digest, and internal nodes above
// them hold the digest of an empty subtree of their height (see ZeroHashes).
//
// A MerkleTree is not safe for concurrent mutation; callers serialize access.
type MerkleTree struct {
	// nodes holds every digest of the tree, root first
	nodes [TreeSize][32]byte

	// nextLeafIndex is the number of leaves inserted so far
	nextLeafIndex uint8

	hasher Hasher
}

// MerkleProof represents a proof that a leaf is included in the tree.
// The proof consists of sibling hashes along the path from leaf to root.
type MerkleProof struct {
	// LeafIndex is the leaf slot (0..LeafCapacity-1) the proof is for
	LeafIndex int

	// LeafHash is the digest stored in the leaf slot, HashLeaf(leaf)
	LeafHash [32]byte

	// Siblings contains the sibling hashes from leaf to root
	// Siblings[0] is the sibling of the leaf, Siblings[len-1] is a child of the root
	Siblings [][32]byte
}
