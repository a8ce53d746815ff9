package merkle

import (
	"fmt"
	"math/bits"
)

// NewMerkleTree creates an empty tree. A nil hasher selects SHA256.
//
// Every node starts at the default digest of its level: leaf slots hold the
// zero digest and each internal node holds the combination of two empty
// children, so the root of an empty tree is EmptyRoot(h).
func NewMerkleTree(h Hasher) *MerkleTree {
	if h == nil {
		h = SHA256()
	}
	mt := &MerkleTree{hasher: h}
	mt.fillEmptySubtrees()
	return mt
}

// ZeroHashes returns the default digest of an empty subtree for every height,
// from the zero leaf digest at index 0 up to the empty root at index MaxDepth.
func ZeroHashes(h Hasher) [MaxDepth + 1][32]byte {
	var zeroes [MaxDepth + 1][32]byte
	for l := 1; l <= MaxDepth; l++ {
		zeroes[l] = Combine(h, zeroes[l-1], zeroes[l-1])
	}
	return zeroes
}

// EmptyRoot returns the root of a tree with no leaves.
func EmptyRoot(h Hasher) [32]byte {
	return ZeroHashes(h)[MaxDepth]
}

// nodeHeight returns the distance from node i down to the leaf level
func nodeHeight(i int) int {
	return MaxDepth - (bits.Len(uint(i+1)) - 1)
}

// firstLeafSlot returns the leftmost leaf slot covered by node i
func firstLeafSlot(i int) int {
	return ((i + 1) << nodeHeight(i)) - LeafCapacity
}

// fillEmptySubtrees resets every node whose subtree holds no inserted leaf to
// the default digest of its height.
func (mt *MerkleTree) fillEmptySubtrees() {
	zeroes := ZeroHashes(mt.hasher)
	for i := range mt.nodes {
		if firstLeafSlot(i) >= int(mt.nextLeafIndex) {
			mt.nodes[i] = zeroes[nodeHeight(i)]
		}
	}
}

// InsertLeaf appends a leaf to the next free slot and recomputes the
// authentication path from that slot up to the root.
//
// The capacity check happens before any write, so a failed insert leaves the
// tree unchanged.
func (mt *MerkleTree) InsertLeaf(leaf [32]byte) error {
	leafPos := FirstLeafIndex + int(mt.nextLeafIndex)
	if leafPos >= TreeSize {
		return ErrTreeOverflow
	}

	mt.nodes[leafPos] = HashLeaf(mt.hasher, leaf[:])

	current := leafPos
	for current > 0 {
		parent := (current - 1) / 2
		mt.nodes[parent] = Combine(mt.hasher, mt.nodes[2*parent+1], mt.nodes[2*parent+2])
		current = parent
	}

	mt.nextLeafIndex++
	return nil
}

// Root returns the digest at index 0.
func (mt *MerkleTree) Root() [32]byte {
	return mt.nodes[0]
}

// NextLeafIndex returns the number of leaves inserted so far.
func (mt *MerkleTree) NextLeafIndex() int {
	return int(mt.nextLeafIndex)
}

// IsFull reports whether every leaf slot has been written.
func (mt *MerkleTree) IsFull() bool {
	return int(mt.nextLeafIndex) >= LeafCapacity
}

// Hasher returns the hasher the tree combines nodes with.
func (mt *MerkleTree) Hasher() Hasher {
	return mt.hasher
}

// Node returns the digest at a flat node index.
func (mt *MerkleTree) Node(index int) ([32]byte, error) {
	if index < 0 || index >= TreeSize {
		return [32]byte{}, fmt.Errorf("node index %d out of bounds (tree has %d nodes)", index, TreeSize)
	}
	return mt.nodes[index], nil
}

// Nodes returns a copy of every node, root first.
func (mt *MerkleTree) Nodes() [][32]byte {
	out := make([][32]byte, TreeSize)
	copy(out, mt.nodes[:])
	return out
}

// Leaf returns the digest stored in leaf slot k.
func (mt *MerkleTree) Leaf(k int) ([32]byte, error) {
	if k < 0 || k >= LeafCapacity {
		return [32]byte{}, fmt.Errorf("%w: %d (capacity %d)", ErrLeafIndexOutOfRange, k, LeafCapacity)
	}
	return mt.nodes[FirstLeafIndex+k], nil
}

// Clone returns an independent copy of the tree.
func (mt *MerkleTree) Clone() *MerkleTree {
	c := *mt
	return &c
}

// GenerateProof creates a merkle proof for the populated leaf slot k.
// The proof consists of sibling hashes along the path from leaf to root.
func (mt *MerkleTree) GenerateProof(k int) (*MerkleProof, error) {
	if k < 0 || k >= int(mt.nextLeafIndex) {
		return nil, fmt.Errorf("%w: %d (tree has %d leaves)", ErrLeafIndexOutOfRange, k, mt.nextLeafIndex)
	}

	siblings := make([][32]byte, 0, MaxDepth)
	pos := FirstLeafIndex + k
	for pos > 0 {
		// left children sit at odd indices
		sibling := pos + 1
		if pos%2 == 0 {
			sibling = pos - 1
		}
		siblings = append(siblings, mt.nodes[sibling])
		pos = (pos - 1) / 2
	}

	return &MerkleProof{
		LeafIndex: k,
		LeafHash:  mt.nodes[FirstLeafIndex+k],
		Siblings:  siblings,
	}, nil
}
