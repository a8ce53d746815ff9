package merkle

import "fmt"

// ComputeRoot folds a leaf with an ordered list of siblings.
//
// The running digest starts at HashLeaf(leaf) and is always the left operand;
// each sibling is always the right operand. No tree state is read. An empty
// proof yields HashLeaf(leaf).
//
// Because no orientation is carried, the result only equals a tree root for
// leaf slot 0. Use Verify or VerifyProof to authenticate an arbitrary leaf.
func ComputeRoot(h Hasher, leaf []byte, proof [][32]byte) [32]byte {
	current := HashLeaf(h, leaf)
	for _, sibling := range proof {
		current = Combine(h, current, sibling)
	}
	return current
}

// foldAt recomputes a root from a leaf digest using the leaf index to decide,
// at each level, whether the running digest is the left or right child.
func foldAt(h Hasher, leafHash [32]byte, index int, siblings [][32]byte) [32]byte {
	current := leafHash
	for _, sibling := range siblings {
		if index%2 == 0 {
			current = Combine(h, current, sibling)
		} else {
			current = Combine(h, sibling, current)
		}
		index /= 2
	}
	return current
}

// checkShape rejects proofs that cannot belong to a tree of depth MaxDepth.
func checkShape(index int, siblings [][32]byte) error {
	if index < 0 || index >= LeafCapacity {
		return fmt.Errorf("%w: %w: %d (capacity %d)", ErrProofCountMismatch, ErrLeafIndexOutOfRange, index, LeafCapacity)
	}
	if len(siblings) != MaxDepth {
		return fmt.Errorf("%w: got %d siblings, expected %d", ErrProofCountMismatch, len(siblings), MaxDepth)
	}
	return nil
}

// VerifyProof verifies that a leaf is included in a tree with the given root.
// It recomputes the root hash using the proof and checks if it matches the expected root.
func VerifyProof(h Hasher, proof *MerkleProof, root [32]byte) bool {
	if proof == nil || checkShape(proof.LeafIndex, proof.Siblings) != nil {
		return false
	}
	return foldAt(h, proof.LeafHash, proof.LeafIndex, proof.Siblings) == root
}

// Verify authenticates a raw leaf at slot index against an expected root.
// It returns ErrProofCountMismatch when the proof does not have one sibling
// per level or the index is outside the tree, and ErrRootMismatch when the
// siblings do not reproduce root.
func Verify(h Hasher, leaf []byte, index int, siblings [][32]byte, root [32]byte) error {
	if err := checkShape(index, siblings); err != nil {
		return err
	}
	if foldAt(h, HashLeaf(h, leaf), index, siblings) != root {
		return ErrRootMismatch
	}
	return nil
}
