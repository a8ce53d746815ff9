package merkle

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCombine_OrderSensitive(t *testing.T) {
	for _, h := range []Hasher{SHA256(), Keccak256(), Blake2b()} {
		t.Run(h.ID(), func(t *testing.T) {
			a, b := randomLeaf(), randomLeaf()
			require.NotEqual(t, a, b)
			require.NotEqual(t, Combine(h, a, b), Combine(h, b, a))
		})
	}
}

func TestComputeRoot_EmptyProof(t *testing.T) {
	h := SHA256()
	leaf := randomLeaf()
	require.Equal(t, HashLeaf(h, leaf[:]), ComputeRoot(h, leaf[:], nil))
	require.Equal(t, HashLeaf(h, leaf[:]), ComputeRoot(h, leaf[:], [][32]byte{}))
}

func TestComputeRoot_FoldsLeftToRight(t *testing.T) {
	h := SHA256()
	leaf := randomLeaf()
	s1, s2, s3 := randomLeaf(), randomLeaf(), randomLeaf()

	expected := Combine(h, Combine(h, Combine(h, HashLeaf(h, leaf[:]), s1), s2), s3)
	require.Equal(t, expected, ComputeRoot(h, leaf[:], [][32]byte{s1, s2, s3}))
}

// TestComputeRoot_FirstLeafRoundTrip checks the orientation-free fold reproduces the root for slot 0
func TestComputeRoot_FirstLeafRoundTrip(t *testing.T) {
	h := SHA256()
	leaves := randomLeaves(LeafCapacity)
	tree := buildTree(t, h, leaves)

	proof, err := tree.GenerateProof(0)
	require.NoError(t, err)
	require.Equal(t, tree.Root(), ComputeRoot(h, leaves[0][:], proof.Siblings))
}

// TestVerify_RoundTripAllLeaves checks every leaf of a full tree authenticates against its root
func TestVerify_RoundTripAllLeaves(t *testing.T) {
	h := SHA256()
	leaves := randomLeaves(LeafCapacity)
	tree := buildTree(t, h, leaves)

	for k, leaf := range leaves {
		proof, err := tree.GenerateProof(k)
		require.NoError(t, err)
		require.NoError(t, Verify(h, leaf[:], k, proof.Siblings, tree.Root()), "leaf %d", k)
	}
}

func TestVerify_Rejections(t *testing.T) {
	h := SHA256()
	leaves := randomLeaves(4)
	tree := buildTree(t, h, leaves)

	proof, err := tree.GenerateProof(1)
	require.NoError(t, err)
	root := tree.Root()

	t.Run("Valid proof", func(t *testing.T) {
		require.True(t, VerifyProof(h, proof, root))
	})

	t.Run("Wrong root", func(t *testing.T) {
		require.False(t, VerifyProof(h, proof, [32]byte{1, 2, 3, 4, 5}))
		require.ErrorIs(t, Verify(h, leaves[1][:], 1, proof.Siblings, [32]byte{1}), ErrRootMismatch)
	})

	t.Run("Wrong index", func(t *testing.T) {
		require.ErrorIs(t, Verify(h, leaves[1][:], 0, proof.Siblings, root), ErrRootMismatch)
	})

	t.Run("Index outside tree", func(t *testing.T) {
		for _, index := range []int{-1, LeafCapacity} {
			err := Verify(h, leaves[1][:], index, proof.Siblings, root)
			require.ErrorIs(t, err, ErrProofCountMismatch, "index %d", index)
			require.ErrorIs(t, err, ErrLeafIndexOutOfRange, "index %d", index)
			require.NotErrorIs(t, err, ErrRootMismatch)
		}
	})

	t.Run("Tampered leaf", func(t *testing.T) {
		tampered := leaves[1]
		tampered[0] ^= 0xFF
		require.ErrorIs(t, Verify(h, tampered[:], 1, proof.Siblings, root), ErrRootMismatch)
	})

	t.Run("Tampered sibling", func(t *testing.T) {
		siblings := append([][32]byte(nil), proof.Siblings...)
		siblings[0][0] ^= 0xFF
		require.ErrorIs(t, Verify(h, leaves[1][:], 1, siblings, root), ErrRootMismatch)
	})

	t.Run("Wrong sibling count", func(t *testing.T) {
		long := append(append([][32]byte(nil), proof.Siblings...), [32]byte{})
		for _, siblings := range [][][32]byte{nil, proof.Siblings[:2], long} {
			err := Verify(h, leaves[1][:], 1, siblings, root)
			require.ErrorIs(t, err, ErrProofCountMismatch, "%d siblings", len(siblings))
			require.NotErrorIs(t, err, ErrRootMismatch)
		}
		require.False(t, VerifyProof(h, &MerkleProof{LeafIndex: 1, LeafHash: proof.LeafHash, Siblings: proof.Siblings[:2]}, root))
	})

	t.Run("Wrong hasher", func(t *testing.T) {
		require.False(t, VerifyProof(Keccak256(), proof, root))
	})

	t.Run("Nil proof", func(t *testing.T) {
		require.False(t, VerifyProof(h, nil, root))
	})
}

func TestHasherByName(t *testing.T) {
	for _, name := range SupportedHashers() {
		h, err := HasherByName(name)
		require.NoError(t, err)
		require.Equal(t, name, h.ID())
	}

	_, err := HasherByName("md5")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown hasher")
}
