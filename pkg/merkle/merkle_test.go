package merkle

import (
	"crypto/rand"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

// randomLeaf generates a random 32-byte leaf for testing
func randomLeaf() [32]byte {
	var leaf [32]byte
	_, _ = rand.Read(leaf[:]) // Ignore error in test helper
	return leaf
}

func randomLeaves(n int) [][32]byte {
	leaves := make([][32]byte, n)
	for i := range leaves {
		leaves[i] = randomLeaf()
	}
	return leaves
}

// referenceRoot recomputes the root of a full tree whose first len(leaves)
// slots hold HashLeaf(leaf) and whose remaining slots hold the zero digest.
// It shares no code with the tree's incremental path rewrite.
func referenceRoot(h Hasher, leaves [][32]byte) [32]byte {
	level := make([][32]byte, LeafCapacity)
	for i, leaf := range leaves {
		level[i] = HashLeaf(h, leaf[:])
	}
	for len(level) > 1 {
		next := make([][32]byte, len(level)/2)
		for i := range next {
			next[i] = Combine(h, level[2*i], level[2*i+1])
		}
		level = next
	}
	return level[0]
}

func buildTree(t *testing.T, h Hasher, leaves [][32]byte) *MerkleTree {
	t.Helper()
	tree := NewMerkleTree(h)
	for _, leaf := range leaves {
		require.NoError(t, tree.InsertLeaf(leaf))
	}
	return tree
}

func TestConstants(t *testing.T) {
	require.Equal(t, 8, LeafCapacity)
	require.Equal(t, 15, TreeSize)
	require.Equal(t, 7, FirstLeafIndex)
	require.Equal(t, 481, TreeSizeBytes)
}

// TestInsertLeaf_UntilOverflow fills an empty tree and checks the ninth insert fails without side effects
func TestInsertLeaf_UntilOverflow(t *testing.T) {
	tree := NewMerkleTree(nil)
	require.Equal(t, 0, tree.NextLeafIndex())

	for i := 0; i < LeafCapacity; i++ {
		require.NoError(t, tree.InsertLeaf(randomLeaf()))
		require.Equal(t, i+1, tree.NextLeafIndex())
	}
	require.True(t, tree.IsFull())

	before := tree.Encode()
	err := tree.InsertLeaf(randomLeaf())
	require.ErrorIs(t, err, ErrTreeOverflow)
	require.Equal(t, before, tree.Encode(), "failed insert must not change the tree")
	require.Equal(t, LeafCapacity, tree.NextLeafIndex())
}

// TestInsertLeaf_RootMatchesReference checks partial trees against a full recomputation with zero fillers
func TestInsertLeaf_RootMatchesReference(t *testing.T) {
	for _, h := range []Hasher{SHA256(), Keccak256(), Blake2b()} {
		for n := 1; n <= LeafCapacity; n++ {
			t.Run(fmt.Sprintf("%s/%d_leaves", h.ID(), n), func(t *testing.T) {
				leaves := randomLeaves(n)
				tree := buildTree(t, h, leaves)
				require.Equal(t, referenceRoot(h, leaves), tree.Root())
			})
		}
	}
}

// TestInsertLeaf_InternalNodesConsistent checks every internal node equals the combination of its children
func TestInsertLeaf_InternalNodesConsistent(t *testing.T) {
	h := SHA256()
	for n := 0; n <= LeafCapacity; n++ {
		t.Run(fmt.Sprintf("%d_leaves", n), func(t *testing.T) {
			tree := buildTree(t, h, randomLeaves(n))

			for i := 0; i < FirstLeafIndex; i++ {
				node, err := tree.Node(i)
				require.NoError(t, err)
				left, _ := tree.Node(2*i + 1)
				right, _ := tree.Node(2*i + 2)
				require.Equal(t, Combine(h, left, right), node, "node %d", i)
			}
		})
	}
}

func TestZeroHashes(t *testing.T) {
	for _, h := range []Hasher{SHA256(), Keccak256(), Blake2b()} {
		t.Run(h.ID(), func(t *testing.T) {
			zeroes := ZeroHashes(h)
			require.Equal(t, [32]byte{}, zeroes[0])
			for l := 1; l <= MaxDepth; l++ {
				require.Equal(t, Combine(h, zeroes[l-1], zeroes[l-1]), zeroes[l], "height %d", l)
			}
			require.Equal(t, zeroes[MaxDepth], EmptyRoot(h))
		})
	}
}

func TestNewMerkleTree_EmptyTree(t *testing.T) {
	h := Keccak256()
	tree := NewMerkleTree(h)
	require.Equal(t, referenceRoot(h, nil), tree.Root())
	require.Equal(t, EmptyRoot(h), tree.Root())

	zeroes := ZeroHashes(h)
	for _, tc := range []struct {
		index, height int
	}{
		{0, 3}, {1, 2}, {2, 2}, {3, 1}, {6, 1}, {7, 0}, {14, 0},
	} {
		node, err := tree.Node(tc.index)
		require.NoError(t, err)
		require.Equal(t, zeroes[tc.height], node, "node %d", tc.index)
	}
}

// TestInsertLeaf_FirstLeafFillsSiblingSubtrees checks a single insert combines with empty subtree digests
func TestInsertLeaf_FirstLeafFillsSiblingSubtrees(t *testing.T) {
	h := SHA256()
	leaf := randomLeaf()
	tree := buildTree(t, h, [][32]byte{leaf})

	zeroes := ZeroHashes(h)
	expected := Combine(h,
		Combine(h, Combine(h, HashLeaf(h, leaf[:]), zeroes[0]), zeroes[1]),
		zeroes[2],
	)
	require.Equal(t, expected, tree.Root())

	node4, _ := tree.Node(4)
	require.Equal(t, zeroes[1], node4)
}

func TestInsertLeaf_StoresHashedLeaf(t *testing.T) {
	h := SHA256()
	leaf := randomLeaf()
	tree := buildTree(t, h, [][32]byte{leaf})

	stored, err := tree.Leaf(0)
	require.NoError(t, err)
	require.Equal(t, HashLeaf(h, leaf[:]), stored)

	empty, err := tree.Leaf(1)
	require.NoError(t, err)
	require.Equal(t, [32]byte{}, empty)
}

func TestMerkleTreeDeterminism(t *testing.T) {
	leaves := randomLeaves(6)
	tree1 := buildTree(t, nil, leaves)
	tree2 := buildTree(t, nil, leaves)
	require.Equal(t, tree1.Root(), tree2.Root())
	require.Equal(t, tree1.Nodes(), tree2.Nodes())
}

func TestMerkleTreeOrderMatters(t *testing.T) {
	leaves := randomLeaves(2)
	tree1 := buildTree(t, nil, leaves)
	tree2 := buildTree(t, nil, [][32]byte{leaves[1], leaves[0]})
	require.NotEqual(t, tree1.Root(), tree2.Root())
}

func TestNodeAndLeafBounds(t *testing.T) {
	tree := NewMerkleTree(nil)

	_, err := tree.Node(-1)
	require.Error(t, err)
	_, err = tree.Node(TreeSize)
	require.Error(t, err)

	_, err = tree.Leaf(LeafCapacity)
	require.ErrorIs(t, err, ErrLeafIndexOutOfRange)
}

func TestClone(t *testing.T) {
	tree := buildTree(t, nil, randomLeaves(2))
	c := tree.Clone()
	require.NoError(t, c.InsertLeaf(randomLeaf()))

	require.Equal(t, 2, tree.NextLeafIndex())
	require.Equal(t, 3, c.NextLeafIndex())
	require.NotEqual(t, tree.Root(), c.Root())
}

// TestGenerateProof tests proof extraction and verification for every populated leaf
func TestGenerateProof(t *testing.T) {
	for n := 1; n <= LeafCapacity; n++ {
		t.Run(fmt.Sprintf("%d_leaves", n), func(t *testing.T) {
			h := SHA256()
			leaves := randomLeaves(n)
			tree := buildTree(t, h, leaves)

			for k := 0; k < n; k++ {
				proof, err := tree.GenerateProof(k)
				require.NoError(t, err)
				require.Equal(t, k, proof.LeafIndex)
				require.Len(t, proof.Siblings, MaxDepth)
				require.Equal(t, HashLeaf(h, leaves[k][:]), proof.LeafHash)

				require.True(t, VerifyProof(h, proof, tree.Root()), "proof for leaf %d should be valid", k)
				require.NoError(t, Verify(h, leaves[k][:], k, proof.Siblings, tree.Root()))
			}
		})
	}
}

func TestGenerateProofInvalidIndex(t *testing.T) {
	tree := buildTree(t, nil, randomLeaves(3))

	t.Run("Negative index", func(t *testing.T) {
		proof, err := tree.GenerateProof(-1)
		require.ErrorIs(t, err, ErrLeafIndexOutOfRange)
		require.Nil(t, proof)
	})

	t.Run("Unpopulated slot", func(t *testing.T) {
		proof, err := tree.GenerateProof(3)
		require.ErrorIs(t, err, ErrLeafIndexOutOfRange)
		require.Nil(t, proof)
	})
}
