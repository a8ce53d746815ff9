package merkle

import (
	"testing"

	"github.com/stretchr/testify/require"
	merkletree "github.com/wealdtech/go-merkletree/v2"
	"github.com/wealdtech/go-merkletree/v2/keccak256"
)

// TestFullTreeMatchesReferenceImplementation cross-checks a full tree against
// wealdtech/go-merkletree, which hashes leaves and concatenates children the same way.
func TestFullTreeMatchesReferenceImplementation(t *testing.T) {
	leaves := randomLeaves(LeafCapacity)
	data := make([][]byte, len(leaves))
	for i := range leaves {
		data[i] = leaves[i][:]
	}

	ref, err := merkletree.NewTree(
		merkletree.WithData(data),
		merkletree.WithHashType(keccak256.New()),
	)
	require.NoError(t, err)

	tree := buildTree(t, Keccak256(), leaves)
	root := tree.Root()
	require.Equal(t, ref.Root(), root[:])
}
