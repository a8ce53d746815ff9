package integration

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Layr-Labs/merkle-tree-go/pkg/client"
	"github.com/Layr-Labs/merkle-tree-go/pkg/logger"
	"github.com/Layr-Labs/merkle-tree-go/pkg/merkle"
	"github.com/Layr-Labs/merkle-tree-go/pkg/persistence/badger"
	"github.com/Layr-Labs/merkle-tree-go/pkg/persistence/persistencetest"
	"github.com/Layr-Labs/merkle-tree-go/pkg/testutil"
)

func newClient(t *testing.T, ts *testutil.TestServer) *client.Client {
	t.Helper()
	c, err := client.NewClient(&client.ClientConfig{BaseURL: ts.URL, Logger: ts.Logger()})
	require.NoError(t, err)
	return c
}

// Test_TreeLifecycle fills a tree through the HTTP API, restarts the server on
// the same badger directory and checks that state and proofs survive.
func Test_TreeLifecycle(t *testing.T) {
	ctx := context.Background()
	dataPath := t.TempDir()
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: false})
	require.NoError(t, err)

	payer := persistencetest.RandomAddress()
	leaves := testutil.RandomLeaves(t, merkle.LeafCapacity)
	reference := merkle.NewMerkleTree(merkle.SHA256())

	store, err := badger.NewBadgerPersistence(dataPath, l)
	require.NoError(t, err)

	ts := testutil.NewTestServer(t, testutil.WithPersistence(store))
	c := newClient(t, ts)

	res, err := c.Initialize(ctx, payer)
	require.NoError(t, err)
	tree := res.Tree

	for _, leaf := range leaves[:5] {
		require.NoError(t, reference.InsertLeaf(leaf))
		_, err := c.InsertLeaf(ctx, payer, tree, leaf)
		require.NoError(t, err)
	}

	ts.Close()
	require.NoError(t, store.Close())

	// restart on the same data directory
	store, err = badger.NewBadgerPersistence(dataPath, l)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	ts = testutil.NewTestServer(t, testutil.WithPersistence(store))
	c = newClient(t, ts)

	state, err := c.GetTree(ctx, tree)
	require.NoError(t, err)
	assert.Equal(t, 5, state.NextLeafIndex)
	assert.Equal(t, common.Hash(reference.Root()), state.Root)

	for _, leaf := range leaves[5:] {
		require.NoError(t, reference.InsertLeaf(leaf))
		res, err := c.InsertLeaf(ctx, payer, tree, leaf)
		require.NoError(t, err)
		assert.Equal(t, common.Hash(reference.Root()), *res.Root)
	}

	_, err = c.InsertLeaf(ctx, payer, tree, testutil.RandomLeaf(t))
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 409, apiErr.StatusCode)

	for i, leaf := range leaves {
		proof, err := c.GetProof(ctx, tree, i)
		require.NoError(t, err)
		assert.True(t, merkle.VerifyProof(merkle.SHA256(), &merkle.MerkleProof{
			LeafIndex: proof.LeafIndex,
			LeafHash:  proof.LeafHash,
			Siblings:  proof.SiblingBytes(),
		}, proof.Root))
		require.NoError(t, c.VerifyRoot(ctx, leaf, uint8(i), proof.SiblingBytes(), proof.Root))
	}
}

// Test_TreesAreIsolated checks that payers own independent trees
func Test_TreesAreIsolated(t *testing.T) {
	ctx := context.Background()
	ts := testutil.NewTestServer(t, testutil.WithHasher(merkle.Blake2b()))
	c := newClient(t, ts)

	alice, bob := persistencetest.RandomAddress(), persistencetest.RandomAddress()
	aliceTree, err := c.Initialize(ctx, alice)
	require.NoError(t, err)
	bobTree, err := c.Initialize(ctx, bob)
	require.NoError(t, err)
	require.NotEqual(t, aliceTree.Tree, bobTree.Tree)

	leaf := testutil.RandomLeaf(t)
	_, err = c.InsertLeaf(ctx, alice, aliceTree.Tree, leaf)
	require.NoError(t, err)

	bobState, err := c.GetTree(ctx, bobTree.Tree)
	require.NoError(t, err)
	assert.Equal(t, 0, bobState.NextLeafIndex)
	assert.Equal(t, common.Hash(merkle.EmptyRoot(merkle.Blake2b())), bobState.Root)

	aliceState, err := c.GetTree(ctx, aliceTree.Tree)
	require.NoError(t, err)
	assert.Equal(t, common.Hash(merkle.Blake2b().Hash(leaf[:])), aliceState.Nodes[merkle.FirstLeafIndex])
}
