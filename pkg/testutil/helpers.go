package testutil

import (
	"crypto/rand"
	"testing"
)

// RandomLeaf returns a random 32 byte leaf
func RandomLeaf(t *testing.T) [32]byte {
	t.Helper()
	var leaf [32]byte
	if _, err := rand.Read(leaf[:]); err != nil {
		t.Fatalf("Failed to read random bytes: %v", err)
	}
	return leaf
}

// RandomLeaves returns n random leaves
func RandomLeaves(t *testing.T, n int) [][32]byte {
	t.Helper()
	leaves := make([][32]byte, n)
	for i := range leaves {
		leaves[i] = RandomLeaf(t)
	}
	return leaves
}
