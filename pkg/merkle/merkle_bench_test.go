package merkle

import (
	"testing"
)

// BenchmarkInsertLeaf benchmarks filling an empty tree
func BenchmarkInsertLeaf(b *testing.B) {
	leaves := randomLeaves(LeafCapacity)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		tree := NewMerkleTree(nil)
		for _, leaf := range leaves {
			_ = tree.InsertLeaf(leaf)
		}
	}
}

// BenchmarkGenerateProof benchmarks proof extraction
func BenchmarkGenerateProof(b *testing.B) {
	tree := NewMerkleTree(nil)
	for _, leaf := range randomLeaves(LeafCapacity) {
		_ = tree.InsertLeaf(leaf)
	}
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_, _ = tree.GenerateProof(i % LeafCapacity)
	}
}

// BenchmarkVerifyProof benchmarks proof verification
func BenchmarkVerifyProof(b *testing.B) {
	h := SHA256()
	tree := NewMerkleTree(h)
	for _, leaf := range randomLeaves(LeafCapacity) {
		_ = tree.InsertLeaf(leaf)
	}
	proof, _ := tree.GenerateProof(5)
	root := tree.Root()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = VerifyProof(h, proof, root)
	}
}
