package merkle

import "fmt"

// Encode serializes the tree into its persisted layout: TreeSize consecutive
// 32-byte nodes, root first, followed by the one byte leaf counter.
func (mt *MerkleTree) Encode() []byte {
	data := make([]byte, TreeSizeBytes)
	for i := range mt.nodes {
		copy(data[i*NodeSize:(i+1)*NodeSize], mt.nodes[i][:])
	}
	data[TreeSize*NodeSize] = mt.nextLeafIndex
	return data
}

// DecodeMerkleTree parses a persisted tree. The buffer length and the leaf
// counter are validated before anything is interpreted. A nil hasher selects SHA256.
//
// Nodes whose subtree holds no inserted leaf are reset to the default digest
// of their height, so an all-zero account decodes to the empty tree.
func DecodeMerkleTree(h Hasher, data []byte) (*MerkleTree, error) {
	if len(data) != TreeSizeBytes {
		return nil, fmt.Errorf("%w: got %d bytes, expected %d", ErrInvalidAccountDataLength, len(data), TreeSizeBytes)
	}
	counter := data[TreeSize*NodeSize]
	if int(counter) > LeafCapacity {
		return nil, fmt.Errorf("%w: %d > %d", ErrCorruptLeafCounter, counter, LeafCapacity)
	}

	mt := NewMerkleTree(h)
	for i := range mt.nodes {
		copy(mt.nodes[i][:], data[i*NodeSize:(i+1)*NodeSize])
	}
	mt.nextLeafIndex = counter
	mt.fillEmptySubtrees()
	return mt, nil
}
