package instruction

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Layr-Labs/merkle-tree-go/pkg/merkle"
)

func FuzzParseInstruction(f *testing.F) {
	f.Add([]byte{})
	f.Add([]byte{0})
	f.Add(append([]byte{1}, make([]byte, 32)...))
	f.Add(append([]byte{2}, make([]byte, 33)...))
	f.Add([]byte{2, 0xff})

	f.Fuzz(func(t *testing.T, data []byte) {
		// Keep memory bounded for fuzzing.
		if len(data) > 1<<14 {
			data = data[:1<<14]
		}

		tag, payload, err := Split(data)
		if err != nil {
			return
		}

		switch tag {
		case TagInsertLeaf:
			leaf, err := ParseInsertLeaf(payload)
			if err != nil {
				require.ErrorIs(t, err, merkle.ErrInvalidLeafLength)
				return
			}
			require.Equal(t, data, EncodeInsertLeaf(leaf))
		case TagComputeRoot:
			req, err := ParseComputeRoot(payload)
			if err != nil {
				return
			}
			// a parsed payload always re-encodes to the same bytes
			encoded, err := EncodeComputeRoot(req.Leaf, req.Siblings)
			require.NoError(t, err)
			require.Equal(t, data, encoded)
		case TagVerifyRoot:
			req, err := ParseVerifyRoot(payload)
			if err != nil {
				return
			}
			encoded, err := EncodeVerifyRoot(req.Leaf, req.LeafIndex, req.Siblings, req.Root)
			require.NoError(t, err)
			require.Equal(t, data, encoded)
		}
	})
}
