package merkle

import (
	"crypto/sha256"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/blake2b"
)

// Hasher identifiers accepted by HasherByName.
const (
	HasherSHA256    = "sha256"
	HasherKeccak256 = "keccak256"
	HasherBlake2b   = "blake2b"
)

// Hasher is the hash primitive shared by the tree and the proof verifier.
// A tree and the proofs checked against its root must use the same Hasher.
//
// Implementations must be safe to call concurrently and must not retain
// the passed slices.
type Hasher interface {
	// ID returns the name of the hash function.
	ID() string

	// Hash digests the concatenation of all passed byte slices.
	Hash(data ...[]byte) [32]byte
}

// Combine computes H(left || right) for two child digests.
// Combine is order sensitive: Combine(h, a, b) != Combine(h, b, a) for a != b.
func Combine(h Hasher, left, right [32]byte) [32]byte {
	return h.Hash(left[:], right[:])
}

// HashLeaf computes the digest stored in a leaf slot for a raw leaf value.
// The tree stores HashLeaf(leaf), and proof verification starts from the same value.
func HashLeaf(h Hasher, leaf []byte) [32]byte {
	return h.Hash(leaf)
}

type sha256Hasher struct{}

func (sha256Hasher) ID() string { return HasherSHA256 }

func (sha256Hasher) Hash(data ...[]byte) [32]byte {
	d := sha256.New()
	for _, b := range data {
		d.Write(b)
	}
	var out [32]byte
	d.Sum(out[:0])
	return out
}

type keccak256Hasher struct{}

func (keccak256Hasher) ID() string { return HasherKeccak256 }

func (keccak256Hasher) Hash(data ...[]byte) [32]byte {
	return [32]byte(crypto.Keccak256Hash(data...))
}

type blake2bHasher struct{}

func (blake2bHasher) ID() string { return HasherBlake2b }

func (blake2bHasher) Hash(data ...[]byte) [32]byte {
	// New256 only fails for keys longer than 64 bytes
	d, _ := blake2b.New256(nil)
	for _, b := range data {
		d.Write(b)
	}
	var out [32]byte
	d.Sum(out[:0])
	return out
}

var hashers = map[string]Hasher{
	HasherSHA256:    sha256Hasher{},
	HasherKeccak256: keccak256Hasher{},
	HasherBlake2b:   blake2bHasher{},
}

// SHA256 returns the default hasher. It matches the hash used by the
// on-chain program the persisted layout comes from.
func SHA256() Hasher { return sha256Hasher{} }

// Keccak256 returns a hasher compatible with Solidity's keccak256.
func Keccak256() Hasher { return keccak256Hasher{} }

// Blake2b returns a BLAKE2b-256 hasher.
func Blake2b() Hasher { return blake2bHasher{} }

// HasherByName returns the hasher registered under name.
func HasherByName(name string) (Hasher, error) {
	if h, ok := hashers[name]; ok {
		return h, nil
	}
	return nil, fmt.Errorf("unknown hasher %q, supported: %v", name, SupportedHashers())
}

// SupportedHashers returns the registered hasher names in sorted order.
func SupportedHashers() []string {
	names := make([]string, 0, len(hashers))
	for name := range hashers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
