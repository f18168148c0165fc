// Package hash provides the 20-byte object identifier used throughout
// got-portable, along with the hashing primitive used to derive it.
package hash

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"hash"

	"github.com/pjbgf/sha1cd"
)

// Size is the length in bytes of a HashId (SHA-1).
const Size = 20

// HexSize is the length of the hexadecimal form of a HashId.
const HexSize = Size * 2

// Zero is the zero-valued HashId, used as a sentinel for "no hash".
var Zero HashId

// HashId is a 20-byte content-addressed object identifier. It is
// immutable: all operations on it return new values rather than
// mutating the receiver.
type HashId [Size]byte

// FromHex parses a 40-character lowercase hex string into a HashId.
func FromHex(s string) (HashId, error) {
	var h HashId
	if len(s) != HexSize {
		return h, fmt.Errorf("hash: %w: want %d hex chars, got %d", ErrMalformed, HexSize, len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("hash: %w: %w", ErrMalformed, err)
	}
	copy(h[:], b)
	return h, nil
}

// MustFromHex is like FromHex but panics on error. Intended for tests
// and fixture construction, never for parsing untrusted input.
func MustFromHex(s string) HashId {
	h, err := FromHex(s)
	if err != nil {
		panic(err)
	}
	return h
}

// FromBytes copies a 20-byte slice into a HashId.
func FromBytes(b []byte) (HashId, error) {
	var h HashId
	if len(b) != Size {
		return h, fmt.Errorf("hash: %w: want %d bytes, got %d", ErrMalformed, Size, len(b))
	}
	copy(h[:], b)
	return h, nil
}

// Bytes returns the raw 20 bytes of the hash.
func (h HashId) Bytes() []byte { return h[:] }

// String returns the 40-character lowercase hex form.
func (h HashId) String() string { return hex.EncodeToString(h[:]) }

// IsZero reports whether h is the all-zero hash.
func (h HashId) IsZero() bool { return h == Zero }

// Compare returns -1, 0, or 1 depending on whether h sorts before,
// equal to, or after other, using lexicographic byte order.
func (h HashId) Compare(other HashId) int {
	return bytes.Compare(h[:], other[:])
}

// Less reports whether h sorts strictly before other.
func (h HashId) Less(other HashId) bool { return h.Compare(other) < 0 }

// Hasher computes a HashId from an object's canonical form: the
// "<type> <size>\0" header followed by the object's raw content,
// using the collision-detecting SHA-1 implementation go-git adopted
// as its default hash algorithm.
type Hasher struct {
	h hash.Hash
}

// NewHasher returns a ready-to-use Hasher.
func NewHasher() *Hasher {
	return &Hasher{h: sha1cd.New()}
}

// Reset clears the hasher and writes the object header for typeName
// (e.g. "commit", "tree", "blob", "tag") and size.
func (hs *Hasher) Reset(typeName string, size int64) {
	hs.h.Reset()
	fmt.Fprintf(hs.h, "%s %d\x00", typeName, size)
}

// Write feeds object content into the hash.
func (hs *Hasher) Write(p []byte) (int, error) { return hs.h.Write(p) }

// Sum returns the resulting HashId.
func (hs *Hasher) Sum() HashId {
	var out HashId
	copy(out[:], hs.h.Sum(nil))
	return out
}

// NewPackTrailerHash returns a fresh hash.Hash suitable for verifying
// streaming SHA-1 checksums over raw bytes (pack files, pack indexes),
// as opposed to the "<type> <size>\0<body>" object preimage that
// Hasher computes.
func NewPackTrailerHash() hash.Hash {
	return sha1cd.New()
}
