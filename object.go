package gotpack

import "github.com/kack1/got-portable/hash"

// Object is the materialized result of opening or extracting an
// object: its id, plain type, content, and provenance (spec.md §2,
// §4.9 — the open_object/extract_object contracts).
type Object struct {
	ID   hash.HashId
	Type ObjectType

	// Content is the object's fully materialized body: the literal
	// bytes for a loose object, or the fully-resolved result of
	// walking and applying a delta chain for a packed one. It never
	// contains delta instruction bytes.
	Content []byte

	// Packed reports whether the object was read from a pack rather
	// than a loose file.
	Packed bool

	// Deltified reports whether materializing this object required
	// resolving a delta chain. False for both loose objects and
	// packed-but-undeltified objects.
	Deltified bool

	// PackPath is the filesystem path of the pack the object was read
	// from, if Packed.
	PackPath string

	// PackOffset is the object's own byte offset within PackPath, if
	// Packed.
	PackOffset int64

	// ChainDepth is the number of delta links resolved to materialize
	// this object (0 for a non-deltified object).
	ChainDepth int
}

// Size returns the length of Content in bytes.
func (o *Object) Size() int64 { return int64(len(o.Content)) }
