// Package objerr holds the sentinel errors shared by every layer of
// the object-access core (hash, loose, pack/idx, pack/pack, pack/cache
// and the root Repository). It exists as its own leaf package so that
// the low-level packages can return these errors without importing
// the root package and creating an import cycle; the root package
// re-exports every value here under the same name for callers that
// only import the top-level API.
package objerr

import "errors"

var (
	// ErrObjectNotFound is returned when an id cannot be located as
	// either a loose or a packed object.
	ErrObjectNotFound = errors.New("object not found")

	// ErrBadPackIndex is returned for structural errors in a .idx
	// file: bad magic, unsupported version, non-monotonic fanout,
	// truncated tables, or an out-of-range offset indirection.
	ErrBadPackIndex = errors.New("malformed pack index")

	// ErrPackIndexChecksum is returned when a .idx file's trailing
	// SHA-1 does not match the digest computed while reading it.
	ErrPackIndexChecksum = errors.New("pack index checksum mismatch")

	// ErrBadPackFile is returned for structural errors in a .pack
	// file: bad signature, unsupported version, an object count that
	// disagrees with its index, a truncated variable-length header,
	// or an out-of-range base offset.
	ErrBadPackFile = errors.New("malformed pack file")

	// ErrBadDeltaChain is returned when delta chain resolution or
	// application fails: depth exceeded, a non-plain terminal base,
	// an unknown delta command byte, or an apply-time length
	// mismatch.
	ErrBadDeltaChain = errors.New("malformed delta chain")

	// ErrObjectType is returned when a caller requests a type that
	// differs from the object's actual stored type.
	ErrObjectType = errors.New("unexpected object type")

	// ErrNotImplemented is returned for an object type code the
	// format doesn't define.
	ErrNotImplemented = errors.New("unsupported object type code")

	// ErrCancelled is returned when a caller-supplied cancel
	// predicate fires mid-operation.
	ErrCancelled = errors.New("operation cancelled")

	// ErrNoRepository is returned by Open when path does not look
	// like a git object store (neither path/objects nor
	// path/.git/objects exists).
	ErrNoRepository = errors.New("not a repository")

	// ErrTooLarge is returned by Repository.ExtractToMem when an
	// object's materialized size exceeds
	// Options.InMemoryThresholdBytes.
	ErrTooLarge = errors.New("declared object size exceeds limit")
)
