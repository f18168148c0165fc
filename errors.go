package gotpack

import "github.com/kack1/got-portable/objerr"

// Error taxonomy for the repository object-access core. Each value is
// a sentinel: callers compare with errors.Is, and call sites wrap it
// with fmt.Errorf("...: %w", err) to attach the hash, path, or offset
// involved. The values themselves live in objerr, so that the
// low-level packages (hash, loose, pack/idx, pack/pack, pack/cache)
// can return them without importing this package.
var (
	// ErrObjectNotFound is returned when an id cannot be located as
	// either a loose or a packed object.
	ErrObjectNotFound = objerr.ErrObjectNotFound

	// ErrBadPackIndex is returned for structural errors in a .idx
	// file: bad magic, unsupported version, non-monotonic fanout,
	// truncated tables, or an out-of-range offset indirection.
	ErrBadPackIndex = objerr.ErrBadPackIndex

	// ErrPackIndexChecksum is returned when a .idx file's trailing
	// SHA-1 does not match the digest computed while reading it.
	ErrPackIndexChecksum = objerr.ErrPackIndexChecksum

	// ErrBadPackFile is returned for structural errors in a .pack
	// file: bad signature, unsupported version, an object count that
	// disagrees with its index, a truncated variable-length header,
	// or an out-of-range base offset.
	ErrBadPackFile = objerr.ErrBadPackFile

	// ErrBadDeltaChain is returned when delta chain resolution or
	// application fails: depth exceeded, a non-plain terminal base,
	// an unknown delta command byte, or an apply-time length
	// mismatch.
	ErrBadDeltaChain = objerr.ErrBadDeltaChain

	// ErrObjectType is returned when a caller requests a type that
	// differs from the object's actual stored type.
	ErrObjectType = objerr.ErrObjectType

	// ErrNotImplemented is returned for an object type code the
	// format doesn't define.
	ErrNotImplemented = objerr.ErrNotImplemented

	// ErrCancelled is returned when a caller-supplied cancel
	// predicate fires mid-operation.
	ErrCancelled = objerr.ErrCancelled

	// ErrNoRepository is returned by Open when path does not look
	// like a git object store (neither path/objects nor
	// path/.git/objects exists).
	ErrNoRepository = objerr.ErrNoRepository

	// ErrTooLarge is returned by Repository.ExtractToMem when an
	// object's materialized size exceeds
	// Options.InMemoryThresholdBytes.
	ErrTooLarge = objerr.ErrTooLarge
)
