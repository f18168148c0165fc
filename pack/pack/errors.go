package pack

import (
	"errors"
	"fmt"

	"github.com/kack1/got-portable/objerr"
)

// The structural errors below wrap objerr.ErrBadPackFile, so callers
// of the root package can match any of them with
// errors.Is(err, gotpack.ErrBadPackFile).
var (
	// ErrBadSignature is returned when a .pack file does not start
	// with the 4-byte "PACK" signature.
	ErrBadSignature = fmt.Errorf("pack: bad signature: %w", objerr.ErrBadPackFile)

	// ErrUnsupportedVersion is returned for any pack version other
	// than 2.
	ErrUnsupportedVersion = fmt.Errorf("pack: unsupported version: %w", objerr.ErrBadPackFile)

	// ErrObjectCountMismatch is returned when a pack's header object
	// count disagrees with its paired index.
	ErrObjectCountMismatch = fmt.Errorf("pack: object count does not match index: %w", objerr.ErrBadPackFile)

	// ErrOversizedHeader is returned when a variable-length size or
	// offset encoding would require more than 10 bytes, which can
	// never happen for a legitimately encoded 64-bit value and
	// indicates a corrupt or hostile stream.
	ErrOversizedHeader = fmt.Errorf("pack: oversized variable-length header: %w", objerr.ErrBadPackFile)

	// ErrInvalidBaseOffset is returned when an OFS_DELTA's computed
	// base offset falls outside the pack (non-positive, or beyond
	// the object currently being read).
	ErrInvalidBaseOffset = fmt.Errorf("pack: invalid delta base offset: %w", objerr.ErrBadPackFile)

	// ErrChainTooDeep is returned when resolving a delta chain would
	// exceed the maximum supported depth (50, per spec.md §3).
	ErrChainTooDeep = errors.New("pack: delta chain exceeds maximum depth")

	// ErrNonPlainBase is returned when a delta chain's terminal
	// object is not one of the four plain object types.
	ErrNonPlainBase = errors.New("pack: delta chain base is not a plain object")

	// ErrInvalidDelta is returned when a delta instruction stream is
	// corrupt: a bad command byte, a copy that reads past the base,
	// or a final length that disagrees with the declared result size.
	ErrInvalidDelta = errors.New("pack: invalid delta instruction stream")
)
