package pack

import (
	"fmt"

	"github.com/kack1/got-portable/hash"
	"github.com/kack1/got-portable/objerr"
)

// MaxChainDepth is the maximum number of delta links resolved before
// giving up, matching git's own limit (spec.md §3).
const MaxChainDepth = 50

// CancelFunc is a predicate checked once per chain link while walking
// back to a delta's plain base, and once per delta while applying
// forward from it (spec.md §5: "checked once per object in the scan
// and once per delta in application"). It mirrors the root gotpack
// package's own CancelFunc (a separate, identically-shaped type here
// to avoid an import cycle, since gotpack imports this package);
// callers convert their CancelFunc to this type at the call site.
type CancelFunc func() bool

func checkCancel(cancel CancelFunc) error {
	if cancel != nil && cancel() {
		return objerr.ErrCancelled
	}
	return nil
}

// BaseResolver locates the pack and offset of a REF_DELTA's base
// object, which — unlike an OFS_DELTA's base — may live in a
// different pack than the delta itself. ok is false when id is not
// found in any pack the resolver knows about; ResolveDepth then fails
// with ErrInvalidBaseOffset. A base stored only as a loose object is
// not looked up.
type BaseResolver interface {
	ResolveRef(id hash.HashId) (pack *PackFile, offset int64, ok bool, err error)
}

// Resolve walks the (possibly mixed OFS/REF) delta chain starting at
// offset in pack and returns the fully materialized object: its plain
// type and final content.
//
// Resolution is iterative rather than recursive (spec.md §9's design
// note): the chain of RawObjects from the requested object back to
// its plain base is first collected into a slice, then deltas are
// applied forward from the base outward, so the call stack never
// grows with chain depth regardless of how deep a chain the pack
// contains.
// Resolve also reports the chain depth walked (0 for a non-deltified
// object), via ResolveDepth; Resolve itself discards it for callers
// that don't care.
func Resolve(startPack *PackFile, startOffset int64, resolver BaseResolver, maxDepth int, cancel CancelFunc) (ObjectType, []byte, error) {
	t, content, _, err := ResolveDepth(startPack, startOffset, resolver, maxDepth, cancel)
	return t, content, err
}

// ResolveDepth walks the (possibly mixed OFS/REF) delta chain starting
// at offset in pack and returns the fully materialized object: its
// plain type, final content, and the number of delta links applied.
//
// Resolution is iterative rather than recursive (spec.md §9's design
// note): the chain of RawObjects from the requested object back to
// its plain base is first collected into a slice, then deltas are
// applied forward from the base outward, so the call stack never
// grows with chain depth regardless of how deep a chain the pack
// contains. cancel is checked once per link while collecting the
// chain and once per delta while applying it, so a long walk near
// maxDepth can still be interrupted mid-chain rather than only at the
// call's outer boundary.
func ResolveDepth(startPack *PackFile, startOffset int64, resolver BaseResolver, maxDepth int, cancel CancelFunc) (ObjectType, []byte, int, error) {
	if maxDepth <= 0 {
		maxDepth = MaxChainDepth
	}

	type link struct {
		pack *PackFile
		raw  *RawObject
	}

	var chain []link
	curPack := startPack
	curOffset := startOffset

	for {
		if err := checkCancel(cancel); err != nil {
			return 0, nil, 0, err
		}

		// Every link collected so far is a delta; allow up to maxDepth
		// of them before the plain base.
		if len(chain) > maxDepth {
			return 0, nil, 0, ErrChainTooDeep
		}

		raw, err := curPack.GetByOffset(curOffset)
		if err != nil {
			return 0, nil, 0, err
		}
		chain = append(chain, link{pack: curPack, raw: raw})

		switch raw.Type {
		case TypeOFSDelta:
			curOffset = raw.BaseOffset
			// curPack unchanged: OFS deltas are always same-pack.
			continue

		case TypeREFDelta:
			basePack, baseOffset, ok, err := resolver.ResolveRef(raw.BaseHash)
			if err != nil {
				return 0, nil, 0, err
			}
			if !ok {
				return 0, nil, 0, fmt.Errorf("pack: ref-delta base %s not found: %w", raw.BaseHash, ErrInvalidBaseOffset)
			}
			curPack = basePack
			curOffset = baseOffset
			continue

		case TypeCommit, TypeTree, TypeBlob, TypeTag:
			// Reached the plain base; fall through to apply.

		default:
			return 0, nil, 0, ErrNonPlainBase
		}
		break
	}

	// chain[len-1] is the plain base; chain[0] is the originally
	// requested object. Apply deltas forward from the base outward.
	base := chain[len(chain)-1]
	content := base.raw.Content
	finalType := base.raw.Type
	depth := len(chain) - 1

	for i := len(chain) - 2; i >= 0; i-- {
		if err := checkCancel(cancel); err != nil {
			return 0, nil, 0, err
		}
		applied, err := ApplyDelta(content, chain[i].raw.Content)
		if err != nil {
			return 0, nil, 0, err
		}
		content = applied
	}

	return finalType, content, depth, nil
}
