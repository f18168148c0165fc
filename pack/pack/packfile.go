// Package pack reads git pack files: parsing the variable-length
// object headers, dispatching OFS_DELTA and REF_DELTA objects,
// resolving delta chains, and applying the copy/insert delta
// instruction stream to materialize a final object.
package pack

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/kack1/got-portable/hash"
	"github.com/kack1/got-portable/internal/zbuf"
	"github.com/kack1/got-portable/objerr"
)

// ObjectType mirrors the 3-bit type code stored in a pack object
// header. It is a distinct, pack-local type from the root package's
// ObjectType so this package has no dependency on it; Repository
// translates between the two at the boundary.
type ObjectType byte

const (
	TypeCommit   ObjectType = 1
	TypeTree     ObjectType = 2
	TypeBlob     ObjectType = 3
	TypeTag      ObjectType = 4
	TypeOFSDelta ObjectType = 6
	TypeREFDelta ObjectType = 7
)

func (t ObjectType) IsDelta() bool { return t == TypeOFSDelta || t == TypeREFDelta }

const signature = "PACK"

// PackFile is an opened, validated .pack file, ready for random
// access reads by byte offset. It owns no index of its own; callers
// pair it with a *idx.PackIndex to translate object ids to offsets.
type PackFile struct {
	path        string
	f           *os.File
	size        int64
	version     uint32
	objectCount uint32
}

// Open validates a pack file's 12-byte header (signature, version,
// object count) and returns a handle ready for GetByOffset.
// expectedCount, typically the paired index's Count(), is compared
// against the header's count (spec.md §4.2); pass 0 to skip that
// check.
func Open(path string, expectedCount uint32) (*PackFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	var header [12]byte
	if _, err := io.ReadFull(f, header[:]); err != nil {
		f.Close()
		return nil, fmt.Errorf("pack: read header: %w", err)
	}
	if string(header[:4]) != signature {
		f.Close()
		return nil, ErrBadSignature
	}
	version := binary.BigEndian.Uint32(header[4:8])
	if version != 2 {
		f.Close()
		return nil, ErrUnsupportedVersion
	}
	count := binary.BigEndian.Uint32(header[8:12])
	if expectedCount != 0 && count != expectedCount {
		f.Close()
		return nil, ErrObjectCountMismatch
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	return &PackFile{path: path, f: f, size: info.Size(), version: version, objectCount: count}, nil
}

// Close releases the underlying file handle.
func (p *PackFile) Close() error { return p.f.Close() }

// Path returns the filesystem path the pack was opened from.
func (p *PackFile) Path() string { return p.path }

// ObjectCount returns the object count from the pack header.
func (p *PackFile) ObjectCount() uint32 { return p.objectCount }

// Size returns the pack file's size in bytes.
func (p *PackFile) Size() int64 { return p.size }

// RawObject is a single object record read directly off an offset in
// the pack: its type, declared size, and (for deltas) the secondary
// header identifying its base.
type RawObject struct {
	Type ObjectType
	// Size is the declared size of Content once fully inflated: the
	// object's own size for a plain object, or the delta's own
	// encoded size for a delta object (not the size of its base or
	// final result).
	Size int64
	// HeaderLen is the total number of bytes the type/size header
	// (plus, for deltas, the secondary base header) occupied.
	HeaderLen int64
	// BaseOffset is set for TypeOFSDelta: the absolute pack offset of
	// the base object.
	BaseOffset int64
	// BaseHash is set for TypeREFDelta: the id of the base object,
	// which may live in a different pack.
	BaseHash hash.HashId
	// Content is the raw (post-inflate) bytes: the object body for a
	// plain object, or the delta instruction stream for a delta.
	Content []byte
}

// GetByOffset reads and fully inflates the object at the given
// absolute pack offset, without resolving any delta chain. Use
// Resolve or ResolveDepth to materialize a delta object's final content.
func (p *PackFile) GetByOffset(offset int64) (*RawObject, error) {
	if offset < 12 || offset >= p.size-int64(hash.Size) {
		return nil, fmt.Errorf("pack: offset %d out of bounds: %w", offset, ErrInvalidBaseOffset)
	}

	sr := io.NewSectionReader(p.f, offset, p.size-offset)
	br := bufio.NewReader(sr)

	typeCode, size, headerLen, err := readTypeAndSize(br)
	if err != nil {
		return nil, fmt.Errorf("pack: read header at %d: %w", offset, err)
	}

	obj := &RawObject{Type: ObjectType(typeCode), Size: int64(size)}

	switch obj.Type {
	case TypeOFSDelta:
		negOffset, n, err := readOfsDeltaOffset(br)
		if err != nil {
			return nil, fmt.Errorf("pack: read ofs-delta offset at %d: %w", offset, err)
		}
		headerLen += n
		base := offset - int64(negOffset)
		if base < 12 || base >= offset {
			return nil, fmt.Errorf("pack: ofs-delta base %d at %d: %w", base, offset, ErrInvalidBaseOffset)
		}
		obj.BaseOffset = base

	case TypeREFDelta:
		var idBuf [hash.Size]byte
		if _, err := io.ReadFull(br, idBuf[:]); err != nil {
			return nil, fmt.Errorf("pack: read ref-delta base id at %d: %w", offset, err)
		}
		headerLen += hash.Size
		id, err := hash.FromBytes(idBuf[:])
		if err != nil {
			return nil, err
		}
		obj.BaseHash = id

	case TypeCommit, TypeTree, TypeBlob, TypeTag:
		// plain object, nothing further in the header

	default:
		return nil, fmt.Errorf("pack: object at %d has invalid type code %d: %w", offset, typeCode, objerr.ErrNotImplemented)
	}

	content, _, err := zbuf.ToMemory(br, int64(size))
	if err != nil {
		return nil, fmt.Errorf("pack: inflate object at %d: %w", offset, err)
	}
	obj.Content = content
	obj.HeaderLen = int64(headerLen)

	return obj, nil
}
