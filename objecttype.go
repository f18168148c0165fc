package gotpack

import "fmt"

// ObjectType identifies the kind of a git object. The numeric values
// match the type codes used in the pack object header (spec.md §6):
// 1=Commit, 2=Tree, 3=Blob, 4=Tag, 6=OFSDelta, 7=REFDelta. 5 is
// reserved by the format and never produced.
type ObjectType int8

const (
	InvalidObject ObjectType = 0
	CommitObject  ObjectType = 1
	TreeObject    ObjectType = 2
	BlobObject    ObjectType = 3
	TagObject     ObjectType = 4
	OFSDeltaObject ObjectType = 6
	REFDeltaObject ObjectType = 7
)

// String returns the object's name as it appears in a loose object
// header ("commit", "tree", "blob", "tag") or a descriptive label for
// the two delta types, which never appear in a loose object header.
func (t ObjectType) String() string {
	switch t {
	case CommitObject:
		return "commit"
	case TreeObject:
		return "tree"
	case BlobObject:
		return "blob"
	case TagObject:
		return "tag"
	case OFSDeltaObject:
		return "ofs-delta"
	case REFDeltaObject:
		return "ref-delta"
	default:
		return "invalid"
	}
}

// Valid reports whether t is one of the six type codes the format
// defines.
func (t ObjectType) Valid() bool {
	switch t {
	case CommitObject, TreeObject, BlobObject, TagObject, OFSDeltaObject, REFDeltaObject:
		return true
	default:
		return false
	}
}

// IsDelta reports whether t is one of the two delta encodings. Delta
// types are an on-disk pack implementation detail: they are never
// returned by Repository.ObjectType or surfaced in an Object's Type.
func (t ObjectType) IsDelta() bool {
	return t == OFSDeltaObject || t == REFDeltaObject
}

// IsPlain reports whether t is one of the four types open_object may
// return to a caller.
func (t ObjectType) IsPlain() bool {
	return t == CommitObject || t == TreeObject || t == BlobObject || t == TagObject
}

// ObjectTypeFromCode converts a pack header type code (3 bits, values
// 1-4 and 6-7) into an ObjectType, returning ErrNotImplemented for any
// other value (0, 5, or anything out of the 3-bit range).
func ObjectTypeFromCode(code byte) (ObjectType, error) {
	t := ObjectType(code)
	if !t.Valid() {
		return InvalidObject, fmt.Errorf("object type code %d: %w", code, ErrNotImplemented)
	}
	return t, nil
}
