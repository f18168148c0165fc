package pack

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/kack1/got-portable/hash"
)

type PackFileSuite struct {
	suite.Suite
	dir string
}

func TestPackFileSuite(t *testing.T) {
	suite.Run(t, new(PackFileSuite))
}

func (s *PackFileSuite) SetupTest() {
	s.dir = s.T().TempDir()
}

// encodeTypeSize is an independent re-implementation of the
// type+size varint header encoding, used only to build test fixtures
// so the encoder and decoder under test aren't the same code.
func encodeTypeSize(typeCode byte, size uint64) []byte {
	first := (typeCode << 4) & 0x70
	b := byte(size & 0x0f)
	size >>= 4
	if size != 0 {
		b |= 0x80
	}
	out := []byte{first | b}
	for size != 0 {
		b := byte(size & 0x7f)
		size >>= 7
		if size != 0 {
			b |= 0x80
		}
		out = append(out, b)
	}
	return out
}

func encodeOfsNegOffset(neg uint64) []byte {
	// Encode most-significant group first, matching the on-disk
	// OFS_DELTA convention, with the "+1 per continuation" adjustment
	// applied when decoding, not encoding: build groups least
	// significant first, then reverse, subtracting 1 from all but the
	// least significant group as required by the inverse of
	// readOfsDeltaOffset's accumulation.
	var groups []byte
	groups = append(groups, byte(neg&0x7f))
	neg >>= 7
	for neg != 0 {
		neg--
		groups = append(groups, byte(neg&0x7f))
		neg >>= 7
	}
	// groups is least-significant-group first; reverse for on-disk
	// order (most significant first) and set continuation bits on all
	// but the last emitted byte.
	out := make([]byte, len(groups))
	for i, g := range groups {
		out[len(groups)-1-i] = g
	}
	for i := 0; i < len(out)-1; i++ {
		out[i] |= 0x80
	}
	return out
}

func deflate(b *PackFileSuite, content []byte) []byte {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	_, err := w.Write(content)
	b.Require().NoError(err)
	b.Require().NoError(w.Close())
	return buf.Bytes()
}

type fixtureObject struct {
	typeCode byte
	content  []byte
	// for OFS delta objects:
	baseNegOffset uint64
	// for REF delta objects:
	baseHash hash.HashId
}

// writePack assembles a well-formed pack file (header, objects,
// trailer checksum) from plain-content fixtureObjects, returning each
// object's absolute offset alongside the file path.
func (s *PackFileSuite) writePack(name string, objs []fixtureObject) (string, []int64) {
	var body bytes.Buffer
	body.WriteString("PACK")
	binary.Write(&body, binary.BigEndian, uint32(2))
	binary.Write(&body, binary.BigEndian, uint32(len(objs)))

	offsets := make([]int64, len(objs))
	for i, o := range objs {
		offsets[i] = int64(body.Len())
		body.Write(encodeTypeSize(o.typeCode, uint64(len(o.content))))
		switch ObjectType(o.typeCode) {
		case TypeOFSDelta:
			body.Write(encodeOfsNegOffset(o.baseNegOffset))
		case TypeREFDelta:
			body.Write(o.baseHash.Bytes())
		}
		body.Write(deflate(s, o.content))
	}

	h := hash.NewPackTrailerHash()
	h.Write(body.Bytes())
	body.Write(h.Sum(nil))

	path := filepath.Join(s.dir, name+".pack")
	s.Require().NoError(os.WriteFile(path, body.Bytes(), 0o644))
	return path, offsets
}

func (s *PackFileSuite) TestOpenValidatesSignature() {
	path := filepath.Join(s.dir, "bad.pack")
	s.Require().NoError(os.WriteFile(path, []byte("NOPE0000000000"), 0o644))
	_, err := Open(path, 0)
	s.ErrorIs(err, ErrBadSignature)
}

func (s *PackFileSuite) TestOpenValidatesObjectCount() {
	path, _ := s.writePack("p", []fixtureObject{{typeCode: byte(TypeBlob), content: []byte("hi")}})
	_, err := Open(path, 5)
	s.ErrorIs(err, ErrObjectCountMismatch)
}

func (s *PackFileSuite) TestGetByOffsetPlainBlob() {
	content := []byte("the quick brown fox")
	path, offsets := s.writePack("p", []fixtureObject{{typeCode: byte(TypeBlob), content: content}})

	pf, err := Open(path, 1)
	s.Require().NoError(err)
	defer pf.Close()

	raw, err := pf.GetByOffset(offsets[0])
	s.Require().NoError(err)
	s.Equal(TypeBlob, raw.Type)
	s.Equal(content, raw.Content)
	s.EqualValues(len(content), raw.Size)
}

func (s *PackFileSuite) TestGetByOffsetMultipleObjects() {
	contents := [][]byte{
		[]byte("first object content"),
		[]byte("a different second object, a bit longer this time"),
		[]byte("third"),
	}
	var objs []fixtureObject
	for _, c := range contents {
		objs = append(objs, fixtureObject{typeCode: byte(TypeBlob), content: c})
	}
	path, offsets := s.writePack("p", objs)

	pf, err := Open(path, uint32(len(objs)))
	s.Require().NoError(err)
	defer pf.Close()

	for i, off := range offsets {
		raw, err := pf.GetByOffset(off)
		s.Require().NoError(err)
		s.Equal(contents[i], raw.Content)
	}
}
