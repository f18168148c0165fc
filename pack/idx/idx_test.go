package idx

import (
	"bytes"
	"crypto/sha1"
	"encoding/binary"
	"sort"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/kack1/got-portable/hash"
	"github.com/kack1/got-portable/objerr"
)

type IdxSuite struct {
	suite.Suite
}

func TestIdxSuite(t *testing.T) {
	suite.Run(t, new(IdxSuite))
}

type fixtureEntry struct {
	id     hash.HashId
	crc    uint32
	offset uint64
}

// buildIdx constructs a well-formed version-2 .idx byte stream for
// the given entries (which need not be pre-sorted), computing the
// fanout table and trailing checksum the way `git index-pack` would.
func buildIdx(entries []fixtureEntry, packChecksum hash.HashId) []byte {
	sorted := append([]fixtureEntry{}, entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].id.Less(sorted[j].id) })

	var body bytes.Buffer
	binary.Write(&body, binary.BigEndian, Magic)
	binary.Write(&body, binary.BigEndian, VersionSupported)

	var fanout [256]uint32
	for _, e := range sorted {
		for b := int(e.id[0]); b < 256; b++ {
			fanout[b]++
		}
	}
	for _, v := range fanout {
		binary.Write(&body, binary.BigEndian, v)
	}

	for _, e := range sorted {
		body.Write(e.id.Bytes())
	}
	for _, e := range sorted {
		binary.Write(&body, binary.BigEndian, e.crc)
	}
	for _, e := range sorted {
		binary.Write(&body, binary.BigEndian, uint32(e.offset))
	}

	body.Write(packChecksum.Bytes())

	sum := sha1.Sum(body.Bytes())
	body.Write(sum[:])

	return body.Bytes()
}

func (s *IdxSuite) TestDecodeAndFind() {
	entries := []fixtureEntry{
		{id: hash.MustFromHex("aa00000000000000000000000000000000000000"), crc: 1, offset: 12},
		{id: hash.MustFromHex("bb00000000000000000000000000000000000000"), crc: 2, offset: 200},
		{id: hash.MustFromHex("ab00000000000000000000000000000000000000"), crc: 3, offset: 5000},
	}
	packChecksum := hash.MustFromHex("cc00000000000000000000000000000000000000")
	raw := buildIdx(entries, packChecksum)

	pi, err := Decode(bytes.NewReader(raw), 0)
	s.Require().NoError(err)
	s.Equal(3, pi.Count())
	s.Equal(packChecksum, pi.PackChecksum())

	for _, e := range entries {
		off, err := pi.OffsetOf(e.id)
		s.NoError(err)
		s.Equal(e.offset, off)
	}

	_, err = pi.OffsetOf(hash.MustFromHex("ff00000000000000000000000000000000000000"))
	s.ErrorIs(err, objerr.ErrObjectNotFound)
}

func (s *IdxSuite) TestDecodeBadMagic() {
	raw := buildIdx(nil, hash.Zero)
	raw[0] = 0x00
	// Re-sign the trailer so only the magic is wrong.
	sum := sha1.Sum(raw[:len(raw)-20])
	copy(raw[len(raw)-20:], sum[:])

	_, err := Decode(bytes.NewReader(raw), 0)
	s.ErrorIs(err, objerr.ErrBadPackIndex)
}

func (s *IdxSuite) TestDecodeChecksumMismatch() {
	raw := buildIdx(nil, hash.Zero)
	raw[len(raw)-1] ^= 0xff // flip a bit in the trailing checksum

	_, err := Decode(bytes.NewReader(raw), 0)
	s.ErrorIs(err, objerr.ErrPackIndexChecksum)
}

func (s *IdxSuite) TestDecodeEmpty() {
	raw := buildIdx(nil, hash.MustFromHex("0000000000000000000000000000000000000000"))
	pi, err := Decode(bytes.NewReader(raw), 0)
	s.Require().NoError(err)
	s.Equal(0, pi.Count())
	s.False(pi.Contains(hash.Zero))
}
