package hash

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type HashSuite struct {
	suite.Suite
}

func TestHashSuite(t *testing.T) {
	suite.Run(t, new(HashSuite))
}

func (s *HashSuite) TestFromHexRoundTrip() {
	const hex = "94e4b4a02f67e24a9a32d9b5f3a8f3d1a7c1b2c3"
	h, err := FromHex(hex)
	s.NoError(err)
	s.Equal(hex, h.String())
}

func (s *HashSuite) TestFromHexBadLength() {
	_, err := FromHex("abcd")
	s.ErrorIs(err, ErrMalformed)
}

func (s *HashSuite) TestFromBytesBadLength() {
	_, err := FromBytes([]byte{1, 2, 3})
	s.ErrorIs(err, ErrMalformed)
}

func (s *HashSuite) TestCompareAndLess() {
	a := MustFromHex("000000000000000000000000000000000000000a")
	b := MustFromHex("000000000000000000000000000000000000000b")
	s.True(a.Less(b))
	s.False(b.Less(a))
	s.Equal(0, a.Compare(a))
	s.Equal(-1, a.Compare(b))
	s.Equal(1, b.Compare(a))
}

func (s *HashSuite) TestIsZero() {
	s.True(Zero.IsZero())
	s.False(MustFromHex("000000000000000000000000000000000000000a").IsZero())
}

func (s *HashSuite) TestHasherMatchesGitBlobHash() {
	// The canonical empty-blob hash, as produced by `git hash-object
	// --stdin </dev/null`.
	h := NewHasher()
	h.Reset("blob", 0)
	s.Equal("e69de29bb2d1d6434b8b29ae775ad8c2e48c5391", h.Sum().String())
}

func (s *HashSuite) TestHasherWithContent() {
	content := []byte("hello\n")
	h := NewHasher()
	h.Reset("blob", int64(len(content)))
	_, err := h.Write(content)
	s.NoError(err)
	// `git hash-object` on a file containing "hello\n".
	s.Equal("ce013625030ba8dba906f756967f9e9ca394464a", h.Sum().String())
}
