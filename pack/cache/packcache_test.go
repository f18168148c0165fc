package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/kack1/got-portable/hash"
	"github.com/kack1/got-portable/pack/pack"
)

type PackCacheSuite struct {
	suite.Suite
	dir string
}

func TestPackCacheSuite(t *testing.T) {
	suite.Run(t, new(PackCacheSuite))
}

func (s *PackCacheSuite) SetupTest() {
	s.dir = s.T().TempDir()
}

// openEmptyPack writes and opens a minimal, header-only pack file (no
// objects, no trailer) since PackCache never reads past the header.
func (s *PackCacheSuite) openEmptyPack(name string) *pack.PackFile {
	path := filepath.Join(s.dir, name+".pack")
	header := []byte{'P', 'A', 'C', 'K', 0, 0, 0, 2, 0, 0, 0, 0}
	s.Require().NoError(os.WriteFile(path, header, 0o644))
	pf, err := pack.Open(path, 0)
	s.Require().NoError(err)
	return pf
}

func (s *PackCacheSuite) TestGetMiss() {
	c := NewPackCache(2)
	_, _, ok := c.Get(hash.MustFromHex("aa0000000000000000000000000000000000000a"))
	s.False(ok)
}

func (s *PackCacheSuite) TestPutAndGet() {
	c := NewPackCache(2)
	id := hash.MustFromHex("aa0000000000000000000000000000000000000a")
	pf := s.openEmptyPack("a")

	c.Put(id, nil, pf)
	gotIdx, gotPf, ok := c.Get(id)
	s.True(ok)
	s.Nil(gotIdx)
	s.Same(pf, gotPf)
	s.Equal(1, c.Len())
}

func (s *PackCacheSuite) TestEvictsLeastRecentlyUsed() {
	c := NewPackCache(2)
	idA := hash.MustFromHex("aa0000000000000000000000000000000000000a")
	idB := hash.MustFromHex("bb0000000000000000000000000000000000000b")
	idC := hash.MustFromHex("cc0000000000000000000000000000000000000c")
	pfA := s.openEmptyPack("a")
	pfB := s.openEmptyPack("b")
	pfC := s.openEmptyPack("c")

	c.Put(idA, nil, pfA)
	c.Put(idB, nil, pfB)
	// Touch A so B becomes least recently used.
	_, _, _ = c.Get(idA)
	c.Put(idC, nil, pfC)

	s.Equal(2, c.Len())
	_, _, ok := c.Get(idB)
	s.False(ok, "B should have been evicted as the least recently used entry")

	_, gotA, ok := c.Get(idA)
	s.True(ok)
	s.Same(pfA, gotA)
	_, gotC, ok := c.Get(idC)
	s.True(ok)
	s.Same(pfC, gotC)

	// The evicted pack's handle should be closed: a second Close call
	// on an already-closed *os.File returns an error, which confirms
	// Close was already called once by the cache.
	s.Error(pfB.Close())
}

func (s *PackCacheSuite) TestPutRefreshesExistingEntryWithoutEviction() {
	c := NewPackCache(1)
	id := hash.MustFromHex("aa0000000000000000000000000000000000000a")
	pf1 := s.openEmptyPack("a")
	pf2 := s.openEmptyPack("b")

	c.Put(id, nil, pf1)
	c.Put(id, nil, pf2)

	s.Equal(1, c.Len())
	_, got, ok := c.Get(id)
	s.True(ok)
	s.Same(pf2, got)
}

func (s *PackCacheSuite) TestRemove() {
	c := NewPackCache(2)
	id := hash.MustFromHex("aa0000000000000000000000000000000000000a")
	pf := s.openEmptyPack("a")
	c.Put(id, nil, pf)

	c.Remove(id)
	s.Equal(0, c.Len())
	_, _, ok := c.Get(id)
	s.False(ok)
	s.Error(pf.Close(), "Remove should have closed the pack handle")
}

func (s *PackCacheSuite) TestClose() {
	c := NewPackCache(2)
	idA := hash.MustFromHex("aa0000000000000000000000000000000000000a")
	idB := hash.MustFromHex("bb0000000000000000000000000000000000000b")
	pfA := s.openEmptyPack("a")
	pfB := s.openEmptyPack("b")
	c.Put(idA, nil, pfA)
	c.Put(idB, nil, pfB)

	c.Close()
	s.Equal(0, c.Len())
	s.Error(pfA.Close())
	s.Error(pfB.Close())
}
