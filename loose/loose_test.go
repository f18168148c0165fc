package loose

import (
	"bytes"
	"compress/zlib"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/kack1/got-portable/hash"
	"github.com/kack1/got-portable/objerr"
)

type LooseSuite struct {
	suite.Suite
	dir string
}

func TestLooseSuite(t *testing.T) {
	suite.Run(t, new(LooseSuite))
}

func (s *LooseSuite) SetupTest() {
	s.dir = s.T().TempDir()
}

// writeLooseObject deflates "<type> <size>\0<content>" and writes it
// to the fanout path a real loose object would live at.
func (s *LooseSuite) writeLooseObject(id hash.HashId, typeName string, content []byte) {
	var raw bytes.Buffer
	raw.WriteString(typeName)
	raw.WriteByte(' ')
	raw.WriteString(itoa(len(content)))
	raw.WriteByte(0)
	raw.Write(content)

	var compressed bytes.Buffer
	w := zlib.NewWriter(&compressed)
	_, err := w.Write(raw.Bytes())
	s.Require().NoError(err)
	s.Require().NoError(w.Close())

	h := id.String()
	dir := filepath.Join(s.dir, h[:2])
	s.Require().NoError(os.MkdirAll(dir, 0o755))
	s.Require().NoError(os.WriteFile(filepath.Join(dir, h[2:]), compressed.Bytes(), 0o644))
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

func (s *LooseSuite) TestOpenRoundTrip() {
	id := hash.MustFromHex("ce013625030ba8dba906f756967f9e9ca394464a")
	s.writeLooseObject(id, "blob", []byte("hello\n"))

	store := New(s.dir)
	s.True(store.Exists(id))

	obj, err := store.Open(id)
	s.NoError(err)
	s.Equal("blob", obj.Type)
	s.EqualValues(6, obj.Size)
	s.Equal("hello\n", string(obj.Content))
}

func (s *LooseSuite) TestOpenNotFound() {
	store := New(s.dir)
	id := hash.MustFromHex("000000000000000000000000000000000000000a")
	_, err := store.Open(id)
	s.ErrorIs(err, objerr.ErrObjectNotFound)
}

func (s *LooseSuite) TestExtractToFile() {
	id := hash.MustFromHex("ce013625030ba8dba906f756967f9e9ca394464a")
	s.writeLooseObject(id, "blob", []byte("hello\n"))

	store := New(s.dir)
	dest := filepath.Join(s.dir, "extracted.bin")
	typeName, size, err := store.ExtractToFile(id, dest)
	s.NoError(err)
	s.Equal("blob", typeName)
	s.EqualValues(6, size)

	got, err := os.ReadFile(dest)
	s.NoError(err)
	s.Equal("hello\n", string(got))
}

func (s *LooseSuite) TestExtractToFileNotFound() {
	store := New(s.dir)
	_, _, err := store.ExtractToFile(hash.MustFromHex("000000000000000000000000000000000000000a"), filepath.Join(s.dir, "nope.bin"))
	s.ErrorIs(err, objerr.ErrObjectNotFound)
}

func (s *LooseSuite) TestOpenTruncatedHeader() {
	id := hash.MustFromHex("000000000000000000000000000000000000000b")
	var compressed bytes.Buffer
	w := zlib.NewWriter(&compressed)
	_, err := w.Write([]byte("no-nul-byte-here"))
	s.Require().NoError(err)
	s.Require().NoError(w.Close())

	h := id.String()
	dir := filepath.Join(s.dir, h[:2])
	s.Require().NoError(os.MkdirAll(dir, 0o755))
	s.Require().NoError(os.WriteFile(filepath.Join(dir, h[2:]), compressed.Bytes(), 0o644))

	store := New(s.dir)
	_, err = store.Open(id)
	s.Error(err)
}
