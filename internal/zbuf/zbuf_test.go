package zbuf

import (
	"bytes"
	"compress/zlib"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ZbufSuite struct {
	suite.Suite
}

func TestZbufSuite(t *testing.T) {
	suite.Run(t, new(ZbufSuite))
}

func deflate(s *ZbufSuite, content []byte) []byte {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	_, err := w.Write(content)
	s.Require().NoError(err)
	s.Require().NoError(w.Close())
	return buf.Bytes()
}

func (s *ZbufSuite) TestToMemoryRoundTrip() {
	content := []byte("tree 4b825dc642cb6eb9a060e54bf8d69288fbee4904\nparent x\n")
	compressed := deflate(s, content)

	got, _, err := ToMemory(bytes.NewReader(compressed), int64(len(content)))
	s.NoError(err)
	s.Equal(content, got)
}

func (s *ZbufSuite) TestToWriterReportsExactConsumedBytes() {
	content := bytes.Repeat([]byte("x"), 5000)
	compressed := deflate(s, content)

	// Simulate a pack file: the compressed stream followed by trailing
	// bytes that must not be consumed.
	trailer := []byte("NEXT-OBJECT-HEADER")
	packed := append(append([]byte{}, compressed...), trailer...)

	var out bytes.Buffer
	res, err := ToWriter(bytes.NewReader(packed), &out)
	s.NoError(err)
	s.Equal(content, out.Bytes())
	s.Equal(int64(len(compressed)), res.Consumed)
}

func (s *ZbufSuite) TestToMemoryBadStream() {
	_, _, err := ToMemory(bytes.NewReader([]byte{0x00, 0x01, 0x02}), 0)
	s.Error(err)
}
