// Package zbuf streams zlib-compressed object and delta payloads out
// of loose object files and pack files. It wraps
// github.com/klauspost/compress/zlib rather than the standard
// library's compress/zlib, matching the compression library the rest
// of the retrieved example pack (odvcencio-got, odvcencio-gothub)
// reaches for.
package zbuf

import (
	"bufio"
	"bytes"
	"io"

	"github.com/klauspost/compress/zlib"
)

// bufSize is deliberately small. A zlib stream inside a pack file is
// immediately followed by the next object's header (or the pack
// trailer); over-reading into that data via a large internal buffer
// would make it impossible to recover the exact byte offset where the
// stream ended, so callers that need Consumed to be exact should keep
// this small relative to typical object sizes.
const bufSize = 512

// Result reports the outcome of an inflate: the decompressed bytes
// (when decoded to memory) and exactly how many compressed bytes were
// consumed from the input, which is NOT necessarily the same as how
// many bytes were Read() from the source — zlib framing is
// self-delimiting, and callers must capture the real position from
// this field rather than assuming anything about the underlying
// reader's cursor.
type Result struct {
	Consumed int64
}

// ToWriter inflates a zlib stream read from r into w.
func ToWriter(r io.Reader, w io.Writer) (Result, error) {
	cr := &countingReader{r: r}
	br := bufio.NewReaderSize(cr, bufSize)
	zr, err := zlib.NewReader(br)
	if err != nil {
		return Result{}, err
	}
	defer zr.Close()

	if _, err := io.Copy(w, zr); err != nil {
		return Result{}, err
	}

	return Result{Consumed: cr.n - int64(br.Buffered())}, nil
}

// ToMemory inflates a zlib stream read from r entirely into memory,
// pre-sizing the buffer to sizeHint when known (0 if not).
func ToMemory(r io.Reader, sizeHint int64) ([]byte, Result, error) {
	var buf bytes.Buffer
	if sizeHint > 0 {
		buf.Grow(int(sizeHint))
	}
	res, err := ToWriter(r, &buf)
	if err != nil {
		return nil, res, err
	}
	return buf.Bytes(), res, nil
}

// countingReader wraps an io.Reader and tracks the gross number of
// bytes pulled through Read, regardless of how much of that was later
// left unconsumed in a downstream buffer.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
