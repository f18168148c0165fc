// Package loose reads loose objects: individual zlib-deflated files
// under objects/xx/yyyy..., named by the hex of their id's first byte
// and remaining 38 hex digits (spec.md §4.8).
package loose

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/kack1/got-portable/hash"
	"github.com/kack1/got-portable/internal/zbuf"
	"github.com/kack1/got-portable/objerr"
)

// Object is a fully inflated and header-parsed loose object.
type Object struct {
	Type    string
	Size    int64
	Content []byte
}

// LooseStore resolves and reads objects kept directly under an
// objects/ directory (as opposed to inside a pack).
type LooseStore struct {
	objectsDir string
}

// New returns a LooseStore rooted at objectsDir (a repository's
// "objects" directory).
func New(objectsDir string) *LooseStore {
	return &LooseStore{objectsDir: objectsDir}
}

// Path returns the on-disk path a loose object for id would have,
// whether or not it currently exists.
func (s *LooseStore) Path(id hash.HashId) string {
	h := id.String()
	return filepath.Join(s.objectsDir, h[:2], h[2:])
}

// Exists reports whether a loose object file for id is present.
func (s *LooseStore) Exists(id hash.HashId) bool {
	_, err := os.Stat(s.Path(id))
	return err == nil
}

// Open reads, inflates, and header-parses the loose object for id.
func (s *LooseStore) Open(id hash.HashId) (*Object, error) {
	path := s.Path(id)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, objerr.ErrObjectNotFound
		}
		return nil, err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	content, _, err := zbuf.ToMemory(br, 0)
	if err != nil {
		return nil, fmt.Errorf("loose: inflate %s: %w: %w", id, objerr.ErrBadPackFile, err)
	}

	typeName, size, body, err := parseHeader(content)
	if err != nil {
		return nil, fmt.Errorf("loose: parse header %s: %w", id, err)
	}

	return &Object{Type: typeName, Size: size, Content: body}, nil
}

// parseHeader splits a loose object's inflated bytes into its
// "<type> <size>\0" header and body, validating that size matches the
// body's actual length.
func parseHeader(raw []byte) (typeName string, size int64, body []byte, err error) {
	nul := bytes.IndexByte(raw, 0)
	if nul < 0 {
		return "", 0, nil, objerr.ErrBadPackFile
	}

	typeName, size, err = splitHeader(raw[:nul])
	if err != nil {
		return "", 0, nil, err
	}

	body = raw[nul+1:]
	if int64(len(body)) != size {
		return "", 0, nil, objerr.ErrBadPackFile
	}

	return typeName, size, body, nil
}

// splitHeader parses a loose object's "<type> <size>" header line
// (the bytes before the NUL terminator, already stripped).
func splitHeader(header []byte) (typeName string, size int64, err error) {
	sp := bytes.IndexByte(header, ' ')
	if sp < 0 {
		return "", 0, objerr.ErrBadPackFile
	}

	typeName = string(header[:sp])
	size, convErr := strconv.ParseInt(string(header[sp+1:]), 10, 64)
	if convErr != nil {
		return "", 0, fmt.Errorf("%w: %w", objerr.ErrBadPackFile, convErr)
	}
	return typeName, size, nil
}

// ExtractToFile inflates the loose object for id directly to destPath
// without holding its full body in memory: only the small
// "<type> <size>\0" header is buffered, and the body is forwarded to
// destPath as it streams out of the zlib reader. This is the loose
// half of Repository's extract_to_file surface (spec.md §4.5, §4.6).
func (s *LooseStore) ExtractToFile(id hash.HashId, destPath string) (typeName string, size int64, err error) {
	path := s.Path(id)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", 0, objerr.ErrObjectNotFound
		}
		return "", 0, err
	}
	defer f.Close()

	out, err := os.Create(destPath)
	if err != nil {
		return "", 0, err
	}
	defer out.Close()

	hw := &headerPeelingWriter{dest: out}
	br := bufio.NewReader(f)
	if _, err := zbuf.ToWriter(br, hw); err != nil {
		return "", 0, fmt.Errorf("loose: inflate %s: %w: %w", id, objerr.ErrBadPackFile, err)
	}
	if !hw.headerDone {
		return "", 0, fmt.Errorf("loose: parse header %s: %w", id, objerr.ErrBadPackFile)
	}
	return hw.typeName, hw.size, nil
}

// headerPeelingWriter buffers only up to and including the first NUL
// byte of a loose object's inflated stream (the end of its
// "<type> <size>\0" header), parses it once, then forwards every
// subsequent byte straight to dest untouched.
type headerPeelingWriter struct {
	dest       io.Writer
	buf        []byte
	headerDone bool
	typeName   string
	size       int64
}

func (h *headerPeelingWriter) Write(p []byte) (int, error) {
	if h.headerDone {
		return h.dest.Write(p)
	}

	h.buf = append(h.buf, p...)
	nul := bytes.IndexByte(h.buf, 0)
	if nul < 0 {
		// Still waiting on the header; nothing to forward yet.
		return len(p), nil
	}

	typeName, size, err := splitHeader(h.buf[:nul])
	if err != nil {
		return 0, err
	}
	h.typeName, h.size, h.headerDone = typeName, size, true

	if rest := h.buf[nul+1:]; len(rest) > 0 {
		if _, err := h.dest.Write(rest); err != nil {
			return 0, err
		}
	}
	h.buf = nil
	return len(p), nil
}
