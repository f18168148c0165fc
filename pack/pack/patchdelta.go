package pack

import "bytes"

// maxCopySize is substituted whenever a copy instruction's size bytes
// are all absent: git's delta format omits trailing zero bytes from
// both the offset and size fields, and a size of zero (all size bytes
// absent) stands for 0x10000 (spec.md §4.4).
const maxCopySize = 0x10000

// ApplyDelta reconstructs an object by applying a delta instruction
// stream (spec.md §4.4) to base. It is grounded closely on go-git's
// patch_delta.go copy/insert command decoding, adapted to work
// against an in-memory base rather than only a disk_object.
func ApplyDelta(base, delta []byte) ([]byte, error) {
	r := bytes.NewReader(delta)

	baseSize, err := readDeltaSize(r)
	if err != nil {
		return nil, ErrInvalidDelta
	}
	if baseSize != uint64(len(base)) {
		return nil, ErrInvalidDelta
	}

	resultSize, err := readDeltaSize(r)
	if err != nil {
		return nil, ErrInvalidDelta
	}

	out := make([]byte, 0, resultSize)

	for r.Len() > 0 {
		cmd, err := r.ReadByte()
		if err != nil {
			return nil, ErrInvalidDelta
		}

		switch {
		case cmd&0x80 != 0:
			// Copy from base: up to 4 offset bytes (bit 0-3 select
			// which bytes are present, little-endian), then up to 3
			// size bytes (bit 4-6), each present only if its bit is
			// set.
			var offset, size uint32
			for i := uint(0); i < 4; i++ {
				if cmd&(1<<i) != 0 {
					b, err := r.ReadByte()
					if err != nil {
						return nil, ErrInvalidDelta
					}
					offset |= uint32(b) << (8 * i)
				}
			}
			for i := uint(0); i < 3; i++ {
				if cmd&(1<<(4+i)) != 0 {
					b, err := r.ReadByte()
					if err != nil {
						return nil, ErrInvalidDelta
					}
					size |= uint32(b) << (8 * i)
				}
			}
			if size == 0 {
				size = maxCopySize
			}

			start := uint64(offset)
			end := start + uint64(size)
			if end < start || end > uint64(len(base)) {
				return nil, ErrInvalidDelta
			}
			out = append(out, base[start:end]...)

		case cmd != 0:
			// Insert literal: the low 7 bits are the byte count.
			n := int(cmd & 0x7f)
			buf := make([]byte, n)
			if _, err := readFull(r, buf); err != nil {
				return nil, ErrInvalidDelta
			}
			out = append(out, buf...)

		default:
			// Command byte 0 is reserved and never valid.
			return nil, ErrInvalidDelta
		}
	}

	if uint64(len(out)) != resultSize {
		return nil, ErrInvalidDelta
	}
	return out, nil
}

func readFull(r *bytes.Reader, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := r.Read(buf[n:])
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}
