package pack

import "io"

// readTypeAndSize decodes the first bytes of a pack object header: a
// 3-bit type code and a size, LSB-first within each byte and
// little-endian across bytes (spec.md §4.2, §6, §9). The first byte
// contributes 3 type bits and 4 low size bits; each continuation byte
// contributes 7 more size bits. The continuation flag is the top bit
// of every byte. headerLen is the number of bytes consumed, so the
// caller knows where the payload (or a delta's secondary header)
// begins.
func readTypeAndSize(r io.ByteReader) (typeCode byte, size uint64, headerLen int, err error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, 0, 0, err
	}
	headerLen = 1
	typeCode = (b >> 4) & 0x07
	size = uint64(b & 0x0f)
	shift := uint(4)

	for b&0x80 != 0 {
		b, err = r.ReadByte()
		if err != nil {
			return 0, 0, 0, err
		}
		headerLen++
		if headerLen > 10 {
			return 0, 0, 0, ErrOversizedHeader
		}
		size |= uint64(b&0x7f) << shift
		shift += 7
	}

	return typeCode, size, headerLen, nil
}

// readOfsDeltaOffset decodes the OFS_DELTA negative base offset
// encoding (spec.md §3, §6): each byte contributes 7 payload bits
// LSB-first; per the canonical git offset encoding, every
// continuation byte after the first adds 1<<(7*n) to account for the
// fact that small offsets can't be represented twice.
func readOfsDeltaOffset(r io.ByteReader) (negOffset uint64, headerLen int, err error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, 0, err
	}
	headerLen = 1
	negOffset = uint64(b & 0x7f)

	for b&0x80 != 0 {
		b, err = r.ReadByte()
		if err != nil {
			return 0, 0, err
		}
		headerLen++
		if headerLen > 10 {
			return 0, 0, ErrOversizedHeader
		}
		negOffset = ((negOffset + 1) << 7) | uint64(b&0x7f)
	}

	return negOffset, headerLen, nil
}

// readDeltaSize decodes a delta stream's base-size or result-size
// field: 7 bits per byte, LSB-first, little-endian across bytes, no
// offset-by-one adjustment (unlike the OFS_DELTA base offset above).
func readDeltaSize(r io.ByteReader) (size uint64, err error) {
	var shift uint
	for n := 0; ; n++ {
		if n > 10 {
			return 0, ErrOversizedHeader
		}
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		size |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return size, nil
		}
		shift += 7
	}
}
