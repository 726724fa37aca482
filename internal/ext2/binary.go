package ext2

import "encoding/binary"

// All multi-byte on-disk fields are little-endian unsigned integers at
// fixed byte offsets. Decoders guard the full structure extent once via
// checkLen, after which the offset accessors below are in bounds.

// checkLen returns ErrStructTooShort if b holds fewer than n bytes
func checkLen(b []byte, n int) error {
	if len(b) < n {
		return ErrStructTooShort
	}
	return nil
}

// u16 reads a little-endian uint16 at the given offset
func u16(b []byte, off int) uint16 {
	return binary.LittleEndian.Uint16(b[off:])
}

// u32 reads a little-endian uint32 at the given offset
func u32(b []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(b[off:])
}

// u32Array reads count little-endian uint32 values starting at off
func u32Array(b []byte, off, count int) []uint32 {
	out := make([]uint32, count)
	for i := 0; i < count; i++ {
		out[i] = u32(b, off+4*i)
	}
	return out
}

// dup copies n bytes at off into a fresh slice, detaching it from the
// source buffer
func dup(b []byte, off, n int) []byte {
	out := make([]byte, n)
	copy(out, b[off:off+n])
	return out
}
