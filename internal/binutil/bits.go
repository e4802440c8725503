// Package binutil holds the low-level helpers shared by the container readers:
// byte order and syncsafe integer decoding, bounds-checked reads over files and
// byte slices, and overflow-safe arithmetic for duration math.
package binutil

import (
	"encoding/binary"
	"math/bits"
)

// HostLittleEndian reports whether the running platform stores words little-endian.
var HostLittleEndian = binary.NativeEndian.Uint16([]byte{1, 0}) == 1

// ReverseBytes32 swaps the byte order of a 32-bit word.
func ReverseBytes32(x uint32) uint32 {
	return (x&0x000000FF)<<24 |
		(x&0x0000FF00)<<8 |
		(x&0x00FF0000)>>8 |
		(x&0xFF000000)>>24
}

// BigEndianWord reads the first four bytes of b as a native word and converts
// it from the on-disk big-endian order.
func BigEndianWord(b []byte) uint32 {
	w := binary.NativeEndian.Uint32(b)
	if HostLittleEndian {
		w = ReverseBytes32(w)
	}
	return w
}

// Syncsafe32 decodes a big-endian syncsafe integer: only the low 7 bits of
// each byte carry data.
func Syncsafe32(x uint32) uint32 {
	return (x&0x7F000000)>>3 |
		(x&0x007F0000)>>2 |
		(x&0x00007F00)>>1 |
		x&0x0000007F
}

// EncodeSyncsafe32 packs x (at most 28 bits) into the syncsafe layout.
func EncodeSyncsafe32(x uint32) uint32 {
	x &= 0x0FFFFFFF
	return (x&0x0FE00000)<<3 |
		(x&0x001FC000)<<2 |
		(x&0x00003F80)<<1 |
		x&0x0000007F
}

// SyncsafeNoBitDiscard reassembles a big-endian word without dropping the top
// bit of each byte. ID3v2.3 frame sizes are stored this way.
func SyncsafeNoBitDiscard(x uint32) uint32 {
	return x
}

// Syncsafe32Bytes decodes the syncsafe integer stored in b[0:4].
func Syncsafe32Bytes(b []byte) uint32 {
	return Syncsafe32(binary.BigEndian.Uint32(b))
}

// MulDiv returns a*b/c computed with a 128-bit intermediate product. ok is
// false when c is zero or the quotient does not fit in 64 bits.
func MulDiv(a, b, c uint64) (q uint64, ok bool) {
	if c == 0 {
		return 0, false
	}
	hi, lo := bits.Mul64(a, b)
	if hi >= c {
		return 0, false
	}
	q, _ = bits.Div64(hi, lo, c)
	return q, true
}
