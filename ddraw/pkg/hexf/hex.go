// Package hexf holds the small hex formatters used on logging and GUID paths.
// They avoid the two allocations of encoding/hex + string concatenation.
package hexf

import (
	"unsafe"
)

var hextableUpper = [16]byte{'0', '1', '2', '3', '4', '5', '6', '7', '8', '9', 'A', 'B', 'C', 'D', 'E', 'F'}
var hextableLower = [16]byte{'0', '1', '2', '3', '4', '5', '6', '7', '8', '9', 'a', 'b', 'c', 'd', 'e', 'f'}

// EncodeU writes the UPPERCASE hex form of src into dst and returns the
// number of bytes written (always 2*len(src)). dst must be large enough.
func EncodeU(dst, src []byte) int {
	return encode(dst, src, &hextableUpper)
}

// Encode is the lowercase variant of [EncodeU].
func Encode(dst, src []byte) int {
	return encode(dst, src, &hextableLower)
}

func encode(dst, src []byte, hexTable *[16]byte) int {
	j := 0
	for _, v := range src {
		dst[j] = hexTable[v>>4]
		dst[j+1] = hexTable[v&0x0f]
		j += 2
	}
	return len(src) * 2
}

// EncodeToStringUPrefix returns "0x" followed by the UPPERCASE hex of src.
func EncodeToStringUPrefix(src []byte) string {
	dst := make([]byte, 2+len(src)*2)
	dst[0] = '0'
	dst[1] = 'x'
	EncodeU(dst[2:], src)
	return unsafe.String(unsafe.SliceData(dst), len(dst))
}

// NUm32 formats n as 0xXXXXXXXX (always 8 digits).
func NUm32[T ~uint32 | ~int32](n T) string {
	v := uint32(n)
	return EncodeToStringUPrefix([]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)})
}

// NUm8 formats n as 0xXX.
func NUm8[T ~uint8](n T) string {
	return EncodeToStringUPrefix([]byte{byte(n)})
}

// Ptr formats an address with leading zeros trimmed, e.g. 0x7FF6A0B1C000.
func Ptr(p uintptr) string {
	var raw [8]byte
	for i := 0; i < 8; i++ {
		raw[7-i] = byte(uint64(p) >> (8 * i))
	}
	var full [16]byte
	EncodeU(full[:], raw[:])
	i := 0
	for i < len(full)-1 && full[i] == '0' {
		i++
	}
	dst := make([]byte, 0, 2+len(full)-i)
	dst = append(dst, '0', 'x')
	dst = append(dst, full[i:]...)
	return unsafe.String(unsafe.SliceData(dst), len(dst))
}
