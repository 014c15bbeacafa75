// Package utf16f converts the narrow strings handed out by Direct3D into the
// fixed-size, NUL terminated UTF-16 buffers the wide DirectDraw callbacks expect.
package utf16f

import (
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// FromANSI decodes bytes in the Windows ANSI code page (1252) into a Go string.
// A NUL byte terminates the input, like every C string it came from.
func FromANSI(b []byte) string {
	for i, c := range b {
		if c == 0 {
			b = b[:i]
			break
		}
	}
	// ASCII is the common case for adapter names, skip the decoder.
	ascii := true
	for _, c := range b {
		if c >= utf8.RuneSelf {
			ascii = false
			break
		}
	}
	if ascii {
		return string(b)
	}
	s, err := charmap.Windows1252.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(s)
}

// EncodeInto writes s as UTF-16 into dst, truncating so that a terminating NUL
// always fits, and zero fills the remainder. It returns the number of code
// units written before the terminator. A surrogate pair is never split.
func EncodeInto(dst []uint16, s string) int {
	if len(dst) == 0 {
		return 0
	}
	n := 0
	limit := len(dst) - 1
	for _, r := range s {
		if r == 0 {
			break
		}
		if r >= 0x10000 {
			if n+2 > limit {
				break
			}
			r1, r2 := utf16.EncodeRune(r)
			dst[n], dst[n+1] = uint16(r1), uint16(r2)
			n += 2
			continue
		}
		if n+1 > limit {
			break
		}
		dst[n] = uint16(r)
		n++
	}
	clear(dst[n:])
	return n
}

// ANSIInto is FromANSI followed by EncodeInto, the mbstowcs step of the wide
// enumeration callbacks.
func ANSIInto(dst []uint16, b []byte) int {
	return EncodeInto(dst, FromANSI(b))
}

// Decode returns the Go string held in a NUL terminated UTF-16 buffer.
func Decode(src []uint16) string {
	for i, v := range src {
		if v == 0 {
			src = src[:i]
			break
		}
	}
	return string(utf16.Decode(src))
}
