package ddraw

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/tekert/golang-ddraw/ddraw/pkg/hexf"
)

var (
	nullGUID = GUID{}
)

/*
typedef struct _GUID {
	DWORD Data1;
	WORD Data2;
	WORD Data3;
	BYTE Data4[8];
} GUID;
*/

// GUID structure, layout compatible with the Win32 GUID so a *GUID can be
// handed to native code as is.
// Example: {15E65EC0-3B9C-11D2-B92F-00609797EA5B} =
// GUID(0x15e65ec0, 0x3b9c, 0x11d2, [8]byte{0xb9, 0x2f, 0x00, 0x60, 0x97, 0x97, 0xea, 0x5b})
type GUID struct {
	Data1 uint32
	Data2 uint16
	Data3 uint16
	Data4 [8]byte
}

// DirectDraw interface and class identifiers
var (
	IID_IUnknown = GUID{ /* {00000000-0000-0000-C000-000000000046} */
		Data1: 0x00000000, Data2: 0x0000, Data3: 0x0000,
		Data4: [8]byte{0xc0, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x46},
	}
	IID_IClassFactory = GUID{ /* {00000001-0000-0000-C000-000000000046} */
		Data1: 0x00000001, Data2: 0x0000, Data3: 0x0000,
		Data4: [8]byte{0xc0, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x46},
	}
	IID_IDirectDraw = GUID{ /* {6C14DB80-A733-11CE-A521-0020AF0BE560} */
		Data1: 0x6c14db80, Data2: 0xa733, Data3: 0x11ce,
		Data4: [8]byte{0xa5, 0x21, 0x00, 0x20, 0xaf, 0x0b, 0xe5, 0x60},
	}
	IID_IDirectDraw2 = GUID{ /* {B3A6F3E0-2B43-11CF-A2DE-00AA00B93356} */
		Data1: 0xb3a6f3e0, Data2: 0x2b43, Data3: 0x11cf,
		Data4: [8]byte{0xa2, 0xde, 0x00, 0xaa, 0x00, 0xb9, 0x33, 0x56},
	}
	IID_IDirectDraw4 = GUID{ /* {9C59509A-39BD-11D1-8C4A-00C04FD930C5} */
		Data1: 0x9c59509a, Data2: 0x39bd, Data3: 0x11d1,
		Data4: [8]byte{0x8c, 0x4a, 0x00, 0xc0, 0x4f, 0xd9, 0x30, 0xc5},
	}
	IID_IDirectDraw7 = GUID{ /* {15E65EC0-3B9C-11D2-B92F-00609797EA5B} */
		Data1: 0x15e65ec0, Data2: 0x3b9c, Data3: 0x11d2,
		Data4: [8]byte{0xb9, 0x2f, 0x00, 0x60, 0x97, 0x97, 0xea, 0x5b},
	}
	IID_IDirectDrawClipper = GUID{ /* {6C14DB85-A733-11CE-A521-0020AF0BE560} */
		Data1: 0x6c14db85, Data2: 0xa733, Data3: 0x11ce,
		Data4: [8]byte{0xa5, 0x21, 0x00, 0x20, 0xaf, 0x0b, 0xe5, 0x60},
	}

	CLSID_DirectDraw = GUID{ /* {D7B70EE0-4340-11CF-B063-0020AFC2CD35} */
		Data1: 0xd7b70ee0, Data2: 0x4340, Data3: 0x11cf,
		Data4: [8]byte{0xb0, 0x63, 0x00, 0x20, 0xaf, 0xc2, 0xcd, 0x35},
	}
	CLSID_DirectDraw7 = GUID{ /* {3C305196-50DB-11D3-9CFE-00C04FD930C5} */
		Data1: 0x3c305196, Data2: 0x50db, Data3: 0x11d3,
		Data4: [8]byte{0x9c, 0xfe, 0x00, 0xc0, 0x4f, 0xd9, 0x30, 0xc5},
	}
	CLSID_DirectDrawClipper = GUID{ /* {593817A0-7DB3-11CF-A2DE-00AA00B93356} */
		Data1: 0x593817a0, Data2: 0x7db3, Data3: 0x11cf,
		Data4: [8]byte{0xa2, 0xde, 0x00, 0xaa, 0x00, 0xb9, 0x33, 0x56},
	}
)

// GUIDVersion returns the IDirectDraw interface version named by riid,
// 0 if riid is not an IDirectDraw interface.
func GUIDVersion(riid *GUID) InterfaceVersion {
	if riid == nil {
		return 0
	}
	switch *riid {
	case IID_IDirectDraw:
		return Version1
	case IID_IDirectDraw2:
		return Version2
	case IID_IDirectDraw4:
		return Version4
	case IID_IDirectDraw7:
		return Version7
	}
	return 0
}

// IsZero checks if GUID is all zeros
func (g *GUID) IsZero() bool {
	return g.Equals(&nullGUID)
}

// String returns the UPPERCASE registry form, {XXXXXXXX-XXXX-XXXX-XXXX-XXXXXXXXXXXX}
func (g *GUID) String() string {
	return g.format(hexf.EncodeU)
}

// StringL is the lowercase variant of String.
func (g *GUID) StringL() string {
	return g.format(hexf.Encode)
}

func (g *GUID) format(enc func(dst, src []byte) int) string {
	var b [38]byte
	b[0] = '{'
	b[37] = '}'

	d1 := [4]byte{byte(g.Data1 >> 24), byte(g.Data1 >> 16), byte(g.Data1 >> 8), byte(g.Data1)}
	d2 := [2]byte{byte(g.Data2 >> 8), byte(g.Data2)}
	d3 := [2]byte{byte(g.Data3 >> 8), byte(g.Data3)}

	enc(b[1:9], d1[:])
	b[9] = '-'
	enc(b[10:14], d2[:])
	b[14] = '-'
	enc(b[15:19], d3[:])
	b[19] = '-'
	enc(b[20:24], g.Data4[:2])
	b[24] = '-'
	enc(b[25:37], g.Data4[2:])

	return string(b[:])
}

func (g *GUID) Equals(other *GUID) bool {
	return *g == *other
}

var (
	guidRE = regexp.MustCompile(`^\{?[A-F0-9]{8}-[A-F0-9]{4}-[A-F0-9]{4}-[A-F0-9]{4}-[A-F0-9]{12}\}?$`)
)

// MustParseGUID parses a guid string into a GUID struct or panics
func MustParseGUID(sguid string) (guid *GUID) {
	var err error
	if guid, err = ParseGUID(sguid); err != nil {
		panic(err)
	}
	return
}

// ParseGUID parses a guid string, with or without curly brackets, into a GUID
func ParseGUID(guid string) (g *GUID, err error) {
	var u uint64

	g = &GUID{}
	guid = strings.ToUpper(guid)
	if !guidRE.MatchString(guid) {
		return nil, fmt.Errorf("bad GUID format: %q", guid)
	}
	guid = strings.Trim(guid, "{}")
	sp := strings.Split(guid, "-")

	if u, err = strconv.ParseUint(sp[0], 16, 32); err != nil {
		return
	}
	g.Data1 = uint32(u)
	if u, err = strconv.ParseUint(sp[1], 16, 16); err != nil {
		return
	}
	g.Data2 = uint16(u)
	if u, err = strconv.ParseUint(sp[2], 16, 16); err != nil {
		return
	}
	g.Data3 = uint16(u)
	if u, err = strconv.ParseUint(sp[3], 16, 16); err != nil {
		return
	}
	g.Data4[0] = uint8(u >> 8)
	g.Data4[1] = uint8(u & 0xff)
	if u, err = strconv.ParseUint(sp[4], 16, 64); err != nil {
		return
	}
	for i := 0; i < 6; i++ {
		g.Data4[2+i] = uint8(u >> (40 - 8*i))
	}

	return
}
