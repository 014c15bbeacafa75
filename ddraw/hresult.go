package ddraw

import (
	"errors"

	"github.com/tekert/golang-ddraw/ddraw/pkg/hexf"
)

// HRESULT is the legacy status code returned by every DirectDraw export.
// It implements error so internal paths can return it directly, the same way
// syscall.Errno is used for Win32 codes.
type HRESULT int32

// MAKE_DDHRESULT(code) = MAKE_HRESULT(1, FACILITY_DD(0x876), code)
func makeDDHResult(code uint32) HRESULT {
	return HRESULT(int32(0x88760000 | code))
}

const (
	DD_OK = HRESULT(0)
	S_OK  = DD_OK

	DDENUMRET_CANCEL = 0
	DDENUMRET_OK     = 1

	D3DADAPTER_DEFAULT = 0
	D3D_SDK_VERSION    = 32
)

var (
	E_NOTIMPL    = HRESULT(int32(-0x7fffbfff)) // 0x80004001
	E_POINTER    = HRESULT(int32(-0x7fffbffd)) // 0x80004003
	E_FAIL       = HRESULT(int32(-0x7fffbffb)) // 0x80004005
	E_INVALIDARG = HRESULT(int32(-0x7ff8ffa9)) // 0x80070057

	DDERR_GENERIC           = E_FAIL
	DDERR_UNSUPPORTED       = E_NOTIMPL
	DDERR_INVALIDPARAMS     = E_INVALIDARG
	DDERR_NOTLOCKED         = makeDDHResult(584)
	D3DERR_COMMAND_UNPARSED = makeDDHResult(3000)
)

// Sentinel errors used inside the engine, each one maps 1:1 to the status
// returned across the export boundary.
var (
	ErrGeneric       error = DDERR_GENERIC
	ErrUnsupported   error = DDERR_UNSUPPORTED
	ErrInvalidParams error = DDERR_INVALIDPARAMS
	ErrNotParsed     error = D3DERR_COMMAND_UNPARSED
	ErrPointer       error = E_POINTER
	ErrNotLocked     error = DDERR_NOTLOCKED
)

var hresultNames = map[HRESULT]string{
	DD_OK:                   "DD_OK",
	DDERR_GENERIC:           "DDERR_GENERIC",
	DDERR_UNSUPPORTED:       "DDERR_UNSUPPORTED",
	DDERR_INVALIDPARAMS:     "DDERR_INVALIDPARAMS",
	DDERR_NOTLOCKED:         "DDERR_NOTLOCKED",
	D3DERR_COMMAND_UNPARSED: "D3DERR_COMMAND_UNPARSED",
	E_POINTER:               "E_POINTER",
}

// Succeeded mirrors the SUCCEEDED macro.
func (h HRESULT) Succeeded() bool {
	return h >= 0
}

// Failed mirrors the FAILED macro.
func (h HRESULT) Failed() bool {
	return h < 0
}

// Error implements error. Known codes print their symbolic name, anything else
// prints as 0xXXXXXXXX.
func (h HRESULT) Error() string {
	if s, ok := hresultNames[h]; ok {
		return s
	}
	v := uint32(h)
	return hexf.EncodeToStringUPrefix([]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)})
}

func (h HRESULT) String() string {
	return h.Error()
}

// ToHRESULT maps any error returned by the engine to the legacy vocabulary.
// A nil error is DD_OK, unknown errors become DDERR_GENERIC.
func ToHRESULT(err error) HRESULT {
	if err == nil {
		return DD_OK
	}
	var hr HRESULT
	if errors.As(err, &hr) {
		return hr
	}
	return DDERR_GENERIC
}
