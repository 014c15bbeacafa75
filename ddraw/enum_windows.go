//go:build windows
// +build windows

package ddraw

import (
	"runtime"
	"syscall"
	"unsafe"
)

// NativeEnumCallback is an application LPDDENUMCALLBACK* of the given type.
type NativeEnumCallback struct {
	Fn      uintptr
	Context uintptr
	Type    EnumType
}

// NewNativeEnumCallback returns nil for a nil function pointer, so the
// enumerator reports invalid parameters.
func NewNativeEnumCallback(fn, context uintptr, typ EnumType) EnumCallback {
	if fn == 0 {
		return nil
	}
	return &NativeEnumCallback{Fn: fn, Context: context, Type: typ}
}

func cstringz(s string) []byte {
	b := make([]byte, len(s)+1)
	copy(b, s)
	return b
}

// Invoke implements EnumCallback.
func (c *NativeEnumCallback) Invoke(d *EnumDevice) bool {
	var desc, name uintptr
	var nDesc, nName []byte
	if c.Type.Wide() {
		desc = uintptr(unsafe.Pointer(&d.WDescription[0]))
		name = uintptr(unsafe.Pointer(&d.WName[0]))
	} else {
		nDesc, nName = cstringz(d.Description), cstringz(d.Name)
		desc = uintptr(unsafe.Pointer(&nDesc[0]))
		name = uintptr(unsafe.Pointer(&nName[0]))
	}

	args := []uintptr{uintptr(unsafe.Pointer(d.GUID)), desc, name, c.Context}
	if c.Type.Extended() {
		args = append(args, d.Monitor)
	}
	r1, _, _ := syscall.SyscallN(c.Fn, args...)

	runtime.KeepAlive(d)
	runtime.KeepAlive(nDesc)
	runtime.KeepAlive(nName)
	return int32(uint32(r1)) != DDENUMRET_CANCEL
}
