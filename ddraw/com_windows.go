//go:build windows
// +build windows

package ddraw

import (
	"syscall"
	"unsafe"
)

// IUnknown vtable slots
const (
	vtblQueryInterface = 0
	vtblAddRef         = 1
	vtblRelease        = 2
)

// vtblMethod returns the address of method i of the COM object at obj.
func vtblMethod(obj uintptr, i int) uintptr {
	vtbl := *(*uintptr)(unsafe.Pointer(obj))
	return *(*uintptr)(unsafe.Pointer(vtbl + uintptr(i)*unsafe.Sizeof(uintptr(0))))
}

// comCall invokes method i of obj with obj as the this pointer.
func comCall(obj uintptr, i int, args ...uintptr) uintptr {
	r1, _, _ := syscall.SyscallN(vtblMethod(obj, i), append([]uintptr{obj}, args...)...)
	return r1
}

// comUnknown is a native COM object.
type comUnknown uintptr

// NativeUnknown wraps a raw interface pointer. It does not add a reference.
func NativeUnknown(p uintptr) Unknown {
	if p == 0 {
		return nil
	}
	return comUnknown(p)
}

func (u comUnknown) AddRef() uint32   { return uint32(comCall(uintptr(u), vtblAddRef)) }
func (u comUnknown) Release() uint32  { return uint32(comCall(uintptr(u), vtblRelease)) }
func (u comUnknown) Pointer() uintptr { return uintptr(u) }

// QueryInterface asks the object for riid and returns the new reference.
func (u comUnknown) QueryInterface(riid *GUID) (uintptr, error) {
	var out uintptr
	hr := HRESULT(int32(uint32(comCall(uintptr(u), vtblQueryInterface,
		uintptr(unsafe.Pointer(riid)), uintptr(unsafe.Pointer(&out))))))
	if hr.Failed() {
		return 0, hr
	}
	return out, nil
}
