//go:build windows && amd64
// +build windows,amd64

/*
Command ddraw builds the drop-in ddraw.dll.

	go build -buildmode=c-shared -ldflags "-extldflags=ddraw.def" -o ddraw.dll ./cmd/ddraw

ddraw.ini next to the DLL selects the mode and the compatibility switches,
the log is written to ddraw.log. cgo exports use the C calling convention,
which matches the stdcall signatures of the system DLL only on amd64, so the
command builds for windows/amd64 alone.
*/
package main

import "C"

import (
	"unsafe"

	"github.com/tekert/golang-ddraw/ddraw"
)

func guidArg(p uintptr) *ddraw.GUID { return (*ddraw.GUID)(unsafe.Pointer(p)) }
func outArg(p uintptr) *uintptr     { return (*uintptr)(unsafe.Pointer(p)) }

//export AcquireDDThreadLock
func AcquireDDThreadLock() (r uint32) {
	defer guard("AcquireDDThreadLock", &r)
	return uint32(getEngine().AcquireDDThreadLock())
}

//export CompleteCreateSysmemSurface
func CompleteCreateSysmemSurface(arg uint32) (r uint32) {
	defer guard("CompleteCreateSysmemSurface", &r)
	return getEngine().CompleteCreateSysmemSurface(arg)
}

//export D3DParseUnknownCommand
func D3DParseUnknownCommand(cmd, next uintptr) (r uint32) {
	defer guard("D3DParseUnknownCommand", &r)
	return uint32(getEngine().D3DParseUnknownCommand(unsafe.Pointer(cmd), (*unsafe.Pointer)(unsafe.Pointer(next))))
}

//export DDGetAttachedSurfaceLcl
func DDGetAttachedSurfaceLcl(arg1, arg2, arg3 uint32) (r uint32) {
	defer guard("DDGetAttachedSurfaceLcl", &r)
	return uint32(getEngine().DDGetAttachedSurfaceLcl(arg1, arg2, arg3))
}

//export DDInternalLock
func DDInternalLock(arg1, arg2 uint32) (r uint32) {
	defer guard("DDInternalLock", &r)
	return getEngine().DDInternalLock(arg1, arg2)
}

//export DDInternalUnlock
func DDInternalUnlock(arg uint32) (r uint32) {
	defer guard("DDInternalUnlock", &r)
	return getEngine().DDInternalUnlock(arg)
}

//export DSoundHelp
func DSoundHelp(arg1, arg2, arg3 uint32) (r uint32) {
	defer guard("DSoundHelp", &r)
	return uint32(getEngine().DSoundHelp(arg1, arg2, arg3))
}

//export DirectDrawCreate
func DirectDrawCreate(guid, out, outer uintptr) (r uint32) {
	defer guard("DirectDrawCreate", &r)
	return uint32(getEngine().DirectDrawCreate(guidArg(guid), outArg(out), outer))
}

//export DirectDrawCreateClipper
func DirectDrawCreateClipper(flags uint32, out, outer uintptr) (r uint32) {
	defer guard("DirectDrawCreateClipper", &r)
	return uint32(getEngine().DirectDrawCreateClipper(flags, outArg(out), outer))
}

//export DirectDrawCreateEx
func DirectDrawCreateEx(guid, out, riid, outer uintptr) (r uint32) {
	defer guard("DirectDrawCreateEx", &r)
	return uint32(getEngine().DirectDrawCreateEx(guidArg(guid), outArg(out), guidArg(riid), outer))
}

//export DirectDrawEnumerateA
func DirectDrawEnumerateA(fn, context uintptr) (r uint32) {
	defer guard("DirectDrawEnumerateA", &r)
	return uint32(getEngine().DirectDrawEnumerateA(fn, context))
}

//export DirectDrawEnumerateExA
func DirectDrawEnumerateExA(fn, context uintptr, flags uint32) (r uint32) {
	defer guard("DirectDrawEnumerateExA", &r)
	return uint32(getEngine().DirectDrawEnumerateExA(fn, context, flags))
}

//export DirectDrawEnumerateExW
func DirectDrawEnumerateExW(fn, context uintptr, flags uint32) (r uint32) {
	defer guard("DirectDrawEnumerateExW", &r)
	return uint32(getEngine().DirectDrawEnumerateExW(fn, context, flags))
}

//export DirectDrawEnumerateW
func DirectDrawEnumerateW(fn, context uintptr) (r uint32) {
	defer guard("DirectDrawEnumerateW", &r)
	return uint32(getEngine().DirectDrawEnumerateW(fn, context))
}

//export DllCanUnloadNow
func DllCanUnloadNow() (r uint32) {
	defer guard("DllCanUnloadNow", &r)
	return uint32(getEngine().DllCanUnloadNow())
}

//export DllGetClassObject
func DllGetClassObject(clsid, riid, ppv uintptr) (r uint32) {
	defer guard("DllGetClassObject", &r)
	return uint32(getEngine().DllGetClassObject(guidArg(clsid), guidArg(riid), outArg(ppv)))
}

//export GetDDSurfaceLocal
func GetDDSurfaceLocal(arg1, arg2, arg3 uint32) (r uint32) {
	defer guard("GetDDSurfaceLocal", &r)
	return uint32(getEngine().GetDDSurfaceLocal(arg1, arg2, arg3))
}

//export GetOLEThunkData
func GetOLEThunkData(index uint32) (r uint32) {
	defer guard("GetOLEThunkData", &r)
	return getEngine().GetOLEThunkData(index)
}

//export GetSurfaceFromDC
func GetSurfaceFromDC(hdc, surface uintptr, arg uint32) (r uint32) {
	defer guard("GetSurfaceFromDC", &r)
	return uint32(getEngine().GetSurfaceFromDC(hdc, outArg(surface), arg))
}

//export RegisterSpecialCase
func RegisterSpecialCase(arg1, arg2, arg3, arg4 uint32) (r uint32) {
	defer guard("RegisterSpecialCase", &r)
	return uint32(getEngine().RegisterSpecialCase(arg1, arg2, arg3, arg4))
}

//export ReleaseDDThreadLock
func ReleaseDDThreadLock() (r uint32) {
	defer guard("ReleaseDDThreadLock", &r)
	return uint32(getEngine().ReleaseDDThreadLock())
}

//export SetAppCompatData
func SetAppCompatData(typ, value uint32) (r uint32) {
	defer guard("SetAppCompatData", &r)
	return uint32(getEngine().SetAppCompatData(typ, value))
}

func main() {}
