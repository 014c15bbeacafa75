//go:build !windows
// +build !windows

package ddraw

// Native entry points only exist on Windows, elsewhere the resolver is only
// driven by injected Callers.
func defaultCaller(addr uintptr, args ...uintptr) uintptr {
	return uintptr(uint32(DDERR_UNSUPPORTED))
}
