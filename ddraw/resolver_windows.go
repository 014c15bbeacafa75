//go:build windows
// +build windows

package ddraw

import (
	"path/filepath"
	"syscall"

	"golang.org/x/sys/windows"
)

func defaultCaller(addr uintptr, args ...uintptr) uintptr {
	r1, _, _ := syscall.SyscallN(addr, args...)
	return r1
}

// SystemLoader loads modules from the system directory only. The engine is
// usually itself named ddraw.dll, so a plain search path lookup would find us.
type SystemLoader struct{}

type systemModule struct {
	handle windows.Handle
}

// Load implements Loader.
func (SystemLoader) Load(module string) (Module, error) {
	dir, err := windows.GetSystemDirectory()
	if err != nil {
		return nil, err
	}
	h, err := windows.LoadLibraryEx(filepath.Join(dir, module), 0, windows.LOAD_LIBRARY_SEARCH_SYSTEM32)
	if err != nil {
		return nil, err
	}
	return &systemModule{handle: h}, nil
}

// FindProc implements Module.
func (m *systemModule) FindProc(name string) (uintptr, error) {
	return windows.GetProcAddress(m.handle, name)
}
