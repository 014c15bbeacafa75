//go:build windows
// +build windows

package ddraw

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/windows"
)

// selfAnchor lives in our own image, it identifies the module to skip.
var selfAnchor byte

func selfModule() (windows.Handle, error) {
	var self windows.Handle
	if err := windows.GetModuleHandleEx(
		windows.GET_MODULE_HANDLE_EX_FLAG_FROM_ADDRESS|windows.GET_MODULE_HANDLE_EX_FLAG_UNCHANGED_REFCOUNT,
		(*uint16)(unsafe.Pointer(&selfAnchor)), &self); err != nil {
		return 0, fmt.Errorf("own module handle: %w", err)
	}
	return self, nil
}

// SelfModulePath returns the path of the image the engine is linked into.
func SelfModulePath() (string, error) {
	self, err := selfModule()
	if err != nil {
		return "", err
	}
	return moduleFileName(self)
}

func moduleFileName(m windows.Handle) (string, error) {
	buf := make([]uint16, windows.MAX_LONG_PATH)
	n, err := windows.GetModuleFileName(m, &buf[0], uint32(len(buf)))
	if err != nil {
		return "", fmt.Errorf("module path: %w", err)
	}
	return windows.UTF16ToString(buf[:n]), nil
}

// moduleImage returns where m is mapped.
func moduleImage(m windows.Handle) (base, size uintptr, err error) {
	var mi windows.ModuleInfo
	if err := windows.GetModuleInformation(windows.CurrentProcess(), m, &mi, uint32(unsafe.Sizeof(mi))); err != nil {
		return 0, 0, fmt.Errorf("GetModuleInformation: %w", err)
	}
	return mi.BaseOfDll, uintptr(mi.SizeOfImage), nil
}

// IATPatcher rebinds import slots: every loaded module that imports the
// target has its slot pointed at the replacement, except the engine itself
// and the system images under the Windows directory.
// Calls through GetProcAddress are not redirected.
type IATPatcher struct{}

// Patch implements Patcher.
func (IATPatcher) Patch(module, symbol string, replacement uintptr) (uintptr, error) {
	h, err := loadedOrLoad(module)
	if err != nil {
		return 0, fmt.Errorf("load %s: %w", module, err)
	}
	orig, err := windows.GetProcAddress(h, symbol)
	if err != nil || orig == 0 {
		return 0, fmt.Errorf("%s!%s: %w", module, symbol, ErrHookTarget)
	}

	self, err := selfModule()
	if err != nil {
		return 0, err
	}

	mods, err := processModules()
	if err != nil {
		return 0, err
	}
	// images under the Windows directory are left alone
	windir, _ := windows.GetWindowsDirectory()

	patched := 0
	for _, m := range mods {
		if m == self {
			continue
		}
		if path, err := moduleFileName(m); err != nil || underDir(path, windir) {
			continue
		}
		base, size, err := moduleImage(m)
		if err != nil {
			LogTrace("skipping module imports", "module", uintptr(m), "error", err)
			continue
		}
		n, err := rebindImports(base, size, orig, replacement)
		if err != nil {
			LogTrace("skipping module imports", "module", uintptr(m), "error", err)
		}
		patched += n
	}
	LogTrace("rebound import slots", "module", module, "symbol", symbol, "slots", patched)
	return orig, nil
}

func loadedOrLoad(module string) (windows.Handle, error) {
	var h windows.Handle
	name, err := windows.UTF16PtrFromString(module)
	if err != nil {
		return 0, err
	}
	if err := windows.GetModuleHandleEx(windows.GET_MODULE_HANDLE_EX_FLAG_UNCHANGED_REFCOUNT, name, &h); err == nil {
		return h, nil
	}
	return windows.LoadLibraryEx(module, 0, windows.LOAD_LIBRARY_SEARCH_SYSTEM32)
}

func processModules() ([]windows.Handle, error) {
	proc := windows.CurrentProcess()
	mods := make([]windows.Handle, 256)
	for {
		var needed uint32
		size := uint32(len(mods)) * uint32(unsafe.Sizeof(mods[0]))
		if err := windows.EnumProcessModules(proc, &mods[0], size, &needed); err != nil {
			return nil, fmt.Errorf("EnumProcessModules: %w", err)
		}
		if needed <= size {
			return mods[:needed/uint32(unsafe.Sizeof(mods[0]))], nil
		}
		mods = make([]windows.Handle, needed/uint32(unsafe.Sizeof(mods[0]))+16)
	}
}

// rebindImports points every import slot of the image mapped at base that
// currently holds orig to replacement, and returns how many were rebound.
func rebindImports(base, size, orig, replacement uintptr) (int, error) {
	f, err := openMappedImage(unsafe.Slice((*byte)(unsafe.Pointer(base)), size))
	if err != nil {
		return 0, err
	}
	thunks, err := importThunks(f)
	if err != nil {
		return 0, err
	}

	n := 0
	slotSize := unsafe.Sizeof(uintptr(0))
	for _, rva := range thunks {
		for slot := base + uintptr(rva); slot+slotSize <= base+size; slot += slotSize {
			p := (*uintptr)(unsafe.Pointer(slot))
			v := atomic.LoadUintptr(p)
			if v == 0 {
				break
			}
			if v != orig {
				continue
			}
			if err := storeSlot(p, replacement); err != nil {
				return n, err
			}
			n++
		}
	}
	return n, nil
}

func storeSlot(p *uintptr, v uintptr) error {
	var old uint32
	addr := uintptr(unsafe.Pointer(p))
	size := unsafe.Sizeof(v)
	if err := windows.VirtualProtect(addr, size, windows.PAGE_READWRITE, &old); err != nil {
		return fmt.Errorf("VirtualProtect: %w", err)
	}
	atomic.StoreUintptr(p, v)
	return windows.VirtualProtect(addr, size, old, &old)
}
