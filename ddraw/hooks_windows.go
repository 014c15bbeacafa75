//go:build windows
// +build windows

package ddraw

import (
	"sync"

	"golang.org/x/sys/windows"
)

type hookTarget struct {
	module string
	symbol string
	arity  int
}

var gdiHooks = []hookTarget{
	{ModuleGDI32, "GetDeviceCaps", 2},
	{ModuleUser32, "CreateWindowExA", 12},
	{ModuleUser32, "CreateWindowExW", 12},
	{ModuleUser32, "DestroyWindow", 1},
	{ModuleUser32, "GetSystemMetrics", 1},
}

var kernel32Hooks = []hookTarget{
	{ModuleKernel32, "GetDiskFreeSpaceA", 5},
	{ModuleKernel32, "CreateThread", 6},
	{ModuleKernel32, "CreateFileA", 7},
	{ModuleKernel32, "VirtualAlloc", 4},
	{ModuleKernel32, "HeapSize", 3},
}

var (
	hookTables = map[string]*SymbolTable{
		ModuleGDI32:    NewSymbolTable(ModuleGDI32, SystemLoader{}, nil),
		ModuleUser32:   NewSymbolTable(ModuleUser32, SystemLoader{}, nil),
		ModuleKernel32: NewSymbolTable(ModuleKernel32, SystemLoader{}, nil),
	}
	// windows.NewCallback slots are never freed, build each thunk once
	hookThunksMu sync.Mutex
	hookThunks   = make(map[string]uintptr)
)

// DefaultHooks returns the GDI, User32 and Kernel32 redirections enabled by
// cfg. Each replacement traces the call and forwards it to the original
// export, which import rebinding leaves reachable through GetProcAddress.
func DefaultHooks(cfg *Config) []HookSpec {
	var targets []hookTarget
	if cfg.HookGDI {
		targets = append(targets, gdiHooks...)
	}
	if cfg.HookKernel32 {
		targets = append(targets, kernel32Hooks...)
	}

	hookThunksMu.Lock()
	defer hookThunksMu.Unlock()

	specs := make([]HookSpec, 0, len(targets))
	for _, t := range targets {
		key := hookKey(t.module, t.symbol)
		th, ok := hookThunks[key]
		if !ok {
			th = newPassthroughThunk(hookTables[t.module].Proc(t.symbol), t.arity)
			hookThunks[key] = th
		}
		specs = append(specs, HookSpec{Module: t.module, Symbol: t.symbol, Replacement: th})
	}
	return specs
}

func forward(p *Proc, args ...uintptr) uintptr {
	logEntry(p.Name)
	r, err := p.Call(args...)
	if err != nil {
		return 0
	}
	return r
}

// newPassthroughThunk returns a stdcall callback of the given arity calling p.
func newPassthroughThunk(p *Proc, arity int) uintptr {
	switch arity {
	case 1:
		return windows.NewCallback(func(a1 uintptr) uintptr {
			return forward(p, a1)
		})
	case 2:
		return windows.NewCallback(func(a1, a2 uintptr) uintptr {
			return forward(p, a1, a2)
		})
	case 3:
		return windows.NewCallback(func(a1, a2, a3 uintptr) uintptr {
			return forward(p, a1, a2, a3)
		})
	case 4:
		return windows.NewCallback(func(a1, a2, a3, a4 uintptr) uintptr {
			return forward(p, a1, a2, a3, a4)
		})
	case 5:
		return windows.NewCallback(func(a1, a2, a3, a4, a5 uintptr) uintptr {
			return forward(p, a1, a2, a3, a4, a5)
		})
	case 6:
		return windows.NewCallback(func(a1, a2, a3, a4, a5, a6 uintptr) uintptr {
			return forward(p, a1, a2, a3, a4, a5, a6)
		})
	case 7:
		return windows.NewCallback(func(a1, a2, a3, a4, a5, a6, a7 uintptr) uintptr {
			return forward(p, a1, a2, a3, a4, a5, a6, a7)
		})
	case 12:
		return windows.NewCallback(func(a1, a2, a3, a4, a5, a6, a7, a8, a9, a10, a11, a12 uintptr) uintptr {
			return forward(p, a1, a2, a3, a4, a5, a6, a7, a8, a9, a10, a11, a12)
		})
	}
	panic("unsupported hook arity")
}
