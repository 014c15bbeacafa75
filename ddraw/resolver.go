package ddraw

import (
	"errors"
	"fmt"
	"sync"

	"github.com/tekert/golang-ddraw/ddraw/pkg/hexf"
)

var (
	ErrModuleNotLoaded = errors.New("module could not be loaded")
	ErrSymbolNotFound  = errors.New("symbol not found")
)

// Loader loads a system module. Production code loads from the system
// directory, tests inject fakes.
type Loader interface {
	Load(module string) (Module, error)
}

// Module is a loaded image that can resolve exported symbols.
type Module interface {
	FindProc(name string) (uintptr, error)
}

// Caller invokes a native function pointer with the platform calling
// convention and returns its first result register.
type Caller func(addr uintptr, args ...uintptr) uintptr

// SymbolTable lazily loads one system module and caches its exports for the
// lifetime of the process. The module is loaded at most once: a failed load is
// remembered and never retried, so every symbol of that table degrades to
// unsupported without further loader traffic.
type SymbolTable struct {
	module string
	loader Loader
	call   Caller

	loadOnce sync.Once
	mod      Module
	loadErr  error

	mu    sync.Mutex
	procs map[string]*Proc
}

// NewSymbolTable creates the table of module. A nil call uses the platform
// default (syscall.SyscallN on Windows).
func NewSymbolTable(module string, loader Loader, call Caller) *SymbolTable {
	if call == nil {
		call = defaultCaller
	}
	return &SymbolTable{
		module: module,
		loader: loader,
		call:   call,
		procs:  make(map[string]*Proc),
	}
}

// Module returns the module name the table resolves against.
func (t *SymbolTable) Module() string {
	return t.module
}

func (t *SymbolTable) load() (Module, error) {
	t.loadOnce.Do(func() {
		if t.loader == nil {
			t.loadErr = fmt.Errorf("%s: %w", t.module, ErrModuleNotLoaded)
			return
		}
		m, err := t.loader.Load(t.module)
		if err != nil {
			t.loadErr = fmt.Errorf("%s: %w: %w", t.module, ErrModuleNotLoaded, err)
			return
		}
		t.mod = m
	})
	return t.mod, t.loadErr
}

// Proc returns the cached entry of name, creating it unresolved on first use.
func (t *SymbolTable) Proc(name string) *Proc {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.procs[name]
	if !ok {
		p = &Proc{Name: name, table: t}
		t.procs[name] = p
	}
	return p
}

// Proc is one original entry point. It resolves at most once, concurrent
// first callers converge on the same result.
type Proc struct {
	Name  string
	table *SymbolTable

	once sync.Once
	addr uintptr
	err  error
}

// Resolve returns the original address, resolving it on first use.
func (p *Proc) Resolve() (uintptr, error) {
	p.once.Do(func() {
		m, err := p.table.load()
		if err != nil {
			p.err = err
		} else if p.addr, err = m.FindProc(p.Name); err != nil {
			p.err = fmt.Errorf("%s!%s: %w: %w", p.table.module, p.Name, ErrSymbolNotFound, err)
		} else if p.addr == 0 {
			p.err = fmt.Errorf("%s!%s: %w", p.table.module, p.Name, ErrSymbolNotFound)
		}
		if p.err != nil {
			p.addr = 0
			logResolveFailure(p.table.module, p.Name, p.err)
			return
		}
		LogTrace("resolved original symbol", "module", p.table.module, "symbol", p.Name, "addr", hexf.Ptr(p.addr))
	})
	return p.addr, p.err
}

// Addr is Resolve without the error.
func (p *Proc) Addr() uintptr {
	addr, _ := p.Resolve()
	return addr
}

// Call forwards to the original entry point. An unresolved symbol returns
// ErrUnsupported and never calls anything.
func (p *Proc) Call(args ...uintptr) (uintptr, error) {
	addr, err := p.Resolve()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrUnsupported, err)
	}
	return p.table.call(addr, args...), nil
}

// CallHRESULT forwards to an original entry point returning HRESULT. An
// unresolved symbol yields unsupported, the status of the call's family.
func (p *Proc) CallHRESULT(unsupported HRESULT, args ...uintptr) HRESULT {
	r, err := p.Call(args...)
	if err != nil {
		return unsupported
	}
	return HRESULT(int32(uint32(r)))
}
