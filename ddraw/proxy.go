package ddraw

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/tekert/golang-ddraw/ddraw/pkg/hexf"
)

// InterfaceVersion is the IDirectDraw interface generation a caller asked for.
type InterfaceVersion uint32

const (
	Version1 InterfaceVersion = 1
	Version2 InterfaceVersion = 2
	Version4 InterfaceVersion = 4
	Version7 InterfaceVersion = 7
)

var interfaceVersions = [...]InterfaceVersion{Version1, Version2, Version4, Version7}

// Valid reports whether v names one of the IDirectDraw interfaces.
func (v InterfaceVersion) Valid() bool {
	return v.slot() >= 0
}

func (v InterfaceVersion) slot() int {
	for i, iv := range interfaceVersions {
		if iv == v {
			return i
		}
	}
	return -1
}

// Unknown is the IUnknown part of a native COM object.
type Unknown interface {
	AddRef() uint32
	Release() uint32
	// Pointer is the object identity, the address of its vtable pointer.
	Pointer() uintptr
}

// Impl is the implementation object behind a wrapper, built once per native
// object by a WrapperFactory. Interface returns the view handed to callers
// for version v.
type Impl interface {
	Interface(v InterfaceVersion) uintptr
	Close() error
}

// WrapperFactory builds the implementation of a freshly wrapped native object.
// v is the version of the first request, later views come from Impl.Interface.
type WrapperFactory func(native Unknown, v InterfaceVersion) (Impl, error)

// passthroughImpl hands out the native pointer for every version.
type passthroughImpl struct {
	native Unknown
}

func (p passthroughImpl) Interface(InterfaceVersion) uintptr { return p.native.Pointer() }
func (p passthroughImpl) Close() error                       { return nil }

// PassthroughFactory is the WrapperFactory used when no translation backend
// is plugged in.
func PassthroughFactory(native Unknown, _ InterfaceVersion) (Impl, error) {
	return passthroughImpl{native: native}, nil
}

// Wrapper is the one implementation object of a native object, shared by all
// of its interface views. Its reference count is shared across views.
type Wrapper struct {
	table  *ProxyTable
	native Unknown
	impl   Impl
	refs   atomic.Int32

	// Version of the first request.
	Version InterfaceVersion

	mu    sync.Mutex
	views [len(interfaceVersions)]uintptr
}

// Native returns the wrapped object.
func (w *Wrapper) Native() Unknown {
	return w.native
}

// Impl returns the implementation object.
func (w *Wrapper) Impl() Impl {
	return w.impl
}

// Interface returns the view of version v, created on first request and
// cached for the wrapper lifetime.
func (w *Wrapper) Interface(v InterfaceVersion) (uintptr, error) {
	i := v.slot()
	if i < 0 {
		return 0, fmt.Errorf("interface version %d: %w", v, ErrInvalidParams)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.views[i] == 0 {
		w.views[i] = w.impl.Interface(v)
	}
	return w.views[i], nil
}

// RefCount returns the current reference count.
func (w *Wrapper) RefCount() int32 {
	return w.refs.Load()
}

// AddRef adds a reference shared by every view.
func (w *Wrapper) AddRef() uint32 {
	return uint32(w.refs.Add(1))
}

// tryAddRef adds a reference unless the wrapper is already being torn down.
func (w *Wrapper) tryAddRef() bool {
	for {
		n := w.refs.Load()
		if n <= 0 {
			return false
		}
		if w.refs.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

// Release drops a reference. The last one closes the implementation, releases
// the native object and removes the wrapper from its table.
func (w *Wrapper) Release() uint32 {
	n := w.refs.Add(-1)
	if n > 0 {
		return uint32(n)
	}
	if n < 0 {
		// over-release, keep the count pinned at zero
		w.refs.Store(0)
		return 0
	}
	if err := w.impl.Close(); err != nil {
		slog.Warn("wrapper close failed", "native", hexf.Ptr(w.native.Pointer()), "error", err)
	}
	w.table.Remove(w.native.Pointer(), w)
	w.native.Release()
	return 0
}

// ProxyTable maps a native object identity to its unique wrapper.
type ProxyTable struct {
	mu      sync.Mutex
	entries map[uintptr]*Wrapper
	factory WrapperFactory
}

// NewProxyTable creates a table that builds implementations with factory,
// PassthroughFactory if nil.
func NewProxyTable(factory WrapperFactory) *ProxyTable {
	if factory == nil {
		factory = PassthroughFactory
	}
	return &ProxyTable{
		entries: make(map[uintptr]*Wrapper),
		factory: factory,
	}
}

// Wrap returns the wrapper of native, creating it on first use. The caller's
// reference on native is adopted by a new wrapper. When native is already
// wrapped, the existing wrapper gains a reference and the caller's reference
// on native is dropped, whatever version is requested this time.
func (t *ProxyTable) Wrap(native Unknown, v InterfaceVersion) (*Wrapper, error) {
	if native == nil || native.Pointer() == 0 {
		return nil, fmt.Errorf("nil native object: %w", ErrInvalidParams)
	}
	if !v.Valid() {
		return nil, fmt.Errorf("interface version %d: %w", v, ErrInvalidParams)
	}

	key := native.Pointer()

	t.mu.Lock()
	if w, ok := t.entries[key]; ok && w.tryAddRef() {
		t.mu.Unlock()
		native.Release()
		return w, nil
	}
	impl, err := t.factory(native, v)
	if err != nil {
		t.mu.Unlock()
		return nil, fmt.Errorf("wrap %s: %w", hexf.Ptr(key), err)
	}
	w := &Wrapper{
		table:   t,
		native:  native,
		impl:    impl,
		Version: v,
	}
	w.refs.Store(1)
	t.entries[key] = w
	t.mu.Unlock()

	LogTrace("wrapped native object", "native", hexf.Ptr(key), "version", v)
	return w, nil
}

// WrapInterface wraps native and returns its view of version v.
func (t *ProxyTable) WrapInterface(native Unknown, v InterfaceVersion) (uintptr, error) {
	w, err := t.Wrap(native, v)
	if err != nil {
		return 0, err
	}
	return w.Interface(v)
}

// Lookup returns the wrapper of the native object at addr, if any.
func (t *ProxyTable) Lookup(addr uintptr) (*Wrapper, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	w, ok := t.entries[addr]
	return w, ok
}

// Remove erases the entry of addr if it still belongs to w.
func (t *ProxyTable) Remove(addr uintptr, w *Wrapper) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if cur, ok := t.entries[addr]; ok && cur == w {
		delete(t.entries, addr)
	}
}

// Len returns the number of live wrappers.
func (t *ProxyTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
