package ddraw

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tekert/golang-ddraw/ddraw/pkg/hexf"
)

var ErrHookTarget = errors.New("hook target not found")

// Patcher redirects module!symbol to replacement for the whole process and
// returns the original entry point.
type Patcher interface {
	Patch(module, symbol string, replacement uintptr) (original uintptr, err error)
}

// Hook is one installed redirection.
type Hook struct {
	Module      string
	Symbol      string
	Replacement uintptr
	Original    uintptr
}

// HookInstaller patches each module!symbol at most once for the process
// lifetime. A failed patch installs nothing and is not remembered, so a later
// call may try again.
type HookInstaller struct {
	patcher Patcher

	mu    sync.Mutex
	hooks map[string]*Hook
}

func NewHookInstaller(p Patcher) *HookInstaller {
	return &HookInstaller{
		patcher: p,
		hooks:   make(map[string]*Hook),
	}
}

func hookKey(module, symbol string) string {
	return module + "!" + symbol
}

// Install redirects module!symbol to replacement and returns the original
// entry point. Installing an already hooked symbol is a no-op returning the
// original captured the first time.
func (h *HookInstaller) Install(module, symbol string, replacement uintptr) (uintptr, error) {
	if replacement == 0 {
		return 0, fmt.Errorf("hook %s: nil replacement: %w", hookKey(module, symbol), ErrInvalidParams)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	key := hookKey(module, symbol)
	if hk, ok := h.hooks[key]; ok {
		return hk.Original, nil
	}
	if h.patcher == nil {
		return 0, fmt.Errorf("hook %s: %w", key, ErrUnsupported)
	}

	orig, err := h.patcher.Patch(module, symbol, replacement)
	if err != nil {
		return 0, fmt.Errorf("hook %s: %w", key, err)
	}
	if orig == 0 {
		return 0, fmt.Errorf("hook %s: %w", key, ErrHookTarget)
	}

	h.hooks[key] = &Hook{
		Module:      module,
		Symbol:      symbol,
		Replacement: replacement,
		Original:    orig,
	}
	slog.Debug("installed hook", "module", module, "symbol", symbol,
		"original", hexf.Ptr(orig), "replacement", hexf.Ptr(replacement))
	return orig, nil
}

// Original returns the entry point captured when module!symbol was hooked.
func (h *HookInstaller) Original(module, symbol string) (uintptr, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if hk, ok := h.hooks[hookKey(module, symbol)]; ok {
		return hk.Original, true
	}
	return 0, false
}

// Hooks returns the installed hooks.
func (h *HookInstaller) Hooks() []Hook {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Hook, 0, len(h.hooks))
	for _, hk := range h.hooks {
		out = append(out, *hk)
	}
	return out
}

// HookSpec names a system entry point and its replacement.
type HookSpec struct {
	Module      string
	Symbol      string
	Replacement uintptr
}

// InstallAll installs every spec, logging and skipping those that fail. It
// returns how many hooks are in place afterwards among specs.
func (h *HookInstaller) InstallAll(specs []HookSpec) int {
	n := 0
	for _, s := range specs {
		if _, err := h.Install(s.Module, s.Symbol, s.Replacement); err != nil {
			slog.Warn("failed to install hook", "module", s.Module, "symbol", s.Symbol, "error", err)
			continue
		}
		n++
	}
	return n
}
