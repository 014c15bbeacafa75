package ddraw

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"unsafe"

	"github.com/0xrawsec/golang-utils/datastructs"
)

const (
	ModuleDDraw    = "ddraw.dll"
	ModuleD3D9     = "d3d9.dll"
	ModuleGDI32    = "gdi32.dll"
	ModuleUser32   = "user32.dll"
	ModuleKernel32 = "kernel32.dll"
)

// Translator is the Direct3D9 backed implementation of the DirectDraw object
// model used in translation mode.
type Translator interface {
	// CreateDirectDraw creates a root object on adapter and returns its
	// interface of version v.
	CreateDirectDraw(v InterfaceVersion, adapter uint32, ex bool) (uintptr, error)
	CreateClipper(flags uint32) (uintptr, error)
	SetSwapEffectUpgradeShim(enable uint32)
}

// ClassDispatcher is the COM activation side of the engine.
type ClassDispatcher interface {
	// CreateClassObject serves DllGetClassObject in translation mode.
	CreateClassObject(clsid, riid *GUID) (uintptr, error)
	// WrapClassFactory wraps a system IClassFactory bound to clsid.
	WrapClassFactory(factory Unknown, clsid *GUID) (uintptr, error)
	// WrapInterface wraps any other interface returned by the system.
	WrapInterface(riid *GUID, obj uintptr) uintptr
}

// Options are the collaborators of an Engine. Zero values select the
// platform defaults.
type Options struct {
	Loader  Loader
	Caller  Caller
	Patcher Patcher
	// Hooks lists the system entry points Init redirects.
	Hooks func(cfg *Config) []HookSpec

	Translator     Translator
	Dispatcher     ClassDispatcher
	WrapperFactory WrapperFactory
	Direct3D       Direct3DCreator

	// NativeObject turns an interface pointer returned by the system into
	// an Unknown.
	NativeObject func(p uintptr) Unknown
	// NativeCallback adapts an application enumeration callback.
	NativeCallback func(fn, context uintptr, typ EnumType) EnumCallback
	// ThreadID identifies the caller owning the engine locks.
	ThreadID func() uint64
}

// Engine serves the ddraw.dll exports. In translation mode (Config.Dd7to9)
// calls are implemented on top of Direct3D9, otherwise they are forwarded to
// the system ddraw.dll.
type Engine struct {
	cfg *Config

	sync    SyncState
	proxies *ProxyTable
	devices *DeviceCache
	enum    *Enumerator
	hooks   *HookInstaller

	ddraw *SymbolTable
	d3d9  *SymbolTable

	translator     Translator
	dispatcher     ClassDispatcher
	nativeObject   func(uintptr) Unknown
	nativeCallback func(fn, context uintptr, typ EnumType) EnumCallback
	hookSpecs      func(*Config) []HookSpec

	hookOnce sync.Once

	// exports translation mode refuses, as the system does when no secondary
	// device can be enumerated through them
	translationUnsupported *datastructs.Set
}

// NewEngine creates an engine. A nil cfg uses NewConfig defaults.
func NewEngine(cfg *Config, opts Options) *Engine {
	if cfg == nil {
		cfg = NewConfig()
	}
	opts.setPlatformDefaults()

	e := &Engine{
		cfg:            cfg,
		proxies:        NewProxyTable(opts.WrapperFactory),
		devices:        NewDeviceCache(),
		hooks:          NewHookInstaller(opts.Patcher),
		ddraw:          NewSymbolTable(ModuleDDraw, opts.Loader, opts.Caller),
		d3d9:           NewSymbolTable(ModuleD3D9, opts.Loader, opts.Caller),
		translator:     opts.Translator,
		dispatcher:     opts.Dispatcher,
		nativeObject:   opts.NativeObject,
		nativeCallback: opts.NativeCallback,
		hookSpecs:      opts.Hooks,
	}
	e.sync.ThreadID = opts.ThreadID
	e.translationUnsupported = datastructs.NewInitSet(
		"DirectDrawEnumerateW",
		"DirectDrawEnumerateExW",
	)

	create := opts.Direct3D
	if create == nil {
		create = defaultDirect3D(e.d3d9)
	}
	e.enum = NewEnumerator(create, e.devices)
	e.enum.cacheLock = e.serialized
	return e
}

func (e *Engine) Config() *Config           { return e.cfg }
func (e *Engine) Sync() *SyncState          { return &e.sync }
func (e *Engine) Proxies() *ProxyTable      { return e.proxies }
func (e *Engine) Devices() *DeviceCache     { return e.devices }
func (e *Engine) Hooks() *HookInstaller     { return e.hooks }
func (e *Engine) SystemDDraw() *SymbolTable { return e.ddraw }

// Init creates the engine locks and, once per engine, redirects the GDI,
// User32 and Kernel32 entry points. Hooks that cannot be installed are logged
// and skipped.
func (e *Engine) Init() {
	e.sync.Init()
	e.hookOnce.Do(func() {
		if e.hookSpecs == nil {
			return
		}
		specs := e.hookSpecs(e.cfg)
		if len(specs) == 0 {
			return
		}
		slog.Info("Installing GDI & User32 hooks", "count", len(specs))
		n := e.hooks.InstallAll(specs)
		slog.Debug("hooks installed", "installed", n, "requested", len(specs))
	})
}

// Close retires the engine locks, waiting for current holders.
func (e *Engine) Close() {
	e.sync.Close()
	FlushLogSummaries()
}

// serialized runs fn under the internal lock, or directly before Init.
// Application code must never run inside fn.
func (e *Engine) serialized(fn func()) {
	if err := e.sync.WithInternalLock(fn); err != nil {
		fn()
	}
}

func (e *Engine) translating() bool {
	return e.cfg.Dd7to9
}

func (e *Engine) passthrough(name string, args ...uintptr) HRESULT {
	return e.ddraw.Proc(name).CallHRESULT(DDERR_UNSUPPORTED, args...)
}

func (e *Engine) passthroughDWORD(name string, failed uint32, args ...uintptr) uint32 {
	r, err := e.ddraw.Proc(name).Call(args...)
	if err != nil {
		return failed
	}
	return uint32(r)
}

// pin keeps *p in place until pn is unpinned and returns its address as a
// native call argument. Memory not owned by Go is passed unchanged.
func pin[T any](pn *runtime.Pinner, p *T) uintptr {
	if p == nil {
		return 0
	}
	pn.Pin(p)
	return uintptr(unsafe.Pointer(p))
}

// GetAdapterIndex maps a legacy device GUID to its Direct3D9 adapter. A nil
// or unknown GUID is the default adapter.
func (e *Engine) GetAdapterIndex(guid *GUID) uint32 {
	return e.devices.AdapterIndex(guid)
}

func (e *Engine) AcquireDDThreadLock() HRESULT {
	logEntry("AcquireDDThreadLock")
	if e.translating() {
		return ToHRESULT(e.sync.AcquireThreadLock())
	}
	return e.passthrough("AcquireDDThreadLock")
}

func (e *Engine) ReleaseDDThreadLock() HRESULT {
	logEntry("ReleaseDDThreadLock")
	if e.translating() {
		return ToHRESULT(e.sync.ReleaseThreadLock())
	}
	return e.passthrough("ReleaseDDThreadLock")
}

func (e *Engine) CompleteCreateSysmemSurface(arg uint32) uint32 {
	logEntry("CompleteCreateSysmemSurface")
	if e.translating() {
		logNotImplemented("CompleteCreateSysmemSurface")
		return 0
	}
	return e.passthroughDWORD("CompleteCreateSysmemSurface", 0, uintptr(arg))
}

// D3DParseUnknownCommand stores in *next the address of the command following
// cmd.
func (e *Engine) D3DParseUnknownCommand(cmd unsafe.Pointer, next *unsafe.Pointer) HRESULT {
	logEntry("D3DParseUnknownCommand")
	if e.translating() {
		return ToHRESULT(ParseUnknownCommandAt(cmd, next))
	}
	var pinner runtime.Pinner
	defer pinner.Unpin()
	return e.ddraw.Proc("D3DParseUnknownCommand").CallHRESULT(D3DERR_COMMAND_UNPARSED, uintptr(cmd), pin(&pinner, next))
}

func (e *Engine) DDGetAttachedSurfaceLcl(arg1, arg2, arg3 uint32) HRESULT {
	logEntry("DDGetAttachedSurfaceLcl")
	if e.translating() {
		logNotImplemented("DDGetAttachedSurfaceLcl")
		return DDERR_UNSUPPORTED
	}
	return e.passthrough("DDGetAttachedSurfaceLcl", uintptr(arg1), uintptr(arg2), uintptr(arg3))
}

func (e *Engine) DDInternalLock(arg1, arg2 uint32) uint32 {
	logEntry("DDInternalLock")
	if e.translating() {
		logNotImplemented("DDInternalLock")
		return 0xFFFFFFFF
	}
	return e.passthroughDWORD("DDInternalLock", 0xFFFFFFFF, uintptr(arg1), uintptr(arg2))
}

func (e *Engine) DDInternalUnlock(arg uint32) uint32 {
	logEntry("DDInternalUnlock")
	if e.translating() {
		logNotImplemented("DDInternalUnlock")
		return 0xFFFFFFFF
	}
	return e.passthroughDWORD("DDInternalUnlock", 0xFFFFFFFF, uintptr(arg))
}

func (e *Engine) DSoundHelp(arg1, arg2, arg3 uint32) HRESULT {
	logEntry("DSoundHelp")
	if e.translating() {
		logNotImplemented("DSoundHelp")
		return DDERR_UNSUPPORTED
	}
	return e.passthrough("DSoundHelp", uintptr(arg1), uintptr(arg2), uintptr(arg3))
}

func (e *Engine) prepareTranslation() {
	if e.cfg.SetSwapEffectShim < 2 {
		e.translator.SetSwapEffectUpgradeShim(e.cfg.SetSwapEffectShim)
	}
}

// pushAppCompatData sends the configured toggles before a passthrough root
// object is created.
func (e *Engine) pushAppCompatData() {
	if !e.cfg.IsAppCompatDataSet() {
		return
	}
	proc := e.ddraw.Proc("SetAppCompatData")
	if _, err := proc.Resolve(); err != nil {
		slog.Error("failed to get SetAppCompatData address", "error", err)
		return
	}
	SetAllAppCompatData(e.cfg, func(typ, value uint32) HRESULT {
		return proc.CallHRESULT(DDERR_GENERIC, uintptr(typ), uintptr(value))
	})
}

// wrapNative registers the object the system stored in *out and replaces it
// with its view of version v.
func (e *Engine) wrapNative(out *uintptr, v InterfaceVersion) {
	if out == nil || *out == 0 || e.nativeObject == nil {
		return
	}
	view, err := e.proxies.WrapInterface(e.nativeObject(*out), v)
	if err != nil {
		slog.Warn("failed to wrap system object", "version", v, "error", err)
		return
	}
	*out = view
}

func (e *Engine) DirectDrawCreate(guid *GUID, out *uintptr, outer uintptr) HRESULT {
	logEntry("DirectDrawCreate")
	if e.translating() {
		if out == nil {
			return DDERR_INVALIDPARAMS
		}
		if e.translator == nil {
			return DDERR_UNSUPPORTED
		}
		logRedirect("DirectDrawCreate", "Direct3DCreate9")
		e.prepareTranslation()
		dd, err := e.translator.CreateDirectDraw(Version1, e.GetAdapterIndex(guid), false)
		if err != nil {
			return ToHRESULT(err)
		}
		*out = dd
		return DD_OK
	}

	proc := e.ddraw.Proc("DirectDrawCreate")
	if _, err := proc.Resolve(); err != nil {
		return DDERR_UNSUPPORTED
	}
	e.pushAppCompatData()
	logRedirect("DirectDrawCreate", ModuleDDraw)

	var pinner runtime.Pinner
	defer pinner.Unpin()
	hr := proc.CallHRESULT(DDERR_UNSUPPORTED, pin(&pinner, guid), pin(&pinner, out), outer)
	if hr.Succeeded() {
		e.wrapNative(out, Version1)
	}
	return hr
}

func (e *Engine) DirectDrawCreateClipper(flags uint32, out *uintptr, outer uintptr) HRESULT {
	logEntry("DirectDrawCreateClipper")
	if e.translating() {
		if out == nil || outer != 0 {
			return DDERR_INVALIDPARAMS
		}
		if e.translator == nil {
			return DDERR_UNSUPPORTED
		}
		clipper, err := e.translator.CreateClipper(flags)
		if err != nil {
			return ToHRESULT(err)
		}
		*out = clipper
		return DD_OK
	}

	var pinner runtime.Pinner
	defer pinner.Unpin()
	hr := e.passthrough("DirectDrawCreateClipper", uintptr(flags), pin(&pinner, out), outer)
	if hr.Succeeded() {
		// clippers have a single interface version
		e.wrapNative(out, Version1)
	}
	return hr
}

func (e *Engine) DirectDrawCreateEx(guid *GUID, out *uintptr, riid *GUID, outer uintptr) HRESULT {
	logEntry("DirectDrawCreateEx")
	if e.translating() {
		if out == nil || outer != 0 {
			return DDERR_INVALIDPARAMS
		}
		if riid == nil || *riid != IID_IDirectDraw7 {
			if limiter.Allow("DirectDrawCreateEx:iid", limitNotImplemented) {
				slog.Warn("DirectDrawCreateEx: invalid IID", "riid", fmt.Sprint(riid))
			}
			return DDERR_INVALIDPARAMS
		}
		if e.translator == nil {
			return DDERR_UNSUPPORTED
		}
		logRedirect("DirectDrawCreateEx", "Direct3DCreate9")
		e.prepareTranslation()
		dd, err := e.translator.CreateDirectDraw(Version7, e.GetAdapterIndex(guid), true)
		if err != nil {
			return ToHRESULT(err)
		}
		*out = dd
		return DD_OK
	}

	proc := e.ddraw.Proc("DirectDrawCreateEx")
	if _, err := proc.Resolve(); err != nil {
		return DDERR_UNSUPPORTED
	}
	e.pushAppCompatData()
	logRedirect("DirectDrawCreateEx", ModuleDDraw)

	// the system object is always created as IDirectDraw7
	var pinner runtime.Pinner
	defer pinner.Unpin()
	hr := proc.CallHRESULT(DDERR_UNSUPPORTED, pin(&pinner, guid), pin(&pinner, out), pin(&pinner, &IID_IDirectDraw7), outer)
	if hr.Succeeded() {
		v := GUIDVersion(riid)
		if v == 0 {
			v = Version7
		}
		e.wrapNative(out, v)
	}
	return hr
}

// EnumerateDevices is the translation mode enumeration, usable with Go
// callbacks.
func (e *Engine) EnumerateDevices(cb EnumCallback, flags uint32, typ EnumType) HRESULT {
	if err := e.enum.Enumerate(cb, flags, typ); err != nil {
		if limiter.Allow("enumerate:"+typ.String(), limitNotImplemented) {
			slog.Warn("device enumeration failed", "callback", typ, "error", err)
		}
		return ToHRESULT(err)
	}
	return DD_OK
}

func (e *Engine) enumerate(name string, fn, context uintptr, flags uint32, typ EnumType) HRESULT {
	if e.translationUnsupported.Contains(name) {
		return DDERR_UNSUPPORTED
	}
	var cb EnumCallback
	if e.nativeCallback != nil {
		cb = e.nativeCallback(fn, context, typ)
	}
	return e.EnumerateDevices(cb, flags, typ)
}

func (e *Engine) DirectDrawEnumerateA(fn, context uintptr) HRESULT {
	logEntry("DirectDrawEnumerateA")
	if e.translating() {
		return e.enumerate("DirectDrawEnumerateA", fn, context, 0, EnumCallbackA)
	}
	return e.passthrough("DirectDrawEnumerateA", fn, context)
}

func (e *Engine) DirectDrawEnumerateExA(fn, context uintptr, flags uint32) HRESULT {
	logEntry("DirectDrawEnumerateExA")
	if e.translating() {
		return e.enumerate("DirectDrawEnumerateExA", fn, context, flags, EnumCallbackExA)
	}
	return e.passthrough("DirectDrawEnumerateExA", fn, context, uintptr(flags))
}

func (e *Engine) DirectDrawEnumerateExW(fn, context uintptr, flags uint32) HRESULT {
	logEntry("DirectDrawEnumerateExW")
	if e.translating() {
		return e.enumerate("DirectDrawEnumerateExW", fn, context, flags, EnumCallbackExW)
	}
	return e.passthrough("DirectDrawEnumerateExW", fn, context, uintptr(flags))
}

func (e *Engine) DirectDrawEnumerateW(fn, context uintptr) HRESULT {
	logEntry("DirectDrawEnumerateW")
	if e.translating() {
		return e.enumerate("DirectDrawEnumerateW", fn, context, 0, EnumCallbackW)
	}
	return e.passthrough("DirectDrawEnumerateW", fn, context)
}

func (e *Engine) DllCanUnloadNow() HRESULT {
	logEntry("DllCanUnloadNow")
	if e.translating() {
		logNotImplemented("DllCanUnloadNow")
		return DDERR_UNSUPPORTED
	}
	return e.passthrough("DllCanUnloadNow")
}

func (e *Engine) DllGetClassObject(clsid, riid *GUID, ppv *uintptr) HRESULT {
	logEntry("DllGetClassObject")
	if e.translating() {
		if ppv == nil {
			return E_POINTER
		}
		if e.dispatcher == nil {
			return DDERR_UNSUPPORTED
		}
		obj, err := e.dispatcher.CreateClassObject(clsid, riid)
		if err != nil {
			return ToHRESULT(err)
		}
		*ppv = obj
		return DD_OK
	}

	var pinner runtime.Pinner
	defer pinner.Unpin()
	hr := e.passthrough("DllGetClassObject", pin(&pinner, clsid), pin(&pinner, riid), pin(&pinner, ppv))
	if hr.Failed() || ppv == nil || *ppv == 0 || e.dispatcher == nil {
		return hr
	}
	if riid != nil && *riid == IID_IClassFactory && e.nativeObject != nil {
		cf, err := e.dispatcher.WrapClassFactory(e.nativeObject(*ppv), clsid)
		if err != nil {
			slog.Warn("failed to wrap class factory", "clsid", fmt.Sprint(clsid), "error", err)
			return hr
		}
		*ppv = cf
		return DD_OK
	}
	*ppv = e.dispatcher.WrapInterface(riid, *ppv)
	return hr
}

func (e *Engine) GetDDSurfaceLocal(arg1, arg2, arg3 uint32) HRESULT {
	logEntry("GetDDSurfaceLocal")
	if e.translating() {
		logNotImplemented("GetDDSurfaceLocal")
		return DDERR_UNSUPPORTED
	}
	return e.passthrough("GetDDSurfaceLocal", uintptr(arg1), uintptr(arg2), uintptr(arg3))
}

func (e *Engine) GetOLEThunkData(index uint32) uint32 {
	logEntry("GetOLEThunkData")
	if e.translating() {
		logNotImplemented("GetOLEThunkData", "index", index)
		return 0
	}
	return e.passthroughDWORD("GetOLEThunkData", 0, uintptr(index))
}

func (e *Engine) GetSurfaceFromDC(hdc uintptr, surface *uintptr, arg uint32) HRESULT {
	logEntry("GetSurfaceFromDC")
	if e.translating() {
		logNotImplemented("GetSurfaceFromDC")
		return DDERR_UNSUPPORTED
	}
	var pinner runtime.Pinner
	defer pinner.Unpin()
	return e.passthrough("GetSurfaceFromDC", hdc, pin(&pinner, surface), uintptr(arg))
}

func (e *Engine) RegisterSpecialCase(arg1, arg2, arg3, arg4 uint32) HRESULT {
	logEntry("RegisterSpecialCase")
	if e.translating() {
		logNotImplemented("RegisterSpecialCase")
		return DDERR_UNSUPPORTED
	}
	return e.passthrough("RegisterSpecialCase", uintptr(arg1), uintptr(arg2), uintptr(arg3), uintptr(arg4))
}

func (e *Engine) SetAppCompatData(typ, value uint32) HRESULT {
	logEntry("SetAppCompatData")
	if e.translating() {
		logNotImplemented("SetAppCompatData", "msg", "skipping compatibility flags", "type", typ, "value", value)
		return DD_OK
	}
	return e.ddraw.Proc("SetAppCompatData").CallHRESULT(DDERR_GENERIC, uintptr(typ), uintptr(value))
}
