package ddraw

import (
	"errors"
	"runtime"
	"sync/atomic"
	"testing"
	"time"
	"unsafe"

	"github.com/0xrawsec/toast"
)

type fakeTranslator struct {
	created []struct {
		v       InterfaceVersion
		adapter uint32
		ex      bool
	}
	clippers []uint32
	shim     []uint32
	err      error
}

func (f *fakeTranslator) CreateDirectDraw(v InterfaceVersion, adapter uint32, ex bool) (uintptr, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.created = append(f.created, struct {
		v       InterfaceVersion
		adapter uint32
		ex      bool
	}{v, adapter, ex})
	return 0xDD000 + uintptr(v), nil
}

func (f *fakeTranslator) CreateClipper(flags uint32) (uintptr, error) {
	f.clippers = append(f.clippers, flags)
	return 0xC1100, nil
}

func (f *fakeTranslator) SetSwapEffectUpgradeShim(enable uint32) {
	f.shim = append(f.shim, enable)
}

type fakeDispatcher struct {
	factories map[uintptr]GUID
	wrapped   []GUID
}

func (d *fakeDispatcher) CreateClassObject(clsid, riid *GUID) (uintptr, error) {
	if *clsid != CLSID_DirectDraw {
		return 0, ErrGeneric
	}
	return 0xCF000, nil
}

func (d *fakeDispatcher) WrapClassFactory(factory Unknown, clsid *GUID) (uintptr, error) {
	if d.factories == nil {
		d.factories = make(map[uintptr]GUID)
	}
	d.factories[factory.Pointer()] = *clsid
	return factory.Pointer() + 1, nil
}

func (d *fakeDispatcher) WrapInterface(riid *GUID, obj uintptr) uintptr {
	d.wrapped = append(d.wrapped, *riid)
	return obj + 2
}

type engineFixture struct {
	sys        *fakeSystem
	translator *fakeTranslator
	dispatcher *fakeDispatcher
	d3d        *fakeD3D
	patcher    *fakePatcher
	natives    map[uintptr]*fakeUnknown
	engine     *Engine
}

func newEngineFixture(translate bool) *engineFixture {
	f := &engineFixture{
		sys:        newFakeSystem(),
		translator: &fakeTranslator{},
		dispatcher: &fakeDispatcher{},
		d3d:        twoIdenticalAdapters(),
		patcher: newFakePatcher(map[string]uintptr{
			"gdi32.dll!GetDeviceCaps":   0x7001,
			"user32.dll!DestroyWindow":  0x7002,
			"kernel32.dll!CreateFileA":  0x7003,
			"kernel32.dll!CreateThread": 0x7004,
		}),
		natives: make(map[uintptr]*fakeUnknown),
	}

	cfg := NewConfig()
	cfg.Dd7to9 = translate

	f.engine = NewEngine(cfg, Options{
		ThreadID:   getGoroutineID,
		Loader:     f.sys,
		Caller:     f.sys.call,
		Patcher:    f.patcher,
		Translator: f.translator,
		Dispatcher: f.dispatcher,
		Direct3D:   creatorOf(f.d3d),
		Hooks: func(cfg *Config) []HookSpec {
			specs := []HookSpec{
				{ModuleGDI32, "GetDeviceCaps", 0x9001},
				{ModuleUser32, "DestroyWindow", 0x9002},
			}
			if cfg.HookKernel32 {
				specs = append(specs,
					HookSpec{ModuleKernel32, "CreateFileA", 0x9003},
					HookSpec{ModuleKernel32, "NotExported", 0x9004},
				)
			}
			return specs
		},
		NativeObject: func(p uintptr) Unknown {
			u, ok := f.natives[p]
			if !ok {
				u = newFakeUnknown(p)
				f.natives[p] = u
			}
			return u
		},
		NativeCallback: func(fn, context uintptr, typ EnumType) EnumCallback {
			if fn == 0 {
				return nil
			}
			return EnumFunc(func(*EnumDevice) bool { return true })
		},
	})
	return f
}

func TestEngineInitHooks(t *testing.T) {
	t.Parallel()
	tt := toast.FromT(t)

	f := newEngineFixture(true)
	e := f.engine
	e.Config().HookKernel32 = true

	e.Init()
	e.Init()
	tt.Assert(e.Sync().IsInitialized())
	tt.Assert(len(e.Hooks().Hooks()) == 3)
	tt.Assert(f.patcher.calls == 4)

	orig, ok := e.Hooks().Original(ModuleGDI32, "GetDeviceCaps")
	tt.Assert(ok && orig == 0x7001)

	e.Close()
	tt.Assert(!e.Sync().IsInitialized())

	// hooks are not reinstalled by a later Init
	e.Init()
	tt.Assert(f.patcher.calls == 4)
	e.Close()
}

func TestEngineThreadLock(t *testing.T) {
	t.Parallel()
	tt := toast.FromT(t)

	e := newEngineFixture(true).engine

	done := make(chan HRESULT, 1)
	go func() { done <- e.AcquireDDThreadLock() }()
	select {
	case hr := <-done:
		tt.Assert(hr == DDERR_UNSUPPORTED)
	case <-time.After(time.Second):
		t.Fatal("AcquireDDThreadLock blocked before Init")
	}
	tt.Assert(e.ReleaseDDThreadLock() == DDERR_UNSUPPORTED)

	e.Init()
	defer e.Close()
	tt.Assert(e.AcquireDDThreadLock() == DD_OK)
	tt.Assert(e.ReleaseDDThreadLock() == DD_OK)
	tt.Assert(e.ReleaseDDThreadLock() == DDERR_NOTLOCKED)
}

func TestEngineTranslationNotImplemented(t *testing.T) {
	t.Parallel()
	tt := toast.FromT(t)

	f := newEngineFixture(true)
	e := f.engine

	tt.Assert(e.CompleteCreateSysmemSurface(1) == 0)
	tt.Assert(e.GetOLEThunkData(1) == 0)
	tt.Assert(e.DDInternalLock(1, 2) == 0xFFFFFFFF)
	tt.Assert(e.DDInternalUnlock(1) == 0xFFFFFFFF)
	tt.Assert(e.DDGetAttachedSurfaceLcl(1, 2, 3) == DDERR_UNSUPPORTED)
	tt.Assert(e.DSoundHelp(1, 2, 3) == DDERR_UNSUPPORTED)
	tt.Assert(e.DllCanUnloadNow() == DDERR_UNSUPPORTED)
	tt.Assert(e.GetDDSurfaceLocal(1, 2, 3) == DDERR_UNSUPPORTED)
	tt.Assert(e.GetSurfaceFromDC(0, nil, 0) == DDERR_UNSUPPORTED)
	tt.Assert(e.RegisterSpecialCase(1, 2, 3, 4) == DDERR_UNSUPPORTED)
	tt.Assert(e.SetAppCompatData(AppCompatLockColorkey, 0xff) == DD_OK)

	// nothing was forwarded
	tt.Assert(f.sys.loadCount(ModuleDDraw) == 0)
}

func TestEngineTranslationCreate(t *testing.T) {
	t.Parallel()
	tt := toast.FromT(t)

	f := newEngineFixture(true)
	e := f.engine
	e.Config().SetSwapEffectShim = 1

	var dd uintptr
	tt.Assert(e.DirectDrawCreate(nil, &dd, 0) == DD_OK)
	tt.Assert(dd == 0xDD000+1)
	tt.Assert(e.DirectDrawCreate(nil, nil, 0) == DDERR_INVALIDPARAMS)

	tt.Assert(e.DirectDrawCreateEx(nil, &dd, &IID_IDirectDraw7, 0) == DD_OK)
	tt.Assert(dd == 0xDD000+7)
	tt.Assert(e.DirectDrawCreateEx(nil, &dd, &IID_IDirectDraw4, 0) == DDERR_INVALIDPARAMS)
	tt.Assert(e.DirectDrawCreateEx(nil, &dd, nil, 0) == DDERR_INVALIDPARAMS)
	tt.Assert(e.DirectDrawCreateEx(nil, nil, &IID_IDirectDraw7, 0) == DDERR_INVALIDPARAMS)
	tt.Assert(e.DirectDrawCreateEx(nil, &dd, &IID_IDirectDraw7, 0x1234) == DDERR_INVALIDPARAMS)

	tt.Assert(len(f.translator.created) == 2)
	tt.Assert(!f.translator.created[0].ex && f.translator.created[1].ex)
	tt.Assert(len(f.translator.shim) == 2 && f.translator.shim[0] == 1)

	// enumeration assigns GUIDs, creation maps them back to adapters
	var guids []GUID
	tt.Assert(e.EnumerateDevices(EnumFunc(func(d *EnumDevice) bool {
		if d.GUID != nil {
			guids = append(guids, *d.GUID)
		}
		return true
	}), DDENUM_ATTACHEDSECONDARYDEVICES, EnumCallbackExA) == DD_OK)
	tt.Assert(len(guids) == 2)
	tt.Assert(e.GetAdapterIndex(&guids[1]) == 1)

	tt.Assert(e.DirectDrawCreate(&guids[1], &dd, 0) == DD_OK)
	tt.Assert(f.translator.created[2].adapter == 1)

	// shim left alone at 2
	e.Config().SetSwapEffectShim = 2
	tt.Assert(e.DirectDrawCreate(nil, &dd, 0) == DD_OK)
	tt.Assert(len(f.translator.shim) == 3)

	var clipper uintptr
	tt.Assert(e.DirectDrawCreateClipper(7, &clipper, 0) == DD_OK)
	tt.Assert(clipper == 0xC1100 && f.translator.clippers[0] == 7)
	tt.Assert(e.DirectDrawCreateClipper(7, nil, 0) == DDERR_INVALIDPARAMS)
	tt.Assert(e.DirectDrawCreateClipper(7, &clipper, 0x1) == DDERR_INVALIDPARAMS)

	f.translator.err = ErrGeneric
	tt.Assert(e.DirectDrawCreate(nil, &dd, 0) == DDERR_GENERIC)
}

func TestEngineTranslationEnumerate(t *testing.T) {
	t.Parallel()
	tt := toast.FromT(t)

	e := newEngineFixture(true).engine

	tt.Assert(e.DirectDrawEnumerateA(0x401000, 0) == DD_OK)
	tt.Assert(e.DirectDrawEnumerateExA(0x401000, 0, DDENUM_ATTACHEDSECONDARYDEVICES) == DD_OK)
	tt.Assert(e.DirectDrawEnumerateA(0, 0) == DDERR_INVALIDPARAMS)

	// wide entry points are refused in translation mode
	tt.Assert(e.DirectDrawEnumerateW(0x401000, 0) == DDERR_UNSUPPORTED)
	tt.Assert(e.DirectDrawEnumerateExW(0x401000, 0, 0) == DDERR_UNSUPPORTED)

	var primaries int
	tt.Assert(e.EnumerateDevices(EnumFunc(func(d *EnumDevice) bool {
		if d.GUID == nil {
			primaries++
		}
		return true
	}), 0, EnumCallbackA) == DD_OK)
	tt.Assert(primaries == 1)
	tt.Assert(e.Devices().Len() == 2)
}

func TestEngineEnumerateNested(t *testing.T) {
	t.Parallel()
	tt := toast.FromT(t)

	e := newEngineFixture(true).engine
	e.Init()
	defer e.Close()

	var inner atomic.Int32
	done := make(chan HRESULT, 1)
	go func() {
		done <- e.EnumerateDevices(EnumFunc(func(d *EnumDevice) bool {
			if d.GUID == nil {
				hr := e.EnumerateDevices(EnumFunc(func(*EnumDevice) bool {
					inner.Add(1)
					return true
				}), DDENUM_ATTACHEDSECONDARYDEVICES, EnumCallbackA)
				if hr != DD_OK {
					t.Errorf("nested enumeration: %v", hr)
				}
			}
			return true
		}), DDENUM_ATTACHEDSECONDARYDEVICES, EnumCallbackExA)
	}()

	select {
	case hr := <-done:
		tt.Assert(hr == DD_OK)
	case <-time.After(time.Second):
		t.Fatal("enumeration from a callback deadlocked")
	}
	tt.Assert(inner.Load() == 3)
}

func TestEngineEnumerateCacheUnderInternalLock(t *testing.T) {
	t.Parallel()
	tt := toast.FromT(t)

	e := newEngineFixture(true).engine
	e.Init()
	defer e.Close()

	primary := make(chan struct{})
	var adapters atomic.Int32
	done := make(chan HRESULT, 1)

	tt.CheckErr(e.Sync().WithInternalLock(func() {
		go func() {
			done <- e.EnumerateDevices(EnumFunc(func(d *EnumDevice) bool {
				if d.GUID == nil {
					close(primary)
				} else {
					adapters.Add(1)
				}
				return true
			}), DDENUM_ATTACHEDSECONDARYDEVICES, EnumCallbackA)
		}()

		// the primary device needs no GUID and is reported while we hold the lock
		select {
		case <-primary:
		case <-time.After(time.Second):
			t.Error("primary device not reported while the internal lock is held")
			return
		}
		time.Sleep(20 * time.Millisecond)
		tt.Assert(adapters.Load() == 0)
	}))

	select {
	case hr := <-done:
		tt.Assert(hr == DD_OK)
	case <-time.After(time.Second):
		t.Fatal("enumeration did not finish after the internal lock was released")
	}
	tt.Assert(adapters.Load() == 2)
}

func TestEngineTranslationParseCommand(t *testing.T) {
	t.Parallel()
	tt := toast.FromT(t)

	e := newEngineFixture(true).engine

	buf := make([]byte, 64)
	copy(buf, dp2(D3DDP2OP_VIEWPORTINFO, 0, 3))
	var next unsafe.Pointer
	tt.Assert(e.D3DParseUnknownCommand(unsafe.Pointer(&buf[0]), &next) == DD_OK)
	tt.Assert(next == unsafe.Pointer(&buf[52]))

	copy(buf, dp2(D3DDP2OP_RENDERSTATE, 0, 3))
	tt.Assert(e.D3DParseUnknownCommand(unsafe.Pointer(&buf[0]), &next) == DDERR_INVALIDPARAMS)
	tt.Assert(e.D3DParseUnknownCommand(nil, &next) == DDERR_INVALIDPARAMS)
}

func TestEngineTranslationClassObject(t *testing.T) {
	t.Parallel()
	tt := toast.FromT(t)

	e := newEngineFixture(true).engine

	var ppv uintptr
	tt.Assert(e.DllGetClassObject(&CLSID_DirectDraw, &IID_IClassFactory, nil) == E_POINTER)
	tt.Assert(e.DllGetClassObject(&CLSID_DirectDraw, &IID_IClassFactory, &ppv) == DD_OK)
	tt.Assert(ppv == 0xCF000)
	tt.Assert(e.DllGetClassObject(&CLSID_DirectDrawClipper, &IID_IClassFactory, &ppv) == DDERR_GENERIC)
}

func TestEnginePassthroughMissingSystem(t *testing.T) {
	t.Parallel()
	tt := toast.FromT(t)

	f := newEngineFixture(false)
	f.sys.fail[ModuleDDraw] = errors.New("The specified module could not be found.")
	e := f.engine

	var dd uintptr
	tt.Assert(e.AcquireDDThreadLock() == DDERR_UNSUPPORTED)
	tt.Assert(e.ReleaseDDThreadLock() == DDERR_UNSUPPORTED)
	tt.Assert(e.CompleteCreateSysmemSurface(1) == 0)
	tt.Assert(e.GetOLEThunkData(1) == 0)
	tt.Assert(e.DDInternalLock(1, 2) == 0xFFFFFFFF)
	tt.Assert(e.DDInternalUnlock(1) == 0xFFFFFFFF)
	tt.Assert(e.DirectDrawCreate(nil, &dd, 0) == DDERR_UNSUPPORTED)
	tt.Assert(e.DirectDrawCreateEx(nil, &dd, &IID_IDirectDraw7, 0) == DDERR_UNSUPPORTED)
	tt.Assert(e.DirectDrawCreateClipper(0, &dd, 0) == DDERR_UNSUPPORTED)
	tt.Assert(e.DirectDrawEnumerateW(0x401000, 0) == DDERR_UNSUPPORTED)
	tt.Assert(e.DllGetClassObject(&CLSID_DirectDraw, &IID_IClassFactory, &dd) == DDERR_UNSUPPORTED)
	tt.Assert(e.SetAppCompatData(1, 0) == DDERR_GENERIC)

	var next unsafe.Pointer
	buf := dp2(D3DDP2OP_VIEWPORTINFO, 0, 1)
	tt.Assert(e.D3DParseUnknownCommand(unsafe.Pointer(&buf[0]), &next) == D3DERR_COMMAND_UNPARSED)

	tt.Assert(dd == 0)
	tt.Assert(f.sys.loadCount(ModuleDDraw) == 1)
}

func TestEnginePassthroughForwards(t *testing.T) {
	t.Parallel()
	tt := toast.FromT(t)

	f := newEngineFixture(false)
	e := f.engine
	e.Config().DXPrimaryEmulation[AppCompatLockColorkey] = true
	e.Config().DXPrimaryEmulation[AppCompatStripBorderStyle] = true
	e.Config().LockColorkey = 0xABCDEF

	var compat [][2]uintptr
	f.sys.export(ModuleDDraw, "SetAppCompatData", func(args ...uintptr) uintptr {
		compat = append(compat, [2]uintptr{args[0], args[1]})
		return 0
	})
	// native exports see addresses only, the fakes compare them and store
	// the result through the variable they belong to
	var dd uintptr
	out := uintptr(unsafe.Pointer(&dd))
	var riids []uintptr
	f.sys.export(ModuleDDraw, "DirectDrawCreateEx", func(args ...uintptr) uintptr {
		riids = append(riids, args[2])
		if args[1] == out {
			dd = 0xA000
		}
		return 0
	})
	f.sys.export(ModuleDDraw, "DirectDrawCreate", func(args ...uintptr) uintptr {
		if args[1] == out {
			dd = 0xB000
		}
		return 0
	})
	f.sys.export(ModuleDDraw, "DDInternalLock", func(args ...uintptr) uintptr {
		return args[0] + args[1]
	})
	f.sys.export(ModuleDDraw, "DirectDrawEnumerateW", hresultFunc(DD_OK))
	f.sys.export(ModuleDDraw, "AcquireDDThreadLock", hresultFunc(DD_OK))

	tt.Assert(e.DirectDrawCreateEx(nil, &dd, &IID_IDirectDraw4, 0) == DD_OK)
	tt.Assert(len(riids) == 1 && riids[0] == uintptr(unsafe.Pointer(&IID_IDirectDraw7)))
	tt.Assert(len(compat) == 2)
	tt.Assert(compat[0] == [2]uintptr{AppCompatLockColorkey, 0xABCDEF})
	tt.Assert(compat[1] == [2]uintptr{AppCompatStripBorderStyle, 0})

	w, ok := e.Proxies().Lookup(0xA000)
	tt.Assert(ok && w.Version == Version4)
	// passthrough views are the system object itself
	tt.Assert(dd == 0xA000)

	// a second creation returning the same object reuses the wrapper
	tt.Assert(e.DirectDrawCreateEx(nil, &dd, &IID_IDirectDraw7, 0) == DD_OK)
	w2, _ := e.Proxies().Lookup(0xA000)
	tt.Assert(w2 == w && w.RefCount() == 2)
	tt.Assert(e.Proxies().Len() == 1)

	tt.Assert(e.DirectDrawCreate(nil, &dd, 0) == DD_OK)
	tt.Assert(dd == 0xB000)
	tt.Assert(e.Proxies().Len() == 2)
	tt.Assert(len(compat) == 6)

	tt.Assert(e.DDInternalLock(40, 2) == 42)
	tt.Assert(e.DirectDrawEnumerateW(0x401000, 0) == DD_OK)
	// the system lock is used, not ours
	tt.Assert(e.AcquireDDThreadLock() == DD_OK)
	tt.Assert(e.DSoundHelp(0, 0, 0) == DDERR_UNSUPPORTED)
}

func TestEnginePassthroughClassObject(t *testing.T) {
	t.Parallel()
	tt := toast.FromT(t)

	f := newEngineFixture(false)
	e := f.engine
	var ppv uintptr
	f.sys.export(ModuleDDraw, "DllGetClassObject", func(args ...uintptr) uintptr {
		if args[2] == uintptr(unsafe.Pointer(&ppv)) {
			ppv = 0xF000
		}
		return 0
	})

	tt.Assert(e.DllGetClassObject(&CLSID_DirectDraw7, &IID_IClassFactory, &ppv) == DD_OK)
	tt.Assert(ppv == 0xF001)
	tt.Assert(f.dispatcher.factories[0xF000] == CLSID_DirectDraw7)

	tt.Assert(e.DllGetClassObject(&CLSID_DirectDraw, &IID_IUnknown, &ppv) == DD_OK)
	tt.Assert(ppv == 0xF002)
	tt.Assert(len(f.dispatcher.wrapped) == 1 && f.dispatcher.wrapped[0] == IID_IUnknown)
}

func TestPinArguments(t *testing.T) {
	t.Parallel()
	tt := toast.FromT(t)

	var pinner runtime.Pinner
	defer pinner.Unpin()

	var guid *GUID
	tt.Assert(pin(&pinner, guid) == 0)
	out := new(uintptr)
	tt.Assert(pin(&pinner, out) == uintptr(unsafe.Pointer(out)))
	tt.Assert(pin(&pinner, &IID_IDirectDraw7) == uintptr(unsafe.Pointer(&IID_IDirectDraw7)))
}
