// Package ddraw implements the DirectDraw entry points of ddraw.dll.
//
// An Engine serves every legacy export in one of two modes. In passthrough
// mode calls are forwarded to the system ddraw.dll, loaded lazily from the
// system directory, and the objects it returns are tracked in a ProxyTable.
// In translation mode (Config.Dd7to9) root objects come from a Direct3D9
// backed Translator, display devices are enumerated from the Direct3D9
// adapter list and the engine answers the remaining exports itself.
//
// Basic usage:
//
//	cfg, err := ddraw.LoadConfig("ddraw.ini")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	e := ddraw.NewEngine(cfg, ddraw.Options{Translator: backend})
//	e.Init()
//	defer e.Close()
//
//	var dd uintptr
//	if hr := e.DirectDrawCreateEx(nil, &dd, &ddraw.IID_IDirectDraw7, 0); hr.Failed() {
//	    log.Fatal(hr)
//	}
//
// The cmd/ddraw package builds the engine into a drop-in ddraw.dll.
package ddraw
