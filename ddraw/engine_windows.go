//go:build windows
// +build windows

package ddraw

func (o *Options) setPlatformDefaults() {
	if o.Loader == nil {
		o.Loader = SystemLoader{}
	}
	if o.Patcher == nil {
		o.Patcher = IATPatcher{}
	}
	if o.Hooks == nil {
		o.Hooks = DefaultHooks
	}
	if o.NativeObject == nil {
		o.NativeObject = NativeUnknown
	}
	if o.NativeCallback == nil {
		o.NativeCallback = NewNativeEnumCallback
	}
}

func defaultDirect3D(d3d9 *SymbolTable) Direct3DCreator {
	return Direct3D9Creator(d3d9)
}
