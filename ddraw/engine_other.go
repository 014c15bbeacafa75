//go:build !windows
// +build !windows

package ddraw

// There is no system ddraw.dll to fall back on: without injected
// collaborators every passthrough call is unsupported.
func (o *Options) setPlatformDefaults() {}

func defaultDirect3D(*SymbolTable) Direct3DCreator {
	return nil
}
