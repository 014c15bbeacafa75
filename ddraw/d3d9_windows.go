//go:build windows
// +build windows

package ddraw

import (
	"fmt"
	"unsafe"
)

// IDirect3D9 vtable slots
const (
	vtblD3D9GetAdapterCount      = 4
	vtblD3D9GetAdapterIdentifier = 5
	vtblD3D9GetAdapterMonitor    = 15
)

/*
typedef struct _D3DADAPTER_IDENTIFIER9 {
	char          Driver[MAX_DEVICE_IDENTIFIER_STRING];
	char          Description[MAX_DEVICE_IDENTIFIER_STRING];
	char          DeviceName[32];
	LARGE_INTEGER DriverVersion;
	DWORD         VendorId;
	DWORD         DeviceId;
	DWORD         SubSysId;
	DWORD         Revision;
	GUID          DeviceIdentifier;
	DWORD         WHQLLevel;
} D3DADAPTER_IDENTIFIER9;
*/
type d3dAdapterIdentifier9 struct {
	Driver           [512]byte
	Description      [512]byte
	DeviceName       [32]byte
	DriverVersion    int64
	VendorID         uint32
	DeviceID         uint32
	SubSysID         uint32
	Revision         uint32
	DeviceIdentifier GUID
	WHQLLevel        uint32
}

// cstring returns the bytes of b up to the first NUL, in the ANSI code page.
func cstring(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// direct3D9 is a native IDirect3D9.
type direct3D9 struct {
	obj uintptr
}

func (d *direct3D9) AdapterCount() uint32 {
	return uint32(comCall(d.obj, vtblD3D9GetAdapterCount))
}

func (d *direct3D9) AdapterIdentifier(adapter uint32) (AdapterIdentifier, error) {
	var id d3dAdapterIdentifier9
	hr := HRESULT(int32(uint32(comCall(d.obj, vtblD3D9GetAdapterIdentifier,
		uintptr(adapter), 0, uintptr(unsafe.Pointer(&id))))))
	if hr.Failed() {
		return AdapterIdentifier{}, fmt.Errorf("GetAdapterIdentifier(%d): %w", adapter, hr)
	}
	return AdapterIdentifier{
		Driver:           cstring(id.Driver[:]),
		Description:      cstring(id.Description[:]),
		DeviceName:       cstring(id.DeviceName[:]),
		VendorID:         id.VendorID,
		DeviceID:         id.DeviceID,
		DeviceIdentifier: id.DeviceIdentifier,
	}, nil
}

func (d *direct3D9) AdapterMonitor(adapter uint32) uintptr {
	return comCall(d.obj, vtblD3D9GetAdapterMonitor, uintptr(adapter))
}

func (d *direct3D9) Release() {
	comCall(d.obj, vtblRelease)
}

// Direct3D9Creator returns the factory of the d3d9 table's Direct3DCreate9.
func Direct3D9Creator(d3d9 *SymbolTable) Direct3DCreator {
	return func() (Direct3D, error) {
		obj, err := d3d9.Proc("Direct3DCreate9").Call(D3D_SDK_VERSION)
		if err != nil {
			return nil, err
		}
		if obj == 0 {
			return nil, fmt.Errorf("Direct3DCreate9 returned nil: %w", ErrUnsupported)
		}
		return &direct3D9{obj: obj}, nil
	}
}
