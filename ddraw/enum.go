package ddraw

import (
	"fmt"
	"log/slog"

	"github.com/tekert/golang-ddraw/ddraw/pkg/hexf"
	"github.com/tekert/golang-ddraw/ddraw/pkg/utf16f"
)

// EnumType selects the DirectDrawEnumerate callback ABI.
type EnumType uint8

const (
	EnumCallbackA EnumType = iota
	EnumCallbackW
	EnumCallbackExA
	EnumCallbackExW
)

func (t EnumType) String() string {
	switch t {
	case EnumCallbackA:
		return "LPDDENUMCALLBACKA"
	case EnumCallbackW:
		return "LPDDENUMCALLBACKW"
	case EnumCallbackExA:
		return "LPDDENUMCALLBACKEXA"
	case EnumCallbackExW:
		return "LPDDENUMCALLBACKEXW"
	}
	return fmt.Sprintf("EnumType(%d)", uint8(t))
}

// Wide reports whether the callback takes UTF-16 strings.
func (t EnumType) Wide() bool {
	return t == EnumCallbackW || t == EnumCallbackExW
}

// Extended reports whether the callback takes a monitor handle.
func (t EnumType) Extended() bool {
	return t == EnumCallbackExA || t == EnumCallbackExW
}

// DirectDrawEnumerateEx flags
const (
	DDENUM_ATTACHEDSECONDARYDEVICES = 0x00000001
	DDENUM_DETACHEDSECONDARYDEVICES = 0x00000002
	DDENUM_NONDISPLAYDEVICES        = 0x00000004
)

// Strings of the synthetic default device.
const (
	PrimaryDeviceDescription = "Primary Display Driver"
	PrimaryDeviceName        = "display"
)

// Sizes of the wide buffers handed to wide callbacks, in UTF-16 units.
const (
	wideNameLen        = 32
	wideDescriptionLen = 128
)

// AdapterIdentifier is the part of D3DADAPTER_IDENTIFIER9 the enumerator uses.
type AdapterIdentifier struct {
	Driver           string
	Description      string
	DeviceName       string
	VendorID         uint32
	DeviceID         uint32
	DeviceIdentifier GUID
}

// Direct3D is the modern graphics factory the enumerator walks.
type Direct3D interface {
	AdapterCount() uint32
	AdapterIdentifier(adapter uint32) (AdapterIdentifier, error)
	// AdapterMonitor returns the HMONITOR of the adapter, 0 if unknown.
	AdapterMonitor(adapter uint32) uintptr
	Release()
}

// Direct3DCreator creates a factory for one enumeration pass.
type Direct3DCreator func() (Direct3D, error)

// EnumDevice is one callback invocation. GUID is nil for the primary device.
// Wide callbacks read WName and WDescription, the others Name and Description.
type EnumDevice struct {
	GUID         *GUID
	Description  string
	Name         string
	WDescription [wideDescriptionLen]uint16
	WName        [wideNameLen]uint16
	Monitor      uintptr
}

// EnumCallback is the application callback. Invoke returns false to cancel
// (DDENUMRET_CANCEL).
type EnumCallback interface {
	Invoke(d *EnumDevice) bool
}

// EnumFunc adapts a Go function to EnumCallback.
type EnumFunc func(d *EnumDevice) bool

func (f EnumFunc) Invoke(d *EnumDevice) bool {
	return f(d)
}

// Enumerator re-synthesizes legacy device enumeration from a Direct3D adapter
// list, assigning legacy GUIDs through a DeviceCache.
type Enumerator struct {
	create Direct3DCreator
	cache  *DeviceCache
	// cacheLock wraps each GUID assignment, callbacks run outside of it.
	cacheLock func(func())
}

func NewEnumerator(create Direct3DCreator, cache *DeviceCache) *Enumerator {
	return &Enumerator{
		create: create,
		cache:  cache,
	}
}

func (e *Enumerator) locked(fn func()) {
	if e.cacheLock == nil {
		fn()
		return
	}
	e.cacheLock(fn)
}

// Enumerate invokes cb for the primary device and, when flags request attached
// secondary devices, for every adapter. A callback cancel is a successful
// early stop. Failing to identify an adapter aborts the walk with
// ErrUnsupported. cb is called without any engine lock held, so it may
// enumerate again.
func (e *Enumerator) Enumerate(cb EnumCallback, flags uint32, typ EnumType) error {
	if cb == nil {
		return fmt.Errorf("nil enumeration callback: %w", ErrInvalidParams)
	}
	if typ > EnumCallbackExW {
		return fmt.Errorf("%s: %w", typ, ErrUnsupported)
	}
	if e.create == nil {
		return fmt.Errorf("no Direct3D factory: %w", ErrUnsupported)
	}

	d3d, err := e.create()
	if err != nil || d3d == nil {
		slog.Error("failed to create Direct3D9 object", "error", err)
		return fmt.Errorf("create Direct3D9: %w", ErrUnsupported)
	}
	defer d3d.Release()

	var count int
	if flags&DDENUM_ATTACHEDSECONDARYDEVICES != 0 {
		count = int(d3d.AdapterCount())
	}

	var dev EnumDevice
	var guid, last GUID

	for adapter := -1; adapter < count; adapter++ {
		dev = EnumDevice{}
		if adapter == -1 {
			dev.Description = PrimaryDeviceDescription
			dev.Name = PrimaryDeviceName
		} else {
			id, err := d3d.AdapterIdentifier(uint32(adapter))
			if err != nil {
				return fmt.Errorf("adapter %d identifier: %w: %w", adapter, ErrUnsupported, err)
			}

			e.locked(func() {
				guid = e.cache.Assign(id.DeviceName, id.Description, id.DeviceIdentifier, last, uint32(adapter))
			})
			last = id.DeviceIdentifier
			dev.GUID = &guid
			dev.Description = id.Description
			dev.Name = id.DeviceName

			if typ.Extended() {
				dev.Monitor = d3d.AdapterMonitor(uint32(adapter))
			}
			LogTrace("enumerated adapter", "adapter", adapter, "guid", guid.String(),
				"name", id.DeviceName, "monitor", hexf.Ptr(dev.Monitor))
		}

		if typ.Wide() {
			utf16f.ANSIInto(dev.WName[:], []byte(dev.Name))
			utf16f.ANSIInto(dev.WDescription[:], []byte(dev.Description))
		}

		if !cb.Invoke(&dev) {
			break
		}
	}

	return nil
}
