package ddraw

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// AppCompatData types accepted by SetAppCompatData (DXPrimaryEmulation).
const (
	AppCompatLockEmulation           = 1
	AppCompatBltEmulation            = 2
	AppCompatForceLockNoWindow       = 3
	AppCompatForceBltNoWindow        = 4
	AppCompatLockColorkey            = 5
	AppCompatFullscreenWithDWM       = 6
	AppCompatDisableLockEmulation    = 7
	AppCompatEnableOverlays          = 8
	AppCompatDisableSurfaceLocks     = 9
	AppCompatRedirectPrimarySurfBlts = 10
	AppCompatStripBorderStyle        = 11
	AppCompatDisableMaxWindowedMode  = 12

	AppCompatMax = AppCompatDisableMaxWindowedMode
)

var appCompatNames = [AppCompatMax + 1]string{
	AppCompatLockEmulation:           "LockEmulation",
	AppCompatBltEmulation:            "BltEmulation",
	AppCompatForceLockNoWindow:       "ForceLockNoWindow",
	AppCompatForceBltNoWindow:        "ForceBltNoWindow",
	AppCompatLockColorkey:            "LockColorkey",
	AppCompatFullscreenWithDWM:       "FullscreenWithDWM",
	AppCompatDisableLockEmulation:    "DisableLockEmulation",
	AppCompatEnableOverlays:          "EnableOverlays",
	AppCompatDisableSurfaceLocks:     "DisableSurfaceLocks",
	AppCompatRedirectPrimarySurfBlts: "RedirectPrimarySurfBlts",
	AppCompatStripBorderStyle:        "StripBorderStyle",
	AppCompatDisableMaxWindowedMode:  "DisableMaxWindowedMode",
}

// Config holds the switches the engine reads on every call. It is filled once
// at load time and treated as read only afterwards.
type Config struct {
	// Dd7to9 selects translation mode, otherwise every export is forwarded
	// to the system ddraw.dll.
	Dd7to9 bool

	// DXPrimaryEmulation[x] pushes AppCompatData type x (1..12) to the system
	// before every passthrough DirectDrawCreate(Ex). Index 0 is unused.
	DXPrimaryEmulation [AppCompatMax + 1]bool
	// LockColorkey is the value pushed with AppCompatLockColorkey.
	LockColorkey uint32

	// SetSwapEffectShim is handed to the Direct3D9 backend before translation
	// mode creates a root object. Values >= 2 leave the backend untouched.
	SetSwapEffectShim uint32

	// HookGDI and HookKernel32 gate the import rebinding done by Engine.Init.
	// Kernel32 rebinding is opt in, it traces allocator and thread calls.
	HookGDI      bool
	HookKernel32 bool

	LogLevel slog.Level
}

// NewConfig returns the defaults: passthrough mode, no compatibility flags,
// GDI hooks only.
func NewConfig() *Config {
	return &Config{
		SetSwapEffectShim: 2,
		HookGDI:           true,
		LogLevel:          slog.LevelInfo,
	}
}

// IsAppCompatDataSet is true when at least one DXPrimaryEmulation flag is on.
func (c *Config) IsAppCompatDataSet() bool {
	for x := 1; x <= AppCompatMax; x++ {
		if c.DXPrimaryEmulation[x] {
			return true
		}
	}
	return false
}

// LoadConfig reads an ini file (usually ddraw.ini beside the DLL) over the
// defaults. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewConfig(), nil
		}
		return nil, err
	}
	defer f.Close()

	c, err := ParseConfig(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// ParseConfig reads "key = value" lines over the defaults. Sections, blank
// lines and ';' or '#' comments are skipped, unknown keys are ignored.
func ParseConfig(r io.Reader) (*Config, error) {
	c := NewConfig()
	sc := bufio.NewScanner(r)
	for line := 1; sc.Scan(); line++ {
		s := strings.TrimSpace(sc.Text())
		if s == "" || s[0] == ';' || s[0] == '#' || s[0] == '[' {
			continue
		}
		key, value, ok := strings.Cut(s, "=")
		if !ok {
			return nil, fmt.Errorf("line %d: missing '='", line)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if i := strings.IndexAny(value, ";#"); i >= 0 {
			value = strings.TrimSpace(value[:i])
		}
		if err := c.set(key, value); err != nil {
			return nil, fmt.Errorf("line %d: %s: %w", line, key, err)
		}
	}
	return c, sc.Err()
}

func (c *Config) set(key, value string) (err error) {
	switch {
	case strings.EqualFold(key, "Dd7to9"):
		c.Dd7to9, err = parseBool(value)
	case strings.EqualFold(key, "LockColorkey"):
		// The key doubles as the LockColorkey flag: any non zero value enables
		// the flag and is the value pushed with it.
		var v uint64
		if v, err = strconv.ParseUint(value, 0, 32); err == nil {
			c.LockColorkey = uint32(v)
			c.DXPrimaryEmulation[AppCompatLockColorkey] = v != 0
		}
	case strings.EqualFold(key, "SetSwapEffectShim"):
		var v uint64
		if v, err = strconv.ParseUint(value, 0, 32); err == nil {
			c.SetSwapEffectShim = uint32(v)
		}
	case strings.EqualFold(key, "HookGDI"):
		c.HookGDI, err = parseBool(value)
	case strings.EqualFold(key, "HookKernel32"):
		c.HookKernel32, err = parseBool(value)
	case strings.EqualFold(key, "LogLevel"):
		err = c.LogLevel.UnmarshalText([]byte(value))
	default:
		for x := 1; x <= AppCompatMax; x++ {
			if strings.EqualFold(key, appCompatNames[x]) {
				c.DXPrimaryEmulation[x], err = parseBool(value)
				return
			}
		}
	}
	return
}

func parseBool(s string) (bool, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n != 0, nil
	}
	return strconv.ParseBool(s)
}
