package ddraw

import (
	"log/slog"
)

// AppCompatSetter is the system SetAppCompatData.
type AppCompatSetter func(typ, value uint32) HRESULT

// AppCompatName returns the toggle name of an AppCompatData type.
func AppCompatName(typ uint32) string {
	if typ == 0 || typ > AppCompatMax {
		return ""
	}
	return appCompatNames[typ]
}

// SetAllAppCompatData pushes every enabled DXPrimaryEmulation toggle, in type
// order. LockColorkey carries cfg.LockColorkey, the others push 0. It returns
// how many toggles were pushed.
func SetAllAppCompatData(cfg *Config, set AppCompatSetter) int {
	if cfg == nil || set == nil {
		return 0
	}
	n := 0
	for x := uint32(1); x <= AppCompatMax; x++ {
		if !cfg.DXPrimaryEmulation[x] {
			continue
		}
		var value uint32
		if x == AppCompatLockColorkey {
			value = cfg.LockColorkey
		}
		slog.Info("SetAppCompatData", "type", x, "name", appCompatNames[x], "value", value)
		if hr := set(x, value); hr.Failed() {
			slog.Warn("SetAppCompatData failed", "type", x, "error", hr)
		}
		n++
	}
	return n
}
