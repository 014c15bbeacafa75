package ddraw

// ResultKind is the return type of an export.
type ResultKind uint8

const (
	ResultHRESULT ResultKind = iota
	ResultDWORD
)

func (k ResultKind) String() string {
	if k == ResultDWORD {
		return "DWORD"
	}
	return "HRESULT"
}

// Export describes a ddraw.dll entry point. Failed is the value returned when
// the call cannot be served at all.
type Export struct {
	Name   string
	Result ResultKind
	Failed uint32
}

// LookupExport returns the entry point named name.
func LookupExport(name string) (Export, bool) {
	lo, hi := 0, len(Exports)
	for lo < hi {
		m := int(uint(lo+hi) >> 1)
		if Exports[m].Name < name {
			lo = m + 1
		} else {
			hi = m
		}
	}
	if lo < len(Exports) && Exports[lo].Name == name {
		return Exports[lo], true
	}
	return Export{}, false
}

// FailedResult is the failure value of the export named name, or
// DDERR_UNSUPPORTED for an unknown name.
func FailedResult(name string) uint32 {
	if e, ok := LookupExport(name); ok {
		return e.Failed
	}
	return uint32(DDERR_UNSUPPORTED)
}
