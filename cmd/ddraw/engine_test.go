//go:build windows && amd64
// +build windows,amd64

package main

import (
	"testing"

	"github.com/0xrawsec/toast"
	"github.com/tekert/golang-ddraw/ddraw"
)

func exportPanicking(name string) (r uint32) {
	defer guard(name, &r)
	panic("boom")
}

func TestGuardReturnsFailedResult(t *testing.T) {
	tt := toast.FromT(t)

	tt.Assert(exportPanicking("DirectDrawCreate") == uint32(ddraw.DDERR_UNSUPPORTED))
	tt.Assert(exportPanicking("DDInternalLock") == ddraw.FailedResult("DDInternalLock"))
	tt.Assert(exportPanicking("DDInternalLock") != uint32(ddraw.DDERR_UNSUPPORTED))
}

func TestGuardKeepsResult(t *testing.T) {
	tt := toast.FromT(t)

	r := func() (r uint32) {
		defer guard("DirectDrawCreate", &r)
		return 7
	}()
	tt.Assert(r == 7)
}
