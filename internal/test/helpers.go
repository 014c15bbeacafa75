// Package test holds assertion helpers for tests that need formatted
// failure messages, mainly when checking status codes returned by exports.
package test

import (
	"errors"
	"testing"
)

// T wraps *testing.T.
type T struct {
	*testing.T
}

func FromT(t *testing.T) *T {
	t.Helper()
	return &T{t}
}

// Assert fails the test if condition is false, printing args when given.
func (t *T) Assert(condition bool, args ...any) {
	t.Helper()
	if condition {
		return
	}
	if len(args) == 0 {
		t.Fatal("assertion failed")
	}
	t.Fatal(args...)
}

// Assertf fails the test if condition is false, with a formatted message.
func (t *T) Assertf(condition bool, format string, args ...any) {
	t.Helper()
	if !condition {
		t.Fatalf(format, args...)
	}
}

func (t *T) CheckErr(err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// ExpectErr fails the test unless errors.Is(err, expected).
func (t *T) ExpectErr(err, expected error) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error '%v', but got nil", expected)
	}
	if !errors.Is(err, expected) {
		t.Fatalf("expected error '%v', but got '%v'", expected, err)
	}
}

// ExpectCode compares two 32 bit status codes and prints both in hex.
func (t *T) ExpectCode(name string, got, want uint32) {
	t.Helper()
	if got != want {
		t.Fatalf("%s: got 0x%08X, want 0x%08X", name, got, want)
	}
}

// Equal fails the test if got != want.
func Equal[V comparable](t *T, got, want V) {
	t.Helper()
	if got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
}
