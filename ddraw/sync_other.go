//go:build !windows
// +build !windows

package ddraw

// Without native callers every entry comes from Go, a goroutine is the thread.
func currentThreadID() uint64 {
	return getGoroutineID()
}
