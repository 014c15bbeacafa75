package ddraw

import (
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

// critSection stands in for a CRITICAL_SECTION: the owning thread may enter
// it recursively and must leave it as many times. Unlike sync.Mutex, a release
// by a thread that does not own it is reported instead of crashing the host
// process.
type critSection struct {
	sem chan struct{}
	id  func() uint64

	mu    sync.Mutex // guards owner and depth
	owner uint64
	depth int
}

func newCritSection(id func() uint64) *critSection {
	return &critSection{
		sem: make(chan struct{}, 1),
		id:  id,
	}
}

// Lock blocks until the calling thread owns the section, without timeout.
func (c *critSection) Lock() {
	c.enter(c.id())
}

// Unlock leaves the section once, a release by a non owner is a no-op.
func (c *critSection) Unlock() {
	c.leave(c.id())
}

func (c *critSection) enter(tid uint64) {
	c.mu.Lock()
	if c.depth > 0 && c.owner == tid {
		c.depth++
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	c.sem <- struct{}{}

	c.mu.Lock()
	c.owner, c.depth = tid, 1
	c.mu.Unlock()
}

// leave drops one level of ownership held by tid. It returns false when tid
// does not own the section.
func (c *critSection) leave(tid uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.depth == 0 || c.owner != tid {
		return false
	}
	c.depth--
	if c.depth == 0 {
		c.owner = 0
		<-c.sem
	}
	return true
}

// held returns the owner and the recursion depth.
func (c *critSection) held() (owner uint64, depth int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.owner, c.depth
}

func getGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	id := strings.Fields(strings.TrimPrefix(string(buf[:n]), "goroutine "))[0]
	val, _ := strconv.ParseUint(id, 10, 64)
	return val
}

// SyncState owns the two process wide locks of the engine. The thread lock is
// the one applications take through AcquireDDThreadLock, the internal lock
// guards engine structures and is never handed out.
//
// Both are created by Init and retired by Close; while uninitialized every
// acquire/release fails with DDERR_UNSUPPORTED instead of blocking.
// Ownership is per thread: ThreadID identifies the caller, nil selects the
// OS thread id on Windows.
type SyncState struct {
	ThreadID func() uint64

	initialized atomic.Bool
	mu          sync.Mutex // serializes Init/Close
	thread      *critSection
	internal    *critSection
}

func (s *SyncState) threadID() uint64 {
	if s.ThreadID != nil {
		return s.ThreadID()
	}
	return currentThreadID()
}

// Init creates both locks. It is idempotent, the first caller wins.
func (s *SyncState) Init() {
	if s.initialized.Load() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized.Load() {
		return
	}
	// Sections survive Close so a waiter still queued on them after a
	// re-Init cannot end up holding a stale one.
	if s.thread == nil {
		s.thread = newCritSection(s.threadID)
		s.internal = newCritSection(s.threadID)
	}
	s.initialized.Store(true)
}

// Close takes both locks, so no holder is left inside a critical section,
// then marks the state uninitialized. Callers blocked on the thread lock at
// that point wake up to DDERR_UNSUPPORTED.
func (s *SyncState) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized.Load() {
		return
	}
	s.thread.Lock()
	s.internal.Lock()
	s.initialized.Store(false)
	s.internal.Unlock()
	s.thread.Unlock()
}

// IsInitialized reports whether Init ran and Close did not.
func (s *SyncState) IsInitialized() bool {
	return s.initialized.Load()
}

// AcquireThreadLock enters the thread lock, blocking indefinitely. The owner
// may acquire it again, each acquire needs its own release.
func (s *SyncState) AcquireThreadLock() error {
	_, err := s.acquire(func() *critSection { return s.thread })
	return err
}

// ReleaseThreadLock leaves the thread lock. Releasing a lock the calling
// thread does not hold returns ErrNotLocked.
func (s *SyncState) ReleaseThreadLock() error {
	if !s.initialized.Load() {
		return ErrUnsupported
	}
	if !s.thread.leave(s.threadID()) {
		return ErrNotLocked
	}
	return nil
}

// ThreadLock returns the thread lock, nil while uninitialized.
func (s *SyncState) ThreadLock() sync.Locker {
	if !s.initialized.Load() {
		return nil
	}
	return s.thread
}

// InternalLock returns the internal lock, nil while uninitialized.
func (s *SyncState) InternalLock() sync.Locker {
	if !s.initialized.Load() {
		return nil
	}
	return s.internal
}

// WithInternalLock runs fn while holding the internal lock. fn may take the
// internal lock again on the same thread.
func (s *SyncState) WithInternalLock(fn func()) error {
	tid, err := s.acquire(func() *critSection { return s.internal })
	if err != nil {
		return err
	}
	defer s.internal.leave(tid)
	fn()
	return nil
}

func (s *SyncState) acquire(lock func() *critSection) (uint64, error) {
	if !s.initialized.Load() {
		return 0, ErrUnsupported
	}
	tid := s.threadID()
	l := lock()
	l.enter(tid)
	// Close may have run while we were queued.
	if !s.initialized.Load() {
		l.leave(tid)
		return 0, ErrUnsupported
	}
	return tid, nil
}
