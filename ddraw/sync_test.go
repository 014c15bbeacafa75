package ddraw

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/0xrawsec/toast"
)

func TestSyncStateUninitialized(t *testing.T) {
	t.Parallel()
	tt := toast.FromT(t)

	s := SyncState{ThreadID: getGoroutineID}

	done := make(chan error, 1)
	go func() { done <- s.AcquireThreadLock() }()
	select {
	case err := <-done:
		tt.ExpectErr(err, ErrUnsupported)
	case <-time.After(time.Second):
		t.Fatal("acquire before Init must not block")
	}

	tt.ExpectErr(s.ReleaseThreadLock(), ErrUnsupported)
	tt.Assert(s.ThreadLock() == nil)
	tt.Assert(s.InternalLock() == nil)
	tt.ExpectErr(s.WithInternalLock(func() {}), ErrUnsupported)
}

func TestSyncStateAcquireRelease(t *testing.T) {
	t.Parallel()
	tt := toast.FromT(t)

	s := SyncState{ThreadID: getGoroutineID}
	s.Init()
	s.Init() // idempotent
	tt.Assert(s.IsInitialized())

	tt.CheckErr(s.AcquireThreadLock())

	var entered atomic.Bool
	go func() {
		if s.AcquireThreadLock() == nil {
			entered.Store(true)
			s.ReleaseThreadLock()
		}
	}()
	time.Sleep(50 * time.Millisecond)
	tt.Assert(!entered.Load())

	tt.CheckErr(s.ReleaseThreadLock())
	deadline := time.Now().Add(time.Second)
	for !entered.Load() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	tt.Assert(entered.Load())
}

func TestSyncStateReleaseNotLocked(t *testing.T) {
	t.Parallel()
	tt := toast.FromT(t)

	s := SyncState{ThreadID: getGoroutineID}
	s.Init()
	tt.ExpectErr(s.ReleaseThreadLock(), ErrNotLocked)
}

func TestSyncStateCloseWaitsForHolders(t *testing.T) {
	t.Parallel()
	tt := toast.FromT(t)

	s := SyncState{ThreadID: getGoroutineID}
	s.Init()

	var ran atomic.Bool
	tt.CheckErr(s.WithInternalLock(func() { ran.Store(true) }))
	tt.Assert(ran.Load())

	tt.CheckErr(s.AcquireThreadLock())
	closed := make(chan struct{})
	go func() {
		s.Close()
		close(closed)
	}()

	select {
	case <-closed:
		t.Fatal("Close must wait for the thread lock holder")
	case <-time.After(50 * time.Millisecond):
	}

	tt.CheckErr(s.ReleaseThreadLock())
	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("Close did not complete after release")
	}

	tt.Assert(!s.IsInitialized())
	tt.ExpectErr(s.AcquireThreadLock(), ErrUnsupported)

	// re-Init is allowed and works again
	s.Init()
	tt.CheckErr(s.AcquireThreadLock())
	tt.CheckErr(s.ReleaseThreadLock())
}

func TestSyncStateWaiterWakesUnsupported(t *testing.T) {
	t.Parallel()
	tt := toast.FromT(t)

	s := SyncState{ThreadID: getGoroutineID}
	s.Init()
	tt.CheckErr(s.AcquireThreadLock())

	// Close queues first, the waiter second: the waiter only gets the section
	// after Close retired it.
	closed := make(chan struct{})
	go func() {
		s.Close()
		close(closed)
	}()
	time.Sleep(20 * time.Millisecond)

	waiter := make(chan error, 1)
	go func() { waiter <- s.AcquireThreadLock() }()
	time.Sleep(20 * time.Millisecond)
	tt.CheckErr(s.ReleaseThreadLock())

	<-closed
	select {
	case err := <-waiter:
		tt.ExpectErr(err, ErrUnsupported)
	case <-time.After(time.Second):
		t.Fatal("queued waiter never returned")
	}
}

func TestSyncStateRecursiveAcquire(t *testing.T) {
	t.Parallel()
	tt := toast.FromT(t)

	s := SyncState{ThreadID: getGoroutineID}
	s.Init()

	tt.CheckErr(s.AcquireThreadLock())
	tt.CheckErr(s.AcquireThreadLock())
	owner, depth := s.thread.held()
	tt.Assert(owner == getGoroutineID() && depth == 2)

	var entered atomic.Bool
	go func() {
		if s.AcquireThreadLock() == nil {
			entered.Store(true)
			s.ReleaseThreadLock()
		}
	}()

	// one release is not enough to hand the lock over
	tt.CheckErr(s.ReleaseThreadLock())
	time.Sleep(20 * time.Millisecond)
	tt.Assert(!entered.Load())

	tt.CheckErr(s.ReleaseThreadLock())
	deadline := time.Now().Add(time.Second)
	for !entered.Load() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	tt.Assert(entered.Load())
	tt.ExpectErr(s.ReleaseThreadLock(), ErrNotLocked)
}

func TestSyncStateReleaseByOtherThread(t *testing.T) {
	t.Parallel()
	tt := toast.FromT(t)

	s := SyncState{ThreadID: getGoroutineID}
	s.Init()
	tt.CheckErr(s.AcquireThreadLock())

	released := make(chan error, 1)
	go func() { released <- s.ReleaseThreadLock() }()
	tt.ExpectErr(<-released, ErrNotLocked)

	// still held by this goroutine
	owner, depth := s.thread.held()
	tt.Assert(owner == getGoroutineID() && depth == 1)
	tt.CheckErr(s.ReleaseThreadLock())
	_, depth = s.thread.held()
	tt.Assert(depth == 0)
}

func TestSyncStateNestedInternalLock(t *testing.T) {
	t.Parallel()
	tt := toast.FromT(t)

	s := SyncState{ThreadID: getGoroutineID}
	s.Init()

	done := make(chan error, 1)
	go func() {
		done <- s.WithInternalLock(func() {
			if err := s.WithInternalLock(func() {}); err != nil {
				t.Error(err)
			}
		})
	}()
	select {
	case err := <-done:
		tt.CheckErr(err)
	case <-time.After(time.Second):
		t.Fatal("nested internal lock deadlocked")
	}
	_, depth := s.internal.held()
	tt.Assert(depth == 0)
}

func TestSyncStateDefaultThreadID(t *testing.T) {
	t.Parallel()
	tt := toast.FromT(t)

	var s SyncState
	s.Init()
	tt.Assert(s.threadID() == currentThreadID())
	tt.Assert(s.threadID() != 0)
}

func TestGoroutineID(t *testing.T) {
	t.Parallel()
	tt := toast.FromT(t)

	id := getGoroutineID()
	tt.Assert(id != 0 && id == getGoroutineID())

	other := make(chan uint64, 1)
	go func() { other <- getGoroutineID() }()
	tt.Assert(<-other != id)
}
