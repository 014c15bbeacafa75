package logsampler_test

import (
	"sync"
	"testing"
	"time"

	sampler "github.com/tekert/golang-ddraw/logsampler"
)

type recordingReporter struct {
	mu      sync.Mutex
	reports map[string]int64
}

func newRecordingReporter() *recordingReporter {
	return &recordingReporter{reports: make(map[string]int64)}
}

func (r *recordingReporter) LogSummary(key string, suppressedCount int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports[key] += suppressedCount
}

func (r *recordingReporter) get(key string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reports[key]
}

func TestLimitSampler(t *testing.T) {
	t.Run("LogsOnceWithLimitOne", func(t *testing.T) {
		s := sampler.NewLimitSampler(1, nil)
		defer s.Close()

		if !s.ShouldLog("DirectDrawCreate", nil) {
			t.Fatal("first log should pass")
		}
		for range 10 {
			if s.ShouldLog("DirectDrawCreate", nil) {
				t.Fatal("subsequent logs should be suppressed")
			}
		}
		if got := s.Suppressed("DirectDrawCreate"); got != 10 {
			t.Fatalf("expected 10 suppressed, got %d", got)
		}
	})

	t.Run("PerSiteLimit", func(t *testing.T) {
		s := sampler.NewLimitSampler(1, nil)
		passed := 0
		for range 150 {
			if s.Allow("NotImplemented", 100) {
				passed++
			}
		}
		if passed != 100 {
			t.Fatalf("expected 100 logs through, got %d", passed)
		}
	})

	t.Run("KeysAreIndependent", func(t *testing.T) {
		s := sampler.NewLimitSampler(1, nil)
		if !s.ShouldLog("a", nil) || !s.ShouldLog("b", nil) {
			t.Fatal("distinct keys must not share a budget")
		}
	})

	t.Run("FlushReportsAndResets", func(t *testing.T) {
		r := newRecordingReporter()
		s := sampler.NewLimitSampler(2, r)
		for range 5 {
			s.ShouldLog("key", nil)
		}
		s.Flush()
		if got := r.get("key"); got != 3 {
			t.Fatalf("expected 3 suppressed reported, got %d", got)
		}
		s.Flush()
		if got := r.get("key"); got != 3 {
			t.Fatalf("second flush must not report again, got %d", got)
		}
	})

	t.Run("ConcurrentLimitIsExact", func(t *testing.T) {
		s := sampler.NewLimitSampler(10, nil)
		var wg sync.WaitGroup
		var mu sync.Mutex
		passed := 0
		for range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for range 20 {
					if s.ShouldLog("hot", nil) {
						mu.Lock()
						passed++
						mu.Unlock()
					}
				}
			}()
		}
		wg.Wait()
		if passed != 10 {
			t.Fatalf("expected exactly 10 logs, got %d", passed)
		}
	})
}

func TestDeduplicatingSampler(t *testing.T) {
	t.Run("LogsFirstAndSuppressesSecond", func(t *testing.T) {
		s := sampler.NewDeduplicatingSampler(1, 100*time.Millisecond, nil)
		defer s.Close()

		if !s.ShouldLog("key1", nil) {
			t.Fatal("First log should pass")
		}
		if s.ShouldLog("key1", nil) {
			t.Fatal("Second log within window should be suppressed")
		}
	})

	t.Run("LogsAfterWindow", func(t *testing.T) {
		s := sampler.NewDeduplicatingSampler(1, 50*time.Millisecond, nil)
		defer s.Close()

		s.ShouldLog("key1", nil)
		for range 5 {
			s.ShouldLog("key1", nil)
		}
		time.Sleep(80 * time.Millisecond)
		if !s.ShouldLog("key1", nil) {
			t.Fatal("Log after window should pass")
		}
	})

	t.Run("CloseReportsSuppressed", func(t *testing.T) {
		r := newRecordingReporter()
		s := sampler.NewDeduplicatingSampler(1, time.Hour, r)

		s.ShouldLog("resolve:DirectDrawCreate", nil)
		for range 4 {
			s.ShouldLog("resolve:DirectDrawCreate", nil)
		}
		s.Close()
		s.Close()
		if got := r.get("resolve:DirectDrawCreate"); got != 4 {
			t.Fatalf("expected 4 suppressed, got %d", got)
		}
	})
}
