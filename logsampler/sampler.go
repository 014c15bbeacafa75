/*
Package logsampler provides concurrent-safe log sampling strategies.
It is designed for entry points that can be hit millions of times by a game
loop, where logging every call would be prohibitively expensive.
*/
package logsampler

import (
	"sync"
	"sync/atomic"
	"time"
)

// SummaryReporter defines the interface for a logger that can report
// sampler summaries. This allows the sampler to remain decoupled from any
// specific logging library.
type SummaryReporter interface {
	LogSummary(key string, suppressedCount int64)
}

// Sampler defines the interface for deciding if a log message should be processed.
type Sampler interface {
	// ShouldLog determines if a log event should be written.
	// The key is a stable identifier for the log site.
	// The err object can be used for more advanced decisions but is optional.
	ShouldLog(key string, err error) bool
	// Flush reports a summary of any suppressed logs.
	Flush()
	// Close permanently stops the sampler and its background tasks, flushing one last time.
	Close()
}

// limitInfo holds the counters of one LimitSampler key.
type limitInfo struct {
	seen       atomic.Int64
	suppressed atomic.Int64
}

// LimitSampler lets the first N events of every key through for the lifetime
// of the sampler and counts the rest. A limit of 1 logs a site exactly once.
type LimitSampler struct {
	limit    int64
	logs     sync.Map
	reporter SummaryReporter
}

// NewLimitSampler creates a sampler whose ShouldLog allows limit events per key.
func NewLimitSampler(limit int, reporter SummaryReporter) *LimitSampler {
	if limit < 1 {
		limit = 1
	}
	return &LimitSampler{
		limit:    int64(limit),
		reporter: reporter,
	}
}

// ShouldLog applies the sampler's default limit.
func (s *LimitSampler) ShouldLog(key string, err error) bool {
	return s.Allow(key, s.limit)
}

// Allow applies a site specific limit to key. The limit is taken from the
// call site and not stored, so two sites must not share a key with different
// limits.
func (s *LimitSampler) Allow(key string, limit int64) bool {
	val, ok := s.logs.Load(key)
	if !ok {
		val, _ = s.logs.LoadOrStore(key, &limitInfo{})
	}
	info := val.(*limitInfo)
	if info.seen.Add(1) <= limit {
		return true
	}
	info.suppressed.Add(1)
	return false
}

// Suppressed returns how many events of key were dropped so far.
func (s *LimitSampler) Suppressed(key string) int64 {
	if val, ok := s.logs.Load(key); ok {
		return val.(*limitInfo).suppressed.Load()
	}
	return 0
}

// Flush reports every key with suppressed events and resets the suppressed
// counters. Limits are not reset.
func (s *LimitSampler) Flush() {
	if s.reporter == nil {
		return
	}
	s.logs.Range(func(key, value any) bool {
		info := value.(*limitInfo)
		if n := info.suppressed.Swap(0); n > 0 {
			s.reporter.LogSummary(key.(string), n)
		}
		return true
	})
}

// Close flushes one last time.
func (s *LimitSampler) Close() {
	s.Flush()
}

// logInfo holds the sampling state for a given log key.
type logInfo struct {
	count    atomic.Int64
	lastSeen atomic.Int64
	lastLogs atomic.Int64
}

// DeduplicatingSampler logs a key at most once per time window and reports
// how many events were suppressed in between.
//   - If rate <= 1: Pure Time-Based Deduplication.
//   - If rate > 1: Hybrid Sampling (Time Window + Rate Limit).
type DeduplicatingSampler struct {
	rate      int64
	window    int64
	logs      sync.Map
	stopCh    chan struct{}
	closeOnce sync.Once
	reporter  SummaryReporter
}

// NewDeduplicatingSampler creates a new sampler and starts its summary reporter.
func NewDeduplicatingSampler(rate int, window time.Duration, reporter SummaryReporter) *DeduplicatingSampler {
	s := &DeduplicatingSampler{
		rate:     int64(rate),
		window:   int64(window),
		stopCh:   make(chan struct{}),
		reporter: reporter,
	}
	// The reporter can be nil if the user doesn't want summaries.
	if s.reporter != nil {
		go s.summaryReporter()
	}
	return s
}

// ShouldLog determines if an event should be logged based on its configured strategy.
func (s *DeduplicatingSampler) ShouldLog(key string, err error) bool {
	now := time.Now().UnixNano()
	val, _ := s.logs.LoadOrStore(key, &logInfo{})
	info := val.(*logInfo)
	info.lastSeen.Store(now)

	lastLogs := info.lastLogs.Load()
	if now-lastLogs > s.window {
		if info.lastLogs.CompareAndSwap(lastLogs, now) {
			info.count.Store(0)
			return true
		}
	}

	count := info.count.Add(1)
	if s.rate > 1 && count%s.rate == 0 {
		lastLogs = info.lastLogs.Load()
		if info.lastLogs.CompareAndSwap(lastLogs, now) {
			info.count.Store(0)
			return true
		}
	}
	return false
}

// Flush triggers an immediate summary report of all currently suppressed logs.
func (s *DeduplicatingSampler) Flush() {
	if s.reporter == nil {
		return
	}
	s.logs.Range(func(key, value any) bool {
		info := value.(*logInfo)
		if suppressedCount := info.count.Swap(0); suppressedCount > 0 {
			s.reporter.LogSummary(key.(string), suppressedCount)
		}
		return true
	})
}

func (s *DeduplicatingSampler) summaryReporter() {
	tickerInterval := max(time.Duration(s.window*3), 10*time.Second)
	ticker := time.NewTicker(tickerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now().UnixNano()
			s.logs.Range(func(key, value any) bool {
				info := value.(*logInfo)
				if now-info.lastSeen.Load() > int64(tickerInterval) {
					if suppressedCount := info.count.Swap(0); suppressedCount > 0 {
						s.reporter.LogSummary(key.(string), suppressedCount)
					}
					s.logs.Delete(key)
				}
				return true
			})
		case <-s.stopCh:
			return
		}
	}
}

// Close stops the background summary reporter and flushes any pending summaries.
func (s *DeduplicatingSampler) Close() {
	s.closeOnce.Do(func() {
		close(s.stopCh)
		s.Flush()
	})
}
