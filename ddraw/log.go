package ddraw

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/tekert/golang-ddraw/logsampler"
)

const (
	// Custom levels
	LogLevelTrace = slog.Level(-8)
)

// Log budgets of the legacy entry points: the entry itself is traced once,
// redirect notices three times, unimplemented paths a hundred times.
const (
	limitEntry          = 1
	limitRedirect       = 3
	limitNotImplemented = 100
)

var (
	limiter    = logsampler.NewLimitSampler(limitEntry, summaryReporter{})
	resolveLog = logsampler.NewDeduplicatingSampler(1, time.Minute, summaryReporter{})
)

// summaryReporter writes sampler summaries to the default slog logger.
type summaryReporter struct{}

func (summaryReporter) LogSummary(key string, suppressedCount int64) {
	slog.Debug("suppressed log lines", "site", key, "count", suppressedCount)
}

// SetLoggerHandler sets a custom logger for the ddraw library
func SetLoggerHandler(h slog.Handler) {
	if h == nil {
		return // Keep default
	}
	slog.SetDefault(slog.New(h))
}

func SetLoggerLevel(level slog.Level) {
	slog.SetLogLoggerLevel(level)
}

func SetDebugLevel(addSource bool) {
	// Create text handler that writes to stderr
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: addSource,
	})

	// Set as default logger
	slog.SetDefault(slog.New(h))
}

// Logs trace messages, level = -8
func LogTrace(msg string, args ...any) {
	slog.Default().Log(context.Background(), LogLevelTrace, msg, args...)
}

// FlushLogSummaries reports how many lines every rate limited site dropped.
func FlushLogSummaries() {
	limiter.Flush()
	resolveLog.Flush()
}

// logEntry traces an entry point the first time it is called.
func logEntry(name string) {
	if limiter.Allow(name, limitEntry) {
		LogTrace(name)
	}
}

func logRedirect(name, target string) {
	if limiter.Allow("redirect:"+name, limitRedirect) {
		slog.Info("Redirecting '"+name+"'", "to", target)
	}
}

func logNotImplemented(name string, args ...any) {
	if limiter.Allow("notimpl:"+name, limitNotImplemented) {
		slog.Warn(name+" Not Implemented", args...)
	}
}

// logResolveFailure reports a symbol that could not be resolved, once per window.
func logResolveFailure(module, symbol string, err error) {
	if resolveLog.ShouldLog(module+"!"+symbol, err) {
		slog.Error("failed to resolve original symbol", "module", module, "symbol", symbol, "error", err)
	}
}
