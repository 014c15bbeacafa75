//go:build windows && amd64
// +build windows,amd64

package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/tekert/golang-ddraw/ddraw"
)

var (
	engineOnce sync.Once
	engine     *ddraw.Engine
)

// getEngine loads ddraw.ini from the directory of the DLL and starts the
// engine on the first export call. The engine is never closed: the Go runtime
// owns DllMain of a c-shared library and the DLL stays mapped until the
// process exits, so there is no detach point to run Engine.Close from.
func getEngine() *ddraw.Engine {
	engineOnce.Do(func() {
		cfg := ddraw.NewConfig()
		path, err := ddraw.SelfModulePath()
		if err == nil {
			base := strings.TrimSuffix(path, filepath.Ext(path))
			if cfg, err = ddraw.LoadConfig(base + ".ini"); err != nil {
				cfg = ddraw.NewConfig()
			}
			setupLogging(base+".log", cfg.LogLevel)
		}
		if err != nil {
			slog.Error("failed to load configuration, using defaults", "error", err)
		}

		engine = ddraw.NewEngine(cfg, ddraw.Options{})
		engine.Init()
		slog.Info("ddraw engine started", "translation", cfg.Dd7to9)
	})
	return engine
}

// setupLogging sends the log to path.
func setupLogging(path string, level slog.Level) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		ddraw.SetLoggerLevel(level)
		return
	}
	ddraw.SetLoggerHandler(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
}

// guard turns a panic escaping an export into the export's failure value.
func guard(name string, r *uint32) {
	if p := recover(); p != nil {
		slog.Error("recovered panic in export", "export", name, "panic", p, "stack", string(debug.Stack()))
		*r = ddraw.FailedResult(name)
	}
}
