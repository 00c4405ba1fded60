// Package logger provides structured logging setup for the dependency
// graph engine.
package logger

import (
	"log/slog"
	"os"
	"strings"

	"github.com/depgraph-io/engine/internal/config"
)

// defaultAsyncChanSize and defaultAsyncWorkers size the buffered channel and
// worker pool backing async logging. Chosen to absorb a burst of request
// logs without blocking a handler goroutine on stdout I/O.
const (
	defaultAsyncChanSize = 1024
	defaultAsyncWorkers  = 2
)

// New creates a *slog.Logger from the given Logging config, along with a
// Closer that must be called during shutdown to flush any buffered records.
// Output is JSON to stdout with a "service" attribute on every record. When
// cfg.Async is set, records are handed off to a buffered worker pool instead
// of being written synchronously on the caller's goroutine; otherwise the
// returned Closer is a no-op.
func New(cfg config.Logging) (*slog.Logger, Closer) {
	level := parseLevel(cfg.Level)

	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})

	var closer Closer = nopCloser{}
	if cfg.Async {
		async := NewAsyncHandler(handler, defaultAsyncChanSize, defaultAsyncWorkers)
		handler = async
		closer = async
	}

	return slog.New(handler).With("service", cfg.Service), closer
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
