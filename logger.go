package fitsview

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/fitsview/internal/gpu"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for fitsview and its GPU layer.
// By default, fitsview produces no log output. Pass nil to restore silence.
//
// Log levels used by fitsview:
//   - [slog.LevelDebug]: per-resource diagnostics (texture uploads, pipeline
//     cache hits, skipped ticks)
//   - [slog.LevelInfo]: lifecycle events (adapter selected, loop start/stop)
//   - [slog.LevelWarn]: recoverable issues (opaque alpha fallback)
//   - [slog.LevelError]: failed submissions
//
// Example:
//
//	fitsview.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
	gpu.SetLogger(l)
}

// Logger returns the current package logger.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
