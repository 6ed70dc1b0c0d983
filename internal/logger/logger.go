// Package logger holds the structured logger shared by every stage of the
// minifier. By default nothing is logged.
package logger

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Stages running on worker goroutines
// read it concurrently with SetLogger.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for the minifier and its stages. Pass
// nil to restore the default silent behavior.
//
// Log levels used:
//   - [slog.LevelDebug]: per-stage progress and soft failures (a macro left
//     un-inlined, a declaration left ungrouped)
//   - [slog.LevelInfo]: batch summaries
//   - [slog.LevelWarn]: the error that aborts a batch
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the current logger.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
