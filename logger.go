package tilecomp

import (
	"log/slog"

	"github.com/gogpu/tilecomp/internal/logging"
)

// SetLogger configures the logger for tilecomp and all its sub-packages.
// By default, tilecomp produces no log output. Call SetLogger to enable logging.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by tilecomp:
//   - [slog.LevelDebug]: tile allocation, flatten and snapshot statistics
//   - [slog.LevelWarn]: composite ops without defined math, tile budget exhaustion
//
// Example:
//
//	// Enable debug-level logging for full diagnostics:
//	tilecomp.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	logging.Set(l)
}

// Logger returns the current logger used by tilecomp.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return logging.Logger()
}
