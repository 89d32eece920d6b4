package compositor

import (
	"log/slog"

	"github.com/gogpu/compositor/internal/logging"
)

// SetLogger configures the logger for the compositor and all its
// sub-packages. By default nothing is logged. Call SetLogger to enable
// logging.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by the compositor:
//   - [slog.LevelDebug]: every scheduler action and tree synchronization counts
//   - [slog.LevelInfo]: lifecycle events (host started, context recreated)
//   - [slog.LevelWarn]: recoverable failures (failed draws, forced draw errors)
//
// Example:
//
//	// Enable info-level logging to stderr:
//	compositor.SetLogger(slog.Default())
//
//	// Enable debug-level logging for full scheduling traces:
//	compositor.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	logging.Set(l)
}

// Logger returns the current logger used by the compositor.
func Logger() *slog.Logger {
	return logging.Logger()
}
