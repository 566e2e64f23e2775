package logging

import (
	"log/slog"
	"os"
)

// EnableTrace turns on per-instruction delivery logs. CARNAV_TRACE=1 enables it at startup.
var EnableTrace = os.Getenv("CARNAV_TRACE") == "1"

// Trace logs at DEBUG level when tracing is enabled.
func Trace(logger *slog.Logger, msg string, args ...any) {
	if !EnableTrace {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug(msg, args...)
}
