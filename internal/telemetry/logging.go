// Package telemetry provides the process-wide structured logger used by
// ringcachectl and by ringcache.Cache when callers don't supply their own
// *slog.Logger.
package telemetry

import (
	"log/slog"
	"os"
	"sync/atomic"
)

var (
	logger   atomic.Pointer[slog.Logger]
	logLevel = new(slog.LevelVar)
)

func init() {
	logLevel.Set(slog.LevelInfo)
	logger.Store(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))
}

// Logger returns the current process-wide logger.
func Logger() *slog.Logger {
	return logger.Load()
}

// SetLevel changes the level of the process-wide logger.
func SetLevel(level slog.Level) {
	logLevel.Set(level)
}

// SetLevelFromString sets the level from a config/flag string. Unknown
// values are ignored, leaving the previous level in place.
func SetLevelFromString(level string) {
	switch level {
	case "debug", "DEBUG":
		logLevel.Set(slog.LevelDebug)
	case "info", "INFO":
		logLevel.Set(slog.LevelInfo)
	case "warn", "WARN", "warning", "WARNING":
		logLevel.Set(slog.LevelWarn)
	case "error", "ERROR":
		logLevel.Set(slog.LevelError)
	}
}

// Configure reconfigures the process-wide logger's format and level.
// format is "text" (default) or "json".
func Configure(format, level string) {
	SetLevelFromString(level)

	opts := &slog.HandlerOptions{Level: logLevel}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	logger.Store(slog.New(handler))
}

// With returns the process-wide logger annotated with the given cache name,
// used to disambiguate log lines when a process runs more than one Cache.
func With(cacheName string) *slog.Logger {
	if cacheName == "" {
		return Logger()
	}
	return Logger().With("cache", cacheName)
}
