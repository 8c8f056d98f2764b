package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Init installs the process-wide slog logger tagged with the service name.
// Supported formats: "json" (default), "text". Levels: debug, info (default), warn, error.
func Init(service, format, level string) *slog.Logger {
	return initTo(os.Stdout, service, format, level)
}

func initTo(w io.Writer, service, format, level string) *slog.Logger {
	format = strings.ToLower(strings.TrimSpace(format))
	lvl, lvlOK := parseLevel(level)
	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	switch format {
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewJSONHandler(w, opts)
	}

	logger := slog.New(handler).With("service", service)
	slog.SetDefault(logger)

	if format != "" && format != "json" && format != "text" {
		logger.Warn("unknown log format, defaulting to json", "format", format)
	}
	if !lvlOK {
		logger.Warn("unknown log level, defaulting to info", "level", level)
	}
	return logger
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, true
	case "debug":
		return slog.LevelDebug, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}
