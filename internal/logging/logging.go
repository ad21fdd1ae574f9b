package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Init configures the default slog logger with JSON output at the given level.
// Accepts debug, info, warn, error; anything else means info.
func Init(level string) *slog.Logger {
	return initWith(os.Stdout, level)
}

func initWith(w io.Writer, level string) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     ParseLevel(level),
		AddSource: true,
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
