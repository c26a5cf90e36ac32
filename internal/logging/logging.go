package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

var level slog.LevelVar

// Setup installs the process-wide logger. format is "json" or "text".
func Setup(w io.Writer, format, lvl string) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	level.Set(ParseLevel(lvl))
	opts := &slog.HandlerOptions{Level: &level}

	var h slog.Handler
	if strings.EqualFold(format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

// FromEnv reads LOG_FORMAT and LOG_LEVEL.
func FromEnv() *slog.Logger {
	return Setup(os.Stderr, os.Getenv("LOG_FORMAT"), os.Getenv("LOG_LEVEL"))
}

func SetLevel(l slog.Level) { level.Set(l) }

// ParseLevel understands debug, info, warn and error; anything else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
