package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// NewLogger creates a structured logger appropriate for the environment.
// Production uses JSON format, development uses human-readable text.
// Output goes to stderr so command output on stdout stays parseable.
func NewLogger(env, level string) *slog.Logger {
	return New(os.Stderr, env, level)
}

// New is NewLogger with an explicit destination.
func New(w io.Writer, env, level string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(level, defaultLevel(env)),
	}

	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

func defaultLevel(env string) slog.Level {
	if env == "production" {
		return slog.LevelInfo
	}

	return slog.LevelDebug
}

// ParseLevel maps debug, info, warn and error (case-insensitive) to a
// level. Anything else yields fallback.
func ParseLevel(s string, fallback slog.Level) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return fallback
	}

	return lvl
}
