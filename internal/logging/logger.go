// Package logging provides structured logging for proflog.
//
// The child's output owns the terminal, so the logger stays quiet by
// default: warnings and errors only, on stderr. Verbose mode drops the
// threshold to debug for troubleshooting launch and sampling behavior.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// NewLogger creates a structured logger writing to stderr.
// Format should be "text" or "json".
func NewLogger(format string, verbose bool) *slog.Logger {
	return NewLoggerWithWriter(os.Stderr, format, verbose)
}

// NewLoggerWithWriter creates a logger on a custom writer. Useful for
// testing.
func NewLoggerWithWriter(w io.Writer, format string, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// SetDefault sets the default logger for the slog package.
func SetDefault(logger *slog.Logger) {
	slog.SetDefault(logger)
}
