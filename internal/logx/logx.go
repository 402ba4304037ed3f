// Package logx builds the process logger.
package logx

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New returns a logger writing to stdout. format is "json" or "text";
// unknown levels fall back to info.
func New(level, format string) *slog.Logger {
	return NewWriter(os.Stdout, level, format)
}

func NewWriter(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	if strings.EqualFold(format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func ParseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return l
}

// Discard is used by tests and by components built without a logger.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
