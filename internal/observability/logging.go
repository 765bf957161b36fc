// Package observability holds the bot's metrics and logger setup.
package observability

import (
	"io"
	"log/slog"
)

// NewLogger returns a text logger writing to w. debug lowers the level
// to Debug.
func NewLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
