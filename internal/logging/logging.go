// Package logging configures the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"coursebook/internal/config"
)

// New builds a logger writing to w in the configured format.
func New(w io.Writer, cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}
	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// Setup installs a stderr logger as the default and returns it. Stdout is
// left alone because the MCP transport owns it.
func Setup(cfg config.LogConfig) *slog.Logger {
	logger := New(os.Stderr, cfg)
	slog.SetDefault(logger)
	return logger
}

// ParseLevel maps a config level name to a slog level. Unknown names are
// treated as info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
