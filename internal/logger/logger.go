// Package logger configures the process-wide slog logger.
package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Config selects the level, format and destination of the process logger.
type Config struct {
	Level  string
	Format string // "json" or "text"
	File   string // empty logs to Out
	Out    io.Writer
}

// Init sets the default slog logger and returns it with a func that closes
// the log file. When File cannot be opened, logging falls back to Out.
func Init(cfg Config) (*slog.Logger, func()) {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	w := cfg.Out
	if w == nil {
		w = os.Stderr
	}
	closeFn := func() {}

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
			slog.Error("failed to create log directory, using stderr only", "file", cfg.File, "error", err)
		} else if f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err != nil {
			slog.Error("failed to open log file, using stderr only", "file", cfg.File, "error", err)
		} else {
			w = f
			closeFn = func() {
				if err := f.Close(); err != nil {
					slog.Error("failed to close log file", "file", cfg.File, "error", err)
				}
			}
		}
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	l := slog.New(handler)
	slog.SetDefault(l)
	return l, closeFn
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewRequestLogger creates a logger with a unique requestId for API handlers.
func NewRequestLogger(base *slog.Logger) *slog.Logger {
	if base == nil {
		base = slog.Default()
	}
	return base.With("requestId", uuid.Must(uuid.NewV7()).String())
}
