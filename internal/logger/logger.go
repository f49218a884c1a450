// Package logger holds the process-wide structured logger used by the heap
// packages. It discards everything until Init is called, so library users
// pay nothing unless they opt in.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// EnvVar enables logging to stderr at process start when set to a level name
// (debug, info, warn, error).
const EnvVar = "KHEAP_LOG"

var l atomic.Pointer[slog.Logger]

func init() {
	l.Store(discard())
	if lvl, ok := ParseLevel(os.Getenv(EnvVar)); ok {
		_ = Init(Options{Enabled: true, Level: lvl})
	}
}

// Options configures the logger initialization.
type Options struct {
	Enabled bool       // If false, all logging is discarded
	Level   slog.Level // Minimum log level. The zero value is LevelInfo
	W       io.Writer  // Destination. Default: os.Stderr
	JSON    bool       // Emit JSON records instead of text
}

// Init configures logging. Safe to call at any time; records already in
// flight finish on the previous logger.
func Init(opts Options) error {
	if !opts.Enabled {
		l.Store(discard())
		return nil
	}

	w := opts.W
	if w == nil {
		w = os.Stderr
	}
	ho := &slog.HandlerOptions{Level: opts.Level}
	var h slog.Handler
	if opts.JSON {
		h = slog.NewJSONHandler(w, ho)
	} else {
		h = slog.NewTextHandler(w, ho)
	}
	l.Store(slog.New(h).With("component", "kheap"))
	return nil
}

// L returns the current logger.
func L() *slog.Logger { return l.Load() }

// ParseLevel maps a level name to a slog.Level. An empty or unknown name
// reports false.
func ParseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return 0, false
	}
}

// Enabled reports whether records at level would be emitted. Hot paths check
// this before building attributes.
func Enabled(level slog.Level) bool {
	return L().Enabled(context.Background(), level)
}

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// Debug logs a debug message with optional key-value pairs.
func Debug(msg string, args ...any) { L().Debug(msg, args...) }

// Info logs an info message with optional key-value pairs.
func Info(msg string, args ...any) { L().Info(msg, args...) }

// Warn logs a warning message with optional key-value pairs.
func Warn(msg string, args ...any) { L().Warn(msg, args...) }
