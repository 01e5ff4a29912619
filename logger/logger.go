package logger

import (
	"io"
	"log/slog"
	"os"
	"sync/atomic"
)

var defaultLogger atomic.Pointer[slog.Logger]

// Init builds the process logger and installs it as the slog default.
// Development and debug runs get human-readable text at debug level;
// everything else gets JSON at info level.
func Init(env string, debug bool) *slog.Logger {
	l := New(os.Stdout, env, debug)
	defaultLogger.Store(l)
	slog.SetDefault(l)
	return l
}

func New(w io.Writer, env string, debug bool) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	var handler slog.Handler
	if debug || env == "development" {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler)
}

// Default returns the logger set by Init, or the slog default if Init has
// not run (tests, tools).
func Default() *slog.Logger {
	if l := defaultLogger.Load(); l != nil {
		return l
	}
	return slog.Default()
}

// Discard is a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
