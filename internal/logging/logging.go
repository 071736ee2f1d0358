// Package logging initialises a [log/slog] logger from the application
// configuration and provides context-based logger propagation.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/hupe1980/ionbuild/internal/config"
)

type ctxKey struct{}

// Setup creates a *slog.Logger configured according to cfg, writing to stderr,
// and installs it as the process-wide default via slog.SetDefault.
func Setup(cfg *config.Config) *slog.Logger {
	return SetupWithWriter(cfg, os.Stderr)
}

// SetupWithWriter creates a *slog.Logger configured according to cfg, writing
// to w, and installs it as the process-wide default via slog.SetDefault.
// Use this variant in tests to capture or suppress log output.
func SetupWithWriter(cfg *config.Config, w io.Writer) *slog.Logger {
	logger := New(cfg, w)
	slog.SetDefault(logger)

	return logger
}

// New creates a logger for cfg without touching the process default.
func New(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.EffectiveLogLevel())}

	var handler slog.Handler

	switch cfg.LogFormat {
	case config.LogFormatJSON:
		handler = slog.NewJSONHandler(w, opts)
	default: // text
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel converts a string log level to slog.Level.
func ParseLevel(level string) slog.Level {
	switch level {
	case config.LogLevelDebug:
		return slog.LevelDebug
	case config.LogLevelWarn:
		return slog.LevelWarn
	case config.LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// StartTask logs the start of a named task and returns a function that logs
// its completion together with the elapsed time. The returned function is
// safe to call more than once; only the first call logs.
func StartTask(logger *slog.Logger, name string) func() {
	start := time.Now()
	logger.Info("starting task", slog.String("task", name))

	finished := false

	return func() {
		if finished {
			return
		}

		finished = true
		logger.Info("finished task",
			slog.String("task", name),
			slog.Duration("elapsed", time.Since(start).Round(time.Millisecond)),
		)
	}
}

// NewContext returns a child context carrying logger.
func NewContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext extracts a logger from ctx, falling back to slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return l
	}

	return slog.Default()
}
