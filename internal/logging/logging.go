package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	charmlog "github.com/charmbracelet/log"
)

// Options controls logger construction.
type Options struct {
	Level  slog.Level
	Format string    // "json" (default) or "text"
	File   string    // optional log file, written in addition to Writer
	Writer io.Writer // defaults to os.Stderr
}

// Setup builds a logger from opts. JSON output is JSONL like the log file;
// text output uses the charm logger as the slog handler. The returned cleanup
// closes the log file, if any.
func Setup(opts Options) (*slog.Logger, func(), error) {
	cleanup := func() {}
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, cleanup, err
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, cleanup, err
		}
		w = io.MultiWriter(w, f)
		cleanup = func() {
			_ = f.Close()
		}
	}

	var handler slog.Handler
	switch strings.ToLower(opts.Format) {
	case "", "json":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: opts.Level})
	case "text":
		handler = charmlog.NewWithOptions(w, charmlog.Options{
			Level:           charmlog.Level(opts.Level),
			ReportTimestamp: true,
			Prefix:          "chunksplit",
		})
	default:
		cleanup()
		return nil, func() {}, fmt.Errorf("unknown log format: %s (valid: json, text)", opts.Format)
	}

	return slog.New(handler), cleanup, nil
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s (valid: debug, info, warn, error)", s)
	}
}

type loggerKey struct{}

// WithLogger returns a context carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the logger stored in ctx, or slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// Discard returns a logger that drops every record. Useful in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
