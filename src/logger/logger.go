package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is a structured key/value logger.
type Logger interface {
	Debugw(msg string, keysAndValues ...any)
	Infow(msg string, keysAndValues ...any)
	Warnw(msg string, keysAndValues ...any)
	Errorw(msg string, keysAndValues ...any)

	// With returns a logger that adds the given key/value pairs to every entry.
	With(keysAndValues ...any) Logger

	// WithComponent tags every entry with a component name.
	WithComponent(name string) Logger
}

// SlogLogger writes entries through log/slog.
type SlogLogger struct {
	l *slog.Logger
}

// New returns a Logger writing to w. format is "json" or "text"; level is one of
// debug, info, warn, error and defaults to info.
func New(level, format string, w io.Writer) Logger {
	if w == nil {
		w = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var h slog.Handler
	if strings.EqualFold(format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return &SlogLogger{l: slog.New(h)}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (s *SlogLogger) Debugw(msg string, kvs ...any) { s.l.Debug(msg, kvs...) }
func (s *SlogLogger) Infow(msg string, kvs ...any)  { s.l.Info(msg, kvs...) }
func (s *SlogLogger) Warnw(msg string, kvs ...any)  { s.l.Warn(msg, kvs...) }
func (s *SlogLogger) Errorw(msg string, kvs ...any) { s.l.Error(msg, kvs...) }

func (s *SlogLogger) With(kvs ...any) Logger {
	return &SlogLogger{l: s.l.With(kvs...)}
}

func (s *SlogLogger) WithComponent(name string) Logger {
	return &SlogLogger{l: s.l.With("component", name)}
}
