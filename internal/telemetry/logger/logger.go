package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// Logger is the logging surface used across stmkit.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
	WithContext(ctx context.Context) Logger
	// Slog returns the underlying *slog.Logger for APIs that take one.
	Slog() *slog.Logger
}

// Config configures New.
type Config struct {
	Level     string    // debug, info, warn or error; empty means info
	Format    string    // text or json; empty means json
	Output    io.Writer // defaults to os.Stderr
	AddSource bool
}

// DefaultConfig returns JSON logging at info level to stderr.
func DefaultConfig() Config {
	return Config{Level: "info", Format: "json", Output: os.Stderr}
}

// level is shared by every logger built with New.
var level = new(slog.LevelVar)

// New builds a logger and sets the shared level to cfg.Level.
func New(cfg Config) (Logger, error) {
	lvl, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	w := cfg.Output
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			return redactSensitive(a)
		},
	}

	var h slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "", "json":
		h = slog.NewJSONHandler(w, opts)
	case "text", "console":
		h = slog.NewTextHandler(w, opts)
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	level.Set(lvl)
	return &logger{s: slog.New(h), ctx: context.Background()}, nil
}

// ParseLevel parses a level name. "warning" is accepted for warn and the
// empty string means info.
func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	switch s = strings.TrimSpace(s); strings.ToLower(s) {
	case "":
		return slog.LevelInfo, nil
	case "warning":
		return slog.LevelWarn, nil
	}
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
	return lvl, nil
}

// SetLevel changes the level of every logger built with New. An unknown
// name leaves the level unchanged.
func SetLevel(name string) error {
	lvl, err := ParseLevel(name)
	if err != nil {
		return err
	}
	level.Set(lvl)
	return nil
}

// GetLevel returns the current level name in lower case.
func GetLevel() string {
	return strings.ToLower(level.Level().String())
}

type logger struct {
	s   *slog.Logger
	ctx context.Context
}

func (l *logger) Debug(msg string, args ...any) { l.s.DebugContext(l.ctx, msg, args...) }
func (l *logger) Info(msg string, args ...any)  { l.s.InfoContext(l.ctx, msg, args...) }
func (l *logger) Warn(msg string, args ...any)  { l.s.WarnContext(l.ctx, msg, args...) }
func (l *logger) Error(msg string, args ...any) { l.s.ErrorContext(l.ctx, msg, args...) }

func (l *logger) With(args ...any) Logger {
	return &logger{s: l.s.With(args...), ctx: l.ctx}
}

func (l *logger) WithContext(ctx context.Context) Logger {
	return &logger{s: l.s, ctx: ctx}
}

func (l *logger) Slog() *slog.Logger {
	return l.s
}

var std atomic.Pointer[logger]

func init() {
	l, _ := New(DefaultConfig())
	std.Store(l.(*logger))
}

// SetDefault replaces the package default and installs it as the slog
// default. Loggers not built with New are ignored.
func SetDefault(l Logger) {
	if ll, ok := l.(*logger); ok {
		std.Store(ll)
		slog.SetDefault(ll.s)
	}
}

// Default returns the package default logger.
func Default() Logger {
	return std.Load()
}

// Debug logs with the default logger.
func Debug(msg string, args ...any) { std.Load().Debug(msg, args...) }

// Info logs with the default logger.
func Info(msg string, args ...any) { std.Load().Info(msg, args...) }

// Warn logs with the default logger.
func Warn(msg string, args ...any) { std.Load().Warn(msg, args...) }

// Error logs with the default logger.
func Error(msg string, args ...any) { std.Load().Error(msg, args...) }
