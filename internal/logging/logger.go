// Package logging provides the structured logger used across tmpltool. It is
// a thin layer over log/slog that adds component scoping and error fields.
// Diagnostics go to stderr so rendered output on stdout stays clean.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// LogLevel is a logging threshold.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = map[LogLevel]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
}

func (l LogLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "UNKNOWN"
}

// ParseLevel converts a level name such as "debug" or "warn" into a LogLevel.
func ParseLevel(name string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q (debug, info, warn, error)", name)
	}
}

// slogLevel maps l onto slog's scale. Levels above LevelError silence
// everything.
func (l LogLevel) slogLevel() slog.Level {
	if l > LevelError {
		return slog.LevelError + 4
	}
	return slog.Level(4 * (int(l) - 1))
}

// Logger is the logging surface passed around tmpltool. Fields are
// alternating key/value pairs.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...any)
	Info(ctx context.Context, msg string, fields ...any)
	Warn(ctx context.Context, err error, msg string, fields ...any)
	Error(ctx context.Context, err error, msg string, fields ...any)

	With(fields ...any) Logger
	WithComponent(component string) Logger
}

// StructuredLogger implements Logger on top of slog.
type StructuredLogger struct {
	logger *slog.Logger
}

// LoggerConfig holds logger configuration.
type LoggerConfig struct {
	Level     LogLevel
	Format    string // "json" or "text"
	Output    io.Writer
	AddSource bool
	Component string
}

// DefaultConfig logs warnings and errors as text on stderr.
func DefaultConfig() *LoggerConfig {
	return &LoggerConfig{
		Level:  LevelWarn,
		Format: "text",
		Output: os.Stderr,
	}
}

// NewLogger creates a logger from config; nil means DefaultConfig.
func NewLogger(config *LoggerConfig) *StructuredLogger {
	if config == nil {
		config = DefaultConfig()
	}
	out := config.Output
	if out == nil {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:     config.Level.slogLevel(),
		AddSource: config.AddSource,
	}

	var handler slog.Handler
	if config.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	l := &StructuredLogger{logger: slog.New(handler)}
	if config.Component != "" {
		l.logger = l.logger.With("component", config.Component)
	}
	return l
}

// Discard returns a logger that drops everything.
func Discard() Logger {
	return NewLogger(&LoggerConfig{Level: LevelError + 1, Output: io.Discard})
}

func (l *StructuredLogger) Debug(ctx context.Context, msg string, fields ...any) {
	l.logger.Log(ctx, slog.LevelDebug, msg, fields...)
}

func (l *StructuredLogger) Info(ctx context.Context, msg string, fields ...any) {
	l.logger.Log(ctx, slog.LevelInfo, msg, fields...)
}

func (l *StructuredLogger) Warn(ctx context.Context, err error, msg string, fields ...any) {
	l.logger.Log(ctx, slog.LevelWarn, msg, withError(err, fields)...)
}

func (l *StructuredLogger) Error(ctx context.Context, err error, msg string, fields ...any) {
	l.logger.Log(ctx, slog.LevelError, msg, withError(err, fields)...)
}

// With returns a logger that adds fields to every record.
func (l *StructuredLogger) With(fields ...any) Logger {
	return &StructuredLogger{logger: l.logger.With(fields...)}
}

// WithComponent returns a logger that tags every record with component.
func (l *StructuredLogger) WithComponent(component string) Logger {
	return &StructuredLogger{logger: l.logger.With("component", component)}
}

func withError(err error, fields []any) []any {
	if err == nil {
		return fields
	}
	return append([]any{slog.String("error", err.Error())}, fields...)
}

var secretWords = []string{"password", "passwd", "token", "secret", "key", "auth", "credential"}

// maxLoggedValue bounds values logged by RedactValue.
const maxLoggedValue = 1000

// RedactValue returns value as it may appear in a log record: hidden when
// name looks like it holds a secret, truncated when very long.
func RedactValue(name, value string) string {
	lower := strings.ToLower(name)
	for _, word := range secretWords {
		if strings.Contains(lower, word) {
			return "[REDACTED]"
		}
	}

	if len(value) > maxLoggedValue {
		return value[:maxLoggedValue] + "...[TRUNCATED]"
	}
	return value
}
