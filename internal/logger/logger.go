// Package logger wraps log/slog with the level, format and destination
// settings read from the cachescope config file.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Config selects level, format and destination
type Config struct {
	Level  string `yaml:"level" toml:"level"`   // debug, info, warn, error
	Format string `yaml:"format" toml:"format"` // json, text
	Output string `yaml:"output" toml:"output"` // stdout, stderr or a file path
}

// Logger is a thin wrapper around slog.Logger. A nil *Logger discards.
type Logger struct {
	slog   *slog.Logger
	closer io.Closer
}

// Field is a structured logging attribute
type Field struct {
	Key   string
	Value any
}

// F builds a Field
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// New creates a logger from cfg. Empty values default to info, text, stderr.
func New(cfg Config) (*Logger, error) {
	level, valid := parseLevel(cfg.Level)
	if !valid {
		return nil, fmt.Errorf("invalid log level: %s (expected: debug, info, warn, error)", cfg.Level)
	}

	var writer io.Writer
	var closer io.Closer
	switch strings.ToLower(cfg.Output) {
	case "", "stderr":
		writer = os.Stderr
	case "stdout":
		writer = os.Stdout
	default:
		filePath := cfg.Output
		if strings.HasPrefix(filePath, "~/") {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("failed to get home directory: %w", err)
			}
			filePath = filepath.Join(homeDir, filePath[2:])
		}
		filePath = filepath.Clean(filePath)
		dir := filepath.Dir(filePath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
		}
		file, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", filePath, err)
		}
		writer = file
		closer = file
	}

	l, err := NewWithWriter(writer, cfg.Format, level)
	if err != nil {
		if closer != nil {
			closer.Close()
		}
		return nil, err
	}
	l.closer = closer
	return l, nil
}

// NewWithWriter creates a logger writing to w
func NewWithWriter(w io.Writer, format string, level slog.Level) (*Logger, error) {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "", "text":
		handler = slog.NewTextHandler(w, opts)
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		return nil, fmt.Errorf("invalid log format: %s (expected: json, text)", format)
	}

	return &Logger{slog: slog.New(handler)}, nil
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	return &Logger{slog: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// ParseLevel converts a level name, returning false for unknown names
func ParseLevel(level string) (slog.Level, bool) {
	return parseLevel(level)
}

func parseLevel(level string) (slog.Level, bool) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, true
	case "", "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// With returns a logger that adds fields to every record
func (l *Logger) With(fields ...Field) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{slog: l.slog.With(fieldsToAny(fields)...), closer: l.closer}
}

// Debug logs at debug level
func (l *Logger) Debug(msg string, fields ...Field) {
	if l == nil {
		return
	}
	l.slog.Debug(msg, fieldsToAny(fields)...)
}

// Info logs at info level
func (l *Logger) Info(msg string, fields ...Field) {
	if l == nil {
		return
	}
	l.slog.Info(msg, fieldsToAny(fields)...)
}

// Warn logs at warn level
func (l *Logger) Warn(msg string, fields ...Field) {
	if l == nil {
		return
	}
	l.slog.Warn(msg, fieldsToAny(fields)...)
}

// Error logs at error level with the error attached
func (l *Logger) Error(msg string, err error, fields ...Field) {
	if l == nil {
		return
	}
	all := append([]Field{{Key: "error", Value: err}}, fields...)
	l.slog.Error(msg, fieldsToAny(all)...)
}

// Close releases the log file, if any
func (l *Logger) Close() error {
	if l == nil || l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

func fieldsToAny(fields []Field) []any {
	args := make([]any, 0, len(fields)*2)
	for _, f := range fields {
		args = append(args, f.Key, f.Value)
	}
	return args
}
