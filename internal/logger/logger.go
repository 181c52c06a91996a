// Package logger builds the structured slog loggers used by the Anki MCP bridge.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// LogFormat defines how log records are encoded
type LogFormat int

// Log format constants
const (
	TEXT LogFormat = iota
	JSON
)

// ServiceName is attached to every record as the "service" attribute.
const ServiceName = "anki-mcp"

// Config holds configuration options for the logger
type Config struct {
	Level  slog.Level
	Format LogFormat
	// Output defaults to os.Stderr. Stdout carries the MCP stream and must
	// never receive log records.
	Output      io.Writer
	DefaultTags map[string]interface{}
}

// DefaultConfig returns a default logger configuration
func DefaultConfig() *Config {
	return &Config{
		Level:       slog.LevelInfo,
		Format:      TEXT,
		Output:      os.Stderr,
		DefaultTags: map[string]interface{}{"service": ServiceName},
	}
}

// New creates a slog.Logger with the given configuration
func New(config *Config) *slog.Logger {
	if config == nil {
		config = DefaultConfig()
	}

	out := config.Output
	if out == nil {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: config.Level}
	var handler slog.Handler
	if config.Format == JSON {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	l := slog.New(handler)
	if len(config.DefaultTags) > 0 {
		args := make([]any, 0, len(config.DefaultTags)*2)
		for k, v := range config.DefaultTags {
			args = append(args, k, v)
		}
		l = l.With(args...)
	}
	return l
}

// FromSettings builds a logger from the level and format strings found in
// the configuration file.
func FromSettings(level, format string, out io.Writer) *slog.Logger {
	config := DefaultConfig()
	config.Level = ParseLevel(level)
	config.Format = ParseFormat(format)
	if out != nil {
		config.Output = out
	}
	return New(config)
}

// ParseLevel converts a string level to a slog.Level. Unknown values map to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseFormat converts "json" to JSON and anything else to TEXT.
func ParseFormat(format string) LogFormat {
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		return JSON
	}
	return TEXT
}

var (
	mu            sync.RWMutex
	defaultLogger = New(DefaultConfig())
)

// SetDefaultLogger sets the package default logger and installs it as the
// slog default.
func SetDefaultLogger(l *slog.Logger) {
	mu.Lock()
	defaultLogger = l
	mu.Unlock()
	slog.SetDefault(l)
}

// GetDefaultLogger returns the package default logger
func GetDefaultLogger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger
}

// GetLogger returns the default logger tagged with a component name
func GetLogger(name string) *slog.Logger {
	return GetDefaultLogger().With("component", name)
}
