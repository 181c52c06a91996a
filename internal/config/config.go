// Package config loads and saves the anki-mcp configuration.
package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/localrivet/configurator"
)

// Config represents the anki-mcp configuration
type Config struct {
	// Anki contains the AnkiConnect bridge settings.
	Anki struct {
		// URL is the AnkiConnect endpoint.
		URL string `json:"url" env:"ANKI_URL" validate:"required"`

		// TimeoutSeconds bounds each request. Zero keeps the HTTP client default.
		TimeoutSeconds int `json:"timeout_seconds" env:"ANKI_TIMEOUT_SECONDS"`

		// StrictErrors fails a call when the response carries a non-null
		// "error" field even though the HTTP status was successful.
		StrictErrors bool `json:"strict_errors" env:"ANKI_STRICT_ERRORS"`
	} `json:"anki"`

	// Server contains the MCP transport settings.
	Server struct {
		// Transport is "stdio" or "http".
		Transport string `json:"transport" env:"TRANSPORT" validate:"required"`

		// Address is the listen address for the http transport.
		Address string `json:"address" env:"ADDRESS"`
	} `json:"server"`

	// Recent tunes get_recent_cards.
	Recent struct {
		// DefaultLimit is used when the caller omits n.
		DefaultLimit int `json:"default_limit" env:"RECENT_DEFAULT_LIMIT" validate:"min:1"`

		// MaxLimit caps n. Zero means no cap.
		MaxLimit int `json:"max_limit" env:"RECENT_MAX_LIMIT"`
	} `json:"recent"`

	// Status contains the optional health listener settings.
	Status struct {
		// Address enables the listener when non-empty, e.g. "127.0.0.1:8766".
		Address string `json:"address" env:"STATUS_ADDRESS"`
	} `json:"status"`

	// Journal contains the optional call journal settings.
	Journal struct {
		// SQLitePath enables the journal when non-empty.
		SQLitePath string `json:"sqlite_path" env:"JOURNAL_SQLITE_PATH"`

		// MaxEntries bounds the number of stored calls.
		MaxEntries int `json:"max_entries" env:"JOURNAL_MAX_ENTRIES"`
	} `json:"journal"`

	// Logging contains logging-related configuration.
	Logging struct {
		// Level is the minimum log level to display ("debug", "info", "warn", "error").
		Level string `json:"level" env:"LOG_LEVEL" validate:"required"`

		// Format is the log format to use ("text", "json").
		Format string `json:"format" env:"LOG_FORMAT"`
	} `json:"logging"`

	// Internal state (not saved to config file)
	configPath     string       `json:"-"`
	mutex          sync.RWMutex `json:"-"`
	lastModifiedAt time.Time    `json:"-"`
}

// Default configuration values
const (
	DefaultConfigFilename = ".ankimcpconfig"
	DefaultAnkiURL        = "http://localhost:8765"
	DefaultTransport      = TransportStdio
	DefaultHTTPAddress    = ":8000"
	DefaultRecentLimit    = 200
	DefaultJournalEntries = 1000
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"

	// EnvPrefix prefixes every environment override, e.g. ANKIMCP_ANKI_URL.
	EnvPrefix = "ANKIMCP"
)

// Supported MCP transports.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// NewConfig creates a new Config instance with default values
func NewConfig() *Config {
	config := &Config{}
	config.Anki.URL = DefaultAnkiURL
	config.Anki.StrictErrors = true
	config.Server.Transport = DefaultTransport
	config.Server.Address = DefaultHTTPAddress
	config.Recent.DefaultLimit = DefaultRecentLimit
	config.Journal.MaxEntries = DefaultJournalEntries
	config.Logging.Level = DefaultLogLevel
	config.Logging.Format = DefaultLogFormat
	return config
}

// LoadConfig loads the configuration from the default path
func LoadConfig() (*Config, error) {
	return LoadConfigWithPath(DefaultConfigFilename)
}

// LoadConfigWithPath loads the configuration from a specific path. A missing
// file yields the defaults with environment overrides applied.
func LoadConfigWithPath(configPath string) (*Config, error) {
	// stdout carries the MCP stdio stream, so configuration logs go to stderr.
	stdLogger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg := NewConfig()

	if configPath == DefaultConfigFilename {
		foundPath, err := configurator.FindConfigFile(configPath)
		if err == nil {
			configPath = foundPath
			stdLogger.Debug("Found config file at " + foundPath)
		}
	}

	loader := configurator.New(stdLogger).
		WithProvider(configurator.NewDefaultProvider())

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		stdLogger.Info("Config file not found, using default configuration", "path", configPath)
	} else {
		stdLogger.Info("Loading configuration", "path", configPath)
		loader = loader.WithProvider(configurator.NewFileProvider(configPath))
	}

	loader = loader.
		WithProvider(configurator.NewEnvProvider(EnvPrefix)).
		WithValidator(configurator.NewDefaultValidator())

	if err := loader.Load(context.Background(), cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.configPath = configPath
	cfg.lastModifiedAt = time.Now()

	return cfg, nil
}

// Validate checks the values configurator's tag validation cannot express.
func (c *Config) Validate() error {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	switch strings.ToLower(c.Server.Transport) {
	case TransportStdio:
	case TransportHTTP:
		if c.Server.Address == "" {
			return fmt.Errorf("server.address is required for the http transport")
		}
	default:
		return fmt.Errorf("unsupported transport %q (want %q or %q)", c.Server.Transport, TransportStdio, TransportHTTP)
	}

	if c.Anki.TimeoutSeconds < 0 {
		return fmt.Errorf("anki.timeout_seconds must not be negative")
	}
	if c.Recent.MaxLimit < 0 {
		return fmt.Errorf("recent.max_limit must not be negative")
	}
	return nil
}

// AnkiTimeout returns the per-request timeout as a duration.
func (c *Config) AnkiTimeout() time.Duration {
	return time.Duration(c.Anki.TimeoutSeconds) * time.Second
}

// SaveToFile saves the configuration to the specified file
func (c *Config) SaveToFile(path string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := configurator.SaveToFile(c, path, configurator.FormatJSON); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	c.configPath = path
	c.lastModifiedAt = time.Now()

	return nil
}

// Save saves the configuration to the last used file path
func (c *Config) Save() error {
	if c.configPath == "" {
		c.configPath = DefaultConfigFilename
	}
	return c.SaveToFile(c.configPath)
}

// GetConfigPath returns the path of the currently loaded configuration file
func (c *Config) GetConfigPath() string {
	return c.configPath
}
