// Package ankimcp exposes an Anki collection to MCP clients through the
// AnkiConnect add-on.
package ankimcp

import (
	"context"
	"log/slog"
	"time"

	"github.com/localrivet/ankimcp/internal/ankiconnect"
	"github.com/localrivet/ankimcp/internal/config"
	"github.com/localrivet/ankimcp/internal/errortypes"
	"github.com/localrivet/ankimcp/internal/journal"
	"github.com/localrivet/ankimcp/internal/server"
	"github.com/localrivet/ankimcp/internal/status"
	"github.com/localrivet/ankimcp/internal/telemetry"
	"github.com/localrivet/ankimcp/internal/tools"
	gomcpserver "github.com/localrivet/gomcp/server"
)

// Config represents the configuration for the Anki MCP service.
type Config = config.Config

const statusShutdownTimeout = 5 * time.Second

// Components holds the wired parts of the service. Journal is nil when
// journal.sqlite_path is empty.
type Components struct {
	Client  *ankiconnect.Client
	Catalog *tools.Catalog
	Metrics *telemetry.MetricsCollector
	Journal journal.Recorder
}

// Close releases the journal, if any.
func (c *Components) Close() error {
	if c == nil || c.Journal == nil {
		return nil
	}
	return c.Journal.Close()
}

// Server represents the Anki MCP service.
type Server struct {
	config     *config.Config
	components *Components
	toolServer *server.MCPAnkiToolServer
	status     *status.Server
	logger     *slog.Logger
}

// ServerOptions defines the options for creating a new Server.
type ServerOptions struct {
	Config     *Config      // Pre-filled config. If nil, ConfigPath is used.
	ConfigPath string       // Path to config file. Used if Config is nil. If both are empty, DefaultConfig() is used.
	Logger     *slog.Logger // External logger. If nil, slog.Default() is used.
}

// NewServer creates a new Anki MCP Server with the given options.
// If opts.Config is provided, it will be used directly.
// Otherwise, if opts.ConfigPath is provided, configuration will be loaded from that path.
// If neither is provided, DefaultConfig() will be used.
func NewServer(opts ServerOptions) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var cfg *Config
	var err error

	if opts.Config != nil {
		cfg = opts.Config
		logger.Info("Using provided Config object for server initialization")
	} else if opts.ConfigPath != "" {
		logger.Info("Loading configuration for server initialization", "path", opts.ConfigPath)
		cfg, err = config.LoadConfigWithPath(opts.ConfigPath)
		if err != nil {
			return nil, errortypes.ConfigError(err, "Failed to load configuration from path: "+opts.ConfigPath)
		}
	} else {
		logger.Warn("No Config object or ConfigPath provided, using default configuration for server initialization")
		cfg = DefaultConfig()
	}

	if err := cfg.Validate(); err != nil {
		return nil, errortypes.ConfigError(err, "invalid configuration")
	}

	components, err := CreateComponents(cfg, logger)
	if err != nil {
		logger.Error("Failed to create components during server initialization", "error", err)
		return nil, err
	}

	logger.Info("Initializing Anki tool server component")
	toolServer := server.NewAnkiToolServer(components.Catalog, server.Options{
		Transport: cfg.Server.Transport,
		Address:   cfg.Server.Address,
		Logger:    logger,
	})
	if err := toolServer.Initialize(); err != nil {
		components.Close()
		return nil, errortypes.ConfigError(err, "Failed to initialize MCP tool server component")
	}

	s := &Server{
		config:     cfg,
		components: components,
		toolServer: toolServer,
		logger:     logger,
	}

	if cfg.Status.Address != "" {
		s.status = status.NewServer(status.Options{
			Address: cfg.Status.Address,
			Anki:    components.Client,
			Metrics: components.Metrics,
			Journal: components.Journal,
			Logger:  logger,
		})
	}

	logger.Info("Anki MCP server successfully initialized", "anki_url", components.Client.URL())
	return s, nil
}

// DefaultConfig returns the default configuration for the Anki MCP service.
func DefaultConfig() *Config {
	return config.NewConfig()
}

// CreateComponents builds the bridge client, the tool catalog and the
// optional journal without creating a server. Hosts that mount the tools
// on their own MCP server start here.
func CreateComponents(cfg *Config, logger *slog.Logger) (*Components, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}

	metrics := telemetry.NewMetricsCollector()
	clientOpts := []ankiconnect.Option{
		ankiconnect.WithMetrics(metrics),
		ankiconnect.WithLogger(logger),
	}

	var rec journal.Recorder
	if cfg.Journal.SQLitePath != "" {
		logger.Info("Initializing call journal", "path", cfg.Journal.SQLitePath, "max_entries", cfg.Journal.MaxEntries)
		sqliteRec := journal.NewSQLiteRecorder(cfg.Journal.MaxEntries)
		if err := sqliteRec.Initialize(cfg.Journal.SQLitePath); err != nil {
			return nil, errortypes.InternalError(err, "Failed to initialize call journal").
				WithField("path", cfg.Journal.SQLitePath)
		}
		rec = sqliteRec
		clientOpts = append(clientOpts, ankiconnect.WithJournal(rec))
	}

	client := ankiconnect.NewClient(ankiconnect.Config{
		URL:          cfg.Anki.URL,
		Timeout:      cfg.AnkiTimeout(),
		StrictErrors: cfg.Anki.StrictErrors,
	}, clientOpts...)

	catalog := tools.NewCatalog(client, tools.Options{
		DefaultRecentLimit: cfg.Recent.DefaultLimit,
		MaxRecentLimit:     cfg.Recent.MaxLimit,
	})

	logger.Info("Components successfully initialized", "anki_url", client.URL(), "journal", rec != nil)
	return &Components{
		Client:  client,
		Catalog: catalog,
		Metrics: metrics,
		Journal: rec,
	}, nil
}

// RegisterTools mounts every Anki tool on a host gomcp server and returns it.
func RegisterTools(srv gomcpserver.Server, catalog *tools.Catalog, logger *slog.Logger) gomcpserver.Server {
	return server.NewAnkiToolServer(catalog, server.Options{Logger: logger}).Register(srv)
}

// Start starts the status listener, when configured, and then the MCP
// transport. It blocks until the transport stops.
func (s *Server) Start() error {
	if s.status != nil {
		s.status.Start()
	}
	s.logger.Info("Starting Anki MCP service", "transport", s.config.Server.Transport)
	return s.toolServer.Start()
}

// Stop stops the Anki MCP service and closes the journal.
func (s *Server) Stop() error {
	s.logger.Info("Stopping Anki MCP service")

	if err := s.toolServer.Stop(); err != nil {
		s.logger.Error("Error stopping tool server", "error", err)
		return err
	}

	if s.status != nil {
		ctx, cancel := context.WithTimeout(context.Background(), statusShutdownTimeout)
		defer cancel()
		if err := s.status.Shutdown(ctx); err != nil {
			s.logger.Error("Error stopping status listener", "error", err)
		}
	}

	if err := s.components.Close(); err != nil {
		s.logger.Error("Failed to close call journal", "error", err)
		return err
	}

	s.logger.Info("Anki MCP service stopped")
	return nil
}

// Catalog returns the tool catalog used by the server.
func (s *Server) Catalog() *tools.Catalog {
	return s.components.Catalog
}

// Metrics returns the bridge metrics collector.
func (s *Server) Metrics() *telemetry.MetricsCollector {
	return s.components.Metrics
}

// Health probes AnkiConnect and reports the bridge health.
func (s *Server) Health(ctx context.Context) *status.HealthReport {
	return status.CreateHealthReport(ctx, s.components.Client, s.components.Metrics)
}
