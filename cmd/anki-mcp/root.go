package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/localrivet/ankimcp"
	"github.com/localrivet/ankimcp/internal/config"
	"github.com/localrivet/ankimcp/internal/errortypes"
	"github.com/localrivet/ankimcp/internal/logger"
)

// Version is set at build time with -ldflags.
var Version = "0.0.0-dev"

// serveFlags are the overrides accepted by the root command.
type serveFlags struct {
	configPath string
	transport  string
	address    string
	ankiURL    string
	logLevel   string
}

// newRootCmd builds the command tree. A fresh tree per call keeps flag
// state out of package globals.
func newRootCmd() *cobra.Command {
	flags := &serveFlags{}

	rootCmd := &cobra.Command{
		Use:   "anki-mcp",
		Short: "MCP server for Anki through AnkiConnect",
		Long: `anki-mcp exposes decks, notes, cards and models of a running Anki instance as MCP tools.
Anki must be running with the AnkiConnect add-on installed.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, flags)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", config.DefaultConfigFilename, "Path to the JSON configuration file")

	f := rootCmd.Flags()
	f.StringVar(&flags.transport, "transport", "", "MCP transport: stdio or http")
	f.StringVar(&flags.address, "address", "", "Listen address for the http transport")
	f.StringVar(&flags.ankiURL, "anki-url", "", "AnkiConnect endpoint (default "+config.DefaultAnkiURL+")")
	f.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn or error")

	rootCmd.AddCommand(newToolsCmd())
	rootCmd.AddCommand(newConfigCmd(flags))
	return rootCmd
}

// Execute runs the CLI application.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration file and applies the flags that were
// set explicitly on the command line.
func loadConfig(cmd *cobra.Command, flags *serveFlags) (*config.Config, error) {
	cfg, err := config.LoadConfigWithPath(flags.configPath)
	if err != nil {
		return nil, errortypes.ConfigError(err, "failed to load configuration")
	}

	changed := cmd.Flags().Changed
	if changed("transport") {
		cfg.Server.Transport = flags.transport
	}
	if changed("address") {
		cfg.Server.Address = flags.address
	}
	if changed("anki-url") {
		cfg.Anki.URL = flags.ankiURL
	}
	if changed("log-level") {
		cfg.Logging.Level = flags.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, errortypes.ConfigError(err, "invalid configuration")
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, flags *serveFlags) error {
	cfg, err := loadConfig(cmd, flags)
	if err != nil {
		return err
	}

	// stdout carries the MCP stream, so every log record goes to stderr.
	appLogger := logger.FromSettings(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
	logger.SetDefaultLogger(appLogger)
	appLogger.Info("anki-mcp starting", "version", Version, "transport", cfg.Server.Transport)

	srv, err := ankimcp.NewServer(ankimcp.ServerOptions{Config: cfg, Logger: appLogger})
	if err != nil {
		errortypes.LogError(appLogger, err)
		return err
	}

	setupSignalHandler(srv, appLogger)

	if err := srv.Start(); err != nil {
		err = errortypes.InternalError(err, "MCP server failed")
		errortypes.LogError(appLogger, err)
		return err
	}
	return srv.Stop()
}

// setupSignalHandler sets up a signal handler for graceful shutdown.
func setupSignalHandler(srv *ankimcp.Server, log *slog.Logger) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Info("Received shutdown signal, terminating gracefully...")

		if err := srv.Stop(); err != nil {
			errortypes.LogError(log, err)
			os.Exit(1)
		}

		log.Info("Shutdown complete")
		os.Exit(0)
	}()
}
