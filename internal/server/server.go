// Package server provides the MCP server implementation for the Anki tool catalog.
package server

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/localrivet/ankimcp/internal/config"
	"github.com/localrivet/ankimcp/internal/errortypes"
	"github.com/localrivet/ankimcp/internal/tools"
	"github.com/localrivet/gomcp/server"
)

// ServerName is the name announced to MCP clients.
const ServerName = "anki-mcp"

// Common server error types
var (
	ErrServerNotInitialized = errors.New("server not initialized")
	ErrMissingDependencies  = errors.New("one or more required dependencies are nil")
)

// Options configures the MCP transport.
type Options struct {
	// Transport is config.TransportStdio (default) or config.TransportHTTP.
	Transport string
	// Address is the listen address for the http transport.
	Address string
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// MCPAnkiToolServer implements the AnkiToolServer interface by exposing
// every catalog entry as an MCP tool.
type MCPAnkiToolServer struct {
	catalog   *tools.Catalog
	transport string
	address   string
	logger    *slog.Logger
	mcpServer server.Server

	// ctx bounds every bridge call made by a handler and is canceled by Stop.
	ctx    context.Context
	cancel context.CancelFunc
}

// NewAnkiToolServer creates a new MCPAnkiToolServer instance.
func NewAnkiToolServer(catalog *tools.Catalog, opts Options) *MCPAnkiToolServer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	transport := strings.ToLower(opts.Transport)
	if transport == "" {
		transport = config.TransportStdio
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &MCPAnkiToolServer{
		catalog:   catalog,
		transport: transport,
		address:   opts.Address,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Initialize creates the MCP server and registers every tool.
func (s *MCPAnkiToolServer) Initialize() error {
	s.logger.Info("Initializing Anki MCP tool server")

	if s.catalog == nil {
		return errortypes.ConfigError(ErrMissingDependencies, "server initialization failed")
	}

	s.mcpServer = s.Register(server.NewServer(ServerName))
	s.logger.Info("Anki MCP tool server initialized", "tool_count", len(tools.Entries()))
	return nil
}

// Register adds every catalog tool to srv and returns it. It lets a host
// application mount the Anki tools on its own gomcp server.
func (s *MCPAnkiToolServer) Register(srv server.Server) server.Server {
	srv = srv.Tool(tools.ToolListDecks, describe(tools.ToolListDecks), s.handleListDecks)
	srv = srv.Tool(tools.ToolCreateDeck, describe(tools.ToolCreateDeck), s.handleCreateDeck)
	srv = srv.Tool(tools.ToolDeleteDeck, describe(tools.ToolDeleteDeck), s.handleDeleteDeck)
	srv = srv.Tool(tools.ToolRenameDeck, describe(tools.ToolRenameDeck), s.handleRenameDeck)
	srv = srv.Tool(tools.ToolDeckStats, describe(tools.ToolDeckStats), s.handleDeckStats)
	srv = srv.Tool(tools.ToolGetCardStats, describe(tools.ToolGetCardStats), s.handleGetCardStats)
	srv = srv.Tool(tools.ToolListModels, describe(tools.ToolListModels), s.handleListModels)
	srv = srv.Tool(tools.ToolModelFieldNames, describe(tools.ToolModelFieldNames), s.handleModelFieldNames)
	srv = srv.Tool(tools.ToolAddCard, describe(tools.ToolAddCard), s.handleAddCard)
	srv = srv.Tool(tools.ToolAddCards, describe(tools.ToolAddCards), s.handleAddCards)
	srv = srv.Tool(tools.ToolDeleteCards, describe(tools.ToolDeleteCards), s.handleDeleteCards)
	srv = srv.Tool(tools.ToolUpdateNoteFields, describe(tools.ToolUpdateNoteFields), s.handleUpdateNoteFields)
	srv = srv.Tool(tools.ToolFindNotes, describe(tools.ToolFindNotes), s.handleFindNotes)
	srv = srv.Tool(tools.ToolGetNotesInfo, describe(tools.ToolGetNotesInfo), s.handleGetNotesInfo)
	srv = srv.Tool(tools.ToolGetCards, describe(tools.ToolGetCards), s.handleGetCards)
	srv = srv.Tool(tools.ToolGetRecentCards, describe(tools.ToolGetRecentCards), s.handleGetRecentCards)
	srv = srv.Tool(tools.ToolSuspendCards, describe(tools.ToolSuspendCards), s.handleSuspendCards)
	srv = srv.Tool(tools.ToolUnsuspendCards, describe(tools.ToolUnsuspendCards), s.handleUnsuspendCards)
	srv = srv.Tool(tools.ToolSetDueDate, describe(tools.ToolSetDueDate), s.handleSetDueDate)
	return srv
}

func describe(name string) string {
	entry, _ := tools.Lookup(name)
	return entry.Description
}

// Start runs the MCP server on the configured transport. It blocks until
// the transport stops.
func (s *MCPAnkiToolServer) Start() error {
	if s.mcpServer == nil {
		return errortypes.ConfigError(ErrServerNotInitialized, "cannot start server")
	}

	switch s.transport {
	case config.TransportHTTP:
		s.logger.Info("Starting Anki MCP tool server", "transport", s.transport, "address", s.address)
		return s.mcpServer.AsHTTP(s.address).Run()
	case config.TransportStdio:
		s.logger.Info("Starting Anki MCP tool server", "transport", s.transport)
		return s.mcpServer.AsStdio().Run()
	default:
		return errortypes.ConfigError(errors.New("unsupported transport "+s.transport), "cannot start server")
	}
}

// Stop cancels in-flight bridge calls. The stdio transport exits when
// stdin is closed.
func (s *MCPAnkiToolServer) Stop() error {
	s.logger.Info("Stopping Anki MCP tool server")
	s.cancel()
	return nil
}
