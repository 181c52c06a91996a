// Package server provides the MCP server implementation for the Anki tool catalog.
package server

// AnkiToolServer defines the interface for the MCP server that handles
// Anki tool calls from MCP clients.
type AnkiToolServer interface {
	// Initialize registers the tools.
	Initialize() error

	// Start starts the MCP server on the configured transport.
	Start() error

	// Stop gracefully shuts down the MCP server.
	Stop() error
}
