// Package mcp implements the Model Context Protocol server for Keifu.
//
// The MCP server exposes the decision ledger through MCP resources and
// tools, allowing MCP-compatible AI agents to record and inspect decisions
// without going through the HTTP API.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/ashita-ai/keifu/internal/ledger"
	"github.com/ashita-ai/keifu/internal/model"
)

// Server wraps the MCP server around the ledger store.
type Server struct {
	mcpServer *mcpserver.MCPServer
	store     *ledger.Store
	logger    *slog.Logger
}

// New creates and configures a new MCP server with all resources and tools.
func New(store *ledger.Store, version string, logger *slog.Logger) *Server {
	s := &Server{
		store:  store,
		logger: logger,
	}

	s.mcpServer = mcpserver.NewMCPServer(
		"keifu",
		version,
		mcpserver.WithResourceCapabilities(true, true),
		mcpserver.WithToolCapabilities(true),
	)

	s.registerResources()
	s.registerTools()

	return s
}

// MCPServer returns the underlying mcp-go server for transport setup.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}

func (s *Server) registerResources() {
	// keifu://decisions/recent: most recent decision records.
	s.mcpServer.AddResource(
		mcplib.NewResource(
			"keifu://decisions/recent",
			"Recent Decisions",
			mcplib.WithResourceDescription("The most recently recorded decisions, newest first"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleDecisionsRecent,
	)

	// keifu://report: point-in-time summary of the ledger.
	s.mcpServer.AddResource(
		mcplib.NewResource(
			"keifu://report",
			"Ledger Report",
			mcplib.WithResourceDescription("Summary report: totals, status breakdown, active decisions, recent activity"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleReportResource,
	)
}

func (s *Server) handleDecisionsRecent(ctx context.Context, request mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	records := s.store.Query(model.QueryFilters{})
	if len(records) > 20 {
		records = records[:20]
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("mcp: marshal decisions: %w", err)
	}

	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      "keifu://decisions/recent",
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleReportResource(ctx context.Context, request mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	data, err := json.MarshalIndent(s.store.Report(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("mcp: marshal report: %w", err)
	}

	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      "keifu://report",
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
