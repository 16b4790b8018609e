package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/hoybrett99/StudyBuddy/internal/db"
	"github.com/hoybrett99/StudyBuddy/internal/rag"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes study material search and
// question answering as tools over stdio.
type Server struct {
	answerer *rag.Answerer
	registry *db.DB
	mcp      *server.MCPServer
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(answerer *rag.Answerer, registry *db.DB) *Server {
	s := &Server{
		answerer: answerer,
		registry: registry,
	}

	s.mcp = server.NewMCPServer(
		"studybuddy",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(searchDocumentsTool, s.handleSearchDocuments)
	s.mcp.AddTool(askDocumentsTool, s.handleAskDocuments)
	s.mcp.AddTool(listDocumentsTool, s.handleListDocuments)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
