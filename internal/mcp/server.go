package mcpserver

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mark3labs/mcp-go/server"

	"coursebook/internal/layout"
	"coursebook/internal/service"
)

// Server is the MCP authoring surface. It exposes tools, resources and
// prompts so an agent can build and edit learning documents.
type Server struct {
	mcp      *server.MCPServer
	approval *ApprovalQueue
	sessions *sessionCache
	log      *slog.Logger

	docs  *service.DocumentService
	maps  *service.MindMapService
	items *service.CollectionService

	mu          sync.Mutex
	activeDocID string
}

// Deps holds everything the MCP server needs from the app layer.
type Deps struct {
	Documents   *service.DocumentService
	MindMaps    *service.MindMapService
	Collections *service.CollectionService
	Engine      *layout.Engine
	Approval    *ApprovalQueue // nil runs destructive tools without asking
	Version     string
}

// New creates and configures the server with all tools and resources.
func New(deps Deps) *Server {
	s := &Server{
		approval: deps.Approval,
		sessions: newSessionCache(deps.Engine),
		log:      slog.Default().With("component", "mcp"),
		docs:     deps.Documents,
		maps:     deps.MindMaps,
		items:    deps.Collections,
	}
	version := deps.Version
	if version == "" {
		version = "dev"
	}

	s.mcp = server.NewMCPServer(
		"coursebook",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerDocumentTools()
	s.registerMindMapTools()
	s.registerCollectionTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// ServeStdio serves MCP on stdin/stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	s.log.Info("starting stdio server")
	return server.ServeStdio(s.mcp)
}

// confirm asks for approval of a destructive call when a queue is set.
func (s *Server) confirm(ctx context.Context, tool, description string) error {
	if s.approval == nil {
		return nil
	}
	if err := s.approval.Request(ctx, tool, description); err != nil {
		return fmt.Errorf("%s: %w", tool, err)
	}
	return nil
}
