package scoutmcp

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/mark3labs/ticketscout/internal/logger"
)

// Server exposes ticket investigations over MCP so agents and editors can
// trigger walks and read back reports without shelling out to the CLI.
type Server struct {
	mcpServer  *server.MCPServer
	httpServer *server.StreamableHTTPServer
	port       int
	mu         sync.Mutex

	cfg Config
}

// Config wires the tool handlers to the rest of the application. Both
// callbacks are required.
type Config struct {
	// Investigate walks the reference graph starting at key and returns the
	// rendered investigation report.
	Investigate func(ctx context.Context, key string, maxDepth int) (string, error)

	// Report rebuilds the report for a previously recorded run.
	Report func(ctx context.Context, run string) (string, error)
}

// New creates a new MCP server instance. The server is not started until
// Start() is called.
func New(cfg Config) *Server {
	return &Server{cfg: cfg}
}

// Start starts the MCP HTTP server on a random available port.
// Returns the port number or an error if startup fails.
func (s *Server) Start(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.httpServer != nil {
		return 0, fmt.Errorf("server already started")
	}
	if s.cfg.Investigate == nil || s.cfg.Report == nil {
		return 0, fmt.Errorf("investigate and report handlers are required")
	}

	s.mcpServer = server.NewMCPServer(
		"ticketscout",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	if err := s.registerTools(); err != nil {
		return 0, fmt.Errorf("failed to register tools: %w", err)
	}

	// Find a random available port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("failed to find available port: %w", err)
	}
	s.port = listener.Addr().(*net.TCPAddr).Port
	// NOTE: There's a small race window between closing this listener and
	// httpServer.Start() binding to the same port. This is acceptable for
	// local use but could cause intermittent failures under load.
	_ = listener.Close()

	s.httpServer = server.NewStreamableHTTPServer(
		s.mcpServer,
		server.WithStateLess(true),
	)

	logger.Debug("Starting MCP server on port %d", s.port)

	addr := fmt.Sprintf("127.0.0.1:%d", s.port)
	httpServer := s.httpServer
	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.Start(addr); err != nil {
			logger.Error("MCP server error: %v", err)
			errCh <- err
			return
		}
		errCh <- nil
	}()

	// Give the server a moment to start or fail
	select {
	case err := <-errCh:
		if err != nil {
			return 0, fmt.Errorf("failed to start HTTP server: %w", err)
		}
	case <-time.After(100 * time.Millisecond):
	}

	logger.Debug("MCP server ready on port %d", s.port)
	return s.port, nil
}

// Stop stops the MCP HTTP server and cleans up resources.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.httpServer == nil {
		return nil // Already stopped
	}

	logger.Debug("Stopping MCP server")
	if err := s.httpServer.Shutdown(context.Background()); err != nil {
		logger.Warn("Error stopping MCP server: %v", err)
		return fmt.Errorf("failed to stop server: %w", err)
	}

	s.httpServer = nil
	s.mcpServer = nil
	return nil
}

// URL returns the HTTP URL for the MCP server endpoint.
func (s *Server) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("http://localhost:%d/mcp", s.port)
}
