// Package server composes the MCP server from the domain services and runs it
// on the configured transport.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/clintrovert/pmctl/internal/api/rest"
	"github.com/clintrovert/pmctl/internal/config"
	"github.com/clintrovert/pmctl/internal/tools"
)

const (
	// Name identifies the server to MCP clients.
	Name = "pmctl"

	shutdownTimeout = 10 * time.Second
)

// Version is set at build time.
var Version = "dev"

const instructions = `Tools for Jira project management and Confluence documentation.
Use verify_connection first when a call fails with an authentication error.
Issue keys look like SOC-42. Transitions are matched by name, case-insensitively.`

// Deps are the services the tools call. Jira is required; Confluence and
// Orchestrator may be nil.
type Deps struct {
	Jira         tools.JiraService
	Confluence   tools.ConfluenceService
	Orchestrator tools.Orchestrator
	Logger       *zap.Logger
}

// Server hosts the MCP server
type Server struct {
	mcp    *server.MCPServer
	logger *zap.Logger
	names  []string
}

// New creates a configured MCP server with every available tool registered.
func New(deps Deps) (*Server, error) {
	if deps.Jira == nil {
		return nil, errors.New("jira service is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	mcpServer := server.NewMCPServer(
		Name,
		Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions(instructions),
		server.WithToolHandlerMiddleware(tools.Recover(logger)),
	)

	registered := tools.JiraTools(deps.Jira, deps.Orchestrator)
	if deps.Confluence != nil {
		registered = append(registered, tools.ConfluenceTools(deps.Confluence)...)
	}

	s := &Server{mcp: mcpServer, logger: logger}
	for _, tool := range registered {
		def := tool.Definition()
		mcpServer.AddTool(def, tool.Handle)
		s.names = append(s.names, def.Name)
	}

	logger.Info("registered tools",
		zap.Int("count", len(s.names)),
		zap.Bool("confluence", deps.Confluence != nil),
	)
	return s, nil
}

// MCP returns the underlying MCP server.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// ToolNames returns the registered tool names in registration order.
func (s *Server) ToolNames() []string {
	return append([]string(nil), s.names...)
}

// Serve runs the server on cfg's transport until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, cfg config.MCPConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	if cfg.Transport == "stdio" {
		s.logger.Info("serving MCP on stdio")
		stdio := server.NewStdioServer(s.mcp)
		stdio.SetErrorLogger(zap.NewStdLog(s.logger))
		if err := stdio.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("failed to serve stdio: %w", err)
		}
		return nil
	}

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	handler := rest.NewHandler(s.mcp, rest.Options{
		Transport:    cfg.Transport,
		BindHost:     cfg.Host,
		AllowedHosts: cfg.AllowedHosts,
	}, s.logger)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("serving MCP over HTTP",
			zap.String("transport", cfg.Transport),
			zap.String("address", addr),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("failed to serve %s on %s: %w", cfg.Transport, addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down MCP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := handler.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("failed to close transport sessions", zap.Error(err))
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	return nil
}
