package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/clintrovert/pmctl/internal/config"
	"github.com/clintrovert/pmctl/internal/confluence"
	"github.com/clintrovert/pmctl/internal/jira"
	"github.com/clintrovert/pmctl/internal/logging"
	"github.com/clintrovert/pmctl/internal/orchestrator"
	"github.com/clintrovert/pmctl/internal/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		transport string
		host      string
		port      int
	)

	cmd := &cobra.Command{
		Use:          "mcp",
		Short:        "Serve the Jira and Confluence tools over MCP",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("transport") {
				cfg.MCP.Transport = transport
			}
			if cmd.Flags().Changed("host") {
				cfg.MCP.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.MCP.Port = port
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&transport, "transport", "stdio", "transport: stdio, sse or http (overrides MCP_TRANSPORT)")
	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "bind address for sse/http (overrides MCP_HOST)")
	cmd.Flags().IntVar(&port, "port", 8000, "port for sse/http (overrides MCP_PORT)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	if err := cfg.MCP.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	jiraSvc, err := jira.New(cfg.Jira, logger)
	if err != nil {
		logger.Error("invalid jira configuration", zap.Error(err))
		return fmt.Errorf("failed to configure jira: %w", err)
	}

	deps := server.Deps{
		Jira:         jiraSvc,
		Orchestrator: orchestrator.NewOrchestrator(jiraSvc, logger),
		Logger:       logger,
	}

	if cfg.Confluence.Enabled() {
		wiki, err := confluence.New(cfg.Confluence, logger)
		if err != nil {
			logger.Error("invalid confluence configuration", zap.Error(err))
			return fmt.Errorf("failed to configure confluence: %w", err)
		}
		deps.Confluence = wiki
	} else {
		logger.Info("confluence not configured; wiki tools disabled")
	}

	srv, err := server.New(deps)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	return srv.Serve(ctx, cfg.MCP)
}
