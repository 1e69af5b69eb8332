package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/clintrovert/pmctl/internal/config"
	"github.com/clintrovert/pmctl/internal/jira"
	"github.com/clintrovert/pmctl/internal/logging"
	"github.com/clintrovert/pmctl/internal/orchestrator"
)

// env builds the services a command needs
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	jira   *jira.Service
	orch   *orchestrator.Orchestrator
}

type envLoader func(logLevel string) (*env, error)

func defaultEnv(logLevel string) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return newEnv(cfg, logLevel)
}

func newEnv(cfg *config.Config, logLevel string) (*env, error) {
	if logLevel == "" {
		logLevel = cfg.LogLevel
	}
	logger, err := logging.New(logLevel)
	if err != nil {
		return nil, err
	}

	svc, err := jira.New(cfg.Jira, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to configure jira: %w", err)
	}

	return &env{
		cfg:    cfg,
		logger: logger,
		jira:   svc,
		orch:   orchestrator.NewOrchestrator(svc, logger),
	}, nil
}

func newRootCmd(load envLoader) *cobra.Command {
	var logLevel string
	e := &env{}

	root := &cobra.Command{
		Use:          "pmctl",
		Short:        "Jira project management from the command line",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := load(logLevel)
			if err != nil {
				return err
			}
			*e = *loaded
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if e.logger != nil {
				_ = e.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")

	root.AddGroup(
		&cobra.Group{ID: "issues", Title: "Issue commands:"},
		&cobra.Group{ID: "projects", Title: "Project commands:"},
	)
	root.AddCommand(
		newVerifyCmd(e),
		newFetchCmd(e),
		newSearchCmd(e),
		newDetailsCmd(e),
		newAssignCmd(e),
		newMoveCmd(e),
		newCommentCmd(e),
		newCreateCmd(e),
		newUpdateCmd(e),
		newPromoteCmd(e),
		newWatchCmd(e),
		newCreateProjectCmd(e),
		newSetupStatusesCmd(e),
		newBoardsCmd(e),
		newBoardConfigCmd(e),
		newProvisionCmd(e),
		newBootstrapCmd(e),
		newMigrateProjectCmd(e),
	)
	return root
}
