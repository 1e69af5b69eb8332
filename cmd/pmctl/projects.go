package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/clintrovert/pmctl/internal/orchestrator"
	"github.com/clintrovert/pmctl/internal/projectkey"
	"github.com/clintrovert/pmctl/pkg/types"
)

func newCreateProjectCmd(e *env) *cobra.Command {
	var (
		sharedConfigID int64
		description    string
	)
	cmd := &cobra.Command{
		Use:     "create-project <key> [name]",
		GroupID: "projects",
		Short:   "Create a software project led by you",
		Long: `Create a software project led by you.

When name is omitted it is derived from the key. With --shared-config the new
project shares the schemes of the project with that numeric id.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := strings.ToUpper(args[0])
			name := projectkey.DisplayName(args[0])
			if len(args) == 2 {
				name = args[1]
			}

			project, err := e.jira.CreateProject(cmd.Context(), types.ProjectInput{
				Key:                          key,
				Name:                         name,
				Description:                  description,
				AssignToMe:                   true,
				SharedConfigurationProjectID: sharedConfigID,
			})
			if err != nil {
				return fmt.Errorf("failed to create project %s (%s): %w", name, key, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Project %s (%s) created successfully.\n", project.Name, project.Key)
			fmt.Fprintf(cmd.OutOrStdout(), "Link: %s/browse/%s\n", e.jira.BaseURL(), project.Key)
			return nil
		},
	}
	cmd.Flags().Int64Var(&sharedConfigID, "shared-config", 0, "id of a project whose configuration to share")
	cmd.Flags().StringVarP(&description, "description", "d", "", "project description")
	return cmd
}

func newSetupStatusesCmd(e *env) *cobra.Command {
	var statuses []string
	cmd := &cobra.Command{
		Use:     "setup-statuses",
		GroupID: "projects",
		Short:   "Ensure the delivery workflow statuses exist",
		Long: `Ensure the delivery workflow statuses exist, creating the missing ones.

The statuses still have to be added to each project workflow by hand.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			specs, err := parseStatusSpecs(statuses)
			if err != nil {
				return err
			}

			report := e.orch.SetupStatuses(cmd.Context(), specs)
			out := cmd.OutOrStdout()
			for _, status := range report.Ready {
				fmt.Fprintf(out, "  %-24s %-8s %s\n", status.Name, status.ID, status.Category)
			}
			for _, failure := range report.Failed {
				fmt.Fprintf(out, "  %-24s FAILED   %s\n", failure.Name, failure.Error)
			}
			if !report.OK() {
				return fmt.Errorf("%d of %d statuses could not be ensured", len(report.Failed), len(report.Failed)+len(report.Ready))
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&statuses, "status", nil, `status to ensure as NAME=CATEGORY, e.g. "IN REVIEW=In Progress" (repeatable; default: delivery workflow)`)
	return cmd
}

// parseStatusSpecs parses NAME=CATEGORY pairs. A missing category means To Do.
func parseStatusSpecs(values []string) ([]types.StatusSpec, error) {
	specs := make([]types.StatusSpec, 0, len(values))
	for _, value := range values {
		name, category, found := strings.Cut(value, "=")
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("invalid status %q: name is empty", value)
		}

		spec := types.StatusSpec{Name: name, Category: types.CategoryToDo}
		if found {
			parsed, err := types.ParseStatusCategory(category)
			if err != nil {
				return nil, fmt.Errorf("invalid status %q: %w", value, err)
			}
			spec.Category = parsed
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func newBoardsCmd(e *env) *cobra.Command {
	var project string
	cmd := &cobra.Command{
		Use:     "boards",
		GroupID: "projects",
		Short:   "List agile boards",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			boards, err := e.jira.ListBoards(cmd.Context(), project)
			if err != nil {
				return fmt.Errorf("failed to list boards: %w", err)
			}
			if len(boards) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No boards found.")
				return nil
			}
			for _, board := range boards {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\n", board.ID, board.Type, board.Name)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&project, "project", "p", "", "project key or id to filter on")
	return cmd
}

func newBoardConfigCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:     "board-config <board-id>",
		GroupID: "projects",
		Short:   "Show the columns of a board and their status ids",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			boardID, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid board id %q: %w", args[0], err)
			}

			columns, err := e.jira.BoardColumns(cmd.Context(), boardID)
			if err != nil {
				return fmt.Errorf("failed to get board %d configuration: %w", boardID, err)
			}
			for i, column := range columns {
				fmt.Fprintf(cmd.OutOrStdout(), "%d. %s [%s]\n", i+1, column.Name, strings.Join(column.StatusIDs, ", "))
			}
			return nil
		},
	}
}

func newProvisionCmd(e *env) *cobra.Command {
	var statuses []string
	cmd := &cobra.Command{
		Use:     "provision <key> <name>",
		GroupID: "projects",
		Short:   "Create a project with workflow statuses and board columns",
		Long: `Create a project (or reuse an existing one with the same key), ensure the
column statuses exist and try to lay out the first board's columns.

Every step is best effort; the JSON report lists what succeeded.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			columns, err := parseStatusSpecs(statuses)
			if err != nil {
				return err
			}

			report, err := e.orch.ProvisionProject(cmd.Context(), orchestrator.ProvisionInput{
				Project: types.ProjectInput{Key: strings.ToUpper(args[0]), Name: args[1], AssignToMe: true},
				Columns: columns,
			})
			if err != nil {
				return err
			}
			if err := printJSON(cmd, report); err != nil {
				return err
			}
			if !report.OK() {
				return fmt.Errorf("provisioning finished with %d problems", len(report.Problems))
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&statuses, "status", nil, "column status as NAME=CATEGORY (repeatable; default: delivery workflow)")
	return cmd
}

func newBootstrapCmd(e *env) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:     "bootstrap <dir>",
		GroupID: "projects",
		Short:   "Create one project per sub-directory of dir",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := e.orch.BootstrapProjects(cmd.Context(), args[0], dryRun)
			if err != nil {
				return err
			}

			failed := 0
			out := cmd.OutOrStdout()
			for _, result := range results {
				switch {
				case result.Error != "":
					failed++
					fmt.Fprintf(out, "FAIL  %-6s %s: %s\n", result.Key, result.Name, result.Error)
				case result.Created:
					fmt.Fprintf(out, "OK    %-6s %s\n", result.Key, result.Name)
				default:
					fmt.Fprintf(out, "PLAN  %-6s %s %s\n", result.Key, result.Name, result.Remote)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d projects could not be created", failed, len(results))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the projects without creating them")
	return cmd
}

func newMigrateProjectCmd(e *env) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:     "migrate-project <source-key> <target-key>",
		GroupID: "projects",
		Short:   "Recreate a project sharing another project's configuration",
		Long: `Recreate target-key with the shared configuration of source-key.

An existing target project is DELETED first, together with its issues.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.ToUpper(args[1])
			if name == "" {
				name = projectkey.DisplayName(args[1])
			}

			project, err := e.orch.MigrateProject(cmd.Context(), orchestrator.MigrateInput{
				SourceKey:  strings.ToUpper(args[0]),
				TargetKey:  target,
				TargetName: name,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Project %s (%s) now shares the configuration of %s.\n", project.Name, project.Key, strings.ToUpper(args[0]))
			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "target project name (default: derived from the key)")
	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
