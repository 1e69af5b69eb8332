package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/clintrovert/pmctl/internal/jira"
	"github.com/clintrovert/pmctl/pkg/types"
)

func newVerifyCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:     "verify",
		GroupID: "issues",
		Short:   "Verify the configured credentials",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := e.jira.Verify(cmd.Context())
			if err != nil {
				return fmt.Errorf("connection failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Connection successful! Logged in as: %s (%s)\n", account.DisplayName, account.Email)
			return nil
		},
	}
}

func newFetchCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:     "fetch",
		GroupID: "issues",
		Short:   "List open tasks of the configured project",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			issues, err := e.jira.OpenTasks(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to fetch tasks: %w", err)
			}
			if len(issues) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No '%s' tasks found.\n", e.cfg.Jira.OpenStatus)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Found %d open tasks:\n", len(issues))
			printIssues(cmd, issues)
			return nil
		},
	}
}

func newSearchCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:     "search <jql>",
		GroupID: "issues",
		Short:   "Search issues with JQL",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			issues, err := e.jira.Search(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to search issues: %w", err)
			}
			if len(issues) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No issues found.")
				return nil
			}
			printIssues(cmd, issues)
			return nil
		},
	}
}

func printIssues(cmd *cobra.Command, issues []types.IssueSummary) {
	for _, issue := range issues {
		fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n", issue.Key, issue.Summary)
	}
}

func newDetailsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:     "details <issue-key>",
		GroupID: "issues",
		Short:   "Show the details of an issue",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			details, err := e.jira.GetIssue(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to fetch issue %s: %w", args[0], err)
			}
			printDetails(cmd, details)
			return nil
		},
	}
}

func printDetails(cmd *cobra.Command, d *types.IssueDetails) {
	fmt.Fprintf(cmd.OutOrStdout(), "--- Issue: %s ---\n", d.Key)
	fmt.Fprintf(cmd.OutOrStdout(), "Summary: %s\n", d.Summary)
	fmt.Fprintf(cmd.OutOrStdout(), "Status: %s\n", d.Status)
	fmt.Fprintf(cmd.OutOrStdout(), "Assignee: %s\n", d.Assignee)
	fmt.Fprintf(cmd.OutOrStdout(), "Priority: %s\n", d.Priority)
	fmt.Fprintf(cmd.OutOrStdout(), "Link: %s\n", d.URL)
	if d.HasDescription {
		fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n", d.Description)
	}
}

func newAssignCmd(e *env) *cobra.Command {
	var accountID string
	cmd := &cobra.Command{
		Use:     "assign <issue-key>",
		GroupID: "issues",
		Short:   "Assign an issue to yourself or to --account-id",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.jira.AssignIssue(cmd.Context(), args[0], accountID); err != nil {
				return fmt.Errorf("failed to assign %s: %w", args[0], err)
			}
			if accountID == "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Successfully assigned %s to me.\n", args[0])
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Successfully assigned %s to %s.\n", args[0], accountID)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&accountID, "account-id", "", "assignee account id (default: yourself)")
	return cmd
}

func newMoveCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:     "move <issue-key> [status]",
		GroupID: "issues",
		Short:   "Transition an issue (default: In Progress)",
		Args:    cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status := "In Progress"
			if len(args) == 2 {
				status = args[1]
			}
			if err := e.jira.TransitionIssue(cmd.Context(), args[0], status); err != nil {
				return fmt.Errorf("failed to move %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Successfully moved %s to '%s'.\n", args[0], status)
			return nil
		},
	}
}

func newCommentCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:     "comment <issue-key> <text>",
		GroupID: "issues",
		Short:   "Add a comment to an issue",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.jira.AddComment(cmd.Context(), args[0], args[1]); err != nil {
				return fmt.Errorf("failed to comment on %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Comment added to %s.\n", args[0])
			return nil
		},
	}
}

func newCreateCmd(e *env) *cobra.Command {
	var input types.IssueInput
	cmd := &cobra.Command{
		Use:     "create <summary>",
		GroupID: "issues",
		Short:   "Create an issue",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input.Summary = args[0]
			key, err := e.jira.CreateIssue(cmd.Context(), input)
			if err != nil {
				return fmt.Errorf("failed to create issue: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s: %s/browse/%s\n", key, e.jira.BaseURL(), key)
			return nil
		},
	}
	cmd.Flags().StringVarP(&input.Description, "description", "d", "", "issue description")
	cmd.Flags().StringVarP(&input.IssueType, "type", "t", jira.DefaultIssueType, "issue type")
	cmd.Flags().StringVarP(&input.ProjectKey, "project", "p", "", "project key (default: JIRA_PROJECT_KEY)")
	return cmd
}

func newUpdateCmd(e *env) *cobra.Command {
	var update types.IssueUpdate
	cmd := &cobra.Command{
		Use:     "update <issue-key>",
		GroupID: "issues",
		Short:   "Update the summary and/or description of an issue",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.jira.UpdateIssue(cmd.Context(), args[0], update); err != nil {
				return fmt.Errorf("failed to update %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s.\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVarP(&update.Summary, "summary", "s", "", "new summary")
	cmd.Flags().StringVarP(&update.Description, "description", "d", "", "new description")
	return cmd
}

func newPromoteCmd(e *env) *cobra.Command {
	var comment string
	cmd := &cobra.Command{
		Use:     "promote <issue-key> <status>",
		GroupID: "issues",
		Short:   "Comment on an issue, transition it and show the result",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			details, err := e.orch.Promote(cmd.Context(), args[0], args[1], comment)
			if err != nil {
				return err
			}
			printDetails(cmd, details)
			return nil
		},
	}
	cmd.Flags().StringVarP(&comment, "comment", "c", "", "comment to add before the transition")
	return cmd
}

func newWatchCmd(e *env) *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:     "watch",
		GroupID: "issues",
		Short:   "Poll for new open tasks and print them as they appear",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if interval <= 0 {
				interval = e.cfg.Jira.PollInterval
			}
			poller := jira.NewPoller(e.jira, interval, e.logger)

			e.logger.Info("watching for open tasks",
				zap.String("project", e.jira.ProjectKey()),
				zap.Duration("interval", interval),
			)
			err := e.orch.Watch(cmd.Context(), poller, func(task types.IssueSummary) error {
				fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n", task.Key, task.Summary)
				return nil
			})
			if cmd.Context().Err() != nil {
				return nil
			}
			return err
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 0, "poll interval (default: JIRA_POLL_INTERVAL)")
	return cmd
}
