package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/clintrovert/pmctl/pkg/types"
)

// FetchOpenTasksTool handles the fetch_open_tasks MCP tool.
type FetchOpenTasksTool struct {
	svc JiraService
}

// NewFetchOpenTasksTool creates a FetchOpenTasksTool.
func NewFetchOpenTasksTool(svc JiraService) *FetchOpenTasksTool {
	return &FetchOpenTasksTool{svc: svc}
}

// Definition returns the MCP tool definition for registration.
func (t *FetchOpenTasksTool) Definition() mcp.Tool {
	return mcp.NewTool("fetch_open_tasks",
		mcp.WithDescription("List the issues of the default project that are ready for development."),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

// Handle processes the fetch_open_tasks tool call.
func (t *FetchOpenTasksTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	issues, err := t.svc.OpenTasks(ctx)
	if err != nil {
		return mcp.NewToolResultErrorf("Failed to fetch open tasks: %v", err), nil
	}
	return jsonResult(issues), nil
}

// SearchTasksTool handles the search_tasks MCP tool.
type SearchTasksTool struct {
	svc JiraService
}

// NewSearchTasksTool creates a SearchTasksTool.
func NewSearchTasksTool(svc JiraService) *SearchTasksTool {
	return &SearchTasksTool{svc: svc}
}

// Definition returns the MCP tool definition for registration.
func (t *SearchTasksTool) Definition() mcp.Tool {
	return mcp.NewTool("search_tasks",
		mcp.WithDescription("Search issues with JQL. Returns a JSON array of {key, summary} in result order."),
		mcp.WithString("jql",
			mcp.Required(),
			mcp.Description("JQL query, e.g. `project = SOC AND status = 'IN DEVELOPMENT'`."),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

type searchHit struct {
	Key     string `json:"key"`
	Summary string `json:"summary"`
}

// Handle processes the search_tasks tool call.
func (t *SearchTasksTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jql, err := req.RequireString("jql")
	if err != nil {
		return missingArg(err), nil
	}

	issues, err := t.svc.Search(ctx, jql)
	if err != nil {
		return mcp.NewToolResultErrorf("Failed to search issues: %v", err), nil
	}

	hits := make([]searchHit, 0, len(issues))
	for _, issue := range issues {
		hits = append(hits, searchHit{Key: issue.Key, Summary: issue.Summary})
	}
	return jsonResult(hits), nil
}

// GetIssueTool handles the get_issue MCP tool.
type GetIssueTool struct {
	svc JiraService
}

// NewGetIssueTool creates a GetIssueTool.
func NewGetIssueTool(svc JiraService) *GetIssueTool {
	return &GetIssueTool{svc: svc}
}

// Definition returns the MCP tool definition for registration.
func (t *GetIssueTool) Definition() mcp.Tool {
	return mcp.NewTool("get_issue",
		mcp.WithDescription("Get the summary, status, assignee, priority, description text and link of an issue."),
		mcp.WithString("issue_key", mcp.Required(), mcp.Description("Issue key, e.g. SOC-42.")),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

// Handle processes the get_issue tool call.
func (t *GetIssueTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("issue_key")
	if err != nil {
		return missingArg(err), nil
	}

	details, err := t.svc.GetIssue(ctx, key)
	if err != nil {
		return mcp.NewToolResultErrorf("Failed to get issue %s: %v", key, err), nil
	}
	return jsonResult(details), nil
}

// CreateIssueTool handles the create_issue MCP tool.
type CreateIssueTool struct {
	svc JiraService
}

// NewCreateIssueTool creates a CreateIssueTool.
func NewCreateIssueTool(svc JiraService) *CreateIssueTool {
	return &CreateIssueTool{svc: svc}
}

// Definition returns the MCP tool definition for registration.
func (t *CreateIssueTool) Definition() mcp.Tool {
	return mcp.NewTool("create_issue",
		mcp.WithDescription("Create a new issue. The description is stored as a single paragraph."),
		mcp.WithString("summary", mcp.Required(), mcp.Description("One-line summary.")),
		mcp.WithString("description", mcp.Required(), mcp.Description("Plain-text description.")),
		mcp.WithString("issue_type", mcp.DefaultString("Task"), mcp.Description("Issue type name.")),
		mcp.WithString("project_key", mcp.Description("Target project. Defaults to the configured project.")),
	)
}

// Handle processes the create_issue tool call.
func (t *CreateIssueTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	summary, err := req.RequireString("summary")
	if err != nil {
		return missingArg(err), nil
	}

	input := types.IssueInput{
		Summary:     summary,
		Description: req.GetString("description", ""),
		IssueType:   req.GetString("issue_type", "Task"),
		ProjectKey:  req.GetString("project_key", ""),
	}
	if input.IssueType == "" {
		input.IssueType = "Task"
	}

	key, err := t.svc.CreateIssue(ctx, input)
	if err != nil {
		return mcp.NewToolResultErrorf("Failed to create issue: %v", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Created %s: %s", input.IssueType, key)), nil
}

// UpdateIssueTool handles the update_issue MCP tool.
type UpdateIssueTool struct {
	svc JiraService
}

// NewUpdateIssueTool creates an UpdateIssueTool.
func NewUpdateIssueTool(svc JiraService) *UpdateIssueTool {
	return &UpdateIssueTool{svc: svc}
}

// Definition returns the MCP tool definition for registration.
func (t *UpdateIssueTool) Definition() mcp.Tool {
	return mcp.NewTool("update_issue",
		mcp.WithDescription("Update the summary and/or description of an issue. At least one must be given."),
		mcp.WithString("issue_key", mcp.Required(), mcp.Description("Issue key.")),
		mcp.WithString("summary", mcp.Description("New summary.")),
		mcp.WithString("description", mcp.Description("New plain-text description.")),
	)
}

// Handle processes the update_issue tool call.
func (t *UpdateIssueTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("issue_key")
	if err != nil {
		return missingArg(err), nil
	}

	update := types.IssueUpdate{
		Summary:     req.GetString("summary", ""),
		Description: req.GetString("description", ""),
	}
	if err := t.svc.UpdateIssue(ctx, key, update); err != nil {
		return mcp.NewToolResultErrorf("Failed to update %s: %v", key, err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Updated %s.", key)), nil
}

// TransitionIssueTool handles the transition_issue MCP tool.
type TransitionIssueTool struct {
	svc JiraService
}

// NewTransitionIssueTool creates a TransitionIssueTool.
func NewTransitionIssueTool(svc JiraService) *TransitionIssueTool {
	return &TransitionIssueTool{svc: svc}
}

// Definition returns the MCP tool definition for registration.
func (t *TransitionIssueTool) Definition() mcp.Tool {
	return mcp.NewTool("transition_issue",
		mcp.WithDescription(
			"Move an issue through one of its currently available transitions. "+
				"The name is matched ignoring case; when nothing matches the available names are listed.",
		),
		mcp.WithString("issue_key", mcp.Required(), mcp.Description("Issue key.")),
		mcp.WithString("status_name", mcp.Required(), mcp.Description("Transition name, e.g. In Progress.")),
	)
}

// Handle processes the transition_issue tool call.
func (t *TransitionIssueTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("issue_key")
	if err != nil {
		return missingArg(err), nil
	}
	status, err := req.RequireString("status_name")
	if err != nil {
		return missingArg(err), nil
	}

	if err := t.svc.TransitionIssue(ctx, key, status); err != nil {
		return mcp.NewToolResultErrorf("Failed to transition %s: %v", key, err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Moved %s to %s.", key, status)), nil
}

// AssignIssueTool handles the assign_issue MCP tool.
type AssignIssueTool struct {
	svc JiraService
}

// NewAssignIssueTool creates an AssignIssueTool.
func NewAssignIssueTool(svc JiraService) *AssignIssueTool {
	return &AssignIssueTool{svc: svc}
}

// Definition returns the MCP tool definition for registration.
func (t *AssignIssueTool) Definition() mcp.Tool {
	return mcp.NewTool("assign_issue",
		mcp.WithDescription("Assign an issue. Without an account id it is assigned to the authenticated user."),
		mcp.WithString("issue_key", mcp.Required(), mcp.Description("Issue key.")),
		mcp.WithString("account_id", mcp.Description("Account id of the new assignee.")),
	)
}

// Handle processes the assign_issue tool call.
func (t *AssignIssueTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("issue_key")
	if err != nil {
		return missingArg(err), nil
	}
	accountID := req.GetString("account_id", "")

	if err := t.svc.AssignIssue(ctx, key, accountID); err != nil {
		return mcp.NewToolResultErrorf("Failed to assign %s: %v", key, err), nil
	}
	if accountID == "" {
		return mcp.NewToolResultText(fmt.Sprintf("Assigned %s to you.", key)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Assigned %s to %s.", key, accountID)), nil
}

// AddCommentTool handles the add_comment MCP tool.
type AddCommentTool struct {
	svc JiraService
}

// NewAddCommentTool creates an AddCommentTool.
func NewAddCommentTool(svc JiraService) *AddCommentTool {
	return &AddCommentTool{svc: svc}
}

// Definition returns the MCP tool definition for registration.
func (t *AddCommentTool) Definition() mcp.Tool {
	return mcp.NewTool("add_comment",
		mcp.WithDescription("Add a plain-text comment to an issue."),
		mcp.WithString("issue_key", mcp.Required(), mcp.Description("Issue key.")),
		mcp.WithString("comment_text", mcp.Required(), mcp.Description("Comment text.")),
	)
}

// Handle processes the add_comment tool call.
func (t *AddCommentTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("issue_key")
	if err != nil {
		return missingArg(err), nil
	}
	text, err := req.RequireString("comment_text")
	if err != nil {
		return missingArg(err), nil
	}

	if err := t.svc.AddComment(ctx, key, text); err != nil {
		return mcp.NewToolResultErrorf("Failed to add comment to %s: %v", key, err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Comment added to %s.", key)), nil
}
