package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/clintrovert/pmctl/internal/orchestrator"
	"github.com/clintrovert/pmctl/pkg/types"
)

// VerifyConnectionTool handles the verify_connection MCP tool.
type VerifyConnectionTool struct {
	svc JiraService
}

// NewVerifyConnectionTool creates a VerifyConnectionTool.
func NewVerifyConnectionTool(svc JiraService) *VerifyConnectionTool {
	return &VerifyConnectionTool{svc: svc}
}

// Definition returns the MCP tool definition for registration.
func (t *VerifyConnectionTool) Definition() mcp.Tool {
	return mcp.NewTool("verify_connection",
		mcp.WithDescription("Check the configured credentials and report the authenticated user."),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

// Handle processes the verify_connection tool call.
func (t *VerifyConnectionTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	account, err := t.svc.Verify(ctx)
	if err != nil {
		return mcp.NewToolResultErrorf("Connection failed: %v", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Connection successful. Logged in as %s (%s).", account.DisplayName, account.Email)), nil
}

// CreateProjectTool handles the create_project MCP tool.
type CreateProjectTool struct {
	svc JiraService
}

// NewCreateProjectTool creates a CreateProjectTool.
func NewCreateProjectTool(svc JiraService) *CreateProjectTool {
	return &CreateProjectTool{svc: svc}
}

// Definition returns the MCP tool definition for registration.
func (t *CreateProjectTool) Definition() mcp.Tool {
	return mcp.NewTool("create_project",
		mcp.WithDescription("Create a new software project led by the authenticated user."),
		mcp.WithString("key", mcp.Required(), mcp.Description("Project key, short and uppercase, e.g. SOC.")),
		mcp.WithString("name", mcp.Required(), mcp.Description("Project display name.")),
		mcp.WithNumber("shared_configuration_project_id",
			mcp.Description("Numeric id of a project whose configuration the new project should share."),
		),
	)
}

// Handle processes the create_project tool call.
func (t *CreateProjectTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("key")
	if err != nil {
		return missingArg(err), nil
	}
	name, err := req.RequireString("name")
	if err != nil {
		return missingArg(err), nil
	}

	_, err = t.svc.CreateProject(ctx, types.ProjectInput{
		Key:                          key,
		Name:                         name,
		AssignToMe:                   true,
		SharedConfigurationProjectID: int64(req.GetInt("shared_configuration_project_id", 0)),
	})
	if err != nil {
		return mcp.NewToolResultErrorf("Failed to create project %s (%s): %v", name, key, err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Project %s (%s) created successfully.", name, key)), nil
}

// PromoteIssueTool handles the promote_issue MCP tool.
type PromoteIssueTool struct {
	orch Orchestrator
}

// NewPromoteIssueTool creates a PromoteIssueTool.
func NewPromoteIssueTool(orch Orchestrator) *PromoteIssueTool {
	return &PromoteIssueTool{orch: orch}
}

// Definition returns the MCP tool definition for registration.
func (t *PromoteIssueTool) Definition() mcp.Tool {
	return mcp.NewTool("promote_issue",
		mcp.WithDescription("Comment on an issue, move it to a new status and return its refreshed details."),
		mcp.WithString("issue_key", mcp.Required(), mcp.Description("Issue key.")),
		mcp.WithString("status_name", mcp.Required(), mcp.Description("Transition name.")),
		mcp.WithString("comment_text", mcp.Description("Comment to add before moving the issue.")),
	)
}

// Handle processes the promote_issue tool call.
func (t *PromoteIssueTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("issue_key")
	if err != nil {
		return missingArg(err), nil
	}
	status, err := req.RequireString("status_name")
	if err != nil {
		return missingArg(err), nil
	}

	details, err := t.orch.Promote(ctx, key, status, req.GetString("comment_text", ""))
	if err != nil {
		return mcp.NewToolResultErrorf("Failed to promote %s: %v", key, err), nil
	}
	return jsonResult(details), nil
}

// ProvisionProjectTool handles the provision_project MCP tool.
type ProvisionProjectTool struct {
	orch Orchestrator
}

// NewProvisionProjectTool creates a ProvisionProjectTool.
func NewProvisionProjectTool(orch Orchestrator) *ProvisionProjectTool {
	return &ProvisionProjectTool{orch: orch}
}

// Definition returns the MCP tool definition for registration.
func (t *ProvisionProjectTool) Definition() mcp.Tool {
	return mcp.NewTool("provision_project",
		mcp.WithDescription(
			"Create a project (or reuse an existing one), ensure the delivery workflow statuses exist "+
				"and try to lay out its board columns. Best effort: returns a JSON report of every step.",
		),
		mcp.WithString("key", mcp.Required(), mcp.Description("Project key.")),
		mcp.WithString("name", mcp.Required(), mcp.Description("Project display name.")),
	)
}

// Handle processes the provision_project tool call.
func (t *ProvisionProjectTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("key")
	if err != nil {
		return missingArg(err), nil
	}
	name, err := req.RequireString("name")
	if err != nil {
		return missingArg(err), nil
	}

	report, err := t.orch.ProvisionProject(ctx, orchestrator.ProvisionInput{
		Project: types.ProjectInput{Key: key, Name: name, AssignToMe: true},
	})
	if err != nil {
		return mcp.NewToolResultErrorf("Failed to provision project %s (%s): %v", name, key, err), nil
	}
	return jsonResult(report), nil
}
