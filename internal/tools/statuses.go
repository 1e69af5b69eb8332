package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/clintrovert/pmctl/pkg/types"
)

// CreateStatusTool handles the create_status MCP tool.
type CreateStatusTool struct {
	svc JiraService
}

// NewCreateStatusTool creates a CreateStatusTool.
func NewCreateStatusTool(svc JiraService) *CreateStatusTool {
	return &CreateStatusTool{svc: svc}
}

// Definition returns the MCP tool definition for registration.
func (t *CreateStatusTool) Definition() mcp.Tool {
	return mcp.NewTool("create_status",
		mcp.WithDescription("Return the id of a global status, creating it when no status has that name."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Status name.")),
		mcp.WithString("category",
			mcp.DefaultString("To Do"),
			mcp.Enum("To Do", "In Progress", "Done"),
			mcp.Description("Status category."),
		),
		mcp.WithIdempotentHintAnnotation(true),
	)
}

// Handle processes the create_status tool call.
func (t *CreateStatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return missingArg(err), nil
	}
	category, err := types.ParseStatusCategory(req.GetString("category", "To Do"))
	if err != nil {
		return missingArg(err), nil
	}

	id, err := t.svc.CreateStatus(ctx, name, category)
	if err != nil {
		return mcp.NewToolResultErrorf("Failed to create status %s: %v", name, err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Status %s is ready (ID: %s).", name, id)), nil
}

// SetupStatusesTool handles the setup_statuses MCP tool.
type SetupStatusesTool struct {
	orch Orchestrator
}

// NewSetupStatusesTool creates a SetupStatusesTool.
func NewSetupStatusesTool(orch Orchestrator) *SetupStatusesTool {
	return &SetupStatusesTool{orch: orch}
}

// Definition returns the MCP tool definition for registration.
func (t *SetupStatusesTool) Definition() mcp.Tool {
	return mcp.NewTool("setup_statuses",
		mcp.WithDescription(
			"Ensure the delivery workflow statuses exist (PLANNING through CANCELLED). "+
				"Returns a JSON report; statuses still have to be added to the project workflow by hand.",
		),
		mcp.WithIdempotentHintAnnotation(true),
	)
}

// Handle processes the setup_statuses tool call.
func (t *SetupStatusesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report := t.orch.SetupStatuses(ctx, nil)
	if len(report.Ready) == 0 && len(report.Failed) > 0 {
		result := jsonResult(report)
		result.IsError = true
		return result, nil
	}
	return jsonResult(report), nil
}
