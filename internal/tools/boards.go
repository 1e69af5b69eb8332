package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/clintrovert/pmctl/internal/jira"
	"github.com/clintrovert/pmctl/pkg/types"
)

// ListBoardsTool handles the list_boards MCP tool.
type ListBoardsTool struct {
	svc JiraService
}

// NewListBoardsTool creates a ListBoardsTool.
func NewListBoardsTool(svc JiraService) *ListBoardsTool {
	return &ListBoardsTool{svc: svc}
}

// Definition returns the MCP tool definition for registration.
func (t *ListBoardsTool) Definition() mcp.Tool {
	return mcp.NewTool("list_boards",
		mcp.WithDescription("List agile boards, optionally for one project."),
		mcp.WithString("project_key", mcp.Description("Project key or id to filter on.")),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

// Handle processes the list_boards tool call.
func (t *ListBoardsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	boards, err := t.svc.ListBoards(ctx, req.GetString("project_key", ""))
	if err != nil {
		return mcp.NewToolResultErrorf("Failed to list boards: %v", err), nil
	}
	return jsonResult(boards), nil
}

// GetBoardConfigurationTool handles the get_board_configuration MCP tool.
type GetBoardConfigurationTool struct {
	svc JiraService
}

// NewGetBoardConfigurationTool creates a GetBoardConfigurationTool.
func NewGetBoardConfigurationTool(svc JiraService) *GetBoardConfigurationTool {
	return &GetBoardConfigurationTool{svc: svc}
}

// Definition returns the MCP tool definition for registration.
func (t *GetBoardConfigurationTool) Definition() mcp.Tool {
	return mcp.NewTool("get_board_configuration",
		mcp.WithDescription("Show the ordered columns of a board and the status ids mapped to each."),
		mcp.WithNumber("board_id", mcp.Required(), mcp.Description("Board id.")),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

// Handle processes the get_board_configuration tool call.
func (t *GetBoardConfigurationTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	boardID, err := req.RequireInt("board_id")
	if err != nil {
		return missingArg(err), nil
	}

	columns, err := t.svc.BoardColumns(ctx, boardID)
	if err != nil {
		return mcp.NewToolResultErrorf("Failed to get board %d configuration: %v", boardID, err), nil
	}
	return jsonResult(columns), nil
}

// UpdateBoardColumnsTool handles the update_board_columns MCP tool.
type UpdateBoardColumnsTool struct {
	svc JiraService
}

// NewUpdateBoardColumnsTool creates an UpdateBoardColumnsTool.
func NewUpdateBoardColumnsTool(svc JiraService) *UpdateBoardColumnsTool {
	return &UpdateBoardColumnsTool{svc: svc}
}

// Definition returns the MCP tool definition for registration.
func (t *UpdateBoardColumnsTool) Definition() mcp.Tool {
	return mcp.NewTool("update_board_columns",
		mcp.WithDescription(
			"Replace the column layout of a board. Many sites reject this through the public API; "+
				"that case is reported rather than retried.",
		),
		mcp.WithNumber("board_id", mcp.Required(), mcp.Description("Board id.")),
		mcp.WithArray("columns",
			mcp.Required(),
			mcp.Description("Ordered columns."),
			mcp.Items(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name":      map[string]any{"type": "string"},
					"statusIds": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
				},
				"required": []string{"name"},
			}),
		),
	)
}

type updateBoardColumnsArgs struct {
	BoardID int                 `json:"board_id"`
	Columns []types.BoardColumn `json:"columns"`
}

// Handle processes the update_board_columns tool call.
func (t *UpdateBoardColumnsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args updateBoardColumnsArgs
	if err := req.BindArguments(&args); err != nil {
		return mcp.NewToolResultErrorf("Error: invalid arguments: %v", err), nil
	}
	if args.BoardID == 0 || len(args.Columns) == 0 {
		return mcp.NewToolResultError("Error: board_id and columns are required"), nil
	}

	if err := t.svc.UpdateBoardColumns(ctx, args.BoardID, args.Columns); err != nil {
		if errors.Is(err, jira.ErrBoardConfigUnsupported) {
			return mcp.NewToolResultErrorf(
				"Board %d columns were not updated: the site does not accept board configuration changes through the public API.",
				args.BoardID,
			), nil
		}
		return mcp.NewToolResultErrorf("Failed to update board %d columns: %v", args.BoardID, err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Updated %d columns on board %d.", len(args.Columns), args.BoardID)), nil
}
