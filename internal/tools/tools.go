// Package tools exposes the domain services as MCP tools.
//
// Every tool is a struct with a Definition and a Handle method. Handlers
// always answer with a text result: failures come back as error-flagged text,
// never as protocol errors.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/clintrovert/pmctl/internal/orchestrator"
	"github.com/clintrovert/pmctl/pkg/types"
)

// JiraService is the work-tracking service the tools call
type JiraService interface {
	Verify(ctx context.Context) (*types.Account, error)
	OpenTasks(ctx context.Context) ([]types.IssueSummary, error)
	Search(ctx context.Context, jql string) ([]types.IssueSummary, error)
	GetIssue(ctx context.Context, key string) (*types.IssueDetails, error)
	CreateProject(ctx context.Context, input types.ProjectInput) (*types.Project, error)
	CreateIssue(ctx context.Context, input types.IssueInput) (string, error)
	UpdateIssue(ctx context.Context, key string, update types.IssueUpdate) error
	TransitionIssue(ctx context.Context, key, status string) error
	AssignIssue(ctx context.Context, key, accountID string) error
	AddComment(ctx context.Context, key, text string) error
	CreateStatus(ctx context.Context, name string, category types.StatusCategory) (string, error)
	ListBoards(ctx context.Context, projectKeyOrID string) ([]types.Board, error)
	BoardColumns(ctx context.Context, boardID int) ([]types.BoardColumn, error)
	UpdateBoardColumns(ctx context.Context, boardID int, columns []types.BoardColumn) error
}

// ConfluenceService is the wiki service the tools call
type ConfluenceService interface {
	GetPage(ctx context.Context, id string) (*types.Page, error)
	CreatePage(ctx context.Context, input types.PageInput) (*types.Page, error)
	UpdatePage(ctx context.Context, id string, input types.PageInput) (*types.Page, error)
	SearchPages(ctx context.Context, cql string, limit int) ([]types.PageRef, error)
	PageID(ctx context.Context, title, spaceKey string) (string, error)
	CreateSpace(ctx context.Context, key, name, description string) (*types.Space, error)
}

// Orchestrator runs the composite operations
type Orchestrator interface {
	Promote(ctx context.Context, key, status, comment string) (*types.IssueDetails, error)
	SetupStatuses(ctx context.Context, specs []types.StatusSpec) types.StatusReport
	ProvisionProject(ctx context.Context, input orchestrator.ProvisionInput) (orchestrator.ProvisionReport, error)
}

// Tool is a registrable MCP tool
type Tool interface {
	Definition() mcp.Tool
	Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// JiraTools returns the work-tracking tools. orch may be nil, in which case
// the composite tools are left out.
func JiraTools(svc JiraService, orch Orchestrator) []Tool {
	tools := []Tool{
		NewVerifyConnectionTool(svc),
		NewFetchOpenTasksTool(svc),
		NewSearchTasksTool(svc),
		NewGetIssueTool(svc),
		NewCreateProjectTool(svc),
		NewCreateIssueTool(svc),
		NewUpdateIssueTool(svc),
		NewTransitionIssueTool(svc),
		NewAssignIssueTool(svc),
		NewAddCommentTool(svc),
		NewCreateStatusTool(svc),
		NewListBoardsTool(svc),
		NewGetBoardConfigurationTool(svc),
		NewUpdateBoardColumnsTool(svc),
	}
	if orch != nil {
		tools = append(tools,
			NewSetupStatusesTool(orch),
			NewPromoteIssueTool(orch),
			NewProvisionProjectTool(orch),
		)
	}
	return tools
}

// ConfluenceTools returns the wiki tools
func ConfluenceTools(svc ConfluenceService) []Tool {
	return []Tool{
		NewGetPageTool(svc),
		NewCreatePageTool(svc),
		NewUpdatePageTool(svc),
		NewSearchPagesTool(svc),
		NewGetPageIDTool(svc),
		NewCreateSpaceTool(svc),
	}
}

// Recover converts a panicking handler into an error result.
func Recover(logger *zap.Logger) server.ToolHandlerMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next server.ToolHandlerFunc) server.ToolHandlerFunc {
		return func(ctx context.Context, req mcp.CallToolRequest) (result *mcp.CallToolResult, err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("tool handler panicked",
						zap.String("tool", req.Params.Name),
						zap.Any("panic", r),
					)
					result = mcp.NewToolResultErrorf("Error: internal failure in %s: %v", req.Params.Name, r)
					err = nil
				}
			}()
			return next(ctx, req)
		}
	}
}

func jsonResult(v any) *mcp.CallToolResult {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultErrorf("Error: failed to encode result: %v", err)
	}
	return mcp.NewToolResultText(string(raw))
}

func missingArg(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("Error: %v", err))
}
