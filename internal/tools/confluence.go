package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/clintrovert/pmctl/internal/confluence"
	"github.com/clintrovert/pmctl/pkg/types"
)

// GetPageTool handles the get_page MCP tool.
type GetPageTool struct {
	svc ConfluenceService
}

// NewGetPageTool creates a GetPageTool.
func NewGetPageTool(svc ConfluenceService) *GetPageTool {
	return &GetPageTool{svc: svc}
}

// Definition returns the MCP tool definition for registration.
func (t *GetPageTool) Definition() mcp.Tool {
	return mcp.NewTool("get_page",
		mcp.WithDescription("Fetch a wiki page with its storage-format body and current version."),
		mcp.WithString("page_id", mcp.Required(), mcp.Description("Page id.")),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

// Handle processes the get_page tool call.
func (t *GetPageTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("page_id")
	if err != nil {
		return missingArg(err), nil
	}

	page, err := t.svc.GetPage(ctx, id)
	if err != nil {
		return mcp.NewToolResultErrorf("Failed to get page %s: %v", id, err), nil
	}
	return jsonResult(page), nil
}

// CreatePageTool handles the create_page MCP tool.
type CreatePageTool struct {
	svc ConfluenceService
}

// NewCreatePageTool creates a CreatePageTool.
func NewCreatePageTool(svc ConfluenceService) *CreatePageTool {
	return &CreatePageTool{svc: svc}
}

// Definition returns the MCP tool definition for registration.
func (t *CreatePageTool) Definition() mcp.Tool {
	return mcp.NewTool("create_page",
		mcp.WithDescription("Create a wiki page in a space, optionally under a parent page."),
		mcp.WithString("space_key", mcp.Required(), mcp.Description("Space key.")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Page title.")),
		mcp.WithString("body", mcp.Description("Page body in storage format (XHTML).")),
		mcp.WithString("parent_id", mcp.Description("Id of the parent page.")),
	)
}

// Handle processes the create_page tool call.
func (t *CreatePageTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	space, err := req.RequireString("space_key")
	if err != nil {
		return missingArg(err), nil
	}
	title, err := req.RequireString("title")
	if err != nil {
		return missingArg(err), nil
	}

	page, err := t.svc.CreatePage(ctx, types.PageInput{
		SpaceKey: space,
		Title:    title,
		Body:     req.GetString("body", ""),
		ParentID: req.GetString("parent_id", ""),
	})
	if err != nil {
		return mcp.NewToolResultErrorf("Failed to create page %q: %v", title, err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Created page %s (ID: %s) %s", page.Title, page.ID, page.URL)), nil
}

// UpdatePageTool handles the update_page MCP tool.
type UpdatePageTool struct {
	svc ConfluenceService
}

// NewUpdatePageTool creates an UpdatePageTool.
func NewUpdatePageTool(svc ConfluenceService) *UpdatePageTool {
	return &UpdatePageTool{svc: svc}
}

// Definition returns the MCP tool definition for registration.
func (t *UpdatePageTool) Definition() mcp.Tool {
	return mcp.NewTool("update_page",
		mcp.WithDescription("Replace the title and body of a wiki page."),
		mcp.WithString("page_id", mcp.Required(), mcp.Description("Page id.")),
		mcp.WithString("title", mcp.Required(), mcp.Description("New title.")),
		mcp.WithString("body", mcp.Description("New body in storage format (XHTML).")),
		mcp.WithNumber("version_number",
			mcp.Description("Current version of the page. When omitted it is looked up first."),
		),
	)
}

// Handle processes the update_page tool call.
func (t *UpdatePageTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("page_id")
	if err != nil {
		return missingArg(err), nil
	}
	title, err := req.RequireString("title")
	if err != nil {
		return missingArg(err), nil
	}

	page, err := t.svc.UpdatePage(ctx, id, types.PageInput{
		Title:   title,
		Body:    req.GetString("body", ""),
		Version: req.GetInt("version_number", 0),
	})
	if err != nil {
		return mcp.NewToolResultErrorf("Failed to update page %s: %v", id, err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Updated page %s to version %d.", id, page.Version)), nil
}

// SearchPagesTool handles the search_pages MCP tool.
type SearchPagesTool struct {
	svc ConfluenceService
}

// NewSearchPagesTool creates a SearchPagesTool.
func NewSearchPagesTool(svc ConfluenceService) *SearchPagesTool {
	return &SearchPagesTool{svc: svc}
}

// Definition returns the MCP tool definition for registration.
func (t *SearchPagesTool) Definition() mcp.Tool {
	return mcp.NewTool("search_pages",
		mcp.WithDescription("Search wiki content with CQL."),
		mcp.WithString("cql", mcp.Required(), mcp.Description("CQL query, e.g. `space = ENG AND title ~ \"runbook\"`.")),
		mcp.WithNumber("limit", mcp.DefaultNumber(25), mcp.Description("Maximum number of results.")),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

// Handle processes the search_pages tool call.
func (t *SearchPagesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cql, err := req.RequireString("cql")
	if err != nil {
		return missingArg(err), nil
	}

	refs, err := t.svc.SearchPages(ctx, cql, req.GetInt("limit", 25))
	if err != nil {
		return mcp.NewToolResultErrorf("Failed to search pages: %v", err), nil
	}
	return jsonResult(refs), nil
}

// GetPageIDTool handles the get_page_id MCP tool.
type GetPageIDTool struct {
	svc ConfluenceService
}

// NewGetPageIDTool creates a GetPageIDTool.
func NewGetPageIDTool(svc ConfluenceService) *GetPageIDTool {
	return &GetPageIDTool{svc: svc}
}

// Definition returns the MCP tool definition for registration.
func (t *GetPageIDTool) Definition() mcp.Tool {
	return mcp.NewTool("get_page_id",
		mcp.WithDescription("Look up a page id by exact title, optionally within one space."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Exact page title.")),
		mcp.WithString("space_key", mcp.Description("Space key to search in.")),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

// Handle processes the get_page_id tool call.
func (t *GetPageIDTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return missingArg(err), nil
	}

	id, err := t.svc.PageID(ctx, title, req.GetString("space_key", ""))
	if errors.Is(err, confluence.ErrPageNotFound) {
		return mcp.NewToolResultText("Not Found"), nil
	}
	if err != nil {
		return mcp.NewToolResultErrorf("Failed to look up page %q: %v", title, err), nil
	}
	return mcp.NewToolResultText(id), nil
}

// CreateSpaceTool handles the create_space MCP tool.
type CreateSpaceTool struct {
	svc ConfluenceService
}

// NewCreateSpaceTool creates a CreateSpaceTool.
func NewCreateSpaceTool(svc ConfluenceService) *CreateSpaceTool {
	return &CreateSpaceTool{svc: svc}
}

// Definition returns the MCP tool definition for registration.
func (t *CreateSpaceTool) Definition() mcp.Tool {
	return mcp.NewTool("create_space",
		mcp.WithDescription("Create a wiki space."),
		mcp.WithString("key", mcp.Required(), mcp.Description("Space key.")),
		mcp.WithString("name", mcp.Required(), mcp.Description("Space name.")),
		mcp.WithString("description", mcp.Description("Plain-text description.")),
	)
}

// Handle processes the create_space tool call.
func (t *CreateSpaceTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("key")
	if err != nil {
		return missingArg(err), nil
	}
	name, err := req.RequireString("name")
	if err != nil {
		return missingArg(err), nil
	}

	space, err := t.svc.CreateSpace(ctx, key, name, req.GetString("description", ""))
	if err != nil {
		return mcp.NewToolResultErrorf("Failed to create space %s: %v", key, err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Space %s (%s) created.", space.Name, space.Key)), nil
}
