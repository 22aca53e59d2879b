package mcpserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/artpar/pageblocks/app"
	"github.com/artpar/pageblocks/core/validation"
)

func (s *Server) registerBlockTools() {
	// ── list_block_types ───────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_block_types",
		mcp.WithDescription("List every enabled block type with its description, fields and example"),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{ReadOnlyHint: boolPtr(true)}),
	), s.handleListBlockTypes)

	// ── get_block_type ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("get_block_type",
		mcp.WithDescription("Describe one block type, including its JSON schema"),
		mcp.WithString("key", mcp.Description("Block type key, e.g. hero"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{ReadOnlyHint: boolPtr(true)}),
	), s.handleGetBlockType)

	// ── validate_block ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("validate_block",
		mcp.WithDescription("Check a section payload against a block type. Reports the first violation only."),
		mcp.WithString("key", mcp.Description("Block type key"), mcp.Required()),
		mcp.WithString("data", mcp.Description("Section payload as a JSON object"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{ReadOnlyHint: boolPtr(true)}),
	), s.handleValidateBlock)

	// ── render_sections ────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("render_sections",
		mcp.WithDescription("Run a list of {type, data} sections through the transformation pipeline"),
		mcp.WithString("sections", mcp.Description("JSON array of sections"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{ReadOnlyHint: boolPtr(true)}),
	), s.handleRenderSections)

	// ── clear_block_cache ──────────────────────────────
	s.mcp.AddTool(mcp.NewTool("clear_block_cache",
		mcp.WithDescription("Drop the block discovery cache so new block types are picked up"),
	), s.handleClearCache)
}

func (s *Server) registerPageTools() {
	// ── list_pages ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_pages",
		mcp.WithDescription("List stored pages"),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{ReadOnlyHint: boolPtr(true)}),
	), s.handleListPages)

	// ── render_page ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("render_page",
		mcp.WithDescription("Render a stored page by slug"),
		mcp.WithString("slug", mcp.Description("Page slug"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{ReadOnlyHint: boolPtr(true)}),
	), s.handleRenderPage)

	// ── update_section ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("update_section",
		mcp.WithDescription("Merge a partial payload into one section of a page. The merged payload must still be valid."),
		mcp.WithString("pageId", mcp.Description("Page ID"), mcp.Required()),
		mcp.WithNumber("index", mcp.Description("Zero-based section index"), mcp.Required()),
		mcp.WithString("patch", mcp.Description("Partial payload as a JSON object"), mcp.Required()),
	), s.handleUpdateSection)
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleListBlockTypes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.service.ListBlocks(ctx))
}

func (s *Server) handleGetBlockType(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := stringArg(req.GetArguments(), "key")
	if err != nil {
		return errorResult(err), nil
	}

	d, err := s.service.DescribeBlock(ctx, key)
	if err != nil {
		return s.toolError(err)
	}
	return jsonResult(d)
}

func (s *Server) handleValidateBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	key, err := stringArg(args, "key")
	if err != nil {
		return errorResult(err), nil
	}
	data, err := objectArg(args, "data")
	if err != nil {
		return errorResult(err), nil
	}

	res, err := s.service.ValidateSection(ctx, key, data)
	if err != nil {
		return s.toolError(err)
	}
	out, err := jsonResult(res)
	if err != nil {
		return nil, err
	}
	out.IsError = !res.Valid
	return out, nil
}

func (s *Server) handleRenderSections(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sections, err := rawArg(req.GetArguments(), "sections")
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(s.service.Render(ctx, sections))
}

func (s *Server) handleClearCache(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.service.ClearCache(ctx); err != nil {
		return s.toolError(err)
	}
	return textResult("Block discovery cache cleared"), nil
}

func (s *Server) handleListPages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pages, err := s.service.ListPages(ctx)
	if err != nil {
		return s.toolError(err)
	}

	type pageSummary struct {
		ID       string `json:"id"`
		Slug     string `json:"slug"`
		Title    string `json:"title"`
		Status   string `json:"status"`
		Sections int    `json:"sections"`
	}

	out := make([]pageSummary, 0, len(pages))
	for _, p := range pages {
		out = append(out, pageSummary{
			ID:       p.ID,
			Slug:     p.Slug,
			Title:    p.Title,
			Status:   string(p.Status),
			Sections: len(p.Decoded().Sections),
		})
	}
	return jsonResult(out)
}

func (s *Server) handleRenderPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := stringArg(req.GetArguments(), "slug")
	if err != nil {
		return errorResult(err), nil
	}

	p, err := s.service.RenderPage(ctx, slug)
	if err != nil {
		return s.toolError(err)
	}
	return jsonResult(p)
}

func (s *Server) handleUpdateSection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	pageID, err := stringArg(args, "pageId")
	if err != nil {
		return errorResult(err), nil
	}
	index, err := intArg(args, "index")
	if err != nil {
		return errorResult(err), nil
	}
	patch, err := objectArg(args, "patch")
	if err != nil {
		return errorResult(err), nil
	}

	p, err := s.service.UpdateSection(ctx, pageID, index, patch)
	if err != nil {
		return s.toolError(err)
	}
	return textResult(fmt.Sprintf("Section %d of page %s updated", index, p.ID)), nil
}

// toolError turns expected domain failures into tool results and lets
// anything else surface as a protocol error.
func (s *Server) toolError(err error) (*mcp.CallToolResult, error) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr),
		errors.Is(err, app.ErrUnknownBlockType),
		errors.Is(err, app.ErrPageNotFound),
		errors.Is(err, app.ErrSectionIndex):
		return errorResult(err), nil
	}
	s.logger.Error().Err(err).Msg("mcp tool failed")
	return nil, err
}
