package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"fiona/internal/domain"
)

func (s *Server) registerLayoutTools() {
	// ── get_layout ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("get_layout",
		mcp.WithDescription("Read a project's full layout: page settings, grid, and all blocks"),
		mcp.WithString("project", mcp.Description("Project name (optional, defaults to active project)")),
	), s.handleGetLayout)

	// ── update_layout ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("update_layout",
		mcp.WithDescription("Change page format, orientation, or grid settings. Blocks are untouched."),
		mcp.WithString("project", mcp.Description("Project name (optional, defaults to active project)")),
		mcp.WithString("format", mcp.Description("Paper format: A4, A5, Letter, Legal, Tabloid")),
		mcp.WithString("orientation", mcp.Description("portrait or landscape")),
		mcp.WithNumber("columns", mcp.Description("Column count (1-12)")),
		mcp.WithNumber("baseline", mcp.Description("Baseline grid in pixels (4-64)")),
		mcp.WithNumber("gutter", mcp.Description("Gutter in pixels (0-256)")),
		mcp.WithBoolean("snap", mcp.Description("Snap blocks to the grid")),
	), s.handleUpdateLayout)
}

func (s *Server) handleGetLayout(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	layout, err := s.layouts.GetLayout(s.resolveProject(req.GetArguments()))
	if err != nil {
		return nil, fmt.Errorf("get layout: %w", err)
	}
	return jsonResult(layout)
}

func (s *Server) handleUpdateLayout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	project := s.resolveProject(args)

	patch := domain.LayoutPatch{}
	if f, ok := args["format"].(string); ok && f != "" {
		format := domain.PageFormat(f)
		patch.Format = &format
	}
	if o, ok := args["orientation"].(string); ok && o != "" {
		orientation := domain.Orientation(o)
		patch.Orientation = &orientation
	}
	if _, ok := args["columns"]; ok {
		v := intArg(args, "columns", 0)
		patch.Columns = &v
	}
	if _, ok := args["baseline"]; ok {
		v := intArg(args, "baseline", 0)
		patch.Baseline = &v
	}
	if _, ok := args["gutter"]; ok {
		v := intArg(args, "gutter", 0)
		patch.Gutter = &v
	}
	if v, ok := args["snap"].(bool); ok {
		patch.Snap = &v
	}

	layout, err := s.layouts.UpdateLayout(ctx, project, patch)
	if err != nil {
		return nil, fmt.Errorf("update layout: %w", err)
	}
	return textResult(fmt.Sprintf("Layout for %s is now %s %s, %d columns", layout.Project, layout.Format, layout.Orientation, layout.Columns)), nil
}
