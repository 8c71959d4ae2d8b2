package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"fiona/internal/domain"
)

func (s *Server) registerBlockTools() {
	// ── create_block ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("create_block",
		mcp.WithDescription("Create a new block on the page"),
		mcp.WithString("type",
			mcp.Description("Block type: text or image"),
			mcp.Required(),
		),
		mcp.WithString("project", mcp.Description("Project name (optional, defaults to active project)")),
		mcp.WithString("content", mcp.Description("Text body or image caption (optional)")),
		mcp.WithString("imageUrl", mcp.Description("Asset URL for image blocks (optional)")),
		mcp.WithNumber("left", mcp.Description("X position in page pixels (default 0)")),
		mcp.WithNumber("top", mcp.Description("Y position in page pixels (default 0)")),
		mcp.WithNumber("width", mcp.Description("Width in page pixels (default 240, minimum 40)")),
		mcp.WithNumber("height", mcp.Description("Height in page pixels (default 120, minimum 40)")),
		mcp.WithString("backgroundColor", mcp.Description("Hex fill color (optional)")),
		mcp.WithString("textColor", mcp.Description("Hex text color (optional)")),
		mcp.WithNumber("borderRadius", mcp.Description("Corner radius, 0-120 (optional)")),
	), s.handleCreateBlock)

	// ── update_block ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("update_block",
		mcp.WithDescription("Update fields of an existing block"),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithString("project", mcp.Description("Project name (optional, defaults to active project)")),
		mcp.WithString("content", mcp.Description("New text body")),
		mcp.WithString("imageUrl", mcp.Description("New asset URL")),
		mcp.WithString("backgroundColor", mcp.Description("New hex fill color")),
		mcp.WithString("textColor", mcp.Description("New hex text color")),
		mcp.WithNumber("borderRadius", mcp.Description("New corner radius, 0-120")),
	), s.handleUpdateBlock)

	// ── move_block ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("move_block",
		mcp.WithDescription("Move a block to a new position on the page"),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithNumber("left", mcp.Description("New X position"), mcp.Required()),
		mcp.WithNumber("top", mcp.Description("New Y position"), mcp.Required()),
		mcp.WithString("project", mcp.Description("Project name (optional, defaults to active project)")),
	), s.handleMoveBlock)

	// ── resize_block ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("resize_block",
		mcp.WithDescription("Resize a block. Width and height floor at 40 pixels."),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithNumber("width", mcp.Description("New width"), mcp.Required()),
		mcp.WithNumber("height", mcp.Description("New height"), mcp.Required()),
		mcp.WithString("project", mcp.Description("Project name (optional, defaults to active project)")),
	), s.handleResizeBlock)

	// ── list_blocks ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_blocks",
		mcp.WithDescription("List all blocks in a project's layout"),
		mcp.WithString("project", mcp.Description("Project name (optional, defaults to active project)")),
	), s.handleListBlocks)

	// ── delete_block (destructive) ─────────────────────
	s.mcp.AddTool(mcp.NewTool("delete_block",
		mcp.WithDescription("Delete a block from the page"),
		mcp.WithString("blockId", mcp.Description("Block ID to delete"), mcp.Required()),
		mcp.WithString("project", mcp.Description("Project name (optional, defaults to active project)")),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteBlock)
}

func boolPtr(v bool) *bool { return &v }

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleCreateBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	blockType, _ := args["type"].(string)
	if blockType == "" {
		return nil, fmt.Errorf("type is required")
	}

	b := domain.NewBlock(domain.BlockType(blockType), domain.Position{
		Left:   intArg(args, "left", 0),
		Top:    intArg(args, "top", 0),
		Width:  intArg(args, "width", domain.DefaultBlockWidth),
		Height: intArg(args, "height", domain.DefaultBlockHeight),
	})
	if c, ok := args["content"].(string); ok {
		b.Content = c
	}
	if u, ok := args["imageUrl"].(string); ok {
		b.ImageURL = u
	}
	if c, ok := args["backgroundColor"].(string); ok && c != "" {
		b.BackgroundColor = c
	}
	if c, ok := args["textColor"].(string); ok && c != "" {
		b.TextColor = c
	}
	b.BorderRadius = domain.ClampBorderRadius(intArg(args, "borderRadius", 0))

	created, err := s.layouts.AddBlock(ctx, s.resolveProject(args), b)
	if err != nil {
		return nil, fmt.Errorf("create block: %w", err)
	}
	return jsonResult(created)
}

func (s *Server) handleUpdateBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	blockID, _ := args["blockId"].(string)
	if blockID == "" {
		return nil, fmt.Errorf("blockId is required")
	}

	patch := domain.BlockPatch{}
	if c, ok := args["content"].(string); ok {
		patch.Content = &c
	}
	if u, ok := args["imageUrl"].(string); ok {
		patch.ImageURL = &u
	}
	if c, ok := args["backgroundColor"].(string); ok {
		patch.BackgroundColor = &c
	}
	if c, ok := args["textColor"].(string); ok {
		patch.TextColor = &c
	}
	if _, ok := args["borderRadius"]; ok {
		v := intArg(args, "borderRadius", 0)
		patch.BorderRadius = &v
	}

	block, err := s.layouts.UpdateBlock(ctx, s.resolveProject(args), blockID, patch)
	if err != nil {
		return nil, fmt.Errorf("update block: %w", err)
	}
	return jsonResult(block)
}

func (s *Server) handleMoveBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	blockID, _ := args["blockId"].(string)
	left := intArg(args, "left", 0)
	top := intArg(args, "top", 0)

	block, err := s.layouts.UpdateBlock(ctx, s.resolveProject(args), blockID, domain.BlockPatch{
		Position: &domain.PositionPatch{Left: &left, Top: &top},
	})
	if err != nil {
		return nil, fmt.Errorf("move block: %w", err)
	}
	return textResult(fmt.Sprintf("Block %s moved to (%d, %d)", block.ID, block.Position.Left, block.Position.Top)), nil
}

func (s *Server) handleResizeBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	blockID, _ := args["blockId"].(string)
	width := intArg(args, "width", domain.DefaultBlockWidth)
	height := intArg(args, "height", domain.DefaultBlockHeight)

	block, err := s.layouts.UpdateBlock(ctx, s.resolveProject(args), blockID, domain.BlockPatch{
		Position: &domain.PositionPatch{Width: &width, Height: &height},
	})
	if err != nil {
		return nil, fmt.Errorf("resize block: %w", err)
	}
	return textResult(fmt.Sprintf("Block %s resized to (%d × %d)", block.ID, block.Position.Width, block.Position.Height)), nil
}

func (s *Server) handleListBlocks(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	layout, err := s.layouts.GetLayout(s.resolveProject(req.GetArguments()))
	if err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}
	return jsonResult(layout.Blocks)
}

func (s *Server) handleDeleteBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	blockID, _ := args["blockId"].(string)
	if blockID == "" {
		return nil, fmt.Errorf("blockId is required")
	}

	if err := s.layouts.DeleteBlock(ctx, s.resolveProject(args), blockID); err != nil {
		return nil, fmt.Errorf("delete block: %w", err)
	}
	return textResult(fmt.Sprintf("Block %s deleted", blockID)), nil
}
