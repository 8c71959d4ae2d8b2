// Package agent lets a chat model edit a layout through a small tool
// vocabulary. Tools mutate an in-memory copy of the layout; the caller
// decides whether the result is persisted.
package agent

import (
	"encoding/json"
	"fmt"

	"fiona/internal/domain"
)

// Tool names exposed to the model.
const (
	ToolCreateBlock  = "create_block"
	ToolUpdateBlock  = "update_block"
	ToolDeleteBlock  = "delete_block"
	ToolUpdateLayout = "update_layout"
)

// ToolEvent records one tool invocation for the run transcript.
type ToolEvent struct {
	Tool    string `json:"tool"`
	BlockID string `json:"block_id,omitempty"`
	Summary string `json:"summary"`
}

// LayoutSession holds the working copy of a layout for one agent run.
// All tools operate on the copy; nothing touches storage.
type LayoutSession struct {
	layout   *domain.Layout
	events   []ToolEvent
	modified bool
}

// NewLayoutSession deep-copies the layout so a failed or abandoned run
// leaves the original untouched.
func NewLayoutSession(layout *domain.Layout) *LayoutSession {
	cp := *layout
	cp.Blocks = make([]domain.Block, len(layout.Blocks))
	copy(cp.Blocks, layout.Blocks)
	return &LayoutSession{layout: &cp}
}

// Layout returns the session's working copy.
func (s *LayoutSession) Layout() *domain.Layout {
	return s.layout
}

// Events returns the tool transcript in invocation order.
func (s *LayoutSession) Events() []ToolEvent {
	return s.events
}

// Modified reports whether any tool changed the layout.
func (s *LayoutSession) Modified() bool {
	return s.modified
}

// ExecuteTool dispatches a tool call by name with raw JSON arguments and
// returns the text fed back to the model.
func (s *LayoutSession) ExecuteTool(name string, rawArgs []byte) (string, error) {
	args := map[string]any{}
	if len(rawArgs) > 0 {
		if err := json.Unmarshal(rawArgs, &args); err != nil {
			return "", fmt.Errorf("tool %s: bad arguments: %w", name, err)
		}
	}

	switch name {
	case ToolCreateBlock:
		return s.createBlock(args)
	case ToolUpdateBlock:
		return s.updateBlock(args)
	case ToolDeleteBlock:
		return s.deleteBlock(args)
	case ToolUpdateLayout:
		return s.updateLayout(args)
	default:
		return "", fmt.Errorf("unknown tool %q", name)
	}
}

func (s *LayoutSession) createBlock(args map[string]any) (string, error) {
	blockType := domain.BlockTypeText
	if t, _ := args["type"].(string); t == string(domain.BlockTypeImage) {
		blockType = domain.BlockTypeImage
	}

	b := domain.NewBlock(blockType, domain.Position{
		Left:   domain.CoerceInt(args["left"], 0),
		Top:    domain.CoerceInt(args["top"], 0),
		Width:  domain.CoerceInt(args["width"], domain.DefaultBlockWidth),
		Height: domain.CoerceInt(args["height"], domain.DefaultBlockHeight),
	})
	b.ID = s.layout.UniqueBlockID("")
	if c, ok := args["content"].(string); ok {
		b.Content = c
	}
	if u, ok := args["imageUrl"].(string); ok {
		b.ImageURL = u
	}
	if c, ok := args["backgroundColor"].(string); ok {
		b.BackgroundColor = c
	}
	if c, ok := args["textColor"].(string); ok {
		b.TextColor = c
	}
	b.BorderRadius = domain.ClampBorderRadius(domain.CoerceInt(args["borderRadius"], 0))

	s.layout.Blocks = append(s.layout.Blocks, b)
	s.record(ToolCreateBlock, b.ID, fmt.Sprintf("created %s block at (%d,%d)", b.Type, b.Position.Left, b.Position.Top))
	return fmt.Sprintf("created block %s", b.ID), nil
}

func (s *LayoutSession) updateBlock(args map[string]any) (string, error) {
	id, _ := args["block_id"].(string)
	b := s.layout.FindBlock(id)
	if b == nil {
		return "", fmt.Errorf("block %q not found", id)
	}

	if c, ok := args["content"].(string); ok {
		b.Content = c
	}
	if u, ok := args["imageUrl"].(string); ok {
		b.ImageURL = u
	}
	if c, ok := args["backgroundColor"].(string); ok {
		b.BackgroundColor = c
	}
	if c, ok := args["textColor"].(string); ok {
		b.TextColor = c
	}
	if _, ok := args["borderRadius"]; ok {
		b.BorderRadius = domain.CoerceInt(args["borderRadius"], b.BorderRadius)
	}
	if _, ok := args["left"]; ok {
		b.Position.Left = domain.CoerceInt(args["left"], b.Position.Left)
	}
	if _, ok := args["top"]; ok {
		b.Position.Top = domain.CoerceInt(args["top"], b.Position.Top)
	}
	if _, ok := args["width"]; ok {
		b.Position.Width = domain.CoerceInt(args["width"], b.Position.Width)
	}
	if _, ok := args["height"]; ok {
		b.Position.Height = domain.CoerceInt(args["height"], b.Position.Height)
	}
	b.Sanitize()

	s.record(ToolUpdateBlock, id, "updated block")
	return fmt.Sprintf("updated block %s", id), nil
}

func (s *LayoutSession) deleteBlock(args map[string]any) (string, error) {
	id, _ := args["block_id"].(string)
	if !s.layout.RemoveBlock(id) {
		return "", fmt.Errorf("block %q not found", id)
	}
	s.record(ToolDeleteBlock, id, "deleted block")
	return fmt.Sprintf("deleted block %s", id), nil
}

func (s *LayoutSession) updateLayout(args map[string]any) (string, error) {
	patch := domain.LayoutPatch{}
	if f, ok := args["format"].(string); ok {
		format := domain.PageFormat(f)
		patch.Format = &format
	}
	if o, ok := args["orientation"].(string); ok {
		orientation := domain.Orientation(o)
		patch.Orientation = &orientation
	}
	if _, ok := args["columns"]; ok {
		v := domain.CoerceInt(args["columns"], s.layout.Columns)
		patch.Columns = &v
	}
	if _, ok := args["baseline"]; ok {
		v := domain.CoerceInt(args["baseline"], s.layout.Baseline)
		patch.Baseline = &v
	}
	if _, ok := args["gutter"]; ok {
		v := domain.CoerceInt(args["gutter"], s.layout.Gutter)
		patch.Gutter = &v
	}
	if v, ok := args["snap"].(bool); ok {
		patch.Snap = &v
	}

	s.layout.Apply(patch)
	s.record(ToolUpdateLayout, "", fmt.Sprintf("layout set to %s %s", s.layout.Format, s.layout.Orientation))
	return "layout updated", nil
}

func (s *LayoutSession) record(tool, blockID, summary string) {
	s.modified = true
	s.events = append(s.events, ToolEvent{Tool: tool, BlockID: blockID, Summary: summary})
}
