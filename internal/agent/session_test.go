package agent

import (
	"strings"
	"testing"

	"fiona/internal/domain"
)

func testSession() *LayoutSession {
	l := domain.DefaultLayout("demo")
	l.Blocks = []domain.Block{
		{ID: "block-1", Type: domain.BlockTypeText, Content: "hello",
			Position: domain.Position{Left: 10, Top: 10, Width: 200, Height: 100}},
	}
	return NewLayoutSession(l)
}

func TestSessionCopiesLayout(t *testing.T) {
	l := domain.DefaultLayout("demo")
	l.Blocks = []domain.Block{{ID: "block-1", Type: domain.BlockTypeText}}
	s := NewLayoutSession(l)

	if _, err := s.ExecuteTool(ToolDeleteBlock, []byte(`{"block_id":"block-1"}`)); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(l.Blocks) != 1 {
		t.Fatal("original layout mutated")
	}
	if len(s.Layout().Blocks) != 0 {
		t.Fatal("session copy not mutated")
	}
}

func TestCreateBlockTool(t *testing.T) {
	s := testSession()

	out, err := s.ExecuteTool(ToolCreateBlock, []byte(`{
		"type": "text", "content": "title", "left": 48, "top": 48,
		"width": 300.0, "height": 20, "borderRadius": 400
	}`))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.Contains(out, "created block") {
		t.Fatalf("out = %q", out)
	}

	blocks := s.Layout().Blocks
	b := blocks[len(blocks)-1]
	if b.Content != "title" || b.Position.Left != 48 {
		t.Fatalf("block = %+v", b)
	}
	if b.Position.Height != domain.MinBlockSize {
		t.Fatalf("height = %d", b.Position.Height)
	}
	if b.BorderRadius != domain.MaxBorderRadius {
		t.Fatalf("borderRadius = %d", b.BorderRadius)
	}
	if !s.Modified() || len(s.Events()) != 1 {
		t.Fatalf("modified = %v, events = %v", s.Modified(), s.Events())
	}
}

func TestUpdateBlockTool(t *testing.T) {
	s := testSession()

	_, err := s.ExecuteTool(ToolUpdateBlock, []byte(`{
		"block_id": "block-1", "content": "edited", "width": 12
	}`))
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	b := s.Layout().FindBlock("block-1")
	if b.Content != "edited" {
		t.Fatalf("content = %q", b.Content)
	}
	if b.Position.Width != domain.MinBlockSize {
		t.Fatalf("width = %d", b.Position.Width)
	}
	// Untouched fields survive.
	if b.Position.Left != 10 || b.Position.Height != 100 {
		t.Fatalf("position = %+v", b.Position)
	}
}

func TestUpdateBlockToolUnknownID(t *testing.T) {
	s := testSession()
	if _, err := s.ExecuteTool(ToolUpdateBlock, []byte(`{"block_id":"block-ghost"}`)); err == nil {
		t.Fatal("expected error")
	}
	if s.Modified() {
		t.Fatal("failed tool should not mark the session modified")
	}
}

func TestUpdateLayoutTool(t *testing.T) {
	s := testSession()

	_, err := s.ExecuteTool(ToolUpdateLayout, []byte(`{
		"format": "Letter", "orientation": "landscape", "columns": 99
	}`))
	if err != nil {
		t.Fatalf("update layout: %v", err)
	}

	l := s.Layout()
	if l.Format != domain.FormatLetter || l.Orientation != domain.OrientationLandscape {
		t.Fatalf("layout = %q %q", l.Format, l.Orientation)
	}
	if l.Columns != domain.MaxColumns {
		t.Fatalf("columns = %d", l.Columns)
	}
	if l.Dimensions.Width != 1056 {
		t.Fatalf("dimensions = %+v", l.Dimensions)
	}
}

func TestUnknownTool(t *testing.T) {
	s := testSession()
	if _, err := s.ExecuteTool("reticulate_splines", nil); err == nil {
		t.Fatal("expected error")
	}
}
