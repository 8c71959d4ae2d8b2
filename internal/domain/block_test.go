package domain

import (
	"strings"
	"testing"
)

func TestNewBlockID(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewBlockID()
		if !strings.HasPrefix(id, "block-") {
			t.Fatalf("expected block- prefix, got %q", id)
		}
		if len(id) != len("block-")+12 {
			t.Fatalf("expected 12 hex chars, got %q", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestPositionClamped(t *testing.T) {
	p := Position{Left: -10, Top: 5, Width: 10, Height: 2000}
	got := p.Clamped()
	if got.Left != -10 || got.Top != 5 {
		t.Fatalf("left/top should pass through, got %+v", got)
	}
	if got.Width != MinBlockSize {
		t.Fatalf("width = %d, want %d", got.Width, MinBlockSize)
	}
	if got.Height != 2000 {
		t.Fatalf("height = %d, want 2000", got.Height)
	}
}

func TestBlockSanitize(t *testing.T) {
	b := Block{
		ID:           "block-abc",
		Type:         "video",
		Position:     Position{Width: 1, Height: 1},
		BorderRadius: 999,
	}
	b.Sanitize()

	if b.Type != BlockTypeText {
		t.Fatalf("unknown type should become text, got %q", b.Type)
	}
	if b.Position.Width != MinBlockSize || b.Position.Height != MinBlockSize {
		t.Fatalf("position not clamped: %+v", b.Position)
	}
	if b.BorderRadius != MaxBorderRadius {
		t.Fatalf("borderRadius = %d, want %d", b.BorderRadius, MaxBorderRadius)
	}
	if b.BackgroundColor != DefaultBackgroundColor {
		t.Fatalf("backgroundColor = %q", b.BackgroundColor)
	}
	if b.TextColor != DefaultTextColor {
		t.Fatalf("textColor = %q", b.TextColor)
	}
}

func TestBlockApply(t *testing.T) {
	b := NewBlock(BlockTypeText, Position{Left: 10, Top: 20, Width: 200, Height: 100})
	b.ID = "block-1"

	content := "hello"
	left := 50
	width := 5
	radius := -3
	b.Apply(BlockPatch{
		Content: &content,
		Position: &PositionPatch{
			Left:  &left,
			Width: &width,
		},
		BorderRadius: &radius,
	})

	if b.Content != "hello" {
		t.Fatalf("content = %q", b.Content)
	}
	if b.Position.Left != 50 || b.Position.Top != 20 {
		t.Fatalf("position merge wrong: %+v", b.Position)
	}
	if b.Position.Width != MinBlockSize {
		t.Fatalf("width = %d, want %d", b.Position.Width, MinBlockSize)
	}
	if b.BorderRadius != 0 {
		t.Fatalf("borderRadius = %d, want 0", b.BorderRadius)
	}
}

func TestClampBorderRadius(t *testing.T) {
	cases := []struct{ in, want int }{
		{-1, 0},
		{0, 0},
		{60, 60},
		{120, 120},
		{121, 120},
	}
	for _, c := range cases {
		if got := ClampBorderRadius(c.in); got != c.want {
			t.Fatalf("ClampBorderRadius(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestCoerceInt(t *testing.T) {
	if got := CoerceInt(float64(12.7), 0); got != 12 {
		t.Fatalf("float64 = %d, want 12", got)
	}
	if got := CoerceInt("nope", 7); got != 7 {
		t.Fatalf("string fallback = %d, want 7", got)
	}
	if got := CoerceInt(nil, 3); got != 3 {
		t.Fatalf("nil fallback = %d, want 3", got)
	}
}
