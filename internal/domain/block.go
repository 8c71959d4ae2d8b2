package domain

import (
	"math"
	"strings"

	"github.com/google/uuid"
)

type BlockType string

const (
	BlockTypeText  BlockType = "text"
	BlockTypeImage BlockType = "image"
)

// Geometry and styling bounds for canvas blocks.
const (
	MinBlockSize    = 40
	MaxBorderRadius = 120

	DefaultBlockWidth  = 240
	DefaultBlockHeight = 120

	DefaultBackgroundColor = "#ffffff"
	DefaultTextColor       = "#1f2a44"
)

// Position is a block's placement on the page in unscaled page-pixel units.
// Zoom is a rendering transform and never leaks into these values.
type Position struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Clamped returns the position with width and height floored at MinBlockSize.
func (p Position) Clamped() Position {
	if p.Width < MinBlockSize {
		p.Width = MinBlockSize
	}
	if p.Height < MinBlockSize {
		p.Height = MinBlockSize
	}
	return p
}

type Block struct {
	ID              string    `json:"id"`
	Type            BlockType `json:"type"`
	Content         string    `json:"content"`
	ImageURL        string    `json:"imageUrl,omitempty"`
	Position        Position  `json:"position"`
	BackgroundColor string    `json:"backgroundColor"`
	TextColor       string    `json:"textColor"`
	BorderRadius    int       `json:"borderRadius"`
}

// BlockPatch is a partial block update. Nil fields are left untouched.
// Type is deliberately absent: a block's type is immutable after creation.
type BlockPatch struct {
	Content         *string        `json:"content,omitempty"`
	ImageURL        *string        `json:"imageUrl,omitempty"`
	Position        *PositionPatch `json:"position,omitempty"`
	BackgroundColor *string        `json:"backgroundColor,omitempty"`
	TextColor       *string        `json:"textColor,omitempty"`
	BorderRadius    *int           `json:"borderRadius,omitempty"`
}

type PositionPatch struct {
	Left   *int `json:"left,omitempty"`
	Top    *int `json:"top,omitempty"`
	Width  *int `json:"width,omitempty"`
	Height *int `json:"height,omitempty"`
}

// Apply merges the patch into the block and re-sanitizes geometry and radius.
func (b *Block) Apply(patch BlockPatch) {
	if patch.Content != nil {
		b.Content = *patch.Content
	}
	if patch.ImageURL != nil {
		b.ImageURL = *patch.ImageURL
	}
	if patch.Position != nil {
		if patch.Position.Left != nil {
			b.Position.Left = *patch.Position.Left
		}
		if patch.Position.Top != nil {
			b.Position.Top = *patch.Position.Top
		}
		if patch.Position.Width != nil {
			b.Position.Width = *patch.Position.Width
		}
		if patch.Position.Height != nil {
			b.Position.Height = *patch.Position.Height
		}
	}
	if patch.BackgroundColor != nil {
		b.BackgroundColor = *patch.BackgroundColor
	}
	if patch.TextColor != nil {
		b.TextColor = *patch.TextColor
	}
	if patch.BorderRadius != nil {
		b.BorderRadius = *patch.BorderRadius
	}
	b.Sanitize()
}

// Sanitize enforces the block invariants: integer geometry with width/height
// >= MinBlockSize, radius in [0, MaxBorderRadius], defaulted colors, and a
// known type.
func (b *Block) Sanitize() {
	if b.Type != BlockTypeImage {
		b.Type = BlockTypeText
	}
	b.Position = b.Position.Clamped()
	b.BorderRadius = ClampBorderRadius(b.BorderRadius)
	if strings.TrimSpace(b.BackgroundColor) == "" {
		b.BackgroundColor = DefaultBackgroundColor
	}
	if strings.TrimSpace(b.TextColor) == "" {
		b.TextColor = DefaultTextColor
	}
}

// ClampBorderRadius bounds a radius to [0, MaxBorderRadius].
func ClampBorderRadius(v int) int {
	if v < 0 {
		return 0
	}
	if v > MaxBorderRadius {
		return MaxBorderRadius
	}
	return v
}

// NewBlock builds a block of the given type with generated defaults.
// The id is left empty; the durable store assigns it on create.
func NewBlock(blockType BlockType, pos Position) Block {
	b := Block{
		Type:            blockType,
		Position:        pos,
		BackgroundColor: DefaultBackgroundColor,
		TextColor:       DefaultTextColor,
	}
	b.Sanitize()
	return b
}

// NewBlockID generates a server-side block identifier ("block-" + 12 hex chars).
func NewBlockID() string {
	return "block-" + strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
}

// CoerceInt converts a loosely typed numeric value (float64 from JSON,
// int, or nothing) into an int, falling back when the value is absent or
// not finite.
func CoerceInt(value any, fallback int) int {
	switch v := value.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fallback
		}
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	default:
		return fallback
	}
}
