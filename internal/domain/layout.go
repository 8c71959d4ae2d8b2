package domain

import (
	"regexp"
	"strings"
)

type Orientation string

const (
	OrientationPortrait  Orientation = "portrait"
	OrientationLandscape Orientation = "landscape"
)

type PageFormat string

const (
	FormatA4      PageFormat = "A4"
	FormatA5      PageFormat = "A5"
	FormatLetter  PageFormat = "Letter"
	FormatLegal   PageFormat = "Legal"
	FormatTabloid PageFormat = "Tabloid"
)

// Dimensions is a page size in CSS pixels at 96dpi.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// portraitSizes maps each supported paper format to its portrait pixel size.
var portraitSizes = map[PageFormat]Dimensions{
	FormatA4:      {Width: 794, Height: 1123},
	FormatA5:      {Width: 559, Height: 794},
	FormatLetter:  {Width: 816, Height: 1056},
	FormatLegal:   {Width: 816, Height: 1344},
	FormatTabloid: {Width: 1056, Height: 1632},
}

// PageDimensions returns the pixel size for a format and orientation.
// Unknown formats fall back to A4. Landscape swaps width and height.
func PageDimensions(format PageFormat, orientation Orientation) Dimensions {
	d, ok := portraitSizes[format]
	if !ok {
		d = portraitSizes[FormatA4]
	}
	if orientation == OrientationLandscape {
		d.Width, d.Height = d.Height, d.Width
	}
	return d
}

// Grid defaults and bounds, matching the editing surface.
const (
	DefaultProject = "default"

	DefaultColumns  = 3
	DefaultBaseline = 24
	DefaultGutter   = 32

	MinColumns, MaxColumns   = 1, 12
	MinBaseline, MaxBaseline = 4, 64
	MinGutter, MaxGutter     = 0, 256
)

// Layout is the full editing state of one project's page: page geometry,
// grid settings, and the ordered block list. Zoom is a view-only property
// carried for convenience; it never participates in layout identity.
type Layout struct {
	Project     string      `json:"project"`
	Format      PageFormat  `json:"format"`
	Orientation Orientation `json:"orientation"`
	Dimensions  Dimensions  `json:"dimensions"`
	Columns     int         `json:"columns"`
	Baseline    int         `json:"baseline"`
	Gutter      int         `json:"gutter"`
	Snap        bool        `json:"snap"`
	Zoom        float64     `json:"zoom"`
	Blocks      []Block     `json:"blocks"`
}

// DefaultLayout returns an empty A4 portrait layout for a project.
func DefaultLayout(project string) *Layout {
	return &Layout{
		Project:     SanitizeProject(project),
		Format:      FormatA4,
		Orientation: OrientationPortrait,
		Dimensions:  PageDimensions(FormatA4, OrientationPortrait),
		Columns:     DefaultColumns,
		Baseline:    DefaultBaseline,
		Gutter:      DefaultGutter,
		Snap:        true,
		Zoom:        1.0,
		Blocks:      []Block{},
	}
}

// Normalize repairs a layout loaded from an external source: defaulted
// enums, grid settings clamped to bounds, dimensions recomputed from
// format and orientation, and every block sanitized.
func (l *Layout) Normalize() {
	l.Project = SanitizeProject(l.Project)
	if _, ok := portraitSizes[l.Format]; !ok {
		l.Format = FormatA4
	}
	if l.Orientation != OrientationLandscape {
		l.Orientation = OrientationPortrait
	}
	l.Dimensions = PageDimensions(l.Format, l.Orientation)
	l.Columns = clampInt(l.Columns, MinColumns, MaxColumns, DefaultColumns)
	l.Baseline = clampInt(l.Baseline, MinBaseline, MaxBaseline, DefaultBaseline)
	l.Gutter = clampInt(l.Gutter, MinGutter, MaxGutter, DefaultGutter)
	if l.Zoom <= 0 {
		l.Zoom = 1.0
	}
	if l.Blocks == nil {
		l.Blocks = []Block{}
	}
	for i := range l.Blocks {
		if l.Blocks[i].ID == "" {
			l.Blocks[i].ID = NewBlockID()
		}
		l.Blocks[i].Sanitize()
	}
}

// FindBlock returns the block with the given id, or nil.
func (l *Layout) FindBlock(id string) *Block {
	for i := range l.Blocks {
		if l.Blocks[i].ID == id {
			return &l.Blocks[i]
		}
	}
	return nil
}

// RemoveBlock deletes the block with the given id, reporting whether it
// was present.
func (l *Layout) RemoveBlock(id string) bool {
	for i := range l.Blocks {
		if l.Blocks[i].ID == id {
			l.Blocks = append(l.Blocks[:i], l.Blocks[i+1:]...)
			return true
		}
	}
	return false
}

// UniqueBlockID returns preferred if it is free, otherwise a fresh id that
// does not collide with any block in the layout.
func (l *Layout) UniqueBlockID(preferred string) string {
	id := strings.TrimSpace(preferred)
	if id == "" {
		id = NewBlockID()
	}
	for l.FindBlock(id) != nil {
		id = NewBlockID()
	}
	return id
}

// LayoutPatch is a partial layout update. Nil fields are untouched.
// Blocks are never patched through here; they have their own operations.
type LayoutPatch struct {
	Format      *PageFormat  `json:"format,omitempty"`
	Orientation *Orientation `json:"orientation,omitempty"`
	Columns     *int         `json:"columns,omitempty"`
	Baseline    *int         `json:"baseline,omitempty"`
	Gutter      *int         `json:"gutter,omitempty"`
	Snap        *bool        `json:"snap,omitempty"`
	Zoom        *float64     `json:"zoom,omitempty"`
}

// Apply merges a patch into the layout and renormalizes it.
func (l *Layout) Apply(patch LayoutPatch) {
	if patch.Format != nil {
		l.Format = *patch.Format
	}
	if patch.Orientation != nil {
		l.Orientation = *patch.Orientation
	}
	if patch.Columns != nil {
		l.Columns = *patch.Columns
	}
	if patch.Baseline != nil {
		l.Baseline = *patch.Baseline
	}
	if patch.Gutter != nil {
		l.Gutter = *patch.Gutter
	}
	if patch.Snap != nil {
		l.Snap = *patch.Snap
	}
	if patch.Zoom != nil {
		l.Zoom = *patch.Zoom
	}
	l.Normalize()
}

var projectNameRe = regexp.MustCompile(`[^0-9a-z._-]+`)

// SanitizeProject lowercases a project name and reduces it to
// [0-9a-z._-], falling back to "default" when nothing survives.
func SanitizeProject(name string) string {
	text := strings.ToLower(strings.TrimSpace(name))
	if text == "" {
		return DefaultProject
	}
	text = projectNameRe.ReplaceAllString(text, "-")
	text = strings.Trim(text, ".-_")
	if text == "" {
		return DefaultProject
	}
	return text
}

func clampInt(v, min, max, fallback int) int {
	if v == 0 {
		return fallback
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
