package editor

import (
	"context"

	"fiona/internal/domain"
)

// Inspector is the form panel bound to the selected block. Edits apply to
// the working copy immediately so the canvas tracks every keystroke; the
// backend is written once, when the form commits.
type Inspector struct {
	store    *Store
	onRender func()

	selected string

	Content         string
	ImageURL        string
	Left            int
	Top             int
	Width           int
	Height          int
	BackgroundColor string
	TextColor       string
	BorderRadius    int
}

func NewInspector(store *Store, onRender func()) *Inspector {
	if onRender == nil {
		onRender = func() {}
	}
	return &Inspector{store: store, onRender: onRender}
}

// Selected returns the id of the inspected block, or "".
func (ins *Inspector) Selected() string {
	return ins.selected
}

// Select binds the inspector to a block and repopulates every field from
// its current state. Selecting an unknown id clears the selection.
func (ins *Inspector) Select(id string) {
	b := ins.store.Get(id)
	if b == nil {
		ins.selected = ""
		return
	}
	ins.selected = id
	ins.Content = b.Content
	ins.ImageURL = b.ImageURL
	ins.Left = b.Position.Left
	ins.Top = b.Position.Top
	ins.Width = b.Position.Width
	ins.Height = b.Position.Height
	ins.BackgroundColor = b.BackgroundColor
	ins.TextColor = b.TextColor
	ins.BorderRadius = b.BorderRadius
}

// Refresh re-reads the selected block, picking up geometry changed by a
// drag while the form was open.
func (ins *Inspector) Refresh() {
	if ins.selected != "" {
		ins.Select(ins.selected)
	}
}

// SetContent updates the text live on the working copy.
func (ins *Inspector) SetContent(content string) {
	ins.Content = content
	if b := ins.store.Get(ins.selected); b != nil {
		b.Content = content
		ins.onRender()
	}
}

// SetBackgroundColor updates the fill live on the working copy.
func (ins *Inspector) SetBackgroundColor(color string) {
	ins.BackgroundColor = color
	if b := ins.store.Get(ins.selected); b != nil {
		b.BackgroundColor = color
		ins.onRender()
	}
}

// SetTextColor updates the text color live on the working copy.
func (ins *Inspector) SetTextColor(color string) {
	ins.TextColor = color
	if b := ins.store.Get(ins.selected); b != nil {
		b.TextColor = color
		ins.onRender()
	}
}

// SetBorderRadius updates the corner radius live, clamped on the spot so
// the canvas never shows an out-of-range preview.
func (ins *Inspector) SetBorderRadius(radius int) {
	ins.BorderRadius = domain.ClampBorderRadius(radius)
	if b := ins.store.Get(ins.selected); b != nil {
		b.BorderRadius = ins.BorderRadius
		ins.onRender()
	}
}

// SetPosition updates the geometry fields live. Width and height keep
// their typed values in the form but the canvas copy is clamped.
func (ins *Inspector) SetPosition(left, top, width, height int) {
	ins.Left, ins.Top, ins.Width, ins.Height = left, top, width, height
	if b := ins.store.Get(ins.selected); b != nil {
		b.Position = domain.Position{Left: left, Top: top, Width: width, Height: height}.Clamped()
		ins.onRender()
	}
}

// Commit pushes the form state to the backend as one write. The patch is
// clamped the same way the canvas copy was.
func (ins *Inspector) Commit(ctx context.Context) {
	if ins.selected == "" {
		return
	}
	pos := domain.Position{Left: ins.Left, Top: ins.Top, Width: ins.Width, Height: ins.Height}.Clamped()
	radius := domain.ClampBorderRadius(ins.BorderRadius)
	ins.store.Update(ctx, ins.selected, domain.BlockPatch{
		Content:  &ins.Content,
		ImageURL: &ins.ImageURL,
		Position: &domain.PositionPatch{
			Left:   &pos.Left,
			Top:    &pos.Top,
			Width:  &pos.Width,
			Height: &pos.Height,
		},
		BackgroundColor: &ins.BackgroundColor,
		TextColor:       &ins.TextColor,
		BorderRadius:    &radius,
	})
	ins.Refresh()
}
