package editor

import (
	"context"
	"math"
	"strings"

	"fiona/internal/domain"
)

// InteractionState tracks what the pointer is currently doing.
type InteractionState int

const (
	StateIdle InteractionState = iota
	StateDragging
	StateResizing
)

// Resize handles, named by the page edges they move.
const (
	HandleN  = "n"
	HandleS  = "s"
	HandleE  = "e"
	HandleW  = "w"
	HandleNE = "ne"
	HandleNW = "nw"
	HandleSE = "se"
	HandleSW = "sw"
)

// Interaction is the drag/resize state machine. At most one interaction
// is active at a time; pointer-down on a second block while one is in
// flight is ignored. Geometry updates apply on every move, but the
// backend sees exactly one write, on pointer-up or cancel.
type Interaction struct {
	store    *Store
	viewport *Viewport
	onRender func()

	state   InteractionState
	blockID string
	handle  string
	startX  float64 // pointer-down, screen coordinates
	startY  float64
	origin  domain.Position // block geometry at pointer-down
}

func NewInteraction(store *Store, viewport *Viewport, onRender func()) *Interaction {
	if onRender == nil {
		onRender = func() {}
	}
	return &Interaction{store: store, viewport: viewport, onRender: onRender}
}

// State returns the current interaction state.
func (in *Interaction) State() InteractionState {
	return in.state
}

// ActiveBlock returns the id of the block being dragged or resized.
func (in *Interaction) ActiveBlock() string {
	if in.state == StateIdle {
		return ""
	}
	return in.blockID
}

// PointerDown begins a drag (empty handle) or a resize on a block. It is
// a no-op while another interaction is active or when the block is gone.
func (in *Interaction) PointerDown(blockID, handle string, x, y float64) {
	if in.state != StateIdle {
		return
	}
	b := in.store.Get(blockID)
	if b == nil {
		return
	}

	in.blockID = blockID
	in.handle = handle
	in.startX = x
	in.startY = y
	in.origin = b.Position
	if handle == "" {
		in.state = StateDragging
	} else {
		in.state = StateResizing
	}
}

// PointerMove recomputes the active block's geometry from the pointer
// delta. Screen deltas divide by the zoom factor so a zoomed-in page
// does not accelerate the block, and land on whole page pixels.
func (in *Interaction) PointerMove(x, y float64) {
	if in.state == StateIdle {
		return
	}
	b := in.store.Get(in.blockID)
	if b == nil {
		in.reset()
		return
	}

	zoom := in.viewport.Zoom()
	dx := int(math.Round((x - in.startX) / zoom))
	dy := int(math.Round((y - in.startY) / zoom))

	if in.state == StateDragging {
		b.Position.Left = in.origin.Left + dx
		b.Position.Top = in.origin.Top + dy
	} else {
		b.Position = resize(in.origin, in.handle, dx, dy)
	}
	in.onRender()
}

// PointerUp finishes the interaction and persists the final geometry.
func (in *Interaction) PointerUp(ctx context.Context) {
	in.commit(ctx)
}

// Cancel finishes the interaction the same way pointer-up does. The
// geometry on screen at cancel time is the geometry that persists.
func (in *Interaction) Cancel(ctx context.Context) {
	in.commit(ctx)
}

func (in *Interaction) commit(ctx context.Context) {
	if in.state == StateIdle {
		return
	}
	id := in.blockID
	in.reset()

	b := in.store.Get(id)
	if b == nil {
		return
	}
	pos := b.Position
	in.store.Update(ctx, id, domain.BlockPatch{
		Position: &domain.PositionPatch{
			Left:   &pos.Left,
			Top:    &pos.Top,
			Width:  &pos.Width,
			Height: &pos.Height,
		},
	})
}

func (in *Interaction) reset() {
	in.state = StateIdle
	in.blockID = ""
	in.handle = ""
}

// resize applies a pointer delta to one or two edges of the origin
// geometry. Shrinking past the minimum block size pins the moving edge
// so the opposite edge never walks.
func resize(origin domain.Position, handle string, dx, dy int) domain.Position {
	p := origin

	if strings.Contains(handle, HandleE) {
		p.Width = origin.Width + dx
	}
	if strings.Contains(handle, HandleW) {
		p.Left = origin.Left + dx
		p.Width = origin.Width - dx
	}
	if strings.Contains(handle, HandleS) {
		p.Height = origin.Height + dy
	}
	if strings.Contains(handle, HandleN) {
		p.Top = origin.Top + dy
		p.Height = origin.Height - dy
	}

	if p.Width < domain.MinBlockSize {
		if strings.Contains(handle, HandleW) {
			p.Left = origin.Left + origin.Width - domain.MinBlockSize
		}
		p.Width = domain.MinBlockSize
	}
	if p.Height < domain.MinBlockSize {
		if strings.Contains(handle, HandleN) {
			p.Top = origin.Top + origin.Height - domain.MinBlockSize
		}
		p.Height = domain.MinBlockSize
	}
	return p
}
