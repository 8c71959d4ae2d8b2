package editor

import (
	"math"

	"fiona/internal/domain"
)

// Zoom bounds for the canvas.
const (
	MinZoom  = 0.5
	MaxZoom  = 5.0
	ZoomStep = 0.1
)

// Viewport models the visible canvas: page geometry, zoom factor, and
// scroll offsets inside the editor panel. Zoom scales rendering only;
// block geometry always stays in unscaled page pixels.
type Viewport struct {
	format      domain.PageFormat
	orientation domain.Orientation
	dimensions  domain.Dimensions

	panelWidth  float64
	panelHeight float64

	zoom    float64
	scrollX float64
	scrollY float64
}

func NewViewport() *Viewport {
	v := &Viewport{
		format:      domain.FormatA4,
		orientation: domain.OrientationPortrait,
		zoom:        1.0,
	}
	v.dimensions = domain.PageDimensions(v.format, v.orientation)
	return v
}

func (v *Viewport) Zoom() float64                 { return v.zoom }
func (v *Viewport) Dimensions() domain.Dimensions { return v.dimensions }
func (v *Viewport) Scroll() (x, y float64)        { return v.scrollX, v.scrollY }

// SetPanelSize records the editor panel's size and re-centers the page.
func (v *Viewport) SetPanelSize(width, height float64) {
	v.panelWidth = width
	v.panelHeight = height
	v.center()
}

// SetZoom clamps and applies a zoom factor.
func (v *Viewport) SetZoom(zoom float64) {
	v.zoom = clampZoom(zoom)
}

// ZoomIn raises the zoom by one step, stopping at the upper bound.
func (v *Viewport) ZoomIn() {
	v.SetZoom(roundZoom(v.zoom + ZoomStep))
}

// ZoomOut lowers the zoom by one step, stopping at the lower bound.
func (v *Viewport) ZoomOut() {
	v.SetZoom(roundZoom(v.zoom - ZoomStep))
}

// FitToPanel picks the zoom at which the page width exactly fills the
// panel, clamped to the zoom bounds, then centers the page.
func (v *Viewport) FitToPanel() {
	if v.panelWidth > 0 && v.dimensions.Width > 0 {
		v.zoom = clampZoom(v.panelWidth / float64(v.dimensions.Width))
	}
	v.center()
}

// SetFormat switches the paper format, recomputes the page size, and
// refits the page in the panel.
func (v *Viewport) SetFormat(format domain.PageFormat) {
	v.format = format
	v.dimensions = domain.PageDimensions(v.format, v.orientation)
	v.FitToPanel()
}

// SetOrientation switches between portrait and landscape, recomputes the
// page size, and refits the page in the panel.
func (v *Viewport) SetOrientation(orientation domain.Orientation) {
	v.orientation = orientation
	v.dimensions = domain.PageDimensions(v.format, v.orientation)
	v.FitToPanel()
}

// center scrolls to the midpoint of whatever part of the scaled page
// overflows the panel. A page smaller than the panel scrolls to zero.
func (v *Viewport) center() {
	v.scrollX = math.Max(0, (float64(v.dimensions.Width)*v.zoom-v.panelWidth)/2)
	v.scrollY = math.Max(0, (float64(v.dimensions.Height)*v.zoom-v.panelHeight)/2)
}

func clampZoom(z float64) float64 {
	if z < MinZoom {
		return MinZoom
	}
	if z > MaxZoom {
		return MaxZoom
	}
	return z
}

// roundZoom keeps stepped zoom on clean tenths despite float drift.
func roundZoom(z float64) float64 {
	return math.Round(z*10) / 10
}
