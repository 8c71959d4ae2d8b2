package render

import (
	"io"
	"math"

	"github.com/fogleman/gg"

	"fiona/internal/domain"
)

// Snapshot renders a layout preview as PNG: the page on a neutral
// backdrop, column guides, and every block greeked in. Text is drawn as
// line strokes rather than glyphs, so the renderer needs no font assets.
func Snapshot(layout *domain.Layout, w io.Writer) error {
	width := layout.Dimensions.Width + 2*CanvasPadding
	height := layout.Dimensions.Height + 2*CanvasPadding

	dc := gg.NewContext(width, height)
	dc.SetHexColor("#fafafa")
	dc.Clear()

	// Page sheet
	pageX, pageY := float64(CanvasPadding), float64(CanvasPadding)
	pageW, pageH := float64(layout.Dimensions.Width), float64(layout.Dimensions.Height)
	dc.SetHexColor("#ffffff")
	dc.DrawRectangle(pageX, pageY, pageW, pageH)
	dc.Fill()
	dc.SetHexColor("#d0d4da")
	dc.SetLineWidth(1)
	dc.DrawRectangle(pageX, pageY, pageW, pageH)
	dc.Stroke()

	drawColumnGuides(dc, layout, pageX, pageY, pageW, pageH)

	for i := range layout.Blocks {
		drawBlock(dc, &layout.Blocks[i], pageX, pageY)
	}

	return dc.EncodePNG(w)
}

func drawColumnGuides(dc *gg.Context, layout *domain.Layout, pageX, pageY, pageW, pageH float64) {
	gutter := float64(layout.Gutter)
	cols := layout.Columns
	colWidth := (pageW - gutter*float64(cols+1)) / float64(cols)
	if colWidth <= 0 {
		return
	}

	dc.SetHexColor("#eef1f5")
	x := pageX + gutter
	for i := 0; i < cols; i++ {
		dc.DrawRectangle(x, pageY+gutter, colWidth, pageH-2*gutter)
		dc.Fill()
		x += colWidth + gutter
	}
}

func drawBlock(dc *gg.Context, b *domain.Block, pageX, pageY float64) {
	x := pageX + float64(b.Position.Left)
	y := pageY + float64(b.Position.Top)
	w := float64(b.Position.Width)
	h := float64(b.Position.Height)
	radius := float64(b.BorderRadius)
	if limit := math.Min(w, h) / 2; radius > limit {
		radius = limit
	}

	r, g, bl := parseHexColor(b.BackgroundColor, domain.DefaultBackgroundColor)
	dc.SetRGB255(r, g, bl)
	dc.DrawRoundedRectangle(x, y, w, h, radius)
	dc.Fill()

	dc.SetHexColor("#b9c0cc")
	dc.SetLineWidth(1)
	dc.DrawRoundedRectangle(x, y, w, h, radius)
	dc.Stroke()

	if b.Type == domain.BlockTypeImage {
		drawImagePlaceholder(dc, x, y, w, h)
		return
	}
	drawGreekedText(dc, b, x, y, w, h)
}

// drawImagePlaceholder marks an image block with the classic crossed box.
func drawImagePlaceholder(dc *gg.Context, x, y, w, h float64) {
	inset := 8.0
	if w <= 2*inset || h <= 2*inset {
		return
	}
	dc.SetHexColor("#8792a3")
	dc.SetLineWidth(1.5)
	dc.DrawRectangle(x+inset, y+inset, w-2*inset, h-2*inset)
	dc.Stroke()
	dc.DrawLine(x+inset, y+inset, x+w-inset, y+h-inset)
	dc.Stroke()
	dc.DrawLine(x+w-inset, y+inset, x+inset, y+h-inset)
	dc.Stroke()
}

// drawGreekedText sketches the block's text as line strokes, one per
// wrapped line, proportional to the content length.
func drawGreekedText(dc *gg.Context, b *domain.Block, x, y, w, h float64) {
	if b.Content == "" {
		return
	}
	const lineHeight = 14.0
	const inset = 12.0

	usableW := w - 2*inset
	if usableW <= 0 {
		return
	}
	charsPerLine := int(usableW / 6)
	if charsPerLine < 1 {
		charsPerLine = 1
	}
	lines := (len(b.Content) + charsPerLine - 1) / charsPerLine
	maxLines := int((h - 2*inset) / lineHeight)
	if lines > maxLines {
		lines = maxLines
	}

	r, g, bl := parseHexColor(b.TextColor, domain.DefaultTextColor)
	dc.SetRGB255(r, g, bl)
	dc.SetLineWidth(3)
	remaining := len(b.Content)
	for i := 0; i < lines; i++ {
		lineChars := charsPerLine
		if remaining < lineChars {
			lineChars = remaining
		}
		lineW := usableW * float64(lineChars) / float64(charsPerLine)
		ly := y + inset + float64(i)*lineHeight + lineHeight/2
		dc.DrawLine(x+inset, ly, x+inset+lineW, ly)
		dc.Stroke()
		remaining -= lineChars
	}
}
