package render

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"

	"fiona/internal/domain"
)

// pxToPt converts CSS pixels (96dpi) to PDF points (72dpi).
const pxToPt = 72.0 / 96.0

// MediaResolver maps an asset URL from an image block to a readable file
// path, or returns an error when the asset is missing.
type MediaResolver func(imageURL string) (string, error)

// PDF writes a layout as a single-page PDF sized to the page plus the
// export padding. Image blocks embed their media file when the resolver
// finds it; a missing file degrades to the block's fill, never an error.
func PDF(layout *domain.Layout, resolve MediaResolver, w io.Writer) error {
	pageW := float64(layout.Dimensions.Width+2*CanvasPadding) * pxToPt
	pageH := float64(layout.Dimensions.Height+2*CanvasPadding) * pxToPt

	pdf := fpdf.NewCustom(&fpdf.InitType{
		UnitStr: "pt",
		Size:    fpdf.SizeType{Wd: pageW, Ht: pageH},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	// Page sheet on a neutral backdrop.
	pdf.SetFillColor(250, 250, 250)
	pdf.Rect(0, 0, pageW, pageH, "F")
	pdf.SetFillColor(255, 255, 255)
	pdf.Rect(pad(0), pad(0), float64(layout.Dimensions.Width)*pxToPt, float64(layout.Dimensions.Height)*pxToPt, "F")

	for i := range layout.Blocks {
		if err := pdfBlock(pdf, &layout.Blocks[i], resolve); err != nil {
			return err
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// pad offsets a page coordinate by the canvas padding, in points.
func pad(px float64) float64 {
	return (px + CanvasPadding) * pxToPt
}

func pdfBlock(pdf *fpdf.Fpdf, b *domain.Block, resolve MediaResolver) error {
	x := pad(float64(b.Position.Left))
	y := pad(float64(b.Position.Top))
	w := float64(b.Position.Width) * pxToPt
	h := float64(b.Position.Height) * pxToPt
	radius := float64(b.BorderRadius) * pxToPt
	if limit := w / 2; radius > limit {
		radius = limit
	}
	if limit := h / 2; radius > limit {
		radius = limit
	}

	r, g, bl := parseHexColor(b.BackgroundColor, domain.DefaultBackgroundColor)
	pdf.SetFillColor(r, g, bl)
	pdf.RoundedRect(x, y, w, h, radius, "1234", "F")

	if b.Type == domain.BlockTypeImage {
		return pdfImage(pdf, b, resolve, x, y, w, h)
	}
	return pdfText(pdf, b, x, y, w, h)
}

func pdfImage(pdf *fpdf.Fpdf, b *domain.Block, resolve MediaResolver, x, y, w, h float64) error {
	if b.ImageURL == "" || resolve == nil {
		return nil
	}
	path, err := resolve(b.ImageURL)
	if err != nil {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "jpeg" {
		ext = "jpg"
	}
	if ext != "png" && ext != "jpg" && ext != "gif" {
		return nil
	}

	opts := fpdf.ImageOptions{ImageType: strings.ToUpper(ext), ReadDpi: true}
	pdf.ImageOptions(path, x, y, w, h, false, opts, 0, "")
	return pdf.Error()
}

func pdfText(pdf *fpdf.Fpdf, b *domain.Block, x, y, w, h float64) error {
	if b.Content == "" {
		return nil
	}
	const inset = 9.0 // 12px at 72dpi
	if w <= 2*inset || h <= 2*inset {
		return nil
	}

	r, g, bl := parseHexColor(b.TextColor, domain.DefaultTextColor)
	pdf.SetTextColor(r, g, bl)
	pdf.SetFont("Helvetica", "", 11)

	// Clip so long content cannot spill beyond the block.
	pdf.ClipRect(x, y, w, h, false)
	pdf.SetXY(x+inset, y+inset)
	pdf.MultiCell(w-2*inset, 14, b.Content, "", "L", false)
	pdf.ClipEnd()
	return pdf.Error()
}
