// Package pdf implements the typesetting backend on top of gofpdf.
// It rasterizes what the composer decided; it makes no layout choices
// of its own beyond wrapping table rows.
package pdf

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/jung-kurt/gofpdf"

	"github.com/hesabu-biz/hesabu/internal/docgen/compose"
)

// Options configures the backend. Zero values fall back to A4-friendly
// defaults matching the composer's.
type Options struct {
	Margin     float64
	FontFamily string
	BodySize   float64
	LineHeight float64
}

func (o Options) withDefaults() Options {
	if o.Margin == 0 {
		o.Margin = 15
	}
	if o.FontFamily == "" {
		o.FontFamily = "Helvetica"
	}
	if o.BodySize == 0 {
		o.BodySize = 10
	}
	if o.LineHeight == 0 {
		o.LineHeight = 5
	}
	return o
}

// Backend drives a single in-memory PDF document. Not safe for
// concurrent use; compose one document per Backend.
type Backend struct {
	f    *gofpdf.Fpdf
	opts Options
}

var _ compose.Backend = (*Backend)(nil)

func New(opts Options) *Backend {
	opts = opts.withDefaults()
	f := gofpdf.New("P", "mm", "A4", "")
	// The layout cursor owns page breaks.
	f.SetAutoPageBreak(false, 0)
	f.SetMargins(opts.Margin, opts.Margin, opts.Margin)
	f.SetFont(opts.FontFamily, "", opts.BodySize)
	return &Backend{f: f, opts: opts}
}

func (b *Backend) AddPage() { b.f.AddPage() }

// SetPage maps the composer's zero-based page index onto gofpdf's
// one-based pages.
func (b *Backend) SetPage(n int) { b.f.SetPage(n + 1) }

func (b *Backend) PageCount() int { return b.f.PageCount() }

func (b *Backend) setFont(opts compose.TextOptions) {
	size := opts.Size
	if size == 0 {
		size = b.opts.BodySize
	}
	b.f.SetFont(b.opts.FontFamily, opts.Style, size)
}

func (b *Backend) DrawText(s string, x, y float64, opts compose.TextOptions) {
	b.setFont(opts)
	switch opts.Align {
	case "R":
		x += opts.Width - b.f.GetStringWidth(s)
	case "C":
		x += (opts.Width - b.f.GetStringWidth(s)) / 2
	}
	b.f.Text(x, y, s)
	b.f.SetFont(b.opts.FontFamily, "", b.opts.BodySize)
}

func (b *Backend) DrawRect(x, y, w, h float64, opts compose.RectOptions) {
	if opts.Fill {
		b.f.SetFillColor(225, 228, 233)
		b.f.Rect(x, y, w, h, "F")
		return
	}
	b.f.SetDrawColor(120, 120, 120)
	b.f.SetLineWidth(0.25)
	b.f.Rect(x, y, w, h, "D")
}

// DrawImage embeds a PNG/JPEG/GIF asset. The bytes are decoded-checked
// first so a corrupt asset returns an error instead of poisoning the
// whole gofpdf document.
func (b *Backend) DrawImage(img []byte, x, y, w, h float64) error {
	_, kind, err := image.DecodeConfig(bytes.NewReader(img))
	if err != nil {
		return fmt.Errorf("pdf: decode image: %w", err)
	}
	var imgType string
	switch kind {
	case "png":
		imgType = "PNG"
	case "jpeg":
		imgType = "JPG"
	case "gif":
		imgType = "GIF"
	default:
		return fmt.Errorf("pdf: unsupported image format %q", kind)
	}

	hash := fnv.New64a()
	_, _ = hash.Write(img)
	name := fmt.Sprintf("asset-%x", hash.Sum64())

	opts := gofpdf.ImageOptions{ImageType: imgType}
	b.f.RegisterImageOptionsReader(name, opts, bytes.NewReader(img))
	if b.f.Err() {
		return fmt.Errorf("pdf: register image: %w", b.f.Error())
	}
	b.f.ImageOptions(name, x, y, w, h, false, opts, 0, "")
	return nil
}

func (b *Backend) MeasureText(s string, maxWidth float64) []string {
	b.f.SetFont(b.opts.FontFamily, "", b.opts.BodySize)
	return b.f.SplitText(s, maxWidth)
}

// DrawTable renders the item table row by row, wrapping cell text and
// breaking pages itself (re-drawing the header strip on each new page).
// Returns the zero-based page and y position just below the last row.
func (b *Backend) DrawTable(t compose.Table, x, y float64) (int, float64, error) {
	_, pageHeight := b.f.GetPageSize()
	maxY := pageHeight - b.opts.Margin
	lh := b.opts.LineHeight
	pad := 1.2

	drawHeader := func(y float64) float64 {
		rowH := lh + 2*pad
		b.f.SetFillColor(225, 228, 233)
		b.f.SetFont(b.opts.FontFamily, "B", b.opts.BodySize)
		cx := x
		for i, cell := range t.Header {
			b.f.Rect(cx, y, t.Widths[i], rowH, "F")
			b.f.SetXY(cx, y+pad)
			b.f.CellFormat(t.Widths[i], lh, cell, "", 0, align(t.Aligns, i), false, 0, "")
			cx += t.Widths[i]
		}
		b.f.SetFont(b.opts.FontFamily, "", b.opts.BodySize)
		return y + rowH
	}

	y = drawHeader(y)
	for _, row := range t.Rows {
		// Row height from the tallest wrapped cell.
		maxLines := 1
		wrapped := make([][]string, len(row))
		for i, cell := range row {
			wrapped[i] = b.f.SplitText(cell, t.Widths[i]-2*pad)
			if len(wrapped[i]) > maxLines {
				maxLines = len(wrapped[i])
			}
		}
		rowH := float64(maxLines)*lh + 2*pad

		if y+rowH > maxY {
			b.f.AddPage()
			y = drawHeader(b.opts.Margin)
		}

		cx := x
		b.f.SetDrawColor(120, 120, 120)
		b.f.SetLineWidth(0.2)
		for i := range row {
			b.f.Rect(cx, y, t.Widths[i], rowH, "D")
			for j, line := range wrapped[i] {
				b.f.SetXY(cx+pad, y+pad+float64(j)*lh)
				b.f.CellFormat(t.Widths[i]-2*pad, lh, line, "", 0, align(t.Aligns, i), false, 0, "")
			}
			cx += t.Widths[i]
		}
		y += rowH
	}

	if b.f.Err() {
		return 0, 0, fmt.Errorf("pdf: draw table: %w", b.f.Error())
	}
	return b.f.PageNo() - 1, y, nil
}

func align(aligns []string, i int) string {
	if i < len(aligns) && aligns[i] != "" {
		return aligns[i]
	}
	return "L"
}

// Output writes the finished PDF. Any deferred gofpdf error surfaces
// here so a broken document is never offered for download.
func (b *Backend) Output(w io.Writer) error {
	if err := b.f.Output(w); err != nil {
		return fmt.Errorf("pdf: output: %w", err)
	}
	return nil
}
