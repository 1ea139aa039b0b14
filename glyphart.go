// Package glyphart turns a photograph into colored glyph art.
//
// The pipeline is Decode -> Sample -> Map -> Render. Every stage is a plain
// function so it can be used on its own; Pipeline strings them together and
// keeps the latest result for Export.
package glyphart

import (
	"image"
	"image/color"
)

const (
	// HeightScale compensates for glyph cells being about twice as tall as wide.
	HeightScale = 2

	// NarrowViewport is the widest viewport (in CSS px) that still counts as narrow.
	NarrowViewport = 768

	NarrowColumns = 80
	WideColumns   = 120
)

// ColumnsForViewport returns the column tier for a host viewport width.
func ColumnsForViewport(viewportWidth int) int {
	if viewportWidth <= NarrowViewport {
		return NarrowColumns
	}
	return WideColumns
}

// RGB is one sampled pixel.
type RGB struct {
	R, G, B uint8
}

// Luminance is the unweighted mean of the three channels.
func (c RGB) Luminance() float64 {
	return float64(int(c.R)+int(c.G)+int(c.B)) / 3
}

func (c RGB) RGBA() (r, g, b, a uint32) {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}.RGBA()
}

// Grid is the downsampled image, row-major, len(Pix) == Columns*Rows.
type Grid struct {
	Columns, Rows int
	Pix           []RGB
}

func (g *Grid) At(x, y int) RGB {
	return g.Pix[y*g.Columns+x]
}

// Cell is one glyph with the color of the pixel it came from.
type Cell struct {
	Glyph rune
	Color RGB
}

// Art is a rendered grid of cells. Treat it as immutable.
type Art struct {
	Columns, Rows int
	Cells         []Cell
}

// Row returns the cells of row y. Every renderer goes through Row so row
// boundaries are decided in one place.
func (a *Art) Row(y int) []Cell {
	start := y * a.Columns
	return a.Cells[start : start+a.Columns : start+a.Columns]
}

// Empty reports whether the art has no cells.
func (a *Art) Empty() bool {
	return a == nil || len(a.Cells) == 0
}

// Image returns the cell colors as an image, one pixel per cell.
func (a *Art) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, a.Columns, a.Rows))
	for i, c := range a.Cells {
		off := i * 4
		img.Pix[off] = c.Color.R
		img.Pix[off+1] = c.Color.G
		img.Pix[off+2] = c.Color.B
		img.Pix[off+3] = 255
	}
	return img
}
