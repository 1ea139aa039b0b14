package glyphart

import "math"

// GlyphIndex maps a luminance in [0, 255] onto a palette of n glyphs:
// floor(lum/255 * (n-1)). Anything outside [0, n-1] falls back to 0.
func GlyphIndex(lum float64, n int) int {
	if n <= 1 {
		return 0
	}
	f := math.Floor(lum / 255 * float64(n-1))
	if math.IsNaN(f) || f < 0 || f > float64(n-1) {
		return 0
	}
	return int(f)
}

// MapCell picks the glyph for c and keeps its color unchanged. An empty
// palette yields the zero Cell; see Palette.Validate.
func MapCell(c RGB, p Palette) Cell {
	if len(p) == 0 {
		return Cell{}
	}
	return Cell{
		Glyph: p[GlyphIndex(c.Luminance(), len(p))],
		Color: c,
	}
}

// Map converts every grid pixel to a cell.
func Map(g *Grid, p Palette) (*Art, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	art := &Art{
		Columns: g.Columns,
		Rows:    g.Rows,
		Cells:   make([]Cell, len(g.Pix)),
	}
	for i, px := range g.Pix {
		art.Cells[i] = MapCell(px, p)
	}
	return art, nil
}
