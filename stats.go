package glyphart

import "gonum.org/v1/gonum/stat"

// Stats summarizes the tones of a rendered grid.
type Stats struct {
	Cells           int
	MeanLuminance   float64
	StdDevLuminance float64
	GlyphCounts     map[rune]int
}

// Stats computes luminance statistics over all cells.
func (a *Art) Stats() Stats {
	s := Stats{
		Cells:       len(a.Cells),
		GlyphCounts: make(map[rune]int),
	}
	if s.Cells == 0 {
		return s
	}
	lums := make([]float64, len(a.Cells))
	for i, c := range a.Cells {
		lums[i] = c.Color.Luminance()
		s.GlyphCounts[c.Glyph]++
	}
	if len(lums) == 1 {
		s.MeanLuminance = lums[0]
		return s
	}
	s.MeanLuminance, s.StdDevLuminance = stat.MeanStdDev(lums, nil)
	return s
}
