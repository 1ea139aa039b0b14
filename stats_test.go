package glyphart

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStats(t *testing.T) {
	tests := []struct {
		name       string
		art        *Art
		wantMean   float64
		wantStdDev float64
		wantCounts map[rune]int
	}{
		{
			name:       "empty",
			art:        &Art{Columns: 4},
			wantCounts: map[rune]int{},
		},
		{
			name:       "single cell",
			art:        testArt(1, 1, "a", RGB{30, 60, 90}),
			wantMean:   60,
			wantCounts: map[rune]int{'a': 1},
		},
		{
			name:       "uniform",
			art:        testArt(3, 2, "♥", RGB{255, 255, 255}),
			wantMean:   255,
			wantCounts: map[rune]int{'♥': 6},
		},
		{
			name:       "black and white",
			art:        testArt(2, 1, "ab", RGB{}, RGB{255, 255, 255}),
			wantMean:   127.5,
			wantStdDev: 180.3122,
			wantCounts: map[rune]int{'a': 1, 'b': 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.art.Stats()
			assert.Equal(t, len(tt.art.Cells), s.Cells)
			assert.InDelta(t, tt.wantMean, s.MeanLuminance, 1e-3)
			assert.InDelta(t, tt.wantStdDev, s.StdDevLuminance, 1e-3)
			assert.Equal(t, tt.wantCounts, s.GlyphCounts)
		})
	}
}
