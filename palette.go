package glyphart

import (
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Palette is an ordered glyph sequence. Index 0 is picked for the darkest
// pixels, the last glyph for the brightest.
type Palette []rune

// Preset palettes offered by the host.
var (
	Hearts = NewPalette("♥")
	Petals = NewPalette("%")
	Lace   = NewPalette("@#S%?*+;:.")
)

// DefaultPalette is used when no palette is configured.
var DefaultPalette = Hearts

var presets = map[string]Palette{
	"hearts": Hearts,
	"petals": Petals,
	"lace":   Lace,
}

// NewPalette builds a palette from the NFC form of s, one glyph per rune.
func NewPalette(s string) Palette {
	return Palette([]rune(norm.NFC.String(s)))
}

// PresetPalette returns the named preset.
func PresetPalette(name string) (Palette, bool) {
	p, ok := presets[strings.ToLower(name)]
	return slices.Clone(p), ok
}

// PresetNames lists preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Validate returns an EmptyPaletteError for a palette with no glyphs.
func (p Palette) Validate() error {
	if len(p) == 0 {
		return &EmptyPaletteError{}
	}
	return nil
}

func (p Palette) String() string {
	return string(p)
}
