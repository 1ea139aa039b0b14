package utils

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"slices"
	"strings"

	"github.com/EdlinOrg/prominentcolor"
	"github.com/cenkalti/dominantcolor"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
	"github.com/sirupsen/logrus"
)

// ThemeMethod selects how the export accent color is derived from an image.
type ThemeMethod int

const (
	ThemeMethodNone ThemeMethod = iota
	ThemeMethodDominantColor
	ThemeMethodKMeans
	ThemeMethodProminentColor
)

func (m ThemeMethod) String() string {
	switch m {
	case ThemeMethodDominantColor:
		return "dominantcolor"
	case ThemeMethodKMeans:
		return "kmeans"
	case ThemeMethodProminentColor:
		return "prominentcolor"
	default:
		return "none"
	}
}

func ParseThemeMethod(s string) (ThemeMethod, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return ThemeMethodNone, nil
	case "dominantcolor", "dominant":
		return ThemeMethodDominantColor, nil
	case "kmeans":
		return ThemeMethodKMeans, nil
	case "prominentcolor", "prominent":
		return ThemeMethodProminentColor, nil
	}
	return ThemeMethodNone, fmt.Errorf("unknown theme method %q", s)
}

// WeightedColor is a candidate color with its share of the image.
type WeightedColor struct {
	Col    colorful.Color
	Weight float64
}

// vividness favours saturated colors of medium lightness.
func vividness(c colorful.Color) float64 {
	_, chroma, l := c.Clamped().Hcl()
	if l < 0.3 || l > 0.9 {
		return chroma * 0.25
	}
	return chroma
}

// SortByVividness orders colors from most to least vivid.
func SortByVividness(colors []colorful.Color) {
	slices.SortStableFunc(colors, func(a, b colorful.Color) int {
		va, vb := vividness(a), vividness(b)
		if va > vb {
			return -1
		}
		if va < vb {
			return 1
		}
		return 0
	})
}

// minAccentChroma rejects near-gray candidates.
const minAccentChroma = 0.12

// PickAccent picks the candidate with the best mix of vividness and weight.
// It reports false when every candidate is close to gray.
func PickAccent(cands []WeightedColor) (colorful.Color, bool) {
	maxW := 0.0
	for _, c := range cands {
		maxW = max(maxW, c.Weight)
	}
	if maxW <= 0 {
		return colorful.Color{}, false
	}

	best := -1
	bestScore := 0.0
	for i, c := range cands {
		v := vividness(c.Col)
		if v < minAccentChroma {
			continue
		}
		score := v * (0.5 + 0.5*math.Sqrt(max(c.Weight, 0)/maxW))
		if score > bestScore {
			bestScore = score
			best = i
		}
	}
	if best < 0 {
		return colorful.Color{}, false
	}
	return cands[best].Col.Clamped(), true
}

func DominantCandidates(img image.Image, n int) []WeightedColor {
	found := dominantcolor.FindWeight(img, n)
	out := make([]WeightedColor, 0, len(found))
	for _, c := range found {
		if c.Weight <= 0 {
			continue
		}
		col, _ := colorful.MakeColor(c.RGBA)
		out = append(out, WeightedColor{Col: col.Clamped(), Weight: c.Weight})
	}
	return out
}

func KMeansCandidates(img image.Image, k int) []WeightedColor {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 || k <= 0 {
		return nil
	}

	dataset := make(clusters.Observations, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r16, g16, b16, a16 := img.At(x, y).RGBA()
			if a16 == 0 {
				continue
			}
			dataset = append(dataset, clusters.Coordinates{
				float64(r16) / 65535.0,
				float64(g16) / 65535.0,
				float64(b16) / 65535.0,
			})
		}
	}
	k = min(k, len(dataset))
	if k == 0 {
		return nil
	}

	cc, err := kmeans.New().Partition(dataset, k)
	if err != nil {
		return nil
	}
	out := make([]WeightedColor, 0, len(cc))
	for _, c := range cc {
		if len(c.Center) < 3 || len(c.Observations) == 0 {
			continue
		}
		col := colorful.Color{R: c.Center[0], G: c.Center[1], B: c.Center[2]}.Clamped()
		out = append(out, WeightedColor{Col: col, Weight: float64(len(c.Observations))})
	}
	return out
}

func ProminentCandidates(img image.Image) []WeightedColor {
	items, err := prominentcolor.Kmeans(img)
	if err != nil {
		return nil
	}
	out := make([]WeightedColor, 0, len(items))
	for _, it := range items {
		col, _ := colorful.MakeColor(color.RGBA{
			R: uint8(it.Color.R),
			G: uint8(it.Color.G),
			B: uint8(it.Color.B),
			A: 255,
		})
		out = append(out, WeightedColor{Col: col, Weight: float64(it.Cnt)})
	}
	return out
}

const accentCandidates = 8

// ExtractAccent derives an accent color from img with the given method. A nil
// log uses the standard logger.
func ExtractAccent(img image.Image, method ThemeMethod, log logrus.FieldLogger) (colorful.Color, bool) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	switch method {
	case ThemeMethodDominantColor:
		return PickAccent(DominantCandidates(img, accentCandidates))
	case ThemeMethodKMeans:
		if c, ok := PickAccent(KMeansCandidates(img, accentCandidates)); ok {
			return c, true
		}
		log.WithField("method", method).Warn("kmeans found no accent, falling back to dominantcolor")
		return PickAccent(DominantCandidates(img, accentCandidates))
	case ThemeMethodProminentColor:
		return PickAccent(ProminentCandidates(img))
	default:
		return colorful.Color{}, false
	}
}

func SaveImage(img image.Image, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

// Candidates returns the accent candidates of a method, most vivid first.
func Candidates(img image.Image, method ThemeMethod) []colorful.Color {
	var cands []WeightedColor
	switch method {
	case ThemeMethodKMeans:
		cands = KMeansCandidates(img, accentCandidates)
	case ThemeMethodProminentColor:
		cands = ProminentCandidates(img)
	default:
		cands = DominantCandidates(img, accentCandidates)
	}
	out := make([]colorful.Color, len(cands))
	for i, c := range cands {
		out[i] = c.Col
	}
	SortByVividness(out)
	return out
}

// SaveSwatch writes colors as a row of square tiles.
func SaveSwatch(colors []colorful.Color, tileSize int, filename string) error {
	if len(colors) == 0 {
		return fmt.Errorf("no colors to save")
	}
	if tileSize <= 0 {
		tileSize = 64
	}

	img := image.NewRGBA(image.Rect(0, 0, tileSize*len(colors), tileSize))
	for i, c := range colors {
		r, g, b := c.Clamped().RGB255()
		for y := range tileSize {
			for x := i * tileSize; x < (i+1)*tileSize; x++ {
				img.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: 255})
			}
		}
	}
	return SaveImage(img, filename)
}
