package glyphart

import (
	"fmt"
	"image"
	"math"
	"strings"

	"golang.org/x/image/draw"
)

// MaxCells bounds the grid size. Very tall or very wide sources would
// otherwise size grids that cannot be allocated.
const MaxCells = 1 << 22

// DefaultFilter approximates what a browser canvas does when it shrinks an image.
var DefaultFilter draw.Interpolator = draw.ApproxBiLinear

var filters = map[string]draw.Interpolator{
	"nearest":    draw.NearestNeighbor,
	"approx":     draw.ApproxBiLinear,
	"bilinear":   draw.BiLinear,
	"catmullrom": draw.CatmullRom,
}

// ParseFilter maps a filter name to a resampling interpolator.
func ParseFilter(name string) (draw.Interpolator, error) {
	if name == "" {
		return DefaultFilter, nil
	}
	f, ok := filters[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown resampling filter %q", name)
	}
	return f, nil
}

// RowsFor returns the grid height for a srcW x srcH image rendered with the
// given number of columns: floor(columns * srcH/srcW / HeightScale).
func RowsFor(srcW, srcH, columns int) (int, error) {
	if columns <= 0 {
		return 0, &InvalidImageError{Reason: fmt.Sprintf("column width must be positive, got %d", columns)}
	}
	if srcW <= 0 || srcH <= 0 {
		return 0, &InvalidImageError{Reason: fmt.Sprintf("degenerate size %dx%d", srcW, srcH)}
	}
	aspect := float64(srcH) / float64(srcW) / HeightScale
	rows := math.Floor(float64(columns) * aspect)
	if math.IsNaN(rows) || math.IsInf(rows, 0) || rows > math.MaxInt32 {
		return 0, &InvalidImageError{Reason: fmt.Sprintf("cannot size grid for %dx%d", srcW, srcH)}
	}
	if float64(columns)*rows > MaxCells {
		return 0, &InvalidImageError{Reason: fmt.Sprintf("cannot size grid for %dx%d: %d columns give more than %d cells", srcW, srcH, columns, MaxCells)}
	}
	return int(rows), nil
}

// Sample resamples img to columns x RowsFor(...) pixels. A nil filter uses
// DefaultFilter.
func Sample(img image.Image, columns int, filter draw.Interpolator) (*Grid, error) {
	if img == nil {
		return nil, &InvalidImageError{Reason: "no image"}
	}
	if filter == nil {
		filter = DefaultFilter
	}

	bounds := img.Bounds()
	rows, err := RowsFor(bounds.Dx(), bounds.Dy(), columns)
	if err != nil {
		return nil, err
	}

	grid := &Grid{
		Columns: columns,
		Rows:    rows,
		Pix:     make([]RGB, columns*rows),
	}
	if rows == 0 {
		return grid, nil
	}

	// Non-premultiplied so transparent areas read back as black, like a canvas.
	dst := image.NewNRGBA(image.Rect(0, 0, columns, rows))
	filter.Scale(dst, dst.Rect, img, bounds, draw.Src, nil)

	for y := range rows {
		for x := range columns {
			off := dst.PixOffset(x, y)
			grid.Pix[y*columns+x] = RGB{
				R: dst.Pix[off],
				G: dst.Pix[off+1],
				B: dst.Pix[off+2],
			}
		}
	}
	return grid, nil
}
