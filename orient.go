package glyphart

import (
	"image"

	"github.com/disintegration/gift"
	"github.com/dsoprea/go-exif/v3"
	exifcommon "github.com/dsoprea/go-exif/v3/common"
)

// exifOrientation returns the EXIF Orientation tag (1-8) of an encoded image,
// or 1 when there is none or it cannot be read.
func exifOrientation(data []byte) (orientation int) {
	orientation = 1

	// go-exif reports some malformed blocks by panicking.
	defer func() {
		if recover() != nil {
			orientation = 1
		}
	}()

	rawExif, err := exif.SearchAndExtractExif(data)
	if err != nil {
		return 1
	}

	im := exifcommon.NewIfdMapping()
	ti := exif.NewTagIndex()
	if err := exifcommon.LoadStandardIfds(im); err != nil {
		return 1
	}

	_, index, err := exif.Collect(im, ti, rawExif)
	if err != nil || index.RootIfd == nil {
		return 1
	}

	tags, err := index.RootIfd.FindTagWithName("Orientation")
	if err != nil || len(tags) == 0 {
		return 1
	}
	val, err := tags[0].Value()
	if err != nil {
		return 1
	}
	if v, ok := val.([]uint16); ok && len(v) > 0 && v[0] >= 1 && v[0] <= 8 {
		return int(v[0])
	}
	return 1
}

func orientationFilter(orientation int) gift.Filter {
	switch orientation {
	case 2:
		return gift.FlipHorizontal()
	case 3:
		return gift.Rotate180()
	case 4:
		return gift.FlipVertical()
	case 5:
		return gift.Transpose()
	case 6:
		// gift rotates counter-clockwise; 6 needs 90 clockwise.
		return gift.Rotate270()
	case 7:
		return gift.Transverse()
	case 8:
		return gift.Rotate90()
	default:
		return nil
	}
}

// applyOrientation returns img transformed so that it displays upright.
func applyOrientation(img image.Image, orientation int) image.Image {
	f := orientationFilter(orientation)
	if f == nil {
		return img
	}
	g := gift.New(f)
	dst := image.NewNRGBA(g.Bounds(img.Bounds()))
	g.Draw(dst, img)
	return dst
}
