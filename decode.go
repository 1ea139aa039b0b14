package glyphart

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Source supplies the bytes of one image. Open returns a handle that the
// decoder closes once the bytes are read, whether decoding succeeds or not.
type Source interface {
	Name() string
	Open() (io.ReadCloser, error)
}

type fileSource string

// FileSource reads the image at path.
func FileSource(path string) Source {
	return fileSource(path)
}

func (f fileSource) Name() string {
	return filepath.Base(string(f))
}

func (f fileSource) Open() (io.ReadCloser, error) {
	return os.Open(string(f))
}

type bytesSource struct {
	name string
	data []byte
}

// BytesSource wraps an image already held in memory.
func BytesSource(name string, data []byte) Source {
	return bytesSource{name: name, data: data}
}

func (b bytesSource) Name() string {
	return b.name
}

func (b bytesSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b.data)), nil
}

type readerSource struct {
	name string
	rc   io.ReadCloser
}

// ReaderSource wraps a stream. It can be opened once.
func ReaderSource(name string, rc io.ReadCloser) Source {
	return &readerSource{name: name, rc: rc}
}

func (r *readerSource) Name() string {
	return r.name
}

func (r *readerSource) Open() (io.ReadCloser, error) {
	if r.rc == nil {
		return nil, fmt.Errorf("source %s already consumed", r.name)
	}
	rc := r.rc
	r.rc = nil
	return rc, nil
}

// Decoded is a decoded source image together with facts about its bytes.
type Decoded struct {
	Image       image.Image
	Format      string
	Orientation int
	// Digest is the SHA-256 of the encoded bytes.
	Digest [sha256.Size]byte
}

// DecodeResult is delivered by DecodeAsync.
type DecodeResult struct {
	*Decoded
	Err error
}

// Decode reads and decodes src. The handle returned by src.Open is always
// closed before Decode returns. When autoOrient is set the EXIF orientation
// is applied so the image is upright.
func Decode(ctx context.Context, src Source, autoOrient bool) (*Decoded, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := readAll(src)
	if err != nil {
		return nil, &InvalidImageError{Reason: "reading " + src.Name(), Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &InvalidImageError{Reason: "decoding " + src.Name(), Err: err}
	}

	d := &Decoded{
		Image:       img,
		Format:      format,
		Orientation: 1,
		Digest:      sha256.Sum256(data),
	}
	if autoOrient && (format == "jpeg" || format == "tiff") {
		d.Orientation = exifOrientation(data)
		d.Image = applyOrientation(img, d.Orientation)
	}
	return d, nil
}

// DecodeAsync runs Decode on its own goroutine. The channel is buffered so
// the goroutine finishes and releases the source even if nobody receives.
func DecodeAsync(ctx context.Context, src Source, autoOrient bool) <-chan DecodeResult {
	ch := make(chan DecodeResult, 1)
	go func() {
		d, err := Decode(ctx, src, autoOrient)
		ch <- DecodeResult{Decoded: d, Err: err}
	}()
	return ch
}

func readAll(src Source) ([]byte, error) {
	rc, err := src.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
