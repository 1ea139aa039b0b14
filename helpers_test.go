package glyphart

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func solidImage(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, c)
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

var white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}

// trackingSource records whether the handle it hands out was closed.
type trackingSource struct {
	name string
	data []byte

	mu     sync.Mutex
	opened int
	closed int
}

func (s *trackingSource) Name() string {
	return s.name
}

func (s *trackingSource) Open() (io.ReadCloser, error) {
	s.mu.Lock()
	s.opened++
	s.mu.Unlock()
	return &trackingCloser{Reader: bytes.NewReader(s.data), src: s}, nil
}

func (s *trackingSource) counts() (opened, closed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opened, s.closed
}

type trackingCloser struct {
	io.Reader
	src *trackingSource
}

func (c *trackingCloser) Close() error {
	c.src.mu.Lock()
	c.src.closed++
	c.src.mu.Unlock()
	return nil
}

// blockingSource does not deliver its bytes until release is closed.
type blockingSource struct {
	trackingSource
	started chan struct{}
	release chan struct{}
}

func newBlockingSource(data []byte) *blockingSource {
	return &blockingSource{
		trackingSource: trackingSource{name: "slow.png", data: data},
		started:        make(chan struct{}),
		release:        make(chan struct{}),
	}
}

func (s *blockingSource) Open() (io.ReadCloser, error) {
	rc, err := s.trackingSource.Open()
	close(s.started)
	<-s.release
	return rc, err
}
