package glyphart

import (
	"context"
	"image/color"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPipeline(t *testing.T, mutate func(*Options)) (*Pipeline, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	opt := DefaultOptions()
	opt.Columns = 2
	opt.Palette = NewPalette("ab")
	opt.Logger = logger
	if mutate != nil {
		mutate(&opt)
	}
	p, err := NewPipeline(opt)
	require.NoError(t, err)
	return p, hook
}

func whiteSource(t *testing.T) Source {
	return BytesSource("white.png", encodePNG(t, solidImage(2, 2, white)))
}

func recordingSink(calls *int, name, mime *string) Sink {
	return SinkFunc(func(n, m string, _ []byte) error {
		*calls++
		*name, *mime = n, m
		return nil
	})
}

func TestNewPipeline_Validation(t *testing.T) {
	opt := DefaultOptions()
	opt.Palette = Palette{}
	_, err := NewPipeline(opt)
	assert.True(t, IsEmptyPalette(err))

	opt = DefaultOptions()
	opt.Columns = 0
	_, err = NewPipeline(opt)
	assert.Error(t, err)

	opt = DefaultOptions()
	opt.Filter = "sinc"
	_, err = NewPipeline(opt)
	assert.Error(t, err)
}

func TestPipeline_ConvertWhiteSquare(t *testing.T) {
	p, _ := newTestPipeline(t, nil)
	assert.Equal(t, Idle, p.State())

	res, err := p.Convert(context.Background(), whiteSource(t))
	require.NoError(t, err)

	assert.Equal(t, Rendered, p.State())
	assert.Same(t, res, p.Current())
	assert.Equal(t, "white.png", res.Source)
	assert.Equal(t, 2, res.Art.Columns)
	assert.Equal(t, 1, res.Art.Rows)
	for _, c := range res.Art.Cells {
		assert.Equal(t, Cell{Glyph: 'b', Color: RGB{255, 255, 255}}, c)
	}
	assert.Equal(t, `<div class="ascii-content">`+
		`<span style="color: rgb(255,255,255)">b</span>`+
		`<span style="color: rgb(255,255,255)">b</span>`+
		`<br/></div>`, res.Fragment)
}

func TestPipeline_Deterministic(t *testing.T) {
	p, _ := newTestPipeline(t, func(o *Options) { o.Columns = 16 })
	img := solidImage(32, 32, color.NRGBA{R: 90, G: 140, B: 200, A: 255})
	for x := range 16 {
		img.Set(x, x, color.NRGBA{R: 255, A: 255})
	}
	data := encodePNG(t, img)

	first, err := p.Convert(context.Background(), BytesSource("a.png", data))
	require.NoError(t, err)
	second, err := p.Convert(context.Background(), BytesSource("a.png", data))
	require.NoError(t, err)

	assert.Equal(t, first.Art, second.Art)
	assert.Equal(t, first.Fragment, second.Fragment)
	assert.Greater(t, second.Generation, first.Generation)
}

func TestPipeline_InvalidImageKeepsPreviousResult(t *testing.T) {
	p, _ := newTestPipeline(t, nil)
	good, err := p.Convert(context.Background(), whiteSource(t))
	require.NoError(t, err)

	src := &trackingSource{name: "broken.png", data: []byte("\x89PNG garbage")}
	_, err = p.Convert(context.Background(), src)

	require.Error(t, err)
	assert.True(t, IsInvalidImage(err))
	assert.Equal(t, Idle, p.State())
	assert.Same(t, good, p.Current())
	_, closed := src.counts()
	assert.Equal(t, 1, closed)
}

func TestPipeline_CallerCancellation(t *testing.T) {
	p, _ := newTestPipeline(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Convert(ctx, whiteSource(t))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Idle, p.State())
	assert.Nil(t, p.Current())
}

func TestPipeline_LastStartedWins(t *testing.T) {
	p, _ := newTestPipeline(t, nil)
	slow := newBlockingSource(encodePNG(t, solidImage(2, 2, color.NRGBA{A: 255})))

	done := make(chan error, 1)
	go func() {
		_, err := p.Convert(context.Background(), slow)
		done <- err
	}()
	<-slow.started

	latest, err := p.Convert(context.Background(), whiteSource(t))
	require.NoError(t, err)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrSuperseded)
	case <-time.After(5 * time.Second):
		t.Fatal("superseded conversion did not return")
	}

	close(slow.release)
	require.Eventually(t, func() bool {
		_, closed := slow.counts()
		return closed == 1
	}, 5*time.Second, 10*time.Millisecond)

	assert.Same(t, latest, p.Current())
	assert.Equal(t, Rendered, p.State())
	assert.Equal(t, 'b', p.Current().Art.Cells[0].Glyph)
}

func TestPipeline_ExportWithoutResultIsNoop(t *testing.T) {
	p, _ := newTestPipeline(t, nil)
	var calls int
	var name, mime string

	require.NoError(t, p.Export(1280, recordingSink(&calls, &name, &mime)))

	assert.Zero(t, calls)
	assert.Equal(t, Idle, p.State())
}

func TestPipeline_ExportEmptyArtIsNoop(t *testing.T) {
	p, _ := newTestPipeline(t, func(o *Options) { o.Columns = 80 })
	res, err := p.Convert(context.Background(), BytesSource("strip.png", encodePNG(t, solidImage(1000, 1, white))))
	require.NoError(t, err)
	require.True(t, res.Art.Empty())

	var calls int
	var name, mime string
	require.NoError(t, p.Export(1280, recordingSink(&calls, &name, &mime)))

	assert.Zero(t, calls)
	assert.Equal(t, Rendered, p.State())
}

func TestPipeline_Export(t *testing.T) {
	p, hook := newTestPipeline(t, nil)
	_, err := p.Convert(context.Background(), whiteSource(t))
	require.NoError(t, err)

	var calls int
	var name, mime string
	require.NoError(t, p.Export(500, recordingSink(&calls, &name, &mime)))

	assert.Equal(t, 1, calls)
	assert.Equal(t, "sakura_art.html", name)
	assert.Equal(t, "text/html", mime)
	assert.Equal(t, Exported, p.State())
	assert.NotNil(t, p.Current())

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "exported", entry.Message)
	assert.Equal(t, "2.2vw", entry.Data["font_size"])
}

func TestPipeline_ExportUsesCurrentTheme(t *testing.T) {
	p, _ := newTestPipeline(t, nil)
	_, err := p.Convert(context.Background(), whiteSource(t))
	require.NoError(t, err)

	theme := DefaultTheme()
	theme.Heading = "garden"
	p.SetTheme(theme)

	var doc []byte
	require.NoError(t, p.Export(1280, SinkFunc(func(_, _ string, data []byte) error {
		doc = data
		return nil
	})))
	assert.Equal(t, "garden", parseDocument(t, doc).Find("h2").Text())
}

func TestPipeline_Reset(t *testing.T) {
	p, _ := newTestPipeline(t, nil)
	_, err := p.Convert(context.Background(), whiteSource(t))
	require.NoError(t, err)

	p.Reset()

	assert.Equal(t, Idle, p.State())
	assert.Nil(t, p.Current())
}

func TestPipeline_SettersApplyToNextConversion(t *testing.T) {
	p, _ := newTestPipeline(t, nil)

	assert.True(t, IsEmptyPalette(p.SetPalette(Palette{})))
	assert.Error(t, p.SetColumns(0))

	require.NoError(t, p.SetPalette(NewPalette("xyz")))
	require.NoError(t, p.SetColumns(4))

	res, err := p.Convert(context.Background(), whiteSource(t))
	require.NoError(t, err)
	assert.Equal(t, 4, res.Art.Columns)
	assert.Equal(t, 2, res.Art.Rows)
	assert.Equal(t, 'z', res.Art.Cells[0].Glyph)
}

func TestPipeline_CacheHit(t *testing.T) {
	p, hook := newTestPipeline(t, func(o *Options) { o.CacheTTL = time.Minute })

	first, err := p.Convert(context.Background(), whiteSource(t))
	require.NoError(t, err)
	second, err := p.Convert(context.Background(), BytesSource("copy.png", encodePNG(t, solidImage(2, 2, white))))
	require.NoError(t, err)

	assert.Same(t, first.Art, second.Art)
	assert.Equal(t, "copy.png", second.Source)

	hits := 0
	for _, e := range hook.AllEntries() {
		if e.Message == "cache hit" {
			hits++
		}
	}
	assert.Equal(t, 1, hits)

	// a different palette misses
	require.NoError(t, p.SetPalette(NewPalette("cd")))
	third, err := p.Convert(context.Background(), whiteSource(t))
	require.NoError(t, err)
	assert.Equal(t, 'd', third.Art.Cells[0].Glyph)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "decoding", Decoding.String())
	assert.Equal(t, "sampling", Sampling.String())
	assert.Equal(t, "mapping", Mapping.String())
	assert.Equal(t, "rendered", Rendered.String())
	assert.Equal(t, "exported", Exported.String())
}

func TestOptionsFromViewport(t *testing.T) {
	assert.Equal(t, 80, OptionsFromViewport(600).Columns)
	assert.Equal(t, 120, OptionsFromViewport(1440).Columns)
}
