package glyphart

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/draw"
)

// State is the stage of the most recently started conversion.
type State int

const (
	Idle State = iota
	Decoding
	Sampling
	Mapping
	Rendered
	Exported
)

func (s State) String() string {
	switch s {
	case Decoding:
		return "decoding"
	case Sampling:
		return "sampling"
	case Mapping:
		return "mapping"
	case Rendered:
		return "rendered"
	case Exported:
		return "exported"
	default:
		return "idle"
	}
}

type Options struct {
	// Columns is the grid width in glyphs.
	Columns int
	// Palette is ordered from dark to bright.
	Palette Palette
	// Filter names the resampling filter: nearest, approx, bilinear or catmullrom.
	Filter string
	// AutoOrient applies the EXIF orientation of JPEG and TIFF input.
	AutoOrient bool
	// CacheTTL keeps results keyed by image content, columns, palette and
	// filter. Zero disables the cache.
	CacheTTL time.Duration
	Theme    Theme
	Logger   logrus.FieldLogger
}

func DefaultOptions() Options {
	return Options{
		Columns:    WideColumns,
		Palette:    DefaultPalette,
		Filter:     "approx",
		AutoOrient: true,
		Theme:      DefaultTheme(),
		Logger:     logrus.StandardLogger(),
	}
}

// OptionsFromViewport returns DefaultOptions with the column tier picked for
// the viewport width.
func OptionsFromViewport(viewportWidth int) Options {
	opt := DefaultOptions()
	opt.Columns = ColumnsForViewport(viewportWidth)
	return opt
}

// Result is the output of one successful conversion.
type Result struct {
	Generation uint64
	Source     string
	Columns    int
	Palette    Palette
	Art        *Art
	// Fragment is Art rendered by HTMLRenderer.
	Fragment string
}

type cached struct {
	art      *Art
	fragment string
}

// Pipeline runs conversions and keeps the latest result. When conversions
// overlap, the last one started wins: starting a conversion cancels the one
// in flight, and a superseded conversion never publishes its result.
type Pipeline struct {
	mu sync.Mutex

	columns    int
	palette    Palette
	filterName string
	filter     draw.Interpolator
	autoOrient bool

	generation uint64
	cancel     context.CancelFunc
	state      State
	current    *Result

	exporter *Exporter
	cache    *cache.Cache
	log      logrus.FieldLogger
}

func NewPipeline(opt Options) (*Pipeline, error) {
	if err := opt.Palette.Validate(); err != nil {
		return nil, err
	}
	if opt.Columns <= 0 {
		return nil, fmt.Errorf("column width must be positive, got %d", opt.Columns)
	}
	filter, err := ParseFilter(opt.Filter)
	if err != nil {
		return nil, err
	}
	if opt.Logger == nil {
		opt.Logger = logrus.StandardLogger()
	}
	if opt.Theme == (Theme{}) {
		opt.Theme = DefaultTheme()
	}

	p := &Pipeline{
		columns:    opt.Columns,
		palette:    slices.Clone(opt.Palette),
		filterName: opt.Filter,
		filter:     filter,
		autoOrient: opt.AutoOrient,
		exporter:   NewExporter(opt.Theme),
		log:        opt.Logger,
	}
	if opt.CacheTTL > 0 {
		p.cache = cache.New(opt.CacheTTL, 2*opt.CacheTTL)
	}
	return p, nil
}

// SetPalette changes the palette used by the next conversion.
func (p *Pipeline) SetPalette(palette Palette) error {
	if err := palette.Validate(); err != nil {
		return err
	}
	p.mu.Lock()
	p.palette = slices.Clone(palette)
	p.mu.Unlock()
	return nil
}

// SetColumns changes the grid width used by the next conversion.
func (p *Pipeline) SetColumns(columns int) error {
	if columns <= 0 {
		return fmt.Errorf("column width must be positive, got %d", columns)
	}
	p.mu.Lock()
	p.columns = columns
	p.mu.Unlock()
	return nil
}

// SetTheme replaces the theme used by Export.
func (p *Pipeline) SetTheme(theme Theme) {
	p.mu.Lock()
	p.exporter = NewExporter(theme)
	p.mu.Unlock()
}

func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Current returns the latest published result, or nil.
func (p *Pipeline) Current() *Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Reset drops the current result and returns to Idle. A conversion in
// flight is cancelled.
func (p *Pipeline) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.generation++
	p.current = nil
	p.state = Idle
}

// advance moves generation gen to state s. It reports false when gen has
// been superseded.
func (p *Pipeline) advance(gen uint64, s State) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.generation {
		return false
	}
	p.state = s
	return true
}

// fail returns the pipeline to Idle if gen is still current. The previous
// result stays published.
func (p *Pipeline) fail(gen uint64, log logrus.FieldLogger, err error) error {
	p.mu.Lock()
	superseded := gen != p.generation
	if !superseded {
		p.state = Idle
	}
	p.mu.Unlock()

	if superseded {
		log.Debug("conversion superseded")
		return ErrSuperseded
	}
	log.WithError(err).Warn("conversion failed")
	return err
}

func (p *Pipeline) cacheKey(d *Decoded, columns int, palette Palette) string {
	return fmt.Sprintf("%x:%d:%s:%s", d.Digest, columns, p.filterName, string(palette))
}

// Convert decodes src and renders it with the current columns and palette.
// It blocks until the conversion finishes, fails, is cancelled through ctx,
// or is superseded by a later call (ErrSuperseded).
func (p *Pipeline) Convert(ctx context.Context, src Source) (*Result, error) {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	p.generation++
	gen := p.generation
	cctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.state = Decoding
	columns := p.columns
	palette := p.palette
	p.mu.Unlock()
	defer cancel()

	log := p.log.WithFields(logrus.Fields{
		"generation": gen,
		"source":     src.Name(),
		"columns":    columns,
	})
	log.Debug("decoding")

	var res DecodeResult
	select {
	case res = <-DecodeAsync(cctx, src, p.autoOrient):
	case <-cctx.Done():
		return nil, p.fail(gen, log, cctx.Err())
	}
	if res.Err != nil {
		return nil, p.fail(gen, log, res.Err)
	}

	key := p.cacheKey(res.Decoded, columns, palette)
	var art *Art
	var fragment string
	if hit, ok := p.lookup(key); ok {
		log.Debug("cache hit")
		art, fragment = hit.art, hit.fragment
	} else {
		if !p.advance(gen, Sampling) {
			return nil, p.fail(gen, log, ErrSuperseded)
		}
		grid, err := Sample(res.Image, columns, p.filter)
		if err != nil {
			return nil, p.fail(gen, log, err)
		}

		if !p.advance(gen, Mapping) {
			return nil, p.fail(gen, log, ErrSuperseded)
		}
		art, err = Map(grid, palette)
		if err != nil {
			return nil, p.fail(gen, log, err)
		}
		fragment, err = RenderString(HTMLRenderer{}, art)
		if err != nil {
			return nil, p.fail(gen, log, err)
		}
		if p.cache != nil {
			p.cache.SetDefault(key, cached{art: art, fragment: fragment})
		}
	}

	result := &Result{
		Generation: gen,
		Source:     src.Name(),
		Columns:    columns,
		Palette:    palette,
		Art:        art,
		Fragment:   fragment,
	}

	p.mu.Lock()
	if gen != p.generation {
		p.mu.Unlock()
		return nil, p.fail(gen, log, ErrSuperseded)
	}
	p.current = result
	p.state = Rendered
	p.mu.Unlock()

	stats := art.Stats()
	log.WithFields(logrus.Fields{
		"rows":        art.Rows,
		"format":      res.Format,
		"orientation": res.Orientation,
		"mean":        stats.MeanLuminance,
		"stddev":      stats.StdDevLuminance,
	}).Debug("rendered")
	return result, nil
}

func (p *Pipeline) lookup(key string) (cached, bool) {
	if p.cache == nil {
		return cached{}, false
	}
	v, ok := p.cache.Get(key)
	if !ok {
		return cached{}, false
	}
	c, ok := v.(cached)
	return c, ok
}

// Export wraps the current result into a document and hands it to sink,
// sizing the font for viewportWidth. With nothing rendered it does nothing.
func (p *Pipeline) Export(viewportWidth int, sink Sink) error {
	p.mu.Lock()
	cur := p.current
	exporter := p.exporter
	p.mu.Unlock()

	if cur == nil || cur.Art.Empty() {
		p.log.Debug("export skipped: nothing rendered")
		return nil
	}

	err := exporter.Export(cur.Fragment, viewportWidth, sink)
	if errors.Is(err, ErrNoContent) {
		p.log.Debug("export skipped: empty fragment")
		return nil
	}
	if err != nil {
		return err
	}

	p.mu.Lock()
	if p.current == cur {
		p.state = Exported
	}
	p.mu.Unlock()

	p.log.WithFields(logrus.Fields{
		"generation": cur.Generation,
		"file":       exporter.Filename,
		"font_size":  exporter.Theme.FontSize(viewportWidth),
	}).Info("exported")
	return nil
}
