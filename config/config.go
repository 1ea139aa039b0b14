// Package config loads glyphart settings from the environment and command
// line flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"

	"github.com/setanarut/glyphart"
	"github.com/setanarut/glyphart/utils"
)

// Config holds all settings of the command line host
type Config struct {
	Render RenderConfig
	Export ExportConfig

	// LogLevel is a logrus level name
	LogLevel string

	// CacheTTL is how long, in seconds, converted results are remembered. 0 disables it.
	CacheTTL int
}

// RenderConfig controls conversion
type RenderConfig struct {
	// ViewportWidth picks the column tier when Columns is 0
	ViewportWidth int

	// Columns forces a column tier (80 or 120)
	Columns int

	// Palette is a preset name or a literal glyph sequence
	Palette string

	// Filter is the resampling filter name
	Filter string

	// AutoOrient applies EXIF orientation
	AutoOrient bool
}

// ExportConfig controls the exported document
type ExportConfig struct {
	// OutputDir receives the exported document
	OutputDir string

	// Theme is the accent extraction method
	Theme string

	FontNarrow string
	FontWide   string

	// Lang is the BCP 47 tag of the document
	Lang string
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Render: RenderConfig{
			ViewportWidth: getEnvAsIntOrDefault("GLYPHART_VIEWPORT_WIDTH", 1280),
			Columns:       getEnvAsIntOrDefault("GLYPHART_COLUMNS", 0),
			Palette:       getEnvOrDefault("GLYPHART_PALETTE", "hearts"),
			Filter:        getEnvOrDefault("GLYPHART_FILTER", "approx"),
			AutoOrient:    getEnvAsBoolOrDefault("GLYPHART_AUTO_ORIENT", true),
		},
		Export: ExportConfig{
			OutputDir:  getEnvOrDefault("GLYPHART_OUTPUT_DIR", "."),
			Theme:      getEnvOrDefault("GLYPHART_THEME", "none"),
			FontNarrow: getEnvOrDefault("GLYPHART_FONT_NARROW", "2.2vw"),
			FontWide:   getEnvOrDefault("GLYPHART_FONT_WIDE", "8px"),
			Lang:       getEnvOrDefault("GLYPHART_LANG", "ru"),
		},
		LogLevel: getEnvOrDefault("GLYPHART_LOG_LEVEL", "info"),
		CacheTTL: getEnvAsIntOrDefault("GLYPHART_CACHE_TTL", 0),
	}

	return cfg, nil
}

// RegisterFlags binds flags to the configuration. Values already loaded
// become the flag defaults.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.Render.ViewportWidth, "viewport", c.Render.ViewportWidth, "host viewport width in px; <=768 renders 80 columns, wider 120")
	fs.IntVar(&c.Render.Columns, "columns", c.Render.Columns, "force the column tier (80 or 120); 0 derives it from -viewport")
	fs.StringVar(&c.Render.Palette, "palette", c.Render.Palette, "preset (hearts, petals, lace) or literal glyphs from dark to bright")
	fs.StringVar(&c.Render.Filter, "filter", c.Render.Filter, "resampling filter: nearest, approx, bilinear, catmullrom")
	fs.BoolVar(&c.Render.AutoOrient, "auto-orient", c.Render.AutoOrient, "apply EXIF orientation")
	fs.StringVar(&c.Export.OutputDir, "out", c.Export.OutputDir, "directory for the exported document")
	fs.StringVar(&c.Export.Theme, "theme", c.Export.Theme, "accent color source: none, dominantcolor, kmeans, prominentcolor")
	fs.StringVar(&c.Export.FontNarrow, "font-narrow", c.Export.FontNarrow, "art font size for narrow viewports")
	fs.StringVar(&c.Export.FontWide, "font-wide", c.Export.FontWide, "art font size for wide viewports")
	fs.StringVar(&c.Export.Lang, "lang", c.Export.Lang, "document language tag")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level")
	fs.IntVar(&c.CacheTTL, "cache-ttl", c.CacheTTL, "seconds to remember converted results; 0 disables")
}

// getEnvOrDefault returns the environment variable value or a default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault returns the environment variable as int or a default
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// Palette resolves the configured palette. Unknown names are taken as
// literal glyphs.
func (c *Config) Palette() (glyphart.Palette, error) {
	p, ok := glyphart.PresetPalette(c.Render.Palette)
	if !ok {
		p = glyphart.NewPalette(c.Render.Palette)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Columns returns the forced column tier or the one for the viewport.
func (c *Config) Columns() int {
	if c.Render.Columns > 0 {
		return c.Render.Columns
	}
	return glyphart.ColumnsForViewport(c.Render.ViewportWidth)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if _, err := c.Palette(); err != nil {
		return err
	}

	if c.Render.Columns != 0 && c.Render.Columns != glyphart.NarrowColumns && c.Render.Columns != glyphart.WideColumns {
		return fmt.Errorf("columns must be %d or %d", glyphart.NarrowColumns, glyphart.WideColumns)
	}

	if c.Render.ViewportWidth <= 0 {
		return errors.New("viewport width must be positive")
	}

	if _, err := glyphart.ParseFilter(c.Render.Filter); err != nil {
		return err
	}

	if _, err := utils.ParseThemeMethod(c.Export.Theme); err != nil {
		return err
	}

	if c.Export.FontNarrow == "" || c.Export.FontWide == "" {
		return errors.New("font sizes cannot be empty")
	}

	if _, err := language.Parse(c.Export.Lang); err != nil {
		return fmt.Errorf("invalid language tag %q: %w", c.Export.Lang, err)
	}

	if c.Export.OutputDir == "" {
		return errors.New("output dir cannot be empty")
	}

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return err
	}

	if c.CacheTTL < 0 {
		return errors.New("cache ttl cannot be negative")
	}

	return nil
}

// Theme builds the export theme without an accent.
func (c *Config) Theme() glyphart.Theme {
	t := glyphart.DefaultTheme()
	t.FontSizeNarrow = c.Export.FontNarrow
	t.FontSizeWide = c.Export.FontWide
	if tag, err := language.Parse(c.Export.Lang); err == nil {
		t.Lang = tag
	}
	return t
}

// Options builds pipeline options. Call Validate first.
func (c *Config) Options(logger logrus.FieldLogger) (glyphart.Options, error) {
	palette, err := c.Palette()
	if err != nil {
		return glyphart.Options{}, err
	}
	opt := glyphart.DefaultOptions()
	opt.Columns = c.Columns()
	opt.Palette = palette
	opt.Filter = c.Render.Filter
	opt.AutoOrient = c.Render.AutoOrient
	opt.CacheTTL = time.Duration(c.CacheTTL) * time.Second
	opt.Theme = c.Theme()
	opt.Logger = logger
	return opt, nil
}
