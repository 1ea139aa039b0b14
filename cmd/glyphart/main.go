// Command glyphart converts images into colored glyph art and exports each
// one as a standalone HTML document.
//
// Usage:
//
//	glyphart [flags] image...
//
// With no arguments, image paths are read from stdin, one per line.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/muesli/termenv"
	"github.com/sirupsen/logrus"

	"github.com/setanarut/glyphart"
	"github.com/setanarut/glyphart/config"
	"github.com/setanarut/glyphart/utils"
)

type cliFlags struct {
	preview  bool
	text     bool
	stats    bool
	swatch   string
	dumpGrid string
}

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	var cli cliFlags
	fs := flag.NewFlagSet("glyphart", flag.ExitOnError)
	cfg.RegisterFlags(fs)
	fs.BoolVar(&cli.preview, "preview", false, "print the art to the terminal in color")
	fs.BoolVar(&cli.text, "text", false, "print the art to the terminal without color")
	fs.BoolVar(&cli.stats, "stats", false, "print luminance statistics")
	fs.StringVar(&cli.swatch, "swatch", "", "save the accent candidates as a PNG swatch")
	fs.StringVar(&cli.dumpGrid, "dump-grid", "", "save the sampled grid as a PNG")
	fs.Parse(os.Args[1:])

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(2)
	}

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	level, _ := logrus.ParseLevel(cfg.LogLevel)
	log.SetLevel(level)

	opt, err := cfg.Options(log)
	if err != nil {
		log.WithError(err).Fatal("building options")
	}
	pipeline, err := glyphart.NewPipeline(opt)
	if err != nil {
		log.WithError(err).Fatal("creating pipeline")
	}
	method, _ := utils.ParseThemeMethod(cfg.Export.Theme)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	paths := fs.Args()
	if len(paths) == 0 {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			if p := strings.TrimSpace(scanner.Text()); p != "" {
				paths = append(paths, p)
			}
		}
	}
	if len(paths) == 0 {
		fs.Usage()
		os.Exit(2)
	}

	failed := 0
	for _, path := range paths {
		outDir := cfg.Export.OutputDir
		if len(paths) > 1 {
			outDir = filepath.Join(outDir, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
		}
		if err := convert(ctx, pipeline, cfg, method, cli, path, outDir, log); err != nil {
			log.WithError(err).WithField("file", path).Error("conversion failed")
			failed++
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func convert(
	ctx context.Context,
	pipeline *glyphart.Pipeline,
	cfg *config.Config,
	method utils.ThemeMethod,
	cli cliFlags,
	path, outDir string,
	log logrus.FieldLogger,
) error {
	res, err := pipeline.Convert(ctx, glyphart.FileSource(path))
	if err != nil {
		return err
	}

	theme := cfg.Theme()
	if method != utils.ThemeMethodNone && !res.Art.Empty() {
		grid := res.Art.Image()
		if accent, ok := utils.ExtractAccent(grid, method, log); ok {
			theme = theme.WithAccent(accent)
			log.WithFields(logrus.Fields{"method": method, "accent": accent.Hex()}).Debug("accent picked")
		}
		if cli.swatch != "" {
			if err := utils.SaveSwatch(utils.Candidates(grid, method), 64, cli.swatch); err != nil {
				log.WithError(err).Warn("saving swatch")
			}
		}
	}
	pipeline.SetTheme(theme)

	if cli.dumpGrid != "" && !res.Art.Empty() {
		if err := utils.SaveImage(res.Art.Image(), cli.dumpGrid); err != nil {
			log.WithError(err).Warn("saving grid")
		}
	}

	switch {
	case cli.preview:
		r := glyphart.ANSIRenderer{Profile: termenv.EnvColorProfile()}
		if err := r.Render(os.Stdout, res.Art); err != nil {
			return err
		}
	case cli.text:
		if err := (glyphart.TextRenderer{}).Render(os.Stdout, res.Art); err != nil {
			return err
		}
	}

	if cli.stats {
		s := res.Art.Stats()
		fmt.Printf("%s: %dx%d cells, mean luminance %.1f, stddev %.1f\n",
			filepath.Base(path), res.Art.Columns, res.Art.Rows, s.MeanLuminance, s.StdDevLuminance)
	}

	if err := pipeline.Export(cfg.Render.ViewportWidth, glyphart.DirSink(outDir)); err != nil {
		return err
	}
	return nil
}
