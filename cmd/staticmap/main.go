package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/woozymasta/staticmap/internal/config"
	"github.com/woozymasta/staticmap/internal/logger"
	"github.com/woozymasta/staticmap/internal/output"
	"github.com/woozymasta/staticmap/internal/overlay"
	"github.com/woozymasta/staticmap/internal/render"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string `short:"c" long:"config"  env:"CONFIG_FILE" description:"Path to configuration file" default:"config.yaml"`
	Output     string `short:"o" long:"output"  env:"OUTPUT_FILE" description:"Output file, overrides output.path"`
	Format     string `short:"f" long:"format"  env:"OUTPUT_FORMAT" description:"Output format (png, jpeg, webp), overrides output.format"`
	Quality    int    `short:"q" long:"quality" env:"OUTPUT_QUALITY" description:"JPEG/WebP quality 1-100, overrides output.quality"`
	TileURL    string `short:"u" long:"tile-url" env:"TILE_URL" description:"Tile URL template, overrides tiles.url"`
	TileDir    string `short:"d" long:"tile-dir" env:"TILE_DIR" description:"Local z/x/y tile directory, overrides tiles.dir"`
	Strict     bool   `short:"s" long:"strict"  description:"Fail when any tile could not be fetched"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	opts.Logger.Setup()

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	applyOverrides(cfg, opts)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	if cfg.Output.Path == "" {
		log.Fatal().Msg("No output path: set output.path or --output")
	}

	format, err := cfg.Output.Encoding()
	if err != nil {
		log.Fatal().Err(err).Msg("Unknown output format")
	}

	drawables, err := overlay.Build(cfg, filepath.Dir(opts.ConfigFile))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build overlays")
	}

	opt := render.Options{
		Zoom:        cfg.Map.Zoom,
		Width:       cfg.Map.Width,
		Height:      cfg.Map.Height,
		TileSize:    cfg.Map.TileSize,
		Padding:     cfg.Map.PaddingPoint(),
		Fit:         cfg.Map.Fit,
		Concurrency: cfg.Tiles.Concurrency,
	}
	if cfg.Map.Center != nil {
		opt.Center = *cfg.Map.Center
	}

	src := cfg.Tiles.Source()
	if src == nil {
		log.Warn().Msg("No tile source configured, rendering overlays on a transparent background")
	}

	m, err := render.New(opt, src)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid map options")
	}
	m.Add(drawables...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := m.Render(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Render failed")
	}

	if len(res.Missing) > 0 {
		ev := log.Warn()
		if opts.Strict {
			ev = log.Fatal()
		}
		ev.Int("missing_tiles", len(res.Missing)).
			Str("first", res.Missing[0].String()).
			Msg("Some tiles could not be fetched")
	}

	if err := output.WriteFile(cfg.Output.Path, res.Image(), format, cfg.Output.Quality); err != nil {
		log.Fatal().Err(err).Msg("Failed to write output")
	}

	log.Info().
		Str("path", cfg.Output.Path).
		Str("format", string(format)).
		Int("width", res.Width).
		Int("height", res.Height).
		Int("zoom", res.Zoom).
		Str("center", res.Center.String()).
		Int("drawables", len(drawables)).
		Msg("Map written")
}

func applyOverrides(cfg *config.Config, opts Options) {
	if opts.Output != "" {
		cfg.Output.Path = opts.Output
	}
	if opts.Format != "" {
		cfg.Output.Format = opts.Format
	}
	if opts.Quality > 0 {
		cfg.Output.Quality = opts.Quality
	}
	if opts.TileURL != "" {
		cfg.Tiles.URL, cfg.Tiles.Dir = opts.TileURL, ""
	}
	if opts.TileDir != "" {
		cfg.Tiles.Dir, cfg.Tiles.URL = opts.TileDir, ""
	}
}
