// Package overlay turns configured overlays and GeoJSON features into drawables.
package overlay

import (
	"fmt"
	"image"
	"image/color"
	"path/filepath"

	"github.com/woozymasta/staticmap/internal/config"
	"github.com/woozymasta/staticmap/internal/geo"
	"github.com/woozymasta/staticmap/internal/icon"
	"github.com/woozymasta/staticmap/internal/render"

	"github.com/rs/zerolog/log"
)

// Build returns every overlay of cfg in paint order: lines, rects, circles,
// GeoJSON features, then icons. Relative file paths resolve against baseDir.
func Build(cfg *config.Config, baseDir string) ([]render.Drawable, error) {
	var out []render.Drawable

	for i, l := range cfg.Lines {
		d, err := render.NewLine(l.Points, l.Width, colorOf(l.Color), l.Simplify)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i, err)
		}
		out = append(out, d)
	}

	for i, r := range cfg.Rects {
		d, err := render.NewRect(r.North, r.South, r.East, r.West, r.Width, colorOf(r.Color))
		if err != nil {
			return nil, fmt.Errorf("rect %d: %w", i, err)
		}
		out = append(out, d)
	}

	for i, c := range cfg.Circles {
		d, err := render.NewCircle(c.Center, c.Radius, colorOf(c.Color), c.Filled, c.StrokeWidth)
		if err != nil {
			return nil, fmt.Errorf("circle %d: %w", i, err)
		}
		out = append(out, d)
	}

	for i, g := range cfg.GeoJSON {
		fc, err := LoadGeoJSON(g, baseDir)
		if err != nil {
			return nil, fmt.Errorf("geojson %d: %w", i, err)
		}
		ds, err := Features(fc, g.Style, baseDir)
		if err != nil {
			return nil, fmt.Errorf("geojson %d: %w", i, err)
		}
		out = append(out, ds...)
	}

	for i, ic := range cfg.Icons {
		d, err := Icon(ic.Anchor, resolve(baseDir, ic.Path), image.Pt(ic.Offset[0], ic.Offset[1]), ic.Width, ic.Height)
		if err != nil {
			return nil, fmt.Errorf("icon %d: %w", i, err)
		}
		out = append(out, d)
	}

	log.Debug().
		Int("lines", len(cfg.Lines)).
		Int("rects", len(cfg.Rects)).
		Int("circles", len(cfg.Circles)).
		Int("geojson", len(cfg.GeoJSON)).
		Int("icons", len(cfg.Icons)).
		Int("drawables", len(out)).
		Msg("Overlays built")

	return out, nil
}

// Icon loads an image file, scales it when width or height is set and pins it to anchor.
func Icon(anchor geo.GeoPoint, path string, offset image.Point, width, height int) (*render.Icon, error) {
	img, err := icon.Load(path)
	if err != nil {
		return nil, err
	}
	if width > 0 || height > 0 {
		img = icon.Resize(img, width, height)
	}

	return render.NewIcon(anchor, img, offset)
}

func colorOf(c *config.Color) color.NRGBA {
	if c == nil {
		return config.DefaultColor.NRGBA()
	}
	return c.NRGBA()
}

func resolve(baseDir, path string) string {
	if path == "" || filepath.IsAbs(path) || baseDir == "" {
		return path
	}
	return filepath.Join(baseDir, path)
}
