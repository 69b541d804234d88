// Package render assembles tiles and overlays into a finished map image.
package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"time"

	"github.com/woozymasta/staticmap/internal/canvas"
	"github.com/woozymasta/staticmap/internal/geo"
	"github.com/woozymasta/staticmap/internal/raster"
	"github.com/woozymasta/staticmap/internal/tiles"

	"github.com/rs/zerolog/log"
)

// Options configure a map.
type Options struct {
	Center   geo.GeoPoint
	Zoom     int
	Width    int
	Height   int
	TileSize int
	// Padding is kept free around the drawables when Fit is set.
	Padding image.Point
	// Fit derives Center and Zoom from the drawables at render time.
	Fit bool
	// Concurrency bounds parallel tile fetches.
	Concurrency int
}

// Map owns the viewport options and the overlays of one static map.
// A Map must not be rendered from several goroutines at once; separate Maps
// share nothing and may render in parallel.
type Map struct {
	opts      Options
	source    tiles.Source
	drawables []Drawable
}

// Result is a finished render.
type Result struct {
	canvas.Buffer
	// Missing lists tiles that could not be fetched; their area is transparent.
	Missing []geo.TileCoord
	Zoom    int
	Center  geo.GeoPoint
}

// New validates opts and returns an empty map drawing tiles from src.
// A nil src renders overlays on a transparent background.
func New(opts Options, src tiles.Source) (*Map, error) {
	if opts.TileSize == 0 {
		opts.TileSize = geo.DefaultTileSize
	}
	if opts.TileSize < 0 {
		return nil, fmt.Errorf("%w: tile size %d", geo.ErrInvalidViewport, opts.TileSize)
	}
	if !opts.Fit {
		if err := geo.ValidateZoom(opts.Zoom); err != nil {
			return nil, err
		}
		if err := opts.Center.Validate(); err != nil {
			return nil, fmt.Errorf("center: %w", err)
		}
	}

	return &Map{opts: opts, source: src}, nil
}

// Add appends drawables; later ones paint over earlier ones.
func (m *Map) Add(d ...Drawable) {
	for _, item := range d {
		if item != nil {
			m.drawables = append(m.drawables, item)
		}
	}
}

// Drawables returns the overlays in paint order.
func (m *Map) Drawables() []Drawable {
	return append([]Drawable(nil), m.drawables...)
}

// Viewport returns the viewport the next render will use.
func (m *Map) Viewport() (geo.Viewport, error) {
	v := geo.Viewport{
		Center:   m.opts.Center,
		Zoom:     m.opts.Zoom,
		Width:    m.opts.Width,
		Height:   m.opts.Height,
		TileSize: m.opts.TileSize,
	}
	if v.Width <= 0 || v.Height <= 0 {
		return geo.Viewport{}, fmt.Errorf("%w: size %dx%d", geo.ErrInvalidViewport, v.Width, v.Height)
	}

	if m.opts.Fit {
		center, zoom, err := Fit(m.drawables, v.Width, v.Height, m.opts.Padding, v.TileSize)
		if err != nil && !errors.Is(err, errNothingToFit) {
			return geo.Viewport{}, err
		}
		if err == nil {
			v.Center, v.Zoom = center, zoom
		}
	}

	return v, v.Validate()
}

// Render runs the pipeline: resolve tiles, fetch them in parallel, blit them
// in grid order, then draw the overlays in insertion order.
// Tiles that fail to load are reported in Result.Missing and do not fail the render.
func (m *Map) Render(ctx context.Context) (*Result, error) {
	start := time.Now()

	v, err := m.Viewport()
	if err != nil {
		return nil, err
	}

	placements, err := tiles.Resolve(v)
	if err != nil {
		return nil, err
	}

	c, err := canvas.New(v.Width, v.Height)
	if err != nil {
		return nil, err
	}

	var missing []geo.TileCoord
	if m.source != nil {
		fetched := tiles.FetchAll(ctx, tiles.NewMemo(m.source), placements, m.opts.Concurrency)
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		proj := v.Projection()
		for _, f := range fetched {
			if f.Err != nil {
				ev := log.Debug().
					Err(f.Err).
					Str("tile", f.Placement.Tile.String())
				if b, err := proj.TileBound(f.Placement.Tile); err == nil {
					ev = ev.Floats64("bound", []float64{b.Min[0], b.Min[1], b.Max[0], b.Max[1]})
				}
				ev.Msg("Tile unavailable, leaving area blank")
				missing = append(missing, f.Placement.Tile)
				continue
			}
			c.Blit(f.Image, f.Placement.Point())
		}
	}

	project, err := v.Projector()
	if err != nil {
		return nil, err
	}
	for i, d := range m.drawables {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := draw(c, project, d); err != nil {
			return nil, fmt.Errorf("drawable %d: %w", i, err)
		}
	}

	log.Debug().
		Int("zoom", v.Zoom).
		Str("center", v.Center.String()).
		Int("tiles", len(placements)).
		Int("missing", len(missing)).
		Int("drawables", len(m.drawables)).
		Dur("duration", time.Since(start)).
		Msg("Map rendered")

	return &Result{
		Buffer:  c.IntoBuffer(),
		Missing: missing,
		Zoom:    v.Zoom,
		Center:  v.Center,
	}, nil
}

// draw is the only place that dispatches on the drawable kind.
func draw(c *canvas.Canvas, project func(geo.GeoPoint) (geo.PixelPoint, error), d Drawable) error {
	switch d := d.(type) {
	case *Line:
		pts := make([]geo.PixelPoint, len(d.points))
		for i, p := range d.points {
			px, err := project(p)
			if err != nil {
				return err
			}
			pts[i] = px
		}
		raster.Line(c, raster.Simplify(pts, d.simplify), d.width, d.color)

	case *Circle:
		px, err := project(d.center)
		if err != nil {
			return err
		}
		raster.Circle(c, px, d.radius, d.color, d.filled, d.strokeWidth)

	case *Icon:
		px, err := project(d.anchor)
		if err != nil {
			return err
		}
		topLeft := image.Pt(int(math.Round(px.X))-d.offset.X, int(math.Round(px.Y))-d.offset.Y)
		raster.Icon(c, d.img, topLeft)

	default:
		return fmt.Errorf("unsupported drawable %T", d)
	}

	return nil
}
