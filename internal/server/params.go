package server

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"net/url"
	"strconv"
	"strings"

	"github.com/woozymasta/staticmap/internal/config"
	"github.com/woozymasta/staticmap/internal/geo"
	"github.com/woozymasta/staticmap/internal/output"
	"github.com/woozymasta/staticmap/internal/render"
)

// Request limits.
const (
	MaxImageSize = 2048
	MaxOverlays  = 256
)

var errBadRequest = errors.New("bad request")

var defaultColor = color.NRGBA{A: 0xff}

// renderRequest is a parsed /render query.
type renderRequest struct {
	opts      render.Options
	drawables []render.Drawable
	format    output.Format
	quality   int
}

// parseRenderQuery reads center, zoom, size, padding, format, quality and the
// repeatable path and circle parameters. Missing values come from defaults.
func parseRenderQuery(q url.Values, defaults config.Map, quality int) (*renderRequest, error) {
	req := &renderRequest{
		opts: render.Options{
			Zoom:     defaults.Zoom,
			Width:    defaults.Width,
			Height:   defaults.Height,
			TileSize: defaults.TileSize,
			Padding:  defaults.PaddingPoint(),
		},
		quality: quality,
	}

	switch s := q.Get("center"); {
	case s != "":
		p, err := parsePoint(s)
		if err != nil {
			return nil, fmt.Errorf("center: %w", err)
		}
		req.opts.Center = p
	case defaults.Center != nil && (!defaults.Fit || q.Has("zoom")):
		req.opts.Center = *defaults.Center
	default:
		// no center known: derive it and the zoom from the overlays
		req.opts.Fit = true
	}

	if s := q.Get("zoom"); s != "" {
		z, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("%w: zoom %q", errBadRequest, s)
		}
		req.opts.Zoom = z
	}

	if s := q.Get("size"); s != "" {
		w, h, err := parsePair(s, "x")
		if err != nil {
			return nil, fmt.Errorf("size: %w", err)
		}
		req.opts.Width, req.opts.Height = w, h
	}
	if req.opts.Width > MaxImageSize || req.opts.Height > MaxImageSize {
		return nil, fmt.Errorf("%w: size %dx%d exceeds %d", errBadRequest, req.opts.Width, req.opts.Height, MaxImageSize)
	}

	if s := q.Get("padding"); s != "" {
		x, y, err := parsePair(s, ",")
		if err != nil {
			return nil, fmt.Errorf("padding: %w", err)
		}
		req.opts.Padding = image.Pt(x, y)
	}
	if p := req.opts.Padding; p.X < 0 || p.Y < 0 || 2*p.X >= req.opts.Width || 2*p.Y >= req.opts.Height {
		return nil, fmt.Errorf("%w: padding %d,%d does not fit %dx%d", errBadRequest, p.X, p.Y, req.opts.Width, req.opts.Height)
	}

	f, err := output.ParseFormat(q.Get("format"))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errBadRequest, err)
	}
	req.format = f

	if s := q.Get("quality"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 || v > 100 {
			return nil, fmt.Errorf("%w: quality %q", errBadRequest, s)
		}
		req.quality = v
	}

	paths, circles := q["path"], q["circle"]
	if len(paths)+len(circles) > MaxOverlays {
		return nil, fmt.Errorf("%w: more than %d overlays", errBadRequest, MaxOverlays)
	}
	for i, s := range paths {
		d, err := parsePath(s)
		if err != nil {
			return nil, fmt.Errorf("path %d: %w", i, err)
		}
		req.drawables = append(req.drawables, d)
	}
	for i, s := range circles {
		d, err := parseCircle(s)
		if err != nil {
			return nil, fmt.Errorf("circle %d: %w", i, err)
		}
		req.drawables = append(req.drawables, d)
	}

	return req, nil
}

// parsePath reads "color:red|width:3|simplify:2|lon,lat|lon,lat...".
func parsePath(s string) (*render.Line, error) {
	var (
		pts      []geo.GeoPoint
		c        = defaultColor
		width    = 2.0
		simplify float64
		err      error
	)

	for _, part := range strings.Split(s, "|") {
		key, value, isOpt := strings.Cut(part, ":")
		if !isOpt {
			p, err := parsePoint(part)
			if err != nil {
				return nil, err
			}
			pts = append(pts, p)
			continue
		}

		switch key {
		case "color":
			if c, err = config.ParseColor(value); err != nil {
				return nil, fmt.Errorf("%w: %w", errBadRequest, err)
			}
		case "width":
			if width, err = parseSize(key, value); err != nil {
				return nil, err
			}
		case "simplify":
			if simplify, err = parseFloat(key, value); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("%w: unknown option %q", errBadRequest, key)
		}
	}

	return render.NewLine(pts, width, c, simplify)
}

// parseCircle reads "color:blue|radius:8|width:2|filled|lon,lat".
func parseCircle(s string) (*render.Circle, error) {
	var (
		center      *geo.GeoPoint
		c           = defaultColor
		radius      = 6.0
		strokeWidth float64
		filled      bool
		err         error
	)

	for _, part := range strings.Split(s, "|") {
		if part == "filled" {
			filled = true
			continue
		}

		key, value, isOpt := strings.Cut(part, ":")
		if !isOpt {
			if center != nil {
				return nil, fmt.Errorf("%w: circle takes one point", errBadRequest)
			}
			p, err := parsePoint(part)
			if err != nil {
				return nil, err
			}
			center = &p
			continue
		}

		switch key {
		case "color":
			if c, err = config.ParseColor(value); err != nil {
				return nil, fmt.Errorf("%w: %w", errBadRequest, err)
			}
		case "radius":
			if radius, err = parseSize(key, value); err != nil {
				return nil, err
			}
		case "width":
			if strokeWidth, err = parseSize(key, value); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("%w: unknown option %q", errBadRequest, key)
		}
	}
	if center == nil {
		return nil, fmt.Errorf("%w: circle without center", geo.ErrInvalidCoordinate)
	}

	return render.NewCircle(*center, radius, c, filled, strokeWidth)
}

// parsePoint reads "lon,lat".
func parsePoint(s string) (geo.GeoPoint, error) {
	lonS, latS, ok := strings.Cut(s, ",")
	if !ok {
		return geo.GeoPoint{}, fmt.Errorf("%w: %q is not lon,lat", geo.ErrInvalidCoordinate, s)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonS), 64)
	if err != nil {
		return geo.GeoPoint{}, fmt.Errorf("%w: longitude %q", geo.ErrInvalidCoordinate, lonS)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latS), 64)
	if err != nil {
		return geo.GeoPoint{}, fmt.Errorf("%w: latitude %q", geo.ErrInvalidCoordinate, latS)
	}

	return geo.NewGeoPoint(lon, lat)
}

func parsePair(s, sep string) (int, int, error) {
	a, b, ok := strings.Cut(s, sep)
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", errBadRequest, s)
	}
	x, errX := strconv.Atoi(a)
	y, errY := strconv.Atoi(b)
	if errX != nil || errY != nil {
		return 0, 0, fmt.Errorf("%w: %q", errBadRequest, s)
	}

	return x, y, nil
}

func parseFloat(key, value string) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", errBadRequest, key, value)
	}
	return v, nil
}

// parseSize reads a pixel length no larger than MaxImageSize.
func parseSize(key, value string) (float64, error) {
	v, err := parseFloat(key, value)
	if err != nil {
		return 0, err
	}
	if v > MaxImageSize {
		return 0, fmt.Errorf("%w: %s %v exceeds %d", errBadRequest, key, v, MaxImageSize)
	}
	return v, nil
}
