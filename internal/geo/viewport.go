package geo

import (
	"fmt"
	"math"
)

// Viewport describes the visible part of the map: a center, a zoom level and
// the output size in pixels.
type Viewport struct {
	Center   GeoPoint
	Zoom     int
	Width    int
	Height   int
	TileSize int
}

// Validate checks zoom, size and center.
func (v Viewport) Validate() error {
	if err := ValidateZoom(v.Zoom); err != nil {
		return err
	}
	if v.Width <= 0 || v.Height <= 0 {
		return fmt.Errorf("%w: size %dx%d", ErrInvalidViewport, v.Width, v.Height)
	}
	if v.TileSize < 0 {
		return fmt.Errorf("%w: tile size %d", ErrInvalidViewport, v.TileSize)
	}

	return v.Center.Validate()
}

// Projection returns the projection matching the viewport tile size.
func (v Viewport) Projection() Projection {
	return Projection{TileSize: v.TileSize}
}

// Origin returns the world pixel of canvas pixel (0, 0).
// It is snapped to whole pixels so tiles land on integral offsets.
func (v Viewport) Origin() (PixelPoint, error) {
	c, err := v.Projection().GeoToWorldPixel(v.Center, v.Zoom)
	if err != nil {
		return PixelPoint{}, err
	}

	return PixelPoint{
		X: math.Floor(c.X - float64(v.Width)/2),
		Y: math.Floor(c.Y - float64(v.Height)/2),
	}, nil
}

// Project converts a geographic point into canvas pixel space.
func (v Viewport) Project(p GeoPoint) (PixelPoint, error) {
	origin, err := v.Origin()
	if err != nil {
		return PixelPoint{}, err
	}
	w, err := v.Projection().GeoToWorldPixel(p, v.Zoom)
	if err != nil {
		return PixelPoint{}, err
	}

	return w.Sub(origin), nil
}

// Projector returns a function projecting into canvas space with the origin
// computed once.
func (v Viewport) Projector() (func(GeoPoint) (PixelPoint, error), error) {
	origin, err := v.Origin()
	if err != nil {
		return nil, err
	}
	proj := v.Projection()

	return func(p GeoPoint) (PixelPoint, error) {
		w, err := proj.GeoToWorldPixel(p, v.Zoom)
		if err != nil {
			return PixelPoint{}, err
		}
		return w.Sub(origin), nil
	}, nil
}
