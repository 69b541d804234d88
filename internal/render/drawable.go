package render

import (
	"fmt"
	"image"
	"image/color"

	"github.com/woozymasta/staticmap/internal/geo"

	"github.com/paulmach/orb"
)

// Drawable is an overlay painted on top of the tiles: *Line, *Circle or *Icon.
type Drawable interface {
	// Bound is the geographic extent of the anchor points.
	Bound() orb.Bound
	drawable()
}

// Line is a polyline stroked with a fixed pixel width.
type Line struct {
	points   []geo.GeoPoint
	width    float64
	color    color.NRGBA
	simplify float64
}

// NewLine validates points and returns a line. Simplify is the minimum pixel
// distance between kept vertices; zero disables simplification.
func NewLine(points []geo.GeoPoint, width float64, c color.NRGBA, simplify float64) (*Line, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: line without points", geo.ErrInvalidCoordinate)
	}
	if err := validatePoints(points); err != nil {
		return nil, err
	}
	if width <= 0 {
		width = 1
	}

	return &Line{
		points:   append([]geo.GeoPoint(nil), points...),
		width:    width,
		color:    c,
		simplify: simplify,
	}, nil
}

// NewRect returns the outline of the box between two parallels and two
// meridians as a closed line.
func NewRect(north, south, east, west, width float64, c color.NRGBA) (*Line, error) {
	if north < south {
		return nil, fmt.Errorf("%w: rect north %v below south %v", geo.ErrInvalidCoordinate, north, south)
	}
	if east < west {
		return nil, fmt.Errorf("%w: rect east %v before west %v", geo.ErrInvalidCoordinate, east, west)
	}

	return NewLine([]geo.GeoPoint{
		{Lon: west, Lat: north},
		{Lon: east, Lat: north},
		{Lon: east, Lat: south},
		{Lon: west, Lat: south},
		{Lon: west, Lat: north},
	}, width, c, 0)
}

// Points returns a copy of the vertices.
func (l *Line) Points() []geo.GeoPoint {
	return append([]geo.GeoPoint(nil), l.points...)
}

// Width returns the stroke width in pixels.
func (l *Line) Width() float64 { return l.width }

// Color returns the stroke color.
func (l *Line) Color() color.NRGBA { return l.color }

// Bound implements Drawable.
func (l *Line) Bound() orb.Bound {
	return pointsBound(l.points)
}

func (*Line) drawable() {}

// Circle is a disk or ring of a fixed pixel radius around a geographic center.
type Circle struct {
	center      geo.GeoPoint
	radius      float64
	color       color.NRGBA
	filled      bool
	strokeWidth float64
}

// NewCircle validates center and returns a circle. Outline circles with a
// non-positive stroke width are drawn 1 px wide.
func NewCircle(center geo.GeoPoint, radius float64, c color.NRGBA, filled bool, strokeWidth float64) (*Circle, error) {
	if err := center.Validate(); err != nil {
		return nil, err
	}
	if !filled && strokeWidth <= 0 {
		strokeWidth = 1
	}

	return &Circle{center: center, radius: radius, color: c, filled: filled, strokeWidth: strokeWidth}, nil
}

// Center returns the circle center.
func (c *Circle) Center() geo.GeoPoint { return c.center }

// Radius returns the radius in pixels.
func (c *Circle) Radius() float64 { return c.radius }

// Bound implements Drawable.
func (c *Circle) Bound() orb.Bound {
	return pointsBound([]geo.GeoPoint{c.center})
}

func (*Circle) drawable() {}

// Icon is a pre-rendered image pinned to a geographic anchor.
// Offset is the pixel inside the image that sits on the anchor.
type Icon struct {
	anchor geo.GeoPoint
	img    image.Image
	offset image.Point
}

// NewIcon validates anchor and returns an icon. Decode the image first with
// the icon package so decode failures surface before the map is built.
func NewIcon(anchor geo.GeoPoint, img image.Image, offset image.Point) (*Icon, error) {
	if err := anchor.Validate(); err != nil {
		return nil, err
	}
	if img == nil {
		return nil, fmt.Errorf("icon at %s has no image", anchor)
	}

	return &Icon{anchor: anchor, img: img, offset: offset}, nil
}

// Anchor returns the geographic anchor.
func (i *Icon) Anchor() geo.GeoPoint { return i.anchor }

// Bound implements Drawable.
func (i *Icon) Bound() orb.Bound {
	return pointsBound([]geo.GeoPoint{i.anchor})
}

func (*Icon) drawable() {}

func validatePoints(points []geo.GeoPoint) error {
	for i, p := range points {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("point %d: %w", i, err)
		}
	}

	return nil
}

func pointsBound(points []geo.GeoPoint) orb.Bound {
	mp := make(orb.MultiPoint, len(points))
	for i, p := range points {
		mp[i] = orb.Point{p.Lon, p.Lat}
	}

	return mp.Bound()
}
