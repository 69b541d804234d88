// Package geo handles geographic coordinates and the Web Mercator tile projection.
package geo

import (
	"errors"
	"fmt"
	"math"
)

// MaxLatitude is the latitude at which the square Web Mercator world ends
// (arctan(sinh(π)) in degrees). Valid latitudes are strictly inside ±MaxLatitude.
const MaxLatitude = 85.05112878

// Supported zoom range of the tile grid.
const (
	MinZoom = 0
	MaxZoom = 20
)

var (
	// ErrInvalidCoordinate is returned for geographic or pixel input outside the projectable range.
	ErrInvalidCoordinate = errors.New("invalid coordinate")
	// ErrInvalidZoom is returned for zoom levels outside [MinZoom, MaxZoom].
	ErrInvalidZoom = errors.New("invalid zoom")
	// ErrInvalidViewport is returned for non-positive output dimensions.
	ErrInvalidViewport = errors.New("invalid viewport")
)

// GeoPoint is a WGS84 position in degrees.
type GeoPoint struct {
	Lon float64 `yaml:"lon" json:"lon"`
	Lat float64 `yaml:"lat" json:"lat"`
}

// NewGeoPoint returns a validated point. Out-of-range values are an error, never clamped.
func NewGeoPoint(lon, lat float64) (GeoPoint, error) {
	p := GeoPoint{Lon: lon, Lat: lat}
	if err := p.Validate(); err != nil {
		return GeoPoint{}, err
	}

	return p, nil
}

// Validate reports whether p can be projected.
func (p GeoPoint) Validate() error {
	if math.IsNaN(p.Lon) || math.IsNaN(p.Lat) || math.IsInf(p.Lon, 0) || math.IsInf(p.Lat, 0) {
		return fmt.Errorf("%w: non-finite point (%v, %v)", ErrInvalidCoordinate, p.Lon, p.Lat)
	}
	if p.Lon < -180 || p.Lon > 180 {
		return fmt.Errorf("%w: longitude %v out of [-180, 180]", ErrInvalidCoordinate, p.Lon)
	}
	if p.Lat <= -MaxLatitude || p.Lat >= MaxLatitude {
		return fmt.Errorf("%w: latitude %v out of (-%v, %v)", ErrInvalidCoordinate, p.Lat, MaxLatitude, MaxLatitude)
	}

	return nil
}

// String formats the point as "lon,lat".
func (p GeoPoint) String() string {
	return fmt.Sprintf("%g,%g", p.Lon, p.Lat)
}

// PixelPoint is a position in world or canvas pixel space.
type PixelPoint struct {
	X, Y float64
}

// Sub returns p - o.
func (p PixelPoint) Sub(o PixelPoint) PixelPoint {
	return PixelPoint{X: p.X - o.X, Y: p.Y - o.Y}
}

// TileCoord represents a specific tile.
type TileCoord struct {
	Z, X, Y int
}

// Valid reports whether the tile index lies inside the grid of its zoom level.
func (c TileCoord) Valid() bool {
	if c.Z < MinZoom || c.Z > MaxZoom {
		return false
	}
	n := 1 << c.Z

	return c.X >= 0 && c.X < n && c.Y >= 0 && c.Y < n
}

// Less orders tiles by zoom, then row, then column.
func (c TileCoord) Less(o TileCoord) bool {
	if c.Z != o.Z {
		return c.Z < o.Z
	}
	if c.Y != o.Y {
		return c.Y < o.Y
	}

	return c.X < o.X
}

// String formats the tile as "z/x/y".
func (c TileCoord) String() string {
	return fmt.Sprintf("%d/%d/%d", c.Z, c.X, c.Y)
}

// ValidateZoom checks zoom against the supported range.
func ValidateZoom(zoom int) error {
	if zoom < MinZoom || zoom > MaxZoom {
		return fmt.Errorf("%w: %d out of [%d, %d]", ErrInvalidZoom, zoom, MinZoom, MaxZoom)
	}

	return nil
}
