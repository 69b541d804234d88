package geo

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// DefaultTileSize is the tile edge used when a Projection has none set.
const DefaultTileSize = 256

// Projection converts between geographic, world pixel and tile coordinates
// using the spherical Web Mercator projection.
type Projection struct {
	TileSize int
}

func (p Projection) tileSize() float64 {
	if p.TileSize <= 0 {
		return DefaultTileSize
	}

	return float64(p.TileSize)
}

// WorldSize returns the edge of the world in pixels at the given zoom.
func (p Projection) WorldSize(zoom int) float64 {
	return p.tileSize() * math.Exp2(float64(zoom))
}

// GeoToWorldPixel projects pt into world pixels.
//
// Longitude maps linearly to x; latitude goes through the inverse
// Gudermannian, asinh(tan(lat)).
func (p Projection) GeoToWorldPixel(pt GeoPoint, zoom int) (PixelPoint, error) {
	if err := ValidateZoom(zoom); err != nil {
		return PixelPoint{}, err
	}
	if err := pt.Validate(); err != nil {
		return PixelPoint{}, err
	}

	size := p.WorldSize(zoom)
	latRad := pt.Lat * math.Pi / 180.0

	x := (pt.Lon + 180.0) / 360.0 * size
	y := (1.0 - math.Asinh(math.Tan(latRad))/math.Pi) / 2.0 * size

	return PixelPoint{X: x, Y: y}, nil
}

// WorldPixelToGeo is the inverse of GeoToWorldPixel.
func (p Projection) WorldPixelToGeo(px PixelPoint, zoom int) (GeoPoint, error) {
	if err := ValidateZoom(zoom); err != nil {
		return GeoPoint{}, err
	}

	size := p.WorldSize(zoom)
	if !inWorld(px.X, size) || !inWorld(px.Y, size) {
		return GeoPoint{}, fmt.Errorf("%w: world pixel (%v, %v) outside [0, %v]", ErrInvalidCoordinate, px.X, px.Y, size)
	}

	lon := px.X/size*360.0 - 180.0
	latRad := math.Atan(math.Sinh(math.Pi * (1 - 2*px.Y/size)))

	return GeoPoint{Lon: lon, Lat: latRad * 180.0 / math.Pi}, nil
}

// WorldPixelToTile splits a world pixel into its tile and the offset inside it.
// The local offset is always in [0, TileSize); points on the far world edge
// belong to the last tile.
func (p Projection) WorldPixelToTile(px PixelPoint, zoom int) (TileCoord, PixelPoint, error) {
	if err := ValidateZoom(zoom); err != nil {
		return TileCoord{}, PixelPoint{}, err
	}

	size := p.WorldSize(zoom)
	if !inWorld(px.X, size) || !inWorld(px.Y, size) {
		return TileCoord{}, PixelPoint{}, fmt.Errorf("%w: world pixel (%v, %v) outside [0, %v]", ErrInvalidCoordinate, px.X, px.Y, size)
	}

	ts := p.tileSize()
	last := (1 << zoom) - 1

	tx, lx := splitAxis(px.X, ts, last)
	ty, ly := splitAxis(px.Y, ts, last)

	return TileCoord{Z: zoom, X: tx, Y: ty}, PixelPoint{X: lx, Y: ly}, nil
}

// TileToWorldPixel returns the world pixel of a position inside a tile.
func (p Projection) TileToWorldPixel(c TileCoord, local PixelPoint) (PixelPoint, error) {
	if err := ValidateZoom(c.Z); err != nil {
		return PixelPoint{}, err
	}
	if !c.Valid() {
		return PixelPoint{}, fmt.Errorf("%w: tile %s outside grid", ErrInvalidCoordinate, c)
	}

	ts := p.tileSize()

	return PixelPoint{X: float64(c.X)*ts + local.X, Y: float64(c.Y)*ts + local.Y}, nil
}

// GeoToTile projects pt straight to a tile and the offset inside it.
func (p Projection) GeoToTile(pt GeoPoint, zoom int) (TileCoord, PixelPoint, error) {
	px, err := p.GeoToWorldPixel(pt, zoom)
	if err != nil {
		return TileCoord{}, PixelPoint{}, err
	}

	return p.WorldPixelToTile(px, zoom)
}

// TileToGeo is the inverse of GeoToTile.
func (p Projection) TileToGeo(c TileCoord, local PixelPoint) (GeoPoint, error) {
	px, err := p.TileToWorldPixel(c, local)
	if err != nil {
		return GeoPoint{}, err
	}

	return p.WorldPixelToGeo(px, c.Z)
}

// TileBound returns the geographic extent of a tile.
func (p Projection) TileBound(c TileCoord) (orb.Bound, error) {
	ts := p.tileSize()

	nw, err := p.TileToGeo(c, PixelPoint{})
	if err != nil {
		return orb.Bound{}, err
	}
	se, err := p.TileToGeo(c, PixelPoint{X: ts, Y: ts})
	if err != nil {
		return orb.Bound{}, err
	}

	return orb.Bound{
		Min: orb.Point{nw.Lon, se.Lat},
		Max: orb.Point{se.Lon, nw.Lat},
	}, nil
}

func inWorld(v, size float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= size
}

func splitAxis(v, tileSize float64, last int) (int, float64) {
	idx := int(math.Floor(v / tileSize))
	if idx > last {
		idx = last
	}
	local := v - float64(idx)*tileSize
	if local >= tileSize {
		local = math.Nextafter(tileSize, 0)
	}

	return idx, local
}
