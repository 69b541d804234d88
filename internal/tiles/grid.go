// Package tiles resolves the tile grid of a viewport and retrieves tile images.
package tiles

import (
	"image"
	"math"

	"github.com/woozymasta/staticmap/internal/geo"
)

// Placement is a tile together with the canvas offset of its top-left corner.
type Placement struct {
	Tile   geo.TileCoord
	Offset geo.PixelPoint
}

// Point returns the offset as an integer canvas position.
func (p Placement) Point() image.Point {
	return image.Pt(int(math.Round(p.Offset.X)), int(math.Round(p.Offset.Y)))
}

// Resolve lists every tile intersecting the viewport, row by row.
// Tiles outside the world grid are dropped; longitude does not wrap.
func Resolve(v geo.Viewport) ([]Placement, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}

	origin, err := v.Origin()
	if err != nil {
		return nil, err
	}

	ts := float64(v.TileSize)
	if v.TileSize == 0 {
		ts = geo.DefaultTileSize
	}
	last := (1 << v.Zoom) - 1

	minX := int(math.Floor(origin.X / ts))
	minY := int(math.Floor(origin.Y / ts))
	maxX := int(math.Ceil((origin.X+float64(v.Width))/ts)) - 1
	maxY := int(math.Ceil((origin.Y+float64(v.Height))/ts)) - 1

	if maxX < 0 || maxY < 0 || minX > last || minY > last {
		return nil, nil
	}
	minX, minY = clampIndex(minX, last), clampIndex(minY, last)
	maxX, maxY = clampIndex(maxX, last), clampIndex(maxY, last)

	placements := make([]Placement, 0, (maxX-minX+1)*(maxY-minY+1))
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			placements = append(placements, Placement{
				Tile: geo.TileCoord{Z: v.Zoom, X: x, Y: y},
				Offset: geo.PixelPoint{
					X: float64(x)*ts - origin.X,
					Y: float64(y)*ts - origin.Y,
				},
			})
		}
	}

	return placements, nil
}

func clampIndex(i, last int) int {
	if i < 0 {
		return 0
	}
	if i > last {
		return last
	}

	return i
}
