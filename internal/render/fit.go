package render

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/woozymasta/staticmap/internal/geo"

	"github.com/paulmach/orb"
)

// MaxFitZoom is the highest zoom chosen when fitting drawables.
const MaxFitZoom = 17

var errNothingToFit = errors.New("no drawables to fit")

// Fit picks the highest zoom at which every drawable fits inside a
// width x height canvas minus padding on each side, and the center of their
// extent in world pixels at that zoom.
func Fit(drawables []Drawable, width, height int, padding image.Point, tileSize int) (geo.GeoPoint, int, error) {
	if len(drawables) == 0 {
		return geo.GeoPoint{}, 0, errNothingToFit
	}
	if width <= 0 || height <= 0 {
		return geo.GeoPoint{}, 0, fmt.Errorf("%w: size %dx%d", geo.ErrInvalidViewport, width, height)
	}

	bound := drawables[0].Bound()
	margin := pixelMargin(drawables[0])
	for _, d := range drawables[1:] {
		bound = bound.Union(d.Bound())
		margin = math.Max(margin, pixelMargin(d))
	}

	availW := float64(width - 2*padding.X)
	availH := float64(height - 2*padding.Y)
	proj := geo.Projection{TileSize: tileSize}

	zoom := geo.MinZoom
	for z := MaxFitZoom; z >= geo.MinZoom; z-- {
		nw, se, err := extent(proj, bound, z)
		if err != nil {
			return geo.GeoPoint{}, 0, err
		}
		if se.X-nw.X+2*margin <= availW && se.Y-nw.Y+2*margin <= availH {
			zoom = z
			break
		}
	}

	nw, se, err := extent(proj, bound, zoom)
	if err != nil {
		return geo.GeoPoint{}, 0, err
	}
	center, err := proj.WorldPixelToGeo(geo.PixelPoint{X: (nw.X + se.X) / 2, Y: (nw.Y + se.Y) / 2}, zoom)
	if err != nil {
		return geo.GeoPoint{}, 0, err
	}

	return center, zoom, nil
}

func extent(proj geo.Projection, b orb.Bound, zoom int) (geo.PixelPoint, geo.PixelPoint, error) {
	nw, err := proj.GeoToWorldPixel(geo.GeoPoint{Lon: b.Min[0], Lat: b.Max[1]}, zoom)
	if err != nil {
		return geo.PixelPoint{}, geo.PixelPoint{}, err
	}
	se, err := proj.GeoToWorldPixel(geo.GeoPoint{Lon: b.Max[0], Lat: b.Min[1]}, zoom)
	if err != nil {
		return geo.PixelPoint{}, geo.PixelPoint{}, err
	}

	return nw, se, nil
}

// pixelMargin is how far a drawable reaches past its anchor points, in pixels.
func pixelMargin(d Drawable) float64 {
	switch d := d.(type) {
	case *Line:
		return d.width / 2
	case *Circle:
		if d.filled {
			return d.radius
		}
		return d.radius + d.strokeWidth/2
	case *Icon:
		b := d.img.Bounds()
		return float64(max(b.Dx(), b.Dy()))
	default:
		return 0
	}
}
