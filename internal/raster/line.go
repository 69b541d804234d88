package raster

import (
	"image/color"
	"math"

	"github.com/woozymasta/staticmap/internal/geo"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/simplify"
)

// Line strokes the polyline pts with the given width.
//
// Each segment is drawn on its own with round caps (distance is measured to
// the segment, not its infinite line). Where segments meet, the overlap is
// blended once per segment; this slightly darkens translucent joints.
func Line(t Target, pts []geo.PixelPoint, width float64, c color.NRGBA) {
	if width <= 0 || c.A == 0 {
		return
	}
	if len(pts) == 1 {
		segment(t, pts[0], pts[0], width/2, c)
		return
	}

	for i := 1; i < len(pts); i++ {
		segment(t, pts[i-1], pts[i], width/2, c)
	}
}

func segment(t Target, a, b geo.PixelPoint, hw float64, c color.NRGBA) {
	if !finite(a.X, a.Y, b.X, b.Y) {
		return
	}

	reach := hw + AAMargin
	bb := clipBox(t,
		math.Min(a.X, b.X)-reach, math.Min(a.Y, b.Y)-reach,
		math.Max(a.X, b.X)+reach, math.Max(a.Y, b.Y)+reach,
	)
	if bb.empty() {
		return
	}

	dx, dy := b.X-a.X, b.Y-a.Y
	lenSq := dx*dx + dy*dy

	for y := bb.y0; y <= bb.y1; y++ {
		py := float64(y) + 0.5
		for x := bb.x0; x <= bb.x1; x++ {
			px := float64(x) + 0.5

			d := segmentDistance(px, py, a, dx, dy, lenSq)
			if d >= reach {
				continue
			}
			t.BlendPixel(x, y, c, Coverage(hw, d))
		}
	}
}

func segmentDistance(px, py float64, a geo.PixelPoint, dx, dy, lenSq float64) float64 {
	u := 0.0
	if lenSq > 0 {
		u = ((px-a.X)*dx + (py-a.Y)*dy) / lenSq
		if u < 0 {
			u = 0
		} else if u > 1 {
			u = 1
		}
	}

	return math.Hypot(px-(a.X+u*dx), py-(a.Y+u*dy))
}

// Simplify drops vertices closer than tolerance pixels to the last kept one.
// The first and last vertices are always kept; tolerance <= 0 returns pts unchanged.
func Simplify(pts []geo.PixelPoint, tolerance float64) []geo.PixelPoint {
	if tolerance <= 0 || len(pts) < 3 {
		return pts
	}

	ls := make(orb.LineString, len(pts))
	for i, p := range pts {
		ls[i] = orb.Point{p.X, p.Y}
	}

	simplified := simplify.Radial(planar.Distance, tolerance).LineString(ls)

	out := make([]geo.PixelPoint, len(simplified))
	for i, p := range simplified {
		out[i] = geo.PixelPoint{X: p[0], Y: p[1]}
	}

	return out
}
