// Package raster converts pixel-space geometry into anti-aliased pixel writes.
//
// Every primitive uses the same coverage rule. A pixel is sampled at its
// center (x+0.5, y+0.5); for a shape edge at half-width h and a pixel center at
// distance d from the geometry,
//
//	coverage = clamp(0.5 + h - d, 0, 1)
//
// so coverage falls linearly from 1 to 0 across one pixel centered on the edge.
// Pixels farther than h + AAMargin are never written.
package raster

import (
	"image/color"
	"math"
)

// AAMargin is how far past the nominal edge anti-aliasing reaches, in pixels.
const AAMargin = 0.5

// Target receives pixel writes. Out-of-range writes must be ignored.
type Target interface {
	Size() (width, height int)
	BlendPixel(x, y int, c color.NRGBA, coverage float64)
}

// Coverage is the shared falloff function.
func Coverage(halfWidth, d float64) float64 {
	v := 0.5 + halfWidth - d
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 1
	}

	return v
}

// box is an inclusive pixel range already clipped to the target.
type box struct {
	x0, y0, x1, y1 int
}

func (b box) empty() bool {
	return b.x0 > b.x1 || b.y0 > b.y1
}

// clipBox returns the pixels whose centers may lie within [minX, maxX]×[minY, maxY].
func clipBox(t Target, minX, minY, maxX, maxY float64) box {
	w, h := t.Size()
	b := box{
		x0: int(math.Floor(minX - 0.5)),
		y0: int(math.Floor(minY - 0.5)),
		x1: int(math.Ceil(maxX - 0.5)),
		y1: int(math.Ceil(maxY - 0.5)),
	}
	if b.x0 < 0 {
		b.x0 = 0
	}
	if b.y0 < 0 {
		b.y0 = 0
	}
	if b.x1 > w-1 {
		b.x1 = w - 1
	}
	if b.y1 > h-1 {
		b.y1 = h - 1
	}

	return b
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}

	return true
}
