package raster

import (
	"image/color"
	"math"

	"github.com/woozymasta/staticmap/internal/geo"
)

// Circle draws a circle of radius pixels around center.
//
// Filled circles use coverage Coverage(radius, d). Outlines are a ring of
// strokeWidth centered on the radius, with Coverage(strokeWidth/2, |d-radius|).
// A radius of zero or less draws nothing.
func Circle(t Target, center geo.PixelPoint, radius float64, c color.NRGBA, filled bool, strokeWidth float64) {
	if !(radius > 0) || c.A == 0 || !finite(center.X, center.Y, radius) {
		return
	}
	if !filled && !(strokeWidth > 0) {
		return
	}

	hw := strokeWidth / 2
	reach := radius + AAMargin
	if !filled {
		reach += hw
	}

	bb := clipBox(t, center.X-reach, center.Y-reach, center.X+reach, center.Y+reach)
	if bb.empty() {
		return
	}

	for y := bb.y0; y <= bb.y1; y++ {
		py := float64(y) + 0.5 - center.Y
		for x := bb.x0; x <= bb.x1; x++ {
			px := float64(x) + 0.5 - center.X

			d := math.Hypot(px, py)
			if d >= reach {
				continue
			}

			var cov float64
			if filled {
				cov = Coverage(radius, d)
			} else {
				cov = Coverage(hw, math.Abs(d-radius))
			}
			if cov > 0 {
				t.BlendPixel(x, y, c, cov)
			}
		}
	}
}
