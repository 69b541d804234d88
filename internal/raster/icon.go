package raster

import (
	"image"
	"image/color"
)

// Icon composites img with its top-left corner at topLeft. Each source
// pixel's own alpha is the coverage; no extra anti-aliasing is applied.
func Icon(t Target, img image.Image, topLeft image.Point) {
	if img == nil {
		return
	}

	w, h := t.Size()
	src := img.Bounds()
	dst := image.Rectangle{Min: topLeft, Max: topLeft.Add(src.Size())}.Intersect(image.Rect(0, 0, w, h))
	if dst.Empty() {
		return
	}

	for y := dst.Min.Y; y < dst.Max.Y; y++ {
		sy := src.Min.Y + y - topLeft.Y
		for x := dst.Min.X; x < dst.Max.X; x++ {
			sx := src.Min.X + x - topLeft.X

			p := color.NRGBAModel.Convert(img.At(sx, sy)).(color.NRGBA)
			if p.A == 0 {
				continue
			}
			coverage := float64(p.A) / 255
			p.A = 255
			t.BlendPixel(x, y, p, coverage)
		}
	}
}
