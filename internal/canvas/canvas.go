// Package canvas holds the output pixel buffer of one render.
//
// All writes go through Blit and BlendPixel, which clip to the canvas bounds,
// so callers never need to range-check coordinates themselves.
package canvas

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/woozymasta/staticmap/internal/geo"

	xdraw "golang.org/x/image/draw"
)

// Canvas is a non-premultiplied RGBA pixel buffer of fixed size.
// It is not safe for concurrent use.
type Canvas struct {
	img *image.NRGBA
}

// Buffer is the finished image: row-major RGBA bytes with a top-left origin.
type Buffer struct {
	Width  int
	Height int
	Pix    []byte
}

// New allocates a fully transparent canvas.
func New(width, height int) (*Canvas, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: canvas size %dx%d", geo.ErrInvalidViewport, width, height)
	}

	return &Canvas{img: image.NewNRGBA(image.Rect(0, 0, width, height))}, nil
}

// Size returns the canvas dimensions, or zero after IntoBuffer.
func (c *Canvas) Size() (int, int) {
	if c.img == nil {
		return 0, 0
	}
	b := c.img.Bounds()

	return b.Dx(), b.Dy()
}

// Blit copies img onto the canvas with its top-left corner at at.
// Pixels are replaced, not blended; anything outside the canvas is skipped.
func (c *Canvas) Blit(img image.Image, at image.Point) {
	if c.img == nil || img == nil {
		return
	}

	src := img.Bounds()
	dst := image.Rectangle{Min: at, Max: at.Add(src.Size())}.Intersect(c.img.Bounds())
	if dst.Empty() {
		return
	}

	sp := src.Min.Add(dst.Min.Sub(at))
	xdraw.Copy(c.img, dst.Min, img, image.Rectangle{Min: sp, Max: sp.Add(dst.Size())}, xdraw.Src, nil)
}

// BlendPixel composites col over the pixel at (x, y) using source-over, with
// the source alpha scaled by coverage. Coverage is clamped to [0, 1].
// Coordinates outside the canvas are ignored.
func (c *Canvas) BlendPixel(x, y int, col color.NRGBA, coverage float64) {
	if c.img == nil || !(image.Point{X: x, Y: y}).In(c.img.Rect) {
		return
	}
	if coverage > 1 {
		coverage = 1
	}
	if !(coverage > 0) || col.A == 0 {
		return
	}

	i := c.img.PixOffset(x, y)
	p := c.img.Pix[i : i+4 : i+4]

	sa := float64(col.A) / 255 * coverage
	da := float64(p[3]) / 255
	oa := sa + da*(1-sa)
	if oa <= 0 {
		return
	}

	dw := da * (1 - sa)
	p[0] = channel((float64(col.R)*sa + float64(p[0])*dw) / oa)
	p[1] = channel((float64(col.G)*sa + float64(p[1])*dw) / oa)
	p[2] = channel((float64(col.B)*sa + float64(p[2])*dw) / oa)
	p[3] = channel(oa * 255)
}

// At returns the pixel at (x, y); transparent outside the canvas.
func (c *Canvas) At(x, y int) color.NRGBA {
	if c.img == nil {
		return color.NRGBA{}
	}

	return c.img.NRGBAAt(x, y)
}

// IntoBuffer hands the pixels over to the caller. The canvas is empty
// afterwards and ignores further writes.
func (c *Canvas) IntoBuffer() Buffer {
	if c.img == nil {
		return Buffer{}
	}

	b := Buffer{Width: c.img.Rect.Dx(), Height: c.img.Rect.Dy(), Pix: c.img.Pix}
	c.img = nil

	return b
}

// Image wraps the buffer as an image without copying.
func (b Buffer) Image() *image.NRGBA {
	return &image.NRGBA{
		Pix:    b.Pix,
		Stride: b.Width * 4,
		Rect:   image.Rect(0, 0, b.Width, b.Height),
	}
}

func channel(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}

	return uint8(v)
}
