package canvas

import (
	"image"
	"image/color"
	"testing"

	"github.com/woozymasta/staticmap/internal/geo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestNew(t *testing.T) {
	c, err := New(3, 2)
	require.NoError(t, err)
	w, h := c.Size()
	assert.Equal(t, 3, w)
	assert.Equal(t, 2, h)
	assert.Equal(t, color.NRGBA{}, c.At(1, 1))

	for _, size := range [][2]int{{0, 1}, {1, 0}, {-1, 5}} {
		_, err := New(size[0], size[1])
		assert.ErrorIs(t, err, geo.ErrInvalidViewport)
	}
}

func TestBlitClipsAtEdges(t *testing.T) {
	red := color.NRGBA{R: 255, A: 255}
	c, err := New(4, 4)
	require.NoError(t, err)

	// tile hanging off the top-left corner
	c.Blit(solid(3, 3, red), image.Pt(-1, -1))

	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			want := color.NRGBA{}
			if x < 2 && y < 2 {
				want = red
			}
			assert.Equal(t, want, c.At(x, y), "pixel %d,%d", x, y)
		}
	}

	// fully outside, nil and undersized tiles are fine
	c.Blit(solid(2, 2, red), image.Pt(10, 10))
	c.Blit(nil, image.Pt(0, 0))
	c.Blit(solid(1, 1, color.NRGBA{B: 255, A: 255}), image.Pt(3, 3))
	assert.Equal(t, color.NRGBA{B: 255, A: 255}, c.At(3, 3))
}

func TestBlitSubImageOrigin(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	src.SetNRGBA(2, 2, color.NRGBA{G: 255, A: 255})
	sub := src.SubImage(image.Rect(2, 2, 4, 4))

	c, err := New(2, 2)
	require.NoError(t, err)
	c.Blit(sub, image.Pt(0, 0))
	assert.Equal(t, color.NRGBA{G: 255, A: 255}, c.At(0, 0))
}

func TestBlendPixel(t *testing.T) {
	c, err := New(2, 1)
	require.NoError(t, err)
	c.Blit(solid(2, 1, color.NRGBA{B: 255, A: 255}), image.Pt(0, 0))

	c.BlendPixel(0, 0, color.NRGBA{R: 255, A: 255}, 1)
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, c.At(0, 0))

	c.BlendPixel(1, 0, color.NRGBA{R: 255, A: 255}, 0.5)
	assert.Equal(t, color.NRGBA{R: 128, B: 128, A: 255}, c.At(1, 0))

	// coverage above one is clamped, zero and negative are no-ops
	c.BlendPixel(1, 0, color.NRGBA{G: 255, A: 255}, 0)
	c.BlendPixel(1, 0, color.NRGBA{G: 255, A: 255}, -3)
	assert.Equal(t, color.NRGBA{R: 128, B: 128, A: 255}, c.At(1, 0))
	c.BlendPixel(1, 0, color.NRGBA{G: 255, A: 255}, 7)
	assert.Equal(t, color.NRGBA{G: 255, A: 255}, c.At(1, 0))

	// out of bounds never panics
	c.BlendPixel(-1, 0, color.NRGBA{A: 255}, 1)
	c.BlendPixel(2, 0, color.NRGBA{A: 255}, 1)
	c.BlendPixel(0, 1, color.NRGBA{A: 255}, 1)
}

func TestBlendPixelOnTransparent(t *testing.T) {
	c, err := New(1, 1)
	require.NoError(t, err)

	c.BlendPixel(0, 0, color.NRGBA{R: 200, G: 100, A: 255}, 0.5)
	assert.Equal(t, color.NRGBA{R: 200, G: 100, A: 128}, c.At(0, 0))
}

func TestIntoBuffer(t *testing.T) {
	c, err := New(2, 3)
	require.NoError(t, err)
	c.BlendPixel(1, 2, color.NRGBA{R: 1, G: 2, B: 3, A: 255}, 1)

	buf := c.IntoBuffer()
	assert.Equal(t, 2, buf.Width)
	assert.Equal(t, 3, buf.Height)
	require.Len(t, buf.Pix, 2*3*4)
	assert.Equal(t, []byte{1, 2, 3, 255}, buf.Pix[(2*2+1)*4:(2*2+1)*4+4])
	assert.Equal(t, color.NRGBA{R: 1, G: 2, B: 3, A: 255}, buf.Image().NRGBAAt(1, 2))

	// consumed
	w, h := c.Size()
	assert.Zero(t, w+h)
	c.BlendPixel(0, 0, color.NRGBA{A: 255}, 1)
	assert.Equal(t, Buffer{}, c.IntoBuffer())
}
