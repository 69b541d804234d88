package icon

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecode(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 5, 3))
	src.SetNRGBA(4, 2, color.NRGBA{R: 10, G: 20, B: 30, A: 100})

	img, err := Decode(pngBytes(t, src))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 5, 3), img.Bounds())
	assert.Equal(t, color.NRGBA{R: 10, G: 20, B: 30, A: 100}, img.NRGBAAt(4, 2))
}

func TestDecodeFailure(t *testing.T) {
	_, err := Decode([]byte("definitely not a png"))
	assert.ErrorIs(t, err, ErrDecode)

	_, err = Load(filepath.Join(t.TempDir(), "missing.png"))
	assert.ErrorIs(t, err, ErrDecode)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "marker.png")
	require.NoError(t, os.WriteFile(path, pngBytes(t, image.NewGray(image.Rect(0, 0, 2, 2))), 0644))

	img, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, img.Bounds().Dx())
	assert.Equal(t, uint8(255), img.NRGBAAt(0, 0).A)
}

func TestResize(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 8, 4))

	assert.Equal(t, image.Rect(0, 0, 4, 2), Resize(src, 4, 0).Bounds())
	assert.Equal(t, image.Rect(0, 0, 16, 8), Resize(src, 0, 8).Bounds())
	assert.Equal(t, image.Rect(0, 0, 3, 3), Resize(src, 3, 3).Bounds())
	assert.Same(t, src, Resize(src, 0, 0))

	empty := image.NewNRGBA(image.Rect(0, 0, 0, 0))
	assert.True(t, Resize(empty, 0, 16).Bounds().Empty())
	assert.True(t, Resize(empty, 16, 0).Bounds().Empty())
}
