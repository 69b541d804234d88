package render

import (
	"context"
	"errors"
	"image"
	"image/color"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/woozymasta/staticmap/internal/geo"
	"github.com/woozymasta/staticmap/internal/tiles"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	red  = color.NRGBA{R: 255, A: 255}
	blue = color.NRGBA{B: 255, A: 255}
)

func tileColor(c geo.TileCoord) color.NRGBA {
	return color.NRGBA{R: uint8(c.X), G: uint8(c.Y), B: 7, A: 255}
}

// solidTiles serves one flat colour per tile, derived from its coordinate.
func solidTiles(fail map[geo.TileCoord]bool) tiles.Source {
	return tiles.SourceFunc(func(ctx context.Context, c geo.TileCoord) (image.Image, error) {
		if fail[c] {
			return nil, errors.New("connection reset")
		}
		img := image.NewNRGBA(image.Rect(0, 0, 256, 256))
		col := tileColor(c)
		for i := 0; i < len(img.Pix); i += 4 {
			img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = col.R, col.G, col.B, col.A
		}
		return img, nil
	})
}

func pixel(res *Result, x, y int) color.NRGBA {
	return res.Image().NRGBAAt(x, y)
}

func scenarioOptions() Options {
	return Options{Center: geo.GeoPoint{Lon: 10.0, Lat: 59.0}, Zoom: 10, Width: 256, Height: 256}
}

func TestRenderEmptyMapIsMosaic(t *testing.T) {
	m, err := New(scenarioOptions(), solidTiles(nil))
	require.NoError(t, err)

	res, err := m.Render(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 256, res.Width)
	assert.Equal(t, 256, res.Height)
	assert.Len(t, res.Pix, 256*256*4)
	assert.Empty(t, res.Missing)
	assert.Equal(t, 10, res.Zoom)

	v, err := m.Viewport()
	require.NoError(t, err)
	origin, err := v.Origin()
	require.NoError(t, err)

	for y := 0; y < res.Height; y++ {
		for x := 0; x < res.Width; x++ {
			want := tileColor(geo.TileCoord{
				Z: 10,
				X: int(math.Floor((origin.X + float64(x)) / 256)),
				Y: int(math.Floor((origin.Y + float64(y)) / 256)),
			})
			require.Equal(t, want, pixel(res, x, y), "pixel %d,%d", x, y)
		}
	}
}

func TestRenderLineScenario(t *testing.T) {
	base, err := New(scenarioOptions(), solidTiles(nil))
	require.NoError(t, err)
	baseRes, err := base.Render(context.Background())
	require.NoError(t, err)

	m, err := New(scenarioOptions(), solidTiles(nil))
	require.NoError(t, err)
	line, err := NewLine([]geo.GeoPoint{{Lon: 10.0, Lat: 59.0}, {Lon: 10.1, Lat: 59.1}}, 3, red, 0)
	require.NoError(t, err)
	m.Add(line)

	res, err := m.Render(context.Background())
	require.NoError(t, err)

	v, err := m.Viewport()
	require.NoError(t, err)
	a, err := v.Project(geo.GeoPoint{Lon: 10.0, Lat: 59.0})
	require.NoError(t, err)
	b, err := v.Project(geo.GeoPoint{Lon: 10.1, Lat: 59.1})
	require.NoError(t, err)

	dx, dy := b.X-a.X, b.Y-a.Y
	lenSq := dx*dx + dy*dy

	changed := 0
	for y := 0; y < res.Height; y++ {
		for x := 0; x < res.Width; x++ {
			px, py := float64(x)+0.5, float64(y)+0.5
			u := math.Max(0, math.Min(1, ((px-a.X)*dx+(py-a.Y)*dy)/lenSq))
			d := math.Hypot(px-(a.X+u*dx), py-(a.Y+u*dy))

			got := pixel(res, x, y)
			switch {
			case d >= 1.5+0.5:
				require.Equal(t, pixel(baseRes, x, y), got, "pixel %d,%d at distance %v", x, y, d)
			case d <= 1.0:
				require.Equal(t, red, got, "pixel %d,%d at distance %v", x, y, d)
				changed++
			}
		}
	}
	assert.Greater(t, changed, 10)
}

func TestRenderMissingTile(t *testing.T) {
	opts := scenarioOptions()
	placements, err := tiles.Resolve(geo.Viewport{Center: opts.Center, Zoom: opts.Zoom, Width: opts.Width, Height: opts.Height})
	require.NoError(t, err)
	require.Greater(t, len(placements), 1)

	broken := placements[len(placements)-1]
	m, err := New(opts, solidTiles(map[geo.TileCoord]bool{broken.Tile: true}))
	require.NoError(t, err)

	res, err := m.Render(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []geo.TileCoord{broken.Tile}, res.Missing)

	at := broken.Point()
	rect := image.Rect(at.X, at.Y, at.X+256, at.Y+256).Intersect(image.Rect(0, 0, res.Width, res.Height))
	require.False(t, rect.Empty())
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			require.Equal(t, color.NRGBA{}, pixel(res, x, y))
		}
	}

	// the rest of the map is still there
	first := placements[0].Point()
	assert.Equal(t, tileColor(placements[0].Tile), pixel(res, max(first.X, 0), max(first.Y, 0)))
}

func TestRenderPaintOrder(t *testing.T) {
	m, err := New(scenarioOptions(), nil)
	require.NoError(t, err)

	a, err := NewCircle(geo.GeoPoint{Lon: 10.0, Lat: 59.0}, 20, red, true, 0)
	require.NoError(t, err)
	b, err := NewCircle(geo.GeoPoint{Lon: 10.0, Lat: 59.0}, 10, blue, true, 0)
	require.NoError(t, err)
	m.Add(a, b)

	res, err := m.Render(context.Background())
	require.NoError(t, err)
	assert.Equal(t, blue, pixel(res, 128, 128))
	assert.Equal(t, red, pixel(res, 128+15, 128))

	m2, err := New(scenarioOptions(), nil)
	require.NoError(t, err)
	m2.Add(b, a)
	res, err = m2.Render(context.Background())
	require.NoError(t, err)
	assert.Equal(t, red, pixel(res, 128, 128))
}

func TestRenderIcon(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 5, 5))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+1], img.Pix[i+3] = 255, 255
	}

	m, err := New(scenarioOptions(), solidTiles(nil))
	require.NoError(t, err)
	ic, err := NewIcon(geo.GeoPoint{Lon: 10.0, Lat: 59.0}, img, image.Pt(2, 4))
	require.NoError(t, err)
	m.Add(ic)

	res, err := m.Render(context.Background())
	require.NoError(t, err)

	v, err := m.Viewport()
	require.NoError(t, err)
	p, err := v.Project(ic.Anchor())
	require.NoError(t, err)

	x, y := int(math.Round(p.X)), int(math.Round(p.Y))
	assert.Equal(t, color.NRGBA{G: 255, A: 255}, pixel(res, x, y))
	assert.Equal(t, color.NRGBA{G: 255, A: 255}, pixel(res, x-2, y-4))
	assert.NotEqual(t, color.NRGBA{G: 255, A: 255}, pixel(res, x, y+1))
}

func TestConstructionErrors(t *testing.T) {
	_, err := New(Options{Zoom: 21, Width: 10, Height: 10}, nil)
	assert.ErrorIs(t, err, geo.ErrInvalidZoom)

	_, err = New(Options{Center: geo.GeoPoint{Lat: 86}, Zoom: 1, Width: 10, Height: 10}, nil)
	assert.ErrorIs(t, err, geo.ErrInvalidCoordinate)

	_, err = NewLine([]geo.GeoPoint{{Lon: 0, Lat: 0}, {Lon: 200, Lat: 0}}, 2, red, 0)
	assert.ErrorIs(t, err, geo.ErrInvalidCoordinate)

	_, err = NewLine(nil, 2, red, 0)
	assert.ErrorIs(t, err, geo.ErrInvalidCoordinate)

	_, err = NewCircle(geo.GeoPoint{Lat: -90}, 3, red, true, 0)
	assert.ErrorIs(t, err, geo.ErrInvalidCoordinate)

	_, err = NewIcon(geo.GeoPoint{}, nil, image.Point{})
	assert.Error(t, err)

	m, err := New(Options{Center: geo.GeoPoint{}, Zoom: 1, Width: 0, Height: 10}, nil)
	require.NoError(t, err)
	_, err = m.Render(context.Background())
	assert.ErrorIs(t, err, geo.ErrInvalidViewport)
}

func TestRenderCancelled(t *testing.T) {
	m, err := New(scenarioOptions(), solidTiles(nil))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = m.Render(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRenderDeadlineStopsOverlays(t *testing.T) {
	m, err := New(Options{Center: geo.GeoPoint{Lon: 10.0, Lat: 59.0}, Zoom: 10, Width: 2048, Height: 2048}, nil)
	require.NoError(t, err)
	for n := 0; n < 256; n++ {
		c, err := NewCircle(geo.GeoPoint{Lon: 10.0, Lat: 59.0}, 1e6, red, true, 0)
		require.NoError(t, err)
		m.Add(c)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	<-ctx.Done()

	start := time.Now()
	_, err = m.Render(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestRenderRect(t *testing.T) {
	m, err := New(scenarioOptions(), nil)
	require.NoError(t, err)
	rect, err := NewRect(59.02, 58.98, 10.05, 9.95, 3, red)
	require.NoError(t, err)
	require.Len(t, rect.Points(), 5)
	m.Add(rect)

	res, err := m.Render(context.Background())
	require.NoError(t, err)

	v, err := m.Viewport()
	require.NoError(t, err)
	nw, err := v.Project(geo.GeoPoint{Lon: 9.95, Lat: 59.02})
	require.NoError(t, err)
	se, err := v.Project(geo.GeoPoint{Lon: 10.05, Lat: 58.98})
	require.NoError(t, err)

	midX := int(math.Floor((nw.X + se.X) / 2))
	midY := int(math.Floor((nw.Y + se.Y) / 2))
	assert.Equal(t, red, pixel(res, midX, int(math.Floor(nw.Y))))
	assert.Equal(t, red, pixel(res, midX, int(math.Floor(se.Y))))
	assert.Equal(t, red, pixel(res, int(math.Floor(nw.X)), midY))
	assert.Equal(t, color.NRGBA{}, pixel(res, midX, midY))

	_, err = NewRect(58, 59, 10, 9, 1, red)
	assert.ErrorIs(t, err, geo.ErrInvalidCoordinate)
	_, err = NewRect(59, 58, 9, 10, 1, red)
	assert.ErrorIs(t, err, geo.ErrInvalidCoordinate)
}

func TestRenderFit(t *testing.T) {
	m, err := New(Options{Width: 300, Height: 200, Padding: image.Pt(10, 10), Fit: true}, nil)
	require.NoError(t, err)

	line, err := NewLine([]geo.GeoPoint{{Lon: 13.4, Lat: 52.5}, {Lon: 2.3, Lat: 48.9}}, 3, red, 0)
	require.NoError(t, err)
	m.Add(line)

	res, err := m.Render(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.Zoom, 1)
	assert.LessOrEqual(t, res.Zoom, MaxFitZoom)

	v, err := m.Viewport()
	require.NoError(t, err)
	for _, p := range line.Points() {
		px, err := v.Project(p)
		require.NoError(t, err)
		assert.True(t, px.X >= 10 && px.X <= 290, "x %v", px.X)
		assert.True(t, px.Y >= 10 && px.Y <= 190, "y %v", px.Y)
	}

	// the exported helper agrees with the render
	center, zoom, err := Fit(m.Drawables(), 300, 200, image.Pt(10, 10), 256)
	require.NoError(t, err)
	assert.Equal(t, res.Zoom, zoom)
	assert.Equal(t, res.Center, center)
}

func TestConcurrentRenders(t *testing.T) {
	var wg sync.WaitGroup
	results := make([]*Result, 4)

	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, err := New(scenarioOptions(), solidTiles(nil))
			if !assert.NoError(t, err) {
				return
			}
			c, err := NewCircle(geo.GeoPoint{Lon: 10, Lat: 59}, float64(5+i), red, true, 0)
			if !assert.NoError(t, err) {
				return
			}
			m.Add(c)
			results[i], err = m.Render(context.Background())
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		require.NotNil(t, r)
		assert.Equal(t, red, pixel(r, 128, 128))
	}
}
