package overlay

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/woozymasta/staticmap/internal/config"
	"github.com/woozymasta/staticmap/internal/geo"
	"github.com/woozymasta/staticmap/internal/render"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const features = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {"stroke": "#ff0000", "stroke-width": 4, "stroke-opacity": 0.5},
      "geometry": {"type": "LineString", "coordinates": [[10, 59], [10.1, 59.1]]}
    },
    {
      "type": "Feature",
      "properties": {"marker-color": "green", "radius": 9, "filled": false},
      "geometry": {"type": "Point", "coordinates": [10.05, 59.05]}
    },
    {
      "type": "Feature",
      "properties": {},
      "geometry": {"type": "Polygon", "coordinates": [
        [[0, 0], [1, 0], [1, 1], [0, 0]],
        [[0.2, 0.2], [0.4, 0.2], [0.4, 0.4], [0.2, 0.2]]
      ]}
    }
  ]
}`

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	require.NoError(t, png.Encode(f, img))
}

func TestFeatures(t *testing.T) {
	fc, err := ParseGeoJSON([]byte(features))
	require.NoError(t, err)

	ds, err := Features(fc, config.Style{}, "")
	require.NoError(t, err)
	require.Len(t, ds, 4)

	line, ok := ds[0].(*render.Line)
	require.True(t, ok)
	assert.Equal(t, 4.0, line.Width())
	assert.Equal(t, color.NRGBA{R: 255, A: 128}, line.Color())
	assert.Equal(t, []geo.GeoPoint{{Lon: 10, Lat: 59}, {Lon: 10.1, Lat: 59.1}}, line.Points())

	circle, ok := ds[1].(*render.Circle)
	require.True(t, ok)
	assert.Equal(t, 9.0, circle.Radius())
	assert.Equal(t, geo.GeoPoint{Lon: 10.05, Lat: 59.05}, circle.Center())

	// both polygon rings become outlines with the fallback style
	for _, d := range ds[2:] {
		l, ok := d.(*render.Line)
		require.True(t, ok)
		assert.Equal(t, DefaultColor, l.Color())
		assert.Equal(t, float64(DefaultStrokeWidth), l.Width())
	}
}

func TestFeaturesStyleFallback(t *testing.T) {
	fc, err := ParseGeoJSON([]byte(`{"type": "MultiPoint", "coordinates": [[1, 2], [3, 4]]}`))
	require.NoError(t, err)

	c := config.Color{B: 255, A: 255}
	ds, err := Features(fc, config.Style{Color: &c, Radius: 3}, "")
	require.NoError(t, err)
	require.Len(t, ds, 2)
	for _, d := range ds {
		circle := d.(*render.Circle)
		assert.Equal(t, 3.0, circle.Radius())
	}
}

func TestFeaturesInvalidCoordinate(t *testing.T) {
	fc, err := ParseGeoJSON([]byte(`{"type": "Feature", "properties": null,
		"geometry": {"type": "Point", "coordinates": [0, 89]}}`))
	require.NoError(t, err)

	_, err = Features(fc, config.Style{}, "")
	assert.ErrorIs(t, err, geo.ErrInvalidCoordinate)
}

func TestParseGeoJSONInvalid(t *testing.T) {
	_, err := ParseGeoJSON([]byte(`not json`))
	assert.Error(t, err)
}

func TestBuild(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "pin.png"), 8, 16)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "route.geojson"), []byte(features), 0o644))

	cfg, err := config.Parse([]byte(`
output: {path: map.png}
lines:
  - points: [{lon: 10, lat: 59}, {lon: 11, lat: 60}]
    color: black
rects:
  - {north: 59.2, south: 59, east: 10.2, west: 10, width: 2}
circles:
  - center: {lon: 10, lat: 59}
    radius: 5
    color: white
    filled: true
geojson:
  - path: route.geojson
  - inline:
      type: Point
      coordinates: [10.5, 59.5]
icons:
  - anchor: {lon: 10.2, lat: 59.2}
    path: pin.png
    offset: [4, 16]
    height: 32
`))
	require.NoError(t, err)

	ds, err := Build(cfg, dir)
	require.NoError(t, err)
	require.Len(t, ds, 1+1+1+4+1+1)

	assert.IsType(t, &render.Line{}, ds[0])
	rect, ok := ds[1].(*render.Line)
	require.True(t, ok)
	assert.Len(t, rect.Points(), 5)
	assert.Equal(t, 2.0, rect.Width())
	assert.IsType(t, &render.Circle{}, ds[2])
	assert.IsType(t, &render.Circle{}, ds[7])

	ic, ok := ds[8].(*render.Icon)
	require.True(t, ok)
	assert.Equal(t, geo.GeoPoint{Lon: 10.2, Lat: 59.2}, ic.Anchor())
}

func TestBuildDefaultColorIsPainted(t *testing.T) {
	cfg, err := config.Parse([]byte(`
map: {center: {lon: 10, lat: 59}, zoom: 10, width: 256, height: 256}
output: {path: map.png}
lines:
  - points: [{lon: 9.98, lat: 59}, {lon: 10.02, lat: 59}]
    width: 4
circles:
  - center: {lon: 10, lat: 59.01}
    radius: 10
    filled: true
`))
	require.NoError(t, err)

	ds, err := Build(cfg, "")
	require.NoError(t, err)
	require.Len(t, ds, 2)
	assert.Equal(t, color.NRGBA{A: 255}, ds[0].(*render.Line).Color())

	m, err := render.New(render.Options{Center: *cfg.Map.Center, Zoom: 10, Width: 256, Height: 256}, nil)
	require.NoError(t, err)
	m.Add(ds...)
	res, err := m.Render(context.Background())
	require.NoError(t, err)

	painted := 0
	for i := 3; i < len(res.Pix); i += 4 {
		if res.Pix[i] != 0 {
			painted++
		}
	}
	assert.Greater(t, painted, 100)

	// config built by hand skips defaults and still gets black
	ds, err = Build(&config.Config{Lines: []config.Line{{Points: []geo.GeoPoint{{}}}}}, "")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{A: 255}, ds[0].(*render.Line).Color())
}

func TestBuildMissingIcon(t *testing.T) {
	cfg := &config.Config{Icons: []config.Icon{{Anchor: geo.GeoPoint{}, Path: "nope.png"}}}
	_, err := Build(cfg, t.TempDir())
	assert.Error(t, err)
}

func TestToGeoJSONReadsBack(t *testing.T) {
	cfg, err := config.Parse([]byte(`
output: {path: map.png}
lines:
  - points: [{lon: 10, lat: 59}, {lon: 11, lat: 60}]
    width: 5
    color: "#ff000080"
rects:
  - {north: 60, south: 59, east: 11, west: 10, width: 3, color: blue}
circles:
  - center: {lon: 10, lat: 59}
    radius: 7
    color: white
`))
	require.NoError(t, err)

	data, err := ToGeoJSON(cfg).MarshalJSON()
	require.NoError(t, err)

	fc, err := ParseGeoJSON(data)
	require.NoError(t, err)
	ds, err := Features(fc, config.Style{}, "")
	require.NoError(t, err)
	require.Len(t, ds, 3)

	line := ds[0].(*render.Line)
	assert.Equal(t, 5.0, line.Width())
	assert.Equal(t, color.NRGBA{R: 255, A: 128}, line.Color())

	rect := ds[1].(*render.Line)
	assert.Equal(t, 3.0, rect.Width())
	assert.Equal(t, color.NRGBA{B: 255, A: 255}, rect.Color())
	assert.Equal(t, []geo.GeoPoint{
		{Lon: 10, Lat: 60}, {Lon: 11, Lat: 60}, {Lon: 11, Lat: 59}, {Lon: 10, Lat: 59}, {Lon: 10, Lat: 60},
	}, rect.Points())

	circle := ds[2].(*render.Circle)
	assert.Equal(t, 7.0, circle.Radius())
}
