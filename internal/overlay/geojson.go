package overlay

import (
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"math"
	"os"

	"github.com/woozymasta/staticmap/internal/config"
	"github.com/woozymasta/staticmap/internal/geo"
	"github.com/woozymasta/staticmap/internal/render"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"
)

// Fallback styling for features without properties.
const (
	DefaultStrokeWidth  = 2
	DefaultMarkerRadius = 6
)

// DefaultColor is used when neither the feature nor the style sets a colour.
var DefaultColor = color.NRGBA{R: 0x33, G: 0x66, B: 0x99, A: 0xff}

// LoadGeoJSON reads g.Path or converts g.Inline. A single Feature or a bare
// geometry is wrapped into a collection.
func LoadGeoJSON(g config.GeoJSON, baseDir string) (*geojson.FeatureCollection, error) {
	var (
		data []byte
		err  error
	)
	if g.Path != "" {
		data, err = os.ReadFile(resolve(baseDir, g.Path))
	} else {
		data, err = json.Marshal(g.Inline)
	}
	if err != nil {
		return nil, err
	}

	return ParseGeoJSON(data)
}

// ParseGeoJSON accepts a FeatureCollection, a Feature or a geometry object.
func ParseGeoJSON(data []byte) (*geojson.FeatureCollection, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("parse geojson: %w", err)
	}

	switch head.Type {
	case "FeatureCollection":
		return geojson.UnmarshalFeatureCollection(data)
	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, err
		}
		fc := geojson.NewFeatureCollection()
		fc.Append(f)
		return fc, nil
	default:
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, err
		}
		fc := geojson.NewFeatureCollection()
		fc.Append(geojson.NewFeature(g.Geometry()))
		return fc, nil
	}
}

// Features converts every feature into drawables. Lines and polygon rings
// become polylines, points become circles or, with an "icon" property, icons.
// Recognised properties: stroke, stroke-width, stroke-opacity, marker-color,
// radius, filled, icon, icon-offset-x, icon-offset-y, simplify.
func Features(fc *geojson.FeatureCollection, style config.Style, baseDir string) ([]render.Drawable, error) {
	var out []render.Drawable
	for i, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}

		ds, err := feature(f, style, baseDir)
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		out = append(out, ds...)
	}

	log.Trace().
		Int("features", len(fc.Features)).
		Int("drawables", len(out)).
		Msg("GeoJSON converted")

	return out, nil
}

func feature(f *geojson.Feature, style config.Style, baseDir string) ([]render.Drawable, error) {
	props := f.Properties
	if props == nil {
		props = geojson.Properties{}
	}

	var out []render.Drawable
	addLine := func(ls orb.LineString) error {
		d, err := render.NewLine(toPoints(ls), strokeWidth(props, style), strokeColor(props, style), floatProp(props, "simplify", style.Simplify))
		if err != nil {
			return err
		}
		out = append(out, d)
		return nil
	}
	addPoint := func(p orb.Point) error {
		d, err := marker(p, props, style, baseDir)
		if err != nil {
			return err
		}
		out = append(out, d)
		return nil
	}

	var walk func(g orb.Geometry) error
	walk = func(g orb.Geometry) error {
		switch g := g.(type) {
		case orb.Point:
			return addPoint(g)
		case orb.MultiPoint:
			for _, p := range g {
				if err := addPoint(p); err != nil {
					return err
				}
			}
		case orb.LineString:
			return addLine(g)
		case orb.MultiLineString:
			for _, ls := range g {
				if err := addLine(ls); err != nil {
					return err
				}
			}
		case orb.Ring:
			return addLine(orb.LineString(g))
		case orb.Polygon:
			// outlines only, polygons are never filled
			for _, r := range g {
				if err := addLine(orb.LineString(r)); err != nil {
					return err
				}
			}
		case orb.MultiPolygon:
			for _, p := range g {
				if err := walk(p); err != nil {
					return err
				}
			}
		case orb.Collection:
			for _, c := range g {
				if err := walk(c); err != nil {
					return err
				}
			}
		case orb.Bound:
			return walk(g.ToRing())
		default:
			return fmt.Errorf("unsupported geometry %T", g)
		}
		return nil
	}

	if err := walk(f.Geometry); err != nil {
		return nil, err
	}

	return out, nil
}

func marker(p orb.Point, props geojson.Properties, style config.Style, baseDir string) (render.Drawable, error) {
	anchor := geo.GeoPoint{Lon: p.Lon(), Lat: p.Lat()}

	if path := stringProp(props, "icon", ""); path != "" {
		offset := image.Pt(int(floatProp(props, "icon-offset-x", 0)), int(floatProp(props, "icon-offset-y", 0)))
		return Icon(anchor, resolve(baseDir, path), offset, 0, 0)
	}

	filled := true
	if style.Filled != nil {
		filled = *style.Filled
	}
	filled = boolProp(props, "filled", filled)

	radius := style.Radius
	if radius <= 0 {
		radius = DefaultMarkerRadius
	}
	radius = floatProp(props, "radius", radius)

	return render.NewCircle(anchor, radius, markerColor(props, style), filled, strokeWidth(props, style))
}

func strokeWidth(props geojson.Properties, style config.Style) float64 {
	w := style.Width
	if w <= 0 {
		w = DefaultStrokeWidth
	}
	return floatProp(props, "stroke-width", w)
}

func strokeColor(props geojson.Properties, style config.Style) color.NRGBA {
	c := propColor(props, "stroke", style)
	if op := floatProp(props, "stroke-opacity", 1); op < 1 {
		c.A = uint8(math.Round(math.Max(0, op) * float64(c.A)))
	}
	return c
}

func markerColor(props geojson.Properties, style config.Style) color.NRGBA {
	return propColor(props, "marker-color", style)
}

func propColor(props geojson.Properties, key string, style config.Style) color.NRGBA {
	fallback := DefaultColor
	if style.Color != nil {
		fallback = style.Color.NRGBA()
	}

	s := stringProp(props, key, "")
	if s == "" {
		return fallback
	}
	c, err := config.ParseColor(s)
	if err != nil {
		log.Warn().Err(err).Str("property", key).Msg("Ignoring invalid feature color")
		return fallback
	}

	return c
}

func toPoints(ls orb.LineString) []geo.GeoPoint {
	pts := make([]geo.GeoPoint, len(ls))
	for i, p := range ls {
		pts[i] = geo.GeoPoint{Lon: p.Lon(), Lat: p.Lat()}
	}
	return pts
}

// Property helpers return def for missing or mistyped values.

func floatProp(props geojson.Properties, key string, def float64) float64 {
	switch v := props[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case nil:
		return def
	default:
		log.Warn().Str("property", key).Msgf("Ignoring non-numeric value %v", v)
		return def
	}
}

func boolProp(props geojson.Properties, key string, def bool) bool {
	if v, ok := props[key].(bool); ok {
		return v
	}
	return def
}

func stringProp(props geojson.Properties, key, def string) string {
	if v, ok := props[key].(string); ok {
		return v
	}
	return def
}
