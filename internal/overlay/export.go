package overlay

import (
	"github.com/woozymasta/staticmap/internal/config"
	"github.com/woozymasta/staticmap/internal/geo"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ToGeoJSON exports the configured lines, rects, circles and icons as features
// with the same properties Features reads back. Rects become closed line strings.
func ToGeoJSON(cfg *config.Config) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, l := range cfg.Lines {
		f := geojson.NewFeature(toLineString(l.Points))
		f.Properties["stroke"] = colorString(l.Color)
		if l.Width > 0 {
			f.Properties["stroke-width"] = l.Width
		}
		if l.Simplify > 0 {
			f.Properties["simplify"] = l.Simplify
		}
		fc.Append(f)
	}

	for _, r := range cfg.Rects {
		f := geojson.NewFeature(orb.LineString{
			{r.West, r.North}, {r.East, r.North}, {r.East, r.South}, {r.West, r.South}, {r.West, r.North},
		})
		f.Properties["stroke"] = colorString(r.Color)
		if r.Width > 0 {
			f.Properties["stroke-width"] = r.Width
		}
		fc.Append(f)
	}

	for _, c := range cfg.Circles {
		f := geojson.NewFeature(toPoint(c.Center))
		f.Properties["marker-color"] = colorString(c.Color)
		f.Properties["radius"] = c.Radius
		f.Properties["filled"] = c.Filled
		if c.StrokeWidth > 0 {
			f.Properties["stroke-width"] = c.StrokeWidth
		}
		fc.Append(f)
	}

	for _, ic := range cfg.Icons {
		f := geojson.NewFeature(toPoint(ic.Anchor))
		f.Properties["icon"] = ic.Path
		if ic.Offset != [2]int{} {
			f.Properties["icon-offset-x"] = ic.Offset[0]
			f.Properties["icon-offset-y"] = ic.Offset[1]
		}
		fc.Append(f)
	}

	return fc
}

func colorString(c *config.Color) string {
	if c == nil {
		return config.DefaultColor.String()
	}
	return c.String()
}

func toPoint(p geo.GeoPoint) orb.Point {
	return orb.Point{p.Lon, p.Lat}
}

func toLineString(pts []geo.GeoPoint) orb.LineString {
	ls := make(orb.LineString, len(pts))
	for i, p := range pts {
		ls[i] = toPoint(p)
	}
	return ls
}
