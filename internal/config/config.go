// Package config handles configuration loading and shared data structures.
package config

import (
	"errors"
	"fmt"
	"image"
	"os"
	"time"

	"github.com/woozymasta/staticmap/internal/geo"
	"github.com/woozymasta/staticmap/internal/output"
	"github.com/woozymasta/staticmap/internal/tiles"

	"gopkg.in/yaml.v3"
)

// Defaults applied by Load for omitted values.
const (
	DefaultWidth   = 800
	DefaultHeight  = 600
	DefaultTimeout = 15 * time.Second
)

// DefaultColor is used for lines, rects and circles without a color.
var DefaultColor = Color{A: 0xff}

// Config represents the root configuration file structure.
type Config struct {
	Map     Map       `yaml:"map"`
	Tiles   Tiles     `yaml:"tiles"`
	Output  Output    `yaml:"output"`
	Lines   []Line    `yaml:"lines,omitempty"`
	Rects   []Rect    `yaml:"rects,omitempty"`
	Circles []Circle  `yaml:"circles,omitempty"`
	Icons   []Icon    `yaml:"icons,omitempty"`
	GeoJSON []GeoJSON `yaml:"geojson,omitempty"`
}

// Map describes the viewport.
type Map struct {
	Center   *geo.GeoPoint `yaml:"center,omitempty"`
	Zoom     int           `yaml:"zoom"`
	Width    int           `yaml:"width"`
	Height   int           `yaml:"height"`
	TileSize int           `yaml:"tile_size,omitempty"`
	// Padding is [x, y] kept free around the overlays when fitting.
	Padding [2]int `yaml:"padding,omitempty"`
	// Fit derives center and zoom from the overlays; implied when Center is empty.
	Fit bool `yaml:"fit,omitempty"`
}

// PaddingPoint returns Padding as an image.Point.
func (m Map) PaddingPoint() image.Point {
	return image.Pt(m.Padding[0], m.Padding[1])
}

// Tiles selects the tile source: a URL template or a local z/x/y directory.
type Tiles struct {
	URL         string        `yaml:"url,omitempty"`
	Dir         string        `yaml:"dir,omitempty"`
	UserAgent   string        `yaml:"user_agent,omitempty"`
	Subdomains  string        `yaml:"subdomains,omitempty"`
	Extensions  []string      `yaml:"extensions,omitempty"`
	Timeout     time.Duration `yaml:"timeout,omitempty"`
	Concurrency int           `yaml:"concurrency,omitempty"`
}

// Output describes the rendered file.
type Output struct {
	Path    string `yaml:"path"`
	Format  string `yaml:"format,omitempty"` // derived from Path when empty
	Quality int    `yaml:"quality,omitempty"`
}

// Line is a polyline overlay.
type Line struct {
	Points   []geo.GeoPoint `yaml:"points"`
	Width    float64        `yaml:"width,omitempty"`
	Color    *Color         `yaml:"color,omitempty"`
	Simplify float64        `yaml:"simplify,omitempty"` // pixels
}

// Rect is the outline of a box between two parallels and two meridians.
type Rect struct {
	North float64 `yaml:"north"`
	South float64 `yaml:"south"`
	East  float64 `yaml:"east"`
	West  float64 `yaml:"west"`
	Width float64 `yaml:"width,omitempty"`
	Color *Color  `yaml:"color,omitempty"`
}

// Circle is a disk or ring overlay.
type Circle struct {
	Center      geo.GeoPoint `yaml:"center"`
	Radius      float64      `yaml:"radius"`
	Color       *Color       `yaml:"color,omitempty"`
	Filled      bool         `yaml:"filled,omitempty"`
	StrokeWidth float64      `yaml:"stroke_width,omitempty"`
}

// Icon is an image file pinned to a position.
type Icon struct {
	Anchor geo.GeoPoint `yaml:"anchor"`
	Path   string       `yaml:"path"`
	// Offset is the icon pixel placed on the anchor, [x, y].
	Offset [2]int `yaml:"offset,omitempty"`
	Width  int    `yaml:"width,omitempty"`
	Height int    `yaml:"height,omitempty"`
}

// GeoJSON adds features from a file or from GeoJSON written inline in YAML.
type GeoJSON struct {
	Path   string `yaml:"path,omitempty"`
	Inline any    `yaml:"inline,omitempty"`
	Style  Style  `yaml:"style,omitempty"`
}

// Style is the fallback for features without simplestyle properties.
type Style struct {
	Color    *Color  `yaml:"color,omitempty"`
	Width    float64 `yaml:"width,omitempty"`
	Radius   float64 `yaml:"radius,omitempty"`
	Simplify float64 `yaml:"simplify,omitempty"`
	Filled   *bool   `yaml:"filled,omitempty"`
}

// Load reads and parses the YAML configuration file from the specified path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return Parse(data)
}

// Parse decodes YAML, fills defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Map.Width == 0 {
		c.Map.Width = DefaultWidth
	}
	if c.Map.Height == 0 {
		c.Map.Height = DefaultHeight
	}
	if c.Map.TileSize == 0 {
		c.Map.TileSize = geo.DefaultTileSize
	}
	if c.Map.Center == nil {
		c.Map.Fit = true
	}
	if c.Tiles.Timeout == 0 {
		c.Tiles.Timeout = DefaultTimeout
	}
	if c.Tiles.Concurrency <= 0 {
		c.Tiles.Concurrency = tiles.DefaultConcurrency
	}
	if c.Tiles.UserAgent == "" {
		c.Tiles.UserAgent = tiles.DefaultUserAgent
	}
	if c.Output.Quality == 0 {
		c.Output.Quality = output.DefaultQuality
	}

	for i := range c.Lines {
		c.Lines[i].Color = orDefault(c.Lines[i].Color)
	}
	for i := range c.Rects {
		c.Rects[i].Color = orDefault(c.Rects[i].Color)
	}
	for i := range c.Circles {
		c.Circles[i].Color = orDefault(c.Circles[i].Color)
	}
}

func orDefault(c *Color) *Color {
	if c != nil {
		return c
	}
	d := DefaultColor
	return &d
}

// Validate checks values that cannot be caught later with a useful message.
func (c *Config) Validate() error {
	if c.Map.Width <= 0 || c.Map.Height <= 0 {
		return fmt.Errorf("map: %w: size %dx%d", geo.ErrInvalidViewport, c.Map.Width, c.Map.Height)
	}
	if c.Map.Padding[0] < 0 || c.Map.Padding[1] < 0 ||
		2*c.Map.Padding[0] >= c.Map.Width || 2*c.Map.Padding[1] >= c.Map.Height {
		return fmt.Errorf("map: %w: padding %v", geo.ErrInvalidViewport, c.Map.Padding)
	}
	if !c.Map.Fit {
		if err := geo.ValidateZoom(c.Map.Zoom); err != nil {
			return fmt.Errorf("map: %w", err)
		}
	}
	if c.Map.Center != nil {
		if err := c.Map.Center.Validate(); err != nil {
			return fmt.Errorf("map center: %w", err)
		}
	}
	if c.Tiles.URL != "" && c.Tiles.Dir != "" {
		return errors.New("tiles: url and dir are mutually exclusive")
	}
	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return fmt.Errorf("output: quality %d out of range 1..100", c.Output.Quality)
	}
	if c.Output.Format != "" {
		if _, err := output.ParseFormat(c.Output.Format); err != nil {
			return fmt.Errorf("output: %w", err)
		}
	}
	for i, g := range c.GeoJSON {
		if (g.Path == "") == (g.Inline == nil) {
			return fmt.Errorf("geojson %d: exactly one of path or inline is required", i)
		}
	}

	return nil
}

// Encoding resolves the output format from the explicit setting or the file extension.
func (o Output) Encoding() (output.Format, error) {
	if o.Format != "" {
		return output.ParseFormat(o.Format)
	}
	return output.FormatFromPath(o.Path)
}
