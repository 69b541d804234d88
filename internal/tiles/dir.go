package tiles

import (
	"context"
	"errors"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/woozymasta/staticmap/internal/geo"
)

// DirSource reads tiles from a local <base>/<z>/<x>/<y>.<ext> tree, the layout
// produced by common tile downloaders.
type DirSource struct {
	BaseDir string
	// Extensions are tried in order. Defaults to webp, png, jpg.
	Extensions []string
}

var defaultExtensions = []string{"webp", "png", "jpg"}

// Fetch loads and decodes one tile from disk.
func (s *DirSource) Fetch(ctx context.Context, c geo.TileCoord) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable(c, err)
	}

	exts := s.Extensions
	if len(exts) == 0 {
		exts = defaultExtensions
	}

	for _, ext := range exts {
		path := filepath.Join(
			s.BaseDir,
			strconv.Itoa(c.Z),
			strconv.Itoa(c.X),
			strconv.Itoa(c.Y)+"."+ext,
		)

		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, unavailable(c, err)
		}

		img, err := Decode(data)
		if err != nil {
			return nil, unavailable(c, err)
		}
		return img, nil
	}

	return nil, unavailable(c, ErrTileNotFound)
}
