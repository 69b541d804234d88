package tiles

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"sync"

	"github.com/woozymasta/staticmap/internal/geo"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	// ErrTileUnavailable wraps every per-tile failure: network, not found or decode.
	ErrTileUnavailable = errors.New("tile unavailable")
	// ErrTileNotFound is reported when the provider has no tile at a coordinate.
	ErrTileNotFound = errors.New("tile not found")
)

// Source provides decoded tile images.
type Source interface {
	Fetch(ctx context.Context, c geo.TileCoord) (image.Image, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, c geo.TileCoord) (image.Image, error)

// Fetch calls f.
func (f SourceFunc) Fetch(ctx context.Context, c geo.TileCoord) (image.Image, error) {
	return f(ctx, c)
}

// Decode decodes tile bytes in any registered format (png, jpeg, gif, bmp, tiff, webp).
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decode failed: %w", ErrTileUnavailable, err)
	}

	return img, nil
}

func unavailable(c geo.TileCoord, err error) error {
	if errors.Is(err, ErrTileUnavailable) {
		return err
	}

	return fmt.Errorf("%w: %s: %w", ErrTileUnavailable, c, err)
}

// Memo wraps a Source so each tile is fetched at most once for the lifetime
// of the Memo. Create one per render.
type Memo struct {
	src     Source
	mu      sync.Mutex
	entries map[geo.TileCoord]*memoEntry
}

type memoEntry struct {
	once sync.Once
	img  image.Image
	err  error
}

// NewMemo returns a memoizing wrapper around src.
func NewMemo(src Source) *Memo {
	return &Memo{src: src, entries: make(map[geo.TileCoord]*memoEntry)}
}

// Fetch returns the cached result for c, fetching it on first use.
// Concurrent callers for the same tile share one request.
func (m *Memo) Fetch(ctx context.Context, c geo.TileCoord) (image.Image, error) {
	m.mu.Lock()
	e, ok := m.entries[c]
	if !ok {
		e = &memoEntry{}
		m.entries[c] = e
	}
	m.mu.Unlock()

	e.once.Do(func() {
		e.img, e.err = m.src.Fetch(ctx, c)
	})

	return e.img, e.err
}
