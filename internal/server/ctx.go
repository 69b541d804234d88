package server

import (
	"fmt"
	"time"

	"github.com/woozymasta/staticmap/assets"
	"github.com/woozymasta/staticmap/internal/config"
	"github.com/woozymasta/staticmap/internal/tiles"

	"github.com/rs/zerolog/log"
)

// DefaultRenderTimeout bounds a single render request.
const DefaultRenderTimeout = 30 * time.Second

// ServerContext holds dependencies for request handlers.
type ServerContext struct {
	Config        *config.Config
	Source        tiles.Source
	IndexHTML     []byte
	RenderTimeout time.Duration
	// SourceKey identifies the tile source in ETags so a source change invalidates them.
	SourceKey string
}

// NewServerContext prepares the index page and binds the tile source.
// A nil src renders overlays on a transparent background.
func NewServerContext(cfg *config.Config, src tiles.Source) (*ServerContext, error) {
	index, err := assets.Index("Static map", cfg.Map.Width, cfg.Map.Height)
	if err != nil {
		return nil, fmt.Errorf("build index page: %w", err)
	}

	key := cfg.Tiles.URL
	if key == "" {
		key = cfg.Tiles.Dir
	}

	log.Info().
		Str("tiles", key).
		Int("width", cfg.Map.Width).
		Int("height", cfg.Map.Height).
		Int("index_bytes", len(index)).
		Msg("Server context initialized successfully")

	return &ServerContext{
		Config:        cfg,
		Source:        src,
		IndexHTML:     index,
		RenderTimeout: DefaultRenderTimeout,
		SourceKey:     key,
	}, nil
}
