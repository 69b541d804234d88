package config

import (
	"github.com/woozymasta/staticmap/internal/tiles"
)

// Source builds the configured tile source, or nil when neither url nor dir is set.
func (t Tiles) Source() tiles.Source {
	switch {
	case t.URL != "":
		return &tiles.HTTPSource{
			Client:      tiles.NewHTTPClient(t.Timeout),
			URLTemplate: t.URL,
			UserAgent:   t.UserAgent,
			Subdomains:  t.Subdomains,
		}
	case t.Dir != "":
		return &tiles.DirSource{BaseDir: t.Dir, Extensions: t.Extensions}
	default:
		return nil
	}
}
