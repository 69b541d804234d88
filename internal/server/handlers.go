// Package server handles HTTP requests and middleware.
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"net/http"
	"strconv"

	"github.com/woozymasta/staticmap/internal/geo"
	"github.com/woozymasta/staticmap/internal/output"
	"github.com/woozymasta/staticmap/internal/render"

	"github.com/rs/zerolog/log"
)

// HandleIndex serves the preview page.
func (s *ServerContext) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	etag := fmt.Sprintf(`"%x"`, len(s.IndexHTML))

	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, no-cache")
	_, _ = w.Write(s.IndexHTML)
}

// HandleHealth reports liveness.
func (s *ServerContext) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

// HandleRender renders the map described by the query string.
// Renders with missing tiles are served but never cached.
func (s *ServerContext) HandleRender(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	req, err := parseRenderQuery(q, s.Config.Map, s.Config.Output.Quality)
	if err != nil {
		s.fail(w, err)
		return
	}

	etag := s.etag(q.Encode())
	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	m, err := render.New(req.opts, s.Source)
	if err != nil {
		s.fail(w, err)
		return
	}
	m.Add(req.drawables...)

	ctx := r.Context()
	if s.RenderTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.RenderTimeout)
		defer cancel()
	}

	res, err := m.Render(ctx)
	if err != nil {
		s.fail(w, err)
		return
	}

	var buf bytes.Buffer
	if err := output.Encode(&buf, res.Image(), req.format, req.quality); err != nil {
		s.fail(w, err)
		return
	}

	w.Header().Set("Content-Type", req.format.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("X-Missing-Tiles", strconv.Itoa(len(res.Missing)))
	w.Header().Set("X-Map-Zoom", strconv.Itoa(res.Zoom))
	w.Header().Set("X-Map-Center", res.Center.String())
	if len(res.Missing) == 0 {
		w.Header().Set("ETag", etag)
		w.Header().Set("Cache-Control", "public, max-age=3600")
	} else {
		w.Header().Set("Cache-Control", "no-store")
	}

	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(buf.Bytes())
}

// etag hashes the canonical query together with the tile source.
func (s *ServerContext) etag(query string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s.SourceKey))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(query))

	buf := make([]byte, 0, 18)
	buf = append(buf, '"')
	buf = strconv.AppendUint(buf, h.Sum64(), 16)
	buf = append(buf, '"')

	return string(buf)
}

func (s *ServerContext) fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, geo.ErrInvalidCoordinate),
		errors.Is(err, geo.ErrInvalidZoom),
		errors.Is(err, geo.ErrInvalidViewport):
		status = http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		// client went away
		return
	}

	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Msg("Render failed")
	} else {
		log.Debug().Err(err).Msg("Render request rejected")
	}

	http.Error(w, err.Error(), status)
}
