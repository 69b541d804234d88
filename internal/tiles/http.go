package tiles

import (
	"context"
	"crypto/tls"
	"fmt"
	"image"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/woozymasta/staticmap/internal/geo"

	"github.com/rs/zerolog/log"
)

// DefaultUserAgent is sent when HTTPSource.UserAgent is empty.
// Public tile servers reject requests without one.
const DefaultUserAgent = "staticmap/1.0 (+https://github.com/woozymasta/staticmap)"

// HTTPSource downloads tiles from a URL template.
//
// Supported placeholders: {z}, {x}, {y}, {tms_y} (y flipped for TMS servers)
// and {s} (subdomain picked from Subdomains).
type HTTPSource struct {
	Client      *http.Client
	URLTemplate string
	UserAgent   string
	Subdomains  string
}

// NewHTTPClient returns a client tuned for many small parallel tile requests.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &http.Client{
		Transport: &http.Transport{
			TLSNextProto:        make(map[string]func(string, *tls.Conn) http.RoundTripper),
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
		},
		Timeout: timeout,
	}
}

// Fetch downloads and decodes one tile.
func (s *HTTPSource) Fetch(ctx context.Context, c geo.TileCoord) (image.Image, error) {
	url := s.URL(c)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, unavailable(c, err)
	}
	ua := s.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, unavailable(c, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		log.Trace().Str("url", url).Msg("Tile not found (404)")
		return nil, unavailable(c, ErrTileNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, unavailable(c, fmt.Errorf("status code %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, unavailable(c, err)
	}

	img, err := Decode(body)
	if err != nil {
		log.Trace().Err(err).Str("url", url).Msg("Failed to decode tile")
		return nil, err
	}

	return img, nil
}

// URL expands the template for c.
func (s *HTTPSource) URL(c geo.TileCoord) string {
	return buildURL(s.URLTemplate, s.Subdomains, c)
}

func buildURL(tpl, subdomains string, c geo.TileCoord) string {
	s := strings.ReplaceAll(tpl, "{z}", strconv.Itoa(c.Z))
	s = strings.ReplaceAll(s, "{x}", strconv.Itoa(c.X))
	s = strings.ReplaceAll(s, "{y}", strconv.Itoa(c.Y))

	if strings.Contains(s, "{tms_y}") {
		maxCoord := (1 << c.Z) - 1
		s = strings.ReplaceAll(s, "{tms_y}", strconv.Itoa(maxCoord-c.Y))
	}

	if strings.Contains(s, "{s}") {
		if subdomains == "" {
			subdomains = "abc"
		}
		sub := subdomains[(c.X+c.Y)%len(subdomains)]
		s = strings.ReplaceAll(s, "{s}", string(sub))
	}

	return s
}
