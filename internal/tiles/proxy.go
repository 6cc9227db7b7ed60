// Package tiles proxies base imagery tiles and re-encodes them as WebP.
package tiles

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/QJones76/leaflet-challenge/internal/geo"
	"github.com/QJones76/leaflet-challenge/internal/metrics"

	"github.com/chai2010/webp"
	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Path is the route prefix the proxy is mounted on.
const Path = "/tiles/"

// Template is the Leaflet URL template pointing at the proxy.
const Template = Path + "{z}/{y}/{x}"

// errEmpty marks placeholder tiles some servers return outside their coverage.
var errEmpty = errors.New("empty tile")

// Coordinate addresses one tile.
type Coordinate struct {
	Z, X, Y int
}

// Proxy fetches upstream tiles with bounded concurrency.
type Proxy struct {
	client      *http.Client
	urlTemplate string
	sem         chan struct{}
	transparent []byte
}

// New creates a proxy for an upstream {z}/{x}/{y} template.
func New(client *http.Client, urlTemplate string, concurrency int) (*Proxy, error) {
	if concurrency <= 0 {
		concurrency = 1
	}
	blank, err := transparentTile()
	if err != nil {
		return nil, err
	}
	return &Proxy{
		client:      client,
		urlTemplate: urlTemplate,
		sem:         make(chan struct{}, concurrency),
		transparent: blank,
	}, nil
}

// ServeHTTP handles /tiles/{z}/{y}/{x}.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c, ok := parsePath(strings.TrimPrefix(r.URL.Path, Path))
	if !ok {
		http.NotFound(w, r)
		return
	}

	tile, err := p.Fetch(r.Context(), c)
	if err != nil {
		lon, lat := geo.TileToLonLat(c.Z, c.X, c.Y)
		log.Trace().
			Err(err).
			Str("url", BuildURL(p.urlTemplate, c)).
			Float64("lon", lon).
			Float64("lat", lat).
			Msg("Serving transparent tile")
		metrics.TilesServed.WithLabelValues("fallback").Inc()

		// cache transparent tile briefly, upstream may recover
		w.Header().Set("Content-Type", "image/webp")
		w.Header().Set("Cache-Control", "public, max-age=300")
		_, _ = w.Write(p.transparent)
		return
	}

	metrics.TilesServed.WithLabelValues("upstream").Inc()
	w.Header().Set("Content-Type", "image/webp")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(tile)
}

// Fetch downloads one tile and returns it WebP encoded.
func (p *Proxy) Fetch(ctx context.Context, c Coordinate) ([]byte, error) {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-p.sem }()

	url := BuildURL(p.urlTemplate, c)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status code %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("decode failed: %w", err)
	}

	// Filter out empty/1px tiles often returned by map servers for OOB areas
	if img.Bounds().Dx() <= 1 {
		return nil, errEmpty
	}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Lossless: false, Quality: 80}); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// BuildURL fills a tile template. {tms_y} addresses TMS servers whose rows
// count from the south.
func BuildURL(tpl string, c Coordinate) string {
	s := strings.ReplaceAll(tpl, "{z}", strconv.Itoa(c.Z))
	s = strings.ReplaceAll(s, "{x}", strconv.Itoa(c.X))
	s = strings.ReplaceAll(s, "{y}", strconv.Itoa(c.Y))

	if strings.Contains(s, "{tms_y}") {
		maxCoord := (1 << c.Z) - 1
		s = strings.ReplaceAll(s, "{tms_y}", strconv.Itoa(maxCoord-c.Y))
	}

	return s
}

// parsePath reads "z/y/x" with an optional extension on x.
func parsePath(path string) (Coordinate, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 3 {
		return Coordinate{}, false
	}

	xs := parts[2]
	if i := strings.IndexByte(xs, '.'); i >= 0 {
		xs = xs[:i]
	}

	z, errZ := strconv.Atoi(parts[0])
	y, errY := strconv.Atoi(parts[1])
	x, errX := strconv.Atoi(xs)
	if errZ != nil || errY != nil || errX != nil {
		return Coordinate{}, false
	}
	if !geo.TileInRange(z, x, y) {
		return Coordinate{}, false
	}

	return Coordinate{Z: z, X: x, Y: y}, true
}

func transparentTile() ([]byte, error) {
	img := image.NewNRGBA(image.Rect(0, 0, 256, 256))

	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Lossless: true}); err != nil {
		return nil, fmt.Errorf("encode transparent tile: %w", err)
	}
	return buf.Bytes(), nil
}

// DefaultClient is tuned for many small tile requests to one host.
func DefaultClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
		},
		Timeout: 15 * time.Second,
	}
}
