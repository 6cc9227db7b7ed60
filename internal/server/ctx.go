package server

import (
	"fmt"
	"hash/crc32"
	"net/http"

	"github.com/QJones76/leaflet-challenge/internal/atlas"
	"github.com/QJones76/leaflet-challenge/internal/metrics"
	"github.com/QJones76/leaflet-challenge/internal/page"
	"github.com/QJones76/leaflet-challenge/internal/tiles"

	"github.com/rs/zerolog/log"
)

// ServerContext holds dependencies for request handlers.
type ServerContext struct {
	Keeper    *atlas.Keeper
	Tiles     *tiles.Proxy
	IndexHTML []byte
	IndexETag string
	Favicon   []byte
}

// NewServerContext renders the static page once. tileProxy may be nil, in
// which case the page links the upstream imagery directly.
func NewServerContext(keeper *atlas.Keeper, renderer *page.Renderer, tileProxy *tiles.Proxy) (*ServerContext, error) {
	index, err := renderer.Index()
	if err != nil {
		return nil, fmt.Errorf("render index: %w", err)
	}

	log.Info().
		Int("index_bytes", len(index)).
		Bool("tile_proxy", tileProxy != nil).
		Msg("Server context initialized successfully")

	return &ServerContext{
		Keeper:    keeper,
		Tiles:     tileProxy,
		IndexHTML: index,
		IndexETag: fmt.Sprintf(`"%08x"`, crc32.ChecksumIEEE(index)),
		Favicon:   renderer.Favicon(),
	}, nil
}

// Routes returns the full handler tree wrapped in request logging.
func (s *ServerContext) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/map", s.HandleMap)
	mux.HandleFunc("GET /api/layers/", s.HandleLayer)
	mux.HandleFunc("GET /api/legend", s.HandleLegend)
	mux.HandleFunc("GET /api/status", s.HandleStatus)
	mux.HandleFunc("GET /healthz", s.HandleHealth)
	mux.HandleFunc("GET /favicon.ico", s.HandleFavicon)
	mux.Handle("GET /metrics", metrics.Handler())
	if s.Tiles != nil {
		mux.Handle("GET "+tiles.Path, s.Tiles)
	}
	mux.HandleFunc("GET /", s.HandleIndex)

	return RequestLogger(mux)
}

// documentOptions points the page at this server's endpoints.
func (s *ServerContext) documentOptions() atlas.DocumentOptions {
	opts := atlas.DocumentOptions{
		LayerURL: func(key string) string { return layersPath + key },
	}
	if s.Tiles != nil {
		opts.TileURL = tiles.Template
	}
	return opts
}
