// Package atlas composes the earthquake map: viewport, base imagery,
// overlays, legend and layer control.
package atlas

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/QJones76/leaflet-challenge/internal/config"
	"github.com/QJones76/leaflet-challenge/internal/legend"
	"github.com/QJones76/leaflet-challenge/internal/metrics"
	"github.com/QJones76/leaflet-challenge/internal/plates"
	"github.com/QJones76/leaflet-challenge/internal/quake"

	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"
)

// Overlay keys and display names.
const (
	EarthquakesKey  = "earthquakes"
	EarthquakesName = "Earthquakes"
	PlatesKey       = "plates"
	PlatesName      = "Tectonic Plates"
)

// Fetcher downloads the raw features of a GeoJSON FeatureCollection.
type Fetcher interface {
	Fetch(ctx context.Context, name, url string) ([]json.RawMessage, error)
}

// Viewport is the initial map view.
type Viewport struct {
	Center [2]float64 `json:"center" yaml:"center"` // [Lat, Lon]
	Zoom   int        `json:"zoom" yaml:"zoom"`
}

// BaseLayer is the single, non-removable imagery layer.
type BaseLayer struct {
	URL         string `json:"url" yaml:"url"`
	Attribution string `json:"attribution" yaml:"attribution"`
}

// Status reports how an overlay's fetch went.
type Status struct {
	Loaded   bool   `json:"loaded" yaml:"loaded"`
	Features int    `json:"features" yaml:"features"`
	Skipped  int    `json:"skipped" yaml:"skipped"`
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Overlay is a togglable group of features drawn above the base layer.
type Overlay struct {
	Key    string `json:"key" yaml:"key"`
	Name   string `json:"name" yaml:"name"`
	Status Status `json:"status" yaml:"status"`

	Quakes *quake.Layer  `json:"-" yaml:"quakes,omitempty"`
	Plates *plates.Layer `json:"-" yaml:"plates,omitempty"`
}

// GeoJSON returns the styled features of a loaded overlay, or nil.
func (o *Overlay) GeoJSON() *geojson.FeatureCollection {
	switch {
	case o.Quakes != nil:
		return o.Quakes.GeoJSON()
	case o.Plates != nil:
		return o.Plates.GeoJSON()
	}
	return nil
}

// Atlas is the application state shared by every handler.
type Atlas struct {
	Viewport Viewport       `json:"viewport" yaml:"viewport"`
	Base     BaseLayer      `json:"base" yaml:"base"`
	Overlays []*Overlay     `json:"overlays" yaml:"overlays"`
	Legend   *legend.Legend `json:"legend,omitempty" yaml:"legend,omitempty"`
	Control  *LayerControl  `json:"control" yaml:"control"`
	BuiltAt  time.Time      `json:"built_at" yaml:"built_at"`
}

// Overlay looks up an overlay by key.
func (a *Atlas) Overlay(key string) (*Overlay, bool) {
	for _, o := range a.Overlays {
		if o.Key == key {
			return o, true
		}
	}
	return nil, false
}

// Builder fetches both feeds and assembles an Atlas.
type Builder struct {
	cfg     *config.Config
	fetcher Fetcher
	now     func() time.Time
}

// NewBuilder creates a builder bound to a configuration and a feed client.
func NewBuilder(cfg *config.Config, fetcher Fetcher) *Builder {
	return &Builder{cfg: cfg, fetcher: fetcher, now: time.Now}
}

// Build issues both feed fetches at once and composes the map after both
// have resolved. A failed feed leaves its overlay unavailable with the
// error recorded; it never prevents the rest of the map from being built.
func (b *Builder) Build(ctx context.Context) *Atlas {
	a := &Atlas{
		Viewport: Viewport{
			Center: [2]float64{b.cfg.Map.Lat, b.cfg.Map.Lon},
			Zoom:   b.cfg.Map.Zoom,
		},
		Base: BaseLayer{
			URL:         b.cfg.Base.URL,
			Attribution: b.cfg.Base.Attribution,
		},
	}

	ctx, cancel := context.WithTimeout(ctx, b.cfg.Timeout)
	defer cancel()

	var (
		wg     sync.WaitGroup
		quakes = &Overlay{Key: EarthquakesKey, Name: EarthquakesName}
		bounds = &Overlay{Key: PlatesKey, Name: PlatesName}
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		b.load(ctx, quakes, b.cfg.Feeds.Earthquakes, func(raws []json.RawMessage) (int, int) {
			quakes.Quakes = quake.BuildLayer(raws)
			return len(quakes.Quakes.Markers), quakes.Quakes.Skipped
		})
	}()
	go func() {
		defer wg.Done()
		b.load(ctx, bounds, b.cfg.Feeds.Plates, func(raws []json.RawMessage) (int, int) {
			bounds.Plates = plates.BuildLayer(raws)
			return len(bounds.Plates.Lines), bounds.Plates.Skipped
		})
	}()
	wg.Wait()

	a.Overlays = []*Overlay{quakes, bounds}

	// the legend explains the earthquake markers only
	if quakes.Status.Loaded {
		a.Legend = legend.New()
	}

	a.Control = NewLayerControl(a.Overlays)
	a.BuiltAt = b.now()

	log.Info().
		Bool("earthquakes", quakes.Status.Loaded).
		Int("markers", quakes.Status.Features).
		Bool("plates", bounds.Status.Loaded).
		Int("lines", bounds.Status.Features).
		Msg("Map assembled")

	return a
}

// load runs one guarded fetch and records its outcome on o.
func (b *Builder) load(ctx context.Context, o *Overlay, url string, build func([]json.RawMessage) (int, int)) {
	raws, err := b.fetcher.Fetch(ctx, o.Key, url)
	if err != nil {
		o.Status = Status{Error: fmt.Sprintf("%s could not be loaded: %v", o.Name, err)}
		log.Warn().
			Err(err).
			Str("layer", o.Key).
			Str("source", url).
			Msg("Overlay left out of the map")
		return
	}

	features, skipped := build(raws)
	o.Status = Status{Loaded: true, Features: features, Skipped: skipped}

	metrics.LayerFeatures.WithLabelValues(o.Key).Set(float64(features))
	if skipped > 0 {
		metrics.FeaturesSkipped.WithLabelValues(o.Key).Add(float64(skipped))
		log.Warn().
			Str("layer", o.Key).
			Int("skipped", skipped).
			Msg("Malformed features skipped")
	}

	log.Debug().
		Str("layer", o.Key).
		Int("features", features).
		Msg("Overlay built")
}
