// Package config handles configuration loading and shared data structures.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default source URLs.
const (
	EarthquakesURL = "https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary/all_week.geojson"
	PlatesURL      = "https://raw.githubusercontent.com/fraxen/tectonicplates/master/GeoJSON/PB2002_boundaries.json"
	ImageryURL     = "https://server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/{z}/{y}/{x}"

	ImageryAttribution = "Tiles &copy; Esri &mdash; Source: Esri, i-cubed, USDA, USGS, AEX, GeoEye, " +
		"Getmapping, Aerogrid, IGN, IGP, UPR-EGP, and the GIS User Community"
)

// Config represents the root configuration file structure.
type Config struct {
	Map     View          `yaml:"map" json:"map"`
	Base    Base          `yaml:"base" json:"base"`
	Feeds   Feeds         `yaml:"feeds" json:"-"`
	Timeout time.Duration `yaml:"fetch_timeout,omitempty" json:"-"`

	// Refresh rebuilds the map periodically when positive. Zero builds it once.
	Refresh time.Duration `yaml:"refresh,omitempty" json:"-"`
}

// View is the initial viewport.
type View struct {
	Lat  float64 `yaml:"lat" json:"lat"`
	Lon  float64 `yaml:"lon" json:"lon"`
	Zoom int     `yaml:"zoom" json:"zoom"`
}

// Base describes the imagery tile layer drawn below the overlays.
type Base struct {
	URL         string `yaml:"url" json:"url"`
	Attribution string `yaml:"attribution,omitempty" json:"attribution,omitempty"`

	// Proxy serves tiles through /tiles re-encoded as WebP instead of linking the upstream.
	Proxy       bool `yaml:"proxy,omitempty" json:"proxy,omitempty"`
	Concurrency int  `yaml:"concurrency,omitempty" json:"-"`
}

// Feeds holds the two GeoJSON sources.
type Feeds struct {
	Earthquakes string `yaml:"earthquakes"`
	Plates      string `yaml:"plates"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Map: View{Lat: 44.967243, Lon: -103.771556, Zoom: 5},
		Base: Base{
			URL:         ImageryURL,
			Attribution: ImageryAttribution,
			Concurrency: 16,
		},
		Feeds: Feeds{
			Earthquakes: EarthquakesURL,
			Plates:      PlatesURL,
		},
		Timeout: 30 * time.Second,
	}
}

// Load reads and parses the YAML configuration file from the specified path
// on top of the defaults. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Map.Lat < -90 || c.Map.Lat > 90 {
		errs = append(errs, fmt.Sprintf("map.lat must be -90..90, got %g", c.Map.Lat))
	}
	if c.Map.Lon < -180 || c.Map.Lon > 180 {
		errs = append(errs, fmt.Sprintf("map.lon must be -180..180, got %g", c.Map.Lon))
	}
	if c.Map.Zoom < 0 || c.Map.Zoom > 22 {
		errs = append(errs, fmt.Sprintf("map.zoom must be 0..22, got %d", c.Map.Zoom))
	}
	if !strings.Contains(c.Base.URL, "{z}") {
		errs = append(errs, "base.url must be a tile template containing {z}, {x} and {y}")
	}
	if c.Feeds.Earthquakes == "" {
		errs = append(errs, "feeds.earthquakes is required")
	}
	if c.Feeds.Plates == "" {
		errs = append(errs, "feeds.plates is required")
	}
	if c.Timeout <= 0 {
		errs = append(errs, "fetch_timeout must be positive")
	}
	if c.Refresh < 0 {
		errs = append(errs, "refresh must not be negative")
	}
	if c.Base.Proxy && c.Base.Concurrency <= 0 {
		errs = append(errs, "base.concurrency must be positive when base.proxy is enabled")
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n  - " + strings.Join(errs, "\n  - "))
	}
	return nil
}
