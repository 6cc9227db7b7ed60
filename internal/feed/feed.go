// Package feed downloads GeoJSON feature collections over HTTP.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/QJones76/leaflet-challenge/internal/geo"
	"github.com/QJones76/leaflet-challenge/internal/metrics"

	"github.com/rs/zerolog/log"
)

// maxBody caps a feed document. The weekly USGS feed is a few MB.
const maxBody = 64 << 20

// Client fetches feeds with a shared HTTP client.
type Client struct {
	http *http.Client
}

// New creates a feed client whose requests time out after timeout.
func New(timeout time.Duration) *Client {
	return &Client{
		http: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConnsPerHost: 4,
			},
			Timeout: timeout,
		},
	}
}

// Fetch downloads url and returns the raw features of its FeatureCollection.
// name labels the feed in logs and metrics.
func (c *Client) Fetch(ctx context.Context, name, url string) ([]json.RawMessage, error) {
	start := time.Now()
	features, err := c.fetch(ctx, url)
	metrics.FeedFetchDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.FeedFetchErrors.WithLabelValues(name).Inc()
		return nil, fmt.Errorf("fetch %s: %w", name, err)
	}

	log.Debug().
		Str("feed", name).
		Int("features", len(features)).
		Dur("duration", time.Since(start)).
		Msg("Feed downloaded")

	return features, nil
}

func (c *Client) fetch(ctx context.Context, url string) ([]json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	// Explicitly ignore close error as it's a read-only operation
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, err
	}

	fc, err := geo.DecodeCollection(body)
	if err != nil {
		return nil, err
	}

	return fc.Features, nil
}
