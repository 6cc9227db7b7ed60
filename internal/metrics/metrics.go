// Package metrics exposes Prometheus instrumentation for feeds, tiles and HTTP.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quakemap",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "quakemap",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "route"})

	// Feed metrics
	FeedFetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "quakemap",
		Subsystem: "feed",
		Name:      "fetch_duration_seconds",
		Help:      "Duration of GeoJSON feed fetches",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"feed"})

	FeedFetchErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quakemap",
		Subsystem: "feed",
		Name:      "fetch_errors_total",
		Help:      "Total failed GeoJSON feed fetches",
	}, []string{"feed"})

	FeaturesSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quakemap",
		Subsystem: "feed",
		Name:      "features_skipped_total",
		Help:      "Features dropped because required fields were missing",
	}, []string{"feed"})

	LayerFeatures = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "quakemap",
		Subsystem: "layer",
		Name:      "features",
		Help:      "Number of features in the last built overlay",
	}, []string{"layer"})

	// Tile proxy metrics
	TilesServed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quakemap",
		Subsystem: "tiles",
		Name:      "served_total",
		Help:      "Tiles served by the proxy, by outcome",
	}, []string{"outcome"})
)

// Handler serves the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveRequest records a finished HTTP request.
func ObserveRequest(method, route string, status int, elapsed time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
