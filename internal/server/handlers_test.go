package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/QJones76/leaflet-challenge/internal/atlas"
	"github.com/QJones76/leaflet-challenge/internal/config"
	"github.com/QJones76/leaflet-challenge/internal/feed"
	"github.com/QJones76/leaflet-challenge/internal/page"
)

const (
	quakesDoc = `{"type":"FeatureCollection","features":[
		{"type":"Feature","properties":{"mag":4.2,"place":"10km N of X"},"geometry":{"type":"Point","coordinates":[-120.1,38.2,12.4]}},
		{"type":"Feature","properties":{"mag":5.0,"place":"no depth"},"geometry":{"type":"Point","coordinates":[-120.1,38.2]}}
	]}`
	platesDoc = `{"type":"FeatureCollection","features":[
		{"type":"Feature","properties":{"Name":"AF-AN"},"geometry":{"type":"LineString","coordinates":[[0,0],[1,1],[2,1]]}}
	]}`
)

// newTestServer wires a server against a fake feed host. A feed path
// missing from docs answers 500.
func newTestServer(t *testing.T, docs map[string]string) http.Handler {
	t.Helper()

	feeds := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := docs[r.URL.Path]
		if !ok {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(feeds.Close)

	cfg := config.Default()
	cfg.Feeds.Earthquakes = feeds.URL + "/quakes"
	cfg.Feeds.Plates = feeds.URL + "/plates"
	cfg.Timeout = 5 * time.Second

	keeper := atlas.NewKeeper(atlas.NewBuilder(cfg, feed.New(cfg.Timeout)), 0)
	keeper.Load(context.Background())

	renderer, err := page.New()
	if err != nil {
		t.Fatalf("page renderer: %v", err)
	}
	srv, err := NewServerContext(keeper, renderer, nil)
	if err != nil {
		t.Fatalf("server context: %v", err)
	}
	return srv.Routes()
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
	return rec
}

func TestIndex_ETag(t *testing.T) {
	h := newTestServer(t, map[string]string{"/quakes": quakesDoc, "/plates": platesDoc})

	rec := get(t, h, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	etag := rec.Header().Get("ETag")
	if etag == "" {
		t.Fatal("missing ETag")
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotModified {
		t.Errorf("expected 304, got %d", rec.Code)
	}

	if rec := get(t, h, "/missing.png"); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown asset, got %d", rec.Code)
	}
}

func TestMap_Document(t *testing.T) {
	h := newTestServer(t, map[string]string{"/quakes": quakesDoc, "/plates": platesDoc})

	rec := get(t, h, "/api/map")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var doc atlas.Document
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.Viewport.Zoom != 5 || doc.Base.URL != config.ImageryURL {
		t.Errorf("unexpected bootstrap: %+v %+v", doc.Viewport, doc.Base)
	}
	if len(doc.Overlays) != 2 {
		t.Fatalf("expected 2 overlays, got %d", len(doc.Overlays))
	}
	if doc.Overlays[0].URL != "/api/layers/earthquakes" || !doc.Overlays[0].Visible {
		t.Errorf("unexpected earthquake entry: %+v", doc.Overlays[0])
	}
	if doc.Overlays[0].Status.Skipped != 1 {
		t.Errorf("expected one skipped feature, got %+v", doc.Overlays[0].Status)
	}
	if doc.Overlays[1].Visible {
		t.Error("plates must start hidden")
	}
	if doc.Legend == nil || doc.Legend.Position != "bottomright" {
		t.Errorf("unexpected legend: %+v", doc.Legend)
	}
	if doc.Control.Collapsed || len(doc.Control.Entries) != 2 {
		t.Errorf("unexpected control: %+v", doc.Control)
	}
}

func TestLayer_Earthquakes(t *testing.T) {
	h := newTestServer(t, map[string]string{"/quakes": quakesDoc, "/plates": platesDoc})

	rec := get(t, h, "/api/layers/earthquakes")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/geo+json" {
		t.Errorf("unexpected content type: %s", ct)
	}

	var fc struct {
		Features []struct {
			Properties struct {
				Popup string `json:"popup"`
				Style struct {
					FillColor string  `json:"fillColor"`
					Radius    float64 `json:"radius"`
				} `json:"style"`
			} `json:"properties"`
		} `json:"features"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &fc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(fc.Features) != 1 {
		t.Fatalf("expected 1 feature, got %d", len(fc.Features))
	}
	p := fc.Features[0].Properties
	if p.Style.FillColor != "#66ff66" || !strings.Contains(p.Popup, "10km N of X") {
		t.Errorf("unexpected properties: %+v", p)
	}
}

func TestLayer_PlatesAndUnknown(t *testing.T) {
	h := newTestServer(t, map[string]string{"/quakes": quakesDoc, "/plates": platesDoc})

	if rec := get(t, h, "/api/layers/plates.geojson"); rec.Code != http.StatusOK {
		t.Errorf("expected 200 for plates, got %d", rec.Code)
	}
	if rec := get(t, h, "/api/layers/volcanoes"); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestFailedFeed_IsReportedNotFatal(t *testing.T) {
	h := newTestServer(t, map[string]string{"/quakes": quakesDoc})

	rec := get(t, h, "/api/layers/plates")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Tectonic Plates could not be loaded") {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}

	if rec := get(t, h, "/api/layers/earthquakes"); rec.Code != http.StatusOK {
		t.Errorf("earthquakes should still be served, got %d", rec.Code)
	}

	var doc atlas.Document
	if err := json.Unmarshal(get(t, h, "/api/map").Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(doc.Notices) != 1 {
		t.Errorf("expected one notice, got %v", doc.Notices)
	}
}

func TestLegend(t *testing.T) {
	h := newTestServer(t, map[string]string{"/quakes": quakesDoc, "/plates": platesDoc})

	rec := get(t, h, "/api/legend")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Depth (km)") {
		t.Errorf("unexpected legend: %s", rec.Body.String())
	}

	h = newTestServer(t, map[string]string{"/plates": platesDoc})
	if rec := get(t, h, "/api/legend"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without earthquakes, got %d", rec.Code)
	}
}

func TestStatusAndHealth(t *testing.T) {
	h := newTestServer(t, map[string]string{"/quakes": quakesDoc, "/plates": platesDoc})

	var resp statusResponse
	if err := json.Unmarshal(get(t, h, "/api/status").Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Overlays) != 2 || !resp.Overlays[0].Status.Loaded || !resp.Overlays[1].Status.Loaded {
		t.Errorf("unexpected status: %+v", resp)
	}

	if rec := get(t, h, "/healthz"); rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if rec := get(t, h, "/metrics"); rec.Code != http.StatusOK {
		t.Errorf("expected 200 from metrics, got %d", rec.Code)
	}
}

func TestHealth_BeforeLoad(t *testing.T) {
	renderer, err := page.New()
	if err != nil {
		t.Fatalf("page renderer: %v", err)
	}
	keeper := atlas.NewKeeper(atlas.NewBuilder(config.Default(), feed.New(time.Second)), 0)
	srv, err := NewServerContext(keeper, renderer, nil)
	if err != nil {
		t.Fatalf("server context: %v", err)
	}

	if rec := get(t, srv.Routes(), "/healthz"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 before load, got %d", rec.Code)
	}
	if rec := get(t, srv.Routes(), "/api/map"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 before load, got %d", rec.Code)
	}
}
