// Package server handles HTTP requests and middleware.
package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/QJones76/leaflet-challenge/internal/atlas"
)

const layersPath = "/api/layers/"

// HandleIndex serves the main HTML application.
func (s *ServerContext) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && strings.Contains(r.URL.Path, ".") {
		http.NotFound(w, r)
		return
	}

	if match := r.Header.Get("If-None-Match"); match == s.IndexETag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("ETag", s.IndexETag)
	w.Header().Set("Cache-Control", "public, no-cache")
	_, _ = w.Write(s.IndexHTML)
}

// HandleFavicon serves the site favicon.
func (s *ServerContext) HandleFavicon(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(s.Favicon)
}

// HandleMap serves the composed map document the page draws from.
func (s *ServerContext) HandleMap(w http.ResponseWriter, r *http.Request) {
	a := s.current(w)
	if a == nil {
		return
	}

	doc, err := a.Document(s.documentOptions())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not render map document")
		return
	}

	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, "application/json", doc)
}

// HandleLayer serves the styled GeoJSON of one overlay.
func (s *ServerContext) HandleLayer(w http.ResponseWriter, r *http.Request) {
	key := strings.Trim(strings.TrimPrefix(r.URL.Path, layersPath), "/")
	key = strings.TrimSuffix(key, ".geojson")

	a := s.current(w)
	if a == nil {
		return
	}

	o, ok := a.Overlay(key)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown layer")
		return
	}
	if !o.Status.Loaded {
		writeError(w, http.StatusServiceUnavailable, o.Status.Error)
		return
	}

	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Last-Modified", a.BuiltAt.UTC().Format(http.TimeFormat))
	writeJSON(w, "application/geo+json", o.GeoJSON())
}

// HandleLegend serves the legend panel as an HTML fragment.
func (s *ServerContext) HandleLegend(w http.ResponseWriter, r *http.Request) {
	a := s.current(w)
	if a == nil {
		return
	}
	if a.Legend == nil {
		writeError(w, http.StatusServiceUnavailable, "legend is shown once earthquake data loads")
		return
	}

	html, err := a.Legend.HTML()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not render legend")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(html))
}

type statusResponse struct {
	BuiltAt  time.Time       `json:"built_at"`
	Overlays []overlayStatus `json:"overlays"`
}

type overlayStatus struct {
	Key    string       `json:"key"`
	Name   string       `json:"name"`
	Status atlas.Status `json:"status"`
}

// HandleStatus reports how each feed fetch went.
func (s *ServerContext) HandleStatus(w http.ResponseWriter, r *http.Request) {
	a := s.current(w)
	if a == nil {
		return
	}

	resp := statusResponse{BuiltAt: a.BuiltAt, Overlays: make([]overlayStatus, 0, len(a.Overlays))}
	for _, o := range a.Overlays {
		resp.Overlays = append(resp.Overlays, overlayStatus{Key: o.Key, Name: o.Name, Status: o.Status})
	}
	writeJSON(w, "application/json", resp)
}

// HandleHealth answers once the first map has been assembled.
func (s *ServerContext) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if s.Keeper.Current() == nil {
		http.Error(w, "starting", http.StatusServiceUnavailable)
		return
	}
	_, _ = w.Write([]byte("ok"))
}

// current returns the current map or answers 503 while it is being built.
func (s *ServerContext) current(w http.ResponseWriter) *atlas.Atlas {
	a := s.Keeper.Current()
	if a == nil {
		writeError(w, http.StatusServiceUnavailable, "map is still loading")
	}
	return a
}

func writeJSON(w http.ResponseWriter, contentType string, v any) {
	w.Header().Set("Content-Type", contentType)
	// Ignoring error as we cannot handle client disconnects
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
