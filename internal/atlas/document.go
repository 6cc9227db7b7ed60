package atlas

import (
	"time"

	"github.com/paulmach/orb/geojson"
)

// Document is what the page needs to draw the map.
type Document struct {
	Viewport Viewport       `json:"viewport"`
	Base     BaseLayer      `json:"base"`
	Overlays []OverlayEntry `json:"overlays"`
	Legend   *LegendEntry   `json:"legend,omitempty"`
	Control  ControlState   `json:"control"`
	Notices  []string       `json:"notices,omitempty"`
	BuiltAt  time.Time      `json:"built_at"`
}

// OverlayEntry points the page at an overlay's features, either by URL or
// inline.
type OverlayEntry struct {
	Key     string                     `json:"key"`
	Name    string                     `json:"name"`
	Visible bool                       `json:"visible"`
	Status  Status                     `json:"status"`
	URL     string                     `json:"url,omitempty"`
	Data    *geojson.FeatureCollection `json:"data,omitempty"`
}

// LegendEntry places the rendered legend panel.
type LegendEntry struct {
	Position string `json:"position"`
	HTML     string `json:"html"`
}

// DocumentOptions adjusts the document for where it is served.
type DocumentOptions struct {
	// TileURL replaces the base layer template, e.g. with a local proxy.
	TileURL string
	// LayerURL maps an overlay key to the URL serving its GeoJSON.
	// When nil the features are inlined.
	LayerURL func(key string) string
}

// Document renders the current state. Overlays that failed to load are
// listed with their error and turned into user visible notices.
func (a *Atlas) Document(opts DocumentOptions) (*Document, error) {
	doc := &Document{
		Viewport: a.Viewport,
		Base:     a.Base,
		Control:  ControlState{Collapsed: a.Control.Collapsed(), Entries: a.Control.Entries()},
		BuiltAt:  a.BuiltAt,
	}
	if opts.TileURL != "" {
		doc.Base.URL = opts.TileURL
	}

	for _, o := range a.Overlays {
		entry := OverlayEntry{
			Key:     o.Key,
			Name:    o.Name,
			Visible: a.Control.Visible(o.Key),
			Status:  o.Status,
		}
		if o.Status.Loaded {
			if opts.LayerURL != nil {
				entry.URL = opts.LayerURL(o.Key)
			} else {
				entry.Data = o.GeoJSON()
			}
		} else {
			doc.Notices = append(doc.Notices, o.Status.Error)
		}
		doc.Overlays = append(doc.Overlays, entry)
	}

	if a.Legend != nil {
		html, err := a.Legend.HTML()
		if err != nil {
			return nil, err
		}
		doc.Legend = &LegendEntry{Position: a.Legend.Position, HTML: html}
	}

	return doc, nil
}
