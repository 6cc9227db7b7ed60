package quake

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"strconv"

	"github.com/QJones76/leaflet-challenge/internal/geo"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ErrMalformedFeature marks a feature lacking a field the styler reads.
var ErrMalformedFeature = errors.New("malformed earthquake feature")

// Marker is a styled circle marker for one earthquake.
type Marker struct {
	Lat       float64 `json:"lat" yaml:"lat"`
	Lon       float64 `json:"lon" yaml:"lon"`
	Depth     float64 `json:"depth" yaml:"depth"`
	Magnitude float64 `json:"mag" yaml:"mag"`
	Place     string  `json:"place" yaml:"place"`
	Style     Style   `json:"style" yaml:"style"`
	Popup     string  `json:"popup" yaml:"popup"`
}

// Popup renders the popup body shown when a marker is clicked.
func Popup(place string, mag, depth float64) string {
	return "<strong>Location:</strong> " + html.EscapeString(place) +
		"<br><strong>Magnitude:</strong> " + formatNumber(mag) +
		"<br><strong>Depth:</strong> " + formatNumber(depth) + " km"
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// MarkerFromFeature decodes and validates one GeoJSON feature.
func MarkerFromFeature(raw json.RawMessage) (Marker, error) {
	var f geo.Feature
	if err := json.Unmarshal(raw, &f); err != nil {
		return Marker{}, fmt.Errorf("%w: %v", ErrMalformedFeature, err)
	}

	// reviewed events may carry "mag": null; they are plotted at the minimum radius
	mag, ok := f.Number("mag")
	if !ok && !f.Null("mag") {
		return Marker{}, fmt.Errorf("%w: properties.mag missing or not a number", ErrMalformedFeature)
	}
	place, ok := f.Text("place")
	if !ok {
		return Marker{}, fmt.Errorf("%w: properties.place missing or not a string", ErrMalformedFeature)
	}
	if f.Geometry == nil || len(f.Geometry.Coordinates) < 3 {
		return Marker{}, fmt.Errorf("%w: geometry.coordinates needs lon, lat and depth", ErrMalformedFeature)
	}

	lon, lat, depth := f.Geometry.Coordinates[0], f.Geometry.Coordinates[1], f.Geometry.Coordinates[2]
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return Marker{}, fmt.Errorf("%w: position %g,%g out of range", ErrMalformedFeature, lat, lon)
	}

	return Marker{
		Lat:       lat,
		Lon:       lon,
		Depth:     depth,
		Magnitude: mag,
		Place:     place,
		Style:     StyleFor(mag, depth),
		Popup:     Popup(place, mag, depth),
	}, nil
}

// Layer is the earthquake overlay.
type Layer struct {
	Markers []Marker `json:"markers" yaml:"markers"`
	Skipped int      `json:"skipped" yaml:"skipped"`
}

// BuildLayer converts raw features into markers. Malformed features are
// counted and skipped; they never abort their siblings.
func BuildLayer(raws []json.RawMessage) *Layer {
	l := &Layer{Markers: make([]Marker, 0, len(raws))}
	for _, raw := range raws {
		m, err := MarkerFromFeature(raw)
		if err != nil {
			l.Skipped++
			continue
		}
		l.Markers = append(l.Markers, m)
	}
	return l
}

// GeoJSON encodes the layer as a FeatureCollection whose properties carry
// everything the page needs to draw and bind popups.
func (l *Layer) GeoJSON() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, m := range l.Markers {
		f := geojson.NewFeature(orb.Point{m.Lon, m.Lat})
		f.Properties["mag"] = m.Magnitude
		f.Properties["place"] = m.Place
		f.Properties["depth"] = m.Depth
		f.Properties["style"] = m.Style
		f.Properties["popup"] = m.Popup
		fc.Append(f)
	}
	return fc
}
