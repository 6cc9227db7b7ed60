// Package plates turns tectonic boundary features into styled polylines.
package plates

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ErrMalformedFeature marks a boundary feature without a usable line geometry.
var ErrMalformedFeature = errors.New("malformed plate boundary feature")

// Style holds Leaflet path options shared by every boundary line.
type Style struct {
	Color  string  `json:"color" yaml:"color"`
	Weight float64 `json:"weight" yaml:"weight"`
}

// LineStyle is the fixed boundary style.
var LineStyle = Style{Color: "orange", Weight: 2}

// Paths extracts the line paths of one feature. A MultiLineString yields
// one path per member; polygon rings are drawn as closed paths.
func Paths(raw json.RawMessage) ([]orb.LineString, error) {
	f, err := geojson.UnmarshalFeature(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFeature, err)
	}

	var paths []orb.LineString
	switch g := f.Geometry.(type) {
	case orb.LineString:
		paths = append(paths, g)
	case orb.MultiLineString:
		paths = append(paths, g...)
	case orb.Polygon:
		for _, r := range g {
			paths = append(paths, orb.LineString(r))
		}
	case orb.MultiPolygon:
		for _, p := range g {
			for _, r := range p {
				paths = append(paths, orb.LineString(r))
			}
		}
	case nil:
		return nil, fmt.Errorf("%w: missing geometry", ErrMalformedFeature)
	default:
		return nil, fmt.Errorf("%w: unsupported geometry %s", ErrMalformedFeature, g.GeoJSONType())
	}

	kept := paths[:0]
	for _, p := range paths {
		if len(p) >= 2 {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("%w: no path with two or more positions", ErrMalformedFeature)
	}

	return kept, nil
}

// Layer is the tectonic plate overlay.
type Layer struct {
	Lines   []orb.LineString `json:"-" yaml:"lines"`
	Skipped int              `json:"skipped" yaml:"skipped"`
}

// BuildLayer converts raw boundary features, skipping malformed ones.
func BuildLayer(raws []json.RawMessage) *Layer {
	l := &Layer{Lines: make([]orb.LineString, 0, len(raws))}
	for _, raw := range raws {
		paths, err := Paths(raw)
		if err != nil {
			l.Skipped++
			continue
		}
		l.Lines = append(l.Lines, paths...)
	}
	return l
}

// GeoJSON encodes every polyline as a styled LineString feature.
func (l *Layer) GeoJSON() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, line := range l.Lines {
		f := geojson.NewFeature(line)
		f.Properties["style"] = LineStyle
		fc.Append(f)
	}
	return fc
}
