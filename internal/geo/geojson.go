// Package geo handles geographic data structures and coordinate conversions.
package geo

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotCollection is returned for documents that are not a FeatureCollection.
var ErrNotCollection = errors.New("not a GeoJSON FeatureCollection")

// Collection is a FeatureCollection whose features are kept undecoded,
// so each one can be validated on its own.
type Collection struct {
	Type     string            `json:"type"`
	Features []json.RawMessage `json:"features"`
}

// DecodeCollection parses a FeatureCollection document.
func DecodeCollection(data []byte) (*Collection, error) {
	var c Collection
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	if c.Type != "FeatureCollection" {
		return nil, fmt.Errorf("%w: type %q", ErrNotCollection, c.Type)
	}
	return &c, nil
}

// Feature represents a single geographic feature with geometry and properties.
type Feature struct {
	Properties map[string]any `json:"properties"`
	Type       string         `json:"type"`
	Geometry   *Geometry      `json:"geometry"`
}

// Geometry of a Point feature. Coordinates hold every position member,
// so the third one (depth or elevation) survives decoding.
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"` // [Lon, Lat, Depth]
}

// Number returns a numeric property.
func (f *Feature) Number(key string) (float64, bool) {
	v, ok := f.Properties[key].(float64)
	return v, ok
}

// Null reports whether a property is present with a JSON null value.
func (f *Feature) Null(key string) bool {
	v, ok := f.Properties[key]
	return ok && v == nil
}

// Text returns a string property.
func (f *Feature) Text(key string) (string, bool) {
	v, ok := f.Properties[key].(string)
	return v, ok
}
