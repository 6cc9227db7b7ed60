// Package quake turns earthquake features into styled circle markers.
package quake

// Depth band colors, shallow to deep.
const (
	ColorShallow  = "#00ff00"
	ColorDepth10  = "#66ff66"
	ColorDepth30  = "#ccff33"
	ColorDepth50  = "#ffcc00"
	ColorDepth70  = "#ff6600"
	ColorDepth90  = "#ff0000"
	strokeColor   = "#000000"
	strokeWeight  = 0.5
	radiusScale   = 3
	minimumRadius = 1
)

// Color maps a hypocenter depth in km to a fill color. Band edges belong to
// the shallower band.
func Color(depth float64) string {
	switch {
	case depth > 90:
		return ColorDepth90
	case depth > 70:
		return ColorDepth70
	case depth > 50:
		return ColorDepth50
	case depth > 30:
		return ColorDepth30
	case depth > 10:
		return ColorDepth10
	default:
		return ColorShallow
	}
}

// Radius maps a magnitude to a marker radius in pixels.
// Zero and negative magnitudes get a minimal visible marker.
func Radius(mag float64) float64 {
	if mag > 0 {
		return mag * radiusScale
	}
	return minimumRadius
}

// Style holds Leaflet path options for a circle marker.
type Style struct {
	Radius      float64 `json:"radius" yaml:"radius"`
	FillColor   string  `json:"fillColor" yaml:"fill_color"`
	FillOpacity float64 `json:"fillOpacity" yaml:"fill_opacity"`
	Color       string  `json:"color" yaml:"color"`
	Weight      float64 `json:"weight" yaml:"weight"`
	Opacity     float64 `json:"opacity" yaml:"opacity"`
	Stroke      bool    `json:"stroke" yaml:"stroke"`
}

// StyleFor returns the marker style for an event.
func StyleFor(mag, depth float64) Style {
	return Style{
		Radius:      Radius(mag),
		FillColor:   Color(depth),
		FillOpacity: 1,
		Color:       strokeColor,
		Weight:      strokeWeight,
		Opacity:     1,
		Stroke:      true,
	}
}
