// Package legend builds the static panel explaining the marker encoding.
package legend

import (
	"bytes"
	"html/template"
	"math"
	"strconv"

	"github.com/QJones76/leaflet-challenge/internal/quake"
)

var (
	depthEdges = []float64{-10, 10, 30, 50, 70, 90}
	magnitudes = []float64{5.4, 5.5, 6.0, 6.1, 6.9, 7.0, 7.9, 8.0}
)

// DepthRow is one depth band with its swatch color.
type DepthRow struct {
	Label string `json:"label" yaml:"label"`
	Color string `json:"color" yaml:"color"`
}

// MagnitudeRow is one sample magnitude with its swatch diameter in pixels.
type MagnitudeRow struct {
	Label    string  `json:"label" yaml:"label"`
	Diameter float64 `json:"diameter" yaml:"diameter"`
}

// Legend describes the depth color and magnitude size encodings.
type Legend struct {
	Position   string         `json:"position" yaml:"position"`
	Depths     []DepthRow     `json:"depths" yaml:"depths"`
	Magnitudes []MagnitudeRow `json:"magnitudes" yaml:"magnitudes"`
}

// New builds the legend from the same functions that style the markers.
func New() *Legend {
	l := &Legend{
		Position:   "bottomright",
		Depths:     make([]DepthRow, 0, len(depthEdges)),
		Magnitudes: make([]MagnitudeRow, 0, len(magnitudes)),
	}

	for i, lo := range depthEdges {
		label := formatEdge(lo) + "+"
		hi := math.Inf(1)
		if i+1 < len(depthEdges) {
			hi = depthEdges[i+1]
			label = formatEdge(lo) + " – " + formatEdge(hi)
		}
		// band upper edges resolve to the band itself
		l.Depths = append(l.Depths, DepthRow{Label: label, Color: quake.Color(hi)})
	}

	for _, m := range magnitudes {
		l.Magnitudes = append(l.Magnitudes, MagnitudeRow{
			Label:    strconv.FormatFloat(m, 'f', 1, 64),
			Diameter: math.Round(quake.Radius(m)*100) / 100,
		})
	}

	return l
}

func formatEdge(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

var panel = template.Must(template.New("legend").Parse(
	`<div class="info legend" style="background: rgba(255, 255, 255, 0.8); padding: 8px; border: 1px solid black; border-radius: 5px; font-size: 12px;">` +
		`<strong>Depth (km)</strong><br>` +
		`{{range .Depths}}<i style="background: {{.Color}}; width: 10px; height: 10px; display: inline-block;"></i> {{.Label}}<br>{{end}}` +
		`<br><strong>Magnitude</strong><br>` +
		`{{range .Magnitudes}}<i style="width: {{.Diameter}}px; height: {{.Diameter}}px; background: black; border-radius: 50%; display: inline-block; margin-right: 5px;"></i>{{.Label}}<br>{{end}}` +
		`</div>`))

// HTML renders the legend panel.
func (l *Legend) HTML() (string, error) {
	var buf bytes.Buffer
	if err := panel.Execute(&buf, l); err != nil {
		return "", err
	}
	return buf.String(), nil
}
