// Package page assembles the minified single page map application.
package page

import (
	"bytes"
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/QJones76/leaflet-challenge/assets"
	"github.com/QJones76/leaflet-challenge/internal/atlas"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	"github.com/tdewolff/minify/v2/svg"
)

const title = "Earthquakes of the Past Week"

// PageData fills the index template.
type PageData struct {
	Title    string
	CSS      string
	JS       string
	Document string
}

// Renderer holds the minified assets.
type Renderer struct {
	m       *minify.M
	tmpl    *template.Template
	css     string
	js      string
	favicon []byte
}

// New minifies the embedded assets once.
func New() (*Renderer, error) {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("text/html", html.Minify)
	m.AddFunc("text/javascript", js.Minify)
	m.AddFunc("image/svg+xml", svg.Minify)

	cssMin, err := m.String("text/css", assets.Style)
	if err != nil {
		return nil, fmt.Errorf("minify CSS: %w", err)
	}
	jsMin, err := m.String("text/javascript", assets.Script)
	if err != nil {
		return nil, fmt.Errorf("minify JS: %w", err)
	}
	svgMin, err := m.String("image/svg+xml", assets.Favicon)
	if err != nil {
		return nil, fmt.Errorf("minify SVG: %w", err)
	}

	tmpl, err := template.New("index").Parse(assets.IndexTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}

	return &Renderer{
		m:       m,
		tmpl:    tmpl,
		css:     cssMin,
		js:      jsMin,
		favicon: []byte(svgMin),
	}, nil
}

// Index renders the page that loads the map document from /api/map.
func (r *Renderer) Index() ([]byte, error) {
	return r.render(PageData{Title: title, CSS: r.css, JS: r.js})
}

// Standalone renders a self-contained page with doc inlined.
func (r *Renderer) Standalone(doc *atlas.Document) ([]byte, error) {
	// json.Marshal escapes <, > and &, so the payload cannot close the script tag
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	return r.render(PageData{Title: title, CSS: r.css, JS: r.js, Document: string(data)})
}

// Favicon returns the minified SVG icon.
func (r *Renderer) Favicon() []byte {
	return r.favicon
}

func (r *Renderer) render(data PageData) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("execute template: %w", err)
	}

	var out bytes.Buffer
	if err := r.m.Minify("text/html", &out, &buf); err != nil {
		return nil, fmt.Errorf("minify HTML: %w", err)
	}
	return out.Bytes(), nil
}
