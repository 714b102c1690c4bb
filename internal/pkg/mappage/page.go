// Package mappage renders the browser page that draws a map document with
// Leaflet. The same page is served by the API and written by the static export.
package mappage

import (
	"embed"
	"html/template"
	"io"
)

//go:embed templates/index.html
var templates embed.FS

var pageTmpl = template.Must(template.ParseFS(templates, "templates/index.html"))

// Options selects where the page loads its data from.
type Options struct {
	Title string
	// DataURL is fetched for the map document ("/v1/map" or "map.json").
	DataURL string
	// LivePath is the WebSocket path announcing new documents. Empty disables
	// live reload, as in a static export.
	LivePath string
}

// Render writes the page.
func Render(w io.Writer, opts Options) error {
	if opts.Title == "" {
		opts.Title = "Bemowo: komunikacja miejska"
	}
	return pageTmpl.Execute(w, opts)
}
