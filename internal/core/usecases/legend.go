package usecases

import (
	"bytes"
	"html/template"

	"github.com/samirrijal/districtmap/internal/core/domain"
)

// Legend returns the static legend rows: lines, stops, then terminus categories.
func Legend() []domain.LegendEntry {
	entries := []domain.LegendEntry{
		{Label: "Linia tramwajowa", Color: lineStyles[domain.ModeTram].Color, Symbol: "line"},
		{Label: "Linia autobusowa", Color: lineStyles[domain.ModeBus].Color, Symbol: "dashed-line"},
		{Label: "Przystanek tramwajowy", Color: modeColors[domain.ModeTram], Symbol: "circle"},
		{Label: "Przystanek autobusowy", Color: modeColors[domain.ModeBus], Symbol: "circle"},
	}
	for _, c := range TerminusCategories {
		entries = append(entries, domain.LegendEntry{
			Label:    c.Meaning,
			Color:    c.Color,
			Symbol:   "circle",
			Category: c.Code,
		})
	}
	return entries
}

var legendTmpl = template.Must(template.New("legend").Parse(
	`<div class="legend"><h4>Legenda</h4>` +
		`{{range .}}<div class="legend-row">` +
		`{{if eq .Symbol "circle"}}<span class="legend-circle" style="background:{{.Color}}"></span>` +
		`{{else if eq .Symbol "dashed-line"}}<span class="legend-line" style="border-top:3px dashed {{.Color}}"></span>` +
		`{{else}}<span class="legend-line" style="border-top:3px solid {{.Color}}"></span>{{end}}` +
		` {{.Label}}</div>{{end}}</div>`))

// LegendHTML renders the legend panel.
func LegendHTML(entries []domain.LegendEntry) (string, error) {
	var buf bytes.Buffer
	if err := legendTmpl.Execute(&buf, entries); err != nil {
		return "", err
	}
	return buf.String(), nil
}
