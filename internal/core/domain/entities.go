package domain

import (
	"time"

	"github.com/paulmach/orb/geojson"
)

// TransportMode is the relation route type a stop or line belongs to.
type TransportMode string

const (
	ModeBus  TransportMode = "bus"
	ModeTram TransportMode = "tram"
)

// LayerKind groups layers by what they draw.
type LayerKind string

const (
	KindBoundary LayerKind = "boundary"
	KindLines    LayerKind = "lines"
	KindStops    LayerKind = "stops"
	KindTermini  LayerKind = "termini"
)

// Well-known layer IDs, listed bottom to top.
const (
	LayerBoundary  = "boundary"
	LayerTramLines = "tram-lines"
	LayerBusLines  = "bus-lines"
	LayerBusStops  = "bus-stops"
	LayerTramStops = "tram-stops"
	LayerTermini   = "termini"
)

// Relation is one entry of a feature's "@relations" property: the OSM route
// relation the feature is a member of.
type Relation struct {
	Role    string  `json:"role,omitempty"`
	RelTags RelTags `json:"reltags"`
}

// RelTags is the subset of relation tags the map reads.
type RelTags struct {
	Route    string `json:"route,omitempty"`
	Ref      string `json:"ref,omitempty"`
	URL      string `json:"url,omitempty"`
	StopName string `json:"stop_name,omitempty"`
}

// Style holds the drawing options the browser passes to the map library.
type Style struct {
	Color       string  `json:"color,omitempty"`
	Weight      float64 `json:"weight,omitempty"`
	DashArray   string  `json:"dashArray,omitempty"`
	Opacity     float64 `json:"opacity,omitempty"`
	FillColor   string  `json:"fillColor,omitempty"`
	FillOpacity float64 `json:"fillOpacity,omitempty"`
	Radius      float64 `json:"radius,omitempty"`

	// CircleMarker draws points as circle markers instead of pins.
	CircleMarker bool `json:"circleMarker,omitempty"`
}

// RenderedFeature is a feature that passed the spatial filter, with its popup
// and, when it differs from the layer style, its own style.
type RenderedFeature struct {
	Feature *geojson.Feature `json:"feature"`
	Popup   string           `json:"popup,omitempty"`
	Style   *Style           `json:"style,omitempty"`
}

// Layer is one map layer. Layers are drawn in slice order, so later layers
// occlude earlier ones.
type Layer struct {
	ID       string            `json:"id"`
	Kind     LayerKind         `json:"kind"`
	Title    string            `json:"title"`
	Z        int               `json:"z"`
	Style    Style             `json:"style"`
	Features []RenderedFeature `json:"features"`
	BuiltAt  time.Time         `json:"built_at"`
}

// LayerSummary is a layer without its features.
type LayerSummary struct {
	ID           string    `json:"id"`
	Kind         LayerKind `json:"kind"`
	Title        string    `json:"title"`
	Z            int       `json:"z"`
	FeatureCount int       `json:"feature_count"`
	BuiltAt      time.Time `json:"built_at"`
}

// Summary returns the layer without its features.
func (l *Layer) Summary() LayerSummary {
	return LayerSummary{
		ID:           l.ID,
		Kind:         l.Kind,
		Title:        l.Title,
		Z:            l.Z,
		FeatureCount: len(l.Features),
		BuiltAt:      l.BuiltAt,
	}
}

// View is the initial map viewport.
type View struct {
	Center GeoPoint `json:"center"`
	Zoom   int      `json:"zoom"`
	Bounds *Bounds  `json:"bounds,omitempty"`
}

// TileLayer describes the base map tiles.
type TileLayer struct {
	URL         string `json:"url"`
	MaxZoom     int    `json:"max_zoom"`
	Attribution string `json:"attribution"`
}

// LegendEntry is one row of the legend panel.
type LegendEntry struct {
	Label    string `json:"label"`
	Color    string `json:"color"`
	Symbol   string `json:"symbol"` // "line", "dashed-line" or "circle"
	Category string `json:"category,omitempty"`
}

// MapDocument is everything the browser needs to draw the map.
type MapDocument struct {
	View       View          `json:"view"`
	Tiles      TileLayer     `json:"tiles"`
	Layers     []Layer       `json:"layers"`
	Legend     []LegendEntry `json:"legend"`
	LegendHTML string        `json:"legend_html"`
	RenderedAt time.Time     `json:"rendered_at"`
}

// Layer returns the layer with the given ID, or nil.
func (d *MapDocument) Layer(id string) *Layer {
	for i := range d.Layers {
		if d.Layers[i].ID == id {
			return &d.Layers[i]
		}
	}
	return nil
}

// StopInfo is the popup data of a single rendered stop.
type StopInfo struct {
	Name     string        `json:"name"`
	Mode     TransportMode `json:"mode"`
	Routes   []string      `json:"routes"`
	Location GeoPoint      `json:"location"`
}

// TerminusInfo is the popup data of a single rendered terminus facility.
type TerminusInfo struct {
	Name        string   `json:"name"`
	Type        string   `json:"type,omitempty"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	Meaning     string   `json:"meaning,omitempty"`
	Color       string   `json:"color"`
	Location    GeoPoint `json:"location"`
}

// Dataset is a stored GeoJSON resource.
type Dataset struct {
	Name      string                     `json:"name"`
	Source    string                     `json:"source,omitempty"`
	Features  int                        `json:"features"`
	Data      *geojson.FeatureCollection `json:"-"`
	UpdatedAt time.Time                  `json:"updated_at"`
}

// DatasetUpdate announces that a dataset changed.
type DatasetUpdate struct {
	Name      string    `json:"name"`
	Source    string    `json:"source,omitempty"`
	Features  int       `json:"features"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MapUpdate announces that a new map document is available.
type MapUpdate struct {
	Layers     []string  `json:"layers"`
	RenderedAt time.Time `json:"rendered_at"`
}
