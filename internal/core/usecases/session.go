package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/paulmach/orb/geojson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/districtmap/internal/core/domain"
	"github.com/samirrijal/districtmap/internal/core/ports"
	"github.com/samirrijal/districtmap/internal/pkg/geospatial"
	"github.com/samirrijal/districtmap/internal/pkg/metrics"
	"github.com/samirrijal/districtmap/internal/pkg/telemetry"
)

var tracer = otel.Tracer("github.com/samirrijal/districtmap/internal/core/usecases")

// DatasetNames are the dataset names the pipeline fetches.
type DatasetNames struct {
	Boundary  string
	TramLines string
	BusLines  string
	Termini   string
}

// RenderOptions configures a render session.
type RenderOptions struct {
	Datasets DatasetNames
	// PlatformStopsOnly keeps only stops whose relation role marks a platform.
	PlatformStopsOnly bool
	Tiles             domain.TileLayer
	DefaultCenter     domain.GeoPoint
	DefaultZoom       int
	ViewportWidth     int
	ViewportHeight    int
}

// DefaultRenderOptions returns the Bemowo map defaults.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{
		Datasets: DatasetNames{
			Boundary:  "bemowo.geojson",
			TramLines: "tram_lines.geojson",
			BusLines:  "bus_lines.geojson",
			Termini:   "petle.geojson",
		},
		PlatformStopsOnly: true,
		Tiles: domain.TileLayer{
			URL:         "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
			MaxZoom:     19,
			Attribution: "&copy; OpenStreetMap contributors",
		},
		DefaultCenter:  domain.GeoPoint{Lat: 52.25, Lon: 20.92},
		DefaultZoom:    13,
		ViewportWidth:  1024,
		ViewportHeight: 768,
	}
}

// RenderSession holds the state of one map render: the boundary, its box,
// the layer stack and the terminus layer handle. Layer builders run on the
// session in pipeline order; a session is not safe for concurrent use.
type RenderSession struct {
	source ports.DatasetSource
	opts   RenderOptions
	now    func() time.Time

	boundary *geojson.FeatureCollection
	bounds   *domain.Bounds
	filter   *SpatialFilter
	stack    LayerStack
	termini  *domain.Layer
	view     domain.View
	legend   []domain.LegendEntry
}

// NewRenderSession creates an empty session reading datasets from source.
func NewRenderSession(source ports.DatasetSource, opts RenderOptions) *RenderSession {
	return &RenderSession{
		source: source,
		opts:   opts,
		now:    time.Now,
		filter: NewSpatialFilter(nil),
		view: domain.View{
			Center: opts.DefaultCenter,
			Zoom:   opts.DefaultZoom,
		},
	}
}

// Run executes the full pipeline: boundary, view, lines, stops, termini and
// legend. Only a boundary failure aborts the render; any other dataset that
// cannot be loaded leaves its layer out.
func (s *RenderSession) Run(ctx context.Context) (*domain.MapDocument, error) {
	ctx, span := tracer.Start(ctx, "render.run")
	defer span.End()

	if err := s.LoadBoundary(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if _, err := s.FitView(); err != nil {
		return nil, err
	}

	ds := s.opts.Datasets
	steps := []struct {
		dataset string
		build   func(context.Context) error
	}{
		{ds.TramLines, func(ctx context.Context) error {
			return s.AddLines(ctx, domain.LayerTramLines, ds.TramLines, domain.ModeTram)
		}},
		{ds.BusLines, func(ctx context.Context) error {
			return s.AddLines(ctx, domain.LayerBusLines, ds.BusLines, domain.ModeBus)
		}},
		{ds.BusLines, func(ctx context.Context) error {
			return s.AddStops(ctx, domain.LayerBusStops, ds.BusLines, domain.ModeBus)
		}},
		{ds.TramLines, func(ctx context.Context) error {
			return s.AddStops(ctx, domain.LayerTramStops, ds.TramLines, domain.ModeTram)
		}},
		{ds.Termini, s.AddTermini},
	}
	for _, step := range steps {
		if err := step.build(ctx); err != nil {
			metrics.DatasetFetchErrors.WithLabelValues(step.dataset).Inc()
			slog.WarnContext(ctx, "layer skipped", "dataset", step.dataset, "error", err)
		}
	}

	if err := s.RenderLegend(); err != nil {
		return nil, err
	}
	return s.Document()
}

// LoadBoundary fetches the boundary dataset, derives its bounding box and
// draws it as the bottom layer.
func (s *RenderSession) LoadBoundary(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "render.boundary",
		trace.WithAttributes(telemetry.AttrDataset.String(s.opts.Datasets.Boundary)))
	defer span.End()

	fc, err := s.source.Fetch(ctx, s.opts.Datasets.Boundary)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrBoundaryUnavailable, s.opts.Datasets.Boundary, err)
	}
	bounds, err := BoundaryBounds(fc)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrBoundaryUnavailable, s.opts.Datasets.Boundary, err)
	}

	s.boundary = fc
	s.bounds = bounds
	s.filter = NewSpatialFilter(bounds)

	layer := &domain.Layer{
		ID:      domain.LayerBoundary,
		Kind:    domain.KindBoundary,
		Title:   "Granica dzielnicy",
		Style:   boundaryStyle,
		BuiltAt: s.now(),
	}
	for _, feat := range fc.Features {
		layer.Features = append(layer.Features, domain.RenderedFeature{Feature: feat})
	}
	s.stack.Add(layer)
	metrics.LayerFeatures.WithLabelValues(layer.ID).Set(float64(len(layer.Features)))

	slog.DebugContext(ctx, "boundary loaded",
		"features", len(fc.Features),
		"min_lat", bounds.MinLat, "min_lon", bounds.MinLon,
		"max_lat", bounds.MaxLat, "max_lon", bounds.MaxLon,
		"width_m", geospatial.Haversine(bounds.MinLat, bounds.MinLon, bounds.MinLat, bounds.MaxLon),
		"height_m", geospatial.Haversine(bounds.MinLat, bounds.MinLon, bounds.MaxLat, bounds.MinLon))
	return nil
}

// FitView sets the viewport to the boundary's box.
func (s *RenderSession) FitView() (domain.View, error) {
	if s.bounds == nil {
		return s.view, ErrBoundaryNotLoaded
	}
	b := *s.bounds
	s.view = domain.View{
		Center: b.Center(),
		Zoom: geospatial.FitZoom(b.MinLat, b.MinLon, b.MaxLat, b.MaxLon,
			s.opts.ViewportWidth, s.opts.ViewportHeight, s.opts.Tiles.MaxZoom),
		Bounds: &b,
	}
	return s.view, nil
}

// AddLines draws the LineString/MultiLineString features of a dataset that
// touch the boundary box.
func (s *RenderSession) AddLines(ctx context.Context, id, dataset string, mode domain.TransportMode) error {
	ctx, span := tracer.Start(ctx, "render.lines",
		trace.WithAttributes(telemetry.AttrLayer.String(id), telemetry.AttrDataset.String(dataset)))
	defer span.End()

	if !s.filter.Loaded() {
		return ErrBoundaryNotLoaded
	}
	fc, err := s.source.Fetch(ctx, dataset)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", dataset, err)
	}

	kept, rejected := s.filter.Apply(fc, IsLine)
	layer := &domain.Layer{
		ID:      id,
		Kind:    domain.KindLines,
		Title:   lineTitle(mode),
		Style:   LineStyle(mode),
		BuiltAt: s.now(),
	}
	for _, feat := range kept {
		layer.Features = append(layer.Features, domain.RenderedFeature{Feature: feat})
	}
	s.push(layer, rejected)
	return nil
}

// AddStops draws the Point features of a dataset that fall in the boundary
// box, each with a popup listing its routes of the given mode.
func (s *RenderSession) AddStops(ctx context.Context, id, dataset string, mode domain.TransportMode) error {
	ctx, span := tracer.Start(ctx, "render.stops",
		trace.WithAttributes(telemetry.AttrLayer.String(id), telemetry.AttrDataset.String(dataset)))
	defer span.End()

	if !s.filter.Loaded() {
		return ErrBoundaryNotLoaded
	}
	fc, err := s.source.Fetch(ctx, dataset)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", dataset, err)
	}

	keep := IsPoint
	if s.opts.PlatformStopsOnly {
		keep = func(f *geojson.Feature) bool { return IsPoint(f) && IsPlatform(f.Properties) }
	}
	kept, rejected := s.filter.Apply(fc, keep)

	layer := &domain.Layer{
		ID:      id,
		Kind:    domain.KindStops,
		Title:   stopTitle(mode),
		Style:   StopStyle(mode),
		BuiltAt: s.now(),
	}
	for _, feat := range kept {
		layer.Features = append(layer.Features, domain.RenderedFeature{
			Feature: feat,
			Popup:   StopPopup(feat.Properties, mode),
		})
	}
	s.push(layer, rejected)
	return nil
}

// AddTermini rebuilds the terminus layer. The previous terminus layer, if any,
// is removed first and the new one is forced to the top of the stack.
func (s *RenderSession) AddTermini(ctx context.Context) error {
	dataset := s.opts.Datasets.Termini
	ctx, span := tracer.Start(ctx, "render.termini",
		trace.WithAttributes(telemetry.AttrDataset.String(dataset)))
	defer span.End()

	if !s.filter.Loaded() {
		return ErrBoundaryNotLoaded
	}
	fc, err := s.source.Fetch(ctx, dataset)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", dataset, err)
	}

	if s.termini != nil {
		s.stack.Remove(s.termini.ID)
		s.termini = nil
	}

	kept, rejected := s.filter.Apply(fc, IsPoint)
	layer := &domain.Layer{
		ID:      domain.LayerTermini,
		Kind:    domain.KindTermini,
		Title:   "Pętle",
		Style:   TerminusStyle(""),
		BuiltAt: s.now(),
	}
	for _, feat := range kept {
		style := TerminusStyle(stringProp(feat.Properties, "kategoria"))
		layer.Features = append(layer.Features, domain.RenderedFeature{
			Feature: feat,
			Popup:   TerminusPopup(feat.Properties),
			Style:   &style,
		})
	}
	s.push(layer, rejected)
	s.stack.BringToFront(layer.ID)
	s.termini = layer
	return nil
}

// RenderLegend builds the legend panel.
func (s *RenderSession) RenderLegend() error {
	s.legend = Legend()
	return nil
}

// Document snapshots the session into a MapDocument.
func (s *RenderSession) Document() (*domain.MapDocument, error) {
	legendHTML, err := LegendHTML(s.legend)
	if err != nil {
		return nil, fmt.Errorf("render legend: %w", err)
	}
	return &domain.MapDocument{
		View:       s.view,
		Tiles:      s.opts.Tiles,
		Layers:     s.stack.Snapshot(),
		Legend:     s.legend,
		LegendHTML: legendHTML,
		RenderedAt: s.now(),
	}, nil
}

// Bounds returns the boundary box, or nil before LoadBoundary.
func (s *RenderSession) Bounds() *domain.Bounds { return s.bounds }

// TopLayer returns the topmost layer.
func (s *RenderSession) TopLayer() *domain.Layer { return s.stack.Top() }

func (s *RenderSession) push(layer *domain.Layer, rejected int) {
	s.stack.Add(layer)
	metrics.LayerFeatures.WithLabelValues(layer.ID).Set(float64(len(layer.Features)))
	metrics.FeaturesRejected.WithLabelValues(layer.ID).Add(float64(rejected))
}

func lineTitle(mode domain.TransportMode) string {
	if mode == domain.ModeTram {
		return "Linie tramwajowe"
	}
	return "Linie autobusowe"
}

func stopTitle(mode domain.TransportMode) string {
	if mode == domain.ModeTram {
		return "Przystanki tramwajowe"
	}
	return "Przystanki autobusowe"
}
