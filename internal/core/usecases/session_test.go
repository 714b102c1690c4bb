package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/districtmap/internal/core/domain"
	"github.com/samirrijal/districtmap/internal/core/usecases"
)

var pipelineOrder = []string{
	domain.LayerBoundary,
	domain.LayerTramLines,
	domain.LayerBusLines,
	domain.LayerBusStops,
	domain.LayerTramStops,
	domain.LayerTermini,
}

func TestRenderSession_Run(t *testing.T) {
	src := newMockSource(testDatasets())
	s := usecases.NewRenderSession(src, usecases.DefaultRenderOptions())

	doc, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, pipelineOrder, layerIDs(doc.Layers))
	for i, l := range doc.Layers {
		assert.Equal(t, i, l.Z, "layer %s", l.ID)
	}

	assert.Len(t, doc.Layer(domain.LayerTramLines).Features, 1)
	assert.Len(t, doc.Layer(domain.LayerBusLines).Features, 1)
	assert.Equal(t, "5,5", doc.Layer(domain.LayerBusLines).Style.DashArray)

	bus := doc.Layer(domain.LayerBusStops)
	require.Len(t, bus.Features, 1)
	assert.Equal(t,
		`<b>Ratuszowa</b><br/><b>Autobusy:</b> <a href="https://ztm.example/105" target="_blank">105</a>, 171`,
		bus.Features[0].Popup)

	tram := doc.Layer(domain.LayerTramStops)
	require.Len(t, tram.Features, 1, "non-platform stop positions are skipped")
	assert.Equal(t, "<b>Kasprzaka</b><br/><b>Tramwaje:</b> 10, 24", tram.Features[0].Popup)

	termini := doc.Layer(domain.LayerTermini)
	require.Len(t, termini.Features, 2)
	assert.Equal(t, "green", termini.Features[0].Style.FillColor)
	assert.Equal(t, "red", termini.Features[1].Style.FillColor)

	assert.Equal(t, testBounds, *doc.View.Bounds)
	assert.InDelta(t, 52.25, doc.View.Center.Lat, 1e-9)
	assert.InDelta(t, 20.91, doc.View.Center.Lon, 1e-9)
	assert.GreaterOrEqual(t, doc.View.Zoom, 12)
	assert.LessOrEqual(t, doc.View.Zoom, 14)

	assert.Equal(t, 19, doc.Tiles.MaxZoom)
	assert.NotEmpty(t, doc.Legend)
	assert.Contains(t, doc.LegendHTML, "Legenda")
}

func TestRenderSession_AllStopsWhenNotPlatformOnly(t *testing.T) {
	opts := usecases.DefaultRenderOptions()
	opts.PlatformStopsOnly = false

	doc, err := usecases.NewRenderSession(newMockSource(testDatasets()), opts).Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, doc.Layer(domain.LayerTramStops).Features, 2)
}

func TestRenderSession_BoundaryFailureAborts(t *testing.T) {
	datasets := testDatasets()
	delete(datasets, usecases.DefaultRenderOptions().Datasets.Boundary)

	_, err := usecases.NewRenderSession(newMockSource(datasets), usecases.DefaultRenderOptions()).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDatasetNotFound)
	assert.ErrorIs(t, err, usecases.ErrBoundaryUnavailable)
}

func TestRenderSession_EmptyBoundaryAborts(t *testing.T) {
	datasets := testDatasets()
	datasets[usecases.DefaultRenderOptions().Datasets.Boundary] = geojson.NewFeatureCollection()

	_, err := usecases.NewRenderSession(newMockSource(datasets), usecases.DefaultRenderOptions()).Run(context.Background())
	assert.ErrorIs(t, err, usecases.ErrEmptyBoundary)
	assert.ErrorIs(t, err, usecases.ErrBoundaryUnavailable)
}

func TestRenderSession_MissingLayerIsSkipped(t *testing.T) {
	opts := usecases.DefaultRenderOptions()
	src := newMockSource(testDatasets())
	src.fetchFn = func(ctx context.Context, name string) (*geojson.FeatureCollection, error) {
		if name == opts.Datasets.BusLines {
			return nil, errors.New("connection reset")
		}
		return src.datasets[name], nil
	}

	doc, err := usecases.NewRenderSession(src, opts).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{
		domain.LayerBoundary,
		domain.LayerTramLines,
		domain.LayerTramStops,
		domain.LayerTermini,
	}, layerIDs(doc.Layers))
}

func TestRenderSession_LayersNeedBoundary(t *testing.T) {
	ctx := context.Background()
	opts := usecases.DefaultRenderOptions()
	src := newMockSource(testDatasets())
	s := usecases.NewRenderSession(src, opts)

	assert.ErrorIs(t, s.AddLines(ctx, domain.LayerTramLines, opts.Datasets.TramLines, domain.ModeTram), usecases.ErrBoundaryNotLoaded)
	assert.ErrorIs(t, s.AddStops(ctx, domain.LayerBusStops, opts.Datasets.BusLines, domain.ModeBus), usecases.ErrBoundaryNotLoaded)
	assert.ErrorIs(t, s.AddTermini(ctx), usecases.ErrBoundaryNotLoaded)
	_, err := s.FitView()
	assert.ErrorIs(t, err, usecases.ErrBoundaryNotLoaded)

	assert.Zero(t, src.callCount(opts.Datasets.TramLines), "no fetch before the boundary is loaded")
	assert.Nil(t, s.Bounds())
}

func TestRenderSession_TerminiRebuildReplacesLayer(t *testing.T) {
	ctx := context.Background()
	opts := usecases.DefaultRenderOptions()
	src := newMockSource(testDatasets())
	s := usecases.NewRenderSession(src, opts)

	_, err := s.Run(ctx)
	require.NoError(t, err)

	// A layer added after the termini would normally cover them.
	require.NoError(t, s.AddLines(ctx, domain.LayerBusLines, opts.Datasets.BusLines, domain.ModeBus))
	assert.Equal(t, domain.LayerBusLines, s.TopLayer().ID)

	src.set(opts.Datasets.Termini, terminiFC("c", "d", "x"))
	require.NoError(t, s.AddTermini(ctx))

	doc, err := s.Document()
	require.NoError(t, err)

	count := 0
	for _, l := range doc.Layers {
		if l.ID == domain.LayerTermini {
			count++
		}
	}
	assert.Equal(t, 1, count, "previous terminus layer must be removed")

	top := doc.Layers[len(doc.Layers)-1]
	assert.Equal(t, domain.LayerTermini, top.ID)
	require.Len(t, top.Features, 3)
	assert.Equal(t, "orange", top.Features[0].Style.FillColor)
	assert.Equal(t, "purple", top.Features[1].Style.FillColor)
	assert.Equal(t, usecases.DefaultTerminusColor, top.Features[2].Style.FillColor)
}
