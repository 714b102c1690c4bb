package usecases_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/districtmap/internal/core/domain"
	"github.com/samirrijal/districtmap/internal/core/ports"
	"github.com/samirrijal/districtmap/internal/core/usecases"
)

func newTestMapService(src *mockSource, cache *mockCache, pub *mockPublisher) *usecases.MapService {
	var (
		c ports.CacheService
		p ports.EventPublisher
	)
	if cache != nil {
		c = cache
	}
	if pub != nil {
		p = pub
	}
	return usecases.NewMapService(src, c, p, usecases.DefaultRenderOptions(), 60)
}

func TestMapService_DocumentRendersOnce(t *testing.T) {
	src := newMockSource(testDatasets())
	cache := newMockCache()
	pub := &mockPublisher{}
	svc := newTestMapService(src, cache, pub)

	ctx := context.Background()
	doc1, err := svc.Document(ctx)
	require.NoError(t, err)
	doc2, err := svc.Document(ctx)
	require.NoError(t, err)

	assert.Same(t, doc1, doc2)
	assert.Equal(t, 1, src.callCount("bemowo.geojson"))
	assert.Contains(t, cache.data, "map:document")
	require.Len(t, pub.mapUpdates, 1)
	assert.Equal(t, pipelineOrder, pub.mapUpdates[0].Layers)
}

func TestMapService_DocumentFromCache(t *testing.T) {
	cached := &domain.MapDocument{
		View:       domain.View{Center: domain.GeoPoint{Lat: 52.25, Lon: 20.92}, Zoom: 13},
		Layers:     []domain.Layer{{ID: domain.LayerBoundary}},
		RenderedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	data, err := json.Marshal(cached)
	require.NoError(t, err)

	cache := newMockCache()
	cache.data["map:document"] = data
	src := newMockSource(testDatasets())
	svc := newTestMapService(src, cache, nil)

	doc, err := svc.Document(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 13, doc.View.Zoom)
	assert.Equal(t, []string{domain.LayerBoundary}, layerIDs(doc.Layers))
	assert.Zero(t, src.callCount("bemowo.geojson"))
}

func TestMapService_BoundaryMissing(t *testing.T) {
	datasets := testDatasets()
	delete(datasets, "bemowo.geojson")
	svc := newTestMapService(newMockSource(datasets), nil, nil)

	_, err := svc.Document(context.Background())
	assert.ErrorIs(t, err, domain.ErrDatasetNotFound)
}

func TestMapService_Layer(t *testing.T) {
	svc := newTestMapService(newMockSource(testDatasets()), nil, nil)
	ctx := context.Background()

	l, err := svc.Layer(ctx, domain.LayerBusStops)
	require.NoError(t, err)
	assert.Equal(t, domain.KindStops, l.Kind)

	_, err = svc.Layer(ctx, "metro-lines")
	assert.ErrorIs(t, err, usecases.ErrLayerNotFound)

	summaries, err := svc.Layers(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, len(pipelineOrder))
	assert.Equal(t, 2, summaries[5].FeatureCount)
	assert.Equal(t, 5, summaries[5].Z)
}

func TestMapService_Stops(t *testing.T) {
	svc := newTestMapService(newMockSource(testDatasets()), nil, nil)
	ctx := context.Background()

	all, err := svc.Stops(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	bus, err := svc.Stops(ctx, domain.ModeBus)
	require.NoError(t, err)
	require.Len(t, bus, 1)
	assert.Equal(t, "Ratuszowa", bus[0].Name)
	assert.Equal(t, []string{"105", "171"}, bus[0].Routes)
}

func TestMapService_RefreshTermini(t *testing.T) {
	src := newMockSource(testDatasets())
	pub := &mockPublisher{}
	svc := newTestMapService(src, newMockCache(), pub)
	ctx := context.Background()

	_, err := svc.Document(ctx)
	require.NoError(t, err)

	src.set("petle.geojson", terminiFC("d"))
	doc, err := svc.RefreshTermini(ctx)
	require.NoError(t, err)

	assert.Equal(t, pipelineOrder, layerIDs(doc.Layers))
	termini := doc.Layer(domain.LayerTermini)
	require.Len(t, termini.Features, 1)
	assert.Equal(t, "purple", termini.Features[0].Style.FillColor)

	assert.Equal(t, 1, src.callCount("bemowo.geojson"), "boundary is not refetched")
	assert.Contains(t, src.forgot, "petle.geojson")
	assert.Len(t, pub.mapUpdates, 2)
}

func TestMapService_HandleDatasetUpdate(t *testing.T) {
	src := newMockSource(testDatasets())
	cache := newMockCache()
	svc := newTestMapService(src, cache, nil)
	ctx := context.Background()

	_, err := svc.Document(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.HandleDatasetUpdate(ctx, &domain.DatasetUpdate{Name: "bus_lines.geojson"}))
	assert.Contains(t, cache.deleted, "map:document")
	assert.Contains(t, src.forgot, "bus_lines.geojson")

	_, err = svc.Document(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, src.callCount("bemowo.geojson"), "full re-render after a non-terminus update")

	require.NoError(t, svc.HandleDatasetUpdate(ctx, &domain.DatasetUpdate{Name: "petle.geojson"}))
	assert.Equal(t, 2, src.callCount("bemowo.geojson"), "terminus update only rebuilds termini")
	assert.Equal(t, 3, src.callCount("petle.geojson"))
}

func TestMapService_PublishFailureIsNotFatal(t *testing.T) {
	pub := &mockPublisher{publishErr: errors.New("nats down")}
	svc := newTestMapService(newMockSource(testDatasets()), nil, pub)

	_, err := svc.Render(context.Background())
	assert.NoError(t, err)
}

func TestMapService_Termini(t *testing.T) {
	svc := newTestMapService(newMockSource(testDatasets()), nil, nil)

	termini, err := svc.Termini(context.Background())
	require.NoError(t, err)
	require.Len(t, termini, 2)
	assert.Equal(t, "Pętla a", termini[0].Name)
	assert.Equal(t, "green", termini[0].Color)
	assert.Equal(t, "red", termini[1].Color)
}
