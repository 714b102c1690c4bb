package usecases_test

import (
	"context"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/districtmap/internal/core/domain"
	"github.com/samirrijal/districtmap/internal/core/usecases"
)

// Bemowo box used across tests: lat 52.225..52.275, lon 20.86..20.96.
var testBounds = domain.Bounds{MinLat: 52.225, MinLon: 20.86, MaxLat: 52.275, MaxLon: 20.96}

var (
	inside  = orb.Point{20.92, 52.25}
	outside = orb.Point{21.01, 52.23} // Śródmieście
)

// --- Mock DatasetSource ---

type mockSource struct {
	mu       sync.Mutex
	datasets map[string]*geojson.FeatureCollection
	fetchFn  func(ctx context.Context, name string) (*geojson.FeatureCollection, error)
	calls    map[string]int
	forgot   []string
}

func newMockSource(datasets map[string]*geojson.FeatureCollection) *mockSource {
	return &mockSource{datasets: datasets, calls: make(map[string]int)}
}

func (m *mockSource) Fetch(ctx context.Context, name string) (*geojson.FeatureCollection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[name]++
	if m.fetchFn != nil {
		return m.fetchFn(ctx, name)
	}
	fc, ok := m.datasets[name]
	if !ok {
		return nil, domain.ErrDatasetNotFound
	}
	return fc, nil
}

func (m *mockSource) Forget(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forgot = append(m.forgot, name)
}

func (m *mockSource) set(name string, fc *geojson.FeatureCollection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.datasets[name] = fc
}

func (m *mockSource) callCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

// --- Mock CacheService ---

type mockCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	deleted []string
}

func newMockCache() *mockCache { return &mockCache{data: make(map[string][]byte)} }

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, domain.ErrDatasetNotFound
	}
	return v, nil
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	m.deleted = append(m.deleted, key)
	return nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	datasetUpdates []domain.DatasetUpdate
	mapUpdates     []domain.MapUpdate
	publishErr     error
}

func (m *mockPublisher) PublishDatasetUpdated(ctx context.Context, u *domain.DatasetUpdate) error {
	m.datasetUpdates = append(m.datasetUpdates, *u)
	return m.publishErr
}

func (m *mockPublisher) PublishMapUpdated(ctx context.Context, u *domain.MapUpdate) error {
	m.mapUpdates = append(m.mapUpdates, *u)
	return m.publishErr
}

// --- Feature builders ---

func rel(role, route, ref, url string) map[string]interface{} {
	tags := map[string]interface{}{"route": route, "ref": ref}
	if url != "" {
		tags["url"] = url
	}
	return map[string]interface{}{"role": role, "reltags": tags}
}

func relations(rels ...map[string]interface{}) []interface{} {
	out := make([]interface{}, len(rels))
	for i, r := range rels {
		out[i] = r
	}
	return out
}

func feature(g orb.Geometry, props geojson.Properties) *geojson.Feature {
	f := geojson.NewFeature(g)
	for k, v := range props {
		f.Properties[k] = v
	}
	return f
}

func collection(features ...*geojson.Feature) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, f := range features {
		fc.Append(f)
	}
	return fc
}

func boundaryFC() *geojson.FeatureCollection {
	ring := orb.Ring{
		{testBounds.MinLon, testBounds.MinLat},
		{testBounds.MaxLon, testBounds.MinLat},
		{testBounds.MaxLon, testBounds.MaxLat},
		{testBounds.MinLon, testBounds.MaxLat},
		{testBounds.MinLon, testBounds.MinLat},
	}
	return collection(feature(orb.Polygon{ring}, geojson.Properties{"name": "Bemowo"}))
}

func tramFC() *geojson.FeatureCollection {
	return collection(
		feature(orb.LineString{{20.90, 52.24}, {21.00, 52.24}}, nil),
		feature(orb.LineString{{21.00, 52.20}, {21.05, 52.21}}, nil),
		feature(orb.Point{20.91, 52.245}, geojson.Properties{
			"name":       "Kasprzaka",
			"@relations": relations(rel("platform", "tram", "10", ""), rel("stop", "tram", "24", "")),
		}),
		feature(orb.Point{20.91, 52.246}, geojson.Properties{
			"name":       "Kasprzaka (stop position)",
			"@relations": relations(rel("stop", "tram", "10", "")),
		}),
	)
}

func busFC() *geojson.FeatureCollection {
	return collection(
		feature(orb.MultiLineString{
			{{21.10, 52.30}, {21.20, 52.30}},
			{{20.93, 52.26}, {21.10, 52.30}},
		}, nil),
		feature(inside, geojson.Properties{
			"name": "Ratuszowa",
			"@relations": relations(
				rel("platform", "bus", "105", "https://ztm.example/105"),
				rel("platform", "bus", "105", "https://ztm.example/105"),
				rel("platform", "bus", "171", ""),
				rel("platform", "tram", "10", ""),
			),
		}),
		feature(outside, geojson.Properties{
			"name":       "Centrum",
			"@relations": relations(rel("platform", "bus", "175", "")),
		}),
	)
}

func terminiFC(codes ...string) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i, code := range codes {
		fc.Append(feature(orb.Point{20.88 + float64(i)*0.01, 52.26}, geojson.Properties{
			"name":      "Pętla " + code,
			"kategoria": code,
		}))
	}
	return fc
}

func testDatasets() map[string]*geojson.FeatureCollection {
	names := usecases.DefaultRenderOptions().Datasets
	return map[string]*geojson.FeatureCollection{
		names.Boundary:  boundaryFC(),
		names.TramLines: tramFC(),
		names.BusLines:  busFC(),
		names.Termini:   terminiFC("a", "b"),
	}
}

func layerIDs(layers []domain.Layer) []string {
	ids := make([]string, len(layers))
	for i, l := range layers {
		ids[i] = l.ID
	}
	return ids
}
