package ports

import (
	"context"

	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/districtmap/internal/core/domain"
)

// DatasetSource loads a named GeoJSON FeatureCollection (e.g. "bemowo.geojson").
type DatasetSource interface {
	Fetch(ctx context.Context, name string) (*geojson.FeatureCollection, error)
}

// DatasetRepository persists GeoJSON datasets.
type DatasetRepository interface {
	Upsert(ctx context.Context, ds *domain.Dataset) error
	Get(ctx context.Context, name string) (*domain.Dataset, error)
	List(ctx context.Context) ([]domain.Dataset, error)
}
