package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/districtmap/internal/core/domain"
	"github.com/samirrijal/districtmap/internal/core/ports"
	"github.com/samirrijal/districtmap/internal/pkg/metrics"
)

// DatasetService stores GeoJSON datasets and announces changes.
type DatasetService struct {
	repo   ports.DatasetRepository
	events ports.EventPublisher
	now    func() time.Time
}

// NewDatasetService creates a new DatasetService. events may be nil.
func NewDatasetService(repo ports.DatasetRepository, events ports.EventPublisher) *DatasetService {
	return &DatasetService{repo: repo, events: events, now: time.Now}
}

// Import stores a dataset under name and publishes a dataset-updated event.
func (s *DatasetService) Import(ctx context.Context, name, source string, fc *geojson.FeatureCollection) (*domain.Dataset, error) {
	if name == "" {
		return nil, fmt.Errorf("dataset name must not be empty")
	}
	if fc == nil {
		return nil, fmt.Errorf("dataset %s: no feature collection", name)
	}

	ds := &domain.Dataset{
		Name:      name,
		Source:    source,
		Features:  len(fc.Features),
		Data:      fc,
		UpdatedAt: s.now().UTC(),
	}
	if err := s.repo.Upsert(ctx, ds); err != nil {
		return nil, fmt.Errorf("store dataset %s: %w", name, err)
	}
	metrics.DatasetsImported.WithLabelValues(name).Inc()

	if s.events != nil {
		u := &domain.DatasetUpdate{
			Name:      ds.Name,
			Source:    ds.Source,
			Features:  ds.Features,
			UpdatedAt: ds.UpdatedAt,
		}
		if err := s.events.PublishDatasetUpdated(ctx, u); err != nil {
			slog.WarnContext(ctx, "failed to publish dataset update", "dataset", name, "error", err)
		}
	}
	return ds, nil
}

// List returns the stored datasets without their data.
func (s *DatasetService) List(ctx context.Context) ([]domain.Dataset, error) {
	return s.repo.List(ctx)
}

// Get returns one stored dataset.
func (s *DatasetService) Get(ctx context.Context, name string) (*domain.Dataset, error) {
	return s.repo.Get(ctx, name)
}
