package workflows

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/paulmach/orb/geojson"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/districtmap/internal/core/domain"
	"github.com/samirrijal/districtmap/internal/core/ports"
)

// Importer stores a downloaded dataset and announces it.
type Importer interface {
	Import(ctx context.Context, name, source string, fc *geojson.FeatureCollection) (*domain.Dataset, error)
}

// RefreshActivities holds the activity implementations for the refresh workflow.
type RefreshActivities struct {
	// Remote downloads datasets by name, normally a fetch.Source rooted at
	// the remote base URL.
	Remote     ports.DatasetSource
	RemoteBase string
	Datasets   Importer
}

// RefreshDataset downloads one dataset and stores it. The collection itself
// never enters workflow history; only its name and size are returned.
func (a *RefreshActivities) RefreshDataset(ctx context.Context, name string) (DatasetResult, error) {
	logger := activity.GetLogger(ctx)

	fc, err := a.Remote.Fetch(ctx, name)
	if err != nil {
		if errors.Is(err, domain.ErrDatasetNotFound) {
			return DatasetResult{}, temporal.NewNonRetryableApplicationError(
				fmt.Sprintf("dataset %s not found", name), "DatasetNotFound", err)
		}
		return DatasetResult{}, fmt.Errorf("download %s: %w", name, err)
	}

	ds, err := a.Datasets.Import(ctx, name, a.sourceOf(name), fc)
	if err != nil {
		return DatasetResult{}, fmt.Errorf("store %s: %w", name, err)
	}

	logger.Info("dataset refreshed", "dataset", name, "features", ds.Features)
	return DatasetResult{Name: ds.Name, Features: ds.Features}, nil
}

func (a *RefreshActivities) sourceOf(name string) string {
	if a.RemoteBase == "" {
		return name
	}
	return strings.TrimSuffix(a.RemoteBase, "/") + "/" + name
}
