// Package bootstrap turns configuration into the render options and dataset
// source shared by the API, the static export and the refresher.
package bootstrap

import (
	"fmt"
	"time"

	"github.com/samirrijal/districtmap/internal/adapters/fetch"
	"github.com/samirrijal/districtmap/internal/adapters/memcache"
	"github.com/samirrijal/districtmap/internal/adapters/postgres"
	"github.com/samirrijal/districtmap/internal/core/domain"
	"github.com/samirrijal/districtmap/internal/core/ports"
	"github.com/samirrijal/districtmap/internal/core/usecases"
	"github.com/samirrijal/districtmap/internal/pkg/config"
)

// fetchTimeout bounds a single dataset download.
const fetchTimeout = 30 * time.Second

// RenderOptions maps the datasets and render sections onto pipeline options.
func RenderOptions(cfg *config.Config) usecases.RenderOptions {
	return usecases.RenderOptions{
		Datasets: usecases.DatasetNames{
			Boundary:  cfg.Datasets.Boundary,
			TramLines: cfg.Datasets.TramLines,
			BusLines:  cfg.Datasets.BusLines,
			Termini:   cfg.Datasets.Termini,
		},
		PlatformStopsOnly: cfg.Render.PlatformStopsOnly,
		Tiles: domain.TileLayer{
			URL:         cfg.Render.TileURL,
			MaxZoom:     cfg.Render.MaxZoom,
			Attribution: cfg.Render.TileAttribution,
		},
		DefaultCenter:  domain.GeoPoint{Lat: cfg.Render.CenterLat, Lon: cfg.Render.CenterLon},
		DefaultZoom:    cfg.Render.DefaultZoom,
		ViewportWidth:  cfg.Render.ViewportWidth,
		ViewportHeight: cfg.Render.ViewportHeight,
	}
}

// DatasetSource builds the configured source wrapped in the in-process
// dataset cache. db is required only for the postgres source.
func DatasetSource(cfg *config.Config, db *postgres.DB) (*memcache.CachedSource, error) {
	var next ports.DatasetSource
	switch cfg.Datasets.Source {
	case config.SourceFile, config.SourceHTTP:
		next = fetch.New(cfg.Datasets.Base, fetchTimeout)
	case config.SourcePostgres:
		if db == nil {
			return nil, fmt.Errorf("dataset source %q needs a database connection", cfg.Datasets.Source)
		}
		next = postgres.NewDatasetRepo(db)
	default:
		return nil, fmt.Errorf("unknown dataset source %q", cfg.Datasets.Source)
	}

	ttl := time.Duration(cfg.Datasets.CacheTTL) * time.Second
	return memcache.NewCachedSource(next, cfg.Datasets.CacheSize, ttl), nil
}

// NewFetcher returns the downloader used by the ingestor and the refresh
// workflow for absolute URLs and paths.
func NewFetcher() *fetch.Source {
	return fetch.New("", fetchTimeout)
}
