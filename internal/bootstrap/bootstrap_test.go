package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/districtmap/internal/core/usecases"
	"github.com/samirrijal/districtmap/internal/pkg/config"
)

func testConfig(base string) *config.Config {
	return &config.Config{
		Datasets: config.DatasetsConfig{
			Source:    config.SourceFile,
			Base:      base,
			CacheSize: 8,
			CacheTTL:  60,
			Boundary:  "bemowo.geojson",
			TramLines: "tram_lines.geojson",
			BusLines:  "bus_lines.geojson",
			Termini:   "petle.geojson",
		},
		Render: config.RenderConfig{
			PlatformStopsOnly: true,
			CenterLat:         52.25,
			CenterLon:         20.92,
			DefaultZoom:       13,
			TileURL:           "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
			TileAttribution:   "&copy; OpenStreetMap contributors",
			MaxZoom:           19,
			ViewportWidth:     1024,
			ViewportHeight:    768,
		},
	}
}

func TestRenderOptions_MatchDefaults(t *testing.T) {
	assert.Equal(t, usecases.DefaultRenderOptions(), RenderOptions(testConfig("data")))
}

func TestDatasetSource_File(t *testing.T) {
	dir := t.TempDir()
	fc := `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{},"geometry":{"type":"Point","coordinates":[20.9,52.25]}}]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "petle.geojson"), []byte(fc), 0o644))

	src, err := DatasetSource(testConfig(dir), nil)
	require.NoError(t, err)

	got, err := src.Fetch(context.Background(), "petle.geojson")
	require.NoError(t, err)
	assert.Len(t, got.Features, 1)
	assert.Equal(t, 1, src.Len())
}

func TestDatasetSource_PostgresNeedsDB(t *testing.T) {
	cfg := testConfig("")
	cfg.Datasets.Source = config.SourcePostgres

	_, err := DatasetSource(cfg, nil)
	assert.Error(t, err)
}

func TestDatasetSource_Unknown(t *testing.T) {
	cfg := testConfig("data")
	cfg.Datasets.Source = "ftp"

	_, err := DatasetSource(cfg, nil)
	assert.Error(t, err)
}
