package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"

	natsadapter "github.com/samirrijal/districtmap/internal/adapters/nats"
	"github.com/samirrijal/districtmap/internal/adapters/postgres"
	"github.com/samirrijal/districtmap/internal/bootstrap"
	"github.com/samirrijal/districtmap/internal/core/ports"
	"github.com/samirrijal/districtmap/internal/core/usecases"
	"github.com/samirrijal/districtmap/internal/pkg/config"
	"github.com/samirrijal/districtmap/internal/pkg/logging"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Manifest lists the datasets to import.
type Manifest struct {
	Source   string         `json:"source"`
	Datasets []DatasetEntry `json:"datasets" validate:"required,min=1,dive"`
}

// DatasetEntry names a dataset and where to download it from. URL may also
// be a local file path.
type DatasetEntry struct {
	Name string `json:"name" validate:"required,excludes=/"`
	URL  string `json:"url" validate:"required"`
}

// Usage: ingestor [manifest.json] [name,name,...]
func main() {
	cfg, err := config.Load("districtmap-ingestor")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format, "districtmap-ingestor")

	ctx := context.Background()

	manifestPath := "manifest.json"
	if len(os.Args) > 1 {
		manifestPath = os.Args[1]
	}
	manifest, err := loadManifest(manifestPath)
	if err != nil {
		log.Fatalf("manifest: %v", err)
	}

	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	var events ports.EventPublisher
	if cfg.NATS.Enabled {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable, map servers will not be notified", "error", err)
		} else {
			defer pub.Close()
			events = pub
		}
	}

	svc := usecases.NewDatasetService(postgres.NewDatasetRepo(db), events)
	fetcher := bootstrap.NewFetcher()

	slog.Info("ingesting datasets", "count", len(manifest.Datasets), "source", manifest.Source)

	// Optional second arg: comma-separated dataset names
	nameFilter := map[string]bool{}
	if len(os.Args) > 2 {
		for _, s := range strings.Split(os.Args[2], ",") {
			nameFilter[strings.TrimSpace(s)] = true
		}
	}

	var (
		wg     sync.WaitGroup
		failed atomic.Int32
	)
	sem := make(chan struct{}, 4) // max 4 concurrent downloads

	for _, entry := range manifest.Datasets {
		if len(nameFilter) > 0 && !nameFilter[entry.Name] {
			continue
		}

		wg.Add(1)
		go func(e DatasetEntry) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			fc, err := fetcher.Load(ctx, e.URL)
			if err != nil {
				slog.Error("download failed", "dataset", e.Name, "url", e.URL, "error", err)
				failed.Add(1)
				return
			}
			ds, err := svc.Import(ctx, e.Name, e.URL, fc)
			if err != nil {
				slog.Error("import failed", "dataset", e.Name, "error", err)
				failed.Add(1)
				return
			}
			slog.Info("dataset imported", "dataset", ds.Name, "features", ds.Features)
		}(entry)
	}

	wg.Wait()
	if n := failed.Load(); n > 0 {
		log.Fatalf("ingestion finished with %d failures", n)
	}
	slog.Info("ingestion complete")
}

func loadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := validator.New().Struct(&m); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}
	return &m, nil
}
