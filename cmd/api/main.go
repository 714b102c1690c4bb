package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samirrijal/districtmap/internal/adapters/http"
	"github.com/samirrijal/districtmap/internal/adapters/memcache"
	natsadapter "github.com/samirrijal/districtmap/internal/adapters/nats"
	"github.com/samirrijal/districtmap/internal/adapters/postgres"
	"github.com/samirrijal/districtmap/internal/adapters/valkey"
	"github.com/samirrijal/districtmap/internal/bootstrap"
	"github.com/samirrijal/districtmap/internal/core/ports"
	"github.com/samirrijal/districtmap/internal/core/usecases"
	"github.com/samirrijal/districtmap/internal/pkg/config"
	"github.com/samirrijal/districtmap/internal/pkg/logging"
	"github.com/samirrijal/districtmap/internal/pkg/metrics"
	"github.com/samirrijal/districtmap/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("districtmap-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format, "districtmap-api")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	deps := &http.Dependencies{}

	// Database: required for the postgres source, optional otherwise
	var db *postgres.DB
	db, err = postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		if cfg.Datasets.Source == config.SourcePostgres {
			log.Fatalf("database: %v", err)
		}
		slog.Warn("database unavailable, dataset store disabled", "error", err)
		db = nil
	} else {
		defer db.Close()
		deps.DB = db
		deps.Datasets = usecases.NewDatasetService(postgres.NewDatasetRepo(db), nil)
		go reportPoolStats(ctx, db)
	}

	source, err := bootstrap.DatasetSource(cfg, db)
	if err != nil {
		log.Fatalf("dataset source: %v", err)
	}

	// Rendered-document cache: Valkey, or in-process when Valkey is off or down
	var cache ports.CacheService = memcache.New(16)
	if cfg.Valkey.Enabled {
		vc, err := valkey.New(cfg.Valkey.Addr, cfg.Valkey.Prefix)
		if err != nil {
			slog.Warn("valkey unavailable, using in-process cache", "error", err)
		} else {
			defer vc.Close()
			cache = vc
			deps.Cache = vc
		}
	}

	// NATS
	var events ports.EventPublisher
	if cfg.NATS.Enabled {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable", "error", err)
		} else {
			defer pub.Close()
			events = pub
		}

		// Raw NATS connection for WebSocket relay
		natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats ws conn unavailable", "error", err)
		} else {
			defer natsConn.Close()
			deps.NATS = natsConn
		}
	}

	mapSvc := usecases.NewMapService(source, cache, events, bootstrap.RenderOptions(cfg), cfg.Render.CacheTTL)
	deps.Map = mapSvc

	// Dataset updates from the ingestor and the refresher
	if cfg.NATS.Enabled {
		sub, err := natsadapter.NewSubscriber(cfg.NATS.URL, cfg.NATS.Durable)
		if err != nil {
			slog.Warn("dataset update subscription unavailable", "error", err)
		} else {
			defer sub.Close()
			if err := sub.SubscribeDatasetUpdates(ctx, mapSvc.HandleDatasetUpdate); err != nil {
				slog.Warn("subscribe dataset updates", "error", err)
			}
		}
	}

	// Render once before accepting traffic so a missing boundary shows up at boot
	if _, err := mapSvc.Document(ctx); err != nil {
		slog.Error("initial render failed", "error", err)
	}

	// Fiber
	app := http.NewApp(
		time.Duration(cfg.Server.ReadTimeout)*time.Second,
		time.Duration(cfg.Server.WriteTimeout)*time.Second,
	)
	http.SetupRoutes(app, deps, cfg.Server.CORSOrigins)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "datasets", cfg.Datasets.Source)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

// reportPoolStats publishes pgx pool gauges until ctx ends.
func reportPoolStats(ctx context.Context, db *postgres.DB) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.UpdateDBPoolMetrics(db.Pool.Stat())
		}
	}
}
