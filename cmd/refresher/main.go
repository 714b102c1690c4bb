package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/worker"

	"github.com/samirrijal/districtmap/internal/adapters/fetch"
	natsadapter "github.com/samirrijal/districtmap/internal/adapters/nats"
	"github.com/samirrijal/districtmap/internal/adapters/postgres"
	"github.com/samirrijal/districtmap/internal/core/ports"
	"github.com/samirrijal/districtmap/internal/core/usecases"
	"github.com/samirrijal/districtmap/internal/pkg/config"
	"github.com/samirrijal/districtmap/internal/pkg/logging"
	"github.com/samirrijal/districtmap/internal/workflows"
)

const scheduleID = "districtmap-refresh"

// Usage: refresher [once]
func main() {
	cfg, err := config.Load("districtmap-refresher")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format, "districtmap-refresher")

	if cfg.Datasets.RemoteBase == "" {
		log.Fatal("datasets.remote_base is required")
	}

	ctx := context.Background()

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

	// Connect to Temporal
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    slog.Default(),
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	// Register workflow & activities
	w.RegisterWorkflow(workflows.RefreshWorkflow)
	w.RegisterActivity(&workflows.RefreshActivities{
		Remote:     fetch.New(cfg.Datasets.RemoteBase, time.Minute),
		RemoteBase: cfg.Datasets.RemoteBase,
		Datasets:   usecases.NewDatasetService(postgres.NewDatasetRepo(db), events),
	})

	input := workflows.RefreshInput{
		Datasets: cfg.Datasets.Names(),
		Required: []string{cfg.Datasets.Boundary},
	}

	if len(os.Args) > 1 && os.Args[1] == "once" {
		if err := runOnce(ctx, c, w, cfg.Temporal.TaskQueue, input); err != nil {
			log.Fatalf("refresh: %v", err)
		}
		return
	}

	if err := ensureSchedule(ctx, c, cfg.Temporal, input); err != nil {
		log.Fatalf("schedule: %v", err)
	}

	slog.Info("refresher worker started", "task_queue", cfg.Temporal.TaskQueue, "every_min", cfg.Temporal.RefreshInterval)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}

// ensureSchedule creates the periodic refresh schedule unless it exists.
func ensureSchedule(ctx context.Context, c client.Client, tc config.TemporalConfig, input workflows.RefreshInput) error {
	every := time.Duration(tc.RefreshInterval) * time.Minute
	if every <= 0 {
		every = time.Hour
	}
	_, err := c.ScheduleClient().Create(ctx, client.ScheduleOptions{
		ID: scheduleID,
		Spec: client.ScheduleSpec{
			Intervals: []client.ScheduleIntervalSpec{{Every: every}},
		},
		Action: &client.ScheduleWorkflowAction{
			ID:        scheduleID + "-run",
			Workflow:  workflows.RefreshWorkflowName,
			Args:      []interface{}{input},
			TaskQueue: tc.TaskQueue,
		},
	})
	if errors.Is(err, temporal.ErrScheduleAlreadyRunning) {
		slog.Info("refresh schedule already exists", "id", scheduleID)
		return nil
	}
	return err
}

func runOnce(ctx context.Context, c client.Client, w worker.Worker, queue string, input workflows.RefreshInput) error {
	if err := w.Start(); err != nil {
		return fmt.Errorf("start worker: %w", err)
	}
	defer w.Stop()

	run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        fmt.Sprintf("%s-once-%d", scheduleID, time.Now().Unix()),
		TaskQueue: queue,
	}, workflows.RefreshWorkflow, input)
	if err != nil {
		return err
	}

	var res workflows.RefreshResult
	if err := run.Get(ctx, &res); err != nil {
		return err
	}
	slog.Info("refresh complete", "stored", len(res.Stored), "failed", res.Failed)
	return nil
}
