package workflows

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// RefreshWorkflowName is the registered name of RefreshWorkflow.
const RefreshWorkflowName = "RefreshWorkflow"

// RefreshInput is the input for the refresh workflow.
type RefreshInput struct {
	Datasets []string
	// Required datasets fail the workflow when they cannot be refreshed.
	// The boundary belongs here: without it no map can be drawn.
	Required []string
}

// DatasetResult describes one stored dataset.
type DatasetResult struct {
	Name     string
	Features int
}

// RefreshResult summarizes a refresh run.
type RefreshResult struct {
	Stored []DatasetResult
	Failed []string
}

// RefreshWorkflow downloads every dataset in parallel, stores each one and
// lets the stored-dataset events update running map servers. A failed
// optional dataset keeps its previous stored version.
func RefreshWorkflow(ctx workflow.Context, input RefreshInput) (RefreshResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting dataset refresh", "datasets", len(input.Datasets))

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    5 * time.Second,
			BackoffCoefficient: 2,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	var a *RefreshActivities
	futures := make([]workflow.Future, len(input.Datasets))
	for i, name := range input.Datasets {
		futures[i] = workflow.ExecuteActivity(ctx, a.RefreshDataset, name)
	}

	required := make(map[string]bool, len(input.Required))
	for _, name := range input.Required {
		required[name] = true
	}

	var (
		result   RefreshResult
		firstErr error
	)
	for i, f := range futures {
		name := input.Datasets[i]
		var r DatasetResult
		if err := f.Get(ctx, &r); err != nil {
			logger.Warn("dataset refresh failed", "dataset", name, "error", err)
			result.Failed = append(result.Failed, name)
			if required[name] && firstErr == nil {
				firstErr = fmt.Errorf("refresh required dataset %s: %w", name, err)
			}
			continue
		}
		result.Stored = append(result.Stored, r)
	}

	if firstErr != nil {
		return result, firstErr
	}
	logger.Info("Dataset refresh finished", "stored", len(result.Stored), "failed", len(result.Failed))
	return result, nil
}
