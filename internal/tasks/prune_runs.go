package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// RunPruner provides the ability to delete old import runs.
type RunPruner interface {
	DeleteRunsBefore(cutoff time.Time) (int64, error)
}

// PruneRunsTask removes finished import runs older than the configured
// retention period. The per-post dedupe rows are untouched.
type PruneRunsTask struct {
	RetentionDays int `json:"retention_days"`
}

// Config returns the queue configuration for run pruning tasks.
func (t PruneRunsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "prune_runs",
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// PruneRunsProcessor creates a processor function for PruneRunsTask.
func PruneRunsProcessor(pruner RunPruner) backlite.QueueProcessor[PruneRunsTask] {
	return func(ctx context.Context, task PruneRunsTask) error {
		if pruner == nil {
			return fmt.Errorf("run pruner not configured")
		}

		retentionDays := task.RetentionDays
		if retentionDays <= 0 {
			retentionDays = 90
		}
		cutoff := time.Now().Add(-time.Duration(retentionDays) * 24 * time.Hour)

		deleted, err := pruner.DeleteRunsBefore(cutoff)
		if err != nil {
			return fmt.Errorf("prune runs: %w", err)
		}

		log.Printf("[TASK] Pruned %d import runs older than %d days", deleted, retentionDays)
		return nil
	}
}

// NewPruneRunsQueue creates a backlite queue for run pruning tasks.
func NewPruneRunsQueue(pruner RunPruner) backlite.Queue {
	return backlite.NewQueue(PruneRunsProcessor(pruner))
}
