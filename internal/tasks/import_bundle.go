package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/bookpress/bookpress/internal/entities"
	"github.com/bookpress/bookpress/internal/importer"
)

// ImportBundleTask migrates the selected posts into one draft book with a
// chapter per post.
type ImportBundleTask struct {
	RunID          string `json:"run_id"`
	PostIDs        []int  `json:"post_ids"`
	BundleTitle    string `json:"bundle_title"`
	Intro          string `json:"intro,omitempty"`
	TargetAuthorID string `json:"target_author_id"`
	SkipImported   bool   `json:"skip_imported"`
	UploadCovers   bool   `json:"upload_covers"`
}

// Config returns the queue configuration for bundle import tasks. Like
// single-mode imports these are never retried automatically.
func (t ImportBundleTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "import_bundle",
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     30 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ImportBundleProcessor creates a processor function for ImportBundleTask.
func ImportBundleProcessor(source PostSource, runner ImportRunner) backlite.QueueProcessor[ImportBundleTask] {
	return func(ctx context.Context, task ImportBundleTask) error {
		if source == nil || runner == nil {
			return fmt.Errorf("import pipeline not configured")
		}

		result, err := runImport(ctx, source, runner, task.PostIDs, importer.Request{
			RunID:          task.RunID,
			Mode:           entities.ImportModeBundle,
			BundleTitle:    task.BundleTitle,
			Intro:          task.Intro,
			TargetAuthorID: task.TargetAuthorID,
			SkipImported:   task.SkipImported,
			UploadCovers:   task.UploadCovers,
		})
		if err != nil {
			return fmt.Errorf("import bundle: %w", err)
		}

		log.Printf("[TASK] Bundle import %s complete: %q with %d chapters, %d skipped, %d failed",
			result.RunID, task.BundleTitle, result.ChaptersWritten, result.Skipped, result.Failed)
		return nil
	}
}

// NewImportBundleQueue creates a backlite queue for bundle import tasks.
func NewImportBundleQueue(source PostSource, runner ImportRunner) backlite.Queue {
	return backlite.NewQueue(ImportBundleProcessor(source, runner))
}
