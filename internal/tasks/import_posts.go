package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/bookpress/bookpress/internal/importer"
	"github.com/bookpress/bookpress/internal/wordpress"
)

// PostSource resolves workspace posts for background imports and records
// which of them were migrated.
type PostSource interface {
	PostsByID(ids []int) ([]wordpress.Post, error)
	MarkImported(ids []int)
}

// ImportRunner executes an import run.
type ImportRunner interface {
	Run(ctx context.Context, req importer.Request) (*importer.Result, error)
}

// ImportPostsTask migrates each selected post into its own draft book.
type ImportPostsTask struct {
	RunID          string `json:"run_id"`
	PostIDs        []int  `json:"post_ids"`
	TargetAuthorID string `json:"target_author_id"`
	Intro          string `json:"intro,omitempty"`
	SkipImported   bool   `json:"skip_imported"`
	UploadCovers   bool   `json:"upload_covers"`
}

// Config returns the queue configuration for single-mode import tasks.
// Creating records is not idempotent, so a failed run is never retried
// automatically; the operator re-triggers with skip_imported instead.
func (t ImportPostsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "import_posts",
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

// ImportPostsProcessor creates a processor function for ImportPostsTask.
func ImportPostsProcessor(source PostSource, runner ImportRunner) backlite.QueueProcessor[ImportPostsTask] {
	return func(ctx context.Context, task ImportPostsTask) error {
		if source == nil || runner == nil {
			return fmt.Errorf("import pipeline not configured")
		}

		result, err := runImport(ctx, source, runner, task.PostIDs, importer.Request{
			RunID:          task.RunID,
			Intro:          task.Intro,
			TargetAuthorID: task.TargetAuthorID,
			SkipImported:   task.SkipImported,
			UploadCovers:   task.UploadCovers,
		})
		if err != nil {
			return fmt.Errorf("import posts: %w", err)
		}

		log.Printf("[TASK] Import %s complete: %d posts, %d books created, %d skipped, %d failed",
			result.RunID, result.TotalPosts, result.BooksCreated, result.Skipped, result.Failed)
		return nil
	}
}

// NewImportPostsQueue creates a backlite queue for single-mode import tasks.
func NewImportPostsQueue(source PostSource, runner ImportRunner) backlite.Queue {
	return backlite.NewQueue(ImportPostsProcessor(source, runner))
}

// runImport resolves the posts, runs the importer and annotates the
// workspace with what made it through.
func runImport(ctx context.Context, source PostSource, runner ImportRunner, ids []int, req importer.Request) (*importer.Result, error) {
	posts, err := source.PostsByID(ids)
	if err != nil {
		return nil, fmt.Errorf("resolve posts: %w", err)
	}
	req.Posts = posts

	result, err := runner.Run(ctx, req)
	if err != nil {
		return nil, err
	}

	if len(result.ImportedPostIDs) > 0 {
		source.MarkImported(result.ImportedPostIDs)
	}
	return result, nil
}
