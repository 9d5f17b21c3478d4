package http

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mikestefanello/backlite"

	"github.com/bookpress/bookpress/internal/entities"
	"github.com/bookpress/bookpress/internal/importer"
	"github.com/bookpress/bookpress/internal/tasks"
	"github.com/bookpress/bookpress/internal/workspace"
	"github.com/bookpress/bookpress/internal/wordpress"
)

// ImportRunner executes an import run synchronously.
type ImportRunner interface {
	Run(ctx context.Context, req importer.Request) (*importer.Result, error)
}

// ProgressStore reads the live progress row.
type ProgressStore interface {
	Get() (*entities.ImportProgress, error)
	IsRunning() (bool, error)
}

// ImportsController triggers import runs and reports their progress. Runs
// are queued as background tasks when the task queue is enabled and executed
// in-request otherwise.
type ImportsController struct {
	workspace  *workspace.Workspace
	runner     ImportRunner
	progress   ProgressStore
	taskClient *tasks.Client
}

// NewImportsController creates a new ImportsController.
func NewImportsController(ws *workspace.Workspace, runner ImportRunner, progress ProgressStore, taskClient *tasks.Client) *ImportsController {
	return &ImportsController{
		workspace:  ws,
		runner:     runner,
		progress:   progress,
		taskClient: taskClient,
	}
}

// ImportRequest is the request body for both import endpoints. BundleTitle
// is only read in bundle mode.
type ImportRequest struct {
	// PostIDs overrides the current selection when set.
	PostIDs        []int  `json:"post_ids,omitempty"`
	TargetAuthorID string `json:"target_author_id"`
	BundleTitle    string `json:"bundle_title,omitempty"`
	Intro          string `json:"intro,omitempty"`
	SkipImported   bool   `json:"skip_imported"`
	UploadCovers   bool   `json:"upload_covers"`
}

// QueuedImportResponse is returned when the run was handed to the task queue.
type QueuedImportResponse struct {
	Queued     bool                `json:"queued"`
	RunID      string              `json:"run_id"`
	TaskID     string              `json:"task_id"`
	Mode       entities.ImportMode `json:"mode"`
	TotalPosts int                 `json:"total_posts"`
}

// StartImport handles POST /api/import
// Migrates each selected post into its own draft book.
func (ic *ImportsController) StartImport(c *gin.Context) {
	ic.start(c, entities.ImportModeSingle)
}

// StartBundle handles POST /api/import/bundle
// Migrates the selected posts into one draft book with a chapter per post.
func (ic *ImportsController) StartBundle(c *gin.Context) {
	ic.start(c, entities.ImportModeBundle)
}

func (ic *ImportsController) start(c *gin.Context, mode entities.ImportMode) {
	if ic.runner == nil {
		respondUnavailable(c, "bookstore is not configured")
		return
	}

	var req ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	if strings.TrimSpace(req.TargetAuthorID) == "" {
		respondBadRequest(c, "target_author_id is required")
		return
	}
	if mode == entities.ImportModeBundle && strings.TrimSpace(req.BundleTitle) == "" {
		respondBadRequest(c, "bundle_title is required")
		return
	}

	posts, ok := ic.resolvePosts(c, req.PostIDs)
	if !ok {
		return
	}

	if ic.progress != nil {
		running, err := ic.progress.IsRunning()
		if err == nil && running {
			respondConflict(c, "an import is already in progress")
			return
		}
	}

	if ic.taskClient != nil {
		ic.enqueue(c, mode, req, posts)
		return
	}

	result, err := ic.runner.Run(c.Request.Context(), importer.Request{
		Posts:          posts,
		Mode:           mode,
		BundleTitle:    req.BundleTitle,
		Intro:          req.Intro,
		TargetAuthorID: req.TargetAuthorID,
		SkipImported:   req.SkipImported,
		UploadCovers:   req.UploadCovers,
	})
	if err != nil {
		switch {
		case errors.Is(err, importer.ErrAlreadyRunning):
			respondConflict(c, err.Error())
		case errors.Is(err, importer.ErrNoPosts):
			respondBadRequest(c, err.Error())
		default:
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Details: result})
		}
		return
	}

	if len(result.ImportedPostIDs) > 0 {
		ic.workspace.MarkImported(result.ImportedPostIDs)
	}
	c.JSON(http.StatusOK, result)
}

// resolvePosts turns the request into the posts the run covers: an explicit
// id list when given, the current selection otherwise.
func (ic *ImportsController) resolvePosts(c *gin.Context, postIDs []int) ([]wordpress.Post, bool) {
	if len(postIDs) > 0 {
		posts, err := ic.workspace.PostsByID(postIDs)
		if err != nil {
			respondBadRequest(c, "one or more post ids are not loaded in the workspace")
			return nil, false
		}
		return posts, true
	}

	posts := ic.workspace.SelectedPosts()
	if len(posts) == 0 {
		respondBadRequest(c, "no posts selected")
		return nil, false
	}
	return posts, true
}

// enqueue hands the run to the task queue. The run id is assigned here so
// the operator can poll /api/runs/:id as soon as the worker picks it up.
func (ic *ImportsController) enqueue(c *gin.Context, mode entities.ImportMode, req ImportRequest, posts []wordpress.Post) {
	ids := make([]int, len(posts))
	for i, post := range posts {
		ids[i] = post.ID
	}
	runID := uuid.NewString()

	var task backlite.Task
	switch mode {
	case entities.ImportModeBundle:
		task = tasks.ImportBundleTask{
			RunID:          runID,
			PostIDs:        ids,
			BundleTitle:    req.BundleTitle,
			Intro:          req.Intro,
			TargetAuthorID: req.TargetAuthorID,
			SkipImported:   req.SkipImported,
			UploadCovers:   req.UploadCovers,
		}
	default:
		task = tasks.ImportPostsTask{
			RunID:          runID,
			PostIDs:        ids,
			TargetAuthorID: req.TargetAuthorID,
			Intro:          req.Intro,
			SkipImported:   req.SkipImported,
			UploadCovers:   req.UploadCovers,
		}
	}

	taskIDs, err := ic.taskClient.Add(task).Save()
	if err != nil {
		respondInternalError(c, err, "enqueue import task")
		return
	}
	log.Printf("Enqueued %s import task %s (run %s) covering %d posts", mode, taskIDs[0], runID, len(ids))

	c.JSON(http.StatusAccepted, QueuedImportResponse{
		Queued:     true,
		RunID:      runID,
		TaskID:     taskIDs[0],
		Mode:       mode,
		TotalPosts: len(ids),
	})
}

// ImportStatusResponse reports the live state of the current or most recent
// import run.
type ImportStatusResponse struct {
	Running     bool    `json:"running"`
	RunID       string  `json:"run_id,omitempty"`
	Status      string  `json:"status,omitempty"`
	TotalPosts  int     `json:"total_posts,omitempty"`
	Processed   int     `json:"processed,omitempty"`
	Imported    int     `json:"imported,omitempty"`
	Skipped     int     `json:"skipped,omitempty"`
	Failed      int     `json:"failed,omitempty"`
	CurrentPost string  `json:"current_post,omitempty"`
	Error       string  `json:"error,omitempty"`
	Progress    float64 `json:"progress,omitempty"` // 0-100 percentage
}

// GetStatus handles GET /api/import/status
// Returns the progress row of the current or most recent run.
func (ic *ImportsController) GetStatus(c *gin.Context) {
	resp := ImportStatusResponse{Running: false}

	if ic.progress != nil {
		progress, err := ic.progress.Get()
		if err == nil {
			resp.Running = progress.Status == entities.ProgressStatusRunning
			resp.RunID = progress.RunID
			resp.Status = string(progress.Status)
			resp.TotalPosts = progress.TotalPosts
			resp.Processed = progress.Processed
			resp.Imported = progress.Imported
			resp.Skipped = progress.Skipped
			resp.Failed = progress.Failed
			resp.CurrentPost = progress.CurrentPost
			resp.Error = progress.Error

			if progress.TotalPosts > 0 {
				resp.Progress = float64(progress.Processed) / float64(progress.TotalPosts) * 100
			}
		}
	}

	c.JSON(http.StatusOK, resp)
}
