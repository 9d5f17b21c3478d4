package importer

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/bookpress/bookpress/internal/bookstore"
	"github.com/bookpress/bookpress/internal/covers"
	"github.com/bookpress/bookpress/internal/entities"
	"github.com/bookpress/bookpress/internal/transform"
	"github.com/bookpress/bookpress/internal/wordpress"
)

// BookWriter writes draft records to the target store.
type BookWriter interface {
	CreateBook(ctx context.Context, book *bookstore.Book) (*bookstore.CreateResult, error)
}

// Ledger records runs and the posts they migrated.
type Ledger interface {
	CreateRun(run *entities.ImportRun) error
	SaveRun(run *entities.ImportRun) error
	RecordPost(post *entities.ImportedPost) error
	IsPostImported(sourcePostID int) (bool, error)
}

// CoverResolver turns a post's featured image into the URL a record should
// carry.
type CoverResolver interface {
	Resolve(ctx context.Context, postID int, sourceURL string) covers.Resolution
}

// ProgressReporter reports live progress of an ongoing run.
type ProgressReporter interface {
	Start(runID string, totalPosts int) error
	Update(processed, imported, skipped, failed int, currentPost string) error
	Complete(succeeded bool, errorMsg string) error
	IsRunning() (bool, error)
}

// Request describes one import run.
type Request struct {
	Posts []wordpress.Post

	// RunID pre-assigns the ledger row id. Empty means one is generated.
	// The API sets this when queueing a task, so the operator can poll the
	// run before the worker picks it up.
	RunID string

	// Mode selects one book per post (single) or one book with a chapter
	// per post (bundle). Empty means single.
	Mode entities.ImportMode

	// BundleTitle names the record in bundle mode.
	BundleTitle string

	// Intro overrides the derived intro when set.
	Intro string

	// TargetAuthorID is the author record the books will point at.
	TargetAuthorID string

	// SkipImported consults the ledger and skips posts already recorded.
	SkipImported bool

	// UploadCovers pushes featured images through the image host instead
	// of referencing the origin site directly.
	UploadCovers bool
}

// Result contains the summary of an import run.
type Result struct {
	RunID           string              `json:"run_id"`
	Mode            entities.ImportMode `json:"mode"`
	TotalPosts      int                 `json:"total_posts"`
	Imported        int                 `json:"imported"`
	Skipped         int                 `json:"skipped"`
	Failed          int                 `json:"failed"`
	BooksCreated    int                 `json:"books_created"`
	ChaptersWritten int                 `json:"chapters_written"`
	CoversUploaded  int                 `json:"covers_uploaded"`
	BookIDs         []string            `json:"book_ids,omitempty"`
	// ImportedPostIDs lists the source posts that made it into the store,
	// for workspace annotation.
	ImportedPostIDs []int    `json:"imported_post_ids,omitempty"`
	Errors          []string `json:"errors,omitempty"`
}

// Importer drives posts through transform, cover resolution and the store,
// recording every run in the ledger.
type Importer struct {
	store    BookWriter
	ledger   Ledger
	covers   CoverResolver
	progress ProgressReporter
	siteURL  string
}

// NewImporter creates an importer writing to the given store and ledger.
// siteURL is recorded as the origin of every book.
func NewImporter(store BookWriter, ledger Ledger, siteURL string) *Importer {
	return &Importer{
		store:   store,
		ledger:  ledger,
		siteURL: siteURL,
	}
}

// SetCoverResolver sets the cover pipeline (optional).
func (im *Importer) SetCoverResolver(resolver CoverResolver) {
	im.covers = resolver
}

// SetProgressReporter sets the progress reporter (optional).
func (im *Importer) SetProgressReporter(reporter ProgressReporter) {
	im.progress = reporter
}

// Run executes one import run sequentially. Per-post failures are recorded
// and the run continues; the run itself only fails on cancellation or when
// a bundle cannot be written at all.
func (im *Importer) Run(ctx context.Context, req Request) (*Result, error) {
	if len(req.Posts) == 0 {
		return nil, ErrNoPosts
	}
	if req.Mode == "" {
		req.Mode = entities.ImportModeSingle
	}

	if im.progress != nil {
		running, err := im.progress.IsRunning()
		if err != nil {
			return nil, fmt.Errorf("check import status: %w", err)
		}
		if running {
			return nil, ErrAlreadyRunning
		}
	}

	run := &entities.ImportRun{
		ID:             req.RunID,
		Mode:           req.Mode,
		BundleTitle:    req.BundleTitle,
		TargetAuthorID: req.TargetAuthorID,
		Status:         entities.RunStatusRunning,
		TotalPosts:     len(req.Posts),
	}
	if err := im.ledger.CreateRun(run); err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}

	result := &Result{
		RunID:      run.ID,
		Mode:       req.Mode,
		TotalPosts: len(req.Posts),
	}

	if im.progress != nil {
		if err := im.progress.Start(run.ID, len(req.Posts)); err != nil {
			return nil, fmt.Errorf("start progress: %w", err)
		}
	}

	var runErr error
	switch req.Mode {
	case entities.ImportModeBundle:
		runErr = im.runBundle(ctx, req, run, result)
	default:
		runErr = im.runSingle(ctx, req, result)
	}

	im.finalize(run, result, runErr)
	return result, runErr
}

func (im *Importer) runSingle(ctx context.Context, req Request, result *Result) error {
	for i, post := range req.Posts {
		select {
		case <-ctx.Done():
			result.Errors = append(result.Errors, "operation cancelled")
			return ctx.Err()
		default:
		}

		title := postLabel(post)
		if im.progress != nil {
			_ = im.progress.Update(i, result.Imported, result.Skipped, result.Failed, title)
		}

		if req.SkipImported && im.alreadyImported(post.ID) {
			result.Skipped++
			continue
		}

		draft, err := transform.SinglePost(post, transform.Options{
			Intro:          req.Intro,
			TargetAuthorID: req.TargetAuthorID,
		})
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", title, err))
			continue
		}

		created, coverUploaded, err := im.writeBook(ctx, draft, req.UploadCovers)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", title, err))
			continue
		}

		result.Imported++
		result.BooksCreated++
		result.ChaptersWritten += len(draft.Chapters)
		result.BookIDs = append(result.BookIDs, created.ObjectID)
		result.ImportedPostIDs = append(result.ImportedPostIDs, draft.PostIDs...)
		if coverUploaded {
			result.CoversUploaded++
		}
		im.recordChapters(result.RunID, created.ObjectID, draft)
	}

	if im.progress != nil {
		_ = im.progress.Update(len(req.Posts), result.Imported, result.Skipped, result.Failed, "")
	}
	return nil
}

func (im *Importer) runBundle(ctx context.Context, req Request, run *entities.ImportRun, result *Result) error {
	select {
	case <-ctx.Done():
		result.Errors = append(result.Errors, "operation cancelled")
		return ctx.Err()
	default:
	}

	posts := req.Posts
	if req.SkipImported {
		kept := make([]wordpress.Post, 0, len(posts))
		for _, post := range posts {
			if im.alreadyImported(post.ID) {
				result.Skipped++
				continue
			}
			kept = append(kept, post)
		}
		posts = kept
	}

	if len(posts) == 0 {
		// Everything was migrated before; nothing failed, nothing to write.
		if im.progress != nil {
			_ = im.progress.Update(result.TotalPosts, 0, result.Skipped, 0, "")
		}
		return nil
	}

	draft, err := transform.Bundle(posts, transform.Options{
		BundleTitle:    req.BundleTitle,
		Intro:          req.Intro,
		TargetAuthorID: req.TargetAuthorID,
	})
	if err != nil {
		result.Failed += len(posts)
		result.Errors = append(result.Errors, err.Error())
		return fmt.Errorf("build bundle: %w", err)
	}

	if im.progress != nil {
		_ = im.progress.Update(result.Skipped, 0, result.Skipped, 0, draft.Title)
	}

	created, coverUploaded, err := im.writeBook(ctx, draft, req.UploadCovers)
	if err != nil {
		result.Failed += len(posts)
		result.Errors = append(result.Errors, err.Error())
		return fmt.Errorf("write bundle: %w", err)
	}

	result.Imported = len(posts)
	result.BooksCreated = 1
	result.ChaptersWritten = len(draft.Chapters)
	result.BookIDs = []string{created.ObjectID}
	result.ImportedPostIDs = append(result.ImportedPostIDs, draft.PostIDs...)
	if coverUploaded {
		result.CoversUploaded = 1
	}
	run.RemoteBookID = created.ObjectID
	im.recordChapters(result.RunID, created.ObjectID, draft)

	if im.progress != nil {
		_ = im.progress.Update(result.TotalPosts, result.Imported, result.Skipped, result.Failed, "")
	}
	return nil
}

// writeBook resolves the cover and pushes one record to the store.
func (im *Importer) writeBook(ctx context.Context, draft *transform.Draft, uploadCovers bool) (*bookstore.CreateResult, bool, error) {
	coverURL, uploaded := im.resolveCover(ctx, draft, uploadCovers)

	record := &bookstore.Book{
		Title:    draft.Title,
		Intro:    draft.Intro,
		CoverURL: coverURL,
		Status:   bookstore.StatusDraft,
		Author:   bookstore.AuthorPointer(draft.TargetAuthorID),
		Source: bookstore.Source{
			Origin:  bookstore.OriginWordPress,
			SiteURL: im.siteURL,
			PostIDs: draft.PostIDs,
		},
	}
	for _, ch := range draft.Chapters {
		record.Chapters = append(record.Chapters, bookstore.Chapter{
			Seq:          ch.Seq,
			Title:        ch.Title,
			Content:      ch.Content,
			SourcePostID: ch.SourcePostID,
			PublishedAt:  ch.PublishedAt,
		})
	}

	created, err := im.store.CreateBook(ctx, record)
	if err != nil {
		return nil, false, err
	}
	return created, uploaded, nil
}

func (im *Importer) resolveCover(ctx context.Context, draft *transform.Draft, upload bool) (string, bool) {
	if draft.CoverSourceURL == "" {
		return "", false
	}
	if !upload || im.covers == nil {
		return draft.CoverSourceURL, false
	}
	res := im.covers.Resolve(ctx, draft.CoverPostID, draft.CoverSourceURL)
	return res.URL, res.Uploaded
}

func (im *Importer) recordChapters(runID, remoteBookID string, draft *transform.Draft) {
	for _, ch := range draft.Chapters {
		err := im.ledger.RecordPost(&entities.ImportedPost{
			RunID:        runID,
			SourcePostID: ch.SourcePostID,
			RemoteBookID: remoteBookID,
			ChapterSeq:   ch.Seq,
			Title:        ch.Title,
			PublishedAt:  ch.PublishedAt,
		})
		if err != nil {
			log.Printf("Failed to record imported post %d: %v", ch.SourcePostID, err)
		}
	}
}

func (im *Importer) alreadyImported(postID int) bool {
	imported, err := im.ledger.IsPostImported(postID)
	if err != nil {
		log.Printf("Failed to check ledger for post %d: %v", postID, err)
		return false
	}
	return imported
}

func (im *Importer) finalize(run *entities.ImportRun, result *Result, runErr error) {
	now := time.Now()
	run.CompletedAt = &now
	run.ImportedPosts = result.Imported
	run.SkippedPosts = result.Skipped
	run.FailedPosts = result.Failed
	run.BooksCreated = result.BooksCreated
	run.ChaptersWritten = result.ChaptersWritten
	run.CoversUploaded = result.CoversUploaded

	if runErr != nil {
		run.Status = entities.RunStatusFailed
		run.Error = runErr.Error()
	} else {
		run.Status = entities.RunStatusCompleted
		if len(result.Errors) > 0 {
			run.Error = strings.Join(result.Errors, "; ")
		}
	}

	if err := im.ledger.SaveRun(run); err != nil {
		log.Printf("Failed to update run %s: %v", run.ID, err)
	}

	if im.progress != nil {
		errorMsg := ""
		if runErr != nil {
			errorMsg = runErr.Error()
		} else if len(result.Errors) > 0 {
			errorMsg = fmt.Sprintf("%d errors occurred", len(result.Errors))
		}
		_ = im.progress.Complete(runErr == nil && result.Failed == 0, errorMsg)
	}
}

func postLabel(post wordpress.Post) string {
	if title := transform.CleanText(post.Title.Rendered); title != "" {
		return title
	}
	if post.Slug != "" {
		return post.Slug
	}
	return fmt.Sprintf("post %d", post.ID)
}
