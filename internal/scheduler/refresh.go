package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/bookpress/bookpress/internal/config"
	"github.com/bookpress/bookpress/internal/wordpress"
	"github.com/robfig/cron/v3"
)

// refreshTimeout bounds a single refresh pull. A refresh fetches one page,
// so this only has to cover a slow source, not a full crawl.
const refreshTimeout = 2 * time.Minute

// PostSource pulls posts from the WordPress site.
type PostSource interface {
	ListPosts(ctx context.Context, query wordpress.PostQuery) ([]wordpress.Post, *wordpress.PageInfo, error)
}

// PostSink receives refreshed posts. *workspace.Workspace satisfies this.
type PostSink interface {
	MergePosts(posts []wordpress.Post)
}

// RefreshScheduler periodically pulls the newest posts from the source site
// into the workspace, so a long-lived session picks up new publications
// without a manual fetch. Posts are merged by id; the operator's filters and
// selections are untouched.
type RefreshScheduler struct {
	source PostSource
	sink   PostSink
	cfg    config.Refresh

	cron         *cron.Cron
	entryID      cron.EntryID
	mu           sync.RWMutex
	isRunning    bool
	isRefreshing bool
	cancelFunc   context.CancelFunc
}

// NewRefreshScheduler creates a new scheduler instance
func NewRefreshScheduler(source PostSource, sink PostSink, cfg config.Refresh) *RefreshScheduler {
	return &RefreshScheduler{
		source: source,
		sink:   sink,
		cfg:    cfg,
		cron:   cron.New(cron.WithParser(cronParser)),
	}
}

// Start begins the scheduler if refresh is enabled
func (s *RefreshScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if !s.cfg.Enabled {
		log.Printf("Workspace refresh scheduler: disabled")
		return nil
	}

	if s.source == nil {
		log.Printf("Workspace refresh scheduler: no post source configured, skipping")
		return nil
	}

	if err := validateSchedule(s.cfg.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.cfg.Schedule, err)
	}

	entryID, err := s.cron.AddFunc(s.cfg.Schedule, func() {
		s.runRefresh()
	})
	if err != nil {
		return fmt.Errorf("failed to schedule refresh job: %w", err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	nextRun, _ := nextRunTime(s.cfg.Schedule)
	log.Printf("Workspace refresh scheduler: started with schedule '%s' (%s). Next run: %v",
		s.cfg.Schedule,
		scheduleDescription(s.cfg.Schedule),
		nextRun)

	// Monitor for context cancellation
	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler. The lock is released before waiting so
// a mid-flight refresh can clear its own flag and finish.
func (s *RefreshScheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}
	s.mu.Unlock()

	// Stop accepting new jobs and wait for a running refresh to complete
	<-s.cron.Stop().Done()

	log.Printf("Workspace refresh scheduler: stopped")
}

// RunNow triggers an immediate refresh
func (s *RefreshScheduler) RunNow() error {
	go s.runRefresh()
	return nil
}

// IsRunning returns whether the scheduler is active
func (s *RefreshScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// IsRefreshing returns whether a refresh is currently in progress
func (s *RefreshScheduler) IsRefreshing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRefreshing
}

// GetNextRunTime returns when the next refresh will occur
func (s *RefreshScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

// runRefresh pulls the newest posts and merges them into the workspace
func (s *RefreshScheduler) runRefresh() {
	s.mu.Lock()
	if s.isRefreshing {
		s.mu.Unlock()
		log.Printf("Workspace refresh: skipped (already refreshing)")
		return
	}
	s.isRefreshing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isRefreshing = false
		s.mu.Unlock()
	}()

	perPage := s.cfg.PageSize
	if perPage <= 0 {
		perPage = 20
	}

	log.Printf("Workspace refresh: pulling %d newest posts", perPage)
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	// The source API lists posts newest-first, so page one is all we need.
	posts, _, err := s.source.ListPosts(ctx, wordpress.PostQuery{Page: 1, PerPage: perPage})
	if err != nil {
		log.Printf("Workspace refresh: failed to fetch posts: %v", err)
		return
	}

	if len(posts) == 0 {
		log.Printf("Workspace refresh: source returned no posts")
		return
	}

	s.sink.MergePosts(posts)
	log.Printf("Workspace refresh: merged %d posts in %v",
		len(posts), time.Since(startTime).Round(time.Millisecond))
}
