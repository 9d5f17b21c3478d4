package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bookpress/bookpress/internal/authors"
	"github.com/bookpress/bookpress/internal/bookstore"
	"github.com/bookpress/bookpress/internal/config"
	"github.com/bookpress/bookpress/internal/covers"
	"github.com/bookpress/bookpress/internal/database"
	"github.com/bookpress/bookpress/internal/database/progress"
	"github.com/bookpress/bookpress/internal/database/runs"
	http_controllers "github.com/bookpress/bookpress/internal/http"
	"github.com/bookpress/bookpress/internal/imagehost"
	"github.com/bookpress/bookpress/internal/importer"
	"github.com/bookpress/bookpress/internal/scheduler"
	"github.com/bookpress/bookpress/internal/tasks"
	"github.com/bookpress/bookpress/internal/wordpress"
	"github.com/bookpress/bookpress/internal/workspace"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		// service connections
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown: wait for SIGINT/SIGTERM, then give in-flight
	// requests and background workers a bounded window to finish.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Call shutdown callback first (e.g., to stop the task queue)
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting bookpress v%s", version)

	// Initialize the ledger database
	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	runsRepo := runs.NewRepository(db.DB)
	progressRepo := progress.NewRepository(db.DB)

	// WordPress source client
	var source *wordpress.Client
	if cfg.WordPress.SiteURL != "" {
		source = wordpress.NewClient(cfg.WordPress.SiteURL, cfg.WordPress.Username, cfg.WordPress.AppPassword, cfg.WordPress.Timeout)
		if source.Authenticated() {
			log.Printf("WordPress source: %s (authenticated as %s)", cfg.WordPress.SiteURL, cfg.WordPress.Username)
		} else {
			log.Printf("WordPress source: %s (anonymous)", cfg.WordPress.SiteURL)
		}
	} else {
		log.Printf("WARNING: WordPress site URL is not set. Post fetching will be disabled. Set 'WORDPRESS_SITE_URL' environment variable to enable.")
	}

	// Operator workspace holding the fetched posts and the selection
	ws := workspace.NewWorkspace()

	// Seed imported annotations from earlier sessions so re-fetched posts
	// show up flagged
	if ids, err := runsRepo.ImportedPostIDs(); err != nil {
		log.Printf("WARNING: Failed to load imported post ids from the ledger: %v", err)
	} else if len(ids) > 0 {
		ws.MarkImported(ids)
		log.Printf("Loaded %d imported post annotations from the ledger", len(ids))
	}

	// Author discovery over the source site
	var sourceAuthors *authors.Resolver
	if source != nil {
		sourceAuthors = authors.NewResolver(source, source.Anonymous(), 0)
	}

	// Media cache for staging featured images
	var coverCache *covers.Cache
	if source != nil {
		coverCache, err = covers.NewCache(cfg.MediaCache.Dir, source)
		if err != nil {
			log.Printf("WARNING: Failed to initialize media cache: %v", err)
		} else {
			log.Printf("Media cache initialized at %s", cfg.MediaCache.Dir)
		}
	}

	// Target bookstore and the import pipeline
	var store *bookstore.Client
	var runner *importer.Importer
	if cfg.Bookstore.BaseURL != "" {
		store = bookstore.NewClient(cfg.Bookstore.BaseURL, cfg.Bookstore.AppID, cfg.Bookstore.RESTKey, cfg.Bookstore.Timeout)
		log.Printf("Bookstore target: %s", cfg.Bookstore.BaseURL)

		runner = importer.NewImporter(store, runsRepo, cfg.WordPress.SiteURL)
		runner.SetProgressReporter(progressRepo)

		if coverCache != nil {
			var uploader covers.Uploader
			if cfg.ImageHost.Token != "" {
				uploader = imagehost.NewClient(cfg.ImageHost.BaseURL, cfg.ImageHost.Token, cfg.ImageHost.Timeout)
				log.Printf("Cover uploads enabled via %s", cfg.ImageHost.BaseURL)
			} else {
				log.Printf("Image host token is not set. Imported covers will reference the original image URLs.")
			}
			runner.SetCoverResolver(covers.NewResolver(coverCache, uploader))
		}
	} else {
		log.Printf("WARNING: Bookstore URL is not set. Import endpoints will be disabled. Set 'BOOKSTORE_URL' environment variable to enable.")
	}

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:           cfg.Tasks.Workers,
			MaxRetries:        cfg.Tasks.MaxRetries,
			RetryDelay:        cfg.Tasks.RetryDelay,
			TaskTimeout:       cfg.Tasks.TaskTimeout,
			ReleaseAfter:      cfg.Tasks.ReleaseAfter,
			CleanupInterval:   cfg.Tasks.CleanupInterval,
			RetentionDuration: cfg.Tasks.RetentionDuration,
		}

		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		// Register task queues. Import queues need a wired bookstore.
		taskClient.Register(tasks.NewPruneRunsQueue(runsRepo))
		if runner != nil {
			taskClient.Register(
				tasks.NewImportPostsQueue(ws, runner),
				tasks.NewImportBundleQueue(ws, runner),
			)
		}

		// Start task workers in background
		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
	}

	// Scheduled workspace refresh
	var refresher *scheduler.RefreshScheduler
	if source != nil {
		refresher = scheduler.NewRefreshScheduler(source, ws, cfg.Refresh)
		if err := refresher.Start(context.Background()); err != nil {
			log.Printf("WARNING: Workspace refresh scheduler failed to start: %v", err)
		}
	}

	// Build router configuration with all dependencies
	routerCfg := http_controllers.RouterConfig{
		Workspace:         ws,
		Source:            source,
		Database:          db,
		Runs:              runsRepo,
		Progress:          progressRepo,
		SourceAuthors:     sourceAuthors,
		CoverCache:        coverCache,
		TaskClient:        taskClient,
		FetchPerPage:      cfg.WordPress.PerPage,
		FetchMaxPages:     cfg.WordPress.MaxPages,
		RunsRetentionDays: cfg.Runs.RetentionDays,
		AuthToken:         cfg.Auth.Token,
		Version:           version,
	}
	// Interface fields stay nil unless the concrete value exists, so the
	// router's presence checks see a true nil.
	if runner != nil {
		routerCfg.Runner = runner
	}
	if store != nil {
		routerCfg.TargetAuthors = store
	}

	router := http_controllers.NewRouter(routerCfg)

	// Shutdown callback for graceful cleanup
	onShutdown := func(ctx context.Context) {
		if refresher != nil {
			refresher.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}
