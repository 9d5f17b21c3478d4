package http

import (
	"github.com/gin-gonic/gin"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies, improving testability
// and reducing parameter count.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Apply token auth if configured. Health endpoints stay public so
	// container probes keep working.
	if cfg.AuthToken != "" {
		router.Use(TokenAuthMiddleware(cfg.AuthToken))
	}

	// Create controllers with appropriate interfaces
	health := NewHealthController(cfg.Database, cfg.Version, Components{
		Source:    cfg.Source != nil,
		Bookstore: cfg.Runner != nil,
		Tasks:     cfg.TaskClient != nil,
	})
	postsController := NewPostsController(cfg.Source, cfg.Workspace, cfg.FetchPerPage, cfg.FetchMaxPages)
	selectionController := NewSelectionController(cfg.Workspace)
	authorsController := NewAuthorsController(cfg.SourceAuthors, cfg.TargetAuthors)
	importsController := NewImportsController(cfg.Workspace, cfg.Runner, cfg.Progress, cfg.TaskClient)
	var thumbnailsController *ThumbnailsController
	if cfg.CoverCache != nil {
		thumbnailsController = NewThumbnailsController(cfg.CoverCache, cfg.Workspace)
	}

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// Post workspace endpoints
	router.POST("/api/posts/fetch", postsController.Fetch)
	router.GET("/api/posts", postsController.List)
	router.GET("/api/posts/:id/preview", postsController.Preview)

	// Thumbnail endpoint
	if thumbnailsController != nil {
		router.GET("/api/posts/:id/thumbnail", thumbnailsController.GetThumbnail)
	}

	// Filter and selection endpoints
	router.PUT("/api/filters", selectionController.SetFilter)
	router.DELETE("/api/filters", selectionController.ClearFilter)
	router.POST("/api/posts/:id/select", selectionController.Select)
	router.DELETE("/api/posts/:id/select", selectionController.Deselect)
	router.POST("/api/selection/all", selectionController.SelectAll)
	router.DELETE("/api/selection", selectionController.ClearSelection)

	// Author endpoints
	router.GET("/api/source-authors", authorsController.SourceAuthors)
	router.GET("/api/target-authors", authorsController.TargetAuthors)

	// Import endpoints
	router.POST("/api/import", importsController.StartImport)
	router.POST("/api/import/bundle", importsController.StartBundle)
	router.GET("/api/import/status", importsController.GetStatus)

	// Import run history endpoints
	if cfg.Runs != nil {
		runsController := NewRunsController(cfg.Runs)
		router.GET("/api/runs", runsController.ListRuns)
		router.GET("/api/runs/:id", runsController.GetRun)
	}

	// Task management endpoints
	if cfg.TaskClient != nil {
		tasksController := NewTasksController(cfg.TaskClient, cfg.RunsRetentionDays)
		router.GET("/api/tasks/types", tasksController.ListTaskTypes)
		router.GET("/api/tasks/:id", tasksController.GetTaskStatus)
		router.POST("/api/tasks/:type/run", tasksController.RunTask)
	}

	return router
}
