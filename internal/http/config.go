package http

import (
	"github.com/bookpress/bookpress/internal/authors"
	"github.com/bookpress/bookpress/internal/covers"
	"github.com/bookpress/bookpress/internal/database"
	"github.com/bookpress/bookpress/internal/tasks"
	"github.com/bookpress/bookpress/internal/workspace"
	"github.com/bookpress/bookpress/internal/wordpress"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router. This replaces a long parameter list
// in NewRouter for better maintainability.
type RouterConfig struct {
	// Core dependencies
	Workspace *workspace.Workspace
	Source    *wordpress.Client
	Database  *database.Database

	// Import pipeline
	Runner   ImportRunner
	Runs     RunStore
	Progress ProgressStore

	// Author pickers
	SourceAuthors *authors.Resolver
	TargetAuthors TargetAuthorLister

	// Featured-image staging (optional)
	CoverCache *covers.Cache

	// Task queue client (optional)
	TaskClient *tasks.Client

	// Fetch defaults from configuration
	FetchPerPage  int
	FetchMaxPages int

	// Retention default for manually triggered prune tasks
	RunsRetentionDays int

	// Static operator token; empty disables API auth
	AuthToken string

	// Application info
	Version string
}
