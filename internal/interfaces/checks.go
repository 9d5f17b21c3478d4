package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/bookpress/bookpress/internal/authors"
	"github.com/bookpress/bookpress/internal/bookstore"
	"github.com/bookpress/bookpress/internal/covers"
	"github.com/bookpress/bookpress/internal/database/progress"
	"github.com/bookpress/bookpress/internal/database/runs"
	"github.com/bookpress/bookpress/internal/http"
	"github.com/bookpress/bookpress/internal/imagehost"
	"github.com/bookpress/bookpress/internal/importer"
	"github.com/bookpress/bookpress/internal/scheduler"
	"github.com/bookpress/bookpress/internal/tasks"
	"github.com/bookpress/bookpress/internal/wordpress"
	"github.com/bookpress/bookpress/internal/workspace"
)

// =============================================================================
// Data Access Layer
// =============================================================================

// Ledger implementations
var _ importer.Ledger = (*runs.Repository)(nil)
var _ http.RunStore = (*runs.Repository)(nil)
var _ tasks.RunPruner = (*runs.Repository)(nil)

// Progress implementations
var _ importer.ProgressReporter = (*progress.Repository)(nil)
var _ http.ProgressStore = (*progress.Repository)(nil)

// =============================================================================
// External Services
// =============================================================================

// WordPress client implementations
var _ authors.PostSource = (*wordpress.Client)(nil)
var _ covers.MediaFetcher = (*wordpress.Client)(nil)
var _ scheduler.PostSource = (*wordpress.Client)(nil)

// Bookstore client implementations
var _ importer.BookWriter = (*bookstore.Client)(nil)
var _ http.TargetAuthorLister = (*bookstore.Client)(nil)

// Image host implementations
var _ covers.Uploader = (*imagehost.Client)(nil)

// =============================================================================
// Import Pipeline
// =============================================================================

// ImportRunner implementations
var _ http.ImportRunner = (*importer.Importer)(nil)
var _ tasks.ImportRunner = (*importer.Importer)(nil)

// CoverResolver implementations
var _ importer.CoverResolver = (*covers.Resolver)(nil)

// =============================================================================
// Workspace
// =============================================================================

// Post source/sink implementations
var _ tasks.PostSource = (*workspace.Workspace)(nil)
var _ scheduler.PostSink = (*workspace.Workspace)(nil)
