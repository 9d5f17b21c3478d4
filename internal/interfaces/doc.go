// Package interfaces documents the core abstractions used throughout the application.
//
// This package consolidates interface documentation to help code agents understand
// extension points and how to implement new functionality.
//
// # Interface Categories
//
// The application uses several categories of interfaces:
//
// ## Data Access Interfaces
//
//   - importer.Ledger: Run and imported-post bookkeeping (internal/importer/importer.go)
//   - importer.ProgressReporter: Live progress of an ongoing run (internal/importer/importer.go)
//   - http.RunStore: Paginated run listing for the API (internal/http/runs.go)
//   - http.ProgressStore: Progress polling for the API (internal/http/imports.go)
//   - tasks.RunPruner: Retention cleanup (internal/tasks/prune_runs.go)
//
// ## External Service Interfaces
//
//   - authors.PostSource: The slice of the WordPress client the resolver needs
//     (internal/authors/resolver.go)
//   - covers.MediaFetcher: Featured-image downloads (internal/covers/cache.go)
//   - covers.Uploader: Image host uploads (internal/covers/resolver.go)
//   - importer.BookWriter: Draft record writes to the document store
//     (internal/importer/importer.go)
//   - http.TargetAuthorLister: Author records on the target store
//     (internal/http/authors.go)
//
// ## Import Pipeline Interfaces
//
//   - http.ImportRunner / tasks.ImportRunner: Execute an import run
//   - importer.CoverResolver: Resolve a post's featured image to a record URL
//   - tasks.PostSource: Resolve workspace posts for queued imports
//   - scheduler.PostSource / scheduler.PostSink: Periodic workspace refresh
//
// # Adding a New Image Host
//
// To push covers to a different hosting service:
//
//  1. Implement covers.Uploader in a new package
//
//     type ImgurClient struct {
//         clientID   string
//         httpClient *http.Client
//     }
//
//     func (c *ImgurClient) Upload(ctx context.Context, filename string, file io.Reader) (*imagehost.UploadResult, error)
//
//     var _ covers.Uploader = (*ImgurClient)(nil)
//
//  2. Construct it in entrypoint.Run and pass it to covers.NewResolver
//
// # Adding a New Target Store
//
// To write drafts somewhere other than the Parse-dialect document store:
//
//  1. Implement importer.BookWriter (and http.TargetAuthorLister if the
//     store has author records) in a new package
//
//     func (c *CouchClient) CreateBook(ctx context.Context, book *bookstore.Book) (*bookstore.CreateResult, error)
//
//     var _ importer.BookWriter = (*CouchClient)(nil)
//
//  2. Wire it in entrypoint.Run where the bookstore client is built today
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// This pattern is used throughout the codebase. See checks.go for examples.
package interfaces
