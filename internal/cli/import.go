package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bookpress/bookpress/internal/bookstore"
	"github.com/bookpress/bookpress/internal/config"
	"github.com/bookpress/bookpress/internal/covers"
	"github.com/bookpress/bookpress/internal/database"
	"github.com/bookpress/bookpress/internal/database/progress"
	"github.com/bookpress/bookpress/internal/database/runs"
	"github.com/bookpress/bookpress/internal/entities"
	"github.com/bookpress/bookpress/internal/imagehost"
	"github.com/bookpress/bookpress/internal/importer"
	"github.com/bookpress/bookpress/internal/transform"
	"github.com/bookpress/bookpress/internal/wordpress"
)

// ImportCommand fetches posts from the source site and writes them to the
// bookstore in one shot, without going through the server workspace.
type ImportCommand struct {
	SiteURL        string
	Username       string
	AppPassword    string
	IDs            string
	Search         string
	After          string
	Before         string
	Author         int
	MaxPages       int
	Bundle         bool
	BundleTitle    string
	Intro          string
	TargetAuthorID string
	SkipImported   bool
	UploadCovers   bool
	ImageHostToken string
	DBPath         string
	MediaCacheDir  string
	DryRun         bool
	Verbose        bool
}

// NewImportCommand creates a new ImportCommand
func NewImportCommand() *ImportCommand {
	return &ImportCommand{}
}

// ParseFlags parses command line flags
func (cmd *ImportCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)

	cfg := config.NewConfig()

	fs.StringVar(&cmd.SiteURL, "site", cfg.WordPress.SiteURL, "WordPress site URL, e.g. https://blog.example.com")
	fs.StringVar(&cmd.Username, "username", cfg.WordPress.Username, "WordPress username (optional)")
	fs.StringVar(&cmd.AppPassword, "app-password", cfg.WordPress.AppPassword, "WordPress application password (optional)")
	fs.StringVar(&cmd.IDs, "ids", "", "Comma-separated post ids to import (skips the search)")
	fs.StringVar(&cmd.Search, "search", "", "Full-text search filter")
	fs.StringVar(&cmd.After, "after", "", "Only posts published after this date (YYYY-MM-DD)")
	fs.StringVar(&cmd.Before, "before", "", "Only posts published before this date (YYYY-MM-DD)")
	fs.IntVar(&cmd.Author, "author", 0, "Only posts by this author id")
	fs.IntVar(&cmd.MaxPages, "max-pages", cfg.WordPress.MaxPages, "Page cap while fetching")
	fs.BoolVar(&cmd.Bundle, "bundle", false, "Create one book with a chapter per post")
	fs.StringVar(&cmd.BundleTitle, "bundle-title", "", "Title of the bundled book (required with -bundle)")
	fs.StringVar(&cmd.Intro, "intro", "", "Intro text override for the bundled book")
	fs.StringVar(&cmd.TargetAuthorID, "target-author", "", "Bookstore author record id the books will point at")
	fs.BoolVar(&cmd.SkipImported, "skip-imported", false, "Skip posts already recorded in the ledger")
	fs.BoolVar(&cmd.UploadCovers, "upload-covers", false, "Push featured images through the image host")
	fs.StringVar(&cmd.ImageHostToken, "image-host-token", cfg.ImageHost.Token, "Image host API token")
	fs.StringVar(&cmd.DBPath, "db", cfg.Database.Path, "Path to the ledger database")
	fs.StringVar(&cmd.MediaCacheDir, "media-cache", cfg.MediaCache.Dir, "Directory for staged cover downloads")
	fs.BoolVar(&cmd.DryRun, "dry-run", false, "Show what would be imported without writing anything")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Show detailed progress")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s import [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Fetch posts from a WordPress site and write them to the bookstore as draft books.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s import -site https://blog.example.com -target-author a1b2c3 -dry-run\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s import -ids 12,34,56 -target-author a1b2c3 -skip-imported\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s import -search golang -bundle -bundle-title \"Go Notes\" -target-author a1b2c3\n", os.Args[0])
	}

	return fs.Parse(args)
}

// Run executes the import command
func (cmd *ImportCommand) Run() error {
	fmt.Println("📥 WordPress Import")
	fmt.Println("===================")

	if cmd.SiteURL == "" {
		return fmt.Errorf("site URL is required (set WORDPRESS_SITE_URL or pass -site)")
	}
	if cmd.Bundle && strings.TrimSpace(cmd.BundleTitle) == "" {
		return fmt.Errorf("-bundle-title is required with -bundle")
	}
	if !cmd.DryRun && strings.TrimSpace(cmd.TargetAuthorID) == "" {
		return fmt.Errorf("-target-author is required (run '%s authors -target' to list candidates)", os.Args[0])
	}

	client := wordpress.NewClient(cmd.SiteURL, cmd.Username, cmd.AppPassword, 30*time.Second)
	ctx := context.Background()

	posts, err := cmd.fetchPosts(ctx, client)
	if err != nil {
		return err
	}
	if len(posts) == 0 {
		fmt.Println("ℹ️  No posts matched.")
		return nil
	}

	mode := entities.ImportModeSingle
	if cmd.Bundle {
		mode = entities.ImportModeBundle
	}

	fmt.Printf("📄 %d posts to import (mode: %s)\n", len(posts), mode)
	if cmd.DryRun || cmd.Verbose {
		for _, post := range posts {
			fmt.Printf("  %6d  %s  %s\n", post.ID, post.PublishedAt().Format("2006-01-02"), transform.CleanText(post.Title.Rendered))
		}
	}

	if cmd.DryRun {
		fmt.Println("\nℹ️  Dry run - no books were created")
		return nil
	}

	cfg := config.NewConfig()
	if cfg.Bookstore.BaseURL == "" {
		return fmt.Errorf("bookstore URL is required (set BOOKSTORE_URL)")
	}

	absDBPath, err := filepath.Abs(cmd.DBPath)
	if err != nil {
		return fmt.Errorf("failed to resolve database path: %w", err)
	}

	fmt.Printf("💾 Ledger: %s\n", absDBPath)

	db, err := database.NewDatabase(absDBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	runsRepo := runs.NewRepository(db.DB)
	progressRepo := progress.NewRepository(db.DB)

	store := bookstore.NewClient(cfg.Bookstore.BaseURL, cfg.Bookstore.AppID, cfg.Bookstore.RESTKey, cfg.Bookstore.Timeout)
	runner := importer.NewImporter(store, runsRepo, cmd.SiteURL)
	runner.SetProgressReporter(progressRepo)

	if cmd.UploadCovers {
		cache, err := covers.NewCache(cmd.MediaCacheDir, client)
		if err != nil {
			return fmt.Errorf("failed to initialize media cache: %w", err)
		}
		var uploader covers.Uploader
		if cmd.ImageHostToken != "" {
			uploader = imagehost.NewClient(cfg.ImageHost.BaseURL, cmd.ImageHostToken, cfg.ImageHost.Timeout)
		} else {
			fmt.Println("ℹ️  No image host token - covers will reference the original image URLs")
		}
		runner.SetCoverResolver(covers.NewResolver(cache, uploader))
	}

	fmt.Printf("🌐 Writing to %s...\n", cfg.Bookstore.BaseURL)

	result, err := runner.Run(ctx, importer.Request{
		Posts:          posts,
		Mode:           mode,
		BundleTitle:    cmd.BundleTitle,
		Intro:          cmd.Intro,
		TargetAuthorID: cmd.TargetAuthorID,
		SkipImported:   cmd.SkipImported,
		UploadCovers:   cmd.UploadCovers,
	})
	if err != nil {
		if result != nil {
			cmd.printSummary(result)
		}
		return fmt.Errorf("import failed: %w", err)
	}

	cmd.printSummary(result)
	return nil
}

func (cmd *ImportCommand) fetchPosts(ctx context.Context, client *wordpress.Client) ([]wordpress.Post, error) {
	if cmd.IDs != "" {
		return cmd.fetchByID(ctx, client)
	}

	query := wordpress.PostQuery{
		Search: cmd.Search,
		Author: cmd.Author,
	}
	if cmd.After != "" {
		after, err := time.Parse("2006-01-02", cmd.After)
		if err != nil {
			return nil, fmt.Errorf("invalid -after date %q (want YYYY-MM-DD)", cmd.After)
		}
		query.After = &after
	}
	if cmd.Before != "" {
		before, err := time.Parse("2006-01-02", cmd.Before)
		if err != nil {
			return nil, fmt.Errorf("invalid -before date %q (want YYYY-MM-DD)", cmd.Before)
		}
		query.Before = &before
	}

	fmt.Printf("📡 Fetching posts from %s...\n", cmd.SiteURL)

	posts, err := client.ListAllPosts(ctx, query, cmd.MaxPages)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch posts: %w", err)
	}
	return posts, nil
}

func (cmd *ImportCommand) fetchByID(ctx context.Context, client *wordpress.Client) ([]wordpress.Post, error) {
	var posts []wordpress.Post
	for _, raw := range strings.Split(cmd.IDs, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, err := strconv.Atoi(raw)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid post id %q in -ids", raw)
		}

		if cmd.Verbose {
			fmt.Printf("📡 Fetching post %d...\n", id)
		}
		post, err := client.GetPost(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch post %d: %w", id, err)
		}
		posts = append(posts, *post)
	}
	return posts, nil
}

func (cmd *ImportCommand) printSummary(result *importer.Result) {
	fmt.Println("\n=== Import Summary ===")
	fmt.Printf("🆔 Run: %s\n", result.RunID)
	fmt.Printf("📄 Posts: %d\n", result.TotalPosts)
	fmt.Printf("✅ Imported: %d\n", result.Imported)
	fmt.Printf("⏭  Skipped: %d\n", result.Skipped)
	fmt.Printf("❌ Failed: %d\n", result.Failed)
	fmt.Printf("📚 Books created: %d\n", result.BooksCreated)
	fmt.Printf("📖 Chapters written: %d\n", result.ChaptersWritten)
	if result.CoversUploaded > 0 {
		fmt.Printf("🖼  Covers uploaded: %d\n", result.CoversUploaded)
	}

	if cmd.Verbose && len(result.BookIDs) > 0 {
		fmt.Println("\nBook ids:")
		for _, id := range result.BookIDs {
			fmt.Printf("  %s\n", id)
		}
	}

	if len(result.Errors) > 0 {
		fmt.Printf("\n⚠️  %d errors:\n", len(result.Errors))
		for _, msg := range result.Errors {
			fmt.Printf("  - %s\n", msg)
		}
	}
}
