package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/bookpress/bookpress/internal/config"
	"github.com/bookpress/bookpress/internal/transform"
	"github.com/bookpress/bookpress/internal/wordpress"
)

// FetchCommand lists posts from the source site without touching the
// ledger or the bookstore.
type FetchCommand struct {
	SiteURL     string
	Username    string
	AppPassword string
	Search      string
	After       string
	Before      string
	Author      int
	Page        int
	PerPage     int
	All         bool
	MaxPages    int
	Verbose     bool
}

// NewFetchCommand creates a new FetchCommand
func NewFetchCommand() *FetchCommand {
	return &FetchCommand{}
}

// ParseFlags parses command line flags
func (cmd *FetchCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("fetch", flag.ExitOnError)

	// Environment variables provide the defaults so a configured server
	// host doubles as a CLI host.
	cfg := config.NewConfig()

	fs.StringVar(&cmd.SiteURL, "site", cfg.WordPress.SiteURL, "WordPress site URL, e.g. https://blog.example.com")
	fs.StringVar(&cmd.Username, "username", cfg.WordPress.Username, "WordPress username (optional)")
	fs.StringVar(&cmd.AppPassword, "app-password", cfg.WordPress.AppPassword, "WordPress application password (optional)")
	fs.StringVar(&cmd.Search, "search", "", "Full-text search filter")
	fs.StringVar(&cmd.After, "after", "", "Only posts published after this date (YYYY-MM-DD)")
	fs.StringVar(&cmd.Before, "before", "", "Only posts published before this date (YYYY-MM-DD)")
	fs.IntVar(&cmd.Author, "author", 0, "Only posts by this author id")
	fs.IntVar(&cmd.Page, "page", 1, "Listing page to fetch")
	fs.IntVar(&cmd.PerPage, "per-page", cfg.WordPress.PerPage, "Posts per page")
	fs.BoolVar(&cmd.All, "all", false, "Fetch every matching page")
	fs.IntVar(&cmd.MaxPages, "max-pages", cfg.WordPress.MaxPages, "Page cap when -all is set")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Show authors and links")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s fetch [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "List posts from a WordPress site so you can decide what to import.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s fetch -site https://blog.example.com\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s fetch -search golang -all\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s fetch -after 2020-01-01 -before 2020-12-31 -verbose\n", os.Args[0])
	}

	return fs.Parse(args)
}

// Run executes the fetch command
func (cmd *FetchCommand) Run() error {
	fmt.Println("🌐 WordPress Fetch")
	fmt.Println("==================")

	if cmd.SiteURL == "" {
		return fmt.Errorf("site URL is required (set WORDPRESS_SITE_URL or pass -site)")
	}

	query, err := cmd.buildQuery()
	if err != nil {
		return err
	}

	client := wordpress.NewClient(cmd.SiteURL, cmd.Username, cmd.AppPassword, 30*time.Second)
	ctx := context.Background()

	fmt.Printf("📡 Fetching posts from %s...\n\n", cmd.SiteURL)

	var posts []wordpress.Post
	var info *wordpress.PageInfo
	if cmd.All {
		posts, err = client.ListAllPosts(ctx, *query, cmd.MaxPages)
	} else {
		query.Page = cmd.Page
		posts, info, err = client.ListPosts(ctx, *query)
	}
	if err != nil {
		return fmt.Errorf("failed to fetch posts: %w", err)
	}

	if len(posts) == 0 {
		fmt.Println("ℹ️  No posts matched.")
		return nil
	}

	for _, post := range posts {
		title := transform.CleanText(post.Title.Rendered)
		marker := " "
		if post.Content.Protected {
			marker = "🔒"
		}
		fmt.Printf("%6d  %s  %s %s\n", post.ID, post.PublishedAt().Format("2006-01-02"), marker, title)

		if cmd.Verbose {
			if author := post.EmbeddedAuthor(); author != nil {
				fmt.Printf("        ✍️  %s\n", author.Name)
			}
			if post.Link != "" {
				fmt.Printf("        🔗 %s\n", post.Link)
			}
		}
	}

	fmt.Println()
	if cmd.All {
		fmt.Printf("📚 Fetched %d posts\n", len(posts))
	} else if info != nil {
		fmt.Printf("📄 Page %d of %d — %d posts shown, %d total\n", cmd.Page, info.TotalPages, len(posts), info.TotalPosts)
	} else {
		fmt.Printf("📄 %d posts shown\n", len(posts))
	}

	return nil
}

func (cmd *FetchCommand) buildQuery() (*wordpress.PostQuery, error) {
	query := &wordpress.PostQuery{
		Search:  cmd.Search,
		Author:  cmd.Author,
		PerPage: cmd.PerPage,
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

	return query, nil
}
