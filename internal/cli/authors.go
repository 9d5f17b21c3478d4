package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/bookpress/bookpress/internal/authors"
	"github.com/bookpress/bookpress/internal/bookstore"
	"github.com/bookpress/bookpress/internal/config"
	"github.com/bookpress/bookpress/internal/wordpress"
)

// AuthorsCommand discovers authors on the source site and, optionally,
// lists the author records available on the target bookstore.
type AuthorsCommand struct {
	SiteURL     string
	Username    string
	AppPassword string
	Target      bool
	Verbose     bool
}

// NewAuthorsCommand creates a new AuthorsCommand
func NewAuthorsCommand() *AuthorsCommand {
	return &AuthorsCommand{}
}

// ParseFlags parses command line flags
func (cmd *AuthorsCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("authors", flag.ExitOnError)

	cfg := config.NewConfig()

	fs.StringVar(&cmd.SiteURL, "site", cfg.WordPress.SiteURL, "WordPress site URL, e.g. https://blog.example.com")
	fs.StringVar(&cmd.Username, "username", cfg.WordPress.Username, "WordPress username (optional)")
	fs.StringVar(&cmd.AppPassword, "app-password", cfg.WordPress.AppPassword, "WordPress application password (optional)")
	fs.BoolVar(&cmd.Target, "target", false, "List bookstore authors instead of source authors")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Show slugs and post counts")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s authors [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Discover post authors on the source site, or list target bookstore authors.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s authors -site https://blog.example.com\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s authors -target\n", os.Args[0])
	}

	return fs.Parse(args)
}

// Run executes the authors command
func (cmd *AuthorsCommand) Run() error {
	if cmd.Target {
		return cmd.runTarget()
	}
	return cmd.runSource()
}

func (cmd *AuthorsCommand) runSource() error {
	fmt.Println("✍️  Source Authors")
	fmt.Println("=================")

	if cmd.SiteURL == "" {
		return fmt.Errorf("site URL is required (set WORDPRESS_SITE_URL or pass -site)")
	}

	client := wordpress.NewClient(cmd.SiteURL, cmd.Username, cmd.AppPassword, 30*time.Second)
	resolver := authors.NewResolver(client, client.Anonymous(), 0)

	fmt.Printf("🔍 Discovering authors on %s...\n\n", cmd.SiteURL)

	result, err := resolver.Resolve(context.Background())
	if err != nil {
		return fmt.Errorf("failed to discover authors: %w", err)
	}

	if result.Message != "" {
		fmt.Printf("ℹ️  %s\n", result.Message)
		return nil
	}

	for _, author := range result.Authors {
		fmt.Printf("%6d  %s\n", author.ID, author.Name)
		if cmd.Verbose {
			if author.Slug != "" {
				fmt.Printf("        🔗 %s\n", author.Slug)
			}
			if author.PostCount > 0 {
				fmt.Printf("        📄 %d posts\n", author.PostCount)
			}
		}
	}

	fmt.Printf("\n📚 %d authors found (strategy: %s)\n", len(result.Authors), result.Strategy)
	return nil
}

func (cmd *AuthorsCommand) runTarget() error {
	fmt.Println("✍️  Target Authors")
	fmt.Println("=================")

	cfg := config.NewConfig()
	if cfg.Bookstore.BaseURL == "" {
		return fmt.Errorf("bookstore URL is required (set BOOKSTORE_URL)")
	}

	store := bookstore.NewClient(cfg.Bookstore.BaseURL, cfg.Bookstore.AppID, cfg.Bookstore.RESTKey, cfg.Bookstore.Timeout)

	fmt.Printf("🔍 Listing authors on %s...\n\n", cfg.Bookstore.BaseURL)

	list, err := store.ListAuthors(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list bookstore authors: %w", err)
	}

	if len(list) == 0 {
		fmt.Println("ℹ️  No authors found. Create one in the bookstore before importing.")
		return nil
	}

	for _, author := range list {
		fmt.Printf("  %s  %s\n", author.ObjectID, author.Name)
	}

	fmt.Printf("\n📚 %d authors found\n", len(list))
	return nil
}
