package cli

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/bookpress/bookpress/internal/config"
	"github.com/bookpress/bookpress/internal/database"
	"github.com/bookpress/bookpress/internal/database/runs"
	"github.com/bookpress/bookpress/internal/entities"
)

// RunsCommand inspects the import ledger.
type RunsCommand struct {
	DBPath  string
	Limit   int
	ID      string
	Verbose bool
}

// NewRunsCommand creates a new RunsCommand
func NewRunsCommand() *RunsCommand {
	return &RunsCommand{}
}

// ParseFlags parses command line flags
func (cmd *RunsCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("runs", flag.ExitOnError)

	cfg := config.NewConfig()

	fs.StringVar(&cmd.DBPath, "db", cfg.Database.Path, "Path to the ledger database")
	fs.IntVar(&cmd.Limit, "limit", 20, "Number of runs to list")
	fs.StringVar(&cmd.ID, "id", "", "Show one run in detail (full id or a unique prefix)")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Show target authors and book ids")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s runs [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "List past import runs, or show one run with its imported posts.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s runs\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s runs -limit 50 -verbose\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s runs -id 4f8a2c1e\n", os.Args[0])
	}

	return fs.Parse(args)
}

// Run executes the runs command
func (cmd *RunsCommand) Run() error {
	absDBPath, err := filepath.Abs(cmd.DBPath)
	if err != nil {
		return fmt.Errorf("failed to resolve database path: %w", err)
	}

	// Opening the database would create an empty file, so check first.
	if _, err := os.Stat(absDBPath); os.IsNotExist(err) {
		return fmt.Errorf("no ledger database at %s (nothing imported yet?)", absDBPath)
	}

	db, err := database.NewDatabase(absDBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	repo := runs.NewRepository(db.DB)

	if cmd.ID != "" {
		return cmd.showRun(repo)
	}
	return cmd.listRuns(repo, absDBPath)
}

func (cmd *RunsCommand) listRuns(repo *runs.Repository, dbPath string) error {
	fmt.Println("🗂  Import Runs")
	fmt.Println("==============")
	fmt.Printf("💾 Ledger: %s\n\n", dbPath)

	items, total, err := repo.ListRuns(cmd.Limit, 0)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(items) == 0 {
		fmt.Println("ℹ️  No import runs recorded yet.")
		return nil
	}

	for _, run := range items {
		fmt.Printf("%s %-8s  %-9s  %-6s  %3d posts  %d/%d/%d  %s\n",
			statusIcon(run.Status), shortID(run.ID), run.Status, run.Mode,
			run.TotalPosts, run.ImportedPosts, run.SkippedPosts, run.FailedPosts,
			run.StartedAt.Format("2006-01-02 15:04"))
		if run.Mode == entities.ImportModeBundle && run.BundleTitle != "" {
			fmt.Printf("             📖 %s\n", run.BundleTitle)
		}
		if cmd.Verbose {
			fmt.Printf("             🆔 %s → author %s\n", run.ID, run.TargetAuthorID)
		}
		if run.Error != "" {
			fmt.Printf("             ⚠️  %s\n", run.Error)
		}
	}

	fmt.Printf("\n📄 Showing %d of %d runs (imported/skipped/failed)\n", len(items), total)
	return nil
}

func (cmd *RunsCommand) showRun(repo *runs.Repository) error {
	run, err := cmd.resolveRun(repo)
	if err != nil {
		return err
	}

	fmt.Printf("🗂  Import Run %s\n", run.ID)
	fmt.Println("==============")
	fmt.Printf("%s Status: %s\n", statusIcon(run.Status), run.Status)
	fmt.Printf("📦 Mode: %s\n", run.Mode)
	if run.BundleTitle != "" {
		fmt.Printf("📖 Bundle title: %s\n", run.BundleTitle)
	}
	fmt.Printf("✍️  Target author: %s\n", run.TargetAuthorID)
	if run.RemoteBookID != "" {
		fmt.Printf("📚 Book: %s\n", run.RemoteBookID)
	}
	fmt.Printf("📄 Posts: %d total, %d imported, %d skipped, %d failed\n",
		run.TotalPosts, run.ImportedPosts, run.SkippedPosts, run.FailedPosts)
	fmt.Printf("💾 Written: %d books, %d chapters", run.BooksCreated, run.ChaptersWritten)
	if run.CoversUploaded > 0 {
		fmt.Printf(", %d covers", run.CoversUploaded)
	}
	fmt.Println()
	fmt.Printf("🕐 Started: %s\n", run.StartedAt.Format("2006-01-02 15:04:05"))
	if run.CompletedAt != nil {
		fmt.Printf("🕐 Completed: %s (%s)\n",
			run.CompletedAt.Format("2006-01-02 15:04:05"),
			run.CompletedAt.Sub(run.StartedAt).Round(time.Millisecond))
	}
	if run.Error != "" {
		fmt.Printf("⚠️  Error: %s\n", run.Error)
	}

	if len(run.Posts) > 0 {
		fmt.Printf("\nImported posts:\n")
		for _, post := range run.Posts {
			fmt.Printf("  %3d. %s (post %d)\n", post.ChapterSeq, post.Title, post.SourcePostID)
			if cmd.Verbose && post.RemoteBookID != "" {
				fmt.Printf("       📚 %s\n", post.RemoteBookID)
			}
		}
	}

	return nil
}

// resolveRun accepts the short ids printed by the listing as well as
// full ones.
func (cmd *RunsCommand) resolveRun(repo *runs.Repository) (*entities.ImportRun, error) {
	run, err := repo.GetRun(cmd.ID)
	if err == nil {
		return run, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load run: %w", err)
	}

	items, _, err := repo.ListRuns(500, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	var matches []string
	for _, item := range items {
		if strings.HasPrefix(item.ID, cmd.ID) {
			matches = append(matches, item.ID)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("no run with id %s", cmd.ID)
	case 1:
		return repo.GetRun(matches[0])
	default:
		return nil, fmt.Errorf("id prefix %s matches %d runs, use a longer prefix", cmd.ID, len(matches))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func statusIcon(status entities.RunStatus) string {
	switch status {
	case entities.RunStatusCompleted:
		return "✅"
	case entities.RunStatusFailed:
		return "❌"
	case entities.RunStatusRunning:
		return "🔄"
	default:
		return "⏳"
	}
}
