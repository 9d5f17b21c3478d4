package entities

import (
	"time"
)

type ImportMode string

const (
	ImportModeSingle ImportMode = "single"
	ImportModeBundle ImportMode = "bundle"
)

type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// ImportRun records one migration run: which posts were pushed to the
// bookstore, in which mode, and how it ended.
type ImportRun struct {
	ID             string     `gorm:"primaryKey;size:36" json:"id"`
	Mode           ImportMode `gorm:"size:10" json:"mode"`
	BundleTitle    string     `gorm:"size:512" json:"bundle_title,omitempty"`
	TargetAuthorID string     `gorm:"size:64" json:"target_author_id"`
	// RemoteBookID is set in bundle mode, where the whole run produces a
	// single book. In single mode each ImportedPost carries its own.
	RemoteBookID    string    `gorm:"size:64" json:"remote_book_id,omitempty"`
	Status          RunStatus `gorm:"size:20;default:'pending'" json:"status"`
	TotalPosts      int       `json:"total_posts"`
	ImportedPosts   int       `json:"imported_posts"`
	SkippedPosts    int       `json:"skipped_posts"`
	FailedPosts     int       `json:"failed_posts"`
	BooksCreated    int       `json:"books_created"`
	ChaptersWritten int       `json:"chapters_written"`
	CoversUploaded  int       `json:"covers_uploaded"`
	Error           string    `gorm:"type:text" json:"error,omitempty"`

	Posts []ImportedPost `gorm:"foreignKey:RunID" json:"posts,omitempty"`

	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (ImportRun) TableName() string {
	return "import_runs"
}

// ImportedPost is the per-post ledger row. SourcePostID is the dedupe key:
// a post with a row here is considered already migrated.
type ImportedPost struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	RunID        string    `gorm:"index;size:36" json:"run_id"`
	SourcePostID int       `gorm:"index" json:"source_post_id"`
	RemoteBookID string    `gorm:"size:64" json:"remote_book_id"`
	ChapterSeq   int       `json:"chapter_seq"`
	Title        string    `gorm:"size:512" json:"title"`
	PublishedAt  time.Time `json:"published_at"`
	CreatedAt    time.Time `json:"created_at"`
}

func (ImportedPost) TableName() string {
	return "imported_posts"
}
