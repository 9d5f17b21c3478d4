package entities

import (
	"time"
)

type ProgressStatus string

const (
	ProgressStatusRunning   ProgressStatus = "running"
	ProgressStatusCompleted ProgressStatus = "completed"
	ProgressStatusFailed    ProgressStatus = "failed"
)

// ImportProgress is the single live-progress row the API polls while an
// import runs. One row exists at a time; starting a new run resets it.
type ImportProgress struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	RunID       string         `gorm:"size:36" json:"run_id,omitempty"`
	Status      ProgressStatus `gorm:"size:20" json:"status"`
	TotalPosts  int            `json:"total_posts"`
	Processed   int            `json:"processed"`
	Imported    int            `json:"imported"`
	Skipped     int            `json:"skipped"`
	Failed      int            `json:"failed"`
	CurrentPost string         `gorm:"size:512" json:"current_post,omitempty"`
	Error       string         `gorm:"type:text" json:"error,omitempty"`
	StartedAt   time.Time      `json:"started_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
}

func (ImportProgress) TableName() string {
	return "import_progress"
}
