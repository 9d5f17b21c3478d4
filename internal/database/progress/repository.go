// Package progress provides database operations for live import progress.
//
// This package implements the ProgressReporter interface used by the
// importer. A single progress row exists at a time; starting a new run
// resets it.
//
// # Usage
//
//	repo := progress.NewRepository(db)
//	err := repo.Start(runID, 25)
package progress

import (
	"time"

	"gorm.io/gorm"

	"github.com/bookpress/bookpress/internal/entities"
)

// The one row the API polls. Keyed by a fixed id so updates always hit it.
const singletonID = 1

// A run is considered stale if its progress row was not touched for this long.
const staleThreshold = 10 * time.Minute

// Repository handles all import progress database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new progress repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Get retrieves the current progress row.
func (r *Repository) Get() (*entities.ImportProgress, error) {
	var p entities.ImportProgress
	err := r.db.First(&p, singletonID).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Start creates or resets the progress row for a new run.
// Implements ProgressReporter.Start.
func (r *Repository) Start(runID string, totalPosts int) error {
	var p entities.ImportProgress
	result := r.db.First(&p, singletonID)

	now := time.Now()
	if result.Error == gorm.ErrRecordNotFound {
		p = entities.ImportProgress{
			ID:         singletonID,
			RunID:      runID,
			Status:     entities.ProgressStatusRunning,
			TotalPosts: totalPosts,
			StartedAt:  now,
			UpdatedAt:  now,
		}
		return r.db.Create(&p).Error
	} else if result.Error != nil {
		return result.Error
	}

	// Reset existing record
	p.RunID = runID
	p.Status = entities.ProgressStatusRunning
	p.TotalPosts = totalPosts
	p.Processed = 0
	p.Imported = 0
	p.Skipped = 0
	p.Failed = 0
	p.CurrentPost = ""
	p.Error = ""
	p.StartedAt = now
	p.UpdatedAt = now
	p.CompletedAt = nil

	return r.db.Save(&p).Error
}

// Update updates the counters of an ongoing run.
// Implements ProgressReporter.Update.
func (r *Repository) Update(processed, imported, skipped, failed int, currentPost string) error {
	return r.db.Model(&entities.ImportProgress{}).
		Where("id = ?", singletonID).
		Updates(map[string]any{
			"processed":    processed,
			"imported":     imported,
			"skipped":      skipped,
			"failed":       failed,
			"current_post": currentPost,
			"updated_at":   time.Now(),
		}).Error
}

// Complete marks the run as completed or failed.
// Implements ProgressReporter.Complete.
func (r *Repository) Complete(succeeded bool, errorMsg string) error {
	now := time.Now()
	status := entities.ProgressStatusCompleted
	if !succeeded {
		status = entities.ProgressStatusFailed
	}

	updates := map[string]any{
		"status":       status,
		"current_post": "",
		"updated_at":   now,
		"completed_at": now,
	}
	if errorMsg != "" {
		updates["error"] = errorMsg
	}
	return r.db.Model(&entities.ImportProgress{}).
		Where("id = ?", singletonID).
		Updates(updates).Error
}

// IsRunning checks whether an import is currently in progress. A row not
// updated within the stale threshold is marked failed and reported as
// not running.
// Implements ProgressReporter.IsRunning.
func (r *Repository) IsRunning() (bool, error) {
	var p entities.ImportProgress
	err := r.db.Where("id = ? AND status = ?", singletonID, entities.ProgressStatusRunning).First(&p).Error
	if err == gorm.ErrRecordNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if p.UpdatedAt.Before(time.Now().Add(-staleThreshold)) {
		_ = r.Complete(false, "import was interrupted")
		return false, nil
	}

	return true, nil
}
