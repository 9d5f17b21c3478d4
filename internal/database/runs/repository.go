// Package runs provides database operations for the import ledger.
//
// This package implements the Ledger interface used by the importer.
//
// # Usage
//
//	repo := runs.NewRepository(db)
//	run := &entities.ImportRun{Mode: entities.ImportModeSingle}
//	err := repo.CreateRun(run)
package runs

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bookpress/bookpress/internal/entities"
)

// Repository handles all import-run and imported-post database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new runs repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateRun inserts a new run row. A missing id is generated, the status
// defaults to pending and the start time to now.
func (r *Repository) CreateRun(run *entities.ImportRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.Status == "" {
		run.Status = entities.RunStatusPending
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	return r.db.Create(run).Error
}

// SaveRun persists updated counters and status for an existing run.
func (r *Repository) SaveRun(run *entities.ImportRun) error {
	return r.db.Save(run).Error
}

// GetRun retrieves a run with its ledger rows in chapter order.
func (r *Repository) GetRun(id string) (*entities.ImportRun, error) {
	var run entities.ImportRun
	err := r.db.Preload("Posts", func(db *gorm.DB) *gorm.DB {
		return db.Order("chapter_seq ASC, source_post_id ASC")
	}).First(&run, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns retrieves paginated runs, most recent first.
func (r *Repository) ListRuns(limit, offset int) ([]entities.ImportRun, int64, error) {
	var items []entities.ImportRun
	var total int64

	if err := r.db.Model(&entities.ImportRun{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	err := r.db.Order("started_at DESC").Limit(limit).Offset(offset).Find(&items).Error
	return items, total, err
}

// RecordPost appends a ledger row for a post that was written to the store.
func (r *Repository) RecordPost(post *entities.ImportedPost) error {
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now()
	}
	return r.db.Create(post).Error
}

// IsPostImported reports whether a source post already has a ledger row.
func (r *Repository) IsPostImported(sourcePostID int) (bool, error) {
	var count int64
	err := r.db.Model(&entities.ImportedPost{}).
		Where("source_post_id = ?", sourcePostID).
		Count(&count).Error
	return count > 0, err
}

// ImportedPostIDs returns the distinct source post ids recorded in the ledger.
func (r *Repository) ImportedPostIDs() ([]int, error) {
	var ids []int
	err := r.db.Model(&entities.ImportedPost{}).
		Distinct("source_post_id").
		Order("source_post_id ASC").
		Pluck("source_post_id", &ids).Error
	return ids, err
}

// DeleteRunsBefore removes finished runs started before the cutoff.
// Returns the number of deleted runs. Rows in imported_posts are kept so
// dedupe survives retention.
func (r *Repository) DeleteRunsBefore(cutoff time.Time) (int64, error) {
	result := r.db.
		Where("started_at < ? AND status IN ?", cutoff,
			[]entities.RunStatus{entities.RunStatusCompleted, entities.RunStatusFailed}).
		Delete(&entities.ImportRun{})
	return result.RowsAffected, result.Error
}
