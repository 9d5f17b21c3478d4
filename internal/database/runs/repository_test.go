package runs

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/bookpress/bookpress/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, func()) {
	dbPath := "./test_runs_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.ImportRun{}, &entities.ImportedPost{})
	require.NoError(t, err)

	repo := NewRepository(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return repo, cleanup
}

func TestRepository_CreateRun(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	run := &entities.ImportRun{
		Mode:           entities.ImportModeSingle,
		TargetAuthorID: "auth1",
	}
	err := repo.CreateRun(run)
	require.NoError(t, err)

	assert.NotEmpty(t, run.ID)
	assert.Equal(t, entities.RunStatusPending, run.Status)
	assert.False(t, run.StartedAt.IsZero())
}

func TestRepository_SaveRun(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	run := &entities.ImportRun{Mode: entities.ImportModeBundle, BundleTitle: "Collected Posts"}
	require.NoError(t, repo.CreateRun(run))

	now := time.Now()
	run.Status = entities.RunStatusCompleted
	run.ImportedPosts = 3
	run.BooksCreated = 1
	run.RemoteBookID = "bk9"
	run.CompletedAt = &now
	require.NoError(t, repo.SaveRun(run))

	saved, err := repo.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.RunStatusCompleted, saved.Status)
	assert.Equal(t, 3, saved.ImportedPosts)
	assert.Equal(t, "bk9", saved.RemoteBookID)
	assert.NotNil(t, saved.CompletedAt)
}

func TestRepository_GetRun_OrdersPostsByChapter(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	run := &entities.ImportRun{Mode: entities.ImportModeBundle}
	require.NoError(t, repo.CreateRun(run))

	for _, p := range []entities.ImportedPost{
		{RunID: run.ID, SourcePostID: 30, ChapterSeq: 3, Title: "Third"},
		{RunID: run.ID, SourcePostID: 10, ChapterSeq: 1, Title: "First"},
		{RunID: run.ID, SourcePostID: 20, ChapterSeq: 2, Title: "Second"},
	} {
		post := p
		require.NoError(t, repo.RecordPost(&post))
	}

	saved, err := repo.GetRun(run.ID)
	require.NoError(t, err)
	require.Len(t, saved.Posts, 3)
	assert.Equal(t, "First", saved.Posts[0].Title)
	assert.Equal(t, "Second", saved.Posts[1].Title)
	assert.Equal(t, "Third", saved.Posts[2].Title)
}

func TestRepository_GetRun_NotFound(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.GetRun("no-such-run")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepository_ListRuns(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		run := &entities.ImportRun{
			Mode:      entities.ImportModeSingle,
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, repo.CreateRun(run))
	}

	items, total, err := repo.ListRuns(2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, items, 2)
	// Most recent first.
	assert.True(t, items[0].StartedAt.After(items[1].StartedAt))
}

func TestRepository_IsPostImported(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	run := &entities.ImportRun{Mode: entities.ImportModeSingle}
	require.NoError(t, repo.CreateRun(run))
	require.NoError(t, repo.RecordPost(&entities.ImportedPost{RunID: run.ID, SourcePostID: 77}))

	imported, err := repo.IsPostImported(77)
	require.NoError(t, err)
	assert.True(t, imported)

	imported, err = repo.IsPostImported(78)
	require.NoError(t, err)
	assert.False(t, imported)
}

func TestRepository_ImportedPostIDs(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	run := &entities.ImportRun{Mode: entities.ImportModeSingle}
	require.NoError(t, repo.CreateRun(run))
	// Post 5 recorded twice across runs should appear once.
	require.NoError(t, repo.RecordPost(&entities.ImportedPost{RunID: run.ID, SourcePostID: 5}))
	require.NoError(t, repo.RecordPost(&entities.ImportedPost{RunID: run.ID, SourcePostID: 5}))
	require.NoError(t, repo.RecordPost(&entities.ImportedPost{RunID: run.ID, SourcePostID: 2}))

	ids, err := repo.ImportedPostIDs()
	require.NoError(t, err)
	assert.Equal(t, []int{2, 5}, ids)
}

func TestRepository_DeleteRunsBefore(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	old := time.Now().Add(-48 * time.Hour)
	oldCompleted := &entities.ImportRun{Mode: entities.ImportModeSingle, Status: entities.RunStatusCompleted, StartedAt: old}
	require.NoError(t, repo.CreateRun(oldCompleted))
	oldRunning := &entities.ImportRun{Mode: entities.ImportModeSingle, Status: entities.RunStatusRunning, StartedAt: old}
	require.NoError(t, repo.CreateRun(oldRunning))
	recent := &entities.ImportRun{Mode: entities.ImportModeSingle, Status: entities.RunStatusCompleted}
	require.NoError(t, repo.CreateRun(recent))

	require.NoError(t, repo.RecordPost(&entities.ImportedPost{RunID: oldCompleted.ID, SourcePostID: 9}))

	deleted, err := repo.DeleteRunsBefore(time.Now().Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	// A run still marked running is never pruned.
	_, err = repo.GetRun(oldRunning.ID)
	assert.NoError(t, err)
	_, err = repo.GetRun(recent.ID)
	assert.NoError(t, err)
	_, err = repo.GetRun(oldCompleted.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// Dedupe rows survive pruning.
	imported, err := repo.IsPostImported(9)
	require.NoError(t, err)
	assert.True(t, imported)
}
