package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/bookpress/bookpress/internal/entities"
)

type stubRunStore struct {
	runs       []entities.ImportRun
	total      int64
	listErr    error
	run        *entities.ImportRun
	getErr     error
	lastLimit  int
	lastOffset int
}

func (s *stubRunStore) ListRuns(limit, offset int) ([]entities.ImportRun, int64, error) {
	s.lastLimit = limit
	s.lastOffset = offset
	return s.runs, s.total, s.listErr
}

func (s *stubRunStore) GetRun(id string) (*entities.ImportRun, error) {
	return s.run, s.getErr
}

func setupRunsRouter(store RunStore) *gin.Engine {
	gin.SetMode(gin.TestMode)

	controller := NewRunsController(store)
	router := gin.New()
	router.GET("/api/runs", controller.ListRuns)
	router.GET("/api/runs/:id", controller.GetRun)
	return router
}

func TestRunsController_ListRuns(t *testing.T) {
	t.Run("returns runs with pagination metadata", func(t *testing.T) {
		store := &stubRunStore{
			runs: []entities.ImportRun{
				{ID: "run-1", Mode: entities.ImportModeSingle, Status: entities.RunStatusCompleted},
				{ID: "run-2", Mode: entities.ImportModeBundle, Status: entities.RunStatusFailed},
			},
			total: 5,
		}
		router := setupRunsRouter(store)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/runs?limit=2", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response PaginatedResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, int64(5), response.Total)
		assert.Equal(t, 2, response.Limit)
		assert.True(t, response.HasMore)
		assert.Len(t, response.Data, 2)
	})

	t.Run("defaults the limit to 20", func(t *testing.T) {
		store := &stubRunStore{}
		router := setupRunsRouter(store)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/runs", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 20, store.lastLimit)
		assert.Equal(t, 0, store.lastOffset)
	})

	t.Run("clamps limit and offset", func(t *testing.T) {
		store := &stubRunStore{}
		router := setupRunsRouter(store)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/runs?limit=500&offset=-3", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 100, store.lastLimit)
		assert.Equal(t, 0, store.lastOffset)
	})

	t.Run("reports has_more false on the last page", func(t *testing.T) {
		store := &stubRunStore{
			runs:  []entities.ImportRun{{ID: "run-5"}},
			total: 5,
		}
		router := setupRunsRouter(store)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/runs?limit=2&offset=4", nil)
		router.ServeHTTP(w, req)

		var response PaginatedResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.False(t, response.HasMore)
	})

	t.Run("returns 500 when the store errors", func(t *testing.T) {
		store := &stubRunStore{listErr: errors.New("db locked")}
		router := setupRunsRouter(store)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/runs", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "db locked")
	})
}

func TestRunsController_GetRun(t *testing.T) {
	t.Run("returns the run", func(t *testing.T) {
		store := &stubRunStore{run: &entities.ImportRun{
			ID:            "run-1",
			Mode:          entities.ImportModeBundle,
			Status:        entities.RunStatusCompleted,
			TotalPosts:    3,
			ImportedPosts: 3,
		}}
		router := setupRunsRouter(store)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/runs/run-1", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var run entities.ImportRun
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &run))
		assert.Equal(t, "run-1", run.ID)
		assert.Equal(t, entities.ImportModeBundle, run.Mode)
		assert.Equal(t, 3, run.ImportedPosts)
	})

	t.Run("returns 404 for an unknown run", func(t *testing.T) {
		store := &stubRunStore{getErr: gorm.ErrRecordNotFound}
		router := setupRunsRouter(store)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/runs/nope", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("returns 500 on other errors", func(t *testing.T) {
		store := &stubRunStore{getErr: errors.New("db locked")}
		router := setupRunsRouter(store)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/runs/run-1", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
