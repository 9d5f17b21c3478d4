package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/bookpress/bookpress/internal/entities"
)

// RunStore reads the import ledger.
type RunStore interface {
	ListRuns(limit, offset int) ([]entities.ImportRun, int64, error)
	GetRun(id string) (*entities.ImportRun, error)
}

// RunsController serves the import run history.
type RunsController struct {
	runs RunStore
}

// NewRunsController creates a new RunsController.
func NewRunsController(runs RunStore) *RunsController {
	return &RunsController{runs: runs}
}

// ListRuns handles GET /api/runs
// Returns past import runs newest-first with their per-post records.
func (rc *RunsController) ListRuns(c *gin.Context) {
	limit := parseQueryInt(c, "limit", 20)
	offset := parseQueryInt(c, "offset", 0)
	if limit < 1 {
		limit = 1
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	runs, total, err := rc.runs.ListRuns(limit, offset)
	if err != nil {
		respondInternalError(c, err, "list import runs")
		return
	}

	c.JSON(http.StatusOK, PaginatedResponse{
		Data:    runs,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: int64(offset+len(runs)) < total,
	})
}

// GetRun handles GET /api/runs/:id
// Returns a single import run with its per-post records.
func (rc *RunsController) GetRun(c *gin.Context) {
	id := c.Param("id")

	run, err := rc.runs.GetRun(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "run")
			return
		}
		respondInternalError(c, err, "get import run")
		return
	}

	c.JSON(http.StatusOK, run)
}
