package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bookpress/bookpress/internal/database"
)

// Components reports which optional integrations the server was started
// with. The entrypoint leaves a component unwired when its configuration
// is missing, so this is the first thing to check when an endpoint
// answers 503.
type Components struct {
	Source    bool // WordPress client configured
	Bookstore bool // target store and importer configured
	Tasks     bool // background task queue enabled
}

type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
}

type HealthController struct {
	db         *database.Database
	version    string
	components Components
}

func NewHealthController(db *database.Database, version string, components Components) *HealthController {
	return &HealthController{
		db:         db,
		version:    version,
		components: components,
	}
}

func (h *HealthController) Status(c *gin.Context) {
	checks := make(map[string]string)
	status := "healthy"

	// Check ledger database connectivity
	if h.db != nil {
		sqlDB, err := h.db.DB.DB()
		if err != nil {
			checks["database"] = "error: " + err.Error()
			status = "unhealthy"
		} else if err := sqlDB.Ping(); err != nil {
			checks["database"] = "error: " + err.Error()
			status = "unhealthy"
		} else {
			checks["database"] = "ok"
		}
	} else {
		checks["database"] = "not configured"
	}

	// Optional integrations are reported but never flip the status: a
	// server without a bookstore still serves the browse endpoints.
	checks["source"] = configuredLabel(h.components.Source)
	checks["bookstore"] = configuredLabel(h.components.Bookstore)
	if h.components.Tasks {
		checks["tasks"] = "enabled"
	} else {
		checks["tasks"] = "disabled"
	}

	health := HealthResponse{
		Status:  status,
		Time:    time.Now().Format(time.RFC3339),
		Version: h.version,
		Checks:  checks,
	}

	statusCode := http.StatusOK
	if status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.IndentedJSON(statusCode, health)
}

func configuredLabel(wired bool) string {
	if wired {
		return "configured"
	}
	return "not configured"
}
