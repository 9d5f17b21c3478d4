package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bookpress/bookpress/internal/covers"
	"github.com/bookpress/bookpress/internal/workspace"
)

// ThumbnailsController serves featured-image previews from the staging cache.
type ThumbnailsController struct {
	cache     *covers.Cache
	workspace *workspace.Workspace
}

// NewThumbnailsController creates a new ThumbnailsController.
func NewThumbnailsController(cache *covers.Cache, ws *workspace.Workspace) *ThumbnailsController {
	return &ThumbnailsController{
		cache:     cache,
		workspace: ws,
	}
}

// GetThumbnail handles GET /api/posts/:id/thumbnail
// Serves the staged featured image of a loaded post, staging it on first
// access.
func (tc *ThumbnailsController) GetThumbnail(c *gin.Context) {
	id, ok := parsePostID(c)
	if !ok {
		return
	}

	post, found := tc.workspace.Post(id)
	if !found {
		respondNotFound(c, "post")
		return
	}

	media := post.FeaturedImage()
	if media == nil {
		respondNotFound(c, "featured image")
		return
	}

	// Stage fetches on first access and reuses the file afterwards
	sourceURL := media.ThumbnailURL()
	cachePath, err := tc.cache.Stage(c.Request.Context(), id, sourceURL)
	if err != nil || cachePath == "" {
		// Fallback: redirect to the original URL
		c.Redirect(http.StatusTemporaryRedirect, sourceURL)
		return
	}

	c.File(cachePath)
}
