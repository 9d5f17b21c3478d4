package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/bookpress/bookpress/internal/authors"
	"github.com/bookpress/bookpress/internal/bookstore"
)

// TargetAuthorLister lists author records from the target document store.
type TargetAuthorLister interface {
	ListAuthors(ctx context.Context) ([]bookstore.Author, error)
}

// AuthorsController serves both author pickers: the source site's post
// authors and the target store's author records.
type AuthorsController struct {
	resolver *authors.Resolver
	store    TargetAuthorLister
}

// NewAuthorsController creates a new AuthorsController.
func NewAuthorsController(resolver *authors.Resolver, store TargetAuthorLister) *AuthorsController {
	return &AuthorsController{
		resolver: resolver,
		store:    store,
	}
}

// SourceAuthors handles GET /api/source-authors
// Returns the discovered post authors with the strategy that produced them.
// ?refresh=1 bypasses the cache.
func (ac *AuthorsController) SourceAuthors(c *gin.Context) {
	if ac.resolver == nil {
		respondUnavailable(c, "WordPress source is not configured")
		return
	}

	refresh, _ := strconv.ParseBool(c.Query("refresh"))

	var (
		result *authors.Result
		err    error
	)
	if refresh {
		result, err = ac.resolver.Refresh(c.Request.Context())
	} else {
		result, err = ac.resolver.Resolve(c.Request.Context())
	}
	if err != nil {
		respondInternalError(c, err, "resolve source authors")
		return
	}

	c.JSON(http.StatusOK, result)
}

// TargetAuthors handles GET /api/target-authors
// Returns the author records books can point at.
func (ac *AuthorsController) TargetAuthors(c *gin.Context) {
	if ac.store == nil {
		respondUnavailable(c, "bookstore is not configured")
		return
	}

	list, err := ac.store.ListAuthors(c.Request.Context())
	if err != nil {
		respondUpstreamError(c, err, "list target authors")
		return
	}

	c.JSON(http.StatusOK, gin.H{"authors": list, "count": len(list)})
}
