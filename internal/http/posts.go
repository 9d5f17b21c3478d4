package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bookpress/bookpress/internal/transform"
	"github.com/bookpress/bookpress/internal/wordpress"
	"github.com/bookpress/bookpress/internal/workspace"
)

// PostsController loads posts from the source site into the workspace and
// serves the operator listing.
type PostsController struct {
	source    *wordpress.Client
	workspace *workspace.Workspace
	perPage   int
	maxPages  int
}

// NewPostsController creates a new PostsController. perPage and maxPages are
// the configured fetch defaults.
func NewPostsController(source *wordpress.Client, ws *workspace.Workspace, perPage, maxPages int) *PostsController {
	return &PostsController{
		source:    source,
		workspace: ws,
		perPage:   perPage,
		maxPages:  maxPages,
	}
}

// FetchRequest asks the source site for posts to load into the workspace.
type FetchRequest struct {
	Search string     `json:"search,omitempty"`
	After  *time.Time `json:"after,omitempty"`
	Before *time.Time `json:"before,omitempty"`
	Author int        `json:"author,omitempty"`

	// Page pulls one specific listing page. Ignored when All is set.
	Page    int `json:"page,omitempty"`
	PerPage int `json:"per_page,omitempty"`

	// All walks the listing from page one until exhausted or MaxPages.
	All      bool `json:"all,omitempty"`
	MaxPages int  `json:"max_pages,omitempty"`

	// Append merges the fetched posts into the workspace by id instead of
	// replacing the loaded set.
	Append bool `json:"append,omitempty"`
}

// FetchResponse summarizes what a fetch loaded.
type FetchResponse struct {
	Fetched    int  `json:"fetched"`
	TotalPosts int  `json:"total_posts,omitempty"`
	TotalPages int  `json:"total_pages,omitempty"`
	Loaded     int  `json:"loaded"`
	Appended   bool `json:"appended"`
}

// Fetch handles POST /api/posts/fetch
// It pulls posts matching the request from the source site and loads them
// into the workspace.
func (pc *PostsController) Fetch(c *gin.Context) {
	if pc.source == nil {
		respondUnavailable(c, "WordPress source is not configured")
		return
	}

	var req FetchRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, "invalid request body: "+err.Error())
			return
		}
	}

	query := wordpress.PostQuery{
		Search:  req.Search,
		After:   req.After,
		Before:  req.Before,
		Author:  req.Author,
		PerPage: req.PerPage,
	}
	if query.PerPage <= 0 {
		query.PerPage = pc.perPage
	}

	resp := FetchResponse{Appended: req.Append}

	if req.All {
		maxPages := req.MaxPages
		if maxPages <= 0 {
			maxPages = pc.maxPages
		}
		posts, err := pc.source.ListAllPosts(c.Request.Context(), query, maxPages)
		if err != nil {
			respondUpstreamError(c, err, "fetch posts")
			return
		}
		pc.load(posts, req.Append)
		resp.Fetched = len(posts)
	} else {
		query.Page = req.Page
		if query.Page <= 0 {
			query.Page = 1
		}
		posts, info, err := pc.source.ListPosts(c.Request.Context(), query)
		if err != nil {
			respondUpstreamError(c, err, "fetch posts")
			return
		}
		pc.load(posts, req.Append)
		resp.Fetched = len(posts)
		if info != nil {
			resp.TotalPosts = info.TotalPosts
			resp.TotalPages = info.TotalPages
		}
	}

	resp.Loaded = pc.workspace.View(1, 1).TotalLoaded
	c.JSON(http.StatusOK, resp)
}

func (pc *PostsController) load(posts []wordpress.Post, appendPosts bool) {
	if appendPosts {
		pc.workspace.MergePosts(posts)
		return
	}
	pc.workspace.ReplacePosts(posts)
}

// List handles GET /api/posts
// Returns one page of the filtered workspace listing.
func (pc *PostsController) List(c *gin.Context) {
	page := parseQueryInt(c, "page", 1)
	perPage := parseQueryInt(c, "per_page", 0)
	c.JSON(http.StatusOK, pc.workspace.View(page, perPage))
}

// PreviewResponse is the markdown rendering of one post.
type PreviewResponse struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Link        string    `json:"link,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	Markdown    string    `json:"markdown"`
}

// Preview handles GET /api/posts/:id/preview
// Renders one loaded post as markdown so the operator can inspect what an
// import would write.
func (pc *PostsController) Preview(c *gin.Context) {
	id, ok := parsePostID(c)
	if !ok {
		return
	}

	post, found := pc.workspace.Post(id)
	if !found {
		respondNotFound(c, "post")
		return
	}

	markdown, err := transform.Markdown(post)
	if err != nil {
		if errors.Is(err, transform.ErrProtectedPost) {
			c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
			return
		}
		respondInternalError(c, err, "render preview")
		return
	}

	c.JSON(http.StatusOK, PreviewResponse{
		ID:          post.ID,
		Title:       transform.CleanText(post.Title.Rendered),
		Link:        post.Link,
		PublishedAt: post.PublishedAt(),
		Markdown:    markdown,
	})
}
