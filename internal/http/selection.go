package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bookpress/bookpress/internal/workspace"
)

// SelectionController manages the operator's filter and selection state.
type SelectionController struct {
	workspace *workspace.Workspace
}

// NewSelectionController creates a new SelectionController.
func NewSelectionController(ws *workspace.Workspace) *SelectionController {
	return &SelectionController{workspace: ws}
}

// SetFilter handles PUT /api/filters
// Replaces the active filter and returns the first page of the filtered
// listing.
func (sc *SelectionController) SetFilter(c *gin.Context) {
	var filter workspace.Filter
	if err := c.ShouldBindJSON(&filter); err != nil {
		respondBadRequest(c, "invalid filter: "+err.Error())
		return
	}

	sc.workspace.SetFilter(filter)
	c.JSON(http.StatusOK, sc.workspace.View(1, 0))
}

// ClearFilter handles DELETE /api/filters
func (sc *SelectionController) ClearFilter(c *gin.Context) {
	sc.workspace.ClearFilter()
	c.JSON(http.StatusOK, sc.workspace.View(1, 0))
}

// Select handles POST /api/posts/:id/select
func (sc *SelectionController) Select(c *gin.Context) {
	id, ok := parsePostID(c)
	if !ok {
		return
	}

	if err := sc.workspace.Select(id); err != nil {
		if errors.Is(err, workspace.ErrUnknownPost) {
			respondNotFound(c, "post")
			return
		}
		respondInternalError(c, err, "select post")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":             id,
		"selected":       true,
		"selected_count": len(sc.workspace.SelectedIDs()),
	})
}

// Deselect handles DELETE /api/posts/:id/select
func (sc *SelectionController) Deselect(c *gin.Context) {
	id, ok := parsePostID(c)
	if !ok {
		return
	}

	if err := sc.workspace.Deselect(id); err != nil {
		if errors.Is(err, workspace.ErrUnknownPost) {
			respondNotFound(c, "post")
			return
		}
		respondInternalError(c, err, "deselect post")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":             id,
		"selected":       false,
		"selected_count": len(sc.workspace.SelectedIDs()),
	})
}

// SelectAll handles POST /api/selection/all
// Selects every post the active filter matches.
func (sc *SelectionController) SelectAll(c *gin.Context) {
	count := sc.workspace.SelectAllFiltered()
	c.JSON(http.StatusOK, gin.H{"selected_count": count})
}

// ClearSelection handles DELETE /api/selection
func (sc *SelectionController) ClearSelection(c *gin.Context) {
	sc.workspace.ClearSelection()
	respondSuccess(c, "selection cleared")
}
