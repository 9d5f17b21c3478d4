package workspace

import (
	"errors"
	"testing"
	"time"

	"github.com/bookpress/bookpress/internal/wordpress"
)

func mk(id int, title string, published time.Time, author int) wordpress.Post {
	return wordpress.Post{
		ID:      id,
		Title:   wordpress.RenderedField{Rendered: title},
		Author:  author,
		DateGMT: wordpress.Time{Time: published},
	}
}

var base = time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)

func loadedWorkspace() *Workspace {
	w := NewWorkspace()
	w.ReplacePosts([]wordpress.Post{
		mk(1, "Oldest pancake recipe", base, 5),
		mk(2, "Middle bread notes", base.AddDate(0, 1, 0), 5),
		mk(3, "Newest kitchen tour", base.AddDate(0, 2, 0), 6),
	})
	return w
}

func TestReplacePosts_SortsNewestFirst(t *testing.T) {
	w := loadedWorkspace()

	view := w.View(1, 10)
	if len(view.Posts) != 3 {
		t.Fatalf("expected 3 posts, got %d", len(view.Posts))
	}
	if view.Posts[0].ID != 3 || view.Posts[2].ID != 1 {
		t.Errorf("expected newest-first order, got %+v", view.Posts)
	}
	if view.FetchedAt.IsZero() {
		t.Error("expected fetch timestamp to be set")
	}
}

func TestReplacePosts_PrunesVanishedSelection(t *testing.T) {
	w := loadedWorkspace()
	if err := w.Select(1); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if err := w.Select(3); err != nil {
		t.Fatalf("Select failed: %v", err)
	}

	w.ReplacePosts([]wordpress.Post{mk(3, "Still here", base, 6)})

	if ids := w.SelectedIDs(); len(ids) != 1 || ids[0] != 3 {
		t.Errorf("expected selection pruned to [3], got %v", ids)
	}
}

func TestMergePosts_UpsertsAndKeepsSelection(t *testing.T) {
	w := loadedWorkspace()
	if err := w.Select(2); err != nil {
		t.Fatalf("Select failed: %v", err)
	}

	w.MergePosts([]wordpress.Post{
		mk(2, "Middle bread notes, revised", base.AddDate(0, 1, 0), 5),
		mk(4, "Brand new post", base.AddDate(0, 3, 0), 6),
	})

	view := w.View(1, 10)
	if view.TotalLoaded != 4 {
		t.Fatalf("expected 4 posts after merge, got %d", view.TotalLoaded)
	}
	if view.Posts[0].ID != 4 {
		t.Errorf("expected the new post to sort first, got %d", view.Posts[0].ID)
	}

	post, ok := w.Post(2)
	if !ok || post.Title.Rendered != "Middle bread notes, revised" {
		t.Errorf("expected post 2 to be updated, got %+v", post)
	}
	if ids := w.SelectedIDs(); len(ids) != 1 || ids[0] != 2 {
		t.Errorf("expected selection to survive merge, got %v", ids)
	}
}

func TestFilter_Search(t *testing.T) {
	w := NewWorkspace()
	w.ReplacePosts([]wordpress.Post{
		{
			ID:      1,
			Title:   wordpress.RenderedField{Rendered: "<p>Sourdough &amp; Rye</p>"},
			DateGMT: wordpress.Time{Time: base},
		},
		mk(2, "Unrelated", base, 0),
	})

	w.SetFilter(Filter{Search: "sourdough & rye"})

	view := w.View(1, 10)
	if view.TotalPosts != 1 || view.Posts[0].ID != 1 {
		t.Errorf("expected sanitized case-insensitive match, got %+v", view.Posts)
	}
}

func TestFilter_DateRange(t *testing.T) {
	w := loadedWorkspace()

	after := base.AddDate(0, 0, 15)
	before := base.AddDate(0, 1, 15)
	w.SetFilter(Filter{After: &after, Before: &before})

	view := w.View(1, 10)
	if view.TotalPosts != 1 || view.Posts[0].ID != 2 {
		t.Errorf("expected only the middle post in range, got %+v", view.Posts)
	}

	// Bounds are inclusive
	exact := base.AddDate(0, 1, 0)
	w.SetFilter(Filter{After: &exact, Before: &exact})
	view = w.View(1, 10)
	if view.TotalPosts != 1 || view.Posts[0].ID != 2 {
		t.Errorf("expected inclusive bounds to match post 2, got %+v", view.Posts)
	}
}

func TestFilter_Author(t *testing.T) {
	w := loadedWorkspace()
	w.SetFilter(Filter{Author: 6})

	view := w.View(1, 10)
	if view.TotalPosts != 1 || view.Posts[0].ID != 3 {
		t.Errorf("expected author filter to match post 3, got %+v", view.Posts)
	}
}

func TestSelectionSurvivesFilterChanges(t *testing.T) {
	w := loadedWorkspace()
	if err := w.Select(1); err != nil {
		t.Fatalf("Select failed: %v", err)
	}

	w.SetFilter(Filter{Search: "kitchen"})
	w.ClearFilter()

	if ids := w.SelectedIDs(); len(ids) != 1 || ids[0] != 1 {
		t.Errorf("expected selection to survive filter changes, got %v", ids)
	}
}

func TestSelect_UnknownPost(t *testing.T) {
	w := loadedWorkspace()

	if err := w.Select(99); !errors.Is(err, ErrUnknownPost) {
		t.Errorf("expected ErrUnknownPost, got %v", err)
	}
	if err := w.Deselect(99); !errors.Is(err, ErrUnknownPost) {
		t.Errorf("expected ErrUnknownPost, got %v", err)
	}
}

func TestSelectAllFiltered(t *testing.T) {
	w := loadedWorkspace()
	w.SetFilter(Filter{Author: 5})

	if n := w.SelectAllFiltered(); n != 2 {
		t.Errorf("expected 2 selected, got %d", n)
	}

	// Adds to an existing selection rather than replacing it
	w.SetFilter(Filter{Author: 6})
	if n := w.SelectAllFiltered(); n != 3 {
		t.Errorf("expected 3 selected after widening, got %d", n)
	}

	w.ClearSelection()
	if ids := w.SelectedIDs(); len(ids) != 0 {
		t.Errorf("expected empty selection, got %v", ids)
	}
}

func TestView_Pagination(t *testing.T) {
	w := NewWorkspace()
	var posts []wordpress.Post
	for i := 1; i <= 45; i++ {
		posts = append(posts, mk(i, "Post", base.AddDate(0, 0, i), 0))
	}
	w.ReplacePosts(posts)

	view := w.View(2, 20)
	if view.Page != 2 || view.TotalPages != 3 || view.TotalPosts != 45 {
		t.Errorf("unexpected view counts: %+v", view)
	}
	if len(view.Posts) != 20 {
		t.Errorf("expected 20 posts on page 2, got %d", len(view.Posts))
	}

	// Page clamped into range
	view = w.View(99, 20)
	if view.Page != 3 {
		t.Errorf("expected page clamped to 3, got %d", view.Page)
	}
	if len(view.Posts) != 5 {
		t.Errorf("expected 5 posts on the last page, got %d", len(view.Posts))
	}

	view = w.View(0, 0)
	if view.Page != 1 || view.PerPage != defaultPerPage {
		t.Errorf("expected defaults, got page=%d per_page=%d", view.Page, view.PerPage)
	}
}

func TestSelectedPosts_OldestFirstWithTies(t *testing.T) {
	w := NewWorkspace()
	w.ReplacePosts([]wordpress.Post{
		mk(12, "Tie high id", base, 0),
		mk(11, "Tie low id", base, 0),
		mk(20, "Later", base.AddDate(0, 1, 0), 0),
	})
	for _, id := range []int{20, 12, 11} {
		if err := w.Select(id); err != nil {
			t.Fatalf("Select(%d) failed: %v", id, err)
		}
	}

	ids := w.SelectedIDs()
	want := []int{11, 12, 20}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, ids)
		}
	}
}

func TestMarkImported(t *testing.T) {
	w := loadedWorkspace()
	w.MarkImported([]int{2})

	view := w.View(1, 10)
	for _, p := range view.Posts {
		if p.ID == 2 && !p.Imported {
			t.Error("expected post 2 to be marked imported")
		}
		if p.ID != 2 && p.Imported {
			t.Errorf("post %d unexpectedly marked imported", p.ID)
		}
	}
}

func TestPostsByID(t *testing.T) {
	w := loadedWorkspace()

	posts, err := w.PostsByID([]int{3, 1})
	if err != nil {
		t.Fatalf("PostsByID failed: %v", err)
	}
	if len(posts) != 2 || posts[0].ID != 3 || posts[1].ID != 1 {
		t.Errorf("unexpected posts %+v", posts)
	}

	if _, err := w.PostsByID([]int{1, 42}); !errors.Is(err, ErrUnknownPost) {
		t.Errorf("expected ErrUnknownPost, got %v", err)
	}
}
