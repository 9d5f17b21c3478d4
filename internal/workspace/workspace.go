package workspace

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bookpress/bookpress/internal/transform"
	"github.com/bookpress/bookpress/internal/wordpress"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// ErrUnknownPost indicates an id that is not loaded in the workspace
var ErrUnknownPost = errors.New("post is not loaded in the workspace")

// Filter narrows the post listing. Zero values mean "not set"; the search
// text matches case-insensitively against the sanitized title and excerpt.
type Filter struct {
	Search string     `json:"search,omitempty"`
	After  *time.Time `json:"after,omitempty"`
	Before *time.Time `json:"before,omitempty"`
	Author int        `json:"author,omitempty"`
}

// PostView is one row of the operator listing.
type PostView struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Excerpt     string    `json:"excerpt,omitempty"`
	Link        string    `json:"link,omitempty"`
	Status      string    `json:"status,omitempty"`
	AuthorID    int       `json:"author_id,omitempty"`
	AuthorName  string    `json:"author_name,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	HasImage    bool      `json:"has_image"`
	Protected   bool      `json:"protected"`
	Selected    bool      `json:"selected"`
	Imported    bool      `json:"imported"`
}

// View is one page of the filtered workspace plus its counts.
type View struct {
	Posts         []PostView `json:"posts"`
	Page          int        `json:"page"`
	PerPage       int        `json:"per_page"`
	TotalPosts    int        `json:"total_posts"`
	TotalPages    int        `json:"total_pages"`
	TotalLoaded   int        `json:"total_loaded"`
	SelectedCount int        `json:"selected_count"`
	Filter        *Filter    `json:"filter,omitempty"`
	FetchedAt     time.Time  `json:"fetched_at,omitempty"`
}

// entry caches the sanitized text alongside the raw post so filtering does
// not re-run the HTML policies on every view.
type entry struct {
	post    wordpress.Post
	title   string
	excerpt string
}

func newEntry(post wordpress.Post) entry {
	return entry{
		post:    post,
		title:   transform.CleanText(post.Title.Rendered),
		excerpt: transform.CleanExcerpt(post.Excerpt.Rendered),
	}
}

// Workspace is the in-memory view over fetched posts a single operator works
// against: the post set, the active filter and the selection. All methods
// are safe for concurrent use.
type Workspace struct {
	mu        sync.RWMutex
	entries   []entry
	selected  map[int]struct{}
	imported  map[int]struct{}
	filter    *Filter
	fetchedAt time.Time
}

func NewWorkspace() *Workspace {
	return &Workspace{
		selected: make(map[int]struct{}),
		imported: make(map[int]struct{}),
	}
}

// ReplacePosts swaps the whole post set. Selected ids that no longer exist
// are pruned; the filter is kept.
func (w *Workspace) ReplacePosts(posts []wordpress.Post) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.entries = make([]entry, 0, len(posts))
	for _, post := range posts {
		w.entries = append(w.entries, newEntry(post))
	}
	w.sortEntries()
	w.fetchedAt = time.Now()

	for id := range w.selected {
		if w.indexOf(id) < 0 {
			delete(w.selected, id)
		}
	}
}

// MergePosts upserts posts by id, keeping the rest of the set and the
// selection intact. Used by the scheduled refresh.
func (w *Workspace) MergePosts(posts []wordpress.Post) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, post := range posts {
		if i := w.indexOf(post.ID); i >= 0 {
			w.entries[i] = newEntry(post)
		} else {
			w.entries = append(w.entries, newEntry(post))
		}
	}
	w.sortEntries()
	w.fetchedAt = time.Now()
}

// SetFilter replaces the active filter. The selection is untouched.
func (w *Workspace) SetFilter(filter Filter) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.filter = &filter
}

// ClearFilter removes the active filter.
func (w *Workspace) ClearFilter() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.filter = nil
}

// Select adds a post to the selection.
func (w *Workspace) Select(id int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.indexOf(id) < 0 {
		return ErrUnknownPost
	}
	w.selected[id] = struct{}{}
	return nil
}

// Deselect removes a post from the selection.
func (w *Workspace) Deselect(id int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.indexOf(id) < 0 {
		return ErrUnknownPost
	}
	delete(w.selected, id)
	return nil
}

// SelectAllFiltered selects every post the active filter matches and
// returns how many posts are now selected.
func (w *Workspace) SelectAllFiltered() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, e := range w.entries {
		if w.matches(e) {
			w.selected[e.post.ID] = struct{}{}
		}
	}
	return len(w.selected)
}

// ClearSelection deselects everything.
func (w *Workspace) ClearSelection() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.selected = make(map[int]struct{})
}

// MarkImported annotates posts recorded in the import ledger.
func (w *Workspace) MarkImported(ids []int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, id := range ids {
		w.imported[id] = struct{}{}
	}
}

// View returns one page of the filtered listing. The page number is clamped
// into the valid range.
func (w *Workspace) View(page, perPage int) *View {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if perPage <= 0 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	var filtered []entry
	for _, e := range w.entries {
		if w.matches(e) {
			filtered = append(filtered, e)
		}
	}

	totalPages := (len(filtered) + perPage - 1) / perPage
	if page < 1 {
		page = 1
	}
	if totalPages > 0 && page > totalPages {
		page = totalPages
	}

	start := (page - 1) * perPage
	end := start + perPage
	if start > len(filtered) {
		start = len(filtered)
	}
	if end > len(filtered) {
		end = len(filtered)
	}

	posts := make([]PostView, 0, end-start)
	for _, e := range filtered[start:end] {
		posts = append(posts, w.viewOf(e))
	}

	return &View{
		Posts:         posts,
		Page:          page,
		PerPage:       perPage,
		TotalPosts:    len(filtered),
		TotalPages:    totalPages,
		TotalLoaded:   len(w.entries),
		SelectedCount: len(w.selected),
		Filter:        w.filter,
		FetchedAt:     w.fetchedAt,
	}
}

// SelectedPosts returns the selected posts ordered oldest first by publish
// date, ties broken by ascending id. This is the chapter order for bundles.
func (w *Workspace) SelectedPosts() []wordpress.Post {
	w.mu.RLock()
	defer w.mu.RUnlock()

	posts := make([]wordpress.Post, 0, len(w.selected))
	for _, e := range w.entries {
		if _, ok := w.selected[e.post.ID]; ok {
			posts = append(posts, e.post)
		}
	}
	sort.SliceStable(posts, func(i, j int) bool {
		ti, tj := posts[i].PublishedAt(), posts[j].PublishedAt()
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return posts[i].ID < posts[j].ID
	})
	return posts
}

// SelectedIDs returns the selected post ids in the SelectedPosts order.
func (w *Workspace) SelectedIDs() []int {
	posts := w.SelectedPosts()
	ids := make([]int, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	return ids
}

// Post looks up one loaded post by id.
func (w *Workspace) Post(id int) (wordpress.Post, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if i := w.indexOf(id); i >= 0 {
		return w.entries[i].post, true
	}
	return wordpress.Post{}, false
}

// PostsByID resolves ids to loaded posts, failing on the first unknown one.
func (w *Workspace) PostsByID(ids []int) ([]wordpress.Post, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	posts := make([]wordpress.Post, 0, len(ids))
	for _, id := range ids {
		i := w.indexOf(id)
		if i < 0 {
			return nil, ErrUnknownPost
		}
		posts = append(posts, w.entries[i].post)
	}
	return posts, nil
}

func (w *Workspace) indexOf(id int) int {
	for i := range w.entries {
		if w.entries[i].post.ID == id {
			return i
		}
	}
	return -1
}

// sortEntries keeps the listing in blog order, newest first.
func (w *Workspace) sortEntries() {
	sort.SliceStable(w.entries, func(i, j int) bool {
		ti, tj := w.entries[i].post.PublishedAt(), w.entries[j].post.PublishedAt()
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return w.entries[i].post.ID > w.entries[j].post.ID
	})
}

func (w *Workspace) matches(e entry) bool {
	if w.filter == nil {
		return true
	}
	if search := strings.TrimSpace(w.filter.Search); search != "" {
		haystack := strings.ToLower(e.title + " " + e.excerpt)
		if !strings.Contains(haystack, strings.ToLower(search)) {
			return false
		}
	}
	published := e.post.PublishedAt()
	if w.filter.After != nil && published.Before(*w.filter.After) {
		return false
	}
	if w.filter.Before != nil && published.After(*w.filter.Before) {
		return false
	}
	if w.filter.Author != 0 && e.post.Author != w.filter.Author {
		return false
	}
	return true
}

func (w *Workspace) viewOf(e entry) PostView {
	_, selected := w.selected[e.post.ID]
	_, imported := w.imported[e.post.ID]

	view := PostView{
		ID:          e.post.ID,
		Title:       e.title,
		Excerpt:     e.excerpt,
		Link:        e.post.Link,
		Status:      e.post.Status,
		AuthorID:    e.post.Author,
		PublishedAt: e.post.PublishedAt(),
		HasImage:    e.post.FeaturedImage() != nil,
		Protected:   e.post.Content.Protected || e.post.Excerpt.Protected,
		Selected:    selected,
		Imported:    imported,
	}
	if author := e.post.EmbeddedAuthor(); author != nil {
		view.AuthorName = author.Name
	}
	return view
}
