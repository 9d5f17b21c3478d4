package authors

import (
	"context"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bookpress/bookpress/internal/wordpress"
)

// Strategy identifies which discovery tier produced the author set.
type Strategy string

const (
	StrategyUsers          Strategy = "users"
	StrategyPosts          Strategy = "posts"
	StrategyAnonymousPosts Strategy = "anonymous-posts"
	StrategyNone           Strategy = "none"
)

const (
	// DefaultTTL is how long a resolved author set stays fresh.
	DefaultTTL = 15 * time.Minute

	usersPageSize = 100
	maxUserPages  = 10

	scanPageSize = 100
	maxScanPages = 3
)

// Author is one discovered post author.
type Author struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug,omitempty"`
	PostCount int    `json:"post_count,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Result is a discovery outcome: the author set sorted by name, the strategy
// that produced it, and a status message for the operator when every tier
// came up empty.
type Result struct {
	Authors    []Author  `json:"authors"`
	Strategy   Strategy  `json:"strategy"`
	Message    string    `json:"message,omitempty"`
	ResolvedAt time.Time `json:"resolved_at"`
}

// PostSource is the slice of the WordPress client the resolver needs.
type PostSource interface {
	Authenticated() bool
	ListUsers(ctx context.Context, page, perPage int) ([]wordpress.User, *wordpress.PageInfo, error)
	ListPosts(ctx context.Context, query wordpress.PostQuery) ([]wordpress.Post, *wordpress.PageInfo, error)
}

// Resolver discovers the site's post authors, degrading through progressively
// less privileged strategies: a direct user listing, an authenticated scan of
// recent posts, and finally an anonymous scan. A failed or empty tier moves on
// to the next one; only context cancellation surfaces as an error.
type Resolver struct {
	source    PostSource
	anonymous PostSource

	mu       sync.Mutex
	cached   *Result
	cachedAt time.Time
	ttl      time.Duration
}

// NewResolver creates a resolver over an authenticated source and its
// anonymous counterpart. A non-positive ttl falls back to DefaultTTL.
func NewResolver(source, anonymous PostSource, ttl time.Duration) *Resolver {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Resolver{
		source:    source,
		anonymous: anonymous,
		ttl:       ttl,
	}
}

// Resolve returns the cached author set when fresh, discovering it otherwise.
func (r *Resolver) Resolve(ctx context.Context) (*Result, error) {
	r.mu.Lock()
	if r.cached != nil && time.Since(r.cachedAt) < r.ttl {
		cached := r.cached
		r.mu.Unlock()
		return cached, nil
	}
	r.mu.Unlock()

	return r.Refresh(ctx)
}

// Refresh discovers the author set, bypassing the cache.
func (r *Resolver) Refresh(ctx context.Context) (*Result, error) {
	result, err := r.discover(ctx)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cached = result
	r.cachedAt = time.Now()
	r.mu.Unlock()

	return result, nil
}

func (r *Resolver) discover(ctx context.Context) (*Result, error) {
	if r.source.Authenticated() {
		authors, err := r.fromUsers(ctx, r.source)
		if err == nil && len(authors) > 0 {
			return newResult(authors, StrategyUsers, ""), nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Printf("author discovery: user listing failed, scanning posts: %v", err)
		}

		authors, err = r.fromPosts(ctx, r.source)
		if err == nil && len(authors) > 0 {
			return newResult(authors, StrategyPosts, ""), nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Printf("author discovery: authenticated post scan failed, trying anonymously: %v", err)
		}
	}

	authors, err := r.fromPosts(ctx, r.anonymous)
	if err == nil && len(authors) > 0 {
		return newResult(authors, StrategyAnonymousPosts, ""), nil
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Printf("author discovery: anonymous post scan failed: %v", err)
	}

	return newResult(nil, StrategyNone,
		"Author list unavailable: the site rejected the user listing and no authors could be read from recent posts."), nil
}

// fromUsers lists site users directly. Needs credentials with list_users
// capability, which most application passwords lack.
func (r *Resolver) fromUsers(ctx context.Context, source PostSource) ([]Author, error) {
	var authors []Author

	for page := 1; page <= maxUserPages; page++ {
		users, info, err := source.ListUsers(ctx, page, usersPageSize)
		if err != nil {
			return nil, err
		}
		for _, u := range users {
			authors = append(authors, Author{
				ID:        u.ID,
				Name:      u.Name,
				Slug:      u.Slug,
				AvatarURL: avatarURL(u),
			})
		}
		if len(users) == 0 || info.TotalPages == 0 || page >= info.TotalPages {
			break
		}
	}

	return authors, nil
}

// fromPosts scans recent posts and collects the embedded author blocks.
func (r *Resolver) fromPosts(ctx context.Context, source PostSource) ([]Author, error) {
	seen := make(map[int]*Author)

	for page := 1; page <= maxScanPages; page++ {
		posts, info, err := source.ListPosts(ctx, wordpress.PostQuery{Page: page, PerPage: scanPageSize})
		if err != nil {
			return nil, err
		}
		for i := range posts {
			user := posts[i].EmbeddedAuthor()
			if user == nil || user.Name == "" {
				continue
			}
			if existing, ok := seen[user.ID]; ok {
				existing.PostCount++
				continue
			}
			seen[user.ID] = &Author{
				ID:        user.ID,
				Name:      user.Name,
				Slug:      user.Slug,
				PostCount: 1,
				AvatarURL: avatarURL(*user),
			}
		}
		if len(posts) == 0 || info.TotalPages == 0 || page >= info.TotalPages {
			break
		}
	}

	authors := make([]Author, 0, len(seen))
	for _, a := range seen {
		authors = append(authors, *a)
	}
	return authors, nil
}

func newResult(authors []Author, strategy Strategy, message string) *Result {
	if authors == nil {
		authors = []Author{}
	}
	sort.Slice(authors, func(i, j int) bool {
		ni, nj := strings.ToLower(authors[i].Name), strings.ToLower(authors[j].Name)
		if ni != nj {
			return ni < nj
		}
		return authors[i].ID < authors[j].ID
	})
	return &Result{
		Authors:    authors,
		Strategy:   strategy,
		Message:    message,
		ResolvedAt: time.Now(),
	}
}

func avatarURL(u wordpress.User) string {
	for _, size := range []string{"96", "48", "24"} {
		if url, ok := u.AvatarURLs[size]; ok && url != "" {
			return url
		}
	}
	return ""
}
