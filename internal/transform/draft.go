package transform

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/bookpress/bookpress/internal/wordpress"
)

const maxTitleRunes = 512

// ErrNoPosts indicates a bundle was requested over an empty post set
var ErrNoPosts = errors.New("no posts to transform")

// ErrProtectedPost indicates a post's content is withheld behind a password
// and cannot be migrated
var ErrProtectedPost = errors.New("post content is password-protected")

// Chapter is one ordered chapter of a draft, derived from a single post.
type Chapter struct {
	Seq          int       `json:"seq"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	Excerpt      string    `json:"excerpt,omitempty"`
	SourcePostID int       `json:"source_post_id"`
	PublishedAt  time.Time `json:"published_at"`
}

// Draft is a book record ready to be written, with the cover not yet
// resolved: CoverSourceURL still points at the origin site and CoverPostID
// names the post it came from.
type Draft struct {
	Title          string    `json:"title"`
	Intro          string    `json:"intro,omitempty"`
	TargetAuthorID string    `json:"target_author_id"`
	CoverSourceURL string    `json:"cover_source_url,omitempty"`
	CoverPostID    int       `json:"cover_post_id,omitempty"`
	Chapters       []Chapter `json:"chapters"`
	PostIDs        []int     `json:"post_ids"`
}

// Options tune how posts become drafts.
type Options struct {
	// BundleTitle names the record in bundle mode; ignored for single posts.
	BundleTitle string
	// Intro overrides the derived intro when set.
	Intro string
	// TargetAuthorID is the author record the book will point at.
	TargetAuthorID string
	// ExcerptRunes clamps derived excerpts; zero means DefaultExcerptRunes.
	ExcerptRunes int
}

// Validate checks the invariants every record written to the bookstore must
// hold.
func (d *Draft) Validate() error {
	return validation.ValidateStruct(d,
		validation.Field(&d.Title, validation.Required.Error("title is required"), validation.RuneLength(1, maxTitleRunes)),
		validation.Field(&d.TargetAuthorID, validation.Required.Error("target author is required")),
		validation.Field(&d.Chapters, validation.Required.Error("at least one chapter is required")),
	)
}

// SinglePost turns one post into a draft with exactly one chapter. The book
// title is the sanitized post title and the intro falls back to the post's
// excerpt.
func SinglePost(post wordpress.Post, opts Options) (*Draft, error) {
	chapter, err := chapterFromPost(post, 1, opts.ExcerptRunes)
	if err != nil {
		return nil, err
	}

	intro := strings.TrimSpace(opts.Intro)
	if intro == "" {
		intro = chapter.Excerpt
	}

	draft := &Draft{
		Title:          chapter.Title,
		Intro:          intro,
		TargetAuthorID: opts.TargetAuthorID,
		Chapters:       []Chapter{chapter},
		PostIDs:        []int{post.ID},
	}
	if url := featuredImageURL(post); url != "" {
		draft.CoverSourceURL = url
		draft.CoverPostID = post.ID
	}
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	return draft, nil
}

// Bundle turns a set of posts into one draft whose chapters are the posts
// ordered oldest first (ties broken by ascending post id). The title must be
// supplied by the operator; the intro falls back to the first chapter's
// excerpt. The cover comes from the first chapter's post that has a featured
// image.
func Bundle(posts []wordpress.Post, opts Options) (*Draft, error) {
	if len(posts) == 0 {
		return nil, ErrNoPosts
	}

	ordered := make([]wordpress.Post, len(posts))
	copy(ordered, posts)
	sort.SliceStable(ordered, func(i, j int) bool {
		ti, tj := ordered[i].PublishedAt(), ordered[j].PublishedAt()
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return ordered[i].ID < ordered[j].ID
	})

	draft := &Draft{
		Title:          strings.TrimSpace(opts.BundleTitle),
		Intro:          strings.TrimSpace(opts.Intro),
		TargetAuthorID: opts.TargetAuthorID,
	}
	for i, post := range ordered {
		chapter, err := chapterFromPost(post, i+1, opts.ExcerptRunes)
		if err != nil {
			return nil, err
		}
		draft.Chapters = append(draft.Chapters, chapter)
		draft.PostIDs = append(draft.PostIDs, post.ID)
		if draft.CoverSourceURL == "" {
			if url := featuredImageURL(post); url != "" {
				draft.CoverSourceURL = url
				draft.CoverPostID = post.ID
			}
		}
	}

	if draft.Intro == "" {
		draft.Intro = draft.Chapters[0].Excerpt
	}

	if err := draft.Validate(); err != nil {
		return nil, err
	}
	return draft, nil
}

func chapterFromPost(post wordpress.Post, seq, excerptRunes int) (Chapter, error) {
	if post.Content.Protected || post.Excerpt.Protected {
		return Chapter{}, fmt.Errorf("post %d (%s): %w", post.ID, post.Slug, ErrProtectedPost)
	}

	title := CleanText(post.Title.Rendered)
	if title == "" {
		title = post.Slug
	}
	if title == "" {
		title = fmt.Sprintf("Post %d", post.ID)
	}

	excerpt := CleanExcerpt(post.Excerpt.Rendered)
	if excerpt == "" {
		excerpt = ExcerptFromContent(post.Content.Rendered, excerptRunes)
	}

	return Chapter{
		Seq:          seq,
		Title:        title,
		Content:      SanitizeHTML(post.Content.Rendered),
		Excerpt:      excerpt,
		SourcePostID: post.ID,
		PublishedAt:  post.PublishedAt(),
	}, nil
}

func featuredImageURL(post wordpress.Post) string {
	if img := post.FeaturedImage(); img != nil {
		return img.SourceURL
	}
	return ""
}
