package wordpress

import (
	"fmt"
	"strings"
	"time"
)

// Time handles WordPress timestamps, which come in several shapes: site-local
// values without a zone offset ("2020-01-15T10:30:00"), full RFC3339, or null
// for scheduled drafts.
type Time struct {
	time.Time
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func (t *Time) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognized wordpress timestamp %q", s)
}

// RenderedField is a field the API returns as pre-rendered HTML.
type RenderedField struct {
	Rendered string `json:"rendered"`
}

// ProtectedField is a rendered field that may be withheld behind a post password.
type ProtectedField struct {
	Rendered  string `json:"rendered"`
	Protected bool   `json:"protected"`
}

// Post is a single post resource from /wp/v2/posts.
type Post struct {
	ID            int            `json:"id"`
	Date          Time           `json:"date"`
	DateGMT       Time           `json:"date_gmt"`
	Modified      Time           `json:"modified"`
	ModifiedGMT   Time           `json:"modified_gmt"`
	Slug          string         `json:"slug"`
	Status        string         `json:"status"`
	Link          string         `json:"link"`
	Title         RenderedField  `json:"title"`
	Content       ProtectedField `json:"content"`
	Excerpt       ProtectedField `json:"excerpt"`
	Author        int            `json:"author"`
	FeaturedMedia int            `json:"featured_media"`
	Categories    []int          `json:"categories,omitempty"`
	Tags          []int          `json:"tags,omitempty"`
	Embedded      *Embedded      `json:"_embedded,omitempty"`
}

// Embedded carries the resources expanded by the _embed query parameter.
// Blocks the server chose not to expand stay nil.
type Embedded struct {
	Author        []User  `json:"author,omitempty"`
	FeaturedMedia []Media `json:"wp:featuredmedia,omitempty"`
}

// PublishedAt returns the publish instant, preferring the GMT variant.
func (p *Post) PublishedAt() time.Time {
	if !p.DateGMT.IsZero() {
		return p.DateGMT.Time
	}
	return p.Date.Time
}

// EmbeddedAuthor returns the expanded author record, if the response carried one.
func (p *Post) EmbeddedAuthor() *User {
	if p.Embedded == nil || len(p.Embedded.Author) == 0 {
		return nil
	}
	return &p.Embedded.Author[0]
}

// FeaturedImage returns the expanded featured-media record with a usable
// source URL, if any.
func (p *Post) FeaturedImage() *Media {
	if p.Embedded == nil {
		return nil
	}
	for i := range p.Embedded.FeaturedMedia {
		if p.Embedded.FeaturedMedia[i].SourceURL != "" {
			return &p.Embedded.FeaturedMedia[i]
		}
	}
	return nil
}

// User is an author resource from /wp/v2/users or an embedded author block.
type User struct {
	ID         int               `json:"id"`
	Name       string            `json:"name"`
	Slug       string            `json:"slug"`
	Link       string            `json:"link,omitempty"`
	AvatarURLs map[string]string `json:"avatar_urls,omitempty"`
}

// Media is an attachment resource from /wp/v2/media or an embedded
// featured-media block.
type Media struct {
	ID           int           `json:"id"`
	SourceURL    string        `json:"source_url"`
	MimeType     string        `json:"mime_type,omitempty"`
	AltText      string        `json:"alt_text,omitempty"`
	MediaDetails *MediaDetails `json:"media_details,omitempty"`
}

// MediaDetails holds the intermediate sizes WordPress generated for an upload.
type MediaDetails struct {
	Width  int                  `json:"width,omitempty"`
	Height int                  `json:"height,omitempty"`
	File   string               `json:"file,omitempty"`
	Sizes  map[string]MediaSize `json:"sizes,omitempty"`
}

// MediaSize is one generated rendition of an attachment.
type MediaSize struct {
	SourceURL string `json:"source_url"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
	MimeType  string `json:"mime_type,omitempty"`
}

// ThumbnailURL picks a small rendition suitable for list previews, falling
// back to the original upload.
func (m *Media) ThumbnailURL() string {
	if m.MediaDetails != nil {
		for _, name := range []string{"medium", "thumbnail"} {
			if size, ok := m.MediaDetails.Sizes[name]; ok && size.SourceURL != "" {
				return size.SourceURL
			}
		}
	}
	return m.SourceURL
}

// PageInfo reports the pagination totals WordPress returns in response headers.
type PageInfo struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalPosts int `json:"total_posts"`
	TotalPages int `json:"total_pages"`
}

// PostQuery narrows a post listing. Zero values mean "not set".
type PostQuery struct {
	Page    int
	PerPage int
	Search  string
	After   *time.Time
	Before  *time.Time
	Author  int
}
