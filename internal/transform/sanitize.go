package transform

import (
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

// DefaultExcerptRunes caps excerpts derived from post content.
const DefaultExcerptRunes = 280

var (
	// textPolicy strips every tag; used for titles and excerpts.
	textPolicy = bluemonday.StrictPolicy()

	// contentPolicy keeps reader-safe markup including links and images.
	contentPolicy = newContentPolicy()
)

func newContentPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	// WordPress wraps images in figure/figcaption
	p.AllowElements("figure", "figcaption")
	return p
}

// CleanText strips all HTML from a rendered field, unescapes entities and
// collapses whitespace runs into single spaces.
func CleanText(s string) string {
	return collapseWhitespace(html.UnescapeString(textPolicy.Sanitize(s)))
}

// StripExcerptMarker drops the trailing "read more" marker WordPress appends
// to auto-generated excerpts. It appears entity-encoded or as a literal
// ellipsis depending on the theme.
func StripExcerptMarker(s string) string {
	s = strings.TrimSpace(s)
	for _, marker := range []string{"[…]", "[&hellip;]"} {
		if strings.HasSuffix(s, marker) {
			return strings.TrimSpace(strings.TrimSuffix(s, marker))
		}
	}
	return s
}

// CleanExcerpt sanitizes a rendered excerpt down to plain text without the
// trailing excerpt marker.
func CleanExcerpt(s string) string {
	return StripExcerptMarker(CleanText(s))
}

// SanitizeHTML filters rendered post content down to reader-safe markup.
func SanitizeHTML(s string) string {
	return strings.TrimSpace(contentPolicy.Sanitize(s))
}

// ExcerptFromContent derives a plain-text excerpt from rendered content for
// posts that have none, clamped to maxRunes.
func ExcerptFromContent(htmlContent string, maxRunes int) string {
	if maxRunes <= 0 {
		maxRunes = DefaultExcerptRunes
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return ""
	}
	doc.Find("script").Remove()
	doc.Find("style").Remove()

	text := collapseWhitespace(doc.Text())
	runes := []rune(text)
	if len(runes) <= maxRunes {
		return text
	}
	return strings.TrimSpace(string(runes[:maxRunes])) + "…"
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
