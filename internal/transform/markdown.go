package transform

import (
	"fmt"

	md "github.com/JohannesKaufmann/html-to-markdown"

	"github.com/bookpress/bookpress/internal/wordpress"
)

// Markdown renders a post as markdown for operator preview: the cleaned
// title as a heading followed by the sanitized content converted to
// markdown.
func Markdown(post wordpress.Post) (string, error) {
	if post.Content.Protected {
		return "", fmt.Errorf("post %d (%s): %w", post.ID, post.Slug, ErrProtectedPost)
	}

	converter := md.NewConverter("", true, nil)
	body, err := converter.ConvertString(SanitizeHTML(post.Content.Rendered))
	if err != nil {
		return "", fmt.Errorf("failed to convert content: %w", err)
	}

	title := CleanText(post.Title.Rendered)
	if title == "" {
		return body, nil
	}
	return "# " + title + "\n\n" + body, nil
}
