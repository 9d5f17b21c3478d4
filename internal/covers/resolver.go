package covers

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/bookpress/bookpress/internal/imagehost"
)

// Uploader pushes one staged file to the image host.
type Uploader interface {
	Upload(ctx context.Context, filename string, file io.Reader) (*imagehost.UploadResult, error)
}

// Resolution is the cover decision for one record.
type Resolution struct {
	URL      string `json:"url,omitempty"`
	Uploaded bool   `json:"uploaded"`
}

// Resolver decides the cover URL a record ships with: staged and uploaded
// to the image host when one is configured, the original source URL
// otherwise. Upload failures degrade to the source URL so the record still
// carries a cover.
type Resolver struct {
	cache    *Cache
	uploader Uploader
}

// NewResolver creates a resolver. A nil uploader disables uploads entirely.
func NewResolver(cache *Cache, uploader Uploader) *Resolver {
	return &Resolver{
		cache:    cache,
		uploader: uploader,
	}
}

// Resolve stages the post's featured image and uploads it.
func (r *Resolver) Resolve(ctx context.Context, postID int, sourceURL string) Resolution {
	if sourceURL == "" {
		return Resolution{}
	}
	if r.uploader == nil {
		return Resolution{URL: sourceURL}
	}

	stagePath, err := r.cache.Stage(ctx, postID, sourceURL)
	if err != nil {
		log.Printf("cover staging failed for post %d, keeping source URL: %v", postID, err)
		return Resolution{URL: sourceURL}
	}

	file, err := os.Open(stagePath)
	if err != nil {
		log.Printf("cover open failed for post %d, keeping source URL: %v", postID, err)
		return Resolution{URL: sourceURL}
	}
	defer file.Close()

	result, err := r.uploader.Upload(ctx, filepath.Base(stagePath), file)
	if err != nil {
		log.Printf("cover upload failed for post %d, keeping source URL: %v", postID, err)
		return Resolution{URL: sourceURL}
	}

	return Resolution{URL: result.URL, Uploaded: true}
}
