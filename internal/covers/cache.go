package covers

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// MediaFetcher streams a media file from the source site.
type MediaFetcher interface {
	DownloadMedia(ctx context.Context, mediaURL string) (io.ReadCloser, string, error)
}

// Cache stages featured images in a local directory before upload. The
// staged files double as operator-preview thumbnails.
type Cache struct {
	dir     string
	fetcher MediaFetcher
}

// NewCache creates a staging cache at the given directory.
func NewCache(dir string, fetcher MediaFetcher) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create media cache dir: %w", err)
	}
	return &Cache{
		dir:     dir,
		fetcher: fetcher,
	}, nil
}

// Stage returns the local path of the staged image for a post, downloading
// it on first use.
func (c *Cache) Stage(ctx context.Context, postID int, sourceURL string) (string, error) {
	if sourceURL == "" {
		return "", fmt.Errorf("post %d has no image URL", postID)
	}

	stagePath := filepath.Join(c.dir, c.stageFilename(postID, sourceURL))

	if _, err := os.Stat(stagePath); err == nil {
		return stagePath, nil
	}

	if err := c.fetchAndStage(ctx, sourceURL, stagePath); err != nil {
		return "", err
	}
	return stagePath, nil
}

// Invalidate removes every staged image for a post.
func (c *Cache) Invalidate(postID int) error {
	pattern := filepath.Join(c.dir, fmt.Sprintf("post_%d_*", postID))
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return err
	}

	for _, match := range matches {
		if err := os.Remove(match); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// stageFilename generates a unique filename from the post id and URL hash,
// keeping the image extension so the upload host recognizes the format.
func (c *Cache) stageFilename(postID int, sourceURL string) string {
	hash := sha256.Sum256([]byte(sourceURL))
	return fmt.Sprintf("post_%d_%x%s", postID, hash[:8], extFromURL(sourceURL))
}

// fetchAndStage downloads an image and writes it atomically into the cache.
func (c *Cache) fetchAndStage(ctx context.Context, sourceURL, stagePath string) error {
	body, _, err := c.fetcher.DownloadMedia(ctx, sourceURL)
	if err != nil {
		return err
	}
	defer body.Close()

	// Temp file in the same directory so the rename stays atomic
	tmpFile, err := os.CreateTemp(c.dir, "stage_tmp_")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()
	defer func() {
		tmpFile.Close()
		os.Remove(tmpPath) // Clean up if we didn't rename
	}()

	if _, err := io.Copy(tmpFile, body); err != nil {
		return err
	}
	tmpFile.Close()

	return os.Rename(tmpPath, stagePath)
}

// Dir returns the staging directory path.
func (c *Cache) Dir() string {
	return c.dir
}

func extFromURL(sourceURL string) string {
	parsed, err := url.Parse(sourceURL)
	if err != nil {
		return ".jpg"
	}
	switch ext := strings.ToLower(filepath.Ext(parsed.Path)); ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return ext
	default:
		return ".jpg"
	}
}
