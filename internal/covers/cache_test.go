package covers

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type fakeFetcher struct {
	payload     string
	contentType string
	err         error
	calls       int
}

func (f *fakeFetcher) DownloadMedia(ctx context.Context, mediaURL string) (io.ReadCloser, string, error) {
	f.calls++
	if f.err != nil {
		return nil, "", f.err
	}
	ct := f.contentType
	if ct == "" {
		ct = "image/jpeg"
	}
	return io.NopCloser(strings.NewReader(f.payload)), ct, nil
}

func TestNewCache(t *testing.T) {
	tmpDir := t.TempDir()
	dir := filepath.Join(tmpDir, "media")

	cache, err := NewCache(dir, &fakeFetcher{})
	if err != nil {
		t.Fatalf("NewCache failed: %v", err)
	}

	if cache.Dir() != dir {
		t.Errorf("expected cache dir %s, got %s", dir, cache.Dir())
	}

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		t.Error("cache directory was not created")
	}
}

func TestStage(t *testing.T) {
	fetcher := &fakeFetcher{payload: "fake image data"}
	cache, err := NewCache(t.TempDir(), fetcher)
	if err != nil {
		t.Fatalf("NewCache failed: %v", err)
	}

	path1, err := cache.Stage(context.Background(), 7, "https://blog.example.com/wp-content/uploads/cover.png")
	if err != nil {
		t.Fatalf("Stage failed: %v", err)
	}
	if path1 == "" {
		t.Fatal("expected non-empty path")
	}
	if filepath.Ext(path1) != ".png" {
		t.Errorf("expected .png extension, got %s", filepath.Ext(path1))
	}

	data, err := os.ReadFile(path1)
	if err != nil {
		t.Fatalf("reading staged file: %v", err)
	}
	if string(data) != "fake image data" {
		t.Errorf("staged contents = %q, want %q", data, "fake image data")
	}

	// Second call should come from disk, not the fetcher.
	path2, err := cache.Stage(context.Background(), 7, "https://blog.example.com/wp-content/uploads/cover.png")
	if err != nil {
		t.Fatalf("Stage (cached) failed: %v", err)
	}
	if path1 != path2 {
		t.Errorf("expected same path for staged file, got %s and %s", path1, path2)
	}
	if fetcher.calls != 1 {
		t.Errorf("expected 1 fetch, got %d", fetcher.calls)
	}
}

func TestStage_EmptyURL(t *testing.T) {
	cache, _ := NewCache(t.TempDir(), &fakeFetcher{})

	if _, err := cache.Stage(context.Background(), 1, ""); err == nil {
		t.Error("expected error for empty source URL")
	}
}

func TestStage_FetchError(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("media gone")}
	dir := t.TempDir()
	cache, _ := NewCache(dir, fetcher)

	if _, err := cache.Stage(context.Background(), 1, "https://blog.example.com/cover.jpg"); err == nil {
		t.Fatal("expected error when fetch fails")
	}

	// No partial files should be left behind.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading cache dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty cache dir after failed fetch, found %d entries", len(entries))
	}
}

func TestInvalidate(t *testing.T) {
	cache, _ := NewCache(t.TempDir(), &fakeFetcher{payload: "img"})

	keep, err := cache.Stage(context.Background(), 8, "https://blog.example.com/keep.jpg")
	if err != nil {
		t.Fatalf("Stage failed: %v", err)
	}
	gone, err := cache.Stage(context.Background(), 7, "https://blog.example.com/gone.jpg")
	if err != nil {
		t.Fatalf("Stage failed: %v", err)
	}

	if err := cache.Invalidate(7); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}

	if _, err := os.Stat(gone); !os.IsNotExist(err) {
		t.Error("staged file for post 7 should be deleted after invalidation")
	}
	if _, err := os.Stat(keep); err != nil {
		t.Errorf("staged file for post 8 should survive invalidation: %v", err)
	}
}

func TestStageFilename(t *testing.T) {
	cache, _ := NewCache(t.TempDir(), &fakeFetcher{})

	name1 := cache.stageFilename(1, "https://example.com/cover.jpg")
	name2 := cache.stageFilename(1, "https://example.com/cover.jpg")
	if name1 != name2 {
		t.Error("same inputs should produce same filename")
	}

	name3 := cache.stageFilename(1, "https://example.com/other.jpg")
	if name1 == name3 {
		t.Error("different URLs should produce different filenames")
	}

	name4 := cache.stageFilename(2, "https://example.com/cover.jpg")
	if name1 == name4 {
		t.Error("different post IDs should produce different filenames")
	}
}

func TestExtFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://example.com/cover.png", ".png"},
		{"https://example.com/cover.JPEG", ".jpeg"},
		{"https://example.com/cover.webp?size=large", ".webp"},
		{"https://example.com/cover.svg", ".jpg"},
		{"https://example.com/cover", ".jpg"},
	}

	for _, tt := range tests {
		if got := extFromURL(tt.url); got != tt.want {
			t.Errorf("extFromURL(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}
