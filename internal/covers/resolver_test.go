package covers

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/bookpress/bookpress/internal/imagehost"
)

type fakeUploader struct {
	result *imagehost.UploadResult
	err    error
	calls  int
}

func (f *fakeUploader) Upload(ctx context.Context, filename string, file io.Reader) (*imagehost.UploadResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func TestResolve(t *testing.T) {
	cache, err := NewCache(t.TempDir(), &fakeFetcher{payload: "img"})
	if err != nil {
		t.Fatalf("NewCache failed: %v", err)
	}
	uploader := &fakeUploader{result: &imagehost.UploadResult{URL: "https://img.example.com/abc.jpg"}}
	resolver := NewResolver(cache, uploader)

	res := resolver.Resolve(context.Background(), 5, "https://blog.example.com/cover.jpg")
	if res.URL != "https://img.example.com/abc.jpg" {
		t.Errorf("URL = %q, want hosted URL", res.URL)
	}
	if !res.Uploaded {
		t.Error("expected Uploaded to be true")
	}
	if uploader.calls != 1 {
		t.Errorf("expected 1 upload, got %d", uploader.calls)
	}
}

func TestResolve_NoUploader(t *testing.T) {
	cache, _ := NewCache(t.TempDir(), &fakeFetcher{payload: "img"})
	resolver := NewResolver(cache, nil)

	res := resolver.Resolve(context.Background(), 5, "https://blog.example.com/cover.jpg")
	if res.URL != "https://blog.example.com/cover.jpg" {
		t.Errorf("URL = %q, want source URL passthrough", res.URL)
	}
	if res.Uploaded {
		t.Error("expected Uploaded to be false without an uploader")
	}
}

func TestResolve_UploadFailureFallsBackToSource(t *testing.T) {
	cache, _ := NewCache(t.TempDir(), &fakeFetcher{payload: "img"})
	uploader := &fakeUploader{err: errors.New("host down")}
	resolver := NewResolver(cache, uploader)

	res := resolver.Resolve(context.Background(), 5, "https://blog.example.com/cover.jpg")
	if res.URL != "https://blog.example.com/cover.jpg" {
		t.Errorf("URL = %q, want source URL fallback", res.URL)
	}
	if res.Uploaded {
		t.Error("expected Uploaded to be false after failed upload")
	}
}

func TestResolve_StageFailureFallsBackToSource(t *testing.T) {
	cache, _ := NewCache(t.TempDir(), &fakeFetcher{err: errors.New("media gone")})
	uploader := &fakeUploader{result: &imagehost.UploadResult{URL: "https://img.example.com/abc.jpg"}}
	resolver := NewResolver(cache, uploader)

	res := resolver.Resolve(context.Background(), 5, "https://blog.example.com/cover.jpg")
	if res.URL != "https://blog.example.com/cover.jpg" {
		t.Errorf("URL = %q, want source URL fallback", res.URL)
	}
	if res.Uploaded {
		t.Error("expected Uploaded to be false when staging fails")
	}
	if uploader.calls != 0 {
		t.Errorf("expected no upload attempts, got %d", uploader.calls)
	}
}

func TestResolve_NoSourceURL(t *testing.T) {
	cache, _ := NewCache(t.TempDir(), &fakeFetcher{payload: "img"})
	resolver := NewResolver(cache, &fakeUploader{})

	res := resolver.Resolve(context.Background(), 5, "")
	if res.URL != "" || res.Uploaded {
		t.Errorf("expected empty resolution, got %+v", res)
	}
}
