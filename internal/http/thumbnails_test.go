package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookpress/bookpress/internal/covers"
	"github.com/bookpress/bookpress/internal/wordpress"
	"github.com/bookpress/bookpress/internal/workspace"
)

type fakeMediaFetcher struct {
	mu    sync.Mutex
	data  []byte
	err   error
	calls int
}

func (f *fakeMediaFetcher) DownloadMedia(ctx context.Context, mediaURL string) (io.ReadCloser, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, "", f.err
	}
	return io.NopCloser(bytes.NewReader(f.data)), "image/jpeg", nil
}

func postWithImage(id int, sourceURL string) wordpress.Post {
	post := newTestPost(id, "Illustrated", time.Date(2021, 3, 1, 12, 0, 0, 0, time.UTC))
	post.Embedded = &wordpress.Embedded{
		FeaturedMedia: []wordpress.Media{{ID: 100 + id, SourceURL: sourceURL}},
	}
	return post
}

func setupThumbnailsRouter(t *testing.T, ws *workspace.Workspace, fetcher covers.MediaFetcher) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cache, err := covers.NewCache(t.TempDir(), fetcher)
	require.NoError(t, err)

	controller := NewThumbnailsController(cache, ws)
	router := gin.New()
	router.GET("/api/posts/:id/thumbnail", controller.GetThumbnail)
	return router
}

func TestThumbnailsController_GetThumbnail(t *testing.T) {
	t.Run("serves the staged image", func(t *testing.T) {
		fetcher := &fakeMediaFetcher{data: []byte("jpeg-bytes")}
		ws := seedWorkspace(postWithImage(1, "https://blog.example.com/cover.jpg"))
		router := setupThumbnailsRouter(t, ws, fetcher)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/posts/1/thumbnail", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "jpeg-bytes", w.Body.String())
	})

	t.Run("serves repeat requests from the cache", func(t *testing.T) {
		fetcher := &fakeMediaFetcher{data: []byte("jpeg-bytes")}
		ws := seedWorkspace(postWithImage(1, "https://blog.example.com/cover.jpg"))
		router := setupThumbnailsRouter(t, ws, fetcher)

		for i := 0; i < 2; i++ {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest("GET", "/api/posts/1/thumbnail", nil)
			router.ServeHTTP(w, req)
			assert.Equal(t, http.StatusOK, w.Code)
		}

		assert.Equal(t, 1, fetcher.calls, "second request should not refetch")
	})

	t.Run("returns 404 for an unloaded post", func(t *testing.T) {
		router := setupThumbnailsRouter(t, seedWorkspace(), &fakeMediaFetcher{})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/posts/9/thumbnail", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("returns 404 when the post has no featured image", func(t *testing.T) {
		base := time.Date(2021, 3, 1, 12, 0, 0, 0, time.UTC)
		ws := seedWorkspace(newTestPost(1, "Plain", base))
		router := setupThumbnailsRouter(t, ws, &fakeMediaFetcher{})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/posts/1/thumbnail", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "featured image")
	})

	t.Run("redirects to the source when staging fails", func(t *testing.T) {
		fetcher := &fakeMediaFetcher{err: errors.New("host unreachable")}
		sourceURL := "https://blog.example.com/cover.jpg"
		ws := seedWorkspace(postWithImage(1, sourceURL))
		router := setupThumbnailsRouter(t, ws, fetcher)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/posts/1/thumbnail", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
		assert.Equal(t, sourceURL, w.Header().Get("Location"))
	})
}
