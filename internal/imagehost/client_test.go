package imagehost

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestUpload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/upload" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Header.Get("Authorization") != "secret-token" {
			t.Errorf("expected token header, got %q", r.Header.Get("Authorization"))
		}

		file, header, err := r.FormFile(uploadField)
		if err != nil {
			t.Fatalf("expected %s form file: %v", uploadField, err)
		}
		defer file.Close()

		if header.Filename != "cover.jpg" {
			t.Errorf("expected filename cover.jpg, got %q", header.Filename)
		}
		data, _ := io.ReadAll(file)
		if string(data) != "jpeg bytes" {
			t.Errorf("unexpected file contents %q", data)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"success": true,
			"code": "success",
			"message": "Upload success.",
			"data": {"filename": "cover.jpg", "size": 10, "url": "https://img.example.com/abc.jpg"}
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret-token", 5*time.Second)

	result, err := client.Upload(context.Background(), "cover.jpg", strings.NewReader("jpeg bytes"))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if result.URL != "https://img.example.com/abc.jpg" {
		t.Errorf("unexpected URL %q", result.URL)
	}
	if result.Reused {
		t.Error("fresh upload should not be marked reused")
	}
}

func TestUpload_RepeatedImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"success": false,
			"code": "image_repeated",
			"message": "Image upload repeated limit, this image exists",
			"images": "https://img.example.com/existing.jpg"
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret-token", 5*time.Second)

	result, err := client.Upload(context.Background(), "cover.jpg", strings.NewReader("jpeg bytes"))
	if err != nil {
		t.Fatalf("expected repeated upload to succeed, got %v", err)
	}
	if !result.Reused {
		t.Error("expected result to be marked reused")
	}
	if result.URL != "https://img.example.com/existing.jpg" {
		t.Errorf("unexpected URL %q", result.URL)
	}
}

func TestUpload_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success": false, "code": "flood", "message": "Too fast"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret-token", 5*time.Second)

	_, err := client.Upload(context.Background(), "cover.jpg", strings.NewReader("x"))
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Code != "flood" || apiErr.Message != "Too fast" {
		t.Errorf("unexpected API error: %+v", apiErr)
	}
}

func TestUpload_InvalidToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(server.URL, "bad-token", 5*time.Second)

	_, err := client.Upload(context.Background(), "cover.jpg", strings.NewReader("x"))
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestUpload_MissingToken(t *testing.T) {
	client := NewClient("https://img.example.com", "", 5*time.Second)

	_, err := client.Upload(context.Background(), "cover.jpg", strings.NewReader("x"))
	if !errors.Is(err, ErrMissingToken) {
		t.Errorf("expected ErrMissingToken, got %v", err)
	}
}
