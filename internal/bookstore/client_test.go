package bookstore

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestListAuthors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/classes/Author" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Header.Get("X-Parse-Application-Id") != "app-1" {
			t.Errorf("missing application id header, got %q", r.Header.Get("X-Parse-Application-Id"))
		}
		if r.Header.Get("X-Parse-REST-API-Key") != "key-1" {
			t.Errorf("missing REST key header, got %q", r.Header.Get("X-Parse-REST-API-Key"))
		}
		if r.URL.Query().Get("order") != "name" {
			t.Errorf("expected order=name, got %q", r.URL.Query().Get("order"))
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[
			{"objectId":"a1","name":"Ann Writer"},
			{"objectId":"b2","name":"Bob Blogger"}
		]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "app-1", "key-1", 5*time.Second)

	authors, err := client.ListAuthors(context.Background())
	if err != nil {
		t.Fatalf("ListAuthors failed: %v", err)
	}
	if len(authors) != 2 {
		t.Fatalf("expected 2 authors, got %d", len(authors))
	}
	if authors[0].ObjectID != "a1" || authors[0].Name != "Ann Writer" {
		t.Errorf("unexpected author: %+v", authors[0])
	}
}

func TestCreateBook(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/classes/Book" || r.Method != http.MethodPost {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("expected JSON content type, got %q", r.Header.Get("Content-Type"))
		}

		var book Book
		if err := json.NewDecoder(r.Body).Decode(&book); err != nil {
			t.Fatalf("decoding book: %v", err)
		}
		if book.Status != StatusDraft {
			t.Errorf("expected draft status, got %q", book.Status)
		}
		if book.Author.Type != "Pointer" || book.Author.ClassName != "Author" || book.Author.ObjectID != "a1" {
			t.Errorf("unexpected author pointer: %+v", book.Author)
		}
		if len(book.Chapters) != 2 || book.Chapters[0].Seq != 1 || book.Chapters[1].Seq != 2 {
			t.Errorf("unexpected chapters: %+v", book.Chapters)
		}
		if book.Source.Origin != OriginWordPress || len(book.Source.PostIDs) != 2 {
			t.Errorf("unexpected source: %+v", book.Source)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"objectId":"bk42","createdAt":"2024-05-01T10:00:00.000Z"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "app-1", "key-1", 5*time.Second)

	book := &Book{
		Title:  "Collected Posts",
		Status: StatusDraft,
		Author: AuthorPointer("a1"),
		Chapters: []Chapter{
			{Seq: 1, Title: "One", Content: "<p>one</p>", SourcePostID: 10},
			{Seq: 2, Title: "Two", Content: "<p>two</p>", SourcePostID: 11},
		},
		Source: Source{Origin: OriginWordPress, PostIDs: []int{10, 11}},
	}

	result, err := client.CreateBook(context.Background(), book)
	if err != nil {
		t.Fatalf("CreateBook failed: %v", err)
	}
	if result.ObjectID != "bk42" {
		t.Errorf("unexpected object id %q", result.ObjectID)
	}
	if result.CreatedAt.IsZero() {
		t.Error("expected createdAt to be parsed")
	}
}

func TestCreateBook_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":142,"error":"title is required"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "app-1", "key-1", 5*time.Second)

	_, err := client.CreateBook(context.Background(), &Book{})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Code != 142 || apiErr.Message != "title is required" {
		t.Errorf("unexpected API error: %+v", apiErr)
	}
}

func TestCreateBook_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient(server.URL, "app-1", "bad-key", 5*time.Second)

	_, err := client.CreateBook(context.Background(), &Book{Title: "X"})
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}
