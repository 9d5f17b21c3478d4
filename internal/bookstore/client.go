package bookstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "bookpress/1.0 (+https://github.com/bookpress/bookpress)"

	// StatusDraft is the only status this tool ever writes. Publishing is a
	// manual editorial step on the target side.
	StatusDraft = "draft"

	// OriginWordPress marks records produced by this migration.
	OriginWordPress = "wordpress"

	authorsLimit = 1000
)

// Client is an append-only client for the target document database's REST
// API (Parse dialect). It can list authors and create book records; nothing
// is ever updated or deleted.
type Client struct {
	httpClient *http.Client
	baseURL    string
	appID      string
	restKey    string
}

// NewClient creates a bookstore client. A non-positive timeout falls back to
// the default.
func NewClient(baseURL, appID, restKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		appID:   appID,
		restKey: restKey,
	}
}

// Author is an author record in the target database.
type Author struct {
	ObjectID string `json:"objectId"`
	Name     string `json:"name"`
}

// Pointer references an object of another class.
type Pointer struct {
	Type      string `json:"__type"`
	ClassName string `json:"className"`
	ObjectID  string `json:"objectId"`
}

// AuthorPointer builds a pointer at an Author record.
func AuthorPointer(objectID string) Pointer {
	return Pointer{Type: "Pointer", ClassName: "Author", ObjectID: objectID}
}

// Chapter is one ordered chapter of a book record.
type Chapter struct {
	Seq          int       `json:"seq"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	SourcePostID int       `json:"sourcePostId"`
	PublishedAt  time.Time `json:"publishedAt"`
}

// Source records where a book came from.
type Source struct {
	Origin  string `json:"origin"`
	SiteURL string `json:"siteUrl,omitempty"`
	PostIDs []int  `json:"postIds"`
}

// Book is the draft record written for each import.
type Book struct {
	Title    string    `json:"title"`
	Intro    string    `json:"intro,omitempty"`
	CoverURL string    `json:"coverUrl,omitempty"`
	Status   string    `json:"status"`
	Author   Pointer   `json:"author"`
	Chapters []Chapter `json:"chapters"`
	Source   Source    `json:"source"`
}

// CreateResult acknowledges a created record.
type CreateResult struct {
	ObjectID  string    `json:"objectId"`
	CreatedAt time.Time `json:"createdAt"`
}

// ListAuthors fetches the author records for the target picker, ordered by
// name.
func (c *Client) ListAuthors(ctx context.Context) ([]Author, error) {
	u := fmt.Sprintf("%s/classes/Author?order=name&limit=%d", c.baseURL, authorsLimit)

	var listResp struct {
		Results []Author `json:"results"`
	}
	if err := c.doJSON(ctx, http.MethodGet, u, nil, &listResp); err != nil {
		return nil, err
	}
	return listResp.Results, nil
}

// CreateBook writes one draft book record and returns its object id.
func (c *Client) CreateBook(ctx context.Context, book *Book) (*CreateResult, error) {
	var result CreateResult
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/classes/Book", book, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) doJSON(ctx context.Context, method, rawURL string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Parse-Application-Id", c.appID)
	req.Header.Set("X-Parse-REST-API-Key", c.restKey)
	req.Header.Set("User-Agent", userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return ErrUnauthorized
	}
	if resp.StatusCode >= 500 {
		return &ServerError{StatusCode: resp.StatusCode}
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		raw, _ := io.ReadAll(resp.Body)
		if apiErr := decodeAPIError(raw); apiErr != nil {
			return apiErr
		}
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(raw))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
