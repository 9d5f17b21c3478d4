package wordpress

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	apiPrefix = "/wp-json/wp/v2"
	userAgent = "bookpress/1.0 (+https://github.com/bookpress/bookpress)"

	defaultTimeout     = 30 * time.Second
	maxRetries         = 3
	initialRetryDelay  = 1 * time.Second
	maxRetryDelay      = 30 * time.Second
	retryBackoffFactor = 2

	requestInterval = 200 * time.Millisecond

	defaultPerPage = 10
	maxPerPage     = 100
)

// Client interfaces with the WordPress REST API of a single site.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	username    string
	appPassword string
	rateLimiter *rateLimiter
}

type rateLimiter struct {
	mu       sync.Mutex
	lastCall time.Time
	interval time.Duration
}

func newRateLimiter(interval time.Duration) *rateLimiter {
	return &rateLimiter{interval: interval}
}

func (r *rateLimiter) wait() {
	r.mu.Lock()
	defer r.mu.Unlock()

	since := time.Since(r.lastCall)
	if since < r.interval {
		time.Sleep(r.interval - since)
	}
	r.lastCall = time.Now()
}

// NewClient creates a client for the given site. Credentials are a WordPress
// Application Password pair and are optional; without them the client can
// only read public content. A non-positive timeout falls back to the default.
func NewClient(siteURL, username, appPassword string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:     strings.TrimRight(siteURL, "/") + apiPrefix,
		username:    username,
		appPassword: appPassword,
		rateLimiter: newRateLimiter(requestInterval),
	}
}

// Anonymous returns a copy of the client with credentials stripped. The HTTP
// client and rate limiter are shared, so both copies respect the same
// politeness budget against the site.
func (c *Client) Anonymous() *Client {
	return &Client{
		httpClient:  c.httpClient,
		baseURL:     c.baseURL,
		rateLimiter: c.rateLimiter,
	}
}

// Authenticated reports whether the client carries credentials.
func (c *Client) Authenticated() bool {
	return c.username != "" && c.appPassword != ""
}

// ListPosts fetches one page of posts matching the query, always with the
// author and featured-media blocks embedded. An empty page is not an error.
func (c *Client) ListPosts(ctx context.Context, query PostQuery) ([]Post, *PageInfo, error) {
	page := query.Page
	if page < 1 {
		page = 1
	}
	perPage := clampPerPage(query.PerPage)

	u, err := url.Parse(c.baseURL + "/posts")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	q := u.Query()
	q.Set("_embed", "1")
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	if query.Search != "" {
		q.Set("search", query.Search)
	}
	if query.After != nil {
		q.Set("after", query.After.Format(time.RFC3339))
	}
	if query.Before != nil {
		q.Set("before", query.Before.Format(time.RFC3339))
	}
	if query.Author != 0 {
		q.Set("author", strconv.Itoa(query.Author))
	}
	u.RawQuery = q.Encode()

	var posts []Post
	header, err := c.getJSON(ctx, u.String(), &posts)
	if err != nil {
		return nil, nil, err
	}
	return posts, parsePageInfo(header, page, perPage), nil
}

// ListAllPosts follows pagination until the listing is exhausted or maxPages
// pages have been fetched. maxPages <= 0 means no cap.
func (c *Client) ListAllPosts(ctx context.Context, query PostQuery, maxPages int) ([]Post, error) {
	page := query.Page
	if page < 1 {
		page = 1
	}

	var allPosts []Post
	fetched := 0
	for {
		pageQuery := query
		pageQuery.Page = page

		posts, info, err := c.ListPosts(ctx, pageQuery)
		if err != nil {
			return nil, err
		}
		allPosts = append(allPosts, posts...)
		fetched++

		if len(posts) == 0 {
			break
		}
		if info.TotalPages > 0 && page >= info.TotalPages {
			break
		}
		if maxPages > 0 && fetched >= maxPages {
			break
		}
		page++
	}

	return allPosts, nil
}

// GetPost fetches a single post with embedded author and featured media.
func (c *Client) GetPost(ctx context.Context, id int) (*Post, error) {
	u := fmt.Sprintf("%s/posts/%d?_embed=1", c.baseURL, id)

	var post Post
	if _, err := c.getJSON(ctx, u, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// ListUsers fetches one page of site users. Most sites reject this for
// unauthenticated or low-privilege credentials, so callers should be prepared
// for ErrUnauthorized.
func (c *Client) ListUsers(ctx context.Context, page, perPage int) ([]User, *PageInfo, error) {
	if page < 1 {
		page = 1
	}
	perPage = clampPerPage(perPage)

	u := fmt.Sprintf("%s/users?page=%d&per_page=%d", c.baseURL, page, perPage)

	var users []User
	header, err := c.getJSON(ctx, u, &users)
	if err != nil {
		return nil, nil, err
	}
	return users, parsePageInfo(header, page, perPage), nil
}

// DownloadMedia streams a media file (a featured image, typically) and
// returns the body along with its content type. The caller owns the body.
func (c *Client) DownloadMedia(ctx context.Context, mediaURL string) (io.ReadCloser, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	// Only attach credentials when the file is served from the API host;
	// media may live on a CDN that must not see them.
	if c.Authenticated() && sameHost(c.baseURL, mediaURL) {
		req.SetBasicAuth(c.username, c.appPassword)
	}

	c.rateLimiter.wait()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download media: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, "", fmt.Errorf("unexpected status %d downloading %s: %s", resp.StatusCode, mediaURL, string(body))
	}

	return resp.Body, resp.Header.Get("Content-Type"), nil
}

// getJSON executes an authenticated GET with retries on rate limits and
// server errors, decoding the body into out. The returned headers are from
// the successful response.
func (c *Client) getJSON(ctx context.Context, rawURL string, out any) (http.Header, error) {
	var header http.Header
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			delay := calculateRetryDelay(attempt)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		header, lastErr = c.doGetRequest(ctx, rawURL, out)
		if lastErr == nil {
			return header, nil
		}

		// Only retry on rate limits or server errors
		if !isRetryableError(lastErr) {
			return nil, lastErr
		}
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *Client) doGetRequest(ctx context.Context, rawURL string, out any) (http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if c.Authenticated() {
		req.SetBasicAuth(c.username, c.appPassword)
	}

	c.rateLimiter.wait()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}
	if resp.StatusCode >= 500 {
		return nil, &ServerError{StatusCode: resp.StatusCode}
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		if apiErr := decodeAPIError(body); apiErr != nil {
			return nil, apiErr
		}
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return resp.Header, nil
}

func parsePageInfo(header http.Header, page, perPage int) *PageInfo {
	info := &PageInfo{Page: page, PerPage: perPage}
	if total, err := strconv.Atoi(header.Get("X-WP-Total")); err == nil {
		info.TotalPosts = total
	}
	if pages, err := strconv.Atoi(header.Get("X-WP-TotalPages")); err == nil {
		info.TotalPages = pages
	}
	return info
}

func clampPerPage(perPage int) int {
	if perPage <= 0 {
		return defaultPerPage
	}
	if perPage > maxPerPage {
		return maxPerPage
	}
	return perPage
}

func sameHost(baseURL, rawURL string) bool {
	base, err := url.Parse(baseURL)
	if err != nil {
		return false
	}
	target, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return base.Host == target.Host
}

func calculateRetryDelay(attempt int) time.Duration {
	delay := initialRetryDelay
	for i := 0; i < attempt; i++ {
		delay *= time.Duration(retryBackoffFactor)
	}
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}
	return delay
}

func isRetryableError(err error) bool {
	if err == ErrRateLimited {
		return true
	}
	if _, ok := err.(*ServerError); ok {
		return true
	}
	return false
}
