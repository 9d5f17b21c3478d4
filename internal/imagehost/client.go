package imagehost

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

const (
	defaultTimeout = 2 * time.Minute
	uploadField    = "smfile"
	userAgent      = "bookpress/1.0 (+https://github.com/bookpress/bookpress)"

	// The host answers this code when it already stores an identical file.
	// The previously hosted URL rides along, so it counts as a success.
	codeImageRepeated = "image_repeated"
)

// Client uploads single files to an SM.MS-compatible image hosting API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewClient creates an upload client. A non-positive timeout falls back to
// the default; uploads of full-size featured images can be slow.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
	}
}

// UploadResult describes a hosted image.
type UploadResult struct {
	URL      string `json:"url"`
	Filename string `json:"filename,omitempty"`
	Size     int64  `json:"size,omitempty"`
	Reused   bool   `json:"reused,omitempty"`
}

// Upload posts one file as multipart form data and returns the hosted URL.
// A duplicate upload is resolved to the URL the host already serves.
func (c *Client) Upload(ctx context.Context, filename string, file io.Reader) (*UploadResult, error) {
	if c.token == "" {
		return nil, ErrMissingToken
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(uploadField, filename)
	if err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", c.token)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrInvalidToken
	}
	if resp.StatusCode >= 500 {
		return nil, &ServerError{StatusCode: resp.StatusCode}
	}
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(raw))
	}

	var uploadResp uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&uploadResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if uploadResp.Success {
		return &UploadResult{
			URL:      uploadResp.Data.URL,
			Filename: uploadResp.Data.Filename,
			Size:     uploadResp.Data.Size,
		}, nil
	}

	if uploadResp.Code == codeImageRepeated && uploadResp.Images != "" {
		return &UploadResult{
			URL:      uploadResp.Images,
			Filename: filename,
			Reused:   true,
		}, nil
	}

	if strings.Contains(strings.ToLower(uploadResp.Code), "unauthorized") {
		return nil, ErrInvalidToken
	}

	return nil, &APIError{Code: uploadResp.Code, Message: uploadResp.Message}
}

// uploadResponse is the host's envelope. On success the payload sits under
// data; on a repeated upload the existing URL is in images.
type uploadResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Images  string `json:"images"`
	Data    struct {
		Filename string `json:"filename"`
		Size     int64  `json:"size"`
		URL      string `json:"url"`
		Hash     string `json:"hash"`
		Delete   string `json:"delete"`
	} `json:"data"`
}
