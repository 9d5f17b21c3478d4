package wordpress

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnauthorized indicates the API rejected the request for missing or
// insufficient credentials (401 or 403)
var ErrUnauthorized = errors.New("wordpress API rejected credentials")

// ErrRateLimited indicates the API rate limit was exceeded
var ErrRateLimited = errors.New("wordpress API rate limit exceeded")

// APIError is a decoded WordPress REST error body ({code, message, data.status})
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Status int `json:"status"`
	} `json:"data"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("wordpress API error %s (status %d): %s", e.Code, e.Data.Status, e.Message)
}

// ServerError represents a 5xx error from the WordPress API
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("wordpress server error: HTTP %d", e.StatusCode)
}

// decodeAPIError tries to interpret a response body as a WordPress error
// envelope. Returns nil when the body is not one.
func decodeAPIError(body []byte) *APIError {
	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.Code == "" {
		return nil
	}
	return &apiErr
}
