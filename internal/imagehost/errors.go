package imagehost

import (
	"errors"
	"fmt"
)

// ErrMissingToken indicates no API token is configured
var ErrMissingToken = errors.New("image host token is not configured")

// ErrInvalidToken indicates the host rejected the configured token
var ErrInvalidToken = errors.New("image host rejected the token")

// APIError is a structured failure reported by the hosting API
type APIError struct {
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("image host error %s: %s", e.Code, e.Message)
}

// ServerError represents a 5xx error from the hosting API
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("image host server error: HTTP %d", e.StatusCode)
}
