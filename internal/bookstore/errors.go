package bookstore

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnauthorized indicates the database rejected the application id or REST key
var ErrUnauthorized = errors.New("bookstore rejected credentials")

// APIError is a decoded error body from the database ({code, error})
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"error"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bookstore error %d: %s", e.Code, e.Message)
}

// ServerError represents a 5xx error from the database
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("bookstore server error: HTTP %d", e.StatusCode)
}

func decodeAPIError(body []byte) *APIError {
	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.Message == "" {
		return nil
	}
	return &apiErr
}
