package workflow

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for decoding, validation and API access.
var (
	// ErrUnsupportedFormat indicates a file extension or format name with no decoder.
	ErrUnsupportedFormat = errors.New("unsupported workflow format")
	// ErrMissingName indicates a workflow or group without a name.
	ErrMissingName = errors.New("name is required")
	// ErrDuplicateGroup indicates two groups in one workflow share a name.
	ErrDuplicateGroup = errors.New("duplicate group name")
	// ErrNotFound indicates the API has no workflow with the requested name.
	ErrNotFound = errors.New("workflow not found")
	// ErrEmptyResponse indicates a fetcher returned neither a workflow nor
	// an error.
	ErrEmptyResponse = errors.New("empty workflow response")
)

// maxErrorExcerpt bounds, in runes, the response excerpt in APIError messages.
const maxErrorExcerpt = 200

// APIError is returned for any non-2xx response from the workflow-query API.
type APIError struct {
	StatusCode int
	Body       string
}

// Error returns the status and a bounded excerpt of the response body.
func (e *APIError) Error() string {
	body := e.Body
	if runes := []rune(body); len(runes) > maxErrorExcerpt {
		body = string(runes[:maxErrorExcerpt]) + "…"
	}
	if body == "" {
		return fmt.Sprintf("workflow api: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("workflow api: %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), body)
}

// Unwrap maps 404 responses onto ErrNotFound.
func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	return nil
}
