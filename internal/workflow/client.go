package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxErrorBody bounds how much of a failed response is kept in APIError.
const maxErrorBody = 4 << 10

// Fetcher retrieves a workflow by name.
type Fetcher interface {
	Get(ctx context.Context, name string) (*Workflow, error)
}

// Client talks to the workflow-query API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient returns a client for the API rooted at baseURL. An empty token
// sends no Authorization header. timeout bounds each request.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

// Get fetches the named workflow with its groups and tasks. A 404 yields an
// *APIError that unwraps to ErrNotFound.
func (c *Client) Get(ctx context.Context, name string) (*Workflow, error) {
	endpoint := c.baseURL + "/api/workflow/" + url.PathEscape(name) + "?verbose=true"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("workflow api: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("workflow api: get %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var w Workflow
	if err := json.NewDecoder(resp.Body).Decode(&w); err != nil {
		return nil, fmt.Errorf("workflow api: decode %s: %w", name, err)
	}
	if err := Validate(&w); err != nil {
		return nil, fmt.Errorf("workflow api: %w", err)
	}
	return &w, nil
}
