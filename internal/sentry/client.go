// Package sentry provides a client for the subset of the Sentry web API
// this tool consumes: listing issues, fetching an issue's latest event,
// and posting comments.
package sentry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tildaslashalef/sentryfix/internal/config"
	"github.com/tildaslashalef/sentryfix/internal/loggy"
)

// Client talks to the Sentry web API for a single organization/project
type Client struct {
	authToken    string
	baseURL      string
	organization string
	project      string
	query        string
	maxIssues    int
	httpClient   *http.Client
	logger       *loggy.Logger
}

// NewClient creates a new Sentry client from config
func NewClient(cfg config.SentryConfig, logger *loggy.Logger) *Client {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")

	maxIssues := cfg.MaxIssues
	if maxIssues <= 0 {
		maxIssues = 5
	}

	return &Client{
		authToken:    cfg.AuthToken,
		baseURL:      baseURL,
		organization: cfg.Organization,
		project:      cfg.Project,
		query:        cfg.Query,
		maxIssues:    maxIssues,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		logger:       logger,
	}
}

// ListIssues fetches the current set of candidate issues for the configured
// project, most recent first, capped at the configured per-run limit
func (c *Client) ListIssues(ctx context.Context) ([]Issue, error) {
	path := fmt.Sprintf("/api/0/projects/%s/%s/issues/", c.organization, c.project)

	params := url.Values{}
	if c.query != "" {
		params.Set("query", c.query)
	}
	params.Set("limit", strconv.Itoa(c.maxIssues))

	var issues []Issue
	if err := c.makeRequest(ctx, http.MethodGet, path+"?"+params.Encode(), nil, &issues); err != nil {
		return nil, fmt.Errorf("listing issues: %w", err)
	}

	c.logger.Debug("Fetched issues from Sentry", "count", len(issues), "project", c.project)
	return issues, nil
}

// GetLatestEvent fetches the most recent recorded event for an issue.
// Returns a nil event (and no error) when the issue has no events at all,
// which Sentry signals with a 404 on this endpoint.
func (c *Client) GetLatestEvent(ctx context.Context, issueID string) (*Event, error) {
	path := fmt.Sprintf("/api/0/issues/%s/events/latest/", issueID)

	var event Event
	if err := c.makeRequest(ctx, http.MethodGet, path, nil, &event); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching latest event for issue %s: %w", issueID, err)
	}

	return &event, nil
}

// PostComment posts a note back to a Sentry issue
func (c *Client) PostComment(ctx context.Context, issueID, text string) error {
	path := fmt.Sprintf("/api/0/issues/%s/comments/", issueID)

	var created Comment
	if err := c.makeRequest(ctx, http.MethodPost, path, Comment{Text: text}, &created); err != nil {
		return fmt.Errorf("posting comment on issue %s: %w", issueID, err)
	}

	c.logger.Info("Posted comment to Sentry issue", "issue_id", issueID, "comment_id", created.ID)
	return nil
}

// IsPermissionError reports whether err is a Sentry API error caused by
// missing scopes on the auth token (comment posting needs event:write)
func IsPermissionError(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusForbidden || apiErr.StatusCode == http.StatusUnauthorized
}

// makeRequest is a helper function to make HTTP requests against the API.
// Intentionally single-shot: the run processes issues sequentially and any
// retry policy belongs to the caller's boundary, not this client.
func (c *Client) makeRequest(ctx context.Context, method, path string, body interface{}, response interface{}) error {
	var bodyReader io.Reader

	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.authToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	// The run coordinator attaches a run-scoped logger to the context;
	// outside a run this falls back to the client's own logger
	logger := loggy.FromContext(ctx)
	if logger == nil {
		logger = c.logger
	}
	logger.Debug("Sending Sentry API request", "method", method, "path", path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return c.handleErrorResponse(logger, resp, respBody)
	}

	if response != nil {
		if err := json.Unmarshal(respBody, response); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}

// handleErrorResponse processes error responses from the API
func (c *Client) handleErrorResponse(logger *loggy.Logger, resp *http.Response, body []byte) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Detail == "" {
		// Not all error responses carry a {"detail": ...} payload
		apiErr.Detail = strings.TrimSpace(string(body))
	}

	logger.Error("Sentry API error response",
		"status", resp.Status,
		"detail", apiErr.Detail)

	return apiErr
}
