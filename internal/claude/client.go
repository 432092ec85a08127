package claude

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tildaslashalef/sentryfix/internal/config"
	"github.com/tildaslashalef/sentryfix/internal/loggy"
)

// Client represents an Anthropic Claude API client
// It handles all communication with the Claude API
type Client struct {
	apiKey           string
	baseURL          string
	defaultModel     string
	httpClient       *http.Client
	defaultMaxTokens int
	apiVersion       string
	topP             *float64
	topK             *int
	temperature      *float64
}

// NewClient creates a new Claude client from config
func NewClient(cfg config.ClaudeConfig) *Client {
	// Ensure baseURL doesn't end with a slash
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")

	// Set default API version if not provided
	apiVersion := cfg.APIVersion
	if apiVersion == "" {
		apiVersion = "2023-06-01"
	}

	// Set default model if not provided
	defaultModel := cfg.Model
	if defaultModel == "" {
		defaultModel = "claude-3-7-sonnet-20250219"
	}

	// Set default max tokens if not provided
	defaultMaxTokens := cfg.MaxTokens
	if defaultMaxTokens <= 0 {
		defaultMaxTokens = 4096
	}

	// Create pointers for optional parameters only if they have valid values
	var tempPtr, topPPtr *float64
	var topKPtr *int

	if cfg.Temperature > 0 {
		tempPtr = Float64Ptr(cfg.Temperature)
	}
	if cfg.TopP > 0 {
		topPPtr = Float64Ptr(cfg.TopP)
	}
	if cfg.TopK > 0 {
		topKPtr = IntPtr(cfg.TopK)
	}

	return &Client{
		apiKey:           cfg.APIKey,
		baseURL:          baseURL,
		defaultModel:     defaultModel,
		httpClient:       &http.Client{Timeout: cfg.Timeout},
		defaultMaxTokens: defaultMaxTokens,
		apiVersion:       apiVersion,
		topP:             topPPtr,
		topK:             topKPtr,
		temperature:      tempPtr,
	}
}

// GenerateChat sends a chat completion request to Claude
func (c *Client) GenerateChat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	// Set default model if none specified
	if req.Model == "" {
		req.Model = c.defaultModel
	}

	// Set default max tokens if none specified
	if req.MaxTokens <= 0 {
		req.MaxTokens = c.defaultMaxTokens
	}

	// Set default temperature if none specified and client has a default
	if req.Temperature == nil && c.temperature != nil {
		req.Temperature = c.temperature
	}

	// Set default top_p if none specified and client has a default
	if req.TopP == nil && c.topP != nil {
		req.TopP = c.topP
	}

	// Set default top_k if none specified and client has a default
	if req.TopK == nil && c.topK != nil {
		req.TopK = c.topK
	}

	var resp ChatResponse
	if err := c.makeRequest(ctx, "POST", "/v1/messages", req, &resp); err != nil {
		return nil, fmt.Errorf("generating chat completion: %w", err)
	}

	return &resp, nil
}

// makeRequest is a helper function to make HTTP requests against the API.
// Each request is attempted exactly once; failures surface to the caller,
// which decides whether to move on to the next issue.
func (c *Client) makeRequest(ctx context.Context, method, path string, body interface{}, response interface{}) error {
	var bodyReader io.Reader

	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = strings.NewReader(string(bodyBytes))
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", c.apiVersion)

	loggy.Debug("Sending Claude API request", "method", method, "url", c.baseURL+path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	loggy.Debug("Claude API response",
		"status", resp.Status,
		"content_length", len(respBody))

	if resp.StatusCode != http.StatusOK {
		loggy.Error("Claude API error response",
			"status", resp.Status,
			"body", string(respBody))

		return c.handleErrorResponse(resp, respBody)
	}

	if err := json.Unmarshal(respBody, response); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}

// handleErrorResponse processes error responses from the API
// It attempts to parse the error JSON and return a structured error
func (c *Client) handleErrorResponse(resp *http.Response, body []byte) error {
	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.ErrorDetails.Message == "" {
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	apiErr.StatusCode = resp.StatusCode
	return &apiErr
}
