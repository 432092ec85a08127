package claude

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tildaslashalef/sentryfix/internal/config"
)

// errorTransport is an http.RoundTripper that returns an error
type errorTransport struct {
	err error
}

func (t *errorTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, t.err
}

func setupTestServer(_ *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	server := httptest.NewServer(handler)

	cfg := config.ClaudeConfig{
		APIKey:  "test-api-key",
		BaseURL: server.URL,
		Timeout: 5 * time.Second,
	}

	client := NewClient(cfg)
	return server, client
}

func TestNewClient(t *testing.T) {
	cases := []struct {
		name            string
		baseURL         string
		expectedBaseURL string
	}{
		{
			name:            "normal URL",
			baseURL:         "https://api.anthropic.com",
			expectedBaseURL: "https://api.anthropic.com",
		},
		{
			name:            "URL with trailing slash",
			baseURL:         "https://api.anthropic.com/",
			expectedBaseURL: "https://api.anthropic.com",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.ClaudeConfig{
				APIKey:  "test-key",
				BaseURL: tc.baseURL,
				Timeout: 10 * time.Second,
			}

			client := NewClient(cfg)
			assert.Equal(t, tc.expectedBaseURL, client.baseURL)
			assert.Equal(t, "test-key", client.apiKey)
			assert.Equal(t, "2023-06-01", client.apiVersion)
			assert.NotNil(t, client.httpClient)
		})
	}
}

func TestGenerateChat(t *testing.T) {
	cases := []struct {
		name             string
		request          ChatRequest
		serverResponse   interface{}
		serverStatus     int
		expectError      bool
		expectedError    string
		validateResponse func(t *testing.T, resp *ChatResponse)
	}{
		{
			name: "successful request",
			request: ChatRequest{
				Model: "claude-3-opus-20240229",
				Messages: []Message{
					{Role: "user", Content: "Hello"},
				},
			},
			serverResponse: ChatResponse{
				ID:      "msg_123",
				Role:    "assistant",
				Content: []ContentBlock{{Type: "text", Text: "Hello! How can I help you today?"}},
				Model:   "claude-3-opus-20240229",
			},
			serverStatus: http.StatusOK,
			expectError:  false,
			validateResponse: func(t *testing.T, resp *ChatResponse) {
				assert.Equal(t, "msg_123", resp.ID)
				assert.Equal(t, "Hello! How can I help you today?", resp.Text())
			},
		},
		{
			name: "default model used when not specified",
			request: ChatRequest{
				Messages: []Message{
					{Role: "user", Content: "Hello"},
				},
			},
			serverResponse: ChatResponse{
				ID:      "msg_456",
				Role:    "assistant",
				Content: []ContentBlock{{Type: "text", Text: "Hello! I'm Claude."}},
				Model:   "claude-3-7-sonnet-20250219",
			},
			serverStatus: http.StatusOK,
			expectError:  false,
			validateResponse: func(t *testing.T, resp *ChatResponse) {
				assert.NotEmpty(t, resp.Model)
			},
		},
		{
			name: "API error",
			request: ChatRequest{
				Model: "claude-3-opus-20240229",
				Messages: []Message{
					{Role: "user", Content: "Hello"},
				},
			},
			serverStatus: http.StatusBadRequest,
			serverResponse: map[string]interface{}{
				"error": map[string]interface{}{
					"type":    "invalid_request_error",
					"message": "The model parameter is required",
				},
			},
			expectError:   true,
			expectedError: "invalid_request_error",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server, client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				// Validate request
				assert.Equal(t, "/v1/messages", r.URL.Path)
				assert.Equal(t, "POST", r.Method)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
				assert.Equal(t, "test-api-key", r.Header.Get("x-api-key"))
				assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

				// Validate request body
				body, err := io.ReadAll(r.Body)
				require.NoError(t, err)

				var reqBody ChatRequest
				err = json.Unmarshal(body, &reqBody)
				require.NoError(t, err)

				if tc.name == "default model used when not specified" {
					assert.Equal(t, "claude-3-7-sonnet-20250219", reqBody.Model, "Default model should be set")
				} else {
					assert.Equal(t, tc.request.Model, reqBody.Model)
				}

				assert.Equal(t, tc.request.Messages[0].Content, reqBody.Messages[0].Content)

				w.WriteHeader(tc.serverStatus)
				err = json.NewEncoder(w).Encode(tc.serverResponse)
				require.NoError(t, err)
			})
			defer server.Close()

			resp, err := client.GenerateChat(context.Background(), tc.request)

			if tc.expectError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tc.expectedError)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, resp)
				if tc.validateResponse != nil {
					tc.validateResponse(t, resp)
				}
			}
		})
	}
}

func TestHandleErrorResponse(t *testing.T) {
	client := NewClient(config.ClaudeConfig{APIKey: "test-key", BaseURL: "https://api.example.com"})

	errorJSON := `{"type":"error","error":{"type":"authentication_error","message":"Invalid API key"}}`
	errorJSONBytes := []byte(errorJSON)

	resp := &http.Response{
		StatusCode: http.StatusUnauthorized,
		Body:       io.NopCloser(strings.NewReader(errorJSON)),
	}

	err := client.handleErrorResponse(resp, errorJSONBytes)
	assert.Error(t, err)

	apiErr, ok := err.(*APIError)
	assert.True(t, ok, "Error should be an APIError")
	assert.Equal(t, "authentication_error", apiErr.ErrorDetails.Type)
	assert.Equal(t, "Invalid API key", apiErr.ErrorDetails.Message)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)

	// Malformed JSON falls back to a generic error with the raw body
	badJSON := `{"bad json`
	resp = &http.Response{
		StatusCode: http.StatusBadRequest,
		Body:       io.NopCloser(strings.NewReader(badJSON)),
	}

	err = client.handleErrorResponse(resp, []byte(badJSON))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "API error (status 400)")
}

func TestResponseText(t *testing.T) {
	resp := &ChatResponse{
		Content: []ContentBlock{
			{Type: "thinking", Text: "internal reasoning"},
			{Type: "text", Text: "Hello "},
			{Type: "text", Text: "world"},
		},
	}

	assert.Equal(t, "Hello world", resp.Text())
}

func TestNetworkError(t *testing.T) {
	client := NewClient(config.ClaudeConfig{
		APIKey:  "test-key",
		BaseURL: "https://api.example.com",
		Timeout: 5 * time.Second,
	})

	client.httpClient.Transport = &errorTransport{
		err: errors.New("network error"),
	}

	req := ChatRequest{
		Model: "claude-3-opus-20240229",
		Messages: []Message{
			{Role: "user", Content: "Hello"},
		},
	}

	resp, err := client.GenerateChat(context.Background(), req)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "network error")
	assert.Nil(t, resp)
}
