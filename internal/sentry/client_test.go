package sentry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tildaslashalef/sentryfix/internal/config"
	"github.com/tildaslashalef/sentryfix/internal/loggy"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.SentryConfig{
		AuthToken:    "test-token",
		Organization: "acme",
		Project:      "storefront",
		BaseURL:      server.URL,
		Timeout:      5 * time.Second,
		MaxIssues:    5,
		Query:        "is:unresolved",
	}

	return NewClient(cfg, loggy.NewNoopLogger()), server
}

func TestListIssues(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/0/projects/acme/storefront/issues/", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "is:unresolved", r.URL.Query().Get("query"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))

		issues := []Issue{
			{
				ID:      "12345",
				ShortID: "STOREFRONT-1A",
				Title:   "TypeError: Cannot read properties of undefined",
				Count:   "42",
			},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(issues))
	})

	issues, err := client.ListIssues(context.Background())
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "12345", issues[0].ID)
	assert.Equal(t, "STOREFRONT-1A", issues[0].ShortID)
	assert.Equal(t, "42", issues[0].Count)
}

func TestListIssuesAPIError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail": "Invalid token"}`))
	})

	_, err := client.ListIssues(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid token")
	assert.True(t, IsPermissionError(err))
}

func TestGetLatestEvent(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/0/issues/12345/events/latest/", r.URL.Path)

		event := Event{
			EventID:  "abcdef0123456789",
			Platform: "javascript",
			Entries: []Entry{
				{
					Type: "exception",
					Data: EntryData{
						Values: []ExceptionValue{
							{Type: "TypeError", Value: "boom"},
						},
					},
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(event))
	})

	event, err := client.GetLatestEvent(context.Background(), "12345")
	require.NoError(t, err)
	require.NotNil(t, event)
	assert.Equal(t, "abcdef0123456789", event.EventID)
	require.Len(t, event.Entries, 1)
	assert.Equal(t, "exception", event.Entries[0].Type)
}

func TestGetLatestEventNotFound(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail": "Event not found"}`))
	})

	event, err := client.GetLatestEvent(context.Background(), "12345")
	require.NoError(t, err)
	assert.Nil(t, event)
}

func TestPostComment(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/0/issues/12345/comments/", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var comment Comment
		require.NoError(t, json.NewDecoder(r.Body).Decode(&comment))
		assert.Equal(t, "proposed fix attached", comment.Text)

		comment.ID = "987"
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(comment))
	})

	err := client.PostComment(context.Background(), "12345", "proposed fix attached")
	require.NoError(t, err)
}

func TestPostCommentForbidden(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"detail": "You do not have permission to perform this action."}`))
	})

	err := client.PostComment(context.Background(), "12345", "hello")
	require.Error(t, err)
	assert.True(t, IsPermissionError(err))
}

func TestIsPermissionError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"forbidden", &APIError{StatusCode: http.StatusForbidden}, true},
		{"unauthorized", &APIError{StatusCode: http.StatusUnauthorized}, true},
		{"not found", &APIError{StatusCode: http.StatusNotFound}, false},
		{"plain error", assert.AnError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPermissionError(tt.err))
		})
	}
}

func TestContextLineJSON(t *testing.T) {
	raw := `[[10, "const user = session.user;"], [11, "return user.name;"]]`

	var lines []ContextLine
	require.NoError(t, json.Unmarshal([]byte(raw), &lines))
	require.Len(t, lines, 2)
	assert.Equal(t, 10, lines[0].LineNo)
	assert.Equal(t, "const user = session.user;", lines[0].Source)

	out, err := json.Marshal(lines)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))
}
