// Package github creates pull requests for proposed fixes via the GitHub
// API.
package github

import (
	"context"
	"time"

	"github.com/google/go-github/v59/github"
	"golang.org/x/oauth2"

	"github.com/tildaslashalef/sentryfix/internal/config"
)

// Client represents a GitHub API client
type Client struct {
	client *github.Client
	config *config.GitHubConfig
}

// NewClient creates a new GitHub API client from config
func NewClient(cfg config.GitHubConfig) *Client {
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: cfg.Token},
	)

	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	tc := oauth2.NewClient(context.Background(), ts)
	tc.Timeout = timeout

	// Create GitHub client with custom base URL if specified
	var client *github.Client
	if cfg.APIURL != "" && cfg.APIURL != "https://api.github.com" {
		var err error
		client, err = github.NewEnterpriseClient(cfg.APIURL, cfg.APIURL, tc)
		if err != nil {
			// Fall back to default client if enterprise client creation fails
			client = github.NewClient(tc)
		}
	} else {
		client = github.NewClient(tc)
	}

	return &Client{
		client: client,
		config: &cfg,
	}
}
