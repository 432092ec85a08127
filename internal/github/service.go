package github

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/go-github/v59/github"

	"github.com/tildaslashalef/sentryfix/internal/config"
	"github.com/tildaslashalef/sentryfix/internal/loggy"
)

// PullRequestSpec describes the PR to open for a proposed fix
type PullRequestSpec struct {
	Owner string
	Repo  string
	Head  string // fix branch
	Base  string // base branch from config
	Title string
	Body  string
}

// Service provides GitHub integration functionality
type Service struct {
	client *Client
	config *config.Config
	logger *loggy.Logger
}

// NewService creates a new GitHub service
func NewService(cfg *config.Config, logger *loggy.Logger) *Service {
	return &Service{
		client: NewClient(cfg.GitHub),
		config: cfg,
		logger: logger,
	}
}

// CreatePullRequest opens a pull request and returns its URL
func (s *Service) CreatePullRequest(ctx context.Context, spec PullRequestSpec) (string, error) {
	if spec.Owner == "" || spec.Repo == "" {
		return "", fmt.Errorf("owner and repo must be provided")
	}

	pr, _, err := s.client.client.PullRequests.Create(ctx, spec.Owner, spec.Repo, &github.NewPullRequest{
		Title:               github.String(spec.Title),
		Head:                github.String(spec.Head),
		Base:                github.String(spec.Base),
		Body:                github.String(spec.Body),
		MaintainerCanModify: github.Bool(true),
	})
	if err != nil {
		s.logger.Error("Failed to create pull request",
			"error", err,
			"repo", fmt.Sprintf("%s/%s", spec.Owner, spec.Repo),
			"head", spec.Head)
		return "", fmt.Errorf("creating pull request: %w", err)
	}

	url := pr.GetHTMLURL()
	s.logger.Info("Created pull request", "url", url)
	return url, nil
}

// ValidateRepoAccess checks if the GitHub token has access to the specified repository
func (s *Service) ValidateRepoAccess(ctx context.Context, owner, repo string) error {
	_, resp, err := s.client.client.Repositories.Get(ctx, owner, repo)
	if err != nil {
		if resp != nil && resp.StatusCode == 404 {
			return fmt.Errorf("repository %s/%s not found or no access", owner, repo)
		}
		return fmt.Errorf("failed to validate repository access: %w", err)
	}

	return nil
}

// ExtractRepoDetailsFromURL extracts owner and repo from a Git URL
func ExtractRepoDetailsFromURL(gitURL string) (owner, repo string, err error) {
	if gitURL == "" {
		return "", "", fmt.Errorf("empty Git URL")
	}

	// Handle different URL formats
	// https://github.com/owner/repo.git
	// git@github.com:owner/repo.git
	// https://github.com/owner/repo
	gitURL = strings.TrimSuffix(gitURL, ".git")

	var parts []string

	if strings.Contains(gitURL, "github.com/") {
		// Handle HTTPS URLs
		parts = strings.Split(gitURL, "github.com/")
		if len(parts) != 2 {
			return "", "", fmt.Errorf("invalid GitHub URL format: %s", gitURL)
		}
	} else if strings.Contains(gitURL, "github.com:") {
		// Handle SSH URLs
		parts = strings.Split(gitURL, "github.com:")
		if len(parts) != 2 {
			return "", "", fmt.Errorf("invalid GitHub SSH URL format: %s", gitURL)
		}
	} else {
		return "", "", fmt.Errorf("unsupported Git URL format: %s", gitURL)
	}

	// Split owner/repo
	ownerRepo := strings.Split(parts[1], "/")
	if len(ownerRepo) < 2 {
		return "", "", fmt.Errorf("could not extract owner/repo from URL: %s", gitURL)
	}

	return ownerRepo[0], ownerRepo[1], nil
}
