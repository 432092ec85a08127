// Package git provides the version-control plumbing for the patch+PR
// path: fix branches, commits, pushes, and cleanup.
package git

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/goombaio/namegenerator"

	"github.com/tildaslashalef/sentryfix/internal/loggy"
)

// BranchPrefix is the namespace for generated fix branches
const BranchPrefix = "sentryfix/"

// CommitAuthor identifies the tool in generated commits
const (
	commitAuthorName  = "sentryfix"
	commitAuthorEmail = "sentryfix@localhost"
)

// Service provides Git operations on the monitored codebase
type Service struct {
	logger   *loggy.Logger
	repo     *git.Repository
	repoPath string
}

// NewService creates a new Git service
func NewService(logger *loggy.Logger) *Service {
	return &Service{
		logger: logger,
	}
}

// InitRepo opens the git repository at repoPath for the service
func (s *Service) InitRepo(repoPath string) error {
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return fmt.Errorf("opening git repo: %w", err)
	}

	s.repo = repo
	s.repoPath = repoPath
	return nil
}

// HasGitRepo checks if the provided path contains a valid Git repository
func (s *Service) HasGitRepo(path string) bool {
	_, err := git.PlainOpen(path)
	if err != nil {
		s.logger.Debug("Not a valid Git repository", "path", path, "error", err)
		return false
	}

	return true
}

// ensureRepo ensures the repository is initialized before performing operations
func (s *Service) ensureRepo() error {
	if s.repo == nil {
		return fmt.Errorf("git repository not initialized")
	}
	return nil
}

// CurrentBranch returns the name of the checked-out branch
func (s *Service) CurrentBranch() (string, error) {
	if err := s.ensureRepo(); err != nil {
		return "", err
	}

	head, err := s.repo.Head()
	if err != nil {
		return "", fmt.Errorf("getting HEAD: %w", err)
	}
	if !head.Name().IsBranch() {
		return "", fmt.Errorf("HEAD is not on a branch: %s", head.Name())
	}

	return head.Name().Short(), nil
}

// FixBranchName builds a branch name for an issue's fix:
// sentryfix/<shortID>-<generated-name>
func FixBranchName(shortID string) string {
	seed := time.Now().UnixNano()
	name := namegenerator.NewNameGenerator(seed).Generate()
	return BranchPrefix + strings.ToLower(shortID) + "-" + name
}

// CreateAndCheckoutBranch creates a branch at the current HEAD and checks
// it out
func (s *Service) CreateAndCheckoutBranch(name string) error {
	if err := s.ensureRepo(); err != nil {
		return err
	}

	worktree, err := s.repo.Worktree()
	if err != nil {
		return fmt.Errorf("getting worktree: %w", err)
	}

	if err := worktree.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(name),
		Create: true,
	}); err != nil {
		return fmt.Errorf("creating branch %s: %w", name, err)
	}

	s.logger.Info("Created fix branch", "branch", name)
	return nil
}

// WriteAndCommit writes the given file contents into the worktree, stages
// them, and commits with the given message. Paths are relative to the
// repository root.
func (s *Service) WriteAndCommit(files map[string]string, message string) (string, error) {
	if err := s.ensureRepo(); err != nil {
		return "", err
	}

	worktree, err := s.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("getting worktree: %w", err)
	}

	for path, content := range files {
		full := filepath.Join(s.repoPath, path)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return "", fmt.Errorf("creating directory for %s: %w", path, err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			return "", fmt.Errorf("writing %s: %w", path, err)
		}
		if _, err := worktree.Add(path); err != nil {
			return "", fmt.Errorf("staging %s: %w", path, err)
		}
	}

	hash, err := worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  commitAuthorName,
			Email: commitAuthorEmail,
			When:  time.Now(),
		},
	})
	if err != nil {
		return "", fmt.Errorf("committing changes: %w", err)
	}

	s.logger.Info("Committed proposed changes", "commit", hash.String(), "files", len(files))
	return hash.String(), nil
}

// Push pushes the given branch to origin, authenticating with the token
func (s *Service) Push(ctx context.Context, branch, token string) error {
	if err := s.ensureRepo(); err != nil {
		return err
	}

	refSpec := config.RefSpec(fmt.Sprintf("refs/heads/%s:refs/heads/%s", branch, branch))

	err := s.repo.PushContext(ctx, &git.PushOptions{
		RemoteName: "origin",
		RefSpecs:   []config.RefSpec{refSpec},
		Auth: &githttp.BasicAuth{
			// GitHub accepts any username with a token password
			Username: "sentryfix",
			Password: token,
		},
	})
	if err != nil {
		return fmt.Errorf("pushing branch %s: %w", branch, err)
	}

	s.logger.Info("Pushed fix branch", "branch", branch)
	return nil
}

// CheckoutAndDelete returns to baseBranch and deletes the given branch.
// Used for cleanup when the PR path fails partway.
func (s *Service) CheckoutAndDelete(baseBranch, branch string) error {
	if err := s.ensureRepo(); err != nil {
		return err
	}

	worktree, err := s.repo.Worktree()
	if err != nil {
		return fmt.Errorf("getting worktree: %w", err)
	}

	if err := worktree.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(baseBranch),
		Force:  true,
	}); err != nil {
		return fmt.Errorf("checking out %s: %w", baseBranch, err)
	}

	if err := s.repo.Storer.RemoveReference(plumbing.NewBranchReferenceName(branch)); err != nil {
		return fmt.Errorf("deleting branch %s: %w", branch, err)
	}

	s.logger.Info("Cleaned up fix branch", "branch", branch, "base", baseBranch)
	return nil
}

// RemoteURL returns the first URL of the origin remote
func (s *Service) RemoteURL() (string, error) {
	if err := s.ensureRepo(); err != nil {
		return "", err
	}

	remote, err := s.repo.Remote("origin")
	if err != nil {
		return "", fmt.Errorf("getting origin remote: %w", err)
	}

	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("origin remote has no URLs")
	}

	return urls[0], nil
}
