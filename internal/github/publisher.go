package github

import (
	"context"
	"fmt"

	"github.com/tildaslashalef/sentryfix/internal/autofix"
	"github.com/tildaslashalef/sentryfix/internal/config"
	"github.com/tildaslashalef/sentryfix/internal/git"
	"github.com/tildaslashalef/sentryfix/internal/loggy"
	"github.com/tildaslashalef/sentryfix/internal/patch"
	"github.com/tildaslashalef/sentryfix/internal/report"
	"github.com/tildaslashalef/sentryfix/internal/sentry"
)

// FixPublisher turns a parsed proposal into a pushed fix branch and an
// open pull request. This is the experimental whole-file-replacement
// path; the proposal files remain the authoritative output.
type FixPublisher struct {
	cfg     *config.Config
	git     *git.Service
	github  *Service
	applier *patch.Applier
	logger  *loggy.Logger
}

// NewFixPublisher creates a FixPublisher over the configured codebase
func NewFixPublisher(cfg *config.Config, gitSvc *git.Service, ghSvc *Service, logger *loggy.Logger) *FixPublisher {
	return &FixPublisher{
		cfg:     cfg,
		git:     gitSvc,
		github:  ghSvc,
		applier: patch.NewApplier(logger),
		logger:  logger,
	}
}

// PublishFix applies the proposal's code to a fresh branch, pushes it,
// and opens a PR against the configured base branch. Returns empty URL
// when the proposal carries no applicable code. On failure after branch
// creation, the branch is cleaned up before the error propagates.
func (p *FixPublisher) PublishFix(ctx context.Context, issue sentry.Issue, proposal *autofix.FixProposal) (string, error) {
	// Correlate publisher logs with the run that produced the proposal
	logger := p.logger.With("run_id", loggy.GetRunID(ctx), "issue", issue.ShortID)

	files := p.applier.Prepare(proposal)
	if len(files) == 0 {
		logger.Info("Proposal has no applicable code, skipping PR")
		return "", nil
	}

	if err := p.git.InitRepo(p.cfg.Codebase.RootPath); err != nil {
		return "", fmt.Errorf("opening codebase repository: %w", err)
	}

	owner, repo, err := p.repoDetails()
	if err != nil {
		return "", err
	}

	if err := p.github.ValidateRepoAccess(ctx, owner, repo); err != nil {
		return "", err
	}

	baseBranch := p.cfg.Output.BaseBranch
	branch := git.FixBranchName(issue.ShortID)

	if err := p.git.CreateAndCheckoutBranch(branch); err != nil {
		return "", err
	}

	url, err := p.publishOnBranch(ctx, issue, proposal, files, owner, repo, baseBranch, branch)
	if err != nil {
		if cleanupErr := p.git.CheckoutAndDelete(baseBranch, branch); cleanupErr != nil {
			logger.Warn("Failed to clean up fix branch",
				"branch", branch,
				"error", cleanupErr)
		}
		return "", err
	}

	// Return the worktree to the base branch and drop the local branch;
	// the pushed remote branch backs the PR
	if err := p.git.CheckoutAndDelete(baseBranch, branch); err != nil {
		logger.Warn("Failed to return to base branch after PR creation",
			"base", baseBranch,
			"error", err)
	}

	return url, nil
}

func (p *FixPublisher) publishOnBranch(ctx context.Context, issue sentry.Issue, proposal *autofix.FixProposal, files map[string]string, owner, repo, baseBranch, branch string) (string, error) {
	message := fmt.Sprintf("Proposed fix for %s: %s", issue.ShortID, issue.Title)
	if _, err := p.git.WriteAndCommit(files, message); err != nil {
		return "", err
	}

	if err := p.git.Push(ctx, branch, p.cfg.GitHub.Token); err != nil {
		return "", err
	}

	return p.github.CreatePullRequest(ctx, PullRequestSpec{
		Owner: owner,
		Repo:  repo,
		Head:  branch,
		Base:  baseBranch,
		Title: fmt.Sprintf("Fix %s: %s", issue.ShortID, issue.Title),
		Body:  report.BuildComment(proposal),
	})
}

// repoDetails resolves owner/repo from config, falling back to the
// codebase's origin remote URL
func (p *FixPublisher) repoDetails() (string, string, error) {
	if p.cfg.GitHub.Owner != "" && p.cfg.GitHub.Repo != "" {
		return p.cfg.GitHub.Owner, p.cfg.GitHub.Repo, nil
	}

	remoteURL, err := p.git.RemoteURL()
	if err != nil {
		return "", "", fmt.Errorf("resolving repository from remote: %w", err)
	}

	return ExtractRepoDetailsFromURL(remoteURL)
}
