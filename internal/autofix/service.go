package autofix

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tildaslashalef/sentryfix/internal/analyzer"
	"github.com/tildaslashalef/sentryfix/internal/codebase"
	"github.com/tildaslashalef/sentryfix/internal/config"
	"github.com/tildaslashalef/sentryfix/internal/llm"
	"github.com/tildaslashalef/sentryfix/internal/loggy"
	"github.com/tildaslashalef/sentryfix/internal/sentry"
	"github.com/tildaslashalef/sentryfix/internal/ulid"
)

// Status is the terminal state of one issue's pipeline
type Status string

const (
	StatusProposed Status = "proposed"
	StatusSkipped  Status = "skipped"
	StatusFailed   Status = "failed"
)

// IssueTracker is the tracker surface the coordinator consumes
type IssueTracker interface {
	ListIssues(ctx context.Context) ([]sentry.Issue, error)
	GetLatestEvent(ctx context.Context, issueID string) (*sentry.Event, error)
	PostComment(ctx context.Context, issueID, text string) error
}

// ResponseParser turns a raw model reply into a structured proposal
type ResponseParser interface {
	Extract(issueID, raw string) *FixProposal
}

// ProposalStore persists proposals and renders tracker comments
type ProposalStore interface {
	Write(issue sentry.Issue, proposal *FixProposal) (jsonPath, mdPath string, err error)
	BuildComment(proposal *FixProposal) string
}

// ChangePublisher is the optional patch+PR path. Implementations return
// the created PR URL, or empty when there was nothing to publish.
type ChangePublisher interface {
	PublishFix(ctx context.Context, issue sentry.Issue, proposal *FixProposal) (string, error)
}

// IssueResult is the per-issue outcome aggregated into the run summary
type IssueResult struct {
	IssueID    string
	ShortID    string
	Title      string
	Status     Status
	SkipReason string
	Err        error
	Confidence Confidence
	Changes    int
	JSONPath   string
	MDPath     string
	PRURL      string
	Commented  bool
}

// RunSummary aggregates one full run
type RunSummary struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	DryRun     bool
	Results    []IssueResult
}

// Counts returns the proposed/skipped/failed totals
func (s *RunSummary) Counts() (proposed, skipped, failed int) {
	for _, r := range s.Results {
		switch r.Status {
		case StatusProposed:
			proposed++
		case StatusSkipped:
			skipped++
		case StatusFailed:
			failed++
		}
	}
	return
}

// RunOptions tune a single run
type RunOptions struct {
	// DryRun performs analysis and model calls but persists nothing and
	// never posts comments or opens PRs
	DryRun bool
	// Limit overrides the configured per-run issue cap when positive
	Limit int
}

// Service is the Run Coordinator: it sequences the per-issue pipeline
// across the fetched issues, strictly one issue at a time
type Service struct {
	cfg       *config.Config
	tracker   IssueTracker
	analyzer  *analyzer.Analyzer
	gatherer  *codebase.Gatherer
	llm       llm.Client
	parser    ResponseParser
	store     ProposalStore
	publisher ChangePublisher
	prompt    *PromptBuilder
	logger    *loggy.Logger
}

// NewService wires the coordinator. publisher may be nil when the PR path
// is disabled.
func NewService(
	cfg *config.Config,
	tracker IssueTracker,
	anlz *analyzer.Analyzer,
	gatherer *codebase.Gatherer,
	llmClient llm.Client,
	parser ResponseParser,
	store ProposalStore,
	publisher ChangePublisher,
	logger *loggy.Logger,
) *Service {
	return &Service{
		cfg:       cfg,
		tracker:   tracker,
		analyzer:  anlz,
		gatherer:  gatherer,
		llm:       llmClient,
		parser:    parser,
		store:     store,
		publisher: publisher,
		prompt:    NewPromptBuilder(cfg.Codebase.MaxStackFrames),
		logger:    logger,
	}
}

// Run executes one full pass: fetch issues, then run each issue's
// pipeline to completion before the next begins. Per-issue failures are
// logged and isolated; only the initial fetch can fail the run.
func (s *Service) Run(ctx context.Context, opts RunOptions) (*RunSummary, error) {
	summary := &RunSummary{
		RunID:     ulid.RunID(),
		StartedAt: time.Now(),
		DryRun:    opts.DryRun,
	}

	logger := s.logger.With("run_id", summary.RunID)
	logger.Info("Starting autofix run", "dry_run", opts.DryRun)

	// Downstream clients pick the run-scoped logger and run ID back out of
	// the context, so their logs correlate with this run
	ctx = loggy.WithRunID(loggy.WithLogger(ctx, logger), summary.RunID)

	issues, err := s.tracker.ListIssues(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching issues: %w", err)
	}

	if opts.Limit > 0 && len(issues) > opts.Limit {
		issues = issues[:opts.Limit]
	}
	logger.Info("Fetched candidate issues", "count", len(issues))

	for _, issue := range issues {
		result := s.processIssue(ctx, logger, issue, opts)
		if result.Err != nil {
			logger.WithError(result.Err).Error("Issue pipeline failed",
				"issue_id", issue.ID,
				"short_id", issue.ShortID)
		}
		summary.Results = append(summary.Results, result)
	}

	summary.FinishedAt = time.Now()
	proposed, skipped, failed := summary.Counts()
	logger.Info("Autofix run finished",
		"proposed", proposed,
		"skipped", skipped,
		"failed", failed,
		"duration", summary.FinishedAt.Sub(summary.StartedAt))

	return summary, nil
}

// processIssue runs one issue through the full pipeline. It never
// panics the run: every failure is captured in the result.
func (s *Service) processIssue(ctx context.Context, logger *loggy.Logger, issue sentry.Issue, opts RunOptions) IssueResult {
	result := IssueResult{
		IssueID: issue.ID,
		ShortID: issue.ShortID,
		Title:   issue.Title,
	}

	logger = logger.With("issue_id", issue.ID, "short_id", issue.ShortID)
	logger.Info("Analyzing issue", "title", issue.Title)

	event, err := s.tracker.GetLatestEvent(ctx, issue.ID)
	if err != nil {
		result.Status = StatusFailed
		result.Err = fmt.Errorf("fetching latest event: %w", err)
		return result
	}

	ictx, err := s.analyzer.ExtractContext(issue, event)
	if err != nil {
		if errors.Is(err, analyzer.ErrNoEventData) {
			result.Status = StatusSkipped
			result.SkipReason = "no event data"
			logger.Warn("Skipping issue without event data")
			return result
		}
		result.Status = StatusFailed
		result.Err = fmt.Errorf("extracting context: %w", err)
		return result
	}

	if eligible, reason := s.analyzer.IsEligible(ictx); !eligible {
		result.Status = StatusSkipped
		result.SkipReason = reason
		logger.Info("Issue not eligible for autofix", "reason", reason)
		return result
	}

	logger.Debug("Gathering affected files", "files", len(ictx.AffectedFiles))
	files := s.gatherer.Gather(ictx.AffectedFiles)

	prompt, err := s.prompt.BuildPrompt(ictx, files)
	if err != nil {
		result.Status = StatusFailed
		result.Err = fmt.Errorf("building prompt: %w", err)
		return result
	}

	logger.Info("Requesting fix proposal from model")
	resp, err := s.llm.GenerateChat(ctx, llm.ChatRequest{
		Messages: []llm.Message{
			{Role: "system", Content: s.prompt.SystemInstruction()},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		result.Status = StatusFailed
		result.Err = fmt.Errorf("generating proposal: %w", err)
		return result
	}

	proposal := s.parser.Extract(issue.ID, resp.Content)
	result.Confidence = proposal.Confidence
	result.Changes = len(proposal.Changes)
	logger.Info("Parsed fix proposal",
		"changes", len(proposal.Changes),
		"confidence", proposal.Confidence)

	if opts.DryRun {
		result.Status = StatusProposed
		logger.Info("Dry run: skipping persistence, comment, and PR steps")
		return result
	}

	jsonPath, mdPath, err := s.store.Write(issue, proposal)
	if err != nil {
		result.Status = StatusFailed
		result.Err = fmt.Errorf("persisting proposal: %w", err)
		return result
	}
	result.JSONPath = jsonPath
	result.MDPath = mdPath

	// From here on the proposal is persisted: comment and PR failures
	// degrade the result but never fail it
	result.Status = StatusProposed

	if s.cfg.Output.PostComments {
		if err := s.tracker.PostComment(ctx, issue.ID, s.store.BuildComment(proposal)); err != nil {
			if sentry.IsPermissionError(err) {
				logger.Warn("Cannot post comment: token lacks write scope; grant event:write to enable comments", "error", err)
			} else {
				logger.Warn("Failed to post comment", "error", err)
			}
		} else {
			result.Commented = true
		}
	}

	if s.cfg.Output.CreatePullRequests && s.publisher != nil {
		prURL, err := s.publisher.PublishFix(ctx, issue, proposal)
		if err != nil {
			logger.Warn("Failed to create pull request; proposal files are still available",
				"error", err)
		} else if prURL != "" {
			result.PRURL = prURL
			logger.Info("Opened pull request", "url", prURL)
		}
	}

	return result
}
