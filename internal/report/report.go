// Package report persists fix proposals to disk and builds the summary
// comment posted back to the issue tracker.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tildaslashalef/sentryfix/internal/autofix"
	"github.com/tildaslashalef/sentryfix/internal/loggy"
	"github.com/tildaslashalef/sentryfix/internal/sentry"
)

// Disclaimer is appended to every tracker comment so readers know the
// proposal was machine-generated and needs human review
const Disclaimer = "This fix proposal was generated automatically and has not been verified. Review carefully before applying."

// IssueRef is the issue subset persisted alongside a proposal
type IssueRef struct {
	ID        string `json:"id"`
	ShortID   string `json:"shortId"`
	Title     string `json:"title"`
	Permalink string `json:"permalink"`
}

// Document is the JSON shape written per processed issue
type Document struct {
	Issue     IssueRef             `json:"issue"`
	Proposal  *autofix.FixProposal `json:"proposal"`
	Timestamp string               `json:"timestamp"`
}

// Writer persists proposal documents into a configured directory
type Writer struct {
	outputDir string
	logger    *loggy.Logger
	now       func() time.Time
}

// NewWriter creates a Writer rooted at outputDir
func NewWriter(outputDir string, logger *loggy.Logger) *Writer {
	return &Writer{
		outputDir: outputDir,
		logger:    logger,
		now:       time.Now,
	}
}

// baseName builds the shared filename stem: <shortID>_<unixMillis>
func (w *Writer) baseName(issue sentry.Issue, ts time.Time) string {
	return fmt.Sprintf("%s_%d", issue.ShortID, ts.UnixMilli())
}

// Write persists both the JSON and Markdown renderings of a proposal and
// returns the two file paths
func (w *Writer) Write(issue sentry.Issue, proposal *autofix.FixProposal) (jsonPath, mdPath string, err error) {
	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return "", "", fmt.Errorf("creating output directory: %w", err)
	}

	ts := w.now()
	base := w.baseName(issue, ts)

	jsonPath = filepath.Join(w.outputDir, base+".json")
	if err := w.writeJSON(jsonPath, issue, proposal, ts); err != nil {
		return "", "", err
	}

	mdPath = filepath.Join(w.outputDir, base+".md")
	if err := w.writeMarkdown(mdPath, issue, proposal, ts); err != nil {
		return "", "", err
	}

	w.logger.Info("Persisted fix proposal", "issue", issue.ShortID, "json", jsonPath, "markdown", mdPath)
	return jsonPath, mdPath, nil
}

func (w *Writer) writeJSON(path string, issue sentry.Issue, proposal *autofix.FixProposal, ts time.Time) error {
	doc := Document{
		Issue: IssueRef{
			ID:        issue.ID,
			ShortID:   issue.ShortID,
			Title:     issue.Title,
			Permalink: issue.Permalink,
		},
		Proposal:  proposal,
		Timestamp: ts.UTC().Format(time.RFC3339),
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling proposal document: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing proposal JSON: %w", err)
	}
	return nil
}

func (w *Writer) writeMarkdown(path string, issue sentry.Issue, proposal *autofix.FixProposal, ts time.Time) error {
	content := RenderMarkdown(issue, proposal, ts)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing proposal markdown: %w", err)
	}
	return nil
}

// RenderMarkdown builds the human-readable rendering of a proposal
func RenderMarkdown(issue sentry.Issue, proposal *autofix.FixProposal, ts time.Time) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Fix Proposal: %s\n\n", issue.Title)
	fmt.Fprintf(&sb, "- Issue: [%s](%s)\n", issue.ShortID, issue.Permalink)
	fmt.Fprintf(&sb, "- Generated: %s\n\n", ts.UTC().Format(time.RFC3339))

	sb.WriteString("## Analysis\n\n")
	sb.WriteString(proposal.Analysis)
	sb.WriteString("\n\n")

	sb.WriteString("## Proposed Changes\n\n")
	if len(proposal.Changes) == 0 {
		sb.WriteString("No concrete changes were proposed.\n\n")
	}
	for _, change := range proposal.Changes {
		fmt.Fprintf(&sb, "### %s\n\n", change.FilePath)
		if change.Description != "" {
			sb.WriteString(change.Description)
			sb.WriteString("\n\n")
		}
		if change.Code != "" {
			sb.WriteString("```\n")
			sb.WriteString(change.Code)
			if !strings.HasSuffix(change.Code, "\n") {
				sb.WriteString("\n")
			}
			sb.WriteString("```\n\n")
		}
	}

	fmt.Fprintf(&sb, "## Confidence\n\n%s\n", proposal.Confidence)

	return sb.String()
}

// BuildComment renders the tracker comment for a proposal
func (w *Writer) BuildComment(proposal *autofix.FixProposal) string {
	return BuildComment(proposal)
}

// BuildComment renders the summary comment posted back to the tracker:
// analysis, a bullet per proposed change, the confidence level, and the
// fixed disclaimer
func BuildComment(proposal *autofix.FixProposal) string {
	var sb strings.Builder

	sb.WriteString("**Automated fix proposal**\n\n")
	sb.WriteString(proposal.Analysis)
	sb.WriteString("\n\n")

	if len(proposal.Changes) > 0 {
		sb.WriteString("Proposed changes:\n")
		for _, change := range proposal.Changes {
			desc := change.Description
			if desc == "" {
				desc = "see proposal file"
			}
			fmt.Fprintf(&sb, "- `%s`: %s\n", change.FilePath, desc)
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "Confidence: %s\n\n", proposal.Confidence)
	sb.WriteString(Disclaimer)

	return sb.String()
}
