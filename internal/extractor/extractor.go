// Package extractor parses free-form model replies into structured fix
// proposals. The reply format is requested but never guaranteed, so every
// extraction step degrades to a best-effort partial result instead of
// failing.
package extractor

import (
	"regexp"
	"strings"

	"github.com/tildaslashalef/sentryfix/internal/autofix"
	"github.com/tildaslashalef/sentryfix/internal/loggy"
)

// ProposalExtractor extracts structured proposals from model replies
type ProposalExtractor struct {
	logger *loggy.Logger
}

// NewProposalExtractor creates a new ProposalExtractor
func NewProposalExtractor(logger *loggy.Logger) *ProposalExtractor {
	return &ProposalExtractor{
		logger: logger,
	}
}

var (
	// Section headings the prompt asks the model to produce. Matched at
	// line start with any markdown heading depth.
	analysisHeadingRe   = regexp.MustCompile(`(?im)^#{1,6}\s*Analysis\b.*$`)
	changesHeadingRe    = regexp.MustCompile(`(?im)^#{1,6}\s*Proposed\s+Changes\b.*$`)
	confidenceHeadingRe = regexp.MustCompile(`(?im)^#{1,6}\s*Confidence\b.*$`)

	// Per-file subsection headings inside Proposed Changes, with an
	// optional "File:" label, e.g. "### File: src/a.ts" or "### src/a.ts"
	fileHeadingRe = regexp.MustCompile(`(?im)^#{1,6}\s*(?:File:\s*)?(\S[^\n]*?)\s*$`)

	descriptionLabelRe = regexp.MustCompile(`(?im)^\**Description\**\s*:?\s*(.*)$`)
	fencedBlockRe      = regexp.MustCompile("(?s)```[a-zA-Z0-9+_-]*\n?(.*?)```")
	confidenceWordRe   = regexp.MustCompile(`(?i)\b(high|medium|low)\b`)
)

// Extract parses a raw model reply into a FixProposal. It never fails:
// off-format input degrades to a proposal whose analysis is the whole
// reply, with no changes and medium confidence.
func (e *ProposalExtractor) Extract(issueID, raw string) *autofix.FixProposal {
	proposal := &autofix.FixProposal{
		IssueID:    issueID,
		Confidence: autofix.ConfidenceMedium,
	}

	analysisSec := sectionBetween(raw, analysisHeadingRe, changesHeadingRe, confidenceHeadingRe)
	changesSec := sectionBetween(raw, changesHeadingRe, confidenceHeadingRe)
	confidenceSec := sectionBetween(raw, confidenceHeadingRe)

	if analysisSec == "" {
		// Off-format reply: keep the whole text so nothing is lost
		proposal.Analysis = strings.TrimSpace(raw)
	} else {
		proposal.Analysis = strings.TrimSpace(analysisSec)
	}

	proposal.Changes = e.extractChanges(changesSec)
	proposal.Confidence = extractConfidence(confidenceSec)

	e.logger.Debug("Extracted fix proposal",
		"issue_id", issueID,
		"changes", len(proposal.Changes),
		"confidence", proposal.Confidence)

	return proposal
}

// sectionBetween returns the text after the first match of start up to the
// earliest following match of any end marker, or end of text. Empty string
// when start never matches.
func sectionBetween(text string, start *regexp.Regexp, ends ...*regexp.Regexp) string {
	loc := start.FindStringIndex(text)
	if loc == nil {
		return ""
	}

	section := text[loc[1]:]
	cut := len(section)
	for _, end := range ends {
		if m := end.FindStringIndex(section); m != nil && m[0] < cut {
			cut = m[0]
		}
	}
	return section[:cut]
}

// extractChanges splits the Proposed Changes section into per-file
// subsections and parses each one. Subsections without a usable file path
// are discarded.
func (e *ProposalExtractor) extractChanges(section string) []autofix.ProposedChange {
	if strings.TrimSpace(section) == "" {
		return nil
	}

	headings := fileHeadingRe.FindAllStringSubmatchIndex(section, -1)
	var changes []autofix.ProposedChange

	for i, h := range headings {
		path := strings.TrimSpace(section[h[2]:h[3]])
		path = strings.Trim(path, "`")
		if !looksLikePath(path) {
			continue
		}

		bodyStart := h[1]
		bodyEnd := len(section)
		if i+1 < len(headings) {
			bodyEnd = headings[i+1][0]
		}
		body := section[bodyStart:bodyEnd]

		changes = append(changes, autofix.ProposedChange{
			FilePath:    path,
			Description: extractDescription(body),
			Code:        extractCode(body),
		})
	}

	return changes
}

// looksLikePath filters out subsection headings that are prose rather
// than a file path. A heading containing whitespace is a sentence, not a
// path; everything else is accepted so unusual but real paths survive.
func looksLikePath(s string) bool {
	if s == "" {
		return false
	}
	return !strings.ContainsAny(s, " \t")
}

// extractDescription prefers a labeled Description field; when absent it
// falls back to the free text between the heading and the first fenced
// code block
func extractDescription(body string) string {
	if m := descriptionLabelRe.FindStringSubmatch(body); m != nil {
		if desc := strings.TrimSpace(m[1]); desc != "" {
			return desc
		}
	}

	prose := body
	if loc := strings.Index(prose, "```"); loc >= 0 {
		prose = prose[:loc]
	}
	// Strip a leftover empty Description label line from the fallback text
	prose = descriptionLabelRe.ReplaceAllString(prose, "")
	return strings.TrimSpace(prose)
}

// extractCode returns the content of the first fenced code block in the
// subsection, empty when there is none
func extractCode(body string) string {
	m := fencedBlockRe.FindStringSubmatch(body)
	if m == nil {
		return ""
	}
	return strings.TrimRight(strings.TrimPrefix(m[1], "\n"), "\n")
}

// extractConfidence matches the first high/medium/low word following the
// Confidence heading, case-insensitively, defaulting to medium
func extractConfidence(section string) autofix.Confidence {
	m := confidenceWordRe.FindString(section)
	switch strings.ToLower(m) {
	case "high":
		return autofix.ConfidenceHigh
	case "low":
		return autofix.ConfidenceLow
	default:
		return autofix.ConfidenceMedium
	}
}
