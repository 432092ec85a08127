// Package patch applies proposed changes to the codebase. The strategy is
// deliberately simplistic: whole-file replacement of the proposed content,
// with review left entirely to the human reading the resulting pull
// request. It is not a merge engine.
package patch

import (
	"github.com/tildaslashalef/sentryfix/internal/autofix"
	"github.com/tildaslashalef/sentryfix/internal/loggy"
)

// Applier selects which proposed changes can be applied as file contents
type Applier struct {
	logger *loggy.Logger
}

// NewApplier creates an Applier
func NewApplier(logger *loggy.Logger) *Applier {
	return &Applier{logger: logger}
}

// Prepare maps applicable changes to path -> replacement content. Changes
// without a code block have nothing to write and are skipped with a log
// line; they still appear in the persisted proposal.
func (a *Applier) Prepare(proposal *autofix.FixProposal) map[string]string {
	files := make(map[string]string, len(proposal.Changes))

	for _, change := range proposal.Changes {
		if change.Code == "" {
			a.logger.Warn("Skipping change without code block",
				"issue_id", proposal.IssueID,
				"file", change.FilePath)
			continue
		}
		files[change.FilePath] = ensureTrailingNewline(change.Code)
	}

	return files
}

func ensureTrailingNewline(s string) string {
	if s == "" || s[len(s)-1] == '\n' {
		return s
	}
	return s + "\n"
}
