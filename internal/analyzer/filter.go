package analyzer

import (
	"strconv"
	"strings"
)

// Eligibility reasons reported when an issue is skipped
const (
	ReasonNoStackTrace  = "no stack trace"
	ReasonNoInAppFrames = "no in-app frames"
	ReasonCountUnparsed = "occurrence count not a number"
	ReasonTooManyEvents = "occurrence count above threshold"
	ReasonEligible      = ""
)

// IsEligible reports whether an extracted context qualifies for an
// automatic fix attempt, and when it does not, why.
//
// An issue qualifies when it has a non-empty stack trace with at least
// one in-app frame and its occurrence count parses and does not exceed
// the configured cap. The cap is inclusive: a count equal to it passes.
func (a *Analyzer) IsEligible(ictx *IssueContext) (bool, string) {
	if ictx.StackTrace == nil || len(ictx.StackTrace.Frames) == 0 {
		return false, ReasonNoStackTrace
	}

	if len(ictx.StackTrace.InAppFrames()) == 0 {
		return false, ReasonNoInAppFrames
	}

	count, err := strconv.Atoi(strings.TrimSpace(ictx.Issue.Count))
	if err != nil {
		// Sentry reports counts as strings; an unparsable one means we
		// cannot honor the cap, so the issue is skipped rather than
		// guessed at
		return false, ReasonCountUnparsed
	}

	if count > a.maxOccurrences {
		return false, ReasonTooManyEvents
	}

	return true, ReasonEligible
}
