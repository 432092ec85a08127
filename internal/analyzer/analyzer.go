package analyzer

import (
	"errors"

	"github.com/tildaslashalef/sentryfix/internal/loggy"
	"github.com/tildaslashalef/sentryfix/internal/sentry"
)

// ErrNoEventData indicates the issue has no event to extract context from
var ErrNoEventData = errors.New("issue has no event data")

// Analyzer extracts normalized issue context from Sentry payloads
type Analyzer struct {
	maxOccurrences int
	logger         *loggy.Logger
}

// New creates an Analyzer. maxOccurrences is the inclusive eligibility
// cap on an issue's occurrence count.
func New(maxOccurrences int, logger *loggy.Logger) *Analyzer {
	return &Analyzer{
		maxOccurrences: maxOccurrences,
		logger:         logger,
	}
}

// ExtractContext builds an IssueContext from an issue and its latest event.
// The event may lack an exception entry or a stack trace entirely; in that
// case the context carries metadata-derived fields and a nil StackTrace.
func (a *Analyzer) ExtractContext(issue sentry.Issue, event *sentry.Event) (*IssueContext, error) {
	if event == nil {
		return nil, ErrNoEventData
	}

	ictx := &IssueContext{
		Issue:        issue,
		Event:        event,
		ErrorType:    issue.Metadata.Type,
		ErrorMessage: issue.Metadata.Value,
	}
	if ictx.ErrorType == "" {
		ictx.ErrorType = issue.Title
	}

	values := exceptionValues(event)
	if len(values) > 0 {
		// The last value in a chained exception is the innermost,
		// most specific one
		innermost := values[len(values)-1]
		if innermost.Type != "" {
			ictx.ErrorType = innermost.Type
		}
		if innermost.Value != "" {
			ictx.ErrorMessage = innermost.Value
		}
		if innermost.Stacktrace != nil && len(innermost.Stacktrace.Frames) > 0 {
			ictx.StackTrace = normalizeStacktrace(innermost.Stacktrace)
		}
	}

	ictx.AffectedFiles = affectedFiles(ictx.StackTrace, values)

	a.logger.Debug("Extracted issue context",
		"issue_id", issue.ID,
		"error_type", ictx.ErrorType,
		"frames", frameCount(ictx.StackTrace),
		"affected_files", len(ictx.AffectedFiles))

	return ictx, nil
}

// exceptionValues collects the exception values from every "exception"
// entry in the event, in entry order
func exceptionValues(event *sentry.Event) []sentry.ExceptionValue {
	var values []sentry.ExceptionValue
	for _, entry := range event.Entries {
		if entry.Type != "exception" {
			continue
		}
		values = append(values, entry.Data.Values...)
	}
	return values
}

func normalizeStacktrace(raw *sentry.RawStacktrace) *StackTrace {
	st := &StackTrace{Frames: make([]StackFrame, 0, len(raw.Frames))}
	for _, f := range raw.Frames {
		frame := StackFrame{
			Filename: f.Filename,
			Function: f.Function,
			Module:   f.Module,
			LineNo:   f.LineNo,
			ColNo:    f.ColNo,
			AbsPath:  f.AbsPath,
			Vars:     f.Vars,
			InApp:    f.InApp,
		}
		for _, line := range f.Context {
			frame.Context = append(frame.Context, SourceLine{LineNo: line.LineNo, Source: line.Source})
		}
		st.Frames = append(st.Frames, frame)
	}
	return st
}

// affectedFiles derives the candidate file list for a context. Frames of
// the extracted stack trace are scanned in original order, then every
// exception value's frames are scanned again so raw data still contributes
// when the primary extraction came up empty. Paths are deduplicated
// preserving first-seen order.
func affectedFiles(st *StackTrace, values []sentry.ExceptionValue) []string {
	var files []string
	seen := make(map[string]bool)

	add := func(path string) {
		if path == "" || seen[path] {
			return
		}
		seen[path] = true
		files = append(files, path)
	}

	if st != nil {
		for _, f := range st.Frames {
			add(framePath(f.Filename, f.AbsPath, f.InApp))
		}
	}

	for _, v := range values {
		if v.Stacktrace == nil {
			continue
		}
		for _, f := range v.Stacktrace.Frames {
			add(framePath(f.Filename, f.AbsPath, f.InApp))
		}
	}

	return files
}

// framePath picks the most useful path for a frame: in-app frames report
// the project-relative filename, third-party frames the absolute path,
// with the other field as the fallback either way.
func framePath(filename, absPath string, inApp bool) string {
	if inApp {
		if filename != "" {
			return filename
		}
		return absPath
	}
	if absPath != "" {
		return absPath
	}
	return filename
}

func frameCount(st *StackTrace) int {
	if st == nil {
		return 0
	}
	return len(st.Frames)
}
