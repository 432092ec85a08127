// Package analyzer turns raw Sentry issue and event payloads into the
// normalized context the fix pipeline works with, and decides which
// issues are worth attempting automatically.
package analyzer

import (
	"github.com/tildaslashalef/sentryfix/internal/sentry"
)

// SourceLine is one line of source context around a frame's erroring line
type SourceLine struct {
	LineNo int    `json:"line_no"`
	Source string `json:"source"`
}

// StackFrame is a normalized call-stack entry
type StackFrame struct {
	Filename string         `json:"filename"`
	Function string         `json:"function"`
	Module   string         `json:"module,omitempty"`
	LineNo   int            `json:"line_no"`
	ColNo    int            `json:"col_no"`
	AbsPath  string         `json:"abs_path,omitempty"`
	Context  []SourceLine   `json:"context,omitempty"`
	Vars     map[string]any `json:"vars,omitempty"`
	InApp    bool           `json:"in_app"`
}

// StackTrace holds normalized frames in the order Sentry delivers them,
// outermost call first
type StackTrace struct {
	Frames []StackFrame `json:"frames"`
}

// InnermostFirst returns the frames reversed so the most specific frame
// comes first, which is the order prompts render them in
func (s *StackTrace) InnermostFirst() []StackFrame {
	frames := make([]StackFrame, len(s.Frames))
	for i, f := range s.Frames {
		frames[len(s.Frames)-1-i] = f
	}
	return frames
}

// InAppFrames returns only the frames attributed to application code
func (s *StackTrace) InAppFrames() []StackFrame {
	var frames []StackFrame
	for _, f := range s.Frames {
		if f.InApp {
			frames = append(frames, f)
		}
	}
	return frames
}

// IssueContext is everything the pipeline knows about one issue:
// the raw issue and event, plus the extracted trace and file list
type IssueContext struct {
	Issue         sentry.Issue  `json:"issue"`
	Event         *sentry.Event `json:"-"`
	StackTrace    *StackTrace   `json:"stack_trace,omitempty"`
	AffectedFiles []string      `json:"affected_files"`
	ErrorType     string        `json:"error_type"`
	ErrorMessage  string        `json:"error_message"`
}
