package autofix

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/tildaslashalef/sentryfix/internal/analyzer"
	"github.com/tildaslashalef/sentryfix/internal/codebase"
)

// Templates for building prompts
const systemInstructionTemplate = `You are a senior software engineer investigating a production error. You will receive the error's stack trace, issue metadata, and the content of the affected source files. Propose a concrete fix a human reviewer can evaluate.

Structure your reply EXACTLY as follows:

## Analysis
A short explanation of the root cause.

## Proposed Changes
One subsection per file that needs changing:

### File: path/to/file
**Description**: what the change does and why
` + "```" + `
the proposed code
` + "```" + `

## Confidence
One of: high, medium, low - followed by a brief justification.

IMPORTANT:
- Only propose changes to files shown in the codebase context.
- Keep the Analysis section focused on the root cause, not restating the stack trace.
- If you cannot determine a fix, say so in the Analysis and leave Proposed Changes empty.`

const issueInfoTemplate = `## Issue Information
Title: {{.Title}}
Error Type: {{.ErrorType}}
Error Message: {{.ErrorMessage}}
Occurrences: {{.Count}}
Link: {{.Permalink}}

### Stack Trace (innermost call first)
{{.StackTrace}}`

const fileContextHeaderTemplate = `### File: {{.Path}}{{if .Language}} ({{.Language}}){{end}}`

// PromptBuilder renders issue context and gathered files into the text
// blocks sent to the model
type PromptBuilder struct {
	maxFrames int
}

// NewPromptBuilder creates a PromptBuilder. maxFrames caps how many stack
// frames are rendered, innermost first.
func NewPromptBuilder(maxFrames int) *PromptBuilder {
	if maxFrames <= 0 {
		maxFrames = 15
	}
	return &PromptBuilder{maxFrames: maxFrames}
}

// SystemInstruction returns the fixed instructional preamble
func (b *PromptBuilder) SystemInstruction() string {
	return systemInstructionTemplate
}

// BuildIssueInfo renders the issue information block: title, error
// summary, occurrence count, permalink, and the capped stack trace
func (b *PromptBuilder) BuildIssueInfo(ictx *analyzer.IssueContext) (string, error) {
	tmpl, err := template.New("issue").Parse(issueInfoTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, map[string]string{
		"Title":        ictx.Issue.Title,
		"ErrorType":    ictx.ErrorType,
		"ErrorMessage": ictx.ErrorMessage,
		"Count":        ictx.Issue.Count,
		"Permalink":    ictx.Issue.Permalink,
		"StackTrace":   b.renderStackTrace(ictx.StackTrace),
	}); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// renderStackTrace renders up to maxFrames frames innermost-first, each
// with file, function, line:column, and any source-context lines with the
// erroring line marked
func (b *PromptBuilder) renderStackTrace(st *analyzer.StackTrace) string {
	if st == nil || len(st.Frames) == 0 {
		return "(no stack trace available)"
	}

	frames := st.InnermostFirst()
	if len(frames) > b.maxFrames {
		frames = frames[:b.maxFrames]
	}

	var sb strings.Builder
	for i, f := range frames {
		path := f.Filename
		if path == "" {
			path = f.AbsPath
		}

		marker := ""
		if !f.InApp {
			marker = " [third-party]"
		}
		fmt.Fprintf(&sb, "%d. %s in %s at %d:%d%s\n", i+1, path, f.Function, f.LineNo, f.ColNo, marker)

		for _, line := range f.Context {
			prefix := "   "
			if line.LineNo == f.LineNo {
				prefix = ">>>"
			}
			fmt.Fprintf(&sb, "  %s %d | %s\n", prefix, line.LineNo, line.Source)
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}

// BuildCodebaseContext renders the gathered file contents. Missing files
// appear as a note so the model knows what could not be located.
func (b *PromptBuilder) BuildCodebaseContext(files []codebase.FileContext) (string, error) {
	var sb strings.Builder
	sb.WriteString("## Codebase Context\n")

	if len(files) == 0 {
		sb.WriteString("(no affected files could be gathered)\n")
		return sb.String(), nil
	}

	headerTmpl, err := template.New("header").Parse(fileContextHeaderTemplate)
	if err != nil {
		return "", err
	}

	for _, f := range files {
		var headerBuf bytes.Buffer
		if err := headerTmpl.Execute(&headerBuf, map[string]string{
			"Path":     f.Path,
			"Language": f.Language,
		}); err != nil {
			return "", err
		}

		sb.WriteString("\n")
		sb.WriteString(headerBuf.String())
		sb.WriteString("\n")

		if f.Missing {
			fmt.Fprintf(&sb, "(%s)\n", f.Note)
			continue
		}

		sb.WriteString("```\n")
		sb.WriteString(f.Content)
		if !strings.HasSuffix(f.Content, "\n") {
			sb.WriteString("\n")
		}
		sb.WriteString("```\n")
	}

	return sb.String(), nil
}

// BuildPrompt assembles the full user prompt from the codebase context
// and issue information blocks
func (b *PromptBuilder) BuildPrompt(ictx *analyzer.IssueContext, files []codebase.FileContext) (string, error) {
	codeBlock, err := b.BuildCodebaseContext(files)
	if err != nil {
		return "", fmt.Errorf("building codebase context: %w", err)
	}

	issueBlock, err := b.BuildIssueInfo(ictx)
	if err != nil {
		return "", fmt.Errorf("building issue information: %w", err)
	}

	return codeBlock + "\n" + issueBlock + "\n", nil
}
