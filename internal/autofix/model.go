// Package autofix drives the fix pipeline: it builds prompts from issue
// context, invokes the language model, and coordinates a run across the
// fetched issues.
package autofix

// Confidence is the coarse self-reported reliability label the model
// attaches to a proposal
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ProposedChange is one file-level change in a proposal
type ProposedChange struct {
	FilePath    string `json:"file_path"`
	Description string `json:"description"`
	// Code is the proposed replacement content, empty when the model
	// described the change without a fenced code block
	Code string `json:"code,omitempty"`
}

// FixProposal is the structured result of parsing a model reply.
// Changes preserve the order file sections appeared in the reply.
type FixProposal struct {
	IssueID    string           `json:"issue_id"`
	Analysis   string           `json:"analysis"`
	Changes    []ProposedChange `json:"changes"`
	Confidence Confidence       `json:"confidence"`
}
