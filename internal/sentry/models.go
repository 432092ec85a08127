package sentry

import (
	"encoding/json"
	"fmt"
	"time"
)

// Issue represents a deduplicated group of error occurrences in Sentry.
// Only the fields this tool consumes are modeled; unknown fields are ignored.
type Issue struct {
	ID        string        `json:"id"`
	ShortID   string        `json:"shortId"`
	Title     string        `json:"title"`
	Culprit   string        `json:"culprit,omitempty"`
	Permalink string        `json:"permalink"`
	Status    string        `json:"status"`
	Level     string        `json:"level,omitempty"`
	Count     string        `json:"count"`
	UserCount int           `json:"userCount"`
	FirstSeen time.Time     `json:"firstSeen"`
	LastSeen  time.Time     `json:"lastSeen"`
	Metadata  IssueMetadata `json:"metadata"`
}

// IssueMetadata carries the error classification Sentry derives for an issue
type IssueMetadata struct {
	Type     string `json:"type,omitempty"`
	Value    string `json:"value,omitempty"`
	Filename string `json:"filename,omitempty"`
}

// Event is one concrete occurrence of an Issue
type Event struct {
	EventID     string    `json:"eventID"`
	Platform    string    `json:"platform,omitempty"`
	DateCreated time.Time `json:"dateCreated"`
	Entries     []Entry   `json:"entries"`
	Tags        []Tag     `json:"tags,omitempty"`
	User        *User     `json:"user,omitempty"`
}

// Entry is a typed section of an event payload. Only entries of type
// "exception" are consumed by the analyzer.
type Entry struct {
	Type string    `json:"type"`
	Data EntryData `json:"data"`
}

// EntryData holds the exception values for an "exception" entry
type EntryData struct {
	Values []ExceptionValue `json:"values"`
}

// ExceptionValue is one exception in a (possibly chained) exception event.
// The last element of the values list is the innermost, most specific one.
type ExceptionValue struct {
	Type       string         `json:"type"`
	Value      string         `json:"value"`
	Module     string         `json:"module,omitempty"`
	Stacktrace *RawStacktrace `json:"stacktrace,omitempty"`
}

// RawStacktrace is the stack trace exactly as Sentry delivers it,
// outermost call first
type RawStacktrace struct {
	Frames []RawFrame `json:"frames"`
}

// RawFrame is a single call-stack entry from the Sentry event payload
type RawFrame struct {
	Filename string         `json:"filename"`
	Function string         `json:"function"`
	Module   string         `json:"module,omitempty"`
	LineNo   int            `json:"lineNo"`
	ColNo    int            `json:"colNo"`
	AbsPath  string         `json:"absPath,omitempty"`
	Context  []ContextLine  `json:"context,omitempty"`
	Vars     map[string]any `json:"vars,omitempty"`
	InApp    bool           `json:"inApp"`
}

// ContextLine is one line of source context around the erroring line.
// Sentry encodes these as two-element arrays: [lineNo, source].
type ContextLine struct {
	LineNo int
	Source string
}

// UnmarshalJSON decodes the [lineNo, source] pair representation
func (c *ContextLine) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("context line must be a [lineNo, source] pair, got %d elements", len(pair))
	}
	if err := json.Unmarshal(pair[0], &c.LineNo); err != nil {
		return fmt.Errorf("context line number: %w", err)
	}
	if err := json.Unmarshal(pair[1], &c.Source); err != nil {
		return fmt.Errorf("context line source: %w", err)
	}
	return nil
}

// MarshalJSON encodes back to the [lineNo, source] pair representation
func (c ContextLine) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{c.LineNo, c.Source})
}

// Tag is a key/value pair attached to an event
type Tag struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// User identifies who was affected by an event
type User struct {
	ID       string `json:"id,omitempty"`
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
}

// Comment is a note posted back to a Sentry issue
type Comment struct {
	ID   string `json:"id,omitempty"`
	Text string `json:"text"`
}

// APIError represents an error response from the Sentry API
type APIError struct {
	StatusCode int    `json:"-"`
	Detail     string `json:"detail"`
}

// Error implements the error interface for APIError
func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("sentry API error (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("sentry API error (status %d): %s", e.StatusCode, e.Detail)
}
