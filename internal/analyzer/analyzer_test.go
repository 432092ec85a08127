package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tildaslashalef/sentryfix/internal/loggy"
	"github.com/tildaslashalef/sentryfix/internal/sentry"
)

func newTestAnalyzer(maxOccurrences int) *Analyzer {
	return New(maxOccurrences, loggy.NewNoopLogger())
}

func exceptionEvent(values ...sentry.ExceptionValue) *sentry.Event {
	return &sentry.Event{
		EventID: "abc123",
		Entries: []sentry.Entry{
			{Type: "exception", Data: sentry.EntryData{Values: values}},
		},
	}
}

func TestExtractContextNoEvent(t *testing.T) {
	a := newTestAnalyzer(10000)

	_, err := a.ExtractContext(sentry.Issue{ID: "1"}, nil)
	require.ErrorIs(t, err, ErrNoEventData)
}

func TestExtractContextMetadataFallback(t *testing.T) {
	a := newTestAnalyzer(10000)

	issue := sentry.Issue{
		ID:    "1",
		Title: "Something broke",
		Metadata: sentry.IssueMetadata{
			Type:  "ValueError",
			Value: "invalid literal",
		},
	}
	event := &sentry.Event{
		EventID: "abc123",
		Entries: []sentry.Entry{{Type: "message"}},
	}

	ictx, err := a.ExtractContext(issue, event)
	require.NoError(t, err)
	assert.Equal(t, "ValueError", ictx.ErrorType)
	assert.Equal(t, "invalid literal", ictx.ErrorMessage)
	assert.Nil(t, ictx.StackTrace)
	assert.Empty(t, ictx.AffectedFiles)
}

func TestExtractContextInnermostExceptionWins(t *testing.T) {
	a := newTestAnalyzer(10000)

	issue := sentry.Issue{
		ID:       "1",
		Metadata: sentry.IssueMetadata{Type: "OuterError", Value: "wrapped"},
	}
	event := exceptionEvent(
		sentry.ExceptionValue{Type: "OuterError", Value: "wrapped"},
		sentry.ExceptionValue{
			Type:  "TypeError",
			Value: "Cannot read properties of undefined",
			Stacktrace: &sentry.RawStacktrace{
				Frames: []sentry.RawFrame{
					{Filename: "src/a.ts", Function: "handler", LineNo: 10, InApp: true},
				},
			},
		},
	)

	ictx, err := a.ExtractContext(issue, event)
	require.NoError(t, err)
	assert.Equal(t, "TypeError", ictx.ErrorType)
	assert.Equal(t, "Cannot read properties of undefined", ictx.ErrorMessage)
	require.NotNil(t, ictx.StackTrace)
	require.Len(t, ictx.StackTrace.Frames, 1)
	assert.Equal(t, []string{"src/a.ts"}, ictx.AffectedFiles)
}

func TestAffectedFilesOriginalOrderAndDedup(t *testing.T) {
	a := newTestAnalyzer(10000)

	event := exceptionEvent(sentry.ExceptionValue{
		Type: "TypeError",
		Stacktrace: &sentry.RawStacktrace{
			Frames: []sentry.RawFrame{
				{Filename: "node_modules/lib/index.js", InApp: false},
				{Filename: "src/a.ts", InApp: true},
				{Filename: "src/b.ts", InApp: true},
				{Filename: "src/a.ts", InApp: true},
			},
		},
	})

	ictx, err := a.ExtractContext(sentry.Issue{ID: "1"}, event)
	require.NoError(t, err)
	assert.Equal(t, []string{"node_modules/lib/index.js", "src/a.ts", "src/b.ts"}, ictx.AffectedFiles)
}

func TestAffectedFilesFieldPreference(t *testing.T) {
	a := newTestAnalyzer(10000)

	// In-app frames report the project-relative filename, third-party
	// frames the absolute path, falling back to the other field when the
	// preferred one is empty
	event := exceptionEvent(sentry.ExceptionValue{
		Type: "TypeError",
		Stacktrace: &sentry.RawStacktrace{
			Frames: []sentry.RawFrame{
				{Filename: "src/a.ts", AbsPath: "/app/src/a.ts", InApp: true},
				{Filename: "lib/x.js", AbsPath: "/abs/lib/x.js", InApp: false},
				{AbsPath: "/app/src/worker.py", InApp: true},
				{Filename: "vendor/y.js", InApp: false},
			},
		},
	})

	ictx, err := a.ExtractContext(sentry.Issue{ID: "1"}, event)
	require.NoError(t, err)
	assert.Equal(t, []string{"src/a.ts", "/abs/lib/x.js", "/app/src/worker.py", "vendor/y.js"}, ictx.AffectedFiles)
}

func TestAffectedFilesAllValuesScanned(t *testing.T) {
	a := newTestAnalyzer(10000)

	// The extracted trace (last exception value) is scanned first, then
	// every value's raw frames, so outer exceptions still contribute paths
	event := exceptionEvent(
		sentry.ExceptionValue{
			Type: "OuterError",
			Stacktrace: &sentry.RawStacktrace{
				Frames: []sentry.RawFrame{
					{Filename: "vendor/one.go", InApp: false},
				},
			},
		},
		sentry.ExceptionValue{
			Type: "InnerError",
			Stacktrace: &sentry.RawStacktrace{
				Frames: []sentry.RawFrame{
					{Filename: "vendor/two.go", InApp: false},
				},
			},
		},
	)

	ictx, err := a.ExtractContext(sentry.Issue{ID: "1"}, event)
	require.NoError(t, err)
	assert.Equal(t, []string{"vendor/two.go", "vendor/one.go"}, ictx.AffectedFiles)
}

func TestExtractContextIdempotent(t *testing.T) {
	a := newTestAnalyzer(10000)

	issue := sentry.Issue{ID: "1", Metadata: sentry.IssueMetadata{Type: "TypeError"}}
	event := exceptionEvent(sentry.ExceptionValue{
		Type:  "TypeError",
		Value: "boom",
		Stacktrace: &sentry.RawStacktrace{
			Frames: []sentry.RawFrame{
				{Filename: "src/a.ts", Function: "handler", LineNo: 7, InApp: true},
			},
		},
	})

	first, err := a.ExtractContext(issue, event)
	require.NoError(t, err)
	second, err := a.ExtractContext(issue, event)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestStackTraceInnermostFirst(t *testing.T) {
	st := &StackTrace{Frames: []StackFrame{
		{Function: "outer"},
		{Function: "middle"},
		{Function: "inner"},
	}}

	reversed := st.InnermostFirst()
	require.Len(t, reversed, 3)
	assert.Equal(t, "inner", reversed[0].Function)
	assert.Equal(t, "outer", reversed[2].Function)
	// Original order untouched
	assert.Equal(t, "outer", st.Frames[0].Function)
}

func TestIsEligible(t *testing.T) {
	withTrace := func(count string, inApp bool) *IssueContext {
		return &IssueContext{
			Issue: sentry.Issue{ID: "1", Count: count},
			StackTrace: &StackTrace{Frames: []StackFrame{
				{Filename: "src/a.ts", InApp: inApp},
			}},
		}
	}

	tests := []struct {
		name       string
		ictx       *IssueContext
		want       bool
		wantReason string
	}{
		{
			name:       "eligible",
			ictx:       withTrace("42", true),
			want:       true,
			wantReason: ReasonEligible,
		},
		{
			name:       "count at threshold is eligible",
			ictx:       withTrace("10000", true),
			want:       true,
			wantReason: ReasonEligible,
		},
		{
			name:       "count above threshold",
			ictx:       withTrace("10001", true),
			want:       false,
			wantReason: ReasonTooManyEvents,
		},
		{
			name:       "count does not parse",
			ictx:       withTrace(">1k", true),
			want:       false,
			wantReason: ReasonCountUnparsed,
		},
		{
			name:       "no in-app frames",
			ictx:       withTrace("42", false),
			want:       false,
			wantReason: ReasonNoInAppFrames,
		},
		{
			name: "no stack trace",
			ictx: &IssueContext{
				Issue: sentry.Issue{ID: "1", Count: "42"},
			},
			want:       false,
			wantReason: ReasonNoStackTrace,
		},
		{
			name: "empty stack trace",
			ictx: &IssueContext{
				Issue:      sentry.Issue{ID: "1", Count: "42"},
				StackTrace: &StackTrace{},
			},
			want:       false,
			wantReason: ReasonNoStackTrace,
		},
		{
			name:       "count with surrounding whitespace",
			ictx:       withTrace(" 42 ", true),
			want:       true,
			wantReason: ReasonEligible,
		},
	}

	a := newTestAnalyzer(10000)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, reason := a.IsEligible(tt.ictx)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantReason, reason)
		})
	}
}
