package loggy

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerContextRoundTrip(t *testing.T) {
	fallback := NewNoopLogger()
	scoped := fallback.With("run_id", "run_test")

	ctx := WithLogger(context.Background(), scoped)
	assert.Same(t, scoped, FromContext(ctx))

	// Without an attached logger the global one is returned
	assert.Same(t, fallback, FromContext(context.Background()))
	assert.Same(t, fallback, FromContext(nil))
}

func TestRunIDContextRoundTrip(t *testing.T) {
	ctx := WithRunID(context.Background(), "run_01ABC")
	assert.Equal(t, "run_01ABC", GetRunID(ctx))

	assert.Empty(t, GetRunID(context.Background()))
	assert.Empty(t, GetRunID(nil))
}

func TestWithError(t *testing.T) {
	logger := NewNoopLogger()

	withErr := logger.WithError(errors.New("boom"))
	require.NotNil(t, withErr)
	assert.NotSame(t, logger, withErr)

	// nil error leaves the logger unchanged
	assert.Same(t, logger, logger.WithError(nil))
}
