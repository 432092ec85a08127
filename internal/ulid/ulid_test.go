package ulid

import (
	"strings"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateWithPrefix(t *testing.T) {
	cases := []struct {
		name   string
		prefix string
	}{
		{name: "run prefix", prefix: PrefixRun},
		{name: "empty prefix", prefix: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			id := GenerateWithPrefix(tc.prefix)

			raw := id
			if tc.prefix != "" {
				require.True(t, strings.HasPrefix(id, tc.prefix+PrefixSeparator))
				raw = strings.TrimPrefix(id, tc.prefix+PrefixSeparator)
			}

			_, err := ulid.Parse(raw)
			assert.NoError(t, err, "generated ID should parse: %s", id)
		})
	}
}

func TestRunID(t *testing.T) {
	id := RunID()
	require.True(t, strings.HasPrefix(id, PrefixRun+PrefixSeparator))

	_, err := ulid.Parse(strings.TrimPrefix(id, PrefixRun+PrefixSeparator))
	assert.NoError(t, err)
}

func TestGenerateIsMonotonic(t *testing.T) {
	a := Generate()
	b := Generate()
	assert.True(t, a < b, "ULIDs should sort in generation order: %s, %s", a, b)
}
