// Package ulid provides a thin wrapper around github.com/oklog/ulid/v2
// for generating prefixed, lexicographically sortable identifiers used
// to correlate a run's log lines and summary output.
package ulid

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	// PrefixRun is the prefix for autofix run IDs
	PrefixRun = "run"

	// PrefixSeparator is used to separate the prefix from the ULID
	PrefixSeparator = "-"
)

var (
	entropy     = ulid.Monotonic(rand.Reader, 0)
	entropyLock sync.Mutex
)

// Generate creates a new ULID string with the current timestamp.
func Generate() string {
	entropyLock.Lock()
	id := ulid.MustNew(ulid.Timestamp(time.Now()), entropy)
	entropyLock.Unlock()
	return id.String()
}

// GenerateWithPrefix creates a new ULID string with the given prefix,
// e.g. "run-01AN4Z07BY79KA1307SR9X4MV3".
func GenerateWithPrefix(prefix string) string {
	if prefix == "" {
		return Generate()
	}
	return prefix + PrefixSeparator + Generate()
}

// RunID generates a new run identifier.
func RunID() string {
	return GenerateWithPrefix(PrefixRun)
}
