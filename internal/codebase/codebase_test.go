package codebase

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tildaslashalef/sentryfix/internal/config"
	"github.com/tildaslashalef/sentryfix/internal/loggy"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newTestGatherer(t *testing.T, maxFiles, maxChars int) (*Gatherer, string) {
	t.Helper()
	root := t.TempDir()
	cfg := config.CodebaseConfig{
		RootPath:        root,
		MaxContextFiles: maxFiles,
		MaxFileChars:    maxChars,
	}
	return NewGatherer(cfg, loggy.NewNoopLogger()), root
}

func TestGatherDirectPath(t *testing.T) {
	g, root := newTestGatherer(t, 5, 5000)
	writeFile(t, root, "src/handler.go", "package handler\n")

	files := g.Gather([]string{"src/handler.go"})
	require.Len(t, files, 1)
	assert.Equal(t, "src/handler.go", files[0].Path)
	assert.Equal(t, "src/handler.go", files[0].ResolvedPath)
	assert.Equal(t, "Go", files[0].Language)
	assert.Equal(t, "package handler\n", files[0].Content)
	assert.False(t, files[0].Truncated)
	assert.False(t, files[0].Missing)
}

func TestGatherSuffixMatch(t *testing.T) {
	g, root := newTestGatherer(t, 5, 5000)
	writeFile(t, root, "services/api/src/worker.py", "def run():\n    pass\n")

	// Stack traces often carry container-absolute paths
	files := g.Gather([]string{"/app/src/worker.py"})
	require.Len(t, files, 1)
	assert.Equal(t, "services/api/src/worker.py", files[0].ResolvedPath)
	assert.False(t, files[0].Missing)
}

func TestGatherMissingFile(t *testing.T) {
	g, _ := newTestGatherer(t, 5, 5000)

	files := g.Gather([]string{"src/gone.ts"})
	require.Len(t, files, 1)
	assert.True(t, files[0].Missing)
	assert.Equal(t, "file not found in codebase", files[0].Note)
	assert.Empty(t, files[0].Content)
}

func TestGatherTruncation(t *testing.T) {
	g, root := newTestGatherer(t, 5, 20)
	writeFile(t, root, "big.txt", strings.Repeat("x", 100))

	files := g.Gather([]string{"big.txt"})
	require.Len(t, files, 1)
	assert.True(t, files[0].Truncated)
	assert.Equal(t, strings.Repeat("x", 20)+TruncationMarker, files[0].Content)
}

func TestGatherTruncationRuneBoundary(t *testing.T) {
	g, root := newTestGatherer(t, 5, 20)

	// Multibyte content: the cap counts characters, and the cut must never
	// split a rune and emit invalid UTF-8
	writeFile(t, root, "unicode.txt", strings.Repeat("é", 100))

	files := g.Gather([]string{"unicode.txt"})
	require.Len(t, files, 1)
	assert.True(t, files[0].Truncated)
	assert.True(t, utf8.ValidString(files[0].Content))
	assert.Equal(t, strings.Repeat("é", 20)+TruncationMarker, files[0].Content)
}

func TestGatherCapsFileCount(t *testing.T) {
	g, root := newTestGatherer(t, 2, 5000)
	for _, name := range []string{"a.go", "b.go", "c.go"} {
		writeFile(t, root, name, "package main\n")
	}

	files := g.Gather([]string{"a.go", "b.go", "c.go"})
	assert.Len(t, files, 2)
	assert.Equal(t, "a.go", files[0].Path)
	assert.Equal(t, "b.go", files[1].Path)
}

func TestGatherSkipsVendorDirs(t *testing.T) {
	g, root := newTestGatherer(t, 5, 5000)
	writeFile(t, root, "node_modules/pkg/index.js", "module.exports = {};\n")

	files := g.Gather([]string{"/bundle/pkg/index.js"})
	require.Len(t, files, 1)
	assert.True(t, files[0].Missing)
}
