// Package codebase reads the local source checkout and gathers the file
// contents referenced by an issue's stack trace for inclusion in prompts.
package codebase

import (
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/go-enry/go-enry/v2"

	"github.com/tildaslashalef/sentryfix/internal/config"
	"github.com/tildaslashalef/sentryfix/internal/loggy"
)

// TruncationMarker is appended to file content cut at the per-file cap
const TruncationMarker = "\n... [truncated]"

// FileContext is one gathered file, ready for prompt rendering
type FileContext struct {
	// Path is the path as it appeared in the stack trace
	Path string
	// ResolvedPath is the path relative to the codebase root that the
	// content was read from, empty when the file was not found
	ResolvedPath string
	Language     string
	Content      string
	Truncated    bool
	Missing      bool
	// Note carries a human-readable explanation when the file could not
	// be located or read
	Note string
}

// Gatherer locates and reads affected files under a codebase root
type Gatherer struct {
	rootPath string
	maxFiles int
	maxChars int
	logger   *loggy.Logger
}

// NewGatherer creates a Gatherer from codebase config
func NewGatherer(cfg config.CodebaseConfig, logger *loggy.Logger) *Gatherer {
	return &Gatherer{
		rootPath: cfg.RootPath,
		maxFiles: cfg.MaxContextFiles,
		maxChars: cfg.MaxFileChars,
		logger:   logger,
	}
}

// Gather resolves and reads the given stack-trace paths against the
// codebase root, capped at the configured file limit. Every requested
// path (up to the cap) produces an entry; files that cannot be found or
// read are reported inline via Missing/Note rather than failing the run.
func (g *Gatherer) Gather(paths []string) []FileContext {
	if len(paths) > g.maxFiles {
		paths = paths[:g.maxFiles]
	}

	files := make([]FileContext, 0, len(paths))
	for _, path := range paths {
		files = append(files, g.gatherOne(path))
	}
	return files
}

func (g *Gatherer) gatherOne(path string) FileContext {
	fc := FileContext{Path: path}

	resolved, ok := g.resolve(path)
	if !ok {
		fc.Missing = true
		fc.Note = "file not found in codebase"
		g.logger.Warn("Affected file not found in codebase", "path", path, "root", g.rootPath)
		return fc
	}
	fc.ResolvedPath = resolved

	data, err := os.ReadFile(filepath.Join(g.rootPath, resolved))
	if err != nil {
		fc.Missing = true
		fc.Note = "file could not be read: " + err.Error()
		g.logger.Warn("Failed to read affected file", "path", resolved, "error", err)
		return fc
	}

	fc.Language = enry.GetLanguage(filepath.Base(resolved), data)

	// Cap is in characters, not bytes, so multibyte runes never get split
	content := string(data)
	if utf8.RuneCountInString(content) > g.maxChars {
		runes := []rune(content)
		content = string(runes[:g.maxChars]) + TruncationMarker
		fc.Truncated = true
	}
	fc.Content = content

	return fc
}

// resolve maps a stack-trace path to a path relative to the codebase
// root. A direct join is tried first; when that misses (absolute
// container paths, bundler-mangled prefixes), the tree is walked looking
// for a file whose path is a suffix match.
func (g *Gatherer) resolve(path string) (string, bool) {
	cleaned := filepath.ToSlash(filepath.Clean(path))
	cleaned = strings.TrimPrefix(cleaned, "/")

	if fileExists(filepath.Join(g.rootPath, cleaned)) {
		return cleaned, true
	}

	return g.findBySuffix(cleaned)
}

func (g *Gatherer) findBySuffix(path string) (string, bool) {
	// Match on the longest trailing segments we can; a bare basename is
	// too ambiguous on its own, so require at least the final segment to
	// match along with any parent directories present in the trace path
	var match string
	target := "/" + path

	err := filepath.WalkDir(g.rootPath, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			name := d.Name()
			if name == ".git" || name == "node_modules" || name == "vendor" {
				return filepath.SkipDir
			}
			return nil
		}
		rel, relErr := filepath.Rel(g.rootPath, p)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if strings.HasSuffix("/"+rel, target) {
			match = rel
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil || match == "" {
		return "", false
	}
	return match, true
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
