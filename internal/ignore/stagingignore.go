package ignore

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// FileName is the per-directory ignore file honored by the local source,
// analogous to .gitignore but scoped to ingestion.
const FileName = ".stagingignore"

// StagingIgnoreMatcher loads every .stagingignore file under a root
// directory and evaluates them hierarchically: a file is ignored if any
// ancestor directory's .stagingignore matches it.
type StagingIgnoreMatcher struct {
	root     string
	matchers map[string]*gitignore.GitIgnore
	dirs     []string
	logger   *slog.Logger
}

// NewStagingIgnoreMatcher walks rootDir collecting and compiling every
// .stagingignore file. Absence of any such file is not an error: the
// resulting matcher simply never ignores anything.
func NewStagingIgnoreMatcher(rootDir string) (*StagingIgnoreMatcher, error) {
	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("resolving root path %s: %w", rootDir, err)
	}

	m := &StagingIgnoreMatcher{
		root:     absRoot,
		matchers: make(map[string]*gitignore.GitIgnore),
		logger:   slog.Default().With("component", "stagingignore"),
	}

	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fs.SkipDir
		}
		if d.IsDir() && d.Name() == ".git" {
			return fs.SkipDir
		}
		if d.IsDir() || d.Name() != FileName {
			return nil
		}

		relDir, err := filepath.Rel(absRoot, filepath.Dir(path))
		if err != nil {
			return nil
		}
		if relDir == "" {
			relDir = "."
		}

		compiled, err := gitignore.CompileIgnoreFile(path)
		if err != nil {
			m.logger.Debug("skipping unreadable .stagingignore", "path", path, "error", err)
			return nil
		}
		m.matchers[relDir] = compiled
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discovering %s files in %s: %w", FileName, absRoot, err)
	}

	m.dirs = make([]string, 0, len(m.matchers))
	for dir := range m.matchers {
		m.dirs = append(m.dirs, dir)
	}
	sort.Strings(m.dirs)

	return m, nil
}

// IsIgnored reports whether path is excluded by the nearest applicable
// .stagingignore rule, searching from the root toward path's directory.
func (m *StagingIgnoreMatcher) IsIgnored(path string, isDir bool) bool {
	normalized := normalize(path, isDir)
	if normalized == "" {
		return false
	}

	for _, dir := range m.dirs {
		matcher := m.matchers[dir]
		if dir != "." {
			prefix := dir + "/"
			if !strings.HasPrefix(normalized, prefix) {
				continue
			}
		}
		relPath := normalized
		if dir != "." {
			relPath = strings.TrimPrefix(normalized, dir+"/")
		}
		if matcher.MatchesPath(relPath) {
			return true
		}
	}
	return false
}

// PatternCount returns the number of .stagingignore files loaded.
func (m *StagingIgnoreMatcher) PatternCount() int { return len(m.matchers) }

var _ Matcher = (*StagingIgnoreMatcher)(nil)

// LoadOrNil returns a StagingIgnoreMatcher for root, or nil (never ignores)
// if root does not exist or cannot be stat'ed — a best-effort helper for
// sources that ingest from paths that may not be full directory trees.
func LoadOrNil(root string) Matcher {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil
	}
	m, err := NewStagingIgnoreMatcher(root)
	if err != nil {
		return nil
	}
	return m
}
