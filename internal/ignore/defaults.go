package ignore

import (
	"log/slog"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// DefaultPatterns are always-excluded paths for the local ingestion source:
// version-control metadata, common dependency/build directories, and OS
// junk files that are never staged data.
var DefaultPatterns = []string{
	".git/",
	"node_modules/",
	"dist/",
	"build/",
	".ingestcore/",
	".DS_Store",
	"Thumbs.db",
}

// DefaultMatcher compiles DefaultPatterns into a Matcher.
type DefaultMatcher struct {
	matcher *gitignore.GitIgnore
	logger  *slog.Logger
}

// NewDefaultMatcher compiles DefaultPatterns. It never fails: the patterns
// are constants known to be valid.
func NewDefaultMatcher() *DefaultMatcher {
	return &DefaultMatcher{
		matcher: gitignore.CompileIgnoreLines(DefaultPatterns...),
		logger:  slog.Default().With("component", "ignore-defaults"),
	}
}

// IsIgnored reports whether path matches a default exclusion pattern.
func (d *DefaultMatcher) IsIgnored(path string, isDir bool) bool {
	normalized := normalize(path, isDir)
	if normalized == "" {
		return false
	}
	return d.matcher.MatchesPath(normalized)
}

func normalize(path string, isDir bool) string {
	p := filepath.ToSlash(path)
	p = strings.TrimPrefix(p, "./")
	if p == "" || p == "." {
		return ""
	}
	if isDir && !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return p
}

var _ Matcher = (*DefaultMatcher)(nil)
