// Package ignore implements the .stagingignore exclusion chain used by the
// local ingestion source: built-in defaults plus a hierarchical
// .stagingignore file, in the same spirit as a .gitignore chain.
package ignore

import "log/slog"

// Matcher evaluates whether a path should be excluded from discovery. The
// path must be relative to the source root, using forward slashes.
type Matcher interface {
	IsIgnored(path string, isDir bool) bool
}

// Composite chains multiple Matchers; a path is ignored if any one matches.
type Composite struct {
	matchers []Matcher
	logger   *slog.Logger
}

// NewComposite builds a Composite from the given matchers. Nil entries are
// skipped so callers can pass optional matchers unconditionally.
func NewComposite(matchers ...Matcher) *Composite {
	filtered := make([]Matcher, 0, len(matchers))
	for _, m := range matchers {
		if m != nil {
			filtered = append(filtered, m)
		}
	}
	return &Composite{
		matchers: filtered,
		logger:   slog.Default().With("component", "ignore-composite"),
	}
}

// IsIgnored reports whether path is excluded by any chained matcher.
func (c *Composite) IsIgnored(path string, isDir bool) bool {
	for _, m := range c.matchers {
		if m.IsIgnored(path, isDir) {
			return true
		}
	}
	return false
}

var _ Matcher = (*Composite)(nil)
