package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/flowforge/ingestcore/internal/ignore"
)

// binaryDetectionBytes mirrors git's heuristic: a file is binary if a null
// byte appears in its first 8KB.
const binaryDetectionBytes = 8192

// LocalConfig configures a Local source.
type LocalConfig struct {
	Root string

	// GitTrackedOnly restricts discovery to files known to `git ls-files`,
	// useful when ingested fixtures live inside a tracked repository and
	// only the checked-in subset should be staged.
	GitTrackedOnly bool

	// SkipLargeFiles is a byte threshold; files larger than this are
	// skipped. Zero disables the check.
	SkipLargeFiles int64
}

// Local discovers and reads JSON/JSON-Lines files from a directory tree,
// honoring .stagingignore and a handful of built-in default exclusions.
type Local struct {
	cfg     LocalConfig
	root    string
	ignorer ignore.Matcher
}

// NewLocal resolves cfg.Root to an absolute path and loads its
// .stagingignore chain.
func NewLocal(cfg LocalConfig) (*Local, error) {
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("ingest: resolving local root %s: %w", cfg.Root, err)
	}
	composite := ignore.NewComposite(ignore.NewDefaultMatcher(), ignore.LoadOrNil(root))
	return &Local{cfg: cfg, root: root, ignorer: composite}, nil
}

func (l *Local) Type() string      { return "local" }
func (l *Local) RootLabel() string { return l.root }

// List walks the source tree, applying ignore rules, binary sniffing, the
// size limit, and the glob pattern, returning matches sorted by path.
func (l *Local) List(ctx context.Context, pattern string) ([]DiscoveredFile, error) {
	if pattern != "" {
		if !doublestar.ValidatePattern(pattern) {
			return nil, &InvalidPatternError{Pattern: pattern, Err: fmt.Errorf("malformed glob")}
		}
	}

	var tracked map[string]bool
	if l.cfg.GitTrackedOnly {
		var err error
		tracked, err = gitTrackedFiles(l.root)
		if err != nil {
			return nil, fmt.Errorf("ingest: loading git-tracked files: %w", err)
		}
	}

	symVisited := make(map[string]bool)
	var out []DiscoveredFile

	walkErr := filepath.WalkDir(l.root, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err != nil {
			return nil
		}

		relPath, relErr := filepath.Rel(l.root, path)
		if relErr != nil {
			return nil
		}
		relPath = filepath.ToSlash(relPath)
		if relPath == "." {
			return nil
		}

		isDir := d.IsDir()
		if isDir && d.Name() == ".git" {
			return fs.SkipDir
		}
		if l.ignorer.IsIgnored(relPath, isDir) {
			if isDir {
				return fs.SkipDir
			}
			return nil
		}
		if isDir {
			return nil
		}

		absPath := path
		if d.Type()&os.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil {
				return nil // dangling symlink, skip
			}
			if symVisited[resolved] {
				return nil // loop
			}
			symVisited[resolved] = true
			absPath = resolved
		}

		if tracked != nil && !tracked[relPath] {
			return nil
		}

		info, statErr := os.Stat(absPath)
		if statErr != nil {
			return nil
		}
		if l.cfg.SkipLargeFiles > 0 && info.Size() > l.cfg.SkipLargeFiles {
			return nil
		}

		if pattern != "" {
			matched, matchErr := doublestar.Match(pattern, relPath)
			if matchErr != nil {
				return &InvalidPatternError{Pattern: pattern, Err: matchErr}
			}
			if !matched {
				return nil
			}
		}

		isBin, _ := isBinary(absPath)
		if isBin {
			return nil
		}

		out = append(out, DiscoveredFile{Path: relPath, SizeBytes: info.Size()})
		return nil
	})
	if walkErr != nil {
		if ipe, ok := walkErr.(*InvalidPatternError); ok {
			return nil, ipe
		}
		return nil, fmt.Errorf("ingest: walking %s: %w", l.root, walkErr)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// Fetch reads the full content of the file at path, relative to the
// source root.
func (l *Local) Fetch(ctx context.Context, path string) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	return os.ReadFile(filepath.Join(l.root, filepath.FromSlash(path)))
}

// isBinary reports whether the first 8KB of the file at path contains a
// null byte.
func isBinary(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	buf := make([]byte, binaryDetectionBytes)
	n, err := f.Read(buf)
	if err != nil && n == 0 {
		return false, nil
	}
	return bytes.IndexByte(buf[:n], 0) != -1, nil
}

var _ Source = (*Local)(nil)

// gitTrackedFiles shells out to `git ls-files` to build the tracked-path
// set backing GitTrackedOnly.
func gitTrackedFiles(root string) (map[string]bool, error) {
	out, err := runGitLsFiles(root)
	if err != nil {
		return nil, err
	}
	files := make(map[string]bool)
	for _, line := range strings.Split(out, "\n") {
		if line != "" {
			files[line] = true
		}
	}
	return files, nil
}
