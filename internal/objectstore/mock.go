package objectstore

import (
	"context"
	"fmt"
	"sort"
)

// MockLister is an in-memory Lister used by tests and examples in place of
// a real cloud SDK client. Entries are paginated pageSize at a time in key
// order, exercising the next_token contract.
type MockLister struct {
	objects  map[string][]byte
	pageSize int
}

// NewMockLister builds a MockLister from a key→content map. pageSize <= 0
// means "return everything in one page".
func NewMockLister(objects map[string][]byte, pageSize int) *MockLister {
	return &MockLister{objects: objects, pageSize: pageSize}
}

func (m *MockLister) sortedKeys() []string {
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m *MockLister) List(ctx context.Context, prefix, token string) ([]Entry, string, error) {
	keys := m.sortedKeys()

	start := 0
	if token != "" {
		for i, k := range keys {
			if k == token {
				start = i + 1
				break
			}
		}
	}

	pageSize := m.pageSize
	if pageSize <= 0 {
		pageSize = len(keys)
	}

	var out []Entry
	end := start
	for ; end < len(keys) && len(out) < pageSize; end++ {
		k := keys[end]
		if len(k) < len(prefix) || k[:len(prefix)] != prefix {
			continue
		}
		out = append(out, Entry{Key: k, SizeBytes: int64(len(m.objects[k]))})
	}

	next := ""
	if end < len(keys) {
		next = keys[end-1]
	}
	return out, next, nil
}

func (m *MockLister) Get(ctx context.Context, key string) ([]byte, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("objectstore: mock: no such key %q", key)
	}
	return data, nil
}

var _ Lister = (*MockLister)(nil)

// MockDirLister is an in-memory DirLister used by tests in place of a real
// remote-volume client.
type MockDirLister struct {
	// dirs maps a directory path to its immediate children.
	dirs  map[string][]DirEntry
	files map[string][]byte
}

// NewMockDirLister builds a MockDirLister from explicit directory listings
// and file contents.
func NewMockDirLister(dirs map[string][]DirEntry, files map[string][]byte) *MockDirLister {
	return &MockDirLister{dirs: dirs, files: files}
}

func (m *MockDirLister) List(ctx context.Context, dir string) ([]DirEntry, error) {
	entries, ok := m.dirs[dir]
	if !ok {
		return nil, fmt.Errorf("objectstore: mock: no such directory %q", dir)
	}
	return entries, nil
}

func (m *MockDirLister) Get(ctx context.Context, path string) ([]byte, error) {
	data, ok := m.files[path]
	if !ok {
		return nil, fmt.Errorf("objectstore: mock: no such file %q", path)
	}
	return data, nil
}

var _ DirLister = (*MockDirLister)(nil)
