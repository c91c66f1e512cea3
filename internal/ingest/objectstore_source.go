package ingest

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/flowforge/ingestcore/internal/objectstore"
)

// ObjectStoreConfig configures an ObjectStore source.
type ObjectStoreConfig struct {
	Bucket   string
	Prefix   string
	Region   string
	Profile  string
	Endpoint string
}

// ObjectStore is a Source backed by an objectstore.Lister capability,
// paginated via next_token.
type ObjectStore struct {
	cfg    ObjectStoreConfig
	client objectstore.Lister
}

// NewObjectStore wires cfg to an already-constructed client. The core never
// talks to a concrete cloud SDK directly; callers supply one implementing
// objectstore.Lister.
func NewObjectStore(cfg ObjectStoreConfig, client objectstore.Lister) *ObjectStore {
	return &ObjectStore{cfg: cfg, client: client}
}

func (o *ObjectStore) Type() string { return "object_store" }
func (o *ObjectStore) RootLabel() string {
	return fmt.Sprintf("s3://%s/%s", o.cfg.Bucket, o.cfg.Prefix)
}

// List pages through the client's listing, filtering by pattern against
// each entry's key relative to the configured prefix.
func (o *ObjectStore) List(ctx context.Context, pattern string) ([]DiscoveredFile, error) {
	if pattern != "" && !doublestar.ValidatePattern(pattern) {
		return nil, &InvalidPatternError{Pattern: pattern, Err: fmt.Errorf("malformed glob")}
	}

	var out []DiscoveredFile
	var token string
	for {
		entries, next, err := o.client.List(ctx, o.cfg.Prefix, token)
		if err != nil {
			return nil, fmt.Errorf("ingest: listing %s: %w", o.RootLabel(), err)
		}
		for _, e := range entries {
			relKey := strings.TrimPrefix(e.Key, o.cfg.Prefix)
			relKey = strings.TrimPrefix(relKey, "/")
			if pattern != "" {
				matched, matchErr := doublestar.Match(pattern, relKey)
				if matchErr != nil {
					return nil, &InvalidPatternError{Pattern: pattern, Err: matchErr}
				}
				if !matched {
					continue
				}
			}
			out = append(out, DiscoveredFile{Path: relKey, SizeBytes: e.SizeBytes})
		}
		if next == "" {
			break
		}
		token = next
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// Fetch retrieves the object at the given key (relative to Prefix).
func (o *ObjectStore) Fetch(ctx context.Context, path string) ([]byte, error) {
	key := o.cfg.Prefix
	if key != "" && !strings.HasSuffix(key, "/") {
		key += "/"
	}
	key += path
	return o.client.Get(ctx, key)
}

var _ Source = (*ObjectStore)(nil)
