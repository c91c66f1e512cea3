package ingest

import (
	"context"
	"fmt"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/flowforge/ingestcore/internal/objectstore"
)

// RemoteVolumeConfig configures a RemoteVolume source: a workspace-scoped
// catalog/schema/volume path, analogous to a managed-warehouse file volume.
type RemoteVolumeConfig struct {
	Workspace string
	Catalog   string
	Schema    string
	Volume    string
	Path      string
	Token     string
}

// RemoteVolume is a Source backed by an objectstore.DirLister capability
// (recursive directory listing, Bearer auth).
type RemoteVolume struct {
	cfg    RemoteVolumeConfig
	client objectstore.DirLister
}

// NewRemoteVolume wires cfg to an already-constructed client.
func NewRemoteVolume(cfg RemoteVolumeConfig, client objectstore.DirLister) *RemoteVolume {
	return &RemoteVolume{cfg: cfg, client: client}
}

func (r *RemoteVolume) Type() string { return "remote_volume" }
func (r *RemoteVolume) RootLabel() string {
	return fmt.Sprintf("%s/%s.%s.%s%s", r.cfg.Workspace, r.cfg.Catalog, r.cfg.Schema, r.cfg.Volume, r.cfg.Path)
}

// List recurses the volume's directory API from cfg.Path, filtering by
// pattern against each entry's Key (its path relative to the volume root).
func (r *RemoteVolume) List(ctx context.Context, pattern string) ([]DiscoveredFile, error) {
	if pattern != "" && !doublestar.ValidatePattern(pattern) {
		return nil, &InvalidPatternError{Pattern: pattern, Err: fmt.Errorf("malformed glob")}
	}

	var out []DiscoveredFile
	var walk func(dir string) error
	walk = func(dir string) error {
		entries, err := r.client.List(ctx, dir)
		if err != nil {
			return fmt.Errorf("ingest: listing %s: %w", dir, err)
		}
		for _, e := range entries {
			if e.IsDir {
				if err := walk(e.Key); err != nil {
					return err
				}
				continue
			}
			if pattern != "" {
				matched, matchErr := doublestar.Match(pattern, e.Key)
				if matchErr != nil {
					return &InvalidPatternError{Pattern: pattern, Err: matchErr}
				}
				if !matched {
					continue
				}
			}
			out = append(out, DiscoveredFile{Path: e.Key, SizeBytes: e.SizeBytes})
		}
		return nil
	}

	if err := walk(r.cfg.Path); err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// Fetch retrieves the file at path via the volume's Bearer-authenticated
// client.
func (r *RemoteVolume) Fetch(ctx context.Context, path string) ([]byte, error) {
	return r.client.Get(ctx, path)
}

var _ Source = (*RemoteVolume)(nil)
