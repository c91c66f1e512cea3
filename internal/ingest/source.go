package ingest

import "context"

// DiscoveredFile is one file matched by a source's listing capability.
type DiscoveredFile struct {
	Path      string // source-relative path, forward-slashed
	SizeBytes int64
}

// Source is the discovery+fetch capability every ingestion origin
// implements: Local, Object-store, and Remote-volume.
type Source interface {
	// Type names the source for ProcessingBatch.source_type ("local",
	// "object_store", "remote_volume").
	Type() string

	// RootLabel is recorded as ProcessingBatch.source_path.
	RootLabel() string

	// List enumerates files matching pattern, sorted by Path for
	// deterministic resume behavior.
	List(ctx context.Context, pattern string) ([]DiscoveredFile, error)

	// Fetch returns the full content of the file at path.
	Fetch(ctx context.Context, path string) ([]byte, error)
}
