package ingest

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/flowforge/ingestcore/internal/staging"
)

func newMemStore(t *testing.T) *staging.Store {
	t.Helper()
	s, err := staging.Memory(nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestIngestStagesRecordsFromLocalSource(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.jsonl"), "{\"x\":1}\n{\"x\":2}\n")
	writeFile(t, filepath.Join(root, "b.jsonl"), "{\"x\":3}\n")

	src, err := NewLocal(LocalConfig{Root: root})
	if err != nil {
		t.Fatal(err)
	}
	store := newMemStore(t)

	stats, err := Ingest(context.Background(), store, Config{
		Source:    src,
		Pattern:   "**/*.jsonl",
		BatchSize: 10,
		Workers:   2,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if stats.RecordsIngested != 3 {
		t.Fatalf("expected 3 records ingested, got %d", stats.RecordsIngested)
	}
	if stats.FilesProcessed != 2 {
		t.Fatalf("expected 2 files processed, got %d", stats.FilesProcessed)
	}

	count, err := store.RecordCount(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Fatalf("expected 3 staged rows, got %d", count)
	}

	batches, err := store.ListBatches(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(batches) != 1 || batches[0].Status != string(staging.BatchCompleted) {
		t.Fatalf("expected one completed batch, got %+v", batches)
	}
}

func TestIngestDedupByPathSkipsReingestedFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.jsonl"), "{\"x\":1}\n")

	src, err := NewLocal(LocalConfig{Root: root})
	if err != nil {
		t.Fatal(err)
	}
	store := newMemStore(t)
	ctx := context.Background()

	if _, err := Ingest(ctx, store, Config{Source: src, Pattern: "**/*.jsonl", Dedup: DedupByPath}, nil); err != nil {
		t.Fatal(err)
	}

	stats, err := Ingest(ctx, store, Config{Source: src, Pattern: "**/*.jsonl", Dedup: DedupByPath}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if stats.FilesSkipped != 1 {
		t.Fatalf("expected 1 file skipped on re-ingest, got %d", stats.FilesSkipped)
	}
	if stats.RecordsIngested != 0 {
		t.Fatalf("expected 0 new records on re-ingest, got %d", stats.RecordsIngested)
	}
}

func TestIngestResumeAgainstCompletedBatchFails(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.jsonl"), "{\"x\":1}\n")

	src, err := NewLocal(LocalConfig{Root: root})
	if err != nil {
		t.Fatal(err)
	}
	store := newMemStore(t)
	ctx := context.Background()

	stats, err := Ingest(ctx, store, Config{Source: src, Pattern: "**/*.jsonl"}, nil)
	if err != nil {
		t.Fatal(err)
	}

	_, err = Ingest(ctx, store, Config{
		Source:  src,
		Pattern: "**/*.jsonl",
		Resume:  true,
		BatchID: stats.BatchID,
	}, nil)

	var batchErr *BatchCompletedError
	if !errors.As(err, &batchErr) {
		t.Fatalf("expected a *BatchCompletedError, got %v (%T)", err, err)
	}
	if batchErr.BatchID != stats.BatchID {
		t.Fatalf("expected batch id %s, got %s", stats.BatchID, batchErr.BatchID)
	}
	if batchErr.Status != string(staging.BatchCompleted) {
		t.Fatalf("expected completed status, got %s", batchErr.Status)
	}
}

func TestIngestRecordsPerRecordParseErrorsWithoutAborting(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.jsonl"), "{\"x\":1}\nnot json\n{\"x\":2}\n")

	src, err := NewLocal(LocalConfig{Root: root})
	if err != nil {
		t.Fatal(err)
	}
	store := newMemStore(t)

	stats, err := Ingest(context.Background(), store, Config{Source: src, Pattern: "**/*.jsonl"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if stats.RecordsIngested != 2 {
		t.Fatalf("expected 2 valid records ingested, got %d", stats.RecordsIngested)
	}
	if stats.ErrorsCount != 1 {
		t.Fatalf("expected 1 parse error recorded, got %d", stats.ErrorsCount)
	}
}
